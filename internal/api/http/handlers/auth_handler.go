package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/channel-token-service/internal/api/dto"
	"github.com/spec-kit/channel-token-service/internal/auth"
	"github.com/spec-kit/channel-token-service/pkg/util"
)

// AuthHandler issues operator JWTs for the protected usage surface.
type AuthHandler struct {
	tokens   *auth.TokenManager
	operator auth.OperatorCredentials
}

// NewAuthHandler constructs handler.
func NewAuthHandler(tokenManager *auth.TokenManager, operator auth.OperatorCredentials) *AuthHandler {
	return &AuthHandler{tokens: tokenManager, operator: operator}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Key == "" || req.Secret == "" {
		return fiber.NewError(http.StatusBadRequest, "key and secret required")
	}

	if req.Key != h.operator.Key || h.operator.VerifySecret(req.Secret) != nil {
		return util.NewUnauthorized("invalid credentials")
	}

	token, exp, err := h.tokens.GenerateToken(req.Key)
	if err != nil {
		return util.NewInternalError(err)
	}

	return c.JSON(fiber.Map{"data": dto.AuthResponse{Token: token, ExpiresAt: exp}})
}
