package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/channel-token-service/internal/api/dto"
	"github.com/spec-kit/channel-token-service/internal/domain"
	"github.com/spec-kit/channel-token-service/internal/service"
	"github.com/spec-kit/channel-token-service/pkg/util"
)

// TokensHandler exposes the issuance endpoints. Raw role and token-type
// selectors are parsed here, once; the composer only ever sees the closed
// domain types.
type TokensHandler struct {
	tokens *service.TokenService
}

// NewTokensHandler constructs handler.
func NewTokensHandler(tokenService *service.TokenService) *TokensHandler {
	return &TokensHandler{tokens: tokenService}
}

// GetRtcToken handles GET /rtc/:channel/:role/:tokentype/:uid.
func (h *TokensHandler) GetRtcToken(c *fiber.Ctx) error {
	role, err := domain.ParseRole(c.Params("role"))
	if err != nil {
		return err
	}
	variant, err := domain.ParseTokenVariant(c.Params("tokentype"))
	if err != nil {
		return err
	}

	artifact, err := h.tokens.ComposeMediaToken(c.Context(), domain.TokenRequest{
		Channel: c.Params("channel"),
		Subject: c.Params("uid"),
		Role:    role,
		Variant: variant,
		Expiry:  c.Query("expiry"),
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": dto.TokenResponse{
		Token:     artifact.Token,
		ExpiresAt: artifact.Window.ExpiresAt,
	}})
}

// GetRtmToken handles GET /rtm/:uid.
func (h *TokensHandler) GetRtmToken(c *fiber.Ctx) error {
	artifact, err := h.tokens.ComposeMessagingToken(c.Context(), domain.TokenRequest{
		Subject: c.Params("uid"),
		Expiry:  c.Query("expiry"),
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": dto.TokenResponse{
		Token:     artifact.Token,
		ExpiresAt: artifact.Window.ExpiresAt,
	}})
}

// GetRteToken handles GET /rte/:channel/:role/:uid.
func (h *TokensHandler) GetRteToken(c *fiber.Ctx) error {
	role, err := domain.ParseRole(c.Params("role"))
	if err != nil {
		return err
	}

	bundle, err := h.tokens.ComposeCombinedToken(c.Context(), domain.TokenRequest{
		Channel: c.Params("channel"),
		Subject: c.Params("uid"),
		Role:    role,
		Expiry:  c.Query("expiry"),
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": dto.CombinedTokenResponse{
		RTCToken:  bundle.RTCToken,
		RTMToken:  bundle.RTMToken,
		ExpiresAt: bundle.Window.ExpiresAt,
	}})
}

// IssueToken handles POST /tokens.
func (h *TokensHandler) IssueToken(c *fiber.Ctx) error {
	var body dto.TokenRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	switch domain.TokenKind(body.Kind) {
	case domain.KindMedia:
		role, err := domain.ParseRole(body.Role)
		if err != nil {
			return err
		}
		variant, err := domain.ParseTokenVariant(body.TokenType)
		if err != nil {
			return err
		}
		artifact, err := h.tokens.ComposeMediaToken(c.Context(), domain.TokenRequest{
			Channel: body.Channel,
			Subject: body.UID,
			Role:    role,
			Variant: variant,
			Expiry:  body.Expiry,
		})
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": dto.TokenResponse{
			Token:     artifact.Token,
			ExpiresAt: artifact.Window.ExpiresAt,
		}})

	case domain.KindMessaging:
		artifact, err := h.tokens.ComposeMessagingToken(c.Context(), domain.TokenRequest{
			Subject: body.UID,
			Expiry:  body.Expiry,
		})
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": dto.TokenResponse{
			Token:     artifact.Token,
			ExpiresAt: artifact.Window.ExpiresAt,
		}})

	case domain.KindCombined:
		role, err := domain.ParseRole(body.Role)
		if err != nil {
			return err
		}
		bundle, err := h.tokens.ComposeCombinedToken(c.Context(), domain.TokenRequest{
			Channel: body.Channel,
			Subject: body.UID,
			Role:    role,
			Expiry:  body.Expiry,
		})
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": dto.CombinedTokenResponse{
			RTCToken:  bundle.RTCToken,
			RTMToken:  bundle.RTMToken,
			ExpiresAt: bundle.Window.ExpiresAt,
		}})

	default:
		return util.NewValidationError("kind must be rtc, rtm or rte", map[string]any{"kind": body.Kind})
	}
}
