package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/channel-token-service/internal/api/http/handlers"
	"github.com/spec-kit/channel-token-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration. Auth and
// AuthMiddleware are nil when operator auth is not configured; the usage
// surface is then left open.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tokens         *handlers.TokensHandler
	Usage          *handlers.UsageHandler
	Auth           *handlers.AuthHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Get("/rtc/:channel/:role/:tokentype/:uid", cfg.Tokens.GetRtcToken)
	app.Get("/rtm/:uid", cfg.Tokens.GetRtmToken)
	app.Get("/rte/:channel/:role/:uid", cfg.Tokens.GetRteToken)
	app.Post("/tokens", cfg.Tokens.IssueToken)

	usage := app.Group("/usage")
	if cfg.AuthMiddleware != nil {
		usage.Use(cfg.AuthMiddleware.Handle)
	}
	usage.Get("/:subject", cfg.Usage.GetWindow)

	if cfg.Auth != nil {
		app.Post("/auth/login", cfg.Auth.Login)
	}
}
