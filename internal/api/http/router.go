package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-resolver/internal/api/http/handlers"
	"github.com/spec-kit/ticket-resolver/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Resolve        *handlers.ResolveHandler
	Escalations    *handlers.EscalationsHandler
	Knowledge      *handlers.KnowledgeHandler
	Stats          *handlers.StatsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/token", cfg.Auth.Token)

	v1 := app.Group("/v1", cfg.AuthMiddleware.Handle)
	v1.Post("/tickets/resolve", cfg.Resolve.Resolve)
	v1.Post("/tickets/resolve-batch", cfg.Resolve.ResolveBatch)
	v1.Get("/escalations", cfg.Escalations.List)
	v1.Post("/knowledge", cfg.Knowledge.Ingest)
	v1.Get("/stats", cfg.Stats.Pipeline)
}
