package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/support-accounts/internal/api/http/handlers"
	"github.com/spec-kit/support-accounts/internal/auth"
	"github.com/spec-kit/support-accounts/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	GraphQL        *handlers.GraphQLHandler
	Metrics        *observability.Metrics
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	gql := app.Group("/graphql", cfg.AuthMiddleware.Handle)
	gql.Get("", cfg.GraphQL.Serve)
	gql.Post("", cfg.GraphQL.Serve)
}
