package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/support-accounts/internal/observability"
)

// ServerConfig bundles what NewServer needs besides routes.
type ServerConfig struct {
	AppName string
	Timeout time.Duration
	Logger  *zap.Logger
	Metrics *observability.Metrics
	Routes  RouteConfig
}

// NewServer builds the fiber app with middlewares and routes attached.
func NewServer(cfg ServerConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, cfg.Logger, cfg.Metrics, cfg.Timeout)
	RegisterRoutes(app, cfg.Routes)
	return app
}
