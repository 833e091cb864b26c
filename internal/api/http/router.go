package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/mission-service/internal/api/http/handlers"
	"github.com/spec-kit/mission-service/internal/auth"
	"github.com/spec-kit/mission-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Missions       *handlers.MissionsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/version", cfg.Health.Version)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/signup", cfg.Auth.Signup)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	missions := app.Group("/missions", cfg.AuthMiddleware.Handle)
	missions.Post("/", cfg.Missions.Create)
	missions.Get("/", cfg.Missions.List)
	missions.Get("/:id", cfg.Missions.Get)
	missions.Patch("/:id", cfg.Missions.Update)
	missions.Post("/:id/transition", cfg.Missions.Transition)
	missions.Post("/:id/start", cfg.Missions.Start)
	missions.Post("/:id/finish", cfg.Missions.Finish)
	missions.Post("/:id/cancel", cfg.Missions.Cancel)
	missions.Get("/:id/history", cfg.Missions.History)
}
