package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/peergrade-api/internal/config"
	"github.com/noah-isme/peergrade-api/internal/handler"
	"github.com/noah-isme/peergrade-api/internal/middleware"
	"github.com/noah-isme/peergrade-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	CourseHandler      *handler.CourseHandler
	TaskHandler        *handler.TaskHandler
	SubmissionHandler  *handler.SubmissionHandler
	GradingHandler     *handler.GradingHandler
	GradingFeedHandler *handler.GradingFeedHandler
	SeedHandler        *handler.SeedHandler
	JWTMiddleware      fiber.Handler
	HealthProbes       map[string]handler.HealthProbe
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	// Seeding is guarded by its own token rather than a user session.
	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(api.Group("/seed"))
	}

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.CourseHandler != nil {
		deps.CourseHandler.Register(api.Group("/courses", jwtMiddleware))
	}

	if deps.TaskHandler != nil {
		deps.TaskHandler.Register(api.Group("/tasks", jwtMiddleware))
	}

	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.Register(api.Group("/submissions", jwtMiddleware))
	}

	if deps.GradingHandler != nil {
		limiter := middleware.RateLimit("grading-submit", cfg.GradingRateLimit, cfg.GradingRateWindow)
		deps.GradingHandler.Register(api.Group("/grading", jwtMiddleware), limiter)
	}

	if deps.GradingFeedHandler != nil {
		deps.GradingFeedHandler.Register(app.Group("/ws/grading", jwtMiddleware))
	}
}
