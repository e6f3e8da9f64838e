package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sima-go-api/internal/config"
	"github.com/noah-isme/sima-go-api/internal/handler"
	"github.com/noah-isme/sima-go-api/internal/middleware"
	"github.com/noah-isme/sima-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler    *handler.AuthHandler
	CaseHandler    *handler.CaseHandler
	SchoolHandler  *handler.SchoolHandler
	UserHandler    *handler.UserHandler
	LibraryHandler *handler.LibraryHandler
	AuditHandler   *handler.AuditHandler
	JWTMiddleware  fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	adminGate := middleware.RequireAdministrator()

	if deps.AuthHandler != nil {
		auth := api.Group("/auth")
		deps.AuthHandler.Register(auth)
		deps.AuthHandler.RegisterProtected(auth.Group("", jwtMiddleware))
	}

	if deps.CaseHandler != nil {
		cases := api.Group("/cases", jwtMiddleware)
		deps.CaseHandler.Register(cases)
	}

	if deps.SchoolHandler != nil {
		schools := api.Group("/schools", jwtMiddleware)
		deps.SchoolHandler.Register(schools, adminGate)
	}

	if deps.UserHandler != nil {
		users := api.Group("/users", jwtMiddleware)
		deps.UserHandler.Register(users)
	}

	if deps.LibraryHandler != nil {
		library := api.Group("/library", jwtMiddleware)
		deps.LibraryHandler.Register(library, adminGate)
	}

	if deps.AuditHandler != nil {
		audit := api.Group("/audit", jwtMiddleware, adminGate)
		deps.AuditHandler.Register(audit)
	}
}
