package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/tutorlink-api/internal/config"
	"github.com/noah-isme/tutorlink-api/internal/handler"
	"github.com/noah-isme/tutorlink-api/internal/middleware"
	"github.com/noah-isme/tutorlink-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	IdentityHandler     *handler.IdentityHandler
	SessionHandler      *handler.SessionHandler
	ChatHandler         *handler.ChatHandler
	AvailabilityHandler *handler.AvailabilityHandler
	EventHandler        *handler.EventHandler
	JWTMiddleware       fiber.Handler
	ChatRateLimit       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.IdentityHandler != nil {
		identity := api.Group("/identity", jwtMiddleware)
		deps.IdentityHandler.Register(identity)
	}

	if deps.SessionHandler != nil {
		sessions := api.Group("/sessions", jwtMiddleware)
		deps.SessionHandler.Register(sessions)
		if deps.ChatHandler != nil {
			sessions.Post("/request", deps.ChatHandler.RequestSession)
		}
	}

	if deps.ChatHandler != nil {
		chat := api.Group("/chat", jwtMiddleware)
		if deps.ChatRateLimit != nil {
			chat.Use(deps.ChatRateLimit)
		}
		deps.ChatHandler.Register(chat)
	}

	if deps.AvailabilityHandler != nil {
		availability := api.Group("", jwtMiddleware)
		deps.AvailabilityHandler.Register(availability)
	}

	// Backend-to-backend webhook; the scheduling backend authenticates with
	// a service-role token.
	if deps.EventHandler != nil {
		internal := app.Group("/internal", jwtMiddleware, middleware.RequireRole("service"))
		deps.EventHandler.Register(internal)
	}
}
