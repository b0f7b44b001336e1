package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-bridge/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Tickets     *handlers.TicketsHandler
	Transcripts *handlers.TranscriptsHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	tickets := app.Group("/tickets")
	tickets.Post("/", cfg.Tickets.Create)
	tickets.Get("/", cfg.Tickets.List)
	tickets.Post("/close", cfg.Tickets.Close)
	tickets.Get("/transcripts/:ticketId", cfg.Transcripts.Get)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Get("/:id/messages", cfg.Tickets.ListMessages)
	tickets.Put("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Post("/:id/archive", cfg.Tickets.Archive)
	tickets.Delete("/:id/purge", cfg.Tickets.Purge)
	tickets.Delete("/:id", cfg.Tickets.Delete)

	app.Post("/messages", cfg.Tickets.AppendMessage)
}
