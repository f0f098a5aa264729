package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/scholaris/scholaris-backend/internal/api/handlers"
	"github.com/scholaris/scholaris-backend/internal/chat"
)

// SetupRoutes configures all API routes. authMW may be nil when auth
// is disabled.
func SetupRoutes(app *fiber.App, svc *chat.Service, orch *chat.Orchestrator, authMW fiber.Handler) {
	api := app.Group("/api/chat")
	if authMW != nil {
		api.Use(authMW)
	}

	// Session management
	api.Post("/sessions", handlers.CreateSession(svc))
	api.Get("/sessions", handlers.GetSessions(svc))
	api.Get("/sessions/:id", handlers.GetSession(svc))
	api.Put("/sessions/:id", handlers.UpdateSession(svc))
	api.Patch("/sessions/:id", handlers.UpdateSession(svc))
	api.Delete("/sessions/:id", handlers.DeleteSession(svc))
	api.Get("/sessions/:id/messages", handlers.GetSessionMessages(svc))
	api.Delete("/sessions/:id/messages", handlers.ClearSessionMessages(svc))
	api.Get("/messages/:id", handlers.GetMessage(svc))

	// Turns
	api.Post("/message", handlers.SendMessage(orch))
	api.Post("/stream", handlers.StreamMessage(orch))

	// WebSocket streaming variant
	api.Use("/stream/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/stream/ws", websocket.New(handlers.StreamMessageWS(orch)))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "scholaris-backend",
		})
	})
}
