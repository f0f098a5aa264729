package handlers

import (
	"bufio"
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/scholaris/scholaris-backend/internal/api/models"
	"github.com/scholaris/scholaris-backend/internal/api/sse"
	"github.com/scholaris/scholaris-backend/internal/chat"
)

// SendMessage handles POST /api/chat/message, the non-streaming turn
// endpoint. Requests asking for streaming are rejected before any
// state mutation.
func SendMessage(orch *chat.Orchestrator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.ChatRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		if req.Stream {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Use /stream endpoint for streaming",
			})
		}

		result, err := orch.Complete(c.Context(), chat.TurnRequest{
			SessionID: req.SessionID,
			Message:   req.Message,
		})
		if err != nil {
			return errJSON(c, err)
		}

		return c.JSON(models.ChatResponse{
			SessionID:  result.SessionID,
			Message:    models.NewMessageResponse(*result.Message),
			IsComplete: true,
		})
	}
}

// StreamMessage handles POST /api/chat/stream, the SSE turn endpoint.
// Validation and not-found failures surface as plain JSON errors before
// the stream opens; afterwards every outcome ends with a final frame
// and the [DONE] sentinel.
func StreamMessage(orch *chat.Orchestrator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.ChatRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		// The stream writer runs after this handler returns, so the
		// turn context must outlive the fiber context.
		ctx, cancel := context.WithCancel(context.Background())

		deliveries, err := orch.StreamTurn(ctx, chat.TurnRequest{
			SessionID: req.SessionID,
			Message:   req.Message,
		})
		if err != nil {
			cancel()
			return errJSON(c, err)
		}

		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			defer cancel()

			enc := sse.NewEncoder(w)
			defer enc.Done()

			writable := true
			for delivery := range deliveries {
				if !writable {
					// Client is gone; keep draining so the turn can
					// still finish persisting.
					continue
				}
				if err := enc.Encode(deliveryChunk(delivery)); err != nil {
					writable = false
					cancel()
				}
			}
		})

		return nil
	}
}

// StreamMessageWS serves the WebSocket variant of the streaming
// endpoint. The client sends one ChatRequest and receives the same
// frames the SSE transport carries, then the connection closes.
func StreamMessageWS(orch *chat.Orchestrator) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		var req models.ChatRequest
		if err := c.ReadJSON(&req); err != nil {
			c.WriteJSON(sse.Chunk{IsFinal: true, Error: "invalid request"})
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		deliveries, err := orch.StreamTurn(ctx, chat.TurnRequest{
			SessionID: req.SessionID,
			Message:   req.Message,
		})
		if err != nil {
			c.WriteJSON(sse.Chunk{IsFinal: true, Error: err.Error()})
			return
		}

		writable := true
		for delivery := range deliveries {
			if !writable {
				continue
			}
			if err := c.WriteJSON(deliveryChunk(delivery)); err != nil {
				writable = false
				cancel()
			}
		}

		if writable {
			c.WriteMessage(websocket.TextMessage, []byte(sse.DoneSentinel))
		}
	}
}

func deliveryChunk(d chat.Delivery) sse.Chunk {
	chunk := sse.Chunk{
		Content:   d.Content,
		IsFinal:   d.IsFinal,
		ToolCalls: d.ToolCalls,
		MessageID: d.MessageID,
	}
	if d.Err != nil {
		chunk.Error = d.Err.Error()
	}
	return chunk
}
