package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/scholaris/scholaris-backend/internal/api/models"
	"github.com/scholaris/scholaris-backend/internal/chat"
	"github.com/scholaris/scholaris-backend/internal/repository"
)

// statusFor maps turn/store failures onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, chat.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, chat.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, chat.ErrEngine):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func errJSON(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// CreateSession handles POST /api/chat/sessions
func CreateSession(svc *chat.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.CreateSessionRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid request body",
				})
			}
		}

		session, err := svc.CreateSession(c.Context(), req.Title)
		if err != nil {
			return errJSON(c, err)
		}

		return c.JSON(models.NewSessionResponse(session, nil))
	}
}

// GetSessions handles GET /api/chat/sessions
func GetSessions(svc *chat.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessions, err := svc.ListSessions(c.Context())
		if err != nil {
			return errJSON(c, err)
		}

		out := make([]models.SessionResponse, len(sessions))
		for i, s := range sessions {
			out[i] = models.NewSessionResponse(s, nil)
		}
		return c.JSON(out)
	}
}

// GetSession handles GET /api/chat/sessions/:id, returning the session
// with its messages embedded.
func GetSession(svc *chat.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Params("id")

		session, err := svc.GetSession(c.Context(), sessionID)
		if err != nil {
			return errJSON(c, err)
		}
		messages, err := svc.ListMessages(c.Context(), sessionID)
		if err != nil {
			return errJSON(c, err)
		}

		return c.JSON(models.NewSessionResponse(session, messages))
	}
}

// UpdateSession handles PUT and PATCH /api/chat/sessions/:id. Absent
// fields are left unchanged.
func UpdateSession(svc *chat.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Params("id")

		var req models.UpdateSessionRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		session, err := svc.UpdateSession(c.Context(), sessionID, repository.SessionUpdate{Title: req.Title})
		if err != nil {
			return errJSON(c, err)
		}
		messages, err := svc.ListMessages(c.Context(), sessionID)
		if err != nil {
			return errJSON(c, err)
		}

		return c.JSON(models.NewSessionResponse(session, messages))
	}
}

// DeleteSession handles DELETE /api/chat/sessions/:id. Messages cascade.
func DeleteSession(svc *chat.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.DeleteSession(c.Context(), c.Params("id")); err != nil {
			return errJSON(c, err)
		}

		return c.JSON(fiber.Map{
			"detail": "session deleted",
		})
	}
}

// GetSessionMessages handles GET /api/chat/sessions/:id/messages
func GetSessionMessages(svc *chat.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		messages, err := svc.ListMessages(c.Context(), c.Params("id"))
		if err != nil {
			return errJSON(c, err)
		}

		return c.JSON(models.NewMessageResponses(messages))
	}
}

// ClearSessionMessages handles DELETE /api/chat/sessions/:id/messages
func ClearSessionMessages(svc *chat.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		count, err := svc.ClearMessages(c.Context(), c.Params("id"))
		if err != nil {
			return errJSON(c, err)
		}

		return c.JSON(fiber.Map{
			"deleted": count,
		})
	}
}

// GetMessage handles GET /api/chat/messages/:id
func GetMessage(svc *chat.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		message, err := svc.GetMessage(c.Context(), c.Params("id"))
		if err != nil {
			return errJSON(c, err)
		}

		return c.JSON(models.NewMessageResponse(*message))
	}
}
