package chat

import (
	"github.com/scholaris/scholaris-backend/internal/engine"
	"github.com/scholaris/scholaris-backend/internal/repository"
)

// ProjectHistory reduces a session's stored messages to the dialogue
// the engine sees for one turn: every prior message in order, excluding
// the just-written current message. Roles are passed through unchanged;
// system messages stay in place for the engine to interpret. The
// function is pure, so the projection can be recomputed at will.
func ProjectHistory(messages []repository.Message, excludeID string) []engine.Message {
	history := make([]engine.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.ID == excludeID {
			continue
		}
		history = append(history, engine.Message{
			Role:        msg.Role,
			Content:     msg.Content,
			ToolCalls:   msg.ToolCalls.String,
			ToolResults: msg.ToolResults.String,
		})
	}
	return history
}
