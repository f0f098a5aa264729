package chat

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scholaris/scholaris-backend/internal/repository"
)

func TestProjectHistoryExcludesCurrentMessage(t *testing.T) {
	messages := []repository.Message{
		{ID: "m1", Role: "user", Content: "first question"},
		{ID: "m2", Role: "assistant", Content: "first answer"},
		{ID: "m3", Role: "user", Content: "current question"},
	}

	history := ProjectHistory(messages, "m3")

	assert.Len(t, history, 2)
	assert.Equal(t, "first question", history[0].Content)
	assert.Equal(t, "first answer", history[1].Content)
}

func TestProjectHistoryEmptySession(t *testing.T) {
	history := ProjectHistory(nil, "m1")
	assert.Empty(t, history)
}

func TestProjectHistoryPreservesRolesAndOrder(t *testing.T) {
	messages := []repository.Message{
		{ID: "m1", Role: "system", Content: "be helpful"},
		{ID: "m2", Role: "user", Content: "hello"},
		{ID: "m3", Role: "assistant", Content: "hi"},
		{ID: "m4", Role: "tool", Content: "tool output"},
		{ID: "m5", Role: "user", Content: "current"},
	}

	history := ProjectHistory(messages, "m5")

	roles := make([]string, len(history))
	for i, h := range history {
		roles[i] = h.Role
	}
	assert.Equal(t, []string{"system", "user", "assistant", "tool"}, roles)
}

func TestProjectHistoryCarriesToolPayloads(t *testing.T) {
	messages := []repository.Message{
		{
			ID:          "m1",
			Role:        "assistant",
			Content:     "looked something up",
			ToolCalls:   sql.NullString{String: `[{"id":"a"}]`, Valid: true},
			ToolResults: sql.NullString{String: `{"a":"result"}`, Valid: true},
		},
		{ID: "m2", Role: "user", Content: "current"},
	}

	history := ProjectHistory(messages, "m2")

	assert.Len(t, history, 1)
	assert.Equal(t, `[{"id":"a"}]`, history[0].ToolCalls)
	assert.Equal(t, `{"a":"result"}`, history[0].ToolResults)
}

func TestProjectHistoryIsRestartable(t *testing.T) {
	messages := []repository.Message{
		{ID: "m1", Role: "user", Content: "hello"},
		{ID: "m2", Role: "user", Content: "current"},
	}

	first := ProjectHistory(messages, "m2")
	second := ProjectHistory(messages, "m2")

	assert.Equal(t, first, second)
}
