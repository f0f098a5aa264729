package openai

import (
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholaris/scholaris-backend/internal/engine"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(Config{
		APIKey:       "test-key",
		Model:        "test-model",
		SystemPrompt: "be helpful",
	})
	require.NoError(t, err)
	return e
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{Model: "test-model"})
	assert.Error(t, err)

	_, err = New(Config{APIKey: "test-key"})
	assert.Error(t, err)
}

func TestBuildRequestShape(t *testing.T) {
	e := testEngine(t)

	history := []engine.Message{
		{Role: "user", Content: "first question"},
		{Role: "assistant", Content: "first answer"},
	}
	req := e.buildRequest(history, "second question")

	assert.Equal(t, "test-model", req.Model)
	require.Len(t, req.Messages, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Equal(t, "be helpful", req.Messages[0].Content)
	assert.Equal(t, "first question", req.Messages[1].Content)
	assert.Equal(t, "first answer", req.Messages[2].Content)
	assert.Equal(t, openai.ChatMessageRoleUser, req.Messages[3].Role)
	assert.Equal(t, "second question", req.Messages[3].Content)
}

func TestBuildRequestCarriesToolContext(t *testing.T) {
	e := testEngine(t)

	history := []engine.Message{
		{Role: "user", Content: "find papers"},
		{
			Role:        "assistant",
			Content:     "looked it up",
			ToolCalls:   `[{"id":"a","name":"arxiv","arguments":"{\"query\":\"transformers\"}"}]`,
			ToolResults: `{"a":"two results"}`,
		},
	}
	req := e.buildRequest(history, "summarize them")

	// system, user, assistant+calls, tool result, new user message
	require.Len(t, req.Messages, 5)

	withCalls := req.Messages[2]
	require.Len(t, withCalls.ToolCalls, 1)
	assert.Equal(t, "a", withCalls.ToolCalls[0].ID)
	assert.Equal(t, openai.ToolTypeFunction, withCalls.ToolCalls[0].Type)
	assert.Equal(t, "arxiv", withCalls.ToolCalls[0].Function.Name)
	assert.Equal(t, `{"query":"transformers"}`, withCalls.ToolCalls[0].Function.Arguments)

	result := req.Messages[3]
	assert.Equal(t, openai.ChatMessageRoleTool, result.Role)
	assert.Equal(t, "a", result.ToolCallID)
	assert.Equal(t, "two results", result.Content)
}

func TestBuildRequestOrphanResultsKeepStableOrder(t *testing.T) {
	e := testEngine(t)

	history := []engine.Message{
		{
			Role:        "assistant",
			Content:     "used two tools",
			ToolResults: `{"b":"second","a":"first"}`,
		},
	}
	req := e.buildRequest(history, "go on")

	// system, assistant, two tool results in id order, new user message
	require.Len(t, req.Messages, 5)
	assert.Equal(t, "a", req.Messages[2].ToolCallID)
	assert.Equal(t, "b", req.Messages[3].ToolCallID)
}

func TestBuildRequestSkipsMalformedToolPayload(t *testing.T) {
	e := testEngine(t)

	history := []engine.Message{
		{Role: "assistant", Content: "answer", ToolCalls: "not json", ToolResults: "also not json"},
	}
	req := e.buildRequest(history, "next")

	require.Len(t, req.Messages, 3)
	assert.Empty(t, req.Messages[1].ToolCalls)
}
