// Package engine defines the boundary to the reasoning engine: a
// shared resource that accepts a role-tagged message sequence and
// either returns one complete result or yields a finite stream of
// fragments.
package engine

import (
	"context"
)

// Message is one projected history entry handed to the engine.
// ToolCalls and ToolResults carry the serialized payloads stored with
// the original message, unmodified.
type Message struct {
	Role        string `json:"role"`
	Content     string `json:"content"`
	ToolCalls   string `json:"tool_calls,omitempty"`
	ToolResults string `json:"tool_results,omitempty"`
}

// ToolCall describes one tool invocation requested by the engine.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Result is the outcome of a blocking invocation.
type Result struct {
	Content     string
	ToolCalls   []ToolCall
	ToolResults map[string]string // keyed by tool call id
}

// Fragment is one unit of a streaming invocation. Non-final fragments
// carry only Content. Exactly one final fragment ends a healthy
// stream, carrying the accumulated tool calls and no content. A
// fragment with Err set terminates the stream abnormally.
type Fragment struct {
	Content   string
	IsFinal   bool
	ToolCalls []ToolCall
	Err       error
}

// Engine is the reasoning engine boundary. Implementations are not
// assumed safe for concurrent invocation; wrap with Guarded to share
// one engine across turns.
type Engine interface {
	// Invoke runs one blocking completion over the projected history
	// plus the new user message.
	Invoke(ctx context.Context, history []Message, userMessage string) (*Result, error)

	// Stream runs one streaming completion. The returned channel is
	// closed after the final (or erroring) fragment. The sequence is
	// finite and not restartable.
	Stream(ctx context.Context, history []Message, userMessage string) (<-chan Fragment, error)
}
