package chat

import (
	"encoding/json"
	"fmt"

	"github.com/scholaris/scholaris-backend/internal/engine"
)

// ToolCallAccumulator collects the tool invocations of one turn. Call
// descriptors and result payloads may arrive in any order relative to
// each other; descriptors keep first-seen order and a result without a
// matching descriptor (or a descriptor that never receives a result)
// is retained as-is. Serialization happens only at Finalize.
type ToolCallAccumulator struct {
	order   []string
	calls   map[string]engine.ToolCall
	results map[string]string
}

// NewToolCallAccumulator creates an empty accumulator for one turn.
func NewToolCallAccumulator() *ToolCallAccumulator {
	return &ToolCallAccumulator{
		calls:   make(map[string]engine.ToolCall),
		results: make(map[string]string),
	}
}

// AddCall records a tool-call descriptor. Repeated ids keep their
// first-seen position; later descriptors overwrite the stored fields,
// since streams may re-deliver a completed version of a call.
func (a *ToolCallAccumulator) AddCall(call engine.ToolCall) {
	if _, seen := a.calls[call.ID]; !seen {
		a.order = append(a.order, call.ID)
	}
	a.calls[call.ID] = call
}

// AddResult records the result payload for a call id. The descriptor
// may not have arrived yet.
func (a *ToolCallAccumulator) AddResult(callID, payload string) {
	a.results[callID] = payload
}

// Calls returns the descriptors in first-seen order.
func (a *ToolCallAccumulator) Calls() []engine.ToolCall {
	if len(a.order) == 0 {
		return nil
	}
	calls := make([]engine.ToolCall, 0, len(a.order))
	for _, id := range a.order {
		calls = append(calls, a.calls[id])
	}
	return calls
}

// Empty reports whether the turn produced no tool activity.
func (a *ToolCallAccumulator) Empty() bool {
	return len(a.order) == 0 && len(a.results) == 0
}

// Finalize serializes the accumulated calls and results into the two
// opaque payloads the store persists. Either string is empty when the
// corresponding side saw nothing.
func (a *ToolCallAccumulator) Finalize() (toolCalls string, toolResults string, err error) {
	if len(a.order) > 0 {
		raw, err := json.Marshal(a.Calls())
		if err != nil {
			return "", "", fmt.Errorf("marshal tool calls: %w", err)
		}
		toolCalls = string(raw)
	}
	if len(a.results) > 0 {
		raw, err := json.Marshal(a.results)
		if err != nil {
			return "", "", fmt.Errorf("marshal tool results: %w", err)
		}
		toolResults = string(raw)
	}
	return toolCalls, toolResults, nil
}
