// Package sse frames orchestrator deliveries as server-sent events.
// The encoder is a pure framing layer: one `data:` frame per delivery,
// JSON payload, blank-line terminated, ended by a literal [DONE]
// sentinel frame that is distinct from any data frame.
package sse

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/scholaris/scholaris-backend/internal/engine"
)

// DoneSentinel is the literal payload of the end-of-stream frame.
const DoneSentinel = "[DONE]"

// Chunk is the wire shape of one data frame. ToolCalls serializes as
// null when the turn saw none. Error is set instead of Content on a
// terminal error frame, keeping failures structurally distinct from
// model output.
type Chunk struct {
	Content   string            `json:"content"`
	IsFinal   bool              `json:"is_final"`
	ToolCalls []engine.ToolCall `json:"tool_calls"`
	MessageID string            `json:"message_id,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// Encoder writes frames to a transport writer, flushing after each
// frame when the writer supports it.
type Encoder struct {
	w io.Writer
}

// NewEncoder creates an encoder over w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes one data frame.
func (e *Encoder) Encode(chunk Chunk) error {
	payload, err := json.Marshal(chunk)
	if err != nil {
		return fmt.Errorf("marshal chunk: %w", err)
	}
	if _, err := fmt.Fprintf(e.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return e.flush()
}

// Done writes the end-of-stream sentinel frame.
func (e *Encoder) Done() error {
	if _, err := fmt.Fprintf(e.w, "data: %s\n\n", DoneSentinel); err != nil {
		return err
	}
	return e.flush()
}

func (e *Encoder) flush() error {
	if f, ok := e.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}
