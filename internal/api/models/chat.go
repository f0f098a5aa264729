// Package models defines the request and response shapes of the HTTP API.
package models

import (
	"time"

	"github.com/scholaris/scholaris-backend/internal/repository"
)

// CreateSessionRequest creates a new chat session.
type CreateSessionRequest struct {
	Title string `json:"title"`
}

// UpdateSessionRequest partially updates a session. A nil Title means
// the field was absent and must be left unchanged.
type UpdateSessionRequest struct {
	Title *string `json:"title"`
}

// ChatRequest is one inbound turn.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	Stream    bool   `json:"stream"`
}

// MessageResponse mirrors a stored message. ToolCalls and ToolResults
// are the opaque serialized payloads, null when absent.
type MessageResponse struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	ToolCalls   *string   `json:"tool_calls"`
	ToolResults *string   `json:"tool_results"`
	CreatedAt   time.Time `json:"created_at"`
}

// SessionResponse mirrors a stored session, optionally with its messages.
type SessionResponse struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Messages  []MessageResponse `json:"messages,omitempty"`
}

// ChatResponse is the non-streaming turn response.
type ChatResponse struct {
	SessionID  string          `json:"session_id"`
	Message    MessageResponse `json:"message"`
	IsComplete bool            `json:"is_complete"`
}

// NewMessageResponse converts a stored message.
func NewMessageResponse(m repository.Message) MessageResponse {
	resp := MessageResponse{
		ID:        m.ID,
		SessionID: m.SessionID,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
	if m.ToolCalls.Valid {
		v := m.ToolCalls.String
		resp.ToolCalls = &v
	}
	if m.ToolResults.Valid {
		v := m.ToolResults.String
		resp.ToolResults = &v
	}
	return resp
}

// NewMessageResponses converts a message list.
func NewMessageResponses(msgs []repository.Message) []MessageResponse {
	out := make([]MessageResponse, len(msgs))
	for i, m := range msgs {
		out[i] = NewMessageResponse(m)
	}
	return out
}

// NewSessionResponse converts a stored session.
func NewSessionResponse(s *repository.Session, msgs []repository.Message) SessionResponse {
	return SessionResponse{
		ID:        s.ID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Messages:  NewMessageResponses(msgs),
	}
}
