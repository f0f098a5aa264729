package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Message roles accepted by the store.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

var (
	// ErrNotFound is returned when a session or message does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRole is returned when a message carries an unknown role.
	ErrInvalidRole = errors.New("invalid message role")
	// ErrEmptyContent is returned when a message is persisted without content.
	ErrEmptyContent = errors.New("message content must not be empty")
)

// ValidRole reports whether role is one of the accepted message roles.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAssistant, RoleSystem, RoleTool:
		return true
	}
	return false
}

// Session represents a chat session
type Session struct {
	ID        string    `db:"id"`
	Title     string    `db:"title"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Message represents a chat message. ToolCalls and ToolResults are
// opaque serialized payloads; the store never interprets them.
type Message struct {
	ID          string         `db:"id"`
	SessionID   string         `db:"session_id"`
	Role        string         `db:"role"`
	Content     string         `db:"content"`
	ToolCalls   sql.NullString `db:"tool_calls"`
	ToolResults sql.NullString `db:"tool_results"`
	Seq         int64          `db:"seq"`
	CreatedAt   time.Time      `db:"created_at"`
}

// SessionUpdate carries the fields of a partial session update. A nil
// pointer means the field was absent from the request and must be left
// unchanged.
type SessionUpdate struct {
	Title *string
}

// SessionRepository defines session storage operations
type SessionRepository interface {
	Create(ctx context.Context, session Session) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	List(ctx context.Context) ([]*Session, error)
	Update(ctx context.Context, id string, update SessionUpdate) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// MessageRepository defines message storage operations. Deleting a
// session cascades to its messages; messages are otherwise immutable.
type MessageRepository interface {
	Create(ctx context.Context, message Message) (*Message, error)
	Get(ctx context.Context, id string) (*Message, error)
	ListBySession(ctx context.Context, sessionID string) ([]Message, error)
	DeleteBySession(ctx context.Context, sessionID string) (int64, error)
}
