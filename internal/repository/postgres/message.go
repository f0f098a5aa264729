package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/scholaris/scholaris-backend/internal/repository"
)

// pqForeignKeyViolation is the PostgreSQL error code for a failed
// foreign key constraint, raised when a message references a missing session.
const pqForeignKeyViolation = "23503"

// MessageRepository implements repository.MessageRepository using PostgreSQL
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository creates a new PostgreSQL message repository
func NewMessageRepository(db *sqlx.DB) repository.MessageRepository {
	return &MessageRepository{db: db}
}

// Create creates a new message. Fails with repository.ErrNotFound if
// the owning session does not exist.
func (r *MessageRepository) Create(ctx context.Context, message repository.Message) (*repository.Message, error) {
	if !repository.ValidRole(message.Role) {
		return nil, repository.ErrInvalidRole
	}
	if message.Content == "" {
		return nil, repository.ErrEmptyContent
	}

	message.ID = uuid.New().String()
	message.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO chat_messages (id, session_id, role, content, tool_calls, tool_results, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq
	`

	err := r.db.QueryRowxContext(ctx, query,
		message.ID, message.SessionID, message.Role, message.Content,
		message.ToolCalls, message.ToolResults, message.CreatedAt,
	).Scan(&message.Seq)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("insert message: %w", err)
	}

	return &message, nil
}

// Get retrieves a single message by ID
func (r *MessageRepository) Get(ctx context.Context, id string) (*repository.Message, error) {
	var message repository.Message
	query := `
		SELECT id, session_id, role, content, tool_calls, tool_results, seq, created_at
		FROM chat_messages
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &message, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select message: %w", err)
	}

	return &message, nil
}

// ListBySession retrieves messages for a session in dialogue order.
// Ties on created_at are broken by insertion order.
func (r *MessageRepository) ListBySession(ctx context.Context, sessionID string) ([]repository.Message, error) {
	var messages []repository.Message
	query := `
		SELECT id, session_id, role, content, tool_calls, tool_results, seq, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY created_at ASC, seq ASC
	`

	if err := r.db.SelectContext(ctx, &messages, query, sessionID); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	return messages, nil
}

// DeleteBySession removes all messages of a session and returns the count.
func (r *MessageRepository) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM chat_messages WHERE session_id = $1", sessionID)
	if err != nil {
		return 0, fmt.Errorf("delete messages: %w", err)
	}

	return result.RowsAffected()
}
