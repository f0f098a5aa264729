package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scholaris/scholaris-backend/internal/repository"
)

// DefaultSessionTitle is applied when a session is created without one.
const DefaultSessionTitle = "New Chat Session"

// SessionRepository implements repository.SessionRepository using PostgreSQL
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new PostgreSQL session repository
func NewSessionRepository(db *sqlx.DB) repository.SessionRepository {
	return &SessionRepository{db: db}
}

// Create creates a new session
func (r *SessionRepository) Create(ctx context.Context, session repository.Session) (*repository.Session, error) {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.Title == "" {
		session.Title = DefaultSessionTitle
	}
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	query := `
		INSERT INTO chat_sessions (id, title, created_at, updated_at)
		VALUES (:id, :title, :created_at, :updated_at)
	`

	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	return &session, nil
}

// Get retrieves a session by ID
func (r *SessionRepository) Get(ctx context.Context, id string) (*repository.Session, error) {
	var session repository.Session
	query := `
		SELECT id, title, created_at, updated_at
		FROM chat_sessions
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &session, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select session: %w", err)
	}

	return &session, nil
}

// List retrieves all sessions, newest first
func (r *SessionRepository) List(ctx context.Context) ([]*repository.Session, error) {
	var sessions []*repository.Session
	query := `
		SELECT id, title, created_at, updated_at
		FROM chat_sessions
		ORDER BY created_at DESC
	`

	if err := r.db.SelectContext(ctx, &sessions, query); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return sessions, nil
}

// Update applies a partial update. Absent fields are left unchanged.
func (r *SessionRepository) Update(ctx context.Context, id string, update repository.SessionUpdate) (*repository.Session, error) {
	if update.Title == nil {
		// Nothing to change; still verify the session exists.
		return r.Get(ctx, id)
	}

	var session repository.Session
	query := `
		UPDATE chat_sessions
		SET title = $2, updated_at = $3
		WHERE id = $1
		RETURNING id, title, created_at, updated_at
	`

	err := r.db.GetContext(ctx, &session, query, id, *update.Title, time.Now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("update session: %w", err)
	}

	return &session, nil
}

// Delete deletes a session; messages cascade via the foreign key.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM chat_sessions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}
