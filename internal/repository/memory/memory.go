// Package memory provides an in-memory implementation of the
// repository interfaces. It backs tests and the "memory" database
// driver used for local development without PostgreSQL.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scholaris/scholaris-backend/internal/repository"
)

const defaultSessionTitle = "New Chat Session"

// Store holds sessions and messages behind a single lock so that the
// session/message cascade stays consistent.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]repository.Session
	messages map[string][]repository.Message // keyed by session id, insertion order
	seq      int64
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]repository.Session),
		messages: make(map[string][]repository.Message),
	}
}

// Sessions returns the session repository view of the store.
func (s *Store) Sessions() repository.SessionRepository { return &sessionRepo{store: s} }

// Messages returns the message repository view of the store.
func (s *Store) Messages() repository.MessageRepository { return &messageRepo{store: s} }

type sessionRepo struct {
	store *Store
}

func (r *sessionRepo) Create(_ context.Context, session repository.Session) (*repository.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.Title == "" {
		session.Title = defaultSessionTitle
	}
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	r.store.sessions[session.ID] = session
	return &session, nil
}

func (r *sessionRepo) Get(_ context.Context, id string) (*repository.Session, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	session, ok := r.store.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &session, nil
}

func (r *sessionRepo) List(_ context.Context) ([]*repository.Session, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	sessions := make([]*repository.Session, 0, len(r.store.sessions))
	for _, session := range r.store.sessions {
		s := session
		sessions = append(sessions, &s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

func (r *sessionRepo) Update(_ context.Context, id string, update repository.SessionUpdate) (*repository.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	session, ok := r.store.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if update.Title != nil {
		session.Title = *update.Title
		session.UpdatedAt = time.Now().UTC()
		r.store.sessions[id] = session
	}
	return &session, nil
}

func (r *sessionRepo) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.sessions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.store.sessions, id)
	delete(r.store.messages, id) // cascade
	return nil
}

type messageRepo struct {
	store *Store
}

func (r *messageRepo) Create(_ context.Context, message repository.Message) (*repository.Message, error) {
	if !repository.ValidRole(message.Role) {
		return nil, repository.ErrInvalidRole
	}
	if message.Content == "" {
		return nil, repository.ErrEmptyContent
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.sessions[message.SessionID]; !ok {
		return nil, repository.ErrNotFound
	}

	r.store.seq++
	message.ID = uuid.New().String()
	message.Seq = r.store.seq
	message.CreatedAt = time.Now().UTC()

	r.store.messages[message.SessionID] = append(r.store.messages[message.SessionID], message)
	return &message, nil
}

func (r *messageRepo) Get(_ context.Context, id string) (*repository.Message, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, msgs := range r.store.messages {
		for _, m := range msgs {
			if m.ID == id {
				msg := m
				return &msg, nil
			}
		}
	}
	return nil, repository.ErrNotFound
}

func (r *messageRepo) ListBySession(_ context.Context, sessionID string) ([]repository.Message, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	msgs := r.store.messages[sessionID]
	out := make([]repository.Message, len(msgs))
	copy(out, msgs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Seq < out[j].Seq
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *messageRepo) DeleteBySession(_ context.Context, sessionID string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	count := int64(len(r.store.messages[sessionID]))
	delete(r.store.messages, sessionID)
	return count, nil
}
