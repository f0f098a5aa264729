package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/scholaris/scholaris-backend/internal/repository"
)

// Service manages chat sessions and their messages.
type Service struct {
	sessions repository.SessionRepository
	messages repository.MessageRepository
	log      *logrus.Logger
}

// NewService creates a new chat service.
func NewService(sessions repository.SessionRepository, messages repository.MessageRepository, log *logrus.Logger) *Service {
	return &Service{
		sessions: sessions,
		messages: messages,
		log:      log,
	}
}

// CreateSession creates a new chat session. An empty title gets the
// store default.
func (s *Service) CreateSession(ctx context.Context, title string) (*repository.Session, error) {
	session, err := s.sessions.Create(ctx, repository.Session{Title: title})
	if err != nil {
		s.log.WithError(err).Error("failed to create session")
		return nil, fmt.Errorf("%w: create session: %v", ErrPersistence, err)
	}
	s.log.WithField("session_id", session.ID).Info("session created")
	return session, nil
}

// GetSession retrieves a session by id.
func (s *Service) GetSession(ctx context.Context, id string) (*repository.Session, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, s.storeErr(err, id)
	}
	return session, nil
}

// ListSessions returns all sessions, newest first.
func (s *Service) ListSessions(ctx context.Context) ([]*repository.Session, error) {
	sessions, err := s.sessions.List(ctx)
	if err != nil {
		s.log.WithError(err).Error("failed to list sessions")
		return nil, fmt.Errorf("%w: list sessions: %v", ErrPersistence, err)
	}
	return sessions, nil
}

// UpdateSession applies a partial update. An absent title leaves the
// stored title unchanged; an explicit empty string is rejected, so a
// persisted title always has a value.
func (s *Service) UpdateSession(ctx context.Context, id string, update repository.SessionUpdate) (*repository.Session, error) {
	if update.Title != nil && *update.Title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
	}

	session, err := s.sessions.Update(ctx, id, update)
	if err != nil {
		return nil, s.storeErr(err, id)
	}
	return session, nil
}

// DeleteSession deletes a session and, by cascade, its messages.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	if err := s.sessions.Delete(ctx, id); err != nil {
		return s.storeErr(err, id)
	}
	s.log.WithField("session_id", id).Info("session deleted")
	return nil
}

// ListMessages returns a session's messages in dialogue order.
func (s *Service) ListMessages(ctx context.Context, sessionID string) ([]repository.Message, error) {
	if _, err := s.sessions.Get(ctx, sessionID); err != nil {
		return nil, s.storeErr(err, sessionID)
	}
	messages, err := s.messages.ListBySession(ctx, sessionID)
	if err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Error("failed to list messages")
		return nil, fmt.Errorf("%w: list messages: %v", ErrPersistence, err)
	}
	return messages, nil
}

// GetMessage retrieves a single message by id.
func (s *Service) GetMessage(ctx context.Context, id string) (*repository.Message, error) {
	message, err := s.messages.Get(ctx, id)
	if err != nil {
		return nil, s.storeErr(err, id)
	}
	return message, nil
}

// ClearMessages deletes all messages of a session, returning the count.
func (s *Service) ClearMessages(ctx context.Context, sessionID string) (int64, error) {
	if _, err := s.sessions.Get(ctx, sessionID); err != nil {
		return 0, s.storeErr(err, sessionID)
	}
	count, err := s.messages.DeleteBySession(ctx, sessionID)
	if err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Error("failed to clear messages")
		return 0, fmt.Errorf("%w: clear messages: %v", ErrPersistence, err)
	}
	s.log.WithFields(logrus.Fields{"session_id": sessionID, "deleted": count}).Info("session messages cleared")
	return count, nil
}

func (s *Service) storeErr(err error, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.log.WithError(err).Error("store operation failed")
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}
