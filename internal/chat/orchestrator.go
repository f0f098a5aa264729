package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/scholaris/scholaris-backend/internal/engine"
	"github.com/scholaris/scholaris-backend/internal/repository"
)

// turnState tracks where a turn is in its lifecycle. Transitions are
// strictly sequential within a turn; Errored is reachable from any
// non-terminal state.
type turnState int

const (
	stateIdle turnState = iota
	stateAwaitingUserPersist
	stateHistoryLoaded
	stateEngineInvoked
	stateStreaming
	stateFinalizing
	stateCompleted
	stateErrored
)

func (s turnState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateAwaitingUserPersist:
		return "awaiting_user_persist"
	case stateHistoryLoaded:
		return "history_loaded"
	case stateEngineInvoked:
		return "engine_invoked"
	case stateStreaming:
		return "streaming"
	case stateFinalizing:
		return "finalizing"
	case stateCompleted:
		return "completed"
	case stateErrored:
		return "errored"
	}
	return "unknown"
}

// TurnRequest is one inbound user message against a session.
type TurnRequest struct {
	SessionID string
	Message   string
}

// TurnResult is the outcome of a completed non-streaming turn.
type TurnResult struct {
	SessionID string
	Message   *repository.Message
}

// Delivery is one unit handed to the stream encoder. Non-final
// deliveries carry content only. The final delivery carries the
// persisted message id (empty when nothing was persisted) and the
// tool-call summary; Err is set instead when the turn failed after the
// stream opened.
type Delivery struct {
	Content   string
	IsFinal   bool
	ToolCalls []engine.ToolCall
	MessageID string
	Err       error
}

// Orchestrator coordinates one turn: validate, persist the user
// message, project history, invoke the engine, accumulate output,
// persist the assistant message, emit completion.
type Orchestrator struct {
	sessions repository.SessionRepository
	messages repository.MessageRepository
	engine   engine.Engine
	log      *logrus.Logger
}

// NewOrchestrator creates a turn orchestrator.
func NewOrchestrator(sessions repository.SessionRepository, messages repository.MessageRepository, eng engine.Engine, log *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		sessions: sessions,
		messages: messages,
		engine:   eng,
		log:      log,
	}
}

// begin runs the shared head of a turn: validation, user-message
// persistence, and history projection. No state is mutated before
// validation passes. Returns the projected history and the persisted
// user message.
func (o *Orchestrator) begin(ctx context.Context, req TurnRequest) ([]engine.Message, *repository.Message, error) {
	if req.Message == "" {
		return nil, nil, fmt.Errorf("%w: message must not be empty", ErrValidation)
	}
	if req.SessionID == "" {
		return nil, nil, fmt.Errorf("%w: session_id must not be empty", ErrValidation)
	}

	log := o.log.WithField("session_id", req.SessionID)

	if _, err := o.sessions.Get(ctx, req.SessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, req.SessionID)
		}
		return nil, nil, fmt.Errorf("%w: load session: %v", ErrPersistence, err)
	}
	log.WithField("state", stateAwaitingUserPersist).Debug("persisting user message")

	userMsg, err := o.messages.Create(ctx, repository.Message{
		SessionID: req.SessionID,
		Role:      repository.RoleUser,
		Content:   req.Message,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, req.SessionID)
		}
		return nil, nil, fmt.Errorf("%w: persist user message: %v", ErrPersistence, err)
	}

	stored, err := o.messages.ListBySession(ctx, req.SessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: load history: %v", ErrPersistence, err)
	}
	log.WithField("state", stateHistoryLoaded).Debug("history projected")

	return ProjectHistory(stored, userMsg.ID), userMsg, nil
}

// Complete runs one non-streaming turn.
func (o *Orchestrator) Complete(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	log := o.log.WithField("session_id", req.SessionID)

	history, _, err := o.begin(ctx, req)
	if err != nil {
		log.WithError(err).Warn("turn rejected")
		return nil, err
	}
	log.WithFields(logrus.Fields{"state": stateEngineInvoked, "history_len": len(history)}).Info("invoking engine")

	result, err := o.engine.Invoke(ctx, history, req.Message)
	if err != nil {
		log.WithError(err).Error("engine invocation failed")
		return nil, fmt.Errorf("%w: %v", ErrEngine, err)
	}
	if result.Content == "" {
		log.Error("engine returned empty content")
		return nil, fmt.Errorf("%w: engine returned empty content", ErrEngine)
	}

	acc := NewToolCallAccumulator()
	for _, call := range result.ToolCalls {
		acc.AddCall(call)
	}
	for id, payload := range result.ToolResults {
		acc.AddResult(id, payload)
	}
	toolCalls, toolResults, err := acc.Finalize()
	if err != nil {
		log.WithError(err).Error("tool call serialization failed")
		return nil, fmt.Errorf("%w: %v", ErrEngine, err)
	}

	assistantMsg, err := o.messages.Create(ctx, repository.Message{
		SessionID:   req.SessionID,
		Role:        repository.RoleAssistant,
		Content:     result.Content,
		ToolCalls:   nullString(toolCalls),
		ToolResults: nullString(toolResults),
	})
	if err != nil {
		// The computed answer is lost; report rather than degrade.
		log.WithError(err).Error("failed to persist assistant message")
		return nil, fmt.Errorf("%w: persist assistant message: %v", ErrPersistence, err)
	}

	log.WithField("message_id", assistantMsg.ID).Info("turn completed")
	return &TurnResult{SessionID: req.SessionID, Message: assistantMsg}, nil
}

// StreamTurn runs one streaming turn. Validation, not-found, and any
// failure before the engine yields are returned synchronously, before
// a stream opens. After that, every outcome is reported through the
// returned channel, which always ends with exactly one final delivery
// and is then closed. If ctx is canceled mid-stream (client gone),
// forwarding stops but the accumulated content is still persisted.
func (o *Orchestrator) StreamTurn(ctx context.Context, req TurnRequest) (<-chan Delivery, error) {
	log := o.log.WithField("session_id", req.SessionID)

	history, _, err := o.begin(ctx, req)
	if err != nil {
		log.WithError(err).Warn("turn rejected")
		return nil, err
	}
	log.WithFields(logrus.Fields{"state": stateEngineInvoked, "history_len": len(history)}).Info("starting engine stream")

	fragments, err := o.engine.Stream(ctx, history, req.Message)
	if err != nil {
		log.WithError(err).Error("engine stream failed to start")
		return nil, fmt.Errorf("%w: %v", ErrEngine, err)
	}

	out := make(chan Delivery)
	go o.pump(ctx, log, req, fragments, out)
	return out, nil
}

// pump drains the engine stream, forwarding fragments and finalizing
// the turn. It owns the out channel.
func (o *Orchestrator) pump(ctx context.Context, log *logrus.Entry, req TurnRequest, fragments <-chan engine.Fragment, out chan<- Delivery) {
	defer close(out)

	state := stateStreaming
	log.WithField("state", state).Debug("forwarding fragments")

	forwarding := true
	send := func(d Delivery) {
		if !forwarding {
			return
		}
		select {
		case out <- d:
		case <-ctx.Done():
			log.Info("client gone, no longer forwarding fragments")
			forwarding = false
		}
	}

	acc := NewToolCallAccumulator()
	var content strings.Builder

	for fragment := range fragments {
		if fragment.Err != nil {
			state = stateErrored
			log.WithError(fragment.Err).WithField("state", state).Error("engine stream failed")
			send(Delivery{IsFinal: true, Err: fmt.Errorf("%w: %v", ErrEngine, fragment.Err)})
			return
		}
		if fragment.IsFinal {
			for _, call := range fragment.ToolCalls {
				acc.AddCall(call)
			}
			break
		}
		content.WriteString(fragment.Content)
		send(Delivery{Content: fragment.Content})
	}

	state = stateFinalizing
	toolCalls, toolResults, err := acc.Finalize()
	if err != nil {
		log.WithError(err).Error("tool call serialization failed")
		send(Delivery{IsFinal: true, Err: fmt.Errorf("%w: %v", ErrEngine, err)})
		return
	}

	var messageID string
	if content.Len() > 0 {
		// Persist with a fresh context so a disconnected client does
		// not leave the turn half-recorded.
		assistantMsg, err := o.messages.Create(context.Background(), repository.Message{
			SessionID:   req.SessionID,
			Role:        repository.RoleAssistant,
			Content:     content.String(),
			ToolCalls:   nullString(toolCalls),
			ToolResults: nullString(toolResults),
		})
		if err != nil {
			state = stateErrored
			log.WithError(err).WithField("state", state).Error("failed to persist assistant message")
			send(Delivery{IsFinal: true, Err: fmt.Errorf("%w: persist assistant message: %v", ErrPersistence, err)})
			return
		}
		messageID = assistantMsg.ID
	} else {
		log.Info("engine produced no content, skipping assistant persistence")
	}

	state = stateCompleted
	log.WithFields(logrus.Fields{
		"state":       state,
		"message_id":  messageID,
		"tool_calls":  len(acc.Calls()),
		"content_len": content.Len(),
	}).Info("turn completed")
	send(Delivery{IsFinal: true, MessageID: messageID, ToolCalls: acc.Calls()})
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
