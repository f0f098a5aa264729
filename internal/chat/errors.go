package chat

import "errors"

// Failure classes of a turn. Handlers map these onto transport
// outcomes; the orchestrator wraps underlying causes with %w so that
// errors.Is works across the stack.
var (
	// ErrValidation covers a missing message or session id. Nothing is
	// mutated before validation passes.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound covers a session id that does not resolve.
	ErrNotFound = errors.New("session not found")

	// ErrPersistence covers store read/write failures. Fatal for the
	// user-message step; for the assistant-message step the computed
	// answer is reported lost rather than silently degraded.
	ErrPersistence = errors.New("persistence failed")

	// ErrEngine covers an engine invocation that raised or returned
	// malformed output.
	ErrEngine = errors.New("engine invocation failed")
)
