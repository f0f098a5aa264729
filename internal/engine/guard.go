package engine

import (
	"context"
)

// Guarded limits the number of in-flight invocations of a wrapped
// engine. The underlying engine is a single shared resource built at
// startup; unless it is known to be safe for concurrent calls,
// concurrent turns must not share a mutable invocation context, so the
// default capacity is one invocation at a time.
type Guarded struct {
	inner Engine
	slots chan struct{}
}

// Guard wraps an engine with a counting semaphore of the given
// capacity. A capacity below one is treated as one.
func Guard(inner Engine, capacity int) *Guarded {
	if capacity < 1 {
		capacity = 1
	}
	return &Guarded{
		inner: inner,
		slots: make(chan struct{}, capacity),
	}
}

func (g *Guarded) acquire(ctx context.Context) error {
	select {
	case g.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Guarded) release() {
	<-g.slots
}

// Invoke acquires a slot for the whole blocking call.
func (g *Guarded) Invoke(ctx context.Context, history []Message, userMessage string) (*Result, error) {
	if err := g.acquire(ctx); err != nil {
		return nil, err
	}
	defer g.release()

	return g.inner.Invoke(ctx, history, userMessage)
}

// Stream acquires a slot for the full lifetime of the stream; the slot
// is released only once the inner channel closes.
func (g *Guarded) Stream(ctx context.Context, history []Message, userMessage string) (<-chan Fragment, error) {
	if err := g.acquire(ctx); err != nil {
		return nil, err
	}

	inner, err := g.inner.Stream(ctx, history, userMessage)
	if err != nil {
		g.release()
		return nil, err
	}

	out := make(chan Fragment)
	go func() {
		defer g.release()
		defer close(out)
		for fragment := range inner {
			out <- fragment
		}
	}()

	return out, nil
}
