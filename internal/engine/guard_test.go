package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEngine tracks how many invocations overlap.
type countingEngine struct {
	current int32
	max     int32
}

func (e *countingEngine) enter() {
	cur := atomic.AddInt32(&e.current, 1)
	for {
		max := atomic.LoadInt32(&e.max)
		if cur <= max || atomic.CompareAndSwapInt32(&e.max, max, cur) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	atomic.AddInt32(&e.current, -1)
}

func (e *countingEngine) Invoke(_ context.Context, _ []Message, _ string) (*Result, error) {
	e.enter()
	return &Result{Content: "ok"}, nil
}

func (e *countingEngine) Stream(_ context.Context, _ []Message, _ string) (<-chan Fragment, error) {
	out := make(chan Fragment)
	go func() {
		defer close(out)
		e.enter()
		out <- Fragment{IsFinal: true}
	}()
	return out, nil
}

func TestGuardSerializesInvocations(t *testing.T) {
	inner := &countingEngine{}
	guarded := Guard(inner, 1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := guarded.Invoke(context.Background(), nil, "hi")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&inner.max))
}

func TestGuardAllowsConfiguredConcurrency(t *testing.T) {
	inner := &countingEngine{}
	guarded := Guard(inner, 3)

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := guarded.Invoke(context.Background(), nil, "hi")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&inner.max), int32(3))
}

func TestGuardHoldsSlotForStreamLifetime(t *testing.T) {
	inner := &countingEngine{}
	guarded := Guard(inner, 1)

	stream, err := guarded.Stream(context.Background(), nil, "hi")
	require.NoError(t, err)

	// While the stream is open a second invocation cannot get a slot.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = guarded.Invoke(ctx, nil, "hi")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Draining the stream releases the slot.
	for range stream {
	}
	_, err = guarded.Invoke(context.Background(), nil, "hi")
	assert.NoError(t, err)
}

func TestGuardRespectsContextWhileWaiting(t *testing.T) {
	inner := &countingEngine{}
	guarded := Guard(inner, 1)

	stream, err := guarded.Stream(context.Background(), nil, "hi")
	require.NoError(t, err)
	defer func() {
		for range stream {
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = guarded.Invoke(ctx, nil, "hi")
	assert.ErrorIs(t, err, context.Canceled)
}
