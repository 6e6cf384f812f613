// Package deferred runs below-the-fold queries concurrently with the critical
// ones. A deferred value never fails a page: errors and timeouts resolve to the
// zero value.
package deferred

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type result[T any] struct {
	value T
	err   error
}

// Value is a load started by Go and resolved by Await
type Value[T any] struct {
	name   string
	done   chan result[T]
	cancel context.CancelFunc
	logger *zap.Logger
}

// Go starts fn in its own goroutine. The load is cancelled when ctx is, or
// when Await gives up.
func Go[T any](ctx context.Context, logger *zap.Logger, name string, fn func(context.Context) (T, error)) *Value[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(ctx)
	v := &Value[T]{
		name:   name,
		done:   make(chan result[T], 1),
		cancel: cancel,
		logger: logger,
	}
	go func() {
		val, err := fn(ctx)
		v.done <- result[T]{value: val, err: err}
	}()
	return v
}

// Resolved wraps an already known value
func Resolved[T any](value T) *Value[T] {
	v := &Value[T]{done: make(chan result[T], 1), cancel: func() {}, logger: zap.NewNop()}
	v.done <- result[T]{value: value}
	return v
}

// Await waits at most timeout for the load. A zero timeout waits until the
// load finishes. Await must be called at most once.
func (v *Value[T]) Await(timeout time.Duration) T {
	defer v.cancel()

	var zero T
	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}

	select {
	case r := <-v.done:
		if r.err != nil {
			v.logger.Warn("Deferred load failed", zap.String("load", v.name), zap.Error(r.err))
			return zero
		}
		return r.value
	case <-expired:
		v.logger.Warn("Deferred load timed out", zap.String("load", v.name), zap.Duration("timeout", timeout))
		return zero
	}
}

// Cancel abandons the load when its value is no longer needed
func (v *Value[T]) Cancel() {
	v.cancel()
}
