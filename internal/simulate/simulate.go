package simulate

import (
	"context"
	"time"
)

// Result is the outcome of a simulated remote call.
type Result[T any] struct {
	Value T
	Err   error
}

// Run starts fn after delay and delivers its result on the returned channel.
// If ctx ends first, fn never runs and the channel yields ctx.Err().
// The channel is buffered, so an abandoned result does not leak the goroutine.
func Run[T any](ctx context.Context, delay time.Duration, fn func() (T, error)) <-chan Result[T] {
	out := make(chan Result[T], 1)
	go func() {
		defer close(out)

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			out <- Result[T]{Err: ctx.Err()}
		case <-timer.C:
			v, err := fn()
			out <- Result[T]{Value: v, Err: err}
		}
	}()
	return out
}

// Await blocks until the result arrives or ctx ends. A result that lands
// together with cancellation is dropped in favour of ctx.Err().
func Await[T any](ctx context.Context, results <-chan Result[T]) (T, error) {
	var zero T
	select {
	case r := <-results:
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return r.Value, r.Err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Do runs fn after delay and waits for it.
func Do[T any](ctx context.Context, delay time.Duration, fn func() (T, error)) (T, error) {
	return Await(ctx, Run(ctx, delay, fn))
}
