// Package stream provides cancellable live sequences used by the stores to
// push full snapshots to observers.
package stream

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Next once the subscription has ended.
var ErrClosed = errors.New("stream: subscription closed")

// Producer pushes values through emit until ctx is done or it has nothing
// more to send. emit returns false once the subscription is closed.
type Producer[T any] func(ctx context.Context, emit func(T) bool)

// Subscription is a live sequence of values with its own lifetime.
// Closing it stops the producer; it never affects writes already issued.
type Subscription[T any] struct {
	ch     chan T
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// New starts produce in a goroutine and returns the subscription reading
// from it. The subscription also ends when ctx is cancelled.
func New[T any](ctx context.Context, produce Producer[T]) *Subscription[T] {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription[T]{
		ch:     make(chan T),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(s.ch)
		defer close(s.done)
		produce(ctx, func(v T) bool {
			select {
			case s.ch <- v:
				return true
			case <-ctx.Done():
				return false
			}
		})
	}()
	return s
}

// Updates returns the channel of values. It is closed when the
// subscription ends.
func (s *Subscription[T]) Updates() <-chan T {
	return s.ch
}

// Next blocks for the next value.
func (s *Subscription[T]) Next(ctx context.Context) (T, error) {
	var zero T
	select {
	case v, ok := <-s.ch:
		if !ok {
			return zero, ErrClosed
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Close stops the subscription and waits for the producer to return.
func (s *Subscription[T]) Close() {
	s.once.Do(s.cancel)
	<-s.done
}

// Map derives a subscription whose values are fn applied to src's values.
// Closing the derived subscription closes src.
func Map[T, U any](ctx context.Context, src *Subscription[T], fn func(T) U) *Subscription[U] {
	return New(ctx, func(ctx context.Context, emit func(U) bool) {
		defer src.Close()
		for {
			select {
			case v, ok := <-src.Updates():
				if !ok {
					return
				}
				if !emit(fn(v)) {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	})
}

// Snapshot returns the first value of a subscription and closes it.
func Snapshot[T any](ctx context.Context, s *Subscription[T]) (T, error) {
	defer s.Close()
	return s.Next(ctx)
}
