package stream

import (
	"context"
	"sync"
)

// Hub fans a "something changed" signal out to watchers. Signals are
// coalesced: a slow watcher sees at most one pending signal.
type Hub struct {
	mu       sync.Mutex
	watchers map[uint64]chan struct{}
	next     uint64
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{watchers: make(map[uint64]chan struct{})}
}

// Watch registers a watcher. The returned channel already holds one signal
// so the watcher loads an initial snapshot straight away.
func (h *Hub) Watch() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	ch <- struct{}{}

	h.mu.Lock()
	id := h.next
	h.next++
	h.watchers[id] = ch
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		delete(h.watchers, id)
		h.mu.Unlock()
	}
}

// Broadcast signals every watcher without blocking.
func (h *Hub) Broadcast() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Len reports the number of active watchers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.watchers)
}

// Loader reads the current value behind a hub.
type Loader[T any] func(ctx context.Context) (T, error)

// Watch returns a subscription that emits load's result initially and
// after every hub signal. Load errors are passed to onErr and the
// subscription keeps waiting for the next signal.
func Watch[T any](ctx context.Context, h *Hub, load Loader[T], onErr func(error)) *Subscription[T] {
	signal, release := h.Watch()
	return New(ctx, func(ctx context.Context, emit func(T) bool) {
		defer release()
		for {
			select {
			case <-ctx.Done():
				return
			case <-signal:
			}
			v, err := load(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if onErr != nil {
					onErr(err)
				}
				continue
			}
			if !emit(v) {
				return
			}
		}
	})
}
