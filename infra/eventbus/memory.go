package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/events"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/eventbus"
)

// MemoryEventBus dispatches events synchronously to handlers registered
// in-process. Handler errors are logged and never returned to the emitter.
type MemoryEventBus struct {
	handlers  map[string][]eventbus.HandlerFunc
	mu        sync.RWMutex
	logger    *slog.Logger
	published []events.Event
}

// NewWithMemory creates a synchronous in-memory bus.
func NewWithMemory(logger *slog.Logger) *MemoryEventBus {
	return &MemoryEventBus{
		handlers:  make(map[string][]eventbus.HandlerFunc),
		logger:    logger.With("bus", "memory"),
		published: make([]events.Event, 0),
	}
}

// Register adds a handler for eventType.
func (b *MemoryEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit calls every handler registered for the event's type in order.
func (b *MemoryEventBus) Emit(ctx context.Context, event events.Event) error {
	b.mu.Lock()
	b.published = append(b.published, event)
	handlers := append([]eventbus.HandlerFunc{}, b.handlers[event.Type()]...)
	b.mu.Unlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			b.logger.Error("failed to process event", "type", event.Type(), "error", err)
		}
	}
	return nil
}

// ClearPublished forgets the recorded events.
func (b *MemoryEventBus) ClearPublished() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = make([]events.Event, 0)
}

// Published returns a copy of every event emitted so far.
func (b *MemoryEventBus) Published() []events.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]events.Event{}, b.published...)
}

var _ eventbus.Bus = (*MemoryEventBus)(nil)

type envelope struct {
	ctx   context.Context
	event events.Event
}

// MemoryAsyncEventBus queues events and runs handlers on a background
// goroutine so Emit never waits for them.
type MemoryAsyncEventBus struct {
	handlers map[string][]eventbus.HandlerFunc
	mu       sync.RWMutex
	eventCh  chan envelope
	wg       sync.WaitGroup
	cmu      sync.RWMutex
	closed   bool
	log      *slog.Logger
}

// NewWithMemoryAsync creates an asynchronous in-memory bus.
func NewWithMemoryAsync(logger *slog.Logger) *MemoryAsyncEventBus {
	b := &MemoryAsyncEventBus{
		handlers: make(map[string][]eventbus.HandlerFunc),
		eventCh:  make(chan envelope, 100),
		log:      logger.With("bus", "memory_async"),
	}
	go b.process()
	return b
}

func (b *MemoryAsyncEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.mu.Unlock()
}

// Emit enqueues the event. The handler context is detached from ctx's
// cancellation.
func (b *MemoryAsyncEventBus) Emit(ctx context.Context, event events.Event) error {
	b.cmu.RLock()
	defer b.cmu.RUnlock()
	if b.closed {
		return domain.ErrClosed
	}
	b.wg.Add(1)
	b.eventCh <- envelope{ctx: context.WithoutCancel(ctx), event: event}
	return nil
}

// Wait blocks until every event emitted so far has been handled.
func (b *MemoryAsyncEventBus) Wait() {
	b.wg.Wait()
}

// Close drains pending events and stops the worker.
func (b *MemoryAsyncEventBus) Close() error {
	b.cmu.Lock()
	if b.closed {
		b.cmu.Unlock()
		return nil
	}
	b.closed = true
	close(b.eventCh)
	b.cmu.Unlock()
	b.wg.Wait()
	return nil
}

func (b *MemoryAsyncEventBus) process() {
	for w := range b.eventCh {
		b.mu.RLock()
		handlers := append([]eventbus.HandlerFunc{}, b.handlers[w.event.Type()]...)
		b.mu.RUnlock()
		for _, handler := range handlers {
			b.dispatch(w, handler)
		}
		b.wg.Done()
	}
}

func (b *MemoryAsyncEventBus) dispatch(w envelope, handler eventbus.HandlerFunc) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("panic recovered in event handler", "type", w.event.Type(), "panic", r)
		}
	}()
	if err := handler(w.ctx, w.event); err != nil {
		b.log.Error("failed to process event", "type", w.event.Type(), "error", err)
	}
}

var _ eventbus.Bus = (*MemoryAsyncEventBus)(nil)
