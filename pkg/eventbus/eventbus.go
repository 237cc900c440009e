package eventbus

import (
	"context"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/events"
)

// HandlerFunc processes one event. Returned errors are logged by the bus.
type HandlerFunc func(ctx context.Context, e events.Event) error

// Bus defines the contract for publishing and subscribing to domain events.
type Bus interface {
	Register(eventType string, handler HandlerFunc)
	Emit(ctx context.Context, event events.Event) error
}
