package notification

import (
	"context"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/notification"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/stream"
)

// Store is the append-only per-user notification collection.
type Store interface {
	// Append persists e for userID, assigning its ID and CreatedAt.
	Append(ctx context.Context, userID string, e *notification.Event) error

	// ListAll returns every notification of the user, newest first.
	ListAll(ctx context.Context, userID string) ([]notification.Event, error)

	// Subscribe pushes the full list on every change.
	Subscribe(ctx context.Context, userID string) (*stream.Subscription[[]notification.Event], error)

	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) error
	DeleteOne(ctx context.Context, userID, id string) error
	DeleteAll(ctx context.Context, userID string) error
	UnreadCount(ctx context.Context, userID string) (int, error)
}
