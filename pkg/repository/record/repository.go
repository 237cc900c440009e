package record

import (
	"context"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/record"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/stream"
	"github.com/shopspring/decimal"
)

// LocalStore is the on-device durable store. Every mutation goes through a
// single serial writer, so local writes apply in submission order.
type LocalStore interface {
	// InsertAndReturnID commits a new row and returns its local id.
	InsertAndReturnID(ctx context.Context, r record.Record) (int64, error)

	// Update overwrites the row identified by r.LocalID.
	Update(ctx context.Context, r record.Record) error

	// SetRemoteID attaches the remote id to an existing row without touching
	// any other field. It fails with domain.ErrAlreadyExists when the row
	// already has a remote id and domain.ErrNotFound when the row is gone.
	SetRemoteID(ctx context.Context, localID int64, remoteID string) error

	// Delete removes the row identified by r.LocalID.
	Delete(ctx context.Context, r record.Record) error

	// QueryAll returns a live view of all rows, newest first.
	QueryAll(ctx context.Context) (*stream.Subscription[[]record.Record], error)

	// SumByKind returns a live total for one kind.
	SumByKind(ctx context.Context, kind record.Kind) (*stream.Subscription[decimal.Decimal], error)

	// Close stops the writer after draining queued writes.
	Close() error
}

// RemoteStore is the networked per-user document store. All calls block
// until the server answers; callers wanting fire-and-forget run them in a
// goroutine.
type RemoteStore interface {
	// Add stores a new document and returns its remote id.
	Add(ctx context.Context, userID string, r record.Record) (string, error)

	// Update replaces the document with the given remote id.
	Update(ctx context.Context, userID, remoteID string, r record.Record) error

	// Delete removes the document with the given remote id.
	Delete(ctx context.Context, userID, remoteID string) error

	// Subscribe pushes the full document set, newest first, on every change.
	Subscribe(ctx context.Context, userID string) (*stream.Subscription[[]record.Record], error)
}
