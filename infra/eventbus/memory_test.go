package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryEventBus_DispatchesByType(t *testing.T) {
	bus := NewWithMemory(slog.Default())

	var got []string
	bus.Register(events.EventTypeRecordCreated.String(), func(ctx context.Context, e events.Event) error {
		got = append(got, "first")
		return errors.New("ignored")
	})
	bus.Register(events.EventTypeRecordCreated.String(), func(ctx context.Context, e events.Event) error {
		got = append(got, "second")
		return nil
	})
	bus.Register(events.EventTypeRecordDeleted.String(), func(ctx context.Context, e events.Event) error {
		got = append(got, "deleted")
		return nil
	})

	require.NoError(t, bus.Emit(context.Background(), created("Food")))
	assert.Equal(t, []string{"first", "second"}, got)
	assert.Len(t, bus.Published(), 1)

	bus.ClearPublished()
	assert.Empty(t, bus.Published())
}

func TestMemoryAsyncEventBus_HandlesAfterWait(t *testing.T) {
	bus := NewWithMemoryAsync(slog.Default())

	var count atomic.Int32
	bus.Register(events.EventTypeRecordCreated.String(), func(ctx context.Context, e events.Event) error {
		count.Add(1)
		return nil
	})
	bus.Register(events.EventTypeRecordCreated.String(), func(ctx context.Context, e events.Event) error {
		panic("boom")
	})

	ctx, cancel := context.WithCancel(context.Background())
	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Emit(ctx, created("Food")))
	}
	cancel()
	bus.Wait()
	assert.Equal(t, int32(5), count.Load())

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())
	assert.ErrorIs(t, bus.Emit(context.Background(), created("Food")), domain.ErrClosed)
}
