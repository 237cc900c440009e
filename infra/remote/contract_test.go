package remote

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/notification"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/record"
	reponotification "github.com/nNEWBE/expense-tracker-sub000/pkg/repository/notification"
	reporecord "github.com/nNEWBE/expense-tracker-sub000/pkg/repository/record"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// steppingClock returns a clock that advances one second per call.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func waitFor[T any](t *testing.T, ch <-chan T, match func(T) bool) T {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case v, ok := <-ch:
			require.True(t, ok, "subscription closed")
			if match(v) {
				return v
			}
		case <-deadline:
			t.Fatal("timed out waiting for matching snapshot")
			var zero T
			return zero
		}
	}
}

func testRecordStore(t *testing.T, store reporecord.RemoteStore) {
	ctx := context.Background()
	base := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	sub, err := store.Subscribe(ctx, "alice")
	require.NoError(t, err)
	defer sub.Close()
	waitFor(t, sub.Updates(), func(rs []record.Record) bool { return len(rs) == 0 })

	older := record.Record{LocalID: 1, Kind: record.Expense, Amount: decimal.RequireFromString("12.50"), Category: "Food", OccurredAt: base, Note: "lunch"}
	newer := record.Record{LocalID: 2, Kind: record.Income, Amount: decimal.NewFromInt(900), Category: "Salary", OccurredAt: base.Add(time.Hour)}

	id1, err := store.Add(ctx, "alice", older)
	require.NoError(t, err)
	id2, err := store.Add(ctx, "alice", newer)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	got := waitFor(t, sub.Updates(), func(rs []record.Record) bool { return len(rs) == 2 })
	assert.Equal(t, []string{id2, id1}, []string{got[0].RemoteID, got[1].RemoteID})
	assert.Equal(t, int64(1), got[1].LocalID)
	assert.True(t, older.Amount.Equal(got[1].Amount))
	assert.True(t, base.Equal(got[1].OccurredAt))
	assert.Equal(t, "lunch", got[1].Note)
	assert.Equal(t, record.Mirrored, got[1].State())

	older.Pinned = true
	older.Category = "Groceries"
	require.NoError(t, store.Update(ctx, "alice", id1, older))
	got = waitFor(t, sub.Updates(), func(rs []record.Record) bool {
		return len(rs) == 2 && rs[1].Pinned
	})
	assert.Equal(t, "Groceries", got[1].Category)

	assert.ErrorIs(t, store.Update(ctx, "alice", "missing", older), domain.ErrNotFound)
	assert.ErrorIs(t, store.Update(ctx, "bob", id1, older), domain.ErrNotFound)

	require.NoError(t, store.Delete(ctx, "alice", id2))
	waitFor(t, sub.Updates(), func(rs []record.Record) bool { return len(rs) == 1 && rs[0].RemoteID == id1 })
	assert.ErrorIs(t, store.Delete(ctx, "alice", id2), domain.ErrNotFound)

	bobSub, err := store.Subscribe(ctx, "bob")
	require.NoError(t, err)
	defer bobSub.Close()
	waitFor(t, bobSub.Updates(), func(rs []record.Record) bool { return len(rs) == 0 })
}

func testNotificationStore(t *testing.T, store reponotification.Store) {
	ctx := context.Background()

	list, err := store.ListAll(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, list)

	sub, err := store.Subscribe(ctx, "alice")
	require.NoError(t, err)
	defer sub.Close()

	first := &notification.Event{Type: notification.TypeCreated, Title: "New Expense Added", Amount: decimal.NewFromInt(5)}
	second := &notification.Event{Type: notification.TypeBudgetWarning, Title: "⚡ Budget Warning"}
	require.NoError(t, store.Append(ctx, "alice", first))
	require.NoError(t, store.Append(ctx, "alice", second))
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())
	assert.Equal(t, "alice", first.UserID)

	waitFor(t, sub.Updates(), func(es []notification.Event) bool { return len(es) == 2 })

	list, err = store.ListAll(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	assert.True(t, decimal.NewFromInt(5).Equal(list[1].Amount))

	n, err := store.UnreadCount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, store.MarkRead(ctx, "alice", first.ID))
	require.NoError(t, store.MarkRead(ctx, "alice", first.ID))
	n, err = store.UnreadCount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.ErrorIs(t, store.MarkRead(ctx, "alice", "missing"), domain.ErrNotFound)

	require.NoError(t, store.MarkAllRead(ctx, "alice"))
	n, err = store.UnreadCount(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, store.DeleteOne(ctx, "alice", first.ID))
	assert.ErrorIs(t, store.DeleteOne(ctx, "alice", first.ID), domain.ErrNotFound)
	list, err = store.ListAll(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Read)

	other, err := store.ListAll(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, store.DeleteAll(ctx, "alice"))
	waitFor(t, sub.Updates(), func(es []notification.Event) bool { return len(es) == 0 })
}
