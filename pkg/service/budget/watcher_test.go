package budget

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/record"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/stream"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	snapshots chan []record.Record
}

func (f *fakeSource) ObserveAll(ctx context.Context) (*stream.Subscription[[]record.Record], error) {
	return stream.New(ctx, func(ctx context.Context, emit func([]record.Record) bool) {
		for {
			select {
			case s, ok := <-f.snapshots:
				if !ok || !emit(s) {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}), nil
}

type recomputation struct {
	spent, limit decimal.Decimal
}

type recordingSink struct {
	mu  sync.Mutex
	got []recomputation
}

func (s *recordingSink) OnBudgetRecomputed(_ context.Context, spent, limit decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, recomputation{spent, limit})
}

func (s *recordingSink) calls() []recomputation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recomputation{}, s.got...)
}

var now = time.Date(2024, 5, 15, 9, 0, 0, 0, time.UTC)

func expenseOn(amount int64, at time.Time) record.Record {
	return record.Record{Kind: record.Expense, Amount: decimal.NewFromInt(amount), Category: "Food", OccurredAt: at}
}

func TestWatcher_RecomputesCurrentMonthOnEverySnapshot(t *testing.T) {
	src := &fakeSource{snapshots: make(chan []record.Record)}
	sink := &recordingSink{}
	w := NewWatcher(src, sink, decimal.NewFromInt(1000), slog.Default(), WithClock(func() time.Time { return now }))

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	src.snapshots <- []record.Record{expenseOn(700, now)}
	src.snapshots <- []record.Record{
		expenseOn(700, now),
		expenseOn(150, now.AddDate(0, 0, -3)),
		expenseOn(999, now.AddDate(0, -1, 0)),
		{Kind: record.Income, Amount: decimal.NewFromInt(5000), Category: "Salary", OccurredAt: now},
	}
	close(src.snapshots)
	require.NoError(t, <-done)

	got := sink.calls()
	require.Len(t, got, 2)
	assert.True(t, decimal.NewFromInt(700).Equal(got[0].spent))
	assert.True(t, decimal.NewFromInt(850).Equal(got[1].spent))
	assert.True(t, decimal.NewFromInt(1000).Equal(got[1].limit))
}

func TestWatcher_SetLimitAppliesToNextSnapshot(t *testing.T) {
	src := &fakeSource{snapshots: make(chan []record.Record)}
	sink := &recordingSink{}
	w := NewWatcher(src, sink, decimal.Zero, slog.Default(), WithClock(func() time.Time { return now }))

	stop := w.Start(context.Background())
	src.snapshots <- []record.Record{expenseOn(10, now)}
	require.Eventually(t, func() bool { return len(sink.calls()) == 1 }, time.Second, 5*time.Millisecond)
	w.SetLimit(decimal.NewFromInt(500))
	src.snapshots <- []record.Record{expenseOn(10, now)}
	require.Eventually(t, func() bool { return len(sink.calls()) == 2 }, time.Second, 5*time.Millisecond)
	stop()

	got := sink.calls()
	require.Len(t, got, 2)
	assert.True(t, got[0].limit.IsZero())
	assert.True(t, decimal.NewFromInt(500).Equal(got[1].limit))
}

func TestWatcher_Status(t *testing.T) {
	w := NewWatcher(&fakeSource{}, &recordingSink{}, decimal.NewFromInt(1000), slog.Default(), WithClock(func() time.Time { return now }))

	st := w.Status([]record.Record{expenseOn(850, now)})
	assert.Equal(t, "warning", st.Level)
	assert.True(t, decimal.NewFromInt(850).Equal(st.Spent))

	w.SetLimit(decimal.NewFromInt(800))
	assert.Equal(t, "exceeded", w.Status([]record.Record{expenseOn(850, now)}).Level)

	w.SetLimit(decimal.Zero)
	assert.Equal(t, "none", w.Status([]record.Record{expenseOn(850, now)}).Level)
}
