// Package budget recomputes the current month's spending on every record
// snapshot and hands it to the notifier.
package budget

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/record"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/service/notifier"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/stream"
	"github.com/shopspring/decimal"
)

// Source is the live record view the watcher follows.
type Source interface {
	ObserveAll(ctx context.Context) (*stream.Subscription[[]record.Record], error)
}

// Sink receives each recomputation.
type Sink interface {
	OnBudgetRecomputed(ctx context.Context, spent, limit decimal.Decimal)
}

// Status describes spending against the budget for one snapshot.
type Status struct {
	Limit decimal.Decimal `json:"limit"`
	Spent decimal.Decimal `json:"spent"`
	Level string          `json:"level"`
}

type Watcher struct {
	source Source
	sink   Sink
	now    func() time.Time
	logger *slog.Logger

	mu    sync.RWMutex
	limit decimal.Decimal
}

type Option func(*Watcher)

func WithClock(now func() time.Time) Option {
	return func(w *Watcher) { w.now = now }
}

func NewWatcher(source Source, sink Sink, limit decimal.Decimal, logger *slog.Logger, opts ...Option) *Watcher {
	w := &Watcher{
		source: source,
		sink:   sink,
		now:    time.Now,
		logger: logger.With("service", "budget"),
		limit:  limit,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// SetLimit changes the monthly limit. Zero or less disables alerts.
func (w *Watcher) SetLimit(limit decimal.Decimal) {
	w.mu.Lock()
	w.limit = limit
	w.mu.Unlock()
	w.logger.Info("Budget limit changed", "limit", limit.String())
}

func (w *Watcher) Limit() decimal.Decimal {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.limit
}

// SpentThisMonth sums the expenses of records in the clock's current month.
func (w *Watcher) SpentThisMonth(records []record.Record) decimal.Decimal {
	from, to := record.MonthBounds(w.now())
	return record.SpentInPeriod(records, from, to)
}

// Status evaluates records against the current limit.
func (w *Watcher) Status(records []record.Record) Status {
	limit := w.Limit()
	spent := w.SpentThisMonth(records)
	return Status{Limit: limit, Spent: spent, Level: notifier.LevelFor(spent, limit).String()}
}

// Run follows the record view until ctx is done or the view ends. The
// source is resolved once, when Run starts.
func (w *Watcher) Run(ctx context.Context) error {
	sub, err := w.source.ObserveAll(ctx)
	if err != nil {
		w.logger.Error("Budget watcher failed to subscribe", "error", err)
		return err
	}
	defer sub.Close()

	for {
		records, err := sub.Next(ctx)
		switch {
		case errors.Is(err, stream.ErrClosed):
			return nil
		case err != nil:
			return err
		}
		w.sink.OnBudgetRecomputed(ctx, w.SpentThisMonth(records), w.Limit())
	}
}

// Start runs the watcher in the background and returns a function that
// stops it and waits for it to exit.
func (w *Watcher) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Warn("Budget watcher stopped", "error", err)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
