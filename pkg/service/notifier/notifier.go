// Package notifier turns committed record changes and budget recomputations
// into user notifications. Appends run in the background; their failures
// are logged and dropped.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/events"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/notification"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/record"
	reponotification "github.com/nNEWBE/expense-tracker-sub000/pkg/repository/notification"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/service/auth"
	"github.com/shopspring/decimal"
)

const periodLayout = "2006-01"

type Notifier struct {
	store   reponotification.Store
	session auth.Provider
	symbol  string
	now     func() time.Time
	logger  *slog.Logger
	guard   *CrossingGuard
	wg      sync.WaitGroup
}

type Option func(*Notifier)

// WithClock replaces time.Now as the source of the budget period.
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) { n.now = now }
}

// WithGuard shares a crossing guard between notifiers.
func WithGuard(g *CrossingGuard) Option {
	return func(n *Notifier) { n.guard = g }
}

func New(
	store reponotification.Store,
	session auth.Provider,
	symbol string,
	logger *slog.Logger,
	opts ...Option,
) *Notifier {
	n := &Notifier{
		store:   store,
		session: session,
		symbol:  symbol,
		now:     time.Now,
		logger:  logger.With("service", "notifier"),
		guard:   NewCrossingGuard(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// OnRecordMutated appends the notification for a committed change of r.
// It does nothing when no user is signed in.
func (n *Notifier) OnRecordMutated(ctx context.Context, r record.Record, m record.Mutation) {
	userID, ok := n.session.CurrentUserID(ctx)
	if !ok {
		return
	}
	n.notifyMutation(ctx, userID, m, r)
}

// HandleRecordEvent is the bus handler for record mutation events. The
// user is taken from the event, not from the current session.
func (n *Notifier) HandleRecordEvent(ctx context.Context, e events.Event) error {
	rm, ok := e.(*events.RecordMutated)
	if !ok {
		return fmt.Errorf("notifier: unexpected event %T", e)
	}
	if rm.UserID == "" {
		n.logger.Debug("Skipping record event without user", "type", rm.Type())
		return nil
	}
	n.notifyMutation(ctx, rm.UserID, rm.Mutation, rm.Record)
	return nil
}

func (n *Notifier) notifyMutation(ctx context.Context, userID string, m record.Mutation, r record.Record) {
	e := notification.ForMutation(m, r, n.symbol)
	n.append(ctx, userID, e)
}

// OnBudgetRecomputed reports a budget crossing for the current user and
// month at most once per crossing. A non-positive limit disables it.
func (n *Notifier) OnBudgetRecomputed(ctx context.Context, spent, limit decimal.Decimal) {
	if !limit.IsPositive() {
		return
	}
	userID, ok := n.session.CurrentUserID(ctx)
	if !ok {
		return
	}

	level := LevelFor(spent, limit)
	key := userID + "|" + n.now().Format(periodLayout)
	if !n.guard.Advance(key, level) {
		return
	}
	n.logger.Info("Budget crossing", "userID", userID, "level", level, "spent", spent.String(), "limit", limit.String())

	switch level {
	case LevelExceeded:
		n.append(ctx, userID, notification.BudgetExceeded(spent, limit, n.symbol))
	case LevelWarning:
		n.append(ctx, userID, notification.BudgetWarning(spent, limit, n.symbol))
	}
}

// Wait blocks until queued appends have finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) append(ctx context.Context, userID string, e notification.Event) {
	ctx = context.WithoutCancel(ctx)
	e.UserID = userID
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := n.store.Append(ctx, userID, &e); err != nil {
			n.logger.Warn("Append notification failed", "userID", userID, "type", e.Type, "error", err)
			return
		}
		n.logger.Debug("Notification appended", "userID", userID, "type", e.Type, "id", e.ID)
	}()
}
