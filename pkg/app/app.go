package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/config"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/eventbus"
	reponotification "github.com/nNEWBE/expense-tracker-sub000/pkg/repository/notification"
	reporecord "github.com/nNEWBE/expense-tracker-sub000/pkg/repository/record"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/service/auth"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/service/budget"
	notificationsvc "github.com/nNEWBE/expense-tracker-sub000/pkg/service/notification"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/service/notifier"
	recordsvc "github.com/nNEWBE/expense-tracker-sub000/pkg/service/record"
)

// Deps are the infrastructure pieces the application is built from.
type Deps struct {
	Local         reporecord.LocalStore
	Remote        reporecord.RemoteStore
	Notifications reponotification.Store
	EventBus      eventbus.Bus
	Strategy      *auth.JWTStrategy
	Logger        *slog.Logger
	// Closers run in reverse order on Close, after the services and the
	// event bus have drained.
	Closers []func() error
}

type App struct {
	Deps          *Deps
	Config        *config.App
	Session       *auth.Session
	Records       *recordsvc.Service
	Notifier      *notifier.Notifier
	Notifications *notificationsvc.Service
	Budget        *budget.Watcher

	mu          sync.Mutex
	stopWatcher func()
	closed      bool
}

func New(deps *Deps, cfg *config.App) *App {
	var strategy auth.Strategy
	if deps.Strategy != nil {
		strategy = deps.Strategy
	}
	session := auth.New(strategy, deps.Logger)

	a := &App{
		Deps:    deps,
		Config:  cfg,
		Session: session,
	}
	a.Records = recordsvc.New(deps.Local, deps.Remote, session, deps.EventBus, deps.Logger)
	a.Notifier = notifier.New(deps.Notifications, session, cfg.Budget.CurrencySymbol, deps.Logger)
	a.Notifications = notificationsvc.New(deps.Notifications, session, deps.Logger)
	a.Budget = budget.NewWatcher(a.Records, a.Notifier, cfg.Budget.Limit(), deps.Logger)

	a.setupEventBus()
	a.restartWatcher()
	return a
}

// SignIn starts a session for userID.
func (a *App) SignIn(userID string) error {
	if err := a.Session.SignIn(userID); err != nil {
		return err
	}
	a.restartWatcher()
	return nil
}

// SignInWithToken authenticates credential and starts a session.
func (a *App) SignInWithToken(ctx context.Context, credential string) (string, error) {
	userID, err := a.Session.SignInWithCredential(ctx, credential)
	if err != nil {
		return "", err
	}
	a.restartWatcher()
	return userID, nil
}

func (a *App) SignOut() {
	a.Session.SignOut()
	a.restartWatcher()
}

// restartWatcher re-resolves the budget watcher's source after a session
// change.
func (a *App) restartWatcher() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	if a.stopWatcher != nil {
		a.stopWatcher()
	}
	a.stopWatcher = a.Budget.Start(context.Background())
}

// Close stops the watcher, waits for background writes and releases the
// infrastructure.
func (a *App) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	if a.stopWatcher != nil {
		a.stopWatcher()
	}
	a.mu.Unlock()

	var errs []error
	a.Records.Wait()
	// Draining the bus may still hand events to the notifier.
	if c, ok := a.Deps.EventBus.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.Notifier.Wait()

	for i := len(a.Deps.Closers) - 1; i >= 0; i-- {
		if err := a.Deps.Closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
