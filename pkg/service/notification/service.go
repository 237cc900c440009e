// Package notification exposes the notification store for the signed-in
// user. Without a session every read is empty and every write a no-op.
package notification

import (
	"context"
	"log/slog"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/notification"
	reponotification "github.com/nNEWBE/expense-tracker-sub000/pkg/repository/notification"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/service/auth"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/stream"
)

type Service struct {
	store   reponotification.Store
	session auth.Provider
	logger  *slog.Logger
}

func New(store reponotification.Store, session auth.Provider, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		session: session,
		logger:  logger.With("service", "notification"),
	}
}

func (s *Service) ListAll(ctx context.Context) ([]notification.Event, error) {
	userID, ok := s.session.CurrentUserID(ctx)
	if !ok {
		return []notification.Event{}, nil
	}
	events, err := s.store.ListAll(ctx, userID)
	if err != nil {
		s.logger.Error("ListAll failed", "userID", userID, "error", err)
		return nil, err
	}
	return events, nil
}

// Subscribe follows the user's notifications. Signed out, it yields one
// empty list and ends.
func (s *Service) Subscribe(ctx context.Context) (*stream.Subscription[[]notification.Event], error) {
	userID, ok := s.session.CurrentUserID(ctx)
	if !ok {
		return stream.New(ctx, func(_ context.Context, emit func([]notification.Event) bool) {
			emit([]notification.Event{})
		}), nil
	}
	return s.store.Subscribe(ctx, userID)
}

func (s *Service) UnreadCount(ctx context.Context) (int, error) {
	userID, ok := s.session.CurrentUserID(ctx)
	if !ok {
		return 0, nil
	}
	return s.store.UnreadCount(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, id string) error {
	return s.write(ctx, "MarkRead", func(userID string) error {
		return s.store.MarkRead(ctx, userID, id)
	})
}

func (s *Service) MarkAllRead(ctx context.Context) error {
	return s.write(ctx, "MarkAllRead", func(userID string) error {
		return s.store.MarkAllRead(ctx, userID)
	})
}

func (s *Service) DeleteOne(ctx context.Context, id string) error {
	return s.write(ctx, "DeleteOne", func(userID string) error {
		return s.store.DeleteOne(ctx, userID, id)
	})
}

func (s *Service) DeleteAll(ctx context.Context) error {
	return s.write(ctx, "DeleteAll", func(userID string) error {
		return s.store.DeleteAll(ctx, userID)
	})
}

func (s *Service) write(ctx context.Context, op string, fn func(userID string) error) error {
	userID, ok := s.session.CurrentUserID(ctx)
	if !ok {
		s.logger.Debug(op+" skipped without session")
		return nil
	}
	if err := fn(userID); err != nil {
		s.logger.Error(op+" failed", "userID", userID, "error", err)
		return err
	}
	return nil
}
