// Package record provides the single read/write path for financial records.
// It hides the two-store topology: writes always commit to the local store
// first and are mirrored to the remote store in the background, reads are
// served by whichever store is authoritative when the observer subscribes.
//
// Mirroring follows a one-way state machine per record: LocalOnly until the
// remote store has accepted the record and its remote id has been patched
// onto the local row, Mirrored afterwards. Remote failures are logged and
// never reach the caller; local failures always do.
package record

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/events"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/record"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/eventbus"
	reporecord "github.com/nNEWBE/expense-tracker-sub000/pkg/repository/record"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/service/auth"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/stream"
	"golang.org/x/sync/singleflight"
)

// Service coordinates the local and remote record stores.
type Service struct {
	local    reporecord.LocalStore
	remote   reporecord.RemoteStore
	session  auth.Provider
	bus      eventbus.Bus
	logger   *slog.Logger
	inflight sync.WaitGroup
	syncs    singleflight.Group
}

// New creates a Service. bus may be nil, in which case mutations are not
// published.
func New(
	local reporecord.LocalStore,
	remote reporecord.RemoteStore,
	session auth.Provider,
	bus eventbus.Bus,
	logger *slog.Logger,
) *Service {
	return &Service{
		local:   local,
		remote:  remote,
		session: session,
		bus:     bus,
		logger:  logger.With("service", "record"),
	}
}

// IsAuthoritativeSourceRemote reports whether reads are currently served
// by the remote store, which is the case exactly when a user is signed in.
func (s *Service) IsAuthoritativeSourceRemote(ctx context.Context) bool {
	_, ok := s.session.CurrentUserID(ctx)
	return ok
}

// ObserveAll returns a live view of all records, newest first. The source
// is chosen once, now: the remote subscription when signed in, the local
// live query otherwise. A later sign-in or sign-out does not rewire an
// existing subscription.
func (s *Service) ObserveAll(ctx context.Context) (*stream.Subscription[[]record.Record], error) {
	if userID, ok := s.session.CurrentUserID(ctx); ok {
		s.logger.Debug("ObserveAll from remote", "userID", userID)
		return s.remote.Subscribe(ctx, userID)
	}
	s.logger.Debug("ObserveAll from local")
	return s.local.QueryAll(ctx)
}

// ObserveTotals returns live expense and income totals of the same source
// ObserveAll would pick.
func (s *Service) ObserveTotals(ctx context.Context) (*stream.Subscription[record.AggregateView], error) {
	sub, err := s.ObserveAll(ctx)
	if err != nil {
		return nil, err
	}
	return stream.Map(ctx, sub, record.Aggregate), nil
}

// Snapshot returns the current records of the authoritative source.
func (s *Service) Snapshot(ctx context.Context) ([]record.Record, error) {
	sub, err := s.ObserveAll(ctx)
	if err != nil {
		return nil, err
	}
	return stream.Snapshot(ctx, sub)
}

// Find returns the committed local row with localID, including its
// remote id when it has been mirrored.
func (s *Service) Find(ctx context.Context, localID int64) (record.Record, error) {
	sub, err := s.local.QueryAll(ctx)
	if err != nil {
		return record.Record{}, err
	}
	records, err := stream.Snapshot(ctx, sub)
	if err != nil {
		return record.Record{}, err
	}
	for _, r := range records {
		if r.LocalID == localID {
			return r, nil
		}
	}
	return record.Record{}, domain.ErrNotFound
}

// Insert commits r locally and returns its local id. Any ids on r are
// ignored. When a user is signed in the record is also mirrored in the
// background and a Created event is published; neither affects the result.
func (s *Service) Insert(ctx context.Context, r record.Record) (int64, error) {
	r.Category = strings.TrimSpace(r.Category)
	logger := s.logger.With("operation", "Insert", "kind", r.Kind, "category", r.Category)
	logger.Info("Insert started")

	if err := r.Validate(); err != nil {
		logger.Warn("Insert rejected", "error", err)
		return 0, err
	}
	r.LocalID, r.RemoteID = 0, ""

	id, err := s.local.InsertAndReturnID(ctx, r)
	if err != nil {
		logger.Error("Insert failed", "error", err)
		return 0, fmt.Errorf("insert record: %w", err)
	}
	r.LocalID = id

	if userID, ok := s.session.CurrentUserID(ctx); ok {
		s.mirrorAdd(ctx, userID, r)
		s.publish(ctx, userID, record.Created, r)
	}
	logger.Info("Insert successful", "localID", id)
	return id, nil
}

// Update overwrites the local row of r. The remote document is updated in
// the background only when r carries a remote id; records that were never
// mirrored stay local-only.
func (s *Service) Update(ctx context.Context, r record.Record) error {
	logger := s.logger.With("operation", "Update", "localID", r.LocalID, "remoteID", r.RemoteID)
	logger.Info("Update started")

	if r.LocalID == 0 {
		return domain.ErrMissingLocalID
	}
	r.Category = strings.TrimSpace(r.Category)
	if err := r.Validate(); err != nil {
		logger.Warn("Update rejected", "error", err)
		return err
	}
	if err := s.local.Update(ctx, r); err != nil {
		logger.Error("Update failed", "error", err)
		return fmt.Errorf("update record %d: %w", r.LocalID, err)
	}

	if userID, ok := s.session.CurrentUserID(ctx); ok {
		if r.RemoteID != "" {
			s.mirrorUpdate(ctx, userID, r)
		} else {
			logger.Debug("Record was never mirrored, update stays local")
		}
		s.publish(ctx, userID, record.Updated, r)
	}
	logger.Info("Update successful")
	return nil
}

// Delete removes the local row of r. A remote delete is issued only for
// records that carry a remote id.
func (s *Service) Delete(ctx context.Context, r record.Record) error {
	logger := s.logger.With("operation", "Delete", "localID", r.LocalID, "remoteID", r.RemoteID)
	logger.Info("Delete started")

	if r.LocalID == 0 {
		return domain.ErrMissingLocalID
	}
	if err := s.local.Delete(ctx, r); err != nil {
		logger.Error("Delete failed", "error", err)
		return fmt.Errorf("delete record %d: %w", r.LocalID, err)
	}

	if userID, ok := s.session.CurrentUserID(ctx); ok {
		if r.RemoteID != "" {
			s.mirrorDelete(ctx, userID, r.RemoteID)
		}
		s.publish(ctx, userID, record.Deleted, r)
	}
	logger.Info("Delete successful")
	return nil
}

// TogglePin flips the pinned flag and stores the record like Update does.
func (s *Service) TogglePin(ctx context.Context, r record.Record) (record.Record, error) {
	r.Pinned = !r.Pinned
	if err := s.Update(ctx, r); err != nil {
		return record.Record{}, err
	}
	return r, nil
}

// Wait blocks until every mirror write issued so far has finished.
func (s *Service) Wait() {
	s.inflight.Wait()
}

// Mirror writes outlive the request that issued them.
func (s *Service) goMirror(ctx context.Context, fn func(ctx context.Context)) {
	ctx = context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		fn(ctx)
	}()
}

func (s *Service) mirrorAdd(ctx context.Context, userID string, r record.Record) {
	s.goMirror(ctx, func(ctx context.Context) {
		logger := s.logger.With("operation", "mirrorAdd", "userID", userID, "localID", r.LocalID)
		remoteID, err := s.remote.Add(ctx, userID, r)
		if err != nil {
			logger.Warn("Mirror failed, record stays local-only", "error", err)
			return
		}
		switch err := s.attachRemoteID(ctx, userID, r.LocalID, remoteID); {
		case errors.Is(err, domain.ErrNotFound):
			logger.Info("Local row gone, removed orphaned remote document", "remoteID", remoteID)
		case errors.Is(err, domain.ErrAlreadyExists):
			logger.Info("Record mirrored by another writer, removed duplicate remote document", "remoteID", remoteID)
		case err != nil:
			logger.Warn("Attaching remote id failed", "remoteID", remoteID, "error", err)
		default:
			logger.Debug("Mirror successful", "remoteID", remoteID)
		}
	})
}

// attachRemoteID patches remoteID onto the local row. When the row is gone
// or already carries another remote id, the freshly added remote document
// is deleted again and the store error is returned.
func (s *Service) attachRemoteID(ctx context.Context, userID string, localID int64, remoteID string) error {
	err := s.local.SetRemoteID(ctx, localID, remoteID)
	if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrAlreadyExists) {
		return err
	}
	if derr := s.remote.Delete(ctx, userID, remoteID); derr != nil {
		s.logger.Warn("Remote cleanup failed", "userID", userID, "remoteID", remoteID, "error", derr)
	}
	return err
}

func (s *Service) mirrorUpdate(ctx context.Context, userID string, r record.Record) {
	s.goMirror(ctx, func(ctx context.Context) {
		if err := s.remote.Update(ctx, userID, r.RemoteID, r); err != nil {
			s.logger.Warn("Remote update failed", "userID", userID, "remoteID", r.RemoteID, "error", err)
		}
	})
}

func (s *Service) mirrorDelete(ctx context.Context, userID, remoteID string) {
	s.goMirror(ctx, func(ctx context.Context) {
		if err := s.remote.Delete(ctx, userID, remoteID); err != nil {
			s.logger.Warn("Remote delete failed", "userID", userID, "remoteID", remoteID, "error", err)
		}
	})
}

func (s *Service) publish(ctx context.Context, userID string, m record.Mutation, r record.Record) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Emit(ctx, events.NewRecordMutated(userID, m, r)); err != nil {
		s.logger.Warn("Publishing mutation failed", "mutation", m, "error", err)
	}
}
