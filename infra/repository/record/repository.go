package record

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nNEWBE/expense-tracker-sub000/infra/repository"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/record"
	reporecord "github.com/nNEWBE/expense-tracker-sub000/pkg/repository/record"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/stream"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const queueSize = 64

type writeJob struct {
	ctx    context.Context
	op     func(db *gorm.DB) error
	result chan error
}

// localStore implements reporecord.LocalStore on gorm. Reads go straight
// to the database; writes are funnelled through one worker goroutine.
type localStore struct {
	db     *gorm.DB
	logger *slog.Logger
	hub    *stream.Hub

	mu     sync.RWMutex
	closed bool
	jobs   chan writeJob
	done   chan struct{}
}

// New starts the write worker and returns the store.
func New(db *gorm.DB, logger *slog.Logger) reporecord.LocalStore {
	s := &localStore{
		db:     db,
		logger: logger.With("store", "local"),
		hub:    stream.NewHub(),
		jobs:   make(chan writeJob, queueSize),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

// AutoMigrate creates or updates the records table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Record{})
}

func (s *localStore) run() {
	defer close(s.done)
	for j := range s.jobs {
		err := repository.MapGormErrorToDomain(j.op(s.db.WithContext(j.ctx)))
		if err == nil {
			s.hub.Broadcast()
		}
		j.result <- err
	}
}

// submit queues op and waits for the worker to apply it. A queued write is
// applied even if ctx is cancelled meanwhile.
func (s *localStore) submit(ctx context.Context, op func(db *gorm.DB) error) error {
	j := writeJob{
		ctx:    context.WithoutCancel(ctx),
		op:     op,
		result: make(chan error, 1),
	}
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return domain.ErrClosed
	}
	s.jobs <- j
	s.mu.RUnlock()
	return <-j.result
}

func (s *localStore) InsertAndReturnID(ctx context.Context, r record.Record) (int64, error) {
	m := toModel(r)
	m.ID = 0
	err := s.submit(ctx, func(db *gorm.DB) error {
		return db.Create(&m).Error
	})
	if err != nil {
		s.logger.Error("Insert failed", "error", err)
		return 0, err
	}
	return m.ID, nil
}

func (s *localStore) Update(ctx context.Context, r record.Record) error {
	return s.submit(ctx, func(db *gorm.DB) error {
		return repository.RequireAffected(
			db.Model(&Record{}).
				Where("id = ?", r.LocalID).
				Updates(map[string]any{
					"amount":      r.Amount,
					"category":    r.Category,
					"occurred_at": r.OccurredAt.UTC(),
					"note":        r.Note,
					"kind":        string(r.Kind),
					"pinned":      r.Pinned,
				}),
		)
	})
}

// SetRemoteID only fills an empty remote id. A row that already carries one
// yields domain.ErrAlreadyExists and keeps its id.
func (s *localStore) SetRemoteID(ctx context.Context, localID int64, remoteID string) error {
	return s.submit(ctx, func(db *gorm.DB) error {
		res := db.Model(&Record{}).
			Where("id = ? AND remote_id = ?", localID, "").
			Update("remote_id", remoteID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		var n int64
		if err := db.Model(&Record{}).Where("id = ?", localID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrNotFound
		}
		return domain.ErrAlreadyExists
	})
}

func (s *localStore) Delete(ctx context.Context, r record.Record) error {
	return s.submit(ctx, func(db *gorm.DB) error {
		return repository.RequireAffected(db.Delete(&Record{}, r.LocalID))
	})
}

func (s *localStore) QueryAll(ctx context.Context) (*stream.Subscription[[]record.Record], error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return stream.Watch(ctx, s.hub, s.listAll, s.logLoadError("QueryAll")), nil
}

func (s *localStore) SumByKind(ctx context.Context, kind record.Kind) (*stream.Subscription[decimal.Decimal], error) {
	if !kind.Valid() {
		return nil, domain.ErrInvalidKind
	}
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	load := func(ctx context.Context) (decimal.Decimal, error) {
		var amounts []decimal.Decimal
		err := s.db.WithContext(ctx).
			Model(&Record{}).
			Where("kind = ?", string(kind)).
			Pluck("amount", &amounts).Error
		if err != nil {
			return decimal.Zero, repository.MapGormErrorToDomain(err)
		}
		return decimal.Sum(decimal.Zero, amounts...), nil
	}
	return stream.Watch(ctx, s.hub, load, s.logLoadError("SumByKind")), nil
}

// Close drains queued writes and stops the worker. The database handle is
// owned by the caller.
func (s *localStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.jobs)
	s.mu.Unlock()
	<-s.done
	return nil
}

func (s *localStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrClosed
	}
	return nil
}

func (s *localStore) listAll(ctx context.Context) ([]record.Record, error) {
	var rows []Record
	err := s.db.WithContext(ctx).
		Order("occurred_at desc").
		Order("id desc").
		Find(&rows).Error
	if err != nil {
		return nil, repository.MapGormErrorToDomain(err)
	}
	out := make([]record.Record, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomain(m))
	}
	return out, nil
}

func (s *localStore) logLoadError(op string) func(error) {
	return func(err error) {
		s.logger.Error(op+" load failed", "error", err)
	}
}
