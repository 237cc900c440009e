package remote

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/notification"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/record"
	reponotification "github.com/nNEWBE/expense-tracker-sub000/pkg/repository/notification"
	reporecord "github.com/nNEWBE/expense-tracker-sub000/pkg/repository/record"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/stream"
)

// hubs hands out one change hub per user.
type hubs struct {
	mu sync.Mutex
	m  map[string]*stream.Hub
}

func (h *hubs) get(userID string) *stream.Hub {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.m == nil {
		h.m = make(map[string]*stream.Hub)
	}
	hub, ok := h.m[userID]
	if !ok {
		hub = stream.NewHub()
		h.m[userID] = hub
	}
	return hub
}

// MemoryRecordStore is a process-local RemoteStore.
type MemoryRecordStore struct {
	mu    sync.RWMutex
	users map[string]map[string]record.Record
	hubs  hubs
	opts  options
}

func NewMemoryRecordStore(opts ...Option) *MemoryRecordStore {
	return &MemoryRecordStore{
		users: make(map[string]map[string]record.Record),
		opts:  buildOptions(opts),
	}
}

func (s *MemoryRecordStore) Add(_ context.Context, userID string, r record.Record) (string, error) {
	id := uuid.NewString()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.opts.now()
	}
	r.RemoteID = id

	s.mu.Lock()
	docs, ok := s.users[userID]
	if !ok {
		docs = make(map[string]record.Record)
		s.users[userID] = docs
	}
	docs[id] = r
	s.mu.Unlock()

	s.hubs.get(userID).Broadcast()
	return id, nil
}

func (s *MemoryRecordStore) Update(_ context.Context, userID, remoteID string, r record.Record) error {
	s.mu.Lock()
	old, ok := s.users[userID][remoteID]
	if !ok {
		s.mu.Unlock()
		return domain.ErrNotFound
	}
	r.RemoteID = remoteID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = old.CreatedAt
	}
	s.users[userID][remoteID] = r
	s.mu.Unlock()

	s.hubs.get(userID).Broadcast()
	return nil
}

func (s *MemoryRecordStore) Delete(_ context.Context, userID, remoteID string) error {
	s.mu.Lock()
	if _, ok := s.users[userID][remoteID]; !ok {
		s.mu.Unlock()
		return domain.ErrNotFound
	}
	delete(s.users[userID], remoteID)
	s.mu.Unlock()

	s.hubs.get(userID).Broadcast()
	return nil
}

func (s *MemoryRecordStore) Subscribe(ctx context.Context, userID string) (*stream.Subscription[[]record.Record], error) {
	return stream.Watch(ctx, s.hubs.get(userID), func(context.Context) ([]record.Record, error) {
		return s.list(userID), nil
	}, nil), nil
}

func (s *MemoryRecordStore) list(userID string) []record.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]record.Record, 0, len(s.users[userID]))
	for _, r := range s.users[userID] {
		out = append(out, r)
	}
	record.SortNewestFirst(out)
	return out
}

var _ reporecord.RemoteStore = (*MemoryRecordStore)(nil)

// MemoryNotificationStore is a process-local notification Store.
type MemoryNotificationStore struct {
	mu    sync.RWMutex
	users map[string]map[string]notification.Event
	hubs  hubs
	opts  options
}

func NewMemoryNotificationStore(opts ...Option) *MemoryNotificationStore {
	return &MemoryNotificationStore{
		users: make(map[string]map[string]notification.Event),
		opts:  buildOptions(opts),
	}
}

func (s *MemoryNotificationStore) Append(_ context.Context, userID string, e *notification.Event) error {
	e.ID = uuid.NewString()
	e.UserID = userID
	e.CreatedAt = s.opts.now().UTC()

	s.mu.Lock()
	docs, ok := s.users[userID]
	if !ok {
		docs = make(map[string]notification.Event)
		s.users[userID] = docs
	}
	docs[e.ID] = *e
	s.mu.Unlock()

	s.hubs.get(userID).Broadcast()
	return nil
}

func (s *MemoryNotificationStore) ListAll(_ context.Context, userID string) ([]notification.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]notification.Event, 0, len(s.users[userID]))
	for _, e := range s.users[userID] {
		out = append(out, e)
	}
	notification.SortNewestFirst(out)
	return out, nil
}

func (s *MemoryNotificationStore) Subscribe(ctx context.Context, userID string) (*stream.Subscription[[]notification.Event], error) {
	return stream.Watch(ctx, s.hubs.get(userID), func(ctx context.Context) ([]notification.Event, error) {
		return s.ListAll(ctx, userID)
	}, nil), nil
}

func (s *MemoryNotificationStore) MarkRead(_ context.Context, userID, id string) error {
	return s.mutate(userID, func(docs map[string]notification.Event) error {
		e, ok := docs[id]
		if !ok {
			return domain.ErrNotFound
		}
		e.Read = true
		docs[id] = e
		return nil
	})
}

func (s *MemoryNotificationStore) MarkAllRead(_ context.Context, userID string) error {
	return s.mutate(userID, func(docs map[string]notification.Event) error {
		for id, e := range docs {
			e.Read = true
			docs[id] = e
		}
		return nil
	})
}

func (s *MemoryNotificationStore) DeleteOne(_ context.Context, userID, id string) error {
	return s.mutate(userID, func(docs map[string]notification.Event) error {
		if _, ok := docs[id]; !ok {
			return domain.ErrNotFound
		}
		delete(docs, id)
		return nil
	})
}

func (s *MemoryNotificationStore) DeleteAll(_ context.Context, userID string) error {
	return s.mutate(userID, func(docs map[string]notification.Event) error {
		clear(docs)
		return nil
	})
}

func (s *MemoryNotificationStore) UnreadCount(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.users[userID] {
		if !e.Read {
			n++
		}
	}
	return n, nil
}

func (s *MemoryNotificationStore) mutate(userID string, fn func(map[string]notification.Event) error) error {
	s.mu.Lock()
	docs, ok := s.users[userID]
	if !ok {
		docs = make(map[string]notification.Event)
		s.users[userID] = docs
	}
	err := fn(docs)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.hubs.get(userID).Broadcast()
	return nil
}

var _ reponotification.Store = (*MemoryNotificationStore)(nil)
