package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/notification"
	reponotification "github.com/nNEWBE/expense-tracker-sub000/pkg/repository/notification"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/stream"
	"github.com/redis/go-redis/v9"
)

// RedisNotificationStore keeps each user's notifications in one hash keyed
// by notification id. Ordering happens client-side.
type RedisNotificationStore struct {
	client *redis.Client
	keys   keys
	opts   options
	logger *slog.Logger
}

func NewRedisNotificationStore(client *redis.Client, prefix string, logger *slog.Logger, opts ...Option) *RedisNotificationStore {
	return &RedisNotificationStore{
		client: client,
		keys:   keys{prefix: prefix},
		opts:   buildOptions(opts),
		logger: logger.With("store", "redis_notifications"),
	}
}

func (s *RedisNotificationStore) Append(ctx context.Context, userID string, e *notification.Event) error {
	e.ID = uuid.NewString()
	e.UserID = userID
	e.CreatedAt = s.opts.now().UTC()
	return s.put(ctx, userID, *e)
}

func (s *RedisNotificationStore) ListAll(ctx context.Context, userID string) ([]notification.Event, error) {
	fields, err := s.client.HGetAll(ctx, s.keys.notifications(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Error("Redis list notifications failed", "userID", userID, "error", err)
		return nil, err
	}
	out := make([]notification.Event, 0, len(fields))
	for id, raw := range fields {
		var e notification.Event
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("decode notification %s: %w", id, err)
		}
		e.ID = id
		out = append(out, e)
	}
	notification.SortNewestFirst(out)
	return out, nil
}

func (s *RedisNotificationStore) Subscribe(ctx context.Context, userID string) (*stream.Subscription[[]notification.Event], error) {
	return watchChannel(ctx, s.client, changes(s.keys.notifications(userID)), func(ctx context.Context) ([]notification.Event, error) {
		return s.ListAll(ctx, userID)
	}, s.logger)
}

// MarkRead flips one notification to read. The read-modify-write runs
// under WATCH so a concurrent delete is never undone.
func (s *RedisNotificationStore) MarkRead(ctx context.Context, userID, id string) error {
	key := s.keys.notifications(userID)
	changed := false
	err := s.watch(ctx, key, func(tx *redis.Tx) error {
		changed = false
		raw, err := tx.HGet(ctx, key, id).Result()
		if errors.Is(err, redis.Nil) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		var e notification.Event
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return fmt.Errorf("decode notification %s: %w", id, err)
		}
		if e.Read {
			return nil
		}
		e.Read = true
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode notification %s: %w", id, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, id, data)
			return nil
		})
		changed = err == nil
		return err
	})
	if err != nil {
		return err
	}
	if changed {
		s.publish(ctx, key)
	}
	return nil
}

// MarkAllRead flips every unread notification present when the
// transaction commits.
func (s *RedisNotificationStore) MarkAllRead(ctx context.Context, userID string) error {
	key := s.keys.notifications(userID)
	dirty := 0
	err := s.watch(ctx, key, func(tx *redis.Tx) error {
		dirty = 0
		fields, err := tx.HGetAll(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		updates := make(map[string]any, len(fields))
		for id, raw := range fields {
			var e notification.Event
			if err := json.Unmarshal([]byte(raw), &e); err != nil {
				return fmt.Errorf("decode notification %s: %w", id, err)
			}
			if e.Read {
				continue
			}
			e.ID = id
			e.Read = true
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("encode notification %s: %w", id, err)
			}
			updates[id] = data
		}
		if len(updates) == 0 {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, updates)
			return nil
		})
		if err == nil {
			dirty = len(updates)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("redis mark all read: %w", err)
	}
	if dirty > 0 {
		s.publish(ctx, key)
	}
	return nil
}

func (s *RedisNotificationStore) DeleteOne(ctx context.Context, userID, id string) error {
	key := s.keys.notifications(userID)
	n, err := s.client.HDel(ctx, key, id).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	s.publish(ctx, key)
	return nil
}

func (s *RedisNotificationStore) DeleteAll(ctx context.Context, userID string) error {
	key := s.keys.notifications(userID)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return err
	}
	s.publish(ctx, key)
	return nil
}

func (s *RedisNotificationStore) UnreadCount(ctx context.Context, userID string) (int, error) {
	events, err := s.ListAll(ctx, userID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range events {
		if !e.Read {
			n++
		}
	}
	return n, nil
}

func (s *RedisNotificationStore) put(ctx context.Context, userID string, e notification.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	key := s.keys.notifications(userID)
	if err := s.client.HSet(ctx, key, e.ID, data).Err(); err != nil {
		s.logger.Error("Redis put notification failed", "userID", userID, "error", err)
		return err
	}
	s.publish(ctx, key)
	return nil
}

const watchRetries = 5

// watch runs fn under WATCH on key and retries when another client touched
// the key before the transaction committed.
func (s *RedisNotificationStore) watch(ctx context.Context, key string, fn func(tx *redis.Tx) error) error {
	for range watchRetries {
		err := s.client.Watch(ctx, fn, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		s.logger.Debug("Redis transaction conflict, retrying", "key", key)
	}
	return fmt.Errorf("redis watch %s: %w", key, redis.TxFailedErr)
}

func (s *RedisNotificationStore) publish(ctx context.Context, key string) {
	if err := s.client.Publish(ctx, changes(key), "changed").Err(); err != nil {
		s.logger.Warn("Redis change publish failed", "key", key, "error", err)
	}
}

var _ reponotification.Store = (*RedisNotificationStore)(nil)
