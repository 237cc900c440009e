package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/record"
	reporecord "github.com/nNEWBE/expense-tracker-sub000/pkg/repository/record"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/stream"
	"github.com/redis/go-redis/v9"
)

// updateIfExists overwrites a hash field only while it is still present.
var updateIfExists = redis.NewScript(`
if redis.call("HEXISTS", KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
return 1
`)

// RedisRecordStore keeps each user's records in one hash keyed by remote
// id and announces changes on a pub/sub channel.
type RedisRecordStore struct {
	client *redis.Client
	keys   keys
	opts   options
	logger *slog.Logger
}

func NewRedisRecordStore(client *redis.Client, prefix string, logger *slog.Logger, opts ...Option) *RedisRecordStore {
	return &RedisRecordStore{
		client: client,
		keys:   keys{prefix: prefix},
		opts:   buildOptions(opts),
		logger: logger.With("store", "redis_records"),
	}
}

func (s *RedisRecordStore) Add(ctx context.Context, userID string, r record.Record) (string, error) {
	id := uuid.NewString()
	if err := s.put(ctx, userID, id, r); err != nil {
		s.logger.Error("Redis add failed", "userID", userID, "error", err)
		return "", err
	}
	s.logger.Debug("Redis add", "userID", userID, "remoteID", id)
	return id, nil
}

// Update replaces an existing document. A missing document is
// domain.ErrNotFound.
func (s *RedisRecordStore) Update(ctx context.Context, userID, remoteID string, r record.Record) error {
	data, err := json.Marshal(toDoc(r, s.opts.now()))
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	key := s.keys.records(userID)
	n, err := updateIfExists.Run(ctx, s.client, []string{key}, remoteID, data).Int()
	if err != nil {
		return fmt.Errorf("redis update %s: %w", remoteID, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	s.publish(ctx, key)
	return nil
}

func (s *RedisRecordStore) Delete(ctx context.Context, userID, remoteID string) error {
	key := s.keys.records(userID)
	n, err := s.client.HDel(ctx, key, remoteID).Result()
	if err != nil {
		return fmt.Errorf("redis delete %s: %w", remoteID, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	s.publish(ctx, key)
	return nil
}

// Subscribe pushes the user's records, newest first, on every change.
func (s *RedisRecordStore) Subscribe(ctx context.Context, userID string) (*stream.Subscription[[]record.Record], error) {
	key := s.keys.records(userID)
	return watchChannel(ctx, s.client, changes(key), func(ctx context.Context) ([]record.Record, error) {
		return s.list(ctx, key)
	}, s.logger)
}

func (s *RedisRecordStore) list(ctx context.Context, key string) ([]record.Record, error) {
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	return decodeRecords(fields, s.logger)
}

func (s *RedisRecordStore) put(ctx context.Context, userID, id string, r record.Record) error {
	data, err := json.Marshal(toDoc(r, s.opts.now()))
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	key := s.keys.records(userID)
	if err := s.client.HSet(ctx, key, id, data).Err(); err != nil {
		return fmt.Errorf("redis put %s: %w", id, err)
	}
	s.publish(ctx, key)
	return nil
}

func (s *RedisRecordStore) publish(ctx context.Context, key string) {
	if err := s.client.Publish(ctx, changes(key), "changed").Err(); err != nil {
		s.logger.Warn("Redis change publish failed", "key", key, "error", err)
	}
}

var _ reporecord.RemoteStore = (*RedisRecordStore)(nil)
