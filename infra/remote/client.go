// Package remote holds the per-user cloud stores: Redis hashes with a
// pub/sub change feed, and in-memory stand-ins used when no Redis URL is
// configured.
package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/config"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to cfg.URL and pings it.
func NewRedisClient(ctx context.Context, cfg *config.Redis) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opt.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opt.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opt.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opt.WriteTimeout = cfg.WriteTimeout
	}

	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: connection failed: %w", err)
	}
	return client, nil
}

type options struct {
	now func() time.Time
}

// Option configures a store.
type Option func(*options)

// WithClock replaces time.Now for CreatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type keys struct {
	prefix string
}

func (k keys) records(userID string) string {
	return k.prefix + "users:" + userID + ":records"
}

func (k keys) notifications(userID string) string {
	return k.prefix + "users:" + userID + ":notifications"
}

func changes(key string) string {
	return key + ":changes"
}
