package remote

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/stream"
	"github.com/redis/go-redis/v9"
)

// watchChannel subscribes to a change channel and emits load's result once
// the subscription is confirmed and again after every message. Messages
// arriving while a load runs collapse into one reload.
func watchChannel[T any](
	ctx context.Context,
	client *redis.Client,
	channel string,
	load stream.Loader[T],
	logger *slog.Logger,
) (*stream.Subscription[T], error) {
	pubsub := client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}
	msgs := pubsub.Channel()

	return stream.New(ctx, func(ctx context.Context, emit func(T) bool) {
		defer pubsub.Close()
		for {
			v, err := load(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Error("Remote load failed", "channel", channel, "error", err)
			} else if !emit(v) {
				return
			}

			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
			}
		drain:
			for {
				select {
				case _, ok := <-msgs:
					if !ok {
						return
					}
				default:
					break drain
				}
			}
		}
	}), nil
}
