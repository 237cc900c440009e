package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/config"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/events"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/eventbus"
	"github.com/redis/go-redis/v9"
)

type wireEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// RedisEventBus carries events over Redis Streams, one stream and one
// consumer group per event type. Failed deliveries go to a DLQ stream.
type RedisEventBus struct {
	client        *redis.Client
	stream        string
	group         string
	typeFactories map[string]func() events.Event
	logger        *slog.Logger
	block         time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithRedis creates a bus on an existing client. The client is owned by
// the caller and is not closed by Close.
func NewWithRedis(
	client *redis.Client,
	cfg *config.EventBus,
	types map[string]func() events.Event,
	logger *slog.Logger,
) (*RedisEventBus, error) {
	if client == nil {
		return nil, errors.New("redis event bus: client is required")
	}
	if cfg == nil || cfg.Stream == "" || cfg.Group == "" {
		return nil, errors.New("redis event bus: stream and group are required")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client:        client,
		stream:        cfg.Stream,
		group:         cfg.Group,
		typeFactories: types,
		logger:        logger.With("bus", "redis"),
		block:         2 * time.Second,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

// Emit appends the event to its type's stream.
func (b *RedisEventBus) Emit(ctx context.Context, event events.Event) error {
	b.logger.Debug("emitting event", "type", event.Type())

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis event bus: marshal failed: %w", err)
	}
	env, err := json.Marshal(wireEnvelope{Type: event.Type(), Payload: data})
	if err != nil {
		return fmt.Errorf("redis event bus: envelope marshal failed: %w", err)
	}

	err = b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamNameFor(b.stream, event.Type()),
		Values: map[string]any{"event": string(env)},
	}).Err()
	if err != nil {
		b.logger.Error("failed to emit event", "type", event.Type(), "error", err)
		return fmt.Errorf("redis event bus: emit failed: %w", err)
	}
	return nil
}

// Register creates the consumer group for eventType if needed and starts a
// consumer calling handler for each message.
func (b *RedisEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	stream := streamNameFor(b.stream, eventType)
	group := groupNameFor(b.group, eventType)
	consumer := fmt.Sprintf("consumer-%s", uuid.NewString())

	err := b.client.XGroupCreateMkStream(b.ctx, stream, group, "$").Err()
	if err != nil && !isBusyGroup(err) {
		b.logger.Error("failed to create consumer group", "stream", stream, "group", group, "error", err)
	}
	b.logger.Info("registering handler", "event_type", eventType, "consumer", consumer)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consume(stream, group, consumer, eventType, handler)
	}()
}

func (b *RedisEventBus) consume(stream, group, consumer, eventType string, handler eventbus.HandlerFunc) {
	for b.ctx.Err() == nil {
		res, err := b.client.XReadGroup(b.ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: consumer,
			Streams:  []string{stream, ">"},
			Count:    10,
			Block:    b.block,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || b.ctx.Err() != nil {
				continue
			}
			b.logger.Error("error reading from stream", "stream", stream, "error", err)
			select {
			case <-time.After(time.Second):
			case <-b.ctx.Done():
			}
			continue
		}
		for _, s := range res {
			for _, msg := range s.Messages {
				b.deliver(eventType, handler, msg)
				if err := b.client.XAck(b.ctx, stream, group, msg.ID).Err(); err != nil {
					b.logger.Error("failed to acknowledge message", "msg_id", msg.ID, "error", err)
				}
			}
		}
	}
}

func (b *RedisEventBus) deliver(eventType string, handler eventbus.HandlerFunc, msg redis.XMessage) {
	raw, ok := msg.Values["event"].(string)
	if !ok {
		b.pushToDLQ(eventType, msg.Values)
		return
	}
	var env wireEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		b.logger.Error("failed to unmarshal envelope", "error", err)
		b.pushToDLQ(eventType, msg.Values)
		return
	}
	constructor, ok := b.typeFactories[env.Type]
	if !ok {
		b.logger.Error("unknown event type", "event_type", env.Type)
		b.pushToDLQ(eventType, msg.Values)
		return
	}
	evt := constructor()
	if err := json.Unmarshal(env.Payload, evt); err != nil {
		b.logger.Error("failed to unmarshal payload", "event_type", env.Type, "error", err)
		b.pushToDLQ(eventType, msg.Values)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panic recovered", "event_type", env.Type, "panic", r)
			b.pushToDLQ(eventType, msg.Values)
		}
	}()
	if err := handler(b.ctx, evt); err != nil {
		b.logger.Error("handler error", "event_type", env.Type, "error", err)
		b.pushToDLQ(eventType, msg.Values)
	}
}

func (b *RedisEventBus) pushToDLQ(eventType string, values map[string]any) {
	dlq := dlqStreamName(b.stream, eventType)
	if err := b.client.XAdd(context.WithoutCancel(b.ctx), &redis.XAddArgs{
		Stream: dlq,
		Values: values,
	}).Err(); err != nil {
		b.logger.Error("failed to push to DLQ", "stream", dlq, "error", err)
		return
	}
	b.logger.Warn("event pushed to DLQ", "stream", dlq)
}

// Close stops every consumer and waits for in-flight handlers.
func (b *RedisEventBus) Close() error {
	b.cancel()
	b.wg.Wait()
	return nil
}

func isBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

var _ eventbus.Bus = (*RedisEventBus)(nil)
