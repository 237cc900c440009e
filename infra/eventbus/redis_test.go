package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/config"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/events"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/record"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisBus starts a Redis container and returns a bus on it.
func setupRedisBus(tb testing.TB) (*RedisEventBus, *redis.Client) {
	tb.Helper()
	if testing.Short() {
		tb.Skip("skipping redis container test in short mode")
	}
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7.0.5",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		tb.Fatalf("Failed to start container: %v", err)
	}
	tb.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(tb, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(tb, err)

	client := redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()})
	tb.Cleanup(func() { _ = client.Close() })

	bus, err := NewWithRedis(client, &config.EventBus{Stream: "test-events", Group: "test-group"}, events.EventTypes, slog.Default())
	require.NoError(tb, err)
	tb.Cleanup(func() { _ = bus.Close() })
	return bus, client
}

func created(category string) *events.RecordMutated {
	return events.NewRecordMutated("user-1", record.Created, record.Record{
		LocalID:  1,
		Kind:     record.Expense,
		Amount:   decimal.NewFromInt(250),
		Category: category,
	})
}

func TestRedisBus_HandlerReceivesEvent(t *testing.T) {
	bus, _ := setupRedisBus(t)

	received := make(chan *events.RecordMutated, 1)
	bus.Register(events.EventTypeRecordCreated.String(), func(ctx context.Context, e events.Event) error {
		received <- e.(*events.RecordMutated)
		return nil
	})

	require.NoError(t, bus.Emit(context.Background(), created("Food")))

	select {
	case got := <-received:
		require.Equal(t, "Food", got.Record.Category)
		require.Equal(t, "user-1", got.UserID)
		require.True(t, decimal.NewFromInt(250).Equal(got.Record.Amount))
	case <-time.After(5 * time.Second):
		t.Fatal("handler did not receive event in time")
	}
}

func TestRedisBus_TypesDoNotShareMessages(t *testing.T) {
	bus, _ := setupRedisBus(t)

	var createdCount, deletedCount atomic.Int32
	done := make(chan struct{})
	bus.Register(events.EventTypeRecordCreated.String(), func(ctx context.Context, e events.Event) error {
		if createdCount.Add(1) == 3 {
			close(done)
		}
		return nil
	})
	bus.Register(events.EventTypeRecordDeleted.String(), func(ctx context.Context, e events.Event) error {
		deletedCount.Add(1)
		return nil
	})

	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Emit(context.Background(), created(fmt.Sprintf("cat %d", i))))
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("not all events were received")
	}
	require.Zero(t, deletedCount.Load())
}

func TestRedisBus_FailedHandlerGoesToDLQ(t *testing.T) {
	bus, client := setupRedisBus(t)
	ctx := context.Background()

	bus.Register(events.EventTypeRecordCreated.String(), func(ctx context.Context, e events.Event) error {
		return fmt.Errorf("simulated failure")
	})
	require.NoError(t, bus.Emit(ctx, created("Food")))

	dlq := dlqStreamName("test-events", events.EventTypeRecordCreated.String())
	require.Eventually(t, func() bool {
		n, err := client.XLen(ctx, dlq).Result()
		return err == nil && n == 1
	}, 5*time.Second, 50*time.Millisecond)
}
