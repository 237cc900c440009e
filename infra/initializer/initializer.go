package initializer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nNEWBE/expense-tracker-sub000/infra"
	infra_eventbus "github.com/nNEWBE/expense-tracker-sub000/infra/eventbus"
	"github.com/nNEWBE/expense-tracker-sub000/infra/remote"
	infra_record "github.com/nNEWBE/expense-tracker-sub000/infra/repository/record"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/app"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/config"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/events"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/eventbus"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/service/auth"
	"github.com/redis/go-redis/v9"
)

// InitializeDependencies opens the local database, the remote stores and
// the event bus described by cfg. Logs go to logOut (stdout when nil).
func InitializeDependencies(cfg *config.App, logOut io.Writer) (deps *app.Deps, err error) {
	logger := SetupLogger(logOut, cfg.Log)
	deps = &app.Deps{Logger: logger}
	ctx := context.Background()

	// Release whatever was opened if a later step fails.
	defer func() {
		if err == nil {
			return
		}
		for i := len(deps.Closers) - 1; i >= 0; i-- {
			_ = deps.Closers[i]()
		}
	}()

	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	deps.Closers = append(deps.Closers, sqlDB.Close)

	if err := infra_record.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate local store: %w", err)
	}
	local := infra_record.New(db, logger)
	deps.Local = local
	deps.Closers = append(deps.Closers, local.Close)

	var client *redis.Client
	if cfg.Redis.URL != "" {
		client, err = remote.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		deps.Closers = append(deps.Closers, client.Close)
		deps.Remote = remote.NewRedisRecordStore(client, cfg.Redis.KeyPrefix, logger)
		deps.Notifications = remote.NewRedisNotificationStore(client, cfg.Redis.KeyPrefix, logger)
		logger.Info("Remote stores on redis", "prefix", cfg.Redis.KeyPrefix)
	} else {
		deps.Remote = remote.NewMemoryRecordStore()
		deps.Notifications = remote.NewMemoryNotificationStore()
		logger.Warn("REDIS_URL not set, remote stores are in-memory")
	}

	deps.EventBus, err = initEventBus(cfg, client, logger)
	if err != nil {
		return nil, err
	}
	deps.Strategy = auth.NewJWTStrategy(cfg.Auth.Jwt, logger)
	return deps, nil
}

// initEventBus picks the bus named by EVENT_BUS_DRIVER. The redis driver
// needs a redis client and falls back to memory_async without one that
// answers.
func initEventBus(cfg *config.App, client *redis.Client, logger *slog.Logger) (eventbus.Bus, error) {
	driver := ""
	if cfg.EventBus != nil {
		driver = cfg.EventBus.Driver
	}
	switch driver {
	case "memory":
		return infra_eventbus.NewWithMemory(logger), nil
	case "", "memory_async":
		return infra_eventbus.NewWithMemoryAsync(logger), nil
	case "redis":
		if client == nil {
			return nil, errors.New("event bus driver redis requires REDIS_URL")
		}
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.Warn("Redis event bus unavailable, using memory_async", "error", err)
			return infra_eventbus.NewWithMemoryAsync(logger), nil
		}
		return infra_eventbus.NewWithRedis(client, cfg.EventBus, events.EventTypes, logger)
	default:
		return nil, fmt.Errorf("unknown event bus driver %q", driver)
	}
}
