package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/nNEWBE/expense-tracker-sub000/infra/initializer"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/app"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/config"
	"github.com/nNEWBE/expense-tracker-sub000/webapi"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load(config.EnvFile())
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, cfg, os.Stdout)
}

// build wires the dependencies and the HTTP app.
func build(cfg *config.App, logOut io.Writer) (*app.App, *fiber.App, error) {
	deps, err := initializer.InitializeDependencies(cfg, logOut)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	a := app.New(deps, cfg)
	return a, webapi.SetupApp(a), nil
}

// serve listens until ctx is cancelled, then shuts the server down and
// drains the application.
func serve(ctx context.Context, cfg *config.App, logOut io.Writer) error {
	a, fiberApp, err := build(cfg, logOut)
	if err != nil {
		return err
	}
	logger := a.Deps.Logger

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Starting server",
		"env", cfg.Env,
		"address", addr,
		"scheme", cfg.Server.Scheme,
	)

	listenErr := make(chan error, 1)
	go func() { listenErr <- fiberApp.Listen(addr) }()

	select {
	case err = <-listenErr:
	case <-ctx.Done():
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err = fiberApp.ShutdownWithContext(shutdownCtx)
		cancel()
	}
	return errors.Join(err, a.Close())
}
