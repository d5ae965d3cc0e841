// Package main is the entry point for the pull-the-joker game server.
// It initializes all dependencies and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"pulljoker/src/app/server"
	"pulljoker/src/app/ws"
	"pulljoker/src/core/ports"
	"pulljoker/src/core/usecase"
	"pulljoker/src/infra/config"
	"pulljoker/src/infra/db"
	"pulljoker/src/infra/lobby"
	"pulljoker/src/infra/logger"
	"pulljoker/src/infra/repo"
	"pulljoker/src/infra/telemetry"
)

func main() {
	if err := run(); err != nil {
		log.Printf("fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Log)
	log.Info("starting application",
		"port", cfg.Server.Port,
		"store", cfg.Store.Driver,
		"log_level", cfg.Log.Level,
	)

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry, log)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Warn("tracing shutdown", "error", err)
		}
	}()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	hub := ws.NewHub(logger.WithComponent(log, "hub"))
	notifier := lobby.NewNotifier(cfg.Lobby, nil, logger.WithComponent(log, "lobby"))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Lobby.NotifyTimeout)
		defer cancel()
		if err := notifier.Close(ctx); err != nil {
			log.Warn("lobby shutdown", "error", err)
		}
	}()

	opts := []usecase.GameServiceOption{
		usecase.WithRetryPolicy(usecase.RetryPolicy{
			MaxAttempts:    cfg.Game.RetryMaxAttempts,
			InitialBackoff: cfg.Game.RetryInitialBackoff,
			MaxBackoff:     cfg.Game.RetryMaxBackoff,
		}),
	}
	if cfg.Game.DrawRandomCard {
		opts = append(opts, usecase.WithRandomDraw(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))))
	}
	games := usecase.NewGameService(store,
		ports.Broadcasters{ws.NewBroadcaster(hub, log), notifier},
		logger.WithComponent(log, "game"),
		opts...,
	)

	health := usecase.NewHealthService(log, store)
	if notifier.Enabled() {
		health.AddCheck("lobby", notifier)
	}

	srv := server.New(cfg, log, server.Deps{Games: games, Health: health, Hub: hub})

	// Run blocks until shutdown signal is received
	return srv.Run()
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (ports.EventStore, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pg, err := db.New(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		return repo.NewPostgresEventStore(pg, log), nil
	case config.DriverSQLite:
		sqlite, err := db.OpenSQLite(ctx, cfg.Store.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		return repo.NewSQLiteEventStore(sqlite, log), nil
	case config.DriverMemory:
		log.Warn("using in-memory event store; games are lost on restart")
		return repo.NewMemoryEventStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
