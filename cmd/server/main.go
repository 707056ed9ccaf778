package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/gradebook/internal/config"
	"github.com/JonMunkholm/gradebook/internal/logging"
	"github.com/JonMunkholm/gradebook/internal/store"
	"github.com/JonMunkholm/gradebook/internal/university"
	"github.com/JonMunkholm/gradebook/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	if err := run(); err != nil {
		slog.Error("server failed", "error", err, "code", university.MapError(err).Code)
		os.Exit(1)
	}
}

// run owns every resource so deferred cleanup happens before main exits.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"dataset_dir", cfg.Dataset.Dir,
		"dataset_profile", cfg.Dataset.Profile,
		"database", cfg.Database.Enabled(),
	)

	ds, err := config.LoadDataset(cfg.Dataset)
	if err != nil {
		return fmt.Errorf("resolve dataset: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	uni, err := university.Build(ctx, ds)
	if err != nil {
		return fmt.Errorf("load university: %w", err)
	}

	var grades web.GradeSource = store.NewSnapshot(uni)
	if cfg.Database.Enabled() {
		pool, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("open reporting store: %w", err)
		}
		defer pool.Close()

		pg := store.NewPostgres(pool)
		if cfg.Database.Publish {
			if _, err := pg.Publish(ctx, uni); err != nil {
				return fmt.Errorf("publish load %s: %w", uni.LoadID(), err)
			}
		}
		grades = pg
	}

	server := web.NewServer(uni, grades, cfg.Server)

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
