package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/coinvault/coinvault/internal/config"
	"github.com/coinvault/coinvault/internal/container"
)

func main() {
	// 1. Configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// 2. Container (logger, database, redis, nats, use cases, HTTP)
	app := container.New(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.Initialize(ctx); err != nil {
		log.Fatal("Failed to initialize application:", err)
	}

	// 3. Background workers: outbox relay + периодическая чистка
	app.StartBackground(ctx)

	// 4. HTTP server (блокирует до SIGINT/SIGTERM)
	if err := app.Run(); err != nil {
		app.Logger().Error("Server error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Graceful shutdown остальных компонентов
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout,
	)
	defer shutdownCancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		app.Logger().Error("Shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	app.Logger().Info("Server stopped gracefully")
}
