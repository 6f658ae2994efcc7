package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/reshetovitsme/modwatch/internal/di"
	digestService "github.com/reshetovitsme/modwatch/internal/modules/digest/service"
	pollService "github.com/reshetovitsme/modwatch/internal/modules/poll/service"
	"github.com/reshetovitsme/modwatch/internal/shared/config"
	httpServer "github.com/reshetovitsme/modwatch/internal/transport/http"
	"github.com/samber/do/v2"
	slogmulti "github.com/samber/slog-multi"
)

func main() {
	// Setup structured logging with multiple handlers using slog-multi
	level := new(slog.LevelVar)
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	jsonHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	})

	// Use Fanout to send logs to both handlers
	multiHandler := slogmulti.Fanout(textHandler, jsonHandler)
	logger := slog.New(multiHandler)
	slog.SetDefault(logger)

	// Setup dependency injection
	injector, err := di.Setup(os.Args[1:]...)
	if err != nil {
		slog.Error("Failed to setup dependency injection", "error", err)
		os.Exit(1)
	}

	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		slog.Info("Usage: modwatch [article-url-or-id ...]  (or set ARTICLES / DISCOVER=true)")
		os.Exit(2)
	}
	level.Set(cfg.SlogLevel())

	if err := run(injector, cfg); err != nil {
		slog.Error("Application failed", "error", err)
		if err := di.Shutdown(injector); err != nil {
			slog.Error("Error during shutdown", "error", err)
		}
		os.Exit(1)
	}

	if err := di.Shutdown(injector); err != nil {
		slog.Error("Error during shutdown", "error", err)
	}
	slog.Info("Stopped")
}

func run(injector do.Injector, cfg *config.Config) error {
	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	orchestrator, err := do.Invoke[*pollService.Service](injector)
	if err != nil {
		return err
	}

	// Start HTTP server before the first poll so the status view is up during onboarding
	if cfg.StatusServerEnabled() {
		server, err := do.Invoke[*httpServer.Server](injector)
		if err != nil {
			return err
		}
		go func() {
			if err := server.Start(); err != nil {
				slog.Error("HTTP server failed", "error", err)
				cancel()
			}
		}()
	}

	if cfg.TelegramEnabled() {
		b, err := do.Invoke[*bot.Bot](injector)
		if err != nil {
			return err
		}
		go b.Start(ctx)

		digest, err := do.Invoke[*digestService.Service](injector)
		if err != nil {
			return err
		}
		if err := digest.Start(ctx); err != nil {
			return err
		}
	}

	if err := orchestrator.Start(ctx); err != nil {
		return err
	}

	slog.Info("Application started",
		"articles", len(cfg.Articles),
		"discover", cfg.Discover,
		"poll_interval", cfg.PollEvery(),
		"http", cfg.StatusServerEnabled(),
		"telegram", cfg.TelegramEnabled(),
	)
	slog.Info("Press Ctrl+C to stop")

	<-ctx.Done()
	slog.Info("Shutting down...")
	return nil
}
