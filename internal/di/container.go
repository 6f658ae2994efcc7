package di

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-telegram/bot"
	"github.com/prometheus/client_golang/prometheus"
	digestService "github.com/reshetovitsme/modwatch/internal/modules/digest/service"
	feedDomain "github.com/reshetovitsme/modwatch/internal/modules/feed/domain"
	feedService "github.com/reshetovitsme/modwatch/internal/modules/feed/service"
	forumService "github.com/reshetovitsme/modwatch/internal/modules/forum/service"
	moderationRepo "github.com/reshetovitsme/modwatch/internal/modules/moderation/repository"
	pollService "github.com/reshetovitsme/modwatch/internal/modules/poll/service"
	subscriberRepo "github.com/reshetovitsme/modwatch/internal/modules/subscriber/repository"
	subscriberService "github.com/reshetovitsme/modwatch/internal/modules/subscriber/service"
	"github.com/reshetovitsme/modwatch/internal/shared/config"
	"github.com/reshetovitsme/modwatch/internal/shared/metrics"
	"github.com/reshetovitsme/modwatch/internal/source/forumapi"
	"github.com/reshetovitsme/modwatch/internal/source/rss"
	httpServer "github.com/reshetovitsme/modwatch/internal/transport/http"
	telegramHandler "github.com/reshetovitsme/modwatch/internal/transport/telegram"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
)

const shutdownTimeout = 10 * time.Second

// Setup initializes the dependency injection container. args are positional
// article references from the command line.
func Setup(args ...string) (do.Injector, error) {
	injector := do.New()

	// Register Config
	do.Provide(injector, func(i do.Injector) (*config.Config, error) {
		cfg, err := config.Load(args...)
		if err != nil {
			return nil, oops.With("context", "failed to load config").Wrap(err)
		}
		return cfg, nil
	})

	// Register Event Store
	do.Provide(injector, func(i do.Injector) (*moderationRepo.SQLite, error) {
		cfg := do.MustInvoke[*config.Config](i)
		store, err := moderationRepo.NewSQLite(cfg.DBPath)
		if err != nil {
			return nil, oops.With("db_path", cfg.DBPath, "context", "failed to initialize event store").Wrap(err)
		}
		return store, nil
	})

	// Register Subscriber Repository, sharing the event database
	do.Provide(injector, func(i do.Injector) (subscriberRepo.Repository, error) {
		store := do.MustInvoke[*moderationRepo.SQLite](i)
		repo, err := subscriberRepo.NewSQLite(store.DB())
		if err != nil {
			return nil, oops.With("context", "failed to initialize subscriber repository").Wrap(err)
		}
		return repo, nil
	})

	// Register Subscriber Service
	do.Provide(injector, func(i do.Injector) (*subscriberService.Service, error) {
		return subscriberService.New(do.MustInvoke[subscriberRepo.Repository](i)), nil
	})

	// Register Metrics
	do.Provide(injector, func(i do.Injector) (*metrics.Metrics, error) {
		return metrics.New(prometheus.DefaultRegisterer), nil
	})

	// Register Forum API Client
	do.Provide(injector, func(i do.Injector) (*forumapi.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return forumapi.New(forumapi.Config{
			BaseURL:   cfg.APIURL,
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.Timeout(),
			RateLimit: cfg.RateLimit,
		}, &http.Client{Timeout: cfg.Timeout()}), nil
	})

	// Register Forum Service
	do.Provide(injector, func(i do.Injector) (*forumService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		client := do.MustInvoke[*forumapi.Client](i)

		var discoverer forumService.Discoverer
		if cfg.Discover {
			userAgent := cfg.UserAgent
			if userAgent == "" {
				userAgent = forumapi.DefaultUserAgent
			}
			discoverer = rss.New(cfg.RSSURL, userAgent, &http.Client{Timeout: cfg.Timeout()}, forumapi.NormalizeURL)
		}

		return forumService.New(client, discoverer, forumService.Options{
			MinPostings: cfg.MinPosts,
			MaxInactive: cfg.MaxInactiveFor(),
			Normalize:   forumapi.NormalizeURL,
		}), nil
	})

	// Register Poll Orchestrator
	do.Provide(injector, func(i do.Injector) (*pollService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return pollService.New(
			do.MustInvoke[*forumapi.Client](i),
			do.MustInvoke[*forumService.Service](i),
			do.MustInvoke[*moderationRepo.SQLite](i),
			do.MustInvoke[*metrics.Metrics](i),
			pollService.Options{
				Interval:      cfg.PollEvery(),
				Articles:      cfg.Articles,
				Discover:      cfg.Discover,
				DiscoverEvery: cfg.DiscoverInterval,
			},
		), nil
	})

	// Register Feed Service
	do.Provide(injector, func(i do.Injector) (*feedService.Service, error) {
		return feedService.New(do.MustInvoke[*pollService.Service](i), feedDomain.DefaultFeedConfig()), nil
	})

	// Register HTTP Server
	do.Provide(injector, func(i do.Injector) (*httpServer.Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		server := httpServer.New(cfg,
			do.MustInvoke[*pollService.Service](i),
			do.MustInvoke[*moderationRepo.SQLite](i),
			do.MustInvoke[*feedService.Service](i),
			prometheus.DefaultGatherer,
		)
		server.SetLogger(slog.Default())
		return server, nil
	})

	// Register Telegram Handler
	do.Provide(injector, func(i do.Injector) (*telegramHandler.Handler, error) {
		return telegramHandler.New(
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*pollService.Service](i),
			do.MustInvoke[*moderationRepo.SQLite](i),
			do.MustInvoke[*subscriberService.Service](i),
		), nil
	})

	// Register Bot (needs to be initialized after handlers are ready)
	do.Provide(injector, func(i do.Injector) (*bot.Bot, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if !cfg.TelegramEnabled() {
			return nil, oops.New("telegram bot token not configured")
		}
		handler := do.MustInvoke[*telegramHandler.Handler](i)

		opts := []bot.Option{
			bot.WithDefaultHandler(handler.HandleUpdate),
		}
		if cfg.TelegramAPIURL != "" {
			opts = append(opts, bot.WithServerURL(cfg.TelegramAPIURL))
		}

		b, err := bot.New(cfg.TelegramBotToken, opts...)
		if err != nil {
			return nil, oops.With("context", "failed to create telegram bot").Wrap(err)
		}

		// Register bot commands
		handler.RegisterCommands(b)
		return b, nil
	})

	// Register Digest, delivered through the bot
	do.Provide(injector, func(i do.Injector) (*digestService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		b, err := do.Invoke[*bot.Bot](i)
		if err != nil {
			return nil, oops.With("context", "digest needs the telegram bot").Wrap(err)
		}
		notifier := telegramHandler.NewNotifier(b, do.MustInvoke[*subscriberService.Service](i), cfg.TelegramChatID)
		return digestService.New(do.MustInvoke[*moderationRepo.SQLite](i), notifier, cfg.DigestHour, nil), nil
	})

	return injector, nil
}

// Shutdown gracefully shuts down all services. The poll loop stops first so no
// write is in flight when the store closes.
func Shutdown(injector do.Injector) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		return nil
	}

	if orchestrator, err := do.Invoke[*pollService.Service](injector); err == nil {
		orchestrator.Stop()
	}

	if cfg.TelegramEnabled() {
		if digest, err := do.Invoke[*digestService.Service](injector); err == nil {
			digest.Stop()
		}
	}

	if cfg.StatusServerEnabled() {
		if server, err := do.Invoke[*httpServer.Server](injector); err == nil {
			if err := server.Shutdown(ctx); err != nil {
				slog.Error("HTTP server shutdown failed", "error", err)
			}
		}
	}

	if store, err := do.Invoke[*moderationRepo.SQLite](injector); err == nil {
		if err := store.Close(); err != nil {
			return oops.With("context", "failed to close event store").Wrap(err)
		}
	}

	return nil
}
