// Package app wires the discovery engine and its read side from
// configuration. Both the API server and the CLI build on it.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/mathieu-neron/channelfinder/internal/catalog"
	"github.com/mathieu-neron/channelfinder/internal/config"
	"github.com/mathieu-neron/channelfinder/internal/db"
	"github.com/mathieu-neron/channelfinder/internal/discovery"
	"github.com/mathieu-neron/channelfinder/internal/metrics"
	"github.com/mathieu-neron/channelfinder/internal/model"
	"github.com/mathieu-neron/channelfinder/internal/repository"
	"github.com/mathieu-neron/channelfinder/internal/service"
	"github.com/mathieu-neron/channelfinder/internal/telegram"
)

// App holds the long-lived components of one process.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Catalog  *catalog.Catalog
	Pool     *pgxpool.Pool
	Cache    *service.CacheService
	Bot      *telegram.Client
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	Repo      *repository.ChannelRepo
	Channels  *service.ChannelService
	Discovery *service.DiscoveryService
	Publisher *service.PublishService
}

// Options customizes wiring per binary.
type Options struct {
	// OnProgress receives sweep progress (the CLI prints it).
	OnProgress func(model.RunProgress)
	// NoCache skips Redis even when REDIS_URL is set.
	NoCache bool
}

// New connects to Postgres (and Redis when configured), applies the schema
// if MigrateOnStart is set and builds every service.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) (*App, error) {
	cat, err := catalog.LoadOrDefault(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	classifier, err := discovery.NewClassifier(cat)
	if err != nil {
		return nil, err
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}
	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info().Msg("schema up to date")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	metrics.RegisterPool(reg, pool)

	redisURL := cfg.RedisURL
	if opts.NoCache {
		redisURL = ""
	}
	cache := service.NewCacheService(redisURL, logger, m)

	bot := telegram.NewClient(cfg.BotToken, telegram.WithBaseURL(cfg.TelegramAPIURL))
	repo := repository.NewChannelRepo(pool)
	channels := service.NewChannelService(repo, cache, cat, logger)

	disc := service.NewDiscoveryService(service.DiscoveryDeps{
		Store:      repo,
		Verifier:   service.NewVerifier(bot, service.NewUniformEstimator(cfg.EstimateMin, cfg.EstimateMax, nil), logger),
		Classifier: classifier,
		Generator:  discovery.NewGenerator(cat),
		Popular:    cat,
		Cache:      cache,
		Metrics:    m,
		Pacer:      service.NewPacer(cfg.PacingDelay, nil),
	}, service.DiscoveryConfig{
		Cap:           cfg.SweepCap,
		ProgressEvery: cfg.ProgressEvery,
		OnProgress:    opts.OnProgress,
	}, logger)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Catalog:   cat,
		Pool:      pool,
		Cache:     cache,
		Bot:       bot,
		Registry:  reg,
		Metrics:   m,
		Repo:      repo,
		Channels:  channels,
		Discovery: disc,
		Publisher: service.NewPublishService(channels, bot, cat, cfg.TargetChannel, m, logger),
	}, nil
}

// CheckBot calls getMe and logs the bot identity. It returns the bot
// username, or an error if the token is rejected or the API is unreachable.
func (a *App) CheckBot(ctx context.Context) (string, error) {
	me, err := a.Bot.GetMe(ctx)
	if err != nil {
		return "", fmt.Errorf("bot identity check: %w", err)
	}
	a.Logger.Info().Str("bot", "@"+me.Username).Int64("bot_id", me.ID).Msg("bot identity confirmed")
	return me.Username, nil
}

// Close releases the database pool and the Redis client.
func (a *App) Close() {
	if err := a.Cache.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("redis close failed")
	}
	a.Pool.Close()
}
