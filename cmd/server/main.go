package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/channelfinder/internal/app"
	"github.com/mathieu-neron/channelfinder/internal/config"
	"github.com/mathieu-neron/channelfinder/internal/handler"
	"github.com/mathieu-neron/channelfinder/internal/middleware"
	"github.com/mathieu-neron/channelfinder/internal/router"
	"github.com/mathieu-neron/channelfinder/internal/service"
)

func main() {
	cfg := config.Load()
	middleware.InitLogger(cfg.LogLevel, "channelfinder-api")
	logger := middleware.Logger

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, app.Options{})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize")
	}
	defer a.Close()

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	botName, err := a.CheckBot(checkCtx)
	cancel()
	if err != nil {
		logger.Warn().Err(err).Msg("continuing without a confirmed bot identity")
	}

	if cfg.DiscoveryInterval > 0 {
		worker := service.NewDiscoveryWorker(a.Discovery, cfg.DiscoveryInterval, logger)
		go worker.Start(ctx)
	}

	srv := fiber.New(fiber.Config{
		AppName:      "channelfinder API",
		ServerHeader: "channelfinder",
	})

	health := handler.NewHealthHandler(handler.HealthDeps{
		Store: a.Repo,
		Cache: a.Cache,
		Runs:  a.Discovery,
		Bot:   botName,
	})
	router.Setup(srv, &router.Handlers{
		Channel:   handler.NewChannelHandler(a.Channels, a.Discovery, a.Publisher),
		Discovery: handler.NewDiscoveryHandler(ctx, a.Discovery),
		Stats:     handler.NewStatsHandler(a.Channels),
		Export:    handler.NewExportHandler(a.Repo),
		Health:    health,
	}, router.Options{
		CORSOrigins: cfg.CORSOrigins,
		AdminToken:  cfg.AdminToken,
		Metrics:     a.Metrics,
		Gatherer:    a.Registry,
	})

	go func() {
		<-ctx.Done()
		logger.Info().Msg("shutting down")
		if err := srv.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error().Err(err).Msg("shutdown failed")
		}
	}()

	logger.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("channelfinder API starting")
	if err := srv.Listen(":" + cfg.Port); err != nil {
		logger.Error().Err(err).Msg("server stopped")
	}
}
