package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"docbridge/internal/cache"
	"docbridge/internal/config"
	"docbridge/internal/log"
	"docbridge/internal/portal/auth"
	"docbridge/internal/portal/gatewayclient"
	"docbridge/internal/portal/handlers"
	"docbridge/internal/portal/server"
	"docbridge/internal/portal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, "portal")

	ctx := context.Background()

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	gateway := gatewayclient.New(cfg.Portal.GatewayURL, cfg.Portal.GatewayTimeout)
	store := session.NewRedisStore(redisClient, cfg.Portal.SessionTTL)

	var opts []auth.RegistryOption
	if cfg.Portal.RevalidateOnBoot {
		opts = append(opts, auth.WithRevalidator(gateway))
	}
	registry := auth.NewRegistry(store, gateway, cfg.Portal.DemoMode, logger, opts...)

	if cfg.Portal.DemoMode {
		logger.Warn().Msg("demo mode enabled: gateway outages yield a synthesized signed-in session")
	}

	pages := handlers.NewPages(logger, gateway)
	httpServer := server.NewHTTPServer(cfg, logger, registry, pages)

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("portal exited cleanly")
}
