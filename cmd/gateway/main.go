package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/illmade-knight/go-remotedata/pkg/config"
	"github.com/illmade-knight/go-remotedata/pkg/gateway"
	"github.com/illmade-knight/go-remotedata/pkg/microservice"
	"github.com/illmade-knight/go-remotedata/pkg/rest"
)

// handlerWait bounds how long a request waits for the upstream API.
const handlerWait = 20 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", "gateway").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	transport := rest.NewHTTPTransport(ctx, &rest.HTTPConfig{
		Timeout:           cfg.REST.Timeout,
		RequestsPerSecond: cfg.REST.RequestsPerSecond,
		Burst:             cfg.REST.Burst,
		Token:             cfg.REST.Token,
	}, logger)

	stack, err := gateway.NewStack(ctx, cfg, transport, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build client")
	}
	defer func() {
		if err := stack.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close caches")
		}
	}()
	if stack.Janitor != nil {
		go stack.Janitor.Run(ctx)
	}

	server := microservice.NewBaseServer(logger, cfg.HTTPPort)
	server.SetReadinessCheck(stack.Ready)
	gateway.NewHandlers(stack.Services, stack.Search, stack.Requests, handlerWait, logger).Register(server.Router())
	if err := server.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}

	<-ctx.Done()
	logger.Info().Msg("Shutdown signal received.")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}
	if err := stack.Requests.Wait(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Requests still in flight at shutdown")
	}
	m := stack.Metrics.Snapshot()
	logger.Info().Interface("cache", m).Msg("Gateway stopped.")
}
