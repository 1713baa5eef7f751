package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/cimillas/order-intake/internal/app"
	"github.com/cimillas/order-intake/internal/clock"
	"github.com/cimillas/order-intake/internal/config"
	"github.com/cimillas/order-intake/internal/event/kafka"
	"github.com/cimillas/order-intake/internal/storage/postgres"
	transporthttp "github.com/cimillas/order-intake/internal/transport/http"
	"github.com/cimillas/order-intake/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Str("service", "order-intake").Logger()

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to db")
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		logger.Fatal().Err(err).Msg("db ping")
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}

	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
	publisher := kafka.NewPublisher(writer, logger, cfg.PublishMaxAttempts, cfg.PublishBackoff)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn().Err(err).Msg("close kafka writer")
		}
	}()

	orderRepo := postgres.NewOrderRepository(pool)
	ledger := app.NewIdempotencyLedger(postgres.NewIdempotencyRepository(pool))
	orderSvc := app.NewOrderService(orderRepo, ledger, publisher, clock.NewSystem())

	handler := transporthttp.NewRouter(orderSvc, logger)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler,
	}

	logger.Info().Str("addr", cfg.HTTPAddr).Msg("api listening")

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server error")
		}
	case <-stopCtx.Done():
		logger.Info().Msg("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	logger.Info().Msg("server stopped")
}
