package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/david/opportunity-sync/internal/api"
	"github.com/david/opportunity-sync/internal/auth"
	"github.com/david/opportunity-sync/internal/config"
	"github.com/david/opportunity-sync/internal/db"
	"github.com/david/opportunity-sync/internal/ingest"
	"github.com/david/opportunity-sync/internal/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.Configure(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Fields: map[string]string{"service": "opportunity-sync"},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("migration failed")
	}

	columns, err := ingest.LoadColumnMaps(cfg.ColumnMapFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load column maps")
	}

	authService, err := auth.NewService(auth.Options{
		JWTSecret:       cfg.JWTSecret,
		AdminSecret:     cfg.AdminSecret,
		AdminSecretHash: cfg.AdminSecretHash,
		TokenTTL:        cfg.TokenTTL,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise auth")
	}

	store := db.NewStore(pool)
	importer := ingest.NewImporter(store, store, columns, logger.With().Str("component", "importer").Logger())
	importer.BatchSize = cfg.ImportBatchSize
	importer.Progress = ingest.LogProgress(logger)

	srv := api.NewServer(store, importer, authService, api.Options{
		CORSOrigins:        cfg.CORSAllowedOrigins,
		ImportMaxFileBytes: cfg.ImportMaxFileBytes,
		ImportMaxRows:      cfg.ImportMaxRows,
	}, logger)

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server starting")
		if err := srv.Start(cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown failed")
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}
