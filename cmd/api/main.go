package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/api"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/config"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/database"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/face"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/pipeline"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/provider"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/storage"
)

const detectorRetryInterval = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting SelfieLens API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("provider", cfg.ProviderType),
		slog.String("storage", cfg.StorageType),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPgxPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	detector, err := face.NewDetector(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create face detector: %w", err)
	}
	go initDetector(ctx, detector, logger)

	store, err := storage.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize image storage: %w", err)
	}

	analysis := pipeline.New(detector,
		pipeline.WithMinGenderConfidence(cfg.MinGenderConfidence),
		pipeline.WithMinEmotionConfidence(cfg.MinEmotionConfidence),
		pipeline.WithDetectorTimeout(cfg.DetectorTimeout),
		pipeline.WithLogger(logger),
	)

	router := api.NewRouter(logger, &api.Dependencies{
		DB:       pool,
		Pipeline: analysis,
		Store:    store,
		Config:   cfg,
	})
	router.Setup()

	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := router.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	logger.Info("server stopped")
	return nil
}

// initDetector retries Init until it succeeds or ctx ends. Analyses fall
// back to heuristics meanwhile.
func initDetector(ctx context.Context, detector provider.FaceDetector, logger *slog.Logger) {
	ticker := time.NewTicker(detectorRetryInterval)
	defer ticker.Stop()

	for {
		if face.InitDetector(ctx, detector, logger) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
