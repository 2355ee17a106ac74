package cache

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically deletes expired cache entries
type Sweeper struct {
	cache    *PGCache
	logger   *slog.Logger
	interval time.Duration
}

// NewSweeper creates a sweeper running every interval
func NewSweeper(cache *PGCache, logger *slog.Logger, interval time.Duration) *Sweeper {
	return &Sweeper{
		cache:    cache,
		logger:   logger,
		interval: interval,
	}
}

// Run blocks until ctx is cancelled
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("cache sweeper started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("cache sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	removed, err := s.cache.CleanupExpired(ctx)
	if err != nil {
		s.logger.Error("failed to cleanup cache", "error", err)
		return
	}
	if removed > 0 {
		s.logger.Debug("cache cleanup completed", "removed", removed)
	}
}
