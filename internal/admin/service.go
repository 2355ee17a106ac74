package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/cache"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/domain"
)

const analyticsKeyPrefix = "analytics:"

// Service handles admin dashboard queries
type Service struct {
	users    UserReader
	analyses AnalysisReader
	events   EventReader
	cache    AnalyticsCache
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewService creates a new admin service. cache may be nil to disable caching.
func NewService(users UserReader, analyses AnalysisReader, events EventReader, cache AnalyticsCache, cacheTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		users:    users,
		analyses: analyses,
		events:   events,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// ListUsers returns users newest first with their latest emotion
func (s *Service) ListUsers(ctx context.Context, params ListParams) ([]*domain.UserSummary, error) {
	params = params.Normalize()

	users, err := s.users.List(ctx, params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetUserDetail returns the user with their analyses and latest events
func (s *Service) GetUserDetail(ctx context.Context, uid string) (*domain.UserDetail, error) {
	user, err := s.users.GetByUID(ctx, uid)
	if err != nil {
		return nil, err
	}

	analyses, err := s.analyses.ListByUID(ctx, uid, DetailAnalysesLimit)
	if err != nil {
		return nil, fmt.Errorf("user %s: list analyses: %w", uid, err)
	}

	events, err := s.events.ListByUID(ctx, uid, DetailEventsLimit)
	if err != nil {
		return nil, fmt.Errorf("user %s: list events: %w", uid, err)
	}

	return &domain.UserDetail{
		User:     user,
		Analyses: analyses,
		Events:   events,
	}, nil
}

// Analytics aggregates the analyses matching filter. Results are cached per
// filter for the configured TTL; fresh drops every cached aggregate first.
func (s *Service) Analytics(ctx context.Context, filter domain.AnalyticsFilter, fresh bool) (*domain.Analytics, error) {
	key := filter.CacheKey()

	if s.cache != nil && s.cacheTTL > 0 {
		if fresh {
			if _, err := s.cache.DeletePrefix(ctx, analyticsKeyPrefix); err != nil {
				s.logger.WarnContext(ctx, "failed to invalidate analytics cache", "error", err)
			}
		} else {
			var cached domain.Analytics
			err := s.cache.GetJSON(ctx, key, &cached)
			if err == nil {
				return &cached, nil
			}
			if !cache.IsMiss(err) {
				s.logger.WarnContext(ctx, "analytics cache read failed", "key", key, "error", err)
			}
		}
	}

	result, err := s.analyses.Analytics(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("compute analytics: %w", err)
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.SetJSON(ctx, key, result, s.cacheTTL); err != nil {
			s.logger.WarnContext(ctx, "analytics cache write failed", "key", key, "error", err)
		}
	}

	return result, nil
}

// SimilarAnalyses returns the analyses with the closest expression profile to id
func (s *Service) SimilarAnalyses(ctx context.Context, id uuid.UUID, limit int) ([]domain.SimilarAnalysis, error) {
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}
	if limit > MaxSimilarLimit {
		limit = MaxSimilarLimit
	}

	reference, err := s.analyses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	similar, err := s.analyses.FindSimilar(ctx, reference, limit)
	if err != nil {
		return nil, fmt.Errorf("analysis %s: find similar: %w", id, err)
	}
	return similar, nil
}
