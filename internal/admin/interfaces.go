package admin

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/domain"
)

// DashboardService is what the admin handlers depend on
type DashboardService interface {
	ListUsers(ctx context.Context, params ListParams) ([]*domain.UserSummary, error)
	GetUserDetail(ctx context.Context, uid string) (*domain.UserDetail, error)
	Analytics(ctx context.Context, filter domain.AnalyticsFilter, fresh bool) (*domain.Analytics, error)
	SimilarAnalyses(ctx context.Context, id uuid.UUID, limit int) ([]domain.SimilarAnalysis, error)
}

// UserReader reads users
type UserReader interface {
	GetByUID(ctx context.Context, uid string) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]*domain.UserSummary, error)
}

// AnalysisReader reads and aggregates selfie analyses
type AnalysisReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SelfieAnalysis, error)
	ListByUID(ctx context.Context, uid string, limit int) ([]*domain.SelfieAnalysis, error)
	Analytics(ctx context.Context, filter domain.AnalyticsFilter) (*domain.Analytics, error)
	FindSimilar(ctx context.Context, reference *domain.SelfieAnalysis, limit int) ([]domain.SimilarAnalysis, error)
}

// EventReader reads user events
type EventReader interface {
	ListByUID(ctx context.Context, uid string, limit int) ([]*domain.Event, error)
}

// AnalyticsCache stores computed aggregates
type AnalyticsCache interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
}
