package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/domain"
)

// PgxPool is the subset of *pgxpool.Pool the repositories use.
// pgxmock.PgxPoolIface satisfies it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// UserRepositoryInterface defines operations for user data access
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *domain.User) error
	GetByUID(ctx context.Context, uid string) (*domain.User, error)
	Touch(ctx context.Context, uid string, deviceInfo map[string]interface{}) error
	List(ctx context.Context, limit, offset int) ([]*domain.UserSummary, error)
}

// AnalysisRepositoryInterface defines operations for selfie analysis data access
type AnalysisRepositoryInterface interface {
	// Create stores the analysis and returns the user's recomputed selfie count
	Create(ctx context.Context, analysis *domain.SelfieAnalysis) (int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SelfieAnalysis, error)
	ListByUID(ctx context.Context, uid string, limit int) ([]*domain.SelfieAnalysis, error)
	Analytics(ctx context.Context, filter domain.AnalyticsFilter) (*domain.Analytics, error)
	FindSimilar(ctx context.Context, reference *domain.SelfieAnalysis, limit int) ([]domain.SimilarAnalysis, error)
}

// EventRepositoryInterface defines operations for event data access
type EventRepositoryInterface interface {
	Create(ctx context.Context, event *domain.Event) error
	ListByUID(ctx context.Context, uid string, limit int) ([]*domain.Event, error)
}
