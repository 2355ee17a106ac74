package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/domain"
)

type UserRepository struct {
	pool PgxPool
}

func NewUserRepository(pool PgxPool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (uid, created_at, last_seen, device_info, selfie_count)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		user.UID,
		user.CreatedAt,
		user.LastSeen,
		user.DeviceInfo,
		user.SelfieCount,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrValidationFailed.WithMessage("user already exists").WithError(err)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *UserRepository) GetByUID(ctx context.Context, uid string) (*domain.User, error) {
	query := `
		SELECT uid, created_at, last_seen, device_info, selfie_count
		FROM users
		WHERE uid = $1
	`

	var user domain.User
	err := r.pool.QueryRow(ctx, query, uid).Scan(
		&user.UID,
		&user.CreatedAt,
		&user.LastSeen,
		&user.DeviceInfo,
		&user.SelfieCount,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by uid: %w", err)
	}

	return &user, nil
}

// Touch bumps last_seen and replaces device_info when a new one is given
func (r *UserRepository) Touch(ctx context.Context, uid string, deviceInfo map[string]interface{}) error {
	query := `
		UPDATE users
		SET last_seen = NOW(), device_info = COALESCE($2, device_info)
		WHERE uid = $1
	`

	result, err := r.pool.Exec(ctx, query, uid, deviceInfo)
	if err != nil {
		return fmt.Errorf("touch user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// List returns users newest first with their latest analysis
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*domain.UserSummary, error) {
	query := `
		SELECT u.uid, u.created_at, u.last_seen, u.device_info, u.selfie_count,
		       la.dominant_emotion, la.created_at
		FROM users u
		LEFT JOIN LATERAL (
			SELECT dominant_emotion, created_at
			FROM selfie_analyses
			WHERE uid = u.uid
			ORDER BY created_at DESC
			LIMIT 1
		) la ON TRUE
		ORDER BY u.created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]*domain.UserSummary, 0)
	for rows.Next() {
		var (
			s              domain.UserSummary
			lastEmotion    *string
			lastAnalysisAt *time.Time
		)
		if err := rows.Scan(
			&s.UID,
			&s.CreatedAt,
			&s.LastSeen,
			&s.DeviceInfo,
			&s.SelfieCount,
			&lastEmotion,
			&lastAnalysisAt,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		if lastEmotion != nil {
			s.LastEmotion = *lastEmotion
		}
		s.LastAnalysisAt = lastAnalysisAt
		users = append(users, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}
