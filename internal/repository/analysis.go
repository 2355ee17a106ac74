package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/domain"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/heuristics"
)

const analysisColumns = `id, uid, image_url, face_detected, estimated_age, gender, gender_source,
		dominant_emotion, emotion_source, expressions, brightness, background_clutter, ip,
		device, device_info, interaction_duration, retake_count, hour_of_day, created_at`

type AnalysisRepository struct {
	pool PgxPool
}

func NewAnalysisRepository(pool PgxPool) *AnalysisRepository {
	return &AnalysisRepository{pool: pool}
}

// Create inserts the analysis and recomputes the owner's selfie_count in one transaction
func (r *AnalysisRepository) Create(ctx context.Context, a *domain.SelfieAnalysis) (int, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	vector := expressionVector(a)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	insert := `
		INSERT INTO selfie_analyses (
			id, uid, image_url, face_detected, estimated_age, gender, gender_source,
			dominant_emotion, emotion_source, expressions, expression_vector, brightness,
			background_clutter, ip, device, device_info, interaction_duration, retake_count,
			hour_of_day
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING created_at
	`

	err = tx.QueryRow(ctx, insert,
		a.ID,
		a.UID,
		nullString(a.ImageURL),
		a.FaceDetected,
		a.EstimatedAge,
		string(a.Gender),
		a.GenderSource,
		string(a.DominantEmotion),
		a.EmotionSource,
		a.Expressions,
		vector,
		a.Brightness,
		a.BackgroundClutter,
		nullString(a.IP),
		a.Device,
		a.DeviceInfo,
		a.InteractionDuration,
		a.RetakeCount,
		a.HourOfDay,
	).Scan(&a.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("create analysis: %w", err)
	}

	recount := `
		UPDATE users
		SET selfie_count = (SELECT COUNT(*) FROM selfie_analyses WHERE uid = $1),
		    last_seen = NOW()
		WHERE uid = $1
		RETURNING selfie_count
	`

	var count int
	err = tx.QueryRow(ctx, recount, a.UID).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("update selfie count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit analysis: %w", err)
	}

	return count, nil
}

func (r *AnalysisRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SelfieAnalysis, error) {
	query := `SELECT ` + analysisColumns + `
		FROM selfie_analyses
		WHERE id = $1
	`

	a, err := scanAnalysis(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAnalysisNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis by id: %w", err)
	}

	return a, nil
}

// ListByUID returns the user's analyses newest first
func (r *AnalysisRepository) ListByUID(ctx context.Context, uid string, limit int) ([]*domain.SelfieAnalysis, error) {
	query := `SELECT ` + analysisColumns + `
		FROM selfie_analyses
		WHERE uid = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, uid, limit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	analyses := make([]*domain.SelfieAnalysis, 0)
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		analyses = append(analyses, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}

	return analyses, nil
}

// Analytics aggregates the analyses matching filter. Averages skip missing ages.
func (r *AnalysisRepository) Analytics(ctx context.Context, filter domain.AnalyticsFilter) (*domain.Analytics, error) {
	where, args := analyticsWhere(filter)

	query := `
		WITH filtered AS (
			SELECT estimated_age, gender, dominant_emotion, brightness, background_clutter
			FROM selfie_analyses
			` + where + `
		)
		SELECT
			(SELECT COUNT(*) FROM filtered),
			(SELECT COALESCE(AVG(estimated_age), 0)::float8 FROM filtered),
			(SELECT COALESCE(AVG(brightness), 0)::float8 FROM filtered),
			(SELECT COALESCE(AVG(background_clutter), 0)::float8 FROM filtered),
			(SELECT COALESCE(jsonb_object_agg(dominant_emotion, n), '{}'::jsonb)
			 FROM (SELECT dominant_emotion, COUNT(*) AS n FROM filtered GROUP BY dominant_emotion) e),
			(SELECT COALESCE(jsonb_object_agg(gender, n), '{}'::jsonb)
			 FROM (SELECT gender, COUNT(*) AS n FROM filtered GROUP BY gender) g)
	`

	out := domain.EmptyAnalytics()
	var emotions, genders map[string]int64
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&out.TotalAnalyses,
		&out.AverageAge,
		&out.AverageBrightness,
		&out.AverageClutter,
		&emotions,
		&genders,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate analytics: %w", err)
	}

	if out.TotalAnalyses == 0 {
		return domain.EmptyAnalytics(), nil
	}

	out.AverageAge = round(out.AverageAge, 1)
	out.AverageBrightness = round(out.AverageBrightness, 2)
	out.AverageClutter = round(out.AverageClutter, 2)
	for k, v := range emotions {
		out.EmotionBreakdown[k] = v
	}
	for k, v := range genders {
		out.GenderBreakdown[k] = v
	}

	return out, nil
}

// FindSimilar returns the analyses whose expression vectors are closest to
// reference by cosine distance. A reference without expressions has no neighbours.
func (r *AnalysisRepository) FindSimilar(ctx context.Context, reference *domain.SelfieAnalysis, limit int) ([]domain.SimilarAnalysis, error) {
	vector := expressionVector(reference)
	if vector == nil {
		return []domain.SimilarAnalysis{}, nil
	}

	query := `SELECT ` + analysisColumns + `, expression_vector <=> $1 AS distance
		FROM selfie_analyses
		WHERE id <> $2 AND expression_vector IS NOT NULL
		ORDER BY expression_vector <=> $1
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, *vector, reference.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("find similar analyses: %w", err)
	}
	defer rows.Close()

	matches := make([]domain.SimilarAnalysis, 0, limit)
	for rows.Next() {
		var distance float64
		a, err := scanAnalysis(rows, &distance)
		if err != nil {
			return nil, fmt.Errorf("scan similar analysis: %w", err)
		}
		matches = append(matches, domain.SimilarAnalysis{Analysis: a, Distance: round(distance, 4)})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate similar analyses: %w", err)
	}

	return matches, nil
}

func analyticsWhere(f domain.AnalyticsFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if f.MinAge != nil && f.MaxAge != nil {
		args = append(args, *f.MinAge, *f.MaxAge)
		conds = append(conds, fmt.Sprintf("estimated_age BETWEEN $%d AND $%d", len(args)-1, len(args)))
	}
	if f.Emotion != "" {
		args = append(args, string(f.Emotion))
		conds = append(conds, fmt.Sprintf("dominant_emotion = $%d", len(args)))
	}
	if f.Days > 0 {
		args = append(args, f.Days)
		conds = append(conds, fmt.Sprintf("created_at >= NOW() - make_interval(days => $%d)", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// scanAnalysis reads analysisColumns, followed by any extra destinations
func scanAnalysis(row pgx.Row, extra ...any) (*domain.SelfieAnalysis, error) {
	var (
		a        domain.SelfieAnalysis
		imageURL *string
		ip       *string
		gender   string
		emotion  string
		device   *domain.Device
	)

	dest := []any{
		&a.ID,
		&a.UID,
		&imageURL,
		&a.FaceDetected,
		&a.EstimatedAge,
		&gender,
		&a.GenderSource,
		&emotion,
		&a.EmotionSource,
		&a.Expressions,
		&a.Brightness,
		&a.BackgroundClutter,
		&ip,
		&device,
		&a.DeviceInfo,
		&a.InteractionDuration,
		&a.RetakeCount,
		&a.HourOfDay,
		&a.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	a.Gender = heuristics.Gender(gender)
	a.DominantEmotion = heuristics.Emotion(emotion)
	if imageURL != nil {
		a.ImageURL = *imageURL
	}
	if ip != nil {
		a.IP = *ip
	}
	if device != nil {
		a.Device = *device
	}

	return &a, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// expressionVector returns nil when no score falls on a vector dimension.
// Cosine distance is undefined for the zero vector.
func expressionVector(a *domain.SelfieAnalysis) *pgvector.Vector {
	values := a.ExpressionVector()
	for _, v := range values {
		if v != 0 {
			vec := pgvector.NewVector(values)
			return &vec
		}
	}
	return nil
}
