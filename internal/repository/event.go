package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/domain"
)

// DefaultEventLimit caps the events returned for one user
const DefaultEventLimit = 50

type EventRepository struct {
	pool PgxPool
}

func NewEventRepository(pool PgxPool) *EventRepository {
	return &EventRepository{pool: pool}
}

// Create stores the event with a server-side timestamp
func (r *EventRepository) Create(ctx context.Context, event *domain.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	query := `
		INSERT INTO events (id, uid, type, target, data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING timestamp
	`

	err := r.pool.QueryRow(ctx, query,
		event.ID,
		event.UID,
		event.Type,
		nullString(event.Target),
		event.Data,
	).Scan(&event.Timestamp)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}

	return nil
}

// ListByUID returns the user's events newest first
func (r *EventRepository) ListByUID(ctx context.Context, uid string, limit int) ([]*domain.Event, error) {
	if limit <= 0 || limit > DefaultEventLimit {
		limit = DefaultEventLimit
	}

	query := `
		SELECT id, uid, type, target, data, timestamp
		FROM events
		WHERE uid = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, uid, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		var (
			e      domain.Event
			target *string
		)
		if err := rows.Scan(&e.ID, &e.UID, &e.Type, &target, &e.Data, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if target != nil {
			e.Target = *target
		}
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}
