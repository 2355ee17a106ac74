package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/domain"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/ws"
)

type EventService struct {
	events    EventRepositoryInterface
	publisher Publisher
	logger    *slog.Logger
}

func NewEventService(events EventRepositoryInterface, logger *slog.Logger) *EventService {
	return &EventService{events: events, logger: logger}
}

// WithPublisher enables live feed notifications
func (s *EventService) WithPublisher(p Publisher) *EventService {
	s.publisher = p
	return s
}

// Record validates and stores a client event. The timestamp is set by the server.
func (s *EventService) Record(ctx context.Context, event *domain.Event) error {
	event.UID = strings.TrimSpace(event.UID)
	event.Type = strings.TrimSpace(event.Type)

	if err := event.Validate(); err != nil {
		return err
	}

	if err := s.events.Create(ctx, event); err != nil {
		return fmt.Errorf("user %s: record event: %w", event.UID, err)
	}

	if s.publisher != nil {
		s.publisher.Publish(event.UID, ws.EventRecorded, event)
	}

	s.logger.DebugContext(ctx, "event recorded", "uid", event.UID, "type", event.Type)
	return nil
}
