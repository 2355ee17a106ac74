package service

import (
	"context"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/domain"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/pipeline"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/ws"
)

type UserRepositoryInterface interface {
	Create(ctx context.Context, user *domain.User) error
	GetByUID(ctx context.Context, uid string) (*domain.User, error)
	Touch(ctx context.Context, uid string, deviceInfo map[string]interface{}) error
}

type AnalysisRepositoryInterface interface {
	Create(ctx context.Context, analysis *domain.SelfieAnalysis) (int, error)
}

type EventRepositoryInterface interface {
	Create(ctx context.Context, event *domain.Event) error
}

// Analyzer runs the analysis pipeline
type Analyzer interface {
	Run(ctx context.Context, image []byte, rc pipeline.RequestContext) pipeline.Record
}

// ImageStore persists uploaded images
type ImageStore interface {
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Publisher pushes events to the admin live feed
type Publisher interface {
	Publish(uid string, eventType ws.EventType, data interface{})
}
