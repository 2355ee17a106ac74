package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/domain"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/pipeline"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/storage"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/ws"
)

// AnalyzeInput is one selfie submission as parsed at the HTTP boundary
type AnalyzeInput struct {
	UID        string
	Image      []byte
	Request    pipeline.RequestContext
	Device     domain.Device
	DeviceInfo map[string]interface{}
	IP         string
}

// AnalyzeResult is returned to the submitting client
type AnalyzeResult struct {
	UID         string                 `json:"uid"`
	NewUser     bool                   `json:"new_user"`
	SelfieCount int                    `json:"selfie_count"`
	Analysis    *domain.SelfieAnalysis `json:"analysis"`
}

type SelfieService struct {
	users     UserRepositoryInterface
	analyses  AnalysisRepositoryInterface
	events    EventRepositoryInterface
	analyzer  Analyzer
	store     ImageStore
	publisher Publisher
	logger    *slog.Logger
}

func NewSelfieService(
	users UserRepositoryInterface,
	analyses AnalysisRepositoryInterface,
	events EventRepositoryInterface,
	analyzer Analyzer,
	logger *slog.Logger,
) *SelfieService {
	return &SelfieService{
		users:    users,
		analyses: analyses,
		events:   events,
		analyzer: analyzer,
		logger:   logger,
	}
}

// WithStore enables image persistence
func (s *SelfieService) WithStore(store ImageStore) *SelfieService {
	s.store = store
	return s
}

// WithPublisher enables live feed notifications
func (s *SelfieService) WithPublisher(p Publisher) *SelfieService {
	s.publisher = p
	return s
}

// Analyze runs the pipeline on a selfie and persists the result. An empty
// UID registers a new user; a given UID must exist.
func (s *SelfieService) Analyze(ctx context.Context, in AnalyzeInput) (*AnalyzeResult, error) {
	if len(in.Image) == 0 {
		return nil, domain.ErrInvalidImage
	}

	uid, created, err := s.resolveUser(ctx, in.UID, in.DeviceInfo)
	if err != nil {
		return nil, err
	}

	rec := s.analyzer.Run(ctx, in.Image, in.Request)

	analysis := &domain.SelfieAnalysis{
		ID:                  uuid.New(),
		UID:                 uid,
		FaceDetected:        rec.FaceDetected,
		EstimatedAge:        rec.EstimatedAge,
		Gender:              rec.Gender,
		GenderSource:        rec.GenderSource,
		DominantEmotion:     rec.DominantEmotion,
		EmotionSource:       rec.EmotionSource,
		Expressions:         rec.Expressions,
		Brightness:          rec.Brightness,
		BackgroundClutter:   rec.BackgroundClutter,
		IP:                  in.IP,
		Device:              in.Device,
		DeviceInfo:          in.DeviceInfo,
		InteractionDuration: in.Request.InteractionDurationMs,
		RetakeCount:         in.Request.RetakeCount,
		HourOfDay:           in.Request.HourOfDay,
	}

	analysis.ImageURL = s.storeImage(ctx, analysis.UID, analysis.ID, in.Image)

	analysis.Sanitize()
	if err := analysis.Validate(); err != nil {
		return nil, err
	}

	count, err := s.analyses.Create(ctx, analysis)
	if err != nil {
		return nil, fmt.Errorf("user %s: save analysis: %w", uid, err)
	}

	s.recordEvent(ctx, &domain.Event{
		UID:    uid,
		Type:   domain.EventSelfieUpload,
		Target: analysis.ID.String(),
		Data: map[string]interface{}{
			"image_url": analysis.ImageURL,
			"size":      len(in.Image),
		},
	})
	s.recordEvent(ctx, &domain.Event{
		UID:    uid,
		Type:   domain.EventAnalysisComplete,
		Target: analysis.ID.String(),
		Data: map[string]interface{}{
			"face_detected":    analysis.FaceDetected,
			"gender":           analysis.Gender,
			"dominant_emotion": analysis.DominantEmotion,
			"detector":         rec.Detector,
		},
	})

	if s.publisher != nil {
		s.publisher.Publish(uid, ws.EventAnalysisCompleted, analysis)
	}

	s.logger.InfoContext(ctx, "selfie analyzed",
		"uid", uid,
		"analysis_id", analysis.ID,
		"face_detected", analysis.FaceDetected,
		"gender_source", analysis.GenderSource,
		"emotion_source", analysis.EmotionSource,
	)

	return &AnalyzeResult{
		UID:         uid,
		NewUser:     created,
		SelfieCount: count,
		Analysis:    analysis,
	}, nil
}

func (s *SelfieService) resolveUser(ctx context.Context, uid string, deviceInfo map[string]interface{}) (string, bool, error) {
	if uid != "" {
		if _, err := s.users.GetByUID(ctx, uid); err != nil {
			return "", false, err
		}
		if err := s.users.Touch(ctx, uid, deviceInfo); err != nil {
			return "", false, fmt.Errorf("user %s: touch: %w", uid, err)
		}
		return uid, false, nil
	}

	user := domain.NewUser(deviceInfo)
	if err := s.users.Create(ctx, user); err != nil {
		return "", false, fmt.Errorf("create user: %w", err)
	}
	if s.publisher != nil {
		s.publisher.Publish(user.UID, ws.EventUserCreated, user)
	}
	return user.UID, true, nil
}

// storeImage saves the upload and returns its URL, or "" when storage is
// disabled or fails
func (s *SelfieService) storeImage(ctx context.Context, uid string, id uuid.UUID, image []byte) string {
	if s.store == nil {
		return ""
	}

	key, contentType := storage.ObjectKey(uid, id, image)
	url, err := s.store.Save(ctx, key, image, contentType)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to store selfie image", "uid", uid, "key", key, "error", err)
		return ""
	}
	return url
}

func (s *SelfieService) recordEvent(ctx context.Context, event *domain.Event) {
	if err := s.events.Create(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to record event",
			"uid", event.UID,
			"type", event.Type,
			"error", err,
		)
	}
}
