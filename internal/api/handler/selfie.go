package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/domain"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/pipeline"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/service"
)

// SelfieAnalyzer analyzes and persists a selfie
type SelfieAnalyzer interface {
	Analyze(ctx context.Context, in service.AnalyzeInput) (*service.AnalyzeResult, error)
}

// EventRecorder stores a client event
type EventRecorder interface {
	Record(ctx context.Context, event *domain.Event) error
}

// SelfieHandler handles the public selfie endpoints
type SelfieHandler struct {
	analyzer SelfieAnalyzer
	events   EventRecorder
	maxBytes int
	now      func() time.Time
	logger   *slog.Logger
}

func NewSelfieHandler(analyzer SelfieAnalyzer, events EventRecorder, maxBytes int, logger *slog.Logger) *SelfieHandler {
	return &SelfieHandler{
		analyzer: analyzer,
		events:   events,
		maxBytes: maxBytes,
		now:      time.Now,
		logger:   logger,
	}
}

// EventRequest is the body of POST /api/selfie/event
type EventRequest struct {
	UID      string                 `json:"uid"`
	Type     string                 `json:"type"`
	Target   string                 `json:"target"`
	Metadata map[string]interface{} `json:"metadata"`
}

// EventResponse acknowledges a stored event
type EventResponse struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// Analyze POST /api/selfie/analyze - analyze a selfie upload
func (h *SelfieHandler) Analyze(c *fiber.Ctx) error {
	image, err := extractImage(c, h.maxBytes)
	if err != nil {
		return fmt.Errorf("analyze selfie: %w", err)
	}

	rc, err := h.requestContext(c)
	if err != nil {
		return err
	}

	deviceInfo, err := parseDeviceInfo(c.FormValue("device_info"))
	if err != nil {
		return err
	}

	result, err := h.analyzer.Analyze(c.UserContext(), service.AnalyzeInput{
		UID:     strings.TrimSpace(c.FormValue("uid")),
		Image:   image,
		Request: rc,
		Device: domain.Device{
			Platform: rc.DevicePlatform,
			OS:       strings.TrimSpace(c.FormValue("device_os")),
			Browser:  strings.TrimSpace(c.FormValue("device_browser")),
		},
		DeviceInfo: deviceInfo,
		IP:         c.IP(),
	})
	if err != nil {
		return err
	}

	status := fiber.StatusOK
	if result.NewUser {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(result)
}

// Event POST /api/selfie/event - record a client interaction
func (h *SelfieHandler) Event(c *fiber.Ctx) error {
	var req EventRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	event := &domain.Event{
		UID:    req.UID,
		Type:   req.Type,
		Target: strings.TrimSpace(req.Target),
		Data:   req.Metadata,
	}
	if err := h.events.Record(c.UserContext(), event); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(EventResponse{
		ID:        event.ID.String(),
		Timestamp: event.Timestamp,
	})
}

func (h *SelfieHandler) requestContext(c *fiber.Ctx) (pipeline.RequestContext, error) {
	rc := pipeline.RequestContext{
		HourOfDay:      h.now().Hour(),
		DevicePlatform: strings.ToLower(strings.TrimSpace(c.FormValue("device_platform"))),
	}

	var err error
	if rc.InteractionDurationMs, err = formInt64(c, "interaction_duration_ms"); err != nil {
		return rc, err
	}

	retakes, err := formInt64(c, "retake_count")
	if err != nil {
		return rc, err
	}
	rc.RetakeCount = int(retakes)

	if v := strings.TrimSpace(c.FormValue("hour_of_day")); v != "" {
		hour, err := strconv.Atoi(v)
		if err != nil || hour < 0 || hour > 23 {
			return rc, domain.ErrBadRequest.WithError(fmt.Errorf("hour_of_day must be 0-23, got %q", v))
		}
		rc.HourOfDay = hour
	}

	return rc, nil
}

// formInt64 parses an optional integer form field; absent means zero
func formInt64(c *fiber.Ctx, name string) (int64, error) {
	v := strings.TrimSpace(c.FormValue(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, domain.ErrBadRequest.WithError(fmt.Errorf("%s must be an integer", name))
	}
	return n, nil
}

func parseDeviceInfo(raw string) (map[string]interface{}, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var info map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return nil, domain.ErrBadRequest.WithError(fmt.Errorf("device_info must be a JSON object: %w", err))
	}
	return info, nil
}
