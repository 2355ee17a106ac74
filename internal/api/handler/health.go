package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Version is reported by the health endpoints
const Version = "0.1.0"

// Pinger checks database connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadinessChecker reports whether the face detector can serve requests
type ReadinessChecker interface {
	DetectorReady() bool
}

type HealthHandler struct {
	db       Pinger
	detector ReadinessChecker
	timeout  time.Duration
}

func NewHealthHandler(db Pinger, detector ReadinessChecker) *HealthHandler {
	return &HealthHandler{db: db, detector: detector, timeout: 2 * time.Second}
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// ReadyResponse breaks readiness down per dependency
type ReadyResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Detector string `json:"detector"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

// Ready fails only when the database is unreachable; a missing detector
// degrades analyses to heuristics
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	resp := ReadyResponse{Status: "ready", Database: "ok", Detector: "ready"}

	if h.detector == nil || !h.detector.DetectorReady() {
		resp.Detector = "unavailable"
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			resp.Status = "unavailable"
			resp.Database = "unreachable"
			return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
		}
	}

	return c.JSON(resp)
}
