package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/domain"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/heuristics"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/imagemetrics"
)

// AnalyzeHandler exposes the metrics calculator and the heuristic classifier
// without touching persistence
type AnalyzeHandler struct {
	calculator *imagemetrics.Calculator
	maxBytes   int
}

func NewAnalyzeHandler(calculator *imagemetrics.Calculator, maxBytes int) *AnalyzeHandler {
	if calculator == nil {
		calculator = imagemetrics.NewCalculator()
	}
	return &AnalyzeHandler{calculator: calculator, maxBytes: maxBytes}
}

// ClassifyResponse is the result of POST /api/analyze/classify
type ClassifyResponse struct {
	Gender          heuristics.Gender  `json:"gender"`
	DominantEmotion heuristics.Emotion `json:"dominant_emotion"`
	GenderScore     float64            `json:"gender_score"`
	EmotionRule     string             `json:"emotion_rule"`
}

// Metrics POST /api/analyze/metrics - brightness and clutter of an upload
func (h *AnalyzeHandler) Metrics(c *fiber.Ctx) error {
	image, err := extractImage(c, h.maxBytes)
	if err != nil {
		return fmt.Errorf("image metrics: %w", err)
	}

	metrics, err := h.calculator.ComputeBytes(image)
	if err != nil {
		return domain.ErrInvalidImage.WithError(err)
	}

	return c.JSON(metrics)
}

// Classify POST /api/analyze/classify - labels for a set of signals
func (h *AnalyzeHandler) Classify(c *fiber.Ctx) error {
	var signals heuristics.Signals
	if err := c.BodyParser(&signals); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}
	if signals.InteractionDurationMs < 0 || signals.RetakeCount < 0 {
		return domain.ErrValidationFailed.WithMessage("interaction_duration_ms and retake_count must not be negative")
	}

	result := heuristics.Classify(signals)
	_, rule := heuristics.MatchEmotion(signals)

	return c.JSON(ClassifyResponse{
		Gender:          result.Gender,
		DominantEmotion: result.DominantEmotion,
		GenderScore:     heuristics.GenderScore(signals),
		EmotionRule:     rule,
	})
}
