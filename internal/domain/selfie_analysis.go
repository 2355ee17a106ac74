package domain

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/heuristics"
)

// Label sources
const (
	SourceDetector  = "detector"
	SourceHeuristic = "heuristic"
)

// MaxAge is the upper bound accepted for an estimated age
const MaxAge = 150

// ExpressionDimensions fixes the order of the stored expression vector
var ExpressionDimensions = []heuristics.Emotion{
	heuristics.EmotionHappy,
	heuristics.EmotionSad,
	heuristics.EmotionAngry,
	heuristics.EmotionFearful,
	heuristics.EmotionDisgusted,
	heuristics.EmotionSurprised,
	heuristics.EmotionNeutral,
}

// Device descreve o dispositivo informado pelo cliente
type Device struct {
	Platform string `json:"platform,omitempty"`
	OS       string `json:"os,omitempty"`
	Browser  string `json:"browser,omitempty"`
}

// SelfieAnalysis representa o resultado persistido de uma análise de selfie
type SelfieAnalysis struct {
	ID                  uuid.UUID              `json:"id"`
	UID                 string                 `json:"uid"`
	ImageURL            string                 `json:"image_url,omitempty"`
	FaceDetected        bool                   `json:"face_detected"`
	EstimatedAge        *int                   `json:"estimated_age,omitempty"`
	Gender              heuristics.Gender      `json:"gender"`
	GenderSource        string                 `json:"gender_source"`
	DominantEmotion     heuristics.Emotion     `json:"dominant_emotion"`
	EmotionSource       string                 `json:"emotion_source"`
	Expressions         map[string]float64     `json:"expressions,omitempty"`
	Brightness          float64                `json:"brightness"`
	BackgroundClutter   float64                `json:"background_clutter"`
	IP                  string                 `json:"-"`
	Device              Device                 `json:"device"`
	DeviceInfo          map[string]interface{} `json:"device_info,omitempty"`
	InteractionDuration int64                  `json:"interaction_duration"`
	RetakeCount         int                    `json:"retake_count"`
	HourOfDay           int                    `json:"hour_of_day"`
	CreatedAt           time.Time              `json:"created_at"`
}

// Sanitize coerces every field into its valid range. It is idempotent.
func (a *SelfieAnalysis) Sanitize() {
	a.UID = strings.TrimSpace(a.UID)
	a.Brightness = clamp01(a.Brightness)
	a.BackgroundClutter = clamp01(a.BackgroundClutter)

	if a.EstimatedAge != nil && (*a.EstimatedAge < 0 || *a.EstimatedAge > MaxAge) {
		a.EstimatedAge = nil
	}

	if !a.Gender.Valid() {
		a.Gender = heuristics.GenderUnknown
	}
	if !a.DominantEmotion.Valid() {
		a.DominantEmotion = heuristics.EmotionUnknown
	}
	if a.GenderSource != SourceDetector {
		a.GenderSource = SourceHeuristic
	}
	if a.EmotionSource != SourceDetector {
		a.EmotionSource = SourceHeuristic
	}

	if a.InteractionDuration < 0 {
		a.InteractionDuration = 0
	}
	if a.RetakeCount < 0 {
		a.RetakeCount = 0
	}
	a.HourOfDay = ((a.HourOfDay % 24) + 24) % 24

	if len(a.Expressions) > 0 {
		clean := make(map[string]float64, len(a.Expressions))
		for k, v := range a.Expressions {
			e := heuristics.ParseEmotion(k)
			if e == heuristics.EmotionUnknown {
				continue
			}
			clean[string(e)] = clamp01(v)
		}
		a.Expressions = clean
	}
}

// Validate reports the first constraint that Sanitize cannot repair
func (a *SelfieAnalysis) Validate() error {
	if a.UID == "" {
		return ErrValidationFailed.WithError(errors.New("uid is required"))
	}
	if a.Brightness < 0 || a.Brightness > 1 || math.IsNaN(a.Brightness) {
		return ErrValidationFailed.WithError(errors.New("brightness must be between 0 and 1"))
	}
	if a.BackgroundClutter < 0 || a.BackgroundClutter > 1 || math.IsNaN(a.BackgroundClutter) {
		return ErrValidationFailed.WithError(errors.New("background_clutter must be between 0 and 1"))
	}
	if a.EstimatedAge != nil && (*a.EstimatedAge < 0 || *a.EstimatedAge > MaxAge) {
		return ErrValidationFailed.WithError(errors.New("estimated_age must be between 0 and 150"))
	}
	if !a.Gender.Valid() {
		return ErrValidationFailed.WithError(errors.New("gender must be one of female, male, unknown"))
	}
	if !a.DominantEmotion.Valid() {
		return ErrValidationFailed.WithError(errors.New("dominant_emotion is not a known emotion"))
	}
	if a.InteractionDuration < 0 {
		return ErrValidationFailed.WithError(errors.New("interaction_duration must not be negative"))
	}
	return nil
}

// ExpressionVector returns the expression scores in ExpressionDimensions order
func (a *SelfieAnalysis) ExpressionVector() []float32 {
	vec := make([]float32, len(ExpressionDimensions))
	for i, e := range ExpressionDimensions {
		vec[i] = float32(a.Expressions[string(e)])
	}
	return vec
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SimilarAnalysis is an analysis paired with its expression distance to a reference
type SimilarAnalysis struct {
	Analysis *SelfieAnalysis `json:"analysis"`
	Distance float64         `json:"distance"`
}
