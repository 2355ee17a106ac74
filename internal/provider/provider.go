package provider

import (
	"context"
	"errors"
	"sort"
)

// ErrNotReady is returned by AnalyzeFace when Init has not succeeded
var ErrNotReady = errors.New("face detector not ready")

// FaceDetector is the face detection and attribute estimation capability.
// Implementations are constructed explicitly and must be initialized with Init
// before use; a failed Init leaves the detector not ready instead of panicking.
type FaceDetector interface {
	// Name identifies the backend ("deepface", "rekognition", "mock")
	Name() string

	// Init loads models or verifies connectivity and reports whether the
	// detector can serve requests
	Init(ctx context.Context) error

	// Ready reports whether the last Init succeeded
	Ready() bool

	// AnalyzeFace detects the most prominent face and estimates its attributes.
	// An image without a face is not an error: FaceDetected is false.
	AnalyzeFace(ctx context.Context, image []byte) (*FaceAnalysis, error)
}

// FaceAnalysis is the detector output for a single image
type FaceAnalysis struct {
	FaceDetected      bool               `json:"face_detected"`
	FaceCount         int                `json:"face_count"`
	Confidence        float64            `json:"confidence"`
	EstimatedAge      *int               `json:"estimated_age,omitempty"`
	Gender            string             `json:"gender,omitempty"`
	GenderConfidence  float64            `json:"gender_confidence"`
	Expressions       map[string]float64 `json:"expressions,omitempty"`
	DominantEmotion   string             `json:"dominant_emotion,omitempty"`
	EmotionConfidence float64            `json:"emotion_confidence"`
	BoundingBox       *BoundingBox       `json:"bounding_box,omitempty"`
}

// NoFace returns the analysis for an image without a detectable face
func NoFace() *FaceAnalysis {
	return &FaceAnalysis{FaceDetected: false}
}

// BoundingBox represents the face area in the image
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DominantExpression returns the highest scoring expression. Ties resolve to
// the alphabetically first name so the result does not depend on map order.
func DominantExpression(expressions map[string]float64) (string, float64) {
	if len(expressions) == 0 {
		return "", 0
	}

	names := make([]string, 0, len(expressions))
	for name := range expressions {
		names = append(names, name)
	}
	sort.Strings(names)

	best := names[0]
	for _, name := range names[1:] {
		if expressions[name] > expressions[best] {
			best = name
		}
	}

	return best, expressions[best]
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}
