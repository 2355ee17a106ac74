package deepface

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/heuristics"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/provider"
)

const (
	// minFaceArea is the minimum face area (in pixels²) for reliable detection
	minFaceArea = 2500 // 50x50 pixels
	// maxFaceArea is used for confidence scaling
	maxFaceArea = 250000 // 500x500 pixels

	maxAge = 150
)

// emotionLabels maps DeepFace emotion keys onto the emotion label set
var emotionLabels = map[string]heuristics.Emotion{
	"angry":    heuristics.EmotionAngry,
	"disgust":  heuristics.EmotionDisgusted,
	"fear":     heuristics.EmotionFearful,
	"happy":    heuristics.EmotionHappy,
	"sad":      heuristics.EmotionSad,
	"surprise": heuristics.EmotionSurprised,
	"neutral":  heuristics.EmotionNeutral,
}

// genderLabels maps DeepFace gender keys onto the gender label set
var genderLabels = map[string]heuristics.Gender{
	"woman": heuristics.GenderFemale,
	"man":   heuristics.GenderMale,
}

// Provider implements provider.FaceDetector using DeepFace API
type Provider struct {
	client *Client
	ready  atomic.Bool
}

// NewProvider creates a new DeepFace provider. It is not ready until Init succeeds.
func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
	}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "deepface"
}

// Init verifies the DeepFace service is reachable
func (p *Provider) Init(ctx context.Context) error {
	if err := p.client.Ping(ctx); err != nil {
		p.ready.Store(false)
		return fmt.Errorf("%w: %v", ErrDeepFaceUnavailable, err)
	}
	p.ready.Store(true)
	return nil
}

// Ready reports whether Init succeeded
func (p *Provider) Ready() bool {
	return p.ready.Load()
}

// AnalyzeFace estimates age, gender and expressions of the largest face
func (p *Provider) AnalyzeFace(ctx context.Context, image []byte) (*provider.FaceAnalysis, error) {
	if !p.Ready() {
		return nil, provider.ErrNotReady
	}
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}

	resp, err := p.client.Analyze(ctx, base64.StdEncoding.EncodeToString(image))
	if err != nil {
		if isNoFaceError(err) {
			return provider.NoFace(), nil
		}
		return nil, fmt.Errorf("analyze face: %w", err)
	}

	return toFaceAnalysis(resp), nil
}

// toFaceAnalysis converts the DeepFace answer, keeping the largest detected face
func toFaceAnalysis(resp *AnalyzeResponse) *provider.FaceAnalysis {
	var (
		best     *AnalyzeResult
		bestArea int
		count    int
	)
	for i := range resp.Results {
		r := &resp.Results[i]
		// with enforce_detection disabled DeepFace reports the whole frame at zero confidence
		if r.FaceConfidence <= 0 {
			continue
		}
		count++
		if area := r.Region.W * r.Region.H; best == nil || area > bestArea {
			best, bestArea = r, area
		}
	}

	if best == nil {
		return provider.NoFace()
	}

	analysis := &provider.FaceAnalysis{
		FaceDetected: true,
		FaceCount:    count,
		Confidence:   calculateConfidence(float64(bestArea), best.FaceConfidence),
		EstimatedAge: estimateAge(best.Age),
		BoundingBox: &provider.BoundingBox{
			X:      float64(best.Region.X),
			Y:      float64(best.Region.Y),
			Width:  float64(best.Region.W),
			Height: float64(best.Region.H),
		},
	}

	gender, genderConfidence := mapGender(best.Gender)
	analysis.Gender = string(gender)
	analysis.GenderConfidence = genderConfidence

	analysis.Expressions = mapExpressions(best.Emotion)
	dominant, score := provider.DominantExpression(analysis.Expressions)
	analysis.DominantEmotion = dominant
	analysis.EmotionConfidence = score

	return analysis
}

// calculateConfidence prefers the detector score and falls back to face size
func calculateConfidence(faceArea, faceConfidence float64) float64 {
	if faceConfidence > 0 {
		return math.Min(1, faceConfidence)
	}
	if faceArea < minFaceArea {
		return 0.5 // Low confidence for very small faces
	}
	// Scale from 0.7 to 0.99 based on face area
	normalized := math.Min(1.0, (faceArea-minFaceArea)/(maxFaceArea-minFaceArea))
	return 0.7 + (normalized * 0.29)
}

func estimateAge(age float64) *int {
	if age <= 0 || math.IsNaN(age) {
		return nil
	}
	return provider.IntPtr(int(math.Min(maxAge, math.Round(age))))
}

// mapGender returns the highest scoring gender and its share in [0,1]
func mapGender(scores map[string]float64) (heuristics.Gender, float64) {
	gender, best := heuristics.GenderUnknown, 0.0
	for key, pct := range scores {
		label, ok := genderLabels[strings.ToLower(key)]
		if !ok {
			continue
		}
		if share := normalizePercent(pct); share > best {
			gender, best = label, share
		}
	}
	return gender, best
}

func mapExpressions(scores map[string]float64) map[string]float64 {
	if len(scores) == 0 {
		return nil
	}
	expressions := make(map[string]float64, len(scores))
	for key, pct := range scores {
		if label, ok := emotionLabels[strings.ToLower(key)]; ok {
			expressions[string(label)] = normalizePercent(pct)
		}
	}
	return expressions
}

// normalizePercent converts a DeepFace percentage to [0,1]
func normalizePercent(pct float64) float64 {
	if math.IsNaN(pct) || pct <= 0 {
		return 0
	}
	return math.Min(1, pct/100)
}

// Ensure Provider implements provider.FaceDetector
var _ provider.FaceDetector = (*Provider)(nil)
