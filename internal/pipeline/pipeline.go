// Package pipeline orchestrates one selfie analysis: face detection, image
// metrics and heuristic classification, combined under an explicit fallback
// policy. A failing or absent detector degrades the result, never the call.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/domain"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/heuristics"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/imagemetrics"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/provider"
)

const (
	DefaultMinGenderConfidence  = 0.6
	DefaultMinEmotionConfidence = 0.5
)

// RequestContext carries the interaction signals captured at the boundary
type RequestContext struct {
	InteractionDurationMs int64
	HourOfDay             int
	RetakeCount           int
	DevicePlatform        string
}

// Signals combines rc with image metrics into classifier input
func (rc RequestContext) Signals(m imagemetrics.Metrics) heuristics.Signals {
	return heuristics.Signals{
		Brightness:            m.Brightness,
		BackgroundClutter:     m.BackgroundClutter,
		InteractionDurationMs: rc.InteractionDurationMs,
		HourOfDay:             rc.HourOfDay,
		RetakeCount:           rc.RetakeCount,
		DevicePlatform:        rc.DevicePlatform,
	}
}

// Record is the outcome of a pipeline run
type Record struct {
	FaceDetected      bool               `json:"face_detected"`
	FaceCount         int                `json:"face_count"`
	Confidence        float64            `json:"confidence"`
	EstimatedAge      *int               `json:"estimated_age,omitempty"`
	Gender            heuristics.Gender  `json:"gender"`
	GenderSource      string             `json:"gender_source"`
	DominantEmotion   heuristics.Emotion `json:"dominant_emotion"`
	EmotionSource     string             `json:"emotion_source"`
	Expressions       map[string]float64 `json:"expressions,omitempty"`
	Brightness        float64            `json:"brightness"`
	BackgroundClutter float64            `json:"background_clutter"`
	Detector          string             `json:"detector,omitempty"`
}

// Pipeline runs analyses. It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	detector             provider.FaceDetector
	calculator           *imagemetrics.Calculator
	minGenderConfidence  float64
	minEmotionConfidence float64
	detectorTimeout      time.Duration
	logger               *slog.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithMinGenderConfidence sets the confidence a detector gender needs to win
func WithMinGenderConfidence(v float64) Option {
	return func(p *Pipeline) { p.minGenderConfidence = v }
}

// WithMinEmotionConfidence sets the confidence a detector emotion needs to win
func WithMinEmotionConfidence(v float64) Option {
	return func(p *Pipeline) { p.minEmotionConfidence = v }
}

// WithCalculator replaces the default metrics calculator
func WithCalculator(c *imagemetrics.Calculator) Option {
	return func(p *Pipeline) { p.calculator = c }
}

// WithDetectorTimeout bounds each detector call; zero disables the bound
func WithDetectorTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.detectorTimeout = d }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New creates a Pipeline. detector may be nil, in which case every run is heuristic only.
func New(detector provider.FaceDetector, opts ...Option) *Pipeline {
	p := &Pipeline{
		detector:             detector,
		calculator:           imagemetrics.NewCalculator(),
		minGenderConfidence:  DefaultMinGenderConfidence,
		minEmotionConfidence: DefaultMinEmotionConfidence,
		logger:               slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DetectorReady reports whether a detector is configured and initialized
func (p *Pipeline) DetectorReady() bool {
	return p.detector != nil && p.detector.Ready()
}

// Run analyzes image. It always returns a complete Record.
func (p *Pipeline) Run(ctx context.Context, image []byte, rc RequestContext) Record {
	face := p.detect(ctx, image)

	metrics, err := p.calculator.ComputeBytes(image)
	if err != nil {
		p.logger.WarnContext(ctx, "image metrics unavailable, using defaults", "error", err)
	}

	return p.assemble(face, metrics, rc)
}

// RunMetrics is Run with precomputed metrics and no detector call
func (p *Pipeline) RunMetrics(metrics imagemetrics.Metrics, rc RequestContext) Record {
	return p.assemble(nil, metrics, rc)
}

func (p *Pipeline) detect(ctx context.Context, image []byte) (face *provider.FaceAnalysis) {
	if !p.DetectorReady() {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.ErrorContext(ctx, "face detector panicked, falling back to heuristics",
				"detector", p.detector.Name(),
				"panic", r,
			)
			face = nil
		}
	}()

	if p.detectorTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.detectorTimeout)
		defer cancel()
	}

	face, err := p.detector.AnalyzeFace(ctx, image)
	if err != nil {
		p.logger.WarnContext(ctx, "face detector failed, falling back to heuristics",
			"detector", p.detector.Name(),
			"error", err,
		)
		return nil
	}
	return face
}

func (p *Pipeline) assemble(face *provider.FaceAnalysis, metrics imagemetrics.Metrics, rc RequestContext) Record {
	heuristic := heuristics.Classify(rc.Signals(metrics))

	rec := Record{
		Gender:            heuristic.Gender,
		GenderSource:      domain.SourceHeuristic,
		DominantEmotion:   heuristic.DominantEmotion,
		EmotionSource:     domain.SourceHeuristic,
		Brightness:        metrics.Brightness,
		BackgroundClutter: metrics.BackgroundClutter,
	}
	if p.detector != nil {
		rec.Detector = p.detector.Name()
	}

	if face == nil || !face.FaceDetected {
		return rec
	}

	rec.FaceDetected = true
	rec.FaceCount = face.FaceCount
	rec.Confidence = face.Confidence
	rec.EstimatedAge = face.EstimatedAge
	rec.Expressions = face.Expressions

	if g, ok := p.detectorGender(face); ok {
		rec.Gender = g
		rec.GenderSource = domain.SourceDetector
	}
	if e, ok := p.detectorEmotion(face); ok {
		rec.DominantEmotion = e
		rec.EmotionSource = domain.SourceDetector
	}

	return rec
}

func (p *Pipeline) detectorGender(face *provider.FaceAnalysis) (heuristics.Gender, bool) {
	g := heuristics.ParseGender(face.Gender)
	if g == heuristics.GenderUnknown || face.GenderConfidence < p.minGenderConfidence {
		return "", false
	}
	return g, true
}

func (p *Pipeline) detectorEmotion(face *provider.FaceAnalysis) (heuristics.Emotion, bool) {
	e := heuristics.ParseEmotion(face.DominantEmotion)
	if e == heuristics.EmotionUnknown || face.EmotionConfidence < p.minEmotionConfidence {
		return "", false
	}
	return e, true
}
