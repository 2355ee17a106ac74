package rekognition

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/heuristics"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/provider"
)

const (
	// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
	maxImageSize = 5 * 1024 * 1024
	// minImageSize is the minimum image size for valid processing
	minImageSize = 100
)

var emotionLabels = map[types.EmotionName]heuristics.Emotion{
	types.EmotionNameHappy:     heuristics.EmotionHappy,
	types.EmotionNameSad:       heuristics.EmotionSad,
	types.EmotionNameAngry:     heuristics.EmotionAngry,
	types.EmotionNameFear:      heuristics.EmotionFearful,
	types.EmotionNameDisgusted: heuristics.EmotionDisgusted,
	types.EmotionNameSurprised: heuristics.EmotionSurprised,
	types.EmotionNameCalm:      heuristics.EmotionNeutral,
	types.EmotionNameConfused:  heuristics.EmotionAnxious,
}

// Provider implements the provider.FaceDetector interface using AWS Rekognition
type Provider struct {
	client *Client
	logger *slog.Logger
	ready  atomic.Bool
}

// ProviderOption defines optional configuration for Provider
type ProviderOption func(*Provider)

// WithLogger sets the logger used for detection diagnostics
func WithLogger(logger *slog.Logger) ProviderOption {
	return func(p *Provider) {
		p.logger = logger
	}
}

// Ensure Provider implements provider.FaceDetector interface at compile time
var _ provider.FaceDetector = (*Provider)(nil)

// NewProvider creates a new Rekognition provider. It is not ready until Init succeeds.
func NewProvider(ctx context.Context, cfg Config, opts ...ProviderOption) (*Provider, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}

	return NewProviderWithClient(client, opts...), nil
}

// NewProviderWithClient creates a provider around an existing client
func NewProviderWithClient(client *Client, opts ...ProviderOption) *Provider {
	p := &Provider{
		client: client,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "rekognition"
}

// Init verifies credentials and region with a minimal API call
func (p *Provider) Init(ctx context.Context) error {
	if err := p.client.CheckAccess(ctx); err != nil {
		p.ready.Store(false)
		return err
	}
	p.ready.Store(true)
	return nil
}

// Ready reports whether Init succeeded
func (p *Provider) Ready() bool {
	return p.ready.Load()
}

// validateImage checks if image data is valid for Rekognition processing
func validateImage(image []byte) error {
	if len(image) == 0 {
		return ErrInvalidImage
	}
	if len(image) < minImageSize {
		return fmt.Errorf("%w: image too small (%d bytes, minimum %d)", ErrInvalidImage, len(image), minImageSize)
	}
	if len(image) > maxImageSize {
		return fmt.Errorf("%w: image too large (%d bytes, maximum %d)", ErrInvalidImage, len(image), maxImageSize)
	}
	return nil
}

// AnalyzeFace runs DetectFaces with all attributes and maps the largest face
func (p *Provider) AnalyzeFace(ctx context.Context, image []byte) (*provider.FaceAnalysis, error) {
	if !p.Ready() {
		return nil, provider.ErrNotReady
	}
	if err := validateImage(image); err != nil {
		return nil, err
	}

	output, err := p.client.rekognition.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image: &types.Image{
			Bytes: image,
		},
		Attributes: []types.Attribute{types.AttributeAll},
	})
	if err != nil {
		if isNoFaceError(err) {
			return provider.NoFace(), nil
		}
		return nil, parseDetectError(err)
	}

	faces := make([]types.FaceDetail, 0, len(output.FaceDetails))
	for _, detail := range output.FaceDetails {
		if aws.ToFloat32(detail.Confidence) >= p.client.config.MinFaceConfidence {
			faces = append(faces, detail)
		}
	}

	p.logger.DebugContext(ctx, "rekognition detect faces",
		"returned", len(output.FaceDetails),
		"kept", len(faces),
	)

	if len(faces) == 0 {
		return provider.NoFace(), nil
	}

	best := largestFace(faces)
	analysis := toFaceAnalysis(best)
	analysis.FaceCount = len(faces)

	return analysis, nil
}

func boxArea(box *types.BoundingBox) float32 {
	if box == nil {
		return 0
	}
	return aws.ToFloat32(box.Width) * aws.ToFloat32(box.Height)
}

func largestFace(faces []types.FaceDetail) types.FaceDetail {
	best := faces[0]
	for _, face := range faces[1:] {
		if boxArea(face.BoundingBox) > boxArea(best.BoundingBox) {
			best = face
		}
	}
	return best
}

// toFaceAnalysis maps a Rekognition face detail onto a FaceAnalysis.
// Rekognition confidences are percentages.
func toFaceAnalysis(detail types.FaceDetail) *provider.FaceAnalysis {
	analysis := &provider.FaceAnalysis{
		FaceDetected: true,
		Confidence:   percent(detail.Confidence),
		Gender:       string(heuristics.GenderUnknown),
	}

	if box := detail.BoundingBox; box != nil {
		analysis.BoundingBox = &provider.BoundingBox{
			X:      float64(aws.ToFloat32(box.Left)),
			Y:      float64(aws.ToFloat32(box.Top)),
			Width:  float64(aws.ToFloat32(box.Width)),
			Height: float64(aws.ToFloat32(box.Height)),
		}
	}

	if ar := detail.AgeRange; ar != nil && ar.Low != nil && ar.High != nil {
		mid := int(math.Round(float64(*ar.Low+*ar.High) / 2))
		analysis.EstimatedAge = provider.IntPtr(mid)
	}

	if g := detail.Gender; g != nil {
		switch g.Value {
		case types.GenderTypeFemale:
			analysis.Gender = string(heuristics.GenderFemale)
		case types.GenderTypeMale:
			analysis.Gender = string(heuristics.GenderMale)
		}
		analysis.GenderConfidence = percent(g.Confidence)
	}

	if len(detail.Emotions) > 0 {
		analysis.Expressions = make(map[string]float64, len(detail.Emotions))
		for _, e := range detail.Emotions {
			label, ok := emotionLabels[e.Type]
			if !ok {
				continue
			}
			analysis.Expressions[string(label)] += percent(e.Confidence)
		}
		analysis.DominantEmotion, analysis.EmotionConfidence = provider.DominantExpression(analysis.Expressions)
	}

	return analysis
}

func percent(v *float32) float64 {
	if v == nil {
		return 0
	}
	return math.Max(0, math.Min(1, float64(*v)/100))
}
