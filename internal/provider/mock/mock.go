package mock

import (
	"context"
	"crypto/sha256"
	"errors"
	"math"
	"sync"
	"sync/atomic"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/domain"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/heuristics"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/provider"
)

// minImageSize abaixo disso a imagem é rejeitada
const minImageSize = 1000

// ErrInitFailed é retornado por Init quando configurado para falhar
var ErrInitFailed = errors.New("mock detector init failed")

// expressionOrder fixa a ordem usada para derivar as expressões do hash
var expressionOrder = []heuristics.Emotion{
	heuristics.EmotionHappy,
	heuristics.EmotionSad,
	heuristics.EmotionAngry,
	heuristics.EmotionFearful,
	heuristics.EmotionDisgusted,
	heuristics.EmotionSurprised,
	heuristics.EmotionNeutral,
}

// Provider implementa provider.FaceDetector para testes e desenvolvimento
type Provider struct {
	ready    atomic.Bool
	failInit bool
	noFace   bool
	fixed    *provider.FaceAnalysis

	mu    sync.Mutex
	calls int
}

// Option configura o Provider
type Option func(*Provider)

// WithFailingInit faz Init retornar erro
func WithFailingInit() Option {
	return func(p *Provider) { p.failInit = true }
}

// WithNoFace faz toda análise retornar sem rosto
func WithNoFace() Option {
	return func(p *Provider) { p.noFace = true }
}

// WithAnalysis retorna sempre a análise informada
func WithAnalysis(a provider.FaceAnalysis) Option {
	return func(p *Provider) { p.fixed = &a }
}

// New cria uma nova instância do MockProvider
func New(opts ...Option) *Provider {
	p := &Provider{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "mock"
}

// Init marca o detector como pronto
func (p *Provider) Init(ctx context.Context) error {
	if p.failInit {
		p.ready.Store(false)
		return ErrInitFailed
	}
	p.ready.Store(true)
	return nil
}

// Ready reports whether Init succeeded
func (p *Provider) Ready() bool {
	return p.ready.Load()
}

// Calls returns how many times AnalyzeFace ran
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// AnalyzeFace gera uma análise determinística baseada no hash da imagem
func (p *Provider) AnalyzeFace(ctx context.Context, image []byte) (*provider.FaceAnalysis, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	if !p.Ready() {
		return nil, provider.ErrNotReady
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if p.fixed != nil {
		out := *p.fixed
		return &out, nil
	}
	if p.noFace {
		return provider.NoFace(), nil
	}
	if len(image) < minImageSize {
		return nil, domain.ErrInvalidImage
	}

	return analyzeHash(sha256.Sum256(image)), nil
}

func analyzeHash(hash [sha256.Size]byte) *provider.FaceAnalysis {
	gender := heuristics.GenderFemale
	if hash[1]%2 == 1 {
		gender = heuristics.GenderMale
	}

	expressions := make(map[string]float64, len(expressionOrder))
	var total float64
	for i := range expressionOrder {
		total += float64(hash[8+i]) + 1
	}
	for i, e := range expressionOrder {
		expressions[string(e)] = round4((float64(hash[8+i]) + 1) / total)
	}
	dominant, score := provider.DominantExpression(expressions)

	return &provider.FaceAnalysis{
		FaceDetected:      true,
		FaceCount:         1,
		Confidence:        0.99,
		EstimatedAge:      provider.IntPtr(18 + int(hash[0])%50),
		Gender:            string(gender),
		GenderConfidence:  round4(0.5 + float64(hash[2])/255*0.5),
		Expressions:       expressions,
		DominantEmotion:   dominant,
		EmotionConfidence: score,
		BoundingBox: &provider.BoundingBox{
			X:      0.1,
			Y:      0.1,
			Width:  0.8,
			Height: 0.8,
		},
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

var _ provider.FaceDetector = (*Provider)(nil)
