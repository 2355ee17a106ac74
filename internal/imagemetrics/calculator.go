package imagemetrics

import (
	"image"
	"image/color"
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultEdgeThreshold is the gradient magnitude (0-255 luma scale) above which
	// an interior pixel counts as an edge
	DefaultEdgeThreshold = 30.0

	// Neutral values returned when an image carries no usable pixels
	defaultBrightness = 0.5
	defaultClutter    = 0.0
)

// Metrics holds the normalized image scores
type Metrics struct {
	Brightness        float64 `json:"brightness"`
	BackgroundClutter float64 `json:"background_clutter"`
}

// DefaultMetrics returns the neutral metrics used for empty or unreadable images
func DefaultMetrics() Metrics {
	return Metrics{
		Brightness:        defaultBrightness,
		BackgroundClutter: defaultClutter,
	}
}

// Calculator computes brightness and background clutter over a decoded image.
// It holds no per-call state and is safe for concurrent use.
type Calculator struct {
	edgeThreshold float64
}

// Option configures a Calculator
type Option func(*Calculator)

// WithEdgeThreshold overrides the edge gradient threshold
func WithEdgeThreshold(threshold float64) Option {
	return func(c *Calculator) {
		if threshold > 0 && !math.IsNaN(threshold) {
			c.edgeThreshold = threshold
		}
	}
}

// NewCalculator creates a new metrics calculator
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{edgeThreshold: DefaultEdgeThreshold}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compute returns brightness and clutter for img, rounded to two decimals.
// A nil or zero-area image yields DefaultMetrics.
func (c *Calculator) Compute(img image.Image) Metrics {
	if img == nil {
		return DefaultMetrics()
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return DefaultMetrics()
	}

	field := luminanceField(img)

	return Metrics{
		Brightness:        round2(sanitize(brightness(field), defaultBrightness)),
		BackgroundClutter: round2(sanitize(c.clutter(field, width, height), defaultClutter)),
	}
}

// luminanceField converts img into a row-major slice of luma values in [0,255]
func luminanceField(img image.Image) []float64 {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	field := make([]float64, 0, width*height)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			px := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			field = append(field, luma(px.R, px.G, px.B))
		}
	}

	return field
}

// luma applies the Rec. 601 perceptual weights
func luma(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

func brightness(field []float64) float64 {
	if len(field) == 0 {
		return defaultBrightness
	}

	return stat.Mean(field, nil) / 255.0
}

// clutter returns the share of interior pixels whose gradient magnitude exceeds
// the edge threshold. Each axis difference is the sum of the absolute steps to
// both neighbours: on monotonic neighbourhoods this equals |next - prev|, and it
// does not cancel out on alternating patterns.
func (c *Calculator) clutter(field []float64, width, height int) float64 {
	if width < 3 || height < 3 {
		return defaultClutter
	}

	edges := 0
	for y := 1; y < height-1; y++ {
		row := y * width
		for x := 1; x < width-1; x++ {
			idx := row + x
			center := field[idx]

			gradX := math.Abs(center-field[idx-1]) + math.Abs(field[idx+1]-center)
			gradY := math.Abs(center-field[idx-width]) + math.Abs(field[idx+width]-center)

			if math.Hypot(gradX, gradY) > c.edgeThreshold {
				edges++
			}
		}
	}

	interior := (width - 2) * (height - 2)
	return float64(edges) / float64(interior)
}

// sanitize replaces NaN/Inf with fallback and clamps to [0,1]
func sanitize(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return clamp01(v)
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
