package deepface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/provider"
)

func newTestServer(t *testing.T, status int, body interface{}) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func readyProvider(t *testing.T, url string) *Provider {
	t.Helper()
	config := testConfig(url)
	config.RetryCount = 0
	p := NewProvider(config)
	require.NoError(t, p.Init(context.Background()))
	return p
}

func TestProvider_Init(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		server := newTestServer(t, http.StatusOK, nil)
		p := NewProvider(testConfig(server.URL))

		assert.False(t, p.Ready())
		require.NoError(t, p.Init(context.Background()))
		assert.True(t, p.Ready())
		assert.Equal(t, "deepface", p.Name())
	})

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		p := NewProvider(testConfig(url))
		err := p.Init(context.Background())

		assert.ErrorIs(t, err, ErrDeepFaceUnavailable)
		assert.False(t, p.Ready())
	})
}

func TestProvider_AnalyzeFace_NotReady(t *testing.T) {
	p := NewProvider(DefaultConfig())

	_, err := p.AnalyzeFace(context.Background(), []byte("img"))
	assert.ErrorIs(t, err, provider.ErrNotReady)
}

func TestProvider_AnalyzeFace(t *testing.T) {
	server := newTestServer(t, http.StatusOK, AnalyzeResponse{
		Results: []AnalyzeResult{
			{
				Region:         FacialArea{X: 0, Y: 0, W: 40, H: 40},
				FaceConfidence: 0.6,
				Age:            61,
				Gender:         map[string]float64{"Man": 90, "Woman": 10},
			},
			{
				Region:         FacialArea{X: 50, Y: 60, W: 200, H: 220},
				FaceConfidence: 0.97,
				Age:            28.6,
				Gender:         map[string]float64{"Man": 12.5, "Woman": 87.5},
				Emotion: map[string]float64{
					"angry": 1, "disgust": 0.5, "fear": 2, "happy": 85,
					"sad": 3, "surprise": 6, "neutral": 2.5,
				},
			},
		},
	})
	p := readyProvider(t, server.URL)

	got, err := p.AnalyzeFace(context.Background(), []byte("jpeg bytes"))
	require.NoError(t, err)

	assert.True(t, got.FaceDetected)
	assert.Equal(t, 2, got.FaceCount)
	assert.Equal(t, 0.97, got.Confidence)
	require.NotNil(t, got.EstimatedAge)
	assert.Equal(t, 29, *got.EstimatedAge)
	assert.Equal(t, "female", got.Gender)
	assert.InDelta(t, 0.875, got.GenderConfidence, 1e-9)
	assert.Equal(t, "happy", got.DominantEmotion)
	assert.InDelta(t, 0.85, got.EmotionConfidence, 1e-9)
	assert.InDelta(t, 0.005, got.Expressions["disgusted"], 1e-9)
	assert.InDelta(t, 0.02, got.Expressions["fearful"], 1e-9)
	assert.InDelta(t, 0.06, got.Expressions["surprised"], 1e-9)
	assert.NotContains(t, got.Expressions, "disgust")
	require.NotNil(t, got.BoundingBox)
	assert.Equal(t, 200.0, got.BoundingBox.Width)
}

func TestProvider_AnalyzeFace_NoFace(t *testing.T) {
	t.Run("zero confidence region", func(t *testing.T) {
		server := newTestServer(t, http.StatusOK, AnalyzeResponse{
			Results: []AnalyzeResult{{Region: FacialArea{W: 640, H: 480}, FaceConfidence: 0, Age: 31}},
		})
		p := readyProvider(t, server.URL)

		got, err := p.AnalyzeFace(context.Background(), []byte("jpeg bytes"))
		require.NoError(t, err)
		assert.False(t, got.FaceDetected)
		assert.Nil(t, got.EstimatedAge)
	})

	t.Run("face could not be detected", func(t *testing.T) {
		server := newTestServer(t, http.StatusBadRequest, map[string]string{
			"error": "Exception while analyzing: Face could not be detected in numpy array.",
		})
		p := readyProvider(t, server.URL)

		got, err := p.AnalyzeFace(context.Background(), []byte("jpeg bytes"))
		require.NoError(t, err)
		assert.False(t, got.FaceDetected)
	})
}

func TestProvider_AnalyzeFace_Errors(t *testing.T) {
	server := newTestServer(t, http.StatusInternalServerError, map[string]string{"error": "boom"})
	p := readyProvider(t, server.URL)

	_, err := p.AnalyzeFace(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = p.AnalyzeFace(context.Background(), []byte("jpeg bytes"))
	assert.ErrorIs(t, err, ErrDeepFaceUnavailable)
}

func TestCalculateConfidence(t *testing.T) {
	assert.Equal(t, 0.9, calculateConfidence(100, 0.9))
	assert.Equal(t, 0.5, calculateConfidence(100, 0))
	assert.InDelta(t, 0.99, calculateConfidence(maxFaceArea, 0), 1e-9)
	assert.InDelta(t, 0.7, calculateConfidence(minFaceArea, 0), 1e-9)
}
