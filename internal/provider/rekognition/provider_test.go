package rekognition

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/provider"
)

// ptr is a helper function to get pointer to a value
func ptr[T any](v T) *T {
	return &v
}

// fakeImageData returns fake image data with minimum valid size
func fakeImageData() []byte {
	data := make([]byte, 150)
	for i := range data {
		data[i] = byte(i % 256)
	}
	return data
}

func newReadyProvider(t *testing.T, mock *mockRekognitionAPI) *Provider {
	t.Helper()
	p := NewProviderWithClient(NewClientWithAPI(mock, DefaultConfig()))
	require.NoError(t, p.Init(context.Background()))
	return p
}

func detectOutput(details ...types.FaceDetail) func(context.Context, *rekognition.DetectFacesInput, ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
	return func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
		return &rekognition.DetectFacesOutput{FaceDetails: details}, nil
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, float32(80), cfg.MinFaceConfidence)
}

func TestProvider_Init(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		p := newReadyProvider(t, &mockRekognitionAPI{})
		assert.True(t, p.Ready())
		assert.Equal(t, "rekognition", p.Name())
	})

	t.Run("access denied", func(t *testing.T) {
		mock := &mockRekognitionAPI{
			listCollectionsFunc: func(ctx context.Context, params *rekognition.ListCollectionsInput, optFns ...func(*rekognition.Options)) (*rekognition.ListCollectionsOutput, error) {
				return nil, &smithy.GenericAPIError{Code: errCodeAccessDenied, Message: "denied"}
			},
		}
		p := NewProviderWithClient(NewClientWithAPI(mock, DefaultConfig()))

		err := p.Init(context.Background())
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.False(t, p.Ready())
	})
}

func TestAnalyzeFace_NotReady(t *testing.T) {
	p := NewProviderWithClient(NewClientWithAPI(&mockRekognitionAPI{}, DefaultConfig()))

	_, err := p.AnalyzeFace(context.Background(), fakeImageData())
	assert.ErrorIs(t, err, provider.ErrNotReady)
}

func TestAnalyzeFace_Success(t *testing.T) {
	var gotAttributes []types.Attribute
	mock := &mockRekognitionAPI{
		detectFacesFunc: func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
			gotAttributes = params.Attributes
			return detectOutput(
				types.FaceDetail{
					BoundingBox: &types.BoundingBox{Left: ptr(float32(0.1)), Top: ptr(float32(0.2)), Width: ptr(float32(0.1)), Height: ptr(float32(0.1))},
					Confidence:  ptr(float32(99)),
					Gender:      &types.Gender{Value: types.GenderTypeMale, Confidence: ptr(float32(99))},
				},
				types.FaceDetail{
					BoundingBox: &types.BoundingBox{Left: ptr(float32(0.3)), Top: ptr(float32(0.2)), Width: ptr(float32(0.4)), Height: ptr(float32(0.5))},
					Confidence:  ptr(float32(99.5)),
					AgeRange:    &types.AgeRange{Low: ptr(int32(24)), High: ptr(int32(31))},
					Gender:      &types.Gender{Value: types.GenderTypeFemale, Confidence: ptr(float32(87.5))},
					Emotions: []types.Emotion{
						{Type: types.EmotionNameCalm, Confidence: ptr(float32(62.5))},
						{Type: types.EmotionNameHappy, Confidence: ptr(float32(25))},
						{Type: types.EmotionNameConfused, Confidence: ptr(float32(12.5))},
						{Type: types.EmotionNameUnknown, Confidence: ptr(float32(50))},
					},
				},
			)(ctx, params, optFns...)
		},
	}
	p := newReadyProvider(t, mock)

	got, err := p.AnalyzeFace(context.Background(), fakeImageData())
	require.NoError(t, err)

	assert.Equal(t, []types.Attribute{types.AttributeAll}, gotAttributes)
	assert.True(t, got.FaceDetected)
	assert.Equal(t, 2, got.FaceCount)
	assert.InDelta(t, 0.995, got.Confidence, 1e-6)
	require.NotNil(t, got.EstimatedAge)
	assert.Equal(t, 28, *got.EstimatedAge)
	assert.Equal(t, "female", got.Gender)
	assert.InDelta(t, 0.875, got.GenderConfidence, 1e-6)
	assert.Equal(t, "neutral", got.DominantEmotion)
	assert.InDelta(t, 0.625, got.EmotionConfidence, 1e-6)
	assert.InDelta(t, 0.125, got.Expressions["anxious"], 1e-6)
	assert.Len(t, got.Expressions, 3)
	require.NotNil(t, got.BoundingBox)
	assert.InDelta(t, 0.4, got.BoundingBox.Width, 1e-6)
}

func TestAnalyzeFace_NoFaces(t *testing.T) {
	tests := []struct {
		name    string
		details []types.FaceDetail
	}{
		{name: "empty", details: nil},
		{
			name: "below confidence",
			details: []types.FaceDetail{
				{Confidence: ptr(float32(40)), BoundingBox: &types.BoundingBox{Width: ptr(float32(0.5)), Height: ptr(float32(0.5))}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newReadyProvider(t, &mockRekognitionAPI{detectFacesFunc: detectOutput(tt.details...)})

			got, err := p.AnalyzeFace(context.Background(), fakeImageData())
			require.NoError(t, err)
			assert.False(t, got.FaceDetected)
			assert.Equal(t, 0, got.FaceCount)
		})
	}
}

func TestAnalyzeFace_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
		noFace  bool
	}{
		{
			name:   "invalid parameter about faces is no face",
			err:    &smithy.GenericAPIError{Code: errCodeInvalidParameter, Message: "No face detected in the image"},
			noFace: true,
		},
		{
			name:    "invalid image format",
			err:     &smithy.GenericAPIError{Code: errCodeInvalidImage, Message: "Request has invalid image format"},
			wantErr: ErrInvalidImage,
		},
		{
			name:    "access denied",
			err:     &smithy.GenericAPIError{Code: errCodeAccessDenied, Message: "nope"},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:    "transport failure",
			err:     assert.AnError,
			wantErr: assert.AnError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockRekognitionAPI{
				detectFacesFunc: func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
					return nil, tt.err
				},
			}
			p := newReadyProvider(t, mock)

			got, err := p.AnalyzeFace(context.Background(), fakeImageData())
			if tt.noFace {
				require.NoError(t, err)
				assert.False(t, got.FaceDetected)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, got)
		})
	}
}

func TestValidateImage(t *testing.T) {
	assert.ErrorIs(t, validateImage(nil), ErrInvalidImage)
	assert.ErrorIs(t, validateImage(make([]byte, 50)), ErrInvalidImage)
	assert.ErrorIs(t, validateImage(make([]byte, maxImageSize+1)), ErrInvalidImage)
	assert.NoError(t, validateImage(fakeImageData()))
}

func BenchmarkAnalyzeFace(b *testing.B) {
	mock := &mockRekognitionAPI{
		detectFacesFunc: detectOutput(types.FaceDetail{
			BoundingBox: &types.BoundingBox{Left: ptr(float32(0.1)), Top: ptr(float32(0.2)), Width: ptr(float32(0.3)), Height: ptr(float32(0.4))},
			Confidence:  ptr(float32(99.5)),
			Emotions:    []types.Emotion{{Type: types.EmotionNameHappy, Confidence: ptr(float32(90))}},
		}),
	}
	p := NewProviderWithClient(NewClientWithAPI(mock, DefaultConfig()))
	p.ready.Store(true)
	imageData := fakeImageData()
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, _ = p.AnalyzeFace(ctx, imageData)
	}
}
