package face

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/config"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/provider"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/provider/rekognition"
)

// NewDetector creates the FaceDetector selected by cfg.ProviderType.
// The detector is returned uninitialized; callers run Init themselves.
//
// Environment variables:
//   - PROVIDER_TYPE: "deepface", "rekognition" or "mock" (default: "deepface")
//   - DEEPFACE_URL, DEEPFACE_TIMEOUT: DeepFace API location and per-request timeout
//   - AWS_REGION: AWS region for Rekognition (credentials via the AWS SDK chain)
func NewDetector(ctx context.Context, cfg *config.Config, logger *slog.Logger) (provider.FaceDetector, error) {
	switch cfg.ProviderType {
	case config.ProviderRekognition:
		return createRekognitionDetector(ctx, cfg, logger)

	case config.ProviderDeepFace, "":
		return createDeepFaceDetector(cfg), nil

	case config.ProviderMock:
		return mock.New(), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s, %s)",
			cfg.ProviderType, config.ProviderDeepFace, config.ProviderRekognition, config.ProviderMock)
	}
}

// InitDetector initializes d and logs the outcome. A failed Init is not fatal:
// the pipeline keeps running on heuristics until the detector becomes ready.
func InitDetector(ctx context.Context, d provider.FaceDetector, logger *slog.Logger) bool {
	if err := d.Init(ctx); err != nil {
		logger.Warn("face detector not ready, analyses will use heuristics",
			"detector", d.Name(),
			"error", err,
		)
		return false
	}
	logger.Info("face detector ready", "detector", d.Name())
	return true
}

// createRekognitionDetector creates an AWS Rekognition detector instance
func createRekognitionDetector(ctx context.Context, cfg *config.Config, logger *slog.Logger) (provider.FaceDetector, error) {
	rekogConfig := rekognition.DefaultConfig()
	if cfg.AWSRegion != "" {
		rekogConfig.Region = cfg.AWSRegion
	}

	prov, err := rekognition.NewProvider(ctx, rekogConfig, rekognition.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("create rekognition provider: %w", err)
	}

	return prov, nil
}

// createDeepFaceDetector creates a DeepFace detector instance
func createDeepFaceDetector(cfg *config.Config) provider.FaceDetector {
	deepfaceConfig := deepface.DefaultConfig()
	if cfg.DeepFaceURL != "" {
		deepfaceConfig.BaseURL = cfg.DeepFaceURL
	}
	if cfg.DeepFaceTimeout > 0 {
		deepfaceConfig.Timeout = cfg.DeepFaceTimeout
	}

	return deepface.NewProvider(deepfaceConfig)
}
