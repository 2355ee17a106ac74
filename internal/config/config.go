package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Provider types
const (
	ProviderDeepFace    = "deepface"
	ProviderRekognition = "rekognition"
	ProviderMock        = "mock"
)

// Storage types
const (
	StorageLocal = "local"
	StorageAzure = "azure"
	StorageNone  = "none"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`
	MaxUploadMB int    `envconfig:"MAX_UPLOAD_MB" default:"10"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Provider
	ProviderType    string        `envconfig:"PROVIDER_TYPE" default:"deepface"`
	DeepFaceURL     string        `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	DeepFaceTimeout time.Duration `envconfig:"DEEPFACE_TIMEOUT" default:"30s"`
	AWSRegion       string        `envconfig:"AWS_REGION" default:"us-east-1"`

	// Pipeline
	MinGenderConfidence  float64       `envconfig:"MIN_GENDER_CONFIDENCE" default:"0.6"`
	MinEmotionConfidence float64       `envconfig:"MIN_EMOTION_CONFIDENCE" default:"0.5"`
	DetectorTimeout      time.Duration `envconfig:"DETECTOR_TIMEOUT" default:"45s"`

	// Storage
	StorageType         string `envconfig:"STORAGE_TYPE" default:"local"`
	UploadDir           string `envconfig:"UPLOAD_DIR" default:"./uploads"`
	AzureStorageAccount string `envconfig:"AZURE_STORAGE_ACCOUNT"`
	AzureStorageKey     string `envconfig:"AZURE_STORAGE_KEY"`
	AzureContainer      string `envconfig:"AZURE_CONTAINER" default:"selfies"`

	// Admin
	AdminJWTSecret    string        `envconfig:"ADMIN_JWT_SECRET"`
	AnalyticsCacheTTL time.Duration `envconfig:"ANALYTICS_CACHE_TTL" default:"1m"`

	// Rate limiting
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"60"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express
func (c *Config) Validate() error {
	switch c.ProviderType {
	case ProviderDeepFace, ProviderRekognition, ProviderMock:
	default:
		return fmt.Errorf("unknown PROVIDER_TYPE %q", c.ProviderType)
	}

	switch c.StorageType {
	case StorageLocal, StorageNone:
	case StorageAzure:
		if c.AzureStorageAccount == "" || c.AzureStorageKey == "" {
			return fmt.Errorf("STORAGE_TYPE=azure requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
	default:
		return fmt.Errorf("unknown STORAGE_TYPE %q", c.StorageType)
	}

	if c.MinGenderConfidence < 0 || c.MinGenderConfidence > 1 {
		return fmt.Errorf("MIN_GENDER_CONFIDENCE must be between 0 and 1")
	}
	if c.MinEmotionConfidence < 0 || c.MinEmotionConfidence > 1 {
		return fmt.Errorf("MIN_EMOTION_CONFIDENCE must be between 0 and 1")
	}
	if c.IsProduction() && c.AdminJWTSecret == "" {
		return fmt.Errorf("ADMIN_JWT_SECRET is required in production")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// MaxUploadBytes returns the upload limit in bytes
func (c *Config) MaxUploadBytes() int {
	return c.MaxUploadMB * 1024 * 1024
}
