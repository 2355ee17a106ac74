// Package storage persists uploaded selfie images and returns the URL they
// are served from.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/config"
)

var ErrEmptyObject = errors.New("storage: empty object")

// Store saves image bytes under a key
type Store interface {
	Name() string
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// ObjectKey builds the storage key for an analysis image: <uid>/<id><ext>
func ObjectKey(uid string, id uuid.UUID, data []byte) (key, contentType string) {
	contentType = http.DetectContentType(data)
	ext := ".bin"
	switch contentType {
	case "image/jpeg":
		ext = ".jpg"
	case "image/png":
		ext = ".png"
	case "image/webp":
		ext = ".webp"
	case "image/gif":
		ext = ".gif"
	}
	return path.Join(uid, id.String()+ext), contentType
}

// New builds the store selected by cfg. It returns nil, nil when storage is disabled.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	switch cfg.StorageType {
	case config.StorageNone:
		logger.Info("image storage disabled")
		return nil, nil

	case config.StorageLocal:
		store, err := NewLocalStore(cfg.UploadDir, LocalURLPrefix)
		if err != nil {
			return nil, err
		}
		logger.Info("local image storage initialized", "dir", cfg.UploadDir)
		return store, nil

	case config.StorageAzure:
		store, err := NewAzureStore(cfg.AzureStorageAccount, cfg.AzureStorageKey, cfg.AzureContainer)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureContainer(ctx); err != nil {
			return nil, err
		}
		logger.Info("azure blob storage initialized",
			"account", cfg.AzureStorageAccount,
			"container", cfg.AzureContainer,
		)
		return store, nil

	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.StorageType)
	}
}
