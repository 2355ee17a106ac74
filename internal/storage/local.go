package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalURLPrefix is the route the API serves local uploads from
const LocalURLPrefix = "/uploads"

// LocalStore writes images below a directory on disk
type LocalStore struct {
	dir       string
	urlPrefix string
}

func NewLocalStore(dir, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

func (s *LocalStore) Name() string { return "local" }

// Dir is the directory images are written to
func (s *LocalStore) Dir() string { return s.dir }

func (s *LocalStore) Save(ctx context.Context, key string, data []byte, _ string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyObject
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	clean := path.Clean("/" + key)[1:]
	if clean == "" {
		return "", fmt.Errorf("invalid object key %q", key)
	}

	target := filepath.Join(s.dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create object dir: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}

	return s.urlPrefix + "/" + clean, nil
}
