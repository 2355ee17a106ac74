// Package cache stores short-lived values in the cache_entries table.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrCacheMiss is returned when a key is not found in cache
	ErrCacheMiss = errors.New("cache miss")
	// ErrCacheExpired is returned when a cached value has expired
	ErrCacheExpired = errors.New("cache expired")
)

// DB interface for database operations (compatible with pgxpool.Pool and pgxmock)
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
}

// PGCache is a PostgreSQL-backed key/value cache with per-entry TTL
type PGCache struct {
	db  DB
	now func() time.Time
}

// NewPGCache creates a new PostgreSQL cache
func NewPGCache(db DB) *PGCache {
	return &PGCache{db: db, now: time.Now}
}

// Get retrieves a value from cache by key. Expired entries are removed on read.
func (c *PGCache) Get(ctx context.Context, key string) ([]byte, error) {
	query := `
		SELECT value, expires_at
		FROM cache_entries
		WHERE key = $1
	`

	var value []byte
	var expiresAt time.Time

	err := c.db.QueryRow(ctx, query, key).Scan(&value, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("get cache entry: %w", err)
	}

	if c.now().After(expiresAt) {
		_ = c.Delete(ctx, key)
		return nil, ErrCacheExpired
	}

	return value, nil
}

// Set stores a value in cache with TTL
func (c *PGCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	query := `
		INSERT INTO cache_entries (key, value, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    expires_at = EXCLUDED.expires_at,
		    created_at = NOW()
	`

	if _, err := c.db.Exec(ctx, query, key, value, c.now().Add(ttl)); err != nil {
		return fmt.Errorf("set cache entry: %w", err)
	}
	return nil
}

// Delete removes a key from cache
func (c *PGCache) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM cache_entries WHERE key = $1`
	if _, err := c.db.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

// DeletePrefix removes every key starting with prefix
func (c *PGCache) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	query := `DELETE FROM cache_entries WHERE starts_with(key, $1)`
	result, err := c.db.Exec(ctx, query, prefix)
	if err != nil {
		return 0, fmt.Errorf("delete cache prefix: %w", err)
	}
	return result.RowsAffected(), nil
}

// CleanupExpired removes all expired entries
func (c *PGCache) CleanupExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM cache_entries WHERE expires_at < NOW()`
	result, err := c.db.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("cleanup cache: %w", err)
	}
	return result.RowsAffected(), nil
}

// GetJSON decodes the cached value for key into dest
func (c *PGCache) GetJSON(ctx context.Context, key string, dest any) error {
	raw, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes value and stores it under key
func (c *PGCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	return c.Set(ctx, key, raw, ttl)
}

// IsMiss reports whether err means the key must be recomputed
func IsMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss) || errors.Is(err, ErrCacheExpired)
}
