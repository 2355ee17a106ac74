//go:build integration

package database_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/database"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "pgvector/pgvector:pg16",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "selfielens_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://test:test@%s:%s/selfielens_test?sslmode=disable", host, port.Port())
}

// TestMigratorIntegration tests the migration functionality
func TestMigratorIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	dsn := startPostgres(t)
	db, err := database.NewPool(database.DefaultPoolConfig(dsn))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	t.Run("Up runs migrations successfully", func(t *testing.T) {
		migrator, err := database.NewMigrator(db, "selfielens_test")
		require.NoError(t, err)
		defer func() { _ = migrator.Close() }()

		require.NoError(t, migrator.Up())
		// second run is a no-op
		require.NoError(t, migrator.Up())

		for _, table := range []string{"users", "selfie_analyses", "events", "cache_entries"} {
			assertTableExists(t, db, table)
		}
	})

	t.Run("Version returns current version", func(t *testing.T) {
		migrator, err := database.NewMigrator(db, "selfielens_test")
		require.NoError(t, err)
		defer func() { _ = migrator.Close() }()

		version, dirty, err := migrator.Version()
		require.NoError(t, err)
		assert.False(t, dirty, "migration should not be dirty")
		assert.Equal(t, uint(1), version, "should be at version 1")
	})

	t.Run("selfie_analyses has expected columns and indexes", func(t *testing.T) {
		columns := getTableColumns(t, db, "selfie_analyses")
		for _, col := range []string{
			"id", "uid", "image_url", "face_detected", "estimated_age", "gender", "gender_source",
			"dominant_emotion", "emotion_source", "expressions", "expression_vector", "brightness",
			"background_clutter", "ip", "device", "device_info", "interaction_duration",
			"retake_count", "hour_of_day", "created_at",
		} {
			assert.Contains(t, columns, col, "selfie_analyses should have column %s", col)
		}

		indexes := getTableIndexes(t, db, "selfie_analyses")
		assert.Contains(t, indexes, "idx_selfie_analyses_uid_created")
		assert.Contains(t, indexes, "idx_selfie_analyses_emotion")
		assert.Contains(t, indexes, "idx_selfie_analyses_age")
	})

	t.Run("constraints reject out of range values", func(t *testing.T) {
		_, err := db.Exec(`INSERT INTO users (uid) VALUES ('u-constraints')`)
		require.NoError(t, err)

		_, err = db.Exec(`
			INSERT INTO selfie_analyses (id, uid, brightness, background_clutter)
			VALUES (gen_random_uuid(), 'u-constraints', 1.5, 0)
		`)
		assert.Error(t, err, "brightness above 1 must be rejected")

		_, err = db.Exec(`
			INSERT INTO selfie_analyses (id, uid, brightness, background_clutter, gender)
			VALUES (gen_random_uuid(), 'u-constraints', 0.5, 0.5, 'other')
		`)
		assert.Error(t, err, "gender outside the label set must be rejected")
	})

	t.Run("Down rolls back", func(t *testing.T) {
		migrator, err := database.NewMigrator(db, "selfielens_test")
		require.NoError(t, err)
		defer func() { _ = migrator.Close() }()

		require.NoError(t, migrator.Down(1))

		var exists bool
		require.NoError(t, db.QueryRow(`
			SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_schema = 'public' AND table_name = 'users')
		`).Scan(&exists))
		assert.False(t, exists)
	})
}

// Helper functions

func assertTableExists(t *testing.T, db *sql.DB, tableName string) {
	t.Helper()

	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)
	`, tableName).Scan(&exists)

	require.NoError(t, err)
	assert.True(t, exists, "table %s should exist", tableName)
}

func getTableColumns(t *testing.T, db *sql.DB, tableName string) []string {
	t.Helper()

	rows, err := db.Query(`
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = 'public'
		AND table_name = $1
		ORDER BY ordinal_position
	`, tableName)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var columns []string
	for rows.Next() {
		var col string
		require.NoError(t, rows.Scan(&col))
		columns = append(columns, col)
	}

	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, tableName string) []string {
	t.Helper()

	rows, err := db.Query(`
		SELECT indexname
		FROM pg_indexes
		WHERE schemaname = 'public'
		AND tablename = $1
	`, tableName)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var indexes []string
	for rows.Next() {
		var idx string
		require.NoError(t, rows.Scan(&idx))
		indexes = append(indexes, idx)
	}

	return indexes
}
