package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type readyFlag bool

func (r readyFlag) DetectorReady() bool { return bool(r) }

func TestHealthHandler_Health(t *testing.T) {
	app := fiber.New()
	handler := NewHealthHandler(nil, nil)
	app.Get("/health", handler.Health)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, Version, result.Version)
}

func TestHealthHandler_Ready(t *testing.T) {
	okDB := pingerFunc(func(context.Context) error { return nil })
	downDB := pingerFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name         string
		db           Pinger
		detector     ReadinessChecker
		wantStatus   int
		wantDB       string
		wantDetector string
	}{
		{"all ready", okDB, readyFlag(true), http.StatusOK, "ok", "ready"},
		{"detector down still ready", okDB, readyFlag(false), http.StatusOK, "ok", "unavailable"},
		{"no detector configured", okDB, nil, http.StatusOK, "ok", "unavailable"},
		{"database down", downDB, readyFlag(true), http.StatusServiceUnavailable, "unreachable", "ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/ready", NewHealthHandler(tt.db, tt.detector).Ready)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ready", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var result ReadyResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
			assert.Equal(t, tt.wantDB, result.Database)
			assert.Equal(t, tt.wantDetector, result.Detector)
		})
	}
}
