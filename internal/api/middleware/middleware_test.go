package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/domain"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"app error", domain.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
		{"wrapped app error", errors.Join(errors.New("ctx"), domain.ErrInvalidImage.WithError(errors.New("bad"))), http.StatusUnprocessableEntity, "INVALID_IMAGE"},
		{"fiber error", fiber.ErrMethodNotAllowed, http.StatusMethodNotAllowed, "HTTP_ERROR"},
		{"body too large", fiber.ErrRequestEntityTooLarge, http.StatusRequestEntityTooLarge, "IMAGE_TOO_LARGE"},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(discardLogger())})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body errorBody
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantCode, body.Error.Code)
		})
	}
}

func TestLogger_LogsRenderedStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(discardLogger())})
	app.Use(Logger(logger))
	app.Get("/missing", func(c *fiber.Ctx) error { return domain.ErrUserNotFound })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, "WARN", entry["level"])
	assert.EqualValues(t, 404, entry["status"])
	assert.Equal(t, "/missing", entry["path"])
}

func TestRecover(t *testing.T) {
	app := fiber.New()
	app.Use(Recover(discardLogger()))
	app.Get("/panic", func(c *fiber.Ctx) error { panic("kaboom") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/panic", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
}
