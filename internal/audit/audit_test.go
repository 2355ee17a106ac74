package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedLogger() (*SlogLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil))), &buf
}

func TestSlogLogger_Log(t *testing.T) {
	tests := []struct {
		name        string
		entry       Entry
		wantAction  string
		wantSuccess bool
		wantError   bool
	}{
		{
			name: "user viewed",
			entry: Entry{
				Action:  ActionUserViewed,
				Subject: "ops@example.com",
				Target:  "uid-1",
				Status:  200,
				Success: true,
			},
			wantAction:  "USER_VIEWED",
			wantSuccess: true,
		},
		{
			name: "analytics with metadata",
			entry: Entry{
				Action:   ActionAnalyticsViewed,
				Subject:  "admin",
				Status:   200,
				Success:  true,
				Metadata: map[string]string{"emotion": "happy"},
			},
			wantAction:  "ANALYTICS_VIEWED",
			wantSuccess: true,
		},
		{
			name: "failed lookup",
			entry: Entry{
				Action:  ActionUserViewed,
				Subject: "admin",
				Target:  "missing",
				Status:  404,
				Error:   "user not found",
			},
			wantAction: "USER_VIEWED",
			wantError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newBufferedLogger()

			require.NoError(t, logger.Log(context.Background(), tt.entry))

			var line map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
			assert.Equal(t, "audit_event", line["msg"])
			assert.Equal(t, "audit", line["component"])
			assert.Equal(t, tt.wantAction, line["action"])
			assert.Equal(t, tt.wantSuccess, line["success"])

			var entry Entry
			require.NoError(t, json.Unmarshal([]byte(line["entry_data"].(string)), &entry))
			assert.NotEqual(t, uuid.Nil, entry.ID)
			assert.False(t, entry.Timestamp.IsZero())
			assert.Equal(t, tt.entry.Subject, entry.Subject)
			assert.Equal(t, tt.entry.Target, entry.Target)
			assert.Equal(t, tt.wantError, entry.Error != "")
		})
	}
}

func TestSlogLogger_KeepsProvidedIdentity(t *testing.T) {
	logger, buf := newBufferedLogger()
	id := uuid.New()
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, logger.Log(context.Background(), Entry{ID: id, Timestamp: ts, Action: ActionLiveConnected}))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, id.String(), line["entry_id"])

	var entry Entry
	require.NoError(t, json.Unmarshal([]byte(line["entry_data"].(string)), &entry))
	assert.True(t, ts.Equal(entry.Timestamp))
}

func TestNoOpLogger(t *testing.T) {
	var l Logger = &NoOpLogger{}
	assert.NoError(t, l.Log(context.Background(), Entry{Action: ActionUsersListed}))
}
