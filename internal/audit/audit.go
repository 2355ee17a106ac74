// Package audit records who read personal data through the admin dashboard.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Action is the kind of admin access being recorded
type Action string

const (
	ActionUsersListed     Action = "USERS_LISTED"
	ActionUserViewed      Action = "USER_VIEWED"
	ActionAnalyticsViewed Action = "ANALYTICS_VIEWED"
	ActionSimilarSearched Action = "SIMILAR_SEARCHED"
	ActionLiveConnected   Action = "LIVE_CONNECTED"
	ActionUnknown         Action = "ADMIN_REQUEST"
)

// Entry is one audited admin request
type Entry struct {
	ID        uuid.UUID         `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Action    Action            `json:"action"`
	Subject   string            `json:"subject,omitempty"`
	Target    string            `json:"target,omitempty"`
	Status    int               `json:"status"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	IPAddress string            `json:"ip_address,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

// SlogLogger writes entries to a slog logger
type SlogLogger struct {
	logger *slog.Logger
}

func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{
		logger: logger.With("component", "audit"),
	}
}

func (l *SlogLogger) Log(ctx context.Context, entry Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	entryJSON, err := json.Marshal(entry)
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to marshal audit entry",
			slog.String("error", err.Error()),
			slog.String("action", string(entry.Action)),
		)
		return err
	}

	l.logger.InfoContext(ctx, "audit_event",
		slog.String("entry_id", entry.ID.String()),
		slog.String("action", string(entry.Action)),
		slog.String("subject", entry.Subject),
		slog.String("target", entry.Target),
		slog.Bool("success", entry.Success),
		slog.String("entry_data", string(entryJSON)),
	)

	return nil
}

// NoOpLogger discards entries
type NoOpLogger struct{}

func (l *NoOpLogger) Log(_ context.Context, _ Entry) error {
	return nil
}
