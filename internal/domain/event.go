package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the server
const (
	EventSelfieUpload     = "selfie_upload"
	EventAnalysisComplete = "analysis_complete"
)

// Event registra uma interação do usuário
type Event struct {
	ID        uuid.UUID              `json:"id"`
	UID       string                 `json:"uid"`
	Type      string                 `json:"type"`
	Target    string                 `json:"target,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Validate checks the required fields
func (e *Event) Validate() error {
	if strings.TrimSpace(e.UID) == "" {
		return ErrValidationFailed.WithError(errors.New("uid is required"))
	}
	if strings.TrimSpace(e.Type) == "" {
		return ErrValidationFailed.WithError(errors.New("type is required"))
	}
	return nil
}
