package domain

import (
	"time"

	"github.com/google/uuid"
)

// User representa um participante identificado por um UID opaco
type User struct {
	UID         string                 `json:"uid"`
	CreatedAt   time.Time              `json:"created_at"`
	LastSeen    time.Time              `json:"last_seen"`
	DeviceInfo  map[string]interface{} `json:"device_info,omitempty"`
	SelfieCount int                    `json:"selfie_count"`
}

// NewUser creates a user with a fresh UID
func NewUser(deviceInfo map[string]interface{}) *User {
	now := time.Now().UTC()
	return &User{
		UID:        uuid.NewString(),
		CreatedAt:  now,
		LastSeen:   now,
		DeviceInfo: deviceInfo,
	}
}

// UserSummary is a row of the admin user listing
type UserSummary struct {
	User
	LastEmotion    string     `json:"last_emotion,omitempty"`
	LastAnalysisAt *time.Time `json:"last_analysis_at,omitempty"`
}

// UserDetail aggregates everything known about a user
type UserDetail struct {
	User     *User             `json:"user"`
	Analyses []*SelfieAnalysis `json:"analyses"`
	Events   []*Event          `json:"events"`
}
