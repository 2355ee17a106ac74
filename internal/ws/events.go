package ws

import (
	"time"
)

type EventType string

const (
	EventAnalysisCompleted EventType = "analysis.completed"
	EventUserCreated       EventType = "user.created"
	EventRecorded          EventType = "event.recorded"
)

// Event is one message of the admin live feed
type Event struct {
	UID       string      `json:"uid"`
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}
