package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/mission-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventMissionCreated       EventType = "mission_created"
	EventMissionStatusChanged EventType = "mission_status_changed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	MissionID string    `json:"mission_id"`
	ActorID   *int64    `json:"actor_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, missionID uuid.UUID, actorID *int64, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		MissionID: missionID.String(),
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// MissionCreatedPayload payload.
type MissionCreatedPayload struct {
	Code   string               `json:"code"`
	Title  string               `json:"title"`
	Status domain.MissionStatus `json:"status"`
}

// MissionStatusChangedPayload payload.
type MissionStatusChangedPayload struct {
	OldStatus domain.MissionStatus `json:"old_status"`
	NewStatus domain.MissionStatus `json:"new_status"`
}
