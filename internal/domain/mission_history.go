package domain

import (
	"time"

	"github.com/google/uuid"
)

// MissionHistory is an immutable audit entry for a status change.
type MissionHistory struct {
	ID          int64
	MissionID   uuid.UUID
	ChangedByID *int64
	OldStatus   MissionStatus
	NewStatus   MissionStatus
	CreatedAt   time.Time
}
