package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MissionStatus enumerates lifecycle states for missions.
type MissionStatus string

const (
	MissionStatusDraft      MissionStatus = "DRAFT"
	MissionStatusScheduled  MissionStatus = "SCHEDULED"
	MissionStatusInProgress MissionStatus = "IN_PROGRESS"
	MissionStatusDone       MissionStatus = "DONE"
	MissionStatusCanceled   MissionStatus = "CANCELED"
)

// MissionStatuses lists every status in pipeline order.
var MissionStatuses = []MissionStatus{
	MissionStatusDraft,
	MissionStatusScheduled,
	MissionStatusInProgress,
	MissionStatusDone,
	MissionStatusCanceled,
}

// missionTransitions is the directed graph of legal status moves. A status
// with no outgoing edges is terminal.
var missionTransitions = map[MissionStatus]map[MissionStatus]struct{}{
	MissionStatusDraft:      {MissionStatusScheduled: {}, MissionStatusCanceled: {}},
	MissionStatusScheduled:  {MissionStatusInProgress: {}, MissionStatusCanceled: {}},
	MissionStatusInProgress: {MissionStatusDone: {}, MissionStatusCanceled: {}},
	MissionStatusDone:       {},
	MissionStatusCanceled:   {},
}

var (
	ErrInvalidTransition = errors.New("invalid mission status transition")
	ErrInvalidSchedule   = errors.New("mission must start before it ends")
	ErrUnknownStatus     = errors.New("unknown mission status")
)

// TransitionError reports a rejected status change.
type TransitionError struct {
	From MissionStatus
	To   MissionStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// ScheduleError reports a schedule window whose start is not before its end.
type ScheduleError struct {
	Start time.Time
	End   time.Time
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("invalid schedule: start %s is not before end %s",
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

func (e *ScheduleError) Is(target error) bool {
	return target == ErrInvalidSchedule
}

// Valid reports whether s belongs to the status set.
func (s MissionStatus) Valid() bool {
	_, ok := missionTransitions[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s MissionStatus) Terminal() bool {
	return s.Valid() && len(missionTransitions[s]) == 0
}

// ParseMissionStatus converts user input into a status.
func ParseMissionStatus(raw string) (MissionStatus, error) {
	status := MissionStatus(raw)
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
	return status, nil
}

// CanTransition reports whether a mission may move from current to target.
// Staying in the same status is always allowed.
func CanTransition(current, target MissionStatus) bool {
	if !target.Valid() {
		return false
	}
	if current == target {
		return true
	}
	_, ok := missionTransitions[current][target]
	return ok
}

// NextStatuses returns the statuses reachable from s in one step.
func NextStatuses(s MissionStatus) []MissionStatus {
	next := make([]MissionStatus, 0, len(missionTransitions[s]))
	for _, candidate := range MissionStatuses {
		if _, ok := missionTransitions[s][candidate]; ok {
			next = append(next, candidate)
		}
	}
	return next
}

// ValidateSchedule checks the schedule window. Either bound may be absent.
func ValidateSchedule(start, end *time.Time) error {
	if start == nil || end == nil {
		return nil
	}
	if !start.Before(*end) {
		return &ScheduleError{Start: *start, End: *end}
	}
	return nil
}

// Mission is a schedulable unit of work.
type Mission struct {
	ID        uuid.UUID
	Code      string
	Title     string
	StartsAt  *time.Time
	EndsAt    *time.Time
	Status    MissionStatus
	Notes     *string
	OwnerID   *int64
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanTransition reports whether the mission may move to target.
func (m *Mission) CanTransition(target MissionStatus) bool {
	return CanTransition(m.Status, target)
}

// Transition moves the mission to target or returns a *TransitionError and
// leaves the mission untouched.
func (m *Mission) Transition(target MissionStatus) error {
	if !m.CanTransition(target) {
		return &TransitionError{From: m.Status, To: target}
	}
	m.Status = target
	return nil
}

// Start moves a scheduled mission into progress.
func (m *Mission) Start() error {
	return m.Transition(MissionStatusInProgress)
}

// Finish completes an in-progress mission.
func (m *Mission) Finish() error {
	return m.Transition(MissionStatusDone)
}

// Cancel abandons a mission that has not reached a terminal state.
func (m *Mission) Cancel() error {
	return m.Transition(MissionStatusCanceled)
}

// ValidateSchedule checks the mission's own schedule window.
func (m *Mission) ValidateSchedule() error {
	return ValidateSchedule(m.StartsAt, m.EndsAt)
}
