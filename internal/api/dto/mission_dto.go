package dto

import (
	"errors"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"

	"github.com/spec-kit/mission-service/internal/domain"
)

var missionCodePattern = regexp.MustCompile(`^[A-Z0-9-]+$`)

// notBlank rejects strings made only of whitespace; titles are stored trimmed.
var notBlank = validation.By(func(value interface{}) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case *string:
		if v != nil {
			s = *v
		}
	}
	if s != "" && strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
})

// MissionCreateRequest payload for a new mission.
type MissionCreateRequest struct {
	Code     string     `json:"code"`
	Title    string     `json:"title"`
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
	Notes    *string    `json:"notes"`
	OwnerID  *int64     `json:"owner_id"`
}

// Validate checks field formats. Schedule ordering is checked by the domain.
func (r MissionCreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required, validation.Length(3, 40), validation.Match(missionCodePattern)),
		validation.Field(&r.Title, validation.Required, notBlank, validation.RuneLength(1, 255)),
		validation.Field(&r.Notes, validation.RuneLength(0, 2000)),
		validation.Field(&r.OwnerID, validation.Min(int64(1))),
	)
}

// MissionUpdateRequest payload for PATCH; omitted fields stay unchanged.
type MissionUpdateRequest struct {
	Title    *string    `json:"title"`
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
	Notes    *string    `json:"notes"`
	OwnerID  *int64     `json:"owner_id"`
}

// Validate checks field formats.
func (r MissionUpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, notBlank, validation.RuneLength(1, 255)),
		validation.Field(&r.Notes, validation.RuneLength(0, 2000)),
		validation.Field(&r.OwnerID, validation.Min(int64(1))),
	)
}

// MissionTransitionRequest asks for a status change.
type MissionTransitionRequest struct {
	Status string `json:"status"`
}

// Validate checks the requested status is known.
func (r MissionTransitionRequest) Validate() error {
	statuses := make([]interface{}, len(domain.MissionStatuses))
	for i, status := range domain.MissionStatuses {
		statuses[i] = string(status)
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required, validation.In(statuses...)),
	)
}

// MissionResponse is the public view of a mission.
type MissionResponse struct {
	ID           uuid.UUID              `json:"id"`
	Code         string                 `json:"code"`
	Title        string                 `json:"title"`
	StartsAt     *time.Time             `json:"starts_at"`
	EndsAt       *time.Time             `json:"ends_at"`
	Status       domain.MissionStatus   `json:"status"`
	NextStatuses []domain.MissionStatus `json:"next_statuses"`
	Notes        *string                `json:"notes"`
	OwnerID      *int64                 `json:"owner_id"`
	Version      int64                  `json:"version"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// NewMissionResponse maps a domain mission.
func NewMissionResponse(m *domain.Mission) MissionResponse {
	return MissionResponse{
		ID:           m.ID,
		Code:         m.Code,
		Title:        m.Title,
		StartsAt:     m.StartsAt,
		EndsAt:       m.EndsAt,
		Status:       m.Status,
		NextStatuses: domain.NextStatuses(m.Status),
		Notes:        m.Notes,
		OwnerID:      m.OwnerID,
		Version:      m.Version,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// NewMissionListResponse maps a page of missions.
func NewMissionListResponse(missions []domain.Mission) []MissionResponse {
	result := make([]MissionResponse, 0, len(missions))
	for i := range missions {
		result = append(result, NewMissionResponse(&missions[i]))
	}
	return result
}

// MissionHistoryResponse is one audit entry.
type MissionHistoryResponse struct {
	ID          int64                `json:"id"`
	OldStatus   domain.MissionStatus `json:"old_status"`
	NewStatus   domain.MissionStatus `json:"new_status"`
	ChangedByID *int64               `json:"changed_by_id"`
	CreatedAt   time.Time            `json:"created_at"`
}

// NewMissionHistoryResponse maps the audit trail.
func NewMissionHistoryResponse(entries []domain.MissionHistory) []MissionHistoryResponse {
	result := make([]MissionHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		result = append(result, MissionHistoryResponse{
			ID:          entry.ID,
			OldStatus:   entry.OldStatus,
			NewStatus:   entry.NewStatus,
			ChangedByID: entry.ChangedByID,
			CreatedAt:   entry.CreatedAt,
		})
	}
	return result
}
