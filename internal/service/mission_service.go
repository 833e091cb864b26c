package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/mission-service/internal/domain"
	"github.com/spec-kit/mission-service/internal/events"
	"github.com/spec-kit/mission-service/internal/observability"
	"github.com/spec-kit/mission-service/internal/repository"
)

var (
	// ErrMissionNotFound is returned when the mission id does not exist.
	ErrMissionNotFound = errors.New("mission not found")
	// ErrMissionCodeTaken is returned when another mission already uses the code.
	ErrMissionCodeTaken = errors.New("mission code is already in use")
)

// MissionService coordinates mission workflows.
type MissionService struct {
	missions   repository.MissionRepository
	history    repository.MissionHistoryRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// MissionDependencies bundles collaborators for the mission service.
type MissionDependencies struct {
	MissionRepo repository.MissionRepository
	HistoryRepo repository.MissionHistoryRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Metrics     *observability.Metrics
}

// MissionCreateInput describes mission creation payload.
type MissionCreateInput struct {
	Code     string
	Title    string
	StartsAt *time.Time
	EndsAt   *time.Time
	Notes    *string
	OwnerID  *int64
}

// MissionUpdateInput carries the fields to change; nil leaves a field as is.
type MissionUpdateInput struct {
	Title    *string
	StartsAt *time.Time
	EndsAt   *time.Time
	Notes    *string
	OwnerID  *int64
}

// MissionListFilter describes listing filters.
type MissionListFilter struct {
	OwnerID  *int64
	Statuses []domain.MissionStatus
	Limit    int
	Offset   int
}

// NewMissionService builds the service.
func NewMissionService(deps MissionDependencies) *MissionService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MissionService{
		missions:   deps.MissionRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
	}
}

// CreateMission stores a new DRAFT mission. The schedule is validated before
// anything is written; the owner defaults to the caller.
func (s *MissionService) CreateMission(ctx context.Context, actorID int64, input MissionCreateInput) (*domain.Mission, error) {
	if err := domain.ValidateSchedule(input.StartsAt, input.EndsAt); err != nil {
		return nil, err
	}

	mission := &domain.Mission{
		Code:     strings.TrimSpace(input.Code),
		Title:    strings.TrimSpace(input.Title),
		StartsAt: input.StartsAt,
		EndsAt:   input.EndsAt,
		Status:   domain.MissionStatusDraft,
		Notes:    input.Notes,
		OwnerID:  input.OwnerID,
	}
	if mission.OwnerID == nil {
		owner := actorID
		mission.OwnerID = &owner
	}

	if err := s.missions.Create(ctx, mission); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrMissionCodeTaken
		}
		return nil, err
	}

	s.logger.Info("mission created",
		zap.String("mission_id", mission.ID.String()),
		zap.String("code", mission.Code),
		zap.Int64("actor_id", actorID))
	s.publishEvent(ctx, events.NewEvent(events.EventMissionCreated, mission.ID, &actorID, events.MissionCreatedPayload{
		Code:   mission.Code,
		Title:  mission.Title,
		Status: mission.Status,
	}))
	return mission, nil
}

// GetMission loads a mission by id.
func (s *MissionService) GetMission(ctx context.Context, id uuid.UUID) (*domain.Mission, error) {
	mission, err := s.missions.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrMissionNotFound
		}
		return nil, err
	}
	return mission, nil
}

// ListMissions returns a page of missions.
func (s *MissionService) ListMissions(ctx context.Context, filter MissionListFilter) ([]domain.Mission, error) {
	missions, err := s.missions.List(ctx, repository.MissionFilter{
		OwnerID:  filter.OwnerID,
		Statuses: filter.Statuses,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	})
	if err != nil {
		return nil, err
	}
	if missions == nil {
		missions = []domain.Mission{}
	}
	return missions, nil
}

// UpdateMission changes descriptive fields and the schedule. Status is only
// changed through TransitionMission.
func (s *MissionService) UpdateMission(ctx context.Context, id uuid.UUID, input MissionUpdateInput) (*domain.Mission, error) {
	mission, err := s.GetMission(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		mission.Title = strings.TrimSpace(*input.Title)
	}
	if input.StartsAt != nil {
		mission.StartsAt = input.StartsAt
	}
	if input.EndsAt != nil {
		mission.EndsAt = input.EndsAt
	}
	if input.Notes != nil {
		mission.Notes = input.Notes
	}
	if input.OwnerID != nil {
		mission.OwnerID = input.OwnerID
	}

	if err := mission.ValidateSchedule(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, mission); err != nil {
		return nil, err
	}
	return mission, nil
}

// TransitionMission moves the mission to target if the transition table
// allows it, records the change and publishes an event. Requesting the
// current status is a no-op.
func (s *MissionService) TransitionMission(ctx context.Context, actorID int64, id uuid.UUID, target domain.MissionStatus) (*domain.Mission, error) {
	mission, err := s.GetMission(ctx, id)
	if err != nil {
		return nil, err
	}

	oldStatus := mission.Status
	if err := mission.Transition(target); err != nil {
		s.metrics.RecordTransition(string(oldStatus), string(target), false)
		s.logger.Warn("mission transition rejected",
			zap.String("mission_id", id.String()),
			zap.String("from", string(oldStatus)),
			zap.String("to", string(target)))
		return nil, err
	}
	if oldStatus == target {
		return mission, nil
	}

	entry := &domain.MissionHistory{
		MissionID:   mission.ID,
		ChangedByID: &actorID,
		OldStatus:   oldStatus,
		NewStatus:   mission.Status,
	}
	if err := s.writeError(mission.ID, s.missions.UpdateStatus(ctx, mission, entry)); err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(string(oldStatus), string(mission.Status), true)
	s.logger.Info("mission status changed",
		zap.String("mission_id", id.String()),
		zap.String("from", string(oldStatus)),
		zap.String("to", string(mission.Status)),
		zap.Int64("actor_id", actorID))
	s.publishEvent(ctx, events.NewEvent(events.EventMissionStatusChanged, mission.ID, &actorID, events.MissionStatusChangedPayload{
		OldStatus: oldStatus,
		NewStatus: mission.Status,
	}))
	return mission, nil
}

// StartMission moves a SCHEDULED mission to IN_PROGRESS.
func (s *MissionService) StartMission(ctx context.Context, actorID int64, id uuid.UUID) (*domain.Mission, error) {
	return s.TransitionMission(ctx, actorID, id, domain.MissionStatusInProgress)
}

// FinishMission moves an IN_PROGRESS mission to DONE.
func (s *MissionService) FinishMission(ctx context.Context, actorID int64, id uuid.UUID) (*domain.Mission, error) {
	return s.TransitionMission(ctx, actorID, id, domain.MissionStatusDone)
}

// CancelMission cancels any non-terminal mission.
func (s *MissionService) CancelMission(ctx context.Context, actorID int64, id uuid.UUID) (*domain.Mission, error) {
	return s.TransitionMission(ctx, actorID, id, domain.MissionStatusCanceled)
}

// ListHistory returns the status audit trail, oldest first.
func (s *MissionService) ListHistory(ctx context.Context, id uuid.UUID) ([]domain.MissionHistory, error) {
	if _, err := s.GetMission(ctx, id); err != nil {
		return nil, err
	}
	return s.history.ListByMission(ctx, id)
}

func (s *MissionService) save(ctx context.Context, mission *domain.Mission) error {
	return s.writeError(mission.ID, s.missions.Update(ctx, mission))
}

func (s *MissionService) writeError(id uuid.UUID, err error) error {
	switch {
	case err == nil:
		return nil
	case repository.IsNotFound(err):
		return ErrMissionNotFound
	case errors.Is(err, repository.ErrStaleMission):
		s.logger.Warn("stale mission write", zap.String("mission_id", id.String()))
		return err
	default:
		return err
	}
}

func (s *MissionService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
}
