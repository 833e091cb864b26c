package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/mission-service/internal/domain"
	"github.com/spec-kit/mission-service/internal/events"
	"github.com/spec-kit/mission-service/internal/repository"
	"github.com/spec-kit/mission-service/internal/repository/repositorytest"
)

type missionFixture struct {
	svc      *MissionService
	missions *repositorytest.Missions
	history  *repositorytest.History
	events   []events.Event
}

func newMissionFixture(t *testing.T) *missionFixture {
	t.Helper()
	missions := repositorytest.NewMissions()
	f := &missionFixture{
		missions: missions,
		history:  missions.History,
	}
	dispatcher := events.NewInMemoryDispatcher()
	record := func(_ context.Context, event events.Event) error {
		f.events = append(f.events, event)
		return nil
	}
	dispatcher.Subscribe(events.EventMissionCreated, record)
	dispatcher.Subscribe(events.EventMissionStatusChanged, record)

	f.svc = NewMissionService(MissionDependencies{
		MissionRepo: f.missions,
		HistoryRepo: f.history,
		Dispatcher:  dispatcher,
	})
	return f
}

func (f *missionFixture) create(t *testing.T, code string) *domain.Mission {
	t.Helper()
	mission, err := f.svc.CreateMission(context.Background(), 1, MissionCreateInput{Code: code, Title: "Mission " + code})
	require.NoError(t, err)
	return mission
}

func TestCreateMissionDefaults(t *testing.T) {
	f := newMissionFixture(t)
	mission := f.create(t, "OP-1")

	assert.Equal(t, domain.MissionStatusDraft, mission.Status)
	require.NotNil(t, mission.OwnerID)
	assert.Equal(t, int64(1), *mission.OwnerID)
	require.Len(t, f.events, 1)
	assert.Equal(t, events.EventMissionCreated, f.events[0].Type)
}

func TestCreateMissionRejectsReversedScheduleBeforeWrite(t *testing.T) {
	f := newMissionFixture(t)
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)

	_, err := f.svc.CreateMission(context.Background(), 1, MissionCreateInput{
		Code:     "OP-2",
		Title:    "Backwards",
		StartsAt: &start,
		EndsAt:   &end,
	})
	require.ErrorIs(t, err, domain.ErrInvalidSchedule)
	assert.Zero(t, f.missions.Writes)
	assert.Empty(t, f.events)
}

func TestCreateMissionDuplicateCode(t *testing.T) {
	f := newMissionFixture(t)
	f.create(t, "OP-1")

	_, err := f.svc.CreateMission(context.Background(), 1, MissionCreateInput{Code: "OP-1", Title: "Again"})
	require.ErrorIs(t, err, ErrMissionCodeTaken)
}

func TestStartRequiresScheduled(t *testing.T) {
	ctx := context.Background()
	f := newMissionFixture(t)
	mission := f.create(t, "OP-1")

	_, err := f.svc.StartMission(ctx, 1, mission.ID)
	var te *domain.TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, domain.MissionStatusDraft, te.From)
	assert.Equal(t, domain.MissionStatusInProgress, te.To)

	stored, err := f.svc.GetMission(ctx, mission.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MissionStatusDraft, stored.Status)

	_, err = f.svc.TransitionMission(ctx, 1, mission.ID, domain.MissionStatusScheduled)
	require.NoError(t, err)
	started, err := f.svc.StartMission(ctx, 1, mission.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MissionStatusInProgress, started.Status)

	finished, err := f.svc.FinishMission(ctx, 1, mission.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MissionStatusDone, finished.Status)

	_, err = f.svc.CancelMission(ctx, 1, mission.ID)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	history, err := f.svc.ListHistory(ctx, mission.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, domain.MissionStatusDraft, history[0].OldStatus)
	assert.Equal(t, domain.MissionStatusDone, history[2].NewStatus)
	require.NotNil(t, history[0].ChangedByID)
	assert.Equal(t, int64(1), *history[0].ChangedByID)
}

func TestTransitionToSameStatusIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newMissionFixture(t)
	mission := f.create(t, "OP-1")
	writes := f.missions.Writes

	same, err := f.svc.TransitionMission(ctx, 1, mission.ID, domain.MissionStatusDraft)
	require.NoError(t, err)
	assert.Equal(t, domain.MissionStatusDraft, same.Status)
	assert.Equal(t, writes, f.missions.Writes)

	history, err := f.svc.ListHistory(ctx, mission.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestTransitionStaleWrite(t *testing.T) {
	ctx := context.Background()
	f := newMissionFixture(t)
	mission := f.create(t, "OP-1")

	missions := &bumpingMissions{Missions: f.missions}
	f.svc.missions = missions

	_, err := f.svc.TransitionMission(ctx, 1, mission.ID, domain.MissionStatusScheduled)
	require.ErrorIs(t, err, repository.ErrStaleMission)

	history, err := f.svc.ListHistory(ctx, mission.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

// bumpingMissions lets another writer win between load and update.
type bumpingMissions struct {
	*repositorytest.Missions
}

func (b *bumpingMissions) GetByID(ctx context.Context, id uuid.UUID) (*domain.Mission, error) {
	mission, err := b.Missions.GetByID(ctx, id)
	if err == nil {
		b.Missions.Bump(id)
	}
	return mission, err
}

func TestTransitionHistoryFailureKeepsStatus(t *testing.T) {
	ctx := context.Background()
	f := newMissionFixture(t)
	mission := f.create(t, "OP-1")

	f.history.Err = errors.New("disk full")
	_, err := f.svc.TransitionMission(ctx, 1, mission.ID, domain.MissionStatusScheduled)
	require.Error(t, err)

	stored, err := f.svc.GetMission(ctx, mission.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MissionStatusDraft, stored.Status)
	assert.Equal(t, mission.Version, stored.Version)

	f.history.Err = nil
	moved, err := f.svc.TransitionMission(ctx, 1, mission.ID, domain.MissionStatusScheduled)
	require.NoError(t, err)
	assert.Equal(t, domain.MissionStatusScheduled, moved.Status)

	history, err := f.svc.ListHistory(ctx, mission.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.MissionStatusDraft, history[0].OldStatus)
}

func TestMissionNotFound(t *testing.T) {
	f := newMissionFixture(t)
	_, err := f.svc.GetMission(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrMissionNotFound)

	_, err = f.svc.CancelMission(context.Background(), 1, uuid.New())
	require.ErrorIs(t, err, ErrMissionNotFound)
}

func TestUpdateMission(t *testing.T) {
	ctx := context.Background()
	f := newMissionFixture(t)
	mission := f.create(t, "OP-1")

	start := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	title := "Renamed"
	updated, err := f.svc.UpdateMission(ctx, mission.ID, MissionUpdateInput{Title: &title, StartsAt: &start, EndsAt: &end})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, int64(2), updated.Version)

	writes := f.missions.Writes
	early := start.Add(-time.Hour)
	_, err = f.svc.UpdateMission(ctx, mission.ID, MissionUpdateInput{EndsAt: &early})
	require.ErrorIs(t, err, domain.ErrInvalidSchedule)
	assert.Equal(t, writes, f.missions.Writes)
}

func TestListMissions(t *testing.T) {
	ctx := context.Background()
	f := newMissionFixture(t)
	first := f.create(t, "OP-1")
	f.create(t, "OP-2")
	_, err := f.svc.TransitionMission(ctx, 1, first.ID, domain.MissionStatusScheduled)
	require.NoError(t, err)

	all, err := f.svc.ListMissions(ctx, MissionListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scheduled, err := f.svc.ListMissions(ctx, MissionListFilter{Statuses: []domain.MissionStatus{domain.MissionStatusScheduled}})
	require.NoError(t, err)
	require.Len(t, scheduled, 1)
	assert.Equal(t, "OP-1", scheduled[0].Code)

	other := int64(42)
	none, err := f.svc.ListMissions(ctx, MissionListFilter{OwnerID: &other})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
