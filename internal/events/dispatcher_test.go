package events

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/mission-service/internal/domain"
)

func TestDispatcherDeliversToEveryHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")

	var calls []string
	d.Subscribe(EventMissionStatusChanged, func(context.Context, Event) error {
		calls = append(calls, "first")
		return boom
	})
	d.Subscribe(EventMissionStatusChanged, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventMissionCreated, func(context.Context, Event) error {
		calls = append(calls, "created")
		return nil
	})

	event := NewEvent(EventMissionStatusChanged, uuid.New(), nil, MissionStatusChangedPayload{
		OldStatus: domain.MissionStatusDraft,
		NewStatus: domain.MissionStatusScheduled,
	})
	err := d.Publish(context.Background(), event)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestNewEvent(t *testing.T) {
	id := uuid.New()
	actor := int64(4)
	event := NewEvent(EventMissionCreated, id, &actor, nil)
	assert.Equal(t, id.String(), event.MissionID)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, &actor, event.ActorID)
	assert.False(t, event.Timestamp.IsZero())
}
