package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allowedEdges = map[MissionStatus][]MissionStatus{
	MissionStatusDraft:      {MissionStatusScheduled, MissionStatusCanceled},
	MissionStatusScheduled:  {MissionStatusInProgress, MissionStatusCanceled},
	MissionStatusInProgress: {MissionStatusDone, MissionStatusCanceled},
	MissionStatusDone:       {},
	MissionStatusCanceled:   {},
}

func isEdge(from, to MissionStatus) bool {
	for _, candidate := range allowedEdges[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

func TestTransitionTableClosure(t *testing.T) {
	for _, from := range MissionStatuses {
		for _, to := range MissionStatuses {
			from, to := from, to
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				m := &Mission{Status: from}
				err := m.Transition(to)

				switch {
				case from == to:
					require.NoError(t, err)
					assert.Equal(t, from, m.Status)
				case isEdge(from, to):
					require.NoError(t, err)
					assert.Equal(t, to, m.Status)
				default:
					require.ErrorIs(t, err, ErrInvalidTransition)
					var te *TransitionError
					require.True(t, errors.As(err, &te))
					assert.Equal(t, from, te.From)
					assert.Equal(t, to, te.To)
					assert.Equal(t, from, m.Status, "status must not change on rejection")
				}
			})
		}
	}
}

func TestTerminalStatesRejectOutgoing(t *testing.T) {
	for _, terminal := range []MissionStatus{MissionStatusDone, MissionStatusCanceled} {
		assert.True(t, terminal.Terminal())
		assert.Empty(t, NextStatuses(terminal))
		for _, target := range MissionStatuses {
			if target == terminal {
				continue
			}
			assert.False(t, CanTransition(terminal, target), "%s -> %s", terminal, target)
		}
	}
	assert.False(t, MissionStatusDraft.Terminal())
}

func TestCanTransitionUnknownStatus(t *testing.T) {
	assert.False(t, CanTransition(MissionStatusDraft, MissionStatus("ARCHIVED")))
	assert.False(t, CanTransition(MissionStatus("ARCHIVED"), MissionStatusDone))
}

func TestNamedTransitions(t *testing.T) {
	t.Run("start from draft is rejected", func(t *testing.T) {
		m := &Mission{Status: MissionStatusDraft}
		err := m.Start()
		require.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, MissionStatusDraft, m.Status)
	})

	t.Run("schedule then start", func(t *testing.T) {
		m := &Mission{Status: MissionStatusDraft}
		require.NoError(t, m.Transition(MissionStatusScheduled))
		require.NoError(t, m.Start())
		assert.Equal(t, MissionStatusInProgress, m.Status)
	})

	t.Run("finish requires in progress", func(t *testing.T) {
		m := &Mission{Status: MissionStatusScheduled}
		require.ErrorIs(t, m.Finish(), ErrInvalidTransition)

		m.Status = MissionStatusInProgress
		require.NoError(t, m.Finish())
		assert.Equal(t, MissionStatusDone, m.Status)
	})

	t.Run("cancel from done is rejected", func(t *testing.T) {
		m := &Mission{Status: MissionStatusDone}
		require.ErrorIs(t, m.Cancel(), ErrInvalidTransition)
	})

	t.Run("cancel from draft", func(t *testing.T) {
		m := &Mission{Status: MissionStatusDraft}
		require.NoError(t, m.Cancel())
		assert.Equal(t, MissionStatusCanceled, m.Status)
	})
}

func TestParseMissionStatus(t *testing.T) {
	status, err := ParseMissionStatus("SCHEDULED")
	require.NoError(t, err)
	assert.Equal(t, MissionStatusScheduled, status)

	_, err = ParseMissionStatus("scheduled")
	require.ErrorIs(t, err, ErrUnknownStatus)

	_, err = ParseMissionStatus("CONFIRMED")
	require.ErrorIs(t, err, ErrUnknownStatus)
}

func TestValidateSchedule(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	before := start.Add(-time.Hour)
	after := start.Add(time.Hour)

	tests := []struct {
		name    string
		start   *time.Time
		end     *time.Time
		wantErr bool
	}{
		{"both missing", nil, nil, false},
		{"only start", &start, nil, false},
		{"only end", nil, &start, false},
		{"ordered", &start, &after, false},
		{"equal bounds", &start, &start, true},
		{"reversed", &start, &before, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSchedule(tt.start, tt.end)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidSchedule)
			var se *ScheduleError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, *tt.start, se.Start)
			assert.Equal(t, *tt.end, se.End)
		})
	}
}

func TestMissionValidateSchedule(t *testing.T) {
	start := time.Now().UTC()
	end := start.Add(-time.Hour)
	m := &Mission{StartsAt: &start, EndsAt: &end}
	require.ErrorIs(t, m.ValidateSchedule(), ErrInvalidSchedule)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeEmail("  A@X.com "))
}
