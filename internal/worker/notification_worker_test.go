package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/spec-kit/mission-service/internal/events"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNotificationWorkerDeliversAndDrains(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	dispatcher := events.NewInMemoryDispatcher()

	var mu sync.Mutex
	var got []events.EventType
	handler := func(_ context.Context, event events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, event.Type)
		return nil
	}

	w := StartNotificationWorker(ctx, dispatcher, handler, nil, 8)

	require.NoError(t, dispatcher.Publish(context.Background(), events.NewEvent(events.EventMissionCreated, uuid.New(), nil, nil)))
	require.NoError(t, dispatcher.Publish(context.Background(), events.NewEvent(events.EventMissionStatusChanged, uuid.New(), nil, nil)))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	w.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []events.EventType{events.EventMissionCreated, events.EventMissionStatusChanged}, got)
}

func TestNotificationWorkerDropsWhenFull(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	release := make(chan struct{})
	handler := func(context.Context, events.Event) error {
		<-release
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := StartNotificationWorker(ctx, dispatcher, handler, nil, 1)

	for i := 0; i < 5; i++ {
		require.NoError(t, dispatcher.Publish(context.Background(), events.NewEvent(events.EventMissionCreated, uuid.New(), nil, nil)))
	}

	close(release)
	cancel()
	w.Wait()
}
