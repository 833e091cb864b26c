package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/mission-service/internal/events"
)

// DefaultQueueSize bounds events waiting for delivery.
const DefaultQueueSize = 256

// NotificationWorker moves notification delivery off the request path.
type NotificationWorker struct {
	queue   chan events.Event
	handler events.EventHandler
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// StartNotificationWorker subscribes to mission events and delivers them to
// handler on a background goroutine until ctx is canceled.
func StartNotificationWorker(ctx context.Context, dispatcher events.Dispatcher, handler events.EventHandler, logger *zap.Logger, queueSize int) *NotificationWorker {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &NotificationWorker{
		queue:   make(chan events.Event, queueSize),
		handler: handler,
		logger:  logger,
	}

	dispatcher.Subscribe(events.EventMissionCreated, w.enqueue)
	dispatcher.Subscribe(events.EventMissionStatusChanged, w.enqueue)

	w.wg.Add(1)
	go w.run(ctx)
	return w
}

// enqueue never blocks the publisher; a full queue drops the event.
func (w *NotificationWorker) enqueue(_ context.Context, event events.Event) error {
	select {
	case w.queue <- event:
	default:
		w.logger.Warn("notification queue full; dropping event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
	}
	return nil
}

func (w *NotificationWorker) run(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case event := <-w.queue:
			w.deliver(event)
		}
	}
}

// drain delivers whatever is already queued at shutdown.
func (w *NotificationWorker) drain() {
	for {
		select {
		case event := <-w.queue:
			w.deliver(event)
		default:
			return
		}
	}
}

func (w *NotificationWorker) deliver(event events.Event) {
	if err := w.handler(context.Background(), event); err != nil {
		w.logger.Warn("notification delivery failed",
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
}

// Wait blocks until the worker has stopped.
func (w *NotificationWorker) Wait() {
	w.wg.Wait()
}
