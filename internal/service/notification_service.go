package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/mission-service/internal/config"
	"github.com/spec-kit/mission-service/internal/events"
	"github.com/spec-kit/mission-service/internal/observability"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	logger  *zap.Logger
	metrics *observability.Metrics
	cfg     config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(logger *zap.Logger, metrics *observability.Metrics, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		logger:  logger,
		metrics: metrics,
		cfg:     cfg,
	}
}

// Handle routes one event to its notification channel.
func (n *NotificationService) Handle(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.EventMissionCreated:
		n.logger.Info("MissionCreated", zap.String("mission_id", event.MissionID), zap.Any("payload", event.Payload))
	case events.EventMissionStatusChanged:
		n.logger.Info("MissionStatusChanged", zap.String("mission_id", event.MissionID), zap.Any("payload", event.Payload))
		n.sendWebhookNotificationStub(ctx, event)
	default:
		n.logger.Debug("ignoring event", zap.String("event_type", string(event.Type)))
		return nil
	}
	n.metrics.RecordNotification(string(event.Type), nil)
	return nil
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("mission_id", event.MissionID),
		zap.String("event_type", string(event.Type)))
}
