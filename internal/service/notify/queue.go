package notify

import (
	"context"
	"fmt"

	"LevelWatch/internal/domain/models"
	drepo "LevelWatch/internal/domain/repository"
	"LevelWatch/pkg/logger"
	"LevelWatch/pkg/queue"
)

// JobAlertNotify is the queue message type carrying alert notifications.
const JobAlertNotify = "alert.notify"

// QueueNotifier hands notifications to the background queue so slow
// delivery channels never sit on the alert path.
type QueueNotifier struct {
	queue queue.QueueService
}

// NewQueueNotifier creates a QueueNotifier.
func NewQueueNotifier(q queue.QueueService) drepo.Notifier {
	return &QueueNotifier{queue: q}
}

// Notify enqueues the event for background delivery.
func (n *QueueNotifier) Notify(ctx context.Context, event *models.AlertEvent) error {
	if err := n.queue.PublishMessage(ctx, JobAlertNotify, event); err != nil {
		return fmt.Errorf("enqueue notification: %w: %v", drepo.ErrNotifyUnavailable, err)
	}
	return nil
}

// NotifyJob drains queued notifications and delivers them through the
// terminal notifier.
type NotifyJob struct {
	delegate drepo.Notifier
	logger   *logger.Logger
}

// NewNotifyJob creates a NotifyJob delivering through delegate.
func NewNotifyJob(delegate drepo.Notifier, log *logger.Logger) *NotifyJob {
	return &NotifyJob{delegate: delegate, logger: log}
}

func (j *NotifyJob) Name() string { return "alert_notify_job" }

func (j *NotifyJob) Type() string { return JobAlertNotify }

// Handle delivers one queued notification. Returning an error lets the
// queue retry per its policy.
func (j *NotifyJob) Handle(ctx context.Context, payload interface{}) error {
	event, err := queue.ParsePayload[models.AlertEvent](payload)
	if err != nil {
		return fmt.Errorf("parse notification payload: %w", err)
	}
	if err := j.delegate.Notify(ctx, event); err != nil {
		j.logger.Warn("queued notification delivery failed",
			logger.String("symbol", event.Symbol),
			logger.Error(err))
		return err
	}
	return nil
}
