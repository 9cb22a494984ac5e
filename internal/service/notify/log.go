package notify

import (
	"context"

	"LevelWatch/internal/domain/models"
	drepo "LevelWatch/internal/domain/repository"
	"LevelWatch/pkg/logger"
)

// LogNotifier renders alert notifications into the structured log. Always
// available; the delivery of last resort when every richer channel is down.
type LogNotifier struct {
	logger *logger.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(log *logger.Logger) drepo.Notifier {
	return &LogNotifier{logger: log}
}

// Notify writes the rendered notification. Never fails.
func (n *LogNotifier) Notify(_ context.Context, event *models.AlertEvent) error {
	n.logger.Info("alert notification",
		logger.String("title", event.Title()),
		logger.String("body", event.Body()),
		logger.String("symbol", event.Symbol),
		logger.Int("level", event.LevelIndex),
		logger.String("timeframe", event.Timeframe))
	return nil
}
