package usecase

import (
	"context"
	"errors"
	"fmt"

	"LevelWatch/internal/domain/models"
	drepo "LevelWatch/internal/domain/repository"
	"LevelWatch/pkg/logger"
)

// ToggleReconciler applies per-level alert enable/disable requests:
// persist the flag first, then update the running monitor snapshot. If
// persistence fails the in-memory state is untouched, so the view never
// shows a flag the store will forget on restart.
type ToggleReconciler struct {
	store   drepo.LevelStore
	monitor *Monitor
	logger  *logger.Logger
}

// NewToggleReconciler creates a ToggleReconciler.
func NewToggleReconciler(store drepo.LevelStore, monitor *Monitor, log *logger.Logger) *ToggleReconciler {
	return &ToggleReconciler{store: store, monitor: monitor, logger: log}
}

// SetAlertDisabled persists the flag for one level and mirrors it onto the
// live snapshot. The level must exist in the store; a snapshot miss after a
// successful persist means the instrument was removed concurrently and is
// logged, not returned, since the store already holds the truth.
func (t *ToggleReconciler) SetAlertDisabled(ctx context.Context, symbol string, index int, disabled bool) error {
	symbol = models.CanonicalSymbol(symbol)

	if err := t.store.SetLevelAlertDisabled(ctx, symbol, index, disabled); err != nil {
		return fmt.Errorf("persist alert flag for %s[%d]: %w", symbol, index, err)
	}

	if err := t.monitor.ApplyToggle(symbol, index, disabled); err != nil {
		if errors.Is(err, drepo.ErrNotFound) {
			t.logger.Warn("toggle persisted for untracked level",
				logger.String("symbol", symbol),
				logger.Int("index", index))
			return nil
		}
		return err
	}

	t.logger.Info("alert flag updated",
		logger.String("symbol", symbol),
		logger.Int("index", index),
		logger.Bool("disabled", disabled))
	return nil
}
