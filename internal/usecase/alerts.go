package usecase

import (
	"context"
	"sync"
	"time"

	"LevelWatch/internal/domain/models"
	drepo "LevelWatch/internal/domain/repository"
	applogger "LevelWatch/pkg/logger"
)

// LevelState is the alert state of one (symbol, level-index) pair.
type LevelState int

const (
	StateArmedSafe LevelState = iota
	StateArmedTriggered
	StateDisarmed
)

func (s LevelState) String() string {
	switch s {
	case StateArmedTriggered:
		return "armed_triggered"
	case StateDisarmed:
		return "disarmed"
	default:
		return "armed_safe"
	}
}

// AlertSink receives fired alert events. Implemented by the alert pipeline.
type AlertSink interface {
	Process(ctx context.Context, event *models.AlertEvent) error
}

type levelKey struct {
	symbol string
	index  int
}

// AlertCenter performs per-level edge detection across polling cycles and
// pushes at most one event per rising edge into the sink.
//
// Edge memory keeps tracking price while a level is disarmed; only delivery
// is suppressed. Consequently re-enabling an alert while price is still at
// or below the trigger never re-fires: a fresh crossing (price back above
// the trigger, then at or below again) is required. This policy applies
// uniformly to every level.
type AlertCenter struct {
	sink    AlertSink
	metrics drepo.Metrics
	logger  *applogger.Logger

	mu   sync.Mutex
	seen map[levelKey]bool // was triggered on the last observed cycle
}

// NewAlertCenter creates an AlertCenter.
func NewAlertCenter(sink AlertSink, metrics drepo.Metrics, lgr *applogger.Logger) *AlertCenter {
	return &AlertCenter{
		sink:    sink,
		metrics: metrics,
		logger:  lgr,
		seen:    make(map[levelKey]bool),
	}
}

// Observe evaluates one instrument against a fresh price sample and fires
// edges. Returns the number of currently triggered armed levels.
//
// A sample that is not Known is skipped entirely: a failed fetch leaves the
// edge memory untouched rather than counting as a recovery.
func (a *AlertCenter) Observe(ctx context.Context, inst *models.Instrument, price models.PriceSample, now time.Time) int {
	if inst == nil || !price.Known {
		return 0
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	triggered := 0
	for i := range inst.TriggerLevels {
		lvl := &inst.TriggerLevels[i]
		key := levelKey{symbol: inst.Symbol, index: i}

		isNow := price.Price <= lvl.TriggerPrice
		was := a.seen[key]
		a.seen[key] = isNow

		if lvl.AlertDisabled {
			continue
		}
		if isNow {
			triggered++
		}
		if isNow && !was {
			a.fire(ctx, inst, i, lvl, price, now)
		}
	}
	return triggered
}

// State reports the current state of one level for introspection.
func (a *AlertCenter) State(symbol string, index int, disabled bool) LevelState {
	if disabled {
		return StateDisarmed
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.seen[levelKey{symbol: symbol, index: index}] {
		return StateArmedTriggered
	}
	return StateArmedSafe
}

// Prune drops edge memory for symbols no longer tracked, so a re-added
// instrument starts over as untriggered.
func (a *AlertCenter) Prune(active map[string]bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for key := range a.seen {
		if !active[key.symbol] {
			delete(a.seen, key)
		}
	}
}

func (a *AlertCenter) fire(ctx context.Context, inst *models.Instrument, index int, lvl *models.TriggerLevel, price models.PriceSample, now time.Time) {
	tf := drepo.NormalizeTimeframe(lvl.Timeframe)
	event := &models.AlertEvent{
		Symbol:       inst.Symbol,
		LevelIndex:   index,
		Timeframe:    string(tf),
		TriggerPrice: lvl.TriggerPrice,
		MarkPrice:    price.Price,
		PctBelow:     (lvl.TriggerPrice - price.Price) / lvl.TriggerPrice * 100,
		FiredAt:      now,
	}

	a.metrics.RecordAlertFired(inst.Symbol, event.Timeframe)
	a.logger.Info("alert fired",
		applogger.String("symbol", inst.Symbol),
		applogger.Int("level", index),
		applogger.String("timeframe", event.Timeframe),
		applogger.Float64("trigger_price", lvl.TriggerPrice),
		applogger.Float64("mark_price", price.Price))

	// Delivery failure never breaks the polling cycle.
	if err := a.sink.Process(ctx, event); err != nil {
		a.metrics.RecordError("alert_sink")
		a.logger.Warn("alert delivery failed",
			applogger.String("symbol", inst.Symbol),
			applogger.Int("level", index),
			applogger.Error(err))
	}
}
