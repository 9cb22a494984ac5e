package repository

import (
	"context"

	"LevelWatch/internal/domain/models"
)

// LevelStore is the canonical home of instruments and their trigger levels.
// The engine owns only derived state (prices, edge flags, ranking order).
type LevelStore interface {
	ListInstruments(ctx context.Context) ([]*models.Instrument, error)
	GetInstrument(ctx context.Context, symbol string) (*models.Instrument, error)
	PushLevels(ctx context.Context, symbol string, timeframe Timeframe, levels []models.TriggerLevel) (*models.Instrument, error)
	SetLevelAlertDisabled(ctx context.Context, symbol string, levelIndex int, disabled bool) error
	Deactivate(ctx context.Context, symbol string) error
	Health(ctx context.Context) error
	Close() error
}

// PriceFeed returns the latest mark price for one symbol.
type PriceFeed interface {
	MarkPrice(ctx context.Context, symbol string) (float64, error)
}

// ZoneFinder is the external zone-discovery service.
type ZoneFinder interface {
	SearchZones(ctx context.Context, symbol string, tf Timeframe) ([]models.Zone, error)
}

// Notifier delivers a fired alert. Best effort: implementations may be
// unavailable, and failures never propagate into the polling cycle.
type Notifier interface {
	Notify(ctx context.Context, event *models.AlertEvent) error
}

// AlertLog is an append-only audit of fired alerts.
type AlertLog interface {
	Init(ctx context.Context) error
	Append(ctx context.Context, event *models.AlertEvent) error
	Recent(ctx context.Context, symbol string, limit int) ([]*models.AlertEvent, error)
	Close() error
}

// Metrics records operational measurements.
type Metrics interface {
	RecordAlertFired(symbol, timeframe string)
	RecordError(kind string)
	RecordMarkPrice(symbol string, price float64)
	RecordTriggeredLevels(symbol string, n int)
	RecordLatency(op string, seconds float64)
}
