package models

import (
	"strings"
	"time"
)

// CanonicalSymbol normalizes user-supplied symbols to the uppercase form
// used as the identity key everywhere (store keys, price map, edge state).
func CanonicalSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// TriggerLevel is a stored price threshold derived from a historical support
// zone. TriggerPrice is immutable after creation; AlertDisabled is the only
// externally mutable field and is always written through the level store.
type TriggerLevel struct {
	TriggerPrice  float64 `json:"trigger_price"`
	Bottom        float64 `json:"bottom"`
	RallyLength   int     `json:"rally_length"`
	TotalMovePct  float64 `json:"total_move_pct"`
	ZoneIndex     int     `json:"zone_index"`
	Timeframe     string  `json:"timeframe"`
	AlertDisabled bool    `json:"alert_disabled"`
}

// Instrument is a tracked symbol and its ordered trigger levels. Level order
// is insertion order from zone discovery and is never re-sorted by the store.
type Instrument struct {
	Symbol        string         `json:"symbol"`
	Timeframe     string         `json:"timeframe"`
	Active        bool           `json:"active"`
	Source        string         `json:"source"`
	LastUpdated   time.Time      `json:"last_updated"`
	TriggerLevels []TriggerLevel `json:"trigger_levels"`
}

// PriceSample is the last known mark price for a symbol. Known is false until
// the first successful fetch; a failed fetch keeps the previous sample.
type PriceSample struct {
	Symbol string
	Price  float64
	Known  bool
	At     time.Time
}
