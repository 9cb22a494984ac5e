package models

import (
	"fmt"
	"strings"
	"time"
)

// AlertEvent describes a single rising-edge trigger of a level.
type AlertEvent struct {
	Symbol       string    `json:"symbol"`
	LevelIndex   int       `json:"level_index"`
	Timeframe    string    `json:"timeframe"`
	TriggerPrice float64   `json:"trigger_price"`
	MarkPrice    float64   `json:"mark_price"`
	PctBelow     float64   `json:"pct_below"`
	FiredAt      time.Time `json:"fired_at"`
}

// Title renders the notification title.
func (e *AlertEvent) Title() string {
	return fmt.Sprintf("%s alert triggered", e.Symbol)
}

// Body renders the notification body.
func (e *AlertEvent) Body() string {
	return fmt.Sprintf("%s level: $%.2f\nCurrent: $%.2f",
		strings.ToUpper(e.Timeframe), e.TriggerPrice, e.MarkPrice)
}
