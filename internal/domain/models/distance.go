package models

import "fmt"

// Severity classifies how urgent a level is relative to the current price.
// Triggered outranks every non-triggered severity regardless of percentage.
type Severity int

const (
	SeverityUnknown Severity = iota
	SeveritySafe
	SeverityCaution
	SeverityNear
	SeverityTriggered
)

func (s Severity) String() string {
	switch s {
	case SeveritySafe:
		return "safe"
	case SeverityCaution:
		return "caution"
	case SeverityNear:
		return "near"
	case SeverityTriggered:
		return "triggered"
	default:
		return "unknown"
	}
}

// Display color tokens, one per severity band.
const (
	ColorSafe    = "#4CAF50"
	ColorCaution = "#FF9800"
	ColorNear    = "#F44336"
	ColorUnknown = "#999999"
)

// Distance is the evaluated relation between current price and a trigger
// price. Percent is the distance above the trigger when not triggered, and
// the distance below it when triggered.
type Distance struct {
	Known     bool     `json:"known"`
	Triggered bool     `json:"triggered"`
	Percent   float64  `json:"percent"`
	Severity  Severity `json:"severity"`
	Color     string   `json:"color"`
	Text      string   `json:"text"`
}

// UnknownDistance is the evaluation result when no price sample exists yet.
// It sorts after every known distance and renders neutrally.
func UnknownDistance() Distance {
	return Distance{Severity: SeverityUnknown, Color: ColorUnknown, Text: "--"}
}

// FormatDistanceText renders the human-facing distance label.
func FormatDistanceText(triggered bool, pct float64) string {
	if triggered {
		return fmt.Sprintf("TRIGGERED (%.1f%% below)", pct)
	}
	return fmt.Sprintf("%.1f%% above", pct)
}

// LevelView pairs a trigger level with its evaluated distance while keeping
// the level's index in the full, unfiltered list so toggle actions keep
// addressing the right level after sorting.
type LevelView struct {
	OriginalIndex int          `json:"original_index"`
	Level         TriggerLevel `json:"level"`
	Distance      Distance     `json:"distance"`
}

// MonitorSnapshot is the projected, ranked view of one instrument.
type MonitorSnapshot struct {
	Symbol     string      `json:"symbol"`
	Price      PriceSample `json:"price"`
	Timeframes []string    `json:"timeframes"`
	Levels     []LevelView `json:"levels"`
}

// SummaryEntry is one row of the ambient list-wide trigger summary.
type SummaryEntry struct {
	Symbol     string      `json:"symbol"`
	LevelCount int         `json:"level_count"`
	Triggered  int         `json:"triggered"`
	Price      PriceSample `json:"price"`
}
