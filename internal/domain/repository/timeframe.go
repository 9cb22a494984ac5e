package repository

import "strings"

// Timeframe is the historical sampling period a level was derived from.
type Timeframe string

const (
	TFMonthly Timeframe = "1M"
	TFWeekly  Timeframe = "1w"
	TFDaily   Timeframe = "1d"
	TF4Hour   Timeframe = "4h"
	TF1Hour   Timeframe = "1h"
)

// timeframeOrder is the canonical display precedence.
var timeframeOrder = map[Timeframe]int{
	TFMonthly: 0,
	TFWeekly:  1,
	TFDaily:   2,
	TF4Hour:   3,
	TF1Hour:   4,
}

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	_, ok := timeframeOrder[tf]
	return ok
}

// DefaultTimeframe returns the default timeframe.
func DefaultTimeframe() Timeframe { return TFWeekly }

// NormalizeTimeframe converts raw string to a valid timeframe (or default).
func NormalizeTimeframe(s string) Timeframe {
	if s == "" {
		return DefaultTimeframe()
	}
	tf := Timeframe(s)
	if IsValidTimeframe(tf) {
		return tf
	}
	return DefaultTimeframe()
}

// TimeframeRank returns the canonical sort position of tf. Unrecognized
// values sort last.
func TimeframeRank(tf Timeframe) int {
	if r, ok := timeframeOrder[tf]; ok {
		return r
	}
	return len(timeframeOrder)
}

// TimeframeLabel returns the display label for tf (e.g. "1W").
func TimeframeLabel(tf Timeframe) string {
	if tf == "" {
		tf = DefaultTimeframe()
	}
	return strings.ToUpper(string(tf))
}
