package usecase

import (
	"sort"

	"LevelWatch/internal/domain/models"
	drepo "LevelWatch/internal/domain/repository"
)

// TimeframeAll is the filter sentinel matching every timeframe.
const TimeframeAll = "all"

// Projector derives the sorted-by-urgency, optionally timeframe-filtered
// watch-list view from an instrument and its current price sample.
type Projector struct {
	eval *Evaluator
}

// NewProjector creates a Projector.
func NewProjector(eval *Evaluator) *Projector {
	return &Projector{eval: eval}
}

// Project filters levels by timeframe and ranks them: triggered levels
// first, then ascending distance percentage, ties broken by insertion
// order. Each view row keeps the level's index in the unfiltered list.
func (p *Projector) Project(inst *models.Instrument, price models.PriceSample, filter string) *models.MonitorSnapshot {
	views := make([]models.LevelView, 0, len(inst.TriggerLevels))
	for i, lvl := range inst.TriggerLevels {
		if filter != TimeframeAll && filter != "" && effectiveTimeframe(lvl) != filter {
			continue
		}
		views = append(views, models.LevelView{
			OriginalIndex: i,
			Level:         lvl,
			Distance:      p.eval.Evaluate(price, lvl.TriggerPrice),
		})
	}

	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i], views[j]
		if !price.Known {
			// No reference price yet: order by trigger price.
			return a.Level.TriggerPrice < b.Level.TriggerPrice
		}
		if a.Distance.Triggered != b.Distance.Triggered {
			return a.Distance.Triggered
		}
		if a.Distance.Triggered {
			return false // stable: triggered levels keep insertion order
		}
		return a.Distance.Percent < b.Distance.Percent
	})

	return &models.MonitorSnapshot{
		Symbol:     inst.Symbol,
		Price:      price,
		Timeframes: availableTimeframes(inst),
		Levels:     views,
	}
}

// effectiveTimeframe is the level's timeframe, defaulting to weekly when
// absent. Unrecognized values are kept as-is so they filter and list under
// their own label.
func effectiveTimeframe(lvl models.TriggerLevel) string {
	if lvl.Timeframe == "" {
		return string(drepo.DefaultTimeframe())
	}
	return lvl.Timeframe
}

// availableTimeframes returns the distinct timeframes present, in canonical
// precedence (monthly first), unrecognized values last.
func availableTimeframes(inst *models.Instrument) []string {
	seen := make(map[string]bool)
	var tfs []string
	for _, lvl := range inst.TriggerLevels {
		tf := effectiveTimeframe(lvl)
		if !seen[tf] {
			seen[tf] = true
			tfs = append(tfs, tf)
		}
	}
	sort.SliceStable(tfs, func(i, j int) bool {
		ri, rj := drepo.TimeframeRank(drepo.Timeframe(tfs[i])), drepo.TimeframeRank(drepo.Timeframe(tfs[j]))
		if ri != rj {
			return ri < rj
		}
		return tfs[i] < tfs[j]
	})
	return tfs
}
