package usecase

import (
	"fmt"

	"LevelWatch/internal/domain/models"
)

// Evaluator computes the distance between a price sample and a trigger
// price. Pure and deterministic; band thresholds come from configuration.
type Evaluator struct {
	farPct  float64
	nearPct float64
}

// NewEvaluator creates an evaluator with the given severity band thresholds
// (percent above trigger). Distances above farPct are safe, between nearPct
// and farPct caution, below nearPct near.
func NewEvaluator(farPct, nearPct float64) *Evaluator {
	if farPct <= 0 {
		farPct = 10
	}
	if nearPct <= 0 || nearPct >= farPct {
		nearPct = farPct / 2
	}
	return &Evaluator{farPct: farPct, nearPct: nearPct}
}

// Evaluate classifies the current price against triggerPrice. A price at or
// below the trigger counts as triggered (equality triggers).
// Panics on a non-positive trigger
// price: the store validates positivity at level creation, so a violation
// here is corrupt data and must not be masked by a silent division.
func (e *Evaluator) Evaluate(price models.PriceSample, triggerPrice float64) models.Distance {
	if triggerPrice <= 0 {
		panic(fmt.Sprintf("evaluate: non-positive trigger price %v", triggerPrice))
	}

	if !price.Known {
		return models.UnknownDistance()
	}

	if price.Price > triggerPrice {
		pct := (price.Price - triggerPrice) / triggerPrice * 100
		sev, color := e.band(pct)
		return models.Distance{
			Known:    true,
			Percent:  pct,
			Severity: sev,
			Color:    color,
			Text:     models.FormatDistanceText(false, pct),
		}
	}

	pctBelow := (triggerPrice - price.Price) / triggerPrice * 100
	return models.Distance{
		Known:     true,
		Triggered: true,
		Percent:   pctBelow,
		Severity:  models.SeverityTriggered,
		Color:     models.ColorNear,
		Text:      models.FormatDistanceText(true, pctBelow),
	}
}

func (e *Evaluator) band(pct float64) (models.Severity, string) {
	switch {
	case pct > e.farPct:
		return models.SeveritySafe, models.ColorSafe
	case pct > e.nearPct:
		return models.SeverityCaution, models.ColorCaution
	default:
		return models.SeverityNear, models.ColorNear
	}
}
