package usecase

import (
	"testing"

	"LevelWatch/internal/domain/models"
)

func viewInstrument(levels ...models.TriggerLevel) *models.Instrument {
	return &models.Instrument{Symbol: "ETHUSD", Active: true, TriggerLevels: levels}
}

func TestProjectOrdersByUrgency(t *testing.T) {
	proj := NewProjector(NewEvaluator(10, 5))
	inst := viewInstrument(
		models.TriggerLevel{TriggerPrice: 80, Timeframe: "1w"},  // 25% above
		models.TriggerLevel{TriggerPrice: 105, Timeframe: "1w"}, // triggered
		models.TriggerLevel{TriggerPrice: 95, Timeframe: "1w"},  // ~5.26% above
		models.TriggerLevel{TriggerPrice: 100, Timeframe: "1w"}, // triggered (equality)
	)

	snap := proj.Project(inst, sample(100), TimeframeAll)
	if len(snap.Levels) != 4 {
		t.Fatalf("levels = %d, want 4", len(snap.Levels))
	}

	// Triggered first in insertion order, then ascending by distance.
	wantOrder := []int{1, 3, 2, 0}
	for i, want := range wantOrder {
		if snap.Levels[i].OriginalIndex != want {
			t.Fatalf("position %d has original index %d, want %d", i, snap.Levels[i].OriginalIndex, want)
		}
	}
	if !snap.Levels[0].Distance.Triggered || !snap.Levels[1].Distance.Triggered {
		t.Fatal("triggered levels must sort first")
	}
}

func TestProjectStableOnEqualDistance(t *testing.T) {
	proj := NewProjector(NewEvaluator(10, 5))
	inst := viewInstrument(
		models.TriggerLevel{TriggerPrice: 90},
		models.TriggerLevel{TriggerPrice: 90},
		models.TriggerLevel{TriggerPrice: 90},
	)

	snap := proj.Project(inst, sample(100), TimeframeAll)
	for i, lv := range snap.Levels {
		if lv.OriginalIndex != i {
			t.Fatalf("equal distances must keep insertion order, got %d at %d", lv.OriginalIndex, i)
		}
	}
}

func TestProjectFiltersByTimeframe(t *testing.T) {
	proj := NewProjector(NewEvaluator(10, 5))
	inst := viewInstrument(
		models.TriggerLevel{TriggerPrice: 80, Timeframe: "1d"},
		models.TriggerLevel{TriggerPrice: 90, Timeframe: "1w"},
		models.TriggerLevel{TriggerPrice: 70}, // empty timeframe defaults to weekly
	)

	snap := proj.Project(inst, sample(100), "1w")
	if len(snap.Levels) != 2 {
		t.Fatalf("levels = %d, want 2", len(snap.Levels))
	}
	for _, lv := range snap.Levels {
		if lv.OriginalIndex == 0 {
			t.Fatal("daily level must be filtered out of the weekly view")
		}
	}
}

func TestProjectUnknownPriceOrdersByTriggerPrice(t *testing.T) {
	proj := NewProjector(NewEvaluator(10, 5))
	inst := viewInstrument(
		models.TriggerLevel{TriggerPrice: 300},
		models.TriggerLevel{TriggerPrice: 100},
		models.TriggerLevel{TriggerPrice: 200},
	)

	snap := proj.Project(inst, models.PriceSample{Symbol: "ETHUSD"}, TimeframeAll)
	wantOrder := []int{1, 2, 0}
	for i, want := range wantOrder {
		if snap.Levels[i].OriginalIndex != want {
			t.Fatalf("position %d has original index %d, want %d", i, snap.Levels[i].OriginalIndex, want)
		}
		if snap.Levels[i].Distance.Known {
			t.Fatal("distance must be unknown without a price sample")
		}
	}
}

func TestAvailableTimeframesCanonicalOrder(t *testing.T) {
	proj := NewProjector(NewEvaluator(10, 5))
	inst := viewInstrument(
		models.TriggerLevel{TriggerPrice: 1, Timeframe: "1h"},
		models.TriggerLevel{TriggerPrice: 2, Timeframe: "1M"},
		models.TriggerLevel{TriggerPrice: 3, Timeframe: "2y"}, // unrecognized sorts last
		models.TriggerLevel{TriggerPrice: 4, Timeframe: "1w"},
		models.TriggerLevel{TriggerPrice: 5, Timeframe: "1h"},
	)

	snap := proj.Project(inst, sample(100), TimeframeAll)
	want := []string{"1M", "1w", "1h", "2y"}
	if len(snap.Timeframes) != len(want) {
		t.Fatalf("timeframes = %v, want %v", snap.Timeframes, want)
	}
	for i := range want {
		if snap.Timeframes[i] != want[i] {
			t.Fatalf("timeframes = %v, want %v", snap.Timeframes, want)
		}
	}
}
