package usecase

import (
	"context"
	"errors"
	"testing"

	"LevelWatch/internal/domain/models"
	drepo "LevelWatch/internal/domain/repository"
	"LevelWatch/pkg/logger"
)

func TestSetAlertDisabledPersistsThenApplies(t *testing.T) {
	store := &fakeStore{instruments: []*models.Instrument{
		{Symbol: "BTCUSD", Active: true, TriggerLevels: []models.TriggerLevel{
			{TriggerPrice: 50000},
			{TriggerPrice: 48000},
		}},
	}}
	m := newTestMonitor(store, &fakeFeed{}, nil)
	ctx := context.Background()
	if err := m.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}

	rec := NewToggleReconciler(store, m, logger.Nop())
	if err := rec.SetAlertDisabled(ctx, "btcusd", 1, true); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	if len(store.toggleCalls) != 1 {
		t.Fatalf("persist calls = %d, want 1", len(store.toggleCalls))
	}
	call := store.toggleCalls[0]
	if call.symbol != "BTCUSD" || call.index != 1 || !call.disabled {
		t.Fatalf("persist call = %+v", call)
	}

	snap, err := m.Snapshot("BTCUSD", TimeframeAll)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	var found bool
	for _, lv := range snap.Levels {
		if lv.OriginalIndex == 1 {
			found = true
			if !lv.Level.AlertDisabled {
				t.Fatal("live view must reflect the persisted flag")
			}
		}
	}
	if !found {
		t.Fatal("level 1 missing from snapshot")
	}
}

func TestSetAlertDisabledPersistFailureLeavesViewUntouched(t *testing.T) {
	store := &fakeStore{instruments: []*models.Instrument{
		{Symbol: "BTCUSD", Active: true, TriggerLevels: []models.TriggerLevel{{TriggerPrice: 50000}}},
	}}
	m := newTestMonitor(store, &fakeFeed{}, nil)
	ctx := context.Background()
	if err := m.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}

	store.toggleErr = drepo.ErrPersist
	rec := NewToggleReconciler(store, m, logger.Nop())
	if err := rec.SetAlertDisabled(ctx, "BTCUSD", 0, true); !errors.Is(err, drepo.ErrPersist) {
		t.Fatalf("toggle error = %v, want ErrPersist", err)
	}

	snap, err := m.Snapshot("BTCUSD", TimeframeAll)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Levels[0].Level.AlertDisabled {
		t.Fatal("failed persist must not change the live view")
	}
}

func TestSetAlertDisabledUntrackedLevelIsNotFatal(t *testing.T) {
	store := &fakeStore{instruments: []*models.Instrument{
		{Symbol: "BTCUSD", Active: true, TriggerLevels: []models.TriggerLevel{{TriggerPrice: 50000}}},
	}}
	m := newTestMonitor(store, &fakeFeed{}, nil)
	// Monitor never reloaded: store knows the symbol, the snapshot does not.
	rec := NewToggleReconciler(store, m, logger.Nop())

	if err := rec.SetAlertDisabled(context.Background(), "BTCUSD", 0, true); err != nil {
		t.Fatalf("persisted toggle for untracked level must succeed, got %v", err)
	}
}
