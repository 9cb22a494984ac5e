package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"LevelWatch/internal/domain/models"
	drepo "LevelWatch/internal/domain/repository"
	"LevelWatch/pkg/logger"
)

type fakeStore struct {
	instruments []*models.Instrument
	listErr     error

	toggleCalls []toggleCall
	toggleErr   error
}

type toggleCall struct {
	symbol   string
	index    int
	disabled bool
}

func (s *fakeStore) ListInstruments(context.Context) ([]*models.Instrument, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]*models.Instrument, len(s.instruments))
	for i, in := range s.instruments {
		out[i] = copyInstrument(in)
	}
	return out, nil
}

func (s *fakeStore) GetInstrument(_ context.Context, symbol string) (*models.Instrument, error) {
	for _, in := range s.instruments {
		if in.Symbol == symbol {
			return copyInstrument(in), nil
		}
	}
	return nil, drepo.ErrNotFound
}

func (s *fakeStore) PushLevels(_ context.Context, symbol string, _ drepo.Timeframe, _ []models.TriggerLevel) (*models.Instrument, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeStore) SetLevelAlertDisabled(_ context.Context, symbol string, index int, disabled bool) error {
	if s.toggleErr != nil {
		return s.toggleErr
	}
	s.toggleCalls = append(s.toggleCalls, toggleCall{symbol: symbol, index: index, disabled: disabled})
	return nil
}

func (s *fakeStore) Deactivate(context.Context, string) error { return nil }
func (s *fakeStore) Health(context.Context) error             { return nil }
func (s *fakeStore) Close() error                             { return nil }

type fakeFeed struct {
	prices map[string]float64
	errs   map[string]error
}

func (f *fakeFeed) MarkPrice(_ context.Context, symbol string) (float64, error) {
	if err := f.errs[symbol]; err != nil {
		return 0, err
	}
	price, ok := f.prices[symbol]
	if !ok {
		return 0, drepo.ErrNotFound
	}
	return price, nil
}

// blockingFeed holds every fetch until the request context is canceled,
// then reports a price as if the response raced the shutdown.
type blockingFeed struct{}

func (blockingFeed) MarkPrice(ctx context.Context, _ string) (float64, error) {
	<-ctx.Done()
	return 12345, nil
}

func newTestMonitor(store drepo.LevelStore, feed drepo.PriceFeed, sink AlertSink) *Monitor {
	if sink == nil {
		sink = &recordingSink{}
	}
	center := NewAlertCenter(sink, nopMetrics{}, logger.Nop())
	proj := NewProjector(NewEvaluator(10, 5))
	return NewMonitor(store, feed, center, proj, nopMetrics{}, logger.Nop(), MonitorConfig{
		Interval:     10 * time.Millisecond,
		FetchTimeout: time.Second,
	})
}

func TestTickMergesBatchAndFiresAlerts(t *testing.T) {
	store := &fakeStore{instruments: []*models.Instrument{
		{Symbol: "BTCUSD", Active: true, TriggerLevels: []models.TriggerLevel{{TriggerPrice: 50000, Timeframe: "1w"}}},
		{Symbol: "ETHUSD", Active: true, TriggerLevels: []models.TriggerLevel{{TriggerPrice: 3000, Timeframe: "1d"}}},
	}}
	feed := &fakeFeed{prices: map[string]float64{"BTCUSD": 49000, "ETHUSD": 3500}}
	sink := &recordingSink{}
	m := newTestMonitor(store, feed, sink)
	ctx := context.Background()

	if err := m.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	m.tick(ctx)

	if p := m.LastPrice("BTCUSD"); !p.Known || p.Price != 49000 {
		t.Fatalf("BTCUSD sample = %+v", p)
	}
	if p := m.LastPrice("ETHUSD"); !p.Known || p.Price != 3500 {
		t.Fatalf("ETHUSD sample = %+v", p)
	}
	if len(sink.events) != 1 || sink.events[0].Symbol != "BTCUSD" {
		t.Fatalf("expected one BTCUSD alert, got %+v", sink.events)
	}
}

func TestTickFailedFetchKeepsLastSample(t *testing.T) {
	store := &fakeStore{instruments: []*models.Instrument{
		{Symbol: "BTCUSD", Active: true, TriggerLevels: []models.TriggerLevel{{TriggerPrice: 50000}}},
		{Symbol: "ETHUSD", Active: true, TriggerLevels: []models.TriggerLevel{{TriggerPrice: 3000}}},
	}}
	feed := &fakeFeed{
		prices: map[string]float64{"BTCUSD": 52000},
		errs:   map[string]error{"ETHUSD": drepo.ErrUnavailable},
	}
	m := newTestMonitor(store, feed, nil)
	ctx := context.Background()

	if err := m.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	m.tick(ctx)

	if p := m.LastPrice("ETHUSD"); p.Known {
		t.Fatalf("failed fetch must leave sample unknown, got %+v", p)
	}

	// Next cycle: the previously failing symbol recovers, the other fails.
	// Its last sample must survive.
	feed.errs = map[string]error{"BTCUSD": drepo.ErrUnavailable}
	feed.prices = map[string]float64{"ETHUSD": 3200}
	m.tick(ctx)

	if p := m.LastPrice("BTCUSD"); !p.Known || p.Price != 52000 {
		t.Fatalf("failed fetch must keep last known sample, got %+v", p)
	}
	if p := m.LastPrice("ETHUSD"); !p.Known || p.Price != 3200 {
		t.Fatalf("recovered symbol sample = %+v", p)
	}
}

func TestStopDiscardsInFlightResults(t *testing.T) {
	store := &fakeStore{instruments: []*models.Instrument{
		{Symbol: "BTCUSD", Active: true, TriggerLevels: []models.TriggerLevel{{TriggerPrice: 50000}}},
	}}
	m := newTestMonitor(store, blockingFeed{}, nil)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	m.Stop()

	if p := m.LastPrice("BTCUSD"); p.Known {
		t.Fatalf("in-flight result must be discarded on shutdown, got %+v", p)
	}
}

func TestStartFailsWithoutInstrumentList(t *testing.T) {
	store := &fakeStore{listErr: drepo.ErrUnavailable}
	m := newTestMonitor(store, &fakeFeed{}, nil)

	if err := m.Start(context.Background()); !errors.Is(err, drepo.ErrUnavailable) {
		t.Fatalf("start error = %v, want ErrUnavailable", err)
	}
}

func TestSnapshotCanonicalizesSymbol(t *testing.T) {
	store := &fakeStore{instruments: []*models.Instrument{
		{Symbol: "btcusd", Active: true, TriggerLevels: []models.TriggerLevel{
			{TriggerPrice: 48000, Timeframe: "1w"},
			{TriggerPrice: 51000, Timeframe: "1w"},
		}},
	}}
	feed := &fakeFeed{prices: map[string]float64{"BTCUSD": 50000}}
	m := newTestMonitor(store, feed, nil)
	ctx := context.Background()

	if err := m.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	m.tick(ctx)

	snap, err := m.Snapshot(" btcusd ", TimeframeAll)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Symbol != "BTCUSD" {
		t.Fatalf("symbol = %q, want canonical form", snap.Symbol)
	}
	if !snap.Levels[0].Distance.Triggered || snap.Levels[0].OriginalIndex != 1 {
		t.Fatalf("triggered level must rank first with original index, got %+v", snap.Levels[0])
	}

	if _, err := m.Snapshot("DOGEUSD", TimeframeAll); !errors.Is(err, drepo.ErrNotFound) {
		t.Fatalf("unknown symbol error = %v, want ErrNotFound", err)
	}
}

func TestReloadPrunesRemovedSymbols(t *testing.T) {
	store := &fakeStore{instruments: []*models.Instrument{
		{Symbol: "BTCUSD", Active: true, TriggerLevels: []models.TriggerLevel{{TriggerPrice: 50000}}},
	}}
	feed := &fakeFeed{prices: map[string]float64{"BTCUSD": 49000}}
	sink := &recordingSink{}
	m := newTestMonitor(store, feed, sink)
	ctx := context.Background()

	if err := m.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	m.tick(ctx)
	if len(sink.events) != 1 {
		t.Fatalf("events = %d, want 1", len(sink.events))
	}

	// Remove the symbol, reload, re-add, reload: edge memory must be fresh.
	store.instruments = nil
	if err := m.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if p := m.LastPrice("BTCUSD"); p.Known {
		t.Fatalf("price of removed symbol must be dropped, got %+v", p)
	}

	store.instruments = []*models.Instrument{
		{Symbol: "BTCUSD", Active: true, TriggerLevels: []models.TriggerLevel{{TriggerPrice: 50000}}},
	}
	if err := m.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	m.tick(ctx)
	if len(sink.events) != 2 {
		t.Fatalf("re-added symbol must fire on a fresh crossing, got %d events", len(sink.events))
	}
}

func TestSummaryCountsEnabledTriggeredLevels(t *testing.T) {
	store := &fakeStore{instruments: []*models.Instrument{
		{Symbol: "BTCUSD", Active: true, TriggerLevels: []models.TriggerLevel{
			{TriggerPrice: 50000},
			{TriggerPrice: 49500, AlertDisabled: true},
			{TriggerPrice: 40000},
		}},
	}}
	feed := &fakeFeed{prices: map[string]float64{"BTCUSD": 49000}}
	m := newTestMonitor(store, feed, nil)
	ctx := context.Background()

	if err := m.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	m.tick(ctx)

	entries := m.Summary()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.LevelCount != 3 || e.Triggered != 1 {
		t.Fatalf("summary = %+v, want 3 levels and 1 triggered", e)
	}
}
