package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"LevelWatch/internal/domain/models"
	drepo "LevelWatch/internal/domain/repository"
	"LevelWatch/pkg/logger"
)

// MonitorConfig tunes the polling loop.
type MonitorConfig struct {
	Interval     time.Duration
	FetchTimeout time.Duration
}

type priceResult struct {
	symbol string
	price  float64
	err    error
}

// Monitor owns the polling loop: every interval it fetches mark prices for
// all tracked instruments concurrently, merges the batch atomically, and
// runs alert evaluation against the merged snapshot. A symbol whose fetch
// fails keeps its previous sample and is skipped by evaluation until a
// fresh price arrives.
type Monitor struct {
	store   drepo.LevelStore
	feed    drepo.PriceFeed
	alerts  *AlertCenter
	proj    *Projector
	metrics drepo.Metrics
	logger  *logger.Logger

	interval     time.Duration
	fetchTimeout time.Duration

	mu          sync.RWMutex
	instruments []*models.Instrument
	prices      map[string]models.PriceSample

	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitor creates a Monitor. Interval defaults to 3s and the per-fetch
// timeout to 10s when unset.
func NewMonitor(
	store drepo.LevelStore,
	feed drepo.PriceFeed,
	alerts *AlertCenter,
	proj *Projector,
	metrics drepo.Metrics,
	log *logger.Logger,
	cfg MonitorConfig,
) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 3 * time.Second
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	return &Monitor{
		store:        store,
		feed:         feed,
		alerts:       alerts,
		proj:         proj,
		metrics:      metrics,
		logger:       log,
		interval:     cfg.Interval,
		fetchTimeout: cfg.FetchTimeout,
		prices:       make(map[string]models.PriceSample),
	}
}

// Start loads the instrument list and launches the polling loop. The loop
// runs until Stop is called or ctx is canceled.
func (m *Monitor) Start(ctx context.Context) error {
	if err := m.Reload(ctx); err != nil {
		return fmt.Errorf("initial instrument load: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.run(runCtx)

	m.logger.Info("monitor started",
		logger.Duration("interval", m.interval),
		logger.Int("instruments", len(m.Instruments())))
	return nil
}

// Stop cancels the loop and waits for the in-flight tick to drain. Results
// of fetches still in flight at cancellation are discarded, never merged.
func (m *Monitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.logger.Info("monitor stopped")
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// First sample immediately, then on the interval.
	m.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *Monitor) tick(ctx context.Context) {
	start := time.Now()

	m.mu.RLock()
	symbols := make([]string, 0, len(m.instruments))
	for _, in := range m.instruments {
		symbols = append(symbols, in.Symbol)
	}
	m.mu.RUnlock()

	if len(symbols) == 0 {
		return
	}

	results := make(chan priceResult, len(symbols))
	var wg sync.WaitGroup
	for _, sym := range symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			fctx, cancel := context.WithTimeout(ctx, m.fetchTimeout)
			defer cancel()
			price, err := m.feed.MarkPrice(fctx, sym)
			results <- priceResult{symbol: sym, price: price, err: err}
		}(sym)
	}
	wg.Wait()
	close(results)

	// Torn down while fetches were in flight: drop the whole batch.
	select {
	case <-ctx.Done():
		return
	default:
	}

	now := time.Now()
	fetched := make(map[string]models.PriceSample, len(symbols))
	for r := range results {
		if r.err != nil {
			m.metrics.RecordError("price_fetch")
			m.logger.Warn("price fetch failed",
				logger.String("symbol", r.symbol),
				logger.Error(r.err))
			continue
		}
		fetched[r.symbol] = models.PriceSample{Symbol: r.symbol, Price: r.price, Known: true, At: now}
		m.metrics.RecordMarkPrice(r.symbol, r.price)
	}

	// One merge for the whole batch: readers never see a tick half-applied.
	// Evaluation runs under the same lock so a concurrent toggle or reload
	// lands either fully before or fully after this tick.
	m.mu.Lock()
	for sym, sample := range fetched {
		m.prices[sym] = sample
	}
	for _, in := range m.instruments {
		triggered := m.alerts.Observe(ctx, in, m.prices[in.Symbol], now)
		m.metrics.RecordTriggeredLevels(in.Symbol, triggered)
	}
	m.mu.Unlock()

	m.metrics.RecordLatency("monitor_tick", time.Since(start).Seconds())
}

// Reload refetches the instrument list from the store and replaces the
// tracked snapshot. Edge state for symbols no longer tracked is dropped, so
// a re-added symbol starts untriggered. Prices of removed symbols are kept
// out of the map.
func (m *Monitor) Reload(ctx context.Context) error {
	insts, err := m.store.ListInstruments(ctx)
	if err != nil {
		m.metrics.RecordError("instrument_list")
		return fmt.Errorf("list instruments: %w", err)
	}

	active := make(map[string]bool, len(insts))
	for _, in := range insts {
		in.Symbol = models.CanonicalSymbol(in.Symbol)
		active[in.Symbol] = true
	}

	m.mu.Lock()
	m.instruments = insts
	for sym := range m.prices {
		if !active[sym] {
			delete(m.prices, sym)
		}
	}
	m.mu.Unlock()

	m.alerts.Prune(active)
	return nil
}

// ApplyToggle flips a level's alert flag on the in-memory snapshot. The
// caller persists the flag first; this keeps the running view consistent
// without a full reload. Returns ErrNotFound when the symbol or index no
// longer exists, which the caller treats as already-reconciled.
func (m *Monitor) ApplyToggle(symbol string, index int, disabled bool) error {
	symbol = models.CanonicalSymbol(symbol)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, in := range m.instruments {
		if in.Symbol != symbol {
			continue
		}
		if index < 0 || index >= len(in.TriggerLevels) {
			return fmt.Errorf("level %d of %s: %w", index, symbol, drepo.ErrNotFound)
		}
		in.TriggerLevels[index].AlertDisabled = disabled
		return nil
	}
	return fmt.Errorf("instrument %s: %w", symbol, drepo.ErrNotFound)
}

// Snapshot builds the ranked view of one instrument's levels against its
// last known price. Returns ErrNotFound for untracked symbols.
func (m *Monitor) Snapshot(symbol, filter string) (*models.MonitorSnapshot, error) {
	symbol = models.CanonicalSymbol(symbol)

	m.mu.RLock()
	var found *models.Instrument
	for _, in := range m.instruments {
		if in.Symbol == symbol {
			found = copyInstrument(in)
			break
		}
	}
	sample := m.prices[symbol]
	m.mu.RUnlock()

	if found == nil {
		return nil, fmt.Errorf("instrument %s: %w", symbol, drepo.ErrNotFound)
	}
	return m.proj.Project(found, sample, filter), nil
}

// Summary reports per-symbol level counts and how many enabled levels are
// currently at or below their trigger.
func (m *Monitor) Summary() []models.SummaryEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]models.SummaryEntry, 0, len(m.instruments))
	for _, in := range m.instruments {
		sample := m.prices[in.Symbol]
		entry := models.SummaryEntry{
			Symbol:     in.Symbol,
			LevelCount: len(in.TriggerLevels),
			Price:      sample,
		}
		if sample.Known {
			for _, lvl := range in.TriggerLevels {
				if !lvl.AlertDisabled && sample.Price <= lvl.TriggerPrice {
					entry.Triggered++
				}
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

// Instruments returns a copy of the tracked instruments, safe to hold and
// marshal while the loop and toggles keep mutating the originals.
func (m *Monitor) Instruments() []*models.Instrument {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.Instrument, len(m.instruments))
	for i, in := range m.instruments {
		out[i] = copyInstrument(in)
	}
	return out
}

// LastPrice returns the last known sample for a symbol. Known is false when
// no fetch has succeeded yet.
func (m *Monitor) LastPrice(symbol string) models.PriceSample {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.prices[models.CanonicalSymbol(symbol)]
}

func copyInstrument(in *models.Instrument) *models.Instrument {
	cp := *in
	cp.TriggerLevels = make([]models.TriggerLevel, len(in.TriggerLevels))
	copy(cp.TriggerLevels, in.TriggerLevels)
	return &cp
}
