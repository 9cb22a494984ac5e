package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"LevelWatch/internal/domain/models"
	domrepo "LevelWatch/internal/domain/repository"
)

type nopMetrics struct{}

func (nopMetrics) RecordAlertFired(string, string)   {}
func (nopMetrics) RecordError(string)                {}
func (nopMetrics) RecordMarkPrice(string, float64)   {}
func (nopMetrics) RecordTriggeredLevels(string, int) {}
func (nopMetrics) RecordLatency(string, float64)     {}

type fakeNotifier struct {
	mu     sync.Mutex
	events []*models.AlertEvent
	err    error
}

func (n *fakeNotifier) Notify(_ context.Context, event *models.AlertEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, event)
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

func (n *fakeNotifier) setErr(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.err = err
}

func testEvent() *models.AlertEvent {
	return &models.AlertEvent{
		Symbol:       "BTCUSD",
		LevelIndex:   0,
		Timeframe:    "1w",
		TriggerPrice: 50000,
		MarkPrice:    49500,
		PctBelow:     1,
		FiredAt:      time.Now(),
	}
}

func notifiers(ns ...*fakeNotifier) []domrepo.Notifier {
	out := make([]domrepo.Notifier, len(ns))
	for i, n := range ns {
		out[i] = n
	}
	return out
}

func TestProcessFansOutToAllSinks(t *testing.T) {
	a, b := &fakeNotifier{}, &fakeNotifier{}
	p := NewAlertPipeline(nopMetrics{}, notifiers(a, b))
	if err := p.Process(context.Background(), testEvent()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if a.count() != 1 || b.count() != 1 {
		t.Fatalf("deliveries = (%d, %d), want (1, 1)", a.count(), b.count())
	}
}

func TestProcessRejectsInvalidEvents(t *testing.T) {
	sink := &fakeNotifier{}
	p := NewAlertPipeline(nopMetrics{}, notifiers(sink))

	bad := testEvent()
	bad.Symbol = ""
	if err := p.Process(context.Background(), bad); err == nil {
		t.Fatal("empty symbol must be rejected")
	}
	if err := p.Process(context.Background(), nil); err == nil {
		t.Fatal("nil event must be rejected")
	}
	if sink.count() != 0 {
		t.Fatalf("invalid events must not be delivered, got %d", sink.count())
	}
}

func TestProcessOneFailingSinkDoesNotBlockOthers(t *testing.T) {
	good := &fakeNotifier{}
	bad := &fakeNotifier{err: errors.New("broker down")}
	p := NewAlertPipeline(nopMetrics{}, notifiers(bad, good))

	if err := p.Process(context.Background(), testEvent()); err == nil {
		t.Fatal("expected error reporting the failed sink")
	}
	if good.count() != 1 {
		t.Fatalf("healthy sink deliveries = %d, want 1", good.count())
	}
}

func TestFailedDeliveryRetriesInBackground(t *testing.T) {
	sink := &fakeNotifier{err: errors.New("broker down")}
	p := NewAlertPipeline(nopMetrics{}, notifiers(sink), WithBufferSize(8))
	p.Start(context.Background())
	defer p.Stop()

	if err := p.Process(context.Background(), testEvent()); err == nil {
		t.Fatal("expected delivery failure")
	}

	sink.setErr(nil)
	deadline := time.After(3 * time.Second)
	for sink.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("buffered delivery never retried")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestCooldownSuppressesRepeats(t *testing.T) {
	sink := &fakeNotifier{}
	p := NewAlertPipeline(nopMetrics{}, notifiers(sink), WithCooldown(time.Hour))

	ctx := context.Background()
	if err := p.Process(ctx, testEvent()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Process(ctx, testEvent()); err != nil {
		t.Fatalf("cooldown drop must be silent, got %v", err)
	}
	if sink.count() != 1 {
		t.Fatalf("deliveries = %d, want 1", sink.count())
	}

	// A different level of the same symbol is keyed separately.
	other := testEvent()
	other.LevelIndex = 3
	if err := p.Process(ctx, other); err != nil {
		t.Fatalf("process: %v", err)
	}
	if sink.count() != 2 {
		t.Fatalf("deliveries = %d, want 2", sink.count())
	}
}
