package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"LevelWatch/internal/domain/models"
	domrepo "LevelWatch/internal/domain/repository"
)

// AlertPipeline sits between the alert engine and the delivery sinks. It
// validates events, enforces a per-level cooldown, fans out to every sink,
// and buffers deliveries a sink rejected so an unavailable broker does not
// lose alerts.
type AlertPipeline struct {
	sinks    []domrepo.Notifier
	metrics  domrepo.Metrics
	cooldown time.Duration
	bufSize  int
	bufCh    chan delivery
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSent map[alertKey]time.Time
}

type alertKey struct {
	symbol string
	index  int
}

type delivery struct {
	sink  domrepo.Notifier
	event *models.AlertEvent
}

type PipelineOption func(*AlertPipeline)

// WithCooldown sets the minimum interval between deliveries of the same
// (symbol, level) pair. Zero disables the cooldown.
func WithCooldown(d time.Duration) PipelineOption {
	return func(p *AlertPipeline) {
		if d >= 0 {
			p.cooldown = d
		}
	}
}

// WithBufferSize sets the retry buffer size for failed deliveries.
func WithBufferSize(n int) PipelineOption {
	return func(p *AlertPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewAlertPipeline creates a pipeline delivering to the given sinks.
func NewAlertPipeline(metrics domrepo.Metrics, sinks []domrepo.Notifier, opts ...PipelineOption) *AlertPipeline {
	p := &AlertPipeline{
		sinks:    sinks,
		metrics:  metrics,
		cooldown: 0, // off by default: every rising edge is delivered
		bufSize:  1000,
		bufCh:    make(chan delivery, 1000),
		stopCh:   make(chan struct{}),
		lastSent: make(map[alertKey]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan delivery, p.bufSize)
	}
	return p
}

// Start launches background retry of buffered deliveries.
func (p *AlertPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case d := <-p.bufCh:
				if d.event == nil {
					continue
				}
				if err := d.sink.Notify(ctx, d.event); err != nil {
					// exponential backoff with cap
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- d:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background retry loop.
func (p *AlertPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates and fans the event out to every sink. A sink failure
// buffers that delivery for background retry; the other sinks still get the
// event. A cooldown hit drops the event silently.
func (p *AlertPipeline) Process(ctx context.Context, event *models.AlertEvent) error {
	start := time.Now()
	if err := validateEvent(event); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(event, start) {
		p.metrics.RecordError("pipeline_cooldown")
		return nil
	}

	var failed int
	for _, sink := range p.sinks {
		if err := sink.Notify(ctx, event); err != nil {
			failed++
			p.metrics.RecordError("pipeline_deliver")
			// buffer non-blocking
			select {
			case p.bufCh <- delivery{sink: sink, event: event}:
				p.metrics.RecordLatency("pipeline_buffer_depth", float64(len(p.bufCh)))
			default:
				p.metrics.RecordError("pipeline_buffer_full")
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("pipeline: %d of %d sinks failed", failed, len(p.sinks))
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateEvent(e *models.AlertEvent) error {
	if e == nil {
		return fmt.Errorf("event nil")
	}
	if e.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if e.TriggerPrice <= 0 {
		return fmt.Errorf("trigger price invalid")
	}
	if e.MarkPrice < 0 {
		return fmt.Errorf("negative mark price")
	}
	if e.FiredAt.IsZero() {
		return fmt.Errorf("fired time missing")
	}
	return nil
}

func (p *AlertPipeline) allow(e *models.AlertEvent, now time.Time) bool {
	if p.cooldown <= 0 {
		return true
	}
	key := alertKey{symbol: e.Symbol, index: e.LevelIndex}

	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSent[key]
	if !last.IsZero() && now.Sub(last) < p.cooldown {
		return false
	}
	p.lastSent[key] = now
	return true
}
