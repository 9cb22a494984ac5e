package usecase

import (
	"context"
	"time"

	"LevelWatch/internal/domain/models"
	"LevelWatch/pkg/logger"
)

// SummaryBroadcast receives the periodic per-symbol summary, typically a
// websocket hub fanning it out to connected dashboards.
type SummaryBroadcast interface {
	BroadcastSummary(entries []models.SummaryEntry)
}

// SummaryBroadcaster pushes the monitor's summary to a broadcast sink on a
// fixed interval, independent of the alert tick.
type SummaryBroadcaster struct {
	monitor  *Monitor
	sink     SummaryBroadcast
	logger   *logger.Logger
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSummaryBroadcaster creates a SummaryBroadcaster. Interval defaults to 5s.
func NewSummaryBroadcaster(monitor *Monitor, sink SummaryBroadcast, log *logger.Logger, interval time.Duration) *SummaryBroadcaster {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &SummaryBroadcaster{monitor: monitor, sink: sink, logger: log, interval: interval}
}

// Start launches the broadcast loop.
func (s *SummaryBroadcaster) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				s.sink.BroadcastSummary(s.monitor.Summary())
			}
		}
	}()

	s.logger.Info("summary broadcaster started", logger.Duration("interval", s.interval))
}

// Stop cancels the loop and waits for it to exit.
func (s *SummaryBroadcaster) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}
