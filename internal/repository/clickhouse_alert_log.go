package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"LevelWatch/internal/domain/models"
	domrepo "LevelWatch/internal/domain/repository"
	pkgch "LevelWatch/pkg/clickhouse"
	applogger "LevelWatch/pkg/logger"
)

// CHAlertLog implements AlertLog backed by ClickHouse. It also satisfies
// Notifier so fired alerts can be audited through the same delivery fan-out
// as every other channel.
type CHAlertLog struct {
	db *sql.DB
	l  *applogger.Logger
}

// NewCHAlertLog creates a CHAlertLog.
func NewCHAlertLog(ch *pkgch.Client, l *applogger.Logger) *CHAlertLog {
	return &CHAlertLog{db: ch.DB(), l: l}
}

const alertLogSchema = `
CREATE TABLE IF NOT EXISTS alert_events (
    fired_at      DateTime64(3) CODEC(Delta, ZSTD),
    symbol        LowCardinality(String),
    level_index   Int32,
    timeframe     LowCardinality(String),
    trigger_price Float64,
    mark_price    Float64,
    pct_below     Float64
) ENGINE = MergeTree()
ORDER BY (symbol, fired_at)
TTL toDateTime(fired_at) + INTERVAL 90 DAY
`

// Init creates the alert table when missing.
func (s *CHAlertLog) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, alertLogSchema); err != nil {
		return fmt.Errorf("init alert log: %w", err)
	}
	return nil
}

// Append records one fired alert.
func (s *CHAlertLog) Append(ctx context.Context, event *models.AlertEvent) error {
	const q = `
        INSERT INTO alert_events
            (fired_at, symbol, level_index, timeframe, trigger_price, mark_price, pct_below)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.ExecContext(ctx, q,
		event.FiredAt, event.Symbol, int32(event.LevelIndex), event.Timeframe,
		event.TriggerPrice, event.MarkPrice, event.PctBelow)
	if err != nil {
		s.l.Error("clickhouse alert insert error",
			applogger.String("symbol", event.Symbol),
			applogger.Error(err))
		return fmt.Errorf("append alert: %w", err)
	}
	return nil
}

// Recent returns the newest fired alerts, optionally filtered by symbol.
func (s *CHAlertLog) Recent(ctx context.Context, symbol string, limit int) ([]*models.AlertEvent, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	q := `
        SELECT fired_at, symbol, level_index, timeframe, trigger_price, mark_price, pct_below
        FROM alert_events
    `
	args := make([]interface{}, 0, 2)
	if symbol != "" {
		q += " WHERE symbol = ?"
		args = append(args, models.CanonicalSymbol(symbol))
	}
	q += " ORDER BY fired_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.l.Error("clickhouse alert query error",
			applogger.String("symbol", symbol),
			applogger.Error(err))
		return nil, fmt.Errorf("recent alerts: %w", err)
	}
	defer rows.Close()

	out := make([]*models.AlertEvent, 0, limit)
	for rows.Next() {
		var (
			e     models.AlertEvent
			fired time.Time
			idx   int32
		)
		if err := rows.Scan(&fired, &e.Symbol, &idx, &e.Timeframe, &e.TriggerPrice, &e.MarkPrice, &e.PctBelow); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		e.FiredAt = fired
		e.LevelIndex = int(idx)
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// Notify satisfies Notifier by appending the event to the audit log.
func (s *CHAlertLog) Notify(ctx context.Context, event *models.AlertEvent) error {
	return s.Append(ctx, event)
}

// Close releases the ClickHouse connection.
func (s *CHAlertLog) Close() error {
	return s.db.Close()
}

var _ domrepo.AlertLog = (*CHAlertLog)(nil)
var _ domrepo.Notifier = (*CHAlertLog)(nil)
