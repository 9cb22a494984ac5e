package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"LevelWatch/internal/domain/models"
	domrepo "LevelWatch/internal/domain/repository"
	pkgcache "LevelWatch/pkg/cache"
	applogger "LevelWatch/pkg/logger"
)

// sourceZoneSearch marks instruments created through zone discovery.
const sourceZoneSearch = "zone_search"

// timeframeMulti marks an instrument holding levels from several timeframes.
const timeframeMulti = "multi"

// RedisLevelStore implements LevelStore on Redis: one JSON document per
// instrument plus a set indexing the active symbols.
type RedisLevelStore struct {
	cache *pkgcache.RedisCache
	l     *applogger.Logger
}

// NewRedisLevelStore creates a RedisLevelStore.
func NewRedisLevelStore(cache *pkgcache.RedisCache, l *applogger.Logger) *RedisLevelStore {
	return &RedisLevelStore{cache: cache, l: l}
}

func (s *RedisLevelStore) scripKey(symbol string) string {
	return fmt.Sprintf("%s:scrip:%s", s.cache.Prefix(), symbol)
}

func (s *RedisLevelStore) indexKey() string {
	return fmt.Sprintf("%s:scrips", s.cache.Prefix())
}

// ListInstruments returns every active instrument. A symbol present in the
// index whose document is missing is skipped and logged, not fatal.
func (s *RedisLevelStore) ListInstruments(ctx context.Context) ([]*models.Instrument, error) {
	rdb := s.cache.Client()
	symbols, err := rdb.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list symbols: %v: %w", err, domrepo.ErrUnavailable)
	}

	out := make([]*models.Instrument, 0, len(symbols))
	for _, sym := range symbols {
		inst, err := s.GetInstrument(ctx, sym)
		if err != nil {
			if errors.Is(err, domrepo.ErrNotFound) {
				s.l.Warn("indexed symbol has no document", applogger.String("symbol", sym))
				continue
			}
			return nil, err
		}
		if !inst.Active {
			continue
		}
		out = append(out, inst)
	}
	return out, nil
}

// GetInstrument loads one instrument document.
func (s *RedisLevelStore) GetInstrument(ctx context.Context, symbol string) (*models.Instrument, error) {
	symbol = models.CanonicalSymbol(symbol)
	raw, err := s.cache.Client().Get(ctx, s.scripKey(symbol)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("instrument %s: %w", symbol, domrepo.ErrNotFound)
		}
		return nil, fmt.Errorf("get instrument %s: %v: %w", symbol, err, domrepo.ErrUnavailable)
	}

	var inst models.Instrument
	if err := json.Unmarshal([]byte(raw), &inst); err != nil {
		return nil, fmt.Errorf("decode instrument %s: %v: %w", symbol, err, domrepo.ErrUnavailable)
	}
	return &inst, nil
}

// PushLevels appends levels to an instrument, creating the document on
// first push. Appending a second timeframe marks the instrument as
// multi-timeframe; existing levels and their order are never touched.
func (s *RedisLevelStore) PushLevels(ctx context.Context, symbol string, tf domrepo.Timeframe, levels []models.TriggerLevel) (*models.Instrument, error) {
	symbol = models.CanonicalSymbol(symbol)
	if len(levels) == 0 {
		return nil, fmt.Errorf("push %s: no levels: %w", symbol, domrepo.ErrPersist)
	}
	for i := range levels {
		if levels[i].TriggerPrice <= 0 {
			return nil, fmt.Errorf("push %s: level %d has non-positive trigger: %w", symbol, i, domrepo.ErrPersist)
		}
		if levels[i].Timeframe == "" {
			levels[i].Timeframe = string(tf)
		}
	}

	inst, err := s.GetInstrument(ctx, symbol)
	switch {
	case err == nil:
		inst.TriggerLevels = append(inst.TriggerLevels, levels...)
		if inst.Timeframe != string(tf) {
			inst.Timeframe = timeframeMulti
		}
		inst.Active = true
	case errors.Is(err, domrepo.ErrNotFound):
		inst = &models.Instrument{
			Symbol:        symbol,
			Timeframe:     string(tf),
			Active:        true,
			Source:        sourceZoneSearch,
			TriggerLevels: levels,
		}
	default:
		return nil, err
	}
	inst.LastUpdated = time.Now().UTC()

	if err := s.put(ctx, inst); err != nil {
		return nil, err
	}
	if err := s.cache.Client().SAdd(ctx, s.indexKey(), symbol).Err(); err != nil {
		return nil, fmt.Errorf("index %s: %v: %w", symbol, err, domrepo.ErrPersist)
	}

	s.l.Info("levels pushed",
		applogger.String("symbol", symbol),
		applogger.String("timeframe", string(tf)),
		applogger.Int("added", len(levels)),
		applogger.Int("total", len(inst.TriggerLevels)))
	return inst, nil
}

// SetLevelAlertDisabled updates one level's alert flag in place.
func (s *RedisLevelStore) SetLevelAlertDisabled(ctx context.Context, symbol string, levelIndex int, disabled bool) error {
	symbol = models.CanonicalSymbol(symbol)
	inst, err := s.GetInstrument(ctx, symbol)
	if err != nil {
		return err
	}
	if levelIndex < 0 || levelIndex >= len(inst.TriggerLevels) {
		return fmt.Errorf("level %d of %s: %w", levelIndex, symbol, domrepo.ErrNotFound)
	}

	inst.TriggerLevels[levelIndex].AlertDisabled = disabled
	inst.LastUpdated = time.Now().UTC()
	return s.put(ctx, inst)
}

// Deactivate marks an instrument inactive and drops it from the index. The
// document stays for audit and possible re-activation by a later push.
func (s *RedisLevelStore) Deactivate(ctx context.Context, symbol string) error {
	symbol = models.CanonicalSymbol(symbol)
	inst, err := s.GetInstrument(ctx, symbol)
	if err != nil {
		return err
	}

	inst.Active = false
	inst.LastUpdated = time.Now().UTC()
	if err := s.put(ctx, inst); err != nil {
		return err
	}
	if err := s.cache.Client().SRem(ctx, s.indexKey(), symbol).Err(); err != nil {
		return fmt.Errorf("unindex %s: %v: %w", symbol, err, domrepo.ErrPersist)
	}
	return nil
}

// Health pings the backing Redis.
func (s *RedisLevelStore) Health(ctx context.Context) error {
	return s.cache.Health(ctx)
}

// Close releases the Redis connection.
func (s *RedisLevelStore) Close() error {
	return s.cache.Close()
}

func (s *RedisLevelStore) put(ctx context.Context, inst *models.Instrument) error {
	raw, err := json.Marshal(inst)
	if err != nil {
		return fmt.Errorf("encode instrument %s: %v: %w", inst.Symbol, err, domrepo.ErrPersist)
	}
	if err := s.cache.Client().Set(ctx, s.scripKey(inst.Symbol), raw, 0).Err(); err != nil {
		return fmt.Errorf("write instrument %s: %v: %w", inst.Symbol, err, domrepo.ErrPersist)
	}
	return nil
}
