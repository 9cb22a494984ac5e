package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"LevelWatch/internal/domain/models"
	domrepo "LevelWatch/internal/domain/repository"
	"LevelWatch/internal/usecase"
	xlogger "LevelWatch/pkg/logger"
)

type stubStore struct {
	instruments []*models.Instrument
}

func (s *stubStore) ListInstruments(context.Context) ([]*models.Instrument, error) {
	return s.instruments, nil
}

func (s *stubStore) GetInstrument(_ context.Context, symbol string) (*models.Instrument, error) {
	for _, in := range s.instruments {
		if in.Symbol == symbol {
			return in, nil
		}
	}
	return nil, domrepo.ErrNotFound
}

func (s *stubStore) PushLevels(context.Context, string, domrepo.Timeframe, []models.TriggerLevel) (*models.Instrument, error) {
	return nil, errors.New("not implemented")
}

func (s *stubStore) SetLevelAlertDisabled(_ context.Context, symbol string, index int, disabled bool) error {
	for _, in := range s.instruments {
		if in.Symbol == symbol {
			if index < 0 || index >= len(in.TriggerLevels) {
				return domrepo.ErrNotFound
			}
			in.TriggerLevels[index].AlertDisabled = disabled
			return nil
		}
	}
	return domrepo.ErrNotFound
}

func (s *stubStore) Deactivate(context.Context, string) error { return nil }
func (s *stubStore) Health(context.Context) error             { return nil }
func (s *stubStore) Close() error                             { return nil }

type stubFeed struct {
	price float64
	err   error
}

func (f *stubFeed) MarkPrice(context.Context, string) (float64, error) {
	return f.price, f.err
}

type stubSink struct{}

func (stubSink) Process(context.Context, *models.AlertEvent) error { return nil }

type stubMetrics struct{}

func (stubMetrics) RecordAlertFired(string, string)   {}
func (stubMetrics) RecordError(string)                {}
func (stubMetrics) RecordMarkPrice(string, float64)   {}
func (stubMetrics) RecordTriggeredLevels(string, int) {}
func (stubMetrics) RecordLatency(string, float64)     {}

func newTestHandler(t *testing.T, store domrepo.LevelStore, feed domrepo.PriceFeed) (*MonitorEchoHandler, *usecase.Monitor) {
	t.Helper()
	l := xlogger.Nop()
	center := usecase.NewAlertCenter(stubSink{}, stubMetrics{}, l)
	proj := usecase.NewProjector(usecase.NewEvaluator(10, 5))
	monitor := usecase.NewMonitor(store, feed, center, proj, stubMetrics{}, l, usecase.MonitorConfig{
		Interval:     time.Minute,
		FetchTimeout: time.Second,
	})
	if err := monitor.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	toggles := usecase.NewToggleReconciler(store, monitor, l)
	return NewMonitorEchoHandler(l, monitor, toggles, store, feed, nil, nil), monitor
}

func doRequest(h echo.HandlerFunc, method, target, body string, params map[string]string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for k, v := range params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	_ = h(c)
	return rec
}

func TestPriceEndpoint(t *testing.T) {
	h, _ := newTestHandler(t, &stubStore{}, &stubFeed{price: 50123.5})

	rec := doRequest(h.Price, http.MethodGet, "/api/price/BTCUSD", "", map[string]string{"symbol": "BTCUSD"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			Symbol    string  `json:"symbol"`
			MarkPrice float64 `json:"mark_price"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Symbol != "BTCUSD" || resp.Data.MarkPrice != 50123.5 {
		t.Fatalf("data = %+v", resp.Data)
	}
}

func TestPriceEndpointFeedDown(t *testing.T) {
	h, _ := newTestHandler(t, &stubStore{}, &stubFeed{err: domrepo.ErrUnavailable})

	rec := doRequest(h.Price, http.MethodGet, "/api/price/BTCUSD", "", map[string]string{"symbol": "BTCUSD"})
	var resp struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.Status)
	}
}

func TestMonitorViewRanksLevels(t *testing.T) {
	store := &stubStore{instruments: []*models.Instrument{
		{Symbol: "BTCUSD", Active: true, TriggerLevels: []models.TriggerLevel{
			{TriggerPrice: 48000, Timeframe: "1w"},
			{TriggerPrice: 51000, Timeframe: "1w"},
		}},
	}}
	h, _ := newTestHandler(t, store, &stubFeed{price: 50000})

	// no poll has run yet, so the view renders against an unknown price
	rec := doRequest(h.MonitorView, http.MethodGet, "/api/monitor/BTCUSD", "", map[string]string{"symbol": "BTCUSD"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data models.MonitorSnapshot `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data.Levels) != 2 {
		t.Fatalf("levels = %d, want 2", len(resp.Data.Levels))
	}
	if resp.Data.Price.Known {
		t.Fatal("price must be unknown before the first poll")
	}
}

func TestMonitorViewUnknownSymbol(t *testing.T) {
	h, _ := newTestHandler(t, &stubStore{}, &stubFeed{})

	rec := doRequest(h.MonitorView, http.MethodGet, "/api/monitor/NOPE", "", map[string]string{"symbol": "NOPE"})
	var resp struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Status)
	}
}

func TestUpdateAlertEndpoint(t *testing.T) {
	store := &stubStore{instruments: []*models.Instrument{
		{Symbol: "BTCUSD", Active: true, TriggerLevels: []models.TriggerLevel{{TriggerPrice: 48000}}},
	}}
	h, monitor := newTestHandler(t, store, &stubFeed{})

	rec := doRequest(h.UpdateAlert, http.MethodPut, "/api/scrips/BTCUSD/alert",
		`{"level_index":0,"disabled":true}`, map[string]string{"symbol": "BTCUSD"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	snap, err := monitor.Snapshot("BTCUSD", usecase.TimeframeAll)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !snap.Levels[0].Level.AlertDisabled {
		t.Fatal("toggle must reach the live view")
	}
}

func TestUpdateAlertValidation(t *testing.T) {
	h, _ := newTestHandler(t, &stubStore{}, &stubFeed{})

	rec := doRequest(h.UpdateAlert, http.MethodPut, "/api/scrips/BTCUSD/alert",
		`{"disabled":true}`, map[string]string{"symbol": "BTCUSD"})
	var resp struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 on missing level_index", resp.Status)
	}
}
