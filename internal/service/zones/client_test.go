package zones

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	drepo "LevelWatch/internal/domain/repository"
)

func TestSearchZones(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/zones/search" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req struct {
			Symbol    string `json:"symbol"`
			Timeframe string `json:"timeframe"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Symbol != "BTCUSD" || req.Timeframe != "1d" {
			t.Errorf("request = %+v", req)
		}
		w.Write([]byte(`{"success":true,"symbol":"BTCUSD","timeframe":"1d","zones":[
			{"index":0,"top":48000,"bottom":47200,"date":"2026-07-01","rally_length":9,"total_move_pct":22.5}
		],"count":1}`))
	}))
	defer srv.Close()

	finder := New(srv.URL, time.Second)
	zones, err := finder.SearchZones(context.Background(), " btcusd ", drepo.TFDaily)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(zones) != 1 {
		t.Fatalf("zones = %d, want 1", len(zones))
	}
	z := zones[0]
	if z.Top != 48000 || z.Bottom != 47200 || z.RallyLength != 9 {
		t.Fatalf("zone = %+v", z)
	}
}

func TestSearchZonesRejectsInvalidTimeframe(t *testing.T) {
	finder := New("http://localhost:0", time.Second)
	if _, err := finder.SearchZones(context.Background(), "BTCUSD", "2y"); !errors.Is(err, drepo.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestSearchZonesServiceDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	srv.Close()

	finder := New(srv.URL, time.Second)
	if _, err := finder.SearchZones(context.Background(), "BTCUSD", drepo.TFWeekly); !errors.Is(err, drepo.ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
}
