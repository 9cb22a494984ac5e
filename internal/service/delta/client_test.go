package delta

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	drepo "LevelWatch/internal/domain/repository"
)

func TestMarkPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/tickers/BTCUSD":
			w.Write([]byte(`{"success":true,"result":{"symbol":"BTCUSD","mark_price":"50123.5"}}`))
		case "/v2/tickers/ETHUSD":
			w.Write([]byte(`{"success":true,"result":{"symbol":"ETHUSD","mark_price":3111.25}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	feed := New(srv.URL, time.Second)
	ctx := context.Background()

	// symbols are canonicalized before hitting the exchange
	price, err := feed.MarkPrice(ctx, " btcusd ")
	if err != nil {
		t.Fatalf("mark price: %v", err)
	}
	if price != 50123.5 {
		t.Fatalf("price = %v, want 50123.5", price)
	}

	// bare-number form
	price, err = feed.MarkPrice(ctx, "ETHUSD")
	if err != nil {
		t.Fatalf("mark price: %v", err)
	}
	if price != 3111.25 {
		t.Fatalf("price = %v, want 3111.25", price)
	}

	if _, err := feed.MarkPrice(ctx, "DOGEUSD"); !errors.Is(err, drepo.ErrNotFound) {
		t.Fatalf("unknown symbol error = %v, want ErrNotFound", err)
	}
}

func TestMarkPriceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false}`))
	}))
	defer srv.Close()

	feed := New(srv.URL, time.Second)
	if _, err := feed.MarkPrice(context.Background(), "BTCUSD"); !errors.Is(err, drepo.ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}

	srv.Close()
	if _, err := feed.MarkPrice(context.Background(), "BTCUSD"); !errors.Is(err, drepo.ErrUnavailable) {
		t.Fatalf("transport error = %v, want ErrUnavailable", err)
	}
}

func TestParsePrice(t *testing.T) {
	if _, err := parsePrice([]byte(`"abc"`)); err == nil {
		t.Fatal("non-numeric price must fail")
	}
	if _, err := parsePrice([]byte(`null`)); err == nil {
		t.Fatal("null price must fail")
	}
	if _, err := parsePrice([]byte(`"-5"`)); err == nil {
		t.Fatal("negative price must fail")
	}
}
