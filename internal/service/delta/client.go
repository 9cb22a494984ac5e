package delta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"LevelWatch/internal/domain/models"
	drepo "LevelWatch/internal/domain/repository"
	apphttp "LevelWatch/pkg/http"
)

// Client implements a PriceFeed backed by the Delta Exchange ticker API.
type Client struct {
	baseURL string
	http    *apphttp.Client
}

// New creates a Delta price feed.
func New(baseURL string, timeout time.Duration) drepo.PriceFeed {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    apphttp.NewClient(apphttp.WithTimeout(timeout)),
	}
}

type tickerResponse struct {
	Success bool   `json:"success"`
	Result  ticker `json:"result"`
}

type ticker struct {
	Symbol    string          `json:"symbol"`
	MarkPrice json.RawMessage `json:"mark_price"`
}

// MarkPrice fetches the current mark price for one symbol. Returns
// ErrNotFound for unknown symbols and ErrUnavailable when the exchange
// cannot be reached or answers mangled data.
func (c *Client) MarkPrice(ctx context.Context, symbol string) (float64, error) {
	symbol = models.CanonicalSymbol(symbol)

	var out tickerResponse
	err := c.http.SendAndParse(ctx, &apphttp.RequestOptions{
		Method:  apphttp.MethodGet,
		URL:     fmt.Sprintf("%s/v2/tickers/%s", c.baseURL, symbol),
		Headers: map[string]string{"Accept": "application/json"},
	}, &out)
	if err != nil {
		var statusErr *apphttp.StatusError
		if errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound {
			return 0, fmt.Errorf("symbol %s: %w", symbol, drepo.ErrNotFound)
		}
		return 0, fmt.Errorf("delta tickers %s: %v: %w", symbol, err, drepo.ErrUnavailable)
	}

	if !out.Success || len(out.Result.MarkPrice) == 0 {
		return 0, fmt.Errorf("delta tickers %s: no mark price: %w", symbol, drepo.ErrUnavailable)
	}
	price, err := parsePrice(out.Result.MarkPrice)
	if err != nil {
		return 0, fmt.Errorf("delta tickers %s: %v: %w", symbol, err, drepo.ErrUnavailable)
	}
	return price, nil
}

// parsePrice accepts both quoted and bare numbers; the exchange has served
// mark_price in either form.
func parsePrice(raw json.RawMessage) (float64, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, fmt.Errorf("empty price")
	}
	s = strings.Trim(s, `"`)
	price, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", s, err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("non-positive price %v", price)
	}
	return price, nil
}
