package zones

import (
	"context"
	"fmt"
	"strings"
	"time"

	"LevelWatch/internal/domain/models"
	drepo "LevelWatch/internal/domain/repository"
	apphttp "LevelWatch/pkg/http"
)

// Client implements a ZoneFinder backed by the zone-discovery HTTP service.
type Client struct {
	baseURL string
	http    *apphttp.Client
}

// New creates a zone-discovery client.
func New(baseURL string, timeout time.Duration) drepo.ZoneFinder {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    apphttp.NewClient(apphttp.WithTimeout(timeout)),
	}
}

type searchRequest struct {
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
}

type searchResponse struct {
	Success   bool          `json:"success"`
	Symbol    string        `json:"symbol"`
	Timeframe string        `json:"timeframe"`
	Zones     []models.Zone `json:"zones"`
	Count     int           `json:"count"`
}

// SearchZones asks the discovery service for candidate support zones.
func (c *Client) SearchZones(ctx context.Context, symbol string, tf drepo.Timeframe) ([]models.Zone, error) {
	symbol = models.CanonicalSymbol(symbol)
	if !drepo.IsValidTimeframe(tf) {
		return nil, fmt.Errorf("timeframe %q: %w", tf, drepo.ErrNotFound)
	}

	var out searchResponse
	err := c.http.SendAndParse(ctx, &apphttp.RequestOptions{
		Method: apphttp.MethodPost,
		URL:    c.baseURL + "/api/zones/search",
		Body:   searchRequest{Symbol: symbol, Timeframe: string(tf)},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("zone search %s %s: %v: %w", symbol, tf, err, drepo.ErrUnavailable)
	}
	if !out.Success {
		return nil, fmt.Errorf("zone search %s %s rejected: %w", symbol, tf, drepo.ErrUnavailable)
	}

	for i := range out.Zones {
		if out.Zones[i].Top <= 0 {
			return nil, fmt.Errorf("zone %d of %s has non-positive top: %w", i, symbol, drepo.ErrUnavailable)
		}
	}
	return out.Zones, nil
}
