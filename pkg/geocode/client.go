// Package geocode wraps the external routing/place provider used by the
// mileage form's side channels. Both calls are best-effort: a provider
// failure never blocks entry submission, it only leaves the user-entered
// miles value in place.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/backlot-hq/backlot-backend/logger"
	"github.com/shopspring/decimal"
)

// debounceWindow bounds provider traffic from type-ahead place search: at
// most one upstream call per query key per window, with concurrent callers
// sharing the in-flight result.
const debounceWindow = 300 * time.Millisecond

// ClientInterface defines the interface for route/place operations
type ClientInterface interface {
	CalculateRouteDistance(ctx context.Context, startAddress, endAddress string) (decimal.Decimal, error)
	SearchPlaces(ctx context.Context, query string) ([]PlaceSuggestion, error)
}

type PlaceSuggestion struct {
	Name      string  `json:"name"`
	Formatted string  `json:"formatted"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	mu       sync.Mutex
	inflight map[string]*searchCall
}

type searchCall struct {
	done    chan struct{}
	results []PlaceSuggestion
	err     error
	expiry  time.Time
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		inflight:   make(map[string]*searchCall),
	}
}

type routeResponse struct {
	Features []struct {
		Properties struct {
			Distance float64 `json:"distance"` // meters
		} `json:"properties"`
	} `json:"features"`
}

const metersPerMile = 1609.344

// CalculateRouteDistance asks the provider for the driving distance between
// two addresses and returns it in miles.
func (c *Client) CalculateRouteDistance(ctx context.Context, startAddress, endAddress string) (decimal.Decimal, error) {
	log := logger.GetLogger()

	start, err := c.geocodeOne(ctx, startAddress)
	if err != nil {
		return decimal.Zero, fmt.Errorf("geocode start address: %w", err)
	}
	end, err := c.geocodeOne(ctx, endAddress)
	if err != nil {
		return decimal.Zero, fmt.Errorf("geocode end address: %w", err)
	}

	params := url.Values{}
	params.Add("waypoints", fmt.Sprintf("%f,%f|%f,%f", start.Latitude, start.Longitude, end.Latitude, end.Longitude))
	params.Add("mode", "drive")
	params.Add("apiKey", c.apiKey)

	endpoint := fmt.Sprintf("%s/routing?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("create routing request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("execute routing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("routing provider returned status %d", resp.StatusCode)
	}

	var routeResp routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&routeResp); err != nil {
		return decimal.Zero, fmt.Errorf("decode routing response: %w", err)
	}
	if len(routeResp.Features) == 0 {
		return decimal.Zero, fmt.Errorf("no route found between addresses")
	}

	meters := routeResp.Features[0].Properties.Distance
	miles := decimal.NewFromFloat(meters / metersPerMile).Round(1)
	log.Debugw("Route distance calculated",
		"start", startAddress, "end", endAddress, "miles", miles)
	return miles, nil
}

// SearchPlaces returns autocomplete suggestions for a partial address.
// Identical queries landing within the debounce window share one upstream
// call.
func (c *Client) SearchPlaces(ctx context.Context, query string) ([]PlaceSuggestion, error) {
	c.mu.Lock()
	call, ok := c.inflight[query]
	if ok && time.Now().Before(call.expiry) {
		c.mu.Unlock()
		select {
		case <-call.done:
			return call.results, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	// Opportunistic sweep of expired entries keeps the map bounded.
	now := time.Now()
	for q, stale := range c.inflight {
		if now.After(stale.expiry) {
			delete(c.inflight, q)
		}
	}

	call = &searchCall{
		done:   make(chan struct{}),
		expiry: now.Add(debounceWindow),
	}
	c.inflight[query] = call
	c.mu.Unlock()

	call.results, call.err = c.searchPlacesDirect(ctx, query)
	close(call.done)

	return call.results, call.err
}

type searchResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Formatted string  `json:"formatted"`
		Lat       float64 `json:"lat"`
		Lon       float64 `json:"lon"`
	} `json:"results"`
}

func (c *Client) searchPlacesDirect(ctx context.Context, query string) ([]PlaceSuggestion, error) {
	params := url.Values{}
	params.Add("text", query)
	params.Add("limit", "5")
	params.Add("format", "json")
	params.Add("apiKey", c.apiKey)

	endpoint := fmt.Sprintf("%s/geocode/autocomplete?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("place provider returned status %d", resp.StatusCode)
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	suggestions := make([]PlaceSuggestion, 0, len(searchResp.Results))
	for _, r := range searchResp.Results {
		suggestions = append(suggestions, PlaceSuggestion{
			Name:      r.Name,
			Formatted: r.Formatted,
			Latitude:  r.Lat,
			Longitude: r.Lon,
		})
	}
	return suggestions, nil
}

func (c *Client) geocodeOne(ctx context.Context, address string) (*PlaceSuggestion, error) {
	suggestions, err := c.searchPlacesDirect(ctx, address)
	if err != nil {
		return nil, err
	}
	if len(suggestions) == 0 {
		return nil, fmt.Errorf("address not found: %s", address)
	}
	return &suggestions[0], nil
}
