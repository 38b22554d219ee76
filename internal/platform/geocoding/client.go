package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrNotFound means the provider answered but had no coordinates for
	// the address. ErrUnavailable covers everything else: no API key,
	// network failure, non-OK provider status, malformed response.
	ErrNotFound    = errors.New("geocoding: address not found")
	ErrUnavailable = errors.New("geocoding: request failed")
)

// Result is the only thing callers ever see of the provider response.
type Result struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formatted_address,omitempty"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// geocodeResponse mirrors the subset of the Google Geocoding API response
// the client reads.
type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat *float64 `json:"lat"`
				Lng *float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves a free-text address to coordinates. It never returns a
// raw provider response and never panics past its boundary; every failure
// path is a nil result plus ErrNotFound or ErrUnavailable. Concurrent calls
// are independent: no caching, no de-duplication.
func (c *Client) Geocode(ctx context.Context, address string) (*Result, error) {
	address = strings.TrimSpace(address)
	if address == "" || c.apiKey == "" {
		return nil, ErrUnavailable
	}

	q := url.Values{}
	q.Set("address", address)
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch body.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("%w: provider status %s", ErrUnavailable, body.Status)
	}

	if len(body.Results) == 0 {
		return nil, ErrNotFound
	}

	top := body.Results[0]
	loc := top.Geometry.Location
	if loc.Lat == nil || loc.Lng == nil {
		return nil, ErrNotFound
	}

	return &Result{
		Lat:              *loc.Lat,
		Lng:              *loc.Lng,
		FormattedAddress: top.FormattedAddress,
	}, nil
}
