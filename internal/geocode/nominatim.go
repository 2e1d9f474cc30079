// Package geocode resolves free-text addresses to positions using OSM
// Nominatim.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/playperu/cafefinder/internal/cafefinder"
)

const DefaultNominatimURL = "https://nominatim.openstreetmap.org/search"

// ErrLookup is returned when geocoding fails. It matches
// cafefinder.ErrAddressNotFound.
var ErrLookup = fmt.Errorf("error when trying to get location: %w", cafefinder.ErrAddressNotFound)

// Client resolves addresses to coordinates.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    DefaultNominatimURL,
		userAgent:  "cafefinder/1.0",
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type coordinate float64

func (c *coordinate) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return fmt.Errorf("parse coordinate %q: %w", text, err)
		}
		*c = coordinate(value)
		return nil
	}

	var value float64
	if err := json.Unmarshal(data, &value); err == nil {
		*c = coordinate(value)
		return nil
	}

	return fmt.Errorf("coordinate must be a string or number")
}

type nominatimResult struct {
	Lat coordinate `json:"lat"`
	Lon coordinate `json:"lon"`
}

// Geocode returns the best match for address.
func (c *Client) Geocode(ctx context.Context, address string) (cafefinder.Position, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return cafefinder.Position{}, fmt.Errorf("%w: empty address", ErrLookup)
	}

	query := url.Values{}
	query.Set("q", address)
	query.Set("format", "json")
	query.Set("limit", "1")
	uri := c.baseURL + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return cafefinder.Position{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return cafefinder.Position{}, fmt.Errorf("%w: %v", ErrLookup, err)
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return cafefinder.Position{}, fmt.Errorf("%w: status %d", ErrLookup, res.StatusCode)
	}

	var payload []nominatimResult
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return cafefinder.Position{}, fmt.Errorf("%w: %v", ErrLookup, err)
	}
	if len(payload) == 0 {
		return cafefinder.Position{}, ErrLookup
	}

	pos := cafefinder.Position{Lat: float64(payload[0].Lat), Lng: float64(payload[0].Lon)}
	if !pos.Valid() {
		return cafefinder.Position{}, fmt.Errorf("%w: out of range %v", ErrLookup, pos)
	}
	return pos, nil
}
