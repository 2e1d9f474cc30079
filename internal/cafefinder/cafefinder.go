// Package cafefinder defines the core domain types and service interfaces:
// positions, cafes, distance ranking, the location acquisition flow and the
// per-session state shared by the list and map views.
// It has zero external dependencies. Everything here is pure Go.
package cafefinder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Position is a geographic coordinate in degrees.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether p is finite and inside the geographic ranges.
func (p Position) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// ParsePosition parses "lat,lng".
func ParsePosition(s string) (Position, error) {
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return Position{}, fmt.Errorf("expected lat,lng, got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return Position{}, fmt.Errorf("parsing latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return Position{}, fmt.Errorf("parsing longitude: %w", err)
	}
	p := Position{Lat: lat, Lng: lng}
	if !p.Valid() {
		return Position{}, fmt.Errorf("coordinates out of range: %q", s)
	}
	return p, nil
}

// Cafe is one record of the static cafe document.
type Cafe struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Address     string  `json:"address,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	Hours       string  `json:"hours,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Position returns the cafe's coordinates.
func (c Cafe) Position() Position {
	return Position{Lat: c.Lat, Lng: c.Lng}
}

// LocateOptions are handed to the platform geolocation call.
type LocateOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration
}

// DefaultLocateOptions mirrors the browser settings the page has always used.
func DefaultLocateOptions() LocateOptions {
	return LocateOptions{
		HighAccuracy: true,
		Timeout:      10 * time.Second,
		MaximumAge:   60 * time.Second,
	}
}

// positionOptions is the navigator.geolocation PositionOptions shape;
// durations are in milliseconds.
type positionOptions struct {
	EnableHighAccuracy bool  `json:"enableHighAccuracy"`
	Timeout            int64 `json:"timeout"`
	MaximumAge         int64 `json:"maximumAge"`
}

// MarshalJSON encodes o in the shape navigator.geolocation expects.
func (o LocateOptions) MarshalJSON() ([]byte, error) {
	return json.Marshal(positionOptions{
		EnableHighAccuracy: o.HighAccuracy,
		Timeout:            o.Timeout.Milliseconds(),
		MaximumAge:         o.MaximumAge.Milliseconds(),
	})
}

func (o *LocateOptions) UnmarshalJSON(data []byte) error {
	var po positionOptions
	if err := json.Unmarshal(data, &po); err != nil {
		return err
	}
	*o = LocateOptions{
		HighAccuracy: po.EnableHighAccuracy,
		Timeout:      time.Duration(po.Timeout) * time.Millisecond,
		MaximumAge:   time.Duration(po.MaximumAge) * time.Millisecond,
	}
	return nil
}

// LocateRequest is one outstanding acquisition waiting for the platform.
type LocateRequest struct {
	Token   string        `json:"token"`
	Options LocateOptions `json:"options"`
}

// Locator acquires the reference position for a session. Implementations
// must return exactly once and honour ctx cancellation.
type Locator interface {
	Locate(ctx context.Context, sessionID string, opts LocateOptions) (Position, error)
}

// Errors a Locator may return. FailureKindOf maps them to a FailureKind.
var (
	ErrUnsupported         = errors.New("geolocation not supported")
	ErrPermissionDenied    = errors.New("geolocation permission denied")
	ErrPositionUnavailable = errors.New("position unavailable")
	ErrTimeout             = errors.New("geolocation timed out")
	ErrAddressNotFound     = errors.New("address not found")
)
