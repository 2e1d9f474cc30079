// Package locate provides cafefinder.Locator implementations.
package locate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/playperu/cafefinder/internal/cafefinder"
)

var (
	// ErrUnknownRequest is returned for reports whose token is not the
	// session's outstanding request (never issued, already answered or
	// superseded).
	ErrUnknownRequest = errors.New("unknown locate request")
	// ErrSuperseded completes a request replaced by a newer one.
	ErrSuperseded = errors.New("locate request superseded")
)

// Notifier tells the session's page to run the platform geolocation call.
type Notifier func(sessionID string, req cafefinder.LocateRequest)

type outcome struct {
	pos cafefinder.Position
	err error
}

type pending struct {
	req  cafefinder.LocateRequest
	done chan outcome
}

// Bridge turns the browser's callback-based geolocation into a blocking
// Locate call. Each request is announced through the Notifier and answered
// by Report with the request token; the single answer is delivered over a
// channel. A session has at most one outstanding request.
type Bridge struct {
	notify Notifier

	mu      sync.Mutex
	pending map[string]*pending
}

func NewBridge(notify Notifier) *Bridge {
	return &Bridge{
		notify:  notify,
		pending: make(map[string]*pending),
	}
}

func (b *Bridge) Locate(ctx context.Context, sessionID string, opts cafefinder.LocateOptions) (cafefinder.Position, error) {
	p := &pending{
		req:  cafefinder.LocateRequest{Token: uuid.NewString(), Options: opts},
		done: make(chan outcome, 1),
	}

	b.mu.Lock()
	if prev, ok := b.pending[sessionID]; ok {
		prev.done <- outcome{err: ErrSuperseded}
	}
	b.pending[sessionID] = p
	b.mu.Unlock()

	if b.notify != nil {
		b.notify(sessionID, p.req)
	}

	select {
	case o := <-p.done:
		return o.pos, o.err
	case <-ctx.Done():
		b.drop(sessionID, p)
		return cafefinder.Position{}, fmt.Errorf("%w: %w", cafefinder.ErrTimeout, ctx.Err())
	}
}

// Report answers the outstanding request of sessionID. Exactly one of pos
// or err is meaningful.
func (b *Bridge) Report(sessionID, token string, pos cafefinder.Position, err error) error {
	b.mu.Lock()
	p, ok := b.pending[sessionID]
	if !ok || p.req.Token != token {
		b.mu.Unlock()
		return ErrUnknownRequest
	}
	delete(b.pending, sessionID)
	b.mu.Unlock()

	p.done <- outcome{pos: pos, err: err}
	return nil
}

// Pending returns the outstanding request of sessionID, so a page that
// missed the notification can still pick it up.
func (b *Bridge) Pending(sessionID string) (cafefinder.LocateRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.pending[sessionID]
	if !ok {
		return cafefinder.LocateRequest{}, false
	}
	return p.req, true
}

func (b *Bridge) drop(sessionID string, p *pending) {
	b.mu.Lock()
	if b.pending[sessionID] == p {
		delete(b.pending, sessionID)
	}
	b.mu.Unlock()
}

// ErrorFromCode maps a browser GeolocationPositionError code, by name or by
// its numeric value, to the matching cafefinder error.
func ErrorFromCode(code string) error {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "unsupported":
		return cafefinder.ErrUnsupported
	case "permission_denied", "1":
		return cafefinder.ErrPermissionDenied
	case "position_unavailable", "2":
		return cafefinder.ErrPositionUnavailable
	case "timeout", "3":
		return cafefinder.ErrTimeout
	}
	return fmt.Errorf("%w: code %q", cafefinder.ErrPositionUnavailable, code)
}
