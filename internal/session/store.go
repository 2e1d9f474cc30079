// Package session keeps per-browser cafefinder sessions. Sessions are
// ephemeral: every store expires them after a TTL.
package session

import (
	"context"
	"errors"

	"github.com/playperu/cafefinder/internal/cafefinder"
)

var ErrNotFound = errors.New("session not found")

type Store interface {
	Get(ctx context.Context, id string) (cafefinder.Session, error)
	Put(ctx context.Context, s cafefinder.Session) error
	// Check verifies that the backing service is reachable.
	Check(ctx context.Context) error
}
