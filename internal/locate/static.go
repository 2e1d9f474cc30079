package locate

import (
	"context"

	"github.com/playperu/cafefinder/internal/cafefinder"
)

// Static always answers with a fixed position, for kiosks and demos where
// the device location is known up front. A nil position means the platform
// has no geolocation at all.
type Static struct {
	Position *cafefinder.Position
}

func (s Static) Locate(ctx context.Context, _ string, _ cafefinder.LocateOptions) (cafefinder.Position, error) {
	if err := ctx.Err(); err != nil {
		return cafefinder.Position{}, err
	}
	if s.Position == nil {
		return cafefinder.Position{}, cafefinder.ErrUnsupported
	}
	return *s.Position, nil
}
