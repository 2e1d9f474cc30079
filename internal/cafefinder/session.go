package cafefinder

import (
	"fmt"
	"time"
)

// Session is the application state of one browser session: the location
// flow, the shared selection and a revision that views use to decide when
// to rebuild. Mutations go through the methods below.
type Session struct {
	ID         string       `json:"id"`
	Location   LocationFlow `json:"location"`
	SelectedID string       `json:"selectedId,omitempty"`
	Revision   uint64       `json:"revision"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

func NewSession(id string, now time.Time) Session {
	return Session{
		ID:        id,
		Location:  NewLocationFlow(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Select makes cafeID the shared selection. Ids not in cat are rejected and
// leave the current selection untouched.
func (s *Session) Select(cat *Catalog, cafeID string) error {
	if _, ok := cat.Lookup(cafeID); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCafe, cafeID)
	}
	s.SelectedID = cafeID
	return nil
}

// Selected resolves the selection against cat.
func (s Session) Selected(cat *Catalog) (Cafe, bool) {
	if s.SelectedID == "" {
		return Cafe{}, false
	}
	return cat.Lookup(s.SelectedID)
}

// Reference is the position distances are measured from, if any.
func (s Session) Reference() (Position, bool) {
	if s.Location.Position == nil {
		return Position{}, false
	}
	return *s.Location.Position, true
}

// Touch records a visible change.
func (s *Session) Touch(now time.Time) {
	s.Revision++
	s.UpdatedAt = now
}
