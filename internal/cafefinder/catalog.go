package cafefinder

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownCafe = errors.New("unknown cafe")

// Catalog is the immutable set of cafes loaded at startup.
type Catalog struct {
	cafes []Cafe
	index map[string]int
}

// NewCatalog builds a catalog keeping the input order. Records with a blank
// id or an id already seen are skipped and returned as problems.
func NewCatalog(cafes []Cafe) (*Catalog, []error) {
	c := &Catalog{
		cafes: make([]Cafe, 0, len(cafes)),
		index: make(map[string]int, len(cafes)),
	}

	var problems []error
	for i, cafe := range cafes {
		cafe.ID = strings.TrimSpace(cafe.ID)
		if cafe.ID == "" {
			problems = append(problems, fmt.Errorf("cafe #%d (%q): missing id", i, cafe.Name))
			continue
		}
		if _, dup := c.index[cafe.ID]; dup {
			problems = append(problems, fmt.Errorf("cafe #%d: duplicate id %q", i, cafe.ID))
			continue
		}
		c.index[cafe.ID] = len(c.cafes)
		c.cafes = append(c.cafes, cafe)
	}
	return c, problems
}

// EmptyCatalog is what the service runs with when the data source failed.
func EmptyCatalog() *Catalog {
	c, _ := NewCatalog(nil)
	return c
}

// Len returns the number of cafes.
func (c *Catalog) Len() int { return len(c.cafes) }

// Cafes returns a copy of the cafes in load order.
func (c *Catalog) Cafes() []Cafe {
	out := make([]Cafe, len(c.cafes))
	copy(out, c.cafes)
	return out
}

// Lookup finds a cafe by id.
func (c *Catalog) Lookup(id string) (Cafe, bool) {
	i, ok := c.index[id]
	if !ok {
		return Cafe{}, false
	}
	return c.cafes[i], true
}
