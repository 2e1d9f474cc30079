package cafefinder

import (
	"fmt"
	"html"
	"strconv"
	"strings"
)

// ListEntry is one row of the cafe list.
type ListEntry struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	DistanceKm  *float64 `json:"distanceKm,omitempty"`
	Distance    string   `json:"distance,omitempty"`
	Address     string   `json:"address,omitempty"`
	Rating      string   `json:"rating,omitempty"`
	Hours       string   `json:"hours,omitempty"`
	Description string   `json:"description,omitempty"`
	Selected    bool     `json:"selected"`
}

type ListView struct {
	Title   string      `json:"title"`
	Count   int         `json:"count"`
	Entries []ListEntry `json:"entries"`
}

// PresentList renders ranked cafes with the selected one highlighted.
func PresentList(ranked []Ranked, selectedID string) ListView {
	v := ListView{
		Title:   fmt.Sprintf("Nearby Cafes (%d)", len(ranked)),
		Count:   len(ranked),
		Entries: make([]ListEntry, 0, len(ranked)),
	}
	for _, r := range ranked {
		e := ListEntry{
			ID:          r.Cafe.ID,
			Name:        r.Cafe.Name,
			Address:     r.Cafe.Address,
			Rating:      RatingText(r.Cafe.Rating),
			Hours:       r.Cafe.Hours,
			Description: r.Cafe.Description,
			Selected:    r.Cafe.ID == selectedID,
		}
		if r.HasDistance {
			d := r.DistanceKm
			e.DistanceKm = &d
			e.Distance = FormatKm(d) + " away"
		}
		v.Entries = append(v.Entries, e)
	}
	return v
}

// RatingText renders a rating as "⭐ 4.5/5", or "" when unrated.
func RatingText(rating float64) string {
	if rating <= 0 || !finite(rating) {
		return ""
	}
	return "⭐ " + strconv.FormatFloat(rating, 'f', -1, 64) + "/5"
}

type MarkerKind string

const (
	MarkerUser MarkerKind = "user"
	MarkerCafe MarkerKind = "cafe"
)

const (
	UserMarkerID = "user"

	userIcon  = "📍"
	cafeIcon  = "☕"
	userPopup = "Your Location"
)

type Marker struct {
	ID        string     `json:"id"`
	Kind      MarkerKind `json:"kind"`
	Position  Position   `json:"position"`
	Icon      string     `json:"icon"`
	ClassName string     `json:"className"`
	Popup     string     `json:"popup"`
	PopupOpen bool       `json:"popupOpen"`
	Selected  bool       `json:"selected,omitempty"`
}

type MapOptions struct {
	OverviewZoom int
	SelectedZoom int
}

func DefaultMapOptions() MapOptions {
	return MapOptions{OverviewZoom: 15, SelectedZoom: 16}
}

// MapView is the full marker set plus camera. Markers are always rebuilt
// from scratch; exactly one popup is open.
type MapView struct {
	Center    Position `json:"center"`
	Zoom      int      `json:"zoom"`
	OpenPopup string   `json:"openPopup"`
	Markers   []Marker `json:"markers"`
}

// PresentMap builds the map around ref. With a selection the camera follows
// the selected cafe at the closer zoom and only its popup is open.
func PresentMap(cafes []Cafe, ref Position, selectedID string, opts MapOptions) MapView {
	v := MapView{
		Center:    ref,
		Zoom:      opts.OverviewZoom,
		OpenPopup: UserMarkerID,
		Markers:   make([]Marker, 0, len(cafes)+1),
	}

	for _, c := range cafes {
		if c.ID == selectedID {
			v.Center = c.Position()
			v.Zoom = opts.SelectedZoom
			v.OpenPopup = c.ID
			break
		}
	}

	v.Markers = append(v.Markers, Marker{
		ID:        UserMarkerID,
		Kind:      MarkerUser,
		Position:  ref,
		Icon:      userIcon,
		ClassName: "user-location-marker",
		Popup:     userPopup,
		PopupOpen: v.OpenPopup == UserMarkerID,
	})
	for _, c := range cafes {
		selected := c.ID == selectedID
		class := "cafe-marker"
		if selected {
			class += " selected"
		}
		v.Markers = append(v.Markers, Marker{
			ID:        c.ID,
			Kind:      MarkerCafe,
			Position:  c.Position(),
			Icon:      cafeIcon,
			ClassName: class,
			Popup:     cafePopup(c),
			PopupOpen: v.OpenPopup == c.ID,
			Selected:  selected,
		})
	}
	return v
}

func cafePopup(c Cafe) string {
	var b strings.Builder
	b.WriteString(`<div class="cafe-popup"><h3>`)
	b.WriteString(html.EscapeString(c.Name))
	b.WriteString(`</h3>`)
	if c.Address != "" {
		b.WriteString(`<p>` + html.EscapeString(c.Address) + `</p>`)
	}
	if r := RatingText(c.Rating); r != "" {
		b.WriteString(`<p>` + r + `</p>`)
	}
	b.WriteString(`</div>`)
	return b.String()
}
