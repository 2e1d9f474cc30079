package finder

import "github.com/playperu/cafefinder/internal/cafefinder"

type LocationView struct {
	State     cafefinder.LocationState  `json:"state"`
	Reason    string                    `json:"reason,omitempty"`
	Retryable bool                      `json:"retryable"`
	Position  *cafefinder.Position      `json:"position,omitempty"`
	Pending   *cafefinder.LocateRequest `json:"pending,omitempty"`
}

// View is everything the page needs to render a session: the location
// prompt or error, the ranked list and, once a position is known, the map.
type View struct {
	SessionID  string              `json:"sessionId"`
	Revision   uint64              `json:"revision"`
	SelectedID string              `json:"selectedId,omitempty"`
	Location   LocationView        `json:"location"`
	List       cafefinder.ListView `json:"list"`
	Map        *cafefinder.MapView `json:"map,omitempty"`
}

func (s *Service) view(sess cafefinder.Session) View {
	cafes := s.catalog.Cafes()

	selectedID := ""
	if c, ok := sess.Selected(s.catalog); ok {
		selectedID = c.ID
	}

	v := View{
		SessionID:  sess.ID,
		Revision:   sess.Revision,
		SelectedID: selectedID,
		Location: LocationView{
			State:     sess.Location.State,
			Reason:    sess.Location.Reason(),
			Retryable: sess.Location.Retryable(),
			Position:  sess.Location.Position,
		},
	}

	var ranked []cafefinder.Ranked
	if ref, ok := sess.Reference(); ok {
		ranked = cafefinder.Rank(cafes, ref)
		m := cafefinder.PresentMap(cafes, ref, selectedID, s.opts.Map)
		v.Map = &m
	} else {
		ranked = cafefinder.Unranked(cafes)
	}
	v.List = cafefinder.PresentList(ranked, selectedID)

	if s.reporter != nil && sess.Location.State == cafefinder.LocationAcquiring {
		if req, ok := s.reporter.Pending(sess.ID); ok {
			v.Location.Pending = &req
		}
	}
	return v
}
