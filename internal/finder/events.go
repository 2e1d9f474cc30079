package finder

import "github.com/playperu/cafefinder/internal/cafefinder"

type EventType string

const (
	// EventLocation: the location flow changed state.
	EventLocation EventType = "location"
	// EventSelection: the shared selected cafe changed.
	EventSelection EventType = "selection"
	// EventLocate asks the page to run the platform geolocation call.
	EventLocate EventType = "locate"
)

// Event is pushed to every view subscribed to a session.
type Event struct {
	Type     EventType                 `json:"type"`
	Revision uint64                    `json:"revision,omitempty"`
	State    cafefinder.LocationState  `json:"state,omitempty"`
	CafeID   string                    `json:"cafeId,omitempty"`
	Locate   *cafefinder.LocateRequest `json:"locate,omitempty"`
}

// Publisher fans events out to a session's subscribers. Publish must not
// block.
type Publisher interface {
	Publish(sessionID string, ev Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, Event) {}
