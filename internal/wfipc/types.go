package wfipc

import (
	"github.com/goccy/go-json"
)

// View is one toplevel surface as reported by list-views.
type View struct {
	ID       int      `json:"id"`
	AppID    string   `json:"app-id"`
	Title    string   `json:"title"`
	Role     string   `json:"role"`
	Mapped   bool     `json:"mapped"`
	OutputID int      `json:"output-id"`
	Geometry Geometry `json:"geometry"`
}

// Output describes one monitor as reported by window-rules/output-info.
type Output struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Geometry Geometry `json:"geometry"`
	Workarea Geometry `json:"workarea"`
}

// Event is one window-rule event delivered by a watch round trip.
type Event struct {
	Name string          `json:"event"`
	View *View           `json:"view,omitempty"`
	Raw  json.RawMessage `json:"-"`
}

// decodeEvent keeps the raw payload even when it does not look like an event object.
func decodeEvent(raw json.RawMessage) Event {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		ev = Event{}
	}
	ev.Raw = raw
	return ev
}
