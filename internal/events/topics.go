package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Topics and CloudEvent types exchanged with the host application.
const (
	TopicRouteMapCommands = "routemap.commands"
	TopicRouteMapEvents   = "routemap.events"

	RenderRequested = "routemap.render.requested"
	MapRendered     = "routemap.map.rendered"

	SourceRouteMap = "service-routemap"
)

// RenderRequestedEvent asks the service to draw route options on a session.
// The session is created if it does not exist yet.
type RenderRequestedEvent struct {
	SessionID uuid.UUID `json:"session_id"`
	// Options is the route option list, forwarded to the renderer as raw JSON.
	Options json.RawMessage `json:"options"`
}

// MapRenderedEvent tells the host that a render cycle has finished.
type MapRenderedEvent struct {
	SessionID     uuid.UUID `json:"session_id"`
	MarkersDrawn  int       `json:"markers_drawn"`
	BatchesIssued int       `json:"batches_issued"`
	RoutesDrawn   int       `json:"routes_drawn"`
	RoutesFailed  int       `json:"routes_failed"`
	ParseError    string    `json:"parse_error,omitempty"`
	Skipped       []string  `json:"skipped,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
