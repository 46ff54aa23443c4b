package routemap

import "fmt"

// RenderStatus is the phase a session's render cycle is in.
type RenderStatus string

const (
	StatusIdle             RenderStatus = "idle"
	StatusLoading          RenderStatus = "loading"
	StatusRenderingMarkers RenderStatus = "rendering_markers"
	StatusFetchingRoutes   RenderStatus = "fetching_routes"
	StatusDrawingResults   RenderStatus = "drawing_results"
)

// validTransitions defines the render cycle. Every active phase may fall
// back to idle, which is the terminal step of a cycle.
var validTransitions = map[RenderStatus][]RenderStatus{
	StatusIdle:             {StatusLoading},
	StatusLoading:          {StatusRenderingMarkers, StatusIdle},
	StatusRenderingMarkers: {StatusFetchingRoutes, StatusIdle},
	StatusFetchingRoutes:   {StatusDrawingResults, StatusIdle},
	StatusDrawingResults:   {StatusIdle},
}

// IsValid returns true if the status is a recognized render status.
func (s RenderStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s RenderStatus) CanTransitionTo(target RenderStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsActive returns true while a render cycle is in progress.
func (s RenderStatus) IsActive() bool {
	return s != StatusIdle
}

// String returns the string representation of the status.
func (s RenderStatus) String() string {
	return string(s)
}

// ParseRenderStatus converts a string to a RenderStatus, returning an error if invalid.
func ParseRenderStatus(s string) (RenderStatus, error) {
	status := RenderStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid render status: %s", s)
	}
	return status, nil
}
