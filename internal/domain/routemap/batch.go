package routemap

import "context"

// MaxPointsPerBatch is the routing API's per-request waypoint limit.
const MaxPointsPerBatch = 5

// batchStride leaves one point of overlap so consecutive paths join up.
const batchStride = MaxPointsPerBatch - 1

// Batch is a size-bounded slice of an option's stops, fetched as one routing request.
type Batch struct {
	Option int           `json:"option"`
	Index  int           `json:"index"`
	Points []LatLng      `json:"points"`
	Style  PolylineStyle `json:"style"`
}

// Route is a fetched driving path in map-native order, paired with its stroke style.
type Route struct {
	Coords     []LatLng
	Style      PolylineStyle
	DistanceM  float64
	DurationMs int64
}

// DistanceKm returns the path length in kilometres.
func (r Route) DistanceKm() float64 {
	return r.DistanceM / 1000
}

// EstimatedDurationMin returns the driving time rounded up to whole minutes.
func (r Route) EstimatedDurationMin() int {
	const msPerMinute = 60_000
	return int((r.DurationMs + msPerMinute - 1) / msPerMinute)
}

// RouteResult is the settled outcome of one batch fetch: either Route or Err is set.
type RouteResult struct {
	Batch Batch
	Route *Route
	Err   error
}

// OK reports whether the fetch succeeded.
func (r RouteResult) OK() bool {
	return r.Err == nil && r.Route != nil
}

// RouteFetcher resolves the driving path through a batch of stops.
type RouteFetcher interface {
	FetchBatch(ctx context.Context, points []LatLng, style PolylineStyle, apiKey string) (*Route, error)
}

// SplitBatches cuts a flattened stop list into overlapping batches of at most
// MaxPointsPerBatch points. Consecutive batches share exactly one boundary stop.
// Lists with fewer than two stops produce no batches.
func SplitBatches(stops []LatLng) [][]LatLng {
	if len(stops) < 2 {
		return nil
	}

	batches := make([][]LatLng, 0, (len(stops)-2)/batchStride+1)
	for i := 0; i < len(stops)-1; i += batchStride {
		end := i + MaxPointsPerBatch
		if end > len(stops) {
			end = len(stops)
		}
		if end-i < 2 {
			continue
		}
		batch := make([]LatLng, end-i)
		copy(batch, stops[i:end])
		batches = append(batches, batch)
	}
	return batches
}

// BuildBatches plans every routing request for a render cycle, option by option.
// Options with fewer than two stops are skipped.
func BuildBatches(options []Option) []Batch {
	var batches []Batch
	for opIndex, option := range options {
		style := StyleForOption(opIndex)
		for i, points := range SplitBatches(option.Flatten()) {
			batches = append(batches, Batch{
				Option: opIndex,
				Index:  i,
				Points: points,
				Style:  style,
			})
		}
	}
	return batches
}
