package routemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stopsN(n int) []LatLng {
	stops := make([]LatLng, n)
	for i := range stops {
		stops[i] = NewLatLng(-43+float64(i)*0.01, -65-float64(i)*0.01)
	}
	return stops
}

func TestSplitBatches_CountSizeAndOverlap(t *testing.T) {
	for l := 2; l <= 23; l++ {
		stops := stopsN(l)
		batches := SplitBatches(stops)

		want := (l - 1 + batchStride - 1) / batchStride
		require.Len(t, batches, want, "L=%d", l)

		for i, b := range batches {
			assert.LessOrEqual(t, len(b), MaxPointsPerBatch, "L=%d batch %d", l, i)
			assert.GreaterOrEqual(t, len(b), 2, "L=%d batch %d", l, i)
			if i > 0 {
				prev := batches[i-1]
				assert.Equal(t, prev[len(prev)-1], b[0], "L=%d batches %d/%d must share a stop", l, i-1, i)
			}
		}

		assert.Equal(t, stops[0], batches[0][0])
		last := batches[len(batches)-1]
		assert.Equal(t, stops[l-1], last[len(last)-1])
	}
}

func TestSplitBatches_TooFewStops(t *testing.T) {
	assert.Empty(t, SplitBatches(nil))
	assert.Empty(t, SplitBatches(stopsN(1)))
}

func TestSplitBatches_CopiesPoints(t *testing.T) {
	stops := stopsN(3)
	batches := SplitBatches(stops)
	require.Len(t, batches, 1)

	batches[0][0] = NewLatLng(0, 0)
	assert.NotEqual(t, NewLatLng(0, 0), stops[0])
}

func TestBuildBatches_PerOptionStyleAndSkips(t *testing.T) {
	options := []Option{
		{Segment(stopsN(3)), Segment(stopsN(3))},
		{Segment(stopsN(1))},
		nil,
		{Segment(stopsN(2))},
	}

	batches := BuildBatches(options)
	require.Len(t, batches, 3)

	assert.Equal(t, 0, batches[0].Option)
	assert.Equal(t, 0, batches[0].Index)
	assert.Len(t, batches[0].Points, 5)
	assert.Equal(t, StyleForOption(0), batches[0].Style)

	assert.Equal(t, 0, batches[1].Option)
	assert.Equal(t, 1, batches[1].Index)
	assert.Len(t, batches[1].Points, 2)

	assert.Equal(t, 3, batches[2].Option)
	assert.Equal(t, StyleForOption(3), batches[2].Style)
}

func TestStyleForOption(t *testing.T) {
	assert.Equal(t, PolylineStyle{Color: "#0000FF", Weight: 6, Opacity: 0.8}, StyleForOption(0))
	assert.Equal(t, PolylineStyle{Color: "#808080", Weight: 6, Opacity: 0.6}, StyleForOption(1))
	assert.Equal(t, StyleForOption(1), StyleForOption(7))
}

func TestLatLng_Ordering(t *testing.T) {
	p := NewLatLng(-43.2, -65.1)
	assert.Equal(t, [2]float64{-65.1, -43.2}, p.LonLat())
	assert.Equal(t, p, FromLonLat(-65.1, -43.2))
	assert.Equal(t, -65.1, p.Point().Lon())
	assert.Equal(t, -43.2, p.Point().Lat())
	assert.Equal(t, "[-43.200000,-65.100000]", p.String())
}

func TestRoute_DistanceAndDuration(t *testing.T) {
	r := Route{DistanceM: 1500, DurationMs: 60_001}
	assert.InDelta(t, 1.5, r.DistanceKm(), 1e-9)
	assert.Equal(t, 2, r.EstimatedDurationMin())

	assert.Zero(t, Route{}.EstimatedDurationMin())
	assert.Equal(t, 1, Route{DurationMs: 60_000}.EstimatedDurationMin())
}
