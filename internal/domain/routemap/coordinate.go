package routemap

import (
	"fmt"

	"github.com/paulmach/orb"
)

// LatLng is a stop coordinate in map-native order: [latitude, longitude].
// It marshals as a two-element JSON array.
type LatLng [2]float64

// NewLatLng builds a coordinate from its latitude and longitude.
func NewLatLng(lat, lng float64) LatLng {
	return LatLng{lat, lng}
}

// Lat returns the latitude.
func (p LatLng) Lat() float64 { return p[0] }

// Lng returns the longitude.
func (p LatLng) Lng() float64 { return p[1] }

// LonLat returns the coordinate flipped to longitude-first order, as routing APIs expect.
func (p LatLng) LonLat() [2]float64 {
	return [2]float64{p[1], p[0]}
}

// Point converts the coordinate to an orb point (X=longitude, Y=latitude).
func (p LatLng) Point() orb.Point {
	return orb.Point{p[1], p[0]}
}

// FromLonLat builds a coordinate from a longitude-first pair.
func FromLonLat(lon, lat float64) LatLng {
	return LatLng{lat, lon}
}

// String formats the coordinate with six decimals, matching the precision stops are published with.
func (p LatLng) String() string {
	return fmt.Sprintf("[%.6f,%.6f]", p[0], p[1])
}

// Segment is a contiguous run of stops served by one bus line.
type Segment []LatLng

// Option is one complete candidate route made of ordered segments.
type Option []Segment

// Flatten concatenates every segment into the ordered stop list of the option.
func (o Option) Flatten() []LatLng {
	n := 0
	for _, seg := range o {
		n += len(seg)
	}
	stops := make([]LatLng, 0, n)
	for _, seg := range o {
		stops = append(stops, seg...)
	}
	return stops
}

// StopCount returns the number of stops in the flattened option.
func (o Option) StopCount() int {
	n := 0
	for _, seg := range o {
		n += len(seg)
	}
	return n
}
