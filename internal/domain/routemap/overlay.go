package routemap

import (
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// DefaultCenter is the initial map view, centered on the service area.
var DefaultCenter = NewLatLng(-43.01, -65.17)

const (
	DefaultZoom  = 10
	MaxZoom      = 19
	TileURL      = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	TileAttrib   = "&copy; OpenStreetMap"
	featureLayer = "layer"
)

// Marker is a stop pin or circle placed on the overlay.
type Marker struct {
	Position LatLng     `json:"position"`
	Kind     MarkerKind `json:"kind"`
	Popup    string     `json:"popup"`
	Option   int        `json:"option"`
}

// Polyline is a drawn route path.
type Polyline struct {
	Coords               []LatLng      `json:"coords"`
	Style                PolylineStyle `json:"style"`
	Batch                int           `json:"batch"`
	Option               int           `json:"option"`
	DistanceKm           float64       `json:"distance_km"`
	EstimatedDurationMin int           `json:"estimated_duration_min"`
}

// TileLayer is the base map the overlay is drawn on.
type TileLayer struct {
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
	MaxZoom     int    `json:"max_zoom"`
}

// DefaultTiles is the OpenStreetMap base layer.
var DefaultTiles = TileLayer{URL: TileURL, Attribution: TileAttrib, MaxZoom: MaxZoom}

// Viewport is the visible region of the map. Bounds is nil until the
// overlay has been fitted to a set of points.
type Viewport struct {
	Center LatLng     `json:"center"`
	Zoom   int        `json:"zoom"`
	Bounds *[2]LatLng `json:"bounds,omitempty"`
	Tiles  TileLayer  `json:"tiles"`
}

// Overlay is the single mutable layer of markers and polylines drawn on a map surface.
type Overlay struct {
	mu        sync.RWMutex
	markers   []Marker
	polylines []Polyline
	viewport  Viewport
}

// NewOverlay creates an empty overlay showing the default view.
func NewOverlay() *Overlay {
	return &Overlay{
		viewport: Viewport{Center: DefaultCenter, Zoom: DefaultZoom, Tiles: DefaultTiles},
	}
}

// Clear removes every marker and polyline. The viewport is left where it is.
func (o *Overlay) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.markers = nil
	o.polylines = nil
}

// AddMarker appends a marker to the overlay.
func (o *Overlay) AddMarker(m Marker) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.markers = append(o.markers, m)
}

// AddPolyline appends a route path to the overlay.
func (o *Overlay) AddPolyline(p Polyline) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.polylines = append(o.polylines, p)
}

// FitBounds moves the viewport so that every given point is visible.
// An empty slice leaves the viewport unchanged.
func (o *Overlay) FitBounds(points []LatLng) {
	if len(points) == 0 {
		return
	}

	mp := make(orb.MultiPoint, len(points))
	for i, p := range points {
		mp[i] = p.Point()
	}
	bound := mp.Bound()
	center := bound.Center()

	o.mu.Lock()
	defer o.mu.Unlock()
	o.viewport.Center = FromLonLat(center.Lon(), center.Lat())
	o.viewport.Bounds = &[2]LatLng{
		FromLonLat(bound.Min.Lon(), bound.Min.Lat()),
		FromLonLat(bound.Max.Lon(), bound.Max.Lat()),
	}
}

// Markers returns a copy of the markers currently drawn.
func (o *Overlay) Markers() []Marker {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]Marker, len(o.markers))
	copy(out, o.markers)
	return out
}

// Polylines returns a copy of the route paths currently drawn.
func (o *Overlay) Polylines() []Polyline {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]Polyline, len(o.polylines))
	copy(out, o.polylines)
	return out
}

// Viewport returns the current view.
func (o *Overlay) Viewport() Viewport {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v := o.viewport
	if v.Bounds != nil {
		b := *v.Bounds
		v.Bounds = &b
	}
	return v
}

// FeatureCollection exports the overlay as GeoJSON. Markers become Point
// features and polylines become LineString features; styling travels in
// the feature properties.
func (o *Overlay) FeatureCollection() *geojson.FeatureCollection {
	o.mu.RLock()
	defer o.mu.RUnlock()

	fc := geojson.NewFeatureCollection()
	for _, m := range o.markers {
		f := geojson.NewFeature(m.Position.Point())
		f.Properties[featureLayer] = "marker"
		f.Properties["kind"] = m.Kind.String()
		f.Properties["popup"] = m.Popup
		f.Properties["option"] = m.Option
		switch m.Kind {
		case MarkerOrigin:
			f.Properties["icon"] = OriginIcon
		case MarkerDestination:
			f.Properties["icon"] = DestinationIcon
		default:
			f.Properties["circle"] = IntermediateStyle
		}
		fc.Append(f)
	}

	for _, p := range o.polylines {
		line := make(orb.LineString, len(p.Coords))
		for i, c := range p.Coords {
			line[i] = c.Point()
		}
		f := geojson.NewFeature(line)
		f.Properties[featureLayer] = "polyline"
		f.Properties["option"] = p.Option
		f.Properties["batch"] = p.Batch
		f.Properties["color"] = p.Style.Color
		f.Properties["weight"] = p.Style.Weight
		f.Properties["opacity"] = p.Style.Opacity
		f.Properties["distance_km"] = p.DistanceKm
		f.Properties["estimated_duration_min"] = p.EstimatedDurationMin
		fc.Append(f)
	}
	return fc
}
