package routemap

// MarkerKind classifies a stop marker by its position within an option.
type MarkerKind string

const (
	MarkerOrigin       MarkerKind = "origin"
	MarkerDestination  MarkerKind = "destination"
	MarkerIntermediate MarkerKind = "intermediate"
)

// String returns the string representation of the marker kind.
func (k MarkerKind) String() string {
	return string(k)
}

// Icon describes a pin marker image and its anchors, in pixels.
type Icon struct {
	IconURL     string `json:"icon_url"`
	ShadowURL   string `json:"shadow_url"`
	IconSize    [2]int `json:"icon_size"`
	IconAnchor  [2]int `json:"icon_anchor"`
	PopupAnchor [2]int `json:"popup_anchor"`
	ShadowSize  [2]int `json:"shadow_size"`
}

// CircleStyle describes the small circle drawn for intermediate stops.
type CircleStyle struct {
	Radius      int     `json:"radius"`
	FillColor   string  `json:"fill_color"`
	Color       string  `json:"color"`
	Weight      int     `json:"weight"`
	Opacity     float64 `json:"opacity"`
	FillOpacity float64 `json:"fill_opacity"`
}

// PolylineStyle is the stroke used to draw a fetched route path.
type PolylineStyle struct {
	Color   string  `json:"color"`
	Weight  int     `json:"weight"`
	Opacity float64 `json:"opacity"`
}

const markerShadowURL = "images/marker-shadow.png"

var (
	OriginIcon = Icon{
		IconURL:     "images/marker-icon-2x.png",
		ShadowURL:   markerShadowURL,
		IconSize:    [2]int{25, 41},
		IconAnchor:  [2]int{12, 41},
		PopupAnchor: [2]int{1, -34},
		ShadowSize:  [2]int{41, 41},
	}

	DestinationIcon = Icon{
		IconURL:     "images/marker-icon-2x-red.png",
		ShadowURL:   markerShadowURL,
		IconSize:    [2]int{25, 41},
		IconAnchor:  [2]int{12, 41},
		PopupAnchor: [2]int{1, -34},
		ShadowSize:  [2]int{41, 41},
	}

	IntermediateStyle = CircleStyle{
		Radius:      5,
		FillColor:   "#808080",
		Color:       "#000",
		Weight:      1,
		Opacity:     1,
		FillOpacity: 0.6,
	}
)

// StyleForOption returns the polyline style of the option at the given index.
// The first option is highlighted, every other option is muted.
func StyleForOption(index int) PolylineStyle {
	if index == 0 {
		return PolylineStyle{Color: "#0000FF", Weight: 6, Opacity: 0.8}
	}
	return PolylineStyle{Color: "#808080", Weight: 6, Opacity: 0.6}
}
