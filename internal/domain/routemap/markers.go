package routemap

import "fmt"

// DrawStopMarkers places a marker for every stop of every option and returns
// all plotted coordinates so the caller can fit the viewport to them.
//
// The first stop of an option is its origin and the last its destination;
// every other stop gets a small intermediate circle. Empty options are skipped.
func DrawStopMarkers(overlay *Overlay, options []Option) []LatLng {
	var plotted []LatLng

	for opIndex, option := range options {
		stops := option.Flatten()
		if len(stops) == 0 {
			continue
		}

		for i, stop := range stops {
			kind := classifyStop(i, len(stops))
			overlay.AddMarker(Marker{
				Position: stop,
				Kind:     kind,
				Popup:    popupLabel(opIndex, i, kind),
				Option:   opIndex,
			})
			plotted = append(plotted, stop)
		}
	}

	return plotted
}

// classifyStop gives origin precedence, so a single-stop option is drawn as an origin.
func classifyStop(index, total int) MarkerKind {
	switch {
	case index == 0:
		return MarkerOrigin
	case index == total-1:
		return MarkerDestination
	default:
		return MarkerIntermediate
	}
}

func popupLabel(opIndex, stopIndex int, kind MarkerKind) string {
	switch kind {
	case MarkerOrigin:
		return fmt.Sprintf("Opción %d - Origen", opIndex+1)
	case MarkerDestination:
		return fmt.Sprintf("Opción %d - Destino", opIndex+1)
	default:
		return fmt.Sprintf("Opción %d - Parada %d", opIndex+1, stopIndex+1)
	}
}
