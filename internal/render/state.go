package render

import "math"

// State is the interactive state of one View. It never outlives the View it was built for.
type State struct {
	ActiveTab      string `json:"activeTab"`
	Expanded       string `json:"expanded,omitempty"`
	SelectedMarker string `json:"selectedMarker,omitempty"`
}

// NewState returns the initial state for v
func NewState(v *View) State {
	var s State
	s.Reset(v)
	return s
}

// Reset returns to the default tab with nothing expanded or selected
func (s *State) Reset(v *View) {
	*s = State{}
	if v != nil {
		s.ActiveTab = v.DefaultTab
	}
}

// SelectTab switches tabs. Unknown ids are ignored.
func (s *State) SelectTab(v *View, id string) bool {
	if _, ok := v.Tab(id); !ok {
		return false
	}
	s.ActiveTab = id
	return true
}

// Toggle expands the card or phase id, collapsing any other.
// Toggling the expanded entry collapses it.
func (s *State) Toggle(v *View, id string) bool {
	if !v.hasExpandable(id) {
		return false
	}
	if s.Expanded == id {
		s.Expanded = ""
	} else {
		s.Expanded = id
	}
	return true
}

// IsExpanded reports whether id is the expanded entry
func (s State) IsExpanded(id string) bool {
	return id != "" && s.Expanded == id
}

// SelectMarker selects a map marker and expands its matching card, if any
func (s *State) SelectMarker(v *View, id string) bool {
	for _, m := range v.Markers() {
		if m.ID == id {
			s.SelectedMarker = id
			if v.hasExpandable(id) {
				s.Expanded = id
			}
			return true
		}
	}
	return false
}

// ClickAt selects the marker nearest to the given coordinates
func (s *State) ClickAt(v *View, lat, lng float64) (Marker, bool) {
	markers := v.Markers()
	if len(markers) == 0 {
		return Marker{}, false
	}
	best, bestDist := markers[0], math.Inf(1)
	for _, m := range markers {
		if d := greatCircle(lat, lng, m.Lat, m.Lng); d < bestDist {
			best, bestDist = m, d
		}
	}
	s.SelectMarker(v, best.ID)
	return best, true
}

// greatCircle returns the central angle between two points in radians
func greatCircle(lat1, lng1, lat2, lng2 float64) float64 {
	const rad = math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
