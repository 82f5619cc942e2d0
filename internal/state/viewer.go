package state

import "strconv"

// Zoom scale bounds.
const (
	MinScale = 0.5
	MaxScale = 3.0
)

// ViewerState holds position, zoom and rotation for the open
// document.
type ViewerState struct {
	DocumentID  string
	CurrentUnit int
	TotalUnits  int
	// UnitInput mirrors CurrentUnit as editable text; SetCurrentUnit
	// re-synchronizes it.
	UnitInput string
	Scale     float64
	Rotation  int
}

// DefaultViewerState returns the viewer slice before a document is
// opened.
func DefaultViewerState() ViewerState {
	return ViewerState{
		CurrentUnit: 1,
		UnitInput:   "1",
		Scale:       1.0,
	}
}

// reduceViewer applies one action to the viewer slice.
func reduceViewer(s ViewerState, a Action) ViewerState {
	switch act := a.(type) {
	case SetDocument:
		s.DocumentID = act.ID
		s.TotalUnits = act.TotalUnits
		s.CurrentUnit = 1
		s.UnitInput = "1"

	case SetCurrentUnit:
		unit := act.Unit
		if unit < 1 {
			unit = 1
		}
		if s.TotalUnits > 0 && unit > s.TotalUnits {
			unit = s.TotalUnits
		}
		s.CurrentUnit = unit
		s.UnitInput = strconv.Itoa(unit)

	case SetUnitInput:
		s.UnitInput = act.Text

	case AdjustScale:
		s.Scale = clampScale(s.Scale + act.Delta)

	case SetScale:
		s.Scale = clampScale(act.Scale)

	case Rotate:
		// Normalize to a non-negative multiple of 90 in [0,360).
		r := (s.Rotation + act.Delta) % 360
		if r < 0 {
			r += 360
		}
		s.Rotation = r
	}
	return s
}

func clampScale(v float64) float64 {
	if v < MinScale {
		return MinScale
	}
	if v > MaxScale {
		return MaxScale
	}
	return v
}
