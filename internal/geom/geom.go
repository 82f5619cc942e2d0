// Package geom converts annotation geometry between the pixel space
// reported by a rendering surface and the resolution-independent
// coordinate space used for persistence.
package geom

// Rect is a rectangle in normalized page coordinates.
// All of X, Y, Width, Height are fractions of the unit's dimensions
// in the closed range [0,1]. UnitIndex is 1-based.
type Rect struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	UnitIndex int     `json:"unitIndex"`
}

// IsZero returns true if the rectangle has no extent.
func (r Rect) IsZero() bool {
	return r.Width == 0 && r.Height == 0
}

// RawRect is the loosely shaped geometry reported by a rendering
// surface. Selections arrive either as absolute pixel corners
// (X1,Y1 with X2,Y2 set) or as an already-normalized box (all values
// at most 1). Missing corners are represented by nil pointers.
type RawRect struct {
	X1     float64
	Y1     float64
	X2     *float64
	Y2     *float64
	Width  float64
	Height float64
	Unit   int
}

// Normalize converts raw surface geometry into a Rect with every field
// clamped to [0,1]. pageW and pageH are the unit's pixel dimensions.
// The second return value is false only when raw is nil; any other
// malformed input degrades to a zero-area rectangle instead of
// failing, so a bad selection never aborts annotation creation.
func Normalize(raw *RawRect, pageW, pageH float64, fallbackUnit int) (Rect, bool) {
	if raw == nil {
		return Rect{}, false
	}

	unit := raw.Unit
	if unit < 1 {
		unit = fallbackUnit
	}

	x := raw.X1
	y := raw.Y1

	var width, height float64
	switch {
	case raw.X2 != nil && raw.Y2 != nil:
		// Pixel-corner form: extent is the corner difference.
		width = *raw.X2 - raw.X1
		height = *raw.Y2 - raw.Y1
	case raw.Width <= 1 && raw.Height <= 1:
		// Already normalized.
		width = raw.Width
		height = raw.Height
	default:
		// Unrecognized shape: keep the position, drop the extent.
		width = 0
		height = 0
	}

	return Rect{
		X:         clamp01(scale(x, pageW)),
		Y:         clamp01(scale(y, pageH)),
		Width:     clamp01(scale(width, pageW)),
		Height:    clamp01(scale(height, pageH)),
		UnitIndex: unit,
	}, true
}

// BoundingRect returns the minimal rectangle enclosing every rect in
// rects. The result is independent of input order. An empty input
// yields a zero rectangle at fallbackUnit.
func BoundingRect(rects []Rect, fallbackUnit int) Rect {
	if len(rects) == 0 {
		return Rect{UnitIndex: fallbackUnit}
	}

	minX, minY := 1.0, 1.0
	maxX, maxY := 0.0, 0.0
	unit := rects[0].UnitIndex

	for _, r := range rects {
		if r.X < minX {
			minX = r.X
		}
		if r.Y < minY {
			minY = r.Y
		}
		if right := r.X + r.Width; right > maxX {
			maxX = right
		}
		if bottom := r.Y + r.Height; bottom > maxY {
			maxY = bottom
		}
	}

	minX = clamp01(minX)
	minY = clamp01(minY)
	maxX = clamp01(maxX)
	maxY = clamp01(maxY)

	return Rect{
		X:         minX,
		Y:         minY,
		Width:     clamp01(maxX - minX),
		Height:    clamp01(maxY - minY),
		UnitIndex: unit,
	}
}

// scale divides v by dim only when v is outside the normalized range.
// Each field is judged independently so mixed pixel/normalized input
// still produces usable output.
func scale(v, dim float64) float64 {
	if v > 1 && dim > 0 {
		return v / dim
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
