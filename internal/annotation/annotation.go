// Package annotation defines the persisted highlight and bookmark
// models shared by the state machine, the persistence client, and the
// renderer.
package annotation

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/folio/internal/geom"
)

// Annotation is a positional highlight over one document unit with an
// optional reader note.
type Annotation struct {
	ID           string      `json:"id"`
	Text         string      `json:"text"`
	Color        string      `json:"color"`
	ColorHex     string      `json:"colorHex"`
	UnitIndex    int         `json:"unitIndex"`
	Rects        []geom.Rect `json:"rects"`
	BoundingRect geom.Rect   `json:"boundingRect"`
	Note         string      `json:"note,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// Bookmark marks a single unit for quick return.
type Bookmark struct {
	ID        string    `json:"id"`
	UnitIndex int       `json:"unitIndex"`
	CreatedAt time.Time `json:"createdAt"`
}

// New creates an annotation over the given rects. The bounding
// rectangle is derived when the caller does not supply one, and every
// rect is expected to be normalized already (see geom.Normalize).
func New(text, color string, unit int, rects []geom.Rect) Annotation {
	return Annotation{
		ID:           uuid.NewString(),
		Text:         text,
		Color:        color,
		ColorHex:     HexForName(color),
		UnitIndex:    unit,
		Rects:        rects,
		BoundingRect: geom.BoundingRect(rects, unit),
		CreatedAt:    time.Now(),
	}
}

// NewBookmark creates a bookmark for the given unit.
func NewBookmark(unit int) Bookmark {
	return Bookmark{
		ID:        uuid.NewString(),
		UnitIndex: unit,
		CreatedAt: time.Now(),
	}
}

// Sort orders annotations by (UnitIndex, CreatedAt) ascending in
// place. This is the standing order the data state maintains after
// every insert.
func Sort(annots []Annotation) {
	sort.SliceStable(annots, func(i, j int) bool {
		if annots[i].UnitIndex != annots[j].UnitIndex {
			return annots[i].UnitIndex < annots[j].UnitIndex
		}
		return annots[i].CreatedAt.Before(annots[j].CreatedAt)
	})
}
