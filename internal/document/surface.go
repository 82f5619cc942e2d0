// Package document provides the rendering-surface boundary: the
// narrow interface the core consumes from a document backend, plus
// the PDF and plain-text implementations.
package document

import (
	"context"
	"errors"
)

// Common surface errors.
var (
	// ErrUnitOutOfRange is returned for unit indexes outside [1, UnitCount].
	ErrUnitOutOfRange = errors.New("document: unit index out of range")
	// ErrClosed is returned when the surface has been closed.
	ErrClosed = errors.New("document: surface closed")
)

// Surface is the narrow interface over a document backend. Units are
// 1-indexed: a unit is one page for paginated documents and one text
// section for plain-text documents.
type Surface interface {
	// UnitCount returns the number of addressable units.
	UnitCount() int

	// UnitText extracts the text of one unit. Implementations release
	// any backend-side resource before returning, whether or not
	// extraction succeeded.
	UnitText(ctx context.Context, unit int) (string, error)

	// Dimensions returns the pixel dimensions of one unit, used to
	// normalize selection geometry.
	Dimensions(unit int) (width, height float64, err error)

	// Outline returns the document's table of contents resolved to
	// 1-indexed units. Documents without an outline return nil.
	Outline() []OutlineItem

	// Close releases the backend. The surface is unusable afterwards.
	Close() error
}

// OutlineItem is one entry of a document outline, resolved to a
// 1-indexed unit.
type OutlineItem struct {
	Title    string
	Unit     int
	Children []OutlineItem
}
