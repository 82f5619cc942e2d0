package document

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gen2brain/go-fitz"
)

// FitzFormats lists the file extensions MuPDF renders natively.
// Anything else is read as plain text.
var FitzFormats = []string{".pdf", ".epub", ".xps"}

// IsFitzFormat reports whether path has one of the FitzFormats
// extensions, ignoring case.
func IsFitzFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range FitzFormats {
		if ext == f {
			return true
		}
	}
	return false
}

// FitzSurface renders a paginated document (PDF, EPUB, XPS) through
// MuPDF.
type FitzSurface struct {
	mu     sync.Mutex
	doc    *fitz.Document
	count  int
	closed bool
}

// OpenFitz opens the document at path with MuPDF.
func OpenFitz(path string) (*FitzSurface, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("document: open %s: %w", filepath.Ext(path), err)
	}
	return &FitzSurface{doc: doc, count: doc.NumPage()}, nil
}

// UnitCount returns the number of pages.
func (s *FitzSurface) UnitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// UnitText extracts the text of one page. Pages are 1-indexed at this
// boundary; fitz pages are 0-indexed.
func (s *FitzSurface) UnitText(ctx context.Context, unit int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrClosed
	}
	if unit < 1 || unit > s.count {
		return "", fmt.Errorf("%w: %d of %d", ErrUnitOutOfRange, unit, s.count)
	}

	text, err := s.doc.Text(unit - 1)
	if err != nil {
		return "", fmt.Errorf("document: extract page %d: %w", unit, err)
	}
	return text, nil
}

// Dimensions returns the pixel bounds of one page.
func (s *FitzSurface) Dimensions(unit int) (float64, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, 0, ErrClosed
	}
	if unit < 1 || unit > s.count {
		return 0, 0, fmt.Errorf("%w: %d of %d", ErrUnitOutOfRange, unit, s.count)
	}

	bounds, err := s.doc.Bound(unit - 1)
	if err != nil {
		return 0, 0, fmt.Errorf("document: bounds of page %d: %w", unit, err)
	}
	return float64(bounds.Dx()), float64(bounds.Dy()), nil
}

// Outline returns the document table of contents as a nested tree. MuPDF
// reports a flat list with nesting levels; entries with unresolvable
// destinations are skipped.
func (s *FitzSurface) Outline() []OutlineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	toc, err := s.doc.ToC()
	if err != nil || len(toc) == 0 {
		return nil
	}

	flat := make([]flatOutline, 0, len(toc))
	for _, entry := range toc {
		if entry.Page < 0 {
			continue
		}
		flat = append(flat, flatOutline{
			level: entry.Level,
			item:  OutlineItem{Title: entry.Title, Unit: entry.Page + 1},
		})
	}
	return nestOutline(flat)
}

// Close releases the MuPDF document.
func (s *FitzSurface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.doc.Close()
}

type flatOutline struct {
	level int
	item  OutlineItem
}

// nestOutline converts a level-tagged flat list into a tree. Levels
// start at 1; an entry deeper than its predecessor becomes a child.
func nestOutline(flat []flatOutline) []OutlineItem {
	var root []OutlineItem
	var build func(start, level int) ([]OutlineItem, int)

	build = func(start, level int) ([]OutlineItem, int) {
		var items []OutlineItem
		i := start
		for i < len(flat) {
			entry := flat[i]
			switch {
			case entry.level == level:
				items = append(items, entry.item)
				i++
			case entry.level > level:
				if len(items) == 0 {
					// Malformed nesting: treat as this level.
					items = append(items, entry.item)
					i++
					continue
				}
				var children []OutlineItem
				children, i = build(i, entry.level)
				items[len(items)-1].Children = children
			default:
				return items, i
			}
		}
		return items, i
	}

	root, _ = build(0, 1)
	return root
}

var _ Surface = (*FitzSurface)(nil)
