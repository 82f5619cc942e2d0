package document

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// DefaultSectionSize is the number of characters per plain-text
// section. Sections break at the nearest line boundary past the
// target so a unit never splits mid-line.
const DefaultSectionSize = 4000

// TextSurface serves a plain-text document split into fixed-size
// sections. Sections carry no geometry, so Dimensions reports a
// nominal square and selection rects arrive pre-normalized.
type TextSurface struct {
	sections []string
}

// OpenText reads the file at path and splits it into sections of
// roughly sectionSize characters. A sectionSize of 0 uses the
// default.
func OpenText(path string, sectionSize int) (*TextSurface, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("document: open text: %w", err)
	}
	return NewTextSurface(string(data), sectionSize), nil
}

// NewTextSurface splits content into sections of roughly sectionSize
// characters.
func NewTextSurface(content string, sectionSize int) *TextSurface {
	if sectionSize <= 0 {
		sectionSize = DefaultSectionSize
	}

	var sections []string
	for len(content) > 0 {
		if len(content) <= sectionSize {
			sections = append(sections, content)
			break
		}
		cut := sectionSize
		if nl := strings.IndexByte(content[cut:], '\n'); nl >= 0 && nl < sectionSize/4 {
			cut += nl + 1
		}
		// Never split a multi-byte rune across sections.
		for cut > 0 && cut < len(content) && !utf8.RuneStart(content[cut]) {
			cut--
		}
		if cut == 0 {
			// sectionSize smaller than a single rune; take the rest.
			cut = len(content)
		}
		sections = append(sections, content[:cut])
		content = content[cut:]
	}
	if len(sections) == 0 {
		sections = []string{""}
	}
	return &TextSurface{sections: sections}
}

// UnitCount returns the number of sections.
func (s *TextSurface) UnitCount() int { return len(s.sections) }

// UnitText returns the text of one section.
func (s *TextSurface) UnitText(ctx context.Context, unit int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if unit < 1 || unit > len(s.sections) {
		return "", fmt.Errorf("%w: %d of %d", ErrUnitOutOfRange, unit, len(s.sections))
	}
	return s.sections[unit-1], nil
}

// Dimensions reports a nominal unit square; plain text has no pixel
// geometry.
func (s *TextSurface) Dimensions(unit int) (float64, float64, error) {
	if unit < 1 || unit > len(s.sections) {
		return 0, 0, fmt.Errorf("%w: %d of %d", ErrUnitOutOfRange, unit, len(s.sections))
	}
	return 1, 1, nil
}

// Outline returns nil; plain-text documents have no table of
// contents.
func (s *TextSurface) Outline() []OutlineItem { return nil }

// Close is a no-op for plain text.
func (s *TextSurface) Close() error { return nil }

var _ Surface = (*TextSurface)(nil)
