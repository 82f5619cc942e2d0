// Package paint turns raw unit text plus overlapping highlight ranges
// into an ordered list of styled and unstyled segments for display.
package paint

import "sort"

// Kind identifies what a merged range represents.
type Kind uint8

const (
	// KindPlain is unstyled text between highlights.
	KindPlain Kind = iota
	// KindAnnotation is a saved highlight.
	KindAnnotation
	// KindSearch is the live search match.
	KindSearch
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindAnnotation:
		return "annotation"
	case KindSearch:
		return "search"
	default:
		return "unknown"
	}
}

// Range is a half-open [Start,End) span of unit text with a kind and,
// for annotations, the id of the annotation that produced it.
type Range struct {
	Start int
	End   int
	Kind  Kind
	// AnnotationID is set for KindAnnotation ranges and dropped when a
	// range is absorbed into a search match.
	AnnotationID string
}

// Segment is one piece of projected output. Concatenating the Text of
// every segment in order reproduces the unit text exactly.
type Segment struct {
	Text         string
	Kind         Kind
	AnnotationID string
}

// Project merges the annotation ranges and the optional live search
// range into non-overlapping segments covering text end to end.
//
// Overlapping ranges are coalesced; when a search range takes part in
// a merge the merged range is tagged as search and loses its
// annotation payload, so the focused match stays distinguishable even
// inside a saved highlight. Out-of-bounds ranges are clipped and
// empty ranges dropped.
func Project(text string, annots []Range, live *Range) []Segment {
	ranges := make([]Range, 0, len(annots)+1)
	for _, r := range annots {
		r.Kind = KindAnnotation
		if r = clip(r, len(text)); r.Start < r.End {
			ranges = append(ranges, r)
		}
	}
	if live != nil {
		r := *live
		r.Kind = KindSearch
		r.AnnotationID = ""
		if r = clip(r, len(text)); r.Start < r.End {
			ranges = append(ranges, r)
		}
	}

	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].Start < ranges[j].Start
	})

	merged := mergeRanges(ranges)

	segments := make([]Segment, 0, 2*len(merged)+1)
	pos := 0
	for _, r := range merged {
		if r.Start > pos {
			segments = append(segments, Segment{Text: text[pos:r.Start], Kind: KindPlain})
		}
		segments = append(segments, Segment{
			Text:         text[r.Start:r.End],
			Kind:         r.Kind,
			AnnotationID: r.AnnotationID,
		})
		pos = r.End
	}
	if pos < len(text) {
		segments = append(segments, Segment{Text: text[pos:], Kind: KindPlain})
	}
	if len(segments) == 0 && text != "" {
		segments = append(segments, Segment{Text: text, Kind: KindPlain})
	}
	return segments
}

// mergeRanges walks sorted ranges and coalesces overlaps. Search wins
// on any overlap.
func mergeRanges(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}

	merged := make([]Range, 0, len(ranges))
	cur := ranges[0]
	for _, r := range ranges[1:] {
		if r.Start <= cur.End {
			if r.End > cur.End {
				cur.End = r.End
			}
			if r.Kind == KindSearch || cur.Kind == KindSearch {
				cur.Kind = KindSearch
				cur.AnnotationID = ""
			}
			continue
		}
		merged = append(merged, cur)
		cur = r
	}
	return append(merged, cur)
}

func clip(r Range, n int) Range {
	if r.Start < 0 {
		r.Start = 0
	}
	if r.End > n {
		r.End = n
	}
	return r
}
