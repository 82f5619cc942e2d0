package paint

import (
	"math/rand"
	"strings"
	"testing"
)

func TestProject_NoRanges(t *testing.T) {
	segs := Project("hello world", nil, nil)
	if len(segs) != 1 {
		t.Fatalf("len(segs) = %d, want 1", len(segs))
	}
	if segs[0].Kind != KindPlain || segs[0].Text != "hello world" {
		t.Errorf("segs[0] = %+v, want plain full text", segs[0])
	}
}

func TestProject_SingleAnnotation(t *testing.T) {
	text := "the quick brown fox"
	segs := Project(text, []Range{{Start: 4, End: 9, AnnotationID: "a1"}}, nil)

	want := []Segment{
		{Text: "the ", Kind: KindPlain},
		{Text: "quick", Kind: KindAnnotation, AnnotationID: "a1"},
		{Text: " brown fox", Kind: KindPlain},
	}
	if len(segs) != len(want) {
		t.Fatalf("len(segs) = %d, want %d", len(segs), len(want))
	}
	for i := range want {
		if segs[i] != want[i] {
			t.Errorf("segs[%d] = %+v, want %+v", i, segs[i], want[i])
		}
	}
}

// A live search range overlapping a saved highlight absorbs it: the
// merged segment spans both and is tagged search.
func TestProject_SearchWinsOnOverlap(t *testing.T) {
	text := strings.Repeat("x", 40)
	annots := []Range{{Start: 10, End: 30, AnnotationID: "a1"}}
	live := &Range{Start: 20, End: 25}

	segs := Project(text, annots, live)

	if len(segs) != 3 {
		t.Fatalf("len(segs) = %d, want 3", len(segs))
	}
	got := segs[1]
	if got.Kind != KindSearch {
		t.Errorf("merged kind = %v, want search", got.Kind)
	}
	if got.AnnotationID != "" {
		t.Errorf("merged AnnotationID = %q, want empty", got.AnnotationID)
	}
	if len(got.Text) != 20 {
		t.Errorf("merged segment covers %d bytes, want 20", len(got.Text))
	}
}

func TestProject_AdjacentAnnotationsMerge(t *testing.T) {
	text := "abcdefghij"
	annots := []Range{
		{Start: 2, End: 5, AnnotationID: "a1"},
		{Start: 5, End: 8, AnnotationID: "a2"},
	}

	segs := Project(text, annots, nil)

	if len(segs) != 3 {
		t.Fatalf("len(segs) = %d, want 3", len(segs))
	}
	if segs[1].Text != "cdefgh" || segs[1].Kind != KindAnnotation {
		t.Errorf("segs[1] = %+v, want merged annotation cdefgh", segs[1])
	}
}

func TestProject_ClipsOutOfBounds(t *testing.T) {
	segs := Project("short", []Range{{Start: -3, End: 100, AnnotationID: "a1"}}, nil)
	if len(segs) != 1 {
		t.Fatalf("len(segs) = %d, want 1", len(segs))
	}
	if segs[0].Text != "short" || segs[0].Kind != KindAnnotation {
		t.Errorf("segs[0] = %+v, want clipped annotation", segs[0])
	}
}

// Concatenating all projected segments must reproduce the input text
// for any combination of ranges.
func TestProject_Lossless(t *testing.T) {
	text := "Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor."
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		var annots []Range
		for j := 0; j < rng.Intn(6); j++ {
			start := rng.Intn(len(text))
			annots = append(annots, Range{
				Start:        start,
				End:          start + rng.Intn(len(text)-start+1),
				AnnotationID: "a",
			})
		}
		var live *Range
		if rng.Intn(2) == 0 {
			start := rng.Intn(len(text))
			live = &Range{Start: start, End: start + rng.Intn(len(text)-start+1)}
		}

		var b strings.Builder
		for _, s := range Project(text, annots, live) {
			b.WriteString(s.Text)
		}
		if b.String() != text {
			t.Fatalf("iteration %d: projection not lossless\nannots=%+v live=%+v\ngot  %q\nwant %q",
				i, annots, live, b.String(), text)
		}
	}
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindPlain, "plain"},
		{KindAnnotation, "annotation"},
		{KindSearch, "search"},
		{Kind(100), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
