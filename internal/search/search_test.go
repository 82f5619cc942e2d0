package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"unicode/utf8"
)

// mapSource serves canned unit text and counts extractions.
type mapSource struct {
	mu    sync.Mutex
	units map[int]string
	calls atomic.Int64

	// block, when non-nil, is closed to release extractions.
	block chan struct{}
}

func (m *mapSource) UnitText(ctx context.Context, unit int) (string, error) {
	m.calls.Add(1)
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if text, ok := m.units[unit]; ok {
		return text, nil
	}
	return "", nil
}

func TestRun_FindsMatchesInOrder(t *testing.T) {
	src := &mapSource{units: map[int]string{
		1: "nothing here",
		2: "once upon a time a dragon flew over the keep, and the dragon flew home",
		3: "the end",
	}}
	engine := NewEngine(src, 0)

	var progress []int
	matches, err := engine.Run(context.Background(), "dragon", 3, func(p int) {
		progress = append(progress, p)
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if len(matches) != 2 {
		t.Fatalf("len(matches) = %d, want 2", len(matches))
	}
	for i, m := range matches {
		if m.UnitIndex != 2 {
			t.Errorf("matches[%d].UnitIndex = %d, want 2", i, m.UnitIndex)
		}
		if m.MatchOrdinal != i {
			t.Errorf("matches[%d].MatchOrdinal = %d, want %d", i, m.MatchOrdinal, i)
		}
		if !strings.Contains(strings.ToLower(m.Excerpt), "dragon") {
			t.Errorf("matches[%d].Excerpt = %q, should contain the query", i, m.Excerpt)
		}
	}

	if len(progress) == 0 || progress[len(progress)-1] != 100 {
		t.Errorf("progress = %v, want final value 100", progress)
	}
}

func TestRun_CaseInsensitive(t *testing.T) {
	src := &mapSource{units: map[int]string{1: "The Dragon roared. THE DRAGON SLEPT."}}
	engine := NewEngine(src, 0)

	matches, err := engine.Run(context.Background(), "dRaGoN", 1, nil)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("len(matches) = %d, want 2", len(matches))
	}
}

func TestRun_NonOverlapping(t *testing.T) {
	src := &mapSource{units: map[int]string{1: "aaaa"}}
	engine := NewEngine(src, 0)

	matches, err := engine.Run(context.Background(), "aa", 1, nil)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("len(matches) = %d, want 2 non-overlapping", len(matches))
	}
}

func TestRun_EmptyQuery(t *testing.T) {
	src := &mapSource{units: map[int]string{1: "content"}}
	engine := NewEngine(src, 0)

	for _, query := range []string{"", "   ", "\t\n"} {
		matches, err := engine.Run(context.Background(), query, 1, nil)
		if err != nil {
			t.Fatalf("Run(%q) error: %v", query, err)
		}
		if matches != nil {
			t.Errorf("Run(%q) = %v, want nil", query, matches)
		}
	}
	if src.calls.Load() != 0 {
		t.Errorf("extractions = %d, want 0 for empty queries", src.calls.Load())
	}
}

// Whitespace inside a non-blank query is part of the needle, not
// trimmed away.
func TestRun_WhitespaceSignificant(t *testing.T) {
	src := &mapSource{units: map[int]string{1: "a dragonfly passed, then a dragon landed"}}
	engine := NewEngine(src, 0)

	matches, err := engine.Run(context.Background(), "dragon ", 1, nil)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("len(matches) = %d, want 1 (trailing space must not match %q)", len(matches), "dragonfly")
	}
	if matches[0].MatchOrdinal != 0 {
		t.Errorf("MatchOrdinal = %d, want 0", matches[0].MatchOrdinal)
	}
}

func TestRun_ProgressRounding(t *testing.T) {
	units := make(map[int]string, 30)
	for i := 1; i <= 30; i++ {
		units[i] = "x"
	}
	src := &mapSource{units: units}
	engine := NewEngine(src, 10)

	var progress []int
	if _, err := engine.Run(context.Background(), "q", 30, func(p int) {
		progress = append(progress, p)
	}); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	want := []int{33, 67, 100}
	if len(progress) != len(want) {
		t.Fatalf("progress = %v, want %v", progress, want)
	}
	for i := range want {
		if progress[i] != want[i] {
			t.Errorf("progress[%d] = %d, want %d", i, progress[i], want[i])
		}
	}
}

// Cancelling after the first batch yields no observable results and
// stops further extraction.
func TestRun_Cancellation(t *testing.T) {
	units := make(map[int]string, 1000)
	for i := 1; i <= 1000; i++ {
		units[i] = "the dragon"
	}
	src := &mapSource{units: units}
	engine := NewEngine(src, 10)

	ctx, cancel := context.WithCancel(context.Background())

	matches, err := engine.Run(ctx, "dragon", 1000, func(p int) {
		cancel() // cancel as soon as the first batch reports
	})

	if !errors.Is(err, ErrCanceled) {
		t.Fatalf("Run error = %v, want ErrCanceled", err)
	}
	if matches != nil {
		t.Errorf("matches = %v, want nil after cancellation", matches)
	}

	// The first batch ran; nothing close to the full document did.
	calls := src.calls.Load()
	if calls < 10 || calls > 30 {
		t.Errorf("extractions = %d, want roughly one batch", calls)
	}
}

func TestExcerpt(t *testing.T) {
	text := strings.Repeat("a", 100) + "NEEDLE" + strings.Repeat("b", 100)

	got := excerpt(text, 100, 106)

	if !strings.Contains(got, "NEEDLE") {
		t.Fatalf("excerpt = %q, should contain match", got)
	}
	if !strings.HasPrefix(got, "…") || !strings.HasSuffix(got, "…") {
		t.Errorf("excerpt = %q, want ellipses on both sides", got)
	}
	// 40 context runes each side plus the match itself and ellipses.
	if n := len([]rune(got)); n != 40+6+40+2 {
		t.Errorf("excerpt length = %d runes, want 88", n)
	}
}

// Context is counted in runes and the window never lands inside a
// multi-byte sequence.
func TestExcerpt_MultiByteRunes(t *testing.T) {
	tests := []struct {
		name string
		pad  string
	}{
		{"two byte runes", "ж"},
		{"three byte runes", "世"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := strings.Repeat(tt.pad, 60) + "NEEDLE" + strings.Repeat(tt.pad, 60)
			start := strings.Index(text, "NEEDLE")

			got := excerpt(text, start, start+len("NEEDLE"))

			if !utf8.ValidString(got) {
				t.Fatalf("excerpt = %q, not valid UTF-8", got)
			}
			want := "…" + strings.Repeat(tt.pad, 40) + "NEEDLE" + strings.Repeat(tt.pad, 40) + "…"
			if got != want {
				t.Errorf("excerpt = %q, want %q", got, want)
			}
		})
	}
}

func TestExcerpt_AtBoundaries(t *testing.T) {
	got := excerpt("short text", 0, 5)
	if strings.HasPrefix(got, "…") || strings.HasSuffix(got, "…") {
		t.Errorf("excerpt = %q, want no ellipses at document edges", got)
	}
	if got != "short text" {
		t.Errorf("excerpt = %q, want %q", got, "short text")
	}
}
