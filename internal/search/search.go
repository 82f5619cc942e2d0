// Package search scans document units for a text query in bounded
// batches with progress reporting and mid-flight cancellation.
package search

import (
	"context"
	"errors"
	"math"
	"runtime"
	"strings"
	"sync"
	"unicode/utf8"
)

// DefaultBatchSize is the number of units scanned per batch. It also
// bounds extraction parallelism within a batch.
const DefaultBatchSize = 10

// excerptContext is the number of runes of surrounding text kept on
// each side of a match.
const excerptContext = 40

// ErrCanceled is returned when a search is cancelled mid-flight.
// Results from the in-flight batch are discarded; nothing partial is
// observable.
var ErrCanceled = errors.New("search: canceled")

// Match is one occurrence of the query within a unit.
type Match struct {
	// UnitIndex is the 1-based unit containing the match.
	UnitIndex int
	// Excerpt is the match with surrounding context.
	Excerpt string
	// MatchOrdinal numbers occurrences within the unit from 0.
	MatchOrdinal int
}

// Extractor provides per-unit text, typically the extraction cache.
type Extractor interface {
	UnitText(ctx context.Context, unit int) (string, error)
}

// ProgressFunc receives cumulative progress as a 0-100 percentage
// after each batch.
type ProgressFunc func(percent int)

// Engine runs incremental searches over a document.
type Engine struct {
	source    Extractor
	batchSize int
}

// NewEngine creates a search engine over source. A batchSize of 0 or
// less uses DefaultBatchSize.
func NewEngine(source Extractor, batchSize int) *Engine {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Engine{source: source, batchSize: batchSize}
}

// Run scans units [1, totalUnits] for query and returns matches
// ordered by (unit, occurrence). Matching is case-insensitive and
// non-overlapping. Units are processed in batches: each batch
// extracts its units concurrently, then the engine reports progress
// and yields to the scheduler before the next batch, bounding how
// long the caller goes without control.
//
// Cancelling ctx lets the in-flight batch finish, discards its
// results, and returns ErrCanceled. An empty or whitespace-only
// query returns no matches without scanning; otherwise whitespace in
// the query is significant and matched verbatim. Units whose
// extraction fails are skipped; extraction is retryable on the next
// search.
func (e *Engine) Run(ctx context.Context, query string, totalUnits int, onProgress ProgressFunc) ([]Match, error) {
	if strings.TrimSpace(query) == "" || totalUnits < 1 {
		return nil, nil
	}
	needle := strings.ToLower(query)

	var matches []Match
	processed := 0

	for start := 1; start <= totalUnits; start += e.batchSize {
		// No new batch starts once cancellation is observed.
		if ctx.Err() != nil {
			return nil, ErrCanceled
		}

		end := start + e.batchSize - 1
		if end > totalUnits {
			end = totalUnits
		}

		batch := e.scanBatch(ctx, needle, start, end)

		// The batch was allowed to finish; if cancellation arrived
		// while it ran, drop its results now and stop.
		if err := ctx.Err(); err != nil {
			return nil, ErrCanceled
		}

		matches = append(matches, batch...)
		processed += end - start + 1

		if onProgress != nil {
			onProgress(int(math.Round(float64(processed) / float64(totalUnits) * 100)))
		}

		// One scheduler tick between batches keeps the event loop
		// responsive regardless of document size.
		runtime.Gosched()
	}

	return matches, nil
}

// scanBatch extracts and scans units [start, end] concurrently and
// returns their matches in unit order.
func (e *Engine) scanBatch(ctx context.Context, needle string, start, end int) []Match {
	perUnit := make([][]Match, end-start+1)

	var wg sync.WaitGroup
	for unit := start; unit <= end; unit++ {
		wg.Add(1)
		go func(unit int) {
			defer wg.Done()
			text, err := e.source.UnitText(ctx, unit)
			if err != nil {
				return
			}
			perUnit[unit-start] = scanUnit(text, needle, unit)
		}(unit)
	}
	wg.Wait()

	var out []Match
	for _, m := range perUnit {
		out = append(out, m...)
	}
	return out
}

// scanUnit finds all non-overlapping occurrences of needle in text.
func scanUnit(text, needle string, unit int) []Match {
	lowered := strings.ToLower(text)

	var matches []Match
	ordinal := 0
	pos := 0
	for {
		idx := strings.Index(lowered[pos:], needle)
		if idx < 0 {
			break
		}
		abs := pos + idx
		matches = append(matches, Match{
			UnitIndex:    unit,
			Excerpt:      excerpt(text, abs, abs+len(needle)),
			MatchOrdinal: ordinal,
		})
		ordinal++
		pos = abs + len(needle)
	}
	return matches
}

// excerpt returns the matched span with up to excerptContext runes of
// context on each side, ellipsized where truncated. The window only
// ever grows and shrinks at rune boundaries.
func excerpt(text string, start, end int) string {
	// Offsets come from the lowercased copy; Unicode case folding can
	// change byte lengths, so clamp and snap to rune boundaries before
	// slicing.
	if start > len(text) {
		start = len(text)
	}
	if end > len(text) {
		end = len(text)
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}

	lo := start
	for i := 0; i < excerptContext && lo > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:lo])
		lo -= size
	}
	hi := end
	for i := 0; i < excerptContext && hi < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[hi:])
		hi += size
	}

	var b strings.Builder
	if lo > 0 {
		b.WriteString("…")
	}
	b.WriteString(strings.ReplaceAll(text[lo:hi], "\n", " "))
	if hi < len(text) {
		b.WriteString("…")
	}
	return b.String()
}
