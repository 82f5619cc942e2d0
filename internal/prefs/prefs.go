// Package prefs persists per-book reader preferences (last-used zoom
// scale and rotation) in a small JSON file outside the backend.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Defaults applied when a stored value is missing or unparseable.
const (
	DefaultScale    = 1.0
	DefaultRotation = 0
)

// Store reads and writes the preference file. Values are stored as
// plain numeric strings keyed per book id; bad values fall back to
// defaults rather than failing.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store over the JSON file at path. The file need
// not exist yet.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Viewer holds the persisted viewer preferences of one book.
type Viewer struct {
	Scale    float64
	Rotation int
}

// Load returns the preferences for bookID, with defaults for any
// missing or invalid field.
func (s *Store) Load(bookID string) Viewer {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := Viewer{Scale: DefaultScale, Rotation: DefaultRotation}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return v
	}
	doc := string(data)

	if raw := gjson.Get(doc, escapeKey(bookID)+".scale"); raw.Exists() {
		if scale, err := strconv.ParseFloat(raw.String(), 64); err == nil && scale > 0 {
			v.Scale = scale
		}
	}
	if raw := gjson.Get(doc, escapeKey(bookID)+".rotation"); raw.Exists() {
		if rot, err := strconv.Atoi(raw.String()); err == nil && rot%90 == 0 {
			v.Rotation = ((rot % 360) + 360) % 360
		}
	}
	return v
}

// Save writes the preferences for bookID, preserving entries for
// other books.
func (s *Store) Save(bookID string, v Viewer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := "{}"
	if data, err := os.ReadFile(s.path); err == nil && gjson.ValidBytes(data) {
		doc = string(data)
	}

	doc, err := sjson.Set(doc, escapeKey(bookID)+".scale",
		strconv.FormatFloat(v.Scale, 'f', -1, 64))
	if err != nil {
		return fmt.Errorf("prefs: set scale: %w", err)
	}
	doc, err = sjson.Set(doc, escapeKey(bookID)+".rotation", strconv.Itoa(v.Rotation))
	if err != nil {
		return fmt.Errorf("prefs: set rotation: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("prefs: create dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("prefs: write: %w", err)
	}
	return nil
}

// escapeKey makes a book id safe to use as a gjson/sjson path
// component.
func escapeKey(key string) string {
	out := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		switch key[i] {
		case '.', '*', '?', '\\', '|', '#', '@':
			out = append(out, '\\')
		}
		out = append(out, key[i])
	}
	return string(out)
}
