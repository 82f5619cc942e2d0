package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dshills/folio/internal/event"
	"github.com/dshills/folio/internal/geom"
	"github.com/dshills/folio/internal/paint"
	"github.com/dshills/folio/internal/speech"
	"github.com/dshills/folio/internal/state"
)

// nullSynth satisfies speech.Synthesizer without making any sound.
type nullSynth struct {
	mu     sync.Mutex
	spoken []string
}

func (n *nullSynth) Voices(context.Context) ([]speech.Voice, error) {
	return nil, nil
}

func (n *nullSynth) Speak(_ context.Context, text string, _ speech.Options) error {
	n.mu.Lock()
	n.spoken = append(n.spoken, text)
	n.mu.Unlock()
	return nil
}

func (n *nullSynth) Stop() {}

type captureSink struct {
	mu       sync.Mutex
	sessions []Session
}

func (c *captureSink) FlushSession(s Session) {
	c.mu.Lock()
	c.sessions = append(c.sessions, s)
	c.mu.Unlock()
}

func (c *captureSink) all() []Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Session(nil), c.sessions...)
}

// newTestApp builds an application over a plain-text document in a
// temp dir. serverURL may be empty for offline operation.
func newTestApp(t *testing.T, docText, serverURL string, sink SessionSink) *Application {
	t.Helper()
	dir := t.TempDir()

	docPath := filepath.Join(dir, "book.txt")
	if err := os.WriteFile(docPath, []byte(docText), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := fmt.Sprintf("prefs_path: %s\nlog_level: error\n", filepath.Join(dir, "prefs.json"))
	cfg += "text:\n  section_size: 40\n"
	if serverURL != "" {
		cfg += "server:\n  base_url: " + serverURL + "\n"
	}
	cfgPath := filepath.Join(dir, "folio.yaml")
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := New(Options{
		ConfigPath:   cfgPath,
		DocumentPath: docPath,
		LogOutput:    io.Discard,
		Synthesizer:  &nullSynth{},
		SessionSink:  sink,
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	t.Cleanup(a.Shutdown)
	return a
}

func TestNew_OpensDocumentAndStartsSession(t *testing.T) {
	a := newTestApp(t, strings.Repeat("lorem ipsum dolor sit amet ", 20), "", nil)

	s := a.Store().State()
	if s.Viewer.TotalUnits < 2 {
		t.Errorf("TotalUnits = %d, want several sections", s.Viewer.TotalUnits)
	}
	if s.Viewer.DocumentID != "book.txt" {
		t.Errorf("DocumentID = %q, want book.txt", s.Viewer.DocumentID)
	}
	if s.Session.StartedAt.IsZero() {
		t.Error("session not started on open")
	}
	if !s.Session.WindowActive {
		t.Error("window should start active")
	}
}

func TestNew_MissingDocumentFails(t *testing.T) {
	_, err := New(Options{
		ConfigPath:   filepath.Join(t.TempDir(), "none.yaml"),
		DocumentPath: filepath.Join(t.TempDir(), "missing.txt"),
		LogOutput:    io.Discard,
		Synthesizer:  &nullSynth{},
	})
	if err == nil {
		t.Fatal("New should fail for a missing document")
	}
	var initErr *InitError
	if !errors.As(err, &initErr) || initErr.Stage != "document" {
		t.Errorf("err = %v, want InitError at document stage", err)
	}
}

func TestApplication_ViewerPrefsRoundTrip(t *testing.T) {
	a := newTestApp(t, "short document", "", nil)

	a.Store().Dispatch(state.SetScale{Scale: 1.5})
	a.Store().Dispatch(state.Rotate{Delta: 90})

	// The subscriber persisted both; a fresh load sees them.
	saved := a.prefs.Load(a.BookID())
	if saved.Scale != 1.5 {
		t.Errorf("saved Scale = %v, want 1.5", saved.Scale)
	}
	if saved.Rotation != 90 {
		t.Errorf("saved Rotation = %d, want 90", saved.Rotation)
	}
}

func TestApplication_LoadRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/annotations"):
			fmt.Fprint(w, `[{"id":"a1","text":"hello","color":"yellow","unitIndex":1,"createdAt":"2026-01-02T10:00:00Z"}]`)
		case strings.HasSuffix(r.URL.Path, "/bookmarks"):
			fmt.Fprint(w, `[{"id":"b1","unitIndex":1,"createdAt":"2026-01-02T10:00:00Z"}]`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	a := newTestApp(t, "hello world", srv.URL, nil)
	a.LoadRemote(context.Background())

	s := a.Store().State()
	if len(s.Data.Annotations) != 1 || s.Data.Annotations[0].ID != "a1" {
		t.Errorf("Annotations = %+v, want one with id a1", s.Data.Annotations)
	}
	if len(s.Data.Bookmarks) != 1 || s.Data.Bookmarks[0].ID != "b1" {
		t.Errorf("Bookmarks = %+v, want one with id b1", s.Data.Bookmarks)
	}
	if s.Data.LoadingAnnotations || s.Data.LoadingBookmarks {
		t.Error("loading flags should clear after load")
	}
}

// A backend that has never seen this book answers 404; the reader
// starts empty without treating it as a failure.
func TestApplication_LoadRemoteNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	a := newTestApp(t, "hello world", srv.URL, nil)
	a.LoadRemote(context.Background())

	s := a.Store().State()
	if len(s.Data.Annotations) != 0 || len(s.Data.Bookmarks) != 0 {
		t.Errorf("expected empty data after 404, got %+v", s.Data)
	}
}

func TestApplication_CreateHighlight(t *testing.T) {
	a := newTestApp(t, "the quick brown fox jumps over the lazy dog", "", nil)

	x2, y2 := 110.0, 40.0
	got := a.CreateHighlight(context.Background(), "quick brown", "green", 1, []*geom.RawRect{
		{X1: 10, Y1: 20, X2: &x2, Y2: &y2},
	})

	if got.Color != "green" || got.UnitIndex != 1 {
		t.Errorf("annotation = %+v", got)
	}
	if len(got.Rects) != 1 {
		t.Fatalf("Rects = %d, want 1", len(got.Rects))
	}

	s := a.Store().State()
	if len(s.Data.Annotations) != 1 || s.Data.Annotations[0].ID != got.ID {
		t.Errorf("store should hold the new annotation, got %+v", s.Data.Annotations)
	}
}

// Malformed geometry degrades to an annotation without rects rather
// than rejecting the creation.
func TestApplication_CreateHighlightMalformedGeometry(t *testing.T) {
	a := newTestApp(t, "some text", "", nil)

	got := a.CreateHighlight(context.Background(), "some", "yellow", 1, []*geom.RawRect{nil, {}})
	if len(got.Rects) != 1 {
		// nil raw is skipped; the empty raw yields a zero-extent rect.
		t.Errorf("Rects = %+v, want the single zero-extent rect", got.Rects)
	}
	if len(a.Store().State().Data.Annotations) != 1 {
		t.Error("annotation should still be created")
	}
}

func TestApplication_ToggleBookmark(t *testing.T) {
	a := newTestApp(t, "hello world", "", nil)
	ctx := context.Background()

	a.ToggleBookmark(ctx, 1)
	if !a.Store().State().IsUnitBookmarked(1) {
		t.Fatal("unit 1 should be bookmarked after first toggle")
	}

	a.ToggleBookmark(ctx, 1)
	if a.Store().State().IsUnitBookmarked(1) {
		t.Error("unit 1 should not be bookmarked after second toggle")
	}
}

func TestApplication_Search(t *testing.T) {
	a := newTestApp(t, strings.Repeat("filler text here. ", 10)+"a hidden dragon sleeps", "", nil)

	matches, err := a.Search(context.Background(), "Dragon", nil)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(matches))
	}
	if !strings.Contains(matches[0].Excerpt, "dragon") {
		t.Errorf("Excerpt = %q, want it to contain the match", matches[0].Excerpt)
	}
}

func TestApplication_PaintUnitHighlightsAnnotations(t *testing.T) {
	a := newTestApp(t, "the quick brown fox", "", nil)

	got := a.CreateHighlight(context.Background(), "quick", "yellow", 1, nil)

	segs, err := a.PaintUnit(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("PaintUnit error: %v", err)
	}

	var found bool
	for _, seg := range segs {
		if seg.Kind == paint.KindAnnotation {
			found = true
			if seg.Text != "quick" {
				t.Errorf("annotation segment = %q, want quick", seg.Text)
			}
			if seg.AnnotationID != got.ID {
				t.Errorf("AnnotationID = %q, want %q", seg.AnnotationID, got.ID)
			}
		}
	}
	if !found {
		t.Error("no annotation segment in projection")
	}
}

func TestApplication_FocusLossFlushesSession(t *testing.T) {
	sink := &captureSink{}
	a := newTestApp(t, "hello world", "", sink)

	a.EventBus().Publish(context.Background(), event.TopicWindowFocus, false)

	sessions := sink.all()
	if len(sessions) != 1 {
		t.Fatalf("flushed %d sessions, want 1", len(sessions))
	}
	if sessions[0].BookID != "book.txt" || sessions[0].StartUnit != 1 {
		t.Errorf("session = %+v", sessions[0])
	}
	if a.Store().State().Session.WindowActive {
		t.Error("window should be inactive after blur")
	}

	// Regaining focus restarts measurement without flushing again.
	before := a.Store().State().Session.StartedAt
	time.Sleep(2 * time.Millisecond)
	a.EventBus().Publish(context.Background(), event.TopicWindowFocus, true)

	s := a.Store().State().Session
	if !s.WindowActive {
		t.Error("window should be active after focus")
	}
	if !s.StartedAt.After(before) {
		t.Error("session should be restamped on focus")
	}
	if got := len(sink.all()); got != 1 {
		t.Errorf("flushed %d sessions after refocus, want still 1", got)
	}
}

func TestApplication_SpeakFromReadsToEnd(t *testing.T) {
	synth := &nullSynth{}
	dir := t.TempDir()
	docPath := filepath.Join(dir, "tiny.txt")
	if err := os.WriteFile(docPath, []byte("just one unit"), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := New(Options{
		ConfigPath:   filepath.Join(dir, "none.yaml"),
		DocumentPath: docPath,
		LogOutput:    io.Discard,
		Synthesizer:  synth,
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer a.Shutdown()

	if !a.SpeechSupported() {
		t.Fatal("speech should be supported with an injected synthesizer")
	}
	if err := a.SpeakFrom(context.Background(), 1); err != nil {
		t.Fatalf("SpeakFrom error: %v", err)
	}

	synth.mu.Lock()
	defer synth.mu.Unlock()
	if len(synth.spoken) != 1 || synth.spoken[0] != "just one unit" {
		t.Errorf("spoken = %q, want the unit text", synth.spoken)
	}
}

func TestApplication_ShutdownIsIdempotent(t *testing.T) {
	sink := &captureSink{}
	a := newTestApp(t, "hello", "", sink)

	a.Shutdown()
	a.Shutdown()

	if got := len(sink.all()); got != 1 {
		t.Errorf("flushed %d sessions, want 1 despite double shutdown", got)
	}
}
