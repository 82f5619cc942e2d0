package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dshills/folio/internal/annotation"
	"github.com/dshills/folio/internal/config"
	"github.com/dshills/folio/internal/document"
	"github.com/dshills/folio/internal/event"
	"github.com/dshills/folio/internal/extract"
	"github.com/dshills/folio/internal/geom"
	"github.com/dshills/folio/internal/inflight"
	"github.com/dshills/folio/internal/paint"
	"github.com/dshills/folio/internal/persist"
	"github.com/dshills/folio/internal/prefs"
	"github.com/dshills/folio/internal/search"
	"github.com/dshills/folio/internal/speech"
	"github.com/dshills/folio/internal/state"
)

// Options configures a new Application.
type Options struct {
	// ConfigPath is the YAML config file; missing files use defaults.
	ConfigPath string
	// DocumentPath is the document to open (.pdf or plain text).
	DocumentPath string
	// BookID keys remote and local persistence; defaults to the
	// document's base name.
	BookID string
	// LogOutput overrides the log destination (default stderr).
	LogOutput io.Writer
	// Synthesizer overrides speech synthesis, mainly for tests. When
	// nil the host's espeak installation is used.
	Synthesizer speech.Synthesizer
	// SessionSink receives finished reading sessions. When nil,
	// sessions are logged.
	SessionSink SessionSink
}

// Application wires the reader core together: store, document
// surface, extraction cache, search engine, persistence client,
// preferences and speech.
type Application struct {
	cfg     *config.Config
	log     *Logger
	store   *state.Store
	bus     *event.Bus
	guard   *inflight.Guard
	prefs   *prefs.Store
	client  *persist.Client
	surface document.Surface
	cache   *extract.Cache
	engine  *search.Engine
	sink    SessionSink
	bookID  string

	speech      *speech.Controller
	speechErr   error // terminal capability failure, reported once
	speechNoted bool

	mu     sync.Mutex
	search *searchHandle
	subs   []canceler
	closed bool
}

// canceler is the common cancel surface of bus subscriptions and the
// store listener.
type canceler interface{ Cancel() }

// searchHandle identifies one in-flight search so a finished search
// only clears its own registration, never a successor's.
type searchHandle struct {
	cancel context.CancelFunc
}

// New creates the application and opens the document.
func New(opts Options) (*Application, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, &InitError{Stage: "config", Err: err}
	}

	log := NewLogger(ParseLogLevel(cfg.LogLevel), opts.LogOutput)

	surface, err := openSurface(opts.DocumentPath, cfg.Text.SectionSize)
	if err != nil {
		return nil, &InitError{Stage: "document", Err: err}
	}

	bookID := opts.BookID
	if bookID == "" {
		bookID = filepath.Base(opts.DocumentPath)
	}

	app := &Application{
		cfg:     cfg,
		log:     log,
		store:   state.NewStore(),
		bus:     event.NewBus(),
		guard:   inflight.NewGuard(),
		prefs:   prefs.NewStore(cfg.PrefsPath),
		surface: surface,
		bookID:  bookID,
		sink:    opts.SessionSink,
	}
	app.cache = extract.NewCache(surface, cfg.Cache.Capacity)
	app.engine = search.NewEngine(app.cache, cfg.Search.BatchSize)

	if cfg.Server.BaseURL != "" {
		app.client = persist.NewClient(cfg.Server.BaseURL, cfg.Server.Token, cfg.Server.Timeout)
	}
	if app.sink == nil {
		app.sink = &logSink{log: log.WithComponent("session")}
	}

	app.initSpeech(opts.Synthesizer)
	app.bootstrap()
	return app, nil
}

// openSurface picks the backend from the file extension. PDF, EPUB
// and XPS go through MuPDF; everything else is read as plain text.
func openSurface(path string, sectionSize int) (document.Surface, error) {
	if path == "" {
		return nil, errors.New("app: no document given")
	}
	if document.IsFitzFormat(path) {
		return document.OpenFitz(path)
	}
	return document.OpenText(path, sectionSize)
}

func (app *Application) initSpeech(synth speech.Synthesizer) {
	if synth == nil {
		var err error
		synth, err = speech.NewEspeakSynthesizer()
		if err != nil {
			app.speechErr = err
			return
		}
	}
	app.speech = speech.NewController(synth, app.cache, func(unit int) {
		app.store.Dispatch(state.SetCurrentUnit{Unit: unit})
	}, 0)
}

// bootstrap installs the document into the store, restores per-book
// preferences and wires event subscriptions.
func (app *Application) bootstrap() {
	app.store.Dispatch(state.SetDocument{ID: app.bookID, TotalUnits: app.surface.UnitCount()})

	saved := app.prefs.Load(app.bookID)
	app.store.Dispatch(state.SetScale{Scale: saved.Scale})
	if saved.Rotation != 0 {
		app.store.Dispatch(state.Rotate{Delta: saved.Rotation})
	}

	app.store.Dispatch(state.StartSession{Unit: 1})

	// Re-publish every state change on the bus and persist viewer
	// preferences when zoom or rotation change.
	cancelStore := app.store.Subscribe(func(s state.State, a state.Action) {
		app.bus.Publish(context.Background(), event.TopicStateChange, s)

		switch a.(type) {
		case state.AdjustScale, state.SetScale, state.Rotate:
			if err := app.prefs.Save(app.bookID, prefs.Viewer{
				Scale:    s.Viewer.Scale,
				Rotation: s.Viewer.Rotation,
			}); err != nil {
				app.log.Warn("persist viewer prefs: %v", err)
			}
		}
	})
	app.subs = append(app.subs, &storeSubscription{cancel: cancelStore})

	// A window regaining focus or visibility restarts the session
	// measurement; losing it flushes the finished session.
	onActive := func(active bool) {
		if active {
			app.store.Dispatch(state.SetWindowActive{Active: true})
			app.store.Dispatch(state.ResetSession{Unit: app.store.State().Viewer.CurrentUnit})
			return
		}
		app.flushSession()
		app.store.Dispatch(state.SetWindowActive{Active: false})
	}
	app.subs = append(app.subs,
		app.bus.Subscribe(event.TopicWindowFocus, func(_ context.Context, payload any) {
			if active, ok := payload.(bool); ok {
				onActive(active)
			}
		}),
		app.bus.Subscribe(event.TopicWindowVisibility, func(_ context.Context, payload any) {
			if visible, ok := payload.(bool); ok {
				onActive(visible)
			}
		}),
	)
}

// Store returns the state store.
func (app *Application) Store() *state.Store { return app.store }

// EventBus returns the application event bus.
func (app *Application) EventBus() *event.Bus { return app.bus }

// Surface returns the document surface.
func (app *Application) Surface() document.Surface { return app.surface }

// Config returns the loaded configuration.
func (app *Application) Config() *config.Config { return app.cfg }

// Logger returns the application logger.
func (app *Application) Logger() *Logger { return app.log }

// BookID returns the persistence key of the open document.
func (app *Application) BookID() string { return app.bookID }

// CacheStats returns extraction cache counters.
func (app *Application) CacheStats() extract.Stats { return app.cache.Stats() }

// SpeechSupported reports whether speech synthesis is available. The
// first negative answer is logged; later calls stay quiet so the
// capability failure is communicated once.
func (app *Application) SpeechSupported() bool {
	if app.speechErr == nil {
		return true
	}
	app.mu.Lock()
	noted := app.speechNoted
	app.speechNoted = true
	app.mu.Unlock()
	if !noted {
		app.log.Warn("speech synthesis unavailable: %v", app.speechErr)
	}
	return false
}

// LoadRemote fetches annotations and bookmarks from the backend and
// installs them in the store. Without a configured backend it is a
// no-op. Duplicate concurrent loads are suppressed.
func (app *Application) LoadRemote(ctx context.Context) {
	if app.client == nil {
		return
	}

	app.guard.Do("load:annotations", func() {
		app.store.Dispatch(state.SetLoading{Key: state.LoadAnnotations, Loading: true})
		defer app.store.Dispatch(state.SetLoading{Key: state.LoadAnnotations, Loading: false})

		annots, err := app.client.Annotations(ctx, app.bookID)
		if err != nil {
			app.log.Warn("load annotations: %v", err)
			return
		}
		app.store.Dispatch(state.SetAnnotations{Annotations: annots})
	})

	app.guard.Do("load:bookmarks", func() {
		app.store.Dispatch(state.SetLoading{Key: state.LoadBookmarks, Loading: true})
		defer app.store.Dispatch(state.SetLoading{Key: state.LoadBookmarks, Loading: false})

		marks, err := app.client.Bookmarks(ctx, app.bookID)
		if err != nil {
			app.log.Warn("load bookmarks: %v", err)
			return
		}
		app.store.Dispatch(state.SetBookmarks{Bookmarks: marks})
	})
}

// CreateHighlight normalizes the selection geometry, inserts the
// annotation locally and persists it best-effort. Malformed geometry
// degrades to a zero-area rectangle; it never aborts creation.
func (app *Application) CreateHighlight(ctx context.Context, text, color string, unit int, raws []*geom.RawRect) annotation.Annotation {
	pageW, pageH, err := app.surface.Dimensions(unit)
	if err != nil {
		pageW, pageH = 1, 1
	}

	rects := make([]geom.Rect, 0, len(raws))
	for _, raw := range raws {
		if rect, ok := geom.Normalize(raw, pageW, pageH, unit); ok {
			rects = append(rects, rect)
		}
	}

	a := annotation.New(text, color, unit, rects)
	app.store.Dispatch(state.AddAnnotation{Annotation: a})

	if app.client != nil {
		if err := app.client.CreateAnnotation(ctx, app.bookID, a); err != nil {
			app.log.Warn("persist annotation %s: %v", a.ID, err)
		}
	}
	return a
}

// DeleteHighlight removes an annotation locally and remotely. One
// in-flight delete per id; duplicates are silent no-ops.
func (app *Application) DeleteHighlight(ctx context.Context, id string) {
	app.guard.Do("annotation.delete:"+id, func() {
		app.store.Dispatch(state.DeleteAnnotation{ID: id})
		if app.client != nil {
			if err := app.client.DeleteAnnotation(ctx, app.bookID, id); err != nil {
				app.log.Warn("delete annotation %s: %v", id, err)
			}
		}
	})
}

// UpdateHighlight changes the note and/or color of an annotation.
// Duplicate concurrent saves for the same id are suppressed.
func (app *Application) UpdateHighlight(ctx context.Context, id string, note, color *string) {
	app.guard.Do("annotation.update:"+id, func() {
		app.store.Dispatch(state.UpdateAnnotation{ID: id, Note: note, Color: color})
		if app.client != nil {
			if err := app.client.UpdateAnnotation(ctx, app.bookID, id, note, color); err != nil {
				app.log.Warn("update annotation %s: %v", id, err)
			}
		}
	})
}

// ToggleBookmark adds or removes the bookmark on a unit. Rapid
// double-toggles collapse into one operation via the in-flight guard.
func (app *Application) ToggleBookmark(ctx context.Context, unit int) {
	app.guard.Do(fmt.Sprintf("bookmark.toggle:%d", unit), func() {
		if id, ok := app.store.State().BookmarkForUnit(unit); ok {
			app.store.Dispatch(state.DeleteBookmark{ID: id})
			if app.client != nil {
				if err := app.client.DeleteBookmark(ctx, app.bookID, id); err != nil {
					app.log.Warn("delete bookmark %s: %v", id, err)
				}
			}
			return
		}

		b := annotation.NewBookmark(unit)
		app.store.Dispatch(state.AddBookmark{Bookmark: b})
		if app.client != nil {
			if err := app.client.CreateBookmark(ctx, app.bookID, b); err != nil {
				app.log.Warn("persist bookmark %s: %v", b.ID, err)
			}
		}
	})
}

// Search runs a document search, cancelling any search already in
// flight. It blocks until done; callers run it off the event loop
// and treat ErrCanceled as "nothing happened".
func (app *Application) Search(ctx context.Context, query string, onProgress search.ProgressFunc) ([]search.Match, error) {
	ctx, cancel := context.WithCancel(ctx)
	h := &searchHandle{cancel: cancel}

	app.mu.Lock()
	if app.search != nil {
		app.search.cancel()
	}
	app.search = h
	app.mu.Unlock()

	defer func() {
		cancel()
		app.mu.Lock()
		if app.search == h {
			app.search = nil
		}
		app.mu.Unlock()
	}()

	total := app.store.State().Viewer.TotalUnits
	return app.engine.Run(ctx, query, total, onProgress)
}

// CancelSearch aborts the in-flight search, if any.
func (app *Application) CancelSearch() {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.search != nil {
		app.search.cancel()
		app.search = nil
	}
}

// SpeakFrom reads aloud from the given unit to the end of the
// document, navigating as it advances. It blocks until playback
// finishes or is stopped.
func (app *Application) SpeakFrom(ctx context.Context, unit int) error {
	if !app.SpeechSupported() {
		return app.speechErr
	}
	s := app.store.State()
	opts := speech.Options{
		Rate:   app.cfg.Speech.Rate,
		Pitch:  app.cfg.Speech.Pitch,
		Volume: app.cfg.Speech.Volume,
		Voice:  app.cfg.Speech.Voice,
	}
	return app.speech.Play(ctx, unit, s.Viewer.TotalUnits, opts)
}

// Speaking reports whether speech playback is in progress.
func (app *Application) Speaking() bool {
	return app.speech != nil && app.speech.Playing()
}

// StopSpeech stops playback; stopping while idle is a no-op.
func (app *Application) StopSpeech() {
	if app.speech != nil {
		app.speech.Stop()
	}
}

// UnitText returns one unit's text through the extraction cache.
func (app *Application) UnitText(ctx context.Context, unit int) (string, error) {
	return app.cache.UnitText(ctx, unit)
}

// PaintUnit projects a unit's text with its saved highlights and an
// optional live search range into display segments.
func (app *Application) PaintUnit(ctx context.Context, unit int, live *paint.Range) ([]paint.Segment, error) {
	text, err := app.cache.UnitText(ctx, unit)
	if err != nil {
		return nil, err
	}

	var ranges []paint.Range
	for _, a := range app.store.State().Data.Annotations {
		if a.UnitIndex != unit || a.Text == "" {
			continue
		}
		// Annotation geometry is positional; for text rendering the
		// highlighted passage is located by content.
		pos := 0
		for {
			idx := strings.Index(text[pos:], a.Text)
			if idx < 0 {
				break
			}
			start := pos + idx
			ranges = append(ranges, paint.Range{
				Start:        start,
				End:          start + len(a.Text),
				AnnotationID: a.ID,
			})
			pos = start + len(a.Text)
		}
	}

	return paint.Project(text, ranges, live), nil
}

// flushSession hands the finished session to the sink.
func (app *Application) flushSession() {
	s := app.store.State()
	if s.Session.StartedAt.IsZero() {
		return
	}
	app.sink.FlushSession(Session{
		BookID:    app.bookID,
		StartedAt: s.Session.StartedAt,
		StartUnit: s.Session.StartUnit,
		EndUnit:   s.Viewer.CurrentUnit,
		Duration:  s.Session.Elapsed(time.Now()),
	})
}

// Shutdown releases every resource: in-flight search, speech
// playback, event subscriptions, the document surface, and flushes
// the final session. It is idempotent.
func (app *Application) Shutdown() {
	app.mu.Lock()
	if app.closed {
		app.mu.Unlock()
		return
	}
	app.closed = true
	app.mu.Unlock()

	app.CancelSearch()
	if app.speech != nil {
		app.speech.Close()
	}
	for _, sub := range app.subs {
		sub.Cancel()
	}
	app.flushSession()
	if err := app.surface.Close(); err != nil {
		app.log.Warn("close document: %v", err)
	}
}

// storeSubscription adapts the store's cancel func to the event
// subscription shape so Shutdown can treat them uniformly.
type storeSubscription struct {
	once   sync.Once
	cancel func()
}

func (s *storeSubscription) Cancel() { s.once.Do(s.cancel) }
