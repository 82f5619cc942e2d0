// Package tui is the terminal front end: a paged reader view with
// highlight rendering, incremental search, bookmarks and an outline
// panel, driven by a tcell event loop.
package tui

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/folio/internal/app"
	"github.com/dshills/folio/internal/event"
	"github.com/dshills/folio/internal/paint"
	"github.com/dshills/folio/internal/search"
	"github.com/dshills/folio/internal/state"
)

// ErrQuit signals a normal user-requested exit.
var ErrQuit = errors.New("tui: quit")

type promptKind uint8

const (
	promptNone promptKind = iota
	promptSearch
	promptGoto
)

// UI owns the screen and translates terminal events into application
// operations.
type UI struct {
	app    *app.Application
	screen tcell.Screen
	log    *app.Logger

	mu        sync.Mutex
	scroll    int
	prompt    promptKind
	input     string
	status    string
	query     string
	matches   []search.Match
	matchIdx  int
	searching bool
	progress  int
}

// New creates a UI over the application. The screen is not
// initialized until Run.
func New(a *app.Application) (*UI, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return &UI{
		app:    a,
		screen: screen,
		log:    a.Logger().WithComponent("tui"),
	}, nil
}

// NewWithScreen creates a UI over an explicit screen, used by tests
// with tcell's simulation screen.
func NewWithScreen(a *app.Application, screen tcell.Screen) *UI {
	return &UI{
		app:    a,
		screen: screen,
		log:    a.Logger().WithComponent("tui"),
	}
}

// Run initializes the terminal and blocks in the event loop until
// the user quits or an error occurs.
func (u *UI) Run() error {
	if err := u.screen.Init(); err != nil {
		return err
	}
	defer u.screen.Fini()
	u.screen.EnableFocus()

	// Any store dispatch wakes the event loop for a redraw.
	sub := u.app.EventBus().Subscribe(event.TopicStateChange, func(context.Context, any) {
		_ = u.screen.PostEvent(tcell.NewEventInterrupt(nil))
	})
	defer sub.Cancel()

	go u.app.LoadRemote(context.Background())

	for {
		u.draw()

		switch ev := u.screen.PollEvent().(type) {
		case *tcell.EventKey:
			if err := u.handleKey(ev); err != nil {
				if errors.Is(err, ErrQuit) {
					return nil
				}
				return err
			}
		case *tcell.EventResize:
			u.screen.Sync()
		case *tcell.EventFocus:
			u.app.EventBus().Publish(context.Background(), event.TopicWindowFocus, ev.Focused)
		case *tcell.EventInterrupt:
			// redraw only
		case nil:
			return nil // screen finalized
		}
	}
}

func (u *UI) handleKey(ev *tcell.EventKey) error {
	u.mu.Lock()
	prompting := u.prompt != promptNone
	u.mu.Unlock()
	if prompting {
		return u.handlePromptKey(ev)
	}

	s := u.app.Store().State()

	switch {
	case ev.Key() == tcell.KeyCtrlC, ev.Rune() == 'q':
		return ErrQuit

	case ev.Key() == tcell.KeyRight, ev.Key() == tcell.KeyPgDn, ev.Rune() == ' ':
		u.gotoUnit(s.Viewer.CurrentUnit + 1)
	case ev.Key() == tcell.KeyLeft, ev.Key() == tcell.KeyPgUp:
		u.gotoUnit(s.Viewer.CurrentUnit - 1)
	case ev.Key() == tcell.KeyDown, ev.Rune() == 'j':
		u.scrollBy(1)
	case ev.Key() == tcell.KeyUp, ev.Rune() == 'k':
		u.scrollBy(-1)
	case ev.Key() == tcell.KeyHome:
		u.gotoUnit(1)
	case ev.Key() == tcell.KeyEnd:
		u.gotoUnit(s.Viewer.TotalUnits)

	case ev.Rune() == 'g':
		u.openPrompt(promptGoto)
	case ev.Rune() == '/':
		u.openPrompt(promptSearch)
	case ev.Rune() == 'n':
		u.jumpMatch(1)
	case ev.Rune() == 'N':
		u.jumpMatch(-1)

	case ev.Rune() == 'b':
		u.app.ToggleBookmark(context.Background(), s.Viewer.CurrentUnit)
	case ev.Rune() == '+', ev.Rune() == '=':
		u.app.Store().Dispatch(state.AdjustScale{Delta: 0.1})
	case ev.Rune() == '-':
		u.app.Store().Dispatch(state.AdjustScale{Delta: -0.1})
	case ev.Rune() == 'r':
		u.app.Store().Dispatch(state.Rotate{Delta: 90})
	case ev.Rune() == 'f':
		u.app.Store().Dispatch(state.ToggleFullscreen{})
	case ev.Rune() == 'o':
		u.app.Store().Dispatch(state.TogglePanel{Panel: state.PanelOutline})
	case ev.Rune() == 's':
		u.toggleSpeech(s.Viewer.CurrentUnit)

	case ev.Key() == tcell.KeyEscape:
		u.app.CancelSearch()
		u.app.Store().Dispatch(state.CloseAllPanels{})
		u.setStatus("")
	}
	return nil
}

func (u *UI) handlePromptKey(ev *tcell.EventKey) error {
	u.mu.Lock()
	kind := u.prompt
	input := u.input
	u.mu.Unlock()

	switch ev.Key() {
	case tcell.KeyEscape:
		u.closePrompt()
		if kind == promptGoto {
			// Abandoning the goto restores the input field to the
			// committed position.
			s := u.app.Store().State()
			u.app.Store().Dispatch(state.SetCurrentUnit{Unit: s.Viewer.CurrentUnit})
		}
		return nil

	case tcell.KeyEnter:
		u.closePrompt()
		switch kind {
		case promptSearch:
			u.startSearch(input)
		case promptGoto:
			if unit, err := strconv.Atoi(strings.TrimSpace(input)); err == nil {
				u.gotoUnit(unit)
			}
		}
		return nil

	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(input) > 0 {
			input = input[:len(input)-1]
		}

	default:
		if ev.Key() == tcell.KeyRune {
			input += string(ev.Rune())
		}
	}

	u.mu.Lock()
	u.input = input
	u.mu.Unlock()
	if kind == promptGoto {
		u.app.Store().Dispatch(state.SetUnitInput{Text: input})
	}
	return nil
}

func (u *UI) openPrompt(kind promptKind) {
	u.mu.Lock()
	u.prompt = kind
	u.input = ""
	u.mu.Unlock()
}

func (u *UI) closePrompt() {
	u.mu.Lock()
	u.prompt = promptNone
	u.input = ""
	u.mu.Unlock()
}

func (u *UI) setStatus(msg string) {
	u.mu.Lock()
	u.status = msg
	u.mu.Unlock()
}

func (u *UI) gotoUnit(unit int) {
	s := u.app.Store().State()
	if unit < 1 {
		unit = 1
	}
	if unit > s.Viewer.TotalUnits {
		unit = s.Viewer.TotalUnits
	}
	u.mu.Lock()
	u.scroll = 0
	u.mu.Unlock()
	u.app.Store().Dispatch(state.SetCurrentUnit{Unit: unit})
}

func (u *UI) scrollBy(delta int) {
	u.mu.Lock()
	u.scroll += delta
	if u.scroll < 0 {
		u.scroll = 0
	}
	u.mu.Unlock()
	_ = u.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

// startSearch runs the search off the event loop and jumps to the
// first match when it completes.
func (u *UI) startSearch(query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}

	u.mu.Lock()
	u.query = query
	u.matches = nil
	u.matchIdx = 0
	u.searching = true
	u.progress = 0
	u.mu.Unlock()

	go func() {
		matches, err := u.app.Search(context.Background(), query, func(percent int) {
			u.mu.Lock()
			u.progress = percent
			u.mu.Unlock()
			_ = u.screen.PostEvent(tcell.NewEventInterrupt(nil))
		})

		u.mu.Lock()
		u.searching = false
		if err == nil {
			u.matches = matches
		}
		u.mu.Unlock()

		switch {
		case errors.Is(err, search.ErrCanceled):
			u.setStatus("search canceled")
		case err != nil:
			u.log.Warn("search %q: %v", query, err)
			u.setStatus("search failed: " + err.Error())
		case len(matches) == 0:
			u.setStatus("no matches for " + strconv.Quote(query))
		default:
			u.setStatus("")
			u.jumpMatch(0)
		}
		_ = u.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}()
}

// jumpMatch moves to the current match plus delta, wrapping at both
// ends, and navigates to its unit.
func (u *UI) jumpMatch(delta int) {
	u.mu.Lock()
	if len(u.matches) == 0 {
		u.mu.Unlock()
		return
	}
	u.matchIdx = ((u.matchIdx+delta)%len(u.matches) + len(u.matches)) % len(u.matches)
	unit := u.matches[u.matchIdx].UnitIndex
	u.mu.Unlock()
	u.gotoUnit(unit)
}

func (u *UI) toggleSpeech(unit int) {
	if !u.app.SpeechSupported() {
		u.setStatus("speech unavailable on this system")
		return
	}
	if u.app.Speaking() {
		u.app.StopSpeech()
		return
	}
	go func() {
		if err := u.app.SpeakFrom(context.Background(), unit); err != nil {
			u.setStatus("speech: " + err.Error())
			_ = u.screen.PostEvent(tcell.NewEventInterrupt(nil))
		}
	}()
}

// currentLiveRange locates the selected match inside the unit text so
// the projection can mark it as the live search range.
func (u *UI) currentLiveRange(text string, unit int) *paint.Range {
	u.mu.Lock()
	defer u.mu.Unlock()

	if len(u.matches) == 0 || u.matchIdx >= len(u.matches) {
		return nil
	}
	m := u.matches[u.matchIdx]
	if m.UnitIndex != unit {
		return nil
	}

	start := nthIndexFold(text, u.query, m.MatchOrdinal)
	if start < 0 {
		return nil
	}
	return &paint.Range{Start: start, End: start + len(u.query), Kind: paint.KindSearch}
}

// nthIndexFold returns the byte offset of the n-th (0-based)
// case-insensitive, non-overlapping occurrence of needle, or -1.
func nthIndexFold(text, needle string, n int) int {
	if needle == "" {
		return -1
	}
	haystack := strings.ToLower(text)
	needle = strings.ToLower(needle)

	pos := 0
	for {
		idx := strings.Index(haystack[pos:], needle)
		if idx < 0 {
			return -1
		}
		if n == 0 {
			return pos + idx
		}
		n--
		pos += idx + len(needle)
	}
}
