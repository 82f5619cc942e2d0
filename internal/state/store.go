package state

import (
	"math"
	"sync"
	"time"
)

// State is one immutable snapshot of every slice.
type State struct {
	Viewer  ViewerState
	UI      UIState
	Data    DataState
	Session SessionState
}

// DefaultState returns the initial state.
func DefaultState() State {
	return State{
		Viewer:  DefaultViewerState(),
		UI:      DefaultUIState(),
		Data:    DefaultDataState(),
		Session: DefaultSessionState(),
	}
}

// ProgressPercent returns reading progress as a 0-100 percentage.
func (s State) ProgressPercent() int {
	if s.Viewer.TotalUnits <= 0 {
		return 0
	}
	return int(math.Round(float64(s.Viewer.CurrentUnit) / float64(s.Viewer.TotalUnits) * 100))
}

// IsUnitBookmarked reports whether any bookmark targets unit.
func (s State) IsUnitBookmarked(unit int) bool {
	for _, b := range s.Data.Bookmarks {
		if b.UnitIndex == unit {
			return true
		}
	}
	return false
}

// BookmarkForUnit returns the id of the bookmark on unit, if any.
func (s State) BookmarkForUnit(unit int) (string, bool) {
	for _, b := range s.Data.Bookmarks {
		if b.UnitIndex == unit {
			return b.ID, true
		}
	}
	return "", false
}

// Listener observes state changes. It is called synchronously after
// the transition commits, in commit order, with the new snapshot and
// the action that produced it. Listeners may read the store but must
// not dispatch.
type Listener func(s State, a Action)

// Store serializes action dispatch over the four slices. Dispatches
// are applied in the order issued and are atomic with respect to each
// other.
type Store struct {
	mu    sync.Mutex
	state State
	clock func() time.Time

	// dmu holds each dispatch from commit through notification so
	// racing dispatches cannot deliver their snapshots out of commit
	// order. mu alone still guards reads.
	dmu sync.Mutex

	lmu       sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// NewStore creates a store starting from the default state.
func NewStore() *Store {
	return &Store{
		state:     DefaultState(),
		clock:     time.Now,
		listeners: make(map[int]Listener),
	}
}

// Reduce applies one action to a state without any store. It is the
// pure core of Dispatch, exposed for tests and replays.
func Reduce(s State, a Action) State {
	return State{
		Viewer:  reduceViewer(s.Viewer, a),
		UI:      reduceUI(s.UI, a),
		Data:    reduceData(s.Data, a),
		Session: reduceSession(s.Session, a),
	}
}

// Dispatch reduces one action and returns the new snapshot. Session
// actions with a zero timestamp are stamped with the store clock
// before reduction.
func (st *Store) Dispatch(a Action) State {
	a = st.stamp(a)

	st.dmu.Lock()
	defer st.dmu.Unlock()

	st.mu.Lock()
	st.state = Reduce(st.state, a)
	next := st.state
	st.mu.Unlock()

	st.notify(next, a)
	return next
}

// State returns the current snapshot.
func (st *Store) State() State {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state
}

// Subscribe registers a listener and returns a function that removes
// it. Removal is idempotent.
func (st *Store) Subscribe(l Listener) func() {
	st.lmu.Lock()
	id := st.nextID
	st.nextID++
	st.listeners[id] = l
	st.lmu.Unlock()

	return func() {
		st.lmu.Lock()
		delete(st.listeners, id)
		st.lmu.Unlock()
	}
}

// SetClock overrides the session timestamp source. Tests use this to
// make transitions deterministic.
func (st *Store) SetClock(clock func() time.Time) {
	if clock != nil {
		st.clock = clock
	}
}

func (st *Store) stamp(a Action) Action {
	switch act := a.(type) {
	case StartSession:
		if act.At.IsZero() {
			act.At = st.clock()
			return act
		}
	case ResetSession:
		if act.At.IsZero() {
			act.At = st.clock()
			return act
		}
	}
	return a
}

func (st *Store) notify(s State, a Action) {
	st.lmu.Lock()
	ls := make([]Listener, 0, len(st.listeners))
	for _, l := range st.listeners {
		ls = append(ls, l)
	}
	st.lmu.Unlock()

	for _, l := range ls {
		l(s, a)
	}
}
