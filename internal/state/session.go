package state

import "time"

// SessionState tracks the current reading session, the unit of
// measurement flushed to the analytics collaborator.
type SessionState struct {
	StartedAt    time.Time
	StartUnit    int
	WindowActive bool
}

// DefaultSessionState returns the session slice before any session
// starts.
func DefaultSessionState() SessionState {
	return SessionState{WindowActive: true}
}

// reduceSession applies one action to the session slice.
func reduceSession(s SessionState, a Action) SessionState {
	switch act := a.(type) {
	case StartSession:
		s.StartedAt = act.At
		s.StartUnit = act.Unit
		s.WindowActive = true

	case ResetSession:
		// Restamps time and unit but deliberately preserves
		// WindowActive, unlike StartSession.
		s.StartedAt = act.At
		s.StartUnit = act.Unit

	case SetWindowActive:
		s.WindowActive = act.Active
	}
	return s
}

// Elapsed returns how long the session has run as of now.
func (s SessionState) Elapsed(now time.Time) time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	return now.Sub(s.StartedAt)
}
