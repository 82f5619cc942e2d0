package app

import "time"

// Session is one finished reading session, measured from window
// focus (or document open) to blur or shutdown.
type Session struct {
	BookID    string
	StartedAt time.Time
	StartUnit int
	EndUnit   int
	Duration  time.Duration
}

// SessionSink receives finished sessions. Implementations must not
// block; the flush happens on the event path.
type SessionSink interface {
	FlushSession(s Session)
}

// logSink records sessions in the application log when no external
// collector is configured.
type logSink struct {
	log *Logger
}

func (s *logSink) FlushSession(sess Session) {
	s.log.Info("session book=%s units=%d-%d duration=%s",
		sess.BookID, sess.StartUnit, sess.EndUnit, sess.Duration.Round(time.Second))
}
