package capture

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Mirraz/http-replay-sub000/internal/graph"
)

// Session groups the exchanges of one capture run.
//
// Interrupting a session releases every InFlight exchange still waiting for
// a part: missing parts are stored as null. Recorder.Interrupt also records
// the interruption on the session row.
type Session struct {
	UUID  uuid.UUID
	Label string

	ref graph.Ref

	once        sync.Once
	interrupted chan struct{}
}

func newSession(id uuid.UUID, label string, ref graph.Ref) *Session {
	return &Session{
		UUID:        id,
		Label:       label,
		ref:         ref,
		interrupted: make(chan struct{}),
	}
}

// ID returns the session's row id.
func (s *Session) ID() int64 { return s.ref.ID }

// Interrupt marks the session interrupted in memory. Safe to call more than
// once.
func (s *Session) Interrupt() {
	s.once.Do(func() { close(s.interrupted) })
}

// Interrupted reports whether Interrupt has been called.
func (s *Session) Interrupted() bool {
	select {
	case <-s.interrupted:
		return true
	default:
		return false
	}
}

// Done is closed when the session is interrupted.
func (s *Session) Done() <-chan struct{} {
	return s.interrupted
}
