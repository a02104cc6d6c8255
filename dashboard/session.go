package dashboard

import (
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/rustyeddy/stockdash/pkg/id"
)

var ErrUnknownSession = errors.New("unknown session")

// Session is one page load's current dropdown selections.
type Session struct {
	ID     string
	Seen   time.Time
	Values map[string]string
}

// Sessions is the only mutable state the server shares between requests.
type Sessions struct {
	mu       sync.Mutex
	m        map[string]*Session
	defaults map[string]string
	now      func() time.Time
}

// NewSessions returns a store whose sessions start with defaults selected.
func NewSessions(defaults map[string]string) *Sessions {
	return &Sessions{
		m:        make(map[string]*Session),
		defaults: maps.Clone(defaults),
		now:      time.Now,
	}
}

// New starts a session with the default selections.
func (s *Sessions) New() Session {
	sess := &Session{
		ID:     id.New(),
		Seen:   s.now(),
		Values: maps.Clone(s.defaults),
	}
	if sess.Values == nil {
		sess.Values = map[string]string{}
	}

	s.mu.Lock()
	s.m[sess.ID] = sess
	s.mu.Unlock()
	return copySession(sess)
}

// Get returns a copy of the session.
func (s *Sessions) Get(sid string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.m[sid]
	if !ok {
		return Session{}, false
	}
	return copySession(sess), true
}

// Set records a selection and marks the session as active.
func (s *Sessions) Set(sid, control, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.m[sid]
	if !ok {
		return ErrUnknownSession
	}
	sess.Values[control] = value
	sess.Seen = s.now()
	return nil
}

// Value is the session's selection for control, or the control's default
// when the session is unknown or has none.
func (s *Sessions) Value(sid, control string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.m[sid]; ok {
		if v, ok := sess.Values[control]; ok {
			return v
		}
	}
	return s.defaults[control]
}

func (s *Sessions) Remove(sid string) {
	s.mu.Lock()
	delete(s.m, sid)
	s.mu.Unlock()
}

// Prune drops sessions idle for longer than maxAge and returns how many it
// dropped.
func (s *Sessions) Prune(maxAge time.Duration) int {
	cutoff := s.now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k, sess := range s.m {
		if sess.Seen.Before(cutoff) {
			delete(s.m, k)
			n++
		}
	}
	return n
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

func copySession(sess *Session) Session {
	out := *sess
	out.Values = maps.Clone(sess.Values)
	return out
}
