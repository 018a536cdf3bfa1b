package pipeline

import (
	"sync"

	"github.com/maauso/videosend/internal/media"
	"github.com/maauso/videosend/internal/session"
)

// Listener receives progress notifications for a session.
type Listener interface {
	OnProgress(s *session.Session)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(s *session.Session)

// OnProgress calls f(s).
func (f ListenerFunc) OnProgress(s *session.Session) { f(s) }

// Monitor republishes encoder progress for one session to at most one listener.
// Updates are neither buffered nor replayed: with no listener attached they
// are dropped.
type Monitor struct {
	mu       sync.Mutex
	session  *session.Session
	listener Listener
	detached bool
}

// NewMonitor creates a Monitor for s with no listener attached.
func NewMonitor(s *session.Session) *Monitor {
	return &Monitor{session: s}
}

// Attach registers l, replacing any previous listener. l only sees updates
// made after this call.
func (m *Monitor) Attach(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.detached {
		return
	}
	m.listener = l
}

// Detach removes the listener. Later updates are dropped.
func (m *Monitor) Detach() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listener = nil
	m.detached = true
}

// Update records p on the session and notifies the listener when the
// session progress did not move backwards. Updates on terminal sessions
// are ignored.
func (m *Monitor) Update(p media.Progress) {
	m.mu.Lock()
	if m.detached {
		m.mu.Unlock()
		return
	}
	if m.session.IsTerminal() {
		m.listener = nil
		m.detached = true
		m.mu.Unlock()
		return
	}
	l := m.listener
	recorded := m.session.UpdateProgress(p.Fraction)
	m.mu.Unlock()

	// Called without the lock so listeners may Attach or Detach.
	if recorded && l != nil {
		l.OnProgress(m.session)
	}
}
