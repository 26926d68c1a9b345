package session

import (
	"sync"

	"github.com/agenthands/scribe/internal/subject"
)

// Kind names a clarification the session may be waiting on.
type Kind string

const (
	KindNone    Kind = ""
	KindPerson  Kind = "person"
	KindDomain  Kind = "domain"
	KindProject Kind = "project"
)

// Context is conversation-scoped state. It persists across turns and is
// reset after a successful save.
type Context struct {
	ActiveDomain  *subject.Domain
	ActivePerson  *subject.Person
	ActiveProject *subject.Project

	// Pending is the single clarification we are waiting for.
	// At most one kind may be pending at a time.
	Pending Kind

	// CollectedText is the content that will actually be saved.
	CollectedText []string
}

// Reset clears all resolved subjects, the pending marker and the buffered
// text. Called after a record is persisted.
func (c *Context) Reset() {
	c.ActiveDomain = nil
	c.ActivePerson = nil
	c.ActiveProject = nil
	c.Pending = KindNone
	c.CollectedText = nil
}

// Session pairs a context with its lock. Access to a given session's
// context must be serialized; sessions are otherwise independent.
type Session struct {
	mu  sync.Mutex
	ctx Context
}

// Manager owns the in-memory session table, keyed by
// (conversation, agent). Contexts do not survive a process restart.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

func sessionKey(conversationID, agent string) string {
	return conversationID + "\x00" + agent
}

// Acquire returns the session for the (conversation, agent) pair with its
// lock held, creating it on first use. The caller must invoke the returned
// release function when the turn is done.
func (m *Manager) Acquire(conversationID, agent string) (*Context, func()) {
	m.mu.Lock()
	key := sessionKey(conversationID, agent)
	s, ok := m.sessions[key]
	if !ok {
		s = &Session{}
		m.sessions[key] = s
	}
	m.mu.Unlock()

	s.mu.Lock()
	return &s.ctx, s.mu.Unlock
}
