// Package state holds the per-session UI state that renderers and the merge
// coordinator mutate, and the caches they write rendered HTML into.
package state

import (
	"sort"
	"sync"
)

// DefaultSessionID is used when a caller does not name a session.
const DefaultSessionID = "default"

// Snapshot is a point-in-time copy of a session's state.
type Snapshot struct {
	ID             string `json:"id"`
	TemplateID     string `json:"template_id"`
	Loading        bool   `json:"loading"`
	ActionsVisible bool   `json:"actions_visible"`
	Status         string `json:"status"`
	MessageID      string `json:"message_id,omitempty"`
	Context        string `json:"context,omitempty"`
}

// Session is the state of one dashboard client: which analysis template is
// active, whether it is loading, whether the export actions are visible and
// the current status line. All methods are safe for concurrent use.
type Session struct {
	mu             sync.Mutex
	id             string
	templateID     string
	loading        bool
	actionsVisible bool
	status         string
	messageID      string
	context        string

	nextObserver int
	observers    map[int]func(Snapshot)
}

// NewSession returns an idle session.
func NewSession(id string) *Session {
	if id == "" {
		id = DefaultSessionID
	}
	return &Session{id: id, observers: make(map[int]func(Snapshot))}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// TemplateID returns the active analysis template.
func (s *Session) TemplateID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.templateID
}

// Begin selects a template for a new analysis run and starts loading. The
// export actions stay hidden until a render succeeds.
func (s *Session) Begin(templateID, messageID, context string) {
	s.update(func() {
		s.templateID = templateID
		s.messageID = messageID
		s.context = context
		s.loading = true
		s.actionsVisible = false
	})
}

// SetTemplate switches the active template without starting a run.
func (s *Session) SetTemplate(templateID string) {
	s.update(func() { s.templateID = templateID })
}

// SetLoading sets the loading indicator.
func (s *Session) SetLoading(loading bool) {
	s.update(func() { s.loading = loading })
}

// SetActionsVisible shows or hides the export actions.
func (s *Session) SetActionsVisible(visible bool) {
	s.update(func() { s.actionsVisible = visible })
}

// SetStatus replaces the status line.
func (s *Session) SetStatus(status string) {
	s.update(func() { s.status = status })
}

// ClearAnalysis forgets the message id and context of the finished run.
func (s *Session) ClearAnalysis() {
	s.update(func() {
		s.messageID = ""
		s.context = ""
	})
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every change. The
// returned function removes the subscription.
func (s *Session) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextObserver
	s.nextObserver++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ID:             s.id,
		TemplateID:     s.templateID,
		Loading:        s.loading,
		ActionsVisible: s.actionsVisible,
		Status:         s.status,
		MessageID:      s.messageID,
		Context:        s.context,
	}
}

// update applies fn under the lock and notifies observers outside it.
func (s *Session) update(fn func()) {
	s.mu.Lock()
	fn()
	snap := s.snapshotLocked()
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	observers := make([]func(Snapshot), 0, len(ids))
	for _, id := range ids {
		observers = append(observers, s.observers[id])
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}

// Sessions hands out sessions by id, creating them on first use.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessions returns an empty session registry.
func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[string]*Session)}
}

// Get returns the session with the given id, creating it if needed.
func (r *Sessions) Get(id string) *Session {
	if id == "" {
		id = DefaultSessionID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		s = NewSession(id)
		r.sessions[id] = s
	}
	return s
}

// IDs lists the known session ids.
func (r *Sessions) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
