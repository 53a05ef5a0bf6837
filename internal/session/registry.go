// Package session tracks signed-in sessions. The registry is driven only by
// identity events: Login emits signed_in, Logout emits signed_out, and every
// consumer (route guard, feed teardown, cart teardown) reacts to those events
// or queries the registry — nothing sets session state directly.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"branch-inventory-api-server/internal/models"
)

// Event types emitted to listeners.
const (
	SignedIn  = "signed_in"
	SignedOut = "signed_out"
)

// Session is one authenticated sign-in. A user signing in twice holds two
// independent sessions, each with its own feed channel and cart.
type Session struct {
	ID        string
	User      models.User
	StartedAt time.Time
}

// Event is a session-change notification.
type Event struct {
	Type    string
	Session Session
}

// Listener receives session-change events. Listeners are called synchronously
// on the emitting goroutine and must not block.
type Listener func(Event)

// Registry holds the live sessions for the process.
type Registry struct {
	mu        sync.RWMutex
	sessions  map[string]Session
	listeners []Listener
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Session)}
}

// OnChange registers a listener for session events. Must be called during
// startup wiring, before any session is created.
func (r *Registry) OnChange(l Listener) {
	r.listeners = append(r.listeners, l)
}

// SignedIn records a new session for the user and notifies listeners.
func (r *Registry) SignedIn(user models.User) Session {
	s := Session{
		ID:        uuid.New().String(),
		User:      user,
		StartedAt: time.Now(),
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.emit(Event{Type: SignedIn, Session: s})
	return s
}

// SignedOut removes a session and notifies listeners. Unknown ids are a no-op
// (a second logout for the same session must not re-fire teardown).
func (r *Registry) SignedOut(sessionID string) {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	if ok {
		delete(r.sessions, sessionID)
	}
	r.mu.Unlock()

	if ok {
		r.emit(Event{Type: SignedOut, Session: s})
	}
}

// Get reports the session if it is still active.
func (r *Registry) Get(sessionID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	return s, ok
}

// ActiveForUser reports whether the user still holds any live session.
func (r *Registry) ActiveForUser(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		if s.User.UserID == userID {
			return true
		}
	}
	return false
}

func (r *Registry) emit(e Event) {
	for _, l := range r.listeners {
		l(e)
	}
}
