package agent

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oppdesk/oppdesk/internal/store"
)

// Session pairs an agent with its identifier and last-use time.
type Session struct {
	ID       string
	Agent    *Agent
	LastSeen time.Time
}

// Sessions is an in-memory registry of live chat sessions. Each session is
// also recorded in the sqlite store so its tool-call journal survives the
// process. Sessions idle past the TTL are expired on access and on Sweep.
type Sessions struct {
	mu       sync.Mutex
	ttl      time.Duration
	store    *store.Store
	newAgent func(sessionID string) (*Agent, error)
	live     map[string]*Session
	now      func() time.Time
}

// NewSessions builds a registry. newAgent is invoked once per created
// session with the fresh session id.
func NewSessions(s *store.Store, ttl time.Duration, newAgent func(sessionID string) (*Agent, error)) *Sessions {
	return &Sessions{
		ttl:      ttl,
		store:    s,
		newAgent: newAgent,
		live:     make(map[string]*Session),
		now:      time.Now,
	}
}

// Create starts a new session for userName and returns it.
func (r *Sessions) Create(userName string) (*Session, error) {
	id := uuid.NewString()
	if r.store != nil {
		if err := r.store.CreateSession(id, userName); err != nil {
			return nil, fmt.Errorf("registering session: %w", err)
		}
	}
	agent, err := r.newAgent(id)
	if err != nil {
		return nil, err
	}
	sess := &Session{ID: id, Agent: agent, LastSeen: r.now()}
	r.mu.Lock()
	r.live[id] = sess
	r.mu.Unlock()
	return sess, nil
}

// Get returns the session with the given id, refreshing its last-use time.
// Expired sessions are removed and reported as missing.
func (r *Sessions) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.live[id]
	if !ok {
		return nil, fmt.Errorf("no session %s", id)
	}
	if r.now().Sub(sess.LastSeen) > r.ttl {
		r.expireLocked(sess)
		return nil, fmt.Errorf("session %s expired", id)
	}
	sess.LastSeen = r.now()
	return sess, nil
}

// Close ends a session explicitly.
func (r *Sessions) Close(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.live[id]; ok {
		delete(r.live, sess.ID)
		if r.store != nil {
			_ = r.store.UpdateSessionStatus(sess.ID, "closed")
		}
	}
}

// Sweep expires every session idle past the TTL and returns how many were
// removed.
func (r *Sessions) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-r.ttl)
	var n int
	for _, sess := range r.live {
		if sess.LastSeen.Before(cutoff) {
			r.expireLocked(sess)
			n++
		}
	}
	return n
}

func (r *Sessions) expireLocked(sess *Session) {
	delete(r.live, sess.ID)
	if r.store != nil {
		_ = r.store.UpdateSessionStatus(sess.ID, "expired")
	}
}
