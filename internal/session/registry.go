package session

import (
	"sync"
	"time"

	"github.com/opensandbox/codebroker/internal/engine"
)

// entry is the trio the registry owns for one session id: a container
// handle, a last-access timestamp, and a per-session mutex. The mutex
// guards execute/close; list/read/upload do not need it (see manager.go).
type entry struct {
	container  engine.Handle
	lastAccess time.Time
	mu         sync.Mutex
}

// registry is the in-memory Session Registry: an id -> entry map enforcing
// maxSessions. Reuse of an existing id never counts against the limit.
type registry struct {
	mu          sync.RWMutex
	sessions    map[string]*entry
	maxSessions int
}

func newRegistry(maxSessions int) *registry {
	return &registry{
		sessions:    make(map[string]*entry),
		maxSessions: maxSessions,
	}
}

// get returns the entry for id, if any, without touching last-access.
func (r *registry) get(id string) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[id]
	return e, ok
}

// create registers a new session, rejecting the insert if the registry is
// already at capacity.
func (r *registry) create(id string, container engine.Handle) (*entry, *Error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.sessions[id]; ok {
		return e, nil
	}
	if len(r.sessions) >= r.maxSessions {
		return nil, newError(KindMaxSessions, "max_sessions limit of %d reached", r.maxSessions)
	}

	e := &entry{container: container, lastAccess: time.Now()}
	r.sessions[id] = e
	return e, nil
}

// delete removes id from the registry. It does not touch the container;
// callers are responsible for removing the container themselves.
func (r *registry) delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// touch refreshes id's last-access time to now.
func (r *registry) touch(id string) {
	r.mu.RLock()
	e, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		r.mu.Lock()
		e.lastAccess = time.Now()
		r.mu.Unlock()
	}
}

// lastAccessed returns a snapshot of every session id's last-access time,
// for the reaper's TTL scan.
func (r *registry) lastAccessed() map[string]time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]time.Time, len(r.sessions))
	for id, e := range r.sessions {
		out[id] = e.lastAccess
	}
	return out
}

// len returns the current number of registered sessions.
func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
