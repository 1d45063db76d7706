package memory

import "sync"

// CleanupRegistry is the process-wide admission gate for compaction: a map
// from session ID to an in-flight flag, guarded by a single mutex. The
// check-and-set in TryAcquire is the critical section that guarantees at
// most one concurrent compaction per session, however many appends cross
// the threshold at once.
//
// Entries are removed on release rather than reset to false, so absence
// and false are both "not in flight" and a completed run leaves no trace.
type CleanupRegistry struct {
	mu       sync.Mutex
	inFlight map[string]bool
}

// NewCleanupRegistry creates an empty registry.
func NewCleanupRegistry() *CleanupRegistry {
	return &CleanupRegistry{inFlight: make(map[string]bool)}
}

// TryAcquire attempts to claim the compaction slot for a session. It
// returns true if the caller won the slot and must later Release it.
// No I/O may happen while the internal lock is held.
func (r *CleanupRegistry) TryAcquire(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inFlight[sessionID] {
		return false
	}
	r.inFlight[sessionID] = true
	return true
}

// Release clears the session's slot so a future overflow can re-admit.
// Must be called exactly once per successful TryAcquire, regardless of
// whether the compaction succeeded.
func (r *CleanupRegistry) Release(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, sessionID)
}

// InFlight reports whether a compaction currently owns the session's slot.
func (r *CleanupRegistry) InFlight(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight[sessionID]
}

// Len returns the number of sessions with a compaction in flight.
func (r *CleanupRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inFlight)
}
