package server

import (
	"sync"
	"sync/atomic"
)

// Signal holds the shared "rebuild occurred" flag and the set of
// clients that have requested the entry page in watch mode.
//
// The flag is level-triggered: a rebuild sets it, the first reload
// poll consumes it. A client that never polls between two rebuilds
// observes only "reload needed", not how many rebuilds happened.
type Signal struct {
	pending atomic.Bool

	mu      sync.Mutex
	clients []string
	seen    map[string]struct{}
}

// NewSignal creates an empty reload signal.
func NewSignal() *Signal {
	return &Signal{
		seen: make(map[string]struct{}),
	}
}

// MarkPending records that a rebuild happened.
// Called by the rebuild notifier, on its own goroutine.
func (s *Signal) MarkPending() {
	s.pending.Store(true)
}

// Consume reads and resets the pending flag in one atomic step, so a
// rebuild landing between read and reset is never lost. At most one
// poll observes each rebuild event.
func (s *Signal) Consume() bool {
	return s.pending.Swap(false)
}

// Pending reports the flag without consuming it.
func (s *Signal) Pending() bool {
	return s.pending.Load()
}

// ObserveClient records a client address that requested the entry page.
// Insertion is idempotent and preserves first-seen order. The list is
// never pruned within a session.
func (s *Signal) ObserveClient(addr string) {
	if addr == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[addr]; ok {
		return
	}
	s.seen[addr] = struct{}{}
	s.clients = append(s.clients, addr)
}

// Clients returns the observed client addresses in first-seen order.
func (s *Signal) Clients() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.clients))
	copy(out, s.clients)
	return out
}

// ClientCount returns the number of distinct observed clients.
func (s *Signal) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
