// Package session tracks the short-lived per-user selection flow used by
// interactive edit and delete: pick an item, pick an entry, then act.
// Nothing here is persisted; a restart abandons every flow.
package session

import (
	"sync"
	"time"
)

// Mode says what the flow will do once an entry is selected.
type Mode int

const (
	ModeEdit Mode = iota
	ModeDelete
)

// Step is the position inside a flow.
type Step int

const (
	// StepItem: waiting for the user to pick an item from the list.
	StepItem Step = iota
	// StepEntry: item chosen, waiting for the user to pick an entry.
	StepEntry
	// StepReplacement: entry chosen (edit only), waiting for one text
	// message with the replacement values.
	StepReplacement
)

// Flow is one user's pending selection state.
type Flow struct {
	Mode      Mode
	Step      Step
	Item      string
	EntryID   int64
	StartedAt time.Time
}

// Store holds at most one pending flow per user. Abandoned flows expire
// after TTL and are evicted lazily on access.
type Store struct {
	mu    sync.Mutex
	ttl   time.Duration
	flows map[int64]Flow
	now   func() time.Time
}

const DefaultTTL = 10 * time.Minute

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		ttl:   ttl,
		flows: make(map[int64]Flow),
		now:   time.Now,
	}
}

// Get returns the user's pending flow, if any. An expired flow is
// removed and reported as absent.
func (s *Store) Get(userID int64) (Flow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flows[userID]
	if !ok {
		return Flow{}, false
	}
	if s.now().Sub(f.StartedAt) > s.ttl {
		delete(s.flows, userID)
		return Flow{}, false
	}
	return f, true
}

// Set records the user's pending flow, silently abandoning any earlier
// one the same user had.
func (s *Store) Set(userID int64, f Flow) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f.StartedAt.IsZero() {
		f.StartedAt = s.now()
	}
	s.flows[userID] = f
}

// Clear removes the user's pending flow. Clearing an absent flow is a
// no-op.
func (s *Store) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flows, userID)
}
