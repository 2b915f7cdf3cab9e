package history

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Sessions hands out one ledger per session ID. Ledgers for idle sessions
// are evicted by TTL or capacity pressure; eviction is the end of the
// session and discards its history. Ledgers are never shared between IDs.
type Sessions struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, *Ledger]
}

func NewSessions(maxSessions int, ttl time.Duration) *Sessions {
	if maxSessions <= 0 {
		maxSessions = 1024
	}
	return &Sessions{
		cache: expirable.NewLRU[string, *Ledger](maxSessions, nil, ttl),
	}
}

// Get returns the session's ledger, creating it on first use. The mutex
// makes the lookup-or-create atomic so concurrent requests for a new
// session cannot end up with two ledgers.
func (s *Sessions) Get(id string) *Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ledger, ok := s.cache.Get(id); ok {
		return ledger
	}
	ledger := NewLedger()
	s.cache.Add(id, ledger)
	return ledger
}

// Peek returns the ledger without creating one.
func (s *Sessions) Peek(id string) (*Ledger, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Get(id)
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}
