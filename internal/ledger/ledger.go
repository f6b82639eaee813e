// Package ledger tracks already-processed message identifiers.
package ledger

import (
	"context"
	"sync"

	"TelegramJobAgent/internal/ports"
)

// Set is the in-memory dedup ledger. It is seeded once from the store at
// process start and grows monotonically as new records are accepted. The
// pipeline is single-threaded, but the mutex keeps the type safe for a
// dashboard or scheduler probing it from another goroutine.
type Set struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

var _ ports.DedupLedger = (*Set)(nil)

// NewSet returns an empty ledger.
func NewSet() *Set {
	return &Set{ids: make(map[string]struct{})}
}

// Seed registers every previously persisted identifier.
func (s *Set) Seed(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if id == "" {
			continue
		}
		s.ids[id] = struct{}{}
	}
	return nil
}

// Contains reports whether id was already processed.
func (s *Set) Contains(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok, nil
}

// Record marks id as processed.
func (s *Set) Record(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}
	return nil
}

// Len returns the number of known identifiers.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}
