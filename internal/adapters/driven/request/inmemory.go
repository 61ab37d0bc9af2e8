// Package request provides replay-protection storage for outstanding SAML
// AuthnRequest IDs.
package request

import (
	"sync"
	"time"

	"github.com/spauthd/samlchain/internal/core/ports"
)

// InMemoryRequestStore tracks pending SAML request IDs for replay
// protection. Request IDs are single-use and expire after the duration
// set when they were stored.
type InMemoryRequestStore struct {
	mu      sync.Mutex
	entries map[string]time.Time

	// Background cleanup goroutine management
	stopCh    chan struct{}
	closeOnce sync.Once
	onCleanup func(removed int) // for testing
}

// Option customizes an InMemoryRequestStore.
type Option func(*InMemoryRequestStore)

// WithOnCleanup registers a callback invoked after each background
// cleanup pass with the number of expired entries removed. For testing.
func WithOnCleanup(fn func(removed int)) Option {
	return func(s *InMemoryRequestStore) { s.onCleanup = fn }
}

// NewInMemoryRequestStore creates a store without background cleanup.
// Expired entries are still rejected and removed lazily on access.
func NewInMemoryRequestStore(opts ...Option) *InMemoryRequestStore {
	s := &InMemoryRequestStore{
		entries: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryRequestStoreWithCleanup creates a store that removes expired
// entries every interval. Call Close to stop the goroutine.
func NewInMemoryRequestStoreWithCleanup(interval time.Duration, opts ...Option) *InMemoryRequestStore {
	s := NewInMemoryRequestStore(opts...)
	s.stopCh = make(chan struct{})
	go s.cleanupLoop(interval)
	return s
}

func (s *InMemoryRequestStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			removed := s.removeExpired()
			if s.onCleanup != nil {
				s.onCleanup(removed)
			}
		case <-s.stopCh:
			return
		}
	}
}

func (s *InMemoryRequestStore) removeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	removed := 0
	for id, expiry := range s.entries {
		if now.After(expiry) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Close stops the background cleanup goroutine if running. Idempotent.
func (s *InMemoryRequestStore) Close() error {
	if s.stopCh != nil {
		s.closeOnce.Do(func() { close(s.stopCh) })
	}
	return nil
}

// Store adds a request ID with the given expiry time.
func (s *InMemoryRequestStore) Store(requestID string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[requestID] = expiry
	return nil
}

// Valid checks if a request ID exists and is not expired.
// If valid, the ID is removed (single-use) and returns true.
// Returns false for unknown or expired IDs.
func (s *InMemoryRequestStore) Valid(requestID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, exists := s.entries[requestID]
	if !exists {
		return false
	}
	delete(s.entries, requestID)
	return time.Now().Before(expiry)
}

// GetAll returns all non-expired request IDs.
func (s *InMemoryRequestStore) GetAll() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var ids []string
	for id, expiry := range s.entries {
		if now.Before(expiry) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Interface guard
var _ ports.RequestStore = (*InMemoryRequestStore)(nil)
