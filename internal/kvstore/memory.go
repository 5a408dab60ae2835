// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

package kvstore

import (
	"context"
	"sync"
	"time"

	"github.com/samber/oops"
)

// MemoryStore is an in-process ExpiringStore. It is safe for concurrent
// use and intended for tests and single-node demo deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	clock   func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// MemoryOption customizes a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock overrides the time source. Used by tests to drive expiry.
func WithMemoryClock(clock func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.clock = clock }
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if ok && !entry.expiresAt.IsZero() && s.clock().After(entry.expiresAt) {
		// Lazy expiry: drop the stale entry on read. Re-check under the
		// write lock so a value written between the two locks survives.
		s.mu.Lock()
		if current, stillThere := s.entries[key]; stillThere &&
			!current.expiresAt.IsZero() && s.clock().After(current.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		ok = false
	}
	if !ok {
		return nil, oops.Code("KV_NOT_FOUND").With("key", key).Wrap(ErrNotFound)
	}

	cp := make([]byte, len(entry.value))
	copy(cp, entry.value)
	return cp, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

func (s *MemoryStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	cp := make([]byte, len(value))
	copy(cp, value)

	entry := memoryEntry{value: cp}
	if ttl > 0 {
		entry.expiresAt = s.clock().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

var _ ExpiringStore = (*MemoryStore)(nil)
