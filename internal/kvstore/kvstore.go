// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

// Package kvstore provides the string-keyed byte stores backing
// credentials, passcode challenges and sessions. Implementations exist
// for Redis and for in-process memory; Resilient wraps either with
// timeouts and a bounded retry.
package kvstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned (wrapped) when a key has no value.
var ErrNotFound = errors.New("key not found")

// Store is a minimal key-value store.
type Store interface {
	// Get retrieves the value for a key.
	// Returns an error wrapping ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value under a key, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes a key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error
}

// ExpiringStore is a Store whose writes can carry a time-to-live.
// Expired keys behave as absent.
type ExpiringStore interface {
	Store

	// SetWithTTL stores a value that expires after ttl.
	// A non-positive ttl stores the value without expiry.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
