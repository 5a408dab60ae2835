// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

package kvstore

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Resilience defaults. Every operation gets a deadline and a single
// retry; a missing key is a result, not a failure, and is never retried.
const (
	// OpTimeout bounds a single store operation including its retry.
	OpTimeout = 10 * time.Second

	// retryBackoff is the pause before the one retry attempt.
	retryBackoff = 250 * time.Millisecond

	maxRetries = 1
)

// Resilient wraps an ExpiringStore with per-operation timeouts and a
// bounded retry. Failures that survive the retry surface as
// STORAGE_FAILED.
type Resilient struct {
	inner ExpiringStore
}

// NewResilient wraps the given store.
func NewResilient(inner ExpiringStore) (*Resilient, error) {
	if inner == nil {
		return nil, oops.Errorf("inner store is required")
	}
	return &Resilient{inner: inner}, nil
}

func (r *Resilient) do(ctx context.Context, op string, key string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, OpTimeout)
	defer cancel()

	err := retry.Do(ctx, retry.WithMaxRetries(maxRetries, retry.NewConstant(retryBackoff)), func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return retry.RetryableError(err)
	})
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	return oops.Code("STORAGE_FAILED").
		With("operation", op).
		With("key", key).
		Wrap(err)
}

func (r *Resilient) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.do(ctx, "get", key, func(ctx context.Context) error {
		var innerErr error
		value, innerErr = r.inner.Get(ctx, key)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (r *Resilient) Set(ctx context.Context, key string, value []byte) error {
	return r.do(ctx, "set", key, func(ctx context.Context) error {
		return r.inner.Set(ctx, key, value)
	})
}

func (r *Resilient) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.do(ctx, "set_with_ttl", key, func(ctx context.Context) error {
		return r.inner.SetWithTTL(ctx, key, value, ttl)
	})
}

func (r *Resilient) Delete(ctx context.Context, key string) error {
	return r.do(ctx, "delete", key, func(ctx context.Context) error {
		return r.inner.Delete(ctx, key)
	})
}

var _ ExpiringStore = (*Resilient)(nil)
