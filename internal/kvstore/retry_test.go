// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

package kvstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutordesk/tutordesk/internal/kvstore"
	"github.com/tutordesk/tutordesk/pkg/errutil"
)

// flakyStore fails a configured number of calls before delegating to an
// in-memory store.
type flakyStore struct {
	inner     *kvstore.MemoryStore
	failCount int
	failErr   error
	attempts  int
}

func newFlakyStore(failCount int, failErr error) *flakyStore {
	return &flakyStore{
		inner:     kvstore.NewMemoryStore(),
		failCount: failCount,
		failErr:   failErr,
	}
}

func (f *flakyStore) fail() error {
	f.attempts++
	if f.attempts <= f.failCount {
		return f.failErr
	}
	return nil
}

func (f *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.inner.Get(ctx, key)
}

func (f *flakyStore) Set(ctx context.Context, key string, value []byte) error {
	if err := f.fail(); err != nil {
		return err
	}
	return f.inner.Set(ctx, key, value)
}

func (f *flakyStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := f.fail(); err != nil {
		return err
	}
	return f.inner.SetWithTTL(ctx, key, value, ttl)
}

func (f *flakyStore) Delete(ctx context.Context, key string) error {
	if err := f.fail(); err != nil {
		return err
	}
	return f.inner.Delete(ctx, key)
}

func TestNewResilient_NilInner(t *testing.T) {
	store, err := kvstore.NewResilient(nil)
	require.Error(t, err)
	assert.Nil(t, store)
}

func TestResilient_PassesThrough(t *testing.T) {
	ctx := context.Background()
	store, err := kvstore.NewResilient(kvstore.NewMemoryStore())
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, "k1", []byte("v1")))

	got, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	require.NoError(t, store.Delete(ctx, "k1"))
	_, err = store.Get(ctx, "k1")
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestResilient_RetriesTransientFailure(t *testing.T) {
	ctx := context.Background()
	flaky := newFlakyStore(1, errors.New("connection reset"))
	store, err := kvstore.NewResilient(flaky)
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, "k1", []byte("v1")))
	assert.Equal(t, 2, flaky.attempts)
}

func TestResilient_GivesUpAfterRetry(t *testing.T) {
	ctx := context.Background()
	flaky := newFlakyStore(10, errors.New("service unavailable"))
	store, err := kvstore.NewResilient(flaky)
	require.NoError(t, err)

	err = store.Set(ctx, "k1", []byte("v1"))
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "STORAGE_FAILED")
	assert.Equal(t, 2, flaky.attempts, "initial attempt plus one retry")
}

func TestResilient_DoesNotRetryMissingKey(t *testing.T) {
	ctx := context.Background()
	flaky := newFlakyStore(0, nil)
	store, err := kvstore.NewResilient(flaky)
	require.NoError(t, err)

	_, err = store.Get(ctx, "absent")
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
	assert.Equal(t, 1, flaky.attempts, "a missing key is a result, not a failure")

	if oopsErr, ok := oops.AsOops(err); ok {
		assert.NotEqual(t, "STORAGE_FAILED", oopsErr.Code())
	}
}
