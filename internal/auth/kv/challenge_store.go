// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

package kv

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/samber/oops"

	"github.com/tutordesk/tutordesk/internal/auth"
	"github.com/tutordesk/tutordesk/internal/kvstore"
)

const challengeKeyPrefix = "otp:"

// challengeTTLGrace keeps an expired challenge readable for a while so
// a late verify sees OTP_EXPIRED rather than OTP_NOT_FOUND. The store
// TTL is hygiene only; expiry itself is judged against the challenge's
// own ExpiresAt.
const challengeTTLGrace = time.Hour

// ChallengeStore is an auth.ChallengeStore over a key-value store.
type ChallengeStore struct {
	store kvstore.Store
}

// NewChallengeStore creates a ChallengeStore.
func NewChallengeStore(store kvstore.Store) (*ChallengeStore, error) {
	if store == nil {
		return nil, oops.Errorf("key-value store is required")
	}
	return &ChallengeStore{store: store}, nil
}

func challengeKey(email string) string { return challengeKeyPrefix + email }

func (s *ChallengeStore) Put(ctx context.Context, ch *auth.Challenge) error {
	raw, err := json.Marshal(ch)
	if err != nil {
		return oops.Code("OTP_RECORD_CORRUPT").
			With("email", ch.Email).
			Wrap(err)
	}

	if expiring, ok := s.store.(kvstore.ExpiringStore); ok {
		ttl := time.Until(ch.ExpiresAt) + challengeTTLGrace
		return expiring.SetWithTTL(ctx, challengeKey(ch.Email), raw, ttl)
	}
	return s.store.Set(ctx, challengeKey(ch.Email), raw)
}

func (s *ChallengeStore) Get(ctx context.Context, email string) (*auth.Challenge, error) {
	raw, err := s.store.Get(ctx, challengeKey(email))
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, oops.Code("OTP_NOT_FOUND").Wrap(auth.ErrNotFound)
		}
		return nil, err
	}

	var ch auth.Challenge
	if err := json.Unmarshal(raw, &ch); err != nil {
		return nil, oops.Code("OTP_RECORD_CORRUPT").
			With("email", email).
			Wrap(err)
	}
	return &ch, nil
}

func (s *ChallengeStore) Delete(ctx context.Context, email string) error {
	return s.store.Delete(ctx, challengeKey(email))
}

var _ auth.ChallengeStore = (*ChallengeStore)(nil)
