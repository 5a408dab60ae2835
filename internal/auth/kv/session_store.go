// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

package kv

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/samber/oops"

	"github.com/tutordesk/tutordesk/internal/auth"
	"github.com/tutordesk/tutordesk/internal/kvstore"
)

const sessionKeyPrefix = "session:"

// SessionStore is an auth.SessionStore over a key-value store.
// Sessions carry no TTL; they last until explicit logout.
type SessionStore struct {
	store kvstore.Store
}

// NewSessionStore creates a SessionStore.
func NewSessionStore(store kvstore.Store) (*SessionStore, error) {
	if store == nil {
		return nil, oops.Errorf("key-value store is required")
	}
	return &SessionStore{store: store}, nil
}

func sessionKey(clientID string) string { return sessionKeyPrefix + clientID }

func (s *SessionStore) Put(ctx context.Context, clientID string, session *auth.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return oops.Code("SESSION_RECORD_CORRUPT").Wrap(err)
	}
	return s.store.Set(ctx, sessionKey(clientID), raw)
}

func (s *SessionStore) Get(ctx context.Context, clientID string) (*auth.Session, error) {
	raw, err := s.store.Get(ctx, sessionKey(clientID))
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
		}
		return nil, err
	}

	var session auth.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, oops.Code("SESSION_RECORD_CORRUPT").Wrap(err)
	}
	return &session, nil
}

func (s *SessionStore) Delete(ctx context.Context, clientID string) error {
	return s.store.Delete(ctx, sessionKey(clientID))
}

var _ auth.SessionStore = (*SessionStore)(nil)
