// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

// Package kv implements the auth store interfaces over a key-value
// store. Credentials keep a forward record per username plus a reverse
// index per user ID; challenges and sessions are single keyed records.
package kv

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/samber/oops"

	"github.com/tutordesk/tutordesk/internal/auth"
	"github.com/tutordesk/tutordesk/internal/kvstore"
)

// Key prefixes. Everything auth-related shares one keyspace, so the
// prefixes keep record kinds apart.
const (
	credentialKeyPrefix = "credentials:"
	userIDIndexPrefix   = "username-by-userid:"
)

// CredentialStore is an auth.CredentialStore over a key-value store.
type CredentialStore struct {
	store kvstore.Store
}

// NewCredentialStore creates a CredentialStore.
func NewCredentialStore(store kvstore.Store) (*CredentialStore, error) {
	if store == nil {
		return nil, oops.Errorf("key-value store is required")
	}
	return &CredentialStore{store: store}, nil
}

func credentialKey(username string) string { return credentialKeyPrefix + username }
func userIDIndexKey(userID string) string  { return userIDIndexPrefix + userID }

func (s *CredentialStore) GetByUsername(ctx context.Context, username string) (*auth.CredentialRecord, error) {
	raw, err := s.store.Get(ctx, credentialKey(username))
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, oops.Code("AUTH_NOT_FOUND").Wrap(auth.ErrNotFound)
		}
		return nil, err
	}

	var rec auth.CredentialRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, oops.Code("AUTH_RECORD_CORRUPT").
			With("username", username).
			Wrap(err)
	}
	return &rec, nil
}

func (s *CredentialStore) GetUsernameByUserID(ctx context.Context, userID string) (string, error) {
	raw, err := s.store.Get(ctx, userIDIndexKey(userID))
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return "", oops.Code("AUTH_NOT_FOUND").Wrap(auth.ErrNotFound)
		}
		return "", err
	}
	return string(raw), nil
}

// Create stores a new credential record and its reverse-index entry.
// Uniqueness is checked read-then-write; the portal provisions accounts
// from a single administrative path, so races between concurrent
// creates of the same name are not defended beyond last-writer-wins.
func (s *CredentialStore) Create(ctx context.Context, rec *auth.CredentialRecord) error {
	if _, err := s.store.Get(ctx, credentialKey(rec.Username)); err == nil {
		return oops.Code("AUTH_DUPLICATE_USERNAME").
			With("username", rec.Username).
			Errorf("username %q already has login access", rec.Username)
	} else if !errors.Is(err, kvstore.ErrNotFound) {
		return err
	}

	if _, err := s.store.Get(ctx, userIDIndexKey(rec.UserID)); err == nil {
		return oops.Code("AUTH_DUPLICATE_USER_ID").
			With("user_id", rec.UserID).
			Errorf("user %q already has login access", rec.UserID)
	} else if !errors.Is(err, kvstore.ErrNotFound) {
		return err
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return oops.Code("AUTH_RECORD_CORRUPT").
			With("username", rec.Username).
			Wrap(err)
	}

	if err := s.store.Set(ctx, credentialKey(rec.Username), raw); err != nil {
		return err
	}
	if err := s.store.Set(ctx, userIDIndexKey(rec.UserID), []byte(rec.Username)); err != nil {
		// Roll the forward record back so a half-created account cannot
		// log in without being discoverable by user ID.
		_ = s.store.Delete(ctx, credentialKey(rec.Username))
		return err
	}
	return nil
}

func (s *CredentialStore) UpdatePassword(ctx context.Context, username, newHash, newSalt string) error {
	rec, err := s.GetByUsername(ctx, username)
	if err != nil {
		return err
	}

	rec.PasswordHash = newHash
	rec.Salt = newSalt

	raw, err := json.Marshal(rec)
	if err != nil {
		return oops.Code("AUTH_RECORD_CORRUPT").
			With("username", username).
			Wrap(err)
	}
	return s.store.Set(ctx, credentialKey(username), raw)
}

// Delete removes the credential record and its reverse-index entry.
// Unknown user IDs are a no-op.
func (s *CredentialStore) Delete(ctx context.Context, userID string) error {
	username, err := s.GetUsernameByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return nil
		}
		return err
	}

	if err := s.store.Delete(ctx, credentialKey(username)); err != nil {
		return err
	}
	return s.store.Delete(ctx, userIDIndexKey(userID))
}

var _ auth.CredentialStore = (*CredentialStore)(nil)
