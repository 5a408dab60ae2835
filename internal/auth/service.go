// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
)

// InvalidCredentialsMessage is the single message returned for both
// unknown-username and wrong-password failures, so a caller cannot tell
// which field was wrong.
const InvalidCredentialsMessage = "invalid username or password"

// Dummy digest values used when a username doesn't exist, so password
// verification still runs and response time stays flat. These decode to
// all-zero bytes and will never match a real password.
const (
	dummyPasswordHash = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	dummySalt         = "AAAAAAAAAAAAAAAAAAAAAA"
)

// Identity is the outcome of a successful credential check.
type Identity struct {
	Role   Role
	UserID string
}

// Service orchestrates credential lookup, verification and admin
// provisioning. It performs no session side effects; callers create the
// session after a successful result.
type Service struct {
	creds  CredentialStore
	hasher PasswordHasher
}

// NewService creates a new Service.
func NewService(creds CredentialStore, hasher PasswordHasher) (*Service, error) {
	if creds == nil {
		return nil, oops.Errorf("credential store is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	return &Service{creds: creds, hasher: hasher}, nil
}

// invalidCredentials builds the deliberately under-specific login failure.
func invalidCredentials() error {
	return oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("%s", InvalidCredentialsMessage)
}

// VerifyCredentials checks a (username, password) pair and returns the
// stored role and userID on success. Lookup is by exact, case-sensitive
// username match. Unknown usernames and wrong passwords produce the same
// AUTH_INVALID_CREDENTIALS error, and verification runs against a dummy
// digest when the user is missing to keep response time constant.
func (s *Service) VerifyCredentials(ctx context.Context, username, password string) (Identity, error) {
	rec, lookupErr := s.creds.GetByUsername(ctx, username)

	targetHash := dummyPasswordHash
	targetSalt := dummySalt
	exists := false

	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return Identity{}, oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get credential by username").
				Wrap(lookupErr)
		}
	} else {
		targetHash = rec.PasswordHash
		targetSalt = rec.Salt
		exists = true
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash, targetSalt)
	if verifyErr != nil {
		if !exists {
			return Identity{}, invalidCredentials()
		}
		return Identity{}, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	if !exists || !valid {
		return Identity{}, invalidCredentials()
	}

	return Identity{Role: rec.Role, UserID: rec.UserID}, nil
}

// Provision creates login access for a profile. Admin-facing: duplicate
// username and duplicate userID failures stay specific.
func (s *Service) Provision(ctx context.Context, username, password string, role Role, userID string) (*CredentialRecord, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, oops.Code("AUTH_INVALID_ROLE").
			With("role", string(role)).
			Errorf("unrecognized role %q", string(role))
	}
	if userID == "" {
		return nil, oops.Code("AUTH_INVALID_USER_ID").Errorf("user ID cannot be empty")
	}

	hash, salt, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	rec := &CredentialRecord{
		Username:     username,
		UserID:       userID,
		Role:         role,
		PasswordHash: hash,
		Salt:         salt,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.creds.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// UpdatePassword regenerates hash and salt for an existing record.
func (s *Service) UpdatePassword(ctx context.Context, username, newPassword string) error {
	hash, salt, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.creds.UpdatePassword(ctx, username, hash, salt)
}

// DeleteCredentials removes login access for a profile. Unknown userIDs
// are an idempotent no-op.
func (s *Service) DeleteCredentials(ctx context.Context, userID string) error {
	return s.creds.Delete(ctx, userID)
}

// FindUsernameByUserID reports whether a profile has login access without
// scanning all records.
func (s *Service) FindUsernameByUserID(ctx context.Context, userID string) (string, error) {
	return s.creds.GetUsernameByUserID(ctx, userID)
}
