// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/samber/oops"
)

// Role is the closed set of portal roles. It is resolved once at the
// authentication boundary; downstream code switches exhaustively so an
// unrecognized role cannot silently fall through.
type Role string

// Portal roles.
const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// ParseRole converts a raw string into a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return r, nil
	default:
		return "", oops.Code("AUTH_INVALID_ROLE").
			With("role", s).
			Errorf("unrecognized role %q", s)
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	default:
		return false
	}
}

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// usernameRegex matches usernames that:
// - Start with a letter (a-z, A-Z)
// - Contain only letters, numbers, and underscores
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// ValidateUsername validates a username against rules.
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("AUTH_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if len(username) < MinUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("min", MinUsernameLength).
			Errorf("username must be at least %d characters", MinUsernameLength)
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("AUTH_INVALID_USERNAME").
			Errorf("username must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// CredentialRecord is the stored login credential for one account.
// Exactly one record exists per username, and a userID owns at most one
// record (enforced through the reverse index).
type CredentialRecord struct {
	Username     string    `json:"username"`
	UserID       string    `json:"userId"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"passwordHash"`
	Salt         string    `json:"salt"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CredentialStore persists credential records keyed by username, plus a
// userID -> username reverse index maintained alongside every write.
type CredentialStore interface {
	// GetByUsername retrieves a record by exact username match.
	// Returns an error wrapping ErrNotFound when absent.
	GetByUsername(ctx context.Context, username string) (*CredentialRecord, error)

	// GetUsernameByUserID reads the reverse index.
	// Returns an error wrapping ErrNotFound when the userID has no record.
	GetUsernameByUserID(ctx context.Context, userID string) (string, error)

	// Create stores a new record and its reverse-index entry. Fails with
	// AUTH_DUPLICATE_USERNAME if the username exists, or
	// AUTH_DUPLICATE_USER_ID if the userID already has a record.
	Create(ctx context.Context, rec *CredentialRecord) error

	// UpdatePassword replaces hash and salt in place, leaving username,
	// role and userID untouched. Fails with an error wrapping ErrNotFound
	// when no record exists.
	UpdatePassword(ctx context.Context, username, newHash, newSalt string) error

	// Delete removes the record owned by userID together with its
	// reverse-index entry. Deleting an unknown userID is a no-op.
	Delete(ctx context.Context, userID string) error
}
