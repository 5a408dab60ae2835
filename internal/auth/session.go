// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/samber/oops"
)

// ClientIDBytes is the entropy of a generated client-context ID.
// 32 bytes = 64 hex chars.
const ClientIDBytes = 32

// Session is the single current-authentication record a client context
// holds after a successful login. Sessions carry no expiry; they last
// until explicit logout.
type Session struct {
	Role     Role              `json:"role"`
	UserID   string            `json:"userId"`
	Metadata map[string]string `json:"metadata,omitempty"`
	IssuedAt time.Time         `json:"issuedAt"`
}

// SessionStore persists at most one session per client context.
type SessionStore interface {
	// Put stores a session, overwriting any existing one for the client.
	Put(ctx context.Context, clientID string, session *Session) error

	// Get retrieves the current session for a client.
	// Returns an error wrapping ErrNotFound when none exists.
	Get(ctx context.Context, clientID string) (*Session, error)

	// Delete removes the session for a client. Unknown clients are a no-op.
	Delete(ctx context.Context, clientID string) error
}

// SessionManager creates, reads and destroys the current-session record
// the rest of the portal consults to determine who is logged in. It is
// an injected dependency, not an ambient global.
type SessionManager struct {
	store SessionStore
}

// NewSessionManager creates a new SessionManager.
func NewSessionManager(store SessionStore) (*SessionManager, error) {
	if store == nil {
		return nil, oops.Errorf("session store is required")
	}
	return &SessionManager{store: store}, nil
}

// Create writes the session for a client context, unconditionally
// replacing any prior one. No merge is attempted.
func (m *SessionManager) Create(ctx context.Context, clientID string, role Role, userID string, metadata map[string]string) (*Session, error) {
	if clientID == "" {
		return nil, oops.Code("SESSION_INVALID_CLIENT").Errorf("client ID cannot be empty")
	}
	if !role.Valid() {
		return nil, oops.Code("AUTH_INVALID_ROLE").
			With("role", string(role)).
			Errorf("unrecognized role %q", string(role))
	}
	if userID == "" {
		return nil, oops.Code("SESSION_INVALID_USER").Errorf("user ID cannot be empty")
	}

	session := &Session{
		Role:     role,
		UserID:   userID,
		Metadata: metadata,
		IssuedAt: time.Now().UTC(),
	}

	if err := m.store.Put(ctx, clientID, session); err != nil {
		return nil, oops.Code("SESSION_CREATE_FAILED").
			With("operation", "persist session").
			Wrap(err)
	}
	return session, nil
}

// Get reads the current session for a client context.
// Returns an error wrapping ErrNotFound when the client is anonymous.
func (m *SessionManager) Get(ctx context.Context, clientID string) (*Session, error) {
	session, err := m.store.Get(ctx, clientID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("SESSION_NOT_FOUND").Wrap(ErrNotFound)
		}
		return nil, oops.Code("SESSION_GET_FAILED").
			With("operation", "get session").
			Wrap(err)
	}
	return session, nil
}

// Clear removes the session for a client context (logout). Clearing an
// anonymous client succeeds.
func (m *SessionManager) Clear(ctx context.Context, clientID string) error {
	if err := m.store.Delete(ctx, clientID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return oops.Code("SESSION_CLEAR_FAILED").
			With("operation", "delete session").
			Wrap(err)
	}
	return nil
}

// GenerateClientID creates a secure random client-context identifier.
func GenerateClientID() (string, error) {
	buf := make([]byte, ClientIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", oops.Code("SESSION_CLIENT_ID_FAILED").
			With("operation", "crypto/rand.Read").
			Wrap(err)
	}
	return hex.EncodeToString(buf), nil
}
