// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

package auth_test

import (
	"context"

	"github.com/samber/oops"

	"github.com/tutordesk/tutordesk/internal/auth"
)

// fakeCredentialStore is an in-memory auth.CredentialStore with optional
// error injection.
type fakeCredentialStore struct {
	records map[string]*auth.CredentialRecord
	reverse map[string]string

	getErr    error // injected into GetByUsername
	createErr error // injected into Create
}

func newFakeCredentialStore() *fakeCredentialStore {
	return &fakeCredentialStore{
		records: make(map[string]*auth.CredentialRecord),
		reverse: make(map[string]string),
	}
}

func (f *fakeCredentialStore) GetByUsername(_ context.Context, username string) (*auth.CredentialRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.records[username]
	if !ok {
		return nil, oops.Code("AUTH_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeCredentialStore) GetUsernameByUserID(_ context.Context, userID string) (string, error) {
	username, ok := f.reverse[userID]
	if !ok {
		return "", oops.Code("AUTH_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return username, nil
}

func (f *fakeCredentialStore) Create(_ context.Context, rec *auth.CredentialRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.records[rec.Username]; ok {
		return oops.Code("AUTH_DUPLICATE_USERNAME").Errorf("username %q already has login access", rec.Username)
	}
	if _, ok := f.reverse[rec.UserID]; ok {
		return oops.Code("AUTH_DUPLICATE_USER_ID").Errorf("user %q already has login access", rec.UserID)
	}
	cp := *rec
	f.records[rec.Username] = &cp
	f.reverse[rec.UserID] = rec.Username
	return nil
}

func (f *fakeCredentialStore) UpdatePassword(_ context.Context, username, newHash, newSalt string) error {
	rec, ok := f.records[username]
	if !ok {
		return oops.Code("AUTH_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	rec.PasswordHash = newHash
	rec.Salt = newSalt
	return nil
}

func (f *fakeCredentialStore) Delete(_ context.Context, userID string) error {
	username, ok := f.reverse[userID]
	if !ok {
		return nil
	}
	delete(f.records, username)
	delete(f.reverse, userID)
	return nil
}

// fakeChallengeStore is an in-memory auth.ChallengeStore.
type fakeChallengeStore struct {
	challenges map[string]*auth.Challenge
	putErr     error
}

func newFakeChallengeStore() *fakeChallengeStore {
	return &fakeChallengeStore{challenges: make(map[string]*auth.Challenge)}
}

func (f *fakeChallengeStore) Put(_ context.Context, ch *auth.Challenge) error {
	if f.putErr != nil {
		return f.putErr
	}
	cp := *ch
	f.challenges[ch.Email] = &cp
	return nil
}

func (f *fakeChallengeStore) Get(_ context.Context, email string) (*auth.Challenge, error) {
	ch, ok := f.challenges[email]
	if !ok {
		return nil, oops.Code("OTP_CHALLENGE_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	cp := *ch
	return &cp, nil
}

func (f *fakeChallengeStore) Delete(_ context.Context, email string) error {
	delete(f.challenges, email)
	return nil
}

// fakeSessionStore is an in-memory auth.SessionStore.
type fakeSessionStore struct {
	sessions map[string]*auth.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*auth.Session)}
}

func (f *fakeSessionStore) Put(_ context.Context, clientID string, session *auth.Session) error {
	cp := *session
	f.sessions[clientID] = &cp
	return nil
}

func (f *fakeSessionStore) Get(_ context.Context, clientID string) (*auth.Session, error) {
	s, ok := f.sessions[clientID]
	if !ok {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessionStore) Delete(_ context.Context, clientID string) error {
	delete(f.sessions, clientID)
	return nil
}

// recordingSender captures codes handed to the delivery collaborator.
type recordingSender struct {
	emails []string
	codes  []string
	err    error
}

func (r *recordingSender) Send(_ context.Context, email, code string) error {
	if r.err != nil {
		return r.err
	}
	r.emails = append(r.emails, email)
	r.codes = append(r.codes, code)
	return nil
}
