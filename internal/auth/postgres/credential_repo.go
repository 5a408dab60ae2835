// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

// Package postgres implements auth.CredentialStore using PostgreSQL.
// The record and its user-ID reverse index live in one table, so the
// pair stays atomic without an explicit transaction.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/tutordesk/tutordesk/internal/auth"
)

// dbIface is the subset of pgxpool.Pool the repository needs. It is
// satisfied by pgxmock for unit tests.
type dbIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CredentialRepository implements auth.CredentialStore using PostgreSQL.
type CredentialRepository struct {
	db dbIface
}

// NewCredentialRepository creates a new PostgreSQL credential repository.
func NewCredentialRepository(db dbIface) (*CredentialRepository, error) {
	if db == nil {
		return nil, oops.Errorf("database handle is required")
	}
	return &CredentialRepository{db: db}, nil
}

// GetByUsername retrieves a credential record by username.
func (r *CredentialRepository) GetByUsername(ctx context.Context, username string) (*auth.CredentialRecord, error) {
	row := r.db.QueryRow(ctx, `
		SELECT username, user_id, role, password_hash, salt, created_at
		FROM credentials WHERE username = $1
	`, username)

	var rec auth.CredentialRecord
	var role string
	err := row.Scan(&rec.Username, &rec.UserID, &role, &rec.PasswordHash, &rec.Salt, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("AUTH_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("AUTH_GET_FAILED").With("username", username).Wrap(err)
	}
	rec.Role = auth.Role(role)
	return &rec, nil
}

// GetUsernameByUserID retrieves the username holding login access for a
// user ID.
func (r *CredentialRepository) GetUsernameByUserID(ctx context.Context, userID string) (string, error) {
	row := r.db.QueryRow(ctx, `
		SELECT username FROM credentials WHERE user_id = $1
	`, userID)

	var username string
	err := row.Scan(&username)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", oops.Code("AUTH_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return "", oops.Code("AUTH_GET_FAILED").With("user_id", userID).Wrap(err)
	}
	return username, nil
}

// Create persists a new credential record. Uniqueness of both username
// and user ID is enforced by the table's constraints.
func (r *CredentialRepository) Create(ctx context.Context, rec *auth.CredentialRecord) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO credentials (username, user_id, role, password_hash, salt, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.Username, rec.UserID, string(rec.Role), rec.PasswordHash, rec.Salt, rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			switch pgErr.ConstraintName {
			case "credentials_pkey":
				return oops.Code("AUTH_DUPLICATE_USERNAME").
					With("username", rec.Username).
					Wrapf(err, "username %q already has login access", rec.Username)
			case "credentials_user_id_key":
				return oops.Code("AUTH_DUPLICATE_USER_ID").
					With("user_id", rec.UserID).
					Wrapf(err, "user %q already has login access", rec.UserID)
			}
		}
		return oops.Code("AUTH_CREATE_FAILED").With("username", rec.Username).Wrap(err)
	}
	return nil
}

// UpdatePassword replaces the stored hash and salt for a username.
func (r *CredentialRepository) UpdatePassword(ctx context.Context, username, newHash, newSalt string) error {
	result, err := r.db.Exec(ctx, `
		UPDATE credentials SET password_hash = $2, salt = $3 WHERE username = $1
	`, username, newHash, newSalt)
	if err != nil {
		return oops.Code("AUTH_UPDATE_FAILED").With("username", username).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("AUTH_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return nil
}

// Delete removes login access for a user ID. Unknown user IDs are a
// no-op.
func (r *CredentialRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM credentials WHERE user_id = $1`, userID)
	if err != nil {
		return oops.Code("AUTH_DELETE_FAILED").With("user_id", userID).Wrap(err)
	}
	return nil
}

var _ auth.CredentialStore = (*CredentialRepository)(nil)
