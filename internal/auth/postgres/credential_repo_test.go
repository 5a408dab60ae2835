// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutordesk/tutordesk/internal/auth"
	"github.com/tutordesk/tutordesk/pkg/errutil"
)

func newMockRepo(t *testing.T) (*CredentialRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	repo, err := NewCredentialRepository(mock)
	require.NoError(t, err)
	return repo, mock
}

func TestNewCredentialRepository_NilDB(t *testing.T) {
	repo, err := NewCredentialRepository(nil)
	require.Error(t, err)
	assert.Nil(t, repo)
}

func TestCredentialRepository_GetByUsername(t *testing.T) {
	createdAt := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	t.Run("returns the record", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		rows := pgxmock.NewRows([]string{"username", "user_id", "role", "password_hash", "salt", "created_at"}).
			AddRow("stu01", "STU-7", "student", "aGFzaA", "c2FsdA", createdAt)
		mock.ExpectQuery(`SELECT username, user_id, role, password_hash, salt, created_at`).
			WithArgs("stu01").
			WillReturnRows(rows)

		rec, err := repo.GetByUsername(context.Background(), "stu01")
		require.NoError(t, err)
		assert.Equal(t, "stu01", rec.Username)
		assert.Equal(t, "STU-7", rec.UserID)
		assert.Equal(t, auth.RoleStudent, rec.Role)
		assert.Equal(t, "aGFzaA", rec.PasswordHash)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing username wraps ErrNotFound", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`SELECT username, user_id, role, password_hash, salt, created_at`).
			WithArgs("absent").
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetByUsername(context.Background(), "absent")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
		errutil.AssertErrorCode(t, err, "AUTH_NOT_FOUND")
	})

	t.Run("database error surfaces", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`SELECT username, user_id, role, password_hash, salt, created_at`).
			WithArgs("stu01").
			WillReturnError(errors.New("connection refused"))

		_, err := repo.GetByUsername(context.Background(), "stu01")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_GET_FAILED")
	})
}

func TestCredentialRepository_GetUsernameByUserID(t *testing.T) {
	t.Run("returns the username", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		rows := pgxmock.NewRows([]string{"username"}).AddRow("stu01")
		mock.ExpectQuery(`SELECT username FROM credentials WHERE user_id`).
			WithArgs("STU-7").
			WillReturnRows(rows)

		username, err := repo.GetUsernameByUserID(context.Background(), "STU-7")
		require.NoError(t, err)
		assert.Equal(t, "stu01", username)
	})

	t.Run("missing user ID wraps ErrNotFound", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`SELECT username FROM credentials WHERE user_id`).
			WithArgs("NOPE-1").
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetUsernameByUserID(context.Background(), "NOPE-1")
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})
}

func TestCredentialRepository_Create(t *testing.T) {
	rec := &auth.CredentialRecord{
		Username:     "stu01",
		UserID:       "STU-7",
		Role:         auth.RoleStudent,
		PasswordHash: "aGFzaA",
		Salt:         "c2FsdA",
		CreatedAt:    time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}

	t.Run("inserts the record", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`INSERT INTO credentials`).
			WithArgs(rec.Username, rec.UserID, "student", rec.PasswordHash, rec.Salt, rec.CreatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, repo.Create(context.Background(), rec))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate username maps to AUTH_DUPLICATE_USERNAME", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`INSERT INTO credentials`).
			WithArgs(rec.Username, rec.UserID, "student", rec.PasswordHash, rec.Salt, rec.CreatedAt).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "credentials_pkey"})

		err := repo.Create(context.Background(), rec)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_DUPLICATE_USERNAME")
	})

	t.Run("duplicate user ID maps to AUTH_DUPLICATE_USER_ID", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`INSERT INTO credentials`).
			WithArgs(rec.Username, rec.UserID, "student", rec.PasswordHash, rec.Salt, rec.CreatedAt).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "credentials_user_id_key"})

		err := repo.Create(context.Background(), rec)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_DUPLICATE_USER_ID")
	})

	t.Run("other database errors map to AUTH_CREATE_FAILED", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`INSERT INTO credentials`).
			WithArgs(rec.Username, rec.UserID, "student", rec.PasswordHash, rec.Salt, rec.CreatedAt).
			WillReturnError(errors.New("disk full"))

		err := repo.Create(context.Background(), rec)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_CREATE_FAILED")
	})
}

func TestCredentialRepository_UpdatePassword(t *testing.T) {
	t.Run("updates the stored hash", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`UPDATE credentials SET password_hash`).
			WithArgs("stu01", "bmV3aGFzaA", "bmV3c2FsdA").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.UpdatePassword(context.Background(), "stu01", "bmV3aGFzaA", "bmV3c2FsdA"))
	})

	t.Run("unknown username wraps ErrNotFound", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`UPDATE credentials SET password_hash`).
			WithArgs("absent", "h", "s").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdatePassword(context.Background(), "absent", "h", "s")
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})
}

func TestCredentialRepository_Delete(t *testing.T) {
	t.Run("deletes by user ID", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`DELETE FROM credentials WHERE user_id`).
			WithArgs("STU-7").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		require.NoError(t, repo.Delete(context.Background(), "STU-7"))
	})

	t.Run("unknown user ID is a no-op", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`DELETE FROM credentials WHERE user_id`).
			WithArgs("NOPE-1").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		require.NoError(t, repo.Delete(context.Background(), "NOPE-1"))
	})
}
