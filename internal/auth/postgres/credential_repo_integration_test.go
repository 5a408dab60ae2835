// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

//go:build integration

package postgres_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tutordesk/tutordesk/internal/auth"
	"github.com/tutordesk/tutordesk/internal/auth/postgres"
	"github.com/tutordesk/tutordesk/internal/store"
)

// setupPostgresContainer starts a PostgreSQL container and applies the
// schema migrations.
func setupPostgresContainer() (*pgxpool.Pool, func(), error) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("tutordesk_test"),
		tcpostgres.WithUsername("tutordesk"),
		tcpostgres.WithPassword("tutordesk"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		_ = container.Terminate(ctx)
		return nil, nil, err
	}
	_ = migrator.Close()

	pool, err := store.Connect(ctx, connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, err
	}

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}
	return pool, cleanup, nil
}

var _ = Describe("CredentialRepository", func() {
	var (
		pool    *pgxpool.Pool
		repo    *postgres.CredentialRepository
		cleanup func()
	)

	BeforeEach(func() {
		var err error
		pool, cleanup, err = setupPostgresContainer()
		Expect(err).NotTo(HaveOccurred())

		repo, err = postgres.NewCredentialRepository(pool)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		cleanup()
	})

	newRecord := func(username, userID string) *auth.CredentialRecord {
		return &auth.CredentialRecord{
			Username:     username,
			UserID:       userID,
			Role:         auth.RoleStudent,
			PasswordHash: "aGFzaA",
			Salt:         "c2FsdA",
			CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
		}
	}

	Describe("Create and Get", func() {
		It("round-trips a credential record", func() {
			ctx := context.Background()
			rec := newRecord("stu01", "STU-7")

			Expect(repo.Create(ctx, rec)).To(Succeed())

			got, err := repo.GetByUsername(ctx, "stu01")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(rec))

			username, err := repo.GetUsernameByUserID(ctx, "STU-7")
			Expect(err).NotTo(HaveOccurred())
			Expect(username).To(Equal("stu01"))
		})

		It("rejects a duplicate username", func() {
			ctx := context.Background()
			Expect(repo.Create(ctx, newRecord("stu01", "STU-7"))).To(Succeed())

			err := repo.Create(ctx, newRecord("stu01", "STU-8"))
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("already has login access"))
		})

		It("rejects a duplicate user ID", func() {
			ctx := context.Background()
			Expect(repo.Create(ctx, newRecord("stu01", "STU-7"))).To(Succeed())

			err := repo.Create(ctx, newRecord("stu02", "STU-7"))
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("already has login access"))
		})
	})

	Describe("UpdatePassword", func() {
		It("replaces only the hash and salt", func() {
			ctx := context.Background()
			Expect(repo.Create(ctx, newRecord("stu01", "STU-7"))).To(Succeed())

			Expect(repo.UpdatePassword(ctx, "stu01", "bmV3aGFzaA", "bmV3c2FsdA")).To(Succeed())

			got, err := repo.GetByUsername(ctx, "stu01")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.PasswordHash).To(Equal("bmV3aGFzaA"))
			Expect(got.Salt).To(Equal("bmV3c2FsdA"))
			Expect(got.UserID).To(Equal("STU-7"))
		})
	})

	Describe("Delete", func() {
		It("removes the record and its reverse lookup", func() {
			ctx := context.Background()
			Expect(repo.Create(ctx, newRecord("stu01", "STU-7"))).To(Succeed())

			Expect(repo.Delete(ctx, "STU-7")).To(Succeed())

			_, err := repo.GetByUsername(ctx, "stu01")
			Expect(err).To(MatchError(auth.ErrNotFound))
			_, err = repo.GetUsernameByUserID(ctx, "STU-7")
			Expect(err).To(MatchError(auth.ErrNotFound))
		})

		It("is a no-op for unknown user IDs", func() {
			Expect(repo.Delete(context.Background(), "NOPE-1")).To(Succeed())
		})
	})
})
