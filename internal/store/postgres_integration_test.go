// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/lumenclass/lumenclass/internal/account"
	accountpg "github.com/lumenclass/lumenclass/internal/account/postgres"
	"github.com/lumenclass/lumenclass/internal/session"
	sessionpg "github.com/lumenclass/lumenclass/internal/session/postgres"
	"github.com/lumenclass/lumenclass/internal/store"
)

// setupPostgres starts a PostgreSQL container, connects a pool and runs
// all migrations.
func setupPostgres() (*pgxpool.Pool, func(), error) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("lumenclass_test"),
		postgres.WithUsername("lumenclass"),
		postgres.WithPassword("lumenclass"),
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
		return nil, nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		return nil, nil, err
	}
	if err := migrator.Up(); err != nil {
		return nil, nil, err
	}
	if err := migrator.Close(); err != nil {
		return nil, nil, err
	}

	pool, err := store.Connect(ctx, connStr)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}
	return pool, cleanup, nil
}

var _ = Describe("Repositories", func() {
	var pool *pgxpool.Pool
	var cleanup func()

	BeforeEach(func() {
		var err error
		pool, cleanup, err = setupPostgres()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		cleanup()
	})

	Describe("AccountRepository", func() {
		It("round-trips accounts", func() {
			ctx := context.Background()
			repo := accountpg.NewAccountRepository(pool)

			acct, err := account.NewAccount("teacher@school.example", "$argon2id$hash")
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.Create(ctx, acct)).To(Succeed())

			got, err := repo.GetByEmail(ctx, "TEACHER@school.example")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(acct.ID))

			got.EmailVerified = true
			Expect(repo.Update(ctx, got)).To(Succeed())

			byID, err := repo.GetByID(ctx, acct.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(byID.EmailVerified).To(BeTrue())
		})

		It("rejects duplicate emails", func() {
			ctx := context.Background()
			repo := accountpg.NewAccountRepository(pool)

			first, err := account.NewAccount("dup@school.example", "$argon2id$hash")
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.Create(ctx, first)).To(Succeed())

			second, err := account.NewAccount("DUP@school.example", "$argon2id$hash")
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.Create(ctx, second)).NotTo(Succeed())
		})
	})

	Describe("SessionRepository", func() {
		It("resolves an unexpired session with account flags", func() {
			ctx := context.Background()
			accounts := accountpg.NewAccountRepository(pool)
			sessions := sessionpg.NewSessionRepository(pool)

			acct, err := account.NewAccount("student@school.example", "$argon2id$hash")
			Expect(err).NotTo(HaveOccurred())
			acct.EmailVerified = true
			Expect(accounts.Create(ctx, acct)).To(Succeed())

			_, hash, err := session.GenerateToken()
			Expect(err).NotTo(HaveOccurred())
			sess, err := session.New(acct.ID, session.WorkspaceStudent, "", hash,
				"", "", time.Now().Add(time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions.Create(ctx, sess)).To(Succeed())

			resolved, err := sessions.ResolveByTokenHash(ctx, hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(resolved.AccountID).To(Equal(acct.ID.String()))
			Expect(resolved.EmailVerified).To(BeTrue())
			Expect(resolved.WorkspaceType).To(Equal(session.WorkspaceStudent))
		})

		It("does not resolve expired sessions", func() {
			ctx := context.Background()
			accounts := accountpg.NewAccountRepository(pool)
			sessions := sessionpg.NewSessionRepository(pool)

			acct, err := account.NewAccount("expired@school.example", "$argon2id$hash")
			Expect(err).NotTo(HaveOccurred())
			Expect(accounts.Create(ctx, acct)).To(Succeed())

			_, hash, err := session.GenerateToken()
			Expect(err).NotTo(HaveOccurred())
			sess, err := session.New(acct.ID, session.WorkspaceNone, "", hash,
				"", "", time.Now().Add(-time.Minute))
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions.Create(ctx, sess)).To(Succeed())

			_, err = sessions.ResolveByTokenHash(ctx, hash)
			Expect(err).To(MatchError(session.ErrNotFound))

			deleted, err := sessions.DeleteExpired(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(BeNumerically(">=", 1))
		})
	})
})
