// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

// Package postgres implements account persistence on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/lumenclass/lumenclass/internal/account"
)

// pool is the subset of pgxpool.Pool used by the repository. Tests
// substitute a pgxmock pool.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository implements account.Repository using PostgreSQL.
type AccountRepository struct {
	pool pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(p pool) *AccountRepository {
	return &AccountRepository{pool: p}
}

// Create stores a new account.
func (r *AccountRepository) Create(ctx context.Context, a *account.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (
			id, email, phone, password_hash, email_verified, phone_verified,
			suspended, subscribed_until, failed_attempts, locked_until,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		a.ID.String(),
		a.Email,
		a.Phone,
		a.PasswordHash,
		a.EmailVerified,
		a.PhoneVerified,
		a.Suspended,
		a.SubscribedUntil,
		a.FailedAttempts,
		a.LockedUntil,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("ACCOUNT_EMAIL_TAKEN").
				With("email", a.Email).
				Errorf("email is already registered")
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			Wrap(err)
	}
	return nil
}

const accountColumns = `
	id, email, phone, password_hash, email_verified, phone_verified,
	suspended, subscribed_until, failed_attempts, locked_until,
	created_at, updated_at
`

// GetByEmail retrieves an account by email (case-insensitive).
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE lower(email) = lower($1)`, email)

	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("email", email).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_EMAIL_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}
	return a, nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id ulid.ULID) (*account.Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id.String())

	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_ID_FAILED").
			With("operation", "get account by id").
			With("id", id.String()).
			Wrap(err)
	}
	return a, nil
}

// Update updates an existing account.
func (r *AccountRepository) Update(ctx context.Context, a *account.Account) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE accounts SET
			email = $2, phone = $3, password_hash = $4, email_verified = $5,
			phone_verified = $6, suspended = $7, subscribed_until = $8,
			failed_attempts = $9, locked_until = $10, updated_at = $11
		WHERE id = $1
	`,
		a.ID.String(),
		a.Email,
		a.Phone,
		a.PasswordHash,
		a.EmailVerified,
		a.PhoneVerified,
		a.Suspended,
		a.SubscribedUntil,
		a.FailedAttempts,
		a.LockedUntil,
		a.UpdatedAt,
	)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "update account").
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", a.ID.String()).
			Wrap(account.ErrNotFound)
	}
	return nil
}

// scanAccount scans one account row.
func scanAccount(row pgx.Row) (*account.Account, error) {
	var a account.Account
	var idStr string
	err := row.Scan(
		&idStr,
		&a.Email,
		&a.Phone,
		&a.PasswordHash,
		&a.EmailVerified,
		&a.PhoneVerified,
		&a.Suspended,
		&a.SubscribedUntil,
		&a.FailedAttempts,
		&a.LockedUntil,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with their own codes
	}
	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_CORRUPT_ID").With("id", idStr).Wrap(err)
	}
	a.ID = id
	return &a, nil
}

var _ account.Repository = (*AccountRepository)(nil)
