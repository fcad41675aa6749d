// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

// Package account provides credential accounts and the login flow that
// issues sessions.
package account

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ErrNotFound is returned when a requested account does not exist.
var ErrNotFound = errors.New("account not found")

// Lockout configuration.
const (
	// LockoutThreshold is the number of consecutive login failures that
	// triggers a temporary lockout.
	LockoutThreshold = 7

	// LockoutDuration is how long a locked account stays locked.
	LockoutDuration = 15 * time.Minute
)

// emailRegex is a deliberately loose shape check; deliverability is
// proven by the verification flow, not by parsing.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Account is a credential account of the platform. One account may hold
// memberships in several workspaces; the account itself is
// workspace-agnostic.
type Account struct {
	ID              ulid.ULID
	Email           string
	Phone           string
	PasswordHash    string
	EmailVerified   bool
	PhoneVerified   bool
	Suspended       bool
	SubscribedUntil *time.Time
	FailedAttempts  int
	LockedUntil     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewAccount creates a validated Account.
func NewAccount(email, passwordHash string) (*Account, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("ACCOUNT_INVALID_HASH").Errorf("password hash cannot be empty")
	}

	now := time.Now()
	return &Account{
		ID:           ulid.Make(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// IsLocked reports whether the account is currently locked out.
func (a *Account) IsLocked() bool {
	return a.LockedUntil != nil && a.LockedUntil.After(time.Now())
}

// RecordFailure increments the failure counter, locking the account when
// the threshold is reached.
func (a *Account) RecordFailure() {
	a.FailedAttempts++
	if a.FailedAttempts >= LockoutThreshold {
		until := time.Now().Add(LockoutDuration)
		a.LockedUntil = &until
	}
	a.UpdatedAt = time.Now()
}

// RecordSuccess resets the failure counter and lockout.
func (a *Account) RecordSuccess() {
	a.FailedAttempts = 0
	a.LockedUntil = nil
	a.UpdatedAt = time.Now()
}

// ValidateEmail checks the shape of an email address.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("ACCOUNT_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return oops.Code("ACCOUNT_INVALID_EMAIL").Errorf("malformed email address")
	}
	return nil
}

// Repository manages account persistence.
type Repository interface {
	// Create stores a new account. Returns an ACCOUNT_EMAIL_TAKEN error
	// when the email is already registered.
	Create(ctx context.Context, account *Account) error

	// GetByEmail retrieves an account by email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// Update updates an existing account.
	Update(ctx context.Context, account *Account) error
}
