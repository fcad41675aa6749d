// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

package account

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"

	"github.com/lumenclass/lumenclass/internal/session"
)

// dummyPasswordHash is verified when no account matches the email, so a
// login attempt takes the same time whether or not the account exists.
// It is a fake hash that matches no password.
//
//nolint:gosec // G101: intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// SessionInvalidator drops cached session snapshots when authorization
// state changes. Satisfied by session.CachingResolver.
type SessionInvalidator interface {
	Invalidate(ctx context.Context, token string) error
}

// Service provides login and logout, issuing and revoking sessions.
type Service struct {
	accounts    Repository
	sessions    session.Repository
	hasher      PasswordHasher
	invalidator SessionInvalidator
}

// NewService creates a Service. invalidator may be nil when no session
// cache is in front of the repository.
func NewService(accounts Repository, sessions session.Repository, hasher PasswordHasher, invalidator SessionInvalidator) *Service {
	return &Service{
		accounts:    accounts,
		sessions:    sessions,
		hasher:      hasher,
		invalidator: invalidator,
	}
}

// Login authenticates an account and creates a session scoped to the
// requested workspace. Returns the session and the plaintext token.
// Uses constant-time operations to prevent email enumeration by timing.
func (s *Service) Login(ctx context.Context, email, password string, wsType session.WorkspaceType, wsID, userAgent, ipAddress string) (*session.Session, string, error) {
	acct, lookupErr := s.accounts.GetByEmail(ctx, email)

	targetHash := dummyPasswordHash
	accountExists := false
	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, "", oops.Code("ACCOUNT_LOGIN_FAILED").
				With("operation", "get account by email").
				Wrap(lookupErr)
		}
	} else {
		targetHash = acct.PasswordHash
		accountExists = true
	}

	// Always verify, even against the dummy hash, to keep response time
	// independent of account existence.
	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if !accountExists {
			return nil, "", oops.Code("ACCOUNT_INVALID_CREDENTIALS").Errorf("invalid email or password")
		}
		return nil, "", oops.Code("ACCOUNT_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	if !accountExists || !valid {
		if accountExists {
			acct.RecordFailure()
			_ = s.accounts.Update(ctx, acct) //nolint:errcheck // Best effort
		}
		return nil, "", oops.Code("ACCOUNT_INVALID_CREDENTIALS").Errorf("invalid email or password")
	}

	// Lockout is checked after verification to keep timing constant.
	if acct.IsLocked() {
		return nil, "", oops.Code("ACCOUNT_LOCKED").
			With("locked_until", acct.LockedUntil).
			Errorf("account is temporarily locked")
	}

	acct.RecordSuccess()
	_ = s.accounts.Update(ctx, acct) //nolint:errcheck // Best effort, login succeeds regardless

	token, tokenHash, err := session.GenerateToken()
	if err != nil {
		return nil, "", oops.Code("ACCOUNT_LOGIN_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	sess, err := session.New(acct.ID, wsType, wsID, tokenHash, userAgent, ipAddress,
		time.Now().Add(session.TokenExpiry))
	if err != nil {
		return nil, "", oops.Code("ACCOUNT_LOGIN_FAILED").
			With("operation", "create session").
			Wrap(err)
	}

	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, "", oops.Code("ACCOUNT_SESSION_CREATE_FAILED").
			With("operation", "persist session").
			Wrap(err)
	}

	return sess, token, nil
}

// Logout revokes the session behind a token and drops its cached
// snapshot so revocation takes effect immediately.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return oops.Code("SESSION_TOKEN_EMPTY").Errorf("session token cannot be empty")
	}

	err := s.sessions.DeleteByTokenHash(ctx, session.HashToken(token))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return oops.Code("SESSION_NOT_FOUND").Wrap(err)
		}
		return oops.Code("ACCOUNT_LOGOUT_FAILED").
			With("operation", "delete session").
			Wrap(err)
	}

	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, token); err != nil {
			return oops.Code("ACCOUNT_LOGOUT_FAILED").
				With("operation", "invalidate session snapshot").
				Wrap(err)
		}
	}
	return nil
}
