// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

// Package twofactor issues and verifies one-time codes for sessions.
//
// A successful verification leaves a short-lived flag in the auxiliary
// cache which authorization checks against for endpoints that demand a
// recent out-of-band confirmation.
package twofactor

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/samber/oops"

	"github.com/lumenclass/lumenclass/internal/cache"
	"github.com/lumenclass/lumenclass/internal/routes"
)

const (
	// CodeDigits is the length of a generated one-time code.
	CodeDigits = 6

	// ChallengeTTL bounds how long an issued code stays redeemable.
	ChallengeTTL = 5 * time.Minute

	// VerifiedTTL bounds how long a successful verification satisfies
	// two-factor checks before the user must re-verify.
	VerifiedTTL = 12 * time.Hour
)

// ErrNoChallenge is returned when verification is attempted without an
// outstanding challenge, or after the challenge expired.
var ErrNoChallenge = errors.New("no outstanding two-factor challenge")

// ErrCodeMismatch is returned when the submitted code does not match
// the outstanding challenge.
var ErrCodeMismatch = errors.New("two-factor code mismatch")

// Sender delivers a one-time code to the account holder over the
// selected factor. Implementations are expected to be best-effort
// asynchronous transports (SMTP relay, SMS gateway).
type Sender interface {
	Send(ctx context.Context, factor routes.TwoFactorType, destination, code string) error
}

// Challenge is an issued one-time code awaiting verification.
type Challenge struct {
	SessionID string
	Factor    routes.TwoFactorType
	ExpiresAt time.Time
}

// Service issues and verifies one-time codes against the auxiliary cache.
type Service struct {
	cache  cache.Cache
	sender Sender
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithSender sets the out-of-band delivery transport. Without one, codes
// are only stored, which is what tests and local development want.
func WithSender(s Sender) Option {
	return func(svc *Service) { svc.sender = s }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) { svc.now = now }
}

// NewService creates a two-factor service on top of the given cache.
func NewService(c cache.Cache, opts ...Option) *Service {
	svc := &Service{cache: c, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Start issues a new challenge for the session, replacing any
// outstanding one, and delivers the code over the selected factor.
func (s *Service) Start(ctx context.Context, sessionID string, factor routes.TwoFactorType, destination string) (*Challenge, error) {
	if sessionID == "" {
		return nil, oops.Code("TWO_FACTOR_SESSION_EMPTY").Errorf("session id cannot be empty")
	}

	code, err := generateCode()
	if err != nil {
		return nil, oops.Code("TWO_FACTOR_GENERATE_FAILED").Wrap(err)
	}

	if err := s.cache.Set(ctx, cache.TwoFactorPendingKey(sessionID), code, ChallengeTTL); err != nil {
		return nil, oops.Code("TWO_FACTOR_STORE_FAILED").
			With("session_id", sessionID).
			Wrap(err)
	}

	if s.sender != nil {
		if err := s.sender.Send(ctx, factor, destination, code); err != nil {
			// Drop the challenge so a failed delivery cannot be redeemed
			// by guessing.
			_ = s.cache.Delete(ctx, cache.TwoFactorPendingKey(sessionID))
			return nil, oops.Code("TWO_FACTOR_DELIVERY_FAILED").
				With("factor", factor).
				Wrap(err)
		}
	}

	return &Challenge{
		SessionID: sessionID,
		Factor:    factor,
		ExpiresAt: s.now().Add(ChallengeTTL),
	}, nil
}

// Verify redeems an outstanding challenge. On success the pending code
// is consumed and the session's verified flag is set, satisfying
// two-factor checks for VerifiedTTL.
func (s *Service) Verify(ctx context.Context, sessionID, code string) error {
	if sessionID == "" {
		return oops.Code("TWO_FACTOR_SESSION_EMPTY").Errorf("session id cannot be empty")
	}

	want, err := s.cache.Get(ctx, cache.TwoFactorPendingKey(sessionID))
	if errors.Is(err, cache.ErrNotFound) {
		return oops.Code("TWO_FACTOR_NO_CHALLENGE").Wrap(ErrNoChallenge)
	}
	if err != nil {
		return oops.Code("TWO_FACTOR_LOOKUP_FAILED").
			With("session_id", sessionID).
			Wrap(err)
	}

	if subtle.ConstantTimeCompare([]byte(want), []byte(code)) != 1 {
		return oops.Code("TWO_FACTOR_CODE_MISMATCH").Wrap(ErrCodeMismatch)
	}

	// Consume before flagging so a code can never be redeemed twice.
	if err := s.cache.Delete(ctx, cache.TwoFactorPendingKey(sessionID)); err != nil {
		return oops.Code("TWO_FACTOR_STORE_FAILED").
			With("session_id", sessionID).
			Wrap(err)
	}

	if err := s.cache.Set(ctx, cache.TwoFactorKey(sessionID), "1", VerifiedTTL); err != nil {
		return oops.Code("TWO_FACTOR_STORE_FAILED").
			With("session_id", sessionID).
			Wrap(err)
	}
	return nil
}

// generateCode produces a random numeric code of CodeDigits digits.
func generateCode() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	n := binary.BigEndian.Uint64(buf[:]) % 1_000_000
	return fmt.Sprintf("%0*d", CodeDigits, n), nil
}
