// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

// Package cache provides the auxiliary key-value cache used for resolved
// session snapshots and short-lived two-factor flags.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key is absent or has expired.
var ErrNotFound = errors.New("cache key not found")

// Cache is a TTL key-value store. Implementations must be safe for
// concurrent use.
type Cache interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key. A zero ttl means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Key prefixes. Centralized here so the scheme has a single owner.
const (
	twoFactorPrefix        = "2fa:"
	twoFactorPendingPrefix = "2fa:pending:"
	sessionPrefix          = "session:"
)

// TwoFactorKey returns the cache key holding the two-factor verification
// flag for a session. Presence of any value proves a recent OTP success.
// Panics if sessionID is empty, since an empty key would alias all
// sessions onto one flag.
func TwoFactorKey(sessionID string) string {
	if sessionID == "" {
		panic("cache.TwoFactorKey: empty sessionID would alias the two-factor flag")
	}
	return twoFactorPrefix + sessionID
}

// TwoFactorPendingKey returns the cache key holding an outstanding OTP
// challenge for a session. Panics if sessionID is empty.
func TwoFactorPendingKey(sessionID string) string {
	if sessionID == "" {
		panic("cache.TwoFactorPendingKey: empty sessionID would alias the challenge")
	}
	return twoFactorPendingPrefix + sessionID
}

// SessionKey returns the cache key for a resolved session snapshot,
// keyed by token hash. Panics if tokenHash is empty.
func SessionKey(tokenHash string) string {
	if tokenHash == "" {
		panic("cache.SessionKey: empty tokenHash would create an invalid key")
	}
	return sessionPrefix + tokenHash
}
