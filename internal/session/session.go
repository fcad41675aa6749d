// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

package session

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	TokenBytes  = 32             // 32 bytes = 64 hex chars
	TokenExpiry = 24 * time.Hour // 24 hour expiry
)

// WorkspaceType is the tenant scope a session operates under.
type WorkspaceType string

// Workspace types of the education platform. The empty string denotes an
// unscoped session (authenticated but not bound to a workspace).
const (
	WorkspaceNone     WorkspaceType = ""
	WorkspaceProvider WorkspaceType = "provider"
	WorkspaceStaff    WorkspaceType = "staff"
	WorkspaceStudent  WorkspaceType = "student"
	WorkspaceParent   WorkspaceType = "parent"
)

// Valid reports whether t is a known workspace type (including unscoped).
func (t WorkspaceType) Valid() bool {
	switch t {
	case WorkspaceNone, WorkspaceProvider, WorkspaceStaff, WorkspaceStudent, WorkspaceParent:
		return true
	}
	return false
}

// Resolved is the authoritative snapshot of a session's identity,
// verification, and authorization state. Fields are immutable for the
// lifetime of the snapshot.
type Resolved struct {
	AccountID     string
	UserID        string
	SessionID     string
	EmailVerified bool
	PhoneVerified bool
	Suspended     bool
	WorkspaceType WorkspaceType
	WorkspaceID   string
	Permissions   []string
	RoleName      string

	// SubscribedUntil is nil when the account has no subscription.
	// The subscription is active iff SubscribedUntil is in the future
	// (strictly after now).
	SubscribedUntil *time.Time
}

// SubscriptionActive reports whether the subscription is active at t.
// A SubscribedUntil exactly equal to t is NOT active.
func (r *Resolved) SubscriptionActive(t time.Time) bool {
	return r.SubscribedUntil != nil && r.SubscribedUntil.After(t)
}

// HoldsPermission reports whether perm is explicitly granted.
// Workspace-prefix auto-grants are applied by the authorization pipeline,
// not here.
func (r *Resolved) HoldsPermission(perm string) bool {
	for _, p := range r.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// Session is a stored login session. The plaintext token is returned to
// the client once at login; only its hash is persisted.
type Session struct {
	ID            ulid.ULID
	AccountID     ulid.ULID
	TokenHash     string
	WorkspaceType WorkspaceType
	WorkspaceID   string
	UserAgent     string
	IPAddress     string
	ExpiresAt     time.Time
	CreatedAt     time.Time
	LastSeenAt    time.Time
}

// New creates a validated Session. WorkspaceType/WorkspaceID are optional
// and may be empty for unscoped sessions. UserAgent and IPAddress are
// optional.
func New(accountID ulid.ULID, wsType WorkspaceType, wsID, tokenHash, userAgent, ipAddress string, expiresAt time.Time) (*Session, error) {
	if accountID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("SESSION_INVALID_ACCOUNT").Errorf("account ID cannot be zero")
	}
	if !wsType.Valid() {
		return nil, oops.Code("SESSION_INVALID_WORKSPACE").With("workspace_type", string(wsType)).Errorf("unknown workspace type")
	}
	if tokenHash == "" {
		return nil, oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if expiresAt.IsZero() {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").Errorf("expiry time cannot be zero")
	}

	now := time.Now()
	return &Session{
		ID:            ulid.Make(),
		AccountID:     accountID,
		TokenHash:     tokenHash,
		WorkspaceType: wsType,
		WorkspaceID:   wsID,
		UserAgent:     userAgent,
		IPAddress:     ipAddress,
		ExpiresAt:     expiresAt,
		CreatedAt:     now,
		LastSeenAt:    now,
	}, nil
}

// IsExpiredAt reports whether the session would be expired at t.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return t.After(s.ExpiresAt)
}

// GenerateToken creates a secure random session token and its hash.
// The plaintext token is sent to the client; the hash is stored.
func GenerateToken() (token, hash string, err error) {
	tokenBytes := make([]byte, TokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", TokenBytes).
			Wrap(err)
	}

	token = hex.EncodeToString(tokenBytes)
	hash = HashToken(token)

	return token, hash, nil
}

// HashToken computes the SHA-256 hash of a session token. The hash is
// used both as the storage column and as the cache key, so the plaintext
// token never reaches the database or the cache.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// VerifyToken checks a plaintext token against a stored hash using a
// constant-time comparison.
func VerifyToken(token, hash string) (bool, error) {
	if token == "" {
		return false, oops.Code("SESSION_TOKEN_EMPTY").Errorf("session token cannot be empty")
	}
	if hash == "" {
		return false, oops.Code("SESSION_HASH_EMPTY").Errorf("stored hash cannot be empty")
	}
	computed := HashToken(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1, nil
}
