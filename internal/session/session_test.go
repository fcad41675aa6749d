// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

package session_test

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenclass/lumenclass/internal/session"
)

func TestGenerateToken(t *testing.T) {
	token, hash, err := session.GenerateToken()
	require.NoError(t, err)

	assert.Len(t, token, session.TokenBytes*2, "token is hex encoded")
	assert.Equal(t, session.HashToken(token), hash)

	// Tokens are unique across calls.
	token2, _, err := session.GenerateToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, token2)
}

func TestVerifyToken(t *testing.T) {
	token, hash, err := session.GenerateToken()
	require.NoError(t, err)

	ok, err := session.VerifyToken(token, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = session.VerifyToken("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = session.VerifyToken("", hash)
	assert.Error(t, err)

	_, err = session.VerifyToken(token, "")
	assert.Error(t, err)
}

func TestNew_Validation(t *testing.T) {
	accountID := ulid.Make()
	expiry := time.Now().Add(session.TokenExpiry)

	tests := []struct {
		name      string
		accountID ulid.ULID
		wsType    session.WorkspaceType
		tokenHash string
		expiresAt time.Time
		wantErr   bool
	}{
		{
			name:      "valid scoped session",
			accountID: accountID,
			wsType:    session.WorkspaceStudent,
			tokenHash: "hash",
			expiresAt: expiry,
		},
		{
			name:      "valid unscoped session",
			accountID: accountID,
			wsType:    session.WorkspaceNone,
			tokenHash: "hash",
			expiresAt: expiry,
		},
		{
			name:      "zero account",
			accountID: ulid.ULID{},
			wsType:    session.WorkspaceStudent,
			tokenHash: "hash",
			expiresAt: expiry,
			wantErr:   true,
		},
		{
			name:      "unknown workspace type",
			accountID: accountID,
			wsType:    session.WorkspaceType("tenant"),
			tokenHash: "hash",
			expiresAt: expiry,
			wantErr:   true,
		},
		{
			name:      "empty token hash",
			accountID: accountID,
			wsType:    session.WorkspaceStudent,
			expiresAt: expiry,
			wantErr:   true,
		},
		{
			name:      "zero expiry",
			accountID: accountID,
			wsType:    session.WorkspaceStudent,
			tokenHash: "hash",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := session.New(tt.accountID, tt.wsType, "W1", tt.tokenHash, "", "", tt.expiresAt)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, ulid.ULID{}, s.ID)
			assert.False(t, s.IsExpiredAt(time.Now()))
			assert.True(t, s.IsExpiredAt(expiry.Add(time.Second)))
		})
	}
}

func TestResolved_SubscriptionActive(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	r := &session.Resolved{}
	assert.False(t, r.SubscriptionActive(now), "nil SubscribedUntil is never active")

	exact := now
	r.SubscribedUntil = &exact
	assert.False(t, r.SubscriptionActive(now), "boundary is strict")

	later := now.Add(time.Millisecond)
	r.SubscribedUntil = &later
	assert.True(t, r.SubscriptionActive(now))
}

func TestWorkspaceType_Valid(t *testing.T) {
	for _, ws := range []session.WorkspaceType{
		session.WorkspaceNone,
		session.WorkspaceProvider,
		session.WorkspaceStaff,
		session.WorkspaceStudent,
		session.WorkspaceParent,
	} {
		assert.True(t, ws.Valid(), "workspace %q", ws)
	}
	assert.False(t, session.WorkspaceType("tenant").Valid())
}
