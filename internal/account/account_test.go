// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

package account_test

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenclass/lumenclass/internal/account"
	"github.com/lumenclass/lumenclass/pkg/errutil"
)

func TestNewAccount(t *testing.T) {
	a, err := account.NewAccount("teacher@school.example", "$argon2id$hash")
	require.NoError(t, err)
	assert.NotEqual(t, ulid.ULID{}, a.ID)
	assert.False(t, a.EmailVerified)
	assert.False(t, a.Suspended)
	assert.Nil(t, a.SubscribedUntil)

	_, err = account.NewAccount("not-an-email", "$argon2id$hash")
	errutil.AssertErrorCode(t, err, "ACCOUNT_INVALID_EMAIL")

	_, err = account.NewAccount("teacher@school.example", "")
	errutil.AssertErrorCode(t, err, "ACCOUNT_INVALID_HASH")
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, account.ValidateEmail("a@b.example"))
	assert.Error(t, account.ValidateEmail(""))
	assert.Error(t, account.ValidateEmail("a@b"))
	assert.Error(t, account.ValidateEmail("a b@c.example"))
}

func TestAccount_Lockout(t *testing.T) {
	a := &account.Account{}

	for i := 0; i < account.LockoutThreshold-1; i++ {
		a.RecordFailure()
		assert.False(t, a.IsLocked(), "not locked before threshold (failure %d)", i+1)
	}

	a.RecordFailure()
	assert.True(t, a.IsLocked())
	require.NotNil(t, a.LockedUntil)
	assert.WithinDuration(t, time.Now().Add(account.LockoutDuration), *a.LockedUntil, time.Minute)

	a.RecordSuccess()
	assert.False(t, a.IsLocked())
	assert.Zero(t, a.FailedAttempts)
	assert.Nil(t, a.LockedUntil)
}
