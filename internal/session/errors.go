// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

package session

import "errors"

// ErrNotFound is returned when no session matches the given token.
// Resolvers return it for missing, expired, and workspace-filtered-out
// sessions alike; callers treat all three as "no session".
var ErrNotFound = errors.New("session not found")
