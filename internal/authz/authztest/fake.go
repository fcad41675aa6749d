// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

// Package authztest provides test fakes for the authorization pipeline.
package authztest

import (
	"context"

	"github.com/lumenclass/lumenclass/internal/session"
)

// MapResolver is a session.Resolver backed by a map of token → snapshot.
type MapResolver struct {
	// Sessions maps plaintext tokens to resolved snapshots.
	Sessions map[string]*session.Resolved

	// Err, when non-nil, is returned by every Resolve call. Used to
	// simulate infrastructure faults.
	Err error
}

// Resolve implements session.Resolver with the same workspace-filter
// semantics as the real store: a filtered-out session is not found.
func (r *MapResolver) Resolve(_ context.Context, token, workspaceID string) (*session.Resolved, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	resolved, ok := r.Sessions[token]
	if !ok {
		return nil, session.ErrNotFound
	}
	if workspaceID != "" && resolved.WorkspaceID != workspaceID {
		return nil, session.ErrNotFound
	}
	return resolved, nil
}

// NoneResolver is a session.Resolver that never finds a session.
type NoneResolver struct{}

// Resolve always returns session.ErrNotFound.
func (NoneResolver) Resolve(_ context.Context, _, _ string) (*session.Resolved, error) {
	return nil, session.ErrNotFound
}

var (
	_ session.Resolver = (*MapResolver)(nil)
	_ session.Resolver = NoneResolver{}
)
