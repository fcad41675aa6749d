// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/lumenclass/lumenclass/internal/cache"
)

// SnapshotTTL bounds how stale a cached Resolved snapshot can be.
const SnapshotTTL = 5 * time.Minute

// Resolver resolves an opaque session token into a Resolved snapshot.
//
// workspaceID optionally narrows the lookup: a session scoped to a
// different workspace resolves as ErrNotFound. Any error other than
// ErrNotFound is an infrastructure fault.
type Resolver interface {
	Resolve(ctx context.Context, token, workspaceID string) (*Resolved, error)
}

// Repository is the persistent backing store for session resolution.
type Repository interface {
	// ResolveByTokenHash returns the snapshot for an unexpired session,
	// or ErrNotFound.
	ResolveByTokenHash(ctx context.Context, tokenHash string) (*Resolved, error)

	// Create stores a new session.
	Create(ctx context.Context, s *Session) error

	// DeleteByTokenHash removes a session, returning ErrNotFound if absent.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error

	// DeleteExpired removes expired sessions and returns the count deleted.
	DeleteExpired(ctx context.Context) (int64, error)
}

// CachingResolver is a cache-first Resolver. Snapshots are stored in the
// cache as JSON keyed by token hash; misses fall through to the
// repository and backfill the cache.
type CachingResolver struct {
	repo   Repository
	cache  cache.Cache
	logger *slog.Logger
}

// NewCachingResolver creates a CachingResolver. If logger is nil,
// slog.Default() is used.
func NewCachingResolver(repo Repository, c cache.Cache, logger *slog.Logger) *CachingResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachingResolver{repo: repo, cache: c, logger: logger}
}

// Resolve implements Resolver.
func (r *CachingResolver) Resolve(ctx context.Context, token, workspaceID string) (*Resolved, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	tokenHash := HashToken(token)
	key := cache.SessionKey(tokenHash)

	if cached, err := r.cache.Get(ctx, key); err == nil {
		var resolved Resolved
		if unmarshalErr := json.Unmarshal([]byte(cached), &resolved); unmarshalErr == nil {
			return r.filter(&resolved, workspaceID)
		}
		// Corrupt cache entry: drop it and fall through to the repository.
		r.logger.Warn("dropping corrupt session snapshot", "key", key)
		_ = r.cache.Delete(ctx, key) //nolint:errcheck // Best effort, repository lookup follows
	} else if !errors.Is(err, cache.ErrNotFound) {
		return nil, oops.In("session").Code("SESSION_CACHE_FAILED").With("operation", "get snapshot").Wrap(err)
	}

	resolved, err := r.repo.ResolveByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, oops.In("session").Code("SESSION_RESOLVE_FAILED").With("operation", "resolve by token hash").Wrap(err)
	}

	if encoded, marshalErr := json.Marshal(resolved); marshalErr == nil {
		// Backfill failures are non-fatal; the next request retries.
		if setErr := r.cache.Set(ctx, key, string(encoded), SnapshotTTL); setErr != nil {
			r.logger.Warn("session snapshot backfill failed", "error", setErr)
		}
	}

	return r.filter(resolved, workspaceID)
}

// Invalidate drops the cached snapshot for a token. Used on logout and
// whenever authorization state changes mid-session.
func (r *CachingResolver) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := r.cache.Delete(ctx, cache.SessionKey(HashToken(token))); err != nil {
		return oops.In("session").Code("SESSION_CACHE_FAILED").With("operation", "invalidate snapshot").Wrap(err)
	}
	return nil
}

// filter applies the optional workspace narrowing. A session scoped to a
// different workspace is indistinguishable from no session at all.
func (r *CachingResolver) filter(resolved *Resolved, workspaceID string) (*Resolved, error) {
	if workspaceID != "" && resolved.WorkspaceID != workspaceID {
		return nil, ErrNotFound
	}
	return resolved, nil
}

var _ Resolver = (*CachingResolver)(nil)
