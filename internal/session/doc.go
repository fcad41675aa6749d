// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

// Package session resolves opaque session tokens into authoritative
// session snapshots.
//
// A Resolved value is the cache-backed view of a session's identity,
// verification, and authorization state. It is produced once per request
// by a Resolver and consumed read-only by the authorization pipeline.
//
// The default Resolver is CachingResolver: a cache-first lookup keyed by
// the SHA-256 hash of the token, falling back to the Postgres repository
// and backfilling the cache on a miss.
package session
