// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

// Package postgres implements session persistence and resolution on
// PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/lumenclass/lumenclass/internal/session"
)

// pool is the subset of pgxpool.Pool used by the repositories. Tests
// substitute a pgxmock pool.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SessionRepository implements session.Repository using PostgreSQL.
type SessionRepository struct {
	pool pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(p pool) *SessionRepository {
	return &SessionRepository{pool: p}
}

// resolveQuery builds the full authorization snapshot in one round trip:
// session row, account flags, the membership for the session's workspace
// (if any), its role, and the role's aggregated permissions.
const resolveQuery = `
	SELECT s.id,
	       a.id,
	       COALESCE(m.id, a.id),
	       a.email_verified,
	       a.phone_verified,
	       a.suspended,
	       s.workspace_type,
	       COALESCE(s.workspace_id, ''),
	       COALESCE(r.name, ''),
	       a.subscribed_until,
	       COALESCE(array_agg(rp.permission) FILTER (WHERE rp.permission IS NOT NULL), '{}')
	FROM sessions s
	JOIN accounts a ON a.id = s.account_id
	LEFT JOIN workspace_members m ON m.account_id = a.id AND m.workspace_id = s.workspace_id
	LEFT JOIN roles r ON r.id = m.role_id
	LEFT JOIN role_permissions rp ON rp.role_id = r.id
	WHERE s.token_hash = $1 AND s.expires_at > now()
	GROUP BY s.id, a.id, m.id, r.name
`

// ResolveByTokenHash returns the snapshot for an unexpired session.
func (r *SessionRepository) ResolveByTokenHash(ctx context.Context, tokenHash string) (*session.Resolved, error) {
	row := r.pool.QueryRow(ctx, resolveQuery, tokenHash)

	var resolved session.Resolved
	var wsType string
	err := row.Scan(
		&resolved.SessionID,
		&resolved.AccountID,
		&resolved.UserID,
		&resolved.EmailVerified,
		&resolved.PhoneVerified,
		&resolved.Suspended,
		&wsType,
		&resolved.WorkspaceID,
		&resolved.RoleName,
		&resolved.SubscribedUntil,
		&resolved.Permissions,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, oops.Code("SESSION_RESOLVE_FAILED").
			With("operation", "resolve session by token hash").
			Wrap(err)
	}
	resolved.WorkspaceType = session.WorkspaceType(wsType)

	// Touch last_seen_at; resolution succeeds regardless.
	_, _ = r.pool.Exec(ctx, //nolint:errcheck // Best effort
		`UPDATE sessions SET last_seen_at = now() WHERE id = $1`, resolved.SessionID)

	return &resolved, nil
}

// Create stores a new session.
func (r *SessionRepository) Create(ctx context.Context, s *session.Session) error {
	var wsID *string
	if s.WorkspaceID != "" {
		wsID = &s.WorkspaceID
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO sessions (
			id, account_id, token_hash, workspace_type, workspace_id,
			user_agent, ip_address, expires_at, created_at, last_seen_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		s.ID.String(),
		s.AccountID.String(),
		s.TokenHash,
		string(s.WorkspaceType),
		wsID,
		s.UserAgent,
		s.IPAddress,
		s.ExpiresAt,
		s.CreatedAt,
		s.LastSeenAt,
	)
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "insert session").
			Wrap(err)
	}
	return nil
}

// DeleteByTokenHash removes a session.
func (r *SessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return oops.Code("SESSION_DELETE_FAILED").
			With("operation", "delete session").
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrNotFound
	}
	return nil
}

// DeleteExpired removes expired sessions and returns the count deleted.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, time.Now())
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	return tag.RowsAffected(), nil
}

var _ session.Repository = (*SessionRepository)(nil)
