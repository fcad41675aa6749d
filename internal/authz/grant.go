// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

package authz

import (
	"strings"

	"github.com/samber/oops"

	"github.com/lumenclass/lumenclass/internal/session"
)

// GrantPolicy decides whether a resolved session holds a permission.
//
// A permission is held either by explicit membership in the session's
// permission set, or by workspace-prefix auto-grant: a session scoped to
// a workspace type implicitly holds every permission carrying that
// type's prefix, regardless of role. The prefix table is a first-class
// rule table so collisions are caught at construction, not discovered as
// accidental grants in production.
type GrantPolicy struct {
	prefixes map[session.WorkspaceType]string
}

// NewGrantPolicy builds a GrantPolicy from a workspace-type → prefix
// table. Returns an error for empty prefixes or a prefix that is itself
// a prefix of another (which would make one workspace's grants a
// superset of another's by string accident).
func NewGrantPolicy(table map[session.WorkspaceType]string) (*GrantPolicy, error) {
	prefixes := make(map[session.WorkspaceType]string, len(table))
	for ws, prefix := range table {
		if prefix == "" {
			return nil, oops.In("authz").
				Code("INVALID_GRANT_PREFIX").
				With("workspace", string(ws)).
				Errorf("grant prefix cannot be empty")
		}
		for other, otherPrefix := range prefixes {
			if strings.HasPrefix(prefix, otherPrefix) || strings.HasPrefix(otherPrefix, prefix) {
				return nil, oops.In("authz").
					Code("GRANT_PREFIX_COLLISION").
					With("workspace", string(ws)).
					With("prefix", prefix).
					With("colliding_workspace", string(other)).
					With("colliding_prefix", otherPrefix).
					Errorf("grant prefixes must not overlap")
			}
		}
		prefixes[ws] = prefix
	}
	return &GrantPolicy{prefixes: prefixes}, nil
}

// DefaultGrantPolicy returns the LumenClass prefix table. Parent
// sessions have no auto-grant: parents only hold explicit permissions.
//
// Panics if the hardcoded table is invalid, which would be a code bug.
func DefaultGrantPolicy() *GrantPolicy {
	p, err := NewGrantPolicy(map[session.WorkspaceType]string{
		session.WorkspaceProvider: "PROVIDER_",
		session.WorkspaceStaff:    "STAFF_",
		session.WorkspaceStudent:  "STUDENT_",
	})
	if err != nil {
		panic("invalid default grant table: " + err.Error())
	}
	return p
}

// AutoGrants reports whether ws implicitly holds perm via its prefix.
func (p *GrantPolicy) AutoGrants(ws session.WorkspaceType, perm string) bool {
	prefix, ok := p.prefixes[ws]
	return ok && strings.HasPrefix(perm, prefix)
}

// Has reports whether the resolved session holds perm, explicitly or by
// auto-grant. A nil session holds nothing.
func (p *GrantPolicy) Has(resolved *session.Resolved, perm string) bool {
	if resolved == nil {
		return false
	}
	if resolved.HoldsPermission(perm) {
		return true
	}
	return p.AutoGrants(resolved.WorkspaceType, perm)
}
