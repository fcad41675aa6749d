// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

package authz

import (
	"github.com/lumenclass/lumenclass/internal/routes"
	"github.com/lumenclass/lumenclass/internal/session"
)

// Context is the shared mutable state of one pipeline run. It is
// allocated fresh per validation call, written in place by the steps,
// and discarded when the pipeline returns — no state crosses requests.
type Context struct {
	// Inputs, set before the first step runs.
	Token               string
	Endpoint            routes.Config
	RequiredPermissions []string
	WorkspaceID         string

	// Filled in by the token step.
	Resolved  *session.Resolved
	AccountID string
	UserID    string
}

// anonymous reports whether no session resolved. Steps use it as their
// guard clause: an anonymous context only survives the token step when
// the endpoint permits it, so later steps skip identity-bound checks.
func (c *Context) anonymous() bool {
	return c.Resolved == nil
}
