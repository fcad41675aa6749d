// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

// Package routes declares the per-endpoint authorization requirements
// consumed by the authorization pipeline.
//
// A Config is a static declaration; it never changes at runtime. The
// Registry maps method + path patterns (gobwas/glob, '/' separated) to
// Configs in declaration order, first match wins.
package routes

import (
	"github.com/gobwas/glob"
	"github.com/samber/oops"

	"github.com/lumenclass/lumenclass/internal/session"
)

// TwoFactorType selects which out-of-band factor an endpoint demands.
type TwoFactorType string

// Supported two-factor types. Email is the default when unset.
const (
	TwoFactorEmail TwoFactorType = "email"
	TwoFactorPhone TwoFactorType = "phone"
)

// Config declares the authorization requirements of one endpoint.
// The zero value requires a valid session and nothing else.
type Config struct {
	// AuthOptional permits anonymous access: with no (or an invalid)
	// session the request proceeds with a guest context.
	AuthOptional bool

	// Permission is the single capability string the session must hold,
	// either explicitly or via workspace-prefix auto-grant.
	Permission string

	// Workspace requires the session to be scoped to this workspace
	// type. Empty means any scope (or none) is acceptable.
	Workspace session.WorkspaceType

	// NeedEmailVerification and NeedPhoneVerification gate the endpoint
	// on the account's verification flags.
	NeedEmailVerification bool
	NeedPhoneVerification bool

	// TwoFactor requires a recent out-of-band verification.
	// TwoFactorType selects the factor; empty defaults to email.
	TwoFactor     bool
	TwoFactorType TwoFactorType

	// CheckSubscription requires an active subscription.
	CheckSubscription bool
}

// Factor returns the effective two-factor type, defaulting to email.
func (c Config) Factor() TwoFactorType {
	if c.TwoFactorType == TwoFactorPhone {
		return TwoFactorPhone
	}
	return TwoFactorEmail
}

// Rule binds a method and path pattern to a Config.
type Rule struct {
	Method  string // "*" matches any method
	Pattern string // glob over the request path, '/' separated
	Config  Config
}

type compiledRule struct {
	method  string
	pattern string
	glob    glob.Glob
	config  Config
}

// Registry holds the compiled endpoint declarations. It is immutable
// after construction and safe for concurrent use.
type Registry struct {
	rules []compiledRule
}

// NewRegistry compiles rules into a Registry. Returns an error if any
// pattern fails to compile.
func NewRegistry(rules []Rule) (*Registry, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		g, err := glob.Compile(r.Pattern, '/')
		if err != nil {
			return nil, oops.In("routes").
				Code("INVALID_ROUTE_PATTERN").
				With("pattern", r.Pattern).
				Wrap(err)
		}
		compiled = append(compiled, compiledRule{
			method:  r.Method,
			pattern: r.Pattern,
			glob:    g,
			config:  r.Config,
		})
	}
	return &Registry{rules: compiled}, nil
}

// Lookup returns the Config for the first rule matching method and path.
// The second return is false when no rule matches; callers treat an
// undeclared endpoint as the zero Config (auth required, nothing else).
func (reg *Registry) Lookup(method, path string) (Config, bool) {
	for _, r := range reg.rules {
		if r.method != "*" && r.method != method {
			continue
		}
		if r.glob.Match(path) {
			return r.config, true
		}
	}
	return Config{}, false
}
