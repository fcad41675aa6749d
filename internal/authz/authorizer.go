// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

package authz

import (
	"context"
	"log/slog"
	"time"

	"github.com/lumenclass/lumenclass/internal/cache"
	"github.com/lumenclass/lumenclass/internal/routes"
	"github.com/lumenclass/lumenclass/internal/session"
)

// Guest identity used when no session resolved. Callers never need to
// null-check the auth context.
const (
	GuestUserID    = "guest"
	GuestAccountID = "0"
)

// Request carries the inputs of one authorization check.
type Request struct {
	// Token is the opaque session token from the caller's cookie or
	// header. Empty means an anonymous request.
	Token string

	// Endpoint is the route's declared requirements, typically from
	// routes.Registry.Lookup. The zero value requires a session.
	Endpoint routes.Config

	// RequiredPermissions are caller-supplied permissions, additive to
	// the endpoint's declared one.
	RequiredPermissions []string

	// WorkspaceID optionally narrows session resolution to one
	// workspace.
	WorkspaceID string
}

// AuthData is the identity bundle of a resolved session. It is present
// on the Result whenever a session resolved, even when the overall check
// failed, so callers can log who was denied and why.
type AuthData struct {
	UserID        string
	AccountID     string
	SessionID     string
	RoleName      string
	WorkspaceType session.WorkspaceType
	WorkspaceID   string
}

// AuthContext is the always-present request identity handed to handlers.
// With no session it carries guest defaults and empty permissions.
type AuthContext struct {
	UserID            string
	AccountID         string
	Permissions       []string
	RoleName          string
	WorkspaceType     session.WorkspaceType
	ActiveWorkspaceID string
}

// Result is the terminal outcome of the pipeline.
type Result struct {
	// Valid is the overall verdict.
	Valid bool

	// Code is set when Valid is false and names the first failed check.
	Code Code

	// Step names the pipeline stage that produced the terminal result.
	// Diagnostics only; callers must not branch on it.
	Step string

	// Auth is non-nil iff a session resolved, independent of Valid.
	Auth *AuthData

	// Ctx is always present, with guest defaults when anonymous.
	Ctx AuthContext
}

// Authorizer orchestrates the validation pipeline. All collaborators are
// injected; there are no package-level singletons, so tests supply fakes
// directly.
type Authorizer struct {
	resolver session.Resolver
	cache    cache.Cache
	grants   *GrantPolicy
	metrics  *Metrics
	logger   *slog.Logger
	now      func() time.Time
	pipeline []pipelineStep
}

// Option configures an Authorizer.
type Option func(*Authorizer)

// WithGrantPolicy overrides the default workspace-prefix grant table.
func WithGrantPolicy(p *GrantPolicy) Option {
	return func(a *Authorizer) { a.grants = p }
}

// WithMetrics records per-step terminal outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(a *Authorizer) { a.metrics = m }
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Authorizer) { a.logger = logger }
}

// WithClock overrides the time source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(a *Authorizer) { a.now = now }
}

// New creates an Authorizer over a session resolver and the auxiliary
// cache holding two-factor flags.
func New(resolver session.Resolver, c cache.Cache, opts ...Option) *Authorizer {
	a := &Authorizer{
		resolver: resolver,
		cache:    c,
		grants:   DefaultGrantPolicy(),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	// Fixed order. Workspace precedes permissions so a mismatched caller
	// is never told which permission it lacked, and 2FA follows
	// permissions so an unauthorized caller is not prompted for a second
	// factor it could never use.
	a.pipeline = []pipelineStep{
		{StepToken, a.stepToken},
		{StepStatus, a.stepStatus},
		{StepWorkspace, a.stepWorkspace},
		{StepPermissions, a.stepPermissions},
		{StepTwoFactor, a.stepTwoFactor},
		{StepSubscription, a.stepSubscription},
	}
	return a
}

// ValidateRequest runs the pipeline for one request. The first failed
// step terminates it; no later step runs. The returned Result always
// carries whatever identity resolved before the terminal step, so a
// failed check still identifies the rejected caller.
//
// A non-nil error is an infrastructure fault (session store or cache);
// the safe caller default is to deny.
func (a *Authorizer) ValidateRequest(ctx context.Context, req Request) (Result, error) {
	vc := &Context{
		Token:               req.Token,
		Endpoint:            req.Endpoint,
		RequiredPermissions: req.RequiredPermissions,
		WorkspaceID:         req.WorkspaceID,
	}

	for _, step := range a.pipeline {
		verdict, err := step.run(ctx, vc)
		if err != nil {
			return Result{}, err
		}
		if !verdict.OK {
			result := a.buildResult(vc, false, verdict.Code, step.name)
			a.record(result)
			return result, nil
		}
	}

	result := a.buildResult(vc, true, "", StepComplete)
	a.record(result)
	return result, nil
}

// buildResult is the result factory. It constructs Auth and Ctx from
// whatever resolved state exists, regardless of the verdict.
func (a *Authorizer) buildResult(vc *Context, valid bool, code Code, step string) Result {
	result := Result{
		Valid: valid,
		Code:  code,
		Step:  step,
		Ctx: AuthContext{
			UserID:      GuestUserID,
			AccountID:   GuestAccountID,
			Permissions: []string{},
		},
	}

	if r := vc.Resolved; r != nil {
		result.Auth = &AuthData{
			UserID:        r.UserID,
			AccountID:     r.AccountID,
			SessionID:     r.SessionID,
			RoleName:      r.RoleName,
			WorkspaceType: r.WorkspaceType,
			WorkspaceID:   r.WorkspaceID,
		}
		result.Ctx = AuthContext{
			UserID:            r.UserID,
			AccountID:         r.AccountID,
			Permissions:       r.Permissions,
			RoleName:          r.RoleName,
			WorkspaceType:     r.WorkspaceType,
			ActiveWorkspaceID: r.WorkspaceID,
		}
	}

	return result
}

// record emits the terminal outcome to metrics and debug logging.
func (a *Authorizer) record(result Result) {
	if a.metrics != nil {
		a.metrics.RecordCheck(result.Step, result.Code)
	}
	if !result.Valid {
		a.logger.Debug("authorization denied",
			"step", result.Step,
			"code", string(result.Code),
			"user_id", result.Ctx.UserID,
			"account_id", result.Ctx.AccountID)
	}
}
