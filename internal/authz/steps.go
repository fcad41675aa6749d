// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

package authz

import (
	"context"
	"errors"

	"github.com/samber/oops"

	"github.com/lumenclass/lumenclass/internal/cache"
	"github.com/lumenclass/lumenclass/internal/routes"
	"github.com/lumenclass/lumenclass/internal/session"
)

// stepToken resolves the session token. A missing token and a token the
// store does not recognize are treated identically: the endpoint either
// permits anonymous access or the request is unauthorized.
func (a *Authorizer) stepToken(ctx context.Context, vc *Context) (StepResult, error) {
	if vc.Token == "" {
		if vc.Endpoint.AuthOptional {
			return pass(), nil
		}
		return fail(CodeUnauthorized), nil
	}

	resolved, err := a.resolver.Resolve(ctx, vc.Token, vc.WorkspaceID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			if vc.Endpoint.AuthOptional {
				return pass(), nil
			}
			return fail(CodeUnauthorized), nil
		}
		return StepResult{}, oops.In("authz").
			Code("SESSION_RESOLVE_FAILED").
			With("step", StepToken).
			Wrap(err)
	}

	vc.Resolved = resolved
	vc.AccountID = resolved.AccountID
	vc.UserID = resolved.UserID
	vc.WorkspaceID = resolved.WorkspaceID
	return pass(), nil
}

// stepStatus is the single authoritative owner of account-state checks:
// suspension first, then the endpoint's verification requirements.
// Suspension precedes workspace and permission checks so a suspended
// caller learns nothing about the endpoint's requirements.
func (a *Authorizer) stepStatus(_ context.Context, vc *Context) (StepResult, error) {
	if vc.anonymous() {
		return pass(), nil
	}
	if vc.Resolved.Suspended {
		return fail(CodeAccountSuspended), nil
	}
	if vc.Endpoint.NeedEmailVerification && !vc.Resolved.EmailVerified {
		return fail(CodeEmailNotVerified), nil
	}
	if vc.Endpoint.NeedPhoneVerification && !vc.Resolved.PhoneVerified {
		return fail(CodePhoneNotVerified), nil
	}
	return pass(), nil
}

// stepWorkspace compares the endpoint's declared workspace type against
// the session's. The check only applies when both sides are declared: an
// endpoint with no workspace requirement never fails here, and an
// unscoped session is not pinned to any type.
func (a *Authorizer) stepWorkspace(_ context.Context, vc *Context) (StepResult, error) {
	if vc.anonymous() {
		return pass(), nil
	}
	required := vc.Endpoint.Workspace
	actual := vc.Resolved.WorkspaceType
	if required != session.WorkspaceNone && actual != session.WorkspaceNone && required != actual {
		return fail(CodeWorkspaceMismatch), nil
	}
	return pass(), nil
}

// stepPermissions requires the endpoint's declared permission plus every
// caller-supplied permission. Fails on the first unmet one. Anonymous
// contexts hold nothing, so an optional-auth endpoint that declares a
// permission still denies guests.
func (a *Authorizer) stepPermissions(_ context.Context, vc *Context) (StepResult, error) {
	required := vc.RequiredPermissions
	if vc.Endpoint.Permission != "" {
		required = append([]string{vc.Endpoint.Permission}, required...)
	}
	for _, perm := range required {
		if !a.grants.Has(vc.Resolved, perm) {
			return fail(CodePermissionDenied), nil
		}
	}
	return pass(), nil
}

// stepTwoFactor checks the short-lived cache flag proving a recent
// out-of-band verification. Any stored value satisfies the check; an
// absent flag fails with the code for the endpoint's declared factor.
func (a *Authorizer) stepTwoFactor(ctx context.Context, vc *Context) (StepResult, error) {
	if !vc.Endpoint.TwoFactor {
		return pass(), nil
	}
	code := CodeTwoFactorEmailRequired
	if vc.Endpoint.Factor() == routes.TwoFactorPhone {
		code = CodeTwoFactorPhoneRequired
	}
	if vc.anonymous() || vc.Resolved.SessionID == "" {
		return fail(code), nil
	}

	_, err := a.cache.Get(ctx, cache.TwoFactorKey(vc.Resolved.SessionID))
	if errors.Is(err, cache.ErrNotFound) {
		return fail(code), nil
	}
	if err != nil {
		return StepResult{}, oops.In("authz").
			Code("TWO_FACTOR_LOOKUP_FAILED").
			With("step", StepTwoFactor).
			Wrap(err)
	}
	return pass(), nil
}

// stepSubscription enforces the strict subscription boundary: active iff
// SubscribedUntil is strictly after now. A guest has no subscription.
func (a *Authorizer) stepSubscription(_ context.Context, vc *Context) (StepResult, error) {
	if !vc.Endpoint.CheckSubscription {
		return pass(), nil
	}
	if vc.anonymous() || !vc.Resolved.SubscriptionActive(a.now()) {
		return fail(CodeSubscriptionRequired), nil
	}
	return pass(), nil
}
