// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

package authz

// Code classifies why a request failed authorization. The taxonomy is
// closed: every code corresponds to exactly one step's failure path.
type Code string

const (
	// CodeUnauthorized: no session token, or the token resolved to
	// nothing, on an endpoint that requires authentication.
	CodeUnauthorized Code = "UNAUTHORIZED"

	// CodeAccountSuspended: the account is suspended. Reported before
	// workspace and permission checks so a suspended caller learns
	// nothing about the endpoint's authorization topology.
	CodeAccountSuspended Code = "ACCOUNT_SUSPENDED"

	// CodeEmailNotVerified / CodePhoneNotVerified: the endpoint requires
	// a verification flag the account lacks.
	CodeEmailNotVerified Code = "EMAIL_NOT_VERIFIED"
	CodePhoneNotVerified Code = "PHONE_NOT_VERIFIED"

	// CodeWorkspaceMismatch: the session is scoped to a different
	// workspace type than the endpoint declares.
	CodeWorkspaceMismatch Code = "WORKSPACE_MISMATCH"

	// CodePermissionDenied: a required permission is neither explicitly
	// granted nor covered by a workspace-prefix auto-grant.
	CodePermissionDenied Code = "PERMISSION_DENIED"

	// CodeTwoFactorEmailRequired / CodeTwoFactorPhoneRequired: the
	// endpoint requires a recent out-of-band verification that has not
	// happened for this session.
	CodeTwoFactorEmailRequired Code = "2FA_EMAIL_REQUIRED"
	CodeTwoFactorPhoneRequired Code = "2FA_PHONE_REQUIRED"

	// CodeSubscriptionRequired: the endpoint requires an active
	// subscription and the account has none, or it has lapsed.
	CodeSubscriptionRequired Code = "SUBSCRIPTION_REQUIRED"
)
