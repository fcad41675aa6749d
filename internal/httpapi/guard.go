// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/lumenclass/lumenclass/internal/authz"
	"github.com/lumenclass/lumenclass/pkg/errutil"
)

// SessionCookie is the cookie carrying the session token for browser
// clients. API clients use the Authorization header instead.
const SessionCookie = "lumenclass_session"

// WorkspaceHeader optionally narrows session resolution to one
// workspace.
const WorkspaceHeader = "X-Workspace-ID"

type contextKey int

const resultKey contextKey = 0

// Identity returns the request identity set by Guard. The second return
// is false for requests that never passed through Guard.
func Identity(ctx context.Context) (authz.AuthContext, bool) {
	res, ok := ctx.Value(resultKey).(authz.Result)
	return res.Ctx, ok
}

// SessionInfo returns the resolved session identity, or nil for
// anonymous requests.
func SessionInfo(ctx context.Context) *authz.AuthData {
	res, ok := ctx.Value(resultKey).(authz.Result)
	if !ok {
		return nil
	}
	return res.Auth
}

func withResult(ctx context.Context, res authz.Result) context.Context {
	return context.WithValue(ctx, resultKey, res)
}

// sessionToken extracts the token from the Authorization header or the
// session cookie. Empty means anonymous.
func sessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return token
		}
		return ""
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// statusForCode maps a denial code to an HTTP status.
func statusForCode(code authz.Code) int {
	switch code {
	case authz.CodeUnauthorized:
		return http.StatusUnauthorized
	case authz.CodeSubscriptionRequired:
		return http.StatusPaymentRequired
	case authz.CodeAccountSuspended:
		return http.StatusLocked
	case authz.CodeTwoFactorEmailRequired, authz.CodeTwoFactorPhoneRequired:
		return http.StatusPreconditionRequired
	default:
		return http.StatusForbidden
	}
}

// Guard authorizes every request against the route registry. Routes not
// declared in the registry require a valid session and nothing else.
func (s *Server) Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint, _ := s.registry.Lookup(r.Method, r.URL.Path)

		result, err := s.authorizer.ValidateRequest(r.Context(), authz.Request{
			Token:       sessionToken(r),
			Endpoint:    endpoint,
			WorkspaceID: r.Header.Get(WorkspaceHeader),
		})
		if err != nil {
			errutil.LogError(s.logger, "authorization check failed", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "authorization unavailable")
			return
		}
		if !result.Valid {
			writeError(w, statusForCode(result.Code), string(result.Code), denialMessage(result.Code))
			return
		}

		next.ServeHTTP(w, r.WithContext(withResult(r.Context(), result)))
	})
}

func denialMessage(code authz.Code) string {
	switch code {
	case authz.CodeUnauthorized:
		return "a valid session is required"
	case authz.CodeAccountSuspended:
		return "account is suspended"
	case authz.CodeEmailNotVerified:
		return "email verification is required"
	case authz.CodePhoneNotVerified:
		return "phone verification is required"
	case authz.CodeWorkspaceMismatch:
		return "session belongs to a different workspace"
	case authz.CodePermissionDenied:
		return "missing a required permission"
	case authz.CodeTwoFactorEmailRequired:
		return "recent email verification code required"
	case authz.CodeTwoFactorPhoneRequired:
		return "recent phone verification code required"
	case authz.CodeSubscriptionRequired:
		return "an active subscription is required"
	default:
		return "request denied"
	}
}
