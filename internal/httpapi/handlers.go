// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/lumenclass/lumenclass/internal/authz"
	"github.com/lumenclass/lumenclass/internal/routes"
	"github.com/lumenclass/lumenclass/internal/session"
	"github.com/lumenclass/lumenclass/internal/twofactor"
	"github.com/lumenclass/lumenclass/pkg/errutil"
)

// LoginRequest is the body of POST /v1/auth/login.
type LoginRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	WorkspaceType string `json:"workspace_type"`
	WorkspaceID   string `json:"workspace_id"`
}

// LoginResponse carries the issued session token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login handles POST /v1/auth/login.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[LoginRequest](w, r)
	if !ok {
		return
	}

	wsType := session.WorkspaceType(req.WorkspaceType)
	if !wsType.Valid() {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "unknown workspace_type")
		return
	}

	sess, token, err := s.accountSvc.Login(r.Context(),
		req.Email, req.Password, wsType, req.WorkspaceID,
		r.UserAgent(), r.RemoteAddr)
	if err != nil {
		switch errutil.Code(err) {
		case "ACCOUNT_INVALID_CREDENTIALS":
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid email or password")
		case "ACCOUNT_LOCKED":
			writeError(w, http.StatusLocked, "ACCOUNT_LOCKED", "too many failed attempts, try again later")
		default:
			errutil.LogError(s.logger, "login failed", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "login unavailable")
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: sess.ExpiresAt})
}

// Logout handles POST /v1/auth/logout. Guard has already required a
// valid session, so the token is present.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if err := s.accountSvc.Logout(r.Context(), sessionToken(r)); err != nil {
		errutil.LogError(s.logger, "logout failed", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "logout unavailable")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// WhoAmIResponse describes the caller's effective identity.
type WhoAmIResponse struct {
	UserID        string                `json:"user_id"`
	AccountID     string                `json:"account_id"`
	RoleName      string                `json:"role_name,omitempty"`
	WorkspaceType session.WorkspaceType `json:"workspace_type,omitempty"`
	WorkspaceID   string                `json:"workspace_id,omitempty"`
	Permissions   []string              `json:"permissions"`
}

// WhoAmI handles GET /v1/auth/whoami. Anonymous callers see the guest
// identity.
func (s *Server) WhoAmI(w http.ResponseWriter, r *http.Request) {
	id, ok := Identity(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "identity missing")
		return
	}
	perms := id.Permissions
	if perms == nil {
		perms = []string{}
	}
	writeJSON(w, http.StatusOK, WhoAmIResponse{
		UserID:        id.UserID,
		AccountID:     id.AccountID,
		RoleName:      id.RoleName,
		WorkspaceType: id.WorkspaceType,
		WorkspaceID:   id.ActiveWorkspaceID,
		Permissions:   perms,
	})
}

// TwoFactorChallengeRequest selects the delivery factor.
type TwoFactorChallengeRequest struct {
	Factor string `json:"factor"`
}

// TwoFactorChallengeResponse reports the issued challenge.
type TwoFactorChallengeResponse struct {
	Factor    string    `json:"factor"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TwoFactorChallenge handles POST /v1/auth/2fa/challenge. It issues a
// one-time code and delivers it to the account's email or phone.
func (s *Server) TwoFactorChallenge(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[TwoFactorChallengeRequest](w, r)
	if !ok {
		return
	}

	factor := routes.TwoFactorType(req.Factor)
	switch factor {
	case "":
		factor = routes.TwoFactorEmail
	case routes.TwoFactorEmail, routes.TwoFactorPhone:
	default:
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "unknown factor")
		return
	}

	sess := SessionInfo(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "a valid session is required")
		return
	}

	accountID, err := ulid.Parse(sess.AccountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "corrupt account id")
		return
	}
	acct, err := s.accounts.GetByID(r.Context(), accountID)
	if err != nil {
		errutil.LogError(s.logger, "account lookup for challenge failed", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "challenge unavailable")
		return
	}

	destination := acct.Email
	if factor == routes.TwoFactorPhone {
		if acct.Phone == "" {
			writeError(w, http.StatusBadRequest, "NO_PHONE", "account has no phone number on file")
			return
		}
		destination = acct.Phone
	}

	ch, err := s.twoFactor.Start(r.Context(), sess.SessionID, factor, destination)
	if err != nil {
		errutil.LogError(s.logger, "two-factor challenge failed", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "challenge unavailable")
		return
	}
	writeJSON(w, http.StatusAccepted, TwoFactorChallengeResponse{
		Factor:    string(ch.Factor),
		ExpiresAt: ch.ExpiresAt,
	})
}

// TwoFactorVerifyRequest carries the submitted one-time code.
type TwoFactorVerifyRequest struct {
	Code string `json:"code"`
}

// TwoFactorVerify handles POST /v1/auth/2fa/verify.
func (s *Server) TwoFactorVerify(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[TwoFactorVerifyRequest](w, r)
	if !ok {
		return
	}

	sess := SessionInfo(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "a valid session is required")
		return
	}

	err := s.twoFactor.Verify(r.Context(), sess.SessionID, req.Code)
	switch {
	case errors.Is(err, twofactor.ErrNoChallenge):
		writeError(w, http.StatusBadRequest, "TWO_FACTOR_NO_CHALLENGE", "no outstanding challenge, request a new code")
	case errors.Is(err, twofactor.ErrCodeMismatch):
		writeError(w, http.StatusBadRequest, "TWO_FACTOR_CODE_MISMATCH", "incorrect code")
	case err != nil:
		errutil.LogError(s.logger, "two-factor verify failed", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "verification unavailable")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// WorkspaceHomeResponse echoes the caller's workspace scope.
type WorkspaceHomeResponse struct {
	WorkspaceType session.WorkspaceType `json:"workspace_type"`
	WorkspaceID   string                `json:"workspace_id"`
	RoleName      string                `json:"role_name,omitempty"`
	Permissions   []string              `json:"permissions"`
}

// WorkspaceHome serves the landing payload of an authorized workspace
// endpoint. Guard has already enforced the route's declarations.
func (s *Server) WorkspaceHome(w http.ResponseWriter, r *http.Request) {
	id, ok := Identity(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "identity missing")
		return
	}
	perms := id.Permissions
	if perms == nil {
		perms = []string{}
	}
	writeJSON(w, http.StatusOK, WorkspaceHomeResponse{
		WorkspaceType: id.WorkspaceType,
		WorkspaceID:   id.ActiveWorkspaceID,
		RoleName:      id.RoleName,
		Permissions:   perms,
	})
}

// CatalogResponse is the public catalog listing.
type CatalogResponse struct {
	Authenticated bool     `json:"authenticated"`
	Subjects      []string `json:"subjects"`
}

// Catalog handles GET /v1/catalog/subjects, reachable anonymously.
func (s *Server) Catalog(w http.ResponseWriter, r *http.Request) {
	id, _ := Identity(r.Context())
	writeJSON(w, http.StatusOK, CatalogResponse{
		Authenticated: id.UserID != authz.GuestUserID,
		Subjects:      []string{},
	})
}
