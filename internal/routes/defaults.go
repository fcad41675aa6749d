// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

package routes

import "github.com/lumenclass/lumenclass/internal/session"

// DefaultRules returns the endpoint declarations for the LumenClass API.
// Order matters: the first matching rule wins, so narrower patterns come
// before broader ones. A "/**" glob requires the separator, so each
// collection gets a bare-path rule alongside its subtree rule; otherwise
// the bare path would fall through to the wider workspace rule and lose
// its gates.
func DefaultRules() []Rule {
	providerBilling := Config{
		Workspace:             session.WorkspaceProvider,
		Permission:            "PROVIDER_BILLING_MANAGE",
		NeedEmailVerification: true,
		TwoFactor:             true,
	}
	providerSubjects := Config{
		Workspace:             session.WorkspaceProvider,
		Permission:            "PROVIDER_CONTENT_MANAGE",
		NeedEmailVerification: true,
	}
	staffQuestions := Config{
		Workspace:  session.WorkspaceStaff,
		Permission: "STAFF_QUESTION_MANAGE",
	}
	studentQuizzes := Config{
		Workspace:         session.WorkspaceStudent,
		Permission:        "STUDENT_QUIZ_TAKE",
		CheckSubscription: true,
	}
	studentResults := Config{
		Workspace:             session.WorkspaceStudent,
		NeedPhoneVerification: true,
	}

	return []Rule{
		// Auth surface: anonymous by design.
		{Method: "POST", Pattern: "/v1/auth/login", Config: Config{AuthOptional: true}},
		{Method: "POST", Pattern: "/v1/auth/logout", Config: Config{}},
		{Method: "GET", Pattern: "/v1/auth/whoami", Config: Config{AuthOptional: true}},

		// Two-factor challenge/verify only need a session; the endpoints
		// they unlock declare TwoFactor themselves.
		{Method: "POST", Pattern: "/v1/auth/2fa/challenge", Config: Config{}},
		{Method: "POST", Pattern: "/v1/auth/2fa/verify", Config: Config{}},

		// Provider workspace: content management requires a verified
		// provider session; billing-sensitive operations add 2FA.
		{Method: "*", Pattern: "/v1/provider/billing", Config: providerBilling},
		{Method: "*", Pattern: "/v1/provider/billing/**", Config: providerBilling},
		{Method: "*", Pattern: "/v1/provider/subjects", Config: providerSubjects},
		{Method: "*", Pattern: "/v1/provider/subjects/**", Config: providerSubjects},
		{Method: "*", Pattern: "/v1/provider/**", Config: Config{
			Workspace:             session.WorkspaceProvider,
			NeedEmailVerification: true,
		}},

		// Staff workspace: question authoring and review.
		{Method: "*", Pattern: "/v1/staff/questions", Config: staffQuestions},
		{Method: "*", Pattern: "/v1/staff/questions/**", Config: staffQuestions},
		{Method: "*", Pattern: "/v1/staff/**", Config: Config{
			Workspace: session.WorkspaceStaff,
		}},

		// Student workspace: quiz-taking requires an active subscription;
		// results require a verified phone for score notifications.
		{Method: "*", Pattern: "/v1/student/quizzes", Config: studentQuizzes},
		{Method: "*", Pattern: "/v1/student/quizzes/**", Config: studentQuizzes},
		{Method: "GET", Pattern: "/v1/student/results", Config: studentResults},
		{Method: "GET", Pattern: "/v1/student/results/**", Config: studentResults},
		{Method: "*", Pattern: "/v1/student/**", Config: Config{
			Workspace: session.WorkspaceStudent,
		}},

		// Parent workspace: read-only progress views.
		{Method: "GET", Pattern: "/v1/parent/**", Config: Config{
			Workspace: session.WorkspaceParent,
		}},

		// Public catalog browsing.
		{Method: "GET", Pattern: "/v1/catalog/**", Config: Config{AuthOptional: true}},
	}
}

// DefaultRegistry compiles DefaultRules. Panics on a pattern error,
// which would be a bug in the table above.
func DefaultRegistry() *Registry {
	reg, err := NewRegistry(DefaultRules())
	if err != nil {
		panic("invalid pattern in default route table: " + err.Error())
	}
	return reg
}
