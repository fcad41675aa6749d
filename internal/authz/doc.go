// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

// Package authz implements the request authorization pipeline that gates
// every LumenClass API endpoint.
//
// The Authorizer runs a fixed, ordered sequence of validation steps
// (token, status, workspace, permissions, 2fa, subscription) against a
// per-request Context, short-circuiting on the first failure. Failures
// are values, never errors: each terminal outcome is a Result carrying a
// Code from a closed taxonomy. Only infrastructure faults from the
// session store or the cache surface as errors.
//
// Mapping a Result to a transport response (HTTP status, redirect) is
// deliberately the caller's job; see internal/httpapi.
package authz
