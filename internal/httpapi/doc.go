// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

// Package httpapi exposes the LumenClass REST surface.
//
// Every request under /v1 passes through the Guard middleware, which
// looks up the endpoint's declared requirements in the route registry
// and runs the authorization pipeline before the handler sees the
// request. Handlers receive an identity via Identity, present even for
// anonymous requests.
package httpapi
