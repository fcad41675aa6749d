// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

package authz

import "context"

// Step names, reported in Result.Step for diagnostics. Callers must not
// branch on them.
const (
	StepToken        = "token"
	StepStatus       = "status"
	StepWorkspace    = "workspace"
	StepPermissions  = "permissions"
	StepTwoFactor    = "2fa"
	StepSubscription = "subscription"
	StepComplete     = "complete"
)

// StepResult is the outcome of a single validation step. A failed step
// carries the Code that terminates the pipeline.
type StepResult struct {
	OK   bool
	Code Code
}

// pass and fail build the two StepResult shapes.
func pass() StepResult          { return StepResult{OK: true} }
func fail(code Code) StepResult { return StepResult{Code: code} }

// Step is one validation predicate. It reads and writes the shared
// Context and returns its verdict. A non-nil error is an infrastructure
// fault, not a verdict, and aborts the pipeline entirely.
type Step func(ctx context.Context, vc *Context) (StepResult, error)

// pipelineStep pairs a Step with its reported name. The pipeline is an
// ordered slice of these iterated by a single loop, so reordering a
// check is a one-line change.
type pipelineStep struct {
	name string
	run  Step
}
