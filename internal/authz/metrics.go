// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

package authz

import "github.com/prometheus/client_golang/prometheus"

// Metrics contains the Prometheus metrics recorded by the Authorizer.
type Metrics struct {
	ChecksTotal *prometheus.CounterVec
}

// NewMetrics creates and registers the authorization metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lumenclass_authz_checks_total",
				Help: "Total number of authorization checks by terminal step and code",
			},
			[]string{"step", "code"},
		),
	}
	reg.MustRegister(m.ChecksTotal)
	return m
}

// RecordCheck counts one terminal pipeline outcome. Successful checks
// carry an empty code.
func (m *Metrics) RecordCheck(step string, code Code) {
	m.ChecksTotal.WithLabelValues(step, string(code)).Inc()
}
