// Copyright 2019 eBay Inc.
// Primary authors: Simon Fell, Diego Ongaro,
//                  Raymond Kroeker, and Sathish Kandasamy.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics aids in defining Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultObjectives are the quantiles given to summaries that don't set their
// own.
var DefaultObjectives = map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001}

// Registry creates metrics and registers them with R. Namespace and Subsystem
// fill in the options of metrics that leave them empty.
type Registry struct {
	R         prometheus.Registerer
	Namespace string
	Subsystem string
}

func mustRegister[M prometheus.Collector](r prometheus.Registerer, m M) M {
	r.MustRegister(m)
	return m
}

func (mr Registry) names(ns, sub *string) {
	if *ns == "" {
		*ns = mr.Namespace
	}
	if *sub == "" {
		*sub = mr.Subsystem
	}
}

// NewCounter returns a registered Counter.
func (mr Registry) NewCounter(opts prometheus.CounterOpts) prometheus.Counter {
	mr.names(&opts.Namespace, &opts.Subsystem)
	return mustRegister(mr.R, prometheus.NewCounter(opts))
}

// NewCounterVec returns a registered CounterVec partitioned by the given
// labels.
func (mr Registry) NewCounterVec(opts prometheus.CounterOpts, labels ...string) *prometheus.CounterVec {
	mr.names(&opts.Namespace, &opts.Subsystem)
	return mustRegister(mr.R, prometheus.NewCounterVec(opts, labels))
}

// NewSummary returns a registered Summary. It uses DefaultObjectives if opts
// has none.
func (mr Registry) NewSummary(opts prometheus.SummaryOpts) prometheus.Summary {
	mr.names(&opts.Namespace, &opts.Subsystem)
	if opts.Objectives == nil {
		opts.Objectives = DefaultObjectives
	}
	return mustRegister(mr.R, prometheus.NewSummary(opts))
}
