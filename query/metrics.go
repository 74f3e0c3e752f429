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

package query

import (
	metricsutil "github.com/ebay/akutan-sparql/util/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type queryMetrics struct {
	executionsTotal         *prometheus.CounterVec
	failuresTotal           *prometheus.CounterVec
	fastPathsTotal          *prometheus.CounterVec
	classifyDurationSeconds prometheus.Summary
	evaluateDurationSeconds prometheus.Summary
	executeDurationSeconds  prometheus.Summary
	describedResourcesTotal prometheus.Counter
	constructedTriplesTotal prometheus.Counter
}

var metrics queryMetrics

func init() {
	mr := metricsutil.Registry{
		R:         prometheus.DefaultRegisterer,
		Namespace: "sparql",
		Subsystem: "query",
	}
	metrics = queryMetrics{
		executionsTotal: mr.NewCounterVec(prometheus.CounterOpts{
			Name: "executions_total",
			Help: `The number of queries executed, by query type.`,
		}, "type"),
		failuresTotal: mr.NewCounterVec(prometheus.CounterOpts{
			Name: "failures_total",
			Help: `The number of query executions that returned an error, by query type.`,
		}, "type"),
		fastPathsTotal: mr.NewCounterVec(prometheus.CounterOpts{
			Name: "fast_paths_total",
			Help: `The number of queries answered by a specialized evaluation, by special type.`,
		}, "special"),
		classifyDurationSeconds: mr.NewSummary(prometheus.SummaryOpts{
			Name: "classify_seconds",
			Help: `The time it takes to classify a query's shape.`,
		}),
		evaluateDurationSeconds: mr.NewSummary(prometheus.SummaryOpts{
			Name: "evaluate_seconds",
			Help: `The time it takes to evaluate a query's algebra tree, or to run its fast path.`,
		}),
		executeDurationSeconds: mr.NewSummary(prometheus.SummaryOpts{
			Name: "execute_seconds",
			Help: `The time it takes to execute a query, end to end.`,
		}),
		describedResourcesTotal: mr.NewCounter(prometheus.CounterOpts{
			Name: "described_resources_total",
			Help: `The number of resources described by Describe queries.`,
		}),
		constructedTriplesTotal: mr.NewCounter(prometheus.CounterOpts{
			Name: "constructed_triples_total",
			Help: `The number of triples produced by Construct queries.`,
		}),
	}
}
