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

// Package tracing assists with reporting OpenTracing traces. Spans started
// through this package can also feed a Prometheus metric with their duration.
package tracing

import (
	"context"
	"strings"
	"time"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/prometheus/client_golang/prometheus"
)

// Metric is satisfied by prometheus.Summary and prometheus.Histogram.
type Metric interface {
	prometheus.Metric
	Observe(float64)
}

// A Span wraps an opentracing.Span. When finished, it also reports its
// duration to the metric it was started with, if any.
type Span struct {
	opentracing.Span
	start  time.Time
	metric Metric
}

// StartSpan starts a new span as a child of any span found in ctx. If metric
// is not nil, it's updated with the span's duration (in seconds) when the span
// is finished. The returned context carries the new span.
func StartSpan(ctx context.Context, operationName string, metric Metric) (*Span, context.Context) {
	span, ctx := opentracing.StartSpanFromContext(ctx, operationName)
	s := &Span{
		Span:   span,
		start:  time.Now(),
		metric: metric,
	}
	if metric != nil {
		span.SetTag("metric", metricTag{metric.Desc()})
	}
	return s, ctx
}

// Finish finishes the underlying span and observes its duration.
func (s *Span) Finish() {
	if s.metric != nil {
		s.metric.Observe(time.Since(s.start).Seconds())
	}
	s.Span.Finish()
}

// metricTag is the value of a span's "metric" tag. It prints as the metric's
// fully-qualified name.
type metricTag struct {
	desc *prometheus.Desc
}

func (tag metricTag) String() string {
	return fqName(tag.desc)
}

// fqName returns the fully-qualified name of the metric described by desc, or
// "" if it can't be found. Desc has no accessor for the name, so it's taken
// from the output of Desc.String, which starts with `Desc{fqName: "`.
func fqName(desc *prometheus.Desc) string {
	rest, ok := strings.CutPrefix(desc.String(), `Desc{fqName: "`)
	if !ok {
		return ""
	}
	name, _, ok := strings.Cut(rest, `"`)
	if !ok {
		return ""
	}
	return name
}
