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

package tracing

import (
	"context"
	"fmt"
	"testing"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingMetric logs its observations instead of summarizing them.
type recordingMetric struct {
	prometheus.Summary
	values []float64
}

func (metric *recordingMetric) Observe(value float64) {
	metric.values = append(metric.values, value)
}

func newSummary() prometheus.Summary {
	return prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace: "sparql",
		Subsystem: "query",
		Name:      "evaluate_seconds",
		Help:      `The time taken to evaluate "the" algebra.`,
	})
}

func Test_StartSpan(t *testing.T) {
	tracer := mocktracer.New()
	opentracing.SetGlobalTracer(tracer)
	defer opentracing.SetGlobalTracer(opentracing.NoopTracer{})

	metric := &recordingMetric{Summary: newSummary()}
	parent, ctx := StartSpan(context.Background(), "parent", nil)
	child, childCtx := StartSpan(ctx, "child", metric)
	assert.True(t, opentracing.SpanFromContext(childCtx) == child.Span)
	child.Finish()
	parent.Finish()

	require.Len(t, metric.values, 1)
	assert.True(t, metric.values[0] >= 0)
	spans := tracer.FinishedSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "child", spans[0].OperationName)
	assert.Equal(t, "parent", spans[1].OperationName)
	assert.Equal(t, spans[1].SpanContext.SpanID, spans[0].ParentID)
	assert.Equal(t, "sparql_query_evaluate_seconds", fmt.Sprint(spans[0].Tag("metric")))
	assert.Nil(t, spans[1].Tag("metric"))
}

func Test_fqName(t *testing.T) {
	assert.Equal(t, "sparql_query_evaluate_seconds", fqName(newSummary().Desc()))
	desc := prometheus.NewDesc("plain", "", nil, nil)
	assert.Equal(t, "plain", fqName(desc))
}
