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

// Package query provides a high level entry point for executing queries. It
// classifies the query, runs either a fast path or the general evaluator, and
// shapes the solutions into the query's result form.
package query

import (
	"context"
	"time"

	"github.com/ebay/akutan-sparql/dataset"
	"github.com/ebay/akutan-sparql/dataset/explain"
	"github.com/ebay/akutan-sparql/query/algebra"
	"github.com/ebay/akutan-sparql/query/binding"
	"github.com/ebay/akutan-sparql/query/cost"
	"github.com/ebay/akutan-sparql/query/eval"
	"github.com/ebay/akutan-sparql/query/shape"
	"github.com/ebay/akutan-sparql/rdf"
	"github.com/ebay/akutan-sparql/util/tracing"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Query is a parsed query, ready to execute.
type Query struct {
	// Type is the query's top-level form.
	Type shape.QueryType
	// Pattern is the algebra tree of the WHERE clause. A nil Pattern is
	// treated as a single empty solution, as in DESCRIBE <x>.
	Pattern algebra.Node
	// Template holds the triple patterns instantiated by a Construct query.
	Template []algebra.TriplePattern
	// Describe lists the resources described by a Describe query. Variables
	// are replaced by their values in each solution.
	Describe []algebra.Term
}

// Options contains various settings that affect query execution.
type Options struct {
	// Rigorous makes pattern matching check every candidate triple against
	// every constraint, instead of trusting the dataset's index.
	Rigorous bool
	// FastPaths allows queries of a recognized shape to be answered by a
	// specialized evaluation. The results are the same either way.
	FastPaths bool
	// Explain, if set, traces the selected events of the execution.
	Explain *explain.Config
}

// Result is the outcome of executing a query. Which fields are set depends on
// Form.
type Result struct {
	// ID identifies this execution in logs.
	ID uuid.UUID
	// Form is the kind of result, decided by the query type.
	Form shape.ResultForm
	// Special is the fast path the execution took, or NotApplicable. It's
	// SpecialUnknown if fast paths were disabled.
	Special shape.SpecialType
	// Boolean is the answer to an Ask query.
	Boolean bool
	// Triples is the graph produced by a Construct or Describe query.
	Triples []rdf.Triple
	// Solutions holds the solutions of a Select query.
	Solutions *binding.Multiset
}

// StatsProvider allows the engine to obtain statistics about a dataset, used to
// log the estimated cost of each query. This is called for every query
// execution.
type StatsProvider func(context.Context, dataset.Dataset) (cost.Stats, error)

// Engine executes queries. It may be used concurrently, but each execution
// needs a dataset that isn't being used by another execution at the same time.
type Engine struct {
	statsProvider StatsProvider
}

// New creates a new Engine. statsProvider may be nil, in which case costs
// aren't estimated.
func New(statsProvider StatsProvider) *Engine {
	return &Engine{statsProvider: statsProvider}
}

// Execute runs the query against the dataset, whose active scope must be the
// default graph. Errors from the dataset are returned unchanged.
func (e *Engine) Execute(ctx context.Context, q *Query, ds dataset.Dataset, opts Options) (*Result, error) {
	span, ctx := tracing.StartSpan(ctx, "execute query", metrics.executeDurationSeconds)
	defer span.Finish()
	res := &Result{
		ID:   uuid.New(),
		Form: q.Type.ResultForm(),
	}
	log := logrus.WithFields(logrus.Fields{
		"execution": res.ID,
		"queryType": q.Type,
	})
	span.SetTag("execution", res.ID.String())
	metrics.executionsTotal.WithLabelValues(q.Type.String()).Inc()
	start := time.Now()

	err := e.execute(ctx, q, explain.New(ds, opts.Explain), opts, res, log)
	if err != nil {
		metrics.failuresTotal.WithLabelValues(q.Type.String()).Inc()
		log.WithError(err).Warn("Query execution failed")
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"special": res.Special,
		"took":    time.Since(start),
	}).Debug("Query executed")
	return res, nil
}

func (e *Engine) execute(ctx context.Context, q *Query, ds *explain.Dataset, opts Options,
	res *Result, log logrus.FieldLogger) error {

	root := q.Pattern
	if root == nil {
		root = algebra.UnitTable()
	}
	if e.statsProvider != nil {
		e.logEstimate(ctx, root, ds, log)
	}
	class := shape.NewClassification(q.Type, root)
	if opts.FastPaths {
		span, _ := tracing.StartSpan(ctx, "classify query", metrics.classifyDurationSeconds)
		res.Special = class.Compute()
		span.Finish()
		handled, err := runFastPath(ctx, res.Special, root, ds, res, log)
		if handled || err != nil {
			return err
		}
	}

	span, cctx := tracing.StartSpan(ctx, "evaluate query", metrics.evaluateDurationSeconds)
	solutions, err := eval.Evaluate(eval.NewContext(cctx, ds, eval.Options{Rigorous: opts.Rigorous}), root)
	span.Finish()
	if err != nil {
		return err
	}
	return shapeResult(ctx, q, ds, solutions, res)
}

func (e *Engine) logEstimate(ctx context.Context, root algebra.Node, ds dataset.Dataset, log logrus.FieldLogger) {
	stats, err := e.statsProvider(ctx, ds)
	if err != nil {
		log.WithError(err).Warn("Unable to obtain dataset statistics")
		return
	}
	estimate, err := cost.Estimate(root, stats)
	if err != nil {
		log.WithError(err).Debug("No cost estimate for query")
		return
	}
	log.WithField("estimate", estimate).Debug("Estimated query cost")
}

// shapeResult fills in the result from the solutions, according to the
// query's result form.
func shapeResult(ctx context.Context, q *Query, ds dataset.Dataset, solutions *binding.Multiset, res *Result) error {
	switch q.Type {
	case shape.Ask:
		res.Boolean = solutions.Len() > 0
	case shape.Construct:
		res.Triples = construct(q.Template, solutions)
		metrics.constructedTriplesTotal.Add(float64(len(res.Triples)))
	case shape.Describe, shape.DescribeAll:
		resources := describedResources(q, solutions)
		metrics.describedResourcesTotal.Add(float64(len(resources)))
		triples, err := describe(ctx, ds, resources)
		if err != nil {
			return err
		}
		res.Triples = triples
	default:
		res.Solutions = solutions
	}
	return nil
}
