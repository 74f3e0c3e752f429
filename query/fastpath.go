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
	"context"

	"github.com/ebay/akutan-sparql/dataset"
	"github.com/ebay/akutan-sparql/dataset/explain"
	"github.com/ebay/akutan-sparql/query/algebra"
	"github.com/ebay/akutan-sparql/query/binding"
	"github.com/ebay/akutan-sparql/query/shape"
	"github.com/ebay/akutan-sparql/rdf"
	"github.com/ebay/akutan-sparql/util/tracing"
	"github.com/sirupsen/logrus"
)

// runFastPath answers the query with the specialized evaluation for its
// special type, if there is one. It returns false if the query must be
// evaluated in general.
func runFastPath(ctx context.Context, special shape.SpecialType, root algebra.Node,
	ds *explain.Dataset, res *Result, log logrus.FieldLogger) (bool, error) {

	if special != shape.DistinctGraphs && special != shape.AskAnyTriples {
		return false, nil
	}
	span, ctx := tracing.StartSpan(ctx, "fast path", metrics.evaluateDurationSeconds)
	span.SetTag("special", special.String())
	defer span.Finish()
	log = log.WithField("special", special)
	switch special {
	case shape.DistinctGraphs:
		graphVar := root.(*algebra.Distinct).Input.(*algebra.Project).Vars[0]
		solutions, found, total, err := distinctGraphs(ctx, ds, graphVar)
		if err != nil {
			return true, err
		}
		ds.Trace("fast path %v: %d of %d named graphs hold triples", special, found, total)
		res.Solutions = solutions
	case shape.AskAnyTriples:
		nonEmpty, err := anyTriple(ctx, ds)
		if err != nil {
			return true, err
		}
		ds.Trace("fast path %v: %v", special, nonEmpty)
		res.Boolean = nonEmpty
	}
	metrics.fastPathsTotal.WithLabelValues(special.String()).Inc()
	log.Debug("Answered query with fast path")
	return true, nil
}

// anyTriple returns true if the active scope holds at least one triple.
func anyTriple(ctx context.Context, ds dataset.Dataset) (bool, error) {
	found := false
	err := ds.Find(ctx, nil, nil, nil, func(rdf.Triple) bool {
		found = true
		return false
	})
	return found, err
}

// distinctGraphs returns a solution binding graphVar for each named graph that
// holds at least one triple, in the dataset's order. It also returns how many
// graphs were found and how many were examined.
func distinctGraphs(ctx context.Context, ds dataset.Dataset, graphVar *algebra.Variable) (
	solutions *binding.Multiset, found int, total int, err error) {

	names, err := ds.GraphNames(ctx)
	if err != nil {
		return nil, 0, 0, err
	}
	solutions = binding.New()
	for _, name := range names {
		if err = ds.SetActiveGraphs(ctx, name); err != nil {
			break
		}
		var nonEmpty bool
		nonEmpty, err = anyTriple(ctx, ds)
		if err != nil {
			break
		}
		if nonEmpty {
			solutions.Insert(binding.Row{graphVar.Name: name})
			found++
		}
	}
	if len(names) > 0 {
		if restoreErr := ds.SetActiveGraphs(ctx); restoreErr != nil && err == nil {
			err = restoreErr
		}
	}
	if err != nil {
		return nil, 0, 0, err
	}
	return solutions, found, len(names), nil
}
