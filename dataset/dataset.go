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

// Package dataset defines the interface between query evaluation and the
// triple stores it runs against.
package dataset

import (
	"context"

	"github.com/ebay/akutan-sparql/rdf"
)

// A Dataset is a collection of graphs: one default graph and any number of
// named graphs. Lookups run against the active graph scope, which is set by
// SetActiveGraphs.
//
// Evaluation treats every call as synchronous. A Dataset may be shared by
// concurrent query executions only if the implementation synchronizes itself.
// Errors returned by a Dataset are passed through to the caller unchanged.
type Dataset interface {
	// SetActiveGraphs switches the active scope to the merge of the given
	// named graphs, in order. With no graphs, the scope is the default graph.
	SetActiveGraphs(ctx context.Context, graphs ...rdf.IRI) error
	// Find calls fn for each triple in the active scope that matches the
	// given subject, predicate, and object. A nil term matches anything.
	// Find stops early if fn returns false.
	Find(ctx context.Context, s, p, o rdf.Term, fn func(rdf.Triple) bool) error
	// Contains returns true if the triple is in the active scope.
	Contains(ctx context.Context, t rdf.Triple) (bool, error)
	// GraphNames returns the names of every named graph, in a stable order.
	GraphNames(ctx context.Context) ([]rdf.IRI, error)
}
