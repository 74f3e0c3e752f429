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

// Package cost estimates how many rows an algebra tree will produce. The
// estimates are rough; they're used for logging and for choosing between
// equivalent plans, never for correctness.
package cost

import (
	"fmt"
	"math"

	"github.com/ebay/akutan-sparql/query/algebra"
)

// Stats describes the dataset that a tree will be evaluated against.
type Stats struct {
	// Triples is the number of triples in the default graph.
	Triples int
	// Graphs is the number of named graphs.
	Graphs int
}

// Cost is an estimate of the work needed to evaluate a tree.
type Cost struct {
	// Rows is the estimated number of result rows.
	Rows float64
}

func (c Cost) String() string {
	return fmt.Sprintf("rows:%.0f", c.Rows)
}

const (
	// constantSelectivity is the fraction of triples assumed to match each
	// constant in a triple pattern.
	constantSelectivity = 0.1
	// filterSelectivity is the fraction of rows assumed to pass a filter.
	filterSelectivity = 0.5
	// joinSelectivity is the fraction of row pairs assumed to be compatible
	// when the inputs share variables.
	joinSelectivity = 0.1
)

// Estimate returns the estimated cost of evaluating the tree. It returns an
// error wrapping algebra.ErrUnsupportedOperation for trees it can't estimate.
func Estimate(node algebra.Node, stats Stats) (Cost, error) {
	return algebra.Accept[Cost, Stats](node, Estimator{}, stats)
}

// Estimator is the algebra.Processor that computes costs. It doesn't estimate
// sorts.
type Estimator struct {
	algebra.BaseProcessor[Cost, Stats]
}

func (e Estimator) of(n algebra.Node, stats Stats) (Cost, error) {
	return algebra.Accept[Cost, Stats](n, e, stats)
}

func (e Estimator) both(left, right algebra.Node, stats Stats) (Cost, Cost, error) {
	l, err := e.of(left, stats)
	if err != nil {
		return Cost{}, Cost{}, err
	}
	r, err := e.of(right, stats)
	if err != nil {
		return Cost{}, Cost{}, err
	}
	return l, r, nil
}

func patternRows(tp algebra.TriplePattern, stats Stats) float64 {
	rows := float64(stats.Triples)
	for _, t := range tp.Terms() {
		if _, ok := t.(*algebra.Constant); ok {
			rows *= constantSelectivity
		}
	}
	return rows
}

// BGP implements algebra.Processor. The patterns are assumed to be
// independent.
func (e Estimator) BGP(n *algebra.BGP, stats Stats) (Cost, error) {
	rows := 1.0
	for i, tp := range n.Patterns {
		rows *= patternRows(tp, stats)
		if i > 0 && stats.Triples > 0 {
			rows /= float64(stats.Triples)
		}
	}
	return Cost{Rows: rows}, nil
}

func joinRows(left, right algebra.Node, l, r Cost) float64 {
	rows := l.Rows * r.Rows
	if len(algebra.InScope(left).Intersect(algebra.InScope(right))) > 0 {
		rows *= joinSelectivity
	}
	return rows
}

// Join implements algebra.Processor.
func (e Estimator) Join(n *algebra.Join, stats Stats) (Cost, error) {
	l, r, err := e.both(n.Left, n.Right, stats)
	if err != nil {
		return Cost{}, err
	}
	return Cost{Rows: joinRows(n.Left, n.Right, l, r)}, nil
}

// LeftJoin implements algebra.Processor.
func (e Estimator) LeftJoin(n *algebra.LeftJoin, stats Stats) (Cost, error) {
	l, r, err := e.both(n.Left, n.Right, stats)
	if err != nil {
		return Cost{}, err
	}
	return Cost{Rows: math.Max(l.Rows, joinRows(n.Left, n.Right, l, r))}, nil
}

// Union implements algebra.Processor.
func (e Estimator) Union(n *algebra.Union, stats Stats) (Cost, error) {
	l, r, err := e.both(n.Left, n.Right, stats)
	if err != nil {
		return Cost{}, err
	}
	return Cost{Rows: l.Rows + r.Rows}, nil
}

// Filter implements algebra.Processor.
func (e Estimator) Filter(n *algebra.Filter, stats Stats) (Cost, error) {
	in, err := e.of(n.Input, stats)
	return Cost{Rows: in.Rows * filterSelectivity}, err
}

// Extend implements algebra.Processor.
func (e Estimator) Extend(n *algebra.Extend, stats Stats) (Cost, error) {
	return e.of(n.Input, stats)
}

// Graph implements algebra.Processor. A variable graph name is assumed to
// visit every named graph, each about the size of the default graph.
func (e Estimator) Graph(n *algebra.Graph, stats Stats) (Cost, error) {
	in, err := e.of(n.Input, stats)
	if err != nil {
		return Cost{}, err
	}
	if _, ok := n.Name.(*algebra.Variable); ok {
		in.Rows *= float64(stats.Graphs)
	}
	return in, nil
}

// Minus implements algebra.Processor.
func (e Estimator) Minus(n *algebra.Minus, stats Stats) (Cost, error) {
	l, _, err := e.both(n.Left, n.Right, stats)
	return l, err
}

// Project implements algebra.Processor.
func (e Estimator) Project(n *algebra.Project, stats Stats) (Cost, error) {
	return e.of(n.Input, stats)
}

// Distinct implements algebra.Processor.
func (e Estimator) Distinct(n *algebra.Distinct, stats Stats) (Cost, error) {
	return e.of(n.Input, stats)
}

// Reduced implements algebra.Processor.
func (e Estimator) Reduced(n *algebra.Reduced, stats Stats) (Cost, error) {
	return e.of(n.Input, stats)
}

// Slice implements algebra.Processor.
func (e Estimator) Slice(n *algebra.Slice, stats Stats) (Cost, error) {
	in, err := e.of(n.Input, stats)
	if err != nil {
		return Cost{}, err
	}
	rows := math.Max(0, in.Rows-float64(n.Offset))
	if n.Limit != nil {
		rows = math.Min(rows, float64(*n.Limit))
	}
	return Cost{Rows: rows}, nil
}

// Table implements algebra.Processor.
func (e Estimator) Table(n *algebra.Table, _ Stats) (Cost, error) {
	return Cost{Rows: float64(len(n.Rows))}, nil
}
