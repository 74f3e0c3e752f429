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

// Package eval evaluates algebra trees against a dataset, producing a
// multiset of solutions. The tree is walked depth-first: an operator's inputs
// are evaluated, one after the other, before the operator combines their
// results.
package eval

import (
	"context"

	"github.com/ebay/akutan-sparql/dataset"
	"github.com/ebay/akutan-sparql/query/algebra"
	"github.com/ebay/akutan-sparql/query/binding"
	"github.com/ebay/akutan-sparql/rdf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Options adjust how a tree is evaluated.
type Options struct {
	// Rigorous makes pattern matching check every candidate triple against
	// every constraint, instead of trusting the dataset's index.
	Rigorous bool
}

// Context is the state that evaluation of a subtree runs in. A parent derives
// a new Context for an input that needs a different one; the parent's own
// Context isn't changed, so the derivation can't leak into sibling subtrees.
type Context struct {
	ctx     context.Context
	dataset dataset.Dataset
	// graphs is the active graph scope. nil means the default graph.
	graphs  []rdf.IRI
	options Options
}

// NewContext returns a Context for evaluating against ds, whose active scope
// must be the default graph.
func NewContext(ctx context.Context, ds dataset.Dataset, options Options) *Context {
	return &Context{ctx: ctx, dataset: ds, options: options}
}

// Context returns the Go context used for dataset calls and cancellation.
func (c *Context) Context() context.Context {
	return c.ctx
}

// Dataset returns the dataset being queried.
func (c *Context) Dataset() dataset.Dataset {
	return c.dataset
}

// Graphs returns the active graph scope, or nil for the default graph.
func (c *Context) Graphs() []rdf.IRI {
	return c.graphs
}

// Options returns the evaluation options.
func (c *Context) Options() Options {
	return c.options
}

// WithGraphs returns a copy of the Context with a different active graph
// scope. It doesn't change the dataset's scope; see Evaluator.Graph.
func (c *Context) WithGraphs(graphs ...rdf.IRI) *Context {
	child := *c
	if len(graphs) == 0 {
		child.graphs = nil
	} else {
		child.graphs = append([]rdf.IRI(nil), graphs...)
	}
	return &child
}

// Evaluate returns the solutions of the tree rooted at node. It stops with
// the context's error if the context is canceled; the check happens before
// each node is evaluated.
func Evaluate(c *Context, node algebra.Node) (*binding.Multiset, error) {
	if err := c.ctx.Err(); err != nil {
		return nil, err
	}
	return algebra.Accept[*binding.Multiset, *Context](node, Evaluator{}, c)
}

// Evaluator is the algebra.Processor that computes solutions.
type Evaluator struct{}

var _ algebra.Processor[*binding.Multiset, *Context] = Evaluator{}

// BGP implements algebra.Processor. It matches the triple patterns one at a
// time, extending each solution so far with the matches of the next pattern.
func (Evaluator) BGP(n *algebra.BGP, c *Context) (*binding.Multiset, error) {
	rows := []binding.Row{{}}
	for _, tp := range n.Patterns {
		var next []binding.Row
		for _, row := range rows {
			pc := patternContext(row, c.options)
			err := matchPattern(c, pc, tp, func(found binding.Row) bool {
				next = append(next, binding.Merge(row, found))
				return true
			})
			if err != nil {
				return nil, err
			}
		}
		rows = next
		if len(rows) == 0 {
			break
		}
	}
	return binding.FromRows(rows...), nil
}

// Join implements algebra.Processor.
func (Evaluator) Join(n *algebra.Join, c *Context) (*binding.Multiset, error) {
	left, right, err := evaluateBoth(c, n.Left, n.Right)
	if err != nil {
		return nil, err
	}
	out := binding.New()
	hashJoin(left, right, func(l, r binding.Row) {
		out.Insert(binding.Merge(l, r))
	})
	return out, nil
}

// LeftJoin implements algebra.Processor. For each left row, the compatible
// right rows are merged with it into a probe multiset. The filter is
// evaluated over the probe's rows through a LeftJoinBinder, and the rows that
// pass are the output. A left row with no passing candidates is output as is.
func (Evaluator) LeftJoin(n *algebra.LeftJoin, c *Context) (*binding.Multiset, error) {
	left, right, err := evaluateBoth(c, n.Left, n.Right)
	if err != nil {
		return nil, err
	}
	out := binding.New()
	idx := newJoinIndex(right, left.Variables().Intersect(right.Variables()))
	var evalErr error
	left.Each(func(_ binding.ID, l binding.Row) bool {
		probe := binding.New()
		idx.compatible(l, func(r binding.Row) {
			probe.Insert(binding.Merge(l, r))
		})
		binder := binding.NewLeftJoinBinder(probe)
		matched := false
		for _, id := range binder.BindingIDs() {
			if n.Expr != nil {
				keep, err := filterPasses(n.Expr, binder, id)
				if err != nil {
					evalErr = err
					return false
				}
				if !keep {
					continue
				}
			}
			row, err := probe.Row(id)
			if err != nil {
				evalErr = err
				return false
			}
			out.Insert(row)
			matched = true
		}
		if !matched {
			out.Insert(l)
		}
		return true
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return out, nil
}

// Union implements algebra.Processor.
func (Evaluator) Union(n *algebra.Union, c *Context) (*binding.Multiset, error) {
	left, right, err := evaluateBoth(c, n.Left, n.Right)
	if err != nil {
		return nil, err
	}
	out := binding.New()
	for _, in := range []*binding.Multiset{left, right} {
		in.Each(func(_ binding.ID, row binding.Row) bool {
			out.Insert(row)
			return true
		})
	}
	return out, nil
}

// Filter implements algebra.Processor. Rows for which the expression has an
// error are removed, as if it were false.
func (Evaluator) Filter(n *algebra.Filter, c *Context) (*binding.Multiset, error) {
	in, err := Evaluate(c, n.Input)
	if err != nil {
		return nil, err
	}
	binder := binding.NewBinder(in)
	out := binding.New()
	for _, id := range binder.BindingIDs() {
		keep, err := filterPasses(n.Expr, binder, id)
		if err != nil {
			return nil, err
		}
		if keep {
			row, err := in.Row(id)
			if err != nil {
				return nil, err
			}
			out.Insert(row)
		}
	}
	return out, nil
}

// Extend implements algebra.Processor. If the expression has an error for a
// row, the variable is left unbound in that row.
func (Evaluator) Extend(n *algebra.Extend, c *Context) (*binding.Multiset, error) {
	if algebra.InScope(n.Input).Contains(n.Var) {
		return nil, errors.Errorf("extend: variable %v is already in scope", n.Var)
	}
	in, err := Evaluate(c, n.Input)
	if err != nil {
		return nil, err
	}
	binder := binding.NewBinder(in)
	out := binding.New()
	for _, id := range binder.BindingIDs() {
		row, err := in.Row(id)
		if err != nil {
			return nil, err
		}
		val, err := evalExpr(n.Expr, binder, id)
		switch {
		case err == nil:
			row[n.Var.Name] = val
		case !isExprError(err):
			return nil, err
		}
		out.Insert(row)
	}
	return out, nil
}

// Graph implements algebra.Processor. With a constant name, the input is
// evaluated with that graph as the active scope. With a variable, it's
// evaluated once per named graph, and the variable is bound to the graph's
// name. Either way the parent's scope is restored afterwards.
func (Evaluator) Graph(n *algebra.Graph, c *Context) (*binding.Multiset, error) {
	var names []rdf.IRI
	var graphVar *algebra.Variable
	switch name := n.Name.(type) {
	case *algebra.Constant:
		iri, ok := name.Value.(rdf.IRI)
		if !ok {
			return binding.New(), nil
		}
		names = []rdf.IRI{iri}
	case *algebra.Variable:
		graphVar = name
		var err error
		names, err = c.dataset.GraphNames(c.ctx)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.Errorf("graph: unexpected name %T", n.Name)
	}
	out := binding.New()
	for _, name := range names {
		in, err := evaluateInGraph(c, name, n.Input)
		if err != nil {
			return nil, err
		}
		in.Each(func(_ binding.ID, row binding.Row) bool {
			if graphVar != nil {
				if bound := row[graphVar.Name]; bound != nil && bound != name {
					return true
				}
				row = binding.Merge(row, binding.Row{graphVar.Name: name})
			}
			out.Insert(row)
			return true
		})
	}
	return out, nil
}

// evaluateInGraph switches the dataset to the given graph, evaluates the node,
// and switches back to the parent's scope.
func evaluateInGraph(c *Context, name rdf.IRI, node algebra.Node) (*binding.Multiset, error) {
	child := c.WithGraphs(name)
	if err := c.dataset.SetActiveGraphs(c.ctx, child.graphs...); err != nil {
		return nil, err
	}
	res, err := Evaluate(child, node)
	if restoreErr := c.dataset.SetActiveGraphs(c.ctx, c.graphs...); restoreErr != nil {
		if err == nil {
			err = restoreErr
		} else {
			logrus.WithFields(logrus.Fields{
				"graph":        name,
				"restoreError": restoreErr,
			}).Warn("Unable to restore active graphs after failed evaluation")
		}
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Minus implements algebra.Processor.
func (Evaluator) Minus(n *algebra.Minus, c *Context) (*binding.Multiset, error) {
	left, right, err := evaluateBoth(c, n.Left, n.Right)
	if err != nil {
		return nil, err
	}
	out := binding.New()
	left.Each(func(_ binding.ID, l binding.Row) bool {
		removed := false
		right.Each(func(_ binding.ID, r binding.Row) bool {
			removed = binding.SharesVariable(l, r) && binding.Compatible(l, r)
			return !removed
		})
		if !removed {
			out.Insert(l)
		}
		return true
	})
	return out, nil
}

// Project implements algebra.Processor.
func (Evaluator) Project(n *algebra.Project, c *Context) (*binding.Multiset, error) {
	in, err := Evaluate(c, n.Input)
	if err != nil {
		return nil, err
	}
	out := binding.New()
	in.Each(func(_ binding.ID, row binding.Row) bool {
		projected := make(binding.Row, len(n.Vars))
		for _, v := range n.Vars {
			if t := row[v.Name]; t != nil {
				projected[v.Name] = t
			}
		}
		out.Insert(projected)
		return true
	})
	return out, nil
}

// Distinct implements algebra.Processor. The first of each set of duplicate
// rows is kept.
func (Evaluator) Distinct(n *algebra.Distinct, c *Context) (*binding.Multiset, error) {
	in, err := Evaluate(c, n.Input)
	if err != nil {
		return nil, err
	}
	seen := newRowSet()
	out := binding.New()
	in.Each(func(_ binding.ID, row binding.Row) bool {
		if seen.add(row) {
			out.Insert(row)
		}
		return true
	})
	return out, nil
}

// Reduced implements algebra.Processor. It removes rows that are duplicates of
// the row before them.
func (Evaluator) Reduced(n *algebra.Reduced, c *Context) (*binding.Multiset, error) {
	in, err := Evaluate(c, n.Input)
	if err != nil {
		return nil, err
	}
	out := binding.New()
	prev := ""
	first := true
	in.Each(func(_ binding.ID, row binding.Row) bool {
		key := rowKey(row)
		if first || key != prev {
			out.Insert(row)
		}
		prev, first = key, false
		return true
	})
	return out, nil
}

// Slice implements algebra.Processor.
func (Evaluator) Slice(n *algebra.Slice, c *Context) (*binding.Multiset, error) {
	in, err := Evaluate(c, n.Input)
	if err != nil {
		return nil, err
	}
	out := binding.New()
	var pos, emitted uint64
	in.Each(func(_ binding.ID, row binding.Row) bool {
		if n.Limit != nil && emitted == *n.Limit {
			return false
		}
		if pos >= n.Offset {
			out.Insert(row)
			emitted++
		}
		pos++
		return true
	})
	return out, nil
}

// OrderBy implements algebra.Processor. The sort is stable; unbound values sort
// first in ascending order.
func (Evaluator) OrderBy(n *algebra.OrderBy, c *Context) (*binding.Multiset, error) {
	in, err := Evaluate(c, n.Input)
	if err != nil {
		return nil, err
	}
	rows := make([]binding.Row, 0, in.Len())
	in.Each(func(_ binding.ID, row binding.Row) bool {
		rows = append(rows, row)
		return true
	})
	sortRows(rows, n.Conditions)
	return binding.FromRows(rows...), nil
}

// Table implements algebra.Processor.
func (Evaluator) Table(n *algebra.Table, c *Context) (*binding.Multiset, error) {
	out := binding.New()
	for i, values := range n.Rows {
		if len(values) != len(n.Vars) {
			return nil, errors.Errorf("table: row %d has %d values for %d variables",
				i, len(values), len(n.Vars))
		}
		row := make(binding.Row, len(values))
		for j, v := range n.Vars {
			if values[j] != nil {
				row[v.Name] = values[j]
			}
		}
		out.Insert(row)
	}
	return out, nil
}

// evaluateBoth evaluates two inputs, left first.
func evaluateBoth(c *Context, left, right algebra.Node) (*binding.Multiset, *binding.Multiset, error) {
	l, err := Evaluate(c, left)
	if err != nil {
		return nil, nil, err
	}
	r, err := Evaluate(c, right)
	if err != nil {
		return nil, nil, err
	}
	return l, r, nil
}
