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

// Package algebra defines the operator trees that queries compile to, and the
// protocol used to walk them.
//
// The set of Node types is closed. Strategies that walk a tree (the evaluator,
// the text explainer, the cost estimator) implement Processor, which has one
// method per Node type, and are invoked through Accept. Accept selects which
// Processor method runs; the Processor decides what happens. Adding a new
// Processor needs no change in this package. Adding a new Node type is a
// breaking change: every Processor must grow a method for it.
package algebra

import (
	"github.com/pkg/errors"
)

// ErrUnsupportedOperation is returned (possibly wrapped) when a Processor has
// no way to handle a node. It indicates an incomplete Processor, not a
// malformed query.
var ErrUnsupportedOperation = errors.New("unsupported algebra operation")

// A Processor walks algebra trees, producing a result of type R from each node
// given a context of type C. A Processor method typically recurses into the
// node's inputs by calling Accept, possibly deriving a new context for them.
type Processor[R, C any] interface {
	BGP(n *BGP, ctx C) (R, error)
	Join(n *Join, ctx C) (R, error)
	LeftJoin(n *LeftJoin, ctx C) (R, error)
	Union(n *Union, ctx C) (R, error)
	Filter(n *Filter, ctx C) (R, error)
	Extend(n *Extend, ctx C) (R, error)
	Graph(n *Graph, ctx C) (R, error)
	Minus(n *Minus, ctx C) (R, error)
	Project(n *Project, ctx C) (R, error)
	Distinct(n *Distinct, ctx C) (R, error)
	Reduced(n *Reduced, ctx C) (R, error)
	Slice(n *Slice, ctx C) (R, error)
	OrderBy(n *OrderBy, ctx C) (R, error)
	Table(n *Table, ctx C) (R, error)
}

// Accept dispatches node to the Processor method for its type. It returns an
// error wrapping ErrUnsupportedOperation if the node isn't one of the known
// Node types, or is nil, including a nil pointer of a known type.
func Accept[R, C any](node Node, p Processor[R, C], ctx C) (R, error) {
	switch n := node.(type) {
	case *BGP:
		if n != nil {
			return p.BGP(n, ctx)
		}
	case *Join:
		if n != nil {
			return p.Join(n, ctx)
		}
	case *LeftJoin:
		if n != nil {
			return p.LeftJoin(n, ctx)
		}
	case *Union:
		if n != nil {
			return p.Union(n, ctx)
		}
	case *Filter:
		if n != nil {
			return p.Filter(n, ctx)
		}
	case *Extend:
		if n != nil {
			return p.Extend(n, ctx)
		}
	case *Graph:
		if n != nil {
			return p.Graph(n, ctx)
		}
	case *Minus:
		if n != nil {
			return p.Minus(n, ctx)
		}
	case *Project:
		if n != nil {
			return p.Project(n, ctx)
		}
	case *Distinct:
		if n != nil {
			return p.Distinct(n, ctx)
		}
	case *Reduced:
		if n != nil {
			return p.Reduced(n, ctx)
		}
	case *Slice:
		if n != nil {
			return p.Slice(n, ctx)
		}
	case *OrderBy:
		if n != nil {
			return p.OrderBy(n, ctx)
		}
	case *Table:
		if n != nil {
			return p.Table(n, ctx)
		}
	}
	var zero R
	return zero, errors.Wrapf(ErrUnsupportedOperation, "no processor method for %T", node)
}

// BaseProcessor implements every Processor method by returning
// ErrUnsupportedOperation. Embed it in processors that only handle some node
// types.
type BaseProcessor[R, C any] struct{}

func unsupported[R any](n Node) (R, error) {
	var zero R
	return zero, errors.Wrapf(ErrUnsupportedOperation, "%v", n)
}

// BGP implements Processor.
func (BaseProcessor[R, C]) BGP(n *BGP, _ C) (R, error) { return unsupported[R](n) }

// Join implements Processor.
func (BaseProcessor[R, C]) Join(n *Join, _ C) (R, error) { return unsupported[R](n) }

// LeftJoin implements Processor.
func (BaseProcessor[R, C]) LeftJoin(n *LeftJoin, _ C) (R, error) { return unsupported[R](n) }

// Union implements Processor.
func (BaseProcessor[R, C]) Union(n *Union, _ C) (R, error) { return unsupported[R](n) }

// Filter implements Processor.
func (BaseProcessor[R, C]) Filter(n *Filter, _ C) (R, error) { return unsupported[R](n) }

// Extend implements Processor.
func (BaseProcessor[R, C]) Extend(n *Extend, _ C) (R, error) { return unsupported[R](n) }

// Graph implements Processor.
func (BaseProcessor[R, C]) Graph(n *Graph, _ C) (R, error) { return unsupported[R](n) }

// Minus implements Processor.
func (BaseProcessor[R, C]) Minus(n *Minus, _ C) (R, error) { return unsupported[R](n) }

// Project implements Processor.
func (BaseProcessor[R, C]) Project(n *Project, _ C) (R, error) { return unsupported[R](n) }

// Distinct implements Processor.
func (BaseProcessor[R, C]) Distinct(n *Distinct, _ C) (R, error) { return unsupported[R](n) }

// Reduced implements Processor.
func (BaseProcessor[R, C]) Reduced(n *Reduced, _ C) (R, error) { return unsupported[R](n) }

// Slice implements Processor.
func (BaseProcessor[R, C]) Slice(n *Slice, _ C) (R, error) { return unsupported[R](n) }

// OrderBy implements Processor.
func (BaseProcessor[R, C]) OrderBy(n *OrderBy, _ C) (R, error) { return unsupported[R](n) }

// Table implements Processor.
func (BaseProcessor[R, C]) Table(n *Table, _ C) (R, error) { return unsupported[R](n) }

// Inputs returns the direct inputs of the node, left to right.
func Inputs(node Node) []Node {
	switch n := node.(type) {
	case *Join:
		return []Node{n.Left, n.Right}
	case *LeftJoin:
		return []Node{n.Left, n.Right}
	case *Union:
		return []Node{n.Left, n.Right}
	case *Minus:
		return []Node{n.Left, n.Right}
	case *Filter:
		return []Node{n.Input}
	case *Extend:
		return []Node{n.Input}
	case *Graph:
		return []Node{n.Input}
	case *Project:
		return []Node{n.Input}
	case *Distinct:
		return []Node{n.Input}
	case *Reduced:
		return []Node{n.Input}
	case *Slice:
		return []Node{n.Input}
	case *OrderBy:
		return []Node{n.Input}
	}
	return nil
}

// Walk calls visit for node and then, if visit returns true, for each of its
// inputs, depth-first.
func Walk(node Node, visit func(Node) bool) {
	if !visit(node) {
		return
	}
	for _, in := range Inputs(node) {
		Walk(in, visit)
	}
}
