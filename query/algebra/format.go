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

package algebra

import (
	"strings"
)

// Format returns a multi-line description of the tree, one operator per line
// with inputs indented below their parent. Triple patterns of a BGP are listed
// below it.
func Format(node Node) string {
	s, err := Accept[string, int](node, textExplainer{}, 0)
	if err != nil {
		return "error: " + err.Error() + "\n"
	}
	return s
}

// textExplainer is a Processor that renders a tree as text. Its context is the
// depth of the node being rendered.
type textExplainer struct{}

func (x textExplainer) line(depth int, s string) string {
	return strings.Repeat(" ", depth*4) + s + "\n"
}

func (x textExplainer) withInputs(depth int, label string, inputs ...Node) (string, error) {
	var b strings.Builder
	b.WriteString(x.line(depth, label))
	for _, in := range inputs {
		s, err := Accept[string, int](in, x, depth+1)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

func (x textExplainer) BGP(n *BGP, depth int) (string, error) {
	var b strings.Builder
	b.WriteString(x.line(depth, n.String()))
	for _, p := range n.Patterns {
		b.WriteString(x.line(depth+1, p.String()))
	}
	return b.String(), nil
}

func (x textExplainer) Join(n *Join, depth int) (string, error) {
	return x.withInputs(depth, n.String(), n.Left, n.Right)
}

func (x textExplainer) LeftJoin(n *LeftJoin, depth int) (string, error) {
	return x.withInputs(depth, n.String(), n.Left, n.Right)
}

func (x textExplainer) Union(n *Union, depth int) (string, error) {
	return x.withInputs(depth, n.String(), n.Left, n.Right)
}

func (x textExplainer) Filter(n *Filter, depth int) (string, error) {
	return x.withInputs(depth, n.String(), n.Input)
}

func (x textExplainer) Extend(n *Extend, depth int) (string, error) {
	return x.withInputs(depth, n.String(), n.Input)
}

func (x textExplainer) Graph(n *Graph, depth int) (string, error) {
	return x.withInputs(depth, n.String(), n.Input)
}

func (x textExplainer) Minus(n *Minus, depth int) (string, error) {
	return x.withInputs(depth, n.String(), n.Left, n.Right)
}

func (x textExplainer) Project(n *Project, depth int) (string, error) {
	return x.withInputs(depth, n.String(), n.Input)
}

func (x textExplainer) Distinct(n *Distinct, depth int) (string, error) {
	return x.withInputs(depth, n.String(), n.Input)
}

func (x textExplainer) Reduced(n *Reduced, depth int) (string, error) {
	return x.withInputs(depth, n.String(), n.Input)
}

func (x textExplainer) Slice(n *Slice, depth int) (string, error) {
	return x.withInputs(depth, n.String(), n.Input)
}

func (x textExplainer) OrderBy(n *OrderBy, depth int) (string, error) {
	return x.withInputs(depth, n.String(), n.Input)
}

func (x textExplainer) Table(n *Table, depth int) (string, error) {
	return x.line(depth, n.String()), nil
}

// InScope returns the variables that may be bound in the results of the node.
func InScope(node Node) VarSet {
	vars, err := Accept[VarSet, struct{}](node, scope{}, struct{}{})
	if err != nil {
		return nil
	}
	return vars
}

// scope is a Processor that computes the in-scope variables of a tree.
type scope struct{}

func (s scope) of(n Node) (VarSet, error) {
	return Accept[VarSet, struct{}](n, s, struct{}{})
}

func (s scope) both(left, right Node) (VarSet, error) {
	l, err := s.of(left)
	if err != nil {
		return nil, err
	}
	r, err := s.of(right)
	if err != nil {
		return nil, err
	}
	return l.Union(r), nil
}

func (s scope) BGP(n *BGP, _ struct{}) (VarSet, error) {
	var vars VarSet
	for _, p := range n.Patterns {
		vars = vars.Union(p.Vars())
	}
	return vars, nil
}

func (s scope) Join(n *Join, _ struct{}) (VarSet, error) {
	return s.both(n.Left, n.Right)
}

func (s scope) LeftJoin(n *LeftJoin, _ struct{}) (VarSet, error) {
	return s.both(n.Left, n.Right)
}

func (s scope) Union(n *Union, _ struct{}) (VarSet, error) {
	return s.both(n.Left, n.Right)
}

func (s scope) Filter(n *Filter, _ struct{}) (VarSet, error) {
	return s.of(n.Input)
}

func (s scope) Extend(n *Extend, _ struct{}) (VarSet, error) {
	vars, err := s.of(n.Input)
	return vars.Union(VarSet{n.Var}), err
}

func (s scope) Graph(n *Graph, _ struct{}) (VarSet, error) {
	vars, err := s.of(n.Input)
	if v, ok := n.Name.(*Variable); ok {
		vars = vars.Union(VarSet{v})
	}
	return vars, err
}

func (s scope) Minus(n *Minus, _ struct{}) (VarSet, error) {
	return s.of(n.Left)
}

func (s scope) Project(n *Project, _ struct{}) (VarSet, error) {
	return VarSetOf(n.Vars...), nil
}

func (s scope) Distinct(n *Distinct, _ struct{}) (VarSet, error) {
	return s.of(n.Input)
}

func (s scope) Reduced(n *Reduced, _ struct{}) (VarSet, error) {
	return s.of(n.Input)
}

func (s scope) Slice(n *Slice, _ struct{}) (VarSet, error) {
	return s.of(n.Input)
}

func (s scope) OrderBy(n *OrderBy, _ struct{}) (VarSet, error) {
	return s.of(n.Input)
}

func (s scope) Table(n *Table, _ struct{}) (VarSet, error) {
	return VarSetOf(n.Vars...), nil
}
