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
	"strconv"
	"strings"

	"github.com/ebay/akutan-sparql/rdf"
	"github.com/ebay/akutan-sparql/util/cmp"
)

// A Node is an operator in an algebra tree. The set of Node types is closed:
// it's exactly the types listed in ImplementNode. Walking a tree is done with
// Accept and a Processor, which has one method per Node type.
type Node interface {
	// String returns a single-line description of the operator itself, not
	// including its inputs.
	String() string
	// Key describes the whole subtree rooted at this node as an s-expression.
	cmp.Key
	aNode()
}

// ImplementNode is a list of types that implement Node. This serves as
// documentation and as a compile-time check.
var ImplementNode = []Node{
	new(BGP),
	new(Join),
	new(LeftJoin),
	new(Union),
	new(Filter),
	new(Extend),
	new(Graph),
	new(Minus),
	new(Project),
	new(Distinct),
	new(Reduced),
	new(Slice),
	new(OrderBy),
	new(Table),
}

// A BGP (basic graph pattern) is a conjunction of triple patterns evaluated
// against the active graph.
type BGP struct {
	Patterns []TriplePattern
}

func (*BGP) aNode() {}

func (n *BGP) String() string {
	return "BGP"
}

// Key implements cmp.Key.
func (n *BGP) Key(b *strings.Builder) {
	b.WriteString("(bgp")
	for _, p := range n.Patterns {
		b.WriteString(" (")
		p.Key(b)
		b.WriteByte(')')
	}
	b.WriteByte(')')
}

// Join is the inner join of its two inputs on their shared variables.
type Join struct {
	Left  Node
	Right Node
}

func (*Join) aNode() {}

func (n *Join) String() string {
	return "Join"
}

// Key implements cmp.Key.
func (n *Join) Key(b *strings.Builder) {
	nodeKey(b, "join", n.Left, n.Right)
}

// LeftJoin keeps every row of Left, extended by the compatible rows of Right
// for which Expr holds. Expr is nil when there's no filter.
type LeftJoin struct {
	Left  Node
	Right Node
	Expr  Expr
}

func (*LeftJoin) aNode() {}

func (n *LeftJoin) String() string {
	if n.Expr == nil {
		return "LeftJoin"
	}
	return "LeftJoin " + n.Expr.String()
}

// Key implements cmp.Key.
func (n *LeftJoin) Key(b *strings.Builder) {
	b.WriteString("(leftjoin ")
	n.Left.Key(b)
	b.WriteByte(' ')
	n.Right.Key(b)
	if n.Expr != nil {
		b.WriteByte(' ')
		n.Expr.Key(b)
	}
	b.WriteByte(')')
}

// Union is the multiset union of its two inputs.
type Union struct {
	Left  Node
	Right Node
}

func (*Union) aNode() {}

func (n *Union) String() string {
	return "Union"
}

// Key implements cmp.Key.
func (n *Union) Key(b *strings.Builder) {
	nodeKey(b, "union", n.Left, n.Right)
}

// Filter keeps the rows of Input for which Expr evaluates to true.
type Filter struct {
	Expr  Expr
	Input Node
}

func (*Filter) aNode() {}

func (n *Filter) String() string {
	return "Filter " + n.Expr.String()
}

// Key implements cmp.Key.
func (n *Filter) Key(b *strings.Builder) {
	b.WriteString("(filter ")
	n.Expr.Key(b)
	b.WriteByte(' ')
	n.Input.Key(b)
	b.WriteByte(')')
}

// Extend binds Var to the value of Expr for every row of Input.
type Extend struct {
	Var   *Variable
	Expr  Expr
	Input Node
}

func (*Extend) aNode() {}

func (n *Extend) String() string {
	return "Extend " + n.Var.String() + " := " + n.Expr.String()
}

// Key implements cmp.Key.
func (n *Extend) Key(b *strings.Builder) {
	b.WriteString("(extend (")
	n.Var.Key(b)
	b.WriteByte(' ')
	n.Expr.Key(b)
	b.WriteString(") ")
	n.Input.Key(b)
	b.WriteByte(')')
}

// Graph evaluates Input with the active graph set to Name. When Name is a
// Variable, Input is evaluated once per named graph, binding Name to it.
type Graph struct {
	Name  Term
	Input Node
}

func (*Graph) aNode() {}

func (n *Graph) String() string {
	return "Graph " + n.Name.String()
}

// Key implements cmp.Key.
func (n *Graph) Key(b *strings.Builder) {
	b.WriteString("(graph ")
	n.Name.Key(b)
	b.WriteByte(' ')
	n.Input.Key(b)
	b.WriteByte(')')
}

// Minus removes the rows of Left that are compatible with, and share at least
// one variable with, some row of Right.
type Minus struct {
	Left  Node
	Right Node
}

func (*Minus) aNode() {}

func (n *Minus) String() string {
	return "Minus"
}

// Key implements cmp.Key.
func (n *Minus) Key(b *strings.Builder) {
	nodeKey(b, "minus", n.Left, n.Right)
}

// Project restricts the rows of Input to the listed variables, which also
// define the column order of the results.
type Project struct {
	Vars  []*Variable
	Input Node
}

func (*Project) aNode() {}

func (n *Project) String() string {
	var b strings.Builder
	b.WriteString("Project")
	for _, v := range n.Vars {
		b.WriteByte(' ')
		v.Key(&b)
	}
	return b.String()
}

// Key implements cmp.Key.
func (n *Project) Key(b *strings.Builder) {
	b.WriteString("(project (")
	cmp.WriteKeys(b, " ", n.Vars)
	b.WriteString(") ")
	n.Input.Key(b)
	b.WriteByte(')')
}

// Distinct removes duplicate rows.
type Distinct struct {
	Input Node
}

func (*Distinct) aNode() {}

func (n *Distinct) String() string {
	return "Distinct"
}

// Key implements cmp.Key.
func (n *Distinct) Key(b *strings.Builder) {
	nodeKey(b, "distinct", n.Input)
}

// Reduced may remove duplicate rows. This implementation removes adjacent
// duplicates.
type Reduced struct {
	Input Node
}

func (*Reduced) aNode() {}

func (n *Reduced) String() string {
	return "Reduced"
}

// Key implements cmp.Key.
func (n *Reduced) Key(b *strings.Builder) {
	nodeKey(b, "reduced", n.Input)
}

// Slice skips Offset rows, then returns at most Limit rows. A nil Limit means
// no limit.
type Slice struct {
	Offset uint64
	Limit  *uint64
	Input  Node
}

func (*Slice) aNode() {}

func (n *Slice) String() string {
	return "Slice " + n.bounds()
}

func (n *Slice) bounds() string {
	limit := "_"
	if n.Limit != nil {
		limit = strconv.FormatUint(*n.Limit, 10)
	}
	return strconv.FormatUint(n.Offset, 10) + " " + limit
}

// Key implements cmp.Key.
func (n *Slice) Key(b *strings.Builder) {
	b.WriteString("(slice ")
	b.WriteString(n.bounds())
	b.WriteByte(' ')
	n.Input.Key(b)
	b.WriteByte(')')
}

// SortDirection is the direction that a sort should be in.
type SortDirection int

// Sort directions.
const (
	// SortAsc indicates an ascending sort, i.e. smaller values appear before
	// larger values.
	SortAsc SortDirection = iota
	// SortDesc indicates a descending sort.
	SortDesc
)

func (d SortDirection) String() string {
	if d == SortDesc {
		return "DESC"
	}
	return "ASC"
}

// OrderCondition describes a single expression in an order by clause.
type OrderCondition struct {
	Direction SortDirection
	On        *Variable
}

// Key implements cmp.Key.
func (o *OrderCondition) Key(b *strings.Builder) {
	b.WriteString(o.Direction.String())
	b.WriteByte('(')
	o.On.Key(b)
	b.WriteByte(')')
}

// OrderBy sorts the rows of Input.
type OrderBy struct {
	Conditions []OrderCondition
	Input      Node
}

func (*OrderBy) aNode() {}

func (n *OrderBy) String() string {
	var b strings.Builder
	b.WriteString("OrderBy")
	for i := range n.Conditions {
		b.WriteByte(' ')
		n.Conditions[i].Key(&b)
	}
	return b.String()
}

// Key implements cmp.Key.
func (n *OrderBy) Key(b *strings.Builder) {
	b.WriteString("(order (")
	for i := range n.Conditions {
		if i > 0 {
			b.WriteByte(' ')
		}
		n.Conditions[i].Key(b)
	}
	b.WriteString(") ")
	n.Input.Key(b)
	b.WriteByte(')')
}

// Table is an inline table of rows, as produced by VALUES. A nil entry in a
// row leaves that variable unbound. The unit table has no variables and one
// empty row; it's the identity for Join.
type Table struct {
	Vars []*Variable
	Rows [][]rdf.Term
}

func (*Table) aNode() {}

// UnitTable returns a table with no variables and a single empty row.
func UnitTable() *Table {
	return &Table{Rows: [][]rdf.Term{{}}}
}

func (n *Table) String() string {
	var b strings.Builder
	b.WriteString("Table")
	for _, v := range n.Vars {
		b.WriteByte(' ')
		v.Key(&b)
	}
	b.WriteString(" rows:")
	b.WriteString(strconv.Itoa(len(n.Rows)))
	return b.String()
}

// Key implements cmp.Key.
func (n *Table) Key(b *strings.Builder) {
	b.WriteString("(table (")
	cmp.WriteKeys(b, " ", n.Vars)
	b.WriteByte(')')
	for _, row := range n.Rows {
		b.WriteString(" (")
		for i, t := range row {
			if i > 0 {
				b.WriteByte(' ')
			}
			if t == nil {
				b.WriteString("UNDEF")
			} else {
				t.Key(b)
			}
		}
		b.WriteByte(')')
	}
	b.WriteByte(')')
}

// nodeKey is a helper for the Key() methods of nodes that have only inputs.
func nodeKey(b *strings.Builder, name string, inputs ...Node) {
	b.WriteByte('(')
	b.WriteString(name)
	for _, in := range inputs {
		b.WriteByte(' ')
		in.Key(b)
	}
	b.WriteByte(')')
}
