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

	"github.com/ebay/akutan-sparql/util/cmp"
)

// An Expr is a filter or extend expression.
type Expr interface {
	String() string
	cmp.Key
	anExpression()
}

// ImplementExpr is a list of types that implement Expr. This serves as
// documentation and as a compile-time check.
var ImplementExpr = []Expr{
	new(Variable),
	new(Constant),
	new(Bound),
	new(Compare),
	new(And),
	new(Or),
	new(Not),
}

// Bound is true when Var has a value in the row.
type Bound struct {
	Var *Variable
}

func (*Bound) anExpression() {}

func (e *Bound) String() string {
	return cmp.GetKey(e)
}

// Key implements cmp.Key.
func (e *Bound) Key(b *strings.Builder) {
	b.WriteString("(bound ")
	e.Var.Key(b)
	b.WriteByte(')')
}

// CompareOp is a comparison operator.
type CompareOp int

// Comparison operators.
const (
	OpEqual CompareOp = iota + 1
	OpNotEqual
	OpLess
	OpLessOrEqual
	OpGreater
	OpGreaterOrEqual
)

func (op CompareOp) String() string {
	switch op {
	case OpEqual:
		return "="
	case OpNotEqual:
		return "!="
	case OpLess:
		return "<"
	case OpLessOrEqual:
		return "<="
	case OpGreater:
		return ">"
	case OpGreaterOrEqual:
		return ">="
	}
	return "?op"
}

// Compare compares the values of two expressions.
type Compare struct {
	Op    CompareOp
	Left  Expr
	Right Expr
}

func (*Compare) anExpression() {}

func (e *Compare) String() string {
	return cmp.GetKey(e)
}

// Key implements cmp.Key.
func (e *Compare) Key(b *strings.Builder) {
	b.WriteByte('(')
	b.WriteString(e.Op.String())
	b.WriteByte(' ')
	e.Left.Key(b)
	b.WriteByte(' ')
	e.Right.Key(b)
	b.WriteByte(')')
}

// And is the logical conjunction of two expressions.
type And struct {
	Left  Expr
	Right Expr
}

func (*And) anExpression() {}

func (e *And) String() string {
	return cmp.GetKey(e)
}

// Key implements cmp.Key.
func (e *And) Key(b *strings.Builder) {
	b.WriteString("(&& ")
	e.Left.Key(b)
	b.WriteByte(' ')
	e.Right.Key(b)
	b.WriteByte(')')
}

// Or is the logical disjunction of two expressions.
type Or struct {
	Left  Expr
	Right Expr
}

func (*Or) anExpression() {}

func (e *Or) String() string {
	return cmp.GetKey(e)
}

// Key implements cmp.Key.
func (e *Or) Key(b *strings.Builder) {
	b.WriteString("(|| ")
	e.Left.Key(b)
	b.WriteByte(' ')
	e.Right.Key(b)
	b.WriteByte(')')
}

// Not is the logical negation of an expression.
type Not struct {
	Expr Expr
}

func (*Not) anExpression() {}

func (e *Not) String() string {
	return cmp.GetKey(e)
}

// Key implements cmp.Key.
func (e *Not) Key(b *strings.Builder) {
	b.WriteString("(! ")
	e.Expr.Key(b)
	b.WriteByte(')')
}

// ExprVars returns the set of variables referenced by the expression.
func ExprVars(e Expr) VarSet {
	vars := make(map[string]*Variable)
	var visit func(e Expr)
	visit = func(e Expr) {
		switch e := e.(type) {
		case *Variable:
			vars[e.Name] = e
		case *Bound:
			vars[e.Var.Name] = e.Var
		case *Compare:
			visit(e.Left)
			visit(e.Right)
		case *And:
			visit(e.Left)
			visit(e.Right)
		case *Or:
			visit(e.Left)
			visit(e.Right)
		case *Not:
			visit(e.Expr)
		}
	}
	visit(e)
	return NewVarSet(vars)
}
