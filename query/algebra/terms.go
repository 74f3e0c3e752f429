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

	"github.com/ebay/akutan-sparql/rdf"
	"github.com/ebay/akutan-sparql/util/cmp"
)

// A Term is a slot in a triple pattern or a graph name: either a Variable or a
// Constant.
type Term interface {
	String() string
	cmp.Key
	aTerm()
}

// ImplementTerm is a list of types that implement Term. This serves as
// documentation and as a compile-time check.
var ImplementTerm = []Term{
	new(Variable),
	new(Constant),
}

// A Variable is a placeholder for a named result. Variables are also
// expressions that evaluate to their bound value.
type Variable struct {
	Name string
}

func (*Variable) aTerm()        {}
func (*Variable) anExpression() {}

// String returns a string like "?foo".
func (v *Variable) String() string {
	return "?" + v.Name
}

// Key implements cmp.Key.
func (v *Variable) Key(b *strings.Builder) {
	b.WriteByte('?')
	b.WriteString(v.Name)
}

// A Constant is a term with a value known before evaluation.
type Constant struct {
	Value rdf.Term
}

func (*Constant) aTerm()        {}
func (*Constant) anExpression() {}

// String returns the string form of the constant's value.
func (c *Constant) String() string {
	return c.Value.String()
}

// Key implements cmp.Key.
func (c *Constant) Key(b *strings.Builder) {
	c.Value.Key(b)
}

// Var is shorthand for &Variable{Name: name}.
func Var(name string) *Variable {
	return &Variable{Name: name}
}

// Const is shorthand for &Constant{Value: value}.
func Const(value rdf.Term) *Constant {
	return &Constant{Value: value}
}

// A TriplePattern is a triple whose positions may hold variables.
type TriplePattern struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// Terms is a convenience method to fetch the Subject, Predicate, Object in an
// iterable slice.
func (tp TriplePattern) Terms() []Term {
	return []Term{tp.Subject, tp.Predicate, tp.Object}
}

// Vars returns the set of variables used in the pattern.
func (tp TriplePattern) Vars() VarSet {
	vars := make(map[string]*Variable, 3)
	for _, t := range tp.Terms() {
		if v, ok := t.(*Variable); ok {
			vars[v.Name] = v
		}
	}
	return NewVarSet(vars)
}

// String returns a string like "?s <p> ?o".
func (tp TriplePattern) String() string {
	var b strings.Builder
	tp.Key(&b)
	return b.String()
}

// Key implements cmp.Key.
func (tp TriplePattern) Key(b *strings.Builder) {
	cmp.WriteKeys(b, " ", tp.Terms())
}
