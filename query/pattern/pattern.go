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

// Package pattern matches individual triple patterns against a dataset. It
// relies on a Context to tell it which of the pattern's variables already have
// values.
package pattern

import (
	"context"
	"fmt"

	"github.com/ebay/akutan-sparql/dataset"
	"github.com/ebay/akutan-sparql/query/algebra"
	"github.com/ebay/akutan-sparql/query/binding"
	"github.com/ebay/akutan-sparql/rdf"
	"github.com/sirupsen/logrus"
)

// Context is what a triple pattern matcher needs to know about the bindings
// that are in effect where the pattern is evaluated.
type Context interface {
	// RigorousEvaluation returns true if every candidate triple must be
	// checked against every constraint of the pattern. When false, the
	// matcher may trust the dataset to have filtered on the fixed slots.
	RigorousEvaluation() bool
	// ContainsVariable returns true if the variable is bound in the current
	// scope.
	ContainsVariable(name string) bool
	// ContainsValue returns true if the variable is bound to exactly value in
	// the current scope.
	ContainsValue(name string, value rdf.Term) bool
}

// A Resolver is a Context that can also report the value of a bound variable.
// Match uses it, when available, to have the dataset filter on repeated
// variables.
type Resolver interface {
	Context
	Lookup(name string) (rdf.Term, bool)
}

// RowContext is a Resolver over a single row of bindings.
type RowContext struct {
	Row      binding.Row
	Rigorous bool
}

// RigorousEvaluation implements Context.
func (c RowContext) RigorousEvaluation() bool {
	return c.Rigorous
}

// ContainsVariable implements Context.
func (c RowContext) ContainsVariable(name string) bool {
	return c.Row[name] != nil
}

// ContainsValue implements Context.
func (c RowContext) ContainsValue(name string, value rdf.Term) bool {
	t := c.Row[name]
	return t != nil && t == value
}

// Lookup implements Resolver.
func (c RowContext) Lookup(name string) (rdf.Term, bool) {
	t := c.Row[name]
	return t, t != nil
}

// SlotKind describes how a position of a triple pattern constrains matching
// triples.
type SlotKind int

// Slot kinds. Every slot is exactly one of these.
const (
	// SlotConstant is a fixed term.
	SlotConstant SlotKind = iota + 1
	// SlotFirstOccurrence is a variable that isn't bound yet; the matching
	// triple binds it.
	SlotFirstOccurrence
	// SlotRepeatOccurrence is a variable that's already bound, either in the
	// context or by an earlier slot of the same pattern. The matching
	// triple's term must equal that value.
	SlotRepeatOccurrence
)

func (k SlotKind) String() string {
	switch k {
	case SlotConstant:
		return "Constant"
	case SlotFirstOccurrence:
		return "FirstOccurrence"
	case SlotRepeatOccurrence:
		return "RepeatOccurrence"
	}
	return fmt.Sprintf("SlotKind(%d)", int(k))
}

// Classify returns the kind of a single term, considering only the bindings in
// the context.
func Classify(c Context, t algebra.Term) SlotKind {
	switch t := t.(type) {
	case *algebra.Constant:
		return SlotConstant
	case *algebra.Variable:
		if c.ContainsVariable(t.Name) {
			return SlotRepeatOccurrence
		}
		return SlotFirstOccurrence
	}
	logrus.Panicf("pattern.Classify: unexpected term type %T", t)
	return 0
}

// ClassifySlots returns the kind of the subject, predicate, and object of the
// pattern. A variable that occurs more than once in the pattern is a first
// occurrence only in its leftmost slot, and only if the context doesn't bind
// it.
func ClassifySlots(c Context, tp algebra.TriplePattern) [3]SlotKind {
	var kinds [3]SlotKind
	terms := tp.Terms()
	for i, t := range terms {
		kinds[i] = Classify(c, t)
		if kinds[i] != SlotFirstOccurrence {
			continue
		}
		name := t.(*algebra.Variable).Name
		for _, prev := range terms[:i] {
			if v, ok := prev.(*algebra.Variable); ok && v.Name == name {
				kinds[i] = SlotRepeatOccurrence
				break
			}
		}
	}
	return kinds
}

// slot is the resolved form of one position in a pattern.
type slot struct {
	kind SlotKind
	// name is set for variables.
	name string
	// value is the term the dataset is asked to filter on, or nil for a
	// wildcard.
	value rdf.Term
	// sameAs is the index of an earlier slot that holds the same first
	// occurrence variable, or -1.
	sameAs int
}

func resolve(c Context, tp algebra.TriplePattern) [3]slot {
	var slots [3]slot
	kinds := ClassifySlots(c, tp)
	resolver, canResolve := c.(Resolver)
	terms := tp.Terms()
	for i, t := range terms {
		s := slot{kind: kinds[i], sameAs: -1}
		switch t := t.(type) {
		case *algebra.Constant:
			s.value = t.Value
		case *algebra.Variable:
			s.name = t.Name
			if s.kind == SlotRepeatOccurrence {
				if c.ContainsVariable(t.Name) {
					if canResolve {
						s.value, _ = resolver.Lookup(t.Name)
					}
				} else {
					for j := 0; j < i; j++ {
						if slots[j].name == t.Name {
							s.sameAs = j
							break
						}
					}
				}
			}
		}
		slots[i] = s
	}
	return slots
}

// Match calls fn for each triple in the dataset's active scope that matches
// the pattern under the context's bindings. fn is given the bindings that the
// triple adds: the values of the pattern's first occurrence variables. Match
// stops early if fn returns false. Errors from the dataset are returned
// unchanged.
//
// Variables repeated within the pattern are always checked. Values that the
// dataset was asked to filter on are checked again only under rigorous
// evaluation.
func Match(ctx context.Context, c Context, ds dataset.Dataset, tp algebra.TriplePattern,
	fn func(binding.Row) bool) error {

	slots := resolve(c, tp)
	rigorous := c.RigorousEvaluation()
	return ds.Find(ctx, slots[0].value, slots[1].value, slots[2].value, func(t rdf.Triple) bool {
		terms := [3]rdf.Term{t.Subject, t.Predicate, t.Object}
		for i, s := range slots {
			if !s.accepts(c, terms, i, rigorous) {
				return true
			}
		}
		row := make(binding.Row, 3)
		for i, s := range slots {
			if s.kind == SlotFirstOccurrence {
				row[s.name] = terms[i]
			}
		}
		return fn(row)
	})
}

// accepts returns true if the candidate term at position i satisfies the
// slot.
func (s slot) accepts(c Context, terms [3]rdf.Term, i int, rigorous bool) bool {
	switch {
	case s.sameAs >= 0:
		return terms[i] == terms[s.sameAs]
	case s.kind == SlotFirstOccurrence:
		return true
	case s.value == nil:
		// A bound variable the dataset couldn't filter on.
		return c.ContainsValue(s.name, terms[i])
	case !rigorous:
		return true
	case s.kind == SlotConstant:
		return terms[i] == s.value
	default:
		return c.ContainsValue(s.name, terms[i])
	}
}
