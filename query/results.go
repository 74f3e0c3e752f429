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
	"strconv"

	"github.com/ebay/akutan-sparql/dataset"
	"github.com/ebay/akutan-sparql/query/algebra"
	"github.com/ebay/akutan-sparql/query/binding"
	"github.com/ebay/akutan-sparql/query/shape"
	"github.com/ebay/akutan-sparql/rdf"
)

// tripleSet collects triples, ignoring duplicates and keeping the order they
// were first added.
type tripleSet struct {
	seen    map[rdf.Triple]struct{}
	triples []rdf.Triple
}

func newTripleSet() *tripleSet {
	return &tripleSet{seen: make(map[rdf.Triple]struct{})}
}

func (s *tripleSet) add(t rdf.Triple) {
	if _, dup := s.seen[t]; dup {
		return
	}
	s.seen[t] = struct{}{}
	s.triples = append(s.triples, t)
}

// construct instantiates the template once per solution. Template triples
// that would have an unbound variable, or that aren't valid RDF, are left out.
// Blank nodes in the template are renamed for each solution, to labels that
// no solution binds.
func construct(template []algebra.TriplePattern, solutions *binding.Multiset) []rdf.Triple {
	out := newTripleSet()
	blanks := newBlankNamer(solutions)
	solutions.Each(func(id binding.ID, row binding.Row) bool {
		for _, tp := range template {
			var terms [3]rdf.Term
			valid := true
			for i, t := range tp.Terms() {
				terms[i] = instantiate(t, row, id, blanks)
				if terms[i] == nil {
					valid = false
					break
				}
			}
			if !valid {
				continue
			}
			triple := rdf.Triple{Subject: terms[0], Predicate: terms[1], Object: terms[2]}
			if validTriple(triple) {
				out.add(triple)
			}
		}
		return true
	})
	return out.triples
}

// instantiate returns the term for a template slot in the given solution, or
// nil if it's an unbound variable.
func instantiate(t algebra.Term, row binding.Row, id binding.ID, blanks *blankNamer) rdf.Term {
	switch t := t.(type) {
	case *algebra.Variable:
		return row[t.Name]
	case *algebra.Constant:
		if bn, ok := t.Value.(rdf.BlankNode); ok {
			return blanks.name(bn, id)
		}
		return t.Value
	}
	return nil
}

// blankNamer gives each template blank node a fresh label per solution. A
// label is "<template label>_<solution id>", with "_<n>" appended while it
// collides with a blank node in the solutions or an earlier label.
type blankNamer struct {
	taken map[rdf.BlankNode]struct{}
	named map[blankKey]rdf.BlankNode
}

type blankKey struct {
	label rdf.BlankNode
	id    binding.ID
}

func newBlankNamer(solutions *binding.Multiset) *blankNamer {
	n := &blankNamer{
		taken: make(map[rdf.BlankNode]struct{}),
		named: make(map[blankKey]rdf.BlankNode),
	}
	solutions.Each(func(_ binding.ID, row binding.Row) bool {
		for _, t := range row {
			if bn, ok := t.(rdf.BlankNode); ok {
				n.taken[bn] = struct{}{}
			}
		}
		return true
	})
	return n
}

func (n *blankNamer) name(label rdf.BlankNode, id binding.ID) rdf.BlankNode {
	key := blankKey{label, id}
	if bn, ok := n.named[key]; ok {
		return bn
	}
	base := label + rdf.BlankNode("_"+strconv.FormatUint(uint64(id), 10))
	bn := base
	for i := 1; ; i++ {
		if _, dup := n.taken[bn]; !dup {
			break
		}
		bn = base + rdf.BlankNode("_"+strconv.Itoa(i))
	}
	n.taken[bn] = struct{}{}
	n.named[key] = bn
	return bn
}

// validTriple returns true if the subject is an IRI or blank node and the
// predicate is an IRI.
func validTriple(t rdf.Triple) bool {
	switch t.Subject.(type) {
	case rdf.IRI, rdf.BlankNode:
	default:
		return false
	}
	_, ok := t.Predicate.(rdf.IRI)
	return ok
}

// describedResources returns the resources a Describe query is about, in
// order and without duplicates. For DescribeAll, that's every IRI or blank
// node in the solutions.
func describedResources(q *Query, solutions *binding.Multiset) []rdf.Term {
	var resources []rdf.Term
	seen := make(map[rdf.Term]struct{})
	add := func(t rdf.Term) {
		switch t.(type) {
		case rdf.IRI, rdf.BlankNode:
		default:
			return
		}
		if _, dup := seen[t]; !dup {
			seen[t] = struct{}{}
			resources = append(resources, t)
		}
	}
	vars := solutions.Variables()
	for _, t := range q.Describe {
		if c, ok := t.(*algebra.Constant); ok {
			add(c.Value)
		}
	}
	solutions.Each(func(_ binding.ID, row binding.Row) bool {
		if q.Type == shape.DescribeAll {
			for _, v := range vars {
				add(row[v.Name])
			}
			return true
		}
		for _, t := range q.Describe {
			if v, ok := t.(*algebra.Variable); ok {
				add(row[v.Name])
			}
		}
		return true
	})
	return resources
}

// describe returns the triples in the active scope whose subject is one of
// the resources.
func describe(ctx context.Context, ds dataset.Dataset, resources []rdf.Term) ([]rdf.Triple, error) {
	out := newTripleSet()
	for _, r := range resources {
		err := ds.Find(ctx, r, nil, nil, func(t rdf.Triple) bool {
			out.add(t)
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return out.triples, nil
}
