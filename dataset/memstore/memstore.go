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

// Package memstore is an in-memory dataset. It keeps each graph in a set of
// B-tree indexes, so that any combination of fixed terms can be looked up with
// a range scan.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/ebay/akutan-sparql/rdf"
	"github.com/google/btree"
	"github.com/sirupsen/logrus"
)

// btreeDegree is the degree of every index tree.
const btreeDegree = 16

// ordering is one of the permutations of a triple used as an index.
type ordering int

const (
	spo ordering = iota
	pos
	osp
)

// permute returns the triple's terms in the order of the index.
func (o ordering) permute(t rdf.Triple) [3]rdf.Term {
	switch o {
	case pos:
		return [3]rdf.Term{t.Predicate, t.Object, t.Subject}
	case osp:
		return [3]rdf.Term{t.Object, t.Subject, t.Predicate}
	}
	return [3]rdf.Term{t.Subject, t.Predicate, t.Object}
}

func (o ordering) less(a, b rdf.Triple) bool {
	ta, tb := o.permute(a), o.permute(b)
	for i := range ta {
		if c := rdf.Compare(ta[i], tb[i]); c != 0 {
			return c < 0
		}
	}
	return false
}

// graph holds one graph's triples in three indexes.
type graph struct {
	indexes [3]*btree.BTreeG[rdf.Triple]
}

func newGraph() *graph {
	g := new(graph)
	for _, o := range []ordering{spo, pos, osp} {
		g.indexes[o] = btree.NewG(btreeDegree, o.less)
	}
	return g
}

func (g *graph) add(t rdf.Triple) bool {
	var existed bool
	for _, idx := range g.indexes {
		_, existed = idx.ReplaceOrInsert(t)
	}
	return !existed
}

func (g *graph) remove(t rdf.Triple) bool {
	var found bool
	for _, idx := range g.indexes {
		_, found = idx.Delete(t)
	}
	return found
}

func (g *graph) contains(t rdf.Triple) bool {
	return g.indexes[spo].Has(t)
}

func (g *graph) len() int {
	return g.indexes[spo].Len()
}

// find calls fn for each triple matching the given terms, where nil is a
// wildcard. It returns false if fn asked to stop.
func (g *graph) find(s, p, o rdf.Term, fn func(rdf.Triple) bool) bool {
	var idx ordering
	switch {
	case s != nil:
		idx = spo
	case p != nil:
		idx = pos
	case o != nil:
		idx = osp
	default:
		idx = spo
	}
	want := rdf.Triple{Subject: s, Predicate: p, Object: o}
	fixed := idx.permute(want)
	// The pivot holds the leading run of fixed terms; nil sorts before every
	// term.
	prefix := 0
	for prefix < 3 && fixed[prefix] != nil {
		prefix++
	}
	pivot := rdf.Triple{}
	switch idx {
	case spo:
		pivot.Subject = s
		if prefix > 1 {
			pivot.Predicate = p
		}
	case pos:
		pivot.Predicate = p
		if prefix > 1 {
			pivot.Object = o
		}
	case osp:
		pivot.Object = o
	}
	keepGoing := true
	g.indexes[idx].AscendGreaterOrEqual(pivot, func(t rdf.Triple) bool {
		terms := idx.permute(t)
		for i := 0; i < prefix; i++ {
			if terms[i] != fixed[i] {
				return false
			}
		}
		if !matches(want, t) {
			return true
		}
		keepGoing = fn(t)
		return keepGoing
	})
	return keepGoing
}

func matches(want, t rdf.Triple) bool {
	return (want.Subject == nil || want.Subject == t.Subject) &&
		(want.Predicate == nil || want.Predicate == t.Predicate) &&
		(want.Object == nil || want.Object == t.Object)
}

// Store is a thread-safe collection of graphs. Use View to query it.
type Store struct {
	lock sync.RWMutex
	// def is the default graph.
	def *graph
	// named holds the named graphs. Graphs remain named after all their
	// triples are removed.
	named map[rdf.IRI]*graph
}

// New returns an empty store.
func New() *Store {
	return &Store{
		def:   newGraph(),
		named: make(map[rdf.IRI]*graph),
	}
}

// graph returns the graph with the given name, where "" is the default graph.
// The caller must hold the lock.
func (s *Store) graph(name rdf.IRI, create bool) *graph {
	if name == "" {
		return s.def
	}
	g := s.named[name]
	if g == nil && create {
		g = newGraph()
		s.named[name] = g
	}
	return g
}

// Add inserts triples into the named graph, or into the default graph if name
// is "". It returns how many triples weren't already present.
func (s *Store) Add(name rdf.IRI, triples ...rdf.Triple) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	g := s.graph(name, true)
	added := 0
	for _, t := range triples {
		if t.Subject == nil || t.Predicate == nil || t.Object == nil {
			logrus.Panicf("memstore.Add: triple with nil term: %#v", t)
		}
		if g.add(t) {
			added++
		}
	}
	return added
}

// Remove deletes triples from the named graph, or from the default graph if
// name is "". It returns how many triples were present.
func (s *Store) Remove(name rdf.IRI, triples ...rdf.Triple) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	g := s.graph(name, false)
	if g == nil {
		return 0
	}
	removed := 0
	for _, t := range triples {
		if g.remove(t) {
			removed++
		}
	}
	return removed
}

// Len returns the number of triples in the named graph, or in the default
// graph if name is "".
func (s *Store) Len(name rdf.IRI) int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	g := s.graph(name, false)
	if g == nil {
		return 0
	}
	return g.len()
}

// View returns a new dataset over the store whose active scope is the default
// graph. Views are cheap; each query execution should use its own.
func (s *Store) View() *View {
	return &View{store: s}
}

// View is a dataset.Dataset over a Store. It isn't safe for concurrent use,
// since its active scope is mutable; the Store itself may be shared.
type View struct {
	store *Store
	// active is the list of graphs in the active scope. nil means the default
	// graph.
	active []rdf.IRI
}

// SetActiveGraphs implements dataset.Dataset. Names that aren't in the store
// contribute no triples.
func (v *View) SetActiveGraphs(ctx context.Context, graphs ...rdf.IRI) error {
	if len(graphs) == 0 {
		v.active = nil
		return nil
	}
	v.active = append([]rdf.IRI(nil), graphs...)
	return nil
}

// ActiveGraphs returns the graphs in the active scope, or nil for the default
// graph.
func (v *View) ActiveGraphs() []rdf.IRI {
	return v.active
}

// scope returns the graphs of the active scope. The caller must hold the
// store's lock.
func (v *View) scope() []*graph {
	if v.active == nil {
		return []*graph{v.store.def}
	}
	graphs := make([]*graph, 0, len(v.active))
	seen := make(map[rdf.IRI]bool, len(v.active))
	for _, name := range v.active {
		if seen[name] {
			continue
		}
		seen[name] = true
		if g := v.store.named[name]; g != nil {
			graphs = append(graphs, g)
		}
	}
	return graphs
}

// Find implements dataset.Dataset. When the active scope spans more than one
// graph, a triple present in several of them is reported once.
func (v *View) Find(ctx context.Context, s, p, o rdf.Term, fn func(rdf.Triple) bool) error {
	v.store.lock.RLock()
	defer v.store.lock.RUnlock()
	graphs := v.scope()
	if len(graphs) == 1 {
		graphs[0].find(s, p, o, fn)
		return nil
	}
	seen := make(map[rdf.Triple]struct{})
	for _, g := range graphs {
		more := g.find(s, p, o, func(t rdf.Triple) bool {
			if _, dup := seen[t]; dup {
				return true
			}
			seen[t] = struct{}{}
			return fn(t)
		})
		if !more {
			return nil
		}
	}
	return nil
}

// Contains implements dataset.Dataset.
func (v *View) Contains(ctx context.Context, t rdf.Triple) (bool, error) {
	v.store.lock.RLock()
	defer v.store.lock.RUnlock()
	for _, g := range v.scope() {
		if g.contains(t) {
			return true, nil
		}
	}
	return false, nil
}

// GraphNames implements dataset.Dataset. The names are sorted.
func (v *View) GraphNames(ctx context.Context) ([]rdf.IRI, error) {
	v.store.lock.RLock()
	defer v.store.lock.RUnlock()
	names := make([]rdf.IRI, 0, len(v.store.named))
	for name := range v.store.named {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return names[i] < names[j]
	})
	return names, nil
}
