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
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/ebay/akutan-sparql/dataset"
	"github.com/ebay/akutan-sparql/dataset/explain"
	"github.com/ebay/akutan-sparql/dataset/memstore"
	"github.com/ebay/akutan-sparql/query/algebra"
	"github.com/ebay/akutan-sparql/query/binding"
	"github.com/ebay/akutan-sparql/query/cost"
	"github.com/ebay/akutan-sparql/query/shape"
	"github.com/ebay/akutan-sparql/rdf"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ex = "http://example.org/"

var (
	alice = rdf.IRI(ex + "alice")
	bob   = rdf.IRI(ex + "bob")
	carol = rdf.IRI(ex + "carol")
	g1    = rdf.IRI(ex + "g1")
	g2    = rdf.IRI(ex + "g2")
	g3    = rdf.IRI(ex + "g3")
	knows = rdf.IRI("http://xmlns.com/foaf/0.1/knows")
	name  = rdf.IRI("http://xmlns.com/foaf/0.1/name")

	vs, vp, vo, vg = algebra.Var("s"), algebra.Var("p"), algebra.Var("o"), algebra.Var("g")
)

func tr(s, p, o rdf.Term) rdf.Triple {
	return rdf.Triple{Subject: s, Predicate: p, Object: o}
}

func newStore() *memstore.Store {
	store := memstore.New()
	store.Add("",
		tr(alice, knows, bob),
		tr(alice, name, rdf.NewString("Alice")),
		tr(bob, knows, carol),
		tr(bob, name, rdf.NewString("Bob")),
	)
	store.Add(g2, tr(carol, knows, alice))
	store.Add(g3, tr(bob, knows, alice))
	store.Add(g1, tr(alice, knows, carol))
	store.Remove(g3, tr(bob, knows, alice))
	return store
}

func spo() *algebra.BGP {
	return &algebra.BGP{Patterns: []algebra.TriplePattern{{Subject: vs, Predicate: vp, Object: vo}}}
}

func distinctGraphsQuery() *Query {
	return &Query{
		Type: shape.SelectDistinct,
		Pattern: &algebra.Distinct{Input: &algebra.Project{
			Vars:  []*algebra.Variable{vg},
			Input: &algebra.Graph{Name: vg, Input: spo()},
		}},
	}
}

func rowKeys(m *binding.Multiset) string {
	if m == nil {
		return "<nil>"
	}
	return m.String()
}

func execute(t *testing.T, q *Query, ds dataset.Dataset, opts Options) *Result {
	t.Helper()
	res, err := New(nil).Execute(context.Background(), q, ds, opts)
	require.NoError(t, err)
	return res
}

func Test_DistinctGraphsFastPath(t *testing.T) {
	store := newStore()
	before := testutil.ToFloat64(metrics.fastPathsTotal.WithLabelValues("DistinctGraphs"))
	fast := execute(t, distinctGraphsQuery(), store.View(), Options{FastPaths: true})
	slow := execute(t, distinctGraphsQuery(), store.View(), Options{})
	assert.Equal(t, shape.DistinctGraphs, fast.Special)
	assert.Equal(t, shape.SpecialUnknown, slow.Special)
	assert.Equal(t, rowKeys(slow.Solutions), rowKeys(fast.Solutions))
	assert.Equal(t, "?g=<http://example.org/g1>\n?g=<http://example.org/g2>", rowKeys(fast.Solutions))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.fastPathsTotal.WithLabelValues("DistinctGraphs")))
	assert.Equal(t, shape.FormSolutions, fast.Form)
	assert.NotEqual(t, fast.ID, slow.ID)
}

func Test_AskAnyTriplesFastPath(t *testing.T) {
	ask := &Query{Type: shape.Ask, Pattern: spo()}
	for _, store := range []*memstore.Store{newStore(), memstore.New()} {
		fast := execute(t, ask, store.View(), Options{FastPaths: true})
		slow := execute(t, ask, store.View(), Options{})
		assert.Equal(t, shape.AskAnyTriples, fast.Special)
		assert.Equal(t, slow.Boolean, fast.Boolean)
		assert.Equal(t, store.Len("") > 0, fast.Boolean)
		assert.Equal(t, shape.FormBoolean, fast.Form)
		assert.Nil(t, fast.Solutions)
	}
}

func Test_FastPathsWithGraphScope(t *testing.T) {
	// an emptied default graph, with triples only in named graphs
	store := memstore.New()
	store.Add(g1, tr(alice, knows, bob))
	ask := &Query{Type: shape.Ask, Pattern: spo()}
	assert.False(t, execute(t, ask, store.View(), Options{FastPaths: true}).Boolean)
	assert.False(t, execute(t, ask, store.View(), Options{}).Boolean)
}

func Test_NotApplicable(t *testing.T) {
	q := &Query{Type: shape.Select, Pattern: &algebra.Project{Vars: []*algebra.Variable{vs}, Input: spo()}}
	res := execute(t, q, newStore().View(), Options{FastPaths: true})
	assert.Equal(t, shape.NotApplicable, res.Special)
	assert.Equal(t, 4, res.Solutions.Len())
}

func Test_ExplainTrace(t *testing.T) {
	sink := new(bytes.Buffer)
	execute(t, distinctGraphsQuery(), newStore().View(), Options{
		FastPaths: true,
		Explain: &explain.Config{
			Capabilities: explain.NewCapabilities(explain.TraceGraphSwitches, explain.TraceFastPaths),
			Sink:         sink,
		},
	})
	assert.Equal(t, `active graph: <http://example.org/g1>
active graph: <http://example.org/g2>
active graph: <http://example.org/g3>
active graphs: default graph
fast path DistinctGraphs: 2 of 3 named graphs hold triples
`, sink.String())

	sink.Reset()
	execute(t, distinctGraphsQuery(), newStore().View(), Options{
		Explain: &explain.Config{Capabilities: explain.NewCapabilities(explain.TraceFastPaths), Sink: sink},
	})
	assert.Empty(t, sink.String())
}

func Test_Construct(t *testing.T) {
	q := &Query{
		Type: shape.Construct,
		Pattern: &algebra.LeftJoin{
			Left: &algebra.BGP{Patterns: []algebra.TriplePattern{
				{Subject: vs, Predicate: algebra.Const(knows), Object: vo},
			}},
			Right: &algebra.BGP{Patterns: []algebra.TriplePattern{
				{Subject: vs, Predicate: algebra.Const(name), Object: algebra.Var("n")},
			}},
		},
		Template: []algebra.TriplePattern{
			{Subject: vo, Predicate: algebra.Const(rdf.IRI(ex + "knownBy")), Object: vs},
			{Subject: algebra.Const(rdf.BlankNode("b")), Predicate: algebra.Const(name), Object: algebra.Var("n")},
			{Subject: algebra.Var("n"), Predicate: algebra.Const(name), Object: vs},
			{Subject: vo, Predicate: algebra.Const(rdf.IRI(ex + "known")), Object: algebra.Const(rdf.NewBoolean(true))},
		},
	}
	before := testutil.ToFloat64(metrics.constructedTriplesTotal)
	res := execute(t, q, newStore().View(), Options{})
	assert.Equal(t, shape.FormGraph, res.Form)
	var got []string
	for _, triple := range res.Triples {
		got = append(got, triple.String())
	}
	assert.Equal(t, []string{
		`<http://example.org/bob> <http://example.org/knownBy> <http://example.org/alice> .`,
		`_:b_0 <http://xmlns.com/foaf/0.1/name> "Alice" .`,
		`<http://example.org/bob> <http://example.org/known> "true"^^<http://www.w3.org/2001/XMLSchema#boolean> .`,
		`<http://example.org/carol> <http://example.org/knownBy> <http://example.org/bob> .`,
		`_:b_1 <http://xmlns.com/foaf/0.1/name> "Bob" .`,
		`<http://example.org/carol> <http://example.org/known> "true"^^<http://www.w3.org/2001/XMLSchema#boolean> .`,
	}, got)
	assert.Equal(t, before+6, testutil.ToFloat64(metrics.constructedTriplesTotal))
}

func Test_ConstructKeepsDataBlankNodesApart(t *testing.T) {
	store := memstore.New()
	store.Add("",
		tr(rdf.BlankNode("b_0"), name, rdf.NewString("data")),
		tr(rdf.BlankNode("b_0_1"), name, rdf.NewString("more data")),
	)
	q := &Query{
		Type: shape.Construct,
		Pattern: &algebra.BGP{Patterns: []algebra.TriplePattern{
			{Subject: vs, Predicate: algebra.Const(name), Object: vo},
		}},
		Template: []algebra.TriplePattern{
			{Subject: algebra.Const(rdf.BlankNode("b")), Predicate: algebra.Const(knows), Object: vs},
			{Subject: algebra.Const(rdf.BlankNode("b")), Predicate: algebra.Const(name), Object: vo},
		},
	}
	res := execute(t, q, store.View(), Options{})
	var got []string
	for _, triple := range res.Triples {
		got = append(got, triple.String())
	}
	assert.Equal(t, []string{
		`_:b_0_2 <http://xmlns.com/foaf/0.1/knows> _:b_0 .`,
		`_:b_0_2 <http://xmlns.com/foaf/0.1/name> "data" .`,
		`_:b_1 <http://xmlns.com/foaf/0.1/knows> _:b_0_1 .`,
		`_:b_1 <http://xmlns.com/foaf/0.1/name> "more data" .`,
	}, got)
}

func Test_Describe(t *testing.T) {
	describe := &Query{
		Type:     shape.Describe,
		Describe: []algebra.Term{algebra.Const(carol), vo, algebra.Const(rdf.NewString("not a resource"))},
		Pattern: &algebra.BGP{Patterns: []algebra.TriplePattern{
			{Subject: algebra.Const(alice), Predicate: algebra.Const(knows), Object: vo},
		}},
	}
	res := execute(t, describe, newStore().View(), Options{})
	assert.Equal(t, []rdf.Triple{
		tr(bob, knows, carol),
		tr(bob, name, rdf.NewString("Bob")),
	}, res.Triples)

	noWhere := &Query{Type: shape.Describe, Describe: []algebra.Term{algebra.Const(alice)}}
	res = execute(t, noWhere, newStore().View(), Options{FastPaths: true})
	assert.Equal(t, []rdf.Triple{
		tr(alice, knows, bob),
		tr(alice, name, rdf.NewString("Alice")),
	}, res.Triples)

	all := &Query{
		Type: shape.DescribeAll,
		Pattern: &algebra.BGP{Patterns: []algebra.TriplePattern{
			{Subject: vs, Predicate: algebra.Const(knows), Object: algebra.Const(carol)},
		}},
	}
	res = execute(t, all, newStore().View(), Options{})
	assert.Equal(t, []rdf.Triple{
		tr(bob, knows, carol),
		tr(bob, name, rdf.NewString("Bob")),
	}, res.Triples)
}

// failingDataset fails every lookup.
type failingDataset struct {
	dataset.Dataset
}

var errStorage = errors.New("storage failure")

func (failingDataset) Find(context.Context, rdf.Term, rdf.Term, rdf.Term, func(rdf.Triple) bool) error {
	return errStorage
}

func Test_ErrorsPassThrough(t *testing.T) {
	before := testutil.ToFloat64(metrics.failuresTotal.WithLabelValues("Ask"))
	ds := failingDataset{newStore().View()}
	for _, fastPaths := range []bool{true, false} {
		_, err := New(nil).Execute(context.Background(), &Query{Type: shape.Ask, Pattern: spo()}, ds,
			Options{FastPaths: fastPaths})
		assert.Equal(t, errStorage, err)
	}
	_, err := New(nil).Execute(context.Background(), distinctGraphsQuery(), ds, Options{FastPaths: true})
	assert.Equal(t, errStorage, err)
	assert.Equal(t, before+2, testutil.ToFloat64(metrics.failuresTotal.WithLabelValues("Ask")))
}

func Test_Spans(t *testing.T) {
	tracer := mocktracer.New()
	opentracing.SetGlobalTracer(tracer)
	defer opentracing.SetGlobalTracer(opentracing.NoopTracer{})

	execute(t, distinctGraphsQuery(), newStore().View(), Options{FastPaths: true})
	execute(t, distinctGraphsQuery(), newStore().View(), Options{})
	var names []string
	for _, span := range tracer.FinishedSpans() {
		names = append(names, span.OperationName)
	}
	assert.Equal(t, []string{
		"classify query", "fast path", "execute query",
		"evaluate query", "execute query",
	}, names)
	spans := tracer.FinishedSpans()
	assert.Equal(t, spans[2].SpanContext.SpanID, spans[1].ParentID)
	assert.Equal(t, "DistinctGraphs", spans[1].Tag("special"))
}

func Test_StatsProvider(t *testing.T) {
	calls := 0
	e := New(func(ctx context.Context, ds dataset.Dataset) (cost.Stats, error) {
		calls++
		if calls == 2 {
			return cost.Stats{}, errors.New("no stats")
		}
		return cost.Stats{Triples: 4, Graphs: 3}, nil
	})
	q := &Query{Type: shape.Select, Pattern: spo()}
	for i := 0; i < 2; i++ {
		res, err := e.Execute(context.Background(), q, newStore().View(), Options{})
		require.NoError(t, err)
		assert.Equal(t, 4, res.Solutions.Len())
	}
	sorted := &Query{Type: shape.Select, Pattern: &algebra.OrderBy{
		Conditions: []algebra.OrderCondition{{On: vs}},
		Input:      spo(),
	}}
	_, err := e.Execute(context.Background(), sorted, newStore().View(), Options{})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}
