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

package shape

import (
	"testing"

	"github.com/ebay/akutan-sparql/query/algebra"
	"github.com/ebay/akutan-sparql/rdf"
	"github.com/stretchr/testify/assert"
)

var (
	s, p, o, g = algebra.Var("s"), algebra.Var("p"), algebra.Var("o"), algebra.Var("g")
)

func bgp(patterns ...algebra.TriplePattern) *algebra.BGP {
	return &algebra.BGP{Patterns: patterns}
}

// distinctGraphs builds SELECT DISTINCT ?<projected> WHERE { GRAPH name { pattern } }.
func distinctGraphs(projected *algebra.Variable, name algebra.Term, pattern *algebra.BGP) algebra.Node {
	return &algebra.Distinct{Input: &algebra.Project{
		Vars:  []*algebra.Variable{projected},
		Input: &algebra.Graph{Name: name, Input: pattern},
	}}
}

func Test_Classify(t *testing.T) {
	knows := algebra.Const(rdf.IRI("http://xmlns.com/foaf/0.1/knows"))
	spo := bgp(algebra.TriplePattern{s, p, o})
	tests := []struct {
		name string
		qt   QueryType
		root algebra.Node
		exp  SpecialType
	}{
		{"distinct graphs", SelectDistinct, distinctGraphs(g, g, spo), DistinctGraphs},
		{"distinct graphs, fresh variable objects", SelectDistinct,
			distinctGraphs(algebra.Var("g"), algebra.Var("g"),
				bgp(algebra.TriplePattern{algebra.Var("s"), algebra.Var("p"), algebra.Var("o")})),
			DistinctGraphs},
		{"ask any", Ask, spo, AskAnyTriples},
		{"select", Select, &algebra.Project{Vars: []*algebra.Variable{s}, Input: spo}, NotApplicable},
		{"select over a bare bgp", Select, spo, NotApplicable},
		{"not distinct", Select, distinctGraphs(g, g, spo), NotApplicable},
		{"reduced", SelectReduced, distinctGraphs(g, g, spo), NotApplicable},
		{"projects another variable", SelectDistinct, distinctGraphs(s, g, spo), NotApplicable},
		{"constant graph", SelectDistinct,
			distinctGraphs(g, algebra.Const(rdf.IRI("http://example.org/g1")), spo), NotApplicable},
		{"graph variable reused", SelectDistinct,
			distinctGraphs(g, g, bgp(algebra.TriplePattern{g, p, o})), NotApplicable},
		{"repeated variable", SelectDistinct,
			distinctGraphs(g, g, bgp(algebra.TriplePattern{s, p, s})), NotApplicable},
		{"constant predicate", SelectDistinct,
			distinctGraphs(g, g, bgp(algebra.TriplePattern{s, knows, o})), NotApplicable},
		{"two patterns", SelectDistinct,
			distinctGraphs(g, g, bgp(algebra.TriplePattern{s, p, o}, algebra.TriplePattern{o, p, s})), NotApplicable},
		{"ask with constant", Ask, bgp(algebra.TriplePattern{s, knows, o}), NotApplicable},
		{"ask with repeat", Ask, bgp(algebra.TriplePattern{s, p, s}), NotApplicable},
		{"ask empty bgp", Ask, bgp(), NotApplicable},
		{"ask filtered", Ask, &algebra.Filter{Expr: &algebra.Bound{Var: s}, Input: spo}, NotApplicable},
		{"ask in graph", Ask, &algebra.Graph{Name: g, Input: spo}, NotApplicable},
		{"construct", Construct, spo, NotApplicable},
		{"unknown", Unknown, spo, NotApplicable},
		{"nil tree", Ask, nil, NotApplicable},
		{"nil bgp", Ask, (*algebra.BGP)(nil), NotApplicable},
		{"extra project vars", SelectDistinct, &algebra.Distinct{Input: &algebra.Project{
			Vars:  []*algebra.Variable{g, s},
			Input: &algebra.Graph{Name: g, Input: spo},
		}}, NotApplicable},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.exp, Classify(test.qt, test.root))
		})
	}
}

func Test_Classification(t *testing.T) {
	root := distinctGraphs(g, g, bgp(algebra.TriplePattern{s, p, o}))
	c := NewClassification(SelectDistinct, root)
	assert.Equal(t, SelectDistinct, c.QueryType())
	assert.Equal(t, SpecialUnknown, c.Special())
	assert.Equal(t, DistinctGraphs, c.Compute())
	assert.Equal(t, DistinctGraphs, c.Special())
	assert.Equal(t, DistinctGraphs, c.Compute())

	c = NewClassification(Select, root)
	assert.Equal(t, SpecialUnknown, c.Special())
	assert.Equal(t, NotApplicable, c.Compute())
	assert.Equal(t, NotApplicable, c.Compute())
}

func Test_QueryType(t *testing.T) {
	tests := []struct {
		qt       QueryType
		name     string
		isSelect bool
		form     ResultForm
	}{
		{Unknown, "Unknown", false, FormSolutions},
		{Ask, "Ask", false, FormBoolean},
		{Construct, "Construct", false, FormGraph},
		{Describe, "Describe", false, FormGraph},
		{DescribeAll, "DescribeAll", false, FormGraph},
		{Select, "Select", true, FormSolutions},
		{SelectDistinct, "SelectDistinct", true, FormSolutions},
		{SelectReduced, "SelectReduced", true, FormSolutions},
		{SelectAll, "SelectAll", true, FormSolutions},
	}
	for _, test := range tests {
		assert.Equal(t, test.name, test.qt.String())
		assert.Equal(t, test.isSelect, test.qt.IsSelect(), test.name)
		assert.Equal(t, test.form, test.qt.ResultForm(), test.name)
	}
	assert.Equal(t, "QueryType(42)", QueryType(42).String())
	assert.Equal(t, "QueryType(-1)", QueryType(-1).String())
	assert.Equal(t, "Boolean", FormBoolean.String())
	assert.Equal(t, "AskAnyTriples", AskAnyTriples.String())
	assert.Equal(t, "SpecialType(9)", SpecialType(9).String())
}
