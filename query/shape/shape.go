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

// Package shape describes the overall form of a query: what kind of result it
// produces, and whether it matches one of the patterns that have a faster way
// to compute the same answer.
package shape

import (
	"fmt"

	"github.com/ebay/akutan-sparql/query/algebra"
)

// QueryType is the top-level form of a query. It's set once, from the query's
// syntax, and decides the form of the result.
type QueryType int

// Query types. Unknown is the zero value, for queries whose type hasn't been
// set.
const (
	Unknown QueryType = iota
	Ask
	Construct
	Describe
	DescribeAll
	Select
	SelectDistinct
	SelectReduced
	SelectAll
)

var queryTypeNames = [...]string{
	Unknown:        "Unknown",
	Ask:            "Ask",
	Construct:      "Construct",
	Describe:       "Describe",
	DescribeAll:    "DescribeAll",
	Select:         "Select",
	SelectDistinct: "SelectDistinct",
	SelectReduced:  "SelectReduced",
	SelectAll:      "SelectAll",
}

func (t QueryType) String() string {
	if t >= 0 && int(t) < len(queryTypeNames) {
		return queryTypeNames[t]
	}
	return fmt.Sprintf("QueryType(%d)", int(t))
}

// IsSelect returns true for Select and its variants.
func (t QueryType) IsSelect() bool {
	switch t {
	case Select, SelectDistinct, SelectReduced, SelectAll:
		return true
	}
	return false
}

// ResultForm is the kind of result a query produces.
type ResultForm int

// Result forms.
const (
	// FormSolutions is a sequence of variable bindings.
	FormSolutions ResultForm = iota
	// FormBoolean is a single true or false.
	FormBoolean
	// FormGraph is a set of triples.
	FormGraph
)

func (f ResultForm) String() string {
	switch f {
	case FormBoolean:
		return "Boolean"
	case FormGraph:
		return "Graph"
	}
	return "Solutions"
}

// ResultForm returns the form of result that queries of this type produce.
func (t QueryType) ResultForm() ResultForm {
	switch t {
	case Ask:
		return FormBoolean
	case Construct, Describe, DescribeAll:
		return FormGraph
	}
	return FormSolutions
}

// SpecialType identifies queries that match a pattern with a specialized
// evaluation. A specialized evaluation must produce exactly the same results
// as general evaluation; it's only ever an optimization.
type SpecialType int

// Special types. SpecialUnknown is the zero value, for queries that haven't
// been examined.
const (
	SpecialUnknown SpecialType = iota
	// NotApplicable is for queries that match no special pattern.
	NotApplicable
	// DistinctGraphs is SELECT DISTINCT ?g WHERE { GRAPH ?g { ?s ?p ?o } }.
	// It's the list of named graphs that hold at least one triple.
	DistinctGraphs
	// AskAnyTriples is ASK WHERE { ?s ?p ?o }. It's true when the active
	// graph holds at least one triple.
	AskAnyTriples
)

func (t SpecialType) String() string {
	switch t {
	case SpecialUnknown:
		return "Unknown"
	case NotApplicable:
		return "NotApplicable"
	case DistinctGraphs:
		return "DistinctGraphs"
	case AskAnyTriples:
		return "AskAnyTriples"
	}
	return fmt.Sprintf("SpecialType(%d)", int(t))
}

// Classify returns the special type of a query with the given type and
// algebra tree. It never fails: any tree that doesn't match a special
// pattern is NotApplicable.
func Classify(qt QueryType, root algebra.Node) SpecialType {
	switch qt {
	case SelectDistinct:
		if isDistinctGraphs(root) {
			return DistinctGraphs
		}
	case Ask:
		if bgp, ok := root.(*algebra.BGP); ok {
			if _, ok := anyTriple(bgp, 3); ok {
				return AskAnyTriples
			}
		}
	}
	return NotApplicable
}

// isDistinctGraphs returns true for the tree
// Distinct(Project([?g], Graph(?g, BGP([?s ?p ?o])))), where the four
// variables are all different.
func isDistinctGraphs(root algebra.Node) bool {
	distinct, ok := root.(*algebra.Distinct)
	if !ok {
		return false
	}
	project, ok := distinct.Input.(*algebra.Project)
	if !ok || len(project.Vars) != 1 {
		return false
	}
	graph, ok := project.Input.(*algebra.Graph)
	if !ok {
		return false
	}
	graphVar, ok := graph.Name.(*algebra.Variable)
	if !ok || graphVar.Name != project.Vars[0].Name {
		return false
	}
	bgp, ok := graph.Input.(*algebra.BGP)
	if !ok {
		return false
	}
	vars, ok := anyTriple(bgp, 3)
	return ok && !vars.Contains(graphVar)
}

// anyTriple returns the pattern's variables if bgp is a single triple pattern
// made of n different variables.
func anyTriple(bgp *algebra.BGP, n int) (algebra.VarSet, bool) {
	if bgp == nil || len(bgp.Patterns) != 1 {
		return nil, false
	}
	tp := bgp.Patterns[0]
	for _, t := range tp.Terms() {
		if _, isVar := t.(*algebra.Variable); !isVar {
			return nil, false
		}
	}
	vars := tp.Vars()
	return vars, len(vars) == n
}

// Classification holds a query's type, fixed at construction, and its special
// type, which is computed on demand and then cached.
type Classification struct {
	queryType QueryType
	root      algebra.Node
	special   SpecialType
}

// NewClassification returns a Classification for a query with the given type
// and algebra tree. The special type isn't computed until Compute is called.
func NewClassification(qt QueryType, root algebra.Node) *Classification {
	return &Classification{queryType: qt, root: root}
}

// QueryType returns the query's type.
func (c *Classification) QueryType() QueryType {
	return c.queryType
}

// Special returns the special type, or SpecialUnknown if Compute hasn't been
// called yet.
func (c *Classification) Special() SpecialType {
	return c.special
}

// Compute classifies the query, if it hasn't been already, and returns its
// special type. Repeated calls return the same result.
func (c *Classification) Compute() SpecialType {
	if c.special == SpecialUnknown {
		c.special = Classify(c.queryType, c.root)
	}
	return c.special
}
