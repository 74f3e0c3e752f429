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
	"maps"
	"slices"
	"strings"

	"github.com/ebay/akutan-sparql/util/cmp"
)

// A VarSet is a set of variables, held as a slice of uniquely-named
// variables sorted by name.
type VarSet []*Variable

// NewVarSet returns the set of variables in the given map, which is keyed by
// variable name.
func NewVarSet(in map[string]*Variable) VarSet {
	return slices.SortedFunc(maps.Values(in), byName)
}

// VarSetOf returns the set of the given variables, which may repeat.
func VarSetOf(vars ...*Variable) VarSet {
	set := slices.SortedFunc(slices.Values(vars), byName)
	return slices.CompactFunc(set, func(a, b *Variable) bool {
		return a.Name == b.Name
	})
}

func byName(a, b *Variable) int {
	return strings.Compare(a.Name, b.Name)
}

// Contains reports whether v is in the set.
func (set VarSet) Contains(v *Variable) bool {
	return set.ContainsName(v.Name)
}

// ContainsName reports whether a variable named name is in the set.
func (set VarSet) ContainsName(name string) bool {
	_, found := slices.BinarySearchFunc(set, name, func(v *Variable, name string) int {
		return strings.Compare(v.Name, name)
	})
	return found
}

// mergeKeep selects which variables a merge of two sets keeps.
type mergeKeep struct {
	onlyLeft, both, onlyRight bool
}

// merge walks two sets in order and collects the variables selected by keep.
// Where both sets hold a name, the variable from set is kept.
func (set VarSet) merge(other VarSet, keep mergeKeep) VarSet {
	var out VarSet
	i, j := 0, 0
	for i < len(set) || j < len(other) {
		var c int
		switch {
		case i == len(set):
			c = 1
		case j == len(other):
			c = -1
		default:
			c = byName(set[i], other[j])
		}
		switch {
		case c < 0:
			if keep.onlyLeft {
				out = append(out, set[i])
			}
			i++
		case c > 0:
			if keep.onlyRight {
				out = append(out, other[j])
			}
			j++
		default:
			if keep.both {
				out = append(out, set[i])
			}
			i++
			j++
		}
	}
	return out
}

// Intersect returns the variables present in both sets.
func (set VarSet) Intersect(other VarSet) VarSet {
	return set.merge(other, mergeKeep{both: true})
}

// Union returns the variables present in either set.
func (set VarSet) Union(other VarSet) VarSet {
	return set.merge(other, mergeKeep{onlyLeft: true, both: true, onlyRight: true})
}

// Sub returns the variables in set that are not in other.
func (set VarSet) Sub(other VarSet) VarSet {
	return set.merge(other, mergeKeep{onlyLeft: true})
}

// Equal reports whether the two sets hold the same variable names.
func (set VarSet) Equal(other VarSet) bool {
	return slices.EqualFunc(set, other, func(a, b *Variable) bool {
		return a.Name == b.Name
	})
}

// Names returns the variable names in order.
func (set VarSet) Names() []string {
	names := make([]string, len(set))
	for i, v := range set {
		names[i] = v.Name
	}
	return names
}

// String returns the variables separated by spaces, like "?a ?b".
func (set VarSet) String() string {
	var b strings.Builder
	set.Key(&b)
	return b.String()
}

// Key implements cmp.Key.
func (set VarSet) Key(b *strings.Builder) {
	cmp.WriteKeys(b, " ", set)
}
