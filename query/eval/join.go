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

package eval

import (
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/ebay/akutan-sparql/query/algebra"
	"github.com/ebay/akutan-sparql/query/binding"
	"github.com/ebay/akutan-sparql/query/pattern"
	"github.com/ebay/akutan-sparql/rdf"
	"github.com/ebay/akutan-sparql/util/cmp"
)

func patternContext(row binding.Row, options Options) pattern.RowContext {
	return pattern.RowContext{Row: row, Rigorous: options.Rigorous}
}

func matchPattern(c *Context, pc pattern.Context, tp algebra.TriplePattern, fn func(binding.Row) bool) error {
	return pattern.Match(c.ctx, pc, c.dataset, tp, fn)
}

// joinKey returns the values of vars in the row, concatenated. It returns
// false if any of them is unbound.
func joinKey(row binding.Row, vars algebra.VarSet) (string, bool) {
	var b strings.Builder
	for _, v := range vars {
		t := row[v.Name]
		if t == nil {
			return "", false
		}
		t.Key(&b)
		b.WriteByte(0)
	}
	return b.String(), true
}

// joinIndex holds the rows of one side of a join, hashed on the join
// variables. Rows that leave a join variable unbound can't be hashed; they're
// checked against every row of the other side.
type joinIndex struct {
	vars  algebra.VarSet
	keyed map[string][]binding.Row
	loose []binding.Row
	all   []binding.Row
}

func newJoinIndex(m *binding.Multiset, vars algebra.VarSet) *joinIndex {
	idx := &joinIndex{
		vars:  vars,
		keyed: make(map[string][]binding.Row),
	}
	m.Each(func(_ binding.ID, row binding.Row) bool {
		idx.all = append(idx.all, row)
		if key, ok := joinKey(row, vars); ok {
			idx.keyed[key] = append(idx.keyed[key], row)
		} else {
			idx.loose = append(idx.loose, row)
		}
		return true
	})
	return idx
}

// compatible calls fn for each indexed row that's compatible with row.
func (idx *joinIndex) compatible(row binding.Row, fn func(binding.Row)) {
	key, ok := joinKey(row, idx.vars)
	if !ok {
		for _, r := range idx.all {
			if binding.Compatible(row, r) {
				fn(r)
			}
		}
		return
	}
	for _, r := range idx.keyed[key] {
		fn(r)
	}
	for _, r := range idx.loose {
		if binding.Compatible(row, r) {
			fn(r)
		}
	}
}

// hashJoin calls emit for every pair of compatible rows from left and right.
func hashJoin(left, right *binding.Multiset, emit func(l, r binding.Row)) {
	idx := newJoinIndex(right, left.Variables().Intersect(right.Variables()))
	left.Each(func(_ binding.ID, l binding.Row) bool {
		idx.compatible(l, func(r binding.Row) {
			emit(l, r)
		})
		return true
	})
}

func rowKey(row binding.Row) string {
	return cmp.GetKey(row)
}

// rowSet tracks which rows have been seen. Rows are hashed by their key; the
// keys are kept to tell apart rows whose hashes collide.
type rowSet struct {
	seen map[uint64][]string
}

func newRowSet() *rowSet {
	return &rowSet{seen: make(map[uint64][]string)}
}

// add returns true if the row wasn't already in the set.
func (s *rowSet) add(row binding.Row) bool {
	key := rowKey(row)
	return s.addKey(xxhash.Sum64String(key), key)
}

func (s *rowSet) addKey(hash uint64, key string) bool {
	for _, k := range s.seen[hash] {
		if k == key {
			return false
		}
	}
	s.seen[hash] = append(s.seen[hash], key)
	return true
}

// sortRows stably sorts rows by the conditions, in order.
func sortRows(rows []binding.Row, conditions []algebra.OrderCondition) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, cond := range conditions {
			c := rdf.Compare(rows[i][cond.On.Name], rows[j][cond.On.Name])
			if c == 0 {
				continue
			}
			if cond.Direction == algebra.SortDesc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}
