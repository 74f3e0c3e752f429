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

// Package binding holds the solutions produced while evaluating an algebra
// tree. A Multiset is a collection of rows, each with a stable ID, and a Binder
// is the read-only accessor operators use to look up a variable's value in a
// row.
//
// Bindings are open-world: a variable missing from a row is unbound, which is
// a normal value and never an error. Asking about an ID that isn't in the
// multiset is a bug in the caller and is reported as ErrIdentityNotFound.
package binding

import (
	"sort"
	"strings"

	"github.com/ebay/akutan-sparql/query/algebra"
	"github.com/ebay/akutan-sparql/rdf"
	"github.com/pkg/errors"
)

// ErrIdentityNotFound is returned (possibly wrapped) when a lookup names an ID
// that the multiset never issued.
var ErrIdentityNotFound = errors.New("binding identity not found")

// An ID identifies a row within a single Multiset. IDs are issued in
// increasing order starting from 0 and are never reused or changed.
type ID uint32

// A Row maps variable names to the terms they're bound to. A variable that's
// absent from the map is unbound.
type Row map[string]rdf.Term

// Copy returns a shallow copy of the row, without any nil entries.
func (r Row) Copy() Row {
	c := make(Row, len(r))
	for k, v := range r {
		if v != nil {
			c[k] = v
		}
	}
	return c
}

// Key implements cmp.Key. Variables are written in name order, so two rows
// have the same key exactly when they hold the same bindings.
func (r Row) Key(b *strings.Builder) {
	names := make([]string, 0, len(r))
	for k, v := range r {
		if v != nil {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	for i, name := range names {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte('?')
		b.WriteString(name)
		b.WriteByte('=')
		r[name].Key(b)
	}
}

// Compatible returns true if every variable bound in both rows is bound to the
// same term.
func Compatible(a, b Row) bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	for k, av := range a {
		if bv, ok := b[k]; ok && av != nil && bv != nil && av != bv {
			return false
		}
	}
	return true
}

// SharesVariable returns true if some variable is bound in both rows.
func SharesVariable(a, b Row) bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	for k, av := range a {
		if av != nil && b[k] != nil {
			return true
		}
	}
	return false
}

// Merge returns a new row holding the bindings of both rows. The rows should
// be Compatible; if they aren't, b's values win.
func Merge(a, b Row) Row {
	m := make(Row, len(a)+len(b))
	for k, v := range a {
		if v != nil {
			m[k] = v
		}
	}
	for k, v := range b {
		if v != nil {
			m[k] = v
		}
	}
	return m
}

// Value is the result of looking up a variable in a row. The zero Value is
// unbound.
type Value struct {
	Term rdf.Term
}

// Unbound is the value of a variable that has no binding in a row.
var Unbound = Value{}

// Bound returns true if the variable had a value.
func (v Value) Bound() bool {
	return v.Term != nil
}

// String returns the term's string form, or "UNDEF" if unbound.
func (v Value) String() string {
	if v.Term == nil {
		return "UNDEF"
	}
	return v.Term.String()
}

// A Multiset is a collection of rows, where duplicates are allowed. It's not
// safe for concurrent use; each query execution owns its multisets.
type Multiset struct {
	// rows[id] is the row with that ID.
	rows []Row
	vars map[string]*algebra.Variable
}

// New returns an empty Multiset.
func New() *Multiset {
	return &Multiset{vars: make(map[string]*algebra.Variable)}
}

// FromRows returns a Multiset containing the given rows, in order.
func FromRows(rows ...Row) *Multiset {
	m := New()
	for _, r := range rows {
		m.Insert(r)
	}
	return m
}

// Insert adds a copy of row to the multiset and returns its new ID.
func (m *Multiset) Insert(row Row) ID {
	row = row.Copy()
	for name := range row {
		if _, exists := m.vars[name]; !exists {
			m.vars[name] = algebra.Var(name)
		}
	}
	id := ID(len(m.rows))
	m.rows = append(m.rows, row)
	return id
}

// Len returns the number of rows in the multiset.
func (m *Multiset) Len() int {
	return len(m.rows)
}

// IDs returns the IDs of every row, in insertion order.
func (m *Multiset) IDs() []ID {
	ids := make([]ID, len(m.rows))
	for i := range m.rows {
		ids[i] = ID(i)
	}
	return ids
}

// Variables returns the union of the variables bound by any row.
func (m *Multiset) Variables() algebra.VarSet {
	return algebra.NewVarSet(m.vars)
}

func (m *Multiset) lookup(id ID) (Row, error) {
	if int(id) >= len(m.rows) {
		return nil, errors.Wrapf(ErrIdentityNotFound, "id %d in multiset of %d rows", id, len(m.rows))
	}
	return m.rows[id], nil
}

// Value returns the value of v in the row with the given ID. It returns
// Unbound if the row doesn't bind v.
func (m *Multiset) Value(v *algebra.Variable, id ID) (Value, error) {
	row, err := m.lookup(id)
	if err != nil {
		return Unbound, err
	}
	return Value{Term: row[v.Name]}, nil
}

// Row returns a copy of the row with the given ID.
func (m *Multiset) Row(id ID) (Row, error) {
	row, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return row.Copy(), nil
}

// Each calls fn for every row in insertion order, until fn returns false. The
// row passed to fn must not be modified.
func (m *Multiset) Each(fn func(id ID, row Row) bool) {
	for i, row := range m.rows {
		if !fn(ID(i), row) {
			return
		}
	}
}

// String returns a multi-line description of the rows, for debugging and
// tests.
func (m *Multiset) String() string {
	var b strings.Builder
	for i, row := range m.rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		row.Key(&b)
	}
	return b.String()
}
