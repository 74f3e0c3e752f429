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

package binding

import (
	"github.com/ebay/akutan-sparql/query/algebra"
)

// A Binder resolves the value of a variable in a row. Operators take a Binder
// rather than a Multiset so that the same lookups work whichever rows they're
// looking at. A Binder never modifies its rows.
type Binder interface {
	// Value returns the value of v in the row with the given ID, or Unbound.
	// It returns an error wrapping ErrIdentityNotFound if id isn't one of
	// BindingIDs().
	Value(v *algebra.Variable, id ID) (Value, error)
	// Variables returns the variables that may be bound in the rows.
	Variables() algebra.VarSet
	// BindingIDs returns the IDs of every row, in order.
	BindingIDs() []ID
}

// NewBinder returns a Binder over the rows of m.
func NewBinder(m *Multiset) Binder {
	return multisetBinder{rows: m}
}

type multisetBinder struct {
	rows *Multiset
}

func (b multisetBinder) Value(v *algebra.Variable, id ID) (Value, error) {
	return b.rows.Value(v, id)
}

func (b multisetBinder) Variables() algebra.VarSet {
	return b.rows.Variables()
}

func (b multisetBinder) BindingIDs() []ID {
	return b.rows.IDs()
}

// A LeftJoinBinder exposes the candidate rows of a left join to the join's
// filter expression. The probe multiset holds the merged left and right rows
// under consideration for one left row; the binder forwards every lookup to
// it unchanged. Whether a candidate is kept, and how unmatched left rows are
// emitted, is up to the join operator.
type LeftJoinBinder struct {
	probe *Multiset
}

// NewLeftJoinBinder returns a binder over the given probe multiset.
func NewLeftJoinBinder(probe *Multiset) *LeftJoinBinder {
	return &LeftJoinBinder{probe: probe}
}

// Value implements Binder.
func (b *LeftJoinBinder) Value(v *algebra.Variable, id ID) (Value, error) {
	return b.probe.Value(v, id)
}

// Variables implements Binder.
func (b *LeftJoinBinder) Variables() algebra.VarSet {
	return b.probe.Variables()
}

// BindingIDs implements Binder.
func (b *LeftJoinBinder) BindingIDs() []ID {
	return b.probe.IDs()
}
