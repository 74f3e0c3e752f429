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

package rdf

import (
	"math"
	"strings"
)

// kindOrder ranks the kinds of terms: blank nodes sort before IRIs, which sort
// before literals. A nil Term (an unbound value) sorts before everything.
func kindOrder(t Term) int {
	switch t.(type) {
	case nil:
		return 0
	case BlankNode:
		return 1
	case IRI:
		return 2
	case Literal:
		return 3
	}
	return 4
}

// Compare defines a total order over terms, suitable for sorting results. It
// returns a negative number when a < b, zero when a == b, and a positive
// number when a > b. Numeric literals are ordered by value, with the lexical
// form breaking ties. NaN sorts after every other numeric value.
func Compare(a, b Term) int {
	ka, kb := kindOrder(a), kindOrder(b)
	if ka != kb {
		return ka - kb
	}
	switch a := a.(type) {
	case nil:
		return 0
	case BlankNode:
		return strings.Compare(string(a), string(b.(BlankNode)))
	case IRI:
		return strings.Compare(string(a), string(b.(IRI)))
	case Literal:
		return compareLiterals(a, b.(Literal))
	}
	return strings.Compare(a.String(), b.String())
}

func compareLiterals(a, b Literal) int {
	af, aNum := a.Numeric()
	bf, bNum := b.Numeric()
	switch {
	case aNum && bNum:
		aNaN, bNaN := math.IsNaN(af), math.IsNaN(bf)
		switch {
		case aNaN && !bNaN:
			return 1
		case bNaN && !aNaN:
			return -1
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
	case aNum:
		return -1
	case bNum:
		return 1
	}
	if c := strings.Compare(a.Lexical, b.Lexical); c != 0 {
		return c
	}
	if c := strings.Compare(string(a.Datatype), string(b.Datatype)); c != 0 {
		return c
	}
	return strings.Compare(a.Language, b.Language)
}
