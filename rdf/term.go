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

// Package rdf defines the small RDF term model that the query evaluation core
// works with: IRIs, blank nodes, literals and triples. Terms are comparable Go
// values, so two terms are the same RDF term exactly when they're ==.
package rdf

import (
	"strconv"
	"strings"

	"github.com/ebay/akutan-sparql/util/cmp"
)

// Well-known datatype IRIs.
const (
	XSDString  IRI = "http://www.w3.org/2001/XMLSchema#string"
	XSDInteger IRI = "http://www.w3.org/2001/XMLSchema#integer"
	XSDDecimal IRI = "http://www.w3.org/2001/XMLSchema#decimal"
	XSDDouble  IRI = "http://www.w3.org/2001/XMLSchema#double"
	XSDBoolean IRI = "http://www.w3.org/2001/XMLSchema#boolean"
	LangString IRI = "http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"
)

// A Term is an RDF term. Every Term is an IRI, a BlankNode, or a Literal.
type Term interface {
	String() string
	cmp.Key
	aTerm()
}

// ImplementTerm is a list of types that implement Term. This serves as
// documentation and as a compile-time check.
var ImplementTerm = []Term{
	IRI(""),
	BlankNode(""),
	Literal{},
}

// An IRI identifies a resource. It's also used to name graphs.
type IRI string

func (IRI) aTerm() {}

// String returns a string like "<http://example.org/a>".
func (iri IRI) String() string {
	return "<" + string(iri) + ">"
}

// Key implements cmp.Key.
func (iri IRI) Key(b *strings.Builder) {
	b.WriteByte('<')
	b.WriteString(string(iri))
	b.WriteByte('>')
}

// A BlankNode is a locally scoped anonymous resource.
type BlankNode string

func (BlankNode) aTerm() {}

// String returns a string like "_:b0".
func (bn BlankNode) String() string {
	return "_:" + string(bn)
}

// Key implements cmp.Key.
func (bn BlankNode) Key(b *strings.Builder) {
	b.WriteString("_:")
	b.WriteString(string(bn))
}

// A Literal is a lexical value with a datatype and, for language-tagged
// strings, a language.
type Literal struct {
	Lexical  string
	Datatype IRI
	Language string
}

func (Literal) aTerm() {}

// NewString returns a plain xsd:string literal.
func NewString(s string) Literal {
	return Literal{Lexical: s, Datatype: XSDString}
}

// NewLangString returns a language-tagged string literal.
func NewLangString(s, lang string) Literal {
	return Literal{Lexical: s, Datatype: LangString, Language: strings.ToLower(lang)}
}

// NewInteger returns an xsd:integer literal.
func NewInteger(i int64) Literal {
	return Literal{Lexical: strconv.FormatInt(i, 10), Datatype: XSDInteger}
}

// NewDouble returns an xsd:double literal.
func NewDouble(f float64) Literal {
	return Literal{Lexical: strconv.FormatFloat(f, 'g', -1, 64), Datatype: XSDDouble}
}

// NewBoolean returns an xsd:boolean literal.
func NewBoolean(v bool) Literal {
	return Literal{Lexical: strconv.FormatBool(v), Datatype: XSDBoolean}
}

// Numeric returns the value of a numeric literal. It returns false if the
// literal isn't numeric or its lexical form doesn't parse.
func (l Literal) Numeric() (float64, bool) {
	switch l.Datatype {
	case XSDInteger, XSDDecimal, XSDDouble:
		f, err := strconv.ParseFloat(l.Lexical, 64)
		return f, err == nil
	}
	return 0, false
}

// Boolean returns the value of an xsd:boolean literal. It returns false for
// ok if the literal isn't a valid boolean.
func (l Literal) Boolean() (value bool, ok bool) {
	if l.Datatype != XSDBoolean {
		return false, false
	}
	v, err := strconv.ParseBool(l.Lexical)
	return v, err == nil
}

// String returns a string like `"chat"@fr` or `"12"^^<...#integer>`. Plain
// xsd:string literals are written without a datatype.
func (l Literal) String() string {
	return cmp.GetKey(l)
}

// Key implements cmp.Key.
func (l Literal) Key(b *strings.Builder) {
	b.WriteString(strconv.Quote(l.Lexical))
	switch {
	case l.Language != "":
		b.WriteByte('@')
		b.WriteString(l.Language)
	case l.Datatype != "" && l.Datatype != XSDString:
		b.WriteString("^^")
		l.Datatype.Key(b)
	}
}

// A Triple is a statement about a subject.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// String returns a string like "<s> <p> <o> .".
func (t Triple) String() string {
	return cmp.GetKey(t)
}

// Key implements cmp.Key.
func (t Triple) Key(b *strings.Builder) {
	t.Subject.Key(b)
	b.WriteByte(' ')
	t.Predicate.Key(b)
	b.WriteByte(' ')
	t.Object.Key(b)
	b.WriteString(" .")
}
