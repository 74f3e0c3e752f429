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
	"math"
	"strings"

	"github.com/ebay/akutan-sparql/query/algebra"
	"github.com/ebay/akutan-sparql/query/binding"
	"github.com/ebay/akutan-sparql/rdf"
	"github.com/pkg/errors"
)

// errExpression is the cause of errors in evaluating an expression for a row,
// like referencing an unbound variable or comparing incomparable terms. These
// affect only that row; other errors abort evaluation.
var errExpression = errors.New("expression error")

func exprErrorf(format string, args ...interface{}) error {
	return errors.Wrapf(errExpression, format, args...)
}

func isExprError(err error) bool {
	return errors.Is(err, errExpression)
}

// filterPasses returns true if the expression's effective boolean value is
// true for the row. An expression error counts as false.
func filterPasses(e algebra.Expr, b binding.Binder, id binding.ID) (bool, error) {
	val, err := evalExpr(e, b, id)
	if err == nil {
		var ok bool
		ok, err = effectiveBoolean(val)
		if err == nil {
			return ok, nil
		}
	}
	if isExprError(err) {
		return false, nil
	}
	return false, err
}

// evalExpr returns the value of the expression for a row.
func evalExpr(e algebra.Expr, b binding.Binder, id binding.ID) (rdf.Term, error) {
	switch e := e.(type) {
	case *algebra.Constant:
		return e.Value, nil
	case *algebra.Variable:
		v, err := b.Value(e, id)
		if err != nil {
			return nil, err
		}
		if !v.Bound() {
			return nil, exprErrorf("%v is unbound", e)
		}
		return v.Term, nil
	case *algebra.Bound:
		v, err := b.Value(e.Var, id)
		if err != nil {
			return nil, err
		}
		return rdf.NewBoolean(v.Bound()), nil
	case *algebra.Not:
		val, err := evalBool(e.Expr, b, id)
		if err != nil {
			return nil, err
		}
		return rdf.NewBoolean(!val), nil
	case *algebra.And:
		return evalLogical(e.Left, e.Right, false, b, id)
	case *algebra.Or:
		return evalLogical(e.Left, e.Right, true, b, id)
	case *algebra.Compare:
		left, err := evalExpr(e.Left, b, id)
		if err != nil {
			return nil, err
		}
		right, err := evalExpr(e.Right, b, id)
		if err != nil {
			return nil, err
		}
		res, err := compareTerms(e.Op, left, right)
		if err != nil {
			return nil, err
		}
		return rdf.NewBoolean(res), nil
	}
	return nil, errors.Wrapf(algebra.ErrUnsupportedOperation, "expression %T", e)
}

func evalBool(e algebra.Expr, b binding.Binder, id binding.ID) (bool, error) {
	val, err := evalExpr(e, b, id)
	if err != nil {
		return false, err
	}
	return effectiveBoolean(val)
}

// evalLogical evaluates && (when decisive is false) or || (when decisive is
// true). If either side evaluates to the decisive value, that's the result,
// even when the other side has an error.
func evalLogical(left, right algebra.Expr, decisive bool, b binding.Binder, id binding.ID) (rdf.Term, error) {
	l, lErr := evalBool(left, b, id)
	if lErr != nil && !isExprError(lErr) {
		return nil, lErr
	}
	r, rErr := evalBool(right, b, id)
	if rErr != nil && !isExprError(rErr) {
		return nil, rErr
	}
	switch {
	case lErr == nil && l == decisive, rErr == nil && r == decisive:
		return rdf.NewBoolean(decisive), nil
	case lErr != nil:
		return nil, lErr
	case rErr != nil:
		return nil, rErr
	}
	return rdf.NewBoolean(!decisive), nil
}

// effectiveBoolean converts a term to true or false, the way filters do.
func effectiveBoolean(t rdf.Term) (bool, error) {
	lit, ok := t.(rdf.Literal)
	if !ok {
		return false, exprErrorf("no boolean value for %v", t)
	}
	switch lit.Datatype {
	case rdf.XSDBoolean:
		v, ok := lit.Boolean()
		return ok && v, nil
	case rdf.XSDString, rdf.LangString, "":
		return lit.Lexical != "", nil
	}
	if f, ok := lit.Numeric(); ok {
		return f != 0 && !math.IsNaN(f), nil
	}
	if _, numeric := numericTypes[lit.Datatype]; numeric {
		// an invalid numeric lexical form
		return false, nil
	}
	return false, exprErrorf("no boolean value for %v", t)
}

var numericTypes = map[rdf.IRI]struct{}{
	rdf.XSDInteger: {},
	rdf.XSDDecimal: {},
	rdf.XSDDouble:  {},
}

// compareTerms applies a comparison operator. Numbers compare by value and
// strings and booleans by their values; other terms can only be tested for
// equality.
func compareTerms(op algebra.CompareOp, a, b rdf.Term) (bool, error) {
	c, ordered, err := order(a, b)
	if err != nil {
		return false, err
	}
	switch op {
	case algebra.OpEqual:
		return c == 0, nil
	case algebra.OpNotEqual:
		return c != 0, nil
	}
	if !ordered {
		return false, exprErrorf("can't order %v and %v", a, b)
	}
	switch op {
	case algebra.OpLess:
		return c < 0, nil
	case algebra.OpLessOrEqual:
		return c <= 0, nil
	case algebra.OpGreater:
		return c > 0, nil
	case algebra.OpGreaterOrEqual:
		return c >= 0, nil
	}
	return false, exprErrorf("unknown operator %v", op)
}

// order compares two terms. When ordered is false, c is only meaningful as
// equal or not equal.
func order(a, b rdf.Term) (c int, ordered bool, err error) {
	la, aLit := a.(rdf.Literal)
	lb, bLit := b.(rdf.Literal)
	if aLit && bLit {
		fa, aNum := la.Numeric()
		fb, bNum := lb.Numeric()
		switch {
		case aNum && bNum:
			switch {
			case fa < fb:
				return -1, true, nil
			case fa > fb:
				return 1, true, nil
			}
			return 0, true, nil
		case isSimpleString(la) && isSimpleString(lb):
			return strings.Compare(la.Lexical, lb.Lexical), true, nil
		case la.Datatype == rdf.XSDBoolean && lb.Datatype == rdf.XSDBoolean:
			va, okA := la.Boolean()
			vb, okB := lb.Boolean()
			if okA && okB {
				return boolInt(va) - boolInt(vb), true, nil
			}
		}
		if la != lb && la.Datatype != lb.Datatype && !(isSimpleString(la) || isSimpleString(lb)) {
			// Literals of different, unknown types might still denote the
			// same value.
			return 0, false, exprErrorf("can't compare %v and %v", a, b)
		}
	}
	if a == b {
		return 0, false, nil
	}
	return 1, false, nil
}

func isSimpleString(l rdf.Literal) bool {
	return l.Language == "" && (l.Datatype == rdf.XSDString || l.Datatype == "")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
