// Dust
// Copyright (C) James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package normalize

import (
	"testing"

	"github.com/purpleidea/dust/lang/ast"
)

func TestShelf0(t *testing.T) {
	shelf := newTermShelf()
	x := &ast.TermVar{Name: "x"}

	b1 := shelf.Rebox(x)
	if b1.Term != x || shelf.Allocated != 1 || shelf.Reused != 0 {
		t.Errorf("unexpected new box: %+v", shelf)
	}
	if v := shelf.Unbox(b1); v != x {
		t.Errorf("unbox returned the wrong content")
	}
	if b1.Term != nil {
		t.Errorf("unboxed container still holds its content")
	}
	if shelf.Len() != 1 {
		t.Errorf("expected one shelved box, got %d", shelf.Len())
	}
	if err := shelf.Check(); err != nil {
		t.Errorf("check failed: %+v", err)
	}

	y := &ast.TermInteger{Value: 1}
	b2 := shelf.Rebox(y)
	if b2 != b1 {
		t.Errorf("the shelved box was not reused")
	}
	if b2.Term != y || shelf.Reused != 1 || shelf.Len() != 0 {
		t.Errorf("unexpected reused box: %+v", shelf)
	}

	b3 := shelf.Rebox(x)
	if b3 == b2 || shelf.Allocated != 2 {
		t.Errorf("expected a fresh box: %+v", shelf)
	}

	shelf.Unbox(b3)
	shelf.Drop()
	if shelf.Len() != 0 {
		t.Errorf("drop kept %d boxes", shelf.Len())
	}
}

func TestShelfCheck0(t *testing.T) {
	shelf := newExprShelf()
	b := shelf.Rebox(ast.ToExpr(&ast.TermInteger{}))
	shelf.Unbox(b)
	if err := shelf.Check(); err != nil {
		t.Errorf("check failed: %+v", err)
	}

	// filling a shelved box from the outside breaks the invariant
	b.Expr = ast.ToExpr(&ast.TermInteger{})
	if err := shelf.Check(); err == nil {
		t.Errorf("expected the check to find the full box")
	}
}

func TestShelfLevels0(t *testing.T) {
	obj := newContext(t)
	x := &ast.TermVar{Name: "x"}

	e := obj.fromTerm(x)
	if ast.Unwrap(e) != x {
		t.Errorf("wrong content: %s", e)
	}
	if got := obj.toTerm(e); got != x {
		t.Errorf("boxes were not opened: %T", got)
	}
	// both boxes went back to the shelves and are used again here
	e = obj.fromTerm(x)
	if s := obj.Stats(); s.Reused != 2 {
		t.Errorf("expected two reused boxes: %+v", s)
	}

	lambda := &ast.ExprLambda{Param: "x", Body: e}
	t1 := obj.toTerm1(lambda)
	if got := obj.fromTerm1(t1); got != lambda {
		t.Errorf("lambda was not recovered: %T", got)
	}
	term := obj.toTerm(lambda)
	if _, ok := term.(*ast.TermExpr); !ok {
		t.Errorf("expected parens: %T", term)
	}
	if got := obj.fromTerm(term); got != lambda {
		t.Errorf("lambda was not recovered: %T", got)
	}
	if got := obj.termToTerm1(obj.term1ToTerm(obj.toTerm1(lambda))); ast.Unwrap(got) != lambda {
		t.Errorf("lambda was lost: %T", got)
	}
	if err := obj.Close(); err != nil {
		t.Errorf("close failed: %+v", err)
	}
}
