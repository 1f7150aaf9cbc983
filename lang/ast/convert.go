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

package ast

import (
	"fmt"
)

// ToExpr lifts a node of any level into an Expr. A box around an Expr is
// opened instead of wrapping it again.
func ToExpr(n Node) Expr {
	switch x := n.(type) {
	case Expr:
		return x
	case Term1:
		if t, ok := x.(*Term1Term); ok {
			if e, ok := t.Term.(*TermExpr); ok {
				return e.Expr
			}
		}
		return &ExprTerm1{Term1: x}
	case Term:
		if e, ok := x.(*TermExpr); ok {
			return e.Expr
		}
		return &ExprTerm1{Term1: &Term1Term{Term: x}}
	}
	panic(fmt.Sprintf("unexpected node: %T", n))
}

// ToTerm1 moves a node of any level to the Term1 level.
func ToTerm1(n Node) Term1 {
	switch x := n.(type) {
	case Term1:
		return x
	case Expr:
		if e, ok := x.(*ExprTerm1); ok {
			return e.Term1
		}
		return &Term1Term{Term: &TermExpr{Expr: x}}
	case Term:
		if e, ok := x.(*TermExpr); ok {
			if t, ok := e.Expr.(*ExprTerm1); ok {
				return t.Term1
			}
		}
		return &Term1Term{Term: x}
	}
	panic(fmt.Sprintf("unexpected node: %T", n))
}

// ToTerm moves a node of any level down to the Term level, boxing it in a
// parenthesized TermExpr when it is not already an atom.
func ToTerm(n Node) Term {
	switch x := n.(type) {
	case Term:
		return x
	case Term1:
		if t, ok := x.(*Term1Term); ok {
			return t.Term
		}
		return &TermExpr{Expr: &ExprTerm1{Term1: x}}
	case Expr:
		if e, ok := x.(*ExprTerm1); ok {
			if t, ok := e.Term1.(*Term1Term); ok {
				return t.Term
			}
		}
		return &TermExpr{Expr: x}
	}
	panic(fmt.Sprintf("unexpected node: %T", n))
}

// Unwrap looks through any chain of boxes and returns the innermost node
// which is not a box. It never returns a nil node for a well formed tree.
func Unwrap(n Node) Node {
	for {
		switch x := n.(type) {
		case *ExprTerm1:
			n = x.Term1
		case *Term1Term:
			n = x.Term
		case *TermExpr:
			n = x.Expr
		default:
			return n
		}
	}
}

// IsBox returns true if the node is one of the three level changing boxes.
func IsBox(n Node) bool {
	switch n.(type) {
	case *ExprTerm1, *Term1Term, *TermExpr:
		return true
	}
	return false
}
