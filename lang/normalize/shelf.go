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
	"fmt"
	"reflect"

	"github.com/purpleidea/dust/lang/ast"
)

// Shelf is a free list of emptied containers of type B which hold a value of
// type V. Unbox takes the content out of a container and keeps the container
// for later, and Rebox puts a value into a kept container, or a new one if the
// shelf is empty. A container on the shelf is always empty.
type Shelf[B any, V any] struct {
	// swap puts v into the box and returns what was there before.
	swap func(b *B, v V) V

	free []*B

	// Reused counts the containers handed out again by Rebox.
	Reused int

	// Allocated counts the containers Rebox had to create.
	Allocated int
}

// NewShelf builds a shelf with the given swap function.
func NewShelf[B any, V any](swap func(b *B, v V) V) *Shelf[B, V] {
	return &Shelf[B, V]{
		swap: swap,
	}
}

// Unbox drains the container, shelves it, and returns its old content. The
// caller must not use the container again.
func (obj *Shelf[B, V]) Unbox(b *B) V {
	var zero V
	v := obj.swap(b, zero)
	obj.free = append(obj.free, b)
	return v
}

// Rebox returns a container holding v.
func (obj *Shelf[B, V]) Rebox(v V) *B {
	var b *B
	if n := len(obj.free); n > 0 {
		b = obj.free[n-1]
		obj.free[n-1] = nil
		obj.free = obj.free[:n-1]
		obj.Reused++
	} else {
		b = new(B)
		obj.Allocated++
	}
	obj.swap(b, v)
	return b
}

// Len returns the number of shelved containers.
func (obj *Shelf[B, V]) Len() int {
	return len(obj.free)
}

// Drop forgets every shelved container.
func (obj *Shelf[B, V]) Drop() {
	obj.free = nil
}

// Check returns an error if any shelved container isn't empty.
func (obj *Shelf[B, V]) Check() error {
	for i, b := range obj.free {
		if b == nil {
			return fmt.Errorf("shelf entry %d is nil", i)
		}
		if !reflect.ValueOf(b).Elem().IsZero() {
			return fmt.Errorf("shelf entry %d of %T still has content", i, b)
		}
	}
	return nil
}

func newExprShelf() *Shelf[ast.TermExpr, ast.Expr] {
	return NewShelf(func(b *ast.TermExpr, v ast.Expr) ast.Expr {
		old := b.Expr
		b.Expr = v
		return old
	})
}

func newTerm1Shelf() *Shelf[ast.ExprTerm1, ast.Term1] {
	return NewShelf(func(b *ast.ExprTerm1, v ast.Term1) ast.Term1 {
		old := b.Term1
		b.Term1 = v
		return old
	})
}

func newTermShelf() *Shelf[ast.Term1Term, ast.Term] {
	return NewShelf(func(b *ast.Term1Term, v ast.Term) ast.Term {
		old := b.Term
		b.Term = v
		return old
	})
}
