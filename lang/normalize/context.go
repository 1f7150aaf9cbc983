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

// Package normalize reduces an expression to its normal form in place. It
// eliminates let bindings, substitutes variables bound to values, performs
// beta reduction, and evaluates record access, projection, update, completion,
// conditionals and merges. Anything which depends on a variable without a
// value is left as it is.
package normalize

import (
	"fmt"

	"github.com/purpleidea/dust/lang/ast"
	"github.com/purpleidea/dust/lang/dialect"
	"github.com/purpleidea/dust/lang/scope"
	"github.com/purpleidea/dust/util/errwrap"
)

// Stats counts the work done by a context.
type Stats struct {
	// Substitutions is the number of variables replaced by their value.
	Substitutions int

	// Reductions is the number of lambdas applied to an argument.
	Reductions int

	// Lets is the number of let bindings eliminated.
	Lets int

	// Reused is the number of boxes taken from a shelf.
	Reused int

	// Allocated is the number of boxes that were created.
	Allocated int
}

// Context holds the scope stack and the box shelves used while normalizing. It
// must be built with Init, and is not safe for concurrent use.
type Context struct {
	// Dialect is the table of built-in names. The default is used if nil.
	Dialect *dialect.Dialect

	Debug bool
	Logf  func(format string, v ...interface{})

	scope *scope.Stack

	// exprs holds emptied TermExpr boxes, term1s emptied ExprTerm1 boxes,
	// and terms emptied Term1Term boxes.
	exprs  *Shelf[ast.TermExpr, ast.Expr]
	term1s *Shelf[ast.ExprTerm1, ast.Term1]
	terms  *Shelf[ast.Term1Term, ast.Term]

	stats Stats
}

// Init builds the root scope out of the built-in names of the dialect.
func (obj *Context) Init() error {
	if obj.Dialect == nil {
		obj.Dialect = dialect.Default()
	}
	if err := obj.Dialect.Validate(); err != nil {
		return errwrap.Wrapf(err, "invalid dialect `%s`", obj.Dialect.Name)
	}
	if obj.Logf == nil {
		obj.Logf = func(format string, v ...interface{}) {} // noop
	}

	obj.scope = &scope.Stack{
		Debug: obj.Debug,
		Logf: func(format string, v ...interface{}) {
			obj.Logf("scope: "+format, v...)
		},
	}
	obj.scope.EnterScope()
	for _, name := range obj.Dialect.Builtins {
		if err := obj.scope.AddThunk(name, scope.OriginBuiltin); err != nil {
			return err
		}
	}

	obj.exprs = newExprShelf()
	obj.term1s = newTerm1Shelf()
	obj.terms = newTermShelf()
	return nil
}

// Normalize reduces the expression in place. On error the tree is left in a
// partially reduced state which is still well formed.
func (obj *Context) Normalize(e *ast.Expr) error {
	if obj.scope == nil {
		return fmt.Errorf("context is not initialized")
	}
	depth := obj.scope.Depth()
	err := obj.expr(e)
	if d := obj.scope.Depth(); d != depth {
		// restore it for later uses of the context
		err = errwrap.Append(err, fmt.Errorf("scope depth changed from %d to %d", depth, d))
		obj.scope.ReturnToMark(scope.Mark(depth))
	}
	return err
}

// Depth returns the depth of the scope stack. It is one, the root scope,
// whenever Normalize is not running.
func (obj *Context) Depth() int {
	return obj.scope.Depth()
}

// Stats returns the counters of the work done so far.
func (obj *Context) Stats() Stats {
	s := obj.stats
	s.Reused = obj.exprs.Reused + obj.term1s.Reused + obj.terms.Reused
	s.Allocated = obj.exprs.Allocated + obj.term1s.Allocated + obj.terms.Allocated
	return s
}

// Check returns an error if a shelf holds a box which isn't empty.
func (obj *Context) Check() error {
	var reterr error
	reterr = errwrap.Append(reterr, obj.exprs.Check())
	reterr = errwrap.Append(reterr, obj.term1s.Check())
	reterr = errwrap.Append(reterr, obj.terms.Check())
	return reterr
}

// Close drops the shelves.
func (obj *Context) Close() error {
	err := obj.Check()
	obj.exprs.Drop()
	obj.term1s.Drop()
	obj.terms.Drop()
	return err
}

// scoped runs fn inside a new scope frame, which is closed again on every
// path out.
func (obj *Context) scoped(fn func() error) (reterr error) {
	obj.scope.EnterScope()
	defer func() {
		reterr = errwrap.Append(reterr, obj.scope.ExitScope())
	}()
	return fn()
}

// toTerm1 moves an Expr to the Term1 level with recycled boxes.
func (obj *Context) toTerm1(e ast.Expr) ast.Term1 {
	if x, ok := e.(*ast.ExprTerm1); ok {
		return obj.term1s.Unbox(x)
	}
	return obj.terms.Rebox(obj.exprs.Rebox(e))
}

// toTerm moves an Expr to the Term level with recycled boxes.
func (obj *Context) toTerm(e ast.Expr) ast.Term {
	if x, ok := e.(*ast.ExprTerm1); ok {
		if y, ok := x.Term1.(*ast.Term1Term); ok {
			obj.term1s.Unbox(x)
			return obj.terms.Unbox(y)
		}
	}
	return obj.exprs.Rebox(e)
}

// fromTerm1 moves a Term1 to the Expr level with recycled boxes.
func (obj *Context) fromTerm1(t ast.Term1) ast.Expr {
	if x, ok := t.(*ast.Term1Term); ok {
		if y, ok := x.Term.(*ast.TermExpr); ok {
			obj.terms.Unbox(x)
			return obj.exprs.Unbox(y)
		}
	}
	return obj.term1s.Rebox(t)
}

// fromTerm moves a Term to the Expr level with recycled boxes.
func (obj *Context) fromTerm(t ast.Term) ast.Expr {
	if x, ok := t.(*ast.TermExpr); ok {
		return obj.exprs.Unbox(x)
	}
	return obj.term1s.Rebox(obj.terms.Rebox(t))
}

// term1ToTerm moves a Term1 down to the Term level.
func (obj *Context) term1ToTerm(t ast.Term1) ast.Term {
	if x, ok := t.(*ast.Term1Term); ok {
		return obj.terms.Unbox(x)
	}
	return obj.exprs.Rebox(obj.term1s.Rebox(t))
}

// termToTerm1 moves a Term up to the Term1 level.
func (obj *Context) termToTerm1(t ast.Term) ast.Term1 {
	if x, ok := t.(*ast.TermExpr); ok {
		if y, ok := x.Expr.(*ast.ExprTerm1); ok {
			obj.exprs.Unbox(x)
			return obj.term1s.Unbox(y)
		}
	}
	return obj.terms.Rebox(t)
}

// releaseTerm1 shelves the boxes around a Term1 once its content has moved
// elsewhere in the tree.
func (obj *Context) releaseTerm1(t ast.Term1) {
	if x, ok := t.(*ast.Term1Term); ok {
		if y, ok := x.Term.(*ast.TermExpr); ok {
			obj.terms.Unbox(x)
			obj.exprs.Unbox(y)
		}
	}
}

// releaseTerm shelves the box around a Term once its content has moved.
func (obj *Context) releaseTerm(t ast.Term) {
	if x, ok := t.(*ast.TermExpr); ok {
		obj.exprs.Unbox(x)
	}
}
