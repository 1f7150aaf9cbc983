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
	"github.com/purpleidea/dust/lang/ast"
	"github.com/purpleidea/dust/lang/interfaces"
	"github.com/purpleidea/dust/lang/scope"
	"github.com/purpleidea/dust/util/errwrap"

	"github.com/samber/lo"
)

// expr normalizes the Expr in the slot, replacing it when it reduces.
func (obj *Context) expr(p *ast.Expr) error {
	switch x := (*p).(type) {
	case *ast.ExprTerm1:
		if err := obj.term1(&x.Term1); err != nil {
			return err
		}
		if t, ok := x.Term1.(*ast.Term1Term); ok {
			if _, ok := t.Term.(*ast.TermExpr); ok { // redundant parens
				*p = obj.fromTerm1(obj.term1s.Unbox(x))
			}
		}
		return nil

	case *ast.ExprLet:
		return obj.let(p, x)

	case *ast.ExprLambda:
		if x.Type != nil {
			if err := obj.expr(&x.Type); err != nil {
				return err
			}
		}
		return obj.scoped(func() error {
			if err := obj.scope.AddThunk(x.Param, scope.OriginLambda); err != nil {
				return err
			}
			return obj.expr(&x.Body)
		})
	}
	return unsupported("reduce", *p)
}

// let normalizes each binding under the ones before it, then the body under
// all of them, and replaces the let by its body.
func (obj *Context) let(p *ast.Expr, x *ast.ExprLet) (reterr error) {
	mark := obj.scope.Mark()
	defer func() {
		reterr = errwrap.Append(reterr, obj.scope.ReturnToMark(mark))
	}()

	for _, b := range x.Bindings {
		if b.Type != nil {
			if err := obj.expr(&b.Type); err != nil {
				return errwrap.Wrapf(err, "type of `%s`", b.Name)
			}
		}
		if err := obj.expr(&b.Value); err != nil {
			return errwrap.Wrapf(err, "let `%s`", b.Name)
		}
		obj.scope.EnterScope()
		if err := obj.scope.Add(b.Name, b.Type, b.Value, scope.OriginLet); err != nil {
			return err
		}
		obj.stats.Lets++
	}

	if err := obj.expr(&x.Body); err != nil {
		return err
	}
	*p = x.Body
	return nil
}

// term1 normalizes the Term1 in the slot, replacing it when it reduces.
func (obj *Context) term1(p *ast.Term1) error {
	switch x := (*p).(type) {
	case *ast.Term1Term:
		if err := obj.term(&x.Term); err != nil {
			return err
		}
		if e, ok := x.Term.(*ast.TermExpr); ok {
			if _, ok := e.Expr.(*ast.ExprTerm1); ok { // redundant parens
				*p = obj.termToTerm1(obj.terms.Unbox(x))
			}
		}
		return nil

	case *ast.Term1Evaluation:
		return obj.evaluation(p, x)

	case *ast.Term1Arrow:
		if err := obj.expr(&x.Domain); err != nil {
			return err
		}
		return obj.scoped(func() error {
			if x.Param != "" {
				if err := obj.scope.AddThunk(x.Param, scope.OriginLambda); err != nil {
					return err
				}
			}
			return obj.expr(&x.Codomain)
		})

	case *ast.Term1With:
		return obj.with(p, x)

	case *ast.Term1Operation:
		if err := obj.term1(&x.Left); err != nil {
			return err
		}
		return obj.term1(&x.Right)

	case *ast.Term1IfThenElse:
		return obj.ifThenElse(p, x)

	case *ast.Term1Ascribe:
		if err := obj.term1(&x.Term); err != nil {
			return err
		}
		if err := obj.expr(&x.Type); err != nil {
			return err
		}
		*p = x.Term
		return nil

	case *ast.Term1Construct:
		return obj.construct(p, x)
	}
	return unsupported("reduce", *p)
}

// term normalizes the Term in the slot, replacing it when it reduces.
func (obj *Context) term(p *ast.Term) error {
	switch x := (*p).(type) {
	case *ast.TermInteger, *ast.TermDouble, *ast.TermImport, *ast.TermEmbed, *ast.TermPath:
		return nil

	case *ast.TermVar:
		return obj.variable(p, x)

	case *ast.TermFieldAccess:
		return obj.fieldAccess(p, x)

	case *ast.TermProject:
		return obj.project(p, x)

	case *ast.TermText:
		return obj.text(x)

	case *ast.TermList:
		for i := range x.Elems {
			if err := obj.expr(&x.Elems[i]); err != nil {
				return err
			}
		}
		return nil

	case *ast.TermRecord:
		return obj.fields(x.Fields)

	case *ast.TermTypeRecord:
		return obj.fields(x.Fields)

	case *ast.TermTypeEnum:
		for _, a := range x.Alts {
			if a.Type == nil {
				continue
			}
			if err := obj.expr(&a.Type); err != nil {
				return errwrap.Wrapf(err, "alternative `%s`", a.Tag)
			}
		}
		return nil

	case *ast.TermExpr:
		if err := obj.expr(&x.Expr); err != nil {
			return err
		}
		if e, ok := x.Expr.(*ast.ExprTerm1); ok {
			if _, ok := e.Term1.(*ast.Term1Term); ok { // redundant parens
				*p = obj.toTerm(obj.exprs.Unbox(x))
			}
		}
		return nil

	case *ast.TermMerge:
		return obj.merge(p, x)
	}
	return unsupported("reduce", *p)
}

func (obj *Context) fields(fields []*ast.RecordEntry) error {
	for _, f := range fields {
		if err := obj.expr(&f.Value); err != nil {
			return errwrap.Wrapf(err, "field `%s`", ast.JoinPath(f.Path))
		}
	}
	return nil
}

// resolve finds the binding of a variable. A cached scope is used while its
// frame is still open. A variable that was moved or copied since its cache
// was written has a distance that only counts surviving binders, and one that
// was never visited has a distance that counts every binder.
func (obj *Context) resolve(x *ast.TermVar) (*scope.Info, ast.ScopeID, error) {
	if x.ScopeID != nil {
		if info, ok := obj.scope.Resolve(*x.ScopeID, x.Name); ok {
			return info, *x.ScopeID, nil
		}
		return obj.scope.LookupStructural(x.Name, x.Distance)
	}
	return obj.scope.Lookup(x.Name, x.Distance)
}

// variable replaces a variable bound to a value by a copy of that value, which
// is then normalized where it now stands. A variable without a value stays,
// with its distance rewritten for the binders that remain in the output.
func (obj *Context) variable(p *ast.Term, x *ast.TermVar) error {
	info, id, err := obj.resolve(x)
	if err != nil {
		return err
	}
	if info.IsThunk() {
		if x.ScopeID == nil || *x.ScopeID != id {
			x.ScopeID = &ast.ScopeID{Depth: id.Depth, Serial: id.Serial}
		}
		x.Distance = obj.scope.OutputDistance(id, x.Name)
		return nil
	}

	if obj.Debug {
		obj.Logf("substitute: %s", x)
	}
	obj.stats.Substitutions++
	*p = obj.toTerm(ast.CopyExpr(info.Value))
	return obj.term(p)
}

// evaluation reduces the function and the argument, and applies the function
// if it is a lambda.
func (obj *Context) evaluation(p *ast.Term1, x *ast.Term1Evaluation) error {
	if err := obj.term1(&x.Func); err != nil {
		return err
	}
	if err := obj.term(&x.Arg); err != nil {
		return err
	}

	if _, ok := ast.Unwrap(x.Func).(*ast.ExprLambda); !ok {
		stuck, err := obj.IsStuck(x.Func)
		if err != nil {
			return err
		}
		if stuck {
			return nil
		}
		return unsupported("apply", x.Func)
	}

	// The boxes around the lambda and the argument stay in the tree until the
	// body has normalized, so that a failure leaves the redex intact.
	lambda := ast.Unwrap(x.Func).(*ast.ExprLambda)
	if obj.Debug {
		obj.Logf("apply: %s", ast.Short(lambda))
	}
	obj.stats.Reductions++

	// Applying a lambda to a reference to the very binder that a fresh
	// lookup of its parameter would find binds nothing new.
	skip := obj.isOwnParam(lambda.Param, x.Arg)
	err := obj.scoped(func() error {
		if !skip {
			if err := obj.scope.Add(lambda.Param, lambda.Type, ast.ToExpr(x.Arg), scope.OriginApply); err != nil {
				return err
			}
		}
		return obj.expr(&lambda.Body)
	})
	if err != nil {
		return err
	}
	*p = obj.toTerm1(lambda.Body)
	obj.releaseTerm1(x.Func)
	obj.releaseTerm(x.Arg)
	return nil
}

// isOwnParam returns true if the argument is the variable param@0 and it is
// bound to the frame that a structural lookup of param would find anyway.
func (obj *Context) isOwnParam(param string, arg ast.Term) bool {
	v, ok := arg.(*ast.TermVar)
	if !ok || v.Name != param || v.Distance != 0 || v.ScopeID == nil {
		return false
	}
	_, id, err := obj.scope.LookupStructural(param, 0)
	return err == nil && id == *v.ScopeID
}

// fieldAccess picks a field out of a record literal.
func (obj *Context) fieldAccess(p *ast.Term, x *ast.TermFieldAccess) error {
	if err := obj.term(&x.Term); err != nil {
		return err
	}

	switch base := ast.Unwrap(x.Term).(type) {
	case *ast.TermRecord:
		t, err := obj.selectField(base, x.Field)
		if err != nil {
			return errwrap.Wrapf(err, "access `%s`", x.Field)
		}
		*p = t
		return nil

	case *ast.TermTypeEnum:
		return nil // a union constructor
	}

	stuck, err := obj.IsStuck(x.Term)
	if err != nil {
		return err
	}
	if stuck {
		return nil
	}
	return unsupported("access", x.Term)
}

// selectField returns the value of a field, stripping the leading label from
// dotted fields. The first field with exactly that label wins, and is merged
// with the dotted fields below it if it is a record.
func (obj *Context) selectField(rec *ast.TermRecord, name string) (ast.Term, error) {
	matched := lo.Filter(rec.Fields, func(f *ast.RecordEntry, _ int) bool {
		return len(f.Path) > 0 && f.Path[0] == name
	})
	if len(matched) == 0 {
		return nil, interfaces.ErrFieldNotFound
	}
	stripped := lo.Map(matched, func(f *ast.RecordEntry, _ int) *ast.RecordEntry {
		return &ast.RecordEntry{Path: f.Path[1:], Value: f.Value}
	})
	deeper := lo.Filter(stripped, func(f *ast.RecordEntry, _ int) bool {
		return len(f.Path) > 0
	})

	direct, _, found := lo.FindIndexOf(stripped, func(f *ast.RecordEntry) bool {
		return len(f.Path) == 0
	})
	if !found {
		return &ast.TermRecord{Fields: deeper}, nil
	}
	if len(deeper) > 0 {
		inner, ok := ast.Unwrap(direct.Value).(*ast.TermRecord)
		if !ok {
			return nil, errwrap.Wrapf(interfaces.ErrFieldConflict, "`%s` is not a record", name)
		}
		inner.Fields = append(inner.Fields, deeper...)
	}
	return obj.toTerm(direct.Value), nil
}

// project keeps the selected fields of a record literal.
func (obj *Context) project(p *ast.Term, x *ast.TermProject) error {
	if err := obj.term(&x.Term); err != nil {
		return err
	}
	names, known, err := obj.selectors(x)
	if err != nil {
		return err
	}

	rec, ok := ast.Unwrap(x.Term).(*ast.TermRecord)
	if !ok || !known {
		stuck, err := obj.IsStuck(x.Term)
		if err != nil {
			return err
		}
		if stuck || !known {
			return nil
		}
		return unsupported("project", x.Term)
	}

	for _, name := range names {
		if !lo.ContainsBy(rec.Fields, func(f *ast.RecordEntry) bool { return len(f.Path) > 0 && f.Path[0] == name }) {
			return errwrap.Wrapf(interfaces.ErrFieldNotFound, "select `%s`", name)
		}
	}
	rec.Fields = lo.Filter(rec.Fields, func(f *ast.RecordEntry, _ int) bool {
		return len(f.Path) > 0 && lo.Contains(names, f.Path[0])
	})
	*p = rec
	return nil
}

// selectors returns the names a projection keeps. Plain selectors are field
// names and are not evaluated. The selection by type is normalized, and known
// is false when it doesn't end up as a record type literal.
func (obj *Context) selectors(x *ast.TermProject) (names []string, known bool, err error) {
	if x.Style == ast.ProjectType {
		if len(x.Selectors) != 1 {
			return nil, false, unsupported("select by", x)
		}
		if err := obj.term1(&x.Selectors[0]); err != nil {
			return nil, false, err
		}
		typ, ok := ast.Unwrap(x.Selectors[0]).(*ast.TermTypeRecord)
		if !ok {
			return nil, false, nil
		}
		names := lo.Uniq(lo.FilterMap(typ.Fields, func(f *ast.RecordEntry, _ int) (string, bool) {
			if len(f.Path) == 0 {
				return "", false
			}
			return f.Path[0], true
		}))
		return names, true, nil
	}

	for _, s := range x.Selectors {
		v, ok := ast.Unwrap(s).(*ast.TermVar)
		if !ok || v.Distance != 0 {
			return nil, false, unsupported("select by", s)
		}
		names = append(names, v.Name)
	}
	return names, true, nil
}

// with updates a record literal at a path.
func (obj *Context) with(p *ast.Term1, x *ast.Term1With) error {
	if err := obj.term1(&x.Base); err != nil {
		return err
	}
	if err := obj.term1(&x.Value); err != nil {
		return err
	}

	rec, ok := ast.Unwrap(x.Base).(*ast.TermRecord)
	if !ok {
		stuck, err := obj.IsStuck(x.Base)
		if err != nil {
			return err
		}
		if stuck {
			return nil
		}
		return unsupported("update", x.Base)
	}

	fields, err := obj.splice(rec.Fields, x.Path, ast.ToExpr(x.Value))
	if err != nil {
		return errwrap.Wrapf(err, "with `%s`", ast.JoinPath(x.Path))
	}
	rec.Fields = fields
	*p = x.Base
	obj.releaseTerm1(x.Value)
	return nil
}

// splice sets the value at path in the fields, creating the records along the
// way. A stuck value in the way gets a with of its own.
func (obj *Context) splice(fields []*ast.RecordEntry, path []string, value ast.Expr) ([]*ast.RecordEntry, error) {
	fields, err := ast.NestRecord(fields)
	if err != nil {
		return nil, err
	}
	key := path[0]
	f, _, found := lo.FindIndexOf(fields, func(f *ast.RecordEntry) bool {
		return f.Path[0] == key
	})

	if len(path) == 1 {
		if found {
			f.Value = value
			return fields, nil
		}
		return append(fields, &ast.RecordEntry{Path: []string{key}, Value: value}), nil
	}

	if !found {
		inner, err := obj.splice(nil, path[1:], value)
		if err != nil {
			return nil, err
		}
		rec := &ast.TermRecord{Fields: inner}
		return append(fields, &ast.RecordEntry{Path: []string{key}, Value: obj.fromTerm(rec)}), nil
	}

	if rec, ok := ast.Unwrap(f.Value).(*ast.TermRecord); ok {
		if rec.Fields, err = obj.splice(rec.Fields, path[1:], value); err != nil {
			return nil, err
		}
		return fields, nil
	}

	stuck, err := obj.IsStuck(f.Value)
	if err != nil {
		return nil, err
	}
	if !stuck {
		return nil, errwrap.Wrapf(interfaces.ErrFieldConflict, "`%s` is not a record", key)
	}
	f.Value = obj.term1s.Rebox(&ast.Term1With{
		Base:  obj.toTerm1(f.Value),
		Path:  path[1:],
		Value: obj.toTerm1(value),
	})
	return fields, nil
}

// ifThenElse picks a branch when the condition is one of the boolean
// built-ins.
func (obj *Context) ifThenElse(p *ast.Term1, x *ast.Term1IfThenElse) error {
	if err := obj.expr(&x.Cond); err != nil {
		return err
	}
	if err := obj.expr(&x.Then); err != nil {
		return err
	}
	if err := obj.expr(&x.Else); err != nil {
		return err
	}

	if v, ok := ast.Unwrap(x.Cond).(*ast.TermVar); ok && v.ScopeID != nil {
		if info, ok := obj.scope.Resolve(*v.ScopeID, v.Name); ok && info.Origin == scope.OriginBuiltin {
			switch v.Name {
			case obj.Dialect.True:
				*p = obj.toTerm1(x.Then)
				return nil
			case obj.Dialect.False:
				*p = obj.toTerm1(x.Else)
				return nil
			}
		}
	}

	stuck, err := obj.IsStuck(x.Cond)
	if err != nil {
		return err
	}
	if stuck {
		return nil
	}
	return unsupported("branch on", x.Cond)
}

// construct completes a record from the default field of a record literal.
func (obj *Context) construct(p *ast.Term1, x *ast.Term1Construct) error {
	if err := obj.term1(&x.Term); err != nil {
		return err
	}
	if err := obj.fields(x.Fields); err != nil {
		return err
	}

	rec, ok := ast.Unwrap(x.Term).(*ast.TermRecord)
	if !ok {
		return nil
	}
	f, _, found := lo.FindIndexOf(rec.Fields, func(f *ast.RecordEntry) bool {
		return len(f.Path) == 1 && f.Path[0] == interfaces.DefaultField
	})
	if !found {
		return nil
	}
	def, ok := ast.Unwrap(f.Value).(*ast.TermRecord)
	if !ok {
		return nil
	}
	defaults, err := ast.NestRecord(def.Fields)
	if err != nil {
		return errwrap.Wrapf(err, "defaults")
	}

	given := lo.FilterMap(x.Fields, func(f *ast.RecordEntry, _ int) (string, bool) {
		if len(f.Path) == 0 {
			return "", false
		}
		return f.Path[0], true
	})
	out := lo.Reject(defaults, func(f *ast.RecordEntry, _ int) bool {
		return lo.Contains(given, f.Path[0])
	})
	out = append(out, x.Fields...)
	*p = obj.terms.Rebox(&ast.TermRecord{Fields: out})
	return nil
}

// merge applies the handler for the alternative of a union value.
func (obj *Context) merge(p *ast.Term, x *ast.TermMerge) error {
	if err := obj.fields(x.Handlers); err != nil {
		return err
	}
	if err := obj.term(&x.Scrutinee); err != nil {
		return err
	}

	tag, payload, ok := unionValue(x.Scrutinee)
	if !ok {
		stuck, err := obj.IsStuck(x.Scrutinee)
		if err != nil {
			return err
		}
		if stuck {
			return nil
		}
		return errwrap.Wrapf(interfaces.ErrMergeScrutinee, "`%s`", ast.Short(x.Scrutinee))
	}

	handler, _, found := lo.FindIndexOf(x.Handlers, func(f *ast.RecordEntry) bool {
		return len(f.Path) == 1 && f.Path[0] == tag
	})
	if !found {
		return errwrap.Wrapf(interfaces.ErrFieldNotFound, "no handler for `%s`", tag)
	}
	if payload == nil {
		*p = obj.toTerm(handler.Value)
		return nil
	}

	var t ast.Term1 = &ast.Term1Evaluation{
		Func: ast.ToTerm1(handler.Value),
		Arg:  payload,
	}
	if err := obj.term1(&t); err != nil {
		return errwrap.Wrapf(err, "handler `%s`", tag)
	}
	*p = obj.term1ToTerm(t)
	return nil
}

// unionValue takes apart a union alternative, applied to its payload or bare.
func unionValue(t ast.Term) (tag string, payload ast.Term, ok bool) {
	switch x := ast.Unwrap(t).(type) {
	case *ast.Term1Evaluation:
		fa, ok := ast.Unwrap(x.Func).(*ast.TermFieldAccess)
		if !ok {
			return "", nil, false
		}
		if _, ok := ast.Unwrap(fa.Term).(*ast.TermTypeEnum); !ok {
			return "", nil, false
		}
		return fa.Field, x.Arg, true

	case *ast.TermFieldAccess:
		enum, ok := ast.Unwrap(x.Term).(*ast.TermTypeEnum)
		if !ok {
			return "", nil, false
		}
		alt, found := lo.Find(enum.Alts, func(a *ast.EnumAlt) bool { return a.Tag == x.Field })
		if !found || alt.Type != nil {
			return "", nil, false
		}
		return x.Field, nil, true
	}
	return "", nil, false
}

// text normalizes the interpolations and splices in those which reduced to a
// literal.
func (obj *Context) text(x *ast.TermText) error {
	for _, e := range x.Entries {
		if e.Interpolated == nil {
			continue
		}
		if err := obj.expr(&e.Interpolated); err != nil {
			return err
		}
	}

	entries := []*ast.TextEntry{}
	literal := ""
	for _, e := range x.Entries {
		literal += e.Literal
		if e.Interpolated == nil {
			continue
		}
		inner, ok := ast.Unwrap(e.Interpolated).(*ast.TermText)
		if !ok {
			entries = append(entries, &ast.TextEntry{Literal: literal, Interpolated: e.Interpolated})
			literal = ""
			continue
		}
		for _, ie := range inner.Entries {
			literal += ie.Literal
			if ie.Interpolated != nil {
				entries = append(entries, &ast.TextEntry{Literal: literal, Interpolated: ie.Interpolated})
				literal = ""
			}
		}
	}
	if literal != "" || len(entries) == 0 {
		entries = append(entries, &ast.TextEntry{Literal: literal})
	}
	x.Entries = entries
	return nil
}
