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
	"strings"

	"github.com/purpleidea/dust/lang/interfaces"
	"github.com/purpleidea/dust/util/errwrap"
)

// Children returns the direct child nodes of a node in source order. Optional
// children which are absent are skipped. The fallback of an import is part of
// the import and is not returned.
func Children(n Node) []Node {
	nodes := []Node{}
	add := func(xs ...Node) {
		for _, x := range xs {
			if x == nil { // optional
				continue
			}
			nodes = append(nodes, x)
		}
	}
	fields := func(fs []*RecordEntry) {
		for _, f := range fs {
			add(f.Value)
		}
	}

	switch x := n.(type) {
	case *ExprTerm1:
		add(x.Term1)
	case *ExprLet:
		for _, b := range x.Bindings {
			add(b.Type, b.Value)
		}
		add(x.Body)
	case *ExprLambda:
		add(x.Type, x.Body)

	case *Term1Term:
		add(x.Term)
	case *Term1Evaluation:
		add(x.Func, x.Arg)
	case *Term1Arrow:
		add(x.Domain, x.Codomain)
	case *Term1With:
		add(x.Base, x.Value)
	case *Term1Operation:
		add(x.Left, x.Right)
	case *Term1IfThenElse:
		add(x.Cond, x.Then, x.Else)
	case *Term1Ascribe:
		add(x.Term, x.Type)
	case *Term1Construct:
		add(x.Term)
		fields(x.Fields)

	case *TermFieldAccess:
		add(x.Term)
	case *TermProject:
		add(x.Term)
		for _, s := range x.Selectors {
			add(s)
		}
	case *TermPath:
		for _, t := range x.Terms {
			add(t)
		}
	case *TermText:
		for _, e := range x.Entries {
			add(e.Interpolated)
		}
	case *TermList:
		for _, e := range x.Elems {
			add(e)
		}
	case *TermRecord:
		fields(x.Fields)
	case *TermTypeRecord:
		fields(x.Fields)
	case *TermTypeEnum:
		for _, a := range x.Alts {
			add(a.Type)
		}
	case *TermExpr:
		add(x.Expr)
	case *TermMerge:
		fields(x.Handlers)
		add(x.Scrutinee)
	}
	return nodes
}

// Walk calls fn on the node and then on all of its descendants, in a depth
// first, source ordered traversal. It stops at the first error.
func Walk(n Node, fn func(Node) error) error {
	if err := fn(n); err != nil {
		return err
	}
	for _, child := range Children(n) {
		if err := Walk(child, fn); err != nil {
			return err
		}
	}
	return nil
}

// ResetScopes forgets every cached scope on the variables of the tree. The
// distances are then read as written, against whatever scopes they are next
// evaluated in.
func ResetScopes(n Node) {
	Walk(n, func(x Node) error {
		if v, ok := x.(*TermVar); ok {
			v.ScopeID = nil
		}
		return nil
	})
}

// Shift adds delta to the distance of every occurrence of the variable name
// which is free in the tree. Occurrences under a binder of the same name need
// one more unit of distance to escape it, and are shifted only if they do.
func Shift(n Node, name string, delta int) {
	shift(n, name, delta, 0)
}

func shift(n Node, name string, delta, cutoff int) {
	switch x := n.(type) {
	case *TermVar:
		if x.Name == name && x.Distance >= cutoff {
			x.Distance += delta
		}

	case *ExprLambda:
		if x.Type != nil {
			shift(x.Type, name, delta, cutoff)
		}
		c := cutoff
		if x.Param == name {
			c++
		}
		shift(x.Body, name, delta, c)

	case *Term1Arrow:
		shift(x.Domain, name, delta, cutoff)
		c := cutoff
		if x.Param == name {
			c++
		}
		shift(x.Codomain, name, delta, c)

	case *ExprLet:
		c := cutoff
		for _, b := range x.Bindings {
			if b.Type != nil {
				shift(b.Type, name, delta, c)
			}
			shift(b.Value, name, delta, c)
			if b.Name == name {
				c++
			}
		}
		shift(x.Body, name, delta, c)

	default:
		for _, child := range Children(n) {
			shift(child, name, delta, cutoff)
		}
	}
}

// NestRecord rewrites the dotted shorthand `a.b = 1` of a list of record
// fields into nested records, so that every returned field has exactly one
// label and no label repeats. Two fields with the same label are merged if
// both are record literals, and are otherwise a conflict. The values are
// reused and not copied.
func NestRecord(fields []*RecordEntry) ([]*RecordEntry, error) {
	out := []*RecordEntry{}
	var err error
	for _, f := range fields {
		if len(f.Path) == 0 {
			continue
		}
		if out, err = insertField(out, f.Path, f.Value); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// insertField adds value at path inside the already nested fields.
func insertField(fields []*RecordEntry, path []string, value Expr) ([]*RecordEntry, error) {
	key := path[0]
	v := value
	for i := len(path) - 1; i > 0; i-- {
		v = &ExprTerm1{Term1: &Term1Term{Term: &TermRecord{
			Fields: []*RecordEntry{{Path: []string{path[i]}, Value: v}},
		}}}
	}

	for _, f := range fields {
		if f.Path[0] != key {
			continue
		}
		existing, ok1 := Unwrap(f.Value).(*TermRecord)
		addition, ok2 := Unwrap(v).(*TermRecord)
		if !ok1 || !ok2 {
			return nil, errwrap.Wrapf(interfaces.ErrFieldConflict, "duplicate field `%s`", key)
		}
		nested, err := NestRecord(existing.Fields)
		if err != nil {
			return nil, err
		}
		for _, g := range addition.Fields {
			if nested, err = insertField(nested, g.Path, g.Value); err != nil {
				return nil, errwrap.Wrapf(err, "in field `%s`", key)
			}
		}
		existing.Fields = nested
		return fields, nil
	}

	return append(fields, &RecordEntry{Path: []string{key}, Value: v}), nil
}

// JoinPath renders a record path the way it is written.
func JoinPath(path []string) string {
	labels := make([]string, 0, len(path))
	for _, p := range path {
		labels = append(labels, label(p))
	}
	return strings.Join(labels, interfaces.FieldSep)
}

// Kind returns a short human description of the kind of node.
func Kind(n Node) string {
	switch n.(type) {
	case *ExprTerm1, *Term1Term:
		return "box"
	case *ExprLet:
		return "let"
	case *ExprLambda:
		return "lambda"
	case *Term1Evaluation:
		return "application"
	case *Term1Arrow:
		return "function type"
	case *Term1With:
		return "with"
	case *Term1Operation:
		return "operation"
	case *Term1IfThenElse:
		return "if"
	case *Term1Ascribe:
		return "annotation"
	case *Term1Construct:
		return "completion"
	case *TermInteger:
		return "integer"
	case *TermDouble:
		return "double"
	case *TermVar:
		return "variable"
	case *TermFieldAccess:
		return "field access"
	case *TermProject:
		return "projection"
	case *TermPath:
		return "path"
	case *TermText:
		return "text"
	case *TermList:
		return "list"
	case *TermRecord:
		return "record"
	case *TermTypeRecord:
		return "record type"
	case *TermTypeEnum:
		return "union type"
	case *TermImport:
		return "import"
	case *TermExpr:
		return "parens"
	case *TermMerge:
		return "merge"
	case *TermEmbed:
		return "embed"
	}
	return "unknown"
}
