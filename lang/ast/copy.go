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

// Copy returns a deep copy of the tree. Cached scopes are copied along with
// the variables, and nothing is shared with the original.
func Copy(n Node) Node {
	if n == nil {
		return nil
	}
	switch x := n.(type) {
	case *ExprTerm1:
		return &ExprTerm1{Term1: CopyTerm1(x.Term1)}
	case *ExprLet:
		bindings := make([]*Binding, 0, len(x.Bindings))
		for _, b := range x.Bindings {
			bindings = append(bindings, &Binding{
				Name:  b.Name,
				Type:  CopyExpr(b.Type),
				Value: CopyExpr(b.Value),
			})
		}
		return &ExprLet{Bindings: bindings, Body: CopyExpr(x.Body)}
	case *ExprLambda:
		return &ExprLambda{Param: x.Param, Type: CopyExpr(x.Type), Body: CopyExpr(x.Body)}

	case *Term1Term:
		return &Term1Term{Term: CopyTerm(x.Term)}
	case *Term1Evaluation:
		return &Term1Evaluation{Func: CopyTerm1(x.Func), Arg: CopyTerm(x.Arg)}
	case *Term1Arrow:
		return &Term1Arrow{Param: x.Param, Domain: CopyExpr(x.Domain), Codomain: CopyExpr(x.Codomain)}
	case *Term1With:
		return &Term1With{Base: CopyTerm1(x.Base), Path: copyStrings(x.Path), Value: CopyTerm1(x.Value)}
	case *Term1Operation:
		return &Term1Operation{Left: CopyTerm1(x.Left), Op: x.Op, Right: CopyTerm1(x.Right)}
	case *Term1IfThenElse:
		return &Term1IfThenElse{Cond: CopyExpr(x.Cond), Then: CopyExpr(x.Then), Else: CopyExpr(x.Else)}
	case *Term1Ascribe:
		return &Term1Ascribe{Term: CopyTerm1(x.Term), Type: CopyExpr(x.Type)}
	case *Term1Construct:
		return &Term1Construct{Term: CopyTerm1(x.Term), Fields: copyFields(x.Fields)}

	case *TermInteger:
		return &TermInteger{Value: x.Value, Signed: x.Signed}
	case *TermDouble:
		return &TermDouble{Value: x.Value}
	case *TermVar:
		v := &TermVar{Name: x.Name, Distance: x.Distance}
		if x.ScopeID != nil {
			id := *x.ScopeID
			v.ScopeID = &id
		}
		return v
	case *TermFieldAccess:
		return &TermFieldAccess{Term: CopyTerm(x.Term), Field: x.Field}
	case *TermProject:
		selectors := make([]Term1, 0, len(x.Selectors))
		for _, s := range x.Selectors {
			selectors = append(selectors, CopyTerm1(s))
		}
		return &TermProject{Style: x.Style, Term: CopyTerm(x.Term), Selectors: selectors}
	case *TermPath:
		terms := make([]Term, 0, len(x.Terms))
		for _, t := range x.Terms {
			terms = append(terms, CopyTerm(t))
		}
		return &TermPath{Terms: terms}
	case *TermText:
		entries := make([]*TextEntry, 0, len(x.Entries))
		for _, e := range x.Entries {
			entries = append(entries, &TextEntry{Literal: e.Literal, Interpolated: CopyExpr(e.Interpolated)})
		}
		return &TermText{Style: x.Style, Entries: entries}
	case *TermList:
		elems := make([]Expr, 0, len(x.Elems))
		for _, e := range x.Elems {
			elems = append(elems, CopyExpr(e))
		}
		return &TermList{Elems: elems}
	case *TermRecord:
		return &TermRecord{Fields: copyFields(x.Fields)}
	case *TermTypeRecord:
		return &TermTypeRecord{Fields: copyFields(x.Fields)}
	case *TermTypeEnum:
		alts := make([]*EnumAlt, 0, len(x.Alts))
		for _, a := range x.Alts {
			alts = append(alts, &EnumAlt{Tag: a.Tag, Type: CopyExpr(a.Type)})
		}
		return &TermTypeEnum{Alts: alts}
	case *TermImport:
		return copyImport(x)
	case *TermExpr:
		return &TermExpr{Expr: CopyExpr(x.Expr)}
	case *TermMerge:
		return &TermMerge{Handlers: copyFields(x.Handlers), Scrutinee: CopyTerm(x.Scrutinee)}
	case *TermEmbed:
		return &TermEmbed{Raw: x.Raw}
	}
	panic(fmt.Sprintf("unexpected node: %T", n))
}

// CopyExpr is Copy for an Expr. It passes nil through.
func CopyExpr(e Expr) Expr {
	if e == nil {
		return nil
	}
	return Copy(e).(Expr)
}

// CopyTerm1 is Copy for a Term1.
func CopyTerm1(t Term1) Term1 {
	if t == nil {
		return nil
	}
	return Copy(t).(Term1)
}

// CopyTerm is Copy for a Term.
func CopyTerm(t Term) Term {
	if t == nil {
		return nil
	}
	return Copy(t).(Term)
}

func copyImport(x *TermImport) *TermImport {
	if x == nil {
		return nil
	}
	return &TermImport{
		Path:     x.Path,
		Guard:    x.Guard,
		As:       x.As,
		Fallback: copyImport(x.Fallback),
	}
}

func copyFields(fields []*RecordEntry) []*RecordEntry {
	out := make([]*RecordEntry, 0, len(fields))
	for _, f := range fields {
		out = append(out, &RecordEntry{Path: copyStrings(f.Path), Value: CopyExpr(f.Value)})
	}
	return out
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}
