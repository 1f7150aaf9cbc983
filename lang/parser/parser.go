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

package parser

import (
	"math"
	"strconv"

	"github.com/purpleidea/dust/lang/ast"
	"github.com/purpleidea/dust/lang/interfaces"
)

// parser is a recursive descent parser over the token list. Errors panic with
// a *LexParseErr which parse recovers.
type parser struct {
	tokens []token
	pos    int

	// noWith is set while parsing the value of a with clause, so that a
	// following with applies to the whole update and not to the value.
	noWith bool
}

func (obj *parser) parse() (expr ast.Expr, err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(*LexParseErr)
			if !ok {
				panic(r)
			}
			expr, err = nil, e
		}
	}()

	expr = obj.expr()
	if tok := obj.peek(); tok.kind != tokEOF {
		obj.fail(tok, ErrParseError)
	}
	return expr, nil
}

func (obj *parser) peek() token {
	return obj.tokens[obj.pos]
}

func (obj *parser) next() token {
	tok := obj.tokens[obj.pos]
	if tok.kind != tokEOF {
		obj.pos++
	}
	return tok
}

func (obj *parser) fail(tok token, kind interfaces.Error) {
	if tok.kind == tokEOF {
		kind = ErrParseEOF
	}
	panic(&LexParseErr{
		Err: kind,
		Str: tok.text,
		Row: tok.row,
		Col: tok.col,
	})
}

// at returns true if the next token is of this kind and, when text is not
// empty, has this text.
func (obj *parser) at(kind tokenKind, text string) bool {
	tok := obj.peek()
	return tok.kind == kind && (text == "" || tok.text == text)
}

func (obj *parser) atPunct(text string) bool {
	return obj.at(tokPunct, text)
}

func (obj *parser) atKeyword(text string) bool {
	return obj.at(tokKeyword, text)
}

func (obj *parser) expect(kind tokenKind, text string) token {
	if !obj.at(kind, text) {
		obj.fail(obj.peek(), ErrParseError)
	}
	return obj.next()
}

func (obj *parser) label() string {
	tok := obj.peek()
	if tok.kind != tokIdent {
		obj.fail(tok, ErrParseError)
	}
	obj.next()
	return tok.text
}

// path parses a dotted list of labels.
func (obj *parser) path() []string {
	path := []string{obj.label()}
	for obj.atPunct(".") {
		obj.next()
		path = append(path, obj.label())
	}
	return path
}

// expr parses the loosest level: let, lambda, or a Term1.
func (obj *parser) expr() ast.Expr {
	saved := obj.noWith
	obj.noWith = false
	defer func() { obj.noWith = saved }()

	switch {
	case obj.atKeyword("let"):
		let := &ast.ExprLet{}
		for obj.atKeyword("let") {
			obj.next()
			b := &ast.Binding{Name: obj.label()}
			if obj.atPunct(":") {
				obj.next()
				b.Type = obj.expr()
			}
			obj.expect(tokPunct, "=")
			b.Value = obj.expr()
			let.Bindings = append(let.Bindings, b)
		}
		obj.expect(tokKeyword, "in")
		let.Body = obj.expr()
		return let

	case obj.at(tokLambda, ""):
		obj.next()
		obj.expect(tokPunct, "(")
		lambda := &ast.ExprLambda{Param: obj.label()}
		if obj.atPunct(":") {
			obj.next()
			lambda.Type = obj.expr()
		}
		obj.expect(tokPunct, ")")
		obj.expect(tokArrow, "")
		lambda.Body = obj.expr()
		return lambda
	}

	return &ast.ExprTerm1{Term1: obj.term1()}
}

// term1 parses conditionals, arrows, annotations and operator expressions.
func (obj *parser) term1() ast.Term1 {
	switch {
	case obj.atKeyword("if"):
		obj.next()
		x := &ast.Term1IfThenElse{}
		x.Cond = obj.expr()
		obj.expect(tokKeyword, "then")
		x.Then = obj.expr()
		obj.expect(tokKeyword, "else")
		x.Else = obj.expr()
		return x

	case obj.at(tokForall, ""):
		obj.next()
		obj.expect(tokPunct, "(")
		x := &ast.Term1Arrow{Param: obj.label()}
		obj.expect(tokPunct, ":")
		x.Domain = obj.expr()
		obj.expect(tokPunct, ")")
		obj.expect(tokArrow, "")
		x.Codomain = obj.expr()
		return x
	}

	op := obj.operation(0)
	switch {
	case obj.at(tokArrow, ""):
		obj.next()
		return &ast.Term1Arrow{Domain: ast.ToExpr(op), Codomain: obj.expr()}

	case obj.atPunct(":"):
		obj.next()
		return &ast.Term1Ascribe{Term: op, Type: obj.expr()}
	}
	return op
}

// operation parses binary operators by precedence climbing.
func (obj *parser) operation(min int) ast.Term1 {
	left := obj.with()
	for {
		tok := obj.peek()
		if tok.kind != tokOp {
			return left
		}
		prec := ast.OpPrecedence(tok.text)
		if prec < 0 {
			obj.fail(tok, ErrParseError)
		}
		if prec < min {
			return left
		}
		obj.next()
		right := obj.operation(prec + 1)
		left = &ast.Term1Operation{Left: left, Op: tok.text, Right: right}
	}
}

// with parses record updates, which are left associative.
func (obj *parser) with() ast.Term1 {
	base := obj.application()
	for !obj.noWith && obj.atKeyword("with") {
		obj.next()
		x := &ast.Term1With{Base: base, Path: obj.path()}
		obj.expect(tokPunct, "=")
		obj.noWith = true
		x.Value = obj.operation(0)
		obj.noWith = false
		base = x
	}
	return base
}

// startsTerm returns true if the next token can begin an argument.
func (obj *parser) startsTerm() bool {
	tok := obj.peek()
	switch tok.kind {
	case tokIdent, tokNatural, tokInteger, tokDouble, tokPath, tokTextOpen:
		return true
	case tokKeyword:
		return tok.text == interfaces.MissingImport
	case tokPunct:
		switch tok.text {
		case "(", "[", "{", "<":
			return true
		}
	}
	return false
}

// application parses function application, which is left associative, and
// merge.
func (obj *parser) application() ast.Term1 {
	var f ast.Term1
	if obj.atKeyword("merge") {
		tok := obj.next()
		handlers, ok := obj.selector().(*ast.TermRecord)
		if !ok {
			obj.fail(tok, ErrParseMergeHandlers)
		}
		scrutinee := obj.selector()
		f = &ast.Term1Term{Term: &ast.TermMerge{Handlers: handlers.Fields, Scrutinee: scrutinee}}
	} else {
		f = obj.completion()
	}
	for obj.startsTerm() {
		f = &ast.Term1Evaluation{Func: f, Arg: obj.selector()}
	}
	return f
}

// completion parses `T::{ fields }`.
func (obj *parser) completion() ast.Term1 {
	t := obj.selector()
	if !obj.atPunct("::") {
		return &ast.Term1Term{Term: t}
	}
	tok := obj.next()
	rec, ok := obj.selector().(*ast.TermRecord)
	if !ok {
		obj.fail(tok, ErrParseCompletion)
	}
	return &ast.Term1Construct{Term: &ast.Term1Term{Term: t}, Fields: rec.Fields}
}

// selector parses field access and projection chains.
func (obj *parser) selector() ast.Term {
	t := obj.primitive()
	for obj.atPunct(".") {
		obj.next()
		switch {
		case obj.atPunct("{"):
			obj.next()
			x := &ast.TermProject{Style: ast.ProjectKeep, Term: t, Selectors: []ast.Term1{}}
			for !obj.atPunct("}") {
				if len(x.Selectors) > 0 {
					obj.expect(tokPunct, ",")
					if obj.atPunct("}") { // trailing comma
						break
					}
				}
				name := obj.label()
				x.Selectors = append(x.Selectors, &ast.Term1Term{Term: &ast.TermVar{Name: name}})
			}
			obj.expect(tokPunct, "}")
			t = x

		case obj.atPunct("("):
			obj.next()
			typ := obj.expr()
			obj.expect(tokPunct, ")")
			t = &ast.TermProject{Style: ast.ProjectType, Term: t, Selectors: []ast.Term1{ast.ToTerm1(typ)}}

		default:
			t = &ast.TermFieldAccess{Term: t, Field: obj.label()}
		}
	}
	return t
}

// primitive parses an atom.
func (obj *parser) primitive() ast.Term {
	tok := obj.peek()
	switch tok.kind {
	case tokNatural, tokInteger:
		obj.next()
		v, err := strconv.ParseInt(tok.text, 10, 64)
		if err != nil {
			obj.fail(tok, ErrLexerIntegerOverflow)
		}
		return &ast.TermInteger{Value: v, Signed: tok.kind == tokInteger}

	case tokDouble:
		obj.next()
		if tok.text == "-Infinity" {
			return &ast.TermDouble{Value: math.Inf(-1)}
		}
		v, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			obj.fail(tok, ErrLexerFloatOverflow)
		}
		return &ast.TermDouble{Value: v}

	case tokIdent:
		obj.next()
		if !tok.quoted {
			switch tok.text {
			case "NaN":
				return &ast.TermDouble{Value: math.NaN()}
			case "Infinity":
				return &ast.TermDouble{Value: math.Inf(1)}
			}
		}
		v := &ast.TermVar{Name: tok.text}
		if obj.atPunct(interfaces.DistanceSep) {
			obj.next()
			d := obj.peek()
			if d.kind != tokNatural {
				obj.fail(d, ErrParseBadDistance)
			}
			obj.next()
			n, err := strconv.Atoi(d.text)
			if err != nil {
				obj.fail(d, ErrParseBadDistance)
			}
			v.Distance = n
		}
		return v

	case tokPath:
		return obj.importExpr()

	case tokKeyword:
		if tok.text == interfaces.MissingImport {
			return obj.importExpr()
		}

	case tokTextOpen:
		return obj.text()

	case tokPunct:
		switch tok.text {
		case "(":
			obj.next()
			e := obj.expr()
			obj.expect(tokPunct, ")")
			return &ast.TermExpr{Expr: e}

		case "[":
			obj.next()
			x := &ast.TermList{Elems: []ast.Expr{}}
			for !obj.atPunct("]") {
				if len(x.Elems) > 0 {
					obj.expect(tokPunct, ",")
				}
				x.Elems = append(x.Elems, obj.expr())
			}
			obj.expect(tokPunct, "]")
			return x

		case "{":
			return obj.record()

		case "<":
			return obj.union()
		}
	}
	obj.fail(tok, ErrParseError)
	return nil // unreachable
}

// importExpr parses an import location with its optional hash, its optional
// mode, and any fallbacks.
func (obj *parser) importExpr() ast.Term {
	tok := obj.next()
	x := &ast.TermImport{Path: tok.text}
	if obj.at(tokHash, "") {
		x.Guard = obj.next().text
	}
	if obj.atKeyword("as") {
		obj.next()
		mode := obj.peek()
		if mode.kind != tokIdent || (mode.text != "Text" && mode.text != "Location") {
			obj.fail(mode, ErrParseError)
		}
		x.As = obj.next().text
	}
	if obj.atPunct("?") {
		obj.next()
		next := obj.peek()
		if next.kind != tokPath && !(next.kind == tokKeyword && next.text == interfaces.MissingImport) {
			obj.fail(next, ErrParseError)
		}
		x.Fallback = obj.importExpr().(*ast.TermImport)
	}
	return x
}

// text parses the chunks and interpolations of a text literal.
func (obj *parser) text() ast.Term {
	open := obj.next()
	x := &ast.TermText{Style: ast.TextQuoted, Entries: []*ast.TextEntry{}}
	if open.text == "''" {
		x.Style = ast.TextMultiline
	}
	literal := ""
	for {
		tok := obj.next()
		switch tok.kind {
		case tokTextChunk:
			literal += tok.text

		case tokInterpOpen:
			e := obj.expr()
			obj.expect(tokInterpClose, "")
			x.Entries = append(x.Entries, &ast.TextEntry{Literal: literal, Interpolated: e})
			literal = ""

		case tokTextClose:
			if literal != "" || len(x.Entries) == 0 {
				x.Entries = append(x.Entries, &ast.TextEntry{Literal: literal})
			}
			return x

		default:
			obj.fail(tok, ErrParseError)
		}
	}
}

// record parses a record literal, a record type, or one of the empty forms
// `{=}` and `{}`.
func (obj *parser) record() ast.Term {
	obj.expect(tokPunct, "{")
	if obj.atPunct("}") {
		obj.next()
		return &ast.TermTypeRecord{Fields: []*ast.RecordEntry{}}
	}
	if obj.atPunct("=") {
		obj.next()
		obj.expect(tokPunct, "}")
		return &ast.TermRecord{Fields: []*ast.RecordEntry{}}
	}

	first := obj.path()
	if len(first) == 1 && obj.atPunct(":") {
		fields := []*ast.RecordEntry{}
		path := first
		for {
			obj.expect(tokPunct, ":")
			fields = append(fields, &ast.RecordEntry{Path: path, Value: obj.expr()})
			if !obj.atPunct(",") {
				break
			}
			obj.next()
			if obj.atPunct("}") {
				break
			}
			path = []string{obj.label()}
		}
		obj.expect(tokPunct, "}")
		return &ast.TermTypeRecord{Fields: fields}
	}

	fields := []*ast.RecordEntry{}
	path := first
	for {
		entry := &ast.RecordEntry{Path: path}
		if obj.atPunct("=") {
			obj.next()
			entry.Value = obj.expr()
		} else {
			if len(path) != 1 {
				obj.fail(obj.peek(), ErrParseError)
			}
			// the punned form `{ x }` means `{ x = x }`
			entry.Value = &ast.ExprTerm1{Term1: &ast.Term1Term{Term: &ast.TermVar{Name: path[0]}}}
		}
		fields = append(fields, entry)
		if !obj.atPunct(",") {
			break
		}
		obj.next()
		if obj.atPunct("}") {
			break
		}
		path = obj.path()
	}
	obj.expect(tokPunct, "}")
	return &ast.TermRecord{Fields: fields}
}

// union parses a union type.
func (obj *parser) union() ast.Term {
	obj.expect(tokPunct, "<")
	x := &ast.TermTypeEnum{Alts: []*ast.EnumAlt{}}
	if obj.atPunct(">") {
		obj.next()
		return x
	}
	for {
		alt := &ast.EnumAlt{Tag: obj.label()}
		if obj.atPunct(":") {
			obj.next()
			alt.Type = obj.expr()
		}
		x.Alts = append(x.Alts, alt)
		if !obj.atPunct("|") {
			break
		}
		obj.next()
	}
	obj.expect(tokPunct, ">")
	return x
}
