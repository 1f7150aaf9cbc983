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
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/purpleidea/dust/lang/interfaces"
)

// These are the precedence levels used to decide where parentheses go. A node
// printed in a position which needs a higher level than its own is wrapped.
const (
	precExpr      = 0
	precOp        = 10 // plus the index into Operators
	precWith      = 50
	precApp       = 60
	precConstruct = 70
	precAtom      = 100
)

// Operators lists the binary operators from the loosest to the tightest
// binding. All of them are left associative. The unicode spellings are
// normalized to these by the lexer.
var Operators = []string{
	"||",
	"+",
	"++",
	"#",
	"&&",
	`/\`,
	"//",
	`//\\`,
	"*",
	"==",
	"!=",
	"===",
}

// Keywords can't be used as plain labels.
var Keywords = []string{
	"let",
	"in",
	"with",
	"if",
	"then",
	"else",
	"merge",
	"missing",
	"as",
	"forall",
}

// OpPrecedence returns the precedence of a binary operator, or -1 if it isn't
// one.
func OpPrecedence(op string) int {
	for i, x := range Operators {
		if x == op {
			return precOp + i
		}
	}
	return -1
}

// IsKeyword returns true if this word is reserved.
func IsKeyword(s string) bool {
	for _, x := range Keywords {
		if x == s {
			return true
		}
	}
	return false
}

// IsLabel returns true if the string can be written as a plain label without
// backticks.
func IsLabel(s string) bool {
	if s == "" || IsKeyword(s) {
		return false
	}
	for i, r := range s {
		if r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') {
			continue
		}
		if i > 0 && (('0' <= r && r <= '9') || r == '-' || r == '/') {
			continue
		}
		return false
	}
	return true
}

func label(s string) string {
	if IsLabel(s) {
		return s
	}
	return "`" + s + "`"
}

// Show renders a node of any level into source syntax. Parentheses are added
// where the precedence of a child requires them, and the distance of a
// variable is written only when it isn't zero.
func Show(n Node) string {
	p := &printer{}
	p.node(n, precExpr)
	return p.b.String()
}

// Truncate shortens printed source to at most n characters for messages.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

// Short is the truncated rendering of a node used in error messages.
func Short(n Node) string {
	return Truncate(Show(n), interfaces.TruncateLen)
}

type printer struct {
	b strings.Builder
}

func (obj *printer) write(s ...string) {
	for _, x := range s {
		obj.b.WriteString(x)
	}
}

// level returns the precedence level of a node.
func level(n Node) int {
	switch x := n.(type) {
	case *ExprTerm1:
		return level(x.Term1)
	case *ExprLet, *ExprLambda:
		return precExpr

	case *Term1Term:
		return level(x.Term)
	case *Term1Evaluation:
		return precApp
	case *Term1Arrow, *Term1IfThenElse, *Term1Ascribe:
		return precExpr
	case *Term1With:
		return precWith
	case *Term1Operation:
		if p := OpPrecedence(x.Op); p >= 0 {
			return p
		}
		return precOp
	case *Term1Construct:
		return precConstruct

	case *TermMerge:
		return precApp
	case *TermImport:
		if x.Fallback != nil {
			return precExpr
		}
	}
	return precAtom
}

// node prints n, parenthesized if its level is below min.
func (obj *printer) node(n Node, min int) {
	if n == nil {
		obj.write("<nil>")
		return
	}
	if level(n) < min {
		obj.write("(")
		obj.node(n, precExpr)
		obj.write(")")
		return
	}

	switch x := n.(type) {
	case *ExprTerm1:
		obj.node(x.Term1, min)

	case *ExprLet:
		for _, b := range x.Bindings {
			obj.write("let ", label(b.Name))
			if b.Type != nil {
				obj.write(" : ")
				obj.node(b.Type, precExpr)
			}
			obj.write(" = ")
			obj.node(b.Value, precExpr)
			obj.write(" ")
		}
		obj.write("in ")
		obj.node(x.Body, precExpr)

	case *ExprLambda:
		obj.write(`\(`, label(x.Param))
		if x.Type != nil {
			obj.write(" : ")
			obj.node(x.Type, precExpr)
		}
		obj.write(") -> ")
		obj.node(x.Body, precExpr)

	case *Term1Term:
		obj.node(x.Term, min)

	case *Term1Evaluation:
		obj.node(x.Func, precApp)
		obj.write(" ")
		obj.node(x.Arg, precAtom)

	case *Term1Arrow:
		if x.Param != "" {
			obj.write("forall (", label(x.Param), " : ")
			obj.node(x.Domain, precExpr)
			obj.write(") -> ")
		} else {
			obj.node(x.Domain, precOp)
			obj.write(" -> ")
		}
		obj.node(x.Codomain, precExpr)

	case *Term1With:
		obj.node(x.Base, precWith)
		obj.write(" with ", JoinPath(x.Path), " = ")
		obj.node(x.Value, precWith+1)

	case *Term1Operation:
		p := level(x)
		obj.node(x.Left, p)
		obj.write(" ", x.Op, " ")
		obj.node(x.Right, p+1)

	case *Term1IfThenElse:
		obj.write("if ")
		obj.node(x.Cond, precExpr)
		obj.write(" then ")
		obj.node(x.Then, precExpr)
		obj.write(" else ")
		obj.node(x.Else, precExpr)

	case *Term1Ascribe:
		obj.node(x.Term, precOp)
		obj.write(" : ")
		obj.node(x.Type, precExpr)

	case *Term1Construct:
		obj.node(x.Term, precAtom)
		obj.write("::")
		obj.fields(x.Fields, "=", "{=}")

	case *TermInteger:
		if x.Signed && x.Value >= 0 {
			obj.write("+")
		}
		obj.write(strconv.FormatInt(x.Value, 10))

	case *TermDouble:
		obj.write(formatDouble(x.Value))

	case *TermVar:
		obj.write(label(x.Name))
		if x.Distance != 0 {
			obj.write(interfaces.DistanceSep, strconv.Itoa(x.Distance))
		}

	case *TermFieldAccess:
		obj.node(x.Term, precAtom)
		obj.write(interfaces.FieldSep, label(x.Field))

	case *TermProject:
		obj.node(x.Term, precAtom)
		if x.Style == ProjectType && len(x.Selectors) == 1 {
			obj.write(".(")
			obj.node(x.Selectors[0], precExpr)
			obj.write(")")
			break
		}
		obj.write(".{ ")
		for i, s := range x.Selectors {
			if i > 0 {
				obj.write(", ")
			}
			obj.node(s, precExpr)
		}
		obj.write(" }")

	case *TermPath:
		for i, t := range x.Terms {
			if i > 0 {
				obj.write(interfaces.FieldSep)
			}
			obj.node(t, precAtom)
		}

	case *TermText:
		obj.text(x)

	case *TermList:
		if len(x.Elems) == 0 {
			obj.write("[]")
			break
		}
		obj.write("[ ")
		for i, e := range x.Elems {
			if i > 0 {
				obj.write(", ")
			}
			obj.node(e, precExpr)
		}
		obj.write(" ]")

	case *TermRecord:
		obj.fields(x.Fields, "=", "{=}")

	case *TermTypeRecord:
		obj.fields(x.Fields, ":", "{}")

	case *TermTypeEnum:
		if len(x.Alts) == 0 {
			obj.write("<>")
			break
		}
		obj.write("< ")
		for i, a := range x.Alts {
			if i > 0 {
				obj.write(" | ")
			}
			obj.write(label(a.Tag))
			if a.Type != nil {
				obj.write(" : ")
				obj.node(a.Type, precExpr)
			}
		}
		obj.write(" >")

	case *TermImport:
		obj.write(x.Path)
		if x.Guard != "" {
			obj.write(" sha256:", x.Guard)
		}
		if x.As != "" {
			obj.write(" as ", x.As)
		}
		if x.Fallback != nil {
			obj.write(" ? ")
			obj.node(x.Fallback, precExpr)
		}

	case *TermExpr:
		obj.write("(")
		obj.node(x.Expr, precExpr)
		obj.write(")")

	case *TermMerge:
		obj.write("merge ")
		obj.fields(x.Handlers, "=", "{=}")
		obj.write(" ")
		obj.node(x.Scrutinee, precAtom)

	case *TermEmbed:
		obj.write(quote(x.Raw))

	default:
		obj.write(fmt.Sprintf("<%T>", n))
	}
}

func (obj *printer) fields(fields []*RecordEntry, sep, empty string) {
	if len(fields) == 0 {
		obj.write(empty)
		return
	}
	obj.write("{ ")
	for i, f := range fields {
		if i > 0 {
			obj.write(", ")
		}
		obj.write(JoinPath(f.Path), " ", sep, " ")
		obj.node(f.Value, precExpr)
	}
	obj.write(" }")
}

func (obj *printer) text(x *TermText) {
	multiline := x.Style == TextMultiline
	for _, e := range x.Entries {
		if strings.HasSuffix(e.Literal, "'") {
			multiline = false // the closing quotes would be ambiguous
		}
	}

	if multiline {
		obj.write("''\n")
	} else {
		obj.write(`"`)
	}
	for _, e := range x.Entries {
		if multiline {
			s := strings.ReplaceAll(e.Literal, "''", "'''")
			obj.write(strings.ReplaceAll(s, "${", "''${"))
		} else {
			obj.write(escape(e.Literal))
		}
		if e.Interpolated != nil {
			obj.write("${")
			obj.node(e.Interpolated, precExpr)
			obj.write("}")
		}
	}
	if multiline {
		obj.write("''")
	} else {
		obj.write(`"`)
	}
}

// quote renders a string as a double quoted text literal.
func quote(s string) string {
	return `"` + escape(s) + `"`
}

func escape(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '$':
			if strings.HasPrefix(s[i:], "${") {
				b.WriteString(`\$`)
				continue
			}
			b.WriteRune(r)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

func formatDouble(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
