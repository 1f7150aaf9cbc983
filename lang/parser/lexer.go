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
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/purpleidea/dust/lang/ast"
	"github.com/purpleidea/dust/lang/interfaces"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokKeyword
	tokNatural
	tokInteger
	tokDouble
	tokPath // a local path or a url
	tokHash // the hex digits of a sha256 integrity check
	tokTextOpen
	tokTextChunk
	tokTextClose
	tokInterpOpen
	tokInterpClose
	tokLambda
	tokForall
	tokArrow
	tokOp
	tokPunct
)

func (obj tokenKind) String() string {
	switch obj {
	case tokEOF:
		return "end of input"
	case tokIdent:
		return "identifier"
	case tokKeyword:
		return "keyword"
	case tokNatural, tokInteger, tokDouble:
		return "number"
	case tokPath:
		return "import"
	case tokHash:
		return "hash"
	case tokTextOpen, tokTextChunk, tokTextClose:
		return "text"
	case tokInterpOpen, tokInterpClose:
		return "interpolation"
	case tokLambda:
		return "lambda"
	case tokForall:
		return "forall"
	case tokArrow:
		return "arrow"
	case tokOp:
		return "operator"
	}
	return "punctuation"
}

type token struct {
	kind tokenKind
	text string

	// quoted is set for a `backtick` identifier, which may be a keyword.
	quoted bool

	row int
	col int
}

type mode int

const (
	modeCode mode = iota
	modeBrace
	modeInterp
	modeQuoted
	modeMultiline
)

// punctuation is matched longest first.
var punctuation = []struct {
	text string
	kind tokenKind
	norm string
}{
	{`//\\`, tokOp, `//\\`},
	{`/\`, tokOp, `/\`},
	{"//", tokOp, "//"},
	{"->", tokArrow, "->"},
	{"===", tokOp, "==="},
	{"==", tokOp, "=="},
	{"!=", tokOp, "!="},
	{"&&", tokOp, "&&"},
	{"||", tokOp, "||"},
	{"++", tokOp, "++"},
	{"::", tokPunct, "::"},
	{`\`, tokLambda, `\`},
	{"λ", tokLambda, `\`},
	{"∀", tokForall, "forall"},
	{"→", tokArrow, "->"},
	{"∧", tokOp, `/\`},
	{"⩓", tokOp, `//\\`},
	{"⫽", tokOp, "//"},
	{"≡", tokOp, "==="},
	{"+", tokOp, "+"},
	{"*", tokOp, "*"},
	{"#", tokOp, "#"},
	{"(", tokPunct, "("},
	{")", tokPunct, ")"},
	{"[", tokPunct, "["},
	{"]", tokPunct, "]"},
	{"<", tokPunct, "<"},
	{">", tokPunct, ">"},
	{",", tokPunct, ","},
	{".", tokPunct, "."},
	{"|", tokPunct, "|"},
	{":", tokPunct, ":"},
	{"=", tokPunct, "="},
	{"@", tokPunct, "@"},
	{"?", tokPunct, "?"},
}

// lexer turns the source into tokens in one pass. Text literals switch modes
// so that interpolations nest.
type lexer struct {
	src string
	pos int
	row int
	col int

	modes  []mode
	tokens []token
}

// lex returns every token of the source, ending with tokEOF.
func lex(src string) (tokens []token, err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(*LexParseErr)
			if !ok {
				panic(r)
			}
			err = e
		}
	}()

	obj := &lexer{
		src:   src,
		modes: []mode{modeCode},
	}
	obj.run()
	return obj.tokens, nil
}

func (obj *lexer) fail(kind interfaces.Error, str string) {
	panic(&LexParseErr{
		Err: kind,
		Str: str,
		Row: obj.row,
		Col: obj.col,
	})
}

func (obj *lexer) top() mode {
	return obj.modes[len(obj.modes)-1]
}

func (obj *lexer) push(m mode) {
	obj.modes = append(obj.modes, m)
}

func (obj *lexer) pop() {
	obj.modes = obj.modes[:len(obj.modes)-1]
}

func (obj *lexer) emit(kind tokenKind, text string, row, col int) {
	obj.tokens = append(obj.tokens, token{kind: kind, text: text, row: row, col: col})
}

func (obj *lexer) eof() bool {
	return obj.pos >= len(obj.src)
}

func (obj *lexer) rest() string {
	return obj.src[obj.pos:]
}

func (obj *lexer) peekRune() rune {
	r, _ := utf8.DecodeRuneInString(obj.rest())
	return r
}

// advance moves past n bytes, keeping track of the row and column.
func (obj *lexer) advance(n int) {
	for _, r := range obj.src[obj.pos : obj.pos+n] {
		if r == '\n' {
			obj.row++
			obj.col = 0
			continue
		}
		obj.col++
	}
	obj.pos += n
}

func (obj *lexer) run() {
	if strings.HasPrefix(obj.src, "#!") { // shebang
		obj.skipLine()
	}
	for {
		switch obj.top() {
		case modeQuoted:
			obj.quoted()
			continue
		case modeMultiline:
			obj.multiline()
			continue
		}

		obj.skipSpace()
		if obj.eof() {
			if len(obj.modes) > 1 {
				obj.fail(ErrLexerUnterminated, "{")
			}
			obj.emit(tokEOF, "", obj.row, obj.col)
			return
		}
		obj.code()
	}
}

func (obj *lexer) skipLine() {
	if i := strings.IndexByte(obj.rest(), '\n'); i >= 0 {
		obj.advance(i + 1)
		return
	}
	obj.advance(len(obj.rest()))
}

// skipSpace skips whitespace and comments.
func (obj *lexer) skipSpace() {
	for !obj.eof() {
		s := obj.rest()
		switch {
		case s[0] == ' ' || s[0] == '\t' || s[0] == '\n' || s[0] == '\r':
			obj.advance(1)
		case strings.HasPrefix(s, "--"):
			obj.skipLine()
		case strings.HasPrefix(s, "{-"):
			obj.blockComment()
		default:
			return
		}
	}
}

// blockComment skips a nested `{- -}` comment.
func (obj *lexer) blockComment() {
	depth := 0
	for !obj.eof() {
		s := obj.rest()
		switch {
		case strings.HasPrefix(s, "{-"):
			depth++
			obj.advance(2)
		case strings.HasPrefix(s, "-}"):
			depth--
			obj.advance(2)
			if depth == 0 {
				return
			}
		default:
			_, n := utf8.DecodeRuneInString(s)
			obj.advance(n)
		}
	}
	obj.fail(ErrLexerUnterminated, "{-")
}

func isLabelStart(r rune) bool {
	return r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}

func isLabelRune(r rune) bool {
	return isLabelStart(r) || ('0' <= r && r <= '9') || r == '-' || r == '/'
}

func isDigit(b byte) bool {
	return '0' <= b && b <= '9'
}

// isPathRune is true for the characters allowed in an import location.
func isPathRune(r rune) bool {
	if unicode.IsSpace(r) {
		return false
	}
	return !strings.ContainsRune(`()[]{}<>,"@`, r)
}

func (obj *lexer) code() {
	s := obj.rest()
	row, col := obj.row, obj.col

	switch {
	case s[0] == '"':
		obj.emit(tokTextOpen, `"`, row, col)
		obj.advance(1)
		obj.push(modeQuoted)
		return

	case strings.HasPrefix(s, "''"):
		obj.emit(tokTextOpen, "''", row, col)
		obj.advance(2)
		if strings.HasPrefix(obj.rest(), "\r\n") {
			obj.advance(2)
		} else if strings.HasPrefix(obj.rest(), "\n") {
			obj.advance(1)
		}
		obj.push(modeMultiline)
		return

	case s[0] == '{':
		obj.emit(tokPunct, "{", row, col)
		obj.advance(1)
		obj.push(modeBrace)
		return

	case s[0] == '}':
		switch obj.top() {
		case modeBrace:
			obj.emit(tokPunct, "}", row, col)
		case modeInterp:
			obj.emit(tokInterpClose, "}", row, col)
		default:
			obj.fail(ErrLexerUnrecognized, "}")
		}
		obj.advance(1)
		obj.pop()
		return

	case s[0] == '`':
		end := strings.IndexByte(s[1:], '`')
		if end < 0 {
			obj.fail(ErrLexerUnterminated, "`")
		}
		obj.tokens = append(obj.tokens, token{kind: tokIdent, text: s[1 : end+1], quoted: true, row: row, col: col})
		obj.advance(end + 2)
		return

	case strings.HasPrefix(s, "sha256:"):
		n := len("sha256:")
		for n < len(s) && strings.ContainsRune("0123456789abcdefABCDEF", rune(s[n])) {
			n++
		}
		obj.emit(tokHash, strings.ToLower(s[len("sha256:"):n]), row, col)
		obj.advance(n)
		return

	case isImportStart(s):
		n := 0
		for n < len(s) {
			r, size := utf8.DecodeRuneInString(s[n:])
			if !isPathRune(r) {
				break
			}
			n += size
		}
		obj.emit(tokPath, s[:n], row, col)
		obj.advance(n)
		return

	case isDigit(s[0]):
		obj.number(0)
		return

	case (s[0] == '+' || s[0] == '-') && len(s) > 1 && isDigit(s[1]):
		obj.number(1)
		return

	case strings.HasPrefix(s, "-Infinity"):
		obj.emit(tokDouble, "-Infinity", row, col)
		obj.advance(len("-Infinity"))
		return
	}

	if r := obj.peekRune(); isLabelStart(r) {
		n := 0
		for n < len(s) {
			r, size := utf8.DecodeRuneInString(s[n:])
			if !isLabelRune(r) || strings.HasPrefix(s[n:], "->") {
				break
			}
			n += size
		}
		word := s[:n]
		switch {
		case word == "forall":
			obj.emit(tokForall, word, row, col)
		case ast.IsKeyword(word):
			obj.emit(tokKeyword, word, row, col)
		default:
			obj.emit(tokIdent, word, row, col)
		}
		obj.advance(n)
		return
	}

	for _, p := range punctuation {
		if strings.HasPrefix(s, p.text) {
			obj.emit(p.kind, p.norm, row, col)
			obj.advance(len(p.text))
			return
		}
	}

	r := obj.peekRune()
	obj.fail(ErrLexerUnrecognized, string(r))
}

// isImportStart is true where a local path or a url begins.
func isImportStart(s string) bool {
	for _, prefix := range []string{"./", "../", "~/", "http://", "https://"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	// an absolute path, but not an operator
	if len(s) > 1 && s[0] == '/' && s[1] != '/' && s[1] != '\\' {
		r, _ := utf8.DecodeRuneInString(s[1:])
		return isPathRune(r)
	}
	return false
}

// number lexes a natural, an explicitly signed integer, or a double. The sign
// is skip bytes long.
func (obj *lexer) number(skip int) {
	s := obj.rest()
	row, col := obj.row, obj.col
	n := skip
	for n < len(s) && isDigit(s[n]) {
		n++
	}
	double := false
	if n+1 < len(s) && s[n] == '.' && isDigit(s[n+1]) {
		double = true
		n++
		for n < len(s) && isDigit(s[n]) {
			n++
		}
	}
	if n < len(s) && (s[n] == 'e' || s[n] == 'E') {
		m := n + 1
		if m < len(s) && (s[m] == '+' || s[m] == '-') {
			m++
		}
		if m < len(s) && isDigit(s[m]) {
			double = true
			n = m
			for n < len(s) && isDigit(s[n]) {
				n++
			}
		}
	}

	text := s[:n]
	switch {
	case double:
		if _, err := strconv.ParseFloat(text, 64); err != nil {
			obj.fail(ErrLexerFloatOverflow, text)
		}
		obj.emit(tokDouble, text, row, col)
	case skip > 0:
		if _, err := strconv.ParseInt(text, 10, 64); err != nil {
			obj.fail(ErrLexerIntegerOverflow, text)
		}
		obj.emit(tokInteger, text, row, col)
	default:
		if _, err := strconv.ParseInt(text, 10, 64); err != nil {
			obj.fail(ErrLexerIntegerOverflow, text)
		}
		obj.emit(tokNatural, text, row, col)
	}
	obj.advance(n)
}

// quoted lexes the inside of a double quoted text literal up to the closing
// quote or the next interpolation.
func (obj *lexer) quoted() {
	var b strings.Builder
	row, col := obj.row, obj.col
	for {
		if obj.eof() {
			obj.fail(ErrLexerUnterminated, `"`)
		}
		s := obj.rest()
		switch {
		case s[0] == '"':
			obj.chunk(&b, row, col)
			obj.emit(tokTextClose, `"`, obj.row, obj.col)
			obj.advance(1)
			obj.pop()
			return

		case strings.HasPrefix(s, "${"):
			obj.chunk(&b, row, col)
			obj.emit(tokInterpOpen, "${", obj.row, obj.col)
			obj.advance(2)
			obj.push(modeInterp)
			return

		case s[0] == '\\':
			obj.escape(&b)

		default:
			obj.char(&b, s)
		}
	}
}

func (obj *lexer) escape(b *strings.Builder) {
	s := obj.rest()
	if len(s) < 2 {
		obj.fail(ErrLexerUnterminated, `"`)
	}
	simple := map[byte]string{
		'"':  `"`,
		'$':  "$",
		'\\': `\`,
		'/':  "/",
		'b':  "\b",
		'f':  "\f",
		'n':  "\n",
		'r':  "\r",
		't':  "\t",
	}
	if v, ok := simple[s[1]]; ok {
		b.WriteString(v)
		obj.advance(2)
		return
	}
	if s[1] == 'u' {
		hex := ""
		n := 0
		switch {
		case strings.HasPrefix(s[2:], "{"):
			end := strings.IndexByte(s, '}')
			if end < 0 {
				obj.fail(ErrLexerStringBadEscaping, s[:2])
			}
			hex, n = s[3:end], end+1
		case len(s) >= 6:
			hex, n = s[2:6], 6
		default:
			obj.fail(ErrLexerStringBadEscaping, s)
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil || !utf8.ValidRune(rune(v)) {
			obj.fail(ErrLexerStringBadEscaping, s[:n])
		}
		b.WriteRune(rune(v))
		obj.advance(n)
		return
	}
	obj.fail(ErrLexerStringBadEscaping, s[:2])
}

// multiline lexes the inside of a two single quote text literal.
func (obj *lexer) multiline() {
	var b strings.Builder
	row, col := obj.row, obj.col
	for {
		if obj.eof() {
			obj.fail(ErrLexerUnterminated, "''")
		}
		s := obj.rest()
		switch {
		case strings.HasPrefix(s, "'''"):
			b.WriteString("''")
			obj.advance(3)

		case strings.HasPrefix(s, "''${"):
			b.WriteString("${")
			obj.advance(4)

		case strings.HasPrefix(s, "''"):
			obj.chunk(&b, row, col)
			obj.emit(tokTextClose, "''", obj.row, obj.col)
			obj.advance(2)
			obj.pop()
			return

		case strings.HasPrefix(s, "${"):
			obj.chunk(&b, row, col)
			obj.emit(tokInterpOpen, "${", obj.row, obj.col)
			obj.advance(2)
			obj.push(modeInterp)
			return

		case strings.HasPrefix(s, "\r\n"):
			b.WriteString("\n")
			obj.advance(2)

		default:
			obj.char(&b, s)
		}
	}
}

// char copies the next character of a text literal. Bytes which are not valid
// UTF-8 are rejected rather than replaced.
func (obj *lexer) char(b *strings.Builder, s string) {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && n == 1 {
		obj.fail(ErrLexerStringInvalidUTF8, fmt.Sprintf("%q", s[:1]))
	}
	b.WriteRune(r)
	obj.advance(n)
}

// chunk emits the literal text collected so far, if there is any.
func (obj *lexer) chunk(b *strings.Builder, row, col int) {
	if b.Len() == 0 {
		return
	}
	obj.emit(tokTextChunk, b.String(), row, col)
	b.Reset()
}
