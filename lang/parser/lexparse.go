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

// Package parser turns source text into a syntax tree.
package parser

import (
	"errors"
	"fmt"
	"io"

	"github.com/purpleidea/dust/lang/ast"
	"github.com/purpleidea/dust/lang/interfaces"
	"github.com/purpleidea/dust/util/errwrap"
)

// These constants represent the different possible lexer/parser errors.
const (
	ErrLexerUnrecognized      = interfaces.Error("unrecognized")
	ErrLexerUnterminated      = interfaces.Error("unterminated")
	ErrLexerStringBadEscaping = interfaces.Error("string: bad escaping")
	ErrLexerStringInvalidUTF8 = interfaces.Error("string: invalid utf-8")
	ErrLexerIntegerOverflow   = interfaces.Error("integer: overflow")
	ErrLexerFloatOverflow     = interfaces.Error("float: overflow")
	ErrParseError             = interfaces.Error("parser")
	ErrParseEOF               = interfaces.Error("unexpected end of input")
	ErrParseMergeHandlers     = interfaces.Error("merge needs a record of handlers")
	ErrParseCompletion        = interfaces.Error("completion needs a record literal")
	ErrParseBadDistance       = interfaces.Error("bad variable distance")
)

// LexParseErr is a permanent failure error to notify about borkage.
type LexParseErr struct {
	Err interfaces.Error
	Str string
	Row int // this is zero-indexed (the first line is 0)
	Col int // this is zero-indexed (the first char is 0)

	// Filename is the file that this error occurred in. If this is unknown,
	// then it will be empty. This is not set when run by the basic LexParse
	// function.
	Filename string
}

// Error displays this error with all the relevant state information.
func (e *LexParseErr) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("%s: %s: `%s` @%d:%d", e.Filename, e.Err, e.Str, e.Row+1, e.Col+1)
	}
	return fmt.Sprintf("%s: `%s` @%d:%d", e.Err, e.Str, e.Row+1, e.Col+1)
}

// Unwrap returns the kind of error, so that errors.Is can match it.
func (e *LexParseErr) Unwrap() error {
	return e.Err
}

// LexParse runs the lexer/parser machinery and returns the AST.
func LexParse(input io.Reader) (ast.Expr, error) {
	data, err := io.ReadAll(input)
	if err != nil {
		return nil, errwrap.Wrapf(err, "could not read input")
	}
	tokens, err := lex(string(data))
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	return p.parse()
}

// LexParseFile is LexParse with the filename added to any error.
func LexParseFile(filename string, input io.Reader) (ast.Expr, error) {
	expr, err := LexParse(input)
	var e *LexParseErr
	if errors.As(err, &e) {
		e.Filename = filename
	}
	return expr, err
}

// IsIncomplete returns true if the error is only due to the input ending
// early, meaning that more input could make it parse.
func IsIncomplete(err error) bool {
	return errors.Is(err, ErrParseEOF) || errors.Is(err, ErrLexerUnterminated)
}
