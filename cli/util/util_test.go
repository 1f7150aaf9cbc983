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

package util

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/purpleidea/dust/lang/ast"
	"github.com/purpleidea/dust/lang/normalize"
	"github.com/purpleidea/dust/util/errwrap"
)

func TestReport0(t *testing.T) {
	buf := &bytes.Buffer{}
	Report(buf, nil, false)
	if buf.Len() != 0 {
		t.Errorf("nil error was reported: %s", buf.String())
	}

	var err error
	err = errwrap.Append(err, fmt.Errorf("one"))
	err = errwrap.Append(err, fmt.Errorf("two"))
	Report(buf, err, false)
	if s := buf.String(); s != "error: one\nerror: two\n" {
		t.Errorf("unexpected report: %q", s)
	}
	if strings.Contains(buf.String(), red) {
		t.Errorf("a buffer is not a terminal")
	}
}

func TestReportDump0(t *testing.T) {
	u := &normalize.UnsupportedError{
		Op:   "apply",
		Kind: "integer",
		Node: &ast.TermInteger{Value: 1},
	}
	err := errwrap.Wrapf(u, "could not normalize")

	buf := &bytes.Buffer{}
	Report(buf, err, false)
	if s := buf.String(); s != "error: could not normalize: how to apply integer: `1`\n" {
		t.Errorf("unexpected report: %q", s)
	}

	buf.Reset()
	Report(buf, err, true)
	s := buf.String()
	if !strings.HasPrefix(s, "error: could not normalize: how to apply integer: `1`\n") {
		t.Errorf("unexpected report: %q", s)
	}
	if !strings.Contains(s, "TermInteger") || strings.Count(s, "how to apply") != 1 {
		t.Errorf("unexpected dump: %q", s)
	}
}

func TestCliParseError0(t *testing.T) {
	if err := CliParseError(fmt.Errorf("bad")); err.Error() != "cli parse error: bad" {
		t.Errorf("unexpected error: %v", err)
	}
	if IsTerminal(&bytes.Buffer{}) {
		t.Errorf("a buffer is not a terminal")
	}
}
