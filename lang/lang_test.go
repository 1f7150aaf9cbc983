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

package lang

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/purpleidea/dust/lang/ast"
	"github.com/purpleidea/dust/lang/interfaces"
	"github.com/purpleidea/dust/lang/parser"

	"github.com/spf13/afero"
)

func runLang(t *testing.T, fs afero.Fs, input, stdin string) (*Lang, string, error) {
	obj := &Lang{
		Fs:    fs,
		Input: input,
		Stdin: strings.NewReader(stdin),
		Dir:   "/proj",
		Debug: testing.Verbose(),
		Logf: func(format string, v ...interface{}) {
			t.Logf("lang: "+format, v...)
		},
	}
	if err := obj.Init(); err != nil {
		return nil, "", err
	}
	expr, err := obj.Normalize(context.Background())
	if err != nil {
		return obj, "", err
	}
	return obj, ast.Show(expr), nil
}

func TestLang0(t *testing.T) {
	type test struct { // an individual test
		name  string
		input string
		stdin string
		out   string
		fail  bool
	}
	testCases := []test{}

	{
		testCases = append(testCases, test{
			name:  "literal code",
			input: "let x = 1 in { a = x, b = [ x, 2 ] }",
			out:   "{ a = 1, b = [ 1, 2 ] }",
		})
	}
	{
		testCases = append(testCases, test{
			name:  "identity",
			input: `\(x : Natural) -> (\(y : Natural) -> y) x`,
			out:   `\(x : Natural) -> x`,
		})
	}
	{
		testCases = append(testCases, test{
			name:  "stdin",
			input: StdinInput,
			stdin: "(./lib/pkg.dhall).greeting",
			out:   `"hello"`,
		})
	}
	{
		testCases = append(testCases, test{
			name:  "file",
			input: "/proj/main.dhall",
			out:   `"hello world"`,
		})
	}
	{
		testCases = append(testCases, test{
			name:  "merge",
			input: "let U = < A : Natural | B > in merge { A = \\(n : Natural) -> n, B = 0 } (U.A 7)",
			out:   "7",
		})
	}
	{
		testCases = append(testCases, test{
			name:  "syntax error",
			input: "let x = in x",
			fail:  true,
		})
	}
	{
		testCases = append(testCases, test{
			name:  "unbound",
			input: "nope",
			fail:  true,
		})
	}

	files := map[string]string{
		"/proj/lib/pkg.dhall": `{ greeting = "hello" }`,
		"/proj/main.dhall":    `let p = ./lib/pkg.dhall in "${p.greeting} world"`,
	}

	for index, tc := range testCases { // run all the tests
		name, input, stdin, out, fail := tc.name, tc.input, tc.stdin, tc.out, tc.fail
		t.Run(fmt.Sprintf("test #%d (%s)", index, name), func(t *testing.T) {
			fs := afero.NewMemMapFs()
			for name, content := range files {
				if err := afero.WriteFile(fs, name, []byte(content), 0644); err != nil {
					t.Errorf("could not write %s: %+v", name, err)
					return
				}
			}
			_, s, err := runLang(t, fs, input, stdin)
			if fail {
				if err == nil {
					t.Errorf("expected failure, got: %s", s)
				}
				return
			}
			if err != nil {
				t.Errorf("normalize failed: %+v", err)
				return
			}
			if s != out {
				t.Errorf("expected: %s", out)
				t.Errorf("got:      %s", s)
			}
		})
	}
}

func TestLangIdempotent0(t *testing.T) {
	codes := []string{
		"let a = { x = 1 } in a with y = 2",
		`\(r : { x : Natural }) -> r.x`,
		`\(f : Natural -> Natural) -> f (f 1)`,
		"let T = { default = { a = 1, b = 2 } } in T::{ b = 3 }",
		`\(b : Bool) -> if b then 1 else 2`,
		`let f = \(x : Natural) -> { x = x } in f`,
	}
	for index, code := range codes {
		t.Run(fmt.Sprintf("test #%d", index), func(t *testing.T) {
			_, once, err := runLang(t, afero.NewMemMapFs(), code, "")
			if err != nil {
				t.Errorf("normalize failed: %+v", err)
				return
			}
			_, twice, err := runLang(t, afero.NewMemMapFs(), once, "")
			if err != nil {
				t.Errorf("normalize of `%s` failed: %+v", once, err)
				return
			}
			if once != twice {
				t.Errorf("not idempotent: `%s` became `%s`", once, twice)
			}
		})
	}
}

func TestLangFiles0(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/proj/a.dhall", []byte("./b.dhall"), 0644)
	afero.WriteFile(fs, "/proj/b.dhall", []byte("1"), 0644)

	obj, s, err := runLang(t, fs, "/proj/a.dhall", "")
	if err != nil {
		t.Errorf("normalize failed: %+v", err)
		return
	}
	if s != "1" {
		t.Errorf("expected: 1, got: %s", s)
	}
	if files, exp := obj.Files(), []string{"/proj/a.dhall", "/proj/b.dhall"}; !reflect.DeepEqual(files, exp) {
		t.Errorf("expected files: %v, got: %v", exp, files)
	}
}

func TestLangErrors0(t *testing.T) {
	_, _, err := runLang(t, afero.NewMemMapFs(), "{ a = 1 }.b", "")
	if !errors.Is(err, interfaces.ErrFieldNotFound) {
		t.Errorf("expected a missing field, got: %+v", err)
	}

	_, _, err = runLang(t, afero.NewMemMapFs(), "./nope.dhall", "")
	if !errors.Is(err, interfaces.ErrImportMissing) {
		t.Errorf("expected a missing import, got: %+v", err)
	}

	_, _, err = runLang(t, afero.NewMemMapFs(), "{ a = ", "")
	if !parser.IsIncomplete(err) {
		t.Errorf("expected incomplete input, got: %+v", err)
	}
}
