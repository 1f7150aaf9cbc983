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
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/purpleidea/dust/lang/ast"
	"github.com/purpleidea/dust/lang/interfaces"
	"github.com/purpleidea/dust/lang/parser"

	"github.com/davecgh/go-spew/spew"
)

func newContext(t *testing.T) *Context {
	obj := &Context{
		Debug: testing.Verbose(),
		Logf: func(format string, v ...interface{}) {
			t.Logf("normalize: "+format, v...)
		},
	}
	if err := obj.Init(); err != nil {
		t.Fatalf("init failed: %+v", err)
	}
	return obj
}

func parse(t *testing.T, code string) ast.Expr {
	expr, err := parser.LexParse(strings.NewReader(code))
	if err != nil {
		t.Fatalf("parse of `%s` failed: %+v", code, err)
	}
	return expr
}

func TestNormalize0(t *testing.T) {
	type test struct { // an individual test
		name string
		code string
		out  string
	}
	testCases := []test{}

	{
		testCases = append(testCases, test{
			name: "let",
			code: "let x = 1 in x",
			out:  "1",
		})
	}
	{
		testCases = append(testCases, test{
			name: "let chain",
			code: "let a = 1 let b = [ a, a ] let a = b in { a, b }",
			out:  "{ a = [ 1, 1 ], b = [ 1, 1 ] }",
		})
	}
	{
		testCases = append(testCases, test{
			name: "shadowed let",
			code: "let x = 1 let x = 2 in [ x, x@1 ]",
			out:  "[ 2, 1 ]",
		})
	}
	{
		testCases = append(testCases, test{
			name: "own parameter",
			code: `\(x) -> (\(x) -> x) x`,
			out:  `\(x) -> x`,
		})
	}
	{
		testCases = append(testCases, test{
			name: "past a let",
			code: `\(x) -> let x = 1 in x@1`,
			out:  `\(x) -> x`,
		})
	}
	{
		testCases = append(testCases, test{
			name: "beta",
			code: `(\(x : Natural) -> { a = x }) 2`,
			out:  "{ a = 2 }",
		})
	}
	{
		testCases = append(testCases, test{
			name: "curried",
			code: `(\(x : Natural) -> \(y : Natural) -> [ y, x ]) 1 2`,
			out:  "[ 2, 1 ]",
		})
	}
	{
		testCases = append(testCases, test{
			name: "capture",
			code: `\(y : Natural) -> (\(x : Natural) -> \(y : Natural) -> x) y`,
			out:  `\(y : Natural) -> \(y : Natural) -> y@1`,
		})
	}
	{
		testCases = append(testCases, test{
			name: "higher order",
			code: `let twice = \(f : Natural -> Natural) -> \(x : Natural) -> f (f x) in twice (\(n : Natural) -> [ n ]) 1`,
			out:  "[ [ 1 ] ]",
		})
	}
	{
		testCases = append(testCases, test{
			name: "stuck application",
			code: `\(f : Natural -> Natural) -> f 1`,
			out:  `\(f : Natural -> Natural) -> f 1`,
		})
	}
	{
		testCases = append(testCases, test{
			name: "builtin application",
			code: "Natural/even 3",
			out:  "Natural/even 3",
		})
	}
	{
		testCases = append(testCases, test{
			name: "shadowed builtin",
			code: `\(Natural : Type) -> Natural@1`,
			out:  `\(Natural : Type) -> Natural@1`,
		})
	}
	{
		testCases = append(testCases, test{
			name: "field access",
			code: "{ a = 1, b = 2 }.b",
			out:  "2",
		})
	}
	{
		testCases = append(testCases, test{
			name: "dotted field",
			code: "let r = { a.b = 1, a.c = 2 } in [ r.a, r.a.c ]",
			out:  "[ { b = 1, c = 2 }, 2 ]",
		})
	}
	{
		testCases = append(testCases, test{
			name: "first field wins",
			code: "{ a = 1, a = 2 }.a",
			out:  "1",
		})
	}
	{
		testCases = append(testCases, test{
			name: "stuck field access",
			code: `\(x : { a : Natural }) -> x.a`,
			out:  `\(x : { a : Natural }) -> x.a`,
		})
	}
	{
		testCases = append(testCases, test{
			name: "projection",
			code: "{ a = 1, b = 2, c = 3 }.{ a, c }",
			out:  "{ a = 1, c = 3 }",
		})
	}
	{
		testCases = append(testCases, test{
			name: "projection by type",
			code: "let T = { a : Natural } in { a = 1, b = 2 }.(T)",
			out:  "{ a = 1 }",
		})
	}
	{
		testCases = append(testCases, test{
			name: "stuck projection by type",
			code: `\(T : Type) -> { a = 1 }.(T)`,
			out:  `\(T : Type) -> { a = 1 }.(T)`,
		})
	}
	{
		testCases = append(testCases, test{
			name: "with",
			code: "{ a = 1 } with b.c = 2",
			out:  "{ a = 1, b = { c = 2 } }",
		})
	}
	{
		testCases = append(testCases, test{
			name: "with into dotted",
			code: "{ a.b = 1 } with a.c = 2",
			out:  "{ a = { b = 1, c = 2 } }",
		})
	}
	{
		testCases = append(testCases, test{
			name: "with replace",
			code: "{ a = 1, b = 2 } with a = 3",
			out:  "{ a = 3, b = 2 }",
		})
	}
	{
		testCases = append(testCases, test{
			name: "with through stuck",
			code: `\(r : { a : Natural }) -> { x = r } with x.a = 1`,
			out:  `\(r : { a : Natural }) -> { x = r with a = 1 }`,
		})
	}
	{
		testCases = append(testCases, test{
			name: "stuck with",
			code: `\(r : { a : Natural }) -> r with a = 1`,
			out:  `\(r : { a : Natural }) -> r with a = 1`,
		})
	}
	{
		testCases = append(testCases, test{
			name: "if true",
			code: "if True then 1 else 2",
			out:  "1",
		})
	}
	{
		testCases = append(testCases, test{
			name: "if false",
			code: "let b = False in if b then 1 else 2",
			out:  "2",
		})
	}
	{
		testCases = append(testCases, test{
			name: "stuck if",
			code: `\(b : Bool) -> if b then 1 else 2`,
			out:  `\(b : Bool) -> if b then 1 else 2`,
		})
	}
	{
		testCases = append(testCases, test{
			name: "shadowed sentinel",
			code: `\(True : Bool) -> if True then 1 else 2`,
			out:  `\(True : Bool) -> if True then 1 else 2`,
		})
	}
	{
		testCases = append(testCases, test{
			name: "completion",
			code: "let T = { default = { a = 1, b = 2 } } in T::{ b = 3 }",
			out:  "{ a = 1, b = 3 }",
		})
	}
	{
		testCases = append(testCases, test{
			name: "merge",
			code: `merge { A = \(n : Natural) -> [ n ], B = 0 } (< A : Natural | B >.A 7)`,
			out:  "[ 7 ]",
		})
	}
	{
		testCases = append(testCases, test{
			name: "merge bare",
			code: `let U = < A : Natural | B > in merge { A = \(n : Natural) -> n, B = 0 } U.B`,
			out:  "0",
		})
	}
	{
		testCases = append(testCases, test{
			name: "stuck merge",
			code: `\(u : < A | B >) -> merge { A = 1, B = 2 } u`,
			out:  `\(u : < A | B >) -> merge { A = 1, B = 2 } u`,
		})
	}
	{
		testCases = append(testCases, test{
			name: "text",
			code: `let name = "dust" in "hello ${name}!"`,
			out:  `"hello dust!"`,
		})
	}
	{
		testCases = append(testCases, test{
			name: "stuck text",
			code: `\(t : Text) -> "a${t}b${"c"}"`,
			out:  `\(t : Text) -> "a${t}bc"`,
		})
	}
	{
		testCases = append(testCases, test{
			name: "annotation",
			code: "let x : Natural = 1 in x : Natural",
			out:  "1",
		})
	}
	{
		testCases = append(testCases, test{
			name: "operators stay",
			code: "let a = 1 in a + 2",
			out:  "1 + 2",
		})
	}
	{
		testCases = append(testCases, test{
			name: "redundant parens",
			code: "((1))",
			out:  "1",
		})
	}
	{
		testCases = append(testCases, test{
			name: "forall",
			code: "let T = Natural in forall (a : T) -> a",
			out:  "forall (a : Natural) -> a",
		})
	}
	{
		testCases = append(testCases, test{
			name: "imports stay",
			code: "missing",
			out:  "missing",
		})
	}

	for index, tc := range testCases { // run all the tests
		name, code, out := tc.name, tc.code, tc.out
		t.Run(fmt.Sprintf("test #%d (%s)", index, name), func(t *testing.T) {
			obj := newContext(t)
			expr := parse(t, code)
			if err := obj.Normalize(&expr); err != nil {
				t.Errorf("normalize failed: %+v", err)
				return
			}
			if s := ast.Show(expr); s != out {
				t.Errorf("expected: %s", out)
				t.Errorf("got:      %s", s)
				t.Logf("tree: %s", spew.Sdump(expr))
			}
			if d := obj.Depth(); d != 1 {
				t.Errorf("scope depth is %d after normalizing", d)
			}
			if err := obj.Close(); err != nil {
				t.Errorf("shelf check failed: %+v", err)
			}

			// a normal form is its own normal form
			again := newContext(t)
			if err := again.Normalize(&expr); err != nil {
				t.Errorf("normalize of the normal form failed: %+v", err)
				return
			}
			if s := ast.Show(expr); s != out {
				t.Errorf("not idempotent: %s", s)
			}
		})
	}
}

func TestNormalizeErrors0(t *testing.T) {
	type test struct { // an individual test
		name string
		code string
		err  error
	}
	testCases := []test{}

	{
		testCases = append(testCases, test{
			name: "unbound",
			code: "x",
			err:  interfaces.ErrNameNotFound,
		})
	}
	{
		testCases = append(testCases, test{
			name: "too far",
			code: `\(x : Natural) -> x@1`,
			err:  interfaces.ErrNameNotFound,
		})
	}
	{
		testCases = append(testCases, test{
			name: "unbound in let",
			code: "let a = 1 in nope",
			err:  interfaces.ErrNameNotFound,
		})
	}
	{
		testCases = append(testCases, test{
			name: "missing field",
			code: "{ a = 1 }.b",
			err:  interfaces.ErrFieldNotFound,
		})
	}
	{
		testCases = append(testCases, test{
			name: "missing selection",
			code: "{ a = 1 }.{ a, b }",
			err:  interfaces.ErrFieldNotFound,
		})
	}
	{
		testCases = append(testCases, test{
			name: "with conflict",
			code: "{ a = 1 } with a.b = 2",
			err:  interfaces.ErrFieldConflict,
		})
	}
	{
		testCases = append(testCases, test{
			name: "no handler",
			code: "merge { A = 1 } < A | B >.B",
			err:  interfaces.ErrFieldNotFound,
		})
	}
	{
		testCases = append(testCases, test{
			name: "bad scrutinee",
			code: "merge { A = 1 } 5",
			err:  interfaces.ErrMergeScrutinee,
		})
	}
	{
		testCases = append(testCases, test{
			name: "apply a number",
			code: "1 2",
			err:  interfaces.ErrUnsupported,
		})
	}
	{
		testCases = append(testCases, test{
			name: "branch on a number",
			code: "if 1 then 2 else 3",
			err:  interfaces.ErrUnsupported,
		})
	}
	{
		testCases = append(testCases, test{
			name: "access a list",
			code: "[ 1 ].a",
			err:  interfaces.ErrUnsupported,
		})
	}
	{
		testCases = append(testCases, test{
			name: "error under a lambda",
			code: `\(x : Natural) -> (\(y : Natural) -> nope) x`,
			err:  interfaces.ErrNameNotFound,
		})
	}

	for index, tc := range testCases { // run all the tests
		name, code, expErr := tc.name, tc.code, tc.err
		t.Run(fmt.Sprintf("test #%d (%s)", index, name), func(t *testing.T) {
			obj := newContext(t)
			expr := parse(t, code)
			err := obj.Normalize(&expr)
			if !errors.Is(err, expErr) {
				t.Errorf("expected error `%v`, got: %+v", expErr, err)
			}
			t.Logf("error: %v", err)
			if d := obj.Depth(); d != 1 {
				t.Errorf("scope depth is %d after a failure", d) // every frame is closed
			}
			if err := obj.Check(); err != nil {
				t.Errorf("shelf check failed: %+v", err)
			}
		})
	}
}

// shelved returns every box which sits on one of the shelves.
func shelved(obj *Context) map[ast.Node]struct{} {
	boxes := make(map[ast.Node]struct{})
	for _, b := range obj.exprs.free {
		boxes[b] = struct{}{}
	}
	for _, b := range obj.term1s.free {
		boxes[b] = struct{}{}
	}
	for _, b := range obj.terms.free {
		boxes[b] = struct{}{}
	}
	return boxes
}

// TestNormalizeErrorTree0 checks that a failed reduction leaves a tree which
// can still be walked and printed, and which shares no box with the shelves.
func TestNormalizeErrorTree0(t *testing.T) {
	type test struct { // an individual test
		name   string
		code   string
		err    error
		prefix string
		suffix string
	}
	testCases := []test{}

	{
		testCases = append(testCases, test{
			name:   "failed body of an application",
			code:   `(\(x) -> x.b) { a = 1 }`,
			err:    interfaces.ErrFieldNotFound,
			prefix: `(\(x) -> `,
			suffix: `.b) { a = 1 }`,
		})
	}
	{
		testCases = append(testCases, test{
			name:   "failed application under a let",
			code:   `let r = { a = 1 } in (\(x) -> x.q) r`,
			err:    interfaces.ErrFieldNotFound,
			prefix: `let r = { a = 1 } in (\(x) -> `,
			suffix: `.q) { a = 1 }`,
		})
	}
	{
		testCases = append(testCases, test{
			name:   "failed handler",
			code:   `merge { A = \(n : Natural) -> n.z } (< A : Natural | B >.A 7)`,
			err:    interfaces.ErrUnsupported,
			prefix: `merge { A = \(n : Natural) -> `,
			suffix: `(< A : Natural | B >.A 7)`,
		})
	}
	{
		testCases = append(testCases, test{
			name:   "failed with of a boxed value",
			code:   `{ a = 1 } with a.b = (\(x : Natural) -> x)`,
			err:    interfaces.ErrFieldConflict,
			prefix: `{ a = 1 } with a.b = (\(x : Natural) -> x)`,
			suffix: `{ a = 1 } with a.b = (\(x : Natural) -> x)`,
		})
	}

	for index, tc := range testCases { // run all the tests
		name, code, expErr, prefix, suffix := tc.name, tc.code, tc.err, tc.prefix, tc.suffix
		t.Run(fmt.Sprintf("test #%d (%s)", index, name), func(t *testing.T) {
			obj := newContext(t)
			expr := parse(t, code)
			err := obj.Normalize(&expr)
			if !errors.Is(err, expErr) {
				t.Errorf("expected error `%v`, got: %+v", expErr, err)
				return
			}
			if err := obj.Check(); err != nil {
				t.Errorf("shelf check failed: %+v", err)
			}

			boxes := shelved(obj)
			err = ast.Walk(expr, func(n ast.Node) error {
				if _, exists := boxes[n]; exists {
					return fmt.Errorf("tree holds the shelved box %p", n)
				}
				if ast.IsBox(n) && len(ast.Children(n)) == 0 {
					return fmt.Errorf("tree holds an empty %T", n)
				}
				return nil
			})
			if err != nil {
				t.Errorf("tree is damaged: %+v", err)
			}

			s := ast.Show(expr)
			t.Logf("tree: %s", s)
			if !strings.HasPrefix(s, prefix) || !strings.HasSuffix(s, suffix) {
				t.Errorf("tree lost the failed redex: %s", s)
			}

			// the shelved boxes get reused by the next run
			other := parse(t, `let f = \(y : Natural) -> [ y ] in f (f 1)`)
			if err := obj.Normalize(&other); err != nil {
				t.Errorf("second run failed: %+v", err)
				return
			}
			if again := ast.Show(expr); again != s {
				t.Errorf("failed tree changed from `%s` to `%s`", s, again)
			}
		})
	}
}

func TestUnsupportedDump0(t *testing.T) {
	obj := newContext(t)
	expr := parse(t, "1 2")
	err := obj.Normalize(&expr)

	var e *UnsupportedError
	if !errors.As(err, &e) {
		t.Errorf("expected an unsupported error, got: %+v", err)
		return
	}
	if e.Op != "apply" || e.Kind != "integer" {
		t.Errorf("unexpected error: %+v", e)
	}
	if s := e.Error(); s != "how to apply integer: `1`" {
		t.Errorf("unexpected message: %s", s)
	}
	dump := e.Dump()
	if !strings.Contains(dump, "ast.TermInteger") {
		t.Errorf("dump is missing the node: %s", dump)
	}
	if !strings.Contains(dump, "Value: ") { // fields, not the printed form
		t.Errorf("dump is missing the fields: %s", dump)
	}
	if strings.Contains(dump, "0x") {
		t.Errorf("dump has pointer addresses: %s", dump)
	}
}

func TestIsStuck0(t *testing.T) {
	type test struct { // an individual test
		code  string
		stuck bool
	}
	testCases := []test{
		{code: "Natural", stuck: true},
		{code: "Natural/even 1", stuck: true},
		{code: "Natural.a", stuck: true},
		{code: "Natural + 1", stuck: true},
		{code: "1 + Natural", stuck: true},
		{code: "< A | B >", stuck: true},
		{code: "./a.dhall", stuck: true},
		{code: "1", stuck: false},
		{code: "1 + 2", stuck: false},
		{code: `"text"`, stuck: false},
		{code: "[ Natural ]", stuck: false},
		{code: "{ a = Natural }", stuck: false},
		{code: `\(x : Natural) -> x`, stuck: false},
		{code: "Natural -> Natural", stuck: false},
		{code: "(Natural)", stuck: true},
	}

	for index, tc := range testCases { // run all the tests
		code, exp := tc.code, tc.stuck
		t.Run(fmt.Sprintf("test #%d", index), func(t *testing.T) {
			obj := newContext(t)
			stuck, err := obj.IsStuck(parse(t, code))
			if err != nil {
				t.Errorf("classify failed: %+v", err)
				return
			}
			if stuck != exp {
				t.Errorf("expected stuck to be %t for `%s`", exp, code)
			}
		})
	}

	obj := newContext(t)
	if _, err := obj.IsStuck(parse(t, "nope")); !errors.Is(err, interfaces.ErrNameNotFound) {
		t.Errorf("expected a missing name, got: %+v", err)
	}
}

func TestContextReuse0(t *testing.T) {
	obj := newContext(t)
	for i, code := range []string{
		`(\(x : Natural) -> x) 1`,
		"let a = { b = 1 } in (a).b",
		"((((1))))",
	} {
		expr := parse(t, code)
		if err := obj.Normalize(&expr); err != nil {
			t.Errorf("normalize #%d failed: %+v", i, err)
			return
		}
		if s := ast.Show(expr); s != "1" {
			t.Errorf("unexpected result #%d: %s", i, s)
		}
	}
	stats := obj.Stats()
	t.Logf("stats: %+v", stats)
	if stats.Reductions != 1 || stats.Lets != 1 || stats.Substitutions < 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.Reused == 0 {
		t.Errorf("no box was reused")
	}
	if err := obj.Close(); err != nil {
		t.Errorf("close failed: %+v", err)
	}
}

func TestNormalizeUninitialized0(t *testing.T) {
	obj := &Context{}
	expr := parse(t, "1")
	if err := obj.Normalize(&expr); err == nil {
		t.Errorf("expected an error without init")
	}
}
