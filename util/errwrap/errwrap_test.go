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

package errwrap

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapfErr1(t *testing.T) {
	if err := Wrapf(nil, "whatever: %d", 42); err != nil {
		t.Errorf("expected nil result")
	}
}

func TestWrapfErr2(t *testing.T) {
	sentinel := fmt.Errorf("sentinel")
	err := Wrapf(sentinel, "while doing %s", "stuff")
	if !errors.Is(err, sentinel) {
		t.Errorf("expected wrapped error to match sentinel")
	}
	if s := err.Error(); s != "while doing stuff: sentinel" {
		t.Errorf("unexpected message: %s", s)
	}
}

func TestAppendErr1(t *testing.T) {
	if err := Append(nil, nil); err != nil {
		t.Errorf("expected nil result")
	}
}

func TestAppendErr2(t *testing.T) {
	reterr := fmt.Errorf("reterr")
	if err := Append(reterr, nil); err != reterr {
		t.Errorf("expected reterr")
	}
}

func TestAppendErr3(t *testing.T) {
	err := fmt.Errorf("err")
	if reterr := Append(nil, err); reterr != err {
		t.Errorf("expected err")
	}
}

func TestErrors0(t *testing.T) {
	if l := len(Errors(nil)); l != 0 {
		t.Errorf("expected empty list, got %d", l)
	}

	e1 := fmt.Errorf("one")
	if errs := Errors(e1); len(errs) != 1 || errs[0] != e1 {
		t.Errorf("expected a list of one")
	}

	e2 := fmt.Errorf("two")
	e3 := fmt.Errorf("three")
	var reterr error
	reterr = Append(reterr, e1)
	reterr = Append(reterr, e2)
	reterr = Append(reterr, e3)
	errs := Errors(reterr)
	if len(errs) != 3 {
		t.Fatalf("expected three errors, got %d", len(errs))
	}
	for i, e := range []error{e1, e2, e3} {
		if errs[i] != e {
			t.Errorf("error #%d did not match", i)
		}
	}
}

func TestString1(t *testing.T) {
	var err error
	if String(err) != "" {
		t.Errorf("expected empty result")
	}

	msg := "this is an error"
	if err := errors.New(msg); String(err) != msg {
		t.Errorf("expected different result")
	}
}
