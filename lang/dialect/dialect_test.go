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

package dialect

import (
	"fmt"
	"testing"

	"github.com/purpleidea/dust/util/errwrap"

	"github.com/spf13/afero"
)

func TestDefault0(t *testing.T) {
	d := Default()
	if err := d.Validate(); err != nil {
		t.Errorf("default dialect is invalid: %+v", err)
	}
	for _, name := range []string{"Natural", "True", "False", "List/fold"} {
		if !d.IsBuiltin(name) {
			t.Errorf("missing builtin: %s", name)
		}
	}
	if d.IsBuiltin("nope") {
		t.Errorf("unexpected builtin")
	}
}

func TestParse0(t *testing.T) {
	type test struct { // an individual test
		name string
		yaml string
		fail bool
		errs int // number of accumulated errors when failing
		size int // number of builtins when passing
	}
	testCases := []test{}

	{
		testCases = append(testCases, test{
			name: "small",
			yaml: "name: tiny\nbuiltins: [Bool, True, False]\n",
			size: 3,
		})
	}
	{
		testCases = append(testCases, test{
			name: "inherit",
			yaml: "inherit: true\nbuiltins: [Extra, Natural]\n",
			size: len(builtins) + 1,
		})
	}
	{
		testCases = append(testCases, test{
			name: "custom sentinels",
			yaml: "builtins: [Yes, No]\ntrue: Yes\nfalse: No\n",
			size: 2,
		})
	}
	{
		testCases = append(testCases, test{
			name: "missing sentinels",
			yaml: "builtins: [Natural]\n",
			fail: true,
			errs: 2,
		})
	}
	{
		testCases = append(testCases, test{
			name: "many problems",
			yaml: "builtins: [True, False, let, \"\", Natural, Natural]\n",
			fail: true,
			errs: 3,
		})
	}
	{
		testCases = append(testCases, test{
			name: "unknown key",
			yaml: "builtin: [True]\n",
			fail: true,
			errs: 1,
		})
	}

	for index, tc := range testCases { // run all the tests
		t.Run(fmt.Sprintf("test #%d (%s)", index, tc.name), func(t *testing.T) {
			d, err := Parse([]byte(tc.yaml))
			if tc.fail {
				if err == nil {
					t.Errorf("test #%d: expected failure", index)
					return
				}
				if n := len(errwrap.Errors(err)); n != tc.errs {
					t.Errorf("test #%d: expected %d errors, got %d: %+v", index, tc.errs, n, err)
				}
				return
			}
			if err != nil {
				t.Errorf("test #%d: parse failed: %+v", index, err)
				return
			}
			if n := len(d.Builtins); n != tc.size {
				t.Errorf("test #%d: expected %d builtins, got: %d", index, tc.size, n)
			}
		})
	}
}

func TestLoad0(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/etc/dust/dialect.yaml", []byte("builtins: [True, False]\n"), 0644); err != nil {
		t.Errorf("could not write file: %+v", err)
		return
	}
	d, err := Load(fs, "/etc/dust/dialect.yaml")
	if err != nil {
		t.Errorf("load failed: %+v", err)
		return
	}
	if d.Name != "/etc/dust/dialect.yaml" {
		t.Errorf("unexpected name: %s", d.Name)
	}
	if _, err := Load(fs, "/nope.yaml"); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}
