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

// Package dialect contains the table of built-in names that the normalizer
// installs before it starts, and the names of the boolean sentinels that a
// conditional can branch on. The table can be loaded from a yaml file.
package dialect

import (
	"fmt"

	"github.com/purpleidea/dust/lang/ast"
	"github.com/purpleidea/dust/util/errwrap"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

const (
	// DefaultName is the name of the built-in dialect.
	DefaultName = "dhall"
)

// builtins are the names of the standard built-in types and functions. None
// of them are interpreted, they are only known to exist.
var builtins = []string{
	"Type",
	"Kind",
	"Sort",
	"Bool",
	"True",
	"False",
	"Natural",
	"Integer",
	"Double",
	"Text",
	"List",
	"Optional",
	"Some",
	"None",
	"Date",
	"Time",
	"TimeZone",
	"Natural/build",
	"Natural/fold",
	"Natural/isZero",
	"Natural/even",
	"Natural/odd",
	"Natural/toInteger",
	"Natural/show",
	"Natural/subtract",
	"Integer/clamp",
	"Integer/negate",
	"Integer/show",
	"Integer/toDouble",
	"Double/show",
	"List/build",
	"List/fold",
	"List/length",
	"List/head",
	"List/last",
	"List/indexed",
	"List/reverse",
	"Text/show",
	"Text/replace",
}

// Dialect is the set of built-in names.
type Dialect struct {
	// Name is used in messages.
	Name string `yaml:"name"`

	// Inherit adds the default built-ins to the ones listed here.
	Inherit bool `yaml:"inherit"`

	// Builtins are installed as thunks in the root scope.
	Builtins []string `yaml:"builtins"`

	// True is the built-in a conditional takes the then branch for.
	True string `yaml:"true"`

	// False is the built-in a conditional takes the else branch for.
	False string `yaml:"false"`
}

// Default returns the built-in dialect.
func Default() *Dialect {
	return &Dialect{
		Name:     DefaultName,
		Builtins: append([]string{}, builtins...),
		True:     "True",
		False:    "False",
	}
}

// Parse builds a dialect from yaml. The sentinels default to the usual names
// when they are not given.
func Parse(data []byte) (*Dialect, error) {
	obj := &Dialect{}
	if err := yaml.UnmarshalStrict(data, obj); err != nil {
		return nil, errwrap.Wrapf(err, "could not parse dialect")
	}
	if obj.Inherit {
		obj.Builtins = lo.Uniq(append(append([]string{}, builtins...), obj.Builtins...))
	}
	if obj.True == "" {
		obj.True = "True"
	}
	if obj.False == "" {
		obj.False = "False"
	}
	if err := obj.Validate(); err != nil {
		return nil, err
	}
	return obj, nil
}

// Load reads and parses a dialect file.
func Load(fs afero.Fs, path string) (*Dialect, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errwrap.Wrapf(err, "could not read dialect `%s`", path)
	}
	obj, err := Parse(data)
	if err != nil {
		return nil, errwrap.Wrapf(err, "bad dialect `%s`", path)
	}
	if obj.Name == "" {
		obj.Name = path
	}
	return obj, nil
}

// Validate returns every problem with the dialect at once.
func (obj *Dialect) Validate() error {
	var reterr error
	for i, name := range obj.Builtins {
		if name == "" {
			reterr = errwrap.Append(reterr, fmt.Errorf("builtin #%d is empty", i))
			continue
		}
		if ast.IsKeyword(name) {
			reterr = errwrap.Append(reterr, fmt.Errorf("builtin `%s` is a keyword", name))
		}
	}
	for _, name := range lo.FindDuplicates(obj.Builtins) {
		reterr = errwrap.Append(reterr, fmt.Errorf("builtin `%s` is listed more than once", name))
	}
	for _, name := range []string{obj.True, obj.False} {
		if name == "" {
			reterr = errwrap.Append(reterr, fmt.Errorf("a boolean sentinel is empty"))
			continue
		}
		if !obj.IsBuiltin(name) {
			reterr = errwrap.Append(reterr, fmt.Errorf("sentinel `%s` is not a builtin", name))
		}
	}
	if obj.True != "" && obj.True == obj.False {
		reterr = errwrap.Append(reterr, fmt.Errorf("sentinels are both `%s`", obj.True))
	}
	return reterr
}

// IsBuiltin returns true if the name is in the table.
func (obj *Dialect) IsBuiltin(name string) bool {
	return lo.Contains(obj.Builtins, name)
}
