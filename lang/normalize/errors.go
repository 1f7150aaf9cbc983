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
	"fmt"

	"github.com/purpleidea/dust/lang/ast"
	"github.com/purpleidea/dust/lang/interfaces"

	"github.com/davecgh/go-spew/spew"
)

// UnsupportedError is returned when there is no rule for a shape of node. Op
// names what was being attempted, for example "apply" or "classify".
type UnsupportedError struct {
	Op   string
	Kind string
	Node ast.Node
}

// unsupported builds the error for a node.
func unsupported(op string, node ast.Node) *UnsupportedError {
	return &UnsupportedError{
		Op:   op,
		Kind: ast.Kind(ast.Unwrap(node)),
		Node: node,
	}
}

// Error shows the operation and the start of the offending source.
func (obj *UnsupportedError) Error() string {
	return fmt.Sprintf("how to %s %s: `%s`", obj.Op, obj.Kind, ast.Short(obj.Node))
}

// Unwrap lets errors.Is match ErrUnsupported.
func (obj *UnsupportedError) Unwrap() error {
	return interfaces.ErrUnsupported
}

// dumpConfig prints the fields of the nodes instead of calling their String
// methods.
var dumpConfig = &spew.ConfigState{
	Indent:                  " ",
	DisableMethods:          true,
	DisablePointerAddresses: true,
}

// Dump returns the error along with a full structural dump of the node.
func (obj *UnsupportedError) Dump() string {
	return fmt.Sprintf("%s\n%s", obj.Error(), dumpConfig.Sdump(obj.Node))
}
