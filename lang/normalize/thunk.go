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
	"github.com/purpleidea/dust/lang/ast"
)

// IsStuck returns true if a normalized node can't reduce any further because
// it depends on a variable without a value. A union type is always stuck, so
// that its constructors stay as they are. Boxes are looked through.
func (obj *Context) IsStuck(n ast.Node) (bool, error) {
	switch x := ast.Unwrap(n).(type) {
	case *ast.TermVar:
		info, _, err := obj.resolve(x)
		if err != nil {
			return false, err
		}
		return info.IsThunk(), nil

	case *ast.TermFieldAccess:
		return obj.IsStuck(x.Term)
	case *ast.TermProject:
		return obj.IsStuck(x.Term)
	case *ast.Term1Evaluation:
		return obj.IsStuck(x.Func)
	case *ast.Term1Operation:
		stuck, err := obj.IsStuck(x.Left)
		if err != nil || stuck {
			return stuck, err
		}
		return obj.IsStuck(x.Right)
	case *ast.TermMerge:
		return obj.IsStuck(x.Scrutinee)
	case *ast.Term1With:
		return obj.IsStuck(x.Base)
	case *ast.Term1IfThenElse:
		return obj.IsStuck(x.Cond)
	case *ast.Term1Construct:
		return obj.IsStuck(x.Term)
	case *ast.Term1Ascribe:
		return obj.IsStuck(x.Term)

	case *ast.TermTypeEnum:
		return true, nil

	case *ast.TermImport, *ast.TermPath:
		return true, nil // opaque

	case *ast.TermInteger, *ast.TermDouble, *ast.TermText, *ast.TermEmbed:
		return false, nil
	case *ast.TermList, *ast.TermRecord, *ast.TermTypeRecord:
		return false, nil
	case *ast.ExprLambda, *ast.Term1Arrow:
		return false, nil
	}
	return false, unsupported("classify", n)
}
