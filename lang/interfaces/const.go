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

package interfaces

const (
	// FieldSep is the character used to separate the labels of a record
	// path. For example in `{ a.b = 1 }` or in `r.a.b` for field access.
	FieldSep = "."

	// DistanceSep is the character that separates a variable name from an
	// explicit scope distance, as in `x@1`.
	DistanceSep = "@"

	// MissingImport is the name of the import which is always left alone
	// by the resolver and the normalizer.
	MissingImport = "missing"

	// DefaultField is the field that a record completion takes defaults
	// from. For example in `T::{ a = 1 }` that is `T.default`.
	DefaultField = "default"

	// TruncateLen is the number of characters of a printed expression that
	// get shown in error messages.
	TruncateLen = 20
)
