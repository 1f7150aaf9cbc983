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

// Package interfaces contains the constants and error kinds which are shared
// across the lang packages.
package interfaces

// Error is a constant error type that implements error.
type Error string

// Error fulfills the error interface of this type.
func (e Error) Error() string { return string(e) }

const (
	// ErrNameNotFound is returned when a variable can't be found at the
	// requested distance in any scope that is currently open.
	ErrNameNotFound = Error("name not found")

	// ErrFieldNotFound is returned when a field access, selection or merge
	// handler lookup names a field that the record doesn't have.
	ErrFieldNotFound = Error("field not found")

	// ErrFieldConflict is returned when a field is defined both as a plain
	// value and as a record of deeper fields.
	ErrFieldConflict = Error("field conflict")

	// ErrMergeScrutinee is returned when the value being merged is neither
	// a union alternative nor stuck.
	ErrMergeScrutinee = Error("malformed merge scrutinee")

	// ErrUnsupported is the kind of error returned when the normalizer has
	// no rule for a particular shape of node. It usually means a coverage
	// gap and not a mistake in the program being normalized.
	ErrUnsupported = Error("unsupported")

	// ErrScopeUnderflow is returned when more scopes are exited than were
	// entered.
	ErrScopeUnderflow = Error("scope underflow")

	// ErrImportCycle is returned when an import ends up importing itself.
	ErrImportCycle = Error("import cycle")

	// ErrImportMissing is returned when an import can't be read and it has
	// no usable fallback.
	ErrImportMissing = Error("import missing")
)
