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

// Package scope implements the stack of scope frames that the normalizer uses
// to resolve variable references. Each frame maps a name to a binding, and a
// reference `x@n` skips the first n frames that define x on its way out.
package scope

import (
	"fmt"
	"sync/atomic"

	"github.com/purpleidea/dust/lang/ast"
	"github.com/purpleidea/dust/lang/interfaces"
	"github.com/purpleidea/dust/util/errwrap"
)

// serial hands out frame numbers which are unique in this process.
var serial uint64

// Origin records which construct opened a binding.
type Origin int

const (
	// OriginBuiltin is a name installed in the root frame.
	OriginBuiltin Origin = iota

	// OriginLambda is the parameter of a lambda or of a named arrow. These
	// binders survive into the normal form.
	OriginLambda

	// OriginLet is a let binding. These binders are eliminated.
	OriginLet

	// OriginApply is the binding of a lambda parameter to the argument it
	// was applied to. It stands in for the lambda that was reduced away.
	OriginApply
)

// String returns a readable name for the origin.
func (obj Origin) String() string {
	switch obj {
	case OriginBuiltin:
		return "builtin"
	case OriginLambda:
		return "lambda"
	case OriginLet:
		return "let"
	case OriginApply:
		return "apply"
	}
	return fmt.Sprintf("origin(%d)", int(obj))
}

// structural returns true for the binders that count when looking up a
// variable whose distance was computed against an already normalized tree.
func (obj Origin) structural() bool {
	return obj != OriginLet
}

// surviving returns true for the binders which remain in the output.
func (obj Origin) surviving() bool {
	return obj == OriginBuiltin || obj == OriginLambda
}

// Info is a single binding. A binding without a value is a thunk: references
// to it can't be reduced and stay as they are.
type Info struct {
	Name   string
	Type   ast.Expr // optional
	Value  ast.Expr // nil for a thunk
	Origin Origin
}

// IsThunk returns true if this binding has no value.
func (obj *Info) IsThunk() bool {
	return obj.Value == nil
}

// Frame is one level of the stack.
type Frame struct {
	serial uint64
	names  map[string]*Info
}

// Mark is a remembered depth of the stack.
type Mark int

// Stack is the stack of scope frames. The zero value is an empty stack which
// is ready to use. It is not safe for concurrent use.
type Stack struct {
	Debug bool
	Logf  func(format string, v ...interface{})

	frames []*Frame
}

func (obj *Stack) logf(format string, v ...interface{}) {
	if obj.Logf == nil {
		return
	}
	obj.Logf(format, v...)
}

// Depth returns the number of open frames.
func (obj *Stack) Depth() int {
	return len(obj.frames)
}

// EnterScope pushes a new empty frame.
func (obj *Stack) EnterScope() {
	obj.frames = append(obj.frames, &Frame{
		serial: atomic.AddUint64(&serial, 1),
		names:  make(map[string]*Info),
	})
}

// ExitScope pops the innermost frame. Popping the root frame is an error.
func (obj *Stack) ExitScope() error {
	if len(obj.frames) <= 1 {
		return interfaces.ErrScopeUnderflow
	}
	obj.frames[len(obj.frames)-1] = nil
	obj.frames = obj.frames[:len(obj.frames)-1]
	return nil
}

// Mark remembers the current depth.
func (obj *Stack) Mark() Mark {
	return Mark(len(obj.frames))
}

// ReturnToMark closes every frame opened since the mark was taken.
func (obj *Stack) ReturnToMark(mark Mark) error {
	m := int(mark)
	if m < 1 || m > len(obj.frames) {
		return errwrap.Wrapf(interfaces.ErrScopeUnderflow, "bad mark %d at depth %d", m, len(obj.frames))
	}
	for i := m; i < len(obj.frames); i++ {
		obj.frames[i] = nil
	}
	obj.frames = obj.frames[:m]
	return nil
}

// Add inserts a binding into the innermost frame. A binding of the same name
// in that frame is replaced.
func (obj *Stack) Add(name string, typ, value ast.Expr, origin Origin) error {
	if len(obj.frames) == 0 {
		return errwrap.Wrapf(interfaces.ErrScopeUnderflow, "no scope to add `%s` to", name)
	}
	frame := obj.frames[len(obj.frames)-1]
	if _, exists := frame.names[name]; exists {
		obj.logf("shadowing `%s` in scope %d", name, len(obj.frames)-1)
	}
	frame.names[name] = &Info{
		Name:   name,
		Type:   typ,
		Value:  value,
		Origin: origin,
	}
	return nil
}

// AddThunk inserts a binding without a value.
func (obj *Stack) AddThunk(name string, origin Origin) error {
	return obj.Add(name, nil, nil, origin)
}

// Lookup finds the binding of name at the given distance, searching from the
// innermost frame outwards. Every frame which defines the name uses up one
// unit of distance.
func (obj *Stack) Lookup(name string, distance int) (*Info, ast.ScopeID, error) {
	return obj.lookup(len(obj.frames)-1, name, distance, false)
}

// LookupFrom is like Lookup but starts the search at the frame with the given
// absolute depth. Resolve uses it to read a cached id.
func (obj *Stack) LookupFrom(depth int, name string, distance int) (*Info, ast.ScopeID, error) {
	if depth >= len(obj.frames) {
		return nil, ast.ScopeID{}, errwrap.Wrapf(interfaces.ErrNameNotFound, "depth %d is not open", depth)
	}
	return obj.lookup(depth, name, distance, false)
}

// LookupStructural is like Lookup but only counts the frames of binders that
// exist in a normalized tree. Let frames are skipped since a normalized tree
// has no lets, so a distance that was written out against such a tree never
// counted them.
func (obj *Stack) LookupStructural(name string, distance int) (*Info, ast.ScopeID, error) {
	return obj.lookup(len(obj.frames)-1, name, distance, true)
}

func (obj *Stack) lookup(depth int, name string, distance int, structural bool) (*Info, ast.ScopeID, error) {
	if distance < 0 {
		return nil, ast.ScopeID{}, errwrap.Wrapf(interfaces.ErrNameNotFound, "negative distance for `%s`", name)
	}
	remaining := distance
	for i := depth; i >= 0; i-- {
		frame := obj.frames[i]
		info, exists := frame.names[name]
		if !exists {
			continue
		}
		if structural && !info.Origin.structural() {
			continue
		}
		if remaining == 0 {
			return info, ast.ScopeID{Depth: i, Serial: frame.serial}, nil
		}
		remaining--
	}
	return nil, ast.ScopeID{}, errwrap.Wrapf(interfaces.ErrNameNotFound, "`%s%s%d`", name, interfaces.DistanceSep, distance)
}

// Resolve returns the binding of name in the frame that id points to. It
// returns false if that frame is no longer open, which happens when the id
// was cached by an earlier pass or by another stack.
func (obj *Stack) Resolve(id ast.ScopeID, name string) (*Info, bool) {
	if id.Depth < 0 || id.Depth >= len(obj.frames) {
		return nil, false
	}
	if obj.frames[id.Depth].serial != id.Serial {
		return nil, false
	}
	info, found, err := obj.LookupFrom(id.Depth, name, 0)
	if err != nil || found != id { // name is bound further out
		return nil, false
	}
	return info, true
}

// OutputDistance returns the distance a reference to the binding of name in
// the frame id must be written with in the normalized output. That is the
// number of frames above it that bind the same name and survive.
func (obj *Stack) OutputDistance(id ast.ScopeID, name string) int {
	n := 0
	for i := len(obj.frames) - 1; i > id.Depth; i-- {
		if info, exists := obj.frames[i].names[name]; exists && info.Origin.surviving() {
			n++
		}
	}
	return n
}

// IsThunk returns true if the binding at this distance has no value.
func (obj *Stack) IsThunk(name string, distance int) (bool, error) {
	info, _, err := obj.Lookup(name, distance)
	if err != nil {
		return false, err
	}
	return info.IsThunk(), nil
}
