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

// Package ast contains the structs implementing the three level syntax tree
// of the language along with some utility functions for working with it. An
// Expr is the loosest level (let, lambda), a Term1 is an operator level form
// (application, arrows, operators, conditionals) and a Term is an atom. The
// ExprTerm1, Term1Term and TermExpr structs are the boxes which move a node
// from one level to another.
package ast

// Node is the common interface of every node in the tree.
type Node interface {
	// String renders the node back into source syntax.
	String() string

	node()
}

// Expr is a node at the loosest precedence level.
type Expr interface {
	Node
	expr()
}

// Term1 is a node at the operator precedence level.
type Term1 interface {
	Node
	term1()
}

// Term is an atomic node.
type Term interface {
	Node
	term()
}

// ScopeID identifies the scope frame a variable was resolved against. Depth
// is the absolute position of the frame on the stack and Serial is the unique
// number of that frame, so that a cache pointing at a frame which was since
// popped and replaced at the same depth can be told apart.
type ScopeID struct {
	Depth  int
	Serial uint64
}

// ProjectStyle is the syntactic form of a projection.
type ProjectStyle int

const (
	// ProjectKeep is the `.{ a, b }` form.
	ProjectKeep ProjectStyle = 1

	// ProjectType is the `.(T)` form which selects by a record type.
	ProjectType ProjectStyle = 2
)

// TextStyle is the quoting form of a text literal.
type TextStyle int

const (
	// TextQuoted is the double quoted `"..."` form.
	TextQuoted TextStyle = 1

	// TextMultiline is the two single quote `''...''` form.
	TextMultiline TextStyle = 2
)

// ExprTerm1 boxes a Term1 as an Expr.
type ExprTerm1 struct {
	Term1 Term1
}

// Binding is a single `let name : Type = Value` clause.
type Binding struct {
	Name  string
	Type  Expr // optional
	Value Expr
}

// ExprLet is a chain of let bindings followed by a body. Each binding is in
// scope for the bindings after it and for the body.
type ExprLet struct {
	Bindings []*Binding
	Body     Expr
}

// ExprLambda is an anonymous function of one parameter.
type ExprLambda struct {
	Param string
	Type  Expr // optional
	Body  Expr
}

// Term1Term boxes a Term as a Term1.
type Term1Term struct {
	Term Term
}

// Term1Evaluation is the application of a function to one argument.
type Term1Evaluation struct {
	Func Term1
	Arg  Term
}

// Term1Arrow is a function type. When Param is not empty it is the named
// `forall (x : A) -> B` form and binds the parameter in the codomain.
type Term1Arrow struct {
	Param    string
	Domain   Expr
	Codomain Expr
}

// Term1With is the `base with a.b = value` record update.
type Term1With struct {
	Base  Term1
	Path  []string
	Value Term1
}

// Term1Operation is a binary operator application. Operators are not
// interpreted by the normalizer.
type Term1Operation struct {
	Left  Term1
	Op    string
	Right Term1
}

// Term1IfThenElse is a conditional.
type Term1IfThenElse struct {
	Cond Expr
	Then Expr
	Else Expr
}

// Term1Ascribe is a type annotation `term : Type`.
type Term1Ascribe struct {
	Term Term1
	Type Expr
}

// Term1Construct is the record completion `T::{ fields }`.
type Term1Construct struct {
	Term   Term1
	Fields []*RecordEntry
}

// TermInteger is an integer literal. Signed is set for the explicitly signed
// form (`+1`, `-1`) which is an Integer rather than a Natural.
type TermInteger struct {
	Value  int64
	Signed bool
}

// TermDouble is a floating point literal.
type TermDouble struct {
	Value float64
}

// TermVar is a variable reference `name@distance`. The distance counts the
// number of same named binders to skip. ScopeID caches the frame the variable
// was last resolved against and is nil for a variable that was never visited.
type TermVar struct {
	Name     string
	Distance int
	ScopeID  *ScopeID
}

// TermFieldAccess is `term.field`.
type TermFieldAccess struct {
	Term  Term
	Field string
}

// TermProject is a projection of a record down to some of its fields.
type TermProject struct {
	Style     ProjectStyle
	Term      Term
	Selectors []Term1
}

// TermPath is a dotted sequence of terms.
type TermPath struct {
	Terms []Term
}

// TextEntry is a run of literal text optionally followed by an interpolated
// expression.
type TextEntry struct {
	Literal      string
	Interpolated Expr // optional
}

// TermText is a text literal.
type TermText struct {
	Style   TextStyle
	Entries []*TextEntry
}

// TermList is a list literal.
type TermList struct {
	Elems []Expr
}

// RecordEntry is a record field. The path has more than one label for the
// dotted `a.b.c = value` shorthand.
type RecordEntry struct {
	Path  []string
	Value Expr
}

// TermRecord is a record literal `{ a = 1 }`.
type TermRecord struct {
	Fields []*RecordEntry
}

// TermTypeRecord is a record type `{ a : Natural }`.
type TermTypeRecord struct {
	Fields []*RecordEntry
}

// EnumAlt is an alternative of a union type.
type EnumAlt struct {
	Tag  string
	Type Expr // optional
}

// TermTypeEnum is a union type `< A : Natural | B >`.
type TermTypeEnum struct {
	Alts []*EnumAlt
}

// TermImport is an import of another expression by location. Guard is the
// optional integrity hash, As is empty for a code import or one of `Text` and
// `Location`, and Fallback is the alternative tried after `?`.
type TermImport struct {
	Path     string
	Guard    string
	As       string
	Fallback *TermImport
}

// TermExpr boxes an Expr as a Term. It is written with parentheses.
type TermExpr struct {
	Expr Expr
}

// TermMerge is `merge handlers scrutinee`.
type TermMerge struct {
	Handlers  []*RecordEntry
	Scrutinee Term
}

// TermEmbed is raw content embedded by an import of the text of a file.
type TermEmbed struct {
	Raw string
}

func (obj *ExprTerm1) node()  {}
func (obj *ExprLet) node()    {}
func (obj *ExprLambda) node() {}

func (obj *ExprTerm1) expr()  {}
func (obj *ExprLet) expr()    {}
func (obj *ExprLambda) expr() {}

func (obj *Term1Term) node()       {}
func (obj *Term1Evaluation) node() {}
func (obj *Term1Arrow) node()      {}
func (obj *Term1With) node()       {}
func (obj *Term1Operation) node()  {}
func (obj *Term1IfThenElse) node() {}
func (obj *Term1Ascribe) node()    {}
func (obj *Term1Construct) node()  {}

func (obj *Term1Term) term1()       {}
func (obj *Term1Evaluation) term1() {}
func (obj *Term1Arrow) term1()      {}
func (obj *Term1With) term1()       {}
func (obj *Term1Operation) term1()  {}
func (obj *Term1IfThenElse) term1() {}
func (obj *Term1Ascribe) term1()    {}
func (obj *Term1Construct) term1()  {}

func (obj *TermInteger) node()     {}
func (obj *TermDouble) node()      {}
func (obj *TermVar) node()         {}
func (obj *TermFieldAccess) node() {}
func (obj *TermProject) node()     {}
func (obj *TermPath) node()        {}
func (obj *TermText) node()        {}
func (obj *TermList) node()        {}
func (obj *TermRecord) node()      {}
func (obj *TermTypeRecord) node()  {}
func (obj *TermTypeEnum) node()    {}
func (obj *TermImport) node()      {}
func (obj *TermExpr) node()        {}
func (obj *TermMerge) node()       {}
func (obj *TermEmbed) node()       {}

func (obj *TermInteger) term()     {}
func (obj *TermDouble) term()      {}
func (obj *TermVar) term()         {}
func (obj *TermFieldAccess) term() {}
func (obj *TermProject) term()     {}
func (obj *TermPath) term()        {}
func (obj *TermText) term()        {}
func (obj *TermList) term()        {}
func (obj *TermRecord) term()      {}
func (obj *TermTypeRecord) term()  {}
func (obj *TermTypeEnum) term()    {}
func (obj *TermImport) term()      {}
func (obj *TermExpr) term()        {}
func (obj *TermMerge) term()       {}
func (obj *TermEmbed) term()       {}

// String returns the source form of this node.
func (obj *ExprTerm1) String() string { return Show(obj) }

// String returns the source form of this node.
func (obj *ExprLet) String() string { return Show(obj) }

// String returns the source form of this node.
func (obj *ExprLambda) String() string { return Show(obj) }

// String returns the source form of this node.
func (obj *Term1Term) String() string { return Show(obj) }

// String returns the source form of this node.
func (obj *Term1Evaluation) String() string { return Show(obj) }

// String returns the source form of this node.
func (obj *Term1Arrow) String() string { return Show(obj) }

// String returns the source form of this node.
func (obj *Term1With) String() string { return Show(obj) }

// String returns the source form of this node.
func (obj *Term1Operation) String() string { return Show(obj) }

// String returns the source form of this node.
func (obj *Term1IfThenElse) String() string { return Show(obj) }

// String returns the source form of this node.
func (obj *Term1Ascribe) String() string { return Show(obj) }

// String returns the source form of this node.
func (obj *Term1Construct) String() string { return Show(obj) }

// String returns the source form of this node.
func (obj *TermInteger) String() string { return Show(obj) }

// String returns the source form of this node.
func (obj *TermDouble) String() string { return Show(obj) }

// String returns the source form of this node.
func (obj *TermVar) String() string { return Show(obj) }

// String returns the source form of this node.
func (obj *TermFieldAccess) String() string { return Show(obj) }

// String returns the source form of this node.
func (obj *TermProject) String() string { return Show(obj) }

// String returns the source form of this node.
func (obj *TermPath) String() string { return Show(obj) }

// String returns the source form of this node.
func (obj *TermText) String() string { return Show(obj) }

// String returns the source form of this node.
func (obj *TermList) String() string { return Show(obj) }

// String returns the source form of this node.
func (obj *TermRecord) String() string { return Show(obj) }

// String returns the source form of this node.
func (obj *TermTypeRecord) String() string { return Show(obj) }

// String returns the source form of this node.
func (obj *TermTypeEnum) String() string { return Show(obj) }

// String returns the source form of this node.
func (obj *TermImport) String() string { return Show(obj) }

// String returns the source form of this node.
func (obj *TermExpr) String() string { return Show(obj) }

// String returns the source form of this node.
func (obj *TermMerge) String() string { return Show(obj) }

// String returns the source form of this node.
func (obj *TermEmbed) String() string { return Show(obj) }
