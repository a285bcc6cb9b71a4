// Copyright (c) the Quartz authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package lang

import "fmt"

// A Stmt is a statement of a method body. Statement values are created by
// the frontend (or a test) with their payload fields, then swept into an IR
// by NewIR, which assigns the stable index.
type Stmt interface {
	// Index is the position of the statement in its method body. Synthetic
	// entry/exit nodes have index -1.
	Index() int

	// Method returns the method whose body contains the statement, or nil
	// for statements not yet attached to an IR (and synthetic CFG nodes).
	Method() *Method

	// Uses returns the variables read by the statement.
	Uses() []*Var

	String() string

	setIndex(int)
	setMethod(*Method)
}

// A Definition is a statement whose left-hand side is a variable.
type Definition interface {
	Stmt

	// Def returns the defined variable, or nil (an Invoke without a result
	// defines nothing).
	Def() *Var

	// RHS returns the defining expression.
	RHS() Exp
}

type stmtBase struct {
	index  int
	method *Method
}

func (s *stmtBase) Index() int          { return s.index }
func (s *stmtBase) Method() *Method     { return s.method }
func (s *stmtBase) setIndex(i int)      { s.index = i }
func (s *stmtBase) setMethod(m *Method) { s.method = m }

// Nop does nothing. The synthetic entry and exit nodes of a CFG are Nops.
type Nop struct {
	stmtBase
	Label string // "entry"/"exit" for synthetic nodes, empty otherwise
}

func (s *Nop) Uses() []*Var { return nil }

// SetSyntheticIndex marks a Nop as a synthetic CFG node (index -1), keeping
// it distinct from the statement at position 0.
func (s *Nop) SetSyntheticIndex() { s.index = -1 }

func (s *Nop) String() string {
	if s.Label != "" {
		return "[" + s.Label + "]"
	}
	return "nop"
}

// New is an allocation "x = new T". The statement value itself is the
// allocation site: the heap model interns one abstract object per *New.
type New struct {
	stmtBase
	L *Var
	T Type
}

func (s *New) Uses() []*Var { return nil }
func (s *New) Def() *Var    { return s.L }
func (s *New) RHS() Exp     { return NewExp{T: s.T} }

func (s *New) String() string { return fmt.Sprintf("%s = new %s", s.L, s.T) }

// Copy is "x = y".
type Copy struct {
	stmtBase
	L *Var
	R *Var
}

func (s *Copy) Uses() []*Var { return []*Var{s.R} }
func (s *Copy) Def() *Var    { return s.L }
func (s *Copy) RHS() Exp     { return s.R }

func (s *Copy) String() string { return fmt.Sprintf("%s = %s", s.L, s.R) }

// Assign is a computed definition "x = e" where e is a literal, binary
// operation or cast.
type Assign struct {
	stmtBase
	L *Var
	R Exp
}

func (s *Assign) Uses() []*Var { return expUses(s.R) }
func (s *Assign) Def() *Var    { return s.L }
func (s *Assign) RHS() Exp     { return s.R }

func (s *Assign) String() string { return fmt.Sprintf("%s = %s", s.L, s.R) }

// LoadField is "x = base.f" or "x = C.f".
type LoadField struct {
	stmtBase
	L      *Var
	Access FieldAccess
}

// IsStatic reports whether the load reads a static field.
func (s *LoadField) IsStatic() bool {
	_, ok := s.Access.(*StaticFieldAccess)
	return ok
}

// FieldRef returns the loaded field.
func (s *LoadField) FieldRef() *FieldRef { return s.Access.FieldRef() }

func (s *LoadField) Uses() []*Var { return expUses(s.Access) }
func (s *LoadField) Def() *Var    { return s.L }
func (s *LoadField) RHS() Exp     { return s.Access }

func (s *LoadField) String() string { return fmt.Sprintf("%s = %s", s.L, s.Access) }

// StoreField is "base.f = y" or "C.f = y".
type StoreField struct {
	stmtBase
	Access FieldAccess
	R      *Var
}

// IsStatic reports whether the store writes a static field.
func (s *StoreField) IsStatic() bool {
	_, ok := s.Access.(*StaticFieldAccess)
	return ok
}

// FieldRef returns the stored field.
func (s *StoreField) FieldRef() *FieldRef { return s.Access.FieldRef() }

func (s *StoreField) Uses() []*Var { return append(expUses(s.Access), s.R) }

func (s *StoreField) String() string { return fmt.Sprintf("%s = %s", s.Access, s.R) }

// LoadArray is "x = base[i]".
type LoadArray struct {
	stmtBase
	L      *Var
	Access *ArrayAccess
}

func (s *LoadArray) Uses() []*Var { return []*Var{s.Access.Base, s.Access.Index} }
func (s *LoadArray) Def() *Var    { return s.L }
func (s *LoadArray) RHS() Exp     { return s.Access }

func (s *LoadArray) String() string { return fmt.Sprintf("%s = %s", s.L, s.Access) }

// StoreArray is "base[i] = y".
type StoreArray struct {
	stmtBase
	Access *ArrayAccess
	R      *Var
}

func (s *StoreArray) Uses() []*Var { return []*Var{s.Access.Base, s.Access.Index, s.R} }

func (s *StoreArray) String() string { return fmt.Sprintf("%s = %s", s.Access, s.R) }

// Invoke is a call site, optionally defining a result variable.
type Invoke struct {
	stmtBase
	L    *Var // result; nil if the value is discarded
	Call *InvokeExp
}

// Kind returns the call kind.
func (s *Invoke) Kind() CallKind { return s.Call.Kind }

// MethodRef returns the named call target.
func (s *Invoke) MethodRef() MethodRef { return s.Call.Ref }

// IsStatic reports whether the call needs no receiver.
func (s *Invoke) IsStatic() bool { return s.Call.Kind.IsStatic() }

func (s *Invoke) Uses() []*Var { return expUses(s.Call) }
func (s *Invoke) Def() *Var    { return s.L }
func (s *Invoke) RHS() Exp     { return s.Call }

func (s *Invoke) String() string {
	if s.L != nil {
		return fmt.Sprintf("%s = %s", s.L, s.Call)
	}
	return s.Call.String()
}

// If is a conditional branch: when Cond holds control transfers to Target,
// otherwise it falls through.
type If struct {
	stmtBase
	Cond   *BinaryExp
	Target Stmt
}

func (s *If) Uses() []*Var { return []*Var{s.Cond.X, s.Cond.Y} }

func (s *If) String() string {
	return fmt.Sprintf("if (%s) goto %d", s.Cond, s.Target.Index())
}

// Goto is an unconditional jump.
type Goto struct {
	stmtBase
	Target Stmt
}

func (s *Goto) Uses() []*Var { return nil }

func (s *Goto) String() string { return fmt.Sprintf("goto %d", s.Target.Index()) }

// A SwitchCase pairs a case value with its jump target.
type SwitchCase struct {
	Value  int32
	Target Stmt
}

// Switch is a table/lookup switch on an integer selector.
type Switch struct {
	stmtBase
	V       *Var
	Cases   []SwitchCase
	Default Stmt
}

func (s *Switch) Uses() []*Var { return []*Var{s.V} }

func (s *Switch) String() string { return fmt.Sprintf("switch (%s)", s.V) }

// Return leaves the method, optionally yielding V.
type Return struct {
	stmtBase
	V *Var // nil for void returns
}

func (s *Return) Uses() []*Var {
	if s.V == nil {
		return nil
	}
	return []*Var{s.V}
}

func (s *Return) String() string {
	if s.V == nil {
		return "return"
	}
	return fmt.Sprintf("return %s", s.V)
}

// expUses returns the variables read by an expression.
func expUses(e Exp) []*Var {
	switch e := e.(type) {
	case *Var:
		return []*Var{e}
	case *BinaryExp:
		return []*Var{e.X, e.Y}
	case *CastExp:
		return []*Var{e.X}
	case *InstanceFieldAccess:
		return []*Var{e.Base}
	case *ArrayAccess:
		return []*Var{e.Base, e.Index}
	case *InvokeExp:
		var out []*Var
		if e.Base != nil {
			out = append(out, e.Base)
		}
		return append(out, e.Args...)
	}
	return nil
}
