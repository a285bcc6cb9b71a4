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

import (
	"fmt"

	"github.com/quartzlab/quartz/internal/funcutil"
)

// IR is the body of a method: its statements in order, its formal
// parameters, its receiver variable and its return variables.
type IR struct {
	method     *Method
	this       *Var
	params     []*Var
	stmts      []Stmt
	vars       []*Var
	returnVars []*Var
}

// NewIR attaches a body to method m. Branch targets must be patched before
// the call; NewIR assigns statement indices, records each variable's
// relevant statements, collects return variables, and registers the body on
// the method.
//
// this must be nil exactly when m is static. Abstract methods take no body.
func NewIR(m *Method, this *Var, params []*Var, stmts []Stmt) *IR {
	if m.IsAbstract() {
		panic(fmt.Sprintf("abstract method %s cannot have a body", m))
	}
	if m.ir != nil {
		panic(fmt.Sprintf("method %s already has a body", m))
	}
	if (this == nil) != m.IsStatic() {
		panic(fmt.Sprintf("receiver mismatch for %s", m))
	}
	ir := &IR{method: m, this: this, params: params, stmts: stmts}

	seen := make(map[*Var]bool)
	record := func(v *Var) {
		if v == nil || seen[v] {
			return
		}
		seen[v] = true
		v.method = m
		ir.vars = append(ir.vars, v)
	}
	record(this)
	for _, p := range params {
		record(p)
	}

	for i, s := range stmts {
		s.setIndex(i)
		s.setMethod(m)
		if def, ok := s.(Definition); ok {
			record(def.Def())
		}
		for _, u := range s.Uses() {
			record(u)
		}

		switch s := s.(type) {
		case *LoadField:
			if a, ok := s.Access.(*InstanceFieldAccess); ok {
				a.Base.loadFields = append(a.Base.loadFields, s)
			}
		case *StoreField:
			if a, ok := s.Access.(*InstanceFieldAccess); ok {
				a.Base.storeFields = append(a.Base.storeFields, s)
			}
		case *LoadArray:
			s.Access.Base.loadArrays = append(s.Access.Base.loadArrays, s)
		case *StoreArray:
			s.Access.Base.storeArrays = append(s.Access.Base.storeArrays, s)
		case *Invoke:
			if s.Call.Base != nil {
				s.Call.Base.invokes = append(s.Call.Base.invokes, s)
			}
		case *Return:
			if s.V != nil && !funcutil.Contains(ir.returnVars, s.V) {
				ir.returnVars = append(ir.returnVars, s.V)
			}
		}
	}

	m.ir = ir
	return ir
}

// Method returns the method this body belongs to.
func (ir *IR) Method() *Method { return ir.method }

// This returns the receiver variable, or nil for static methods.
func (ir *IR) This() *Var { return ir.this }

// Params returns the formal parameter variables in declaration order.
func (ir *IR) Params() []*Var { return ir.params }

// Param returns the i-th formal parameter variable.
func (ir *IR) Param(i int) *Var { return ir.params[i] }

// Stmts returns the statements in order.
func (ir *IR) Stmts() []Stmt { return ir.stmts }

// Vars returns every variable of the body in first-appearance order.
func (ir *IR) Vars() []*Var { return ir.vars }

// ReturnVars returns the variables returned by the body's return
// statements, in order of first appearance.
func (ir *IR) ReturnVars() []*Var { return ir.returnVars }
