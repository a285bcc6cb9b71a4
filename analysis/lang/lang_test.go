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
	"strings"
	"testing"
)

func TestSubsignature(t *testing.T) {
	sig := MakeSubsignature("m", Int, []Type{Int, Boolean})
	if string(sig) != "int m(int,boolean)" {
		t.Errorf("subsignature = %q", sig)
	}
}

func TestFieldRefInterning(t *testing.T) {
	h := NewHierarchy()
	c := h.NewClass("A", nil)
	f1 := h.FieldRef(c, "f", Int, false)
	f2 := h.FieldRef(c, "f", Int, false)
	if f1 != f2 {
		t.Error("same field must intern to the same reference")
	}
	if f3 := h.FieldRef(c, "f", Int, true); f3 == f1 {
		t.Error("static and instance fields must be distinct")
	}
}

func TestIRRecordsRelevantStmts(t *testing.T) {
	h := NewHierarchy()
	o := h.NewClass("O", nil)
	f := h.FieldRef(o, "f", Int, false)
	c := h.NewClass("Main", nil)
	m := c.NewMethod("main", Void, nil, Static)

	base := NewVar("base", o.Type())
	x := NewVar("x", Int)
	idx := NewVar("i", Int)
	arr := NewVar("arr", ArrayType{Elem: Int})
	sig := MakeSubsignature("run", Void, nil)

	load := &LoadField{L: x, Access: &InstanceFieldAccess{Base: base, Field: f}}
	store := &StoreField{Access: &InstanceFieldAccess{Base: base, Field: f}, R: x}
	aload := &LoadArray{L: x, Access: &ArrayAccess{Base: arr, Index: idx}}
	astore := &StoreArray{Access: &ArrayAccess{Base: arr, Index: idx}, R: x}
	call := &Invoke{Call: &InvokeExp{Kind: CallVirtual, Ref: MethodRef{Class: o, Subsig: sig}, Base: base}}
	ret := &Return{V: x}
	NewIR(m, nil, nil, []Stmt{load, store, aload, astore, call, ret})

	if len(base.LoadFields()) != 1 || base.LoadFields()[0] != load {
		t.Errorf("base.LoadFields = %v", base.LoadFields())
	}
	if len(base.StoreFields()) != 1 || len(base.Invokes()) != 1 {
		t.Error("store/invoke registries not filled")
	}
	if len(arr.LoadArrays()) != 1 || len(arr.StoreArrays()) != 1 {
		t.Error("array registries not filled")
	}
	if rv := m.IR().ReturnVars(); len(rv) != 1 || rv[0] != x {
		t.Errorf("return vars = %v", rv)
	}
	if load.Index() != 0 || ret.Index() != 5 {
		t.Error("statement indices not assigned in order")
	}
	if load.Method() != m {
		t.Error("statement method backref not set")
	}
}

func TestValidateRejectsCyclicHierarchy(t *testing.T) {
	h := NewHierarchy()
	a := h.NewClass("A", nil)
	b := h.NewClass("B", a)
	// corrupt the chain: A extends B extends A
	a.super = b

	err := h.Validate()
	if err == nil {
		t.Fatal("cyclic superclass chain must be rejected")
	}
	// the error names the offending chain
	if !strings.Contains(err.Error(), "A") || !strings.Contains(err.Error(), "B") {
		t.Errorf("error %q does not name the cycle", err)
	}
}

func TestValidateRejectsSelfSuperclass(t *testing.T) {
	h := NewHierarchy()
	a := h.NewClass("A", nil)
	a.super = a

	err := h.Validate()
	if err == nil {
		t.Fatal("self-superclass must be rejected")
	}
	if !strings.Contains(err.Error(), "A -> A") {
		t.Errorf("error %q does not name the self loop", err)
	}
}

func TestValidateAcceptsTree(t *testing.T) {
	h := NewHierarchy()
	a := h.NewClass("A", nil)
	h.NewClass("B", a)
	i := h.NewInterface("I")
	h.NewClass("C", a, i)
	if err := h.Validate(); err != nil {
		t.Errorf("valid hierarchy rejected: %v", err)
	}
}

func TestCanHoldInt(t *testing.T) {
	for _, typ := range []Type{Byte, Short, Int, Char, Boolean} {
		if !CanHoldInt(typ) {
			t.Errorf("%s should hold int", typ)
		}
	}
	h := NewHierarchy()
	o := h.NewClass("O", nil)
	for _, typ := range []Type{Long, Float, Double, Void, o.Type(), ArrayType{Elem: Int}} {
		if CanHoldInt(typ) {
			t.Errorf("%s should not hold int", typ)
		}
	}
}
