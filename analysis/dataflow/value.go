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

// Package dataflow implements the monotone dataflow framework: the abstract
// integer value lattice, per-point fact maps, the generic worklist and
// iterative solvers, and the constant propagation and live variable
// analyses that run on them.
package dataflow

import "fmt"

type valueKind uint8

const (
	undef valueKind = iota
	constant
	nac
)

// A Value is an abstract integer: UNDEF (no information, bottom), a known
// 32-bit constant, or NAC (not-a-constant, top). Values are immutable and
// comparable.
type Value struct {
	kind valueKind
	c    int32
}

// Undef returns the bottom element.
func Undef() Value { return Value{kind: undef} }

// NAC returns the top element.
func NAC() Value { return Value{kind: nac} }

// MakeConstant returns the abstract value of a known constant.
func MakeConstant(c int32) Value { return Value{kind: constant, c: c} }

// IsUndef reports whether v is UNDEF.
func (v Value) IsUndef() bool { return v.kind == undef }

// IsNAC reports whether v is NAC.
func (v Value) IsNAC() bool { return v.kind == nac }

// IsConstant reports whether v is a known constant.
func (v Value) IsConstant() bool { return v.kind == constant }

// Constant returns the constant held by v. It panics unless IsConstant.
func (v Value) Constant() int32 {
	if v.kind != constant {
		panic("value is not a constant")
	}
	return v.c
}

func (v Value) String() string {
	switch v.kind {
	case undef:
		return "UNDEF"
	case nac:
		return "NAC"
	}
	return fmt.Sprint(v.c)
}

// MeetValue is the lattice meet: NAC absorbs everything, UNDEF is the
// identity, and distinct constants collapse to NAC. It is commutative,
// associative and idempotent.
func MeetValue(a, b Value) Value {
	switch {
	case a.IsNAC() || b.IsNAC():
		return NAC()
	case a.IsUndef():
		return b
	case b.IsUndef():
		return a
	case a.c == b.c:
		return a
	default:
		return NAC()
	}
}
