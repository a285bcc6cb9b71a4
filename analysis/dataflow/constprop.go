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

package dataflow

import (
	"github.com/quartzlab/quartz/analysis/cfg"
	"github.com/quartzlab/quartz/analysis/lang"
)

// ConstantPropagation is the forward constant propagation analysis for
// 32-bit integer variables.
type ConstantPropagation struct{}

// NewConstantPropagation returns the analysis.
func NewConstantPropagation() *ConstantPropagation {
	return &ConstantPropagation{}
}

// IsForward reports the direction of the analysis.
func (*ConstantPropagation) IsForward() bool { return true }

// NewBoundaryFact maps every integer-typed formal parameter to NAC: the
// analysis assumes nothing about inputs. All other variables stay UNDEF.
func (*ConstantPropagation) NewBoundaryFact(g *cfg.CFG) *CPFact {
	fact := NewCPFact()
	for _, p := range g.IR().Params() {
		if CanHoldInt(p) {
			fact.Update(p, NAC())
		}
	}
	return fact
}

// NewInitialFact returns the empty fact.
func (*ConstantPropagation) NewInitialFact() *CPFact {
	return NewCPFact()
}

// MeetInto meets fact into target pointwise.
func (*ConstantPropagation) MeetInto(fact, target *CPFact) {
	fact.ForEach(func(v *lang.Var, val Value) {
		target.Update(v, MeetValue(target.Get(v), val))
	})
}

// TransferNode copies the in fact and, for a definition of an integer-typed
// variable, kills the old binding and generates the evaluated one.
func (*ConstantPropagation) TransferNode(s lang.Stmt, in, out *CPFact) bool {
	old := out.Copy()
	out.Clear()
	out.CopyFrom(in)

	if def, ok := s.(lang.Definition); ok {
		if v := def.Def(); v != nil && CanHoldInt(v) {
			out.Remove(v)
			out.Update(v, Evaluate(def.RHS(), in))
		}
	}
	return !old.Equals(out)
}

// CanHoldInt reports whether the variable is treated as a 32-bit integer
// (byte, short, int, char or boolean).
func CanHoldInt(v *lang.Var) bool {
	return lang.CanHoldInt(v.Type())
}

// Evaluate computes the abstract value of an expression under the given
// fact. Unknown expression shapes evaluate to NAC, the safe
// over-approximation.
func Evaluate(e lang.Exp, in *CPFact) Value {
	switch e := e.(type) {
	case *lang.Var:
		return in.Get(e)
	case lang.IntLiteral:
		return MakeConstant(e.Value)
	case *lang.BinaryExp:
		return evaluateBinary(e, in)
	default:
		return NAC()
	}
}

func evaluateBinary(e *lang.BinaryExp, in *CPFact) Value {
	y, z := in.Get(e.X), in.Get(e.Y)

	// A zero divisor traps before the dividend is read, so the result is
	// UNDEF even when the dividend is NAC.
	if (e.Op == lang.Div || e.Op == lang.Rem) && z.IsConstant() && z.Constant() == 0 {
		return Undef()
	}

	if y.IsConstant() && z.IsConstant() {
		return MakeConstant(foldBinary(e.Op, y.Constant(), z.Constant()))
	}
	if y.IsNAC() || z.IsNAC() {
		return NAC()
	}
	return Undef()
}

// foldBinary computes op over 32-bit operands with wrap-around semantics.
// Shift amounts use the low 5 bits; logical right shift is unsigned;
// comparisons yield 0 or 1.
func foldBinary(op lang.BinaryOp, y, z int32) int32 {
	b2i := func(b bool) int32 {
		if b {
			return 1
		}
		return 0
	}
	switch op {
	case lang.Add:
		return y + z
	case lang.Sub:
		return y - z
	case lang.Mul:
		return y * z
	case lang.Div:
		if z == -1 {
			return -y // MinInt32 / -1 wraps instead of trapping
		}
		return y / z
	case lang.Rem:
		if z == -1 {
			return 0
		}
		return y % z
	case lang.And:
		return y & z
	case lang.Or:
		return y | z
	case lang.Xor:
		return y ^ z
	case lang.Shl:
		return y << (uint32(z) & 31)
	case lang.Shr:
		return y >> (uint32(z) & 31)
	case lang.Ushr:
		return int32(uint32(y) >> (uint32(z) & 31))
	case lang.Eq:
		return b2i(y == z)
	case lang.Ne:
		return b2i(y != z)
	case lang.Lt:
		return b2i(y < z)
	case lang.Gt:
		return b2i(y > z)
	case lang.Le:
		return b2i(y <= z)
	case lang.Ge:
		return b2i(y >= z)
	}
	return 0
}
