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
	"testing"

	"github.com/quartzlab/quartz/analysis/cfg"
	"github.com/quartzlab/quartz/analysis/lang"
)

// buildCFG assembles a static method with the given int parameters and
// statements and returns its CFG.
func buildCFG(t *testing.T, params []*lang.Var, stmts []lang.Stmt) *cfg.CFG {
	t.Helper()
	h := lang.NewHierarchy()
	c := h.NewClass("Main", nil)
	types := make([]lang.Type, len(params))
	for i, p := range params {
		types[i] = p.Type()
	}
	m := c.NewMethod("main", lang.Void, types, lang.Static)
	lang.NewIR(m, nil, params, stmts)
	return cfg.Build(m.IR())
}

func TestConstantFold(t *testing.T) {
	x := lang.NewVar("x", lang.Int)
	y := lang.NewVar("y", lang.Int)
	z := lang.NewVar("z", lang.Int)
	assignZ := &lang.Assign{L: z, R: &lang.BinaryExp{Op: lang.Add, X: x, Y: y}}
	g := buildCFG(t, nil, []lang.Stmt{
		&lang.Assign{L: x, R: lang.IntLiteral{Value: 1}},
		&lang.Assign{L: y, R: lang.IntLiteral{Value: 2}},
		assignZ,
		&lang.Return{},
	})

	res := Solve[*CPFact](NewConstantPropagation(), g)
	if got := res.OutFact(assignZ).Get(z); !got.IsConstant() || got.Constant() != 3 {
		t.Errorf("z = %s, want 3", got)
	}
}

func TestNACJoin(t *testing.T) {
	p := lang.NewVar("p", lang.Int)
	x := lang.NewVar("x", lang.Int)
	y := lang.NewVar("y", lang.Int)

	setTwo := &lang.Assign{L: x, R: lang.IntLiteral{Value: 2}}
	useX := &lang.Copy{L: y, R: x}
	branch := &lang.If{Cond: &lang.BinaryExp{Op: lang.Eq, X: p, Y: p}, Target: setTwo}
	g := buildCFG(t, []*lang.Var{p}, []lang.Stmt{
		branch,                                       // 0: if (p == p) goto 3
		&lang.Assign{L: x, R: lang.IntLiteral{Value: 1}}, // 1: x = 1
		&lang.Goto{Target: useX},                     // 2: goto 4
		setTwo,                                       // 3: x = 2
		useX,                                         // 4: y = x
		&lang.Return{},
	})

	res := Solve[*CPFact](NewConstantPropagation(), g)
	out := res.OutFact(useX)
	if got := out.Get(x); !got.IsNAC() {
		t.Errorf("x = %s, want NAC", got)
	}
	if got := out.Get(y); !got.IsNAC() {
		t.Errorf("y = %s, want NAC", got)
	}
}

func TestDivideByZeroTrapsToUndef(t *testing.T) {
	p := lang.NewVar("p", lang.Int)
	z := lang.NewVar("z", lang.Int)
	y := lang.NewVar("y", lang.Int)
	div := &lang.Assign{L: y, R: &lang.BinaryExp{Op: lang.Div, X: p, Y: z}}
	g := buildCFG(t, []*lang.Var{p}, []lang.Stmt{
		&lang.Assign{L: z, R: lang.IntLiteral{Value: 0}},
		div,
		&lang.Return{},
	})

	res := Solve[*CPFact](NewConstantPropagation(), g)
	// the zero divisor traps before the NAC dividend is read
	if got := res.OutFact(div).Get(y); !got.IsUndef() {
		t.Errorf("y = %s, want UNDEF", got)
	}
}

func TestBoundaryFactParamsAreNAC(t *testing.T) {
	p := lang.NewVar("p", lang.Int)
	q := lang.NewVar("q", lang.ClassType{Class: lang.NewHierarchy().NewClass("O", nil)})
	g := buildCFG(t, []*lang.Var{p, q}, []lang.Stmt{&lang.Return{}})

	fact := NewConstantPropagation().NewBoundaryFact(g)
	if got := fact.Get(p); !got.IsNAC() {
		t.Errorf("int param = %s, want NAC", got)
	}
	if got := fact.Get(q); !got.IsUndef() {
		t.Errorf("reference param = %s, want UNDEF (untracked)", got)
	}
}

func TestEvaluateOperators(t *testing.T) {
	x := lang.NewVar("x", lang.Int)
	y := lang.NewVar("y", lang.Int)
	in := NewCPFact()

	tests := []struct {
		op   lang.BinaryOp
		a, b int32
		want int32
	}{
		{lang.Sub, 5, 7, -2},
		{lang.Mul, -3, 4, -12},
		{lang.Rem, 7, 3, 1},
		{lang.And, 6, 3, 2},
		{lang.Or, 6, 3, 7},
		{lang.Xor, 6, 3, 5},
		{lang.Shl, 1, 33, 2},         // shift amounts use the low 5 bits
		{lang.Shr, -8, 1, -4},
		{lang.Ushr, -1, 28, 15},      // logical shift is unsigned
		{lang.Le, 3, 3, 1},
		{lang.Gt, 3, 3, 0},
		{lang.Mul, 2147483647, 2, -2}, // 32-bit wrap-around
	}
	for _, tc := range tests {
		in.Update(x, MakeConstant(tc.a))
		in.Update(y, MakeConstant(tc.b))
		got := Evaluate(&lang.BinaryExp{Op: tc.op, X: x, Y: y}, in)
		if !got.IsConstant() || got.Constant() != tc.want {
			t.Errorf("%d %s %d = %s, want %d", tc.a, tc.op, tc.b, got, tc.want)
		}
	}
}

func TestEvaluateUnknownExpIsNAC(t *testing.T) {
	x := lang.NewVar("x", lang.Int)
	if got := Evaluate(&lang.CastExp{T: lang.Int, X: x}, NewCPFact()); !got.IsNAC() {
		t.Errorf("cast = %s, want NAC", got)
	}
}

func TestNaiveSolverAgreesWithWorklist(t *testing.T) {
	p := lang.NewVar("p", lang.Int)
	x := lang.NewVar("x", lang.Int)
	y := lang.NewVar("y", lang.Int)

	setTwo := &lang.Assign{L: x, R: lang.IntLiteral{Value: 2}}
	useX := &lang.Copy{L: y, R: x}
	stmts := []lang.Stmt{
		&lang.If{Cond: &lang.BinaryExp{Op: lang.Lt, X: p, Y: p}, Target: setTwo},
		&lang.Assign{L: x, R: lang.IntLiteral{Value: 1}},
		&lang.Goto{Target: useX},
		setTwo,
		useX,
		&lang.Return{},
	}
	g := buildCFG(t, []*lang.Var{p}, stmts)

	worklist := Solve[*CPFact](NewConstantPropagation(), g)
	naive := SolveNaive[*CPFact](NewConstantPropagation(), g)
	for _, n := range g.Nodes() {
		if !worklist.OutFact(n).Equals(naive.OutFact(n)) {
			t.Errorf("solvers disagree at %s: %s vs %s", n, worklist.OutFact(n), naive.OutFact(n))
		}
	}
}

func TestTransferIsFixedPoint(t *testing.T) {
	p := lang.NewVar("p", lang.Int)
	x := lang.NewVar("x", lang.Int)
	stmts := []lang.Stmt{
		&lang.Assign{L: x, R: &lang.BinaryExp{Op: lang.Add, X: p, Y: p}},
		&lang.Return{},
	}
	g := buildCFG(t, []*lang.Var{p}, stmts)
	cp := NewConstantPropagation()
	res := Solve[*CPFact](cp, g)

	// re-applying any transfer after termination must not change anything
	for _, n := range g.Nodes() {
		if n == g.Entry() {
			continue
		}
		if cp.TransferNode(n, res.InFact(n), res.OutFact(n)) {
			t.Errorf("transfer of %s changed facts after fixed point", n)
		}
	}
}
