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

	"github.com/quartzlab/quartz/analysis/lang"
)

func TestLiveVariablesStraightLine(t *testing.T) {
	x := lang.NewVar("x", lang.Int)
	y := lang.NewVar("y", lang.Int)
	z := lang.NewVar("z", lang.Int)

	defX := &lang.Assign{L: x, R: lang.IntLiteral{Value: 1}}
	defY := &lang.Assign{L: y, R: lang.IntLiteral{Value: 2}}
	useXY := &lang.Assign{L: z, R: &lang.BinaryExp{Op: lang.Add, X: x, Y: y}}
	ret := &lang.Return{V: z}
	g := buildCFG(t, nil, []lang.Stmt{defX, defY, useXY, ret})

	res := Solve[*SetFact[*lang.Var]](NewLiveVariables(), g)

	// x is live after its definition (read by useXY), dead after useXY
	if !res.OutFact(defX).Contains(x) {
		t.Errorf("x should be live after %s", defX)
	}
	if res.OutFact(useXY).Contains(x) {
		t.Errorf("x should be dead after %s", useXY)
	}
	// z is live after its definition (returned)
	if !res.OutFact(useXY).Contains(z) {
		t.Errorf("z should be live after %s", useXY)
	}
	if res.OutFact(ret).Contains(z) {
		t.Errorf("nothing is live after return, got z")
	}
}

func TestLiveVariablesBranchUnion(t *testing.T) {
	p := lang.NewVar("p", lang.Int)
	a := lang.NewVar("a", lang.Int)
	b := lang.NewVar("b", lang.Int)
	r := lang.NewVar("r", lang.Int)

	useA := &lang.Copy{L: r, R: a}
	useB := &lang.Copy{L: r, R: b}
	ret := &lang.Return{V: r}
	branch := &lang.If{Cond: &lang.BinaryExp{Op: lang.Gt, X: p, Y: p}, Target: useB}
	g := buildCFG(t, []*lang.Var{p, a, b}, []lang.Stmt{
		branch,
		useA,
		&lang.Goto{Target: ret},
		useB,
		ret,
	})

	res := Solve[*SetFact[*lang.Var]](NewLiveVariables(), g)
	// both a and b may be read after the branch
	out := res.OutFact(branch)
	if !out.Contains(a) || !out.Contains(b) {
		t.Errorf("a and b should both be live after the branch")
	}
}
