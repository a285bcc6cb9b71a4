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

package interproc

import (
	"io"
	"testing"

	"github.com/quartzlab/quartz/analysis/cfg"
	"github.com/quartzlab/quartz/analysis/config"
	"github.com/quartzlab/quartz/analysis/dataflow"
	"github.com/quartzlab/quartz/analysis/lang"
	"github.com/quartzlab/quartz/analysis/pta"
	"github.com/quartzlab/quartz/analysis/pta/ci"
)

func quietLog() *config.LogGroup {
	lg := config.NewLogGroup(&config.Config{Options: config.Options{LogLevel: int(config.ErrLevel)}})
	lg.SetAllOutput(io.Discard)
	return lg
}

// analyze runs CI pointer analysis, stitches the ICFG on its call graph and
// solves interprocedural constant propagation.
func analyze(t *testing.T, prog *lang.Program) *dataflow.Result[*dataflow.CPFact] {
	t.Helper()
	lg := quietLog()
	ptaRes := ci.Solve(prog, pta.NewAllocSiteModel(), lg)
	icfg := cfg.BuildICFG(prog, ptaRes.CallGraph())
	return Analyze(icfg, ptaRes, lg)
}

func TestCallAndReturnTransfer(t *testing.T) {
	// r = Util.addOne(41)  =>  r = 42
	h := lang.NewHierarchy()
	util := h.NewClass("Util", nil)
	sig := lang.MakeSubsignature("addOne", lang.Int, []lang.Type{lang.Int})
	addOne := util.NewMethod("addOne", lang.Int, []lang.Type{lang.Int}, lang.Static)
	p := lang.NewVar("p", lang.Int)
	one := lang.NewVar("one", lang.Int)
	q := lang.NewVar("q", lang.Int)
	lang.NewIR(addOne, nil, []*lang.Var{p}, []lang.Stmt{
		&lang.Assign{L: one, R: lang.IntLiteral{Value: 1}},
		&lang.Assign{L: q, R: &lang.BinaryExp{Op: lang.Add, X: p, Y: one}},
		&lang.Return{V: q},
	})

	mainC := h.NewClass("Main", nil)
	mainM := mainC.NewMethod("main", lang.Void, nil, lang.Static)
	a := lang.NewVar("a", lang.Int)
	r := lang.NewVar("r", lang.Int)
	call := &lang.Invoke{L: r, Call: &lang.InvokeExp{
		Kind: lang.CallStatic,
		Ref:  lang.MethodRef{Class: util, Subsig: sig},
		Args: []*lang.Var{a},
	}}
	after := &lang.Return{}
	lang.NewIR(mainM, nil, nil, []lang.Stmt{
		&lang.Assign{L: a, R: lang.IntLiteral{Value: 41}},
		call,
		after,
	})
	prog, err := lang.NewProgram(h, mainM)
	if err != nil {
		t.Fatal(err)
	}

	res := analyze(t, prog)
	if got := res.InFact(after).Get(r); !got.IsConstant() || got.Constant() != 42 {
		t.Errorf("r = %s, want 42", got)
	}
}

// fieldProgram builds the alias round-trip scenario:
//
//	x = new O; y = x; t = 1; y.f = t; z = x.f;
//
// With pt(x) ∩ pt(y) ≠ ∅ and no other write to f, z must be CONST(1).
func TestAliasAwareFieldConstant(t *testing.T) {
	h := lang.NewHierarchy()
	o := h.NewClass("O", nil)
	f := h.FieldRef(o, "f", lang.Int, false)
	mainC := h.NewClass("Main", nil)
	mainM := mainC.NewMethod("main", lang.Void, nil, lang.Static)

	x := lang.NewVar("x", o.Type())
	y := lang.NewVar("y", o.Type())
	tv := lang.NewVar("t", lang.Int)
	z := lang.NewVar("z", lang.Int)
	load := &lang.LoadField{L: z, Access: &lang.InstanceFieldAccess{Base: x, Field: f}}
	after := &lang.Return{}
	lang.NewIR(mainM, nil, nil, []lang.Stmt{
		&lang.New{L: x, T: o.Type()},
		&lang.Copy{L: y, R: x},
		&lang.Assign{L: tv, R: lang.IntLiteral{Value: 1}},
		&lang.StoreField{Access: &lang.InstanceFieldAccess{Base: y, Field: f}, R: tv},
		load,
		after,
	})
	prog, err := lang.NewProgram(h, mainM)
	if err != nil {
		t.Fatal(err)
	}

	res := analyze(t, prog)
	if got := res.InFact(after).Get(z); !got.IsConstant() || got.Constant() != 1 {
		t.Errorf("z = %s, want CONST(1) through the alias", got)
	}
}

func TestStaticFieldConstant(t *testing.T) {
	h := lang.NewHierarchy()
	c := h.NewClass("C", nil)
	f := h.FieldRef(c, "g", lang.Int, true)
	mainC := h.NewClass("Main", nil)
	mainM := mainC.NewMethod("main", lang.Void, nil, lang.Static)

	tv := lang.NewVar("t", lang.Int)
	z := lang.NewVar("z", lang.Int)
	after := &lang.Return{}
	lang.NewIR(mainM, nil, nil, []lang.Stmt{
		&lang.Assign{L: tv, R: lang.IntLiteral{Value: 7}},
		&lang.StoreField{Access: &lang.StaticFieldAccess{Field: f}, R: tv},
		&lang.LoadField{L: z, Access: &lang.StaticFieldAccess{Field: f}},
		after,
	})
	prog, err := lang.NewProgram(h, mainM)
	if err != nil {
		t.Fatal(err)
	}

	res := analyze(t, prog)
	if got := res.InFact(after).Get(z); !got.IsConstant() || got.Constant() != 7 {
		t.Errorf("z = %s, want 7", got)
	}
}

func TestArrayConstantIndex(t *testing.T) {
	h := lang.NewHierarchy()
	mainC := h.NewClass("Main", nil)
	mainM := mainC.NewMethod("main", lang.Void, nil, lang.Static)
	arrT := lang.ArrayType{Elem: lang.Int}

	arr := lang.NewVar("arr", arrT)
	i := lang.NewVar("i", lang.Int)
	tv := lang.NewVar("t", lang.Int)
	z := lang.NewVar("z", lang.Int)
	after := &lang.Return{}
	lang.NewIR(mainM, nil, nil, []lang.Stmt{
		&lang.New{L: arr, T: arrT},
		&lang.Assign{L: i, R: lang.IntLiteral{Value: 0}},
		&lang.Assign{L: tv, R: lang.IntLiteral{Value: 5}},
		&lang.StoreArray{Access: &lang.ArrayAccess{Base: arr, Index: i}, R: tv},
		&lang.LoadArray{L: z, Access: &lang.ArrayAccess{Base: arr, Index: i}},
		after,
	})
	prog, err := lang.NewProgram(h, mainM)
	if err != nil {
		t.Fatal(err)
	}

	res := analyze(t, prog)
	if got := res.InFact(after).Get(z); !got.IsConstant() || got.Constant() != 5 {
		t.Errorf("z = %s, want 5", got)
	}
}

func TestArrayUnknownIndexStoreAliasesConstantLoad(t *testing.T) {
	// arr[p] = 9 with p unknown, then z = arr[0]: the NAC-keyed slot must
	// flow into the constant-indexed read.
	h := lang.NewHierarchy()
	mainC := h.NewClass("Main", nil)
	mainM := mainC.NewMethod("main", lang.Int, []lang.Type{lang.Int}, lang.Static)
	arrT := lang.ArrayType{Elem: lang.Int}

	p := lang.NewVar("p", lang.Int)
	arr := lang.NewVar("arr", arrT)
	i := lang.NewVar("i", lang.Int)
	tv := lang.NewVar("t", lang.Int)
	z := lang.NewVar("z", lang.Int)
	after := &lang.Return{V: z}
	lang.NewIR(mainM, nil, []*lang.Var{p}, []lang.Stmt{
		&lang.New{L: arr, T: arrT},
		&lang.Assign{L: i, R: lang.IntLiteral{Value: 0}},
		&lang.Assign{L: tv, R: lang.IntLiteral{Value: 9}},
		&lang.StoreArray{Access: &lang.ArrayAccess{Base: arr, Index: p}, R: tv},
		&lang.LoadArray{L: z, Access: &lang.ArrayAccess{Base: arr, Index: i}},
		after,
	})
	prog, err := lang.NewProgram(h, mainM)
	if err != nil {
		t.Fatal(err)
	}

	res := analyze(t, prog)
	if got := res.InFact(after).Get(z); !got.IsConstant() || got.Constant() != 9 {
		t.Errorf("z = %s, want 9 via the unknown-index slot", got)
	}
}

func TestCallSiteLHSKilledOnCallToReturn(t *testing.T) {
	// r is set before the call and redefined by it; the value flowing
	// around the call must come from the return edge, not the old binding.
	h := lang.NewHierarchy()
	util := h.NewClass("Util", nil)
	sig := lang.MakeSubsignature("two", lang.Int, nil)
	two := util.NewMethod("two", lang.Int, nil, lang.Static)
	q := lang.NewVar("q", lang.Int)
	lang.NewIR(two, nil, nil, []lang.Stmt{
		&lang.Assign{L: q, R: lang.IntLiteral{Value: 2}},
		&lang.Return{V: q},
	})

	mainC := h.NewClass("Main", nil)
	mainM := mainC.NewMethod("main", lang.Void, nil, lang.Static)
	r := lang.NewVar("r", lang.Int)
	call := &lang.Invoke{L: r, Call: &lang.InvokeExp{
		Kind: lang.CallStatic,
		Ref:  lang.MethodRef{Class: util, Subsig: sig},
	}}
	after := &lang.Return{}
	lang.NewIR(mainM, nil, nil, []lang.Stmt{
		&lang.Assign{L: r, R: lang.IntLiteral{Value: 1}},
		call,
		after,
	})
	prog, err := lang.NewProgram(h, mainM)
	if err != nil {
		t.Fatal(err)
	}

	res := analyze(t, prog)
	if got := res.InFact(after).Get(r); !got.IsConstant() || got.Constant() != 2 {
		t.Errorf("r = %s, want 2 from the callee", got)
	}
}
