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

package cs

import (
	"io"
	"testing"

	"github.com/quartzlab/quartz/analysis/config"
	"github.com/quartzlab/quartz/analysis/lang"
	"github.com/quartzlab/quartz/analysis/pta"
)

func quietLog() *config.LogGroup {
	lg := config.NewLogGroup(&config.Config{Options: config.Options{LogLevel: int(config.ErrLevel)}})
	lg.SetAllOutput(io.Discard)
	return lg
}

// idProgram builds
//
//	o1 = new O; o2 = new O;
//	c1 = Util.id(o1); c2 = Util.id(o2);
//
// where Util.id is the static identity. Call-site sensitivity separates the
// two calls; the insensitive analysis conflates them.
func idProgram(t *testing.T) (prog *lang.Program, c1, c2 *lang.Var) {
	t.Helper()
	h := lang.NewHierarchy()
	o := h.NewClass("O", nil)
	util := h.NewClass("Util", nil)
	sig := lang.MakeSubsignature("id", o.Type(), []lang.Type{o.Type()})

	idM := util.NewMethod("id", o.Type(), []lang.Type{o.Type()}, lang.Static)
	p := lang.NewVar("p", o.Type())
	lang.NewIR(idM, nil, []*lang.Var{p}, []lang.Stmt{&lang.Return{V: p}})

	mainC := h.NewClass("Main", nil)
	mainM := mainC.NewMethod("main", lang.Void, nil, lang.Static)
	o1 := lang.NewVar("o1", o.Type())
	o2 := lang.NewVar("o2", o.Type())
	c1 = lang.NewVar("c1", o.Type())
	c2 = lang.NewVar("c2", o.Type())
	ref := lang.MethodRef{Class: util, Subsig: sig}
	lang.NewIR(mainM, nil, nil, []lang.Stmt{
		&lang.New{L: o1, T: o.Type()},
		&lang.New{L: o2, T: o.Type()},
		&lang.Invoke{L: c1, Call: &lang.InvokeExp{Kind: lang.CallStatic, Ref: ref, Args: []*lang.Var{o1}}},
		&lang.Invoke{L: c2, Call: &lang.InvokeExp{Kind: lang.CallStatic, Ref: ref, Args: []*lang.Var{o2}}},
		&lang.Return{},
	})

	var err error
	prog, err = lang.NewProgram(h, mainM)
	if err != nil {
		t.Fatal(err)
	}
	return prog, c1, c2
}

func TestInsensitiveConflatesCallSites(t *testing.T) {
	prog, c1, c2 := idProgram(t)
	solver := NewSolver(prog, pta.NewAllocSiteModel(), NewInsensitiveSelector(), quietLog())
	res := solver.Solve()

	if got := res.PointsToVar(c1); len(got) != 2 {
		t.Errorf("insensitive pt(c1) = %v, want both objects", got)
	}
	if got := res.PointsToVar(c2); len(got) != 2 {
		t.Errorf("insensitive pt(c2) = %v, want both objects", got)
	}
}

func TestOneCallSiteSeparatesCallSites(t *testing.T) {
	prog, c1, c2 := idProgram(t)
	solver := NewSolver(prog, pta.NewAllocSiteModel(), NewKCallSelector(1), quietLog())
	res := solver.Solve()

	p1, p2 := res.PointsToVar(c1), res.PointsToVar(c2)
	if len(p1) != 1 || len(p2) != 1 {
		t.Fatalf("1-call pt(c1)=%v pt(c2)=%v, want singletons", p1, p2)
	}
	if p1[0] == p2[0] {
		t.Errorf("1-call should separate the two identity calls")
	}
}

func TestOneObjectSeparatesReceivers(t *testing.T) {
	// box.set(v); box.get() with two boxes: object sensitivity keeps the
	// two boxes' fields apart.
	h := lang.NewHierarchy()
	v := h.NewClass("V", nil)
	box := h.NewClass("Box", nil)
	f := h.FieldRef(box, "item", v.Type(), false)

	setSig := lang.MakeSubsignature("set", lang.Void, []lang.Type{v.Type()})
	setM := box.NewMethod("set", lang.Void, []lang.Type{v.Type()})
	setThis := lang.NewVar("this", box.Type())
	setP := lang.NewVar("p", v.Type())
	lang.NewIR(setM, setThis, []*lang.Var{setP}, []lang.Stmt{
		&lang.StoreField{Access: &lang.InstanceFieldAccess{Base: setThis, Field: f}, R: setP},
		&lang.Return{},
	})

	getSig := lang.MakeSubsignature("get", v.Type(), nil)
	getM := box.NewMethod("get", v.Type(), nil)
	getThis := lang.NewVar("this", box.Type())
	getR := lang.NewVar("r", v.Type())
	lang.NewIR(getM, getThis, nil, []lang.Stmt{
		&lang.LoadField{L: getR, Access: &lang.InstanceFieldAccess{Base: getThis, Field: f}},
		&lang.Return{V: getR},
	})

	mainC := h.NewClass("Main", nil)
	mainM := mainC.NewMethod("main", lang.Void, nil, lang.Static)
	b1 := lang.NewVar("b1", box.Type())
	b2 := lang.NewVar("b2", box.Type())
	v1 := lang.NewVar("v1", v.Type())
	v2 := lang.NewVar("v2", v.Type())
	g1 := lang.NewVar("g1", v.Type())
	g2 := lang.NewVar("g2", v.Type())
	setRef := lang.MethodRef{Class: box, Subsig: setSig}
	getRef := lang.MethodRef{Class: box, Subsig: getSig}
	lang.NewIR(mainM, nil, nil, []lang.Stmt{
		&lang.New{L: b1, T: box.Type()},
		&lang.New{L: b2, T: box.Type()},
		&lang.New{L: v1, T: v.Type()},
		&lang.New{L: v2, T: v.Type()},
		&lang.Invoke{Call: &lang.InvokeExp{Kind: lang.CallVirtual, Ref: setRef, Base: b1, Args: []*lang.Var{v1}}},
		&lang.Invoke{Call: &lang.InvokeExp{Kind: lang.CallVirtual, Ref: setRef, Base: b2, Args: []*lang.Var{v2}}},
		&lang.Invoke{L: g1, Call: &lang.InvokeExp{Kind: lang.CallVirtual, Ref: getRef, Base: b1}},
		&lang.Invoke{L: g2, Call: &lang.InvokeExp{Kind: lang.CallVirtual, Ref: getRef, Base: b2}},
		&lang.Return{},
	})
	prog, err := lang.NewProgram(h, mainM)
	if err != nil {
		t.Fatal(err)
	}

	solver := NewSolver(prog, pta.NewAllocSiteModel(), NewKObjSelector(1), quietLog())
	res := solver.Solve()
	p1, p2 := res.PointsToVar(g1), res.PointsToVar(g2)
	if len(p1) != 1 || len(p2) != 1 || p1[0] == p2[0] {
		t.Errorf("1-obj pt(g1)=%v pt(g2)=%v, want distinct singletons", p1, p2)
	}
}

func TestContextInterning(t *testing.T) {
	root := NewEmptyContext()
	e1, e2 := &lang.Nop{}, &lang.Nop{}

	c1 := root.Append(e1, 2)
	c2 := root.Append(e1, 2)
	if c1 != c2 {
		t.Error("equal element sequences should intern to the same context")
	}
	c3 := c1.Append(e2, 2)
	if got := c3.Elems(); len(got) != 2 || got[0] != e1 || got[1] != e2 {
		t.Errorf("elems = %v, want [e1 e2]", got)
	}
	// k-limiting drops the oldest element
	c4 := c3.Append(e1, 2)
	if got := c4.Elems(); len(got) != 2 || got[0] != e2 || got[1] != e1 {
		t.Errorf("limited elems = %v, want [e2 e1]", got)
	}
	if c1.Limit(0) != root {
		t.Error("limiting to zero should yield the empty context")
	}
}

func TestSelectorFor(t *testing.T) {
	for policy, want := range map[string]any{
		"":        (*InsensitiveSelector)(nil),
		"ci":      (*InsensitiveSelector)(nil),
		"2-call":  (*KCallSelector)(nil),
		"1-obj":   (*KObjSelector)(nil),
		"2-type":  (*KTypeSelector)(nil),
	} {
		sel, err := SelectorFor(policy)
		if err != nil {
			t.Fatalf("SelectorFor(%q): %v", policy, err)
		}
		switch want.(type) {
		case *InsensitiveSelector:
			if _, ok := sel.(*InsensitiveSelector); !ok {
				t.Errorf("SelectorFor(%q) = %T", policy, sel)
			}
		case *KCallSelector:
			if _, ok := sel.(*KCallSelector); !ok {
				t.Errorf("SelectorFor(%q) = %T", policy, sel)
			}
		case *KObjSelector:
			if _, ok := sel.(*KObjSelector); !ok {
				t.Errorf("SelectorFor(%q) = %T", policy, sel)
			}
		case *KTypeSelector:
			if _, ok := sel.(*KTypeSelector); !ok {
				t.Errorf("SelectorFor(%q) = %T", policy, sel)
			}
		}
	}
	if _, err := SelectorFor("3-bogus"); err == nil {
		t.Error("unknown policy should be rejected")
	}
}
