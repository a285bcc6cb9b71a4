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

package callgraph

import (
	"io"
	"testing"

	"github.com/quartzlab/quartz/analysis/config"
	"github.com/quartzlab/quartz/analysis/lang"
)

func quietLog() *config.LogGroup {
	lg := config.NewLogGroup(&config.Config{Options: config.Options{LogLevel: int(config.ErrLevel)}})
	lg.SetAllOutput(io.Discard)
	return lg
}

func emptyBody(m *lang.Method) {
	var this *lang.Var
	if !m.IsStatic() {
		this = lang.NewVar("this", m.Class().Type())
	}
	lang.NewIR(m, this, nil, []lang.Stmt{&lang.Return{}})
}

// hierarchy of the classic virtual-dispatch scenario:
// A with m(), B extends A with m(), C extends A with m()
func virtualHierarchy(t *testing.T) (*lang.Program, *lang.Invoke, map[string]*lang.Method) {
	t.Helper()
	h := lang.NewHierarchy()
	a := h.NewClass("A", nil)
	b := h.NewClass("B", a)
	c := h.NewClass("C", a)

	sig := lang.MakeSubsignature("m", lang.Void, nil)
	methods := map[string]*lang.Method{}
	for name, cls := range map[string]*lang.Class{"A": a, "B": b, "C": c} {
		m := cls.NewMethod("m", lang.Void, nil)
		emptyBody(m)
		methods[name] = m
	}

	mainC := h.NewClass("Main", nil)
	mainM := mainC.NewMethod("main", lang.Void, nil, lang.Static)
	recv := lang.NewVar("recv", a.Type())
	alloc := &lang.New{L: recv, T: a.Type()}
	call := &lang.Invoke{Call: &lang.InvokeExp{
		Kind: lang.CallVirtual,
		Ref:  lang.MethodRef{Class: a, Subsig: sig},
		Base: recv,
	}}
	lang.NewIR(mainM, nil, nil, []lang.Stmt{alloc, call, &lang.Return{}})

	prog, err := lang.NewProgram(h, mainM)
	if err != nil {
		t.Fatal(err)
	}
	return prog, call, methods
}

func TestResolveVirtualCoversSubclasses(t *testing.T) {
	prog, call, methods := virtualHierarchy(t)
	targets := ResolveCHA(prog.Hierarchy(), call)

	want := []*lang.Method{methods["A"], methods["B"], methods["C"]}
	if len(targets) != len(want) {
		t.Fatalf("resolved %d targets %v, want 3", len(targets), targets)
	}
	for _, m := range want {
		found := false
		for _, got := range targets {
			if got == m {
				found = true
			}
		}
		if !found {
			t.Errorf("target %s missing from %v", m, targets)
		}
	}
}

func TestBuildCHAReachability(t *testing.T) {
	prog, call, methods := virtualHierarchy(t)
	g := BuildCHA(prog, quietLog())

	for _, m := range methods {
		if !g.Contains(m) {
			t.Errorf("method %s should be reachable", m)
		}
	}
	if got := g.CalleesOf(call); len(got) != 3 {
		t.Errorf("call should have 3 callees, got %v", got)
	}
}

func TestDispatchSkipsAbstract(t *testing.T) {
	h := lang.NewHierarchy()
	a := h.NewClass("A", nil)
	b := h.NewClass("B", a)

	sig := lang.MakeSubsignature("m", lang.Void, nil)
	a.NewMethod("m", lang.Void, nil, lang.Abstract)
	concrete := b.NewMethod("m", lang.Void, nil)

	if got := Dispatch(a, sig); got != nil {
		t.Errorf("dispatch on A = %s, want nil (only abstract declaration)", got)
	}
	if got := Dispatch(b, sig); got != concrete {
		t.Errorf("dispatch on B = %v, want %s", got, concrete)
	}
}

func TestDispatchFollowsSuperclassChain(t *testing.T) {
	h := lang.NewHierarchy()
	a := h.NewClass("A", nil)
	b := h.NewClass("B", a)

	sig := lang.MakeSubsignature("m", lang.Int, []lang.Type{lang.Int})
	inherited := a.NewMethod("m", lang.Int, []lang.Type{lang.Int})

	if got := Dispatch(b, sig); got != inherited {
		t.Errorf("dispatch on B = %v, want inherited %s", got, inherited)
	}
}

func TestResolveInterfaceCall(t *testing.T) {
	h := lang.NewHierarchy()
	itf := h.NewInterface("I")
	impl := h.NewClass("Impl", nil, itf)

	sig := lang.MakeSubsignature("f", lang.Void, nil)
	itf.NewMethod("f", lang.Void, nil, lang.Abstract)
	target := impl.NewMethod("f", lang.Void, nil)
	emptyBody(target)

	recv := lang.NewVar("recv", itf.Type())
	call := &lang.Invoke{Call: &lang.InvokeExp{
		Kind: lang.CallInterface,
		Ref:  lang.MethodRef{Class: itf, Subsig: sig},
		Base: recv,
	}}
	targets := ResolveCHA(h, call)
	if len(targets) != 1 || targets[0] != target {
		t.Errorf("interface call resolved to %v, want [%s]", targets, target)
	}
}

func TestStaticCallSingleTarget(t *testing.T) {
	h := lang.NewHierarchy()
	util := h.NewClass("Util", nil)
	sig := lang.MakeSubsignature("id", lang.Int, []lang.Type{lang.Int})
	target := util.NewMethod("id", lang.Int, []lang.Type{lang.Int})

	call := &lang.Invoke{Call: &lang.InvokeExp{
		Kind: lang.CallStatic,
		Ref:  lang.MethodRef{Class: util, Subsig: sig},
	}}
	targets := ResolveCHA(h, call)
	if len(targets) != 1 || targets[0] != target {
		t.Errorf("static call resolved to %v, want [%s]", targets, target)
	}
}
