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

package taint

import (
	"io"
	"testing"

	"github.com/quartzlab/quartz/analysis/config"
	"github.com/quartzlab/quartz/analysis/lang"
	"github.com/quartzlab/quartz/analysis/pta/cs"
)

func quietLog() *config.LogGroup {
	lg := config.NewLogGroup(&config.Config{Options: config.Options{LogLevel: int(config.ErrLevel)}})
	lg.SetAllOutput(io.Discard)
	return lg
}

// taintWorld declares
//
//	class Data
//	class IO { static Data source(); static void sink(Data); static Data concat(Data, Data) }
//
// and returns the pieces tests assemble main methods from.
type taintWorld struct {
	h      *lang.Hierarchy
	data   *lang.Class
	io     *lang.Class
	source *lang.Method
	sink   *lang.Method
	concat *lang.Method
}

func newTaintWorld(t *testing.T) *taintWorld {
	t.Helper()
	h := lang.NewHierarchy()
	data := h.NewClass("Data", nil)
	ioc := h.NewClass("IO", nil)

	source := ioc.NewMethod("source", data.Type(), nil, lang.Static)
	// the source returns a fresh Data so the analysis has a concrete callee
	ret := lang.NewVar("fresh", data.Type())
	lang.NewIR(source, nil, nil, []lang.Stmt{
		&lang.New{L: ret, T: data.Type()},
		&lang.Return{V: ret},
	})

	sink := ioc.NewMethod("sink", lang.Void, []lang.Type{data.Type()}, lang.Static)
	sp := lang.NewVar("sp", data.Type())
	lang.NewIR(sink, nil, []*lang.Var{sp}, []lang.Stmt{&lang.Return{}})

	concat := ioc.NewMethod("concat", data.Type(), []lang.Type{data.Type(), data.Type()}, lang.Static)
	ca := lang.NewVar("ca", data.Type())
	cb := lang.NewVar("cb", data.Type())
	fresh := lang.NewVar("out", data.Type())
	lang.NewIR(concat, nil, []*lang.Var{ca, cb}, []lang.Stmt{
		&lang.New{L: fresh, T: data.Type()},
		&lang.Return{V: fresh},
	})

	return &taintWorld{h: h, data: data, io: ioc, source: source, sink: sink, concat: concat}
}

func (w *taintWorld) rules(transfers ...Transfer) *Config {
	return NewConfig(
		[]Source{{Method: w.source, Type: w.data.Type()}},
		[]Sink{{Method: w.sink, Index: 0}},
		transfers,
	)
}

func (w *taintWorld) call(m *lang.Method, result *lang.Var, args ...*lang.Var) *lang.Invoke {
	return &lang.Invoke{L: result, Call: &lang.InvokeExp{
		Kind: lang.CallStatic,
		Ref:  lang.MethodRef{Class: m.Class(), Subsig: m.Subsignature()},
		Args: args,
	}}
}

func TestDirectSourceToSinkFlow(t *testing.T) {
	w := newTaintWorld(t)
	mainC := w.h.NewClass("Main", nil)
	mainM := mainC.NewMethod("main", lang.Void, nil, lang.Static)

	s := lang.NewVar("s", w.data.Type())
	tv := lang.NewVar("t", w.data.Type())
	srcCall := w.call(w.source, s)
	sinkCall := w.call(w.sink, nil, tv)
	lang.NewIR(mainM, nil, nil, []lang.Stmt{
		srcCall,
		&lang.Copy{L: tv, R: s},
		sinkCall,
		&lang.Return{},
	})
	prog, err := lang.NewProgram(w.h, mainM)
	if err != nil {
		t.Fatal(err)
	}

	flows, _ := Analyze(prog, w.rules(), cs.NewInsensitiveSelector(), quietLog())
	if len(flows) != 1 {
		t.Fatalf("got %d flows %v, want exactly 1", len(flows), flows)
	}
	f := flows[0]
	if f.Source != srcCall || f.Sink != sinkCall || f.Index != 0 {
		t.Errorf("flow = %v, want source call -> sink call arg 0", f)
	}
}

func TestNoFlowWithoutSource(t *testing.T) {
	w := newTaintWorld(t)
	mainC := w.h.NewClass("Main", nil)
	mainM := mainC.NewMethod("main", lang.Void, nil, lang.Static)

	d := lang.NewVar("d", w.data.Type())
	lang.NewIR(mainM, nil, nil, []lang.Stmt{
		&lang.New{L: d, T: w.data.Type()},
		w.call(w.sink, nil, d),
		&lang.Return{},
	})
	prog, err := lang.NewProgram(w.h, mainM)
	if err != nil {
		t.Fatal(err)
	}

	flows, _ := Analyze(prog, w.rules(), cs.NewInsensitiveSelector(), quietLog())
	if len(flows) != 0 {
		t.Errorf("untainted data reached the sink: %v", flows)
	}
}

func TestArgToResultTransfer(t *testing.T) {
	w := newTaintWorld(t)
	mainC := w.h.NewClass("Main", nil)
	mainM := mainC.NewMethod("main", lang.Void, nil, lang.Static)

	s := lang.NewVar("s", w.data.Type())
	clean := lang.NewVar("clean", w.data.Type())
	joined := lang.NewVar("joined", w.data.Type())
	srcCall := w.call(w.source, s)
	sinkCall := w.call(w.sink, nil, joined)
	lang.NewIR(mainM, nil, nil, []lang.Stmt{
		srcCall,
		&lang.New{L: clean, T: w.data.Type()},
		w.call(w.concat, joined, s, clean),
		sinkCall,
		&lang.Return{},
	})
	prog, err := lang.NewProgram(w.h, mainM)
	if err != nil {
		t.Fatal(err)
	}

	// without the transfer rule concat launders the taint
	flows, _ := Analyze(prog, w.rules(), cs.NewInsensitiveSelector(), quietLog())
	if len(flows) != 0 {
		t.Fatalf("no transfer configured, got flows %v", flows)
	}

	rule := Transfer{Method: w.concat, From: 0, To: TransferResult, Type: w.data.Type()}
	flows, _ = Analyze(prog, w.rules(rule), cs.NewInsensitiveSelector(), quietLog())
	if len(flows) != 1 || flows[0].Source != srcCall || flows[0].Sink != sinkCall {
		t.Errorf("flows = %v, want one flow through concat", flows)
	}
}

func TestTaintObjectsAreInterned(t *testing.T) {
	m := NewManager()
	site := &lang.Invoke{Call: &lang.InvokeExp{Kind: lang.CallStatic}}
	o1 := m.MakeTaint(site, lang.Int)
	o2 := m.MakeTaint(site, lang.Int)
	if o1 != o2 {
		t.Error("same (site, type) must rematerialize the same object")
	}
	if !m.IsTaint(o1) || m.SourceCall(o1) != site {
		t.Error("registry lost the taint object")
	}
	if o3 := m.MakeTaint(site, lang.Long); o3 == o1 {
		t.Error("different type must synthesize a different object")
	}
}
