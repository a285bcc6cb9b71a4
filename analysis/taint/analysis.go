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
	"fmt"

	"github.com/quartzlab/quartz/analysis/config"
	"github.com/quartzlab/quartz/analysis/lang"
	"github.com/quartzlab/quartz/analysis/pta"
	"github.com/quartzlab/quartz/analysis/pta/cs"
	"golang.org/x/exp/slices"
)

// A Flow is a detected source-to-sink taint flow: data produced by the
// source call reaches the given argument of the sink call.
type Flow struct {
	Source *lang.Invoke
	Sink   *lang.Invoke
	Index  int
}

func (f Flow) String() string {
	return fmt.Sprintf("TaintFlow{%s/%d -> %s/%d arg %d}",
		f.Source.Method(), f.Source.Index(), f.Sink.Method(), f.Sink.Index(), f.Index)
}

// Analysis interposes on the context-sensitive solver's events to track
// taint: sources synthesize taint objects, transfer rules rematerialize
// them across calls, and sinks are checked once the fixed point is reached.
// Taint objects live in the empty heap context.
type Analysis struct {
	cfg      *Config
	manager  *Manager
	solver   *cs.Solver
	elems    *cs.Manager
	emptyCtx *cs.Context

	callsByVar map[*cs.CSVar][]recordedCall
	flows      []Flow
}

// recordedCall remembers a discovered call edge so its transfer rules can
// re-fire when taint reaches its receiver or arguments later.
type recordedCall struct {
	site   *cs.CSCallSite
	callee *lang.Method
	base   *cs.CSVar
}

// New returns a taint analysis riding on the given solver. Install it with
// solver.SetPlugin before solving.
func New(cfg *Config, solver *cs.Solver) *Analysis {
	return &Analysis{
		cfg:        cfg,
		manager:    NewManager(),
		solver:     solver,
		elems:      solver.Manager(),
		emptyCtx:   solver.Selector().EmptyContext(),
		callsByVar: make(map[*cs.CSVar][]recordedCall),
	}
}

// OnNewCallEdge implements cs.Plugin: processes source rules and runs the
// callee's transfer rules for the first time.
func (a *Analysis) OnNewCallEdge(site *cs.CSCallSite, callee *cs.CSMethod, base *cs.CSVar) {
	m := callee.Method()
	a.processSource(site, m)

	rc := recordedCall{site: site, callee: m, base: base}
	if len(a.cfg.TransfersOf(m)) > 0 {
		if base != nil {
			a.callsByVar[base] = append(a.callsByVar[base], rc)
		}
		for _, arg := range site.Site().Call.Args {
			av := a.elems.CSVar(site.Context(), arg)
			a.callsByVar[av] = append(a.callsByVar[av], rc)
		}
	}
	a.transferTaint(rc)
}

// OnNewPointsTo implements cs.Plugin: re-runs the transfer rules of every
// recorded call whose receiver or argument just grew.
func (a *Analysis) OnNewPointsTo(v *cs.CSVar, _ *cs.PointsToSet) {
	for _, rc := range a.callsByVar[v] {
		a.transferTaint(rc)
	}
}

// processSource synthesizes a taint object when the callee matches a source
// rule, and enqueues it at the call's result variable in the caller's
// context.
func (a *Analysis) processSource(site *cs.CSCallSite, callee *lang.Method) {
	lhs := site.Site().L
	if lhs == nil || !a.cfg.IsSource(callee, callee.ReturnType()) {
		return
	}
	obj := a.manager.MakeTaint(site.Site(), callee.ReturnType())
	a.solver.AddWork(
		a.elems.CSVar(site.Context(), lhs),
		cs.NewPointsToSet(a.elems.CSObj(a.emptyCtx, obj)))
}

// transferTaint applies the configured transfer rules of one call edge:
// base-to-result, argument-to-base and argument-to-result.
func (a *Analysis) transferTaint(rc recordedCall) {
	site := rc.site.Site()
	ctx := rc.site.Context()

	if rc.base != nil && site.L != nil {
		rule := Transfer{Method: rc.callee, From: TransferBase, To: TransferResult, Type: rc.callee.ReturnType()}
		if a.cfg.HasTransfer(rule) {
			a.spread(rc.base, a.elems.CSVar(ctx, site.L), rule.Type)
		}
	}
	for i, arg := range site.Call.Args {
		av := a.elems.CSVar(ctx, arg)
		if rc.base != nil {
			rule := Transfer{Method: rc.callee, From: i, To: TransferBase, Type: rc.base.Var().Type()}
			if a.cfg.HasTransfer(rule) {
				a.spread(av, rc.base, rule.Type)
			}
		}
		if site.L != nil {
			rule := Transfer{Method: rc.callee, From: i, To: TransferResult, Type: rc.callee.ReturnType()}
			if a.cfg.HasTransfer(rule) {
				a.spread(av, a.elems.CSVar(ctx, site.L), rule.Type)
			}
		}
	}
}

// spread rematerializes every taint object pointed to by from at the target
// type and enqueues it at to. The rematerialized object keeps the original
// source call.
func (a *Analysis) spread(from, to *cs.CSVar, toType lang.Type) {
	from.PointsToSet().ForEach(func(csObj *cs.CSObj) {
		if !a.manager.IsTaint(csObj.Obj()) {
			return
		}
		source := a.manager.SourceCall(csObj.Obj())
		obj := a.manager.MakeTaint(source, toType)
		a.solver.AddWork(to, cs.NewPointsToSet(a.elems.CSObj(a.emptyCtx, obj)))
	})
}

// OnFinish implements cs.Plugin: walks the reachable call edges and
// collects every taint object reaching a configured sink argument.
func (a *Analysis) OnFinish(r *cs.Result) {
	seen := make(map[Flow]bool)
	for _, csMethod := range r.CallGraph().ReachableMethods() {
		callee := csMethod.Method()
		for _, caller := range r.CallGraph().CallersOf(csMethod) {
			site := caller.Site()
			for i := 0; i < callee.ParamCount(); i++ {
				if !a.cfg.IsSink(callee, i) {
					continue
				}
				for _, obj := range r.PointsToVar(site.Call.Args[i]) {
					if !a.manager.IsTaint(obj) {
						continue
					}
					flow := Flow{Source: a.manager.SourceCall(obj), Sink: site, Index: i}
					if !seen[flow] {
						seen[flow] = true
						a.flows = append(a.flows, flow)
					}
				}
			}
		}
	}
	sortFlows(a.flows)
}

// Flows returns the detected flows, sorted deterministically.
func (a *Analysis) Flows() []Flow { return a.flows }

func sortFlows(flows []Flow) {
	key := func(s *lang.Invoke) string {
		if s.Method() != nil {
			return s.Method().String()
		}
		return ""
	}
	slices.SortFunc(flows, func(x, y Flow) bool {
		if k1, k2 := key(x.Source), key(y.Source); k1 != k2 {
			return k1 < k2
		}
		if x.Source.Index() != y.Source.Index() {
			return x.Source.Index() < y.Source.Index()
		}
		if k1, k2 := key(x.Sink), key(y.Sink); k1 != k2 {
			return k1 < k2
		}
		if x.Sink.Index() != y.Sink.Index() {
			return x.Sink.Index() < y.Sink.Index()
		}
		return x.Index < y.Index
	})
}

// Analyze is the one-call entry point: it runs the context-sensitive
// pointer analysis with the taint layer installed and returns the detected
// flows together with the pointer analysis result.
func Analyze(prog *lang.Program, cfg *Config, selector cs.Selector, lg *config.LogGroup) ([]Flow, *cs.Result) {
	solver := cs.NewSolver(prog, pta.NewAllocSiteModel(), selector, lg)
	analysis := New(cfg, solver)
	solver.SetPlugin(analysis)
	result := solver.Solve()
	lg.Infof("taint: %d flows detected", len(analysis.Flows()))
	return analysis.Flows(), result
}
