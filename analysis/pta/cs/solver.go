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
	"github.com/quartzlab/quartz/analysis/callgraph"
	"github.com/quartzlab/quartz/analysis/config"
	"github.com/quartzlab/quartz/analysis/lang"
	"github.com/quartzlab/quartz/analysis/pta"
)

// A Plugin observes pointer analysis events. The taint layer rides on these
// hooks; a nil plugin costs nothing.
type Plugin interface {
	// OnNewCallEdge fires when a call edge is added to the call graph.
	// base is the context-qualified receiver, nil for static calls.
	OnNewCallEdge(site *CSCallSite, callee *CSMethod, base *CSVar)

	// OnNewPointsTo fires when the points-to set of a variable grows by
	// delta.
	OnNewPointsTo(v *CSVar, delta *PointsToSet)

	// OnFinish fires once after the fixed point is reached.
	OnFinish(r *Result)
}

// Solver is the context-sensitive inclusion-based pointer analysis. The
// propagation is the same as the context-insensitive solver's; every
// pointer and method is additionally qualified by a context picked by the
// Selector.
type Solver struct {
	prog     *lang.Program
	heap     pta.HeapModel
	selector Selector
	plugin   Plugin
	lg       *config.LogGroup

	manager   *Manager
	pfg       *PointerFlowGraph
	callGraph *callgraph.Graph[*CSCallSite, *CSMethod]
	worklist  []workEntry
	result    *Result
}

type workEntry struct {
	ptr Pointer
	pts *PointsToSet
}

// NewSolver returns a solver over prog with the given heap model and
// context selector.
func NewSolver(prog *lang.Program, heap pta.HeapModel, selector Selector, lg *config.LogGroup) *Solver {
	return &Solver{
		prog:      prog,
		heap:      heap,
		selector:  selector,
		lg:        lg,
		manager:   NewManager(),
		pfg:       NewPointerFlowGraph(),
		callGraph: callgraph.NewGraph[*CSCallSite, *CSMethod](),
	}
}

// SetPlugin installs the event observer. It must be called before Solve.
func (s *Solver) SetPlugin(p Plugin) { s.plugin = p }

// Manager returns the element manager, shared with plugins.
func (s *Solver) Manager() *Manager { return s.manager }

// Selector returns the context selector of this run.
func (s *Solver) Selector() Selector { return s.selector }

// Solve runs the analysis to its fixed point and returns the result.
func (s *Solver) Solve() *Result {
	s.initialize()
	s.analyze()
	s.lg.Infof("cs-pta: %d reachable cs-methods, %d call edges",
		len(s.callGraph.ReachableMethods()), len(s.callGraph.Edges()))
	res := s.Result()
	if s.plugin != nil {
		s.plugin.OnFinish(res)
	}
	return res
}

// Result returns the (live) result view over the solver state.
func (s *Solver) Result() *Result {
	if s.result == nil {
		s.result = &Result{manager: s.manager, callGraph: s.callGraph}
	}
	return s.result
}

func (s *Solver) initialize() {
	main := s.prog.MainMethod()
	csMain := s.manager.CSMethod(s.selector.EmptyContext(), main)
	s.callGraph.AddEntry(csMain)
	s.addReachable(csMain)
}

// addReachable marks a context-qualified method reachable and processes its
// statements exactly once per (context, method) pair.
func (s *Solver) addReachable(csm *CSMethod) {
	if !s.callGraph.AddReachable(csm) {
		return
	}
	s.lg.Debugf("cs-pta: method %s reachable", csm)
	ctx := csm.Context()
	for _, stmt := range csm.Method().IR().Stmts() {
		s.processStmt(csm, ctx, stmt)
	}
}

func (s *Solver) processStmt(csm *CSMethod, ctx *Context, stmt lang.Stmt) {
	switch stmt := stmt.(type) {
	case *lang.New:
		obj := s.heap.ObjOf(stmt)
		heapCtx := s.selector.SelectHeapContext(csm, obj)
		csObj := s.manager.CSObj(heapCtx, obj)
		s.AddWork(s.manager.CSVar(ctx, stmt.L), NewPointsToSet(csObj))
	case *lang.Copy:
		s.addPFGEdge(s.manager.CSVar(ctx, stmt.R), s.manager.CSVar(ctx, stmt.L))
	case *lang.LoadField:
		if stmt.IsStatic() {
			s.addPFGEdge(s.manager.StaticField(stmt.FieldRef()), s.manager.CSVar(ctx, stmt.L))
		}
	case *lang.StoreField:
		if stmt.IsStatic() {
			s.addPFGEdge(s.manager.CSVar(ctx, stmt.R), s.manager.StaticField(stmt.FieldRef()))
		}
	case *lang.Invoke:
		if stmt.IsStatic() {
			callee := callgraph.ResolveCallee(nil, stmt)
			if callee == nil || callee.IR() == nil {
				return
			}
			csSite := s.manager.CSCallSite(ctx, stmt)
			calleeCtx := s.selector.SelectStaticContext(csSite, callee)
			s.addCallEdge(csSite, s.manager.CSMethod(calleeCtx, callee), nil)
		}
	}
}

// addCallEdge records a resolved call edge and, if it is new, links
// arguments to parameters and return variables to the call result, then
// notifies the plugin.
func (s *Solver) addCallEdge(site *CSCallSite, callee *CSMethod, base *CSVar) {
	edge := callgraph.Edge[*CSCallSite, *CSMethod]{Kind: site.Site().Kind(), Site: site, Callee: callee}
	if !s.callGraph.AddEdge(edge) {
		return
	}
	s.addReachable(callee)

	invoke := site.Site()
	m := callee.Method()
	ir := m.IR()
	for i := 0; i < m.ParamCount(); i++ {
		s.addPFGEdge(
			s.manager.CSVar(site.Context(), invoke.Call.Args[i]),
			s.manager.CSVar(callee.Context(), ir.Param(i)))
	}
	if invoke.L != nil {
		for _, ret := range ir.ReturnVars() {
			s.addPFGEdge(
				s.manager.CSVar(callee.Context(), ret),
				s.manager.CSVar(site.Context(), invoke.L))
		}
	}
	if s.plugin != nil {
		s.plugin.OnNewCallEdge(site, callee, base)
	}
}

func (s *Solver) addPFGEdge(src, tgt Pointer) {
	if !s.pfg.AddEdge(src, tgt) {
		return
	}
	if !src.PointsToSet().IsEmpty() {
		s.AddWork(tgt, src.PointsToSet())
	}
}

// AddWork enqueues a (pointer, points-to set) pair. Plugins use it to
// inject synthesized objects.
func (s *Solver) AddWork(p Pointer, pts *PointsToSet) {
	s.worklist = append(s.worklist, workEntry{ptr: p, pts: pts})
}

func (s *Solver) analyze() {
	for len(s.worklist) > 0 {
		item := s.worklist[0]
		s.worklist = s.worklist[1:]
		delta := s.propagate(item.ptr, item.pts)
		if delta.IsEmpty() {
			continue
		}

		csVar, ok := item.ptr.(*CSVar)
		if !ok {
			continue
		}
		ctx := csVar.Context()
		v := csVar.Var()
		delta.ForEach(func(obj *CSObj) {
			for _, st := range v.StoreFields() {
				s.addPFGEdge(s.manager.CSVar(ctx, st.R), s.manager.InstanceField(obj, st.FieldRef()))
			}
			for _, ld := range v.LoadFields() {
				s.addPFGEdge(s.manager.InstanceField(obj, ld.FieldRef()), s.manager.CSVar(ctx, ld.L))
			}
			for _, st := range v.StoreArrays() {
				s.addPFGEdge(s.manager.CSVar(ctx, st.R), s.manager.ArrayIndex(obj))
			}
			for _, ld := range v.LoadArrays() {
				s.addPFGEdge(s.manager.ArrayIndex(obj), s.manager.CSVar(ctx, ld.L))
			}
			s.processCall(csVar, obj)
		})
		if s.plugin != nil {
			s.plugin.OnNewPointsTo(csVar, delta)
		}
	}
}

// propagate merges pts into pt(p) and forwards the growth to p's PFG
// successors, returning the difference set.
func (s *Solver) propagate(p Pointer, pts *PointsToSet) *PointsToSet {
	delta := NewPointsToSet()
	own := p.PointsToSet()
	pts.ForEach(func(o *CSObj) {
		if !own.Contains(o) {
			delta.Add(o)
		}
	})
	if !delta.IsEmpty() {
		delta.ForEach(func(o *CSObj) { own.Add(o) })
		for _, succ := range s.pfg.SuccsOf(p) {
			s.AddWork(succ, delta)
		}
	}
	return delta
}

// processCall resolves the instance calls on recv against a newly
// discovered receiver object.
func (s *Solver) processCall(recv *CSVar, recvObj *CSObj) {
	for _, site := range recv.Var().Invokes() {
		callee := callgraph.ResolveCallee(recvObj.Obj().Type(), site)
		if callee == nil {
			continue
		}
		csSite := s.manager.CSCallSite(recv.Context(), site)
		calleeCtx := s.selector.SelectInstanceContext(csSite, recvObj, callee)
		csCallee := s.manager.CSMethod(calleeCtx, callee)

		s.AddWork(
			s.manager.CSVar(calleeCtx, callee.IR().This()),
			NewPointsToSet(recvObj))
		s.addCallEdge(csSite, csCallee, recv)
	}
}
