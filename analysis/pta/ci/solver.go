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

package ci

import (
	"github.com/quartzlab/quartz/analysis/callgraph"
	"github.com/quartzlab/quartz/analysis/config"
	"github.com/quartzlab/quartz/analysis/lang"
	"github.com/quartzlab/quartz/analysis/pta"
)

// Solver is the context-insensitive inclusion-based pointer analysis. It
// owns the pointer flow graph, the worklist and the call graph; the call
// graph never points back into the solver.
type Solver struct {
	prog *lang.Program
	heap pta.HeapModel
	lg   *config.LogGroup

	pfg       *PointerFlowGraph
	callGraph *callgraph.Graph[*lang.Invoke, *lang.Method]
	worklist  []workEntry
}

type workEntry struct {
	ptr Pointer
	pts *PointsToSet
}

// Solve runs the analysis over the whole program.
func Solve(prog *lang.Program, heap pta.HeapModel, lg *config.LogGroup) *Result {
	s := &Solver{prog: prog, heap: heap, lg: lg}
	s.initialize()
	s.analyze()
	lg.Infof("ci-pta: %d reachable methods, %d call edges",
		len(s.callGraph.ReachableMethods()), len(s.callGraph.Edges()))
	return &Result{pfg: s.pfg, callGraph: s.callGraph}
}

func (s *Solver) initialize() {
	s.pfg = NewPointerFlowGraph()
	s.callGraph = callgraph.NewGraph[*lang.Invoke, *lang.Method]()
	main := s.prog.MainMethod()
	s.callGraph.AddEntry(main)
	s.addReachable(main)
}

// addReachable marks a method reachable and processes its statements. Each
// method's statements are processed exactly once.
func (s *Solver) addReachable(m *lang.Method) {
	if !s.callGraph.AddReachable(m) {
		return
	}
	s.lg.Debugf("ci-pta: method %s reachable", m)
	for _, stmt := range m.IR().Stmts() {
		s.processStmt(stmt)
	}
}

// processStmt seeds the PFG from the statements of a newly reachable
// method. Instance field and array accesses and virtual calls are deferred:
// they fire during propagation, when the receiver's points-to set grows.
func (s *Solver) processStmt(stmt lang.Stmt) {
	switch stmt := stmt.(type) {
	case *lang.New:
		obj := s.heap.ObjOf(stmt)
		s.addWork(s.pfg.VarPtr(stmt.L), NewPointsToSet(obj))
	case *lang.Copy:
		s.addPFGEdge(s.pfg.VarPtr(stmt.R), s.pfg.VarPtr(stmt.L))
	case *lang.LoadField:
		if stmt.IsStatic() {
			s.addPFGEdge(s.pfg.StaticField(stmt.FieldRef()), s.pfg.VarPtr(stmt.L))
		}
	case *lang.StoreField:
		if stmt.IsStatic() {
			s.addPFGEdge(s.pfg.VarPtr(stmt.R), s.pfg.StaticField(stmt.FieldRef()))
		}
	case *lang.Invoke:
		if stmt.IsStatic() {
			callee := callgraph.ResolveCallee(nil, stmt)
			if callee == nil || callee.IR() == nil {
				return
			}
			s.addCallEdge(stmt, callee)
		}
	}
}

// addCallEdge records a resolved call edge and, if it is new, links
// arguments to parameters and return variables to the call result.
func (s *Solver) addCallEdge(site *lang.Invoke, callee *lang.Method) {
	edge := callgraph.Edge[*lang.Invoke, *lang.Method]{Kind: site.Kind(), Site: site, Callee: callee}
	if !s.callGraph.AddEdge(edge) {
		return
	}
	s.addReachable(callee)
	ir := callee.IR()
	for i := 0; i < callee.ParamCount(); i++ {
		s.addPFGEdge(s.pfg.VarPtr(site.Call.Args[i]), s.pfg.VarPtr(ir.Param(i)))
	}
	if site.L != nil {
		for _, ret := range ir.ReturnVars() {
			s.addPFGEdge(s.pfg.VarPtr(ret), s.pfg.VarPtr(site.L))
		}
	}
}

// addPFGEdge inserts a flow edge; if the source already points somewhere,
// the target inherits that set via the worklist.
func (s *Solver) addPFGEdge(src, tgt Pointer) {
	if !s.pfg.AddEdge(src, tgt) {
		return
	}
	if !src.PointsToSet().IsEmpty() {
		s.addWork(tgt, src.PointsToSet())
	}
}

func (s *Solver) addWork(p Pointer, pts *PointsToSet) {
	s.worklist = append(s.worklist, workEntry{ptr: p, pts: pts})
}

// analyze drives propagation to the fixed point.
func (s *Solver) analyze() {
	for len(s.worklist) > 0 {
		item := s.worklist[0]
		s.worklist = s.worklist[1:]
		delta := s.propagate(item.ptr, item.pts)

		varPtr, ok := item.ptr.(*VarPtr)
		if !ok {
			continue
		}
		v := varPtr.Var()
		delta.ForEach(func(obj *pta.Obj) {
			for _, st := range v.StoreFields() {
				s.addPFGEdge(s.pfg.VarPtr(st.R), s.pfg.InstanceField(obj, st.FieldRef()))
			}
			for _, ld := range v.LoadFields() {
				s.addPFGEdge(s.pfg.InstanceField(obj, ld.FieldRef()), s.pfg.VarPtr(ld.L))
			}
			for _, st := range v.StoreArrays() {
				s.addPFGEdge(s.pfg.VarPtr(st.R), s.pfg.ArrayIndex(obj))
			}
			for _, ld := range v.LoadArrays() {
				s.addPFGEdge(s.pfg.ArrayIndex(obj), s.pfg.VarPtr(ld.L))
			}
			s.processCall(v, obj)
		})
	}
}

// propagate merges pts into pt(p) and forwards the growth to p's PFG
// successors, returning the set difference pts \ pt(p).
func (s *Solver) propagate(p Pointer, pts *PointsToSet) *PointsToSet {
	delta := NewPointsToSet()
	own := p.PointsToSet()
	pts.ForEach(func(o *pta.Obj) {
		if !own.Contains(o) {
			delta.Add(o)
		}
	})
	if !delta.IsEmpty() {
		delta.ForEach(func(o *pta.Obj) { own.Add(o) })
		for _, succ := range s.pfg.SuccsOf(p) {
			s.addWork(succ, delta)
		}
	}
	return delta
}

// processCall resolves the instance calls on v against a newly discovered
// receiver object.
func (s *Solver) processCall(v *lang.Var, recv *pta.Obj) {
	for _, site := range v.Invokes() {
		callee := callgraph.ResolveCallee(recv.Type(), site)
		if callee == nil {
			// no target on this receiver type; the edge is omitted
			continue
		}
		s.addWork(s.pfg.VarPtr(callee.IR().This()), NewPointsToSet(recv))
		s.addCallEdge(site, callee)
	}
}
