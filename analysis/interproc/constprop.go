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
	"github.com/quartzlab/quartz/analysis/cfg"
	"github.com/quartzlab/quartz/analysis/config"
	"github.com/quartzlab/quartz/analysis/dataflow"
	"github.com/quartzlab/quartz/analysis/lang"
	"github.com/quartzlab/quartz/analysis/pta"
)

// A PTAResult supplies the alias information the heap abstraction is built
// from. Both pointer analysis flavors satisfy it.
type PTAResult interface {
	// Vars returns every variable the pointer analysis saw.
	Vars() []*lang.Var

	// PointsToVar returns the abstract objects v may point to.
	PointsToVar(v *lang.Var) []*pta.Obj
}

// heapKey addresses one abstract heap location: (object, field) for
// instance fields, (class, field) for static fields, and (object, abstract
// index value) for array slots. The key (object, NAC) doubles as "some
// write at an unknown index".
type heapKey struct {
	owner any // *pta.Obj or *lang.Class
	sel   any // *lang.FieldRef or dataflow.Value
}

type staticFieldKey struct {
	class *lang.Class
	field *lang.FieldRef
}

// ConstantPropagation is interprocedural constant propagation: the
// intraprocedural transfer lifted onto the ICFG, with heap constants
// (fields and array slots) propagated flow-insensitively through aliased
// access paths.
type ConstantPropagation struct {
	cp     *dataflow.ConstantPropagation
	icfg   *cfg.ICFG
	pta    PTAResult
	solver *Solver[*dataflow.CPFact]

	pointsTo    map[*lang.Var][]*pta.Obj
	aliases     map[*lang.Var][]*lang.Var
	valMap      map[heapKey]dataflow.Value
	staticLoads map[staticFieldKey][]*lang.LoadField
}

// Analyze runs interprocedural constant propagation over the ICFG, using
// the pointer analysis result for aliasing. It returns per-node in/out
// facts.
func Analyze(icfg *cfg.ICFG, ptaResult PTAResult, lg *config.LogGroup) *dataflow.Result[*dataflow.CPFact] {
	a := &ConstantPropagation{
		cp:          dataflow.NewConstantPropagation(),
		icfg:        icfg,
		pta:         ptaResult,
		valMap:      make(map[heapKey]dataflow.Value),
		staticLoads: make(map[staticFieldKey][]*lang.LoadField),
	}
	a.buildAliasMap()
	a.buildStaticLoadMap()
	lg.Debugf("inter-cp: %d aliased variables", len(a.aliases))

	solver := NewSolver[*dataflow.CPFact](a, icfg)
	a.solver = solver
	res := solver.Solve()
	lg.Infof("inter-cp: solved %d nodes", len(icfg.Nodes()))
	return res
}

// buildAliasMap records, for every variable, the variables whose points-to
// sets intersect its own. Every variable aliases itself.
func (a *ConstantPropagation) buildAliasMap() {
	vars := a.pta.Vars()
	a.pointsTo = make(map[*lang.Var][]*pta.Obj, len(vars))
	sets := make(map[*lang.Var]map[*pta.Obj]bool, len(vars))
	for _, v := range vars {
		objs := a.pta.PointsToVar(v)
		a.pointsTo[v] = objs
		set := make(map[*pta.Obj]bool, len(objs))
		for _, o := range objs {
			set[o] = true
		}
		sets[v] = set
	}

	a.aliases = make(map[*lang.Var][]*lang.Var, len(vars))
	for _, v := range vars {
		a.aliases[v] = []*lang.Var{v}
		for _, w := range vars {
			if w == v {
				continue
			}
			if intersects(sets[v], a.pointsTo[w]) {
				a.aliases[v] = append(a.aliases[v], w)
			}
		}
	}
}

func intersects(set map[*pta.Obj]bool, objs []*pta.Obj) bool {
	for _, o := range objs {
		if set[o] {
			return true
		}
	}
	return false
}

// buildStaticLoadMap indexes the static field loads of the ICFG by their
// (class, field) key, so static stores can dirty them.
func (a *ConstantPropagation) buildStaticLoadMap() {
	for _, n := range a.icfg.Nodes() {
		if load, ok := n.(*lang.LoadField); ok && load.IsStatic() {
			key := staticFieldKey{class: load.FieldRef().Class(), field: load.FieldRef()}
			a.staticLoads[key] = append(a.staticLoads[key], load)
		}
	}
}

// NewBoundaryFact maps the entry method's integer parameters to NAC.
func (a *ConstantPropagation) NewBoundaryFact(entry lang.Stmt) *dataflow.CPFact {
	return a.cp.NewBoundaryFact(a.icfg.CFGOf(a.icfg.MethodOf(entry)))
}

// NewInitialFact returns the empty fact.
func (a *ConstantPropagation) NewInitialFact() *dataflow.CPFact {
	return a.cp.NewInitialFact()
}

// MeetInto meets fact into target pointwise.
func (a *ConstantPropagation) MeetInto(fact, target *dataflow.CPFact) {
	a.cp.MeetInto(fact, target)
}

// TransferCallNode is the identity: the call's result variable is killed on
// the call-to-return edge and supplied by the return edge.
func (a *ConstantPropagation) TransferCallNode(s lang.Stmt, in, out *dataflow.CPFact) bool {
	old := out.Copy()
	out.Clear()
	out.CopyFrom(in)
	return !old.Equals(out)
}

// TransferNonCallNode updates the heap abstraction for store statements,
// then applies the constant propagation transfer with heap-aware
// evaluation.
func (a *ConstantPropagation) TransferNonCallNode(s lang.Stmt, in, out *dataflow.CPFact) bool {
	a.processStore(s, in)

	old := out.Copy()
	out.Clear()
	out.CopyFrom(in)

	if def, ok := s.(lang.Definition); ok {
		if v := def.Def(); v != nil && dataflow.CanHoldInt(v) {
			out.Remove(v)
			out.Update(v, a.evaluate(def.RHS(), in))
		}
	}
	return !old.Equals(out)
}

// processStore folds a store's value into the heap abstraction and, when a
// location changes, dirties every load statement that may read it through
// an alias. This re-enqueueing is what lets the flow-insensitive heap
// coexist with flow-sensitive variable facts.
func (a *ConstantPropagation) processStore(s lang.Stmt, in *dataflow.CPFact) {
	switch s := s.(type) {
	case *lang.StoreArray:
		base := s.Access.Base
		idx := dataflow.Evaluate(s.Access.Index, in)
		if idx.IsUndef() || !dataflow.CanHoldInt(s.R) {
			return
		}
		val := a.evaluate(s.R, in)
		for _, obj := range a.pointsTo[base] {
			if a.meetHeap(heapKey{owner: obj, sel: idx}, val) {
				for _, alias := range a.aliases[base] {
					for _, load := range alias.LoadArrays() {
						a.solver.Enqueue(load)
					}
				}
			}
		}
	case *lang.StoreField:
		if !dataflow.CanHoldInt(s.R) {
			return
		}
		val := a.evaluate(s.R, in)
		switch access := s.Access.(type) {
		case *lang.InstanceFieldAccess:
			for _, obj := range a.pointsTo[access.Base] {
				if a.meetHeap(heapKey{owner: obj, sel: access.Field}, val) {
					for _, alias := range a.aliases[access.Base] {
						for _, load := range alias.LoadFields() {
							if load.FieldRef() == access.Field {
								a.solver.Enqueue(load)
							}
						}
					}
				}
			}
		case *lang.StaticFieldAccess:
			f := access.Field
			if a.meetHeap(heapKey{owner: f.Class(), sel: f}, val) {
				key := staticFieldKey{class: f.Class(), field: f}
				for _, load := range a.staticLoads[key] {
					a.solver.Enqueue(load)
				}
			}
		}
	}
}

// meetHeap meets val into the heap location, reporting whether it changed.
func (a *ConstantPropagation) meetHeap(key heapKey, val dataflow.Value) bool {
	old, ok := a.valMap[key]
	if !ok {
		old = dataflow.Undef()
	}
	merged := dataflow.MeetValue(old, val)
	a.valMap[key] = merged
	return merged != old
}

func (a *ConstantPropagation) heapValue(key heapKey) dataflow.Value {
	if v, ok := a.valMap[key]; ok {
		return v
	}
	return dataflow.Undef()
}

// evaluate extends the intraprocedural evaluator with heap expressions,
// reading field and array locations through the alias-indexed value map.
func (a *ConstantPropagation) evaluate(e lang.Exp, in *dataflow.CPFact) dataflow.Value {
	switch e := e.(type) {
	case *lang.InstanceFieldAccess:
		v := dataflow.Undef()
		for _, obj := range a.pointsTo[e.Base] {
			v = dataflow.MeetValue(v, a.heapValue(heapKey{owner: obj, sel: e.Field}))
		}
		return v
	case *lang.StaticFieldAccess:
		return a.heapValue(heapKey{owner: e.Field.Class(), sel: e.Field})
	case *lang.ArrayAccess:
		idx := dataflow.Evaluate(e.Index, in)
		switch {
		case idx.IsConstant():
			v := dataflow.Undef()
			for _, obj := range a.pointsTo[e.Base] {
				v = dataflow.MeetValue(v, a.heapValue(heapKey{owner: obj, sel: idx}))
				// a store through an unknown index may have hit this slot
				v = dataflow.MeetValue(v, a.heapValue(heapKey{owner: obj, sel: dataflow.NAC()}))
			}
			return v
		case idx.IsNAC():
			v := dataflow.Undef()
			for _, obj := range a.pointsTo[e.Base] {
				for key, val := range a.valMap {
					if key.owner != any(obj) {
						continue
					}
					if _, isIndex := key.sel.(dataflow.Value); isIndex {
						v = dataflow.MeetValue(v, val)
					}
				}
			}
			return v
		default:
			return dataflow.Undef()
		}
	default:
		return dataflow.Evaluate(e, in)
	}
}

// TransferNormalEdge is the identity.
func (a *ConstantPropagation) TransferNormalEdge(e *cfg.ICFGEdge, out *dataflow.CPFact) *dataflow.CPFact {
	return out
}

// TransferCallToReturnEdge copies the fact and kills the call's result
// variable; the return edge supplies it.
func (a *ConstantPropagation) TransferCallToReturnEdge(e *cfg.ICFGEdge, out *dataflow.CPFact) *dataflow.CPFact {
	res := out.Copy()
	if site, ok := e.Source.(*lang.Invoke); ok && site.L != nil {
		res.Remove(site.L)
	}
	return res
}

// TransferCallEdge starts a fresh fact binding each argument's value to the
// callee's formal parameter.
func (a *ConstantPropagation) TransferCallEdge(e *cfg.ICFGEdge, callSiteOut *dataflow.CPFact) *dataflow.CPFact {
	res := a.cp.NewInitialFact()
	site := e.Source.(*lang.Invoke)
	ir := e.Callee.IR()
	for i := 0; i < e.Callee.ParamCount(); i++ {
		res.Update(ir.Param(i), callSiteOut.Get(site.Call.Args[i]))
	}
	return res
}

// TransferReturnEdge starts a fresh fact binding the call's result variable
// to the meet of the callee's return variables.
func (a *ConstantPropagation) TransferReturnEdge(e *cfg.ICFGEdge, returnOut *dataflow.CPFact) *dataflow.CPFact {
	res := a.cp.NewInitialFact()
	if e.CallSite.L != nil {
		v := dataflow.Undef()
		for _, ret := range e.ReturnVars {
			v = dataflow.MeetValue(v, returnOut.Get(ret))
		}
		res.Update(e.CallSite.L, v)
	}
	return res
}
