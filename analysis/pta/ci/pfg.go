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
	"github.com/quartzlab/quartz/analysis/lang"
	"github.com/quartzlab/quartz/analysis/pta"
)

// PointerFlowGraph interns the pointers of the program and records the flow
// edges between them. An edge src -> tgt means pt(src) ⊆ pt(tgt). Each edge
// is stored at most once.
type PointerFlowGraph struct {
	varPtrs        map[*lang.Var]*VarPtr
	staticFields   map[*lang.FieldRef]*StaticFieldPtr
	instanceFields map[instanceFieldKey]*InstanceFieldPtr
	arrayIndexes   map[*pta.Obj]*ArrayIndexPtr

	succs   map[Pointer][]Pointer
	edgeSet map[pfgEdge]bool
}

type instanceFieldKey struct {
	base *pta.Obj
	f    *lang.FieldRef
}

type pfgEdge struct {
	src, tgt Pointer
}

// NewPointerFlowGraph returns an empty graph.
func NewPointerFlowGraph() *PointerFlowGraph {
	return &PointerFlowGraph{
		varPtrs:        make(map[*lang.Var]*VarPtr),
		staticFields:   make(map[*lang.FieldRef]*StaticFieldPtr),
		instanceFields: make(map[instanceFieldKey]*InstanceFieldPtr),
		arrayIndexes:   make(map[*pta.Obj]*ArrayIndexPtr),
		succs:          make(map[Pointer][]Pointer),
		edgeSet:        make(map[pfgEdge]bool),
	}
}

// VarPtr returns the canonical pointer of v.
func (g *PointerFlowGraph) VarPtr(v *lang.Var) *VarPtr {
	if p, ok := g.varPtrs[v]; ok {
		return p
	}
	p := &VarPtr{v: v, pts: NewPointsToSet()}
	g.varPtrs[v] = p
	return p
}

// StaticField returns the canonical pointer of static field f.
func (g *PointerFlowGraph) StaticField(f *lang.FieldRef) *StaticFieldPtr {
	if p, ok := g.staticFields[f]; ok {
		return p
	}
	p := &StaticFieldPtr{f: f, pts: NewPointsToSet()}
	g.staticFields[f] = p
	return p
}

// InstanceField returns the canonical pointer of the field slot (base, f).
func (g *PointerFlowGraph) InstanceField(base *pta.Obj, f *lang.FieldRef) *InstanceFieldPtr {
	key := instanceFieldKey{base: base, f: f}
	if p, ok := g.instanceFields[key]; ok {
		return p
	}
	p := &InstanceFieldPtr{base: base, f: f, pts: NewPointsToSet()}
	g.instanceFields[key] = p
	return p
}

// ArrayIndex returns the canonical element slot pointer of array.
func (g *PointerFlowGraph) ArrayIndex(array *pta.Obj) *ArrayIndexPtr {
	if p, ok := g.arrayIndexes[array]; ok {
		return p
	}
	p := &ArrayIndexPtr{array: array, pts: NewPointsToSet()}
	g.arrayIndexes[array] = p
	return p
}

// AddEdge inserts the flow edge src -> tgt, reporting whether it is new.
func (g *PointerFlowGraph) AddEdge(src, tgt Pointer) bool {
	e := pfgEdge{src: src, tgt: tgt}
	if g.edgeSet[e] {
		return false
	}
	g.edgeSet[e] = true
	g.succs[src] = append(g.succs[src], tgt)
	return true
}

// SuccsOf returns the flow successors of p in insertion order.
func (g *PointerFlowGraph) SuccsOf(p Pointer) []Pointer { return g.succs[p] }

// Vars returns every variable with a pointer in the graph, in no particular
// order.
func (g *PointerFlowGraph) Vars() []*lang.Var {
	out := make([]*lang.Var, 0, len(g.varPtrs))
	for v := range g.varPtrs {
		out = append(out, v)
	}
	return out
}
