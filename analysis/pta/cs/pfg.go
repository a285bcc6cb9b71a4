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

// PointerFlowGraph records the flow edges between context-qualified
// pointers. An edge src -> tgt means pt(src) ⊆ pt(tgt); each edge is stored
// at most once.
type PointerFlowGraph struct {
	succs   map[Pointer][]Pointer
	edgeSet map[pfgEdge]bool
}

type pfgEdge struct {
	src, tgt Pointer
}

// NewPointerFlowGraph returns an empty graph.
func NewPointerFlowGraph() *PointerFlowGraph {
	return &PointerFlowGraph{
		succs:   make(map[Pointer][]Pointer),
		edgeSet: make(map[pfgEdge]bool),
	}
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
