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

// Package callgraph represents call graphs and builds them with class
// hierarchy analysis. The graph is generic over its call-site and method
// node types, so the same structure serves the context-insensitive solvers
// (sites are *lang.Invoke, methods are *lang.Method) and the
// context-sensitive one (both endpoints qualified by contexts).
package callgraph

import (
	"github.com/quartzlab/quartz/analysis/lang"
	"github.com/quartzlab/quartz/internal/graphutil"
	"gonum.org/v1/gonum/graph/topo"
)

// An Edge is a resolved (call site, callee) pair.
type Edge[C comparable, M comparable] struct {
	Kind   lang.CallKind
	Site   C
	Callee M
}

// Graph is a call graph: a set of edges plus the set of reachable methods.
// Every method is added to the reachable set at most once, and every edge is
// stored at most once. All iteration orders are insertion orders, so derived
// results are deterministic.
type Graph[C comparable, M comparable] struct {
	entries   []M
	reachable map[M]bool
	order     []M

	edges     []Edge[C, M]
	edgeSet   map[Edge[C, M]]bool
	callees   map[C][]M
	calleeSet map[C]map[M]bool
	callers   map[M][]C
}

// NewGraph returns an empty call graph.
func NewGraph[C comparable, M comparable]() *Graph[C, M] {
	return &Graph[C, M]{
		reachable: make(map[M]bool),
		edgeSet:   make(map[Edge[C, M]]bool),
		callees:   make(map[C][]M),
		calleeSet: make(map[C]map[M]bool),
		callers:   make(map[M][]C),
	}
}

// AddEntry records m as a program entry method.
func (g *Graph[C, M]) AddEntry(m M) {
	g.entries = append(g.entries, m)
}

// Entries returns the entry methods.
func (g *Graph[C, M]) Entries() []M { return g.entries }

// AddReachable marks m reachable. It returns false if m was already
// reachable, so callers process each method's statements exactly once.
func (g *Graph[C, M]) AddReachable(m M) bool {
	if g.reachable[m] {
		return false
	}
	g.reachable[m] = true
	g.order = append(g.order, m)
	return true
}

// Contains reports whether m is reachable.
func (g *Graph[C, M]) Contains(m M) bool { return g.reachable[m] }

// ReachableMethods returns the reachable methods in discovery order.
func (g *Graph[C, M]) ReachableMethods() []M { return g.order }

// AddEdge inserts a call edge, returning false if it was already present.
func (g *Graph[C, M]) AddEdge(e Edge[C, M]) bool {
	if g.edgeSet[e] {
		return false
	}
	g.edgeSet[e] = true
	g.edges = append(g.edges, e)
	if g.calleeSet[e.Site] == nil {
		g.calleeSet[e.Site] = make(map[M]bool)
	}
	g.calleeSet[e.Site][e.Callee] = true
	g.callees[e.Site] = append(g.callees[e.Site], e.Callee)
	g.callers[e.Callee] = append(g.callers[e.Callee], e.Site)
	return true
}

// HasEdge reports whether the (site, callee) pair is already in the graph.
func (g *Graph[C, M]) HasEdge(site C, callee M) bool {
	return g.calleeSet[site][callee]
}

// CalleesOf returns the resolved callees of a call site in insertion order.
func (g *Graph[C, M]) CalleesOf(site C) []M { return g.callees[site] }

// CallersOf returns the call sites resolving to m in insertion order.
func (g *Graph[C, M]) CallersOf(m M) []C { return g.callers[m] }

// Edges returns all edges in insertion order.
func (g *Graph[C, M]) Edges() []Edge[C, M] { return g.edges }

// SCCs groups the reachable methods into strongly connected components of
// the method-level call relation, computed with gonum's Tarjan
// implementation over a graph adapter. Mutually recursive method groups
// come out as components of size > 1.
func (g *Graph[C, M]) SCCs(sitesIn func(M) []C) [][]M {
	adapter := graphutil.New(g.order, func(m M) []M {
		var succs []M
		for _, site := range sitesIn(m) {
			succs = append(succs, g.callees[site]...)
		}
		return succs
	})
	var out [][]M
	for _, scc := range topo.TarjanSCC(adapter) {
		out = append(out, adapter.Labels(scc))
	}
	return out
}
