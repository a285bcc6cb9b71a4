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

package graphutil

import (
	"gonum.org/v1/gonum/graph"
)

// Graph adapts a successor-function graph over arbitrary node labels to the
// interfaces of the gonum graph library (graph.Directed) and the yourbasic
// graph library (graph.Iterator). Node ids are assigned densely in the order
// labels were supplied. Successors and predecessors of a node (Visit, From,
// To) are iterated in no fixed order.
type Graph[T comparable] struct {
	labels []T
	ids    map[T]int64
	out    map[int64]map[int64]bool
	in     map[int64]map[int64]bool
}

// New builds an adapter over the given nodes and successor function. Labels
// must be distinct. Successors not present in nodes are ignored.
func New[T comparable](nodes []T, successors func(T) []T) *Graph[T] {
	g := &Graph[T]{
		labels: nodes,
		ids:    make(map[T]int64, len(nodes)),
		out:    make(map[int64]map[int64]bool, len(nodes)),
		in:     make(map[int64]map[int64]bool, len(nodes)),
	}
	for i, n := range nodes {
		g.ids[n] = int64(i)
		g.out[int64(i)] = map[int64]bool{}
		g.in[int64(i)] = map[int64]bool{}
	}
	for _, n := range nodes {
		u := g.ids[n]
		for _, s := range successors(n) {
			if v, ok := g.ids[s]; ok {
				g.out[u][v] = true
				g.in[v][u] = true
			}
		}
	}
	return g
}

// Label returns the label of the node with the given id.
func (g *Graph[T]) Label(id int64) T {
	return g.labels[id]
}

// Labels maps a slice of gonum nodes back to their labels.
func (g *Graph[T]) Labels(nodes []graph.Node) []T {
	out := make([]T, len(nodes))
	for i, n := range nodes {
		out[i] = g.labels[n.ID()]
	}
	return out
}

// Order implements the yourbasic graph.Iterator interface.
func (g *Graph[T]) Order() int { return len(g.labels) }

// Visit implements the yourbasic graph.Iterator interface.
func (g *Graph[T]) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	for w := range g.out[int64(v)] {
		if do(int(w), 1) {
			return true
		}
	}
	return false
}

// Node implements gonum's graph.Graph.
func (g *Graph[T]) Node(id int64) graph.Node {
	if id < 0 || id >= int64(len(g.labels)) {
		return nil
	}
	return gnode(id)
}

// Nodes implements gonum's graph.Graph.
func (g *Graph[T]) Nodes() graph.Nodes {
	ids := make([]int64, len(g.labels))
	for i := range g.labels {
		ids[i] = int64(i)
	}
	return &nodeSet{ids: ids, cur: -1}
}

// From implements gonum's graph.Graph.
func (g *Graph[T]) From(id int64) graph.Nodes {
	return setIterator(g.out[id])
}

// To implements gonum's graph.Directed.
func (g *Graph[T]) To(id int64) graph.Nodes {
	return setIterator(g.in[id])
}

// HasEdgeBetween implements gonum's graph.Graph.
func (g *Graph[T]) HasEdgeBetween(xid, yid int64) bool {
	return g.out[xid][yid] || g.out[yid][xid]
}

// HasEdgeFromTo implements gonum's graph.Directed.
func (g *Graph[T]) HasEdgeFromTo(uid, vid int64) bool {
	return g.out[uid][vid]
}

// Edge implements gonum's graph.Graph.
func (g *Graph[T]) Edge(uid, vid int64) graph.Edge {
	if !g.out[uid][vid] {
		return nil
	}
	return gedge{from: gnode(uid), to: gnode(vid)}
}

func setIterator(set map[int64]bool) graph.Nodes {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return &nodeSet{ids: ids, cur: -1}
}

// gnode is a dense node id satisfying gonum's graph.Node.
type gnode int64

func (n gnode) ID() int64 { return int64(n) }

// gedge satisfies gonum's graph.Edge.
type gedge struct {
	from, to gnode
}

func (e gedge) From() graph.Node         { return e.from }
func (e gedge) To() graph.Node           { return e.to }
func (e gedge) ReversedEdge() graph.Edge { return gedge{from: e.to, to: e.from} }

// nodeSet iterates over a fixed id slice, satisfying gonum's graph.Nodes.
type nodeSet struct {
	ids []int64
	cur int
}

func (ns *nodeSet) Next() bool {
	if ns.cur+1 < len(ns.ids) {
		ns.cur++
		return true
	}
	return false
}

func (ns *nodeSet) Len() int { return len(ns.ids) - ns.cur - 1 }

func (ns *nodeSet) Reset() { ns.cur = -1 }

func (ns *nodeSet) Node() graph.Node { return gnode(ns.ids[ns.cur]) }
