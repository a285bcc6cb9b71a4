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
	"sort"

	"github.com/yourbasic/graph"
)

// ElementaryCycles finds all elementary cycles of the graph using Donald B.
// Johnson's algorithm ("Finding All The Elementary Circuits of a Directed
// Graph", 1975). Strongly connected components are computed with the
// yourbasic graph library over the adapter's Iterator view. Each returned
// cycle lists its node labels with the start label repeated at the end.
func ElementaryCycles[T comparable](g *Graph[T]) [][]T {
	s := &cycleState[T]{
		g:       g,
		blocked: map[int64]bool{},
		blist:   map[int64]map[int64]bool{},
	}
	start := 0
	for start < g.Order() {
		sub := subview[T]{g: g, min: start}
		components := graph.StrongComponents(sub)
		root := int64(-1)
		for _, component := range components {
			if len(component) < 2 {
				continue
			}
			sort.Ints(component)
			if root < 0 || int64(component[0]) < root {
				root = int64(component[0])
			}
		}
		if root < 0 {
			break
		}
		s.stack = nil
		s.blocked = map[int64]bool{}
		s.blist = map[int64]map[int64]bool{}
		s.circuit(root, root, sub)
		start = int(root) + 1
	}

	// self-loops are elementary cycles Johnson's SCC pass does not see
	for id := int64(0); id < int64(g.Order()); id++ {
		if g.out[id][id] {
			s.cycles = append(s.cycles, []int64{id, id})
		}
	}

	out := make([][]T, len(s.cycles))
	for i, cyc := range s.cycles {
		labels := make([]T, len(cyc))
		for j, id := range cyc {
			labels[j] = g.labels[id]
		}
		out[i] = labels
	}
	return out
}

// subview restricts a Graph to nodes with id >= min, keeping the original
// id space so indices stay consistent across subgraphs.
type subview[T comparable] struct {
	g   *Graph[T]
	min int
}

func (s subview[T]) Order() int { return s.g.Order() }

func (s subview[T]) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if v < s.min {
		return false
	}
	for w := range s.g.out[int64(v)] {
		if int(w) < s.min {
			continue
		}
		if do(int(w), 1) {
			return true
		}
	}
	return false
}

type cycleState[T comparable] struct {
	g       *Graph[T]
	blocked map[int64]bool
	blist   map[int64]map[int64]bool
	stack   []int64
	cycles  [][]int64
}

func (s *cycleState[T]) unblock(u int64) {
	s.blocked[u] = false
	for w := range s.blist[u] {
		if s.blocked[w] {
			s.unblock(w)
		}
	}
	delete(s.blist, u)
}

func (s *cycleState[T]) circuit(v, root int64, sub subview[T]) bool {
	found := false
	s.stack = append(s.stack, v)
	s.blocked[v] = true

	sub.Visit(int(v), func(wi int, _ int64) bool {
		w := int64(wi)
		if w == root && w != v {
			cycle := make([]int64, len(s.stack), len(s.stack)+1)
			copy(cycle, s.stack)
			cycle = append(cycle, w)
			s.cycles = append(s.cycles, cycle)
			found = true
		} else if !s.blocked[w] {
			if s.circuit(w, root, sub) {
				found = true
			}
		}
		return false
	})

	if found {
		s.unblock(v)
	} else {
		sub.Visit(int(v), func(wi int, _ int64) bool {
			w := int64(wi)
			if s.blist[w] == nil {
				s.blist[w] = map[int64]bool{}
			}
			s.blist[w][v] = true
			return false
		})
	}
	s.stack = s.stack[:len(s.stack)-1]
	return found
}
