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

// Package graphutil provides generic graph utilities shared by the analyses:
// strongly connected components, elementary cycles, and an adapter exposing
// any successor-function graph to the gonum and yourbasic graph libraries.
package graphutil

// sccState carries the bookkeeping of Tarjan's algorithm.
type sccState[T comparable] struct {
	succs   func(T) []T
	stack   []T
	onStack map[T]bool
	index   map[T]int
	lowlink map[T]int
	next    int
	sccs    [][]T
}

// StronglyConnectedComponents computes the strongly connected components of
// the graph spanned by nodes and the successor function, using Tarjan's
// algorithm. Components are returned in reverse topological order:
// successors before predecessors, so a bottom-up pass can consume the result
// directly.
func StronglyConnectedComponents[T comparable](nodes []T, successors func(T) []T) [][]T {
	s := &sccState[T]{
		succs:   successors,
		onStack: make(map[T]bool),
		index:   make(map[T]int),
		lowlink: make(map[T]int),
	}
	for _, v := range nodes {
		if _, visited := s.index[v]; !visited {
			s.visit(v)
		}
	}
	return s.sccs
}

func (s *sccState[T]) visit(v T) {
	s.index[v] = s.next
	s.lowlink[v] = s.next
	s.next++
	s.stack = append(s.stack, v)
	s.onStack[v] = true

	for _, w := range s.succs(v) {
		if _, visited := s.index[w]; !visited {
			s.visit(w)
			if s.lowlink[w] < s.lowlink[v] {
				s.lowlink[v] = s.lowlink[w]
			}
		} else if s.onStack[w] && s.index[w] < s.lowlink[v] {
			s.lowlink[v] = s.index[w]
		}
	}

	if s.lowlink[v] == s.index[v] {
		var scc []T
		for {
			w := s.stack[len(s.stack)-1]
			s.stack = s.stack[:len(s.stack)-1]
			s.onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		s.sccs = append(s.sccs, scc)
	}
}
