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
	"testing"

	"gonum.org/v1/gonum/graph/topo"
)

func cyclicGraph() (nodes []string, succs func(string) []string) {
	// a -> b -> c -> a, c -> d
	edges := map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": {"a", "d"},
		"d": nil,
	}
	return []string{"a", "b", "c", "d"}, func(n string) []string { return edges[n] }
}

func TestStronglyConnectedComponents(t *testing.T) {
	nodes, succs := cyclicGraph()
	sccs := StronglyConnectedComponents(nodes, succs)

	if len(sccs) != 2 {
		t.Fatalf("got %d SCCs %v, want 2", len(sccs), sccs)
	}
	// reverse topological order: the leaf component first
	if len(sccs[0]) != 1 || sccs[0][0] != "d" {
		t.Errorf("first SCC = %v, want [d]", sccs[0])
	}
	if len(sccs[1]) != 3 {
		t.Errorf("cycle SCC = %v, want {a,b,c}", sccs[1])
	}
}

func TestGonumAdapterTarjan(t *testing.T) {
	nodes, succs := cyclicGraph()
	g := New(nodes, succs)

	sccs := topo.TarjanSCC(g)
	if len(sccs) != 2 {
		t.Fatalf("gonum found %d SCCs, want 2", len(sccs))
	}
	sizes := map[int]bool{}
	for _, scc := range sccs {
		sizes[len(g.Labels(scc))] = true
	}
	if !sizes[1] || !sizes[3] {
		t.Errorf("component sizes wrong: %v", sccs)
	}
}

func TestElementaryCycles(t *testing.T) {
	nodes, succs := cyclicGraph()
	cycles := ElementaryCycles(New(nodes, succs))

	if len(cycles) != 1 {
		t.Fatalf("got %d cycles %v, want 1", len(cycles), cycles)
	}
	if got := cycles[0]; len(got) != 4 || got[0] != got[len(got)-1] {
		t.Errorf("cycle = %v, want a->b->c->a closed walk", got)
	}
}

func TestElementaryCyclesSelfLoop(t *testing.T) {
	edges := map[string][]string{"x": {"x"}, "y": nil}
	cycles := ElementaryCycles(New([]string{"x", "y"}, func(n string) []string { return edges[n] }))
	if len(cycles) != 1 || len(cycles[0]) != 2 || cycles[0][0] != "x" {
		t.Errorf("self loop cycles = %v, want [[x x]]", cycles)
	}
}

func TestAcyclicGraphHasNoCycles(t *testing.T) {
	edges := map[string][]string{"a": {"b"}, "b": nil}
	if cycles := ElementaryCycles(New([]string{"a", "b"}, func(n string) []string { return edges[n] })); len(cycles) != 0 {
		t.Errorf("acyclic graph produced cycles %v", cycles)
	}
}
