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

package callgraph

import (
	"github.com/quartzlab/quartz/analysis/config"
	"github.com/quartzlab/quartz/analysis/lang"
)

// Dispatch looks up the method a receiver of class c runs for the given
// subsignature: the first non-abstract declaration found walking up the
// superclass chain, or nil if none exists.
func Dispatch(c *lang.Class, sig lang.Subsignature) *lang.Method {
	for ; c != nil; c = c.Super() {
		if m := c.DeclaredMethod(sig); m != nil && !m.IsAbstract() {
			return m
		}
	}
	return nil
}

// ResolveCallee resolves the single callee of a call site given the concrete
// receiver type. For static calls the receiver type is ignored (pass nil).
// Returns nil when no target exists, e.g. a virtual call on a receiver type
// that never overrides the target; conservative callers omit the edge.
func ResolveCallee(recv lang.Type, site *lang.Invoke) *lang.Method {
	ref := site.MethodRef()
	switch site.Kind() {
	case lang.CallStatic:
		return ref.Resolve()
	case lang.CallSpecial:
		return Dispatch(ref.Class, ref.Subsig)
	case lang.CallVirtual, lang.CallInterface:
		ct, ok := recv.(lang.ClassType)
		if !ok {
			return nil
		}
		return Dispatch(ct.Class, ref.Subsig)
	}
	return nil
}

// CallSitesIn returns the call sites of a method body in statement order.
func CallSitesIn(m *lang.Method) []*lang.Invoke {
	if m.IR() == nil {
		return nil
	}
	var sites []*lang.Invoke
	for _, s := range m.IR().Stmts() {
		if site, ok := s.(*lang.Invoke); ok {
			sites = append(sites, site)
		}
	}
	return sites
}

// BuildCHA builds a call graph by class hierarchy analysis: a breadth-first
// walk from the entry method, resolving every discovered call site against
// the declared hierarchy.
func BuildCHA(prog *lang.Program, lg *config.LogGroup) *Graph[*lang.Invoke, *lang.Method] {
	g := NewGraph[*lang.Invoke, *lang.Method]()
	entry := prog.MainMethod()
	g.AddEntry(entry)

	worklist := []*lang.Method{entry}
	for len(worklist) > 0 {
		m := worklist[0]
		worklist = worklist[1:]
		if !g.AddReachable(m) {
			continue
		}
		lg.Debugf("cha: method %s reachable", m)
		for _, site := range CallSitesIn(m) {
			for _, target := range ResolveCHA(prog.Hierarchy(), site) {
				g.AddEdge(Edge[*lang.Invoke, *lang.Method]{Kind: site.Kind(), Site: site, Callee: target})
				worklist = append(worklist, target)
			}
		}
	}
	lg.Infof("cha: %d reachable methods, %d edges", len(g.ReachableMethods()), len(g.Edges()))
	return g
}

// ResolveCHA resolves the possible targets of a call site using the class
// hierarchy alone. Static calls yield the single declared target; special
// calls dispatch on the declared class; virtual and interface calls take the
// union of dispatching on the declared class and on each of its direct
// subclasses, direct subinterfaces and direct implementors. Transitive
// descendants are discovered through the reachable-method walk, which visits
// their own call sites in turn.
func ResolveCHA(h *lang.Hierarchy, site *lang.Invoke) []*lang.Method {
	ref := site.MethodRef()
	var targets []*lang.Method
	seen := make(map[*lang.Method]bool)
	add := func(m *lang.Method) {
		if m != nil && !seen[m] {
			seen[m] = true
			targets = append(targets, m)
		}
	}

	switch site.Kind() {
	case lang.CallStatic:
		add(ref.Resolve())
	case lang.CallSpecial:
		add(Dispatch(ref.Class, ref.Subsig))
	case lang.CallVirtual, lang.CallInterface:
		add(Dispatch(ref.Class, ref.Subsig))
		for _, c := range h.DirectSubclassesOf(ref.Class) {
			add(Dispatch(c, ref.Subsig))
		}
		for _, c := range h.DirectSubinterfacesOf(ref.Class) {
			add(Dispatch(c, ref.Subsig))
		}
		for _, c := range h.DirectImplementorsOf(ref.Class) {
			add(Dispatch(c, ref.Subsig))
		}
	}
	return targets
}
