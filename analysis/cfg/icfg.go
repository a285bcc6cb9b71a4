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

package cfg

import (
	"github.com/quartzlab/quartz/analysis/callgraph"
	"github.com/quartzlab/quartz/analysis/lang"
)

// ICFGEdgeKind classifies an edge of the interprocedural CFG.
type ICFGEdgeKind int

const (
	// ICFGNormal is an ordinary intraprocedural edge.
	ICFGNormal ICFGEdgeKind = iota
	// ICFGCallToReturn skips over a call site inside the caller.
	ICFGCallToReturn
	// ICFGCall links a call site to a callee entry.
	ICFGCall
	// ICFGReturn links a callee exit back to a return site of the caller.
	ICFGReturn
)

// An ICFGEdge is a directed, classified edge of the ICFG. Call edges carry
// the callee; return edges carry the call site and the callee's return
// variables.
type ICFGEdge struct {
	Kind       ICFGEdgeKind
	Source     lang.Stmt
	Target     lang.Stmt
	Callee     *lang.Method // ICFGCall only
	CallSite   *lang.Invoke // ICFGReturn only
	ReturnVars []*lang.Var  // ICFGReturn only
}

// ICFG is the interprocedural control-flow graph: the per-method CFGs of
// every reachable method, stitched together along the call graph. Each call
// site is simultaneously the source of its call-to-return edges and of one
// call edge per resolved callee.
type ICFG struct {
	entry    lang.Stmt
	nodes    []lang.Stmt
	cfgs     map[*lang.Method]*CFG
	methodOf map[lang.Stmt]*lang.Method
	succs    map[lang.Stmt][]*ICFGEdge
	preds    map[lang.Stmt][]*ICFGEdge
}

// BuildICFG stitches the ICFG for all methods reachable in the call graph,
// entering at the program's main method.
func BuildICFG(prog *lang.Program, cg *callgraph.Graph[*lang.Invoke, *lang.Method]) *ICFG {
	g := &ICFG{
		cfgs:     make(map[*lang.Method]*CFG),
		methodOf: make(map[lang.Stmt]*lang.Method),
		succs:    make(map[lang.Stmt][]*ICFGEdge),
		preds:    make(map[lang.Stmt][]*ICFGEdge),
	}

	for _, m := range cg.ReachableMethods() {
		if m.IR() == nil {
			continue
		}
		c := Build(m.IR())
		g.cfgs[m] = c
		for _, n := range c.Nodes() {
			g.nodes = append(g.nodes, n)
			g.methodOf[n] = m
		}
	}

	for _, m := range cg.ReachableMethods() {
		c := g.cfgs[m]
		if c == nil {
			continue
		}
		for _, n := range c.Nodes() {
			intra := ICFGNormal
			if _, isCall := n.(*lang.Invoke); isCall {
				intra = ICFGCallToReturn
			}
			for _, e := range c.OutEdgesOf(n) {
				g.addEdge(&ICFGEdge{Kind: intra, Source: e.Source, Target: e.Target})
			}
		}
		for _, s := range m.IR().Stmts() {
			site, ok := s.(*lang.Invoke)
			if !ok {
				continue
			}
			for _, callee := range cg.CalleesOf(site) {
				cc := g.cfgs[callee]
				if cc == nil {
					continue
				}
				g.addEdge(&ICFGEdge{Kind: ICFGCall, Source: site, Target: cc.Entry(), Callee: callee})
				for _, retSite := range c.SuccsOf(site) {
					g.addEdge(&ICFGEdge{
						Kind:       ICFGReturn,
						Source:     cc.Exit(),
						Target:     retSite,
						CallSite:   site,
						ReturnVars: callee.IR().ReturnVars(),
					})
				}
			}
		}
	}

	g.entry = g.cfgs[prog.MainMethod()].Entry()
	return g
}

func (g *ICFG) addEdge(e *ICFGEdge) {
	g.succs[e.Source] = append(g.succs[e.Source], e)
	g.preds[e.Target] = append(g.preds[e.Target], e)
}

// Entry returns the boundary node: the entry of the main method's CFG.
func (g *ICFG) Entry() lang.Stmt { return g.entry }

// Nodes returns every node of every stitched CFG in deterministic order.
func (g *ICFG) Nodes() []lang.Stmt { return g.nodes }

// CFGOf returns the per-method CFG of m, or nil if m is not part of the
// graph.
func (g *ICFG) CFGOf(m *lang.Method) *CFG { return g.cfgs[m] }

// MethodOf returns the method containing node n.
func (g *ICFG) MethodOf(n lang.Stmt) *lang.Method { return g.methodOf[n] }

// OutEdgesOf returns the classified out-edges of n.
func (g *ICFG) OutEdgesOf(n lang.Stmt) []*ICFGEdge { return g.succs[n] }

// InEdgesOf returns the classified in-edges of n.
func (g *ICFG) InEdgesOf(n lang.Stmt) []*ICFGEdge { return g.preds[n] }
