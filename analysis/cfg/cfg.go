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

// Package cfg builds and represents control-flow graphs: the per-method CFG
// with classified branch edges, and the interprocedural ICFG stitched
// together from per-method CFGs along call-graph edges.
package cfg

import (
	"fmt"

	"github.com/quartzlab/quartz/analysis/lang"
)

// EdgeKind classifies an intraprocedural CFG edge.
type EdgeKind int

const (
	// EdgeFallThrough links a statement to its textual successor.
	EdgeFallThrough EdgeKind = iota
	// EdgeGoto is an unconditional jump.
	EdgeGoto
	// EdgeIfTrue is taken when an If condition holds.
	EdgeIfTrue
	// EdgeIfFalse is taken when an If condition does not hold.
	EdgeIfFalse
	// EdgeSwitchCase is taken when the switch selector matches CaseValue.
	EdgeSwitchCase
	// EdgeSwitchDefault is taken when no switch case matches.
	EdgeSwitchDefault
	// EdgeEntry leaves the synthetic entry node.
	EdgeEntry
	// EdgeReturn links a return statement to the synthetic exit node.
	EdgeReturn
)

// An Edge is a directed, classified edge of a CFG.
type Edge struct {
	Kind      EdgeKind
	Source    lang.Stmt
	Target    lang.Stmt
	CaseValue int32 // only meaningful for EdgeSwitchCase
}

// CFG is the control-flow graph of one method body. It has a unique
// synthetic entry and exit node; all node and edge slices are in
// deterministic construction order.
type CFG struct {
	ir    *lang.IR
	entry lang.Stmt
	exit  lang.Stmt
	nodes []lang.Stmt
	succs map[lang.Stmt][]*Edge
	preds map[lang.Stmt][]*Edge
}

// Build constructs the CFG of a method body.
func Build(ir *lang.IR) *CFG {
	entry := &lang.Nop{Label: "entry"}
	exit := &lang.Nop{Label: "exit"}
	entry.SetSyntheticIndex()
	exit.SetSyntheticIndex()

	g := &CFG{
		ir:    ir,
		entry: entry,
		exit:  exit,
		succs: make(map[lang.Stmt][]*Edge),
		preds: make(map[lang.Stmt][]*Edge),
	}
	g.nodes = append(g.nodes, entry)
	g.nodes = append(g.nodes, ir.Stmts()...)
	g.nodes = append(g.nodes, exit)

	stmts := ir.Stmts()
	next := func(i int) lang.Stmt {
		if i+1 < len(stmts) {
			return stmts[i+1]
		}
		return exit
	}

	if len(stmts) == 0 {
		g.addEdge(&Edge{Kind: EdgeEntry, Source: entry, Target: exit})
		return g
	}
	g.addEdge(&Edge{Kind: EdgeEntry, Source: entry, Target: stmts[0]})

	for i, s := range stmts {
		switch s := s.(type) {
		case *lang.If:
			g.addEdge(&Edge{Kind: EdgeIfTrue, Source: s, Target: s.Target})
			g.addEdge(&Edge{Kind: EdgeIfFalse, Source: s, Target: next(i)})
		case *lang.Goto:
			g.addEdge(&Edge{Kind: EdgeGoto, Source: s, Target: s.Target})
		case *lang.Switch:
			for _, c := range s.Cases {
				g.addEdge(&Edge{Kind: EdgeSwitchCase, Source: s, Target: c.Target, CaseValue: c.Value})
			}
			g.addEdge(&Edge{Kind: EdgeSwitchDefault, Source: s, Target: s.Default})
		case *lang.Return:
			g.addEdge(&Edge{Kind: EdgeReturn, Source: s, Target: exit})
		default:
			g.addEdge(&Edge{Kind: EdgeFallThrough, Source: s, Target: next(i)})
		}
	}
	return g
}

func (g *CFG) addEdge(e *Edge) {
	g.succs[e.Source] = append(g.succs[e.Source], e)
	g.preds[e.Target] = append(g.preds[e.Target], e)
}

// IR returns the method body the graph was built from.
func (g *CFG) IR() *lang.IR { return g.ir }

// Entry returns the synthetic entry node.
func (g *CFG) Entry() lang.Stmt { return g.entry }

// Exit returns the synthetic exit node.
func (g *CFG) Exit() lang.Stmt { return g.exit }

// Nodes returns all nodes: entry, the statements in order, exit.
func (g *CFG) Nodes() []lang.Stmt { return g.nodes }

// OutEdgesOf returns the classified out-edges of n.
func (g *CFG) OutEdgesOf(n lang.Stmt) []*Edge { return g.succs[n] }

// InEdgesOf returns the classified in-edges of n.
func (g *CFG) InEdgesOf(n lang.Stmt) []*Edge { return g.preds[n] }

// SuccsOf returns the successor nodes of n.
func (g *CFG) SuccsOf(n lang.Stmt) []lang.Stmt {
	out := make([]lang.Stmt, len(g.succs[n]))
	for i, e := range g.succs[n] {
		out[i] = e.Target
	}
	return out
}

// PredsOf returns the predecessor nodes of n.
func (g *CFG) PredsOf(n lang.Stmt) []lang.Stmt {
	out := make([]lang.Stmt, len(g.preds[n]))
	for i, e := range g.preds[n] {
		out[i] = e.Source
	}
	return out
}

func (g *CFG) String() string {
	return fmt.Sprintf("CFG(%s, %d nodes)", g.ir.Method(), len(g.nodes))
}
