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

// Package interproc lifts constant propagation onto the interprocedural
// CFG: facts flow through call, return and call-to-return edges, and heap
// locations (fields, array slots) are tracked flow-insensitively through
// the alias information of a pointer analysis.
package interproc

import (
	"github.com/quartzlab/quartz/analysis/cfg"
	"github.com/quartzlab/quartz/analysis/dataflow"
	"github.com/quartzlab/quartz/analysis/lang"
)

// An Analysis is a forward interprocedural dataflow analysis over the ICFG.
// Node transfers distinguish call nodes from ordinary nodes; edge transfers
// are applied to the source's out fact before it is met into the target's
// in fact.
type Analysis[F any] interface {
	// NewBoundaryFact returns the fact at the program entry node.
	NewBoundaryFact(entry lang.Stmt) F

	// NewInitialFact returns the initial fact of every other node.
	NewInitialFact() F

	// MeetInto meets fact into target, mutating target.
	MeetInto(fact, target F)

	// TransferCallNode transfers a call-site node.
	TransferCallNode(s lang.Stmt, in, out F) bool

	// TransferNonCallNode transfers an ordinary node.
	TransferNonCallNode(s lang.Stmt, in, out F) bool

	// TransferNormalEdge transfers an ordinary intraprocedural edge.
	TransferNormalEdge(e *cfg.ICFGEdge, out F) F

	// TransferCallToReturnEdge transfers the edge skipping over a call.
	TransferCallToReturnEdge(e *cfg.ICFGEdge, out F) F

	// TransferCallEdge transfers a call edge into the callee.
	TransferCallEdge(e *cfg.ICFGEdge, callSiteOut F) F

	// TransferReturnEdge transfers a return edge back to the caller.
	TransferReturnEdge(e *cfg.ICFGEdge, returnOut F) F
}

// Solver drives an interprocedural analysis over an ICFG to its fixed
// point with a FIFO worklist.
type Solver[F any] struct {
	analysis Analysis[F]
	icfg     *cfg.ICFG
	result   *dataflow.Result[F]

	queue []lang.Stmt
	inQ   map[lang.Stmt]bool
}

// NewSolver returns a solver for the given analysis and graph.
func NewSolver[F any](a Analysis[F], g *cfg.ICFG) *Solver[F] {
	return &Solver[F]{analysis: a, icfg: g, inQ: make(map[lang.Stmt]bool)}
}

// Solve runs to the fixed point and returns the per-node facts.
func (s *Solver[F]) Solve() *dataflow.Result[F] {
	s.initialize()
	s.run()
	return s.result
}

func (s *Solver[F]) initialize() {
	s.result = dataflow.NewResult[F]()
	entry := s.icfg.Entry()
	for _, n := range s.icfg.Nodes() {
		if n == entry {
			s.result.SetInFact(n, s.analysis.NewInitialFact())
			s.result.SetOutFact(n, s.analysis.NewBoundaryFact(entry))
			continue
		}
		s.result.SetInFact(n, s.analysis.NewInitialFact())
		s.result.SetOutFact(n, s.analysis.NewInitialFact())
		s.Enqueue(n)
	}
}

func (s *Solver[F]) run() {
	for len(s.queue) > 0 {
		b := s.queue[0]
		s.queue = s.queue[1:]
		delete(s.inQ, b)

		in := s.analysis.NewInitialFact()
		for _, e := range s.icfg.InEdgesOf(b) {
			s.analysis.MeetInto(s.transferEdge(e, s.result.OutFact(e.Source)), in)
		}
		s.result.SetInFact(b, in)

		var changed bool
		if _, isCall := b.(*lang.Invoke); isCall {
			changed = s.analysis.TransferCallNode(b, in, s.result.OutFact(b))
		} else {
			changed = s.analysis.TransferNonCallNode(b, in, s.result.OutFact(b))
		}
		if changed {
			for _, e := range s.icfg.OutEdgesOf(b) {
				s.Enqueue(e.Target)
			}
		}
	}
}

func (s *Solver[F]) transferEdge(e *cfg.ICFGEdge, out F) F {
	switch e.Kind {
	case cfg.ICFGCall:
		return s.analysis.TransferCallEdge(e, out)
	case cfg.ICFGReturn:
		return s.analysis.TransferReturnEdge(e, out)
	case cfg.ICFGCallToReturn:
		return s.analysis.TransferCallToReturnEdge(e, out)
	default:
		return s.analysis.TransferNormalEdge(e, out)
	}
}

// Enqueue schedules a node for (re-)analysis. The heap-aware analysis uses
// it to dirty the loads that depend on a changed store; the solver
// guarantees they are re-analyzed before termination.
func (s *Solver[F]) Enqueue(n lang.Stmt) {
	if s.inQ[n] {
		return
	}
	s.inQ[n] = true
	s.queue = append(s.queue, n)
}
