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

package dataflow

import (
	"github.com/quartzlab/quartz/analysis/cfg"
	"github.com/quartzlab/quartz/analysis/lang"
)

// An Analysis is a monotone dataflow analysis over facts of type F. Facts
// are mutable values owned by the solver; TransferNode mutates the out fact
// (forward) or the in fact (backward) and reports whether it changed.
// Transfer must be monotone, which together with the finite lattice height
// guarantees the solvers terminate.
type Analysis[F any] interface {
	IsForward() bool

	// NewBoundaryFact returns the fact at the boundary node: the entry for
	// a forward analysis, the exit for a backward one.
	NewBoundaryFact(g *cfg.CFG) F

	// NewInitialFact returns the initial fact of every non-boundary node.
	NewInitialFact() F

	// MeetInto meets fact into target, mutating target.
	MeetInto(fact, target F)

	// TransferNode applies the node transfer function and reports whether
	// the written fact changed.
	TransferNode(s lang.Stmt, in, out F) bool
}

// A Result holds the fixed-point in/out facts per CFG node. For a forward
// analysis the in fact is the state before the statement and the out fact
// the state after; a backward analysis mirrors this, so Result (the
// program-order fact after the statement) is the out fact in both cases.
type Result[F any] struct {
	in  map[lang.Stmt]F
	out map[lang.Stmt]F
}

// NewResult returns an empty result, for solvers living outside this
// package (the interprocedural solver).
func NewResult[F any]() *Result[F] {
	return &Result[F]{in: make(map[lang.Stmt]F), out: make(map[lang.Stmt]F)}
}

func newResult[F any]() *Result[F] {
	return NewResult[F]()
}

// InFact returns the fact flowing into s.
func (r *Result[F]) InFact(s lang.Stmt) F { return r.in[s] }

// OutFact returns the fact flowing out of s.
func (r *Result[F]) OutFact(s lang.Stmt) F { return r.out[s] }

// SetInFact stores the in fact of s.
func (r *Result[F]) SetInFact(s lang.Stmt, f F) { r.in[s] = f }

// SetOutFact stores the out fact of s.
func (r *Result[F]) SetOutFact(s lang.Stmt, f F) { r.out[s] = f }

// Solve runs the worklist solver to the fixed point. Any pop order reaches
// the same result; the queue is FIFO so intermediate states are
// deterministic too.
func Solve[F any](a Analysis[F], g *cfg.CFG) *Result[F] {
	if a.IsForward() {
		return solveForward(a, g)
	}
	return solveBackward(a, g)
}

func solveForward[F any](a Analysis[F], g *cfg.CFG) *Result[F] {
	res := newResult[F]()
	res.SetOutFact(g.Entry(), a.NewBoundaryFact(g))
	res.SetInFact(g.Entry(), a.NewInitialFact())
	for _, n := range g.Nodes() {
		if n != g.Entry() {
			res.SetInFact(n, a.NewInitialFact())
			res.SetOutFact(n, a.NewInitialFact())
		}
	}

	q := newQueue[lang.Stmt]()
	for _, n := range g.Nodes() {
		if n != g.Entry() {
			q.push(n)
		}
	}
	for !q.empty() {
		b := q.pop()
		in := a.NewInitialFact()
		for _, p := range g.PredsOf(b) {
			a.MeetInto(res.OutFact(p), in)
		}
		res.SetInFact(b, in)
		if a.TransferNode(b, in, res.OutFact(b)) {
			for _, s := range g.SuccsOf(b) {
				q.push(s)
			}
		}
	}
	return res
}

func solveBackward[F any](a Analysis[F], g *cfg.CFG) *Result[F] {
	res := newResult[F]()
	res.SetInFact(g.Exit(), a.NewBoundaryFact(g))
	res.SetOutFact(g.Exit(), a.NewInitialFact())
	for _, n := range g.Nodes() {
		if n != g.Exit() {
			res.SetInFact(n, a.NewInitialFact())
			res.SetOutFact(n, a.NewInitialFact())
		}
	}

	q := newQueue[lang.Stmt]()
	for _, n := range g.Nodes() {
		if n != g.Exit() {
			q.push(n)
		}
	}
	for !q.empty() {
		b := q.pop()
		out := a.NewInitialFact()
		for _, s := range g.SuccsOf(b) {
			a.MeetInto(res.InFact(s), out)
		}
		res.SetOutFact(b, out)
		if a.TransferNode(b, res.InFact(b), out) {
			for _, p := range g.PredsOf(b) {
				q.push(p)
			}
		}
	}
	return res
}

// SolveNaive runs the naive iterative solver: full sweeps over the CFG until
// a sweep changes nothing. It reaches the same fixed point as Solve.
func SolveNaive[F any](a Analysis[F], g *cfg.CFG) *Result[F] {
	if a.IsForward() {
		return solveNaiveForward(a, g)
	}
	return solveNaiveBackward(a, g)
}

func solveNaiveForward[F any](a Analysis[F], g *cfg.CFG) *Result[F] {
	res := newResult[F]()
	res.SetOutFact(g.Entry(), a.NewBoundaryFact(g))
	res.SetInFact(g.Entry(), a.NewInitialFact())
	for _, n := range g.Nodes() {
		if n != g.Entry() {
			res.SetInFact(n, a.NewInitialFact())
			res.SetOutFact(n, a.NewInitialFact())
		}
	}
	for changed := true; changed; {
		changed = false
		for _, b := range g.Nodes() {
			if b == g.Entry() {
				continue
			}
			in := a.NewInitialFact()
			for _, p := range g.PredsOf(b) {
				a.MeetInto(res.OutFact(p), in)
			}
			res.SetInFact(b, in)
			if a.TransferNode(b, in, res.OutFact(b)) {
				changed = true
			}
		}
	}
	return res
}

func solveNaiveBackward[F any](a Analysis[F], g *cfg.CFG) *Result[F] {
	res := newResult[F]()
	res.SetInFact(g.Exit(), a.NewBoundaryFact(g))
	res.SetOutFact(g.Exit(), a.NewInitialFact())
	for _, n := range g.Nodes() {
		if n != g.Exit() {
			res.SetInFact(n, a.NewInitialFact())
			res.SetOutFact(n, a.NewInitialFact())
		}
	}
	for changed := true; changed; {
		changed = false
		for _, b := range g.Nodes() {
			if b == g.Exit() {
				continue
			}
			out := a.NewInitialFact()
			for _, s := range g.SuccsOf(b) {
				a.MeetInto(res.InFact(s), out)
			}
			res.SetOutFact(b, out)
			if a.TransferNode(b, res.InFact(b), out) {
				changed = true
			}
		}
	}
	return res
}

// queue is a FIFO worklist that holds each element at most once.
type queue[T comparable] struct {
	items []T
	inQ   map[T]bool
}

func newQueue[T comparable]() *queue[T] {
	return &queue[T]{inQ: make(map[T]bool)}
}

func (q *queue[T]) push(x T) {
	if !q.inQ[x] {
		q.inQ[x] = true
		q.items = append(q.items, x)
	}
}

func (q *queue[T]) pop() T {
	x := q.items[0]
	q.items = q.items[1:]
	delete(q.inQ, x)
	return x
}

func (q *queue[T]) empty() bool { return len(q.items) == 0 }
