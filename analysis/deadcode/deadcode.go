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

// Package deadcode detects dead code in a method body: statements made
// unreachable by constant branch conditions, and assignments whose target
// is never read and whose right-hand side cannot trap.
package deadcode

import (
	"github.com/quartzlab/quartz/analysis/cfg"
	"github.com/quartzlab/quartz/analysis/dataflow"
	"github.com/quartzlab/quartz/analysis/lang"
	"golang.org/x/exp/slices"
)

// Find returns the dead statements of the method underlying g, sorted by
// statement index. It consumes the constant propagation result (to fold
// branch conditions) and the live variables result (to spot useless
// assignments).
func Find(
	g *cfg.CFG,
	constants *dataflow.Result[*dataflow.CPFact],
	live *dataflow.Result[*dataflow.SetFact[*lang.Var]],
) []lang.Stmt {
	ir := g.IR()
	pruned := make(map[*cfg.Edge]bool)

	for _, s := range ir.Stmts() {
		switch s := s.(type) {
		case *lang.If:
			v := dataflow.Evaluate(s.Cond, constants.OutFact(s))
			if !v.IsConstant() {
				continue
			}
			loser := cfg.EdgeIfFalse
			if v.Constant() == 0 {
				loser = cfg.EdgeIfTrue
			}
			for _, e := range g.OutEdgesOf(s) {
				if e.Kind == loser {
					pruned[e] = true
				}
			}
		case *lang.Switch:
			v := dataflow.Evaluate(s.V, constants.OutFact(s))
			if !v.IsConstant() {
				continue
			}
			matched := false
			for _, e := range g.OutEdgesOf(s) {
				if e.Kind == cfg.EdgeSwitchCase {
					if e.CaseValue == v.Constant() {
						matched = true
					} else {
						pruned[e] = true
					}
				}
			}
			if matched {
				for _, e := range g.OutEdgesOf(s) {
					if e.Kind == cfg.EdgeSwitchDefault {
						pruned[e] = true
					}
				}
			}
		}
	}

	// statements not reached from entry over surviving edges are dead
	visited := map[lang.Stmt]bool{g.Entry(): true}
	queue := []lang.Stmt{g.Entry()}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, e := range g.OutEdgesOf(n) {
			if pruned[e] || visited[e.Target] {
				continue
			}
			visited[e.Target] = true
			queue = append(queue, e.Target)
		}
	}

	deadSet := make(map[lang.Stmt]bool)
	var dead []lang.Stmt
	mark := func(s lang.Stmt) {
		if !deadSet[s] {
			deadSet[s] = true
			dead = append(dead, s)
		}
	}
	for _, s := range ir.Stmts() {
		if !visited[s] {
			mark(s)
		}
	}

	// an assignment is useless when its target is not live after it and
	// its right-hand side cannot trap or touch the heap
	for _, s := range ir.Stmts() {
		if deadSet[s] {
			continue
		}
		if _, isCall := s.(*lang.Invoke); isCall {
			continue
		}
		def, ok := s.(lang.Definition)
		if !ok || def.Def() == nil {
			continue
		}
		if !live.OutFact(s).Contains(def.Def()) && hasNoSideEffect(def.RHS()) {
			mark(s)
		}
	}

	slices.SortFunc(dead, func(a, b lang.Stmt) bool { return a.Index() < b.Index() })
	return dead
}

// hasNoSideEffect reports whether evaluating the expression can neither
// trap nor be observed: allocations modify the heap, casts and array
// accesses may trap, field accesses may trap or trigger class
// initialization, and integer division/remainder may trap on zero.
func hasNoSideEffect(e lang.Exp) bool {
	switch e := e.(type) {
	case lang.NewExp, *lang.CastExp,
		*lang.InstanceFieldAccess, *lang.StaticFieldAccess, *lang.ArrayAccess:
		return false
	case *lang.BinaryExp:
		return e.Op != lang.Div && e.Op != lang.Rem
	}
	return true
}
