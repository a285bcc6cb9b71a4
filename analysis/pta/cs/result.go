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

package cs

import (
	"github.com/quartzlab/quartz/analysis/callgraph"
	"github.com/quartzlab/quartz/analysis/lang"
	"github.com/quartzlab/quartz/analysis/pta"
	"golang.org/x/exp/slices"
)

// Result exposes the fixed point of the context-sensitive analysis, both in
// context-qualified form and collapsed over contexts for consumers that
// only need context-insensitive facts.
type Result struct {
	manager   *Manager
	callGraph *callgraph.Graph[*CSCallSite, *CSMethod]
}

// PointsTo returns the points-to set of a context-qualified variable.
func (r *Result) PointsTo(v *CSVar) *PointsToSet { return v.PointsToSet() }

// PointsToVar returns the objects v may point to in any context, collapsed
// and deduplicated, in discovery order.
func (r *Result) PointsToVar(v *lang.Var) []*pta.Obj {
	seen := make(map[*pta.Obj]bool)
	var out []*pta.Obj
	for _, csVar := range r.manager.CSVarsOf(v) {
		csVar.PointsToSet().ForEach(func(o *CSObj) {
			if !seen[o.Obj()] {
				seen[o.Obj()] = true
				out = append(out, o.Obj())
			}
		})
	}
	return out
}

// Vars returns every variable the analysis saw, sorted for deterministic
// iteration.
func (r *Result) Vars() []*lang.Var {
	vars := r.manager.Vars()
	slices.SortFunc(vars, func(a, b *lang.Var) bool {
		am, bm := "", ""
		if a.Method() != nil {
			am = a.Method().String()
		}
		if b.Method() != nil {
			bm = b.Method().String()
		}
		if am != bm {
			return am < bm
		}
		return a.Name() < b.Name()
	})
	return vars
}

// CallGraph returns the context-sensitive call graph.
func (r *Result) CallGraph() *callgraph.Graph[*CSCallSite, *CSMethod] {
	return r.callGraph
}

// Manager returns the element manager backing the result.
func (r *Result) Manager() *Manager { return r.manager }
