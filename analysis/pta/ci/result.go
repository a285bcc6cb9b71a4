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

package ci

import (
	"github.com/quartzlab/quartz/analysis/callgraph"
	"github.com/quartzlab/quartz/analysis/lang"
	"github.com/quartzlab/quartz/analysis/pta"
	"golang.org/x/exp/slices"
)

// Result exposes the fixed point of the context-insensitive analysis:
// per-variable points-to sets and the on-the-fly call graph.
type Result struct {
	pfg       *PointerFlowGraph
	callGraph *callgraph.Graph[*lang.Invoke, *lang.Method]
}

// PointsTo returns the points-to set of v (empty if v never flows).
func (r *Result) PointsTo(v *lang.Var) *PointsToSet {
	return r.pfg.VarPtr(v).PointsToSet()
}

// PointsToVar returns the objects v may point to, in discovery order.
func (r *Result) PointsToVar(v *lang.Var) []*pta.Obj {
	return r.PointsTo(v).Objects()
}

// Vars returns every variable the analysis saw, sorted for deterministic
// iteration.
func (r *Result) Vars() []*lang.Var {
	vars := r.pfg.Vars()
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

// CallGraph returns the call graph constructed during the analysis.
func (r *Result) CallGraph() *callgraph.Graph[*lang.Invoke, *lang.Method] {
	return r.callGraph
}
