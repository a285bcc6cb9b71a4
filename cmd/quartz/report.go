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

package main

import (
	"fmt"
	"strings"

	"github.com/quartzlab/quartz/analysis/cfg"
	"github.com/quartzlab/quartz/analysis/config"
	"github.com/quartzlab/quartz/analysis/dataflow"
	"github.com/quartzlab/quartz/analysis/deadcode"
	"github.com/quartzlab/quartz/analysis/interproc"
	"github.com/quartzlab/quartz/analysis/lang"
	"github.com/quartzlab/quartz/analysis/pta"
	"github.com/quartzlab/quartz/analysis/pta/ci"
	"github.com/quartzlab/quartz/analysis/pta/cs"
	"github.com/quartzlab/quartz/analysis/taint"
	"golang.org/x/exp/slices"
)

// runReport runs the full pipeline over prog and renders a deterministic
// text report: interprocedural constants, dead code, call graph, points-to
// sets and (when rules are given) taint flows.
func runReport(prog *lang.Program, rules *taint.Config, sel cs.Selector, lg *config.LogGroup) string {
	var b strings.Builder

	ptaRes := ci.Solve(prog, pta.NewAllocSiteModel(), lg)
	icfg := cfg.BuildICFG(prog, ptaRes.CallGraph())
	inter := interproc.Analyze(icfg, ptaRes, lg)

	methods := reachableMethods(ptaRes)

	b.WriteString("== constants ==\n")
	for _, m := range methods {
		fmt.Fprintf(&b, "%s\n", m)
		for _, s := range m.IR().Stmts() {
			fmt.Fprintf(&b, "  %d: %s :: %s\n", s.Index(), s, inter.OutFact(s))
		}
	}

	b.WriteString("== dead code ==\n")
	for _, m := range methods {
		g := icfg.CFGOf(m)
		constants := dataflow.Solve[*dataflow.CPFact](dataflow.NewConstantPropagation(), g)
		live := dataflow.Solve[*dataflow.SetFact[*lang.Var]](dataflow.NewLiveVariables(), g)
		dead := deadcode.Find(g, constants, live)
		if len(dead) == 0 {
			continue
		}
		indices := make([]string, len(dead))
		for i, s := range dead {
			indices[i] = fmt.Sprint(s.Index())
		}
		fmt.Fprintf(&b, "%s: [%s]\n", m, strings.Join(indices, " "))
	}

	b.WriteString("== call graph ==\n")
	var edges []string
	for _, e := range ptaRes.CallGraph().Edges() {
		edges = append(edges, fmt.Sprintf("%s/%d -> %s", e.Site.Method(), e.Site.Index(), e.Callee))
	}
	slices.Sort(edges)
	for _, e := range edges {
		fmt.Fprintf(&b, "%s\n", e)
	}

	b.WriteString("== points-to ==\n")
	for _, v := range ptaRes.Vars() {
		pts := ptaRes.PointsTo(v)
		if pts.IsEmpty() {
			continue
		}
		objs := make([]string, 0, pts.Len())
		pts.ForEach(func(o *pta.Obj) { objs = append(objs, o.String()) })
		slices.Sort(objs)
		fmt.Fprintf(&b, "%s/%s: {%s}\n", v.Method(), v, strings.Join(objs, ", "))
	}

	if rules != nil {
		b.WriteString("== taint flows ==\n")
		flows, _ := taint.Analyze(prog, rules, sel, lg)
		for _, f := range flows {
			fmt.Fprintf(&b, "%s\n", f)
		}
	}
	return b.String()
}

// reachableMethods returns the reachable methods with a body, sorted by
// signature.
func reachableMethods(res *ci.Result) []*lang.Method {
	var methods []*lang.Method
	for _, m := range res.CallGraph().ReachableMethods() {
		if m.IR() != nil {
			methods = append(methods, m)
		}
	}
	slices.SortFunc(methods, func(a, b *lang.Method) bool { return a.String() < b.String() })
	return methods
}
