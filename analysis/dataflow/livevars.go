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

// LiveVariables is the backward may-analysis computing, at each program
// point, the variables whose current value may still be read. Its out facts
// feed dead-assignment detection.
type LiveVariables struct{}

// NewLiveVariables returns the analysis.
func NewLiveVariables() *LiveVariables {
	return &LiveVariables{}
}

// IsForward reports the direction of the analysis.
func (*LiveVariables) IsForward() bool { return false }

// NewBoundaryFact returns the empty set: nothing is live at exit.
func (*LiveVariables) NewBoundaryFact(g *cfg.CFG) *SetFact[*lang.Var] {
	return NewSetFact[*lang.Var]()
}

// NewInitialFact returns the empty set.
func (*LiveVariables) NewInitialFact() *SetFact[*lang.Var] {
	return NewSetFact[*lang.Var]()
}

// MeetInto unions fact into target.
func (*LiveVariables) MeetInto(fact, target *SetFact[*lang.Var]) {
	target.Union(fact)
}

// TransferNode computes in = uses ∪ (out \ def).
func (*LiveVariables) TransferNode(s lang.Stmt, in, out *SetFact[*lang.Var]) bool {
	next := out.Copy()
	if def, ok := s.(lang.Definition); ok {
		if v := def.Def(); v != nil {
			next.Remove(v)
		}
	}
	for _, u := range s.Uses() {
		next.Add(u)
	}
	changed := !next.Equals(in)
	in.SetTo(next)
	return changed
}
