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
	"fmt"
	"sort"
	"strings"

	"github.com/quartzlab/quartz/analysis/lang"
)

// A CPFact maps variables to abstract integer values. A variable absent
// from the map is UNDEF, and equality is semantic: two facts are equal iff
// they agree on every variable under that convention.
type CPFact struct {
	m map[*lang.Var]Value
}

// NewCPFact returns an empty fact.
func NewCPFact() *CPFact {
	return &CPFact{m: make(map[*lang.Var]Value)}
}

// Get returns the value of v, UNDEF if absent.
func (f *CPFact) Get(v *lang.Var) Value {
	return f.m[v]
}

// Update sets the value of v, reporting whether the fact changed.
func (f *CPFact) Update(v *lang.Var, val Value) bool {
	old, ok := f.m[v]
	f.m[v] = val
	return !ok || old != val
}

// Remove deletes v from the fact.
func (f *CPFact) Remove(v *lang.Var) {
	delete(f.m, v)
}

// Clear empties the fact.
func (f *CPFact) Clear() {
	f.m = make(map[*lang.Var]Value)
}

// Copy returns an independent copy of the fact.
func (f *CPFact) Copy() *CPFact {
	c := NewCPFact()
	c.CopyFrom(f)
	return c
}

// CopyFrom writes every entry of other into f, keeping entries of f that
// other lacks.
func (f *CPFact) CopyFrom(other *CPFact) {
	for v, val := range other.m {
		f.m[v] = val
	}
}

// Equals reports semantic equality, treating absent variables as UNDEF.
func (f *CPFact) Equals(other *CPFact) bool {
	for v, val := range f.m {
		if other.Get(v) != val {
			return false
		}
	}
	for v, val := range other.m {
		if f.Get(v) != val {
			return false
		}
	}
	return true
}

// ForEach calls fn on every explicit entry of the fact, in unspecified
// order.
func (f *CPFact) ForEach(fn func(v *lang.Var, val Value)) {
	for v, val := range f.m {
		fn(v, val)
	}
}

// Vars returns the explicitly mapped variables sorted by name, for
// deterministic rendering.
func (f *CPFact) Vars() []*lang.Var {
	vars := make([]*lang.Var, 0, len(f.m))
	for v := range f.m {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].Name() < vars[j].Name() })
	return vars
}

func (f *CPFact) String() string {
	var b strings.Builder
	b.WriteString("{")
	first := true
	for _, v := range f.Vars() {
		// explicitly stored UNDEF is the same as absence
		if f.m[v].IsUndef() {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&b, "%s=%s", v, f.m[v])
	}
	b.WriteString("}")
	return b.String()
}
