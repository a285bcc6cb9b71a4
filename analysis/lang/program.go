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

package lang

import "fmt"

// A Program bundles the class hierarchy with the entry method. It is the
// injected context object the analyses operate on; the engine never relies
// on process-global state.
type Program struct {
	hierarchy *Hierarchy
	main      *Method
}

// NewProgram returns a program rooted at main. The hierarchy is validated;
// a malformed hierarchy (cyclic superclass chain) is rejected here, before
// any analysis can loop on it.
func NewProgram(h *Hierarchy, main *Method) (*Program, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if main == nil {
		return nil, fmt.Errorf("program has no entry method")
	}
	if main.IR() == nil {
		return nil, fmt.Errorf("entry method %s has no body", main)
	}
	return &Program{hierarchy: h, main: main}, nil
}

// Hierarchy returns the class hierarchy.
func (p *Program) Hierarchy() *Hierarchy { return p.hierarchy }

// MainMethod returns the program entry method.
func (p *Program) MainMethod() *Method { return p.main }

// Methods returns every declared method of every class, in declaration
// order. Iteration order is deterministic.
func (p *Program) Methods() []*Method {
	var out []*Method
	for _, c := range p.hierarchy.Classes() {
		out = append(out, c.DeclaredMethods()...)
	}
	return out
}
