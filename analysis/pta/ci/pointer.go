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

// Package ci implements the context-insensitive, inclusion-based pointer
// analysis: an Andersen-style worklist solver over the pointer flow graph,
// constructing the call graph on the fly.
package ci

import (
	"fmt"

	"github.com/quartzlab/quartz/analysis/lang"
	"github.com/quartzlab/quartz/analysis/pta"
)

// A Pointer is a node of the pointer flow graph: a variable, a static
// field, an instance field slot or the collapsed element slot of an array
// object. Each pointer owns its points-to set.
type Pointer interface {
	PointsToSet() *PointsToSet
	String() string
}

// VarPtr is the pointer of a local variable.
type VarPtr struct {
	v   *lang.Var
	pts *PointsToSet
}

// Var returns the underlying variable.
func (p *VarPtr) Var() *lang.Var { return p.v }

// PointsToSet returns the points-to set owned by the pointer.
func (p *VarPtr) PointsToSet() *PointsToSet { return p.pts }

func (p *VarPtr) String() string {
	if m := p.v.Method(); m != nil {
		return fmt.Sprintf("%s/%s", m, p.v)
	}
	return p.v.String()
}

// StaticFieldPtr is the pointer of a class-level field.
type StaticFieldPtr struct {
	f   *lang.FieldRef
	pts *PointsToSet
}

// Field returns the static field.
func (p *StaticFieldPtr) Field() *lang.FieldRef { return p.f }

// PointsToSet returns the points-to set owned by the pointer.
func (p *StaticFieldPtr) PointsToSet() *PointsToSet { return p.pts }

func (p *StaticFieldPtr) String() string { return p.f.String() }

// InstanceFieldPtr is the pointer of one field slot of one abstract object.
type InstanceFieldPtr struct {
	base *pta.Obj
	f    *lang.FieldRef
	pts  *PointsToSet
}

// Base returns the object owning the slot.
func (p *InstanceFieldPtr) Base() *pta.Obj { return p.base }

// Field returns the field of the slot.
func (p *InstanceFieldPtr) Field() *lang.FieldRef { return p.f }

// PointsToSet returns the points-to set owned by the pointer.
func (p *InstanceFieldPtr) PointsToSet() *PointsToSet { return p.pts }

func (p *InstanceFieldPtr) String() string {
	return fmt.Sprintf("%s.%s", p.base, p.f.Name())
}

// ArrayIndexPtr is the flow-insensitive element slot of one array object;
// indices are erased.
type ArrayIndexPtr struct {
	array *pta.Obj
	pts   *PointsToSet
}

// Array returns the array object.
func (p *ArrayIndexPtr) Array() *pta.Obj { return p.array }

// PointsToSet returns the points-to set owned by the pointer.
func (p *ArrayIndexPtr) PointsToSet() *PointsToSet { return p.pts }

func (p *ArrayIndexPtr) String() string { return p.array.String() + "[*]" }

// A PointsToSet is a growing set of abstract objects. Iteration follows
// insertion order, so propagation is deterministic.
type PointsToSet struct {
	set   map[*pta.Obj]bool
	order []*pta.Obj
}

// NewPointsToSet returns a set holding the given objects.
func NewPointsToSet(objs ...*pta.Obj) *PointsToSet {
	s := &PointsToSet{set: make(map[*pta.Obj]bool)}
	for _, o := range objs {
		s.Add(o)
	}
	return s
}

// Add inserts o, reporting whether the set grew.
func (s *PointsToSet) Add(o *pta.Obj) bool {
	if s.set[o] {
		return false
	}
	s.set[o] = true
	s.order = append(s.order, o)
	return true
}

// Contains reports membership of o.
func (s *PointsToSet) Contains(o *pta.Obj) bool { return s.set[o] }

// ForEach calls fn on each object in insertion order.
func (s *PointsToSet) ForEach(fn func(o *pta.Obj)) {
	for _, o := range s.order {
		fn(o)
	}
}

// Objects returns the objects in insertion order. The slice is shared; do
// not mutate it.
func (s *PointsToSet) Objects() []*pta.Obj { return s.order }

// IsEmpty reports whether the set is empty.
func (s *PointsToSet) IsEmpty() bool { return len(s.order) == 0 }

// Len returns the number of objects.
func (s *PointsToSet) Len() int { return len(s.order) }

// Intersects reports whether the two sets share an object.
func (s *PointsToSet) Intersects(other *PointsToSet) bool {
	small, large := s, other
	if large.Len() < small.Len() {
		small, large = large, small
	}
	for _, o := range small.order {
		if large.set[o] {
			return true
		}
	}
	return false
}

func (s *PointsToSet) String() string {
	return fmt.Sprint(s.order)
}
