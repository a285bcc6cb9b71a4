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
	"fmt"

	"github.com/quartzlab/quartz/analysis/lang"
	"github.com/quartzlab/quartz/analysis/pta"
)

// A Pointer is a node of the context-sensitive pointer flow graph. Each
// pointer owns its points-to set of context-qualified objects.
type Pointer interface {
	PointsToSet() *PointsToSet
	String() string
}

// CSVar is a variable qualified by a context.
type CSVar struct {
	ctx *Context
	v   *lang.Var
	pts *PointsToSet
}

// Context returns the qualifying context.
func (p *CSVar) Context() *Context { return p.ctx }

// Var returns the underlying variable.
func (p *CSVar) Var() *lang.Var { return p.v }

// PointsToSet returns the points-to set owned by the pointer.
func (p *CSVar) PointsToSet() *PointsToSet { return p.pts }

func (p *CSVar) String() string { return fmt.Sprintf("%s:%s", p.ctx, p.v) }

// CSObj is an abstract object qualified by its heap context.
type CSObj struct {
	heapCtx *Context
	obj     *pta.Obj
}

// HeapContext returns the heap context.
func (o *CSObj) HeapContext() *Context { return o.heapCtx }

// Obj returns the underlying abstract object.
func (o *CSObj) Obj() *pta.Obj { return o.obj }

func (o *CSObj) String() string { return fmt.Sprintf("%s:%s", o.heapCtx, o.obj) }

// CSCallSite is a call site qualified by the caller's context.
type CSCallSite struct {
	ctx  *Context
	site *lang.Invoke
}

// Context returns the caller context.
func (c *CSCallSite) Context() *Context { return c.ctx }

// Site returns the underlying call site.
func (c *CSCallSite) Site() *lang.Invoke { return c.site }

func (c *CSCallSite) String() string { return fmt.Sprintf("%s:%s", c.ctx, c.site) }

// CSMethod is a method qualified by a context.
type CSMethod struct {
	ctx *Context
	m   *lang.Method
}

// Context returns the qualifying context.
func (c *CSMethod) Context() *Context { return c.ctx }

// Method returns the underlying method.
func (c *CSMethod) Method() *lang.Method { return c.m }

func (c *CSMethod) String() string { return fmt.Sprintf("%s:%s", c.ctx, c.m) }

// StaticField is the pointer of a class-level field; static fields are not
// context-qualified.
type StaticField struct {
	f   *lang.FieldRef
	pts *PointsToSet
}

// Field returns the static field.
func (p *StaticField) Field() *lang.FieldRef { return p.f }

// PointsToSet returns the points-to set owned by the pointer.
func (p *StaticField) PointsToSet() *PointsToSet { return p.pts }

func (p *StaticField) String() string { return p.f.String() }

// InstanceField is the pointer of one field slot of one context-qualified
// object.
type InstanceField struct {
	base *CSObj
	f    *lang.FieldRef
	pts  *PointsToSet
}

// Base returns the object owning the slot.
func (p *InstanceField) Base() *CSObj { return p.base }

// Field returns the field of the slot.
func (p *InstanceField) Field() *lang.FieldRef { return p.f }

// PointsToSet returns the points-to set owned by the pointer.
func (p *InstanceField) PointsToSet() *PointsToSet { return p.pts }

func (p *InstanceField) String() string {
	return fmt.Sprintf("%s.%s", p.base, p.f.Name())
}

// ArrayIndex is the collapsed element slot of one context-qualified array
// object.
type ArrayIndex struct {
	array *CSObj
	pts   *PointsToSet
}

// Array returns the array object.
func (p *ArrayIndex) Array() *CSObj { return p.array }

// PointsToSet returns the points-to set owned by the pointer.
func (p *ArrayIndex) PointsToSet() *PointsToSet { return p.pts }

func (p *ArrayIndex) String() string { return p.array.String() + "[*]" }

// Manager interns every context-sensitive element, so all of them can be
// compared with == and used as map keys.
type Manager struct {
	vars           map[csVarKey]*CSVar
	varsOf         map[*lang.Var][]*CSVar
	objs           map[csObjKey]*CSObj
	callSites      map[csSiteKey]*CSCallSite
	methods        map[csMethodKey]*CSMethod
	staticFields   map[*lang.FieldRef]*StaticField
	instanceFields map[csFieldKey]*InstanceField
	arrayIndexes   map[*CSObj]*ArrayIndex
}

type (
	csVarKey struct {
		ctx *Context
		v   *lang.Var
	}
	csObjKey struct {
		ctx *Context
		o   *pta.Obj
	}
	csSiteKey struct {
		ctx  *Context
		site *lang.Invoke
	}
	csMethodKey struct {
		ctx *Context
		m   *lang.Method
	}
	csFieldKey struct {
		base *CSObj
		f    *lang.FieldRef
	}
)

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{
		vars:           make(map[csVarKey]*CSVar),
		varsOf:         make(map[*lang.Var][]*CSVar),
		objs:           make(map[csObjKey]*CSObj),
		callSites:      make(map[csSiteKey]*CSCallSite),
		methods:        make(map[csMethodKey]*CSMethod),
		staticFields:   make(map[*lang.FieldRef]*StaticField),
		instanceFields: make(map[csFieldKey]*InstanceField),
		arrayIndexes:   make(map[*CSObj]*ArrayIndex),
	}
}

// CSVar returns the canonical context-qualified variable.
func (mg *Manager) CSVar(ctx *Context, v *lang.Var) *CSVar {
	key := csVarKey{ctx: ctx, v: v}
	if p, ok := mg.vars[key]; ok {
		return p
	}
	p := &CSVar{ctx: ctx, v: v, pts: NewPointsToSet()}
	mg.vars[key] = p
	mg.varsOf[v] = append(mg.varsOf[v], p)
	return p
}

// CSVarsOf returns every context-qualified version of v seen so far.
func (mg *Manager) CSVarsOf(v *lang.Var) []*CSVar { return mg.varsOf[v] }

// Vars returns the distinct variables with at least one qualified version.
func (mg *Manager) Vars() []*lang.Var {
	out := make([]*lang.Var, 0, len(mg.varsOf))
	for v := range mg.varsOf {
		out = append(out, v)
	}
	return out
}

// CSObj returns the canonical context-qualified object.
func (mg *Manager) CSObj(heapCtx *Context, o *pta.Obj) *CSObj {
	key := csObjKey{ctx: heapCtx, o: o}
	if p, ok := mg.objs[key]; ok {
		return p
	}
	p := &CSObj{heapCtx: heapCtx, obj: o}
	mg.objs[key] = p
	return p
}

// CSCallSite returns the canonical context-qualified call site.
func (mg *Manager) CSCallSite(ctx *Context, site *lang.Invoke) *CSCallSite {
	key := csSiteKey{ctx: ctx, site: site}
	if p, ok := mg.callSites[key]; ok {
		return p
	}
	p := &CSCallSite{ctx: ctx, site: site}
	mg.callSites[key] = p
	return p
}

// CSMethod returns the canonical context-qualified method.
func (mg *Manager) CSMethod(ctx *Context, m *lang.Method) *CSMethod {
	key := csMethodKey{ctx: ctx, m: m}
	if p, ok := mg.methods[key]; ok {
		return p
	}
	p := &CSMethod{ctx: ctx, m: m}
	mg.methods[key] = p
	return p
}

// StaticField returns the canonical pointer of static field f.
func (mg *Manager) StaticField(f *lang.FieldRef) *StaticField {
	if p, ok := mg.staticFields[f]; ok {
		return p
	}
	p := &StaticField{f: f, pts: NewPointsToSet()}
	mg.staticFields[f] = p
	return p
}

// InstanceField returns the canonical pointer of the field slot (base, f).
func (mg *Manager) InstanceField(base *CSObj, f *lang.FieldRef) *InstanceField {
	key := csFieldKey{base: base, f: f}
	if p, ok := mg.instanceFields[key]; ok {
		return p
	}
	p := &InstanceField{base: base, f: f, pts: NewPointsToSet()}
	mg.instanceFields[key] = p
	return p
}

// ArrayIndex returns the canonical element slot pointer of array.
func (mg *Manager) ArrayIndex(array *CSObj) *ArrayIndex {
	if p, ok := mg.arrayIndexes[array]; ok {
		return p
	}
	p := &ArrayIndex{array: array, pts: NewPointsToSet()}
	mg.arrayIndexes[array] = p
	return p
}

// A PointsToSet is a growing set of context-qualified objects. Iteration
// follows insertion order, so propagation is deterministic.
type PointsToSet struct {
	set   map[*CSObj]bool
	order []*CSObj
}

// NewPointsToSet returns a set holding the given objects.
func NewPointsToSet(objs ...*CSObj) *PointsToSet {
	s := &PointsToSet{set: make(map[*CSObj]bool)}
	for _, o := range objs {
		s.Add(o)
	}
	return s
}

// Add inserts o, reporting whether the set grew.
func (s *PointsToSet) Add(o *CSObj) bool {
	if s.set[o] {
		return false
	}
	s.set[o] = true
	s.order = append(s.order, o)
	return true
}

// Contains reports membership of o.
func (s *PointsToSet) Contains(o *CSObj) bool { return s.set[o] }

// ForEach calls fn on each object in insertion order.
func (s *PointsToSet) ForEach(fn func(o *CSObj)) {
	for _, o := range s.order {
		fn(o)
	}
}

// Objects returns the objects in insertion order. The slice is shared; do
// not mutate it.
func (s *PointsToSet) Objects() []*CSObj { return s.order }

// IsEmpty reports whether the set is empty.
func (s *PointsToSet) IsEmpty() bool { return len(s.order) == 0 }

// Len returns the number of objects.
func (s *PointsToSet) Len() int { return len(s.order) }

func (s *PointsToSet) String() string { return fmt.Sprint(s.order) }
