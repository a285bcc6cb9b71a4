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

import (
	"fmt"
	"strings"

	"github.com/quartzlab/quartz/internal/graphutil"
	"golang.org/x/exp/slices"
)

// Hierarchy is the class hierarchy: the registry of all classes and
// interfaces of the program under analysis, with direct-descendant lookups
// used by call-graph construction.
type Hierarchy struct {
	classes map[string]*Class
	order   []*Class

	subclasses    map[*Class][]*Class // class -> classes directly extending it
	subinterfaces map[*Class][]*Class // interface -> interfaces directly extending it
	implementors  map[*Class][]*Class // interface -> classes directly implementing it

	fieldRefs map[fieldRefKey]*FieldRef
}

type fieldRefKey struct {
	class  *Class
	name   string
	typ    Type
	static bool
}

// NewHierarchy returns an empty class hierarchy.
func NewHierarchy() *Hierarchy {
	return &Hierarchy{
		classes:       make(map[string]*Class),
		subclasses:    make(map[*Class][]*Class),
		subinterfaces: make(map[*Class][]*Class),
		implementors:  make(map[*Class][]*Class),
		fieldRefs:     make(map[fieldRefKey]*FieldRef),
	}
}

// NewClass registers a class named name with superclass super (nil for a
// root class) and the given directly implemented interfaces.
func (h *Hierarchy) NewClass(name string, super *Class, interfaces ...*Class) *Class {
	c := h.register(name, super, interfaces, false)
	if super != nil {
		h.subclasses[super] = append(h.subclasses[super], c)
	}
	for _, itf := range interfaces {
		h.implementors[itf] = append(h.implementors[itf], c)
	}
	return c
}

// NewInterface registers an interface named name with the given directly
// extended superinterfaces.
func (h *Hierarchy) NewInterface(name string, supers ...*Class) *Class {
	c := h.register(name, nil, supers, true)
	for _, s := range supers {
		h.subinterfaces[s] = append(h.subinterfaces[s], c)
	}
	return c
}

func (h *Hierarchy) register(name string, super *Class, interfaces []*Class, isInterface bool) *Class {
	if _, dup := h.classes[name]; dup {
		panic(fmt.Sprintf("class %s registered twice", name))
	}
	c := &Class{
		hierarchy:   h,
		name:        name,
		super:       super,
		interfaces:  interfaces,
		isInterface: isInterface,
		methods:     make(map[Subsignature]*Method),
	}
	h.classes[name] = c
	h.order = append(h.order, c)
	return c
}

// Class looks up a class or interface by name, or nil if absent.
func (h *Hierarchy) Class(name string) *Class {
	return h.classes[name]
}

// Classes returns all registered classes and interfaces in registration order.
func (h *Hierarchy) Classes() []*Class {
	return h.order
}

// DirectSubclassesOf returns the classes that directly extend c.
func (h *Hierarchy) DirectSubclassesOf(c *Class) []*Class {
	return h.subclasses[c]
}

// DirectSubinterfacesOf returns the interfaces that directly extend itf.
func (h *Hierarchy) DirectSubinterfacesOf(itf *Class) []*Class {
	return h.subinterfaces[itf]
}

// DirectImplementorsOf returns the classes that directly implement itf.
func (h *Hierarchy) DirectImplementorsOf(itf *Class) []*Class {
	return h.implementors[itf]
}

// FieldRef returns the canonical reference for the field of class c with the
// given name, type and staticness. References are interned so they can be
// compared with == and used as map keys.
func (h *Hierarchy) FieldRef(c *Class, name string, t Type, static bool) *FieldRef {
	key := fieldRefKey{class: c, name: name, typ: t, static: static}
	if ref, ok := h.fieldRefs[key]; ok {
		return ref
	}
	ref := &FieldRef{class: c, name: name, typ: t, static: static}
	h.fieldRefs[key] = ref
	return ref
}

// Validate checks structural sanity of the hierarchy. A cyclic superclass or
// superinterface chain is a programmer error that would send dispatch into an
// infinite loop, so it is rejected up front. The error names the offending
// chain, found by elementary-cycle enumeration over the extends/implements
// graph.
func (h *Hierarchy) Validate() error {
	succs := func(c *Class) []*Class {
		var out []*Class
		if c.super != nil {
			out = append(out, c.super)
		}
		out = append(out, c.interfaces...)
		return out
	}

	cyclic := false
	for _, scc := range graphutil.StronglyConnectedComponents(h.order, succs) {
		if len(scc) > 1 {
			cyclic = true
			break
		}
	}
	if !cyclic {
	selfloop:
		for _, c := range h.order {
			for _, s := range succs(c) {
				if s == c {
					cyclic = true
					break selfloop
				}
			}
		}
	}
	if !cyclic {
		return nil
	}

	cycles := graphutil.ElementaryCycles(graphutil.New(h.order, succs))
	if len(cycles) == 0 {
		return fmt.Errorf("cyclic superclass chain")
	}
	msgs := make([]string, len(cycles))
	for i, cyc := range cycles {
		names := make([]string, len(cyc))
		for j, c := range cyc {
			names[j] = c.Name()
		}
		msgs[i] = strings.Join(names, " -> ")
	}
	slices.Sort(msgs)
	return fmt.Errorf("cyclic superclass chain: %s", msgs[0])
}
