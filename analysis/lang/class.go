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
)

// A Class is a class or interface of the program under analysis. Classes are
// interned by their Hierarchy; pointer equality is identity.
type Class struct {
	hierarchy   *Hierarchy
	name        string
	super       *Class
	interfaces  []*Class
	isInterface bool

	methods     map[Subsignature]*Method
	methodOrder []*Method
}

// Name returns the fully qualified class name.
func (c *Class) Name() string { return c.name }

// Super returns the direct superclass, or nil for a root class or interface.
func (c *Class) Super() *Class { return c.super }

// Interfaces returns the directly implemented (or, for an interface,
// directly extended) interfaces.
func (c *Class) Interfaces() []*Class { return c.interfaces }

// IsInterface reports whether c is an interface.
func (c *Class) IsInterface() bool { return c.isInterface }

// Hierarchy returns the hierarchy c belongs to.
func (c *Class) Hierarchy() *Hierarchy { return c.hierarchy }

// Type returns the reference type of c.
func (c *Class) Type() ClassType { return ClassType{Class: c} }

func (c *Class) String() string { return c.name }

// DeclaredMethod returns the method declared on c (not inherited) with the
// given subsignature, or nil.
func (c *Class) DeclaredMethod(sig Subsignature) *Method {
	return c.methods[sig]
}

// DeclaredMethods returns the methods declared on c in declaration order.
func (c *Class) DeclaredMethods() []*Method {
	return c.methodOrder
}

// MethodAttr is a bitset of method attributes.
type MethodAttr uint

const (
	// Static marks a class-level method (no receiver).
	Static MethodAttr = 1 << iota
	// Abstract marks a method without a body; abstract methods are skipped
	// by dispatch.
	Abstract
)

// NewMethod declares a method on c with the given name, return type and
// parameter types. Declaring the same subsignature twice is a programmer
// error.
func (c *Class) NewMethod(name string, ret Type, params []Type, attrs ...MethodAttr) *Method {
	var a MethodAttr
	for _, x := range attrs {
		a |= x
	}
	m := &Method{
		class:  c,
		name:   name,
		params: params,
		ret:    ret,
		attrs:  a,
	}
	m.subsig = MakeSubsignature(name, ret, params)
	if _, dup := c.methods[m.subsig]; dup {
		panic(fmt.Sprintf("method %s declared twice on %s", m.subsig, c.name))
	}
	c.methods[m.subsig] = m
	c.methodOrder = append(c.methodOrder, m)
	return m
}

// A Subsignature identifies a method within a class: name, parameter types
// and return type. Subsignatures are plain strings, so value equality is
// identity.
type Subsignature string

// MakeSubsignature builds the subsignature string for a method shape, e.g.
// "int m(int,int)".
func MakeSubsignature(name string, ret Type, params []Type) Subsignature {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return Subsignature(fmt.Sprintf("%s %s(%s)", ret, name, strings.Join(parts, ",")))
}

// A Method is a method declared on a class. Methods are interned by their
// class; pointer equality is identity.
type Method struct {
	class  *Class
	name   string
	params []Type
	ret    Type
	attrs  MethodAttr
	subsig Subsignature
	ir     *IR
}

// Class returns the declaring class.
func (m *Method) Class() *Class { return m.class }

// Name returns the method name.
func (m *Method) Name() string { return m.name }

// ReturnType returns the declared return type.
func (m *Method) ReturnType() Type { return m.ret }

// ParamTypes returns the declared parameter types.
func (m *Method) ParamTypes() []Type { return m.params }

// ParamCount returns the number of declared parameters.
func (m *Method) ParamCount() int { return len(m.params) }

// IsStatic reports whether m is a class-level method.
func (m *Method) IsStatic() bool { return m.attrs&Static != 0 }

// IsAbstract reports whether m has no body.
func (m *Method) IsAbstract() bool { return m.attrs&Abstract != 0 }

// Subsignature returns the subsignature used for dispatch.
func (m *Method) Subsignature() Subsignature { return m.subsig }

// IR returns the method body, or nil for abstract methods.
func (m *Method) IR() *IR { return m.ir }

// String renders the full method signature, e.g. "<A: int m(int)>".
func (m *Method) String() string {
	return fmt.Sprintf("<%s: %s>", m.class.name, m.subsig)
}

// A FieldRef is the canonical reference to a field of a class. References
// are interned by the hierarchy; pointer equality is identity.
type FieldRef struct {
	class  *Class
	name   string
	typ    Type
	static bool
}

// Class returns the class declaring the field.
func (f *FieldRef) Class() *Class { return f.class }

// Name returns the field name.
func (f *FieldRef) Name() string { return f.name }

// Type returns the declared field type.
func (f *FieldRef) Type() Type { return f.typ }

// IsStatic reports whether the field is class-level.
func (f *FieldRef) IsStatic() bool { return f.static }

// String renders the field reference, e.g. "<A: int f>".
func (f *FieldRef) String() string {
	return fmt.Sprintf("<%s: %s %s>", f.class.name, f.typ, f.name)
}

// A MethodRef names the target of a call site: the declaring class named at
// the site and the callee subsignature.
type MethodRef struct {
	Class  *Class
	Subsig Subsignature
}

// Resolve returns the method declaration the reference names, walking up the
// superclass chain from the declaring class. Abstract declarations are
// returned as-is; dispatch to a concrete body is the call-graph builder's
// job. Returns nil if no declaration matches.
func (r MethodRef) Resolve() *Method {
	for c := r.Class; c != nil; c = c.super {
		if m := c.methods[r.Subsig]; m != nil {
			return m
		}
	}
	return nil
}

func (r MethodRef) String() string {
	return fmt.Sprintf("<%s: %s>", r.Class.name, r.Subsig)
}
