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

// Package pta holds the heap abstraction shared by the pointer analysis
// solvers: canonical abstract objects and the allocation-site heap model.
package pta

import (
	"fmt"

	"github.com/quartzlab/quartz/analysis/lang"
)

// ObjKind distinguishes ordinary allocation-site objects from objects
// synthesized by analysis layers (taint marks).
type ObjKind int

const (
	// AllocObj abstracts all objects created at one allocation site.
	AllocObj ObjKind = iota
	// TaintObj marks data flowing from a configured taint source.
	TaintObj
)

// An Obj is a canonical abstract heap object. Objects are interned (by the
// heap model or the taint manager), so pointer equality is identity and
// objects can key maps directly.
type Obj struct {
	kind ObjKind
	site lang.Stmt // *lang.New for allocations, *lang.Invoke for taint
	typ  lang.Type
}

// Kind returns the object kind.
func (o *Obj) Kind() ObjKind { return o.kind }

// Site returns the statement the object abstracts: the allocation site, or
// the source call for a taint object.
func (o *Obj) Site() lang.Stmt { return o.site }

// Type returns the object's type.
func (o *Obj) Type() lang.Type { return o.typ }

// IsTaint reports whether the object is a synthesized taint mark.
func (o *Obj) IsTaint() bool { return o.kind == TaintObj }

func (o *Obj) String() string {
	if o.IsTaint() {
		return "taint[" + o.typ.String() + "]"
	}
	if m := o.site.Method(); m != nil {
		return fmt.Sprintf("%s@%s/%d", o.typ, m, o.site.Index())
	}
	return fmt.Sprintf("%s@%d", o.typ, o.site.Index())
}

// NewTaintObj returns a fresh taint object; interning is the caller's
// (taint manager's) responsibility.
func NewTaintObj(source *lang.Invoke, t lang.Type) *Obj {
	return &Obj{kind: TaintObj, site: source, typ: t}
}

// A HeapModel maps allocation sites to canonical abstract objects.
type HeapModel interface {
	// ObjOf returns the abstract object of an allocation site. Repeated
	// calls with the same site return the same object.
	ObjOf(s *lang.New) *Obj
}

// AllocSiteModel is the standard allocation-site heap model: one abstract
// object per New statement.
type AllocSiteModel struct {
	objs map[*lang.New]*Obj
}

// NewAllocSiteModel returns an empty allocation-site model.
func NewAllocSiteModel() *AllocSiteModel {
	return &AllocSiteModel{objs: make(map[*lang.New]*Obj)}
}

// ObjOf implements HeapModel.
func (h *AllocSiteModel) ObjOf(s *lang.New) *Obj {
	if o, ok := h.objs[s]; ok {
		return o
	}
	o := &Obj{kind: AllocObj, site: s, typ: s.T}
	h.objs[s] = o
	return o
}
