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

package taint

import (
	"github.com/quartzlab/quartz/analysis/lang"
	"github.com/quartzlab/quartz/analysis/pta"
)

// Manager synthesizes and registers taint objects. Objects are keyed by
// (source call site, type): rematerializing the same key returns the same
// object, which keeps transfer rules from synthesizing unboundedly.
type Manager struct {
	taints  map[taintKey]*pta.Obj
	sources map[*pta.Obj]*lang.Invoke
}

type taintKey struct {
	site *lang.Invoke
	typ  lang.Type
}

// NewManager returns an empty taint registry.
func NewManager() *Manager {
	return &Manager{
		taints:  make(map[taintKey]*pta.Obj),
		sources: make(map[*pta.Obj]*lang.Invoke),
	}
}

// MakeTaint returns the canonical taint object for data of type t
// originating at the given source call.
func (m *Manager) MakeTaint(source *lang.Invoke, t lang.Type) *pta.Obj {
	key := taintKey{site: source, typ: t}
	if o, ok := m.taints[key]; ok {
		return o
	}
	o := pta.NewTaintObj(source, t)
	m.taints[key] = o
	m.sources[o] = source
	return o
}

// IsTaint reports whether o was synthesized by this manager.
func (m *Manager) IsTaint(o *pta.Obj) bool {
	_, ok := m.sources[o]
	return ok
}

// SourceCall returns the source call site o originated from, or nil if o is
// not a taint object of this manager.
func (m *Manager) SourceCall(o *pta.Obj) *lang.Invoke {
	return m.sources[o]
}
