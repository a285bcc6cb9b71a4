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
	"strconv"
	"strings"

	"github.com/quartzlab/quartz/analysis/lang"
	"github.com/quartzlab/quartz/analysis/pta"
)

// A Selector picks the contexts qualifying methods and heap objects. The
// empty context is distinguished; heap-synthesized objects (taint marks)
// live there unless the selector decides otherwise.
type Selector interface {
	// EmptyContext returns the distinguished empty context of this run.
	EmptyContext() *Context

	// SelectHeapContext picks the heap context of an object allocated while
	// analyzing csMethod.
	SelectHeapContext(csMethod *CSMethod, obj *pta.Obj) *Context

	// SelectStaticContext picks the callee context of a static call.
	SelectStaticContext(site *CSCallSite, callee *lang.Method) *Context

	// SelectInstanceContext picks the callee context of an instance call
	// with the given receiver object.
	SelectInstanceContext(site *CSCallSite, recv *CSObj, callee *lang.Method) *Context
}

// SelectorFor returns the selector named by a context-sensitivity policy:
// "ci" (or "insensitive"), "k-call", "k-obj" or "k-type" with k a small
// positive integer, e.g. "2-call".
func SelectorFor(policy string) (Selector, error) {
	if policy == "" || policy == "ci" || policy == "insensitive" {
		return NewInsensitiveSelector(), nil
	}
	variant, kstr, ok := cutPolicy(policy)
	if ok {
		k, err := strconv.Atoi(kstr)
		if err == nil && k >= 1 {
			switch variant {
			case "call":
				return NewKCallSelector(k), nil
			case "obj":
				return NewKObjSelector(k), nil
			case "type":
				return NewKTypeSelector(k), nil
			}
		}
	}
	return nil, fmt.Errorf("unknown context-sensitivity policy %q", policy)
}

func cutPolicy(policy string) (variant, k string, ok bool) {
	i := strings.IndexByte(policy, '-')
	if i < 0 {
		return "", "", false
	}
	return policy[i+1:], policy[:i], true
}

// InsensitiveSelector keeps everything in the empty context, reducing the
// solver to the context-insensitive analysis.
type InsensitiveSelector struct {
	empty *Context
}

// NewInsensitiveSelector returns the context-insensitive policy.
func NewInsensitiveSelector() *InsensitiveSelector {
	return &InsensitiveSelector{empty: NewEmptyContext()}
}

func (s *InsensitiveSelector) EmptyContext() *Context { return s.empty }

func (s *InsensitiveSelector) SelectHeapContext(*CSMethod, *pta.Obj) *Context { return s.empty }

func (s *InsensitiveSelector) SelectStaticContext(*CSCallSite, *lang.Method) *Context {
	return s.empty
}

func (s *InsensitiveSelector) SelectInstanceContext(*CSCallSite, *CSObj, *lang.Method) *Context {
	return s.empty
}

// KCallSelector is k-limited call-site sensitivity: callee contexts are the
// newest k call sites of the call chain, heap contexts the newest k-1.
type KCallSelector struct {
	k     int
	empty *Context
}

// NewKCallSelector returns k-call-site sensitivity.
func NewKCallSelector(k int) *KCallSelector {
	return &KCallSelector{k: k, empty: NewEmptyContext()}
}

func (s *KCallSelector) EmptyContext() *Context { return s.empty }

func (s *KCallSelector) SelectHeapContext(m *CSMethod, _ *pta.Obj) *Context {
	return m.Context().Limit(s.k - 1)
}

func (s *KCallSelector) SelectStaticContext(site *CSCallSite, _ *lang.Method) *Context {
	return site.Context().Append(site.Site(), s.k)
}

func (s *KCallSelector) SelectInstanceContext(site *CSCallSite, _ *CSObj, _ *lang.Method) *Context {
	return site.Context().Append(site.Site(), s.k)
}

// KObjSelector is k-limited object sensitivity: callee contexts extend the
// receiver object's heap context with the receiver object itself.
type KObjSelector struct {
	k     int
	empty *Context
}

// NewKObjSelector returns k-object sensitivity.
func NewKObjSelector(k int) *KObjSelector {
	return &KObjSelector{k: k, empty: NewEmptyContext()}
}

func (s *KObjSelector) EmptyContext() *Context { return s.empty }

func (s *KObjSelector) SelectHeapContext(m *CSMethod, _ *pta.Obj) *Context {
	return m.Context().Limit(s.k - 1)
}

func (s *KObjSelector) SelectStaticContext(site *CSCallSite, _ *lang.Method) *Context {
	// static calls inherit the caller's context
	return site.Context()
}

func (s *KObjSelector) SelectInstanceContext(_ *CSCallSite, recv *CSObj, _ *lang.Method) *Context {
	return recv.HeapContext().Append(recv.Obj(), s.k)
}

// KTypeSelector is k-limited type sensitivity: like object sensitivity but
// contexts hold the classes containing the allocation sites, trading
// precision for fewer contexts.
type KTypeSelector struct {
	k     int
	empty *Context
}

// NewKTypeSelector returns k-type sensitivity.
func NewKTypeSelector(k int) *KTypeSelector {
	return &KTypeSelector{k: k, empty: NewEmptyContext()}
}

func (s *KTypeSelector) EmptyContext() *Context { return s.empty }

func (s *KTypeSelector) SelectHeapContext(m *CSMethod, _ *pta.Obj) *Context {
	return m.Context().Limit(s.k - 1)
}

func (s *KTypeSelector) SelectStaticContext(site *CSCallSite, _ *lang.Method) *Context {
	return site.Context()
}

func (s *KTypeSelector) SelectInstanceContext(_ *CSCallSite, recv *CSObj, _ *lang.Method) *Context {
	return recv.HeapContext().Append(allocContainerType(recv.Obj()), s.k)
}

// allocContainerType returns the type of the class whose method contains
// the allocation site, the context element of type sensitivity. Synthetic
// objects fall back to their own type.
func allocContainerType(o *pta.Obj) lang.Type {
	if alloc, ok := o.Site().(*lang.New); ok && alloc.L.Method() != nil {
		return alloc.L.Method().Class().Type()
	}
	return o.Type()
}
