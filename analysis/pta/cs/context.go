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

// Package cs implements the context-sensitive pointer analysis: the same
// inclusion-based propagation as package ci, with every pointer and method
// qualified by a context chosen by a pluggable selector.
package cs

import (
	"fmt"
	"strings"
)

// A Context is an interned, immutable sequence of context elements (call
// sites, abstract objects or types, depending on the selector). Contexts
// form a trie rooted at the empty context, so equal element sequences are
// the same pointer and contexts can key maps directly.
type Context struct {
	parent   *Context
	elem     any
	depth    int
	children map[any]*Context
}

// NewEmptyContext returns the distinguished empty context, the root of a
// fresh context trie.
func NewEmptyContext() *Context {
	return &Context{}
}

// IsEmpty reports whether c is the empty context.
func (c *Context) IsEmpty() bool { return c.parent == nil }

// Depth returns the number of elements.
func (c *Context) Depth() int { return c.depth }

// Elems returns the elements from oldest to newest.
func (c *Context) Elems() []any {
	elems := make([]any, c.depth)
	for cur := c; cur.parent != nil; cur = cur.parent {
		elems[cur.depth-1] = cur.elem
	}
	return elems
}

func (c *Context) root() *Context {
	cur := c
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

func (c *Context) child(elem any) *Context {
	if c.children == nil {
		c.children = make(map[any]*Context)
	}
	if ch, ok := c.children[elem]; ok {
		return ch
	}
	ch := &Context{parent: c, elem: elem, depth: c.depth + 1}
	c.children[elem] = ch
	return ch
}

// make interns the context with the given elements under c's root.
func (c *Context) make(elems []any) *Context {
	cur := c.root()
	for _, e := range elems {
		cur = cur.child(e)
	}
	return cur
}

// Append returns the context c ++ [elem], keeping only the newest limit
// elements (k-limiting).
func (c *Context) Append(elem any, limit int) *Context {
	elems := append(c.Elems(), elem)
	if len(elems) > limit {
		elems = elems[len(elems)-limit:]
	}
	return c.make(elems)
}

// Limit returns the context restricted to its newest limit elements.
func (c *Context) Limit(limit int) *Context {
	if limit < 0 {
		limit = 0
	}
	if c.depth <= limit {
		return c
	}
	elems := c.Elems()
	return c.make(elems[len(elems)-limit:])
}

func (c *Context) String() string {
	elems := c.Elems()
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = fmt.Sprint(e)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
