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

import "github.com/quartzlab/quartz/internal/funcutil"

// A SetFact is a set-valued dataflow fact whose meet is union, as used by
// the live variable analysis.
type SetFact[T comparable] struct {
	m map[T]bool
}

// NewSetFact returns an empty set fact.
func NewSetFact[T comparable]() *SetFact[T] {
	return &SetFact[T]{m: make(map[T]bool)}
}

// Add inserts x, reporting whether the set grew.
func (f *SetFact[T]) Add(x T) bool {
	if f.m[x] {
		return false
	}
	f.m[x] = true
	return true
}

// Remove deletes x.
func (f *SetFact[T]) Remove(x T) {
	delete(f.m, x)
}

// Contains reports membership of x.
func (f *SetFact[T]) Contains(x T) bool {
	return f.m[x]
}

// Union adds every element of other, reporting whether the set grew.
func (f *SetFact[T]) Union(other *SetFact[T]) bool {
	before := len(f.m)
	funcutil.Union(f.m, other.m)
	return len(f.m) != before
}

// Copy returns an independent copy.
func (f *SetFact[T]) Copy() *SetFact[T] {
	c := NewSetFact[T]()
	c.Union(f)
	return c
}

// SetTo replaces the contents of f with those of other.
func (f *SetFact[T]) SetTo(other *SetFact[T]) {
	f.m = make(map[T]bool, len(other.m))
	funcutil.Union(f.m, other.m)
}

// Equals reports whether both sets hold the same elements.
func (f *SetFact[T]) Equals(other *SetFact[T]) bool {
	if len(f.m) != len(other.m) {
		return false
	}
	for x := range f.m {
		if !other.m[x] {
			return false
		}
	}
	return true
}

// IsEmpty reports whether the set is empty.
func (f *SetFact[T]) IsEmpty() bool {
	return len(f.m) == 0
}

// Size returns the number of elements.
func (f *SetFact[T]) Size() int {
	return len(f.m)
}
