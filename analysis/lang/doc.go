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

// Package lang defines the intermediate representation consumed by the
// analyses: types, classes, methods, fields, variables, expressions and
// statements, together with the class hierarchy that relates them.
//
// The IR models a managed, class-based object-oriented language with dynamic
// dispatch, heap-allocated objects, arrays and static/instance fields. A
// frontend (bytecode or source) is expected to produce this representation;
// the analyses only consume it. Statements of a method are held by an IR
// value, in order, with stable indices assigned at construction.
//
// All identities in this package are interned: classes, methods, field
// references and variables are canonical pointers, so they can be used
// directly as map keys by the analyses.
package lang
