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

// A Type is the declared type of a variable, field or method signature
// element. The concrete implementations (PrimType, ClassType, ArrayType) are
// all comparable values, so types can be compared with == and used as map
// keys.
type Type interface {
	String() string
	isType()
}

// PrimType is a primitive type of the IR's source language.
type PrimType int

// The primitive types. Void only appears as a method return type.
const (
	Void PrimType = iota
	Boolean
	Byte
	Short
	Char
	Int
	Long
	Float
	Double
)

func (t PrimType) isType() {}

func (t PrimType) String() string {
	switch t {
	case Void:
		return "void"
	case Boolean:
		return "boolean"
	case Byte:
		return "byte"
	case Short:
		return "short"
	case Char:
		return "char"
	case Int:
		return "int"
	case Long:
		return "long"
	case Float:
		return "float"
	case Double:
		return "double"
	}
	return "unknown"
}

// ClassType is the reference type of a class or interface.
type ClassType struct {
	Class *Class
}

func (t ClassType) isType() {}

func (t ClassType) String() string {
	return t.Class.Name()
}

// ArrayType is the type of arrays with element type Elem. Indices are erased
// by the analyses, but the element type is kept for reporting.
type ArrayType struct {
	Elem Type
}

func (t ArrayType) isType() {}

func (t ArrayType) String() string {
	return t.Elem.String() + "[]"
}

// CanHoldInt reports whether a value of type t is treated as a 32-bit integer
// by constant propagation. Wider numeric types (long, float, double) are
// intentionally unmodeled.
func CanHoldInt(t Type) bool {
	switch t {
	case Byte, Short, Int, Char, Boolean:
		return true
	}
	return false
}
