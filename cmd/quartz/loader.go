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

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/quartzlab/quartz/analysis/lang"
	"gopkg.in/yaml.v3"
)

// The program description format: a YAML rendering of the IR, so the tool
// can exercise the engine without a bytecode frontend. One document declares
// classes with fields and methods; method bodies are statement lists
// referring to branch targets by statement index.

type yamlProgram struct {
	Classes []yamlClass `yaml:"classes"`
	Main    string      `yaml:"main"` // class declaring "void main()"
}

type yamlClass struct {
	Name       string       `yaml:"name"`
	Super      string       `yaml:"super"`
	Interface  bool         `yaml:"interface"`
	Interfaces []string     `yaml:"interfaces"`
	Fields     []yamlField  `yaml:"fields"`
	Methods    []yamlMethod `yaml:"methods"`
}

type yamlField struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Static bool   `yaml:"static"`
}

type yamlMethod struct {
	Name     string            `yaml:"name"`
	Return   string            `yaml:"return"`
	Params   []string          `yaml:"params"`
	Static   bool              `yaml:"static"`
	Abstract bool              `yaml:"abstract"`
	Vars     map[string]string `yaml:"vars"`
	Body     []yamlStmt        `yaml:"body"`
}

type yamlStmt struct {
	Op     string   `yaml:"op"`
	To     string   `yaml:"to"`
	From   string   `yaml:"from"`
	Value  int32    `yaml:"value"`
	Type   string   `yaml:"type"`
	X      string   `yaml:"x"`
	Y      string   `yaml:"y"`
	Op2    string   `yaml:"operator"`
	Target int      `yaml:"target"`
	Base   string   `yaml:"base"`
	Field  string   `yaml:"field"` // "Class.name"
	Index  string   `yaml:"index"`
	Kind   string   `yaml:"kind"`
	Class  string   `yaml:"class"`
	Method string   `yaml:"method"` // subsignature
	Args   []string `yaml:"args"`
	Var    string   `yaml:"var"`
	Cases  []struct {
		Value  int32 `yaml:"value"`
		Target int   `yaml:"target"`
	} `yaml:"cases"`
	Default int `yaml:"default"`
}

// LoadProgram reads a program description and builds the IR.
func LoadProgram(path string) (*lang.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read program %s: %w", path, err)
	}
	var raw yamlProgram
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("could not parse program %s: %w", path, err)
	}

	l := &loader{h: lang.NewHierarchy(), fields: map[string]*lang.FieldRef{}}
	if err := l.declareClasses(raw.Classes); err != nil {
		return nil, err
	}
	if err := l.buildBodies(raw.Classes); err != nil {
		return nil, err
	}

	mainClass := l.h.Class(raw.Main)
	if mainClass == nil {
		return nil, fmt.Errorf("main class %q not declared", raw.Main)
	}
	mainM := mainClass.DeclaredMethod(lang.MakeSubsignature("main", lang.Void, nil))
	if mainM == nil {
		return nil, fmt.Errorf("class %q declares no void main()", raw.Main)
	}
	return lang.NewProgram(l.h, mainM)
}

type loader struct {
	h      *lang.Hierarchy
	fields map[string]*lang.FieldRef // "Class.name"
}

// declareClasses registers all classes, fields and method signatures before
// bodies are built, so forward references resolve.
func (l *loader) declareClasses(classes []yamlClass) error {
	// two passes: supers may be declared later in the file
	pending := make(map[string]yamlClass, len(classes))
	for _, yc := range classes {
		pending[yc.Name] = yc
	}
	var declare func(name string) error
	declare = func(name string) error {
		yc, ok := pending[name]
		if !ok {
			if l.h.Class(name) != nil {
				return nil
			}
			return fmt.Errorf("class %q referenced but not declared", name)
		}
		delete(pending, name)

		var super *lang.Class
		if yc.Super != "" {
			if err := declare(yc.Super); err != nil {
				return err
			}
			super = l.h.Class(yc.Super)
		}
		var ifaces []*lang.Class
		for _, in := range yc.Interfaces {
			if err := declare(in); err != nil {
				return err
			}
			ifaces = append(ifaces, l.h.Class(in))
		}
		if yc.Interface {
			l.h.NewInterface(yc.Name, ifaces...)
		} else {
			l.h.NewClass(yc.Name, super, ifaces...)
		}
		return nil
	}
	for _, yc := range classes {
		if err := declare(yc.Name); err != nil {
			return err
		}
	}

	for _, yc := range classes {
		c := l.h.Class(yc.Name)
		for _, yf := range yc.Fields {
			t, err := l.typeOf(yf.Type)
			if err != nil {
				return err
			}
			l.fields[yc.Name+"."+yf.Name] = l.h.FieldRef(c, yf.Name, t, yf.Static)
		}
		for _, ym := range yc.Methods {
			ret, err := l.typeOf(ym.Return)
			if err != nil {
				return err
			}
			params := make([]lang.Type, len(ym.Params))
			for i, p := range ym.Params {
				if params[i], err = l.typeOf(p); err != nil {
					return err
				}
			}
			var attrs []lang.MethodAttr
			if ym.Static {
				attrs = append(attrs, lang.Static)
			}
			if ym.Abstract {
				attrs = append(attrs, lang.Abstract)
			}
			c.NewMethod(ym.Name, ret, params, attrs...)
		}
	}
	return nil
}

func (l *loader) buildBodies(classes []yamlClass) error {
	for _, yc := range classes {
		c := l.h.Class(yc.Name)
		for _, ym := range yc.Methods {
			if ym.Abstract {
				continue
			}
			if err := l.buildBody(c, ym); err != nil {
				return fmt.Errorf("in %s.%s: %w", yc.Name, ym.Name, err)
			}
		}
	}
	return nil
}

func (l *loader) buildBody(c *lang.Class, ym yamlMethod) error {
	ret, _ := l.typeOf(ym.Return)
	paramTypes := make([]lang.Type, len(ym.Params))
	for i, p := range ym.Params {
		paramTypes[i], _ = l.typeOf(p)
	}
	m := c.DeclaredMethod(lang.MakeSubsignature(ym.Name, ret, paramTypes))

	vars := map[string]*lang.Var{}
	var this *lang.Var
	if !ym.Static {
		this = lang.NewVar("this", c.Type())
		vars["this"] = this
	}
	var params []*lang.Var
	for i, pt := range paramTypes {
		p := lang.NewVar(fmt.Sprintf("p%d", i), pt)
		params = append(params, p)
		vars[p.Name()] = p
	}
	for name, tn := range ym.Vars {
		t, err := l.typeOf(tn)
		if err != nil {
			return err
		}
		vars[name] = lang.NewVar(name, t)
	}
	v := func(name string) (*lang.Var, error) {
		if name == "" {
			return nil, nil
		}
		x, ok := vars[name]
		if !ok {
			return nil, fmt.Errorf("undeclared variable %q", name)
		}
		return x, nil
	}

	// first pass: create statements; second pass: patch branch targets
	stmts := make([]lang.Stmt, len(ym.Body))
	type patch struct {
		stmt lang.Stmt
		ys   yamlStmt
	}
	var patches []patch
	for i, ys := range ym.Body {
		s, needsPatch, err := l.buildStmt(ys, v)
		if err != nil {
			return fmt.Errorf("statement %d: %w", i, err)
		}
		stmts[i] = s
		if needsPatch {
			patches = append(patches, patch{stmt: s, ys: ys})
		}
	}
	for _, p := range patches {
		switch s := p.stmt.(type) {
		case *lang.If:
			s.Target = stmts[p.ys.Target]
		case *lang.Goto:
			s.Target = stmts[p.ys.Target]
		case *lang.Switch:
			for i, yc := range p.ys.Cases {
				s.Cases[i].Target = stmts[yc.Target]
			}
			s.Default = stmts[p.ys.Default]
		}
	}

	lang.NewIR(m, this, params, stmts)
	return nil
}

func (l *loader) buildStmt(ys yamlStmt, v func(string) (*lang.Var, error)) (lang.Stmt, bool, error) {
	switch ys.Op {
	case "const":
		to, err := v(ys.To)
		if err != nil {
			return nil, false, err
		}
		return &lang.Assign{L: to, R: lang.IntLiteral{Value: ys.Value}}, false, nil
	case "copy":
		to, err := v(ys.To)
		if err != nil {
			return nil, false, err
		}
		from, err := v(ys.From)
		if err != nil {
			return nil, false, err
		}
		return &lang.Copy{L: to, R: from}, false, nil
	case "new":
		to, err := v(ys.To)
		if err != nil {
			return nil, false, err
		}
		t, err := l.typeOf(ys.Type)
		if err != nil {
			return nil, false, err
		}
		return &lang.New{L: to, T: t}, false, nil
	case "binary":
		to, err := v(ys.To)
		if err != nil {
			return nil, false, err
		}
		x, err := v(ys.X)
		if err != nil {
			return nil, false, err
		}
		y, err := v(ys.Y)
		if err != nil {
			return nil, false, err
		}
		op, err := binaryOp(ys.Op2)
		if err != nil {
			return nil, false, err
		}
		return &lang.Assign{L: to, R: &lang.BinaryExp{Op: op, X: x, Y: y}}, false, nil
	case "if":
		x, err := v(ys.X)
		if err != nil {
			return nil, false, err
		}
		y, err := v(ys.Y)
		if err != nil {
			return nil, false, err
		}
		op, err := binaryOp(ys.Op2)
		if err != nil {
			return nil, false, err
		}
		if !op.IsCondition() {
			return nil, false, fmt.Errorf("operator %q is not a condition", ys.Op2)
		}
		return &lang.If{Cond: &lang.BinaryExp{Op: op, X: x, Y: y}}, true, nil
	case "goto":
		return &lang.Goto{}, true, nil
	case "switch":
		x, err := v(ys.X)
		if err != nil {
			return nil, false, err
		}
		s := &lang.Switch{V: x, Cases: make([]lang.SwitchCase, len(ys.Cases))}
		for i, yc := range ys.Cases {
			s.Cases[i].Value = yc.Value
		}
		return s, true, nil
	case "load":
		to, err := v(ys.To)
		if err != nil {
			return nil, false, err
		}
		access, err := l.fieldAccess(ys, v)
		if err != nil {
			return nil, false, err
		}
		return &lang.LoadField{L: to, Access: access}, false, nil
	case "store":
		from, err := v(ys.From)
		if err != nil {
			return nil, false, err
		}
		access, err := l.fieldAccess(ys, v)
		if err != nil {
			return nil, false, err
		}
		return &lang.StoreField{Access: access, R: from}, false, nil
	case "aload":
		to, err := v(ys.To)
		if err != nil {
			return nil, false, err
		}
		access, err := l.arrayAccess(ys, v)
		if err != nil {
			return nil, false, err
		}
		return &lang.LoadArray{L: to, Access: access}, false, nil
	case "astore":
		from, err := v(ys.From)
		if err != nil {
			return nil, false, err
		}
		access, err := l.arrayAccess(ys, v)
		if err != nil {
			return nil, false, err
		}
		return &lang.StoreArray{Access: access, R: from}, false, nil
	case "invoke":
		return l.invoke(ys, v)
	case "return":
		x, err := v(ys.Var)
		if err != nil {
			return nil, false, err
		}
		return &lang.Return{V: x}, false, nil
	case "nop":
		return &lang.Nop{}, false, nil
	}
	return nil, false, fmt.Errorf("unknown statement op %q", ys.Op)
}

func (l *loader) invoke(ys yamlStmt, v func(string) (*lang.Var, error)) (lang.Stmt, bool, error) {
	kind, err := callKind(ys.Kind)
	if err != nil {
		return nil, false, err
	}
	cls := l.h.Class(ys.Class)
	if cls == nil {
		return nil, false, fmt.Errorf("call names unknown class %q", ys.Class)
	}
	to, err := v(ys.To)
	if err != nil {
		return nil, false, err
	}
	base, err := v(ys.Base)
	if err != nil {
		return nil, false, err
	}
	if (base == nil) != kind.IsStatic() {
		return nil, false, fmt.Errorf("receiver mismatch for %s call", kind)
	}
	args := make([]*lang.Var, len(ys.Args))
	for i, an := range ys.Args {
		if args[i], err = v(an); err != nil {
			return nil, false, err
		}
	}
	return &lang.Invoke{L: to, Call: &lang.InvokeExp{
		Kind: kind,
		Ref:  lang.MethodRef{Class: cls, Subsig: lang.Subsignature(ys.Method)},
		Base: base,
		Args: args,
	}}, false, nil
}

func (l *loader) fieldAccess(ys yamlStmt, v func(string) (*lang.Var, error)) (lang.FieldAccess, error) {
	ref, ok := l.fields[ys.Field]
	if !ok {
		return nil, fmt.Errorf("unknown field %q", ys.Field)
	}
	if ys.Base == "" {
		if !ref.IsStatic() {
			return nil, fmt.Errorf("instance field %q accessed without base", ys.Field)
		}
		return &lang.StaticFieldAccess{Field: ref}, nil
	}
	base, err := v(ys.Base)
	if err != nil {
		return nil, err
	}
	return &lang.InstanceFieldAccess{Base: base, Field: ref}, nil
}

func (l *loader) arrayAccess(ys yamlStmt, v func(string) (*lang.Var, error)) (*lang.ArrayAccess, error) {
	base, err := v(ys.Base)
	if err != nil {
		return nil, err
	}
	idx, err := v(ys.Index)
	if err != nil {
		return nil, err
	}
	if base == nil || idx == nil {
		return nil, fmt.Errorf("array access needs base and index")
	}
	return &lang.ArrayAccess{Base: base, Index: idx}, nil
}

func (l *loader) typeOf(name string) (lang.Type, error) {
	if name == "" {
		return lang.Void, nil
	}
	if elem, ok := strings.CutSuffix(name, "[]"); ok {
		t, err := l.typeOf(elem)
		if err != nil {
			return nil, err
		}
		return lang.ArrayType{Elem: t}, nil
	}
	switch name {
	case "void":
		return lang.Void, nil
	case "boolean":
		return lang.Boolean, nil
	case "byte":
		return lang.Byte, nil
	case "short":
		return lang.Short, nil
	case "char":
		return lang.Char, nil
	case "int":
		return lang.Int, nil
	case "long":
		return lang.Long, nil
	case "float":
		return lang.Float, nil
	case "double":
		return lang.Double, nil
	}
	if c := l.h.Class(name); c != nil {
		return c.Type(), nil
	}
	return nil, fmt.Errorf("unknown type %q", name)
}

func binaryOp(name string) (lang.BinaryOp, error) {
	ops := map[string]lang.BinaryOp{
		"add": lang.Add, "sub": lang.Sub, "mul": lang.Mul, "div": lang.Div, "rem": lang.Rem,
		"and": lang.And, "or": lang.Or, "xor": lang.Xor,
		"shl": lang.Shl, "shr": lang.Shr, "ushr": lang.Ushr,
		"eq": lang.Eq, "ne": lang.Ne, "lt": lang.Lt, "gt": lang.Gt, "le": lang.Le, "ge": lang.Ge,
	}
	op, ok := ops[name]
	if !ok {
		return 0, fmt.Errorf("unknown operator %q", name)
	}
	return op, nil
}

func callKind(name string) (lang.CallKind, error) {
	switch name {
	case "static":
		return lang.CallStatic, nil
	case "special":
		return lang.CallSpecial, nil
	case "virtual":
		return lang.CallVirtual, nil
	case "interface":
		return lang.CallInterface, nil
	}
	return 0, fmt.Errorf("unknown call kind %q", name)
}
