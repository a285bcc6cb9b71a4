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

// Package taint layers taint tracking on top of the context-sensitive
// pointer analysis: declarative source, sink and transfer rules loaded from
// a YAML file, synthesized taint objects propagated through the pointer
// flow graph, and source-to-sink flows collected at the fixed point.
package taint

import (
	"fmt"
	"os"

	"github.com/quartzlab/quartz/analysis/lang"
	"gopkg.in/yaml.v3"
)

// TransferBase and TransferResult are the special endpoint indices of
// transfer rules; non-negative indices name call arguments.
const (
	TransferBase   = -1
	TransferResult = -2
)

// A Source declares that calls to Method yield tainted data of the given
// type. The type must equal the method's return type for the rule to fire.
type Source struct {
	Method *lang.Method
	Type   lang.Type
}

// A Sink declares that data reaching argument Index of calls to Method is a
// leak.
type Sink struct {
	Method *lang.Method
	Index  int
}

// A Transfer declares that taint moves across calls to Method from one
// endpoint to another, rematerialized at the given type.
type Transfer struct {
	Method *lang.Method
	From   int
	To     int
	Type   lang.Type
}

// Config holds the resolved taint rules of a run.
type Config struct {
	sources     map[Source]bool
	sinks       map[Sink]bool
	transfers   map[Transfer]bool
	transfersOf map[*lang.Method][]Transfer
}

// NewConfig returns a config with the given resolved rules.
func NewConfig(sources []Source, sinks []Sink, transfers []Transfer) *Config {
	c := &Config{
		sources:     make(map[Source]bool),
		sinks:       make(map[Sink]bool),
		transfers:   make(map[Transfer]bool),
		transfersOf: make(map[*lang.Method][]Transfer),
	}
	for _, s := range sources {
		c.sources[s] = true
	}
	for _, s := range sinks {
		c.sinks[s] = true
	}
	for _, t := range transfers {
		if !c.transfers[t] {
			c.transfers[t] = true
			c.transfersOf[t.Method] = append(c.transfersOf[t.Method], t)
		}
	}
	return c
}

// IsSource reports whether (m, t) is a configured source.
func (c *Config) IsSource(m *lang.Method, t lang.Type) bool {
	return c.sources[Source{Method: m, Type: t}]
}

// IsSink reports whether argument index of m is a configured sink.
func (c *Config) IsSink(m *lang.Method, index int) bool {
	return c.sinks[Sink{Method: m, Index: index}]
}

// HasTransfer reports whether the exact transfer rule is configured.
func (c *Config) HasTransfer(t Transfer) bool {
	return c.transfers[t]
}

// TransfersOf returns the transfer rules of m.
func (c *Config) TransfersOf(m *lang.Method) []Transfer {
	return c.transfersOf[m]
}

// yaml schema of the rules file

type yamlConfig struct {
	Sources   []yamlSource   `yaml:"sources"`
	Sinks     []yamlSink     `yaml:"sinks"`
	Transfers []yamlTransfer `yaml:"transfers"`
}

type yamlSource struct {
	Class  string `yaml:"class"`
	Method string `yaml:"method"`
	Type   string `yaml:"type"`
}

type yamlSink struct {
	Class  string `yaml:"class"`
	Method string `yaml:"method"`
	Index  int    `yaml:"index"`
}

type yamlTransfer struct {
	Class  string `yaml:"class"`
	Method string `yaml:"method"`
	From   string `yaml:"from"`
	To     string `yaml:"to"`
	Type   string `yaml:"type"`
}

// LoadConfig reads the taint rules from a YAML file and resolves the named
// classes, methods and types against the hierarchy. Rules naming unknown
// program elements are errors: a silently dropped rule would silently drop
// findings.
func LoadConfig(path string, h *lang.Hierarchy) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read taint config %s: %w", path, err)
	}
	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("could not parse taint config %s: %w", path, err)
	}

	var sources []Source
	for _, s := range raw.Sources {
		m, err := resolveMethod(h, s.Class, s.Method)
		if err != nil {
			return nil, err
		}
		t := m.ReturnType()
		if s.Type != "" {
			if t, err = resolveType(h, s.Type); err != nil {
				return nil, err
			}
		}
		sources = append(sources, Source{Method: m, Type: t})
	}

	var sinks []Sink
	for _, s := range raw.Sinks {
		m, err := resolveMethod(h, s.Class, s.Method)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, Sink{Method: m, Index: s.Index})
	}

	var transfers []Transfer
	for _, tr := range raw.Transfers {
		m, err := resolveMethod(h, tr.Class, tr.Method)
		if err != nil {
			return nil, err
		}
		from, err := parseEndpoint(tr.From)
		if err != nil {
			return nil, err
		}
		to, err := parseEndpoint(tr.To)
		if err != nil {
			return nil, err
		}
		t, err := resolveType(h, tr.Type)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, Transfer{Method: m, From: from, To: to, Type: t})
	}

	return NewConfig(sources, sinks, transfers), nil
}

func resolveMethod(h *lang.Hierarchy, class, subsig string) (*lang.Method, error) {
	c := h.Class(class)
	if c == nil {
		return nil, fmt.Errorf("taint config names unknown class %q", class)
	}
	m := c.DeclaredMethod(lang.Subsignature(subsig))
	if m == nil {
		return nil, fmt.Errorf("taint config names unknown method %q on class %q", subsig, class)
	}
	return m, nil
}

func resolveType(h *lang.Hierarchy, name string) (lang.Type, error) {
	switch name {
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
	case "void":
		return lang.Void, nil
	}
	if c := h.Class(name); c != nil {
		return c.Type(), nil
	}
	return nil, fmt.Errorf("taint config names unknown type %q", name)
}

func parseEndpoint(s string) (int, error) {
	switch s {
	case "base":
		return TransferBase, nil
	case "result":
		return TransferResult, nil
	}
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil || i < 0 {
		return 0, fmt.Errorf("invalid transfer endpoint %q (want \"base\", \"result\" or an argument index)", s)
	}
	return i, nil
}
