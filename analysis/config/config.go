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

// Package config holds the analysis options and the leveled logging setup
// shared by the solvers. Options are loaded from a YAML file; fields absent
// from the file keep their zero value.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config contains the options driving an analysis run.
type Config struct {
	Options `yaml:",inline"`

	sourceFile string
}

// Options are the user-settable knobs of the engine.
type Options struct {
	// LogLevel is the verbosity of the run (1=error .. 5=trace). Zero means
	// info.
	LogLevel int `yaml:"log-level"`

	// PTA selects the pointer analysis producing alias information for the
	// interprocedural analyses: "ci" for the context-insensitive solver, or
	// a context-sensitivity policy such as "1-call", "2-obj", "1-type".
	PTA string `yaml:"pta"`

	// TaintConfig is the path of the YAML file declaring taint sources,
	// sinks and transfer rules.
	TaintConfig string `yaml:"taint-config"`
}

// Load reads a Config from a YAML file.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file %s: %w", filename, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("could not parse config file %s: %w", filename, err)
	}
	cfg.sourceFile = filename
	return cfg, nil
}

// SourceFile returns the path the config was loaded from, or "" for a
// config built in memory.
func (c *Config) SourceFile() string { return c.sourceFile }
