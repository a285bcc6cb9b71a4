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

// Package formatutil styles terminal output. Styling is disabled when
// stdout is not a terminal, so reports stay clean when redirected.
package formatutil

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

func init() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		color.NoColor = true
	}
}

var (
	// Bold styles section headings.
	Bold = color.New(color.Bold).SprintFunc()
	// Faint styles progress and secondary output.
	Faint = color.New(color.Faint).SprintFunc()
	// Red styles taint flows and errors.
	Red = color.New(color.FgRed, color.Bold).SprintFunc()
	// Green styles summary lines.
	Green = color.New(color.FgGreen).SprintFunc()
	// Yellow styles warnings and dead-code findings.
	Yellow = color.New(color.FgYellow).SprintFunc()
	// Cyan styles identifiers quoted in reports.
	Cyan = color.New(color.FgCyan).SprintFunc()
)
