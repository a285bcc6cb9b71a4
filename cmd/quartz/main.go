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

// quartz analyzes programs given as YAML IR descriptions: whole-program
// constant propagation, dead code, call graphs, pointer analysis and taint
// tracking.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/quartzlab/quartz/analysis/callgraph"
	"github.com/quartzlab/quartz/analysis/config"
	"github.com/quartzlab/quartz/analysis/pta/cs"
	"github.com/quartzlab/quartz/analysis/taint"
	"github.com/quartzlab/quartz/internal/formatutil"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string // path to the analysis config file
	noColour bool   // disable colour output
)

var rootCmd = &cobra.Command{
	Use:   "quartz",
	Short: "Whole-program static analysis for a class-based IR",
	Long: `quartz runs dataflow, pointer and taint analyses over programs
described in the YAML IR format.

Use "quartz analyze program.yaml" for the full report.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColour {
			color.NoColor = true
		}
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <program.yaml>",
	Short: "Run all analyses and print the report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, lg, err := loadConfig()
		if err != nil {
			return err
		}
		prog, err := LoadProgram(args[0])
		if err != nil {
			return err
		}
		sel, err := cs.SelectorFor(cfg.PTA)
		if err != nil {
			return err
		}
		var rules *taint.Config
		if cfg.TaintConfig != "" {
			if rules, err = taint.LoadConfig(cfg.TaintConfig, prog.Hierarchy()); err != nil {
				return err
			}
		}
		fmt.Print(runReport(prog, rules, sel, lg))
		return nil
	},
}

var callgraphCmd = &cobra.Command{
	Use:   "callgraph <program.yaml>",
	Short: "Build the CHA call graph and print its edges",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, lg, err := loadConfig()
		if err != nil {
			return err
		}
		prog, err := LoadProgram(args[0])
		if err != nil {
			return err
		}
		g := callgraph.BuildCHA(prog, lg)
		for _, e := range g.Edges() {
			fmt.Printf("%s/%d -> %s\n",
				formatutil.Cyan(e.Site.Method()), e.Site.Index(), formatutil.Cyan(e.Callee))
		}
		sccs := g.SCCs(callgraph.CallSitesIn)
		recursive := 0
		for _, scc := range sccs {
			if len(scc) > 1 {
				recursive++
			}
		}
		fmt.Printf("%s %d methods, %d edges, %d recursive groups\n",
			formatutil.Bold("total:"), len(g.ReachableMethods()), len(g.Edges()), recursive)
		return nil
	},
}

var taintCmd = &cobra.Command{
	Use:   "taint <program.yaml>",
	Short: "Run the taint analysis and print detected flows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, lg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.TaintConfig == "" {
			return fmt.Errorf("no taint-config set in %s", cfgFile)
		}
		prog, err := LoadProgram(args[0])
		if err != nil {
			return err
		}
		rules, err := taint.LoadConfig(cfg.TaintConfig, prog.Hierarchy())
		if err != nil {
			return err
		}
		sel, err := cs.SelectorFor(cfg.PTA)
		if err != nil {
			return err
		}
		flows, _ := taint.Analyze(prog, rules, sel, lg)
		if len(flows) == 0 {
			fmt.Println(formatutil.Green("no taint flows detected"))
			return nil
		}
		for _, f := range flows {
			fmt.Println(formatutil.Red(f.String()))
		}
		return nil
	},
}

func loadConfig() (*config.Config, *config.LogGroup, error) {
	cfg := &config.Config{}
	if cfgFile != "" {
		var err error
		if cfg, err = config.Load(cfgFile); err != nil {
			return nil, nil, err
		}
	}
	return cfg, config.NewLogGroup(cfg), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "analysis config file (YAML)")
	rootCmd.PersistentFlags().BoolVar(&noColour, "no-colour", false, "disable colour output")
	rootCmd.AddCommand(analyzeCmd, callgraphCmd, taintCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
