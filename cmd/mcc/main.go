// Copyright 2022 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command mcc is the command-line front end for the incremental C-subset
// compiler: it wires flags to a driver.Config, drives driver.Run, and
// renders accumulated diagnostics to stderr.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mcc-lang/mcc/asmir"
	"github.com/mcc-lang/mcc/diag"
	"github.com/mcc-lang/mcc/driver"
	"github.com/mcc-lang/mcc/engine"
	"github.com/mcc-lang/mcc/parse"
	"github.com/mcc-lang/mcc/source"
	"github.com/mcc-lang/mcc/tac"
)

// stopStage names the pipeline stage after which compilation should
// stop, selected by one of --lex/--parse/--tacky/--codegen.
type stopStage int

const (
	stopNever stopStage = iota
	stopAfterParse
	stopAfterLower
	stopAfterCodegen
)

// stageCallbacks is the default observer: it renders every accumulated
// diagnostic as it arrives, halts the pipeline as soon as an
// Error-or-worse diagnostic has been seen, and otherwise honours
// whichever of --lex/--parse/--tacky/--codegen was requested.
type stageCallbacks struct {
	driver.NoopCallbacks
	fileSet      *diag.FileSet
	color        diag.Color
	stop         stopStage
	keepAssembly bool
	inputPath    string
	failed       bool
}

func (c *stageCallbacks) report(diags []diag.Diagnostic) {
	for _, d := range diags {
		_ = c.fileSet.Emit(os.Stderr, d, c.color)
		if d.Severity >= diag.Error {
			c.failed = true
		}
	}
}

func (c *stageCallbacks) AfterParse(sess *engine.Session, file source.File, ast *parse.AST, diags []diag.Diagnostic) driver.Flow {
	c.report(diags)
	if c.failed || c.stop == stopAfterParse {
		return driver.Break
	}
	return driver.Continue
}

func (c *stageCallbacks) AfterLower(sess *engine.Session, program *tac.Program, diags []diag.Diagnostic) driver.Flow {
	c.report(diags)
	if c.failed || c.stop == stopAfterLower {
		return driver.Break
	}
	return driver.Continue
}

func (c *stageCallbacks) AfterCodegen(sess *engine.Session, program *asmir.Program, diags []diag.Diagnostic) driver.Flow {
	c.report(diags)
	if c.failed || c.stop == stopAfterCodegen {
		return driver.Break
	}
	return driver.Continue
}

func (c *stageCallbacks) AfterRenderAssembly(sess *engine.Session, assembly string, diags []diag.Diagnostic) driver.Flow {
	c.report(diags)
	if c.keepAssembly {
		sibling := strings.TrimSuffix(c.inputPath, filepath.Ext(c.inputPath)) + ".s"
		if err := os.WriteFile(sibling, []byte(assembly), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			c.failed = true
		}
	}
	if c.failed {
		return driver.Break
	}
	return driver.Continue
}

var (
	flagOutput       string
	flagCC           string
	flagTarget       string
	flagColor        string
	flagKeepAssembly bool
	flagLex          bool
	flagParse        bool
	flagTacky        bool
	flagCodegen      bool
	flagVerbose      bool
)

var rootCmd = &cobra.Command{
	Use:  "mcc <input.c>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputPath := args[0]
		contents, err := os.ReadFile(inputPath)
		if err != nil {
			return err
		}

		target, err := resolveTarget(flagTarget)
		if err != nil {
			return err
		}

		color, err := parseColor(flagColor)
		if err != nil {
			return err
		}

		cc := flagCC
		if cc == "" {
			if env := os.Getenv("CC"); env != "" {
				cc = env
			} else {
				cc = "cc"
			}
		}

		output := flagOutput
		if output == "" {
			output = strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
		}

		stop := stopNever
		switch {
		case flagLex, flagParse:
			stop = stopAfterParse
		case flagTacky:
			stop = stopAfterLower
		case flagCodegen:
			stop = stopAfterCodegen
		}

		file := source.NewFile(inputPath, string(contents))
		fileSet := diag.NewFileSet()
		fileSet.Add(file)

		cfg := driver.Config{
			Input:  file,
			Target: target,
			CC:     cc,
			Output: output,
		}

		cb := &stageCallbacks{
			fileSet:      fileSet,
			color:        color,
			stop:         stop,
			keepAssembly: flagKeepAssembly,
			inputPath:    inputPath,
		}

		log := logrus.New()
		if flagVerbose {
			log.SetLevel(logrus.DebugLevel)
		}

		sess := engine.NewSession()
		_, runErr := driver.Run(sess, cb, cfg, driver.NewTimer(log))
		if runErr != nil {
			fmt.Fprintln(os.Stderr, runErr)
			os.Exit(1)
		}
		if cb.failed {
			os.Exit(1)
		}
		return nil
	},
}

func resolveTarget(flag string) (source.Triple, error) {
	if flag != "" {
		return source.ParseTriple(flag)
	}
	return source.HostTriple(runtime.GOOS, runtime.GOARCH)
}

func parseColor(flag string) (diag.Color, error) {
	switch flag {
	case "", "auto":
		return diag.ColorAuto, nil
	case "always":
		return diag.ColorAlways, nil
	case "never":
		return diag.ColorNever, nil
	default:
		return diag.ColorAuto, fmt.Errorf("invalid --color value %q (want auto, always, or never)", flag)
	}
}

func init() {
	flags := rootCmd.Flags()
	flags.BoolVarP(&flagKeepAssembly, "keep-assembly", "S", false, "keep the assembly file next to the input")
	flags.StringVarP(&flagOutput, "output", "o", "", "destination path for the linked binary")
	flags.StringVar(&flagCC, "cc", "", "path to the system C compiler (default: $CC, or \"cc\")")
	flags.StringVar(&flagTarget, "target", "", "target triple (default: host architecture)")
	flags.StringVar(&flagColor, "color", "auto", "diagnostic colouring: auto, always, or never")
	flags.BoolVar(&flagLex, "lex", false, "stop after lexing/parsing")
	flags.BoolVar(&flagParse, "parse", false, "stop after parsing")
	flags.BoolVar(&flagTacky, "tacky", false, "stop after TAC lowering")
	flags.BoolVar(&flagCodegen, "codegen", false, "stop after assembly IR generation")
	flags.BoolVarP(&flagVerbose, "verbose", "v", false, "if set, increase logging verbosity")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
