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

package driver

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"

	"github.com/mcc-lang/mcc/asmir"
	"github.com/mcc-lang/mcc/asmtext"
	"github.com/mcc-lang/mcc/diag"
	"github.com/mcc-lang/mcc/engine"
	"github.com/mcc-lang/mcc/parse"
	"github.com/mcc-lang/mcc/source"
	"github.com/mcc-lang/mcc/tac"
)

// Config is everything one compilation needs to run: the file to
// compile, its target, which system C compiler drives preprocessing
// and linking, and where to write the final binary.
type Config struct {
	Input  source.File
	Target source.Triple
	CC     string
	Output string
}

// Flow is an observer's decision after a stage completes: keep going,
// or stop the pipeline early.
type Flow int

const (
	Continue Flow = iota
	Break
)

// Callbacks is fired between every stage of Run. The zero value of
// Callbacks (via NoopCallbacks) continues through every stage.
type Callbacks interface {
	AfterParse(sess *engine.Session, file source.File, ast *parse.AST, diags []diag.Diagnostic) Flow
	AfterLower(sess *engine.Session, program *tac.Program, diags []diag.Diagnostic) Flow
	AfterCodegen(sess *engine.Session, program *asmir.Program, diags []diag.Diagnostic) Flow
	AfterRenderAssembly(sess *engine.Session, assembly string, diags []diag.Diagnostic) Flow
	AfterCompile(sess *engine.Session, binaryPath string) Flow
}

// NoopCallbacks is an embeddable Callbacks base whose every hook
// continues; callers embed it and override only the hooks they need.
type NoopCallbacks struct{}

func (NoopCallbacks) AfterParse(*engine.Session, source.File, *parse.AST, []diag.Diagnostic) Flow {
	return Continue
}
func (NoopCallbacks) AfterLower(*engine.Session, *tac.Program, []diag.Diagnostic) Flow {
	return Continue
}
func (NoopCallbacks) AfterCodegen(*engine.Session, *asmir.Program, []diag.Diagnostic) Flow {
	return Continue
}
func (NoopCallbacks) AfterRenderAssembly(*engine.Session, string, []diag.Diagnostic) Flow {
	return Continue
}
func (NoopCallbacks) AfterCompile(*engine.Session, string) Flow {
	return Continue
}

// Run drives one compilation through every stage: preprocess, parse,
// lower to TAC, generate assembly IR, render assembly text, assemble
// and link. cb is consulted after each stage; returning Break stops the
// pipeline and Run returns ("", nil), not an error, matching the "early
// return is not failure" shape of the stage it interrupted.
//
// Errors returned from Run are always process or I/O errors (kinds 1-2
// of the error taxonomy): command failures and filesystem failures.
// Diagnostics (kinds 3-5) never surface as an error here; they are
// handed to cb alongside each stage's artifact, and it is cb's
// responsibility to decide whether an accumulated Error-severity
// diagnostic should Break the pipeline.
func Run(sess *engine.Session, cb Callbacks, cfg Config, timer *Timer) (string, error) {
	if timer == nil {
		timer = NewTimer(nil)
	}

	tempDir, err := os.MkdirTemp("", "mcc-*")
	if err != nil {
		return "", errors.Wrap(err, "creating scratch directory")
	}
	defer os.RemoveAll(tempDir)

	var preprocessed string
	timer.TimeIt("preprocess", func() {
		preprocessed, err = preprocess(cfg.CC, cfg.Input)
	})
	if err != nil {
		return "", err
	}

	// The preprocessed text is persisted for inspection but the parser
	// re-reads cfg.Input directly; see DESIGN.md for why the write below
	// is kept despite not being consumed downstream.
	preprocessedPath := filepath.Join(tempDir, "preprocessed.c")
	if err := os.WriteFile(preprocessedPath, []byte(preprocessed), 0o644); err != nil {
		return "", errors.Wrap(err, "writing preprocessed source")
	}

	var ast *parse.AST
	parseDiags := timer.TimeStage("parse",
		func() []diag.Diagnostic { return parse.Diagnostics(sess, cfg.Input, cfg.Target) },
		func() { ast = parse.Parse(sess, cfg.Input, cfg.Target) },
	)
	if cb.AfterParse(sess, cfg.Input, ast, parseDiags) == Break {
		return "", nil
	}

	var program *tac.Program
	lowerDiags := timer.TimeStage("lower",
		func() []diag.Diagnostic { return tac.Diagnostics(sess, cfg.Input, ast) },
		func() { program = tac.Lower(sess, cfg.Input, ast) },
	)
	if cb.AfterLower(sess, program, lowerDiags) == Break {
		return "", nil
	}

	var asmProgram *asmir.Program
	codegenDiags := timer.TimeStage("codegen",
		func() []diag.Diagnostic { return asmir.Diagnostics(sess, program) },
		func() { asmProgram = asmir.Generate(sess, program) },
	)
	if cb.AfterCodegen(sess, asmProgram, codegenDiags) == Break {
		return "", nil
	}

	var assembly string
	renderDiags := timer.TimeStage("render",
		func() []diag.Diagnostic { return asmtext.Diagnostics(sess, asmProgram, cfg.Target) },
		func() { assembly = asmtext.Render(sess, asmProgram, cfg.Target) },
	)
	if cb.AfterRenderAssembly(sess, assembly, renderDiags) == Break {
		return "", nil
	}

	assemblyPath := filepath.Join(tempDir, "assembly.s")
	if err := os.WriteFile(assemblyPath, []byte(assembly), 0o644); err != nil {
		return "", errors.Wrap(err, "writing rendered assembly")
	}

	outputPath := cfg.Output
	if outputPath == "" {
		outputPath = strings.TrimSuffix(cfg.Input.Path, filepath.Ext(cfg.Input.Path))
	}

	timer.TimeIt("assemble_and_link", func() {
		err = assembleAndLink(cfg.CC, assemblyPath, outputPath, cfg.Target)
	})
	if err != nil {
		return "", err
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(outputPath, 0o755); err != nil {
			return "", errors.Wrap(err, "marking output executable")
		}
	}

	if cb.AfterCompile(sess, outputPath) == Break {
		return "", nil
	}

	return outputPath, nil
}
