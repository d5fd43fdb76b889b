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

// Package driver sequences a compilation end to end: preprocess, parse,
// lower, generate assembly, render, assemble and link, invoking a
// Callbacks observer between stages.
package driver

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// CommandErrorKind discriminates why an external process invocation
// failed.
type CommandErrorKind int

const (
	// StartFailed means the process could not even be started (missing
	// binary, permissions, ...).
	StartFailed CommandErrorKind = iota
	// CompletedUnsuccessfully means the process ran and exited non-zero.
	CompletedUnsuccessfully
)

// CommandError is a process error: non-recoverable and fatal to the
// current compilation. It always carries the command line that failed.
type CommandError struct {
	Kind     CommandErrorKind
	Command  string
	ExitCode int
	Stderr   string
	Cause    error
}

func (e *CommandError) Error() string {
	switch e.Kind {
	case StartFailed:
		return fmt.Sprintf("unable to start %q: %v", e.Command, e.Cause)
	default:
		return fmt.Sprintf("command %q completed unsuccessfully: %d", e.Command, e.ExitCode)
	}
}

func (e *CommandError) Unwrap() error { return e.Cause }

// runCommand runs cmd to completion, capturing stdout and stderr
// separately, and reports start failures and non-zero exits as a
// *CommandError.
func runCommand(cmd *exec.Cmd) (stdout string, err error) {
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	line := strings.Join(cmd.Args, " ")
	if runErr := cmd.Run(); runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			return "", &CommandError{
				Kind:     CompletedUnsuccessfully,
				Command:  line,
				ExitCode: exitErr.ExitCode(),
				Stderr:   stderr.String(),
			}
		}
		return "", &CommandError{
			Kind:    StartFailed,
			Command: line,
			Cause:   errors.Wrapf(runErr, "is %q installed?", cmd.Path),
		}
	}

	return out.String(), nil
}
