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

// Package diag implements the accumulator-based diagnostic model: queries
// never fail by exception, they emit severity-tagged Diagnostic values
// into a scoped sink instead.
package diag

import (
	"fmt"

	"github.com/mcc-lang/mcc/source"
)

// Severity orders diagnostics from informational to fatal.
type Severity int

const (
	Help Severity = iota
	Note
	Warning
	Error
	Bug
)

func (s Severity) String() string {
	switch s {
	case Help:
		return "help"
	case Note:
		return "note"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Bug:
		return "bug"
	default:
		return "unknown"
	}
}

// Label attaches an optional note to a span, pointing a reader at the
// part of the source that caused a Diagnostic.
type Label struct {
	File    source.File
	Span    source.Span
	Message string
}

// Diagnostic is a single accumulated compiler message. It carries no
// connection to where it was raised from; it is pure data, equal to
// another Diagnostic with the same fields.
type Diagnostic struct {
	Severity Severity
	Message  string
	Code     string
	Labels   []Label
}

// Bug builds a bug-severity diagnostic, used for "not implemented yet"
// branches that must not abort the surrounding stage.
func Bug(message string) Diagnostic {
	return Diagnostic{Severity: Bug, Message: message}
}

// NewError builds an error-severity diagnostic.
func NewError(message string) Diagnostic {
	return Diagnostic{Severity: Error, Message: message}
}

// WithCode attaches an error code and returns the (modified) diagnostic.
func (d Diagnostic) WithCode(code string) Diagnostic {
	d.Code = code
	return d
}

// WithLabels attaches source labels and returns the (modified) diagnostic.
func (d Diagnostic) WithLabels(labels ...Label) Diagnostic {
	d.Labels = append(append([]Label(nil), d.Labels...), labels...)
	return d
}

// PrimaryLabel is a convenience constructor for a Label pointing at the
// span most responsible for a Diagnostic.
func PrimaryLabel(file source.File, span source.Span, message string) Label {
	return Label{File: file, Span: span, Message: message}
}

func (d Diagnostic) String() string {
	if d.Code != "" {
		return fmt.Sprintf("%s[%s]: %s", d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}
