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

package diag_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcc-lang/mcc/diag"
	"github.com/mcc-lang/mcc/source"
)

func TestDiagnostic_WithCodeAndWithLabels(t *testing.T) {
	file := source.NewFile("t.c", "int main(void) { return 1 + ; }")
	d := diag.NewError("unexpected token").
		WithCode(diag.Codes.Parse.UnexpectedToken).
		WithLabels(diag.PrimaryLabel(file, source.NewSpan(28, 1), "expected an expression"))

	assert.Equal(t, diag.Error, d.Severity)
	assert.Equal(t, diag.Codes.Parse.UnexpectedToken, d.Code)
	require.Len(t, d.Labels, 1)
	assert.Equal(t, "expected an expression", d.Labels[0].Message)
}

func TestDiagnostic_WithLabelsDoesNotMutateReceiver(t *testing.T) {
	file := source.NewFile("t.c", "x")
	base := diag.NewError("boom")
	withLabel := base.WithLabels(diag.PrimaryLabel(file, source.NewSpan(0, 1), "here"))

	assert.Empty(t, base.Labels, "WithLabels must return a modified copy, not mutate base")
	assert.Len(t, withLabel.Labels, 1)
}

func TestSeverity_String(t *testing.T) {
	cases := map[diag.Severity]string{
		diag.Help:    "help",
		diag.Note:    "note",
		diag.Warning: "warning",
		diag.Error:   "error",
		diag.Bug:     "bug",
	}
	for severity, want := range cases {
		assert.Equal(t, want, severity.String())
	}
}

func TestDiagnostic_StringIncludesCodeWhenSet(t *testing.T) {
	withCode := diag.NewError("bad token").WithCode(diag.Codes.Parse.UnexpectedToken)
	assert.Contains(t, withCode.String(), diag.Codes.Parse.UnexpectedToken)

	withoutCode := diag.NewError("bad token")
	assert.NotContains(t, withoutCode.String(), "[")
}

func TestFileSet_EmitRendersSnippetWithUnderline(t *testing.T) {
	file := source.NewFile("t.c", "int main(void) {\n  return ;\n}\n")
	fs := diag.NewFileSet()
	fs.Add(file)

	d := diag.NewError("expected an expression").
		WithLabels(diag.PrimaryLabel(file, source.NewSpan(27, 1), "here"))

	var out strings.Builder
	require.NoError(t, fs.Emit(&out, d, diag.ColorNever))

	rendered := out.String()
	assert.Contains(t, rendered, "error: expected an expression")
	assert.Contains(t, rendered, "t.c:2:")
	assert.Contains(t, rendered, "return ;")
	assert.Contains(t, rendered, "here")
}

func TestFileSet_AddIsIdempotentForSameFile(t *testing.T) {
	file := source.NewFile("t.c", "int main(void) { return 0; }")
	fs := diag.NewFileSet()
	fs.Add(file)
	fs.Add(file)

	var out strings.Builder
	d := diag.NewError("boom").WithLabels(diag.PrimaryLabel(file, source.NewSpan(0, 1), ""))
	require.NoError(t, fs.Emit(&out, d, diag.ColorNever))
	assert.Contains(t, out.String(), "t.c:1:1")
}
