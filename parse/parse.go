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

package parse

import (
	"fmt"

	cc "modernc.org/cc/v4"

	"github.com/mcc-lang/mcc/diag"
	"github.com/mcc-lang/mcc/engine"
	"github.com/mcc-lang/mcc/source"
)

type parseKey struct {
	file   source.File
	target source.Triple
}

// Parse classifies every external declaration in file and fully parses
// every function definition's body, memoized on (file, target). Parse
// errors and unsupported constructs are recorded as diagnostics on sess
// rather than returned directly; callers retrieve them with
// Diagnostics.
func Parse(sess *engine.Session, file source.File, target source.Triple) *AST {
	key := parseKey{file: file, target: target}
	return engine.Query(sess, "parse", key, func() *AST {
		return doParse(sess, file, target)
	})
}

// Diagnostics returns the diagnostics accumulated the last time Parse
// ran for (file, target).
func Diagnostics(sess *engine.Session, file source.File, target source.Triple) []diag.Diagnostic {
	return engine.Accumulated(sess, "parse", parseKey{file: file, target: target})
}

func doParse(sess *engine.Session, file source.File, target source.Triple) *AST {
	empty := &AST{Root: &TranslationUnit{Span: source.NewSpan(0, len(file.Contents))}}

	goos, goarch, err := targetGoEnv(target)
	if err != nil {
		sess.Emit(diag.NewError(err.Error()).WithCode(diag.Codes.Parse.UnexpectedToken))
		return empty
	}

	cfg, err := cc.NewConfig(goos, goarch)
	if err != nil {
		sess.Emit(diag.NewError(fmt.Sprintf("configuring C front end for %s: %v", target, err)))
		return empty
	}

	ccAST, err := cc.Parse(cfg, []cc.Source{
		{Name: "<predefined>", Value: cfg.Predefined},
		{Name: "<builtin>", Value: cc.Builtin},
		{Name: "<prologue>", Value: ""},
		{Name: file.Path, Value: file.Contents},
	})
	if err != nil {
		sess.Emit(diag.NewError(fmt.Sprintf("parsing %s: %v", file.Path, err)).
			WithCode(diag.Codes.Parse.UnexpectedToken))
		return empty
	}

	root := &TranslationUnit{Span: source.NewSpan(0, len(file.Contents))}

	for node := ccAST.TranslationUnit; node != nil; node = node.TranslationUnit {
		ext := node.ExternalDeclaration
		if ext.Position().Filename != file.Path {
			continue // belongs to <predefined>/<builtin>/<prologue>
		}

		if ext.Case != cc.ExternalDeclarationFuncDef {
			pos := ext.Position()
			root.Other = append(root.Other, OtherItem{
				Span: source.NewSpan(pos.Offset, 1),
				Kind: "declaration",
			})
			continue
		}

		fn, diags := convertFunction(file, ext.FunctionDefinition)
		for _, d := range diags {
			sess.Emit(d)
		}
		if fn != nil {
			root.Functions = append(root.Functions, fn)
		}
	}

	return &AST{Root: root}
}

// convertFunction turns a modernc.org/cc/v4 function definition into
// this package's own FunctionDefinition, hand-parsing the body text
// directly from the source file starting at the compound statement's
// byte offset.
func convertFunction(file source.File, fd *cc.FunctionDefinition) (*FunctionDefinition, []diag.Diagnostic) {
	var diags []diag.Diagnostic

	directDeclarator := fd.Declarator.DirectDeclarator
	if directDeclarator == nil || directDeclarator.Case != cc.DirectDeclaratorFuncParam {
		pos := fd.Position()
		diags = append(diags, diag.NewError("unsupported function declarator").
			WithCode(diag.Codes.Parse.UnexpectedToken).
			WithLabels(diag.PrimaryLabel(file, source.NewSpan(pos.Offset, 1), "expected a simple parameter list")))
		return nil, diags
	}

	nameToken := directDeclarator.DirectDeclarator.Token
	name := nameToken.SrcStr()
	namePos := directDeclarator.DirectDeclarator.Position()

	if fd.CompoundStatement == nil {
		diags = append(diags, diag.NewError("function is missing a body").
			WithCode(diag.Codes.Parse.MissingToken).
			WithLabels(diag.PrimaryLabel(file, source.NewSpan(namePos.Offset, len(name)), name)))
		return nil, diags
	}

	bodyPos := fd.CompoundStatement.Position()
	bodyOffset := bodyPos.Offset
	if bodyOffset < 0 || bodyOffset > len(file.Contents) {
		diags = append(diags, diag.Bug("function body offset out of range"))
		return nil, diags
	}

	bp := newBodyParser(file, file.Contents[bodyOffset:], bodyOffset)
	body := bp.parseCompoundStatement()
	diags = append(diags, bp.diags...)

	span := spanBetween(source.NewSpan(namePos.Offset, len(name)), body.Span)

	return &FunctionDefinition{Name: name, Span: span, Body: body}, diags
}

// targetGoEnv converts this core's target triple into the GOOS/GOARCH
// pair modernc.org/cc/v4 expects, mirroring the subset of platforms
// spec.md §2 names.
func targetGoEnv(t source.Triple) (goos, goarch string, err error) {
	switch t.Arch {
	case "x86_64":
		goarch = "amd64"
	default:
		return "", "", fmt.Errorf("unsupported target architecture %q", t.Arch)
	}

	switch {
	case t.IsDarwin():
		goos = "darwin"
	case t.IsLinux():
		goos = "linux"
	default:
		return "", "", fmt.Errorf("unsupported target OS %q", t.OS)
	}

	return goos, goarch, nil
}
