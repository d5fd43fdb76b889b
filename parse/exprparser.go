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

	"github.com/mcc-lang/mcc/diag"
	"github.com/mcc-lang/mcc/source"
)

// bodyParser is a small recursive-descent, precedence-climbing parser
// over a function body's token stream. It never panics on malformed
// input: every failure path records a diagnostic and produces an
// UnsupportedStatement/UnsupportedExpression placeholder so the caller
// still gets a (possibly incomplete) tree, matching spec.md §4.3's
// "the surrounding function is still produced so downstream stages can
// continue" failure semantics.
type bodyParser struct {
	file   source.File
	toks   []token
	pos    int
	diags  []diag.Diagnostic
}

func newBodyParser(file source.File, src string, offset int) *bodyParser {
	lx := newLexer(src, offset)
	var toks []token
	for {
		t := lx.next()
		toks = append(toks, t)
		if t.kind == tokEOF {
			break
		}
	}
	return &bodyParser{file: file, toks: toks}
}

func (p *bodyParser) peek() token {
	return p.toks[p.pos]
}

func (p *bodyParser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *bodyParser) at(text string) bool {
	t := p.peek()
	return (t.kind == tokPunct || t.kind == tokIdent) && t.text == text
}

func (p *bodyParser) expect(text string) (token, bool) {
	if p.at(text) {
		return p.advance(), true
	}
	t := p.peek()
	p.emit(diag.NewError(fmt.Sprintf("expected %q, found %q", text, t.text)).
		WithCode(diag.Codes.Parse.MissingToken).
		WithLabels(diag.PrimaryLabel(p.file, t.span, "expected here")))
	return t, false
}

func (p *bodyParser) emit(d diag.Diagnostic) {
	p.diags = append(p.diags, d)
}

// parseCompoundStatement parses `{ stmt* }`, deriving its span from the
// opening and closing brace tokens it consumes.
func (p *bodyParser) parseCompoundStatement() *CompoundStatement {
	open, _ := p.expect("{")

	var statements []Statement
	for !p.at("}") && p.peek().kind != tokEOF {
		statements = append(statements, p.parseStatement())
	}
	closeBrace, _ := p.expect("}")

	return &CompoundStatement{Span: spanBetween(open.span, closeBrace.span), Statements: statements}
}

func (p *bodyParser) parseStatement() Statement {
	if p.at("return") {
		return p.parseReturnStatement()
	}

	start := p.peek()
	kind := start.text
	if kind == "" {
		kind = "<empty>"
	}
	// Skip to the next statement terminator so a single malformed
	// statement doesn't desynchronize the whole body.
	for !p.at(";") && !p.at("}") && p.peek().kind != tokEOF {
		p.advance()
	}
	end := p.peek()
	if p.at(";") {
		end = p.advance()
	}
	span := spanBetween(start.span, end.span)
	return &UnsupportedStatement{Span: span, Kind: kind}
}

func (p *bodyParser) parseReturnStatement() Statement {
	kw := p.advance() // "return"

	if p.at(";") {
		semi := p.advance()
		return &ReturnStatement{Span: spanBetween(kw.span, semi.span), Expr: nil}
	}

	expr := p.parseExpression()
	semi, _ := p.expect(";")
	return &ReturnStatement{Span: spanBetween(kw.span, semi.span), Expr: expr}
}

// precedence table for left-associative binary operators, from lowest
// to highest precedence (C's usual operator-precedence ladder, minus
// assignment, comma, bitwise-xor, and the conditional operator, none of
// which this core's grammar supports).
var binaryLevels = [][]struct {
	text string
	op   BinaryOperator
}{
	{{"||", LogicalOr}},
	{{"&&", LogicalAnd}},
	{{"|", BitOr}},
	{{"&", BitAnd}},
	{{"==", Eq}, {"!=", Ne}},
	{{"<", Lt}, {"<=", Le}, {">", Gt}, {">=", Ge}},
	{{"<<", LeftShift}, {">>", RightShift}},
	{{"+", Add}, {"-", Sub}},
	{{"*", Mul}, {"/", Div}, {"%", Mod}},
}

func (p *bodyParser) parseExpression() Expression {
	return p.parseBinary(0)
}

func (p *bodyParser) parseBinary(level int) Expression {
	if level >= len(binaryLevels) {
		return p.parseUnary()
	}

	left := p.parseBinary(level + 1)
	for {
		op, matched := p.matchLevel(level)
		if !matched {
			return left
		}
		opTok := p.advance()
		right := p.parseBinary(level + 1)
		left = &BinaryExpression{
			Span:     spanBetween(left.ExpressionSpan(), right.ExpressionSpan()),
			Operator: op,
			Left:     left,
			Right:    right,
		}
		_ = opTok
	}
}

func (p *bodyParser) matchLevel(level int) (BinaryOperator, bool) {
	for _, entry := range binaryLevels[level] {
		if p.at(entry.text) {
			return entry.op, true
		}
	}
	return 0, false
}

func (p *bodyParser) parseUnary() Expression {
	t := p.peek()
	if t.kind == tokPunct {
		var op UnaryOperator
		switch t.text {
		case "+":
			op = UnaryPlus
		case "-":
			op = UnaryMinus
		case "~":
			op = UnaryComplement
		case "!":
			op = UnaryNot
		default:
			return p.parsePrimary()
		}
		p.advance()
		operand := p.parseUnary()
		return &UnaryExpression{
			Span:     spanBetween(t.span, operand.ExpressionSpan()),
			Operator: op,
			Operand:  operand,
		}
	}
	return p.parsePrimary()
}

func (p *bodyParser) parsePrimary() Expression {
	t := p.peek()
	switch {
	case t.kind == tokNumber:
		p.advance()
		return &NumberLiteral{Span: t.span, Text: t.text}
	case t.kind == tokPunct && t.text == "(":
		open := p.advance()
		inner := p.parseExpression()
		closeTok, _ := p.expect(")")
		return &ParenthesizedExpression{Span: spanBetween(open.span, closeTok.span), Inner: inner}
	default:
		p.emit(diag.Bug("expression not implemented").
			WithCode(diag.Codes.TypeCheck.Unimplemented).
			WithLabels(diag.PrimaryLabel(p.file, t.span, t.text)))
		kind := t.text
		if t.kind == tokEOF {
			kind = "<eof>"
		}
		if p.peek().kind != tokEOF {
			p.advance()
		}
		return &UnsupportedExpression{Span: t.span, Kind: kind}
	}
}

func spanBetween(a, b source.Span) source.Span {
	start := a.Start
	end := b.End()
	if end < start {
		end = start
	}
	return source.NewSpan(start, end-start)
}
