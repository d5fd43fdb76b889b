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

package tac

import (
	"fmt"
	"strconv"

	"github.com/samber/lo"

	"github.com/mcc-lang/mcc/diag"
	"github.com/mcc-lang/mcc/engine"
	"github.com/mcc-lang/mcc/parse"
	"github.com/mcc-lang/mcc/source"
)

type lowerKey struct {
	file source.File
	ast  *parse.AST
}

// Lower lowers every function definition of ast into TAC, memoized on
// (file, ast). Unsupported translation-unit items, statements, and
// expressions are reported as bug-severity diagnostics rather than
// aborting the pass: the surrounding function is still produced so
// downstream stages can keep going.
func Lower(sess *engine.Session, file source.File, ast *parse.AST) *Program {
	key := lowerKey{file: file, ast: ast}
	return engine.Query(sess, "lower", key, func() *Program {
		return doLower(sess, file, ast)
	})
}

// Diagnostics returns the diagnostics accumulated the last time Lower
// ran for (file, ast).
func Diagnostics(sess *engine.Session, file source.File, ast *parse.AST) []diag.Diagnostic {
	return engine.Accumulated(sess, "lower", lowerKey{file: file, ast: ast})
}

func doLower(sess *engine.Session, file source.File, ast *parse.AST) *Program {
	root := ast.Root

	functions := lo.Map(root.Functions, func(fd *parse.FunctionDefinition, _ int) *FunctionDefinition {
		return lowerFunction(sess, file, fd)
	})

	for _, other := range root.Other {
		sess.Emit(diag.Bug("translation unit item not implemented").
			WithCode(diag.Codes.TypeCheck.Unimplemented).
			WithLabels(diag.PrimaryLabel(file, other.Span, other.Kind)))
	}

	switch len(functions) {
	case 0:
		sess.Emit(diag.NewError("the program must contain a valid `main` function").
			WithLabels(diag.PrimaryLabel(file, root.Span, "error occurred here")))
	case 1:
		if functions[0].Name != "main" {
			sess.Emit(diag.NewError("only a `main` function is supported").
				WithLabels(diag.PrimaryLabel(file, functions[0].Span, "error occurred here")))
		}
	default:
		extra := lo.Filter(functions, func(fn *FunctionDefinition, _ int) bool { return fn.Name != "main" })
		for _, fn := range extra {
			sess.Emit(diag.NewError("only a `main` function is supported").
				WithLabels(diag.PrimaryLabel(file, fn.Span, "error occurred here")))
		}
	}

	return &Program{Functions: functions}
}

func lowerFunction(sess *engine.Session, file source.File, fd *parse.FunctionDefinition) *FunctionDefinition {
	l := &lowerer{sess: sess, file: file}
	for _, stmt := range fd.Body.Statements {
		l.lowerStatement(stmt)
	}
	return &FunctionDefinition{Name: fd.Name, Instructions: l.instructions, Span: fd.Span}
}

// lowerer accumulates one function's instruction stream and owns the
// single fresh-name counter shared by both temporaries and labels.
type lowerer struct {
	sess         *engine.Session
	file         source.File
	instructions []Instruction
	nextSeq      uint32
}

func (l *lowerer) temporary() Variable {
	id := l.nextSeq
	l.nextSeq++
	return AnonymousVariable(id)
}

func (l *lowerer) freshLabel() string {
	name := fmt.Sprintf("L%d", l.nextSeq)
	l.nextSeq++
	return name
}

func (l *lowerer) emit(instr Instruction) {
	l.instructions = append(l.instructions, instr)
}

func (l *lowerer) lowerStatement(stmt parse.Statement) {
	switch s := stmt.(type) {
	case *parse.ReturnStatement:
		l.lowerReturnStatement(s)
	default:
		l.sess.Emit(diag.Bug("statement not implemented").
			WithCode(diag.Codes.TypeCheck.Unimplemented).
			WithLabels(diag.PrimaryLabel(l.file, stmt.StatementSpan(), statementKind(stmt))))
	}
}

func (l *lowerer) lowerReturnStatement(r *parse.ReturnStatement) {
	if r.Expr == nil {
		l.sess.Emit(diag.Bug("bare `return;` is not supported").
			WithCode(diag.Codes.TypeCheck.Unimplemented).
			WithLabels(diag.PrimaryLabel(l.file, r.Span, "return")))
		return
	}

	val, ok := l.lowerExpression(r.Expr)
	if !ok {
		return
	}
	l.emit(Return{Val: val})
}

func (l *lowerer) lowerExpression(expr parse.Expression) (Val, bool) {
	switch e := expr.(type) {
	case *parse.NumberLiteral:
		return l.lowerNumberLiteral(e)
	case *parse.UnaryExpression:
		return l.lowerUnaryExpression(e)
	case *parse.BinaryExpression:
		return l.lowerBinaryExpression(e)
	case *parse.ParenthesizedExpression:
		return l.lowerExpression(e.Inner)
	default:
		l.sess.Emit(diag.Bug("expression not implemented").
			WithCode(diag.Codes.TypeCheck.Unimplemented).
			WithLabels(diag.PrimaryLabel(l.file, expr.ExpressionSpan(), expressionKind(expr))))
		return Val{}, false
	}
}

func (l *lowerer) lowerNumberLiteral(n *parse.NumberLiteral) (Val, bool) {
	value, err := strconv.ParseInt(n.Text, 10, 32)
	if err != nil {
		l.sess.Emit(diag.Bug("invalid integer literal").
			WithCode(diag.Codes.TypeCheck.Unimplemented).
			WithLabels(diag.PrimaryLabel(l.file, n.Span, n.Text)))
		return Val{}, false
	}
	return ConstantVal(int32(value)), true
}

func (l *lowerer) lowerUnaryExpression(u *parse.UnaryExpression) (Val, bool) {
	src, ok := l.lowerExpression(u.Operand)
	if !ok {
		return Val{}, false
	}

	if u.Operator == parse.UnaryPlus {
		return src, true // unary plus is a no-op
	}

	var op UnaryOperator
	switch u.Operator {
	case parse.UnaryMinus:
		op = Negate
	case parse.UnaryComplement:
		op = Complement
	case parse.UnaryNot:
		op = Not
	}

	dst := VarVal(l.temporary())
	l.emit(Unary{Op: op, Src: src, Dst: dst})
	return dst, true
}

func (l *lowerer) lowerBinaryExpression(b *parse.BinaryExpression) (Val, bool) {
	switch b.Operator {
	case parse.LogicalAnd:
		return l.lowerLogicalAnd(b.Left, b.Right)
	case parse.LogicalOr:
		return l.lowerLogicalOr(b.Left, b.Right)
	}

	left, ok := l.lowerExpression(b.Left)
	if !ok {
		return Val{}, false
	}
	right, ok := l.lowerExpression(b.Right)
	if !ok {
		return Val{}, false
	}

	switch b.Operator {
	case parse.Add:
		return l.lowerBinaryOp(left, right, Add)
	case parse.Sub:
		return l.lowerBinaryOp(left, right, Sub)
	case parse.Mul:
		return l.lowerBinaryOp(left, right, Mul)
	case parse.Div:
		return l.lowerBinaryOp(left, right, Div)
	case parse.Mod:
		return l.lowerBinaryOp(left, right, Mod)
	case parse.BitAnd:
		return l.lowerBinaryOp(left, right, BitAnd)
	case parse.BitOr:
		return l.lowerBinaryOp(left, right, BitOr)
	case parse.LeftShift:
		return l.lowerBinaryOp(left, right, LeftShift)
	case parse.RightShift:
		return l.lowerBinaryOp(left, right, RightShift)
	case parse.Eq:
		return l.lowerComparison(left, right, Equal)
	case parse.Ne:
		return l.lowerComparison(left, right, NotEqual)
	case parse.Lt:
		return l.lowerComparison(left, right, LessThan)
	case parse.Le:
		return l.lowerComparison(left, right, LessThanOrEqual)
	case parse.Gt:
		return l.lowerComparison(left, right, GreaterThan)
	case parse.Ge:
		return l.lowerComparison(left, right, GreaterThanOrEqual)
	default:
		l.sess.Emit(diag.Bug("binary operator not implemented").
			WithCode(diag.Codes.TypeCheck.Unimplemented).
			WithLabels(diag.PrimaryLabel(l.file, b.Span, "operator")))
		return Val{}, false
	}
}

func (l *lowerer) lowerBinaryOp(left, right Val, op BinaryOperator) (Val, bool) {
	dst := VarVal(l.temporary())
	l.emit(Binary{Op: op, Left: left, Right: right, Dst: dst})
	return dst, true
}

func (l *lowerer) lowerComparison(left, right Val, op ComparisonOperator) (Val, bool) {
	dst := VarVal(l.temporary())
	l.emit(Comparison{Op: op, Left: left, Right: right, Dst: dst})
	return dst, true
}

// lowerLogicalAnd lowers `left && right` with short-circuit evaluation:
// if left is zero, right is never evaluated and the result is 0;
// otherwise the result is right coerced to a 0/1 boolean.
func (l *lowerer) lowerLogicalAnd(leftExpr, rightExpr parse.Expression) (Val, bool) {
	leftVal, ok := l.lowerExpression(leftExpr)
	if !ok {
		return Val{}, false
	}

	falseLabel := l.freshLabel()
	endLabel := l.freshLabel()
	result := VarVal(l.temporary())

	l.emit(JumpIfZero{Condition: leftVal, Target: falseLabel})

	rightVal, ok := l.lowerExpression(rightExpr)
	if !ok {
		return Val{}, false
	}
	rightBool := VarVal(l.temporary())
	l.emit(Comparison{Op: NotEqual, Left: ConstantVal(0), Right: rightVal, Dst: rightBool})
	l.emit(Copy{Src: rightBool, Dst: result})
	l.emit(Jump{Target: endLabel})

	l.emit(Label{Name: falseLabel})
	l.emit(Copy{Src: ConstantVal(0), Dst: result})

	l.emit(Label{Name: endLabel})

	return result, true
}

// lowerLogicalOr lowers `left || right` with short-circuit evaluation:
// if left is non-zero, right is never evaluated and the result is 1;
// otherwise the result is right coerced to a 0/1 boolean.
func (l *lowerer) lowerLogicalOr(leftExpr, rightExpr parse.Expression) (Val, bool) {
	leftVal, ok := l.lowerExpression(leftExpr)
	if !ok {
		return Val{}, false
	}

	trueLabel := l.freshLabel()
	endLabel := l.freshLabel()
	result := VarVal(l.temporary())

	l.emit(JumpIfNotZero{Condition: leftVal, Target: trueLabel})

	rightVal, ok := l.lowerExpression(rightExpr)
	if !ok {
		return Val{}, false
	}
	rightBool := VarVal(l.temporary())
	l.emit(Comparison{Op: NotEqual, Left: ConstantVal(0), Right: rightVal, Dst: rightBool})
	l.emit(Copy{Src: rightBool, Dst: result})
	l.emit(Jump{Target: endLabel})

	l.emit(Label{Name: trueLabel})
	l.emit(Copy{Src: ConstantVal(1), Dst: result})

	l.emit(Label{Name: endLabel})

	return result, true
}

func statementKind(stmt parse.Statement) string {
	switch stmt.(type) {
	case *parse.UnsupportedStatement:
		return stmt.(*parse.UnsupportedStatement).Kind
	default:
		return fmt.Sprintf("%T", stmt)
	}
}

func expressionKind(expr parse.Expression) string {
	switch expr.(type) {
	case *parse.UnsupportedExpression:
		return expr.(*parse.UnsupportedExpression).Kind
	default:
		return fmt.Sprintf("%T", expr)
	}
}
