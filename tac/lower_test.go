package tac_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcc-lang/mcc/diag"
	"github.com/mcc-lang/mcc/engine"
	"github.com/mcc-lang/mcc/parse"
	"github.com/mcc-lang/mcc/source"
	"github.com/mcc-lang/mcc/tac"
)

func numberLiteral(text string) *parse.NumberLiteral {
	return &parse.NumberLiteral{Text: text}
}

func mainFunc(statements ...parse.Statement) *parse.AST {
	return &parse.AST{
		Root: &parse.TranslationUnit{
			Functions: []*parse.FunctionDefinition{
				{
					Name: "main",
					Body: &parse.CompoundStatement{Statements: statements},
				},
			},
		},
	}
}

func TestLower_ReturnConstant(t *testing.T) {
	sess := engine.NewSession()
	file := source.NewFile("t.c", "int main(void) { return 2; }")
	ast := mainFunc(&parse.ReturnStatement{Expr: numberLiteral("2")})

	program := tac.Lower(sess, file, ast)

	require.Len(t, program.Functions, 1)
	fn := program.Functions[0]
	assert.Equal(t, "main", fn.Name)
	require.Len(t, fn.Instructions, 1)
	ret, ok := fn.Instructions[0].(tac.Return)
	require.True(t, ok)
	assert.Equal(t, tac.ConstantVal(2), ret.Val)
}

func TestLower_UnaryNegate(t *testing.T) {
	sess := engine.NewSession()
	file := source.NewFile("t.c", "")
	ast := mainFunc(&parse.ReturnStatement{
		Expr: &parse.UnaryExpression{Operator: parse.UnaryMinus, Operand: numberLiteral("5")},
	})

	program := tac.Lower(sess, file, ast)

	fn := program.Functions[0]
	require.Len(t, fn.Instructions, 2)
	unary, ok := fn.Instructions[0].(tac.Unary)
	require.True(t, ok)
	assert.Equal(t, tac.Negate, unary.Op)
	assert.Equal(t, tac.ConstantVal(5), unary.Src)

	ret, ok := fn.Instructions[1].(tac.Return)
	require.True(t, ok)
	assert.Equal(t, unary.Dst, ret.Val)
}

func TestLower_UnaryPlusIsNoOp(t *testing.T) {
	sess := engine.NewSession()
	file := source.NewFile("t.c", "")
	ast := mainFunc(&parse.ReturnStatement{
		Expr: &parse.UnaryExpression{Operator: parse.UnaryPlus, Operand: numberLiteral("5")},
	})

	program := tac.Lower(sess, file, ast)

	fn := program.Functions[0]
	require.Len(t, fn.Instructions, 1)
	ret, ok := fn.Instructions[0].(tac.Return)
	require.True(t, ok)
	assert.Equal(t, tac.ConstantVal(5), ret.Val)
}

func TestLower_BinaryAdd(t *testing.T) {
	sess := engine.NewSession()
	file := source.NewFile("t.c", "")
	ast := mainFunc(&parse.ReturnStatement{
		Expr: &parse.BinaryExpression{Operator: parse.Add, Left: numberLiteral("1"), Right: numberLiteral("2")},
	})

	program := tac.Lower(sess, file, ast)

	fn := program.Functions[0]
	require.Len(t, fn.Instructions, 2)
	bin, ok := fn.Instructions[0].(tac.Binary)
	require.True(t, ok)
	assert.Equal(t, tac.Add, bin.Op)
}

func TestLower_Comparison(t *testing.T) {
	sess := engine.NewSession()
	file := source.NewFile("t.c", "")
	ast := mainFunc(&parse.ReturnStatement{
		Expr: &parse.BinaryExpression{Operator: parse.Lt, Left: numberLiteral("1"), Right: numberLiteral("2")},
	})

	program := tac.Lower(sess, file, ast)

	fn := program.Functions[0]
	cmp, ok := fn.Instructions[0].(tac.Comparison)
	require.True(t, ok)
	assert.Equal(t, tac.LessThan, cmp.Op)
}

func TestLower_LogicalAndShortCircuitShape(t *testing.T) {
	sess := engine.NewSession()
	file := source.NewFile("t.c", "")
	ast := mainFunc(&parse.ReturnStatement{
		Expr: &parse.BinaryExpression{Operator: parse.LogicalAnd, Left: numberLiteral("1"), Right: numberLiteral("0")},
	})

	program := tac.Lower(sess, file, ast)

	fn := program.Functions[0]
	var kinds []string
	for _, instr := range fn.Instructions {
		switch instr.(type) {
		case tac.JumpIfZero:
			kinds = append(kinds, "jump_if_zero")
		case tac.Comparison:
			kinds = append(kinds, "comparison")
		case tac.Copy:
			kinds = append(kinds, "copy")
		case tac.Jump:
			kinds = append(kinds, "jump")
		case tac.Label:
			kinds = append(kinds, "label")
		case tac.Return:
			kinds = append(kinds, "return")
		}
	}
	assert.Equal(t, []string{
		"jump_if_zero", "comparison", "copy", "jump", "label", "copy", "label", "return",
	}, kinds)
}

func TestLower_LogicalOrShortCircuitShape(t *testing.T) {
	sess := engine.NewSession()
	file := source.NewFile("t.c", "")
	ast := mainFunc(&parse.ReturnStatement{
		Expr: &parse.BinaryExpression{Operator: parse.LogicalOr, Left: numberLiteral("1"), Right: numberLiteral("0")},
	})

	program := tac.Lower(sess, file, ast)

	fn := program.Functions[0]
	var kinds []string
	for _, instr := range fn.Instructions {
		switch instr.(type) {
		case tac.JumpIfNotZero:
			kinds = append(kinds, "jump_if_not_zero")
		case tac.Comparison:
			kinds = append(kinds, "comparison")
		case tac.Copy:
			kinds = append(kinds, "copy")
		case tac.Jump:
			kinds = append(kinds, "jump")
		case tac.Label:
			kinds = append(kinds, "label")
		case tac.Return:
			kinds = append(kinds, "return")
		}
	}
	assert.Equal(t, []string{
		"jump_if_not_zero", "comparison", "copy", "jump", "label", "copy", "label", "return",
	}, kinds)
}

func TestLower_BareReturnIsUnimplementedDiagnostic(t *testing.T) {
	sess := engine.NewSession()
	file := source.NewFile("t.c", "")
	ast := mainFunc(&parse.ReturnStatement{Expr: nil})

	program := tac.Lower(sess, file, ast)
	require.Len(t, program.Functions, 1)
	assert.Empty(t, program.Functions[0].Instructions)

	diags := tac.Diagnostics(sess, file, ast)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.Bug, diags[0].Severity)
	assert.Equal(t, diag.Codes.TypeCheck.Unimplemented, diags[0].Code)
}

func TestLower_NoFunctionsReportsMissingMain(t *testing.T) {
	sess := engine.NewSession()
	file := source.NewFile("t.c", "")
	ast := &parse.AST{Root: &parse.TranslationUnit{}}

	program := tac.Lower(sess, file, ast)
	assert.Empty(t, program.Functions)

	diags := tac.Diagnostics(sess, file, ast)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.Error, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "main")
}

func TestLower_IsDeterministicAcrossSeparateSessions(t *testing.T) {
	ast := mainFunc(&parse.ReturnStatement{
		Expr: &parse.BinaryExpression{
			Operator: parse.Add,
			Left:     &parse.UnaryExpression{Operator: parse.UnaryMinus, Operand: numberLiteral("3")},
			Right:    numberLiteral("4"),
		},
	})

	file := source.NewFile("t.c", "")
	first := tac.Lower(engine.NewSession(), file, ast)
	second := tac.Lower(engine.NewSession(), file, ast)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("lowering the same AST twice produced different TAC (-first +second):\n%s", diff)
	}
}

func TestLower_NonMainSingleFunctionStillLowered(t *testing.T) {
	sess := engine.NewSession()
	file := source.NewFile("t.c", "")
	ast := &parse.AST{
		Root: &parse.TranslationUnit{
			Functions: []*parse.FunctionDefinition{
				{Name: "notmain", Body: &parse.CompoundStatement{
					Statements: []parse.Statement{&parse.ReturnStatement{Expr: numberLiteral("0")}},
				}},
			},
		},
	}

	program := tac.Lower(sess, file, ast)
	require.Len(t, program.Functions, 1)
	assert.Equal(t, "notmain", program.Functions[0].Name)
}
