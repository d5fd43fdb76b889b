package asmtext_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcc-lang/mcc/asmir"
	"github.com/mcc-lang/mcc/asmtext"
	"github.com/mcc-lang/mcc/engine"
	"github.com/mcc-lang/mcc/source"
	"github.com/mcc-lang/mcc/tac"
)

func program(instructions ...asmir.Instruction) *asmir.Program {
	return &asmir.Program{Functions: []*asmir.FunctionDefinition{
		{Name: "main", Instructions: instructions},
	}}
}

func TestRender_DarwinMangling(t *testing.T) {
	sess := engine.NewSession()
	p := program(asmir.Mov{Src: asmir.Imm(2), Dst: asmir.Reg(asmir.AX)}, asmir.Ret{})

	out := asmtext.Render(sess, p, source.X8664Darwin())
	assert.True(t, strings.Contains(out, ".globl _main"))
	assert.True(t, strings.Contains(out, "_main:"))
	assert.False(t, strings.Contains(out, ".note.GNU-stack"))
}

func TestRender_LinuxHasNoUnderscoreAndTrailer(t *testing.T) {
	sess := engine.NewSession()
	p := program(asmir.Mov{Src: asmir.Imm(2), Dst: asmir.Reg(asmir.AX)}, asmir.Ret{})

	out := asmtext.Render(sess, p, source.X8664Linux())
	assert.True(t, strings.Contains(out, ".globl main"))
	assert.False(t, strings.Contains(out, "_main:"))
	assert.True(t, strings.Contains(out, `.section .note.GNU-stack, "", @progbits`))
}

func TestRender_RetSequence(t *testing.T) {
	sess := engine.NewSession()
	p := program(asmir.Ret{})

	out := asmtext.Render(sess, p, source.X8664Linux())
	require.True(t, strings.Contains(out, "movq %rbp, %rsp"))
	require.True(t, strings.Contains(out, "popq %rbp"))
	require.True(t, strings.Contains(out, "ret"))
}

func TestRender_ComparisonBothStackPreloadsEax(t *testing.T) {
	sess := engine.NewSession()
	p := program(
		asmir.Comparison{Op: tac.LessThan, Left: asmir.Stack(0), Right: asmir.Stack(4), Dst: asmir.Stack(8)},
		asmir.Ret{},
	)

	out := asmtext.Render(sess, p, source.X8664Linux())
	assert.True(t, strings.Contains(out, "movl -4(%rbp), %eax"))
	assert.True(t, strings.Contains(out, "cmpl -8(%rbp), %eax"))
	assert.True(t, strings.Contains(out, "setl %al"))
}

func TestRender_StackOperandOffsetIsNegativeFromRbp(t *testing.T) {
	sess := engine.NewSession()
	p := program(asmir.Mov{Src: asmir.Imm(7), Dst: asmir.Stack(0)}, asmir.Ret{})

	out := asmtext.Render(sess, p, source.X8664Linux())
	assert.True(t, strings.Contains(out, "movl $7, -4(%rbp)"))
}
