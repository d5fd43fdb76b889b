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

// Package asmtext renders asmir.Program into GNU AT&T-syntax x86-64
// assembly text.
package asmtext

import (
	"fmt"
	"strings"

	"github.com/mcc-lang/mcc/asmir"
	"github.com/mcc-lang/mcc/diag"
	"github.com/mcc-lang/mcc/engine"
	"github.com/mcc-lang/mcc/source"
	"github.com/mcc-lang/mcc/tac"
)

type renderKey struct {
	program *asmir.Program
	target  source.Triple
}

// Render renders program for target, memoized on (program, target).
func Render(sess *engine.Session, program *asmir.Program, target source.Triple) string {
	key := renderKey{program: program, target: target}
	return engine.Query(sess, "render_program", key, func() string {
		r := &renderer{target: target}
		for _, fn := range program.Functions {
			r.function(fn)
			r.writeln("")
		}
		if target.IsLinux() {
			r.writeln(`.section .note.GNU-stack, "", @progbits`)
		}
		return r.out.String()
	})
}

// Diagnostics returns the diagnostics accumulated the last time Render
// ran for (program, target). The renderer cannot itself fail for any
// program Generate produces, so this is always empty in the current
// core; kept for uniformity with the other pipeline stages.
func Diagnostics(sess *engine.Session, program *asmir.Program, target source.Triple) []diag.Diagnostic {
	return engine.Accumulated(sess, "render_program", renderKey{program: program, target: target})
}

type renderer struct {
	target source.Triple
	out    strings.Builder
}

func (r *renderer) writeln(line string) {
	r.out.WriteString(line)
	r.out.WriteByte('\n')
}

// symbolName applies this target's function-name mangling convention.
func (r *renderer) symbolName(name string) string {
	if r.target.IsDarwin() {
		return "_" + name
	}
	return name
}

func (r *renderer) function(fn *asmir.FunctionDefinition) {
	name := r.symbolName(fn.Name)
	r.writeln(fmt.Sprintf(".globl %s", name))
	r.writeln(fmt.Sprintf("%s:", name))
	r.writeln("  pushq %rbp")
	r.writeln("  movq %rsp, %rbp")

	for _, instr := range fn.Instructions {
		r.instruction(instr)
	}
}

func (r *renderer) instruction(instr asmir.Instruction) {
	switch in := instr.(type) {
	case asmir.AllocateStack:
		r.writeln(fmt.Sprintf("  subq $%d, %%rsp", in.Size))
	case asmir.Mov:
		r.writeln(fmt.Sprintf("  movl %s, %s", r.operand(in.Src), r.operand(in.Dst)))
	case asmir.Unary:
		r.unary(in)
	case asmir.Binary:
		r.writeln(fmt.Sprintf("  %s %s, %s", binaryMnemonic(in.Op), r.operand(in.Src), r.operand(in.Dst)))
	case asmir.Idiv:
		r.writeln(fmt.Sprintf("  idivl %s", r.operand(in.Src)))
	case asmir.Cdq:
		r.writeln("  cdq")
	case asmir.Comparison:
		r.comparison(in)
	case asmir.Ret:
		r.writeln("  movq %rbp, %rsp")
		r.writeln("  popq %rbp")
		r.writeln("  ret")
	case asmir.Label:
		r.writeln(fmt.Sprintf("%s:", in.Name))
	case asmir.Jump:
		r.writeln(fmt.Sprintf("  jmp %s", in.Target))
	case asmir.JumpIfZero:
		r.jumpIf(in.Condition, in.Target, "jz")
	case asmir.JumpIfNotZero:
		r.jumpIf(in.Condition, in.Target, "jnz")
	}
}

func (r *renderer) unary(in asmir.Unary) {
	switch in.Op {
	case asmir.Neg:
		r.writeln(fmt.Sprintf("  negl %s", r.operand(in.Operand)))
	case asmir.Complement:
		r.writeln(fmt.Sprintf("  notl %s", r.operand(in.Operand)))
	case asmir.Not:
		op := r.operand(in.Operand)
		r.writeln(fmt.Sprintf("  cmpl $0, %s", op))
		r.writeln("  sete %al")
		r.writeln(fmt.Sprintf("  movb %%al, %s", op))
	}
}

func (r *renderer) comparison(in asmir.Comparison) {
	left := in.Left
	if in.Left.IsStack() && in.Right.IsStack() {
		r.writeln(fmt.Sprintf("  movl %s, %%eax", r.operand(in.Left)))
		left = asmir.Reg(asmir.AX)
	}

	r.writeln(fmt.Sprintf("  cmpl %s, %s", r.operand(in.Right), r.operand(left)))
	r.writeln(fmt.Sprintf("  set%s %%al", conditionCode(in.Op)))
	r.writeln("  movzbl %al, %eax")
	r.writeln(fmt.Sprintf("  movl %%eax, %s", r.operand(in.Dst)))
}

func (r *renderer) jumpIf(cond asmir.Operand, target, mnemonic string) {
	if cond.IsImm() || cond.IsStack() {
		r.writeln(fmt.Sprintf("  movl %s, %%eax", r.operand(cond)))
		r.writeln("  testl %eax, %eax")
	} else {
		operand := r.operand(cond)
		r.writeln(fmt.Sprintf("  testl %s, %s", operand, operand))
	}
	r.writeln(fmt.Sprintf("  %s %s", mnemonic, target))
}

func (r *renderer) operand(o asmir.Operand) string {
	switch o.Kind {
	case asmir.OperandImm:
		return fmt.Sprintf("$%d", o.Imm)
	case asmir.OperandRegister:
		return o.Reg.String()
	default:
		return fmt.Sprintf("-%d(%%rbp)", o.Offset+4)
	}
}

func binaryMnemonic(op asmir.BinaryOperator) string {
	switch op {
	case asmir.Add:
		return "addl"
	case asmir.Sub:
		return "subl"
	case asmir.Mul:
		return "imull"
	case asmir.BitAnd:
		return "andl"
	case asmir.BitOr:
		return "orl"
	case asmir.LeftShift:
		return "shll"
	default: // asmir.RightShift
		return "shrl"
	}
}

func conditionCode(op tac.ComparisonOperator) string {
	switch op {
	case tac.Equal:
		return "e"
	case tac.NotEqual:
		return "ne"
	case tac.LessThan:
		return "l"
	case tac.LessThanOrEqual:
		return "le"
	case tac.GreaterThan:
		return "g"
	default: // tac.GreaterThanOrEqual
		return "ge"
	}
}
