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

package asmir

import (
	"github.com/samber/lo"

	"github.com/mcc-lang/mcc/diag"
	"github.com/mcc-lang/mcc/engine"
	"github.com/mcc-lang/mcc/tac"
)

type generateKey struct {
	program *tac.Program
}

// Generate lowers a TAC program into assembly IR: instruction selection
// with stack-slot assignment (Pass A), followed by a fix-up pass that
// rewrites operand shapes the target can't encode directly (Pass B).
// Generate does not itself accumulate diagnostics — lowering from a
// well-formed TAC program cannot fail.
func Generate(sess *engine.Session, program *tac.Program) *Program {
	key := generateKey{program: program}
	return engine.Query(sess, "generate_assembly", key, func() *Program {
		var functions []*FunctionDefinition
		for _, fn := range program.Functions {
			functions = append(functions, lowerFunction(fn))
		}
		return &Program{Functions: functions}
	})
}

// Diagnostics returns the diagnostics accumulated the last time Generate
// ran for program. Instruction selection and fix-up cannot themselves
// fail, so this is always empty in the current core; it exists so
// callers can treat every pipeline stage uniformly.
func Diagnostics(sess *engine.Session, program *tac.Program) []diag.Diagnostic {
	return engine.Accumulated(sess, "generate_assembly", generateKey{program: program})
}

func lowerFunction(fn *tac.FunctionDefinition) *FunctionDefinition {
	selected, slots := selectInstructions(fn.Instructions)
	if slots > 0 {
		selected = append([]Instruction{AllocateStack{Size: slots * 4}}, selected...)
	}
	fixedUp := fixUp(selected)
	return &FunctionDefinition{Name: fn.Name, Instructions: fixedUp, Span: fn.Span}
}

// stackAllocator maps each distinct TAC variable to a 4-byte stack slot
// in first-seen order.
type stackAllocator struct {
	order []tac.Variable
}

func (a *stackAllocator) operandFor(v tac.Val) Operand {
	if v.Kind == tac.ValConstant {
		return Imm(v.Constant)
	}
	return Stack(a.offsetFor(v.Var))
}

func (a *stackAllocator) offsetFor(v tac.Variable) uint32 {
	return uint32(a.indexOf(v)) * 4
}

func (a *stackAllocator) indexOf(v tac.Variable) int {
	for i, existing := range a.order {
		if existing == v {
			return i
		}
	}
	a.order = append(a.order, v)
	return len(a.order) - 1
}

// selectInstructions runs Pass A: instruction selection plus stack
// assignment. It returns the selected instructions and the number of
// distinct stack slots allocated.
func selectInstructions(instructions []tac.Instruction) ([]Instruction, uint32) {
	var out []Instruction
	alloc := &stackAllocator{}

	for _, instr := range instructions {
		switch in := instr.(type) {
		case tac.Return:
			out = append(out,
				Mov{Src: alloc.operandFor(in.Val), Dst: Reg(AX)},
				Ret{},
			)
		case tac.Unary:
			src := alloc.operandFor(in.Src)
			dst := alloc.operandFor(in.Dst)
			out = append(out,
				Mov{Src: src, Dst: dst},
				Unary{Op: unaryOperatorToAsm(in.Op), Operand: dst},
			)
		case tac.Binary:
			left := alloc.operandFor(in.Left)
			right := alloc.operandFor(in.Right)
			dst := alloc.operandFor(in.Dst)
			out = append(out, selectBinary(in.Op, left, right, dst)...)
		case tac.Comparison:
			left := alloc.operandFor(in.Left)
			right := alloc.operandFor(in.Right)
			dst := alloc.operandFor(in.Dst)
			out = append(out, Comparison{Op: in.Op, Left: left, Right: right, Dst: dst})
		case tac.Copy:
			out = append(out, Mov{Src: alloc.operandFor(in.Src), Dst: alloc.operandFor(in.Dst)})
		case tac.Jump:
			out = append(out, Jump{Target: in.Target})
		case tac.JumpIfZero:
			out = append(out, JumpIfZero{Condition: alloc.operandFor(in.Condition), Target: in.Target})
		case tac.JumpIfNotZero:
			out = append(out, JumpIfNotZero{Condition: alloc.operandFor(in.Condition), Target: in.Target})
		case tac.Label:
			out = append(out, Label{Name: in.Name})
		}
	}

	return out, uint32(len(alloc.order))
}

func unaryOperatorToAsm(op tac.UnaryOperator) UnaryOperator {
	switch op {
	case tac.Negate:
		return Neg
	case tac.Complement:
		return Complement
	default: // tac.Not
		return Not
	}
}

func selectBinary(op tac.BinaryOperator, left, right, dst Operand) []Instruction {
	switch op {
	case tac.Div:
		return []Instruction{
			Mov{Src: left, Dst: Reg(AX)},
			Cdq{},
			Idiv{Src: right},
			Mov{Src: Reg(AX), Dst: dst},
		}
	case tac.Mod:
		return []Instruction{
			Mov{Src: left, Dst: Reg(AX)},
			Cdq{},
			Idiv{Src: right},
			Mov{Src: Reg(DX), Dst: dst},
		}
	default:
		return []Instruction{
			Mov{Src: left, Dst: Reg(R10)},
			Binary{Op: binaryOperatorToAsm(op), Src: right, Dst: Reg(R10)},
			Mov{Src: Reg(R10), Dst: dst},
		}
	}
}

func binaryOperatorToAsm(op tac.BinaryOperator) BinaryOperator {
	switch op {
	case tac.Add:
		return Add
	case tac.Sub:
		return Sub
	case tac.Mul:
		return Mul
	case tac.BitAnd:
		return BitAnd
	case tac.BitOr:
		return BitOr
	case tac.LeftShift:
		return LeftShift
	default: // tac.RightShift
		return RightShift
	}
}

// fixUp runs Pass B: a single walk that rewrites operand combinations
// the target's instruction encoding can't express directly. R10 is the
// scratch register every rewrite uses; it is never otherwise live
// across these rewrites, so clobbering it is safe.
func fixUp(instructions []Instruction) []Instruction {
	return lo.FlatMap(instructions, func(instr Instruction, _ int) []Instruction {
		switch in := instr.(type) {
		case Mov:
			if in.Src.IsStack() && in.Dst.IsStack() {
				return []Instruction{
					Mov{Src: in.Src, Dst: Reg(R10)},
					Mov{Src: Reg(R10), Dst: in.Dst},
				}
			}
			return []Instruction{in}
		case Idiv:
			if in.Src.IsImm() {
				return []Instruction{
					Mov{Src: in.Src, Dst: Reg(R10)},
					Idiv{Src: Reg(R10)},
				}
			}
			return []Instruction{in}
		case Comparison:
			return fixUpComparison(in)
		default:
			return []Instruction{instr}
		}
	})
}

func fixUpComparison(c Comparison) []Instruction {
	switch {
	case c.Left.IsImm() && c.Right.IsImm():
		return []Instruction{
			Mov{Src: c.Left, Dst: Reg(R10)},
			Comparison{Op: c.Op, Left: Reg(R10), Right: c.Right, Dst: c.Dst},
		}
	case c.Left.IsStack() && c.Right.IsImm():
		return []Instruction{
			Mov{Src: c.Left, Dst: Reg(R10)},
			Comparison{Op: c.Op, Left: Reg(R10), Right: c.Right, Dst: c.Dst},
		}
	case c.Left.IsImm() && c.Right.IsStack():
		// Left/right swap is deliberate: this core preserves the
		// observed behaviour of the reference implementation rather
		// than correcting it, inverting non-symmetric comparisons.
		return []Instruction{
			Mov{Src: c.Right, Dst: Reg(R10)},
			Comparison{Op: c.Op, Left: Reg(R10), Right: c.Left, Dst: c.Dst},
		}
	default:
		return []Instruction{c}
	}
}
