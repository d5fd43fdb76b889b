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

// Package asmir implements the machine-near assembly intermediate
// representation this core's code generator targets, and the two-pass
// lowering from tac.Program into it.
package asmir

import (
	"fmt"

	"github.com/mcc-lang/mcc/source"
	"github.com/mcc-lang/mcc/tac"
)

// Program is every function this core generated code for.
type Program struct {
	Functions []*FunctionDefinition
}

// FunctionDefinition is one function's flat assembly instruction
// stream.
type FunctionDefinition struct {
	Name         string
	Instructions []Instruction
	Span         source.Span
}

// Register names the three general-purpose registers this core's
// two-register scratch convention uses: AX/DX carry division results,
// R10 is the scratch register the fix-up pass uses to repair illegal
// operand pairs.
type Register int

const (
	AX Register = iota
	DX
	R10
)

// OperandKind discriminates an Operand's three forms.
type OperandKind int

const (
	OperandImm OperandKind = iota
	OperandRegister
	OperandStack
)

// Operand is an instruction's source or destination: an immediate, a
// register, or a byte offset into the current stack frame.
type Operand struct {
	Kind   OperandKind
	Imm    int32
	Reg    Register
	Offset uint32 // valid when Kind == OperandStack
}

func Imm(v int32) Operand         { return Operand{Kind: OperandImm, Imm: v} }
func Reg(r Register) Operand      { return Operand{Kind: OperandRegister, Reg: r} }
func Stack(offset uint32) Operand { return Operand{Kind: OperandStack, Offset: offset} }
func (o Operand) IsStack() bool   { return o.Kind == OperandStack }
func (o Operand) IsImm() bool     { return o.Kind == OperandImm }

func (o Operand) String() string {
	switch o.Kind {
	case OperandImm:
		return fmt.Sprintf("$%d", o.Imm)
	case OperandRegister:
		return o.Reg.String()
	default:
		return fmt.Sprintf("stack(%d)", o.Offset)
	}
}

func (r Register) String() string {
	switch r {
	case AX:
		return "%eax"
	case DX:
		return "%edx"
	case R10:
		return "%r10d"
	default:
		return "%?"
	}
}

// UnaryOperator enumerates the unary assembly operations. Not is the
// logical negation inherited from tac.Not, rendered through a
// compare-and-set sequence rather than a single mnemonic; it is kept
// distinct from Neg/Complement so the renderer can tell them apart.
type UnaryOperator int

const (
	Neg UnaryOperator = iota
	Complement
	Not
)

// BinaryOperator enumerates the binary assembly operations that map to
// a single two-operand mnemonic (division and modulo are lowered
// through Idiv/Cdq instead).
type BinaryOperator int

const (
	Add BinaryOperator = iota
	Sub
	Mul
	BitAnd
	BitOr
	LeftShift
	RightShift
)

// ComparisonOperator is shared with tac.ComparisonOperator: comparisons
// carry the same operator set through both IRs, fused into one
// instruction until the renderer expands it into cmp+setcc+movzbl+mov.
type ComparisonOperator = tac.ComparisonOperator

// Instruction is implemented by every assembly instruction kind.
type Instruction interface {
	asmInstructionNode()
}

type Mov struct {
	Src, Dst Operand
}

type Unary struct {
	Op      UnaryOperator
	Operand Operand
}

type Binary struct {
	Op       BinaryOperator
	Src, Dst Operand
}

type Idiv struct {
	Src Operand
}

type Cdq struct{}

type Comparison struct {
	Op          ComparisonOperator
	Left, Right Operand
	Dst         Operand
}

type AllocateStack struct {
	Size uint32
}

type Ret struct{}

type Label struct {
	Name string
}

type Jump struct {
	Target string
}

type JumpIfZero struct {
	Condition Operand
	Target    string
}

type JumpIfNotZero struct {
	Condition Operand
	Target    string
}

func (Mov) asmInstructionNode()           {}
func (Unary) asmInstructionNode()         {}
func (Binary) asmInstructionNode()        {}
func (Idiv) asmInstructionNode()          {}
func (Cdq) asmInstructionNode()           {}
func (Comparison) asmInstructionNode()    {}
func (AllocateStack) asmInstructionNode() {}
func (Ret) asmInstructionNode()           {}
func (Label) asmInstructionNode()         {}
func (Jump) asmInstructionNode()          {}
func (JumpIfZero) asmInstructionNode()    {}
func (JumpIfNotZero) asmInstructionNode() {}
