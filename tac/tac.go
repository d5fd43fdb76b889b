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

// Package tac implements the Three-Address-Code intermediate
// representation this core lowers parsed functions into, and the
// lowering pass that builds it.
package tac

import (
	"fmt"

	"github.com/mcc-lang/mcc/source"
)

// Program is every function this core lowered successfully.
type Program struct {
	Functions []*FunctionDefinition
}

// FunctionDefinition is one lowered function: its name, its flat
// instruction stream, and the span of the source it came from.
type FunctionDefinition struct {
	Name         string
	Instructions []Instruction
	Span         source.Span
}

// VariableKind discriminates the two forms a Variable can take.
type VariableKind int

const (
	VariableNamed VariableKind = iota
	VariableAnonymous
)

// Variable names a TAC value slot: either a source-level name (not
// produced by this subset's grammar yet, but kept for forward
// compatibility with the rest of the pack's lowering style) or a
// compiler-generated temporary identified by a sequence number.
type Variable struct {
	Kind VariableKind
	Name string // set when Kind == VariableNamed
	ID   uint32 // set when Kind == VariableAnonymous
}

func NamedVariable(name string) Variable {
	return Variable{Kind: VariableNamed, Name: name}
}

func AnonymousVariable(id uint32) Variable {
	return Variable{Kind: VariableAnonymous, ID: id}
}

func (v Variable) String() string {
	if v.Kind == VariableNamed {
		return v.Name
	}
	return fmt.Sprintf("tmp.%d", v.ID)
}

// ValKind discriminates a Val's two forms.
type ValKind int

const (
	ValConstant ValKind = iota
	ValVar
)

// Val is either a constant or a reference to a Variable.
type Val struct {
	Kind     ValKind
	Constant int32
	Var      Variable
}

func ConstantVal(v int32) Val {
	return Val{Kind: ValConstant, Constant: v}
}

func VarVal(v Variable) Val {
	return Val{Kind: ValVar, Var: v}
}

func (v Val) String() string {
	if v.Kind == ValConstant {
		return fmt.Sprintf("%d", v.Constant)
	}
	return v.Var.String()
}

// UnaryOperator enumerates the unary operators with a dedicated TAC
// instruction (unary plus is a no-op and never reaches this far).
type UnaryOperator int

const (
	Complement UnaryOperator = iota
	Negate
	Not
)

// BinaryOperator enumerates the arithmetic, bitwise, and shift
// operators lowered into a Binary instruction. Comparisons have their
// own operator set and instruction, below.
type BinaryOperator int

const (
	Add BinaryOperator = iota
	Sub
	Mul
	Div
	Mod
	BitAnd
	BitOr
	LeftShift
	RightShift
)

// ComparisonOperator enumerates the operators lowered into a
// Comparison instruction.
type ComparisonOperator int

const (
	Equal ComparisonOperator = iota
	NotEqual
	LessThan
	LessThanOrEqual
	GreaterThan
	GreaterThanOrEqual
)

// Instruction is implemented by every TAC instruction kind.
type Instruction interface {
	instructionNode()
}

// Return returns Val from the enclosing function.
type Return struct {
	Val Val
}

// Unary is `dst = op src`.
type Unary struct {
	Op       UnaryOperator
	Src, Dst Val
}

// Binary is `dst = left op right` for arithmetic/bitwise/shift ops.
type Binary struct {
	Op          BinaryOperator
	Left, Right Val
	Dst         Val
}

// Comparison is `dst = left op right` for comparison ops, kept distinct
// from Binary since codegen lowers it through cmp+setcc rather than a
// single arithmetic instruction.
type Comparison struct {
	Op          ComparisonOperator
	Left, Right Val
	Dst         Val
}

// Copy is `dst = src`.
type Copy struct {
	Src, Dst Val
}

// Jump is an unconditional branch to a label.
type Jump struct {
	Target string
}

// JumpIfZero branches to Target when Condition is zero.
type JumpIfZero struct {
	Condition Val
	Target    string
}

// JumpIfNotZero branches to Target when Condition is non-zero.
type JumpIfNotZero struct {
	Condition Val
	Target    string
}

// Label marks a jump target.
type Label struct {
	Name string
}

func (Return) instructionNode()        {}
func (Unary) instructionNode()         {}
func (Binary) instructionNode()        {}
func (Comparison) instructionNode()    {}
func (Copy) instructionNode()          {}
func (Jump) instructionNode()          {}
func (JumpIfZero) instructionNode()    {}
func (JumpIfNotZero) instructionNode() {}
func (Label) instructionNode()         {}
