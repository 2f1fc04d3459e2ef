// Package program holds the compiled output of spec §3/§4.4: an ordered
// vector of Prototypes, one per function plus the synthetic main, and
// the per-prototype constant table, local table, and instruction stream.
package program

import (
	"github.com/solaeus/dust/internal/bytecode"
	"github.com/solaeus/dust/internal/resolver"
	"github.com/solaeus/dust/internal/token"
)

// FunctionType is a prototype's parameter and return types.
type FunctionType struct {
	Params []bytecode.OperandType
	Return bytecode.OperandType
}

// Local is a compiled binding: its register/memory address, its
// resolved type, mutability, and originating scope (spec §3 "Local").
type Local struct {
	DeclarationID resolver.DeclarationID
	Name          string
	Address       bytecode.Address
	Type          bytecode.OperandType
	Mutable       bool
	Scope         resolver.BlockScope
	NameSpan      token.Span
}

// Prototype is one compiled function, including the synthetic main.
type Prototype struct {
	Name           string
	PrototypeIndex int
	Type           FunctionType

	Instructions []bytecode.Instruction
	Positions    []token.Position // parallel to Instructions; zero value if unknown

	Constants *ConstantTable
	Locals    []Local

	RegisterCount int
}

func NewPrototype(name string, index int, fnType FunctionType) *Prototype {
	return &Prototype{
		Name:           name,
		PrototypeIndex: index,
		Type:           fnType,
		Constants:      NewConstantTable(),
	}
}

// Emit appends an instruction and its source position, returning the
// instruction's index for later patching (e.g. a JUMP target).
func (p *Prototype) Emit(instr bytecode.Instruction, pos token.Position) int {
	p.Instructions = append(p.Instructions, instr)
	p.Positions = append(p.Positions, pos)
	return len(p.Instructions) - 1
}

// Patch overwrites a previously emitted instruction, used to back-patch
// forward jump targets once the jump distance is known.
func (p *Prototype) Patch(index int, instr bytecode.Instruction) {
	p.Instructions[index] = instr
}
