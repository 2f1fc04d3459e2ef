package compiler

import (
	"github.com/solaeus/dust/internal/bytecode"
	"github.com/solaeus/dust/internal/program"
	"github.com/solaeus/dust/internal/resolver"
	"github.com/solaeus/dust/internal/token"
)

func (c *compiler) localEntry(id resolver.DeclarationID, name string, reg int) program.Local {
	decl := c.res.Declarations[id]
	return program.Local{
		DeclarationID: id,
		Name:          name,
		Address:       bytecode.RegisterAddr(uint32(reg)),
		Type:          toOperandType(decl.Type),
		Mutable:       decl.Mutable,
		Scope:         decl.Scope,
	}
}

// loadNoneInto writes the `none` value into dest. A block with no
// trailing expression still produces a value (spec §4.3 types every
// block, defaulting to `none`), so every code path through
// compileBlockInto leaves dest populated.
func (c *compiler) loadNoneInto(dest int) {
	c.current.Emit(bytecode.Instruction{
		Op:   bytecode.LOAD,
		A:    bytecode.RegisterAddr(uint32(dest)),
		Type: bytecode.OpNone,
	}, token.Position{})
}

// encodedOrConstantInt picks ENCODED for integers that fit the operand
// index field and CONSTANT for everything else (spec §4.4 addressing
// modes: small immediates inline, larger literals via the constant
// table).
func (c *compiler) encodedOrConstantInt(v int64) bytecode.Address {
	if v >= 0 && uint64(v) <= uint64(bytecode.MaxIndex) {
		return bytecode.EncodedAddr(uint32(v))
	}
	idx := c.current.Constants.AddInteger(v)
	return bytecode.ConstantAddr(idx)
}

func (c *compiler) relJump(from int, target int) bytecode.Address {
	offset := int32(target - (from + 1))
	return bytecode.EncodedAddr(uint32(offset))
}
