package compiler

import (
	"github.com/solaeus/dust/internal/ast"
	"github.com/solaeus/dust/internal/bytecode"
)

// TEST convention used throughout this file: `TEST A, D` followed by a
// JUMP executes that JUMP exactly when bool(R[A]) == D, and falls
// through to the instruction after it otherwise. Every call site below
// sets D false and places the "skip the rest of this construct" target
// behind the JUMP, so the JUMP fires precisely when the tested condition
// is false.

// compileIfInto lowers `if cond { then } else { els }` with TEST+JUMP:
// the condition is tested, a JUMP skips to the else arm on failure, and
// a second JUMP skips the else arm once the then-branch has run. Both
// arms write their value into the same dest register so the expression
// has one consistent home regardless of which arm ran.
func (c *compiler) compileIfInto(e *ast.IfExpr, dest int) {
	if c.tryComparisonPeephole(e, dest) {
		return
	}
	condAddr, _ := c.compileOperand(e.Cond)
	condReg := condAddr
	if condAddr.Kind != bytecode.REGISTER {
		tmp := c.alloc.Alloc()
		c.emitLoad(tmp, condAddr, bytecode.OpBoolean, e.Cond.Span().Start)
		condReg = bytecode.RegisterAddr(uint32(tmp))
	}
	c.current.Emit(bytecode.Instruction{Op: bytecode.TEST, A: condReg, Type: bytecode.OpBoolean, D: false}, e.Cond.Span().Start)
	toElse := c.current.Emit(bytecode.Instruction{Op: bytecode.JUMP}, e.Span().Start)

	c.compileBlockInto(e.Then, dest)

	if e.Else == nil {
		elseStart := len(c.current.Instructions)
		c.current.Patch(toElse, bytecode.Instruction{Op: bytecode.JUMP, A: c.relJump(toElse, elseStart)})
		return
	}

	toEnd := c.current.Emit(bytecode.Instruction{Op: bytecode.JUMP}, e.Span().Start)
	elseStart := len(c.current.Instructions)
	c.current.Patch(toElse, bytecode.Instruction{Op: bytecode.JUMP, A: c.relJump(toElse, elseStart)})

	switch els := e.Else.(type) {
	case *ast.Block:
		c.compileBlockInto(els, dest)
	case *ast.IfExpr:
		c.compileIfInto(els, dest)
	}

	end := len(c.current.Instructions)
	c.current.Patch(toEnd, bytecode.Instruction{Op: bytecode.JUMP, A: c.relJump(toEnd, end)})
}

// compileWhile lowers `while cond { body }`. The body's value is always
// discarded: a while loop's static type is `none` (spec §4.3).
func (c *compiler) compileWhile(e *ast.WhileExpr) {
	loopStart := len(c.current.Instructions)
	condAddr, _ := c.compileOperand(e.Cond)
	condReg := condAddr
	if condAddr.Kind != bytecode.REGISTER {
		tmp := c.alloc.Alloc()
		c.emitLoad(tmp, condAddr, bytecode.OpBoolean, e.Cond.Span().Start)
		condReg = bytecode.RegisterAddr(uint32(tmp))
	}
	c.current.Emit(bytecode.Instruction{Op: bytecode.TEST, A: condReg, Type: bytecode.OpBoolean, D: false}, e.Cond.Span().Start)
	exit := c.current.Emit(bytecode.Instruction{Op: bytecode.JUMP}, e.Span().Start)

	mark := c.alloc.Mark()
	tmp := c.alloc.Alloc()
	c.compileBlockInto(e.Body, tmp)
	c.alloc.Rewind(mark)

	backEdge := c.current.Emit(bytecode.Instruction{Op: bytecode.JUMP}, e.Span().Start)
	c.current.Patch(backEdge, bytecode.Instruction{Op: bytecode.JUMP, A: c.relJump(backEdge, loopStart)})

	end := len(c.current.Instructions)
	c.current.Patch(exit, bytecode.Instruction{Op: bytecode.JUMP, A: c.relJump(exit, end)})
}

// compileFor lowers `for item in list { body }` to an index-counter
// while loop plus GET_LIST, per SPEC_FULL's supplemented-features note:
// the core opcode set has no list-length primitive, so the bound is
// fetched once via the `_list_length` native before the loop starts.
func (c *compiler) compileFor(e *ast.ForExpr) {
	listAddr, _ := c.compileOperand(e.Iter)
	listReg := listAddr
	if listAddr.Kind != bytecode.REGISTER {
		tmp := c.alloc.Alloc()
		c.emitLoad(tmp, listAddr, bytecode.OpList, e.Iter.Span().Start)
		listReg = bytecode.RegisterAddr(uint32(tmp))
	}

	lenReg := c.alloc.Alloc()
	argsStart := c.alloc.Mark()
	argReg := c.alloc.Alloc()
	c.current.Emit(bytecode.Instruction{Op: bytecode.MOVE, A: bytecode.RegisterAddr(uint32(argReg)), B: listReg, Type: bytecode.OpList}, e.Iter.Span().Start)
	c.current.Emit(bytecode.Instruction{
		Op: bytecode.CALL_NATIVE, A: bytecode.RegisterAddr(uint32(lenReg)), B: bytecode.EncodedAddr(nativeFunctions["_list_length"]),
		C: bytecode.EncodedAddr(uint32(argsStart)), Type: bytecode.OpInteger,
	}, e.Iter.Span().Start)
	c.alloc.Rewind(argsStart)

	idxReg := c.alloc.Alloc()
	c.emitLoad(idxReg, bytecode.EncodedAddr(0), bytecode.OpInteger, e.Span().Start)

	loopStart := len(c.current.Instructions)
	testReg := c.alloc.Alloc()
	c.current.Emit(bytecode.Instruction{
		Op: bytecode.LESS, A: bytecode.RegisterAddr(uint32(testReg)),
		B: bytecode.RegisterAddr(uint32(idxReg)), C: bytecode.RegisterAddr(uint32(lenReg)), Type: bytecode.OpInteger,
	}, e.Span().Start)
	c.current.Emit(bytecode.Instruction{Op: bytecode.TEST, A: bytecode.RegisterAddr(uint32(testReg)), Type: bytecode.OpBoolean, D: false}, e.Span().Start)
	exit := c.current.Emit(bytecode.Instruction{Op: bytecode.JUMP}, e.Span().Start)
	c.alloc.Rewind(testReg)

	mark := c.alloc.Mark()
	binderID := c.res.Decls[e]
	binderReg := c.alloc.Alloc()
	c.locals[binderID] = binderReg
	elemType := toOperandType(c.res.Declarations[binderID].Type)
	c.current.Emit(bytecode.Instruction{
		Op: bytecode.GET_LIST, A: bytecode.RegisterAddr(uint32(binderReg)),
		B: listReg, C: bytecode.RegisterAddr(uint32(idxReg)), Type: elemType,
	}, e.Span().Start)

	bodyDest := c.alloc.Alloc()
	c.compileBlockInto(e.Body, bodyDest)
	c.alloc.Rewind(mark)

	c.current.Emit(bytecode.Instruction{
		Op: bytecode.ADD, A: bytecode.RegisterAddr(uint32(idxReg)), B: bytecode.RegisterAddr(uint32(idxReg)),
		C: bytecode.EncodedAddr(1), Type: bytecode.OpInteger,
	}, e.Span().Start)
	backEdge := c.current.Emit(bytecode.Instruction{Op: bytecode.JUMP}, e.Span().Start)
	c.current.Patch(backEdge, bytecode.Instruction{Op: bytecode.JUMP, A: c.relJump(backEdge, loopStart)})

	end := len(c.current.Instructions)
	c.current.Patch(exit, bytecode.Instruction{Op: bytecode.JUMP, A: c.relJump(exit, end)})
}

// tryComparisonPeephole implements spec §4.4's peephole: "Comparison
// followed by TEST+JUMP+load-true+load-false with matching register and
// polarity collapses to the comparison alone using its direct
// truthiness output." `if cmp { true } else { false }` (or the inverted
// arm order) needs no TEST or JUMP at all — the comparison's own result
// register already holds the answer.
func (c *compiler) tryComparisonPeephole(e *ast.IfExpr, dest int) bool {
	cmp, ok := e.Cond.(*ast.BinaryExpr)
	if !ok || !isComparisonOp(cmp.Operator) {
		return false
	}
	elseBlock, ok := e.Else.(*ast.Block)
	if !ok {
		return false
	}
	thenVal, ok := soleBoolLiteral(e.Then)
	if !ok {
		return false
	}
	elseVal, ok := soleBoolLiteral(elseBlock)
	if !ok || thenVal == elseVal {
		return false
	}
	c.compileComparisonDirectInto(cmp, dest, !thenVal)
	return true
}

// soleBoolLiteral reports whether b is exactly `{ true }` or `{ false }`.
func soleBoolLiteral(b *ast.Block) (bool, bool) {
	if len(b.Stmts) != 1 {
		return false, false
	}
	es, ok := b.Stmts[0].(*ast.ExprStmt)
	if !ok || es.HasSemicolon {
		return false, false
	}
	lit, ok := es.Value.(*ast.BooleanLiteral)
	if !ok {
		return false, false
	}
	return lit.Value, true
}
