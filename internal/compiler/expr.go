package compiler

import (
	"github.com/solaeus/dust/internal/ast"
	"github.com/solaeus/dust/internal/bytecode"
	"github.com/solaeus/dust/internal/token"
)

// compileOperand returns an address e's value can be read from, without
// forcing a MOVE into a fresh register when a literal or an
// already-live local will do: ADD/EQUAL/etc. accept CONSTANT, ENCODED
// and REGISTER operands directly (spec §3 Address).
func (c *compiler) compileOperand(e ast.Expr) (bytecode.Address, bytecode.OperandType) {
	switch expr := e.(type) {
	case *ast.IntegerLiteral:
		return c.encodedOrConstantInt(expr.Value), bytecode.OpInteger
	case *ast.FloatLiteral:
		return bytecode.ConstantAddr(c.current.Constants.AddFloat(expr.Value)), bytecode.OpFloat
	case *ast.BooleanLiteral:
		if expr.Value {
			return bytecode.EncodedAddr(1), bytecode.OpBoolean
		}
		return bytecode.EncodedAddr(0), bytecode.OpBoolean
	case *ast.ByteLiteral:
		return bytecode.EncodedAddr(uint32(expr.Value)), bytecode.OpByte
	case *ast.CharacterLiteral:
		return bytecode.EncodedAddr(uint32(expr.Value)), bytecode.OpCharacter
	case *ast.StringLiteral:
		return bytecode.ConstantAddr(c.current.Constants.AddString(expr.Value)), bytecode.OpString
	case *ast.Identifier:
		id := c.res.Decls[expr]
		if reg, ok := c.locals[id]; ok {
			return bytecode.RegisterAddr(uint32(reg)), toOperandType(c.res.Declarations[id].Type)
		}
		// A bare function reference used as a value (e.g. passed to
		// `_spawn`): addressed by prototype, not by register.
		if idx, ok := c.functionIndex[expr.Path[0]]; ok {
			return bytecode.PrototypeAddr(uint32(idx)), bytecode.OpFunction
		}
		return bytecode.EncodedAddr(0), bytecode.OpNone
	default:
		typ := toOperandType(c.res.TypeOf(e))
		reg := c.alloc.Alloc()
		c.compileInto(e, reg)
		return bytecode.RegisterAddr(uint32(reg)), typ
	}
}

// compileInto lowers e and writes its result into register dest.
func (c *compiler) compileInto(e ast.Expr, dest int) {
	if k, ok := c.evalConst(e); ok {
		c.loadConstInto(dest, k)
		return
	}
	switch expr := e.(type) {
	case *ast.IntegerLiteral, *ast.FloatLiteral, *ast.BooleanLiteral,
		*ast.ByteLiteral, *ast.CharacterLiteral, *ast.StringLiteral:
		addr, typ := c.compileOperand(expr)
		c.emitLoad(dest, addr, typ, expr.Span().Start)
	case *ast.Identifier:
		addr, typ := c.compileOperand(expr)
		if addr.Kind == bytecode.REGISTER && addr.Index == uint32(dest) {
			return
		}
		c.current.Emit(bytecode.Instruction{
			Op: bytecode.MOVE, A: bytecode.RegisterAddr(uint32(dest)), B: addr, Type: typ,
		}, expr.Span().Start)
	case *ast.UnaryExpr:
		c.compileUnaryInto(expr, dest)
	case *ast.BinaryExpr:
		c.compileBinaryInto(expr, dest)
	case *ast.LogicalExpr:
		c.compileLogicalInto(expr, dest)
	case *ast.AssignExpr:
		c.compileAssignInto(expr, dest)
	case *ast.CallExpr:
		c.compileCallInto(expr, dest)
	case *ast.IndexExpr:
		c.compileIndexInto(expr, dest)
	case *ast.IfExpr:
		c.compileIfInto(expr, dest)
	case *ast.WhileExpr:
		c.compileWhile(expr)
		c.loadNoneInto(dest)
	case *ast.ForExpr:
		c.compileFor(expr)
		c.loadNoneInto(dest)
	case *ast.ListExpr:
		c.compileListInto(expr, dest)
	case *ast.Block:
		c.compileBlockInto(expr, dest)
	case *ast.ErrorExpr:
		c.loadNoneInto(dest)
	default:
		c.loadNoneInto(dest)
	}
}

func (c *compiler) emitLoad(dest int, addr bytecode.Address, typ bytecode.OperandType, pos token.Position) {
	op := bytecode.LOAD_CONSTANT
	if addr.Kind == bytecode.ENCODED {
		op = bytecode.LOAD_ENCODED
	}
	c.current.Emit(bytecode.Instruction{Op: op, A: bytecode.RegisterAddr(uint32(dest)), B: addr, Type: typ}, pos)
}

func (c *compiler) loadConstInto(dest int, k constant) {
	switch k.Type {
	case bytecode.OpInteger:
		c.emitLoad(dest, c.encodedOrConstantInt(k.I), bytecode.OpInteger, token.Position{})
	case bytecode.OpFloat:
		c.emitLoad(dest, bytecode.ConstantAddr(c.current.Constants.AddFloat(k.F)), bytecode.OpFloat, token.Position{})
	case bytecode.OpBoolean:
		addr := bytecode.EncodedAddr(0)
		if k.B {
			addr = bytecode.EncodedAddr(1)
		}
		c.emitLoad(dest, addr, bytecode.OpBoolean, token.Position{})
	case bytecode.OpString:
		c.emitLoad(dest, bytecode.ConstantAddr(c.current.Constants.AddString(k.S)), bytecode.OpString, token.Position{})
	case bytecode.OpCharacter:
		c.emitLoad(dest, bytecode.EncodedAddr(uint32(k.C)), bytecode.OpCharacter, token.Position{})
	case bytecode.OpByte:
		c.emitLoad(dest, bytecode.EncodedAddr(uint32(k.Byte)), bytecode.OpByte, token.Position{})
	default:
		c.loadNoneInto(dest)
	}
}

func (c *compiler) compileUnaryInto(e *ast.UnaryExpr, dest int) {
	addr, typ := c.compileOperand(e.Operand)
	op := bytecode.NEGATE
	if e.Operator == token.Bang {
		op = bytecode.NOT
	}
	c.current.Emit(bytecode.Instruction{
		Op: op, A: bytecode.RegisterAddr(uint32(dest)), B: addr, Type: typ,
	}, e.Span().Start)
}

func (c *compiler) compileBinaryInto(e *ast.BinaryExpr, dest int) {
	switch e.Operator {
	case token.Plus:
		c.compilePlusInto(e, dest)
	case token.Minus, token.Star, token.Slash, token.Percent:
		c.compileArithmeticInto(e, dest)
	default:
		c.compileComparisonInto(e, dest)
	}
}

func (c *compiler) compilePlusInto(e *ast.BinaryExpr, dest int) {
	leftAddr, leftType := c.compileOperand(e.Left)
	rightAddr, rightType := c.compileOperand(e.Right)
	resultType := plusResultType(leftType, rightType)
	c.current.Emit(bytecode.Instruction{
		Op: bytecode.ADD, A: bytecode.RegisterAddr(uint32(dest)), B: leftAddr, C: rightAddr, Type: resultType,
	}, e.Span().Start)
}

func plusResultType(left, right bytecode.OperandType) bytecode.OperandType {
	switch {
	case left == bytecode.OpCharacter && right == bytecode.OpCharacter:
		return bytecode.OpString
	case left == bytecode.OpString && right == bytecode.OpCharacter:
		return bytecode.OpStringCharacter
	case left == bytecode.OpCharacter && right == bytecode.OpString:
		return bytecode.OpCharacterString
	default:
		return left
	}
}

func (c *compiler) compileArithmeticInto(e *ast.BinaryExpr, dest int) {
	leftAddr, leftType := c.compileOperand(e.Left)
	rightAddr, _ := c.compileOperand(e.Right)
	var op bytecode.OpCode
	switch e.Operator {
	case token.Minus:
		op = bytecode.SUBTRACT
	case token.Star:
		op = bytecode.MULTIPLY
	case token.Slash:
		op = bytecode.DIVIDE
	case token.Percent:
		op = bytecode.MODULO
	}
	c.current.Emit(bytecode.Instruction{
		Op: op, A: bytecode.RegisterAddr(uint32(dest)), B: leftAddr, C: rightAddr, Type: leftType,
	}, e.Right.Span().Start)
}

// compileComparisonInto lowers ==, !=, <, <=, >, >= onto the EQUAL/LESS/
// LESS_EQUAL opcode trio with operands kept in source order: `!=` negates
// EQUAL via the D polarity flag, `>=` negates LESS, and `>` negates
// LESS_EQUAL (spec §4.5's D "polarity" meaning).
func (c *compiler) compileComparisonInto(e *ast.BinaryExpr, dest int) {
	c.compileComparisonDirectInto(e, dest, false)
}

// compileComparisonDirectInto is compileComparisonInto with an extra
// polarity inversion, used by the if/true/false peephole (spec §4.4
// "Peephole optimizations") to flip the branch sense without a second
// NOT instruction.
func (c *compiler) compileComparisonDirectInto(e *ast.BinaryExpr, dest int, invert bool) {
	leftAddr, leftType := c.compileOperand(e.Left)
	rightAddr, _ := c.compileOperand(e.Right)
	var op bytecode.OpCode
	var b, cAddr bytecode.Address
	var d bool
	switch e.Operator {
	case token.Eq:
		op, b, cAddr, d = bytecode.EQUAL, leftAddr, rightAddr, false
	case token.NotEq:
		op, b, cAddr, d = bytecode.EQUAL, leftAddr, rightAddr, true
	case token.Less:
		op, b, cAddr, d = bytecode.LESS, leftAddr, rightAddr, false
	case token.GreaterEq:
		op, b, cAddr, d = bytecode.LESS, leftAddr, rightAddr, true
	case token.LessEq:
		op, b, cAddr, d = bytecode.LESS_EQUAL, leftAddr, rightAddr, false
	case token.Greater:
		op, b, cAddr, d = bytecode.LESS_EQUAL, leftAddr, rightAddr, true
	}
	if invert {
		d = !d
	}
	c.current.Emit(bytecode.Instruction{
		Op: op, A: bytecode.RegisterAddr(uint32(dest)), B: b, C: cAddr, Type: leftType, D: d,
	}, e.Span().Start)
}

func isComparisonOp(op token.Kind) bool {
	switch op {
	case token.Eq, token.NotEq, token.Less, token.LessEq, token.Greater, token.GreaterEq:
		return true
	default:
		return false
	}
}

// compileLogicalInto lowers short-circuit &&/|| via TEST+JUMP: evaluate
// the left operand into dest, test it, and only evaluate the right
// operand (again into dest) when the left side didn't already decide
// the result.
func (c *compiler) compileLogicalInto(e *ast.LogicalExpr, dest int) {
	c.compileInto(e.Left, dest)
	shortCircuitOn := e.Operator == token.Or // || short-circuits on true, && on false
	c.current.Emit(bytecode.Instruction{
		Op: bytecode.TEST, A: bytecode.RegisterAddr(uint32(dest)), Type: bytecode.OpBoolean, D: shortCircuitOn,
	}, e.Span().Start)
	skip := c.current.Emit(bytecode.Instruction{Op: bytecode.JUMP}, e.Span().Start)
	c.compileInto(e.Right, dest)
	end := len(c.current.Instructions)
	c.current.Patch(skip, bytecode.Instruction{Op: bytecode.JUMP, A: c.relJump(skip, end)})
}

func (c *compiler) compileAssignInto(e *ast.AssignExpr, dest int) {
	switch target := e.Target.(type) {
	case *ast.Identifier:
		id := c.res.Decls[target]
		reg, ok := c.locals[id]
		if !ok {
			reg = c.alloc.Alloc()
			c.locals[id] = reg
		}
		c.compileCompoundInto(e, reg)
	case *ast.IndexExpr:
		objAddr, _ := c.compileOperand(target.Object)
		idxAddr, _ := c.compileOperand(target.Index)
		valType := toOperandType(c.res.TypeOf(e.Value))
		var valAddr bytecode.Address
		if e.Operator == token.Assign {
			valAddr, _ = c.compileOperand(e.Value)
		} else {
			tmp := c.alloc.Alloc()
			c.compileCompoundArithmeticInto(e.Operator, objAddr, idxAddr, valType, e, tmp)
			valAddr = bytecode.RegisterAddr(uint32(tmp))
		}
		c.current.Emit(bytecode.Instruction{
			Op: bytecode.SET_LIST, A: objAddr, B: idxAddr, C: valAddr, Type: valType,
		}, e.Span().Start)
	}
	c.loadNoneInto(dest)
}

// compileCompoundInto lowers `x = v`, `x += v`, etc. directly into x's
// register, per SPEC_FULL's compound-assignment-without-MOVE peephole:
// the arithmetic opcode's destination operand IS the variable's
// register, so there is no separate load-then-store.
func (c *compiler) compileCompoundInto(e *ast.AssignExpr, reg int) {
	if e.Operator == token.Assign {
		c.compileInto(e.Value, reg)
		return
	}
	valAddr, valType := c.compileOperand(e.Value)
	var op bytecode.OpCode
	switch e.Operator {
	case token.PlusAssign:
		op = bytecode.ADD
	case token.MinusAssign:
		op = bytecode.SUBTRACT
	case token.StarAssign:
		op = bytecode.MULTIPLY
	case token.SlashAssign:
		op = bytecode.DIVIDE
	case token.PercentAssign:
		op = bytecode.MODULO
	}
	c.current.Emit(bytecode.Instruction{
		Op: op, A: bytecode.RegisterAddr(uint32(reg)), B: bytecode.RegisterAddr(uint32(reg)), C: valAddr, Type: valType,
	}, e.Span().Start)
}

// compileCompoundArithmeticInto is compileCompoundInto's counterpart for
// an IndexExpr assignment target, where there is no single register to
// read-modify-write: the current element is fetched with GET_LIST first.
func (c *compiler) compileCompoundArithmeticInto(op token.Kind, objAddr, idxAddr bytecode.Address, typ bytecode.OperandType, e *ast.AssignExpr, dest int) {
	if op == token.Assign {
		c.compileInto(e.Value, dest)
		return
	}
	c.current.Emit(bytecode.Instruction{
		Op: bytecode.GET_LIST, A: bytecode.RegisterAddr(uint32(dest)), B: objAddr, C: idxAddr, Type: typ,
	}, e.Span().Start)
	valAddr, _ := c.compileOperand(e.Value)
	var arith bytecode.OpCode
	switch op {
	case token.PlusAssign:
		arith = bytecode.ADD
	case token.MinusAssign:
		arith = bytecode.SUBTRACT
	case token.StarAssign:
		arith = bytecode.MULTIPLY
	case token.SlashAssign:
		arith = bytecode.DIVIDE
	case token.PercentAssign:
		arith = bytecode.MODULO
	}
	c.current.Emit(bytecode.Instruction{
		Op: arith, A: bytecode.RegisterAddr(uint32(dest)), B: bytecode.RegisterAddr(uint32(dest)), C: valAddr, Type: typ,
	}, e.Span().Start)
}

func (c *compiler) compileCallInto(e *ast.CallExpr, dest int) {
	ident, ok := e.Callee.(*ast.Identifier)
	if !ok {
		c.loadNoneInto(dest)
		return
	}
	if id, ok := nativeFunctions[ident.Path[0]]; ok {
		c.compileNativeCallInto(e, id, dest)
		return
	}
	protoIdx, ok := c.functionIndex[ident.Path[0]]
	if !ok {
		c.loadNoneInto(dest)
		return
	}
	argsStart := c.alloc.Mark()
	for _, arg := range e.Args {
		reg := c.alloc.Alloc()
		c.compileInto(arg, reg)
	}
	retType := toOperandType(c.res.TypeOf(e))
	c.current.Emit(bytecode.Instruction{
		Op: bytecode.CALL, A: bytecode.RegisterAddr(uint32(dest)), B: bytecode.PrototypeAddr(uint32(protoIdx)),
		C: bytecode.EncodedAddr(uint32(argsStart)), Type: retType,
	}, e.Span().Start)
	c.alloc.Rewind(argsStart)
}

func (c *compiler) compileNativeCallInto(e *ast.CallExpr, id uint32, dest int) {
	argsStart := c.alloc.Mark()
	for _, arg := range e.Args {
		reg := c.alloc.Alloc()
		c.compileInto(arg, reg)
	}
	retType := toOperandType(c.res.TypeOf(e))
	c.current.Emit(bytecode.Instruction{
		Op: bytecode.CALL_NATIVE, A: bytecode.RegisterAddr(uint32(dest)), B: bytecode.EncodedAddr(id),
		C: bytecode.EncodedAddr(uint32(argsStart)), Type: retType,
	}, e.Span().Start)
	c.alloc.Rewind(argsStart)
}

func (c *compiler) compileIndexInto(e *ast.IndexExpr, dest int) {
	objAddr, _ := c.compileOperand(e.Object)
	idxAddr, _ := c.compileOperand(e.Index)
	elemType := toOperandType(c.res.TypeOf(e))
	c.current.Emit(bytecode.Instruction{
		Op: bytecode.GET_LIST, A: bytecode.RegisterAddr(uint32(dest)), B: objAddr, C: idxAddr, Type: elemType,
	}, e.Span().Start)
}

func (c *compiler) compileListInto(e *ast.ListExpr, dest int) {
	listType := c.res.TypeOf(e)
	elemType := bytecode.OpNone
	if listType.Elem != nil {
		elemType = toOperandType(*listType.Elem)
	}
	c.current.Emit(bytecode.Instruction{
		Op: bytecode.LIST, A: bytecode.RegisterAddr(uint32(dest)), B: bytecode.EncodedAddr(uint32(len(e.Elements))), Type: elemType,
	}, e.Span().Start)
	for i, el := range e.Elements {
		valAddr, _ := c.compileOperand(el)
		c.current.Emit(bytecode.Instruction{
			Op: bytecode.SET_LIST, A: bytecode.RegisterAddr(uint32(dest)), B: bytecode.EncodedAddr(uint32(i)), C: valAddr, Type: elemType,
		}, el.Span().Start)
	}
}
