// Package compiler implements spec §4.4: it lowers a resolved syntax
// tree into a register-based Program, one Prototype per function plus a
// synthetic main.
package compiler

import (
	"github.com/solaeus/dust/internal/ast"
	"github.com/solaeus/dust/internal/bytecode"
	"github.com/solaeus/dust/internal/derrors"
	"github.com/solaeus/dust/internal/program"
	"github.com/solaeus/dust/internal/resolver"
	"github.com/solaeus/dust/internal/token"
)

type compiler struct {
	res  *resolver.Result
	prog *program.Program
	errs derrors.List

	current *program.Prototype
	alloc   *registerAllocator
	locals  map[resolver.DeclarationID]int

	functionIndex map[string]int
}

// Compile lowers a resolved program into a register-based Program (spec
// §4.4). Compilation is deterministic: the same input always produces
// the same instruction stream, constant order, and register numbering.
func Compile(astProg *ast.Program, res *resolver.Result) (*program.Program, *derrors.List) {
	c := &compiler{
		res:           res,
		prog:          program.New(),
		functionIndex: make(map[string]int),
	}

	mainProto := program.NewPrototype("main", 0, program.FunctionType{Return: bytecode.OpNone})
	c.prog.AddPrototype(mainProto)

	var mainNode *ast.MainFunction
	var fnItems []*ast.FunctionItem
	for _, item := range astProg.Items {
		switch it := item.(type) {
		case *ast.MainFunction:
			mainNode = it
		case *ast.FunctionItem:
			fnItems = append(fnItems, it)
		}
	}

	for _, fn := range fnItems {
		sig := res.Functions[fn.Name]
		proto := program.NewPrototype(fn.Name, 0, toFunctionType(sig))
		idx := c.prog.AddPrototype(proto)
		c.functionIndex[fn.Name] = idx
	}

	if mainNode != nil {
		c.compileMain(mainProto, mainNode)
	} else {
		mainProto.Emit(bytecode.Instruction{Op: bytecode.RETURN}, token.Position{})
		mainProto.RegisterCount = 0
	}

	for _, fn := range fnItems {
		proto := c.prog.Prototypes[c.functionIndex[fn.Name]]
		c.compileFunctionBody(proto, fn)
	}

	return c.prog, &c.errs
}

func toFunctionType(sig *resolver.FunctionSignature) program.FunctionType {
	if sig == nil {
		return program.FunctionType{Return: bytecode.OpNone}
	}
	params := make([]bytecode.OperandType, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = toOperandType(p)
	}
	return program.FunctionType{Params: params, Return: toOperandType(sig.Return)}
}

func toOperandType(t resolver.Type) bytecode.OperandType {
	switch t.Kind {
	case resolver.KNone:
		return bytecode.OpNone
	case resolver.KBool:
		return bytecode.OpBoolean
	case resolver.KByte:
		return bytecode.OpByte
	case resolver.KCharacter:
		return bytecode.OpCharacter
	case resolver.KInteger:
		return bytecode.OpInteger
	case resolver.KFloat:
		return bytecode.OpFloat
	case resolver.KString:
		return bytecode.OpString
	case resolver.KList:
		return bytecode.OpList
	case resolver.KFunction:
		return bytecode.OpFunction
	default:
		return bytecode.OpNone
	}
}

func (c *compiler) errAt(pos token.Position, format string, args ...interface{}) {
	c.errs.Add(derrors.New(derrors.CompileError, pos, format, args...))
}

func (c *compiler) compileMain(proto *program.Prototype, main *ast.MainFunction) {
	c.current = proto
	c.alloc = newRegisterAllocator()
	c.locals = make(map[resolver.DeclarationID]int)

	dest := c.alloc.Alloc()
	c.compileBlockInto(main.Body, dest)
	proto.Emit(bytecode.Instruction{
		Op:   bytecode.RETURN,
		A:    bytecode.RegisterAddr(uint32(dest)),
		Type: toOperandType(c.res.TypeOf(main.Body)),
		D:    true,
	}, main.Span().Start)
	proto.RegisterCount = c.alloc.HighWaterMark()
	c.checkConstantOverflow(proto, main.Span().Start)
}

func (c *compiler) compileFunctionBody(proto *program.Prototype, fn *ast.FunctionItem) {
	c.current = proto
	c.alloc = newRegisterAllocator()
	c.locals = make(map[resolver.DeclarationID]int)

	ids := c.res.ParamDecls[fn.Name]
	for i, id := range ids {
		reg := c.alloc.Alloc()
		c.locals[id] = reg
		proto.Locals = append(proto.Locals, program.Local{
			DeclarationID: id,
			Name:          fn.Params[i].Name,
			Address:       bytecode.RegisterAddr(uint32(reg)),
			Type:          toOperandType(c.res.Declarations[id].Type),
			Mutable:       false,
			NameSpan:      fn.Params[i].Span,
		})
	}

	dest := c.alloc.Alloc()
	c.compileBlockInto(fn.Body, dest)
	proto.Emit(bytecode.Instruction{
		Op:   bytecode.RETURN,
		A:    bytecode.RegisterAddr(uint32(dest)),
		Type: toOperandType(c.res.TypeOf(fn.Body)),
		D:    true,
	}, fn.Span().Start)
	proto.RegisterCount = c.alloc.HighWaterMark()
	c.checkConstantOverflow(proto, fn.Span().Start)
}

// checkConstantOverflow surfaces a constant table that rejected an
// add_* call as a CompileError (spec §7): "constant table overflow
// (>2^16 entries), string pool overflow (>2^32 bytes)".
func (c *compiler) checkConstantOverflow(proto *program.Prototype, pos token.Position) {
	if proto.Constants.Overflowed() {
		c.errAt(pos, "constant table overflow in prototype %q", proto.Name)
	}
}
