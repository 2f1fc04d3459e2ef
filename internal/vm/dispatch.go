package vm

import (
	"github.com/solaeus/dust/internal/bytecode"
	"github.com/solaeus/dust/internal/program"
	"github.com/solaeus/dust/internal/value"
)

// run is the dispatch loop (spec §4.7 "Dispatch"): it reads the
// instruction at the current frame's ip, advances ip, and switches on
// opcode until the initial frame pops (RETURN from main), at which
// point it yields that value to the caller.
func (t *task) run() (value.Value, error) {
	for {
		fr := t.current()
		if fr.ip >= len(fr.proto.Instructions) {
			return value.Value{}, t.runtimeErr(fr, "fell off the end of prototype %q with no RETURN", fr.proto.Name)
		}
		instr := fr.proto.Instructions[fr.ip]
		fr.ip++

		result, done, err := t.step(fr, instr)
		if err != nil {
			return value.Value{}, err
		}
		if done {
			return result, nil
		}
	}
}

// step executes one instruction. done is true only when the initial
// frame has just returned, in which case result is the program's value.
func (t *task) step(fr *frame, instr bytecode.Instruction) (result value.Value, done bool, err error) {
	switch instr.Op {
	case bytecode.LOAD, bytecode.LOAD_ENCODED, bytecode.LOAD_CONSTANT, bytecode.LOAD_INLINE, bytecode.LOAD_FUNCTION, bytecode.LOAD_LIST:
		var v value.Value
		if instr.Type == bytecode.OpNone {
			v = value.None()
		} else {
			v, err = t.resolve(instr.B, instr.Type, fr)
			if err != nil {
				return value.Value{}, false, err
			}
		}
		t.setRegister(fr, instr.A, v)

	case bytecode.MOVE:
		v, rerr := t.resolve(instr.B, instr.Type, fr)
		if rerr != nil {
			return value.Value{}, false, rerr
		}
		t.setRegister(fr, instr.A, v)

	case bytecode.ADD:
		left, right, rerr := t.resolveBinary(fr, instr)
		if rerr != nil {
			return value.Value{}, false, rerr
		}
		v, aerr := t.add(fr, left, right, instr.Type)
		if aerr != nil {
			return value.Value{}, false, aerr
		}
		t.setRegister(fr, instr.A, v)

	case bytecode.SUBTRACT, bytecode.MULTIPLY, bytecode.DIVIDE, bytecode.MODULO, bytecode.POWER:
		left, right, rerr := t.resolveBinary(fr, instr)
		if rerr != nil {
			return value.Value{}, false, rerr
		}
		v, aerr := t.arithmetic(fr, instr.Op, left, right, instr.Type)
		if aerr != nil {
			return value.Value{}, false, aerr
		}
		t.setRegister(fr, instr.A, v)

	case bytecode.NEGATE:
		operand, rerr := t.resolve(instr.B, instr.Type, fr)
		if rerr != nil {
			return value.Value{}, false, rerr
		}
		switch instr.Type {
		case bytecode.OpInteger:
			t.setRegister(fr, instr.A, value.Integer(saturateNeg(operand.AsInteger())))
		case bytecode.OpFloat:
			t.setRegister(fr, instr.A, value.Float(-operand.AsFloat()))
		default:
			return value.Value{}, false, t.runtimeErr(fr, "invalid operand type for NEGATE: %s", instr.Type)
		}

	case bytecode.NOT:
		operand, rerr := t.resolve(instr.B, bytecode.OpBoolean, fr)
		if rerr != nil {
			return value.Value{}, false, rerr
		}
		t.setRegister(fr, instr.A, value.Bool(!operand.AsBool()))

	case bytecode.EQUAL:
		left, right, rerr := t.resolveBinary(fr, instr)
		if rerr != nil {
			return value.Value{}, false, rerr
		}
		b := value.Equal(left, right)
		if instr.D {
			b = !b
		}
		t.setRegister(fr, instr.A, value.Bool(b))

	case bytecode.LESS, bytecode.LESS_EQUAL:
		left, right, rerr := t.resolveBinary(fr, instr)
		if rerr != nil {
			return value.Value{}, false, rerr
		}
		cmp, ok := compareValues(left, right)
		if !ok {
			return value.Value{}, false, t.runtimeErr(fr, "invalid operand type for comparison: %s", left.Type)
		}
		var b bool
		if instr.Op == bytecode.LESS {
			b = cmp < 0
		} else {
			b = cmp <= 0
		}
		if instr.D {
			b = !b
		}
		t.setRegister(fr, instr.A, value.Bool(b))

	case bytecode.TEST:
		// The JUMP immediately following fires iff cond == D; otherwise it
		// is skipped outright so control falls through past it.
		cond, rerr := t.resolve(instr.A, bytecode.OpBoolean, fr)
		if rerr != nil {
			return value.Value{}, false, rerr
		}
		if cond.Truthy() != instr.D {
			fr.ip++
		}

	case bytecode.JUMP:
		fr.ip += int(int32(instr.A.Index))

	case bytecode.LIST:
		count := int(instr.B.Index)
		elems := make([]value.Value, count)
		obj := t.heap.Allocate(value.NewListObject(byte(instr.Type), elems), t.roots)
		t.setRegister(fr, instr.A, value.List(obj))

	case bytecode.SET_LIST:
		listVal, rerr := t.resolve(instr.A, bytecode.OpList, fr)
		if rerr != nil {
			return value.Value{}, false, rerr
		}
		idxVal, rerr := t.resolve(instr.B, bytecode.OpInteger, fr)
		if rerr != nil {
			return value.Value{}, false, rerr
		}
		elemVal, rerr := t.resolve(instr.C, instr.Type, fr)
		if rerr != nil {
			return value.Value{}, false, rerr
		}
		idx := int(idxVal.AsInteger())
		if listVal.Obj == nil || idx < 0 || idx >= len(listVal.Obj.List) {
			return value.Value{}, false, t.runtimeErr(fr, "list index out of bounds: %d", idx)
		}
		listVal.Obj.List[idx] = elemVal

	case bytecode.GET_LIST:
		listVal, rerr := t.resolve(instr.B, bytecode.OpList, fr)
		if rerr != nil {
			return value.Value{}, false, rerr
		}
		idxVal, rerr := t.resolve(instr.C, bytecode.OpInteger, fr)
		if rerr != nil {
			return value.Value{}, false, rerr
		}
		idx := int(idxVal.AsInteger())
		if listVal.Obj == nil || idx < 0 || idx >= len(listVal.Obj.List) {
			return value.Value{}, false, t.runtimeErr(fr, "list index out of bounds: %d", idx)
		}
		t.setRegister(fr, instr.A, listVal.Obj.List[idx])

	case bytecode.CALL:
		if rerr := t.call(fr, instr); rerr != nil {
			return value.Value{}, false, rerr
		}

	case bytecode.CALL_NATIVE:
		if rerr := t.callNative(fr, instr); rerr != nil {
			return value.Value{}, false, rerr
		}

	case bytecode.RETURN:
		r, last, rerr := t.doReturn(fr, instr)
		if rerr != nil {
			return value.Value{}, false, rerr
		}
		if last {
			return r, true, nil
		}

	default:
		return value.Value{}, false, t.runtimeErr(fr, "unknown opcode %d", instr.Op)
	}
	return value.Value{}, false, nil
}

func (t *task) resolveBinary(fr *frame, instr bytecode.Instruction) (left, right value.Value, err error) {
	left, err = t.resolve(instr.B, instr.Type, fr)
	if err != nil {
		return value.Value{}, value.Value{}, err
	}
	right, err = t.resolve(instr.C, instr.Type, fr)
	if err != nil {
		return value.Value{}, value.Value{}, err
	}
	return left, right, nil
}

// resolve reads the value named by addr, dispatching on its kind (spec
// §4.7 "Dispatch"). typ is the instruction's declared OperandType,
// needed to interpret an ENCODED address's raw bit pattern.
func (t *task) resolve(addr bytecode.Address, typ bytecode.OperandType, fr *frame) (value.Value, error) {
	switch addr.Kind {
	case bytecode.REGISTER:
		idx := fr.base + int(addr.Index)
		if idx < 0 || idx >= len(t.registers) {
			return value.Value{}, t.runtimeErr(fr, "register index out of bounds: %d", addr.Index)
		}
		return t.registers[idx], nil
	case bytecode.CONSTANT:
		table := fr.proto.Constants
		if int(addr.Index) >= len(table.Entries) {
			return value.Value{}, t.runtimeErr(fr, "constant index out of bounds: %d", addr.Index)
		}
		return t.constantValue(table.Entries[addr.Index], table), nil
	case bytecode.ENCODED:
		return encodedValue(addr.Index, typ), nil
	case bytecode.MEMORY:
		if int(addr.Index) >= len(t.memory) {
			return value.None(), nil
		}
		return t.memory[addr.Index], nil
	case bytecode.PROTOTYPE:
		if int(addr.Index) >= len(t.vm.functionObjects) {
			return value.Value{}, t.runtimeErr(fr, "prototype index out of bounds: %d", addr.Index)
		}
		return value.Function(t.vm.functionObjects[addr.Index]), nil
	case bytecode.SELF:
		return value.Function(t.vm.functionObjects[fr.proto.PrototypeIndex]), nil
	default:
		return value.Value{}, t.runtimeErr(fr, "invalid memory kind: %s", addr.Kind)
	}
}

func (t *task) setRegister(fr *frame, addr bytecode.Address, v value.Value) {
	idx := fr.base + int(addr.Index)
	t.registers[idx] = v
}

func (t *task) constantValue(c program.Constant, table *program.ConstantTable) value.Value {
	switch c.Type {
	case bytecode.OpInteger:
		return value.Integer(int64(c.Bits))
	case bytecode.OpFloat:
		return value.Value{Type: bytecode.OpFloat, Bits: c.Bits}
	case bytecode.OpByte:
		return value.Byte(byte(c.Bits))
	case bytecode.OpCharacter:
		return value.Character(rune(c.Bits))
	case bytecode.OpString:
		obj := t.heap.Allocate(value.NewStringObject(table.String(c)), t.roots)
		return value.String(obj)
	default:
		return value.None()
	}
}

func encodedValue(idx uint32, typ bytecode.OperandType) value.Value {
	switch typ {
	case bytecode.OpBoolean:
		return value.Bool(idx != 0)
	case bytecode.OpByte:
		return value.Byte(byte(idx))
	case bytecode.OpCharacter:
		return value.Character(rune(idx))
	case bytecode.OpInteger:
		return value.Integer(int64(idx))
	default:
		return value.None()
	}
}
