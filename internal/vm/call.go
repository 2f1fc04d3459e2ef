package vm

import (
	"github.com/solaeus/dust/internal/bytecode"
	"github.com/solaeus/dust/internal/derrors"
	"github.com/solaeus/dust/internal/value"
)

// call implements CALL: B names the callee prototype directly (spec
// §4.7, "recursive calls resolve against a preregistered prototype"), C
// is the register window the arguments were placed into by the caller,
// and the argument count is the callee's own declared param count.
func (t *task) call(fr *frame, instr bytecode.Instruction) error {
	protoIdx := int(instr.B.Index)
	if protoIdx < 0 || protoIdx >= len(t.vm.prog.Prototypes) {
		return t.runtimeErr(fr, "call to unknown prototype %d", protoIdx)
	}
	if len(t.frames) >= maxCallDepth {
		return derrors.New(derrors.RuntimeError, posOf(fr), "call stack overflow")
	}
	target := t.vm.prog.Prototypes[protoIdx]
	args := t.gatherArgs(fr, int(instr.C.Index), len(target.Type.Params))
	t.pushFrame(target, args, true, fr.base, instr.A.Index)
	return nil
}

// callNative implements CALL_NATIVE: B is the fixed table index and the
// argument count comes from NativeFunctionArity, since the opcode
// carries no arg_count field of its own.
func (t *task) callNative(fr *frame, instr bytecode.Instruction) error {
	id := int(instr.B.Index)
	if id < 0 || id >= len(nativeTable) {
		return t.runtimeErr(fr, "call to unknown native %d", id)
	}
	args := t.gatherArgs(fr, int(instr.C.Index), nativeArity(id))
	v, err := nativeTable[id](t, fr, args)
	if err != nil {
		return err
	}
	t.setRegister(fr, instr.A, v)
	return nil
}

// gatherArgs copies count consecutive registers starting at base+start
// out of the live register stack. A copy (not a slice) is required:
// pushFrame's append can reallocate t.registers, which would otherwise
// invalidate a slice taken from it.
func (t *task) gatherArgs(fr *frame, start, count int) []value.Value {
	if count == 0 {
		return nil
	}
	args := make([]value.Value, count)
	copy(args, t.registers[fr.base+start:fr.base+start+count])
	return args
}

func (t *task) doReturn(fr *frame, instr bytecode.Instruction) (result value.Value, done bool, err error) {
	var v value.Value
	if instr.D {
		v, err = t.resolve(instr.A, instr.Type, fr)
		if err != nil {
			return value.Value{}, false, err
		}
	} else {
		v = value.None()
	}
	popped := t.popFrame()
	if !popped.hasDest {
		return v, true, nil
	}
	t.registers[popped.destBase+int(popped.destReg)] = v
	return value.Value{}, false, nil
}
