package vm

import (
	"fmt"
	"strings"

	"github.com/solaeus/dust/internal/program"
	"github.com/solaeus/dust/internal/value"
)

type nativeFunc func(t *task, fr *frame, args []value.Value) (value.Value, error)

// nativeTable is indexed by the same fn_id CALL_NATIVE carries, parallel
// to program.NativeFunctionNames/NativeFunctionArity.
var nativeTable = [...]nativeFunc{
	nativeNoOp,
	nativeToString,
	nativeReadLine,
	nativeWriteLine,
	nativeSpawn,
	nativeListLength,
}

func nativeArity(id int) int {
	if id < 0 || id >= len(program.NativeFunctionArity) {
		return 0
	}
	return program.NativeFunctionArity[id]
}

func nativeNoOp(t *task, fr *frame, args []value.Value) (value.Value, error) {
	return value.None(), nil
}

// nativeToString stringifies any value through the VM's existing String()
// formatting and allocates the result as a heap string (spec §6:
// `_to_string(any) -> string`).
func nativeToString(t *task, fr *frame, args []value.Value) (value.Value, error) {
	s := args[0].String()
	obj := t.heap.Allocate(value.NewStringObject(s), t.roots)
	return value.String(obj), nil
}

// nativeReadLine reads one line from the VM's configured stdin, UTF-8,
// trailing newline stripped (spec §6 "Host-provided services").
func nativeReadLine(t *task, fr *frame, args []value.Value) (value.Value, error) {
	line, err := t.vm.stdin.ReadString('\n')
	if err != nil && line == "" {
		obj := t.heap.Allocate(value.NewStringObject(""), t.roots)
		return value.String(obj), nil
	}
	line = strings.TrimRight(line, "\r\n")
	obj := t.heap.Allocate(value.NewStringObject(line), t.roots)
	return value.String(obj), nil
}

// nativeWriteLine writes a UTF-8 line to the VM's configured stdout,
// newline appended (spec §6).
func nativeWriteLine(t *task, fr *frame, args []value.Value) (value.Value, error) {
	fmt.Fprintln(t.vm.stdout, args[0].String())
	return value.None(), nil
}

// nativeSpawn enqueues the given function's prototype as a new top-level
// task (spec §5: "only `_spawn` can yield control to an external
// scheduler, which enqueues work but does not block the caller").
// Spawning a native-backed function value is rejected: there is no
// prototype to run as a task.
func nativeSpawn(t *task, fr *frame, args []value.Value) (value.Value, error) {
	fnVal := args[0]
	if fnVal.Obj == nil || fnVal.Obj.PrototypeIndex < 0 {
		return value.Value{}, t.runtimeErr(fr, "_spawn requires a user-defined function")
	}
	t.vm.pending = append(t.vm.pending, spawnRequest{prototypeIndex: fnVal.Obj.PrototypeIndex})
	return value.None(), nil
}

// nativeListLength is the Dust-specific addition the for-in lowering
// needs (program.NativeFunctionNames' doc comment explains why).
func nativeListLength(t *task, fr *frame, args []value.Value) (value.Value, error) {
	lst := args[0]
	if lst.Obj == nil {
		return value.Integer(0), nil
	}
	return value.Integer(int64(len(lst.Obj.List))), nil
}
