// Package vm implements spec §4.7 and §5: a register-based interpreter
// dispatching one packed instruction at a time, plus the cooperative
// task scheduler `_spawn` feeds.
package vm

import (
	"bufio"
	"io"
	"os"

	"github.com/dolthub/swiss"

	"github.com/solaeus/dust/internal/bytecode"
	"github.com/solaeus/dust/internal/derrors"
	"github.com/solaeus/dust/internal/dustconfig"
	"github.com/solaeus/dust/internal/heap"
	"github.com/solaeus/dust/internal/program"
	"github.com/solaeus/dust/internal/trace"
	"github.com/solaeus/dust/internal/value"
)

// maxCallDepth is the call stack's configured depth (spec §8: "a call
// stack reaching its configured depth on the next CALL triggers
// CallStackOverflow"). Not part of dustconfig.Config: spec §6 enumerates
// the only knobs that cross the host boundary and this isn't one of them.
const maxCallDepth = 1024

// VM owns one immutable Program and dispatches tasks against it. A task
// is a single top-level invocation (main, or a `_spawn`ed prototype);
// each gets its own heap and register/call stacks, since spec §5
// requires the heap not be shared across tasks.
type VM struct {
	prog   *program.Program
	cfg    dustconfig.Config
	logger *trace.Logger

	// functionObjects holds one permanent, non-heap-tracked Object per
	// prototype so `function` values can be produced by PROTOTYPE/SELF
	// addressing without allocating: the program is immutable after
	// compilation, so these never need collecting (spec §9 "Global state").
	functionObjects []*value.Object

	// globalNames resolves a top-level function's name to its prototype
	// address, backed by a swiss.Map for the same reason the compiler's
	// constant table interns strings through one: high-churn,
	// string-keyed lookups on what would otherwise be a hot path for a
	// host driving Dust by name through LookupFunction.
	globalNames *swiss.Map[string, bytecode.Address]

	pending    []spawnRequest
	nextTaskID int

	// stdin/stdout back `_read_line`/`_write_line` (spec §6 "Host-provided
	// services"). They default to the process's own streams but a host
	// embedding the VM (the CLI collaborator included) can redirect them
	// through SetStdio, the same io.Reader/io.Writer passthrough idiom
	// mna/mainer uses for its own Stdio.
	stdin  *bufio.Reader
	stdout io.Writer
}

// SetStdio redirects the streams `_read_line`/`_write_line` use. Passing
// a nil argument leaves that stream unchanged.
func (vm *VM) SetStdio(in io.Reader, out io.Writer) {
	if in != nil {
		vm.stdin = bufio.NewReader(in)
	}
	if out != nil {
		vm.stdout = out
	}
}

type spawnRequest struct {
	prototypeIndex int
}

// New builds a VM ready to run prog under cfg, logging through logger
// (which may be nil; a nil *trace.Logger is a silent logger).
func New(prog *program.Program, cfg dustconfig.Config, logger *trace.Logger) *VM {
	functionObjects := make([]*value.Object, len(prog.Prototypes))
	names := swiss.NewMap[string, bytecode.Address](uint32(len(prog.Prototypes)))
	for i, proto := range prog.Prototypes {
		functionObjects[i] = value.NewFunctionObject(i)
		names.Put(proto.Name, bytecode.PrototypeAddr(uint32(i)))
	}
	return &VM{
		prog:            prog,
		cfg:             cfg,
		logger:          logger,
		functionObjects: functionObjects,
		globalNames:     names,
		stdin:           bufio.NewReader(os.Stdin),
		stdout:          os.Stdout,
	}
}

// LookupFunction resolves a top-level function (or main) by name.
func (vm *VM) LookupFunction(name string) (bytecode.Address, bool) {
	return vm.globalNames.Get(name)
}

// Run executes main (prototype 0) to completion, then drains any tasks
// `_spawn` queued along the way, per spec §5's "queues work but does not
// block the caller" — the queue is drained breadth-first once the
// spawning task itself has nothing left to do.
func (vm *VM) Run() (value.Value, error) {
	result, err := vm.runTask(0, nil)
	if err != nil {
		return value.None(), err
	}
	vm.drainSpawnedTasks()
	return result, nil
}

// RunPrototype executes an arbitrary prototype as a fresh top-level task,
// for a host that wants to run a function other than main; it then
// drains spawned tasks the same way Run does.
func (vm *VM) RunPrototype(index int, args []value.Value) (value.Value, error) {
	result, err := vm.runTask(index, args)
	if err != nil {
		return value.None(), err
	}
	vm.drainSpawnedTasks()
	return result, nil
}

func (vm *VM) drainSpawnedTasks() {
	for len(vm.pending) > 0 {
		req := vm.pending[0]
		vm.pending = vm.pending[1:]
		taskID := vm.nextTaskID
		vm.nextTaskID++
		vm.logger.TaskSpawned(taskID)
		_, err := vm.runTask(req.prototypeIndex, nil)
		vm.logger.TaskExited(taskID, err)
	}
}

// task is one independent execution: its own heap, register stack, and
// call stack. Spawned tasks never see another task's heap or registers.
type task struct {
	vm        *VM
	heap      *heap.Heap
	registers []value.Value
	frames    []frame
	memory    []value.Value // reserved MEMORY-kind side pool; unused by the current compiler
}

// frame is spec §3's CallFrame: a window onto the task's register stack
// plus where (if anywhere) its return value is written back.
type frame struct {
	proto *program.Prototype
	base  int
	ip    int

	hasDest  bool
	destBase int
	destReg  uint32
}

func (vm *VM) runTask(protoIndex int, args []value.Value) (value.Value, error) {
	if protoIndex < 0 || protoIndex >= len(vm.prog.Prototypes) {
		return value.None(), derrors.New(derrors.RuntimeError, noPosition(), "prototype index %d out of bounds", protoIndex)
	}
	t := &task{
		vm:   vm,
		heap: heap.New(cfgOrDefault(vm.cfg)),
	}
	proto := vm.prog.Prototypes[protoIndex]
	t.pushFrame(proto, args, false, 0, 0)
	return t.run()
}

func cfgOrDefault(cfg dustconfig.Config) (int, int) {
	if cfg.MinimumHeapBytes == 0 && cfg.MinimumSweepBytes == 0 {
		d := dustconfig.Default()
		return d.MinimumHeapBytes, d.MinimumSweepBytes
	}
	return cfg.MinimumHeapBytes, cfg.MinimumSweepBytes
}

// pushFrame reserves register_count fresh registers for proto, seeds any
// arguments into its first slots, and pushes the frame. destBase/destReg
// identify where RETURN should write back in the caller, ignored when
// hasDest is false (the initial frame).
func (t *task) pushFrame(proto *program.Prototype, args []value.Value, hasDest bool, destBase int, destReg uint32) *frame {
	base := len(t.registers)
	t.registers = append(t.registers, make([]value.Value, proto.RegisterCount)...)
	for i, a := range args {
		if i >= proto.RegisterCount {
			break
		}
		t.registers[base+i] = a
	}
	t.frames = append(t.frames, frame{
		proto: proto, base: base, hasDest: hasDest, destBase: destBase, destReg: destReg,
	})
	return &t.frames[len(t.frames)-1]
}

func (t *task) popFrame() frame {
	fr := t.frames[len(t.frames)-1]
	t.frames = t.frames[:len(t.frames)-1]
	t.registers = t.registers[:fr.base]
	return fr
}

func (t *task) current() *frame { return &t.frames[len(t.frames)-1] }

// roots implements heap.RootsFunc: every register in every live frame's
// window is a GC root, since any of them may hold the last reference to
// a heap object.
func (t *task) roots() []value.Value {
	if len(t.frames) == 0 {
		return nil
	}
	top := t.frames[len(t.frames)-1]
	end := top.base + top.proto.RegisterCount
	if end > len(t.registers) {
		end = len(t.registers)
	}
	return t.registers[:end]
}
