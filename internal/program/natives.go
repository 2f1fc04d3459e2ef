package program

// NativeFunctionNames is the fixed native table addressed by
// CALL_NATIVE's fn_id (spec §4.7). Index 0-4 is the minimum table; index
// 5 is a Dust-specific addition the for-in lowering needs, since the
// core opcode set has no length primitive.
var NativeFunctionNames = [...]string{
	"_no_op",
	"_to_string",
	"_read_line",
	"_write_line",
	"_spawn",
	"_list_length",
}

// NativeFunctionIDs is the inverse of NativeFunctionNames, used by the
// compiler to resolve a call site's fn_id.
var NativeFunctionIDs = func() map[string]uint32 {
	m := make(map[string]uint32, len(NativeFunctionNames))
	for i, name := range NativeFunctionNames {
		m[name] = uint32(i)
	}
	return m
}()

// NativeFunctionArity gives each native's fixed argument count, parallel
// to NativeFunctionNames. CALL_NATIVE carries no arg_count field of its
// own (spec §4.7), so the VM derives it from here the same way it
// derives CALL's arg count from the callee prototype's param list.
var NativeFunctionArity = [...]int{
	0, // _no_op
	1, // _to_string
	0, // _read_line
	1, // _write_line
	1, // _spawn
	1, // _list_length
}
