package compiler

import "github.com/solaeus/dust/internal/program"

// nativeFunctions maps a callable name to its CALL_NATIVE table index.
// The IDs follow program.NativeFunctionNames' order; the VM's nativeTable
// is a separate array listed in that same order.
var nativeFunctions = program.NativeFunctionIDs
