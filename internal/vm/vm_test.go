package vm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solaeus/dust/internal/compiler"
	"github.com/solaeus/dust/internal/dustconfig"
	"github.com/solaeus/dust/internal/lexer"
	"github.com/solaeus/dust/internal/parser"
	"github.com/solaeus/dust/internal/resolver"
	"github.com/solaeus/dust/internal/value"
	"github.com/solaeus/dust/internal/vm"
)

func run(t *testing.T, src string) value.Value {
	t.Helper()
	toks, lexErrs := lexer.Tokenize([]byte(src))
	require.False(t, lexErrs.HasErrors(), "lex errors: %v", lexErrs)
	prog, parseErrs := parser.Parse(toks)
	require.False(t, parseErrs.HasErrors(), "parse errors: %v", parseErrs)
	res, resErrs := resolver.Resolve(prog)
	require.False(t, resErrs.HasErrors(), "resolve errors: %v", resErrs)
	out, compileErrs := compiler.Compile(prog, res)
	require.False(t, compileErrs.HasErrors(), "compile errors: %v", compileErrs)

	machine := vm.New(out, dustconfig.Default(), nil)
	v, err := machine.Run()
	require.NoError(t, err)
	return v
}

func runErr(t *testing.T, src string) error {
	t.Helper()
	toks, lexErrs := lexer.Tokenize([]byte(src))
	require.False(t, lexErrs.HasErrors())
	prog, parseErrs := parser.Parse(toks)
	require.False(t, parseErrs.HasErrors())
	res, resErrs := resolver.Resolve(prog)
	require.False(t, resErrs.HasErrors())
	out, compileErrs := compiler.Compile(prog, res)
	require.False(t, compileErrs.HasErrors())

	machine := vm.New(out, dustconfig.Default(), nil)
	_, err := machine.Run()
	return err
}

func TestIntegerAddition(t *testing.T) {
	v := run(t, "40 + 2")
	assert.Equal(t, int64(42), v.AsInteger())
}

func TestByteAddition(t *testing.T) {
	v := run(t, "0x28 + 0x02")
	assert.Equal(t, byte(0x2A), v.AsByte())
}

func TestStringConcatenation(t *testing.T) {
	v := run(t, `"Hello, " + "World!"`)
	assert.Equal(t, "Hello, World!", v.String())
}

func TestCharacterAdditionProducesAString(t *testing.T) {
	v := run(t, `'a' + 'b'`)
	assert.Equal(t, "ab", v.String())
}

func TestWhileLoopCountsToFive(t *testing.T) {
	v := run(t, `let mut i: int = 0; while i < 5 { i += 1 } i`)
	assert.Equal(t, int64(5), v.AsInteger())
}

func TestIfComparisonPeepholeEvaluatesTrue(t *testing.T) {
	v := run(t, `if 4 == 4 { true } else { false }`)
	assert.True(t, v.AsBool())
}

func TestListLiteralProducesAThreeElementList(t *testing.T) {
	v := run(t, `[1, 2, 3]`)
	require.NotNil(t, v.Obj)
	require.Len(t, v.Obj.List, 3)
	assert.Equal(t, int64(1), v.Obj.List[0].AsInteger())
	assert.Equal(t, int64(2), v.Obj.List[1].AsInteger())
	assert.Equal(t, int64(3), v.Obj.List[2].AsInteger())
}

func TestRecursiveFibonacci(t *testing.T) {
	src := `
fn fib(x: int) -> int {
	if x <= 1 { 1 } else { fib(x - 1) + fib(x - 2) }
}

fib(8)
`
	v := run(t, src)
	assert.Equal(t, int64(34), v.AsInteger())
}

func TestForLoopSumsAList(t *testing.T) {
	src := `
let mut total: int = 0;
for item in [1, 2, 3, 4] {
	total += item;
}
total
`
	v := run(t, src)
	assert.Equal(t, int64(10), v.AsInteger())
}

func TestDivisionByZeroIsARuntimeError(t *testing.T) {
	err := runErr(t, `let mut x: int = 0; 1 / x`)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "division by zero"))
}

func TestModuloByZeroIsARuntimeError(t *testing.T) {
	err := runErr(t, `let mut x: int = 0; 1 % x`)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "division by zero"))
}

func TestSaturatingAdditionAtMaxInt64(t *testing.T) {
	v := run(t, `let mut a: int = 9223372036854775807; let mut b: int = 1; a + b`)
	assert.Equal(t, int64(9223372036854775807), v.AsInteger())
}

func TestSaturatingSubtractionAtMinInt64(t *testing.T) {
	v := run(t, `let mut a: int = -9223372036854775808; let mut b: int = 1; a - b`)
	assert.Equal(t, int64(-9223372036854775808), v.AsInteger())
}

func TestWriteLineGoesToConfiguredStdout(t *testing.T) {
	toks, lexErrs := lexer.Tokenize([]byte(`_write_line("hello")`))
	require.False(t, lexErrs.HasErrors())
	prog, parseErrs := parser.Parse(toks)
	require.False(t, parseErrs.HasErrors())
	res, resErrs := resolver.Resolve(prog)
	require.False(t, resErrs.HasErrors())
	out, compileErrs := compiler.Compile(prog, res)
	require.False(t, compileErrs.HasErrors())

	var buf bytes.Buffer
	machine := vm.New(out, dustconfig.Default(), nil)
	machine.SetStdio(nil, &buf)
	_, err := machine.Run()
	require.NoError(t, err)
	assert.Equal(t, "hello\n", buf.String())
}

func TestSpawnRunsAfterTheSpawningTaskFinishes(t *testing.T) {
	src := `
fn greet() -> none {
	_write_line("spawned");
}

_spawn(greet);
_write_line("main");
`
	toks, lexErrs := lexer.Tokenize([]byte(src))
	require.False(t, lexErrs.HasErrors())
	prog, parseErrs := parser.Parse(toks)
	require.False(t, parseErrs.HasErrors())
	res, resErrs := resolver.Resolve(prog)
	require.False(t, resErrs.HasErrors())
	out, compileErrs := compiler.Compile(prog, res)
	require.False(t, compileErrs.HasErrors())

	var buf bytes.Buffer
	machine := vm.New(out, dustconfig.Default(), nil)
	machine.SetStdio(nil, &buf)
	_, err := machine.Run()
	require.NoError(t, err)
	// The spawning task (main) runs to completion before any queued task
	// is drained, so "main" is always written before "spawned".
	assert.Equal(t, "main\nspawned\n", buf.String())
}

func TestGCSurvivesAReachableString(t *testing.T) {
	// DefaultDebug's tiny heap forces a collection well before this
	// program finishes, so the surviving value exercises mark-sweep
	// liveness rather than just allocation (spec §8 property 3).
	toks, lexErrs := lexer.Tokenize([]byte(`
let mut s: string = "kept";
let mut i: int = 0;
while i < 64 {
	let mut junk: string = "discarded";
	i += 1;
}
s
`))
	require.False(t, lexErrs.HasErrors())
	prog, parseErrs := parser.Parse(toks)
	require.False(t, parseErrs.HasErrors())
	res, resErrs := resolver.Resolve(prog)
	require.False(t, resErrs.HasErrors())
	out, compileErrs := compiler.Compile(prog, res)
	require.False(t, compileErrs.HasErrors())

	machine := vm.New(out, dustconfig.DefaultDebug(), nil)
	v, err := machine.Run()
	require.NoError(t, err)
	assert.Equal(t, "kept", v.String())
}
