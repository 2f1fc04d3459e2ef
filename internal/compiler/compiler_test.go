package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solaeus/dust/internal/bytecode"
	"github.com/solaeus/dust/internal/lexer"
	"github.com/solaeus/dust/internal/parser"
	"github.com/solaeus/dust/internal/program"
	"github.com/solaeus/dust/internal/resolver"
)

func compileSource(t *testing.T, src string) *program.Program {
	t.Helper()
	toks, lexErrs := lexer.Tokenize([]byte(src))
	require.False(t, lexErrs.HasErrors(), "lex errors: %v", lexErrs)
	prog, parseErrs := parser.Parse(toks)
	require.False(t, parseErrs.HasErrors(), "parse errors: %v", parseErrs)
	res, resErrs := resolver.Resolve(prog)
	require.False(t, resErrs.HasErrors(), "resolve errors: %v", resErrs)
	out, compileErrs := Compile(prog, res)
	require.False(t, compileErrs.HasErrors(), "compile errors: %v", compileErrs)
	return out
}

func countOps(instrs []bytecode.Instruction, ops ...bytecode.OpCode) int {
	want := make(map[bytecode.OpCode]bool, len(ops))
	for _, op := range ops {
		want[op] = true
	}
	n := 0
	for _, instr := range instrs {
		if want[instr.Op] {
			n++
		}
	}
	return n
}

func TestIfComparisonPeepholeEmitsNoTest(t *testing.T) {
	prog := compileSource(t, `if 4 == 4 { true } else { false }`)
	main := prog.Main()
	require.NotNil(t, main)

	assert.Equal(t, 1, countOps(main.Instructions, bytecode.EQUAL, bytecode.LESS, bytecode.LESS_EQUAL),
		"expected exactly one comparison opcode")
	assert.Equal(t, 0, countOps(main.Instructions, bytecode.TEST),
		"expected zero TEST opcodes once the peephole applies")
	assert.Equal(t, 0, countOps(main.Instructions, bytecode.JUMP),
		"the peephole needs no branch at all")
}

func TestIfComparisonPeepholeInvertsOnSwappedArms(t *testing.T) {
	prog := compileSource(t, `if 1 < 2 { false } else { true }`)
	main := prog.Main()
	require.NotNil(t, main)

	var found bool
	for _, instr := range main.Instructions {
		if instr.Op == bytecode.LESS {
			found = true
			assert.True(t, instr.D, "swapped arms should invert the comparison's polarity")
		}
	}
	assert.True(t, found, "expected a LESS instruction")
}

func TestIfWithNonLiteralArmsStillUsesTestAndJump(t *testing.T) {
	prog := compileSource(t, `let x: int = 1; if x == 1 { x } else { x + 1 }`)
	main := prog.Main()
	require.NotNil(t, main)

	assert.Equal(t, 1, countOps(main.Instructions, bytecode.TEST))
}

func TestConstantFoldingCollapsesArithmeticToALoad(t *testing.T) {
	prog := compileSource(t, `2 + 3`)
	main := prog.Main()
	require.NotNil(t, main)

	assert.Equal(t, 0, countOps(main.Instructions, bytecode.ADD),
		"2 + 3 should fold at compile time, leaving no ADD instruction")
}

func TestDivisionByZeroIsACompileErrorWhenFoldable(t *testing.T) {
	toks, lexErrs := lexer.Tokenize([]byte(`1 / 0`))
	require.False(t, lexErrs.HasErrors())
	prog, parseErrs := parser.Parse(toks)
	require.False(t, parseErrs.HasErrors())
	res, resErrs := resolver.Resolve(prog)
	require.False(t, resErrs.HasErrors())

	_, compileErrs := Compile(prog, res)
	require.True(t, compileErrs.HasErrors())
}

func TestModuloByZeroIsACompileErrorWhenFoldable(t *testing.T) {
	toks, _ := lexer.Tokenize([]byte(`1 % 0`))
	prog, _ := parser.Parse(toks)
	res, _ := resolver.Resolve(prog)

	_, compileErrs := Compile(prog, res)
	require.True(t, compileErrs.HasErrors())
}

func TestEmptySourceCompilesToABareReturn(t *testing.T) {
	prog := compileSource(t, ``)
	main := prog.Main()
	require.NotNil(t, main)
	require.Len(t, main.Instructions, 1)
	assert.Equal(t, bytecode.RETURN, main.Instructions[0].Op)
}

func TestCompilationIsDeterministic(t *testing.T) {
	src := `fn fib(n: int) -> int { if n <= 1 { n } else { fib(n - 1) + fib(n - 2) } } fib(8)`
	a := compileSource(t, src)
	b := compileSource(t, src)

	require.Equal(t, len(a.Prototypes), len(b.Prototypes))
	for i := range a.Prototypes {
		assert.Equal(t, a.Prototypes[i].Instructions, b.Prototypes[i].Instructions, "prototype %d", i)
		assert.Equal(t, a.Prototypes[i].RegisterCount, b.Prototypes[i].RegisterCount, "prototype %d", i)
	}
}

func TestRecursiveCallResolvesAgainstAPreregisteredPrototype(t *testing.T) {
	prog := compileSource(t, `fn fib(n: int) -> int { if n <= 1 { n } else { fib(n - 1) + fib(n - 2) } } fib(8)`)
	require.Len(t, prog.Prototypes, 2)

	var fib *program.Prototype
	for _, p := range prog.Prototypes {
		if p.Name == "fib" {
			fib = p
		}
	}
	require.NotNil(t, fib)
	assert.Equal(t, 2, countOps(fib.Instructions, bytecode.CALL), "fib should call itself twice")
}

func TestSaturatingAdditionFoldsAtMaxInt64(t *testing.T) {
	prog := compileSource(t, `9223372036854775807 + 1`)
	main := prog.Main()
	require.NotNil(t, main)
	assert.Equal(t, 0, countOps(main.Instructions, bytecode.ADD))
}

func TestForLoopLowersToIndexCounterWhileWithGetList(t *testing.T) {
	prog := compileSource(t, `for item in [1, 2, 3] { item }`)
	main := prog.Main()
	require.NotNil(t, main)

	assert.Equal(t, 1, countOps(main.Instructions, bytecode.GET_LIST))
	assert.Equal(t, 1, countOps(main.Instructions, bytecode.CALL_NATIVE))
	assert.GreaterOrEqual(t, countOps(main.Instructions, bytecode.TEST), 1)
}

func TestCompoundAssignmentSkipsAnExtraMove(t *testing.T) {
	prog := compileSource(t, `let mut i: int = 0; i += 1; i`)
	main := prog.Main()
	require.NotNil(t, main)

	var add *bytecode.Instruction
	for idx := range main.Instructions {
		if main.Instructions[idx].Op == bytecode.ADD {
			add = &main.Instructions[idx]
		}
	}
	require.NotNil(t, add)
	assert.Equal(t, add.A, add.B, "compound assignment should read and write the same register")
}

func TestLogicalOrShortCircuitsOnTrue(t *testing.T) {
	prog := compileSource(t, `let mut a: bool = true; let mut b: bool = false; a || b`)
	main := prog.Main()
	require.NotNil(t, main)

	var test *bytecode.Instruction
	for idx := range main.Instructions {
		if main.Instructions[idx].Op == bytecode.TEST {
			test = &main.Instructions[idx]
		}
	}
	require.NotNil(t, test)
	assert.True(t, test.D, "|| should jump past the right operand when the left side is true")
}
