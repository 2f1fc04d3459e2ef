package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solaeus/dust/internal/derrors"
	"github.com/solaeus/dust/internal/lexer"
	"github.com/solaeus/dust/internal/parser"
)

func resolveSource(t *testing.T, src string) (*Result, *derrors.List) {
	t.Helper()
	toks, lexErrs := lexer.Tokenize([]byte(src))
	require.False(t, lexErrs.HasErrors(), "lex errors: %v", lexErrs)
	prog, parseErrs := parser.Parse(toks)
	require.False(t, parseErrs.HasErrors(), "parse errors: %v", parseErrs)
	return Resolve(prog)
}

func TestResolveArithmeticMatchesOperandTypes(t *testing.T) {
	_, errs := resolveSource(t, `let x: int = 1; let y: int = 2; x + y`)
	assert.False(t, errs.HasErrors())
}

func TestResolveMismatchedArithmeticIsError(t *testing.T) {
	_, errs := resolveSource(t, `let x: int = 1; let y: float = 2.0; x + y`)
	assert.True(t, errs.HasErrors())
}

func TestResolveStringPlusCharacterIsString(t *testing.T) {
	_, errs := resolveSource(t, `let s: string = "a"; let c: char = 'b'; s + c`)
	assert.False(t, errs.HasErrors())
}

func TestResolveAssignToImmutableIsError(t *testing.T) {
	_, errs := resolveSource(t, `let x: int = 1; x = 2`)
	assert.True(t, errs.HasErrors())
}

func TestResolveAssignToMutableIsFine(t *testing.T) {
	_, errs := resolveSource(t, `let mut x: int = 1; x = 2`)
	assert.False(t, errs.HasErrors())
}

func TestResolveLogicalRequiresBooleanOperands(t *testing.T) {
	_, errs := resolveSource(t, `let x: int = 1; x && true`)
	assert.True(t, errs.HasErrors())
}

func TestResolveIfBranchesMustJoin(t *testing.T) {
	_, errs := resolveSource(t, `if true { 1 } else { "nope" }`)
	assert.True(t, errs.HasErrors())
}

func TestResolveIfWithoutElseIsNone(t *testing.T) {
	_, errs := resolveSource(t, `if true { 1 }`)
	assert.False(t, errs.HasErrors())
}

func TestResolveCallArityMismatchIsError(t *testing.T) {
	_, errs := resolveSource(t, `fn f(x: int) -> int { x } f(1, 2)`)
	assert.True(t, errs.HasErrors())
}

func TestResolveRecursiveCallResolves(t *testing.T) {
	_, errs := resolveSource(t, `fn fib(n: int) -> int { if n <= 1 { n } else { fib(n-1) + fib(n-2) } } fib(8)`)
	assert.False(t, errs.HasErrors())
}

func TestResolveUndeclaredVariableIsError(t *testing.T) {
	_, errs := resolveSource(t, `x`)
	assert.True(t, errs.HasErrors())
}

func TestResolveShadowingUsesInnermostBinding(t *testing.T) {
	_, errs := resolveSource(t, `let x: int = 1; if true { let x: string = "s"; x } else { "" }`)
	assert.False(t, errs.HasErrors())
}
