package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solaeus/dust/internal/ast"
	"github.com/solaeus/dust/internal/lexer"
)

func parseSource(t *testing.T, src string) *ast.Program {
	t.Helper()
	toks, lexErrs := lexer.Tokenize([]byte(src))
	require.False(t, lexErrs.HasErrors(), "lex errors: %v", lexErrs)
	prog, parseErrs := Parse(toks)
	require.False(t, parseErrs.HasErrors(), "parse errors: %v", parseErrs)
	return prog
}

func TestParseWhileLoop(t *testing.T) {
	prog := parseSource(t, `let mut i: int = 0; while i < 10 { i += 1 } i`)
	require.Len(t, prog.Items, 1)
	main, ok := prog.Items[0].(*ast.MainFunction)
	require.True(t, ok)
	require.Len(t, main.Body.Stmts, 3)
	_, ok = main.Body.Stmts[0].(*ast.LetStmt)
	assert.True(t, ok)
}

func TestParseIfElse(t *testing.T) {
	prog := parseSource(t, `if 4 == 4 { true } else { false }`)
	main := prog.Items[0].(*ast.MainFunction)
	stmt := main.Body.Stmts[0].(*ast.ExprStmt)
	ifExpr, ok := stmt.Value.(*ast.IfExpr)
	require.True(t, ok)
	assert.NotNil(t, ifExpr.Else)
}

func TestParseFunctionItem(t *testing.T) {
	prog := parseSource(t, `fn f(x: int) -> int { if x <= 1 { 1 } else { f(x-1) + f(x-2) } } f(8)`)
	require.Len(t, prog.Items, 2)
	fn, ok := prog.Items[0].(*ast.FunctionItem)
	require.True(t, ok)
	assert.Equal(t, "f", fn.Name)
	assert.Equal(t, "int", fn.ReturnType)
}

func TestParseListLiteral(t *testing.T) {
	prog := parseSource(t, `[1, 2, 3]`)
	main := prog.Items[0].(*ast.MainFunction)
	stmt := main.Body.Stmts[0].(*ast.ExprStmt)
	list, ok := stmt.Value.(*ast.ListExpr)
	require.True(t, ok)
	assert.Len(t, list.Elements, 3)
}

func TestParseErrorRecoversAndStillProducesATree(t *testing.T) {
	toks, _ := lexer.Tokenize([]byte(`let x = ; let y = 2;`))
	prog, errs := Parse(toks)
	assert.True(t, errs.HasErrors())
	require.NotNil(t, prog)
	assert.NotEmpty(t, prog.Items)
}

func TestUninitializedLetIsError(t *testing.T) {
	toks, _ := lexer.Tokenize([]byte(`let x: int; x`))
	_, errs := Parse(toks)
	assert.True(t, errs.HasErrors())
}
