package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/solaeus/dust/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestTokenizeArithmetic(t *testing.T) {
	toks, errs := Tokenize([]byte("40 + 2"))
	assert.False(t, errs.HasErrors())
	assert.Equal(t, []token.Kind{token.IntegerLiteral, token.Plus, token.IntegerLiteral, token.EOF}, kinds(toks))
}

func TestTokenizeByteLiteral(t *testing.T) {
	toks, errs := Tokenize([]byte("0x28"))
	assert.False(t, errs.HasErrors())
	assert.Equal(t, token.ByteLiteral, toks[0].Kind)
	assert.Equal(t, "0x28", toks[0].Literal)
}

func TestTokenizeMalformedByteLiteral(t *testing.T) {
	_, errs := Tokenize([]byte("0x2"))
	assert.True(t, errs.HasErrors())
}

func TestTokenizeOverflowingInteger(t *testing.T) {
	_, errs := Tokenize([]byte("99999999999999999999"))
	assert.True(t, errs.HasErrors())
}

func TestTokenizeString(t *testing.T) {
	toks, errs := Tokenize([]byte(`"Hello, World!"`))
	assert.False(t, errs.HasErrors())
	assert.Equal(t, "Hello, World!", toks[0].Literal)
}

func TestTokenizeWhileLoop(t *testing.T) {
	src := `let mut i: int = 0; while i < 10 { i += 1 } i`
	toks, errs := Tokenize([]byte(src))
	assert.False(t, errs.HasErrors())
	assert.Equal(t, token.KwLet, toks[0].Kind)
	assert.Equal(t, token.EOF, toks[len(toks)-1].Kind)
}

func TestTokenizeUnknownByteRecovers(t *testing.T) {
	toks, errs := Tokenize([]byte("1 $ 2"))
	assert.True(t, errs.HasErrors())
	assert.Equal(t, []token.Kind{token.IntegerLiteral, token.Illegal, token.IntegerLiteral, token.EOF}, kinds(toks))
}

func TestTokenizeCharacterLiteral(t *testing.T) {
	toks, errs := Tokenize([]byte(`'a'`))
	assert.False(t, errs.HasErrors())
	assert.Equal(t, token.CharacterLiteral, toks[0].Kind)
	assert.Equal(t, "a", toks[0].Literal)
}
