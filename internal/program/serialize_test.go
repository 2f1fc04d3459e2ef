package program

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solaeus/dust/internal/bytecode"
	"github.com/solaeus/dust/internal/token"
)

func buildSampleProgram() *Program {
	p := New()
	main := NewPrototype("main", 0, FunctionType{Return: bytecode.OpInteger})
	kInt := main.Constants.AddInteger(41)
	kStr := main.Constants.AddString("hello")
	main.Emit(bytecode.Instruction{Op: bytecode.LOAD_CONSTANT, A: bytecode.RegisterAddr(0), B: bytecode.ConstantAddr(kInt), Type: bytecode.OpInteger}, token.Position{})
	main.Emit(bytecode.Instruction{Op: bytecode.LOAD_CONSTANT, A: bytecode.RegisterAddr(1), B: bytecode.ConstantAddr(kStr), Type: bytecode.OpString}, token.Position{})
	main.Emit(bytecode.Instruction{Op: bytecode.RETURN, A: bytecode.RegisterAddr(0), Type: bytecode.OpInteger, D: true}, token.Position{})
	main.RegisterCount = 2
	p.AddPrototype(main)
	return p
}

func TestSerializeDeserializeRoundTrips(t *testing.T) {
	original := buildSampleProgram()
	data := Serialize(original)

	restored, err := Deserialize(data)
	require.NoError(t, err)
	require.Len(t, restored.Prototypes, 1)

	got := restored.Prototypes[0]
	want := original.Prototypes[0]
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.RegisterCount, got.RegisterCount)
	assert.Equal(t, want.Instructions, got.Instructions)
	assert.Equal(t, want.Constants.Entries, got.Constants.Entries)
	assert.Equal(t, want.Constants.StringPool, got.Constants.StringPool)
}

func TestDeserializeRejectsBadMagic(t *testing.T) {
	_, err := Deserialize([]byte{0, 0, 0, 0})
	assert.Error(t, err)
}

func TestDisassembleMentionsEveryOpcode(t *testing.T) {
	p := buildSampleProgram()
	text := p.Main().Disassemble()
	assert.Contains(t, text, "LOAD_CONSTANT")
	assert.Contains(t, text, "RETURN")
}
