package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeEncodeRoundTrips(t *testing.T) {
	cases := []Instruction{
		{Op: LOAD, A: RegisterAddr(3), Type: OpInteger},
		{Op: ADD, A: RegisterAddr(1), B: RegisterAddr(2), C: RegisterAddr(3), Type: OpInteger},
		{Op: LOAD_CONSTANT, A: RegisterAddr(0), B: ConstantAddr(12), Type: OpString},
		{Op: TEST, A: RegisterAddr(5), D: true},
		{Op: JUMP, A: EncodedAddr(40)},
		{Op: JUMP, A: EncodedAddr(uint32(int32(-40)))},
		{Op: JUMP, A: EncodedAddr(uint32(int32(-1)))},
		{Op: CALL, A: RegisterAddr(0), B: PrototypeAddr(7), C: RegisterAddr(1), Type: OpInteger},
		{Op: RETURN, A: SelfAddr(), D: true},
		{Op: LESS, A: RegisterAddr(1), B: RegisterAddr(2), C: RegisterAddr(3), Type: OpBoolean, D: true},
		{Op: MOVE, A: RegisterAddr(MaxIndex), B: MemoryAddr(MaxIndex)},
	}

	for _, want := range cases {
		word, aux := want.Encode()
		got := Decode(word, aux)
		assert.Equal(t, want, got)
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	i := Instruction{Op: ADD, A: RegisterAddr(1), B: RegisterAddr(2), C: RegisterAddr(3), Type: OpInteger}
	w1, a1 := i.Encode()
	w2, a2 := i.Encode()
	assert.Equal(t, w1, w2)
	assert.Equal(t, a1, a2)
}

func TestOpCodeStringNamesEveryCoreOpcode(t *testing.T) {
	for op := LOAD; op <= MOVE; op++ {
		assert.NotEqual(t, "UNKNOWN", op.String())
	}
}
