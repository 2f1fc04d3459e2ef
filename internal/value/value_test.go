package value

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/solaeus/dust/internal/bytecode"
)

func TestPrimitiveRoundTrips(t *testing.T) {
	assert.Equal(t, int64(42), Integer(42).AsInteger())
	assert.Equal(t, -7, int(Integer(-7).AsInteger()))
	assert.InDelta(t, 3.5, Float(3.5).AsFloat(), 0)
	assert.True(t, Bool(true).AsBool())
	assert.False(t, Bool(false).AsBool())
	assert.Equal(t, byte(0xAB), Byte(0xAB).AsByte())
	assert.Equal(t, 'x', Character('x').AsCharacter())
}

func TestEveryValueCarriesItsOperandType(t *testing.T) {
	assert.Equal(t, bytecode.OpInteger, Integer(1).Type)
	assert.Equal(t, bytecode.OpFloat, Float(1).Type)
	assert.Equal(t, bytecode.OpBoolean, Bool(true).Type)
	assert.Equal(t, bytecode.OpNone, None().Type)
}

func TestTruthyOnlyBooleanValues(t *testing.T) {
	assert.True(t, Bool(true).Truthy())
	assert.False(t, Bool(false).Truthy())
	assert.False(t, Integer(1).Truthy())
	assert.False(t, None().Truthy())
}

func TestEqualComparesHeapObjectsStructurally(t *testing.T) {
	a := String(NewStringObject("hi"))
	b := String(NewStringObject("hi"))
	assert.True(t, Equal(a, b))
	assert.NotSame(t, a.Obj, b.Obj)
}

func TestEqualDistinguishesListContents(t *testing.T) {
	a := List(NewListObject(byte(bytecode.OpInteger), []Value{Integer(1), Integer(2)}))
	b := List(NewListObject(byte(bytecode.OpInteger), []Value{Integer(1), Integer(3)}))
	assert.False(t, Equal(a, b))
}

func TestListObjectReferencesHeapElements(t *testing.T) {
	inner := String(NewStringObject("x"))
	outer := NewListObject(byte(bytecode.OpString), []Value{inner})
	refs := outer.References()
	assert.Len(t, refs, 1)
	assert.Same(t, inner.Obj, refs[0])
}
