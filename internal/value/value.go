// Package value implements the runtime Value/Object model of spec §3.
//
// The teacher VM (sentra's vmregister package) represents every value as
// a NaN-boxed uint64 with pointers smuggled through the IEEE-754 quiet-NaN
// space. Spec §3 requires the opposite: "every Value carries its
// OperandType" as an explicit discriminator, and the Object union is
// itself tag-discriminated rather than identified by a hidden pointer
// shape. So this package uses a small tagged struct instead: the tag is
// read without following a pointer by Truthy (TEST), Equal and the VM's
// comparisons (EQUAL/LESS/LESS_EQUAL), IsHeap (the collector's roots),
// and String.
package value

import (
	"fmt"
	"math"

	"github.com/solaeus/dust/internal/bytecode"
)

// Value is a tagged runtime value. Primitive payloads live inline in
// Bits (reinterpreted per Type); heap payloads live in Obj.
type Value struct {
	Type bytecode.OperandType
	Bits uint64
	Obj  *Object
}

func None() Value                 { return Value{Type: bytecode.OpNone} }
func Bool(b bool) Value           { return Value{Type: bytecode.OpBoolean, Bits: boolBits(b)} }
func Byte(b byte) Value           { return Value{Type: bytecode.OpByte, Bits: uint64(b)} }
func Character(r rune) Value      { return Value{Type: bytecode.OpCharacter, Bits: uint64(r)} }
func Integer(i int64) Value       { return Value{Type: bytecode.OpInteger, Bits: uint64(i)} }
func Float(f float64) Value       { return Value{Type: bytecode.OpFloat, Bits: math.Float64bits(f)} }
func String(obj *Object) Value    { return Value{Type: bytecode.OpString, Obj: obj} }
func List(obj *Object) Value      { return Value{Type: bytecode.OpList, Obj: obj} }
func Function(obj *Object) Value  { return Value{Type: bytecode.OpFunction, Obj: obj} }

func boolBits(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func (v Value) AsBool() bool      { return v.Bits != 0 }
func (v Value) AsByte() byte      { return byte(v.Bits) }
func (v Value) AsCharacter() rune { return rune(v.Bits) }
func (v Value) AsInteger() int64  { return int64(v.Bits) }
func (v Value) AsFloat() float64  { return math.Float64frombits(v.Bits) }

// IsHeap reports whether this value's payload lives in Obj.
func (v Value) IsHeap() bool {
	switch v.Type {
	case bytecode.OpString, bytecode.OpList, bytecode.OpFunction:
		return true
	default:
		return false
	}
}

// Truthy implements the language's single notion of truthiness: only
// `boolean` values participate in conditions (spec §4.2/§4.3 restrict
// `if`/`while`/`&&`/`||` conditions to boolean), so this is a direct
// unwrap rather than a per-type coercion table.
func (v Value) Truthy() bool { return v.Type == bytecode.OpBoolean && v.AsBool() }

func (v Value) String() string {
	switch v.Type {
	case bytecode.OpNone:
		return "none"
	case bytecode.OpBoolean:
		return fmt.Sprintf("%t", v.AsBool())
	case bytecode.OpByte:
		return fmt.Sprintf("0x%02x", v.AsByte())
	case bytecode.OpCharacter:
		return string(v.AsCharacter())
	case bytecode.OpInteger:
		return fmt.Sprintf("%d", v.AsInteger())
	case bytecode.OpFloat:
		return fmt.Sprintf("%g", v.AsFloat())
	case bytecode.OpString:
		return v.Obj.Str
	case bytecode.OpList:
		return v.Obj.listString()
	case bytecode.OpFunction:
		return fmt.Sprintf("<function %d>", v.Obj.PrototypeIndex)
	default:
		return "<unknown>"
	}
}

// Equal implements value equality for the EQUAL opcode. Callers are
// expected to have already checked that both operands share an
// OperandType, per the resolver's comparison rule (spec §4.3).
func Equal(a, b Value) bool {
	if a.Type != b.Type {
		return false
	}
	if a.IsHeap() {
		return equalObjects(a.Obj, b.Obj)
	}
	return a.Bits == b.Bits
}

func equalObjects(a, b *Object) bool {
	if a == b {
		return true
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ObjectString:
		return a.Str == b.Str
	case ObjectList:
		if len(a.List) != len(b.List) {
			return false
		}
		for i := range a.List {
			if !Equal(a.List[i], b.List[i]) {
				return false
			}
		}
		return true
	case ObjectFunction:
		return a.PrototypeIndex == b.PrototypeIndex
	default:
		return false
	}
}
