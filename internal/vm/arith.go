package vm

import (
	"math"

	"github.com/solaeus/dust/internal/bytecode"
	"github.com/solaeus/dust/internal/value"
)

// Saturating 64-bit signed arithmetic (spec §4.7 "Integers saturate on
// overflow"). Duplicated from the compiler's constant-folding copy
// rather than shared: the compiler's version folds at compile time over
// literal operands, this one runs per-instruction over live registers,
// and the two packages have no common runtime dependency to host a
// shared helper without an import cycle.
func saturateAdd(a, b int64) int64 {
	sum := a + b
	if (a > 0 && b > 0 && sum < 0) || (a < 0 && b < 0 && sum >= 0) {
		if a > 0 {
			return math.MaxInt64
		}
		return math.MinInt64
	}
	return sum
}

func saturateSub(a, b int64) int64 {
	if b == math.MinInt64 {
		if a < 0 {
			return saturateAdd(a, math.MaxInt64) + 1
		}
		return math.MaxInt64
	}
	return saturateAdd(a, -b)
}

func saturateMul(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	result := a * b
	if result/b != a {
		if (a > 0) == (b > 0) {
			return math.MaxInt64
		}
		return math.MinInt64
	}
	return result
}

func saturateNeg(a int64) int64 {
	if a == math.MinInt64 {
		return math.MaxInt64
	}
	return -a
}

// saturateDiv guards the one division that overflows: MinInt64 / -1 would
// be MaxInt64+1, which Go's / wraps around to MinInt64 instead of
// saturating.
func saturateDiv(a, b int64) int64 {
	if a == math.MinInt64 && b == -1 {
		return math.MaxInt64
	}
	return a / b
}

// saturateIntPow computes base^exp for a non-negative exp by repeated
// saturating multiplication, so POWER saturates the same way ADD/SUBTRACT/
// MULTIPLY do rather than wrapping or overflowing silently. A negative
// exponent on an integer base has no useful integer result; it gives 0,
// except that a base of 1 or -1 gives 1 or -1 (base^|exp|).
func saturateIntPow(base, exp int64) int64 {
	if exp < 0 {
		if base == 1 || base == -1 {
			return saturateIntPow(base, -exp)
		}
		return 0
	}
	result := int64(1)
	for i := int64(0); i < exp; i++ {
		result = saturateMul(result, base)
	}
	return result
}

// add implements the ADD opcode, including the character/string
// concatenation cases spec §4.7 calls out by name.
func (t *task) add(fr *frame, left, right value.Value, resultType bytecode.OperandType) (value.Value, error) {
	switch resultType {
	case bytecode.OpInteger:
		return value.Integer(saturateAdd(left.AsInteger(), right.AsInteger())), nil
	case bytecode.OpFloat:
		return value.Float(left.AsFloat() + right.AsFloat()), nil
	case bytecode.OpByte:
		return value.Byte(left.AsByte() + right.AsByte()), nil
	case bytecode.OpString:
		return t.concat(stringOf(left), stringOf(right))
	case bytecode.OpCharacterString:
		return t.concat(string(left.AsCharacter()), stringOf(right))
	case bytecode.OpStringCharacter:
		return t.concat(stringOf(left), string(right.AsCharacter()))
	default:
		return value.Value{}, t.runtimeErr(fr, "invalid operand type for ADD: %s", resultType)
	}
}

func stringOf(v value.Value) string {
	if v.Type == bytecode.OpCharacter {
		return string(v.AsCharacter())
	}
	return v.Obj.Str
}

func (t *task) concat(a, b string) (value.Value, error) {
	obj := t.heap.Allocate(value.NewStringObject(a+b), t.roots)
	return value.String(obj), nil
}

func (t *task) arithmetic(fr *frame, op bytecode.OpCode, left, right value.Value, typ bytecode.OperandType) (value.Value, error) {
	switch typ {
	case bytecode.OpInteger:
		l, r := left.AsInteger(), right.AsInteger()
		switch op {
		case bytecode.SUBTRACT:
			return value.Integer(saturateSub(l, r)), nil
		case bytecode.MULTIPLY:
			return value.Integer(saturateMul(l, r)), nil
		case bytecode.DIVIDE:
			if r == 0 {
				return value.Value{}, divisionByZero(posOf(fr))
			}
			return value.Integer(saturateDiv(l, r)), nil
		case bytecode.MODULO:
			if r == 0 {
				return value.Value{}, divisionByZero(posOf(fr))
			}
			return value.Integer(l % r), nil
		case bytecode.POWER:
			return value.Integer(saturateIntPow(l, r)), nil
		}
	case bytecode.OpFloat:
		l, r := left.AsFloat(), right.AsFloat()
		switch op {
		case bytecode.SUBTRACT:
			return value.Float(l - r), nil
		case bytecode.MULTIPLY:
			return value.Float(l * r), nil
		case bytecode.DIVIDE:
			return value.Float(l / r), nil
		case bytecode.MODULO:
			return value.Float(math.Mod(l, r)), nil
		case bytecode.POWER:
			return value.Float(math.Pow(l, r)), nil
		}
	case bytecode.OpByte:
		// byte is unsigned 8-bit (spec §3); unlike integer it isn't
		// documented as saturating, so arithmetic wraps the way Go's own
		// uint8 does, matching ADD's existing `left.AsByte() + right.AsByte()`.
		l, r := left.AsByte(), right.AsByte()
		switch op {
		case bytecode.SUBTRACT:
			return value.Byte(l - r), nil
		case bytecode.MULTIPLY:
			return value.Byte(l * r), nil
		case bytecode.DIVIDE:
			if r == 0 {
				return value.Value{}, divisionByZero(posOf(fr))
			}
			return value.Byte(l / r), nil
		case bytecode.MODULO:
			if r == 0 {
				return value.Value{}, divisionByZero(posOf(fr))
			}
			return value.Byte(l % r), nil
		case bytecode.POWER:
			result := byte(1)
			for i := byte(0); i < r; i++ {
				result *= l
			}
			return value.Byte(result), nil
		}
	}
	return value.Value{}, t.runtimeErr(fr, "invalid operand type for %s: %s", op, typ)
}

func compareValues(a, b value.Value) (int, bool) {
	if a.Type != b.Type {
		return 0, false
	}
	switch a.Type {
	case bytecode.OpInteger:
		return compareInt(a.AsInteger(), b.AsInteger()), true
	case bytecode.OpFloat:
		return compareFloat(a.AsFloat(), b.AsFloat()), true
	case bytecode.OpString:
		return compareString(a.Obj.Str, b.Obj.Str), true
	case bytecode.OpBoolean:
		return compareBool(a.AsBool(), b.AsBool()), true
	case bytecode.OpByte:
		return compareInt(int64(a.AsByte()), int64(b.AsByte())), true
	case bytecode.OpCharacter:
		return compareInt(int64(a.AsCharacter()), int64(b.AsCharacter())), true
	default:
		return 0, false
	}
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if a {
		return 1
	}
	return -1
}
