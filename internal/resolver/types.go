package resolver

import "fmt"

// TypeKind is the resolver's static type tag; it is a strict superset of
// the runtime OperandType described in spec §3 and erases to it at
// code-gen time.
type TypeKind uint8

const (
	KNone TypeKind = iota
	KBool
	KByte
	KCharacter
	KInteger
	KFloat
	KString
	KList
	KFunction
	KStruct
	KEnum
	KAny   // matches any type; used only for native signatures (e.g. _to_string)
	KError // sentinel for a type that failed to resolve; suppresses cascades
)

func (k TypeKind) String() string {
	switch k {
	case KNone:
		return "none"
	case KBool:
		return "boolean"
	case KByte:
		return "byte"
	case KCharacter:
		return "character"
	case KInteger:
		return "integer"
	case KFloat:
		return "float"
	case KString:
		return "string"
	case KList:
		return "list"
	case KFunction:
		return "function"
	case KStruct:
		return "struct"
	case KEnum:
		return "enum"
	case KAny:
		return "any"
	default:
		return "error"
	}
}

// Type is a fully resolved static type.
type Type struct {
	Kind   TypeKind
	Elem   *Type   // KList
	Params []Type  // KFunction
	Return *Type   // KFunction
	Name   string  // KStruct/KEnum
}

func Primitive(k TypeKind) Type { return Type{Kind: k} }

func ListOf(elem Type) Type { return Type{Kind: KList, Elem: &elem} }

func FuncType(params []Type, ret Type) Type {
	return Type{Kind: KFunction, Params: params, Return: &ret}
}

func (t Type) String() string {
	switch t.Kind {
	case KList:
		return fmt.Sprintf("list<%s>", t.Elem)
	case KFunction:
		return fmt.Sprintf("fn(...) -> %s", t.Return)
	case KStruct, KEnum:
		return t.Name
	default:
		return t.Kind.String()
	}
}

// Equal compares two types structurally; KError is never equal to
// anything (including itself) so a single unresolved type doesn't make
// two unrelated error sites look consistent.
func (t Type) Equal(o Type) bool {
	if t.Kind == KError || o.Kind == KError {
		return false
	}
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KList:
		return t.Elem.Equal(*o.Elem)
	case KStruct, KEnum:
		return t.Name == o.Name
	case KFunction:
		if len(t.Params) != len(o.Params) || !t.Return.Equal(*o.Return) {
			return false
		}
		for i := range t.Params {
			if !t.Params[i].Equal(o.Params[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// IsSubtype implements `<:` from spec §4.3: equal types, or either side
// is `none` standing in for the other in an if-expression join.
func (t Type) IsSubtype(of Type) bool {
	if t.Equal(of) {
		return true
	}
	if of.Kind == KAny && t.Kind != KError {
		return true
	}
	return t.Kind == KNone || of.Kind == KNone
}

// IsNumeric reports whether t is a valid arithmetic operand type for
// +/-/*///% (spec §4.3, §8's byte-addition scenario). byte behaves as an
// 8-bit unsigned integer here, the same way vm/arith.go's OpByte case
// already treats it.
func IsNumeric(t Type) bool { return t.Kind == KInteger || t.Kind == KFloat || t.Kind == KByte }
