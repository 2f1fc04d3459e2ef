package value

import "strings"

// ObjectKind discriminates the heap-allocated Object union of spec §3.
type ObjectKind uint8

const (
	ObjectString ObjectKind = iota
	ObjectList
	ObjectFunction
)

// Object is one heap allocation. Mark is the GC's mark bit (spec §4.6);
// Bytes is the allocation's contribution to the heap's allocated_bytes
// counter, computed once at allocation time.
type Object struct {
	Kind  ObjectKind
	Mark  bool
	Bytes int

	Str string // ObjectString

	ElemType byte    // ObjectList: the element OperandType
	List     []Value // ObjectList

	PrototypeIndex int     // ObjectFunction: -1 for a native function value
	NativeID       int     // ObjectFunction: valid when PrototypeIndex < 0
	Upvalues       []Value // ObjectFunction: reserved, always empty in the core (§4.4)
}

func NewStringObject(s string) *Object {
	return &Object{Kind: ObjectString, Str: s, Bytes: len(s) + 16}
}

func NewListObject(elemType byte, elems []Value) *Object {
	return &Object{Kind: ObjectList, ElemType: elemType, List: elems, Bytes: len(elems)*24 + 24}
}

func NewFunctionObject(prototypeIndex int) *Object {
	return &Object{Kind: ObjectFunction, PrototypeIndex: prototypeIndex, NativeID: -1, Bytes: 24}
}

func NewNativeFunctionObject(nativeID int) *Object {
	return &Object{Kind: ObjectFunction, PrototypeIndex: -1, NativeID: nativeID, Bytes: 24}
}

func (o *Object) listString() string {
	parts := make([]string, len(o.List))
	for i, v := range o.List {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// References returns the heap objects directly reachable from this one,
// used by the garbage collector's recursive mark (spec §4.6: "for a LIST
// whose elements are themselves objects, mark is recursive").
func (o *Object) References() []*Object {
	if o.Kind != ObjectList {
		return nil
	}
	var refs []*Object
	for _, v := range o.List {
		if v.IsHeap() && v.Obj != nil {
			refs = append(refs, v.Obj)
		}
	}
	return refs
}
