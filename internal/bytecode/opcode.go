// Package bytecode defines the instruction word and the opcode set of
// spec §3/§4.5: a fixed-width packed instruction, a bijective codec
// between fields and the packed word, and the register-based core
// opcode set.
package bytecode

// OpCode identifies the operation an Instruction performs.
type OpCode uint8

const (
	LOAD OpCode = iota
	LOAD_ENCODED
	LOAD_CONSTANT
	LOAD_INLINE
	LOAD_FUNCTION
	LOAD_LIST

	ADD
	SUBTRACT
	MULTIPLY
	DIVIDE
	MODULO
	POWER
	NEGATE

	NOT
	TEST

	EQUAL
	LESS
	LESS_EQUAL

	JUMP
	CALL
	CALL_NATIVE
	RETURN

	LIST
	SET_LIST
	GET_LIST
	MOVE
)

var opNames = [...]string{
	LOAD:          "LOAD",
	LOAD_ENCODED:  "LOAD_ENCODED",
	LOAD_CONSTANT: "LOAD_CONSTANT",
	LOAD_INLINE:   "LOAD_INLINE",
	LOAD_FUNCTION: "LOAD_FUNCTION",
	LOAD_LIST:     "LOAD_LIST",
	ADD:           "ADD",
	SUBTRACT:      "SUBTRACT",
	MULTIPLY:      "MULTIPLY",
	DIVIDE:        "DIVIDE",
	MODULO:        "MODULO",
	POWER:         "POWER",
	NEGATE:        "NEGATE",
	NOT:           "NOT",
	TEST:          "TEST",
	EQUAL:         "EQUAL",
	LESS:          "LESS",
	LESS_EQUAL:    "LESS_EQUAL",
	JUMP:          "JUMP",
	CALL:          "CALL",
	CALL_NATIVE:   "CALL_NATIVE",
	RETURN:        "RETURN",
	LIST:          "LIST",
	SET_LIST:      "SET_LIST",
	GET_LIST:      "GET_LIST",
	MOVE:          "MOVE",
}

func (op OpCode) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return "UNKNOWN"
}

// AddressKind is the `kind` half of an Address (spec §3): it determines
// which pool `index` indexes and whether the operand is readable,
// writable, or both.
type AddressKind uint8

const (
	REGISTER AddressKind = iota
	CONSTANT
	ENCODED
	MEMORY
	PROTOTYPE
	SELF
)

var addressKindNames = [...]string{
	REGISTER:  "REGISTER",
	CONSTANT:  "CONSTANT",
	ENCODED:   "ENCODED",
	MEMORY:    "MEMORY",
	PROTOTYPE: "PROTOTYPE",
	SELF:      "SELF",
}

func (k AddressKind) String() string {
	if int(k) < len(addressKindNames) {
		return addressKindNames[k]
	}
	return "UNKNOWN"
}

// Address is a (kind, index) pair naming one operand or destination.
type Address struct {
	Kind  AddressKind
	Index uint32
}

func RegisterAddr(i uint32) Address  { return Address{REGISTER, i} }
func ConstantAddr(i uint32) Address  { return Address{CONSTANT, i} }
func EncodedAddr(i uint32) Address   { return Address{ENCODED, i} }
func MemoryAddr(i uint32) Address    { return Address{MEMORY, i} }
func PrototypeAddr(i uint32) Address { return Address{PROTOTYPE, i} }
func SelfAddr() Address              { return Address{SELF, 0} }

// OperandType is the runtime discriminator tag of spec §3: every Value
// and every instruction result carries one.
type OperandType uint8

const (
	OpNone OperandType = iota
	OpBoolean
	OpByte
	OpCharacter
	OpFloat
	OpInteger
	OpString
	OpList
	OpFunction

	OpListBoolean
	OpListByte
	OpListCharacter
	OpListFloat
	OpListInteger
	OpListString
	OpListList
	OpListFunction

	OpCharacterString // character + string -> string
	OpStringCharacter // string + character -> string
)

var operandTypeNames = [...]string{
	OpNone: "none", OpBoolean: "boolean", OpByte: "byte", OpCharacter: "character",
	OpFloat: "float", OpInteger: "integer", OpString: "string", OpList: "list", OpFunction: "function",
	OpListBoolean: "list<boolean>", OpListByte: "list<byte>", OpListCharacter: "list<character>",
	OpListFloat: "list<float>", OpListInteger: "list<integer>", OpListString: "list<string>",
	OpListList: "list<list>", OpListFunction: "list<function>",
	OpCharacterString: "character+string", OpStringCharacter: "string+character",
}

func (t OperandType) String() string {
	if int(t) < len(operandTypeNames) && operandTypeNames[t] != "" {
		return operandTypeNames[t]
	}
	return "unknown"
}

func ListElementType(t OperandType) OperandType {
	switch t {
	case OpBoolean:
		return OpListBoolean
	case OpByte:
		return OpListByte
	case OpCharacter:
		return OpListCharacter
	case OpFloat:
		return OpListFloat
	case OpInteger:
		return OpListInteger
	case OpString:
		return OpListString
	case OpList:
		return OpListList
	case OpFunction:
		return OpListFunction
	default:
		return OpNone
	}
}
