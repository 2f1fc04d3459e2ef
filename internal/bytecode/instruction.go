package bytecode

// Instruction is the decoded, structured form of one packed instruction
// word (spec §4.5). Encode/Decode are mutual inverses over its packed
// representation: a 64-bit primary word plus a 16-bit auxiliary word
// carrying the fields that don't fit inline.
type Instruction struct {
	Op   OpCode
	A    Address
	B    Address
	C    Address
	Type OperandType
	D    bool // polarity for TEST/comparisons, "has value" for RETURN
}

// Bit layout of the primary 64-bit word, per spec §4.5:
//
//	bits  0- 7 : opcode
//	bits  8-25 : A.Index (18 bits)
//	bits 26-43 : B.Index (18 bits)
//	bits 44-61 : C.Index (18 bits)
//	bits 62-63 : reserved
//
// The auxiliary 16-bit word packs what doesn't fit inline:
//
//	bits  0- 2 : A.Kind
//	bits  3- 5 : B.Kind
//	bits  6- 8 : C.Kind
//	bits  9-13 : OperandType tag
//	bit     14 : D flag
const (
	posOp = 0
	posA  = 8
	posB  = 26
	posC  = 44

	sizeOp    = 8
	sizeIndex = 18

	maskOp    = (1 << sizeOp) - 1
	maskIndex = (1 << sizeIndex) - 1

	auxPosAKind = 0
	auxPosBKind = 3
	auxPosCKind = 6
	auxPosType  = 9
	auxPosD     = 14

	maskKind = 0x7
	maskType = 0x1F
)

// MaxIndex is the largest operand index the codec can represent.
const MaxIndex = maskIndex

// Encode packs an Instruction into its bijective wire form.
func (i Instruction) Encode() (word uint64, aux uint16) {
	word = uint64(i.Op) & maskOp
	word |= (uint64(i.A.Index) & maskIndex) << posA
	word |= (uint64(i.B.Index) & maskIndex) << posB
	word |= (uint64(i.C.Index) & maskIndex) << posC

	aux = uint16(i.A.Kind&maskKind) << auxPosAKind
	aux |= uint16(i.B.Kind&maskKind) << auxPosBKind
	aux |= uint16(i.C.Kind&maskKind) << auxPosCKind
	aux |= uint16(i.Type&maskType) << auxPosType
	if i.D {
		aux |= 1 << auxPosD
	}
	return word, aux
}

// signExtendIndex treats a packed sizeIndex-bit field as two's complement
// and widens it to a full-width uint32, so a value that was negative
// before Encode truncated it to sizeIndex bits comes back out negative
// after Decode. JUMP is the only opcode whose A.Index is a signed
// relative offset (internal/compiler/helpers.go's relJump) rather than
// an unsigned address; every other opcode's Index fields are plain
// non-negative indices for which this would be wrong, so it is applied
// only to JUMP's A on the way out of Decode.
func signExtendIndex(x uint32) uint32 {
	const signBit = 1 << (sizeIndex - 1)
	if x&signBit != 0 {
		x |= ^uint32(0) << sizeIndex
	}
	return x
}

// Decode unpacks a word/aux pair produced by Encode. It is total: every
// bit pattern decodes to some Instruction, but only patterns produced by
// Encode for the live opcode set are meaningful to the VM (spec §4.5 —
// anything else is a fatal decode at dispatch time).
func Decode(word uint64, aux uint16) Instruction {
	op := OpCode(word & maskOp)
	aIndex := uint32((word >> posA) & maskIndex)
	if op == JUMP {
		aIndex = signExtendIndex(aIndex)
	}
	return Instruction{
		Op: op,
		A: Address{
			Kind:  AddressKind((aux >> auxPosAKind) & maskKind),
			Index: aIndex,
		},
		B: Address{
			Kind:  AddressKind((aux >> auxPosBKind) & maskKind),
			Index: uint32((word >> posB) & maskIndex),
		},
		C: Address{
			Kind:  AddressKind((aux >> auxPosCKind) & maskKind),
			Index: uint32((word >> posC) & maskIndex),
		},
		Type: OperandType((aux >> auxPosType) & maskType),
		D:    (aux>>auxPosD)&1 != 0,
	}
}
