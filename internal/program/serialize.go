package program

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/solaeus/dust/internal/bytecode"
	"github.com/solaeus/dust/internal/resolver"
)

// Binary format (spec §6): header (magic, version), prototype count,
// then per prototype: name, function type, instruction count + words,
// constant table, local count + entries, register_count,
// prototype_index. All integers little-endian, fixed width.
const (
	magic          uint32 = 0x44555354 // "DUST"
	formatVersion  uint32 = 1
)

// Serialize encodes a Program into the bit-exact binary format of spec §6.
func Serialize(p *Program) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, magic)
	binary.Write(&buf, binary.LittleEndian, formatVersion)
	binary.Write(&buf, binary.LittleEndian, uint32(len(p.Prototypes)))

	for _, proto := range p.Prototypes {
		writePrototype(&buf, proto)
	}
	return buf.Bytes()
}

func writePrototype(buf *bytes.Buffer, proto *Prototype) {
	writeString(buf, proto.Name)

	binary.Write(buf, binary.LittleEndian, uint32(len(proto.Type.Params)))
	for _, t := range proto.Type.Params {
		buf.WriteByte(byte(t))
	}
	buf.WriteByte(byte(proto.Type.Return))

	binary.Write(buf, binary.LittleEndian, uint32(len(proto.Instructions)))
	for _, instr := range proto.Instructions {
		word, aux := instr.Encode()
		binary.Write(buf, binary.LittleEndian, word)
		binary.Write(buf, binary.LittleEndian, aux)
	}

	writeConstantTable(buf, proto.Constants)

	binary.Write(buf, binary.LittleEndian, uint32(len(proto.Locals)))
	for _, l := range proto.Locals {
		binary.Write(buf, binary.LittleEndian, uint32(l.DeclarationID))
		writeString(buf, l.Name)
		buf.WriteByte(byte(l.Address.Kind))
		binary.Write(buf, binary.LittleEndian, l.Address.Index)
		buf.WriteByte(byte(l.Type))
		writeBool(buf, l.Mutable)
		binary.Write(buf, binary.LittleEndian, int32(l.Scope.Depth))
		binary.Write(buf, binary.LittleEndian, int32(l.Scope.Block))
	}

	binary.Write(buf, binary.LittleEndian, uint32(proto.RegisterCount))
	binary.Write(buf, binary.LittleEndian, uint32(proto.PrototypeIndex))
}

func writeConstantTable(buf *bytes.Buffer, t *ConstantTable) {
	binary.Write(buf, binary.LittleEndian, uint32(len(t.Entries)))
	for _, c := range t.Entries {
		buf.WriteByte(byte(c.Type))
	}
	for _, c := range t.Entries {
		switch c.Type {
		case bytecode.OpString:
			binary.Write(buf, binary.LittleEndian, uint32(c.Start))
			binary.Write(buf, binary.LittleEndian, uint32(c.End))
		default:
			binary.Write(buf, binary.LittleEndian, c.Bits)
		}
	}
	binary.Write(buf, binary.LittleEndian, uint32(len(t.StringPool)))
	buf.Write(t.StringPool)
}

func writeString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.LittleEndian, uint32(len(s)))
	buf.WriteString(s)
}

func writeBool(buf *bytes.Buffer, b bool) {
	if b {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

// Deserialize decodes bytes produced by Serialize back into a Program.
func Deserialize(data []byte) (*Program, error) {
	r := bytes.NewReader(data)

	var gotMagic, version, count uint32
	if err := binary.Read(r, binary.LittleEndian, &gotMagic); err != nil {
		return nil, fmt.Errorf("program: reading magic: %w", err)
	}
	if gotMagic != magic {
		return nil, fmt.Errorf("program: bad magic %#x", gotMagic)
	}
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("program: reading version: %w", err)
	}
	if version != formatVersion {
		return nil, fmt.Errorf("program: unsupported version %d", version)
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("program: reading prototype count: %w", err)
	}

	p := New()
	for i := uint32(0); i < count; i++ {
		proto, err := readPrototype(r)
		if err != nil {
			return nil, fmt.Errorf("program: prototype %d: %w", i, err)
		}
		p.Prototypes = append(p.Prototypes, proto)
	}
	return p, nil
}

func readPrototype(r *bytes.Reader) (*Prototype, error) {
	name, err := readString(r)
	if err != nil {
		return nil, err
	}

	var paramCount uint32
	if err := binary.Read(r, binary.LittleEndian, &paramCount); err != nil {
		return nil, err
	}
	params := make([]bytecode.OperandType, paramCount)
	for i := range params {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		params[i] = bytecode.OperandType(b)
	}
	retByte, err := r.ReadByte()
	if err != nil {
		return nil, err
	}

	proto := NewPrototype(name, 0, FunctionType{Params: params, Return: bytecode.OperandType(retByte)})

	var instrCount uint32
	if err := binary.Read(r, binary.LittleEndian, &instrCount); err != nil {
		return nil, err
	}
	proto.Instructions = make([]bytecode.Instruction, instrCount)
	for i := range proto.Instructions {
		var word uint64
		var aux uint16
		if err := binary.Read(r, binary.LittleEndian, &word); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &aux); err != nil {
			return nil, err
		}
		proto.Instructions[i] = bytecode.Decode(word, aux)
	}

	constants, err := readConstantTable(r)
	if err != nil {
		return nil, err
	}
	proto.Constants = constants

	var localCount uint32
	if err := binary.Read(r, binary.LittleEndian, &localCount); err != nil {
		return nil, err
	}
	proto.Locals = make([]Local, localCount)
	for i := range proto.Locals {
		l, err := readLocal(r)
		if err != nil {
			return nil, err
		}
		proto.Locals[i] = l
	}

	var registerCount, prototypeIndex uint32
	if err := binary.Read(r, binary.LittleEndian, &registerCount); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &prototypeIndex); err != nil {
		return nil, err
	}
	proto.RegisterCount = int(registerCount)
	proto.PrototypeIndex = int(prototypeIndex)
	return proto, nil
}

func readLocal(r *bytes.Reader) (Local, error) {
	var l Local
	var declID uint32
	if err := binary.Read(r, binary.LittleEndian, &declID); err != nil {
		return l, err
	}
	name, err := readString(r)
	if err != nil {
		return l, err
	}
	kindByte, err := r.ReadByte()
	if err != nil {
		return l, err
	}
	var index uint32
	if err := binary.Read(r, binary.LittleEndian, &index); err != nil {
		return l, err
	}
	typeByte, err := r.ReadByte()
	if err != nil {
		return l, err
	}
	mutByte, err := r.ReadByte()
	if err != nil {
		return l, err
	}
	var depth, block int32
	if err := binary.Read(r, binary.LittleEndian, &depth); err != nil {
		return l, err
	}
	if err := binary.Read(r, binary.LittleEndian, &block); err != nil {
		return l, err
	}

	l.DeclarationID = resolver.DeclarationID(declID)
	l.Name = name
	l.Address = bytecode.Address{Kind: bytecode.AddressKind(kindByte), Index: index}
	l.Type = bytecode.OperandType(typeByte)
	l.Mutable = mutByte != 0
	l.Scope.Depth = int(depth)
	l.Scope.Block = int(block)
	return l, nil
}

func readConstantTable(r *bytes.Reader) (*ConstantTable, error) {
	t := NewConstantTable()

	var entryCount uint32
	if err := binary.Read(r, binary.LittleEndian, &entryCount); err != nil {
		return nil, err
	}
	tags := make([]bytecode.OperandType, entryCount)
	for i := range tags {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		tags[i] = bytecode.OperandType(b)
	}

	entries := make([]Constant, entryCount)
	for i, tag := range tags {
		entries[i].Type = tag
		switch tag {
		case bytecode.OpString:
			var start, end uint32
			if err := binary.Read(r, binary.LittleEndian, &start); err != nil {
				return nil, err
			}
			if err := binary.Read(r, binary.LittleEndian, &end); err != nil {
				return nil, err
			}
			entries[i].Start = int(start)
			entries[i].End = int(end)
		default:
			var bits uint64
			if err := binary.Read(r, binary.LittleEndian, &bits); err != nil {
				return nil, err
			}
			entries[i].Bits = bits
		}
	}

	var poolLen uint32
	if err := binary.Read(r, binary.LittleEndian, &poolLen); err != nil {
		return nil, err
	}
	pool := make([]byte, poolLen)
	if _, err := r.Read(pool); err != nil && poolLen > 0 {
		return nil, err
	}

	t.Entries = entries
	t.StringPool = pool
	return t, nil
}

func readString(r *bytes.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if n > 0 {
		if _, err := r.Read(buf); err != nil {
			return "", err
		}
	}
	return string(buf), nil
}
