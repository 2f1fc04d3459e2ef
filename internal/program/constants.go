package program

import (
	"math"

	"github.com/dolthub/swiss"

	"github.com/solaeus/dust/internal/bytecode"
)

// maxConstantEntries is spec §7's CompileError threshold: a table already
// holding 2^16 entries rejects any further add_*.
const maxConstantEntries = 1 << 16

// maxStringPoolBytes is spec §7's string pool overflow threshold.
const maxStringPoolBytes = 1 << 32

// Constant is one entry in a prototype's constant table: a payload tag
// plus either an inline 64-bit bit pattern or a (start, end) slice into
// the table's shared string pool (spec §3 "Constant table").
type Constant struct {
	Type  bytecode.OperandType
	Bits  uint64 // integer/float/byte/character payload
	Start int    // string: offset into StringPool
	End   int    // string: end offset into StringPool
}

// ConstantTable is per-prototype. Integer/float constants are
// deduplicated because equality is cheap; strings are deduplicated too,
// through a string-interning set, though spec §3 only requires it for
// the cheap numeric cases.
type ConstantTable struct {
	Entries    []Constant
	StringPool []byte

	intIndex    map[int64]uint32
	floatIndex  map[float64]uint32
	stringIndex *swiss.Map[string, uint32]

	entriesOverflowed bool
	poolOverflowed    bool
}

func NewConstantTable() *ConstantTable {
	return &ConstantTable{
		intIndex:    make(map[int64]uint32),
		floatIndex:  make(map[float64]uint32),
		stringIndex: swiss.NewMap[string, uint32](8),
	}
}

// reserve hands out the next entry index, or reports false once the
// table has already hit maxConstantEntries.
func (t *ConstantTable) reserve() (uint32, bool) {
	if len(t.Entries) >= maxConstantEntries {
		t.entriesOverflowed = true
		return 0, false
	}
	return uint32(len(t.Entries)), true
}

// AddInteger returns the index of an existing equal integer constant, or
// appends a new one.
func (t *ConstantTable) AddInteger(v int64) uint32 {
	if idx, ok := t.intIndex[v]; ok {
		return idx
	}
	idx, ok := t.reserve()
	if !ok {
		return idx
	}
	t.Entries = append(t.Entries, Constant{Type: bytecode.OpInteger, Bits: uint64(v)})
	t.intIndex[v] = idx
	return idx
}

// AddFloat returns the index of an existing equal float constant, or
// appends a new one.
func (t *ConstantTable) AddFloat(v float64) uint32 {
	if idx, ok := t.floatIndex[v]; ok {
		return idx
	}
	idx, ok := t.reserve()
	if !ok {
		return idx
	}
	t.Entries = append(t.Entries, Constant{Type: bytecode.OpFloat, Bits: floatBits(v)})
	t.floatIndex[v] = idx
	return idx
}

func (t *ConstantTable) AddByte(v byte) uint32 {
	idx, ok := t.reserve()
	if !ok {
		return idx
	}
	t.Entries = append(t.Entries, Constant{Type: bytecode.OpByte, Bits: uint64(v)})
	return idx
}

func (t *ConstantTable) AddCharacter(v rune) uint32 {
	idx, ok := t.reserve()
	if !ok {
		return idx
	}
	t.Entries = append(t.Entries, Constant{Type: bytecode.OpCharacter, Bits: uint64(v)})
	return idx
}

// AddString interns s in the table's string-indexed set, backed by a
// swiss.Map for the high-churn lookup this incurs on the hot compile
// path (spec §3 permits but does not require string dedup).
func (t *ConstantTable) AddString(s string) uint32 {
	if idx, ok := t.stringIndex.Get(s); ok {
		return idx
	}
	if len(t.StringPool)+len(s) > maxStringPoolBytes {
		t.poolOverflowed = true
		return 0
	}
	idx, ok := t.reserve()
	if !ok {
		return idx
	}
	start := len(t.StringPool)
	t.StringPool = append(t.StringPool, s...)
	t.Entries = append(t.Entries, Constant{Type: bytecode.OpString, Start: start, End: start + len(s)})
	t.stringIndex.Put(s, idx)
	return idx
}

func (t *ConstantTable) String(c Constant) string {
	return string(t.StringPool[c.Start:c.End])
}

// Overflowed reports whether this table rejected an add_* call because
// the entry count or string pool exceeded spec §7's thresholds.
func (t *ConstantTable) Overflowed() bool {
	return t.entriesOverflowed || t.poolOverflowed
}

func floatBits(f float64) uint64 {
	return math.Float64bits(f)
}
