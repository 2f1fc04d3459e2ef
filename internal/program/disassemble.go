package program

import (
	"fmt"
	"strings"

	"github.com/solaeus/dust/internal/bytecode"
)

// Disassemble renders a prototype's instructions as human-readable text.
// It has no effect on compiled output; it exists for the CLI's
// `compile --dis` path and for tests that want to eyeball peephole
// output without decoding instruction words by hand.
func (p *Prototype) Disassemble() string {
	var b strings.Builder
	fmt.Fprintf(&b, "prototype %d %q (registers=%d)\n", p.PrototypeIndex, p.Name, p.RegisterCount)
	for i, instr := range p.Instructions {
		fmt.Fprintf(&b, "  %4d  %-14s %s\n", i, instr.Op, disassembleOperands(p, instr))
	}
	return b.String()
}

func disassembleOperands(p *Prototype, instr bytecode.Instruction) string {
	parts := []string{
		disassembleAddress(p, instr.A),
		disassembleAddress(p, instr.B),
		disassembleAddress(p, instr.C),
	}
	s := strings.Join(parts, " ")
	if instr.Type != bytecode.OpNone {
		s += " :" + instr.Type.String()
	}
	if instr.D {
		s += " D"
	}
	return s
}

func disassembleAddress(p *Prototype, a bytecode.Address) string {
	switch a.Kind {
	case bytecode.REGISTER:
		return fmt.Sprintf("R%d", a.Index)
	case bytecode.CONSTANT:
		if int(a.Index) < len(p.Constants.Entries) {
			c := p.Constants.Entries[a.Index]
			if c.Type == bytecode.OpString {
				return fmt.Sprintf("K%d(%q)", a.Index, p.Constants.String(c))
			}
		}
		return fmt.Sprintf("K%d", a.Index)
	case bytecode.ENCODED:
		return fmt.Sprintf("#%d", a.Index)
	case bytecode.MEMORY:
		return fmt.Sprintf("M%d", a.Index)
	case bytecode.PROTOTYPE:
		return fmt.Sprintf("P%d", a.Index)
	case bytecode.SELF:
		return "self"
	default:
		return "-"
	}
}
