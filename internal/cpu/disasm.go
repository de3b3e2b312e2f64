package cpu

import (
	"fmt"

	"vonsim"
	"vonsim/internal/isa"
	"vonsim/internal/membus"
)

// DisassembledInstruction is one decoded instruction's address, mnemonic,
// and rendered operand text, for cmd/vonsim-objdump's listing.
type DisassembledInstruction struct {
	Address  vonsim.MachineAddress
	Mnemonic string
	Operands []string
	Length   int
}

// Disassemble decodes every instruction in [start, end) without executing
// any of them, reusing decode exactly as Step does so a disassembly can
// never drift from how the CPU actually reads the same bytes (spec.md §8's
// assemble/disassemble round trip).
func Disassemble(bus *membus.Bus, start, end vonsim.MachineAddress) ([]DisassembledInstruction, error) {
	c := &CPU{bus: bus}
	var out []DisassembledInstruction
	ip := start
	for ip < end {
		d, next, err := c.decode(ip)
		if err != nil {
			return out, err
		}
		out = append(out, DisassembledInstruction{
			Address:  ip,
			Mnemonic: d.Mnemonic,
			Operands: formatOperands(d),
			Length:   int(next - ip),
		})
		ip = next
	}
	return out, nil
}

func formatOperands(d decoded) []string {
	out := make([]string, len(d.Operands))
	for i, op := range d.Operands {
		out[i] = formatOperand(d, op)
	}
	return out
}

func formatOperand(d decoded, op decodedOperand) string {
	switch op.Kind {
	case isa.NibbleRegister:
		return op.Register.String()
	case isa.NibbleIndirectByte:
		return "BYTE PTR [BX]"
	case isa.NibbleIndirectWord:
		return "WORD PTR [BX]"
	case isa.NibbleDirect:
		if d.Class == isa.Jump {
			return fmt.Sprintf("%04Xh", op.Address)
		}
		if op.Size == vonsim.Word {
			return fmt.Sprintf("WORD PTR [%04Xh]", op.Address)
		}
		return fmt.Sprintf("BYTE PTR [%04Xh]", op.Address)
	case isa.NibbleImmediateByte, isa.NibbleImmediateWord:
		return fmt.Sprintf("%Xh", op.Value.Unsigned())
	default:
		return "?"
	}
}
