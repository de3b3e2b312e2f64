package cpu

import (
	"fmt"

	"vonsim"
	"vonsim/internal/isa"
)

// decodedOperand is one decoded operand: either a register, or a resolved
// memory/immediate value ready for the ALU. Exactly one of Register/Address
// is meaningful, matching which Kind this is.
type decodedOperand struct {
	Kind     isa.ModeNibble
	Register vonsim.RegisterID
	Address  vonsim.MachineAddress
	Value    vonsim.Value // ModeNibble == *Immediate*
	Size     vonsim.Size  // ModeNibble == NibbleDirect; the encoder's address-field size bit
}

type decoded struct {
	Mnemonic string
	Class    isa.Class
	Length   int
	Operands []decodedOperand
}

// fetchByte reads one byte at *cursor and bumps *cursor past it; it mirrors
// spec.md §4.5's MAR/MBR fetch micro-step without modeling those registers
// explicitly (the CPU struct already tracks IP as the assembly pointer).
func (c *CPU) fetchByte(cursor *vonsim.MachineAddress) (byte, bool) {
	v, ok := c.bus.ReadByte(*cursor)
	if !ok {
		return 0, false
	}
	*cursor++
	return byte(v.Unsigned()), true
}

func (c *CPU) fetchWord14(cursor *vonsim.MachineAddress) (uint32, byte, bool) {
	lo, ok := c.fetchByte(cursor)
	if !ok {
		return 0, 0, false
	}
	hi, ok := c.fetchByte(cursor)
	if !ok {
		return 0, 0, false
	}
	addr := uint32(lo) | uint32(hi&0x3F)<<8
	sizeBit := hi >> 6
	return addr, sizeBit, true
}

// decode reads one instruction starting at ip, per internal/isa's bit
// layout (see its package doc and internal/assemble/encode.go, the
// encoder this mirrors byte for byte).
func (c *CPU) decode(ip vonsim.MachineAddress) (decoded, vonsim.MachineAddress, error) {
	cursor := ip
	b0, ok := c.fetchByte(&cursor)
	if !ok {
		return decoded{}, cursor, fmt.Errorf("memory-out-of-range: cannot fetch opcode at %04Xh", ip)
	}
	tag := isa.ClassTag(b0 >> 4)
	low := b0 & 0x0F

	switch tag {
	case isa.TagZeroary:
		return decoded{Mnemonic: isa.NameForZeroary(low), Class: isa.Zeroary, Length: 1}, cursor, nil

	case isa.TagStack:
		mIdx := low >> 3
		regIdx := low & 0x07
		reg, ok := isa.StackRegisterByIndex(regIdx)
		if !ok {
			return decoded{}, cursor, fmt.Errorf("internal: bad stack register index %d", regIdx)
		}
		name := "PUSH"
		if mIdx == 1 {
			name = "POP"
		}
		return decoded{Mnemonic: name, Class: isa.Stack, Length: 1, Operands: []decodedOperand{{Kind: isa.NibbleRegister, Register: reg}}}, cursor, nil

	case isa.TagUnary:
		mIdx := low >> 2
		kind := isa.ModeNibble(low & 0x03)
		name := isa.NameForUnary(mIdx)
		op, err := c.decodeUnaryOperand(kind, &cursor)
		if err != nil {
			return decoded{}, cursor, err
		}
		return decoded{Mnemonic: name, Class: isa.Unary, Length: int(cursor - ip), Operands: []decodedOperand{op}}, cursor, nil

	case isa.TagBinary:
		name := isa.NameForBinary(low)
		modeByte, ok := c.fetchByte(&cursor)
		if !ok {
			return decoded{}, cursor, fmt.Errorf("memory-out-of-range: cannot fetch mode byte at %04Xh", cursor)
		}
		dstKind := isa.ModeNibble(modeByte >> 4)
		srcKind := isa.ModeNibble(modeByte & 0x0F)
		dst, err := c.decodeOperand(dstKind, &cursor)
		if err != nil {
			return decoded{}, cursor, err
		}
		src, err := c.decodeOperand(srcKind, &cursor)
		if err != nil {
			return decoded{}, cursor, err
		}
		return decoded{Mnemonic: name, Class: isa.Binary, Length: int(cursor - ip), Operands: []decodedOperand{dst, src}}, cursor, nil

	case isa.TagJump:
		name := isa.NameForJump(low)
		target, _, ok := c.fetchWord14(&cursor)
		if !ok {
			return decoded{}, cursor, fmt.Errorf("memory-out-of-range: cannot fetch jump target at %04Xh", cursor)
		}
		return decoded{Mnemonic: name, Class: isa.Jump, Length: 3, Operands: []decodedOperand{{Kind: isa.NibbleDirect, Address: vonsim.MachineAddress(target)}}}, cursor, nil

	case isa.TagInt:
		imm, ok := c.fetchByte(&cursor)
		if !ok {
			return decoded{}, cursor, fmt.Errorf("memory-out-of-range: cannot fetch INT operand at %04Xh", cursor)
		}
		return decoded{Mnemonic: "INT", Class: isa.Int, Length: 2, Operands: []decodedOperand{{Kind: isa.NibbleImmediateByte, Value: vonsim.MustFromUnsigned(vonsim.Byte, uint32(imm))}}}, cursor, nil

	case isa.TagIO:
		mIdx := low >> 3
		accSize := (low >> 2) & 0x01
		hasImm := (low>>1)&0x01 == 1
		name := "IN"
		if mIdx == 1 {
			name = "OUT"
		}
		accReg := vonsim.AL
		if accSize == 1 {
			accReg = vonsim.AX
		}
		operands := []decodedOperand{{Kind: isa.NibbleRegister, Register: accReg}}
		if hasImm {
			imm, ok := c.fetchByte(&cursor)
			if !ok {
				return decoded{}, cursor, fmt.Errorf("memory-out-of-range: cannot fetch port operand at %04Xh", cursor)
			}
			operands = append(operands, decodedOperand{Kind: isa.NibbleImmediateByte, Value: vonsim.MustFromUnsigned(vonsim.Byte, uint32(imm))})
		} else {
			operands = append(operands, decodedOperand{Kind: isa.NibbleRegister, Register: vonsim.DX})
		}
		return decoded{Mnemonic: name, Class: isa.IO, Length: int(cursor - ip), Operands: operands}, cursor, nil

	default:
		return decoded{}, cursor, fmt.Errorf("internal: unknown class tag %d", tag)
	}
}

func (c *CPU) decodeUnaryOperand(kind isa.ModeNibble, cursor *vonsim.MachineAddress) (decodedOperand, error) {
	switch kind {
	case isa.NibbleRegister:
		idx, ok := c.fetchByte(cursor)
		if !ok {
			return decodedOperand{}, fmt.Errorf("memory-out-of-range: cannot fetch register index at %04Xh", *cursor)
		}
		reg, ok := isa.GeneralRegisterByIndex(idx)
		if !ok {
			return decodedOperand{}, fmt.Errorf("internal: bad register index %d", idx)
		}
		return decodedOperand{Kind: kind, Register: reg}, nil
	case isa.NibbleIndirectByte, isa.NibbleIndirectWord:
		return decodedOperand{Kind: kind, Register: vonsim.BX}, nil
	case isa.NibbleDirect:
		addr, sizeBit, ok := c.fetchWord14(cursor)
		if !ok {
			return decodedOperand{}, fmt.Errorf("memory-out-of-range: cannot fetch direct address at %04Xh", *cursor)
		}
		return decodedOperand{Kind: kind, Address: vonsim.MachineAddress(addr), Size: sizeToVonsim(sizeBit)}, nil
	default:
		return decodedOperand{}, fmt.Errorf("internal: bad unary mode nibble %d", kind)
	}
}

func (c *CPU) decodeOperand(kind isa.ModeNibble, cursor *vonsim.MachineAddress) (decodedOperand, error) {
	switch kind {
	case isa.NibbleRegister:
		idx, ok := c.fetchByte(cursor)
		if !ok {
			return decodedOperand{}, fmt.Errorf("memory-out-of-range: cannot fetch register index at %04Xh", *cursor)
		}
		reg, ok := isa.GeneralRegisterByIndex(idx)
		if !ok {
			return decodedOperand{}, fmt.Errorf("internal: bad register index %d", idx)
		}
		return decodedOperand{Kind: kind, Register: reg}, nil
	case isa.NibbleIndirectByte, isa.NibbleIndirectWord:
		return decodedOperand{Kind: kind, Register: vonsim.BX}, nil
	case isa.NibbleDirect:
		addr, sizeBit, ok := c.fetchWord14(cursor)
		if !ok {
			return decodedOperand{}, fmt.Errorf("memory-out-of-range: cannot fetch direct address at %04Xh", *cursor)
		}
		return decodedOperand{Kind: kind, Address: vonsim.MachineAddress(addr), Size: sizeToVonsim(sizeBit)}, nil
	case isa.NibbleImmediateByte:
		imm, ok := c.fetchByte(cursor)
		if !ok {
			return decodedOperand{}, fmt.Errorf("memory-out-of-range: cannot fetch immediate at %04Xh", *cursor)
		}
		return decodedOperand{Kind: kind, Value: vonsim.MustFromUnsigned(vonsim.Byte, uint32(imm))}, nil
	case isa.NibbleImmediateWord:
		lo, ok := c.fetchByte(cursor)
		if !ok {
			return decodedOperand{}, fmt.Errorf("memory-out-of-range: cannot fetch immediate at %04Xh", *cursor)
		}
		hi, ok := c.fetchByte(cursor)
		if !ok {
			return decodedOperand{}, fmt.Errorf("memory-out-of-range: cannot fetch immediate at %04Xh", *cursor)
		}
		return decodedOperand{Kind: kind, Value: vonsim.MustFromUnsigned(vonsim.Word, uint32(lo)|uint32(hi)<<8)}, nil
	default:
		return decodedOperand{}, fmt.Errorf("internal: bad mode nibble %d", kind)
	}
}

// sizeToVonsim converts fetchWord14's raw sizeBit (0 = byte, nonzero = word,
// mirroring the encoder's writeWord14) into vonsim.Size.
func sizeToVonsim(sizeBit byte) vonsim.Size {
	if sizeBit != 0 {
		return vonsim.Word
	}
	return vonsim.Byte
}

// operandSize reports the bit width a decoded operand should be read/written
// at, inferred from its ModeNibble (for indirect/immediate forms), its
// register (for register forms), or its decoded Size (for direct-addressed
// forms, where the encoder packs the size into the address field's top bits
// rather than the mode nibble).
func operandSize(op decodedOperand) vonsim.Size {
	switch op.Kind {
	case isa.NibbleIndirectByte, isa.NibbleImmediateByte:
		return vonsim.Byte
	case isa.NibbleIndirectWord, isa.NibbleImmediateWord:
		return vonsim.Word
	case isa.NibbleRegister:
		return isa.RegisterSize(op.Register)
	case isa.NibbleDirect:
		return op.Size
	default:
		return vonsim.Word
	}
}
