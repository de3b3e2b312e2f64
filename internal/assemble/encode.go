package assemble

import (
	"fmt"

	"vonsim"
	"vonsim/internal/ast"
	"vonsim/internal/isa"
	"vonsim/internal/validate"
)

func writeByte(out map[vonsim.MachineAddress]byte, addr vonsim.MachineAddress, b byte) {
	out[addr] = b
}

func writeWord14(out map[vonsim.MachineAddress]byte, addr vonsim.MachineAddress, v uint32, topBits byte) {
	out[addr] = byte(v & 0xFF)
	out[addr+1] = byte((v>>8)&0x3F) | (topBits << 6)
}

// EncodeInstruction emits inst's bytes at addr into out, per the layout
// documented in internal/isa.
func EncodeInstruction(inst *validate.Instruction, addr vonsim.MachineAddress, vals env, out map[vonsim.MachineAddress]byte) error {
	m, ok := isa.Lookup(inst.Mnemonic)
	if !ok {
		return fmt.Errorf("internal: unknown mnemonic %q", inst.Mnemonic)
	}
	tag := m.Class.Tag()

	switch inst.Class {
	case isa.Zeroary:
		writeByte(out, addr, byte(tag)<<4|m.Index)
		return nil

	case isa.Stack:
		reg := inst.Operands[0].Register
		idx, ok := isa.StackRegisterIndex(reg)
		if !ok {
			return fmt.Errorf("internal: %s is not a stack register", reg)
		}
		writeByte(out, addr, byte(tag)<<4|m.Index<<3|idx)
		return nil

	case isa.Unary:
		return encodeUnary(m, inst.Operands[0], addr, vals, out)

	case isa.Binary:
		return encodeBinary(m, inst.Operands[0], inst.Operands[1], addr, vals, out)

	case isa.Jump:
		target, err := evalExpr(inst.Operands[0].Expr, vals)
		if err != nil {
			return err
		}
		writeByte(out, addr, byte(tag)<<4|m.Index)
		writeWord14(out, addr+1, uint32(target), 0)
		return nil

	case isa.Int:
		v, err := evalExpr(inst.Operands[0].Expr, vals)
		if err != nil {
			return err
		}
		if v < 0 || v > 255 {
			return fmt.Errorf("value-out-of-range: INT operand %d does not fit in a byte", v)
		}
		writeByte(out, addr, byte(tag)<<4)
		writeByte(out, addr+1, byte(v))
		return nil

	case isa.IO:
		return encodeIO(m, inst, addr, vals, out)

	default:
		return fmt.Errorf("internal: unhandled class %v", inst.Class)
	}
}

func encodeUnary(m isa.Mnemonic, op validate.Operand, addr vonsim.MachineAddress, vals env, out map[vonsim.MachineAddress]byte) error {
	switch op.Mode {
	case isa.ModeRegister:
		idx, ok := isa.GeneralRegisterIndex(op.Register)
		if !ok {
			return fmt.Errorf("internal: %s is not a general register", op.Register)
		}
		writeByte(out, addr, byte(isa.Unary.Tag())<<4|m.Index<<2|uint8(isa.NibbleRegister))
		writeByte(out, addr+1, idx)
		return nil
	case isa.ModeIndirectBX:
		kind := isa.NibbleIndirectByte
		if op.Size == vonsim.Word {
			kind = isa.NibbleIndirectWord
		}
		writeByte(out, addr, byte(isa.Unary.Tag())<<4|m.Index<<2|uint8(kind))
		return nil
	case isa.ModeDirect:
		v, err := evalExpr(op.Expr, vals)
		if err != nil {
			return err
		}
		writeByte(out, addr, byte(isa.Unary.Tag())<<4|m.Index<<2|uint8(isa.NibbleDirect))
		sizeBit := byte(0)
		if op.Size == vonsim.Word {
			sizeBit = 1
		}
		writeWord14(out, addr+1, uint32(v), sizeBit)
		return nil
	default:
		return fmt.Errorf("internal: unary operand has no addressing mode")
	}
}

func encodeBinary(m isa.Mnemonic, dst, src validate.Operand, addr vonsim.MachineAddress, vals env, out map[vonsim.MachineAddress]byte) error {
	writeByte(out, addr, byte(isa.Binary.Tag())<<4|m.Index)

	dstNibble, err := modeNibble(dst)
	if err != nil {
		return err
	}
	srcNibble, err := modeNibble(src)
	if err != nil {
		return err
	}
	writeByte(out, addr+1, uint8(dstNibble)<<4|uint8(srcNibble))

	cursor := addr + 2
	cursor, err = encodeOperandExtra(dst, cursor, vals, out)
	if err != nil {
		return err
	}
	_, err = encodeOperandExtra(src, cursor, vals, out)
	return err
}

func modeNibble(op validate.Operand) (isa.ModeNibble, error) {
	switch op.Mode {
	case isa.ModeRegister:
		return isa.NibbleRegister, nil
	case isa.ModeIndirectBX:
		if op.Size == vonsim.Word {
			return isa.NibbleIndirectWord, nil
		}
		return isa.NibbleIndirectByte, nil
	case isa.ModeDirect:
		return isa.NibbleDirect, nil
	case isa.ModeImmediate:
		if op.Size == vonsim.Word {
			return isa.NibbleImmediateWord, nil
		}
		return isa.NibbleImmediateByte, nil
	default:
		return 0, fmt.Errorf("internal: operand has no addressing mode")
	}
}

func encodeOperandExtra(op validate.Operand, addr vonsim.MachineAddress, vals env, out map[vonsim.MachineAddress]byte) (vonsim.MachineAddress, error) {
	switch op.Mode {
	case isa.ModeRegister:
		idx, ok := isa.GeneralRegisterIndex(op.Register)
		if !ok {
			return addr, fmt.Errorf("internal: %s is not a general register", op.Register)
		}
		writeByte(out, addr, idx)
		return addr + 1, nil
	case isa.ModeIndirectBX:
		return addr, nil
	case isa.ModeDirect:
		v, err := evalExpr(op.Expr, vals)
		if err != nil {
			return addr, err
		}
		sizeBit := byte(0)
		if op.Size == vonsim.Word {
			sizeBit = 1
		}
		writeWord14(out, addr, uint32(v), sizeBit)
		return addr + 2, nil
	case isa.ModeImmediate:
		v, err := evalExpr(op.Expr, vals)
		if err != nil {
			return addr, err
		}
		if op.Size == vonsim.Word {
			writeByte(out, addr, byte(v&0xFF))
			writeByte(out, addr+1, byte((v>>8)&0xFF))
			return addr + 2, nil
		}
		writeByte(out, addr, byte(v))
		return addr + 1, nil
	default:
		return addr, nil
	}
}

func encodeIO(m isa.Mnemonic, inst *validate.Instruction, addr vonsim.MachineAddress, vals env, out map[vonsim.MachineAddress]byte) error {
	acc, port := inst.Operands[0], inst.Operands[1]
	nibble := m.Index << 3
	if acc.Size == vonsim.Word {
		nibble |= 1 << 2
	}
	var immByte byte
	hasImm := port.Mode == isa.ModeImmediate
	if hasImm {
		nibble |= 1 << 1
		v, err := evalExpr(port.Expr, vals)
		if err != nil {
			return err
		}
		if v < 0 || v > 255 {
			return fmt.Errorf("value-out-of-range: port %d does not fit in a byte", v)
		}
		immByte = byte(v)
	}
	writeByte(out, addr, byte(isa.IO.Tag())<<4|nibble)
	if hasImm {
		writeByte(out, addr+1, immByte)
	}
	return nil
}

// encodeData emits one DB/DW statement's bytes at addr.
func encodeData(stmt ast.Statement, addr vonsim.MachineAddress, vals env, out map[vonsim.MachineAddress]byte) error {
	unit := vonsim.MachineAddress(1)
	if stmt.DataKind == ast.DataDW {
		unit = 2
	}
	cursor := addr
	for _, v := range stmt.DataValues {
		switch {
		case v.IsString:
			for i := 0; i < len(v.String); i++ {
				writeByte(out, cursor, v.String[i])
				cursor++
			}
		case v.IsUninitialized:
			cursor += unit
		default:
			n, err := evalExpr(v.Expr, vals)
			if err != nil {
				return err
			}
			if unit == 1 {
				writeByte(out, cursor, byte(n))
			} else {
				writeByte(out, cursor, byte(n&0xFF))
				writeByte(out, cursor+1, byte((n>>8)&0xFF))
			}
			cursor += unit
		}
	}
	return nil
}
