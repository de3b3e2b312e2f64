// Package isa is VonSim's opcode table: which mnemonics exist, which
// instruction class each belongs to, and the bit-exact encoding used by both
// the assembler (internal/assemble) and the CPU decoder (internal/cpu).
//
// spec.md's encoding section (§6) states per-class byte lengths but leaves
// "the full table" as project-defined (§9 Open Questions: "Exact opcode
// encoding table ... must be copied from the project's docs ... this spec
// states lengths but not per-bit fields"). No such table is available here, so the layout below is an original, internally consistent
// design that hits the documented per-class lengths where the bit budget
// allows and is one byte longer where it doesn't (see DESIGN.md's "Opcode
// encoding" entry for the exact deviations). The one hard requirement VonSim
// itself imposes — the assembler and the simulator agreeing byte for byte —
// is what this package guarantees: both consult the same tables here.
package isa

import "vonsim"

// Class groups mnemonics that share an operand shape and encoding recipe.
type Class uint8

const (
	Zeroary Class = iota
	Stack
	Unary
	Binary
	Jump
	Int
	IO
)

// ClassTag is the value packed into the top 4 bits of every instruction's
// first byte, letting the decoder dispatch to the right class before it has
// parsed anything else.
type ClassTag uint8

const (
	TagZeroary ClassTag = iota
	TagStack
	TagUnary
	TagBinary
	TagJump
	TagInt
	TagIO
)

func (c Class) Tag() ClassTag {
	switch c {
	case Zeroary:
		return TagZeroary
	case Stack:
		return TagStack
	case Unary:
		return TagUnary
	case Binary:
		return TagBinary
	case Jump:
		return TagJump
	case Int:
		return TagInt
	case IO:
		return TagIO
	default:
		panic("isa: unknown class")
	}
}

// Mnemonic describes one opcode: its class and its index within that class's
// nibble-sized subfield.
type Mnemonic struct {
	Name  string
	Class Class
	Index uint8 // meaning depends on Class; see tables below
}

var zeroaryOrder = []string{"HLT", "NOP", "IRET", "RET", "CLI", "STI", "PUSHF", "POPF"}
var unaryOrder = []string{"INC", "DEC", "NEG", "NOT"}
var binaryOrder = []string{"ADD", "ADC", "SUB", "SBB", "AND", "OR", "XOR", "CMP", "MOV"}
var jumpOrder = []string{"JMP", "JC", "JNC", "JZ", "JNZ", "JS", "JNS", "JO", "JNO", "CALL"}

var Mnemonics = buildMnemonics()

func buildMnemonics() map[string]Mnemonic {
	m := make(map[string]Mnemonic)
	for i, name := range zeroaryOrder {
		m[name] = Mnemonic{Name: name, Class: Zeroary, Index: uint8(i)}
	}
	for i, name := range unaryOrder {
		m[name] = Mnemonic{Name: name, Class: Unary, Index: uint8(i)}
	}
	for i, name := range binaryOrder {
		m[name] = Mnemonic{Name: name, Class: Binary, Index: uint8(i)}
	}
	for i, name := range jumpOrder {
		m[name] = Mnemonic{Name: name, Class: Jump, Index: uint8(i)}
	}
	m["PUSH"] = Mnemonic{Name: "PUSH", Class: Stack, Index: 0}
	m["POP"] = Mnemonic{Name: "POP", Class: Stack, Index: 1}
	m["INT"] = Mnemonic{Name: "INT", Class: Int, Index: 0}
	m["IN"] = Mnemonic{Name: "IN", Class: IO, Index: 0}
	m["OUT"] = Mnemonic{Name: "OUT", Class: IO, Index: 1}
	return m
}

func Lookup(mnemonic string) (Mnemonic, bool) {
	m, ok := Mnemonics[mnemonic]
	return m, ok
}

func NameForZeroary(idx uint8) string {
	if int(idx) < len(zeroaryOrder) {
		return zeroaryOrder[idx]
	}
	return "?"
}

func NameForUnary(idx uint8) string {
	if int(idx) < len(unaryOrder) {
		return unaryOrder[idx]
	}
	return "?"
}

func NameForBinary(idx uint8) string {
	if int(idx) < len(binaryOrder) {
		return binaryOrder[idx]
	}
	return "?"
}

func NameForJump(idx uint8) string {
	if int(idx) < len(jumpOrder) {
		return jumpOrder[idx]
	}
	return "?"
}

// AddrMode tags how an operand of a Binary/Unary instruction is addressed,
// as seen by the validator (internal/validate) before encoding.
type AddrMode uint8

const (
	ModeRegister AddrMode = iota
	ModeIndirectBX
	ModeDirect
	ModeImmediate // Binary src only
)

// ModeNibble is the 4-bit operand shape tag packed into an instruction's
// mode byte(s) by internal/assemble's encoder and read back by
// internal/cpu's decoder. It is a finer-grained sibling of AddrMode: where
// AddrMode's ModeIndirectBX/ModeDirect don't carry size, ModeNibble splits
// them into explicit byte/word variants so the bit pattern alone (with no
// symbol table available at runtime) tells the CPU how wide to read.
type ModeNibble uint8

const (
	NibbleRegister ModeNibble = iota
	NibbleIndirectByte
	NibbleIndirectWord
	NibbleDirect
	NibbleImmediateByte
	NibbleImmediateWord
)

// stackRegisters orders the word registers PUSH/POP may name.
var stackRegisters = []vonsim.RegisterID{vonsim.AX, vonsim.BX, vonsim.CX, vonsim.DX, vonsim.SP}

func StackRegisterIndex(r vonsim.RegisterID) (uint8, bool) {
	for i, reg := range stackRegisters {
		if reg == r {
			return uint8(i), true
		}
	}
	return 0, false
}

func StackRegisterByIndex(idx uint8) (vonsim.RegisterID, bool) {
	if int(idx) < len(stackRegisters) {
		return stackRegisters[idx], true
	}
	return 0, false
}

// generalRegisters orders all word/byte registers the Binary/Unary classes'
// register-mode operand byte can name: 6 word registers then 8 byte
// registers, 14 total (fits one byte).
var generalRegisters = []vonsim.RegisterID{
	vonsim.AX, vonsim.BX, vonsim.CX, vonsim.DX, vonsim.SP, vonsim.IP,
	vonsim.AL, vonsim.AH, vonsim.BL, vonsim.BH, vonsim.CL, vonsim.CH, vonsim.DL, vonsim.DH,
}

func GeneralRegisterIndex(r vonsim.RegisterID) (uint8, bool) {
	for i, reg := range generalRegisters {
		if reg == r {
			return uint8(i), true
		}
	}
	return 0, false
}

func GeneralRegisterByIndex(idx uint8) (vonsim.RegisterID, bool) {
	if int(idx) < len(generalRegisters) {
		return generalRegisters[idx], true
	}
	return 0, false
}

// RegisterSize reports whether a register names an 8 or 16 bit location.
func RegisterSize(r vonsim.RegisterID) vonsim.Size {
	if vonsim.IsByteRegister(r) {
		return vonsim.Byte
	}
	return vonsim.Word
}
