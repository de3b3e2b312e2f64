package assemble

import "testing"

func TestEncodeZeroaryAndStack(t *testing.T) {
	src := "ORG 1000h\nPUSH BX\nHLT\nEND\n"
	prog, errs := Compile(src)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.Errors)
	}
	if got, want := prog.Code[0x1000], byte(1<<4|0<<3|1); got != want {
		t.Fatalf("PUSH BX byte = %08b, want %08b", got, want)
	}
	if got, want := prog.Code[0x1001], byte(0); got != want {
		t.Fatalf("HLT byte = %08b, want %08b", got, want)
	}
}

func TestEncodeUnaryRegisterVsIndirect(t *testing.T) {
	src := "ORG 1000h\nINC AX\nINC WORD PTR [BX]\nEND\n"
	prog, errs := Compile(src)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.Errors)
	}
	// INC AX: opcode byte (mnemonicIndex<<2 | nibbleRegister=0) then reg index byte.
	if _, ok := prog.Code[0x1001]; !ok {
		t.Fatal("INC AX should emit a register-index byte")
	}
	// Next instruction starts right after the 2-byte INC AX.
	if _, ok := prog.Code[0x1003]; ok {
		t.Fatal("INC [BX] (indirect) should be a single byte, no operand byte")
	}
}

func TestEncodeBinaryImmediate(t *testing.T) {
	src := "ORG 1000h\nMOV AL, 5\nEND\n"
	prog, errs := Compile(src)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.Errors)
	}
	// opcode, mode byte, dst reg-index byte, src imm byte = 4 bytes.
	if prog.Code[0x1003] != 5 {
		t.Fatalf("immediate byte = %d, want 5", prog.Code[0x1003])
	}
}
