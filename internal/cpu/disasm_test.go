package cpu

import (
	"fmt"
	"testing"

	"vonsim/internal/assemble"
	"vonsim/internal/membus"
)

func TestDisassembleRendersMnemonicsAndOperands(t *testing.T) {
	src := "ORG 1000h\nMOV AX, 5\nADD AX, BX\nHLT\nEND\n"
	prog, errs := assemble.Compile(src)
	if errs.HasErrors() {
		t.Fatalf("compile errors: %v", errs.Errors)
	}

	bus := membus.New(nil)
	bus.LoadImage(prog.Code, prog.Data)

	end := prog.EntryPoint
	for addr := range prog.Code {
		if addr >= end {
			end = addr + 1
		}
	}

	insns, err := Disassemble(bus, prog.EntryPoint, end)
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if len(insns) != 3 {
		t.Fatalf("got %d instructions, want 3: %+v", len(insns), insns)
	}

	if insns[0].Mnemonic != "MOV" || len(insns[0].Operands) != 2 || insns[0].Operands[0] != "AX" {
		t.Fatalf("insns[0] = %+v", insns[0])
	}
	if insns[1].Mnemonic != "ADD" || insns[1].Operands[1] != "BX" {
		t.Fatalf("insns[1] = %+v", insns[1])
	}
	if insns[2].Mnemonic != "HLT" || len(insns[2].Operands) != 0 {
		t.Fatalf("insns[2] = %+v", insns[2])
	}
}

func TestDisassembleJumpTargetHasNoBrackets(t *testing.T) {
	src := "ORG 1000h\nLOOP1: JMP LOOP1\nEND\n"
	prog, errs := assemble.Compile(src)
	if errs.HasErrors() {
		t.Fatalf("compile errors: %v", errs.Errors)
	}

	bus := membus.New(nil)
	bus.LoadImage(prog.Code, prog.Data)

	insns, err := Disassemble(bus, prog.EntryPoint, prog.EntryPoint+3)
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if len(insns) != 1 {
		t.Fatalf("got %d instructions, want 1: %+v", len(insns), insns)
	}
	want := fmt.Sprintf("%04Xh", prog.EntryPoint)
	if insns[0].Operands[0] != want {
		t.Fatalf("operand = %q, want %q (a jump target, not a bracketed memory operand)", insns[0].Operands[0], want)
	}
}
