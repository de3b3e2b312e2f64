package validate

import (
	"testing"

	"vonsim/internal/parser"
)

func TestValidateHelloCounter(t *testing.T) {
	src := "ORG 1000h\nX: DB 0\nORG 2000h\nMOV AL, X\nINC AL\nMOV X, AL\nHLT\nEND\n"
	prog, perrs := parser.Parse(src)
	if perrs.HasErrors() {
		t.Fatalf("parse errors: %v", perrs.Errors)
	}
	valid, verrs := Validate(prog)
	if verrs.HasErrors() {
		t.Fatalf("validate errors: %v", verrs.Errors)
	}
	if len(valid) != 4 {
		t.Fatalf("got %d validated instructions, want 4", len(valid))
	}
}

func TestValidateRejectsDoubleMemory(t *testing.T) {
	src := "ORG 1000h\nX: DB 0\nY: DB 0\nORG 2000h\nMOV X, Y\nHLT\nEND\n"
	prog, perrs := parser.Parse(src)
	if perrs.HasErrors() {
		t.Fatalf("parse errors: %v", perrs.Errors)
	}
	_, verrs := Validate(prog)
	if !verrs.HasErrors() {
		t.Fatal("expected a double-memory-access error")
	}
}

func TestValidateRejectsImmediateDestination(t *testing.T) {
	src := "ORG 1000h\nMOV 5, AX\nHLT\nEND\n"
	prog, perrs := parser.Parse(src)
	if perrs.HasErrors() {
		t.Fatalf("parse errors: %v", perrs.Errors)
	}
	_, verrs := Validate(prog)
	if !verrs.HasErrors() {
		t.Fatal("expected a destination-cannot-be-immediate error")
	}
}

func TestValidateIOForms(t *testing.T) {
	src := "ORG 1000h\nIN AL, 40h\nOUT DX, AX\nHLT\nEND\n"
	prog, perrs := parser.Parse(src)
	if perrs.HasErrors() {
		t.Fatalf("parse errors: %v", perrs.Errors)
	}
	valid, verrs := Validate(prog)
	if verrs.HasErrors() {
		t.Fatalf("validate errors: %v", verrs.Errors)
	}
	if valid[1].Length != 2 {
		t.Fatalf("IN AL,imm8 should be length 2, got %d", valid[1].Length)
	}
	if valid[2].Length != 1 {
		t.Fatalf("OUT DX,AX should be length 1, got %d", valid[2].Length)
	}
}

func TestValidateUnarySizes(t *testing.T) {
	src := "ORG 1000h\nINC AX\nINC [BX]\nEND\n"
	prog, perrs := parser.Parse(src)
	if perrs.HasErrors() {
		t.Fatalf("parse errors: %v", perrs.Errors)
	}
	_, verrs := Validate(prog)
	found := false
	for _, e := range verrs.Errors {
		if e.Code == "unknown-size" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected unknown-size for INC [BX] without BYTE/WORD PTR, got %v", verrs.Errors)
	}
}
