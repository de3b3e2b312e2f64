package main

import (
	"testing"

	"vonsim/internal/assemble"
)

func TestObjectToProgramRebuildsCodeAndData(t *testing.T) {
	prog, errs := assemble.Compile("ORG 1000h\nX: DB 7\nORG 2000h\nMOV AL, X\nHLT\nEND\n")
	if errs.HasErrors() {
		t.Fatalf("compile errors: %v", errs.Errors)
	}
	obj := assemble.Emit(prog)

	got := objectToProgram(obj)
	if got.EntryPoint != prog.EntryPoint {
		t.Fatalf("EntryPoint = %04Xh, want %04Xh", got.EntryPoint, prog.EntryPoint)
	}
	for addr, b := range prog.Code {
		if got.Code[addr] != b {
			t.Fatalf("code[%04Xh] = %#02x, want %#02x", addr, got.Code[addr], b)
		}
	}
	for addr, b := range prog.Data {
		if got.Data[addr] != b {
			t.Fatalf("data[%04Xh] = %#02x, want %#02x", addr, got.Data[addr], b)
		}
	}
}
