package link

import (
	"testing"

	"vonsim/internal/assemble"
)

func buildObject(t *testing.T, src string) *assemble.ObjectFile {
	t.Helper()
	prog, errs := assemble.Compile(src)
	if errs.HasErrors() {
		t.Fatalf("compile errors: %v", errs.Errors)
	}
	return assemble.Emit(prog)
}

func TestLinkRelocatorChainsObjects(t *testing.T) {
	a := buildObject(t, "ORG 1000h\nMOV AX, 1\nHLT\nEND\n")
	b := buildObject(t, "ORG 1000h\nMOV BX, 2\nHLT\nEND\n")

	prog, err := Link([]*assemble.ObjectFile{a, b}, Relocator, 0x1000)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if prog.EntryPoint != 0x1000 {
		t.Fatalf("EntryPoint = %04Xh, want 1000h", prog.EntryPoint)
	}
	if len(prog.Code) == 0 {
		t.Fatal("expected placed code bytes")
	}
}

func TestLinkAbsoluteRejectsOverlap(t *testing.T) {
	a := buildObject(t, "ORG 1000h\nMOV AX, 1\nHLT\nEND\n")
	b := buildObject(t, "ORG 1000h\nMOV BX, 2\nHLT\nEND\n")

	if _, err := Link([]*assemble.ObjectFile{a, b}, Absolute, 0); err == nil {
		t.Fatal("expected an overlap error placing two objects at the same address")
	}
}
