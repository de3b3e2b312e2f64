package macro

import (
	"strings"
	"testing"
)

func TestExpandSimpleMacro(t *testing.T) {
	src := "MACRO\nADDTWO DST, SRC\nMOV AX, SRC\nADD DST, AX\nMEND\nORG 1000h\nADDTWO X, Y\nHLT\nEND\n"
	out, err := Expand(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "MOV AX, Y") || !strings.Contains(out, "ADD X, AX") {
		t.Fatalf("expansion missing substituted body: %q", out)
	}
	if strings.Contains(out, "MACRO") || strings.Contains(out, "MEND") {
		t.Fatalf("macro definition should not survive expansion: %q", out)
	}
}

func TestExpandWrongArgCount(t *testing.T) {
	src := "MACRO\nADDTWO DST, SRC\nMOV AX, SRC\nMEND\nORG 1000h\nADDTWO X\nEND\n"
	if _, err := Expand(src); err == nil {
		t.Fatal("expected an argument-count error")
	}
}

func TestExpandNoMacros(t *testing.T) {
	src := "ORG 1000h\nHLT\nEND\n"
	out, err := Expand(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != src {
		t.Fatalf("source with no macros should pass through unchanged, got %q", out)
	}
}
