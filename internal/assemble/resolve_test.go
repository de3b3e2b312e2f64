package assemble

import "testing"

func TestResolveHelloCounter(t *testing.T) {
	src := "ORG 1000h\nX: DB 0\nORG 2000h\nMOV AL, X\nINC AL\nMOV X, AL\nHLT\nEND\n"
	prog, errs := Compile(src)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.Errors)
	}
	xInfo, ok := prog.Labels["X"]
	if !ok || xInfo.Address != 0x1000 {
		t.Fatalf("X should resolve to 1000h, got %+v", xInfo)
	}
	if prog.EntryPoint != 0x2000 {
		t.Fatalf("entry point should be 2000h, got %04Xh", prog.EntryPoint)
	}
	if len(prog.Instructions) != 4 {
		t.Fatalf("want 4 instructions, got %d", len(prog.Instructions))
	}
	if prog.Data[0x1000] != 0 {
		t.Fatalf("X's initial byte should be 0, got %d", prog.Data[0x1000])
	}
}

func TestResolveRejectsOverlap(t *testing.T) {
	src := "ORG 1000h\nX: DB 0\nORG 1000h\nY: DB 1\nEND\n"
	_, errs := Compile(src)
	if !errs.HasErrors() {
		t.Fatal("expected an occupied-address error")
	}
}

func TestResolveRejectsOutOfRange(t *testing.T) {
	src := "ORG 3FFFh\nDW 0\nEND\n"
	_, errs := Compile(src)
	if !errs.HasErrors() {
		t.Fatal("expected an instruction-out-of-range error")
	}
}

func TestResolveAllowsBoundaryWord(t *testing.T) {
	src := "ORG 3FFEh\nDW 0\nEND\n"
	_, errs := Compile(src)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.Errors)
	}
}

func TestResolveMissingOrg(t *testing.T) {
	src := "X: DB 0\nEND\n"
	_, errs := Compile(src)
	if !errs.HasErrors() {
		t.Fatal("expected a missing-org error")
	}
}

func TestResolveEquChain(t *testing.T) {
	src := "A: EQU 2\nB: EQU A+1\nORG 1000h\nMOV AX, B\nEND\n"
	prog, errs := Compile(src)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.Errors)
	}
	if prog.Labels["B"].Address != 3 {
		t.Fatalf("B should resolve to 3, got %d", prog.Labels["B"].Address)
	}
}

func TestResolveEquCycle(t *testing.T) {
	src := "A: EQU B\nB: EQU A\nORG 1000h\nEND\n"
	_, errs := Compile(src)
	if !errs.HasErrors() {
		t.Fatal("expected a label-undefined-chain error")
	}
}
