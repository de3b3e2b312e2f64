package assemble

import (
	"bytes"
	"testing"
)

func TestObjectFileWriteReadRoundtrip(t *testing.T) {
	prog, errs := Compile("ORG 1000h\nX: DB 5\nORG 2000h\nMOV AL, X\nINC AL\nMOV X, AL\nHLT\nEND\n")
	if errs.HasErrors() {
		t.Fatalf("compile errors: %v", errs.Errors)
	}
	obj := Emit(prog)

	var buf bytes.Buffer
	if err := obj.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if got.EntryPoint != obj.EntryPoint {
		t.Fatalf("EntryPoint = %04Xh, want %04Xh", got.EntryPoint, obj.EntryPoint)
	}
	if len(got.Sections) != len(obj.Sections) {
		t.Fatalf("got %d sections, want %d", len(got.Sections), len(obj.Sections))
	}
	for i, sec := range obj.Sections {
		if got.Sections[i].Kind != sec.Kind || got.Sections[i].Address != sec.Address {
			t.Fatalf("section %d = %+v, want %+v", i, got.Sections[i], sec)
		}
		if !bytes.Equal(got.Sections[i].Bytes, sec.Bytes) {
			t.Fatalf("section %d bytes = %v, want %v", i, got.Sections[i].Bytes, sec.Bytes)
		}
	}
	if len(got.Symbols) != len(obj.Symbols) {
		t.Fatalf("got %d symbols, want %d", len(got.Symbols), len(obj.Symbols))
	}
	for i, sym := range obj.Symbols {
		if got.Symbols[i] != sym {
			t.Fatalf("symbol %d = %+v, want %+v", i, got.Symbols[i], sym)
		}
	}
}

func TestReadRejectsBadMagic(t *testing.T) {
	if _, err := Read(bytes.NewReader([]byte("XXXX"))); err == nil {
		t.Fatal("expected an error for a bad magic number")
	}
}
