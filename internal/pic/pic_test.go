package pic

import (
	"testing"

	"vonsim"
)

func TestUpdateDispatchesLowestPriority(t *testing.T) {
	p := New(nil)
	p.AssignVector(0, 40)
	p.AssignVector(1, 41)
	p.Request(1)
	p.Request(0)
	v, ok, err := p.Update(true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || v != 40 {
		t.Fatalf("expected line 0's vector 40, got %d ok=%v", v, ok)
	}
}

func TestUpdateMaskedLineSkipped(t *testing.T) {
	p := New(nil)
	p.AssignVector(0, 40)
	p.AssignVector(1, 41)
	p.Request(0)
	p.WritePort(0x11, vonsim.MustFromUnsigned(vonsim.Byte, 0x01)) // IMR bit 0 set
	p.Request(1)
	v, ok, err := p.Update(true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || v != 41 {
		t.Fatalf("expected masked line 0 skipped, got %d ok=%v", v, ok)
	}
}

func TestUpdateRespectsInterruptFlag(t *testing.T) {
	p := New(nil)
	p.Request(0)
	_, ok, _ := p.Update(false)
	if ok {
		t.Fatal("expected no dispatch while IF=0")
	}
}

func TestUpdateEOIClearsISR(t *testing.T) {
	p := New(nil)
	p.AssignVector(0, 40)
	p.Request(0)
	p.Update(true)
	p.WritePort(0x10, vonsim.MustFromUnsigned(vonsim.Byte, 0x20)) // EOI
	_, ok, _ := p.Update(true)
	if ok {
		t.Fatal("EOI update should clear ISR, not dispatch")
	}
}

func TestUpdateReservedVectorErrors(t *testing.T) {
	p := New(nil)
	p.AssignVector(0, 3) // collides with INT 3
	p.Request(0)
	_, _, err := p.Update(true)
	if err == nil {
		t.Fatal("expected a reserved-interrupt error")
	}
}
