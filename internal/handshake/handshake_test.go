package handshake

import (
	"testing"

	"vonsim"
)

type fakePIC struct {
	requested []int
}

func (f *fakePIC) Request(line int) { f.requested = append(f.requested, line) }

func TestWriteDataLatchesAndRaisesBusy(t *testing.T) {
	h := New(&fakePIC{}, 0)
	h.WritePort(vonsim.PortHandshakeBase, vonsim.MustFromUnsigned(vonsim.Byte, 'X'))
	if got := h.ReadPort(vonsim.PortHandshakeBase + portSTATE); got.Unsigned()&busyBit == 0 {
		t.Fatal("writing DATA should raise busy")
	}
}

func TestWriteDataIgnoredWhileBusy(t *testing.T) {
	h := New(&fakePIC{}, 0)
	h.WritePort(vonsim.PortHandshakeBase, vonsim.MustFromUnsigned(vonsim.Byte, 'A'))
	h.WritePort(vonsim.PortHandshakeBase, vonsim.MustFromUnsigned(vonsim.Byte, 'B'))
	if got := h.ReadPort(vonsim.PortHandshakeBase); got.Unsigned() != 'A' {
		t.Fatalf("DATA = %q, want 'A' (a second write while busy must be dropped)", got.Unsigned())
	}
}

func TestDoneClearsBusyAndAppendsPrinted(t *testing.T) {
	h := New(&fakePIC{}, 0)
	h.WritePort(vonsim.PortHandshakeBase, vonsim.MustFromUnsigned(vonsim.Byte, 'X'))
	h.Done()
	if got := h.ReadPort(vonsim.PortHandshakeBase + portSTATE); got.Unsigned()&busyBit != 0 {
		t.Fatal("Done should clear busy")
	}
	if len(h.Printed) != 1 || h.Printed[0] != 'X' {
		t.Fatalf("Printed = %v, want ['X']", h.Printed)
	}
}

func TestDoneRaisesLineOnlyWhenInterruptEnabled(t *testing.T) {
	pic := &fakePIC{}
	h := New(pic, 2)
	h.WritePort(vonsim.PortHandshakeBase, vonsim.MustFromUnsigned(vonsim.Byte, 'Y'))
	h.Done()
	if len(pic.requested) != 0 {
		t.Fatal("Done should not raise the PIC line with interrupts disabled")
	}

	h.WritePort(vonsim.PortHandshakeBase, vonsim.MustFromUnsigned(vonsim.Byte, 'Z'))
	h.SetInterruptEnabled(true)
	h.Done()
	if len(pic.requested) != 1 || pic.requested[0] != 2 {
		t.Fatalf("expected one request on line 2, got %v", pic.requested)
	}
}

func TestDoneWithoutPendingByteIsNoop(t *testing.T) {
	h := New(&fakePIC{}, 0)
	h.Done()
	if len(h.Printed) != 0 {
		t.Fatal("Done with nothing latched should not append to Printed")
	}
}
