package timer

import (
	"testing"

	"vonsim"
)

type fakePIC struct {
	requested []int
}

func (f *fakePIC) Request(line int) { f.requested = append(f.requested, line) }

func TestTickRequestsLineOnMatch(t *testing.T) {
	pic := &fakePIC{}
	tm := New(pic, 1)
	tm.WritePort(vonsim.PortTimerBase+portCOMP, vonsim.MustFromUnsigned(vonsim.Byte, 3))

	tm.Tick()
	tm.Tick()
	if len(pic.requested) != 0 {
		t.Fatalf("should not request before CONT reaches COMP, got %v", pic.requested)
	}
	tm.Tick()
	if len(pic.requested) != 1 || pic.requested[0] != 1 {
		t.Fatalf("expected a single request on line 1, got %v", pic.requested)
	}
}

func TestTickWrapsAroundModulo256(t *testing.T) {
	pic := &fakePIC{}
	tm := New(pic, 0)
	tm.WritePort(vonsim.PortTimerBase+portCOMP, vonsim.MustFromUnsigned(vonsim.Byte, 0))
	for i := 0; i < 256; i++ {
		tm.Tick()
	}
	if len(pic.requested) != 1 {
		t.Fatalf("CONT should wrap to 0 and match COMP=0 exactly once per 256 ticks, got %d requests", len(pic.requested))
	}
}

func TestReadPortReflectsCONTAndCOMP(t *testing.T) {
	tm := New(&fakePIC{}, 0)
	tm.WritePort(vonsim.PortTimerBase+portCOMP, vonsim.MustFromUnsigned(vonsim.Byte, 0x55))
	tm.Tick()
	if got := tm.ReadPort(vonsim.PortTimerBase + portCONT); got.Unsigned() != 1 {
		t.Fatalf("CONT = %v, want 1", got)
	}
	if got := tm.ReadPort(vonsim.PortTimerBase + portCOMP); got.Unsigned() != 0x55 {
		t.Fatalf("COMP = %v, want 0x55", got)
	}
}
