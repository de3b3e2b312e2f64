package devices

import (
	"testing"

	"vonsim"
	"vonsim/internal/handshake"
	"vonsim/internal/pic"
	"vonsim/internal/pio"
	"vonsim/internal/timer"
)

func TestSwitchesToggleDrivesPIOInput(t *testing.T) {
	p := pio.New()
	sw := NewSwitches(p)
	sw.Toggle(2)
	if !sw.State()[2] {
		t.Fatal("Toggle should flip the reported state")
	}
	if got := p.ReadPort(vonsim.PortPIOBase); got.Unsigned()&0x04 == 0 {
		t.Fatal("toggling switch 2 should set PIO port A bit 2")
	}
	sw.Toggle(2)
	if sw.State()[2] {
		t.Fatal("a second Toggle should flip it back off")
	}
}

func TestLEDsReflectPIOOutputBits(t *testing.T) {
	p := pio.New()
	p.WritePort(vonsim.PortPIOBase+3, vonsim.MustFromUnsigned(vonsim.Byte, 0xFF)) // CB: all output
	p.WritePort(vonsim.PortPIOBase+1, vonsim.MustFromUnsigned(vonsim.Byte, 0x01)) // PB bit 0 high
	leds := NewLEDs(p)
	state := leds.State()
	if !state[0] {
		t.Fatal("LED 0 should be lit")
	}
	if state[1] {
		t.Fatal("LED 1 should be unlit")
	}
}

func TestScreenAppendsAndClears(t *testing.T) {
	s := NewScreen()
	s.Write('H')
	s.Write('I')
	if got := s.String(); got != "HI" {
		t.Fatalf("screen = %q, want %q", got, "HI")
	}
	s.Clear()
	if got := s.String(); got != "" {
		t.Fatalf("screen after Clear = %q, want empty", got)
	}
}

func TestPrinterPrintTransfersLatestByte(t *testing.T) {
	p := pic.New(nil)
	hs := handshake.New(p, 0)
	screen := NewScreen()
	printer := NewPrinter(hs, screen)

	hs.WritePort(vonsim.PortHandshakeBase, vonsim.MustFromUnsigned(vonsim.Byte, 'P'))
	printer.Print()
	if got := screen.String(); got != "P" {
		t.Fatalf("screen = %q, want %q", got, "P")
	}

	printer.Clear()
	if len(hs.Printed) != 0 {
		t.Fatal("Clear should empty the handshake's Printed history")
	}
}

func TestClockTicksTimer(t *testing.T) {
	p := pic.New(nil)
	tm := timer.New(p, 0)
	tm.WritePort(vonsim.PortTimerBase+1, vonsim.MustFromUnsigned(vonsim.Byte, 1))
	clock := NewClock(tm)
	clock.Tick()
	if got := tm.ReadPort(vonsim.PortTimerBase); got.Unsigned() != 1 {
		t.Fatalf("CONT = %v, want 1 after one tick", got)
	}
}

func TestF10PressRequestsAssignedLine(t *testing.T) {
	p := pic.New(nil)
	f10 := NewF10(p, 5)
	f10.Press()
	_, ok, _ := p.Update(true)
	if !ok {
		t.Fatal("pressing F10 should raise an interrupt request")
	}
}
