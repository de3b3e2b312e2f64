package pio

import (
	"testing"

	"vonsim"
)

func TestOutputBitReflectsCPUWrite(t *testing.T) {
	p := New()
	p.WritePort(vonsim.PortPIOBase+portCA, vonsim.MustFromUnsigned(vonsim.Byte, 0xFF)) // PA all output
	p.WritePort(vonsim.PortPIOBase+portPA, vonsim.MustFromUnsigned(vonsim.Byte, 0x01))
	if !p.OutputBit("A", 0) {
		t.Fatal("bit 0 of PA should read back high after the CPU drove it")
	}
	if p.OutputBit("A", 1) {
		t.Fatal("bit 1 of PA was never set")
	}
}

func TestInputBitIgnoredWhenConfiguredAsOutput(t *testing.T) {
	p := New()
	p.WritePort(vonsim.PortPIOBase+portCA, vonsim.MustFromUnsigned(vonsim.Byte, 0x01)) // bit 0 output
	p.SetInputBit("A", 0, true)                                                        // device tries to drive an output bit
	if p.OutputBit("A", 0) {
		t.Fatal("an external device must not be able to drive a CPU-output bit")
	}
}

func TestInputBitVisibleOnReadPort(t *testing.T) {
	p := New()
	p.SetInputBit("B", 2, true) // CB defaults to 0 (input) for every bit
	if got := p.ReadPort(vonsim.PortPIOBase + portPB); got.Unsigned() != 0x04 {
		t.Fatalf("PB = %#02x, want bit 2 set", got.Unsigned())
	}
}

func TestWritePortOnlyChangesOutputConfiguredBits(t *testing.T) {
	p := New()
	p.SetInputBit("A", 0, true)                                                        // bit 0 is device-driven (CA bit 0 = 0)
	p.WritePort(vonsim.PortPIOBase+portCA, vonsim.MustFromUnsigned(vonsim.Byte, 0x02)) // only bit 1 is CPU output
	p.WritePort(vonsim.PortPIOBase+portPA, vonsim.MustFromUnsigned(vonsim.Byte, 0x00)) // CPU tries to clear everything
	if got := p.ReadPort(vonsim.PortPIOBase + portPA); got.Unsigned()&0x01 == 0 {
		t.Fatal("CPU write must not clear an input-configured bit the device already drove")
	}
}
