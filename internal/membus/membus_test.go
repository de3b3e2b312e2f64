package membus

import (
	"testing"

	"vonsim"
)

func TestReadWriteByteRoundtrip(t *testing.T) {
	b := New(nil)
	if ok := b.WriteByte(0x1000, vonsim.MustFromUnsigned(vonsim.Byte, 0x42)); !ok {
		t.Fatal("WriteByte should succeed inside RAM")
	}
	v, ok := b.ReadByte(0x1000)
	if !ok || v.Unsigned() != 0x42 {
		t.Fatalf("ReadByte = %v ok=%v, want 0x42", v, ok)
	}
}

func TestReadWriteWordLittleEndian(t *testing.T) {
	b := New(nil)
	b.WriteWord(0x2000, vonsim.MustFromUnsigned(vonsim.Word, 0x1234))
	lo, _ := b.ReadByte(0x2000)
	hi, _ := b.ReadByte(0x2001)
	if lo.Unsigned() != 0x34 || hi.Unsigned() != 0x12 {
		t.Fatalf("low=%02x high=%02x, want 34 12", lo.Unsigned(), hi.Unsigned())
	}
}

func TestOutOfRangeAccessFails(t *testing.T) {
	b := New(nil)
	if _, ok := b.ReadByte(vonsim.MemorySize); ok {
		t.Fatal("ReadByte past MemorySize should fail")
	}
	if ok := b.WriteByte(vonsim.MemorySize, vonsim.MustFromUnsigned(vonsim.Byte, 1)); ok {
		t.Fatal("WriteByte past MemorySize should fail")
	}
}

func TestResetClearsRAM(t *testing.T) {
	b := New(nil)
	b.WriteByte(0x100, vonsim.MustFromUnsigned(vonsim.Byte, 0xFF))
	b.Reset()
	v, _ := b.ReadByte(0x100)
	if v.Unsigned() != 0 {
		t.Fatalf("Reset should zero RAM, got %v", v)
	}
}

func TestFillCopiesWholeImage(t *testing.T) {
	b := New(nil)
	src := make([]byte, vonsim.MemorySize)
	src[5] = 0xAB
	b.Fill(src)
	v, _ := b.ReadByte(5)
	if v.Unsigned() != 0xAB {
		t.Fatalf("Fill did not propagate byte 5, got %v", v)
	}
}

type stubDevice struct {
	reads  []vonsim.Port
	writes map[vonsim.Port]vonsim.Value
}

func newStubDevice() *stubDevice {
	return &stubDevice{writes: make(map[vonsim.Port]vonsim.Value)}
}

func (s *stubDevice) ReadPort(port vonsim.Port) vonsim.Value {
	s.reads = append(s.reads, port)
	return vonsim.MustFromUnsigned(vonsim.Byte, 0x7)
}

func (s *stubDevice) WritePort(port vonsim.Port, v vonsim.Value) {
	s.writes[port] = v
}

func TestPortRoutingDispatchesToAttachedDevice(t *testing.T) {
	b := New(nil)
	pic := newStubDevice()
	b.AttachPIC(pic)

	if got := b.ReadPort(vonsim.PortPICBase); got.Unsigned() != 0x7 {
		t.Fatalf("ReadPort(PortPICBase) = %v, want 0x7", got)
	}
	b.WritePort(vonsim.PortPICBase+1, vonsim.MustFromUnsigned(vonsim.Byte, 0x9))
	if got := pic.writes[vonsim.PortPICBase+1]; got.Unsigned() != 0x9 {
		t.Fatalf("pic did not receive the routed write, got %v", got)
	}
}

func TestUnmappedPortReadsZero(t *testing.T) {
	b := New(nil)
	if got := b.ReadPort(0xFF); got.Unsigned() != 0 {
		t.Fatalf("unmapped port read = %v, want 0", got)
	}
}
