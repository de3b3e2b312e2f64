// Package membus implements VonSim's memory + I/O bus (spec.md §4.6): a flat
// 16 KiB RAM plus port routing to the four device regions (PIC, Timer, PIO,
// Handshake). Unmapped port access doesn't error; it emits a diagnostic
// event and returns/discards zero, matching spec.md's "Unmapped reads
// return 0 ... writes are no-ops" rule.
package membus

import (
	"vonsim"
	"vonsim/internal/events"
)

// PortDevice is implemented by each of the four addressable device blocks.
// ReadPort/WritePort receive the full port number so a device spanning
// several ports (e.g. PIC's 10h-17h) can dispatch internally.
type PortDevice interface {
	ReadPort(port vonsim.Port) vonsim.Value
	WritePort(port vonsim.Port, v vonsim.Value)
}

type Bus struct {
	mem [vonsim.MemorySize]byte

	pic        PortDevice
	timer      PortDevice
	pio        PortDevice
	handshake  PortDevice
	sink       events.Sink
}

func New(sink events.Sink) *Bus {
	if sink == nil {
		sink = events.Discard
	}
	return &Bus{sink: sink}
}

func (b *Bus) AttachPIC(d PortDevice)       { b.pic = d }
func (b *Bus) AttachTimer(d PortDevice)     { b.timer = d }
func (b *Bus) AttachPIO(d PortDevice)       { b.pio = d }
func (b *Bus) AttachHandshake(d PortDevice) { b.handshake = d }

// LoadImage copies a freshly assembled program's code and data images into
// RAM. Addresses outside [0, MaxAddress] are never produced by
// internal/assemble, so this trusts its input rather than re-validating it.
func (b *Bus) LoadImage(code, data map[vonsim.MachineAddress]byte) {
	for addr, v := range code {
		b.mem[addr] = v
	}
	for addr, v := range data {
		b.mem[addr] = v
	}
}

// Reset clears RAM to all zero (spec.md §6's loadProgram data_init=="clean").
func (b *Bus) Reset() {
	for i := range b.mem {
		b.mem[i] = 0
	}
}

// Fill overwrites all of RAM with src, used for loadProgram's
// data_init=="random" option; the caller supplies the bytes so membus never
// needs an RNG of its own.
func (b *Bus) Fill(src []byte) {
	copy(b.mem[:], src)
}

// Dump returns a snapshot copy of RAM for getComputerState (spec.md §6).
// Unlike ReadByte this never emits a memory.read event: inspecting the
// whole machine's state isn't an instruction-level bus access.
func (b *Bus) Dump() []byte {
	out := make([]byte, len(b.mem))
	copy(out, b.mem[:])
	return out
}

func (b *Bus) ReadByte(addr vonsim.MachineAddress) (vonsim.Value, bool) {
	if addr > vonsim.MaxAddress {
		b.sink(events.New(events.SourceMemory, events.KindError, map[string]any{"code": string(vonsim.ErrMemoryOutOfRange), "address": addr}))
		return vonsim.Value{}, false
	}
	v := vonsim.MustFromUnsigned(vonsim.Byte, uint32(b.mem[addr]))
	b.sink(events.New(events.SourceMemory, events.KindMemoryRead, map[string]any{"address": addr, "value": v}))
	return v, true
}

func (b *Bus) WriteByte(addr vonsim.MachineAddress, v vonsim.Value) bool {
	if addr > vonsim.MaxAddress {
		b.sink(events.New(events.SourceMemory, events.KindError, map[string]any{"code": string(vonsim.ErrMemoryOutOfRange), "address": addr}))
		return false
	}
	b.mem[addr] = byte(v.Unsigned())
	b.sink(events.New(events.SourceMemory, events.KindMemoryWrite, map[string]any{"address": addr, "value": v}))
	return true
}

func (b *Bus) ReadWord(addr vonsim.MachineAddress) (vonsim.Value, bool) {
	low, ok := b.ReadByte(addr)
	if !ok {
		return vonsim.Value{}, false
	}
	high, ok := b.ReadByte(addr + 1)
	if !ok {
		return vonsim.Value{}, false
	}
	return low.ToWord().WithHigh(high), true
}

func (b *Bus) WriteWord(addr vonsim.MachineAddress, v vonsim.Value) bool {
	if !b.WriteByte(addr, v.Low()) {
		return false
	}
	return b.WriteByte(addr+1, v.High())
}

// deviceFor resolves a port to the device block that owns it, per the
// spec.md §4.6 port table.
func (b *Bus) deviceFor(port vonsim.Port) PortDevice {
	switch {
	case port >= vonsim.PortPICBase && port <= vonsim.PortPICEnd:
		return b.pic
	case port >= vonsim.PortTimerBase && port <= vonsim.PortTimerEnd:
		return b.timer
	case port >= vonsim.PortPIOBase && port <= vonsim.PortPIOEnd:
		return b.pio
	case port >= vonsim.PortHandshakeBase && port <= vonsim.PortHandshakeEnd:
		return b.handshake
	default:
		return nil
	}
}

func (b *Bus) ReadPort(port vonsim.Port) vonsim.Value {
	dev := b.deviceFor(port)
	if dev == nil {
		b.sink(events.New(events.SourceMemory, events.KindIOUnmappedRead, map[string]any{"port": port}))
		return vonsim.MustFromUnsigned(vonsim.Byte, 0)
	}
	return dev.ReadPort(port)
}

func (b *Bus) WritePort(port vonsim.Port, v vonsim.Value) {
	dev := b.deviceFor(port)
	if dev == nil {
		b.sink(events.New(events.SourceMemory, events.KindIOUnmappedWrite, map[string]any{"port": port}))
		return
	}
	dev.WritePort(port, v)
}
