package vonsim

// MachineAddress is an offset into the 16 KiB RAM. VonSim's address space
// only needs 14 bits, but uint32 gives headroom over the tight minimum; only
// the low 14 bits are ever populated.
type MachineAddress = uint32

const (
	// MemorySize is the size in bytes of VonSim's RAM: 16 KiB, addresses
	// 0000h-3FFFh.
	MemorySize = 0x4000

	// MaxAddress is the last valid RAM address.
	MaxAddress = MemorySize - 1

	// IVTEntrySize is the byte stride between consecutive interrupt vector
	// table entries; only the low word of each entry is used (the 8088 CS
	// segment is not modeled).
	IVTEntrySize = 4
)

// IVTEntryAddress returns the memory address of interrupt ID's vector word.
func IVTEntryAddress(id uint8) MachineAddress {
	return MachineAddress(id) * IVTEntrySize
}

// Port is an 8-bit I/O address.
type Port = uint8

// Port ranges, spec.md §4.6.
const (
	PortPICBase       Port = 0x10
	PortPICEnd        Port = 0x17
	PortTimerBase     Port = 0x20
	PortTimerEnd      Port = 0x23
	PortPIOBase       Port = 0x30
	PortPIOEnd        Port = 0x33
	PortHandshakeBase Port = 0x40
	PortHandshakeEnd  Port = 0x41
)
