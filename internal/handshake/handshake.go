// Package handshake implements VonSim's strobe-based printer interface
// (spec.md §4.8): writing DATA while STATE.busy==0 latches the byte and
// raises busy; a periodic "printer done" poke clears busy and optionally
// raises a PIC line.
package handshake

import "vonsim"

const (
	portDATA = iota
	portSTATE
)

const busyBit = 0x01

// Requester is the subset of *pic.PIC a Handshake device needs.
type Requester interface {
	Request(line int)
}

type Handshake struct {
	data      uint8
	state     uint8
	pic       Requester
	line      int
	interrupt bool
	Printed   []byte // bytes the printer has accepted, in order
}

func New(pic Requester, line int) *Handshake {
	return &Handshake{pic: pic, line: line}
}

// SetInterruptEnabled controls whether a finished print raises the PIC
// line; VonSim programs toggle this per spec.md §4.8's "if enabled".
func (h *Handshake) SetInterruptEnabled(v bool) {
	h.interrupt = v
}

// Done is the external "printer finished" poke: clears busy and, if
// interrupts are enabled, raises the assigned PIC line.
func (h *Handshake) Done() {
	if h.state&busyBit == 0 {
		return
	}
	h.state &^= busyBit
	h.Printed = append(h.Printed, h.data)
	if h.interrupt {
		h.pic.Request(h.line)
	}
}

func (h *Handshake) ReadPort(port vonsim.Port) vonsim.Value {
	offset := port - vonsim.PortHandshakeBase
	var v uint8
	switch offset {
	case portDATA:
		v = h.data
	case portSTATE:
		v = h.state
	}
	return vonsim.MustFromUnsigned(vonsim.Byte, uint32(v))
}

func (h *Handshake) WritePort(port vonsim.Port, val vonsim.Value) {
	offset := port - vonsim.PortHandshakeBase
	b := uint8(val.Unsigned())
	switch offset {
	case portDATA:
		if h.state&busyBit != 0 {
			return
		}
		h.data = b
		h.state |= busyBit
	case portSTATE:
		h.state = b
	}
}
