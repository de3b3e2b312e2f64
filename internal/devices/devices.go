// Package devices implements VonSim's peripheral set (spec.md §4.9):
// switches and LEDs wired to the PIO, an append-only screen buffer fed by
// INT 7 console output and the printer, a printer fed through the
// handshake interface, and the clock/F10 pokes that drive the timer and a
// dedicated interrupt line.
package devices

import (
	"vonsim/internal/handshake"
	"vonsim/internal/pic"
	"vonsim/internal/pio"
	"vonsim/internal/timer"
)

// Switches reads and toggles the 8 input bits of PIO port A.
type Switches struct {
	pio   *pio.PIO
	state [8]bool
}

func NewSwitches(p *pio.PIO) *Switches {
	return &Switches{pio: p}
}

// Toggle flips switch i and pushes the new state into the PIO's input
// latch for port A.
func (s *Switches) Toggle(i int) {
	s.state[i] = !s.state[i]
	s.pio.SetInputBit("A", i, s.state[i])
}

func (s *Switches) State() [8]bool { return s.state }

// LEDs reads the 8 output bits of PIO port B.
type LEDs struct {
	pio *pio.PIO
}

func NewLEDs(p *pio.PIO) *LEDs {
	return &LEDs{pio: p}
}

func (l *LEDs) State() [8]bool {
	var out [8]bool
	for i := range out {
		out[i] = l.pio.OutputBit("B", i)
	}
	return out
}

// Screen is the append-only UTF-8 character buffer INT 7 and the printer's
// handshake write into.
type Screen struct {
	buf []byte
}

func NewScreen() *Screen {
	return &Screen{}
}

func (s *Screen) Write(b byte) {
	s.buf = append(s.buf, b)
}

func (s *Screen) Clear() {
	s.buf = s.buf[:0]
}

func (s *Screen) String() string {
	return string(s.buf)
}

// Printer wraps a *handshake.Handshake, exposing the façade's print/clear
// pokes.
type Printer struct {
	hs     *handshake.Handshake
	screen *Screen
}

func NewPrinter(hs *handshake.Handshake, screen *Screen) *Printer {
	return &Printer{hs: hs, screen: screen}
}

// Print is the external "printer done" poke: the latched byte is
// transferred to the screen and busy clears.
func (p *Printer) Print() {
	before := len(p.hs.Printed)
	p.hs.Done()
	if n := len(p.hs.Printed); n > before {
		p.screen.Write(p.hs.Printed[n-1])
	}
}

func (p *Printer) Clear() {
	p.hs.Printed = nil
}

// Clock drives the timer on each external clock.tick poke.
type Clock struct {
	timer *timer.Timer
}

func NewClock(t *timer.Timer) *Clock {
	return &Clock{timer: t}
}

func (c *Clock) Tick() {
	c.timer.Tick()
}

// F10 is the dedicated hardware button: each press raises its assigned PIC
// line directly, bypassing PIO/timer/handshake.
type F10 struct {
	pic  *pic.PIC
	line int
}

func NewF10(p *pic.PIC, line int) *F10 {
	return &F10{pic: p, line: line}
}

func (f *F10) Press() {
	f.pic.Request(f.line)
}
