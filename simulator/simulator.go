// Package simulator implements VonSim's external façade (spec.md §6): the
// one stateful object a consumer talks to — loadProgram, startCPU's event
// stream, getComputerState's JSON snapshot, and the imperative device
// pokes (switches, F10, keyboard, printer, clock). It wires together
// internal/cpu, internal/membus, internal/pic, internal/timer, internal/pio,
// internal/handshake and internal/devices exactly the way spec.md §4
// describes their relationships, and owns the one goroutine the CPU core
// runs in, grounded on a prior implementation's coproc_worker_x86.go
// goroutine-plus-done-channel pattern (runtime_ipc.go's MachineBus plays
// the same "one façade, many attached components" role internal/membus.Bus
// plays here).
package simulator

import (
	"math/rand"
	"sync"

	"vonsim"
	"vonsim/internal/assemble"
	"vonsim/internal/cpu"
	"vonsim/internal/devices"
	"vonsim/internal/events"
	"vonsim/internal/handshake"
	"vonsim/internal/membus"
	"vonsim/internal/pic"
	"vonsim/internal/pio"
	"vonsim/internal/timer"
)

// Hardware interrupt line assignment. VonSim's published device set only
// ever has these three interrupt sources; spec.md leaves the exact line
// numbers as an implementation detail (an Open Question resolved here and
// recorded in the grounding ledger).
const (
	lineF10       = 0
	lineTimer     = 1
	lineHandshake = 2
)

// DataInit selects how loadProgram seeds RAM before the new image is
// copied in (spec.md §6: "data_init∈{clean,random,unchanged}").
type DataInit string

const (
	DataInitClean     DataInit = "clean"
	DataInitRandom    DataInit = "random"
	DataInitUnchanged DataInit = "unchanged"
)

// DeviceKind names one of the optional peripherals loadProgram can attach
// (spec.md §6: "devices∈{pio-switches-leds, pio-printer, handshake-printer,
// …}"). F10 and the clock/timer are always wired, since every program
// shares the one PIC regardless of which peripherals it exercises.
type DeviceKind string

const (
	DevicePIOSwitchesLEDs  DeviceKind = "pio-switches-leds"
	DeviceHandshakePrinter DeviceKind = "handshake-printer"
)

// LoadOptions configures one loadProgram call.
type LoadOptions struct {
	Program  *assemble.Program
	DataInit DataInit
	Devices  []DeviceKind
}

// Simulator is VonSim's one stateful façade object (spec.md §9: "one
// Simulator value passed by reference"). Loading a new program replaces
// every component below wholesale rather than mutating them in place,
// matching spec.md §5's "loading a new program atomically replaces the
// simulator instance".
type Simulator struct {
	mu sync.Mutex

	bus     *membus.Bus
	pic     *pic.PIC
	timer   *timer.Timer
	pio     *pio.PIO
	hs      *handshake.Handshake
	cpu     *cpu.CPU
	console *console

	switches     *devices.Switches
	leds         *devices.LEDs
	screen       *devices.Screen
	printer      *devices.Printer
	handshakeDev *handshake.Handshake
	clock        *devices.Clock
	f10          *devices.F10
	lastKey      *byte

	running bool
	cancel  chan struct{}
	eventCh chan events.Event
}

// dispatch is the events.Sink every wired component shares, passed as a
// method value so it survives LoadProgram rebuilding every component while
// StartCPU's channel (created later) is only known once the consumer calls
// it. Before StartCPU, or after the stream is torn down, it discards.
func (s *Simulator) dispatch(e events.Event) {
	s.mu.Lock()
	ch, cancel := s.eventCh, s.cancel
	s.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- e:
	case <-cancel:
	}
}

// New builds an idle Simulator with nothing loaded; call LoadProgram before
// StartCPU.
func New() *Simulator {
	return &Simulator{}
}

// LoadProgram wires a fresh set of components around opts.Program and
// resets every register, exactly the precondition spec.md §6's loadProgram
// establishes. Any previous run's components are discarded, not reused.
func (s *Simulator) LoadProgram(opts LoadOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var prevMem []byte
	if s.bus != nil && opts.DataInit == DataInitUnchanged {
		prevMem = s.bus.Dump()
	}
	if s.console != nil {
		s.console.close()
	}

	sink := s.dispatch
	bus := membus.New(sink)
	switch opts.DataInit {
	case DataInitRandom:
		buf := make([]byte, vonsim.MemorySize)
		for i := range buf {
			buf[i] = byte(rand.Intn(256))
		}
		bus.Fill(buf)
	case DataInitUnchanged:
		if prevMem != nil {
			bus.Fill(prevMem)
		}
	case DataInitClean, "":
		// membus.New already starts zeroed.
	}
	bus.LoadImage(opts.Program.Code, opts.Program.Data)

	picChip := pic.New(sink)
	timerChip := timer.New(picChip, lineTimer)
	pioChip := pio.New()
	hs := handshake.New(picChip, lineHandshake)
	bus.AttachPIC(picChip)
	bus.AttachTimer(timerChip)
	bus.AttachPIO(pioChip)
	bus.AttachHandshake(hs)

	screen := devices.NewScreen()
	con := newConsole(screen)

	core := cpu.New(bus, picChip, con, sink)
	core.Reset(opts.Program.EntryPoint)

	s.bus = bus
	s.pic = picChip
	s.timer = timerChip
	s.pio = pioChip
	s.hs = hs
	s.cpu = core
	s.console = con
	s.screen = screen
	s.handshakeDev = hs
	s.clock = devices.NewClock(timerChip)
	s.f10 = devices.NewF10(picChip, lineF10)
	s.switches = nil
	s.leds = nil
	s.printer = nil
	s.lastKey = nil
	s.running = false
	s.cancel = nil
	s.eventCh = nil

	for _, d := range opts.Devices {
		switch d {
		case DevicePIOSwitchesLEDs:
			s.switches = devices.NewSwitches(pioChip)
			s.leds = devices.NewLEDs(pioChip)
		case DeviceHandshakePrinter:
			s.printer = devices.NewPrinter(hs, screen)
		}
	}
}

// ClockTick is the clock.tick() poke.
func (s *Simulator) ClockTick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clock != nil {
		s.clock.Tick()
	}
}

// F10Press is the f10.press() poke.
func (s *Simulator) F10Press() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f10 != nil {
		s.f10.Press()
	}
}

// FeedKeyboard is the keyboard.feed(byte) poke. It blocks until the CPU's
// INT 6 handler consumes the byte (spec.md §5's await-input point), so
// callers normally invoke this from their own goroutine.
func (s *Simulator) FeedKeyboard(b byte) {
	s.mu.Lock()
	s.lastKey = &b
	con := s.console
	s.mu.Unlock()
	con.feed(b)
}

// ToggleSwitch is the switches.toggle(i) poke.
func (s *Simulator) ToggleSwitch(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.switches != nil {
		s.switches.Toggle(i)
	}
}

// PrinterPrint is the printer.print() poke.
func (s *Simulator) PrinterPrint() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.printer != nil {
		s.printer.Print()
	}
}

// PrinterClear is the printer.clear() poke.
func (s *Simulator) PrinterClear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.printer != nil {
		s.printer.Clear()
	}
}

// ScreenClear is the screen.clear() poke.
func (s *Simulator) ScreenClear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.screen != nil {
		s.screen.Clear()
	}
}
