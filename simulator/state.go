package simulator

import (
	"fmt"

	"vonsim"
)

// RegisterState is one word register's current value, exported at both its
// numeric and hex-string form the way a prior implementation's debug/objdump.go pairs
// a raw value with "%04Xh" in its disassembly listing.
type RegisterState struct {
	Word uint32 `json:"word"`
	Hex  string `json:"hex"`
}

// FlagState mirrors vonsim.Flags as plain booleans, JSON's native shape.
type FlagState struct {
	CF bool `json:"cf"`
	ZF bool `json:"zf"`
	SF bool `json:"sf"`
	OF bool `json:"of"`
	IF bool `json:"if"`
}

// DeviceState snapshots every peripheral the façade may have wired up;
// fields for devices LoadOptions didn't request stay at their zero value.
type DeviceState struct {
	Switches [8]bool `json:"switches"`
	LEDs     [8]bool `json:"leds"`
	Screen   string  `json:"screen"`
	Printed  []byte  `json:"printed"`
	LastKey  *byte   `json:"lastKey,omitempty"`
}

// State is the JSON snapshot getComputerState() returns (spec.md §6):
// registers, flags, the full memory image, and device state.
type State struct {
	Registers map[string]RegisterState `json:"registers"`
	Flags     FlagState                `json:"flags"`
	Halted    bool                     `json:"halted"`
	Memory    []byte                   `json:"memory"`
	Devices   DeviceState              `json:"devices"`
}

// GetComputerState snapshots the whole machine. It is side-effect free: no
// event is emitted and no device state is consumed, it is only peeked.
func (s *Simulator) GetComputerState() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	regs := make(map[string]RegisterState, len(vonsim.WordRegisters))
	for _, r := range vonsim.WordRegisters {
		v := s.cpu.GetWord(r).Unsigned()
		regs[r.String()] = RegisterState{Word: v, Hex: hex16(v)}
	}

	flags := FlagState{
		CF: s.cpu.Flag(vonsim.CF),
		ZF: s.cpu.Flag(vonsim.ZF),
		SF: s.cpu.Flag(vonsim.SF),
		OF: s.cpu.Flag(vonsim.OF),
		IF: s.cpu.Flag(vonsim.IF),
	}

	devState := DeviceState{}
	if s.switches != nil {
		devState.Switches = s.switches.State()
	}
	if s.leds != nil {
		devState.LEDs = s.leds.State()
	}
	if s.screen != nil {
		devState.Screen = s.screen.String()
	}
	if s.printer != nil {
		devState.Printed = append([]byte(nil), s.handshakeDev.Printed...)
	}
	if s.lastKey != nil {
		b := *s.lastKey
		devState.LastKey = &b
	}

	return State{
		Registers: regs,
		Flags:     flags,
		Halted:    s.cpu.Halted(),
		Memory:    s.bus.Dump(),
		Devices:   devState,
	}
}

func hex16(v uint32) string {
	return fmt.Sprintf("%04Xh", v)
}
