// Package cpu implements VonSim's fetch/decode/execute/writeback core
// (spec.md §4.5): the register file, ALU, instruction cycle, software and
// hardware interrupt dispatch, and the consumer-paced event stream that
// start_cpu() hands back to the simulator façade.
package cpu

import (
	"vonsim"
	"vonsim/internal/errs"
	"vonsim/internal/events"
	"vonsim/internal/isa"
	"vonsim/internal/membus"
)

// Requester is the subset of *pic.PIC the CPU calls between instructions.
type Requester interface {
	Update(ifFlag bool) (vector uint8, ok bool, reservedErr error)
}

// ConsoleIO satisfies INT 6/INT 7's console reads and writes. Read blocks
// the calling goroutine until a byte is supplied, implementing spec.md
// §4.10's "consumer-paced" await-input point without the CPU package
// itself needing to know about channels or the façade.
type ConsoleIO interface {
	ReadByte() byte
	WriteByte(b byte)
}

// CPU holds the register file and flags plus the bus/PIC it's wired to. It
// has no notion of goroutines itself; Run wraps it in the suspension model
// the façade needs.
type CPU struct {
	words [6]vonsim.Value // indexed by vonsim.AX..vonsim.IP
	flags vonsim.Flags

	bus     *membus.Bus
	pic     Requester
	console ConsoleIO
	sink    events.Sink

	halted bool
}

func New(bus *membus.Bus, pic Requester, console ConsoleIO, sink events.Sink) *CPU {
	if sink == nil {
		sink = events.Discard
	}
	c := &CPU{bus: bus, pic: pic, console: console, sink: sink}
	for i := range c.words {
		c.words[i] = vonsim.MustFromUnsigned(vonsim.Word, 0)
	}
	return c
}

// Reset clears flags and the halted latch and sets IP to entry, the state
// loadProgram puts a freshly assembled image's CPU into (spec.md §6).
func (c *CPU) Reset(entry vonsim.MachineAddress) {
	c.flags = vonsim.Flags{}
	c.halted = false
	for i := range c.words {
		c.words[i] = vonsim.MustFromUnsigned(vonsim.Word, 0)
	}
	c.words[wordIndex(vonsim.IP)] = vonsim.MustFromUnsigned(vonsim.Word, uint32(entry))
	c.words[wordIndex(vonsim.SP)] = vonsim.MustFromUnsigned(vonsim.Word, vonsim.MemorySize-2)
}

// Flag reads one FLAGS bit; exported for the façade's getComputerState
// snapshot and for tests.
func (c *CPU) Flag(f vonsim.Flag) bool { return c.flags.Get(f) }

func wordIndex(r vonsim.RegisterID) int {
	switch r {
	case vonsim.AX:
		return 0
	case vonsim.BX:
		return 1
	case vonsim.CX:
		return 2
	case vonsim.DX:
		return 3
	case vonsim.SP:
		return 4
	case vonsim.IP:
		return 5
	default:
		panic("cpu: not a word register")
	}
}

// GetWord reads a 16-bit register.
func (c *CPU) GetWord(r vonsim.RegisterID) vonsim.Value {
	return c.words[wordIndex(r)]
}

func (c *CPU) setWord(r vonsim.RegisterID, v vonsim.Value) {
	c.words[wordIndex(r)] = v
	c.sink(events.New(events.SourceCPU, events.KindRegisterWrite, map[string]any{"register": r.String(), "value": v}))
}

// GetByte reads a byte register, unpacking it from its parent word.
func (c *CPU) GetByte(r vonsim.RegisterID) vonsim.Value {
	parent, ok := r.Parent()
	if !ok {
		panic("cpu: not a byte register")
	}
	w := c.words[wordIndex(parent)]
	if isHighHalf(r) {
		return w.High()
	}
	return w.Low()
}

func (c *CPU) setByte(r vonsim.RegisterID, v vonsim.Value) {
	parent, ok := r.Parent()
	if !ok {
		panic("cpu: not a byte register")
	}
	idx := wordIndex(parent)
	if isHighHalf(r) {
		c.words[idx] = c.words[idx].WithHigh(v)
	} else {
		c.words[idx] = c.words[idx].WithLow(v)
	}
	c.sink(events.New(events.SourceCPU, events.KindRegisterWrite, map[string]any{"register": r.String(), "value": v}))
}

func isHighHalf(r vonsim.RegisterID) bool {
	switch r {
	case vonsim.AH, vonsim.BH, vonsim.CH, vonsim.DH:
		return true
	default:
		return false
	}
}

// getOperand reads a decoded operand's current value, at its natural size.
func (c *CPU) getOperand(op decodedOperand) vonsim.Value {
	switch op.Kind {
	case isa.NibbleRegister:
		if vonsim.IsByteRegister(op.Register) {
			return c.GetByte(op.Register)
		}
		return c.GetWord(op.Register)
	case isa.NibbleIndirectByte:
		addr := vonsim.MachineAddress(c.GetWord(vonsim.BX).Unsigned())
		v, _ := c.bus.ReadByte(addr)
		return v
	case isa.NibbleIndirectWord:
		addr := vonsim.MachineAddress(c.GetWord(vonsim.BX).Unsigned())
		v, _ := c.bus.ReadWord(addr)
		return v
	case isa.NibbleDirect:
		if operandSize(op) == vonsim.Byte {
			v, _ := c.bus.ReadByte(op.Address)
			return v
		}
		v, _ := c.bus.ReadWord(op.Address)
		return v
	case isa.NibbleImmediateByte, isa.NibbleImmediateWord:
		return op.Value
	default:
		panic("cpu: bad operand kind")
	}
}

// setOperand writes v back to a decoded destination operand.
func (c *CPU) setOperand(op decodedOperand, v vonsim.Value) {
	switch op.Kind {
	case isa.NibbleRegister:
		if vonsim.IsByteRegister(op.Register) {
			c.setByte(op.Register, v)
		} else {
			c.setWord(op.Register, v)
		}
	case isa.NibbleIndirectByte:
		addr := vonsim.MachineAddress(c.GetWord(vonsim.BX).Unsigned())
		c.bus.WriteByte(addr, v)
	case isa.NibbleIndirectWord:
		addr := vonsim.MachineAddress(c.GetWord(vonsim.BX).Unsigned())
		c.bus.WriteWord(addr, v)
	case isa.NibbleDirect:
		if v.Size() == vonsim.Byte {
			c.bus.WriteByte(op.Address, v)
		} else {
			c.bus.WriteWord(op.Address, v)
		}
	default:
		panic("cpu: operand is not writable")
	}
}

// push writes v below the current SP, decrementing SP by 2 first (spec.md
// §4.5: "stack grows down").
func (c *CPU) push(v vonsim.Value) error {
	sp := c.GetWord(vonsim.SP).Unsigned()
	if sp < 2 {
		return errs.StackOverflow(sp)
	}
	sp -= 2
	c.setWord(vonsim.SP, vonsim.MustFromUnsigned(vonsim.Word, sp))
	if !c.bus.WriteWord(vonsim.MachineAddress(sp), v) {
		return errs.MemoryOutOfRange(sp)
	}
	return nil
}

// pop reads the word at SP and advances SP by 2.
func (c *CPU) pop() (vonsim.Value, error) {
	sp := c.GetWord(vonsim.SP).Unsigned()
	if sp > vonsim.MaxAddress-1 {
		return vonsim.Value{}, errs.StackUnderflow(sp)
	}
	v, ok := c.bus.ReadWord(vonsim.MachineAddress(sp))
	if !ok {
		return vonsim.Value{}, errs.MemoryOutOfRange(sp)
	}
	c.setWord(vonsim.SP, vonsim.MustFromUnsigned(vonsim.Word, sp+2))
	return v, nil
}

// pushFlagsClearingIF and popFlags implement the "atomic" interrupt entry
// and IRET exit sequences of spec.md §4.5.
func (c *CPU) pushFlagsClearingIF() error {
	if err := c.push(c.flags.Word()); err != nil {
		return err
	}
	c.flags.Set(vonsim.IF, false)
	return nil
}

func (c *CPU) popFlags() error {
	v, err := c.pop()
	if err != nil {
		return err
	}
	c.flags = vonsim.FlagsFromWord(v)
	return nil
}

// dispatchInterrupt runs the generic "push FLAGS, IF<-0, push IP, IP<-IVT[n]"
// sequence shared by every non-special INT and by hardware dispatch.
func (c *CPU) dispatchInterrupt(id uint8) error {
	if err := c.pushFlagsClearingIF(); err != nil {
		return err
	}
	if err := c.push(c.GetWord(vonsim.IP)); err != nil {
		return err
	}
	target, ok := c.bus.ReadWord(vonsim.IVTEntryAddress(id))
	if !ok {
		return errs.MemoryOutOfRange(vonsim.IVTEntryAddress(id))
	}
	c.setWord(vonsim.IP, target)
	return nil
}
