package cpu

import (
	"vonsim"
	"vonsim/internal/errs"
	"vonsim/internal/events"
	"vonsim/internal/isa"
)

// StopReason names why Step/Run stopped advancing.
type StopReason string

const (
	StopNone       StopReason = ""
	StopHalt       StopReason = "halt"
	StopFatalError StopReason = "fatal-error"
)

// Step runs exactly one instruction's fetch/decode/execute/writeback cycle,
// plus the hardware-interrupt check that precedes it (spec.md §4.5:
// "between instructions, the CPU calls PIC.update()").
func (c *CPU) Step() StopReason {
	if c.halted {
		return StopHalt
	}

	if vector, ok, err := c.pic.Update(c.flags.Get(vonsim.IF)); err != nil {
		c.sink(events.New(events.SourceCPU, events.KindError, map[string]any{"code": string(vonsim.ErrReservedInterrupt), "message": err.Error()}))
		c.halted = true
		return StopFatalError
	} else if ok {
		if derr := c.dispatchInterrupt(vector); derr != nil {
			c.emitFatal(derr)
			return StopFatalError
		}
	}

	ip := c.GetWord(vonsim.IP)
	c.sink(events.New(events.SourceCPU, events.KindCycleStart, map[string]any{"ip": ip}))
	c.sink(events.New(events.SourceCPU, events.KindCycleUpdate, map[string]any{"phase": events.PhaseFetching}))

	d, next, err := c.decode(vonsim.MachineAddress(ip.Unsigned()))
	if err != nil {
		c.emitFatal(err)
		return StopFatalError
	}
	c.setWord(vonsim.IP, vonsim.MustFromUnsigned(vonsim.Word, uint32(next)))
	c.sink(events.New(events.SourceCPU, events.KindDecode, map[string]any{"mnemonic": d.Mnemonic}))
	c.sink(events.New(events.SourceCPU, events.KindCycleUpdate, map[string]any{"phase": events.PhaseFetchingOperands}))

	c.sink(events.New(events.SourceCPU, events.KindCycleUpdate, map[string]any{"phase": events.PhaseExecuting}))
	if err := c.execute(d); err != nil {
		c.emitFatal(err)
		return StopFatalError
	}
	c.sink(events.New(events.SourceCPU, events.KindCycleUpdate, map[string]any{"phase": events.PhaseWriteback}))

	if c.halted {
		c.sink(events.New(events.SourceCPU, events.KindHalt, nil))
		return StopHalt
	}
	return StopNone
}

func (c *CPU) emitFatal(err error) {
	c.sink(events.New(events.SourceCPU, events.KindError, map[string]any{"message": err.Error()}))
	c.halted = true
}

// Run steps the CPU until it halts or hits a fatal error, a plain
// synchronous loop; the façade wraps this in a goroutine to turn it into
// the paced event stream spec.md §4.10 describes.
func (c *CPU) Run() StopReason {
	for {
		if r := c.Step(); r != StopNone {
			return r
		}
	}
}

// Halted reports whether the CPU has stopped (HLT, INT 0 or a fatal error).
func (c *CPU) Halted() bool { return c.halted }

func (c *CPU) execute(d decoded) error {
	switch d.Class {
	case isa.Zeroary:
		return c.executeZeroary(d.Mnemonic)
	case isa.Stack:
		return c.executeStack(d)
	case isa.Unary:
		return c.executeUnary(d)
	case isa.Binary:
		return c.executeBinary(d)
	case isa.Jump:
		return c.executeJump(d)
	case isa.Int:
		return c.executeInt(d)
	case isa.IO:
		return c.executeIO(d)
	default:
		panic("cpu: unhandled class")
	}
}

func (c *CPU) executeZeroary(mnemonic string) error {
	switch mnemonic {
	case "HLT":
		c.halted = true
		return nil
	case "NOP":
		return nil
	case "IRET":
		// dispatchInterrupt pushes FLAGS then IP, so IP is on top of the
		// stack (popped first) and FLAGS sits underneath it.
		ipVal, err := c.pop()
		if err != nil {
			return err
		}
		c.setWord(vonsim.IP, ipVal)
		return c.popFlags()
	case "RET":
		v, err := c.pop()
		if err != nil {
			return err
		}
		c.setWord(vonsim.IP, v)
		return nil
	case "CLI":
		c.flags.Set(vonsim.IF, false)
		return nil
	case "STI":
		c.flags.Set(vonsim.IF, true)
		return nil
	case "PUSHF":
		return c.push(c.flags.Word())
	case "POPF":
		return c.popFlags()
	default:
		panic("cpu: unknown zeroary mnemonic " + mnemonic)
	}
}

func (c *CPU) executeStack(d decoded) error {
	reg := d.Operands[0].Register
	if d.Mnemonic == "PUSH" {
		return c.push(c.GetWord(reg))
	}
	v, err := c.pop()
	if err != nil {
		return err
	}
	c.setWord(reg, v)
	return nil
}

func (c *CPU) executeUnary(d decoded) error {
	op := d.Operands[0]
	size := operandSize(op)
	v := c.getOperand(op)
	result := c.executeUnaryALU(d.Mnemonic, size, v)
	c.setOperand(op, result)
	return nil
}

func (c *CPU) executeBinary(d decoded) error {
	dst, src := d.Operands[0], d.Operands[1]
	size := operandSize(dst)
	dstVal := c.getOperand(dst)
	srcVal := c.getOperand(src)
	if srcVal.Size() != size {
		if size == vonsim.Word {
			srcVal = srcVal.ToWord()
		} else {
			srcVal = srcVal.Low()
		}
	}
	result, writes := c.executeBinaryALU(d.Mnemonic, size, dstVal, srcVal)
	if writes {
		c.setOperand(dst, result)
	}
	return nil
}

func (c *CPU) executeJump(d decoded) error {
	target := d.Operands[0].Address
	switch d.Mnemonic {
	case "JMP":
		c.setWord(vonsim.IP, vonsim.MustFromUnsigned(vonsim.Word, uint32(target)))
	case "CALL":
		if err := c.push(c.GetWord(vonsim.IP)); err != nil {
			return err
		}
		c.setWord(vonsim.IP, vonsim.MustFromUnsigned(vonsim.Word, uint32(target)))
	case "JC":
		c.jumpIf(c.flags.Get(vonsim.CF), target)
	case "JNC":
		c.jumpIf(!c.flags.Get(vonsim.CF), target)
	case "JZ":
		c.jumpIf(c.flags.Get(vonsim.ZF), target)
	case "JNZ":
		c.jumpIf(!c.flags.Get(vonsim.ZF), target)
	case "JS":
		c.jumpIf(c.flags.Get(vonsim.SF), target)
	case "JNS":
		c.jumpIf(!c.flags.Get(vonsim.SF), target)
	case "JO":
		c.jumpIf(c.flags.Get(vonsim.OF), target)
	case "JNO":
		c.jumpIf(!c.flags.Get(vonsim.OF), target)
	default:
		panic("cpu: unknown jump mnemonic " + d.Mnemonic)
	}
	return nil
}

func (c *CPU) jumpIf(cond bool, target vonsim.MachineAddress) {
	if cond {
		c.setWord(vonsim.IP, vonsim.MustFromUnsigned(vonsim.Word, uint32(target)))
	}
}

// executeInt handles INT n, special-casing 0/3/6/7 per spec.md §4.5 and
// otherwise running the generic IVT dispatch sequence.
func (c *CPU) executeInt(d decoded) error {
	n := uint8(d.Operands[0].Value.Unsigned())
	switch n {
	case 0:
		c.halted = true
		return nil
	case 3:
		c.sink(events.New(events.SourceCPU, events.KindBreakpoint, nil))
		return nil
	case 6:
		return c.runAtomic(func() error {
			b := c.console.ReadByte()
			c.sink(events.New(events.SourceConsole, events.KindConsoleRead, map[string]any{"value": b}))
			addr := vonsim.MachineAddress(c.GetWord(vonsim.BX).Unsigned())
			if !c.bus.WriteByte(addr, vonsim.MustFromUnsigned(vonsim.Byte, uint32(b))) {
				return errs.MemoryOutOfRange(addr)
			}
			return nil
		})
	case 7:
		return c.runAtomic(func() error {
			count := c.GetByte(vonsim.AL).Unsigned()
			addr := vonsim.MachineAddress(c.GetWord(vonsim.BX).Unsigned())
			for i := uint32(0); i < count; i++ {
				v, ok := c.bus.ReadByte(addr + vonsim.MachineAddress(i))
				if !ok {
					return errs.MemoryOutOfRange(addr + vonsim.MachineAddress(i))
				}
				b := byte(v.Unsigned())
				c.console.WriteByte(b)
				c.sink(events.New(events.SourceConsole, events.KindConsoleWrite, map[string]any{"value": b}))
			}
			return nil
		})
	default:
		return c.dispatchInterrupt(n)
	}
}

// runAtomic wraps INT 6/7's body in the push-FLAGS/IF<-0/...pop-FLAGS
// envelope spec.md §4.5 calls "atomic" for those two routines.
func (c *CPU) runAtomic(body func() error) error {
	if err := c.pushFlagsClearingIF(); err != nil {
		return err
	}
	bodyErr := body()
	if err := c.popFlags(); err != nil {
		if bodyErr == nil {
			return err
		}
	}
	return bodyErr
}

func (c *CPU) executeIO(d decoded) error {
	acc, port := d.Operands[0], d.Operands[1]
	var portNum vonsim.Port
	if port.Kind == isa.NibbleImmediateByte {
		portNum = vonsim.Port(port.Value.Unsigned())
	} else {
		portNum = vonsim.Port(c.GetWord(vonsim.DX).Unsigned())
	}
	if d.Mnemonic == "IN" {
		if vonsim.IsByteRegister(acc.Register) {
			c.setByte(acc.Register, c.bus.ReadPort(portNum))
		} else {
			c.setWord(acc.Register, c.bus.ReadPort(portNum).ToWord())
		}
		return nil
	}
	c.bus.WritePort(portNum, c.getOperand(acc))
	return nil
}
