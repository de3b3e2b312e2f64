// Package errs wraps the runtime faults the CPU core can raise (stack
// over/underflow, reserved interrupts, out-of-range memory access) with
// context as they propagate from internal/cpu up to the simulator façade,
// in the style db47h-hwsim uses github.com/pkg/errors throughout its wiring
// and chip packages (errors.New for a leaf fault, errors.Wrap to add a
// frame of context without discarding the original).
package errs

import (
	"github.com/pkg/errors"

	"vonsim"
)

// RuntimeFault pairs one of vonsim's runtime ErrorCodes with the wrapped
// error chain that produced it, so a façade consumer can both branch on
// Code and print the full causal chain.
type RuntimeFault struct {
	Code vonsim.ErrorCode
	err  error
}

func (f *RuntimeFault) Error() string {
	return string(f.Code) + ": " + f.err.Error()
}

func (f *RuntimeFault) Unwrap() error { return f.err }

// New builds a RuntimeFault from a leaf message.
func New(code vonsim.ErrorCode, message string) *RuntimeFault {
	return &RuntimeFault{Code: code, err: errors.New(message)}
}

// Wrap attaches code and an extra context line to an existing error,
// preserving it as the cause (errors.Cause/errors.Unwrap still reach it).
func Wrap(code vonsim.ErrorCode, err error, context string) *RuntimeFault {
	if err == nil {
		return nil
	}
	return &RuntimeFault{Code: code, err: errors.Wrap(err, context)}
}

// StackOverflow reports a push that would drive SP below zero.
func StackOverflow(sp uint32) *RuntimeFault {
	return New(vonsim.ErrStackOverflow, errors.Errorf("stack pointer %04Xh underflows on push", sp).Error())
}

// StackUnderflow reports a pop reading past the top of memory.
func StackUnderflow(sp uint32) *RuntimeFault {
	return New(vonsim.ErrStackUnderflow, errors.Errorf("stack pointer %04Xh overflows on pop", sp).Error())
}

// ReservedInterrupt reports a hardware line whose assigned vector collides
// with the CPU-reserved 0..7 range.
func ReservedInterrupt(vector uint8) *RuntimeFault {
	return New(vonsim.ErrReservedInterrupt, errors.Errorf("vector %d collides with a reserved CPU interrupt", vector).Error())
}

// MemoryOutOfRange reports an access outside [0, MaxAddress].
func MemoryOutOfRange(addr uint32) *RuntimeFault {
	return New(vonsim.ErrMemoryOutOfRange, errors.Errorf("address %04Xh is out of range", addr).Error())
}
