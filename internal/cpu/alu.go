package cpu

import "vonsim"

// aluResult is a computed value plus the flags it sets, before being
// written back to its destination operand.
type aluResult struct {
	value vonsim.Value
	cf    bool
	of    bool
}

// addWithCarry computes a+b+carryIn at size, reporting unsigned (CF) and
// signed (OF) overflow the way spec.md §4.5 requires for ADD/ADC/SUB/SBB.
func addWithCarry(size vonsim.Size, a, b vonsim.Value, carryIn bool) aluResult {
	c := uint32(0)
	if carryIn {
		c = 1
	}
	sum := a.Unsigned() + b.Unsigned() + c
	masked, _ := vonsim.FromUnsigned(size, sum&sizeMask(size))
	cf := sum > sizeMask(size)

	as, bs := a.Signed(), b.Signed()
	sum64 := int64(as) + int64(bs) + int64(c)
	of := sum64 != int64(masked.Signed())
	return aluResult{value: masked, cf: cf, of: of}
}

func sizeMask(size vonsim.Size) uint32 {
	return (uint32(1) << uint(size)) - 1
}

func negate(size vonsim.Size, v vonsim.Value) aluResult {
	zero := vonsim.MustFromUnsigned(size, 0)
	return subtract(size, zero, v, false)
}

// subtract computes a-b-borrowIn, expressed as a's addition of b's two's
// complement so the same overflow math as addWithCarry applies.
func subtract(size vonsim.Size, a, b vonsim.Value, borrowIn bool) aluResult {
	notB, _ := vonsim.FromUnsigned(size, (^b.Unsigned())&sizeMask(size))
	carryIn := !borrowIn
	r := addWithCarry(size, a, notB, carryIn)
	r.cf = !r.cf
	return r
}

func logicFlags(size vonsim.Size, bits uint32) aluResult {
	v, _ := vonsim.FromUnsigned(size, bits&sizeMask(size))
	return aluResult{value: v, cf: false, of: false}
}

// applyFlags sets SF/ZF from the result value and CF/OF from r, matching
// spec.md §4.5's per-class flag rules (logic ops zero CF/OF at the call
// site by construction).
func (c *CPU) applyFlags(r aluResult) {
	c.flags.Set(vonsim.CF, r.cf)
	c.flags.Set(vonsim.OF, r.of)
	c.flags.Set(vonsim.ZF, r.value.Unsigned() == 0)
	signBit := uint32(1) << (uint(r.value.Size()) - 1)
	c.flags.Set(vonsim.SF, r.value.Unsigned()&signBit != 0)
}

// applyFlagsPreserveCF is INC/DEC's variant: CF is left untouched (spec.md
// §4.5: "INC/DEC preserve CF").
func (c *CPU) applyFlagsPreserveCF(r aluResult) {
	c.flags.Set(vonsim.OF, r.of)
	c.flags.Set(vonsim.ZF, r.value.Unsigned() == 0)
	signBit := uint32(1) << (uint(r.value.Size()) - 1)
	c.flags.Set(vonsim.SF, r.value.Unsigned()&signBit != 0)
}

func (c *CPU) executeBinaryALU(mnemonic string, size vonsim.Size, dst, src vonsim.Value) (vonsim.Value, bool) {
	switch mnemonic {
	case "ADD":
		r := addWithCarry(size, dst, src, false)
		c.applyFlags(r)
		return r.value, true
	case "ADC":
		r := addWithCarry(size, dst, src, c.flags.Get(vonsim.CF))
		c.applyFlags(r)
		return r.value, true
	case "SUB":
		r := subtract(size, dst, src, false)
		c.applyFlags(r)
		return r.value, true
	case "SBB":
		r := subtract(size, dst, src, c.flags.Get(vonsim.CF))
		c.applyFlags(r)
		return r.value, true
	case "CMP":
		r := subtract(size, dst, src, false)
		c.applyFlags(r)
		return vonsim.Value{}, false
	case "AND":
		r := logicFlags(size, dst.Unsigned()&src.Unsigned())
		c.applyFlags(r)
		return r.value, true
	case "OR":
		r := logicFlags(size, dst.Unsigned()|src.Unsigned())
		c.applyFlags(r)
		return r.value, true
	case "XOR":
		r := logicFlags(size, dst.Unsigned()^src.Unsigned())
		c.applyFlags(r)
		return r.value, true
	case "MOV":
		return src, true
	default:
		panic("cpu: unknown binary mnemonic " + mnemonic)
	}
}

func (c *CPU) executeUnaryALU(mnemonic string, size vonsim.Size, v vonsim.Value) vonsim.Value {
	switch mnemonic {
	case "INC":
		one := vonsim.MustFromUnsigned(size, 1)
		r := addWithCarry(size, v, one, false)
		c.applyFlagsPreserveCF(r)
		return r.value
	case "DEC":
		one := vonsim.MustFromUnsigned(size, 1)
		r := subtract(size, v, one, false)
		c.applyFlagsPreserveCF(r)
		return r.value
	case "NEG":
		r := negate(size, v)
		c.applyFlags(r)
		return r.value
	case "NOT":
		r := logicFlags(size, ^v.Unsigned())
		c.applyFlags(r)
		return r.value
	default:
		panic("cpu: unknown unary mnemonic " + mnemonic)
	}
}
