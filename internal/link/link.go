// Package link combines multiple assembled object files into one placed
// Program, grounded on a prior implementation's linker package (linker/linker.go):
// a relocating mode that rebases each object directly after the previous
// one, and an absolute mode that shifts every object by one common load
// address, erroring if any two objects' occupied ranges collide.
package link

import (
	"fmt"

	"github.com/rdleal/intervalst/interval"

	"vonsim"
	"vonsim/internal/assemble"
)

// Mode selects how multiple ObjectFiles are combined.
type Mode uint8

const (
	// Relocator places each object directly after the previous one,
	// rebasing its sections and symbols by the cumulative size already
	// placed. loadAddress is Link's base for the very first object.
	Relocator Mode = iota
	// Absolute shifts every object by the same loadAddress, trusting the
	// relative layout each object already carries from its own ORG.
	Absolute
)

type rangeLabel struct {
	object int
	kind   assemble.SectionKind
}

// Link combines objs into one Program, placed per mode. The first object's
// (possibly shifted) entry point becomes the result's entry point.
func Link(objs []*assemble.ObjectFile, mode Mode, loadAddress vonsim.MachineAddress) (*assemble.Program, error) {
	if len(objs) == 0 {
		return nil, fmt.Errorf("link: no input objects")
	}

	prog := &assemble.Program{
		Labels: make(map[string]assemble.LabelInfo),
		Code:   make(map[vonsim.MachineAddress]byte),
		Data:   make(map[vonsim.MachineAddress]byte),
	}

	overlaps := interval.NewSearchTree[rangeLabel, int](func(a, b int) int { return a - b })
	offset := loadAddress

	for i, obj := range objs {
		for _, sec := range obj.Sections {
			addr := sec.Address + offset
			lo, hi := int(addr), int(addr)+len(sec.Bytes)-1
			if _, found := overlaps.AnyIntersection(lo, hi); found {
				return nil, fmt.Errorf("link: object %d's %v section at %04Xh overlaps a previously placed object", i, sec.Kind, addr)
			}
			_ = overlaps.Insert(lo, hi, rangeLabel{object: i, kind: sec.Kind})

			dest := prog.Code
			if sec.Kind == assemble.SectionData {
				dest = prog.Data
			}
			for j, b := range sec.Bytes {
				dest[addr+vonsim.MachineAddress(j)] = b
			}
		}

		for _, sym := range obj.Symbols {
			prog.Labels[sym.Name] = assemble.LabelInfo{Kind: sym.Kind, Address: sym.Address + offset}
		}

		if i == 0 {
			prog.EntryPoint = obj.EntryPoint + offset
		}

		if mode == Relocator {
			offset += objectSpan(obj)
		}
	}

	return prog, nil
}

// objectSpan is the number of addresses obj's sections occupy, used by
// Relocator mode to place the next object directly after this one.
func objectSpan(obj *assemble.ObjectFile) vonsim.MachineAddress {
	var lo, hi vonsim.MachineAddress
	for i, sec := range obj.Sections {
		end := sec.Address + vonsim.MachineAddress(len(sec.Bytes))
		if i == 0 || sec.Address < lo {
			lo = sec.Address
		}
		if end > hi {
			hi = end
		}
	}
	return hi - lo
}
