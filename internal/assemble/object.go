package assemble

import (
	"sort"

	"vonsim"
	"vonsim/internal/labels"
)

// Object file format: a DULF-style container (magic "DULF") for an
// assembled program, an ELF-alike layout generalized to VonSim's
// byte-addressed code/data split. Emit leaves Relocations empty and
// internal/link never reads them: its relocating mode moves sections and
// symbols without patching address fields inside the code.
const objectMagic = "DULF"

type SectionKind uint8

const (
	SectionCode SectionKind = iota
	SectionData
)

type Section struct {
	Kind    SectionKind
	Address vonsim.MachineAddress
	Bytes   []byte
}

type SymbolBinding uint8

const (
	BindLocal SymbolBinding = iota
	BindGlobal
)

type Symbol struct {
	Name    string
	Kind    labels.Kind
	Address vonsim.MachineAddress
	Binding SymbolBinding
}

// RelocationType distinguishes an absolute address patch from a PC-relative
// one; VonSim only ever emits absolute references (direct addressing, jump
// targets), but the type survives for symmetry with a linker that might
// one day support relative calls.
type RelocationType uint8

const (
	RelocAbsolute RelocationType = iota
	RelocRelative
)

// Relocation marks one little-endian address field in a section that must
// be patched once the referenced symbol's final address is known — i.e.
// once this object is placed by a linker alongside others.
type Relocation struct {
	Section SectionKind
	Offset  vonsim.MachineAddress // offset within the section's Bytes
	Symbol  string
	Type    RelocationType
}

type ObjectFile struct {
	Magic       string
	EntryPoint  vonsim.MachineAddress
	Sections    []Section
	Symbols     []Symbol
	Relocations []Relocation
}

// Emit packs a resolved Program into an ObjectFile: one contiguous Code
// section spanning its occupied addresses, one contiguous Data section
// likewise, plus the symbol table. Gaps inside a section's span (alignment
// padding between statements, if any) read as zero.
func Emit(prog *Program) *ObjectFile {
	obj := &ObjectFile{Magic: objectMagic, EntryPoint: prog.EntryPoint}

	if section, ok := packSection(SectionCode, prog.Code); ok {
		obj.Sections = append(obj.Sections, section)
	}
	if section, ok := packSection(SectionData, prog.Data); ok {
		obj.Sections = append(obj.Sections, section)
	}

	names := make([]string, 0, len(prog.Labels))
	for name := range prog.Labels {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		info := prog.Labels[name]
		obj.Symbols = append(obj.Symbols, Symbol{Name: name, Kind: info.Kind, Address: info.Address, Binding: BindGlobal})
	}

	return obj
}

func packSection(kind SectionKind, image map[vonsim.MachineAddress]byte) (Section, bool) {
	if len(image) == 0 {
		return Section{}, false
	}
	var lo, hi vonsim.MachineAddress
	first := true
	for addr := range image {
		if first || addr < lo {
			lo = addr
		}
		if first || addr > hi {
			hi = addr
		}
		first = false
	}
	bytes := make([]byte, hi-lo+1)
	for addr, b := range image {
		bytes[addr-lo] = b
	}
	return Section{Kind: kind, Address: lo, Bytes: bytes}, true
}
