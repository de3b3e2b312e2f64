// Command vonsim-objdump prints a DULF object file's header, symbol table,
// and a disassembly of its code section, directly grounded on a prior implementation's
// debug/objdump.go (stdin-or-os.Args[1], assembler.Read, pp.Println).
package main

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/k0kubun/pp/v3"

	"vonsim"
	"vonsim/internal/assemble"
	"vonsim/internal/cpu"
	"vonsim/internal/membus"
)

func main() {
	var r io.Reader = os.Stdin

	if len(os.Args) == 2 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			log.Fatal(err)
		}
		r = bytes.NewReader(data)
	}

	obj, err := assemble.Read(r)
	if err != nil {
		log.Fatal(err)
	}
	pp.Println(obj)

	code := make(map[vonsim.MachineAddress]byte)
	data := make(map[vonsim.MachineAddress]byte)
	for _, sec := range obj.Sections {
		dst := data
		if sec.Kind == assemble.SectionCode {
			dst = code
		}
		for i, b := range sec.Bytes {
			dst[sec.Address+vonsim.MachineAddress(i)] = b
		}
	}
	bus := membus.New(nil)
	bus.LoadImage(code, data)

	for _, sec := range obj.Sections {
		if sec.Kind != assemble.SectionCode {
			continue
		}
		start := sec.Address
		end := sec.Address + vonsim.MachineAddress(len(sec.Bytes))
		insns, err := cpu.Disassemble(bus, start, end)
		if err != nil {
			log.Printf("disassemble: %v", err)
		}
		for _, in := range insns {
			fmt.Printf("%04Xh: %s", in.Address, in.Mnemonic)
			for i, op := range in.Operands {
				if i == 0 {
					fmt.Print(" ")
				} else {
					fmt.Print(", ")
				}
				fmt.Print(op)
			}
			fmt.Println()
		}
	}
}
