// Command vonsimc assembles VonSim source into a DULF object file, or links
// several object files into one placed Program, mirroring a prior implementation's
// split between debug/objdump.go's simple os.Args[1]-or-stdin convention
// and linker/linker.go's flag-by-string-switch argument loop.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"vonsim/internal/assemble"
	"vonsim/internal/diag"
	"vonsim/internal/link"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: vonsimc [-o out.dulf] [-l|--link [-a|--absolute addr]] file...")
	}

	var (
		linkMode    bool
		absolute    bool
		loadAddress uint64
		output      string
		inputs      []string
	)

	for i := 1; i < len(os.Args); i++ {
		arg := os.Args[i]
		switch arg {
		case "-o", "--output":
			i++
			if i >= len(os.Args) {
				log.Fatal("vonsimc: -o requires a path")
			}
			output = os.Args[i]
		case "-l", "--link":
			linkMode = true
		case "-a", "--absolute":
			i++
			if i >= len(os.Args) {
				log.Fatal("vonsimc: --absolute requires a load address")
			}
			n, err := strconv.ParseUint(strings.TrimSuffix(os.Args[i], "h"), 16, 32)
			if err != nil {
				log.Fatalf("vonsimc: bad load address %q: %v", os.Args[i], err)
			}
			absolute = true
			loadAddress = n
		default:
			inputs = append(inputs, arg)
		}
	}
	if len(inputs) == 0 {
		log.Fatal("vonsimc: no input files")
	}

	if linkMode {
		runLink(inputs, absolute, loadAddress, output)
		return
	}
	if len(inputs) != 1 {
		log.Fatal("vonsimc: multiple inputs require -l/--link")
	}
	runAssemble(inputs[0], output)
}

func runAssemble(path, output string) {
	src, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("vonsimc: %v", err)
	}

	prog, errs := assemble.Compile(string(src))
	if errs.HasErrors() {
		diag.NewStderr().Report(errs)
		os.Exit(1)
	}

	obj := assemble.Emit(prog)
	if output == "" {
		output = strings.TrimSuffix(path, filepathExt(path)) + ".dulf"
	}
	f, err := os.Create(output)
	if err != nil {
		log.Fatalf("vonsimc: %v", err)
	}
	defer f.Close()
	if err := obj.Write(f); err != nil {
		log.Fatalf("vonsimc: writing %s: %v", output, err)
	}
	fmt.Printf("wrote %s (entry %04Xh)\n", output, obj.EntryPoint)
}

func runLink(inputs []string, absolute bool, loadAddress uint64, output string) {
	objs := make([]*assemble.ObjectFile, 0, len(inputs))
	for _, path := range inputs {
		f, err := os.Open(path)
		if err != nil {
			log.Fatalf("vonsimc: %v", err)
		}
		obj, err := assemble.Read(f)
		f.Close()
		if err != nil {
			log.Fatalf("vonsimc: reading %s: %v", path, err)
		}
		objs = append(objs, obj)
	}

	mode := link.Relocator
	if absolute {
		mode = link.Absolute
	}
	prog, err := link.Link(objs, mode, uint32(loadAddress))
	if err != nil {
		log.Fatalf("vonsimc: %v", err)
	}

	linked := assemble.Emit(prog)
	if output == "" {
		output = "a.dulf"
	}
	f, err := os.Create(output)
	if err != nil {
		log.Fatalf("vonsimc: %v", err)
	}
	defer f.Close()
	if err := linked.Write(f); err != nil {
		log.Fatalf("vonsimc: writing %s: %v", output, err)
	}
	fmt.Printf("wrote %s (entry %04Xh)\n", output, linked.EntryPoint)
}

func filepathExt(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i:]
	}
	return ""
}
