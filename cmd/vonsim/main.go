// Command vonsim runs a VonSim program to completion, printing its console
// output to stdout and feeding stdin to INT 6 one keystroke at a time via a
// raw terminal, the way a prior implementation's VirtualMachine/main.go reads its
// command-line arguments before handing off to the simulated machine.
package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/term"

	"vonsim/internal/assemble"
	"vonsim/internal/diag"
	"vonsim/internal/events"
	"vonsim/internal/trace"
	"vonsim/simulator"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: vonsim [-trace] file.asm|file.dulf")
	}

	var tracing bool
	var path string
	for _, arg := range os.Args[1:] {
		if arg == "-trace" || arg == "--trace" {
			tracing = true
			continue
		}
		path = arg
	}
	if path == "" {
		log.Fatal("vonsim: no input file")
	}

	prog := loadProgram(path)

	sim := simulator.New()
	sim.LoadProgram(simulator.LoadOptions{
		Program:  prog,
		DataInit: simulator.DataInitClean,
		Devices:  []simulator.DeviceKind{simulator.DevicePIOSwitchesLEDs, simulator.DeviceHandshakePrinter},
	})

	stdin, restore := rawStdin()
	if restore != nil {
		defer restore()
	}
	go feedKeyboard(sim, stdin)

	ch := sim.StartCPU()
	for e := range ch {
		if tracing {
			trace.Event(trace.Stderr, e)
		}
		if e.Source == events.SourceConsole && e.Kind == events.KindConsoleWrite {
			if v, ok := e.Payload["value"].(byte); ok {
				fmt.Print(string(rune(v)))
			}
		}
	}

	state := sim.GetComputerState()
	if !state.Halted {
		fmt.Fprintln(os.Stderr, "vonsim: program did not halt")
		os.Exit(1)
	}
}

// loadProgram compiles a .asm source file or reads an already-assembled
// .dulf object, dispatching on extension the way vonsimc names its output.
func loadProgram(path string) *assemble.Program {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("vonsim: %v", err)
	}

	if strings.HasSuffix(path, ".dulf") {
		obj, err := assemble.Read(bytes.NewReader(data))
		if err != nil {
			log.Fatalf("vonsim: %v", err)
		}
		return objectToProgram(obj)
	}

	prog, errs := assemble.Compile(string(data))
	if errs.HasErrors() {
		diag.NewStderr().Report(errs)
		os.Exit(1)
	}
	return prog
}

func objectToProgram(obj *assemble.ObjectFile) *assemble.Program {
	prog := &assemble.Program{EntryPoint: obj.EntryPoint}
	prog.Code = make(map[uint32]byte)
	prog.Data = make(map[uint32]byte)
	for _, sec := range obj.Sections {
		dst := prog.Data
		if sec.Kind == assemble.SectionCode {
			dst = prog.Code
		}
		for i, b := range sec.Bytes {
			dst[sec.Address+uint32(i)] = b
		}
	}
	return prog
}

// rawStdin puts the terminal into raw mode so keystrokes reach feedKeyboard
// one byte at a time instead of buffered per-line; if stdin isn't a real
// terminal (piped input, a test harness) it falls back to os.Stdin as-is.
func rawStdin() (*os.File, func()) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return os.Stdin, nil
	}
	old, err := term.MakeRaw(fd)
	if err != nil {
		return os.Stdin, nil
	}
	return os.Stdin, func() { term.Restore(fd, old) }
}

func feedKeyboard(sim *simulator.Simulator, in *os.File) {
	buf := make([]byte, 1)
	for {
		n, err := in.Read(buf)
		if err != nil || n == 0 {
			return
		}
		sim.FeedKeyboard(buf[0])
	}
}
