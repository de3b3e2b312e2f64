// Package trace pretty-prints internal values for verbose/debug output, the
// same role github.com/k0kubun/pp/v3 plays in a prior implementation's
// debug/objdump.go (pp.Println(obj)) and shared/assembler/assembler.go
// (pp.Fprintf(os.Stderr, "adding %v @ %v\n", ...)).
package trace

import (
	"io"
	"os"

	"github.com/k0kubun/pp/v3"

	"vonsim/internal/assemble"
	"vonsim/internal/events"
)

// Program pretty-prints a resolved Program's labels and entry point to w.
func Program(w io.Writer, prog *assemble.Program) {
	pp.Fprintln(w, prog)
}

// Event pretty-prints one SimulatorEvent, the shape a verbose `vonsim`
// run prints per event when -trace is set.
func Event(w io.Writer, e events.Event) {
	pp.Fprintf(w, "%s %s %v\n", e.Source, e.Kind, e.Payload)
}

// Stderr is the default destination verbose tracing writes to, mirroring
// a prior implementation's os.Stderr target for its own pp calls.
var Stderr io.Writer = os.Stderr
