// Package diag renders a compile(source) error list the way a CLI tool
// reports diagnostics: one line per error, "code: message (line:col)",
// colorized red when stderr is a terminal. It reuses the same
// colorable/isatty pair a prior implementation's pp-based tracing pulls in
// transitively (github.com/mattn/go-colorable, github.com/mattn/go-isatty).
package diag

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"vonsim"
)

const (
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

// Writer renders CompileErrors to an underlying io.Writer, colorizing only
// when that writer is a real terminal.
type Writer struct {
	out   io.Writer
	color bool
}

// NewStderr wraps os.Stderr the way a prior implementation's pp output does on
// Windows consoles: go-colorable so ANSI escapes render there too, and
// go-isatty to decide whether to emit them at all.
func NewStderr() *Writer {
	out := colorable.NewColorable(os.Stderr)
	color := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	return &Writer{out: out, color: color}
}

// New wraps an arbitrary writer with colorization forced on or off, for
// tests and non-stderr destinations (e.g. writing to a log file).
func New(out io.Writer, color bool) *Writer {
	return &Writer{out: out, color: color}
}

// Report writes one line per error in errs, in encounter order.
func (w *Writer) Report(errs vonsim.ErrorList) {
	for _, e := range errs.Errors {
		w.line(e)
	}
}

func (w *Writer) line(e vonsim.CompileError) {
	line := fmt.Sprintf("%s: %s (%s)\n", e.Code, e.Message, e.Position)
	if w.color {
		fmt.Fprint(w.out, ansiRed, line, ansiReset)
		return
	}
	fmt.Fprint(w.out, line)
}
