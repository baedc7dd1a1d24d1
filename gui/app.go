package main

import (
	"strings"

	"github.com/lookbusy1344/loxvm/vm"
)

// App holds the state a single GUI window drives: the options passed
// through to vm.Interpret on every Run. There is no separate frontend
// process to synchronize with; the window calls straight into this
// struct.
type App struct {
	opts vm.InterpretOptions
}

// NewApp creates an App with tracing and disassembly both off.
func NewApp() *App {
	return &App{}
}

// SetTraceExecution toggles the per-instruction trace that Run prints
// above the interpreted program's own output.
func (a *App) SetTraceExecution(enabled bool) {
	a.opts.TraceExecution = enabled
}

// SetDebugPrintCode toggles printing the compiled chunk's disassembly
// before Run executes it.
func (a *App) SetDebugPrintCode(enabled bool) {
	a.opts.DebugPrintCode = enabled
}

// Run compiles and interprets source, returning everything written to
// stdout and to stderr as two separate strings for display.
func (a *App) Run(source string) (stdout, stderr string) {
	var out, errOut strings.Builder
	vm.Interpret(source, &out, &errOut, a.opts)
	return out.String(), errOut.String()
}
