package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lookbusy1344/loxvm/chunk"
	"github.com/lookbusy1344/loxvm/vm"
)

// Debugger wraps a VM and its loaded chunk with the bookkeeping a
// single-stepping session needs: breakpoints by bytecode offset,
// command history, and a watch-expression evaluator. Unlike its
// ARM-emulator ancestor there is no call stack to step over or out of,
// no registers, and no memory to watch; this VM only ever has an
// instruction pointer and an operand stack.
type Debugger struct {
	VM    *vm.VM
	Chunk *chunk.Chunk

	Breakpoints *BreakpointManager
	History     *CommandHistory
	Evaluator   *ExpressionEvaluator

	Running  bool
	// Stepping, when set, makes the next ShouldBreak stop with reason
	// "single step" and clears it. The "step" command does not set it;
	// it runs its one instruction through VM.Step directly.
	Stepping bool

	LastCommand string

	// ShowSource prints the originating source line alongside the
	// disassembly when set and Source lines are available.
	ShowSource bool
	sourceLines []string

	Output strings.Builder
}

// NewDebugger creates a debugger around machine with the default
// command history size, not yet loaded with any chunk.
func NewDebugger(machine *vm.VM) *Debugger {
	return NewDebuggerWithHistorySize(machine, DefaultHistorySize)
}

// NewDebuggerWithHistorySize creates a debugger whose command history
// holds at most historySize entries (a loxvm.toml's [debugger]
// history_size feeds this).
func NewDebuggerWithHistorySize(machine *vm.VM, historySize int) *Debugger {
	return &Debugger{
		VM:          machine,
		Breakpoints: NewBreakpointManager(),
		History:     NewCommandHistory(historySize),
		Evaluator:   NewExpressionEvaluator(),
	}
}

// Load points the debugger's VM at c and resets its run state.
func (d *Debugger) Load(c *chunk.Chunk) {
	d.Chunk = c
	d.VM.Load(c)
	d.Running = false
	d.Stepping = false
}

// SetSource records the program's source text, split into lines, so
// ShowSource can annotate step/breakpoint stops with the line that
// produced the current instruction.
func (d *Debugger) SetSource(source string) {
	d.sourceLines = strings.Split(source, "\n")
}

// sourceLineFor returns the trimmed source text for 1-based line n, or
// "" if no source was recorded or n is out of range.
func (d *Debugger) sourceLineFor(n int) string {
	if n < 1 || n > len(d.sourceLines) {
		return ""
	}
	return strings.TrimSpace(d.sourceLines[n-1])
}

// ExecuteCommand parses and runs one debugger command line. An empty
// line repeats the last non-empty command, gdb-style.
func (d *Debugger) ExecuteCommand(cmdLine string) error {
	cmdLine = strings.TrimSpace(cmdLine)
	if cmdLine == "" {
		cmdLine = d.LastCommand
	}
	if cmdLine != "" {
		d.History.Add(cmdLine)
		d.LastCommand = cmdLine
	}

	parts := strings.Fields(cmdLine)
	if len(parts) == 0 {
		return nil
	}

	return d.handleCommand(strings.ToLower(parts[0]), parts[1:])
}

func (d *Debugger) handleCommand(cmd string, args []string) error {
	switch cmd {
	case "continue", "c":
		return d.cmdContinue()
	case "step", "s":
		return d.cmdStep()
	case "break", "b":
		return d.cmdBreak(args)
	case "delete", "d":
		return d.cmdDelete(args)
	case "enable":
		return d.cmdEnable(args)
	case "disable":
		return d.cmdDisable(args)
	case "print", "p":
		return d.cmdPrint(args)
	case "stack":
		return d.cmdStack()
	case "list", "l":
		return d.cmdList()
	case "info", "i":
		return d.cmdInfo()
	case "reset":
		d.Load(d.Chunk)
		d.Println("Reset to the first instruction.")
		return nil
	case "help", "h", "?":
		return d.cmdHelp()
	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmd)
	}
}

func (d *Debugger) cmdBreak(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: break <offset>")
	}
	offset, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid offset: %s", args[0])
	}
	bp := d.Breakpoints.AddBreakpoint(offset, false)
	d.Printf("Breakpoint %d set at offset %d\n", bp.ID, bp.Offset)
	return nil
}

func (d *Debugger) cmdDelete(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: delete <id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint id: %s", args[0])
	}
	if err := d.Breakpoints.DeleteBreakpoint(id); err != nil {
		return err
	}
	d.Printf("Breakpoint %d deleted\n", id)
	return nil
}

func (d *Debugger) cmdEnable(args []string) error {
	id, err := strconv.Atoi(argOrEmpty(args))
	if err != nil {
		return fmt.Errorf("usage: enable <id>")
	}
	return d.Breakpoints.EnableBreakpoint(id)
}

func (d *Debugger) cmdDisable(args []string) error {
	id, err := strconv.Atoi(argOrEmpty(args))
	if err != nil {
		return fmt.Errorf("usage: disable <id>")
	}
	return d.Breakpoints.DisableBreakpoint(id)
}

func argOrEmpty(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// ShouldBreak reports whether execution should pause before the
// instruction at the VM's current offset runs.
func (d *Debugger) ShouldBreak() (bool, string) {
	if d.Stepping {
		d.Stepping = false
		return true, "single step"
	}

	offset := d.VM.IP()
	if bp := d.Breakpoints.GetBreakpoint(offset); bp != nil && bp.Enabled {
		hit := d.Breakpoints.ProcessHit(offset)
		return true, fmt.Sprintf("breakpoint %d", hit.ID)
	}

	return false, ""
}

// cmdContinue runs the VM until it halts, hits an enabled breakpoint,
// or raises a runtime error.
func (d *Debugger) cmdContinue() error {
	if d.Chunk == nil {
		return fmt.Errorf("no chunk loaded")
	}
	d.Running = true
	for d.Running {
		if stop, reason := d.ShouldBreak(); stop {
			d.Running = false
			d.Printf("Stopped: %s at offset %d\n", reason, d.VM.IP())
			d.printSourceContext(d.VM.IP())
			return nil
		}

		result, done, err := d.VM.Step()
		if done {
			d.Running = false
			if result == vm.ResultRuntimeError {
				d.Printf("Runtime error: %v\n", err)
			} else {
				d.Println("Program finished.")
			}
			return nil
		}
	}
	return nil
}

// cmdStep executes exactly one instruction.
func (d *Debugger) cmdStep() error {
	if d.Chunk == nil {
		return fmt.Errorf("no chunk loaded")
	}
	executedAt := d.VM.IP()
	result, done, err := d.VM.Step()
	if done {
		if result == vm.ResultRuntimeError {
			d.Printf("Runtime error: %v\n", err)
		} else {
			d.Println("Program finished.")
		}
		return nil
	}
	d.printSourceContext(executedAt)
	line, _ := d.Chunk.DisassembleInstruction(d.VM.IP())
	d.Println(line)
	return nil
}

// printSourceContext prints the source line that produced the
// instruction at offset, when ShowSource is enabled and source text
// was recorded via SetSource.
func (d *Debugger) printSourceContext(offset int) {
	if !d.ShowSource || len(d.sourceLines) == 0 || offset >= len(d.Chunk.Lines) {
		return
	}
	if text := d.sourceLineFor(d.Chunk.Lines[offset]); text != "" {
		d.Printf("%d: %s\n", d.Chunk.Lines[offset], text)
	}
}

// cmdPrint evaluates a watch expression against the VM's current
// stack and prints its value.
func (d *Debugger) cmdPrint(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: print <expression>")
	}
	expr := strings.Join(args, " ")
	result, err := d.Evaluator.EvaluateExpression(expr, d.VM)
	if err != nil {
		return err
	}
	d.Printf("$%d = %s\n", len(d.Evaluator.history), FormatNumber(result))
	return nil
}

// cmdStack prints the operand stack, bottom first.
func (d *Debugger) cmdStack() error {
	if d.VM.StackDepth() == 0 {
		d.Println("(empty)")
		return nil
	}
	for i := 0; i < d.VM.StackDepth(); i++ {
		d.Printf("$%d = %s\n", i, d.VM.StackSlot(i))
	}
	return nil
}

// cmdList disassembles the whole loaded chunk.
func (d *Debugger) cmdList() error {
	if d.Chunk == nil {
		return fmt.Errorf("no chunk loaded")
	}
	d.Output.WriteString(d.Chunk.Disassemble("program"))
	return nil
}

func (d *Debugger) cmdInfo() error {
	d.Printf("offset=%d stack depth=%d breakpoints=%d\n",
		d.VM.IP(), d.VM.StackDepth(), d.Breakpoints.Count())
	return nil
}

func (d *Debugger) cmdHelp() error {
	d.Println("Commands: continue(c) step(s) break(b) delete(d) enable disable print(p) stack list(l) info(i) reset help")
	return nil
}

// GetOutput returns and clears the accumulated command output.
func (d *Debugger) GetOutput() string {
	output := d.Output.String()
	d.Output.Reset()
	return output
}

// Printf writes formatted output to the output buffer.
func (d *Debugger) Printf(format string, args ...interface{}) {
	fmt.Fprintf(&d.Output, format, args...)
}

// Println writes a line to the output buffer.
func (d *Debugger) Println(args ...interface{}) {
	fmt.Fprintln(&d.Output, args...)
}
