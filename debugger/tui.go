package debugger

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// TUI is the text user interface for single-stepping a loaded chunk.
// It carries over its ARM-debugger ancestor's panel-and-command-input
// layout, but the panels are retargeted to what a stack VM actually
// has: disassembly, an operand stack, and a constant pool, instead of
// registers and a flat memory image.
type TUI struct {
	Debugger *Debugger
	App      *tview.Application
	Pages    *tview.Pages

	MainLayout *tview.Flex
	LeftPanel  *tview.Flex
	RightPanel *tview.Flex

	DisassemblyView *tview.TextView
	StackView       *tview.TextView
	ConstantsView   *tview.TextView
	BreakpointsView *tview.TextView
	OutputView      *tview.TextView
	CommandInput    *tview.InputField
}

// NewTUI builds a TUI around dbg, wiring up its layout and key
// bindings but not yet running the event loop.
func NewTUI(dbg *Debugger) *TUI {
	t := &TUI{
		Debugger: dbg,
		App:      tview.NewApplication(),
	}

	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()

	return t
}

func (t *TUI) initializeViews() {
	t.DisassemblyView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.DisassemblyView.SetBorder(true).SetTitle(" Disassembly ")

	t.StackView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.StackView.SetBorder(true).SetTitle(" Stack ")

	t.ConstantsView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.ConstantsView.SetBorder(true).SetTitle(" Constants ")

	t.BreakpointsView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.BreakpointsView.SetBorder(true).SetTitle(" Breakpoints ")

	t.OutputView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().SetLabel("> ").SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

func (t *TUI) buildLayout() {
	t.LeftPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.DisassemblyView, 0, 3, false).
		AddItem(t.BreakpointsView, 8, 0, false)

	t.RightPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.StackView, 0, 1, false).
		AddItem(t.ConstantsView, 0, 1, false)

	mainContent := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.LeftPanel, 0, 2, false).
		AddItem(t.RightPanel, 0, 1, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(mainContent, 0, 4, false).
		AddItem(t.OutputView, 8, 0, false).
		AddItem(t.CommandInput, 3, 0, true)

	t.Pages = tview.NewPages().AddPage("main", t.MainLayout, true, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF1:
			t.executeCommand("help")
			return nil
		case tcell.KeyF5:
			t.executeCommand("continue")
			return nil
		case tcell.KeyF11:
			t.executeCommand("step")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.RefreshAll()
			return nil
		}
		return event
	})
}

func (t *TUI) handleCommand(key tcell.Key) {
	if key != tcell.KeyEnter {
		return
	}
	cmd := t.CommandInput.GetText()
	if cmd != "" {
		t.executeCommand(cmd)
		t.CommandInput.SetText("")
	}
}

func (t *TUI) executeCommand(cmd string) {
	t.Debugger.Output.Reset()
	err := t.Debugger.ExecuteCommand(cmd)
	output := t.Debugger.GetOutput()

	if err != nil {
		t.WriteOutput(fmt.Sprintf("[red]Error:[white] %v\n", err))
	}
	if output != "" {
		t.WriteOutput(output)
	}

	t.RefreshAll()
}

// WriteOutput appends text to the output panel.
func (t *TUI) WriteOutput(text string) {
	_, _ = t.OutputView.Write([]byte(text))
	t.OutputView.ScrollToEnd()
}

// RefreshAll redraws every panel from the debugger's current state.
func (t *TUI) RefreshAll() {
	t.UpdateDisassemblyView()
	t.UpdateStackView()
	t.UpdateConstantsView()
	t.UpdateBreakpointsView()
	t.App.Draw()
}

// UpdateDisassemblyView lists the chunk's instructions, marking the
// current offset and any breakpoints.
func (t *TUI) UpdateDisassemblyView() {
	t.DisassemblyView.Clear()
	if t.Debugger.Chunk == nil {
		t.DisassemblyView.SetText("[yellow]No chunk loaded[white]")
		return
	}

	ip := t.Debugger.VM.IP()
	c := t.Debugger.Chunk

	var lines []string
	for offset := 0; offset < len(c.Code); {
		text, next := c.DisassembleInstruction(offset)

		marker := "  "
		color := "white"
		if offset == ip {
			marker = "->"
			color = "yellow"
		}
		if t.Debugger.Breakpoints.GetBreakpoint(offset) != nil {
			marker = "* "
		}

		lines = append(lines, fmt.Sprintf("[%s]%s %s[white]", color, marker, text))
		offset = next
	}

	t.DisassemblyView.SetText(strings.Join(lines, "\n"))
}

// UpdateStackView lists the operand stack, bottom first.
func (t *TUI) UpdateStackView() {
	t.StackView.Clear()

	depth := t.Debugger.VM.StackDepth()
	if depth == 0 {
		t.StackView.SetText("[yellow](empty)[white]")
		return
	}

	var lines []string
	for i := 0; i < depth; i++ {
		lines = append(lines, fmt.Sprintf("$%d = %s", i, t.Debugger.VM.StackSlot(i)))
	}
	t.StackView.SetText(strings.Join(lines, "\n"))
}

// UpdateConstantsView lists the chunk's constant pool.
func (t *TUI) UpdateConstantsView() {
	t.ConstantsView.Clear()
	if t.Debugger.Chunk == nil {
		t.ConstantsView.SetText("")
		return
	}

	var lines []string
	for i := 0; i < t.Debugger.Chunk.Constants.Count(); i++ {
		lines = append(lines, fmt.Sprintf("#%d = %s", i, t.Debugger.Chunk.Constants.Get(i)))
	}
	t.ConstantsView.SetText(strings.Join(lines, "\n"))
}

// UpdateBreakpointsView lists every breakpoint and its hit count.
func (t *TUI) UpdateBreakpointsView() {
	t.BreakpointsView.Clear()

	bps := t.Debugger.Breakpoints.GetAllBreakpoints()
	if len(bps) == 0 {
		t.BreakpointsView.SetText("[yellow]No breakpoints set[white]")
		return
	}

	var lines []string
	for _, bp := range bps {
		status, color := "enabled", "green"
		if !bp.Enabled {
			status, color = "disabled", "red"
		}
		lines = append(lines, fmt.Sprintf("  %d: [%s]%s[white] offset %d (hits: %d)",
			bp.ID, color, status, bp.Offset, bp.HitCount))
	}
	t.BreakpointsView.SetText(strings.Join(lines, "\n"))
}

// Run starts the TUI's event loop. It blocks until the user quits.
func (t *TUI) Run() error {
	t.RefreshAll()
	t.WriteOutput("[green]loxvm debugger[white]\n")
	t.WriteOutput("Press F1 for help, F5 to continue, F11 to step\n")
	t.WriteOutput("Type 'help' for the command list\n\n")

	return t.App.SetRoot(t.Pages, true).SetFocus(t.CommandInput).Run()
}

// Stop ends the TUI's event loop.
func (t *TUI) Stop() {
	t.App.Stop()
}
