package debugger

// DisplayUpdateFrequency is a redraw interval, in instructions, for a
// continuous "continue" run. No code in this package reads it: the TUI
// redraws once after each command completes.
const DisplayUpdateFrequency = 100
