package main

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// main builds a minimal desktop shell around the VM: a source editor,
// a Run button, and a read-only pane for its combined stdout/stderr.
// It is deliberately thin — every interesting behavior lives in App
// and, beneath that, in the vm package it calls into.
func main() {
	a := app.New()
	w := a.NewWindow("loxvm")

	appState := NewApp()

	source := widget.NewMultiLineEntry()
	source.SetPlaceHolder("(-1 + 2) * 3 - -4")
	source.Wrapping = fyne.TextWrapOff

	output := widget.NewMultiLineEntry()
	output.Disable()
	output.Wrapping = fyne.TextWrapOff

	traceCheck := widget.NewCheck("Trace execution", func(checked bool) {
		appState.SetTraceExecution(checked)
	})
	debugCheck := widget.NewCheck("Print compiled chunk", func(checked bool) {
		appState.SetDebugPrintCode(checked)
	})

	runButton := widget.NewButton("Run", func() {
		stdout, stderr := appState.Run(source.Text)
		result := stdout
		if stderr != "" {
			result += stderr
		}
		output.SetText(result)
	})

	controls := container.NewHBox(traceCheck, debugCheck, runButton)
	split := container.NewVSplit(
		container.NewBorder(nil, controls, nil, nil, source),
		output,
	)
	split.Offset = 0.6

	w.SetContent(split)
	w.Resize(fyne.NewSize(900, 600))
	w.ShowAndRun()
}
