package errors

import (
	"strings"
	"testing"
)

func TestDiagnosticsAsErrorEmpty(t *testing.T) {
	var d Diagnostics
	if err := d.AsError(); err != nil {
		t.Errorf("expected nil error for empty diagnostics, got %v", err)
	}
}

func TestDiagnosticsAsErrorCombinesAll(t *testing.T) {
	var d Diagnostics
	d.Add(NewSyntaxError(1, " at 'x'", "Expect expression."))
	d.Add(NewCapacityError(2, "", "Too many constants in one chunk."))

	err := d.AsError()
	if err == nil {
		t.Fatal("expected a non-nil error")
	}
	if !strings.Contains(err.Error(), "Expect expression.") {
		t.Errorf("combined error missing first message: %v", err)
	}
	if !strings.Contains(err.Error(), "Too many constants in one chunk.") {
		t.Errorf("combined error missing second message: %v", err)
	}
}

func TestDiagnosticsStringUnaffectedByAsError(t *testing.T) {
	var d Diagnostics
	d.Add(NewSyntaxError(3, "", "Expect ')' after expression."))

	_ = d.AsError()
	want := "[line 3] Error: Expect ')' after expression.\n"
	if got := d.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
