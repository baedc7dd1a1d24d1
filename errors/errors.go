// Package errors carries the compile-time and runtime diagnostics shared
// by the scanner, compiler, and VM.
package errors

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Kind categorizes the sort of error that was reported.
type Kind int

const (
	KindSyntax Kind = iota
	KindCapacity
	KindRuntime
)

func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "syntax"
	case KindCapacity:
		return "capacity"
	case KindRuntime:
		return "runtime"
	default:
		return "unknown"
	}
}

// CompileError is a single compile-time diagnostic, carrying enough
// context to render the "[line L] Error at ...: msg" form the
// diagnostic sink writes.
type CompileError struct {
	Line    int
	Where   string // "" for a scanner error token, " at end", or " at 'lexeme'"
	Message string
	Kind    Kind
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("[line %d] Error%s: %s", e.Line, e.Where, e.Message)
}

// NewSyntaxError builds a CompileError for a scanner/parser failure.
func NewSyntaxError(line int, where, message string) *CompileError {
	return &CompileError{Line: line, Where: where, Message: message, Kind: KindSyntax}
}

// NewCapacityError builds a CompileError for a constant-pool overflow.
func NewCapacityError(line int, where, message string) *CompileError {
	return &CompileError{Line: line, Where: where, Message: message, Kind: KindCapacity}
}

// Diagnostics accumulates compile errors in report order, mirroring the
// ErrorList pattern used for the assembler's own diagnostics.
type Diagnostics struct {
	Errors []*CompileError
}

// Add appends a compile error to the list.
func (d *Diagnostics) Add(err *CompileError) {
	d.Errors = append(d.Errors, err)
}

// HasErrors reports whether any error was recorded.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// AsError collapses the accumulated errors into a single error value,
// for callers that want one Go error rather than the diagnostic sink's
// line-oriented text (the API session handlers log it this way rather
// than reformatting []*CompileError by hand). Returns nil when the
// diagnostics are empty.
func (d *Diagnostics) AsError() error {
	if !d.HasErrors() {
		return nil
	}
	var result *multierror.Error
	for _, e := range d.Errors {
		result = multierror.Append(result, e)
	}
	return result
}

// String renders every accumulated error, one per line, in the exact
// "[line L] Error...: msg\n" shape the diagnostic sink writes.
func (d *Diagnostics) String() string {
	var sb strings.Builder
	for _, e := range d.Errors {
		sb.WriteString(e.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}

// RuntimeError is raised by the VM when an instruction's operands fail a
// type check. It wraps the formatted message plus the source line the
// failing instruction was compiled from.
type RuntimeError struct {
	Line    int
	Message string
	Wrapped error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s\n[line %d] in script", e.Message, e.Line)
}

func (e *RuntimeError) Unwrap() error {
	return e.Wrapped
}

// NewRuntimeError builds a RuntimeError for the given source line.
func NewRuntimeError(line int, format string, args ...any) *RuntimeError {
	return &RuntimeError{Line: line, Message: fmt.Sprintf(format, args...)}
}
