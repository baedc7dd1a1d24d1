// Package vm implements the stack-based interpreter that executes a
// compiled chunk against a tagged-value operand stack.
package vm

import (
	"fmt"
	"io"

	"github.com/lookbusy1344/loxvm/chunk"
	"github.com/lookbusy1344/loxvm/compiler"
	"github.com/lookbusy1344/loxvm/errors"
	"github.com/lookbusy1344/loxvm/value"
)

// DefaultStackCapacity is the operand stack size a VM gets when no
// explicit capacity is requested (New, or InterpretOptions.StackCapacity
// left at zero). A loxvm.toml's [vm] stack_capacity overrides it.
const DefaultStackCapacity = 256

// Result is the three-valued outcome of interpretation.
type Result int

const (
	ResultOK Result = iota
	ResultCompileError
	ResultRuntimeError
)

// VM holds a chunk pointer, an instruction pointer (byte cursor into
// that chunk's code), and a fixed-capacity operand stack. A VM is
// created before any interpretation and torn down after; it borrows a
// chunk for the duration of a single run and never retains the borrow.
type VM struct {
	chunk *chunk.Chunk
	ip    int

	stack    []value.Value
	stackTop int

	// TraceExecution, when set, prints the operand stack and the
	// disassembly of the current instruction before each dispatch.
	TraceExecution bool
	Trace          io.Writer // defaults to nil (no trace output)

	// Stdout receives values printed by OP_RETURN. Defaults to nil, in
	// which case OP_RETURN pops its value without printing it.
	Stdout io.Writer
}

// New creates a VM with an empty, reset stack sized to
// DefaultStackCapacity.
func New() *VM {
	return NewWithCapacity(DefaultStackCapacity)
}

// NewWithCapacity creates a VM whose operand stack holds at most
// capacity values. capacity <= 0 falls back to DefaultStackCapacity,
// so a zero-value config field behaves like the unconfigured default.
func NewWithCapacity(capacity int) *VM {
	if capacity <= 0 {
		capacity = DefaultStackCapacity
	}
	return &VM{stack: make([]value.Value, capacity)}
}

// Load points the VM at chunk c, ready to run from its first
// instruction with an empty operand stack. It borrows c for the
// duration of the run; the VM never retains the borrow beyond Run/Step
// returning a terminal Result.
func (vm *VM) Load(c *chunk.Chunk) {
	vm.chunk = c
	vm.ip = 0
	vm.resetStack()
}

// IP returns the current byte offset into the loaded chunk's code.
func (vm *VM) IP() int { return vm.ip }

// Chunk returns the chunk the VM is currently borrowing.
func (vm *VM) Chunk() *chunk.Chunk { return vm.chunk }

// StackDepth returns the number of values currently on the operand
// stack.
func (vm *VM) StackDepth() int { return vm.stackTop }

// StackSlot returns the value at stack index i (0 is the bottom of the
// stack), for introspection by a debugger. It does not pop.
func (vm *VM) StackSlot(i int) value.Value { return vm.stack[i] }

func (vm *VM) resetStack() {
	vm.stackTop = 0
}

func (vm *VM) push(v value.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() value.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

// peek reads the value d slots below the top without removing it.
func (vm *VM) peek(d int) value.Value {
	return vm.stack[vm.stackTop-1-d]
}

func (vm *VM) readByte() byte {
	b := vm.chunk.Code[vm.ip]
	vm.ip++
	return b
}

func (vm *VM) readConstant() value.Value {
	return vm.chunk.Constants.Get(int(vm.readByte()))
}

// currentLine returns the source line of the instruction that just
// advanced ip, for attribution on a runtime error.
func (vm *VM) currentLine() int {
	return vm.chunk.Lines[vm.ip-1]
}

func (vm *VM) runtimeError(format string, args ...any) *errors.RuntimeError {
	err := errors.NewRuntimeError(vm.currentLine(), format, args...)
	vm.resetStack()
	return err
}

// Run executes the VM's current chunk to completion: either OP_RETURN
// halts the run with ResultOK, or a type-mismatched arithmetic/negation
// instruction halts it with ResultRuntimeError.
func (vm *VM) Run() (Result, error) {
	for {
		result, done, err := vm.Step()
		if done {
			return result, err
		}
	}
}

// Step dispatches exactly one instruction. done is false as long as
// execution should continue; once done is true, result/err carry the
// same meaning Run returns. A debugger drives the VM one Step at a
// time instead of calling Run, to pause between instructions.
func (vm *VM) Step() (result Result, done bool, err error) {
	defer func() {
		if done {
			// A finished run gives up its borrow of the chunk.
			vm.chunk = nil
		}
	}()

	if vm.TraceExecution && vm.Trace != nil {
		vm.printTrace()
	}

	instruction := chunk.OpCode(vm.readByte())
	switch instruction {
	case chunk.OpConstant:
		constant := vm.readConstant()
		vm.push(constant)
		return ResultOK, false, nil

	case chunk.OpAdd, chunk.OpSubtract, chunk.OpMultiply, chunk.OpDivide:
		if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
			return ResultRuntimeError, true, vm.runtimeError("Operands must be numbers.")
		}
		b := vm.pop().Number
		a := vm.pop().Number
		var res float64
		switch instruction {
		case chunk.OpAdd:
			res = a + b
		case chunk.OpSubtract:
			res = a - b
		case chunk.OpMultiply:
			res = a * b
		case chunk.OpDivide:
			res = a / b
		}
		vm.push(value.NewNumber(res))
		return ResultOK, false, nil

	case chunk.OpNegate:
		if !vm.peek(0).IsNumber() {
			return ResultRuntimeError, true, vm.runtimeError("Operand must be a number.")
		}
		vm.push(value.NewNumber(-vm.pop().Number))
		return ResultOK, false, nil

	case chunk.OpReturn:
		v := vm.pop()
		if vm.Stdout != nil {
			fmt.Fprintf(vm.Stdout, "%s\n", v)
		}
		return ResultOK, true, nil

	default:
		return ResultRuntimeError, true, vm.runtimeError("Unknown opcode %d.", byte(instruction))
	}
}

func (vm *VM) printTrace() {
	fmt.Fprint(vm.Trace, "          ")
	for i := 0; i < vm.stackTop; i++ {
		fmt.Fprintf(vm.Trace, "[ %s ]", vm.stack[i])
	}
	fmt.Fprintln(vm.Trace)
	line, _ := vm.chunk.DisassembleInstruction(vm.ip)
	fmt.Fprintln(vm.Trace, line)
}

// InterpretOptions configures a single Interpret call.
type InterpretOptions struct {
	// TraceExecution enables the optional per-instruction stack/
	// disassembly trace.
	TraceExecution bool
	// DebugPrintCode disassembles the compiled chunk once, on success,
	// before it runs.
	DebugPrintCode bool
	// StackCapacity sizes the VM's operand stack. Zero means
	// DefaultStackCapacity.
	StackCapacity int
	// TraceWriter receives the execution trace when TraceExecution is
	// set. Nil means stdout.
	TraceWriter io.Writer
}

// Interpret is the top-level orchestration: it owns the lifetime of a
// fresh chunk, compiles source into it, and (on success) runs it.
// stdout receives OP_RETURN's printed value and any trace/disassembly
// output; stderr receives compile/runtime diagnostics.
func Interpret(source string, stdout, stderr io.Writer, opts InterpretOptions) Result {
	c := chunk.New()

	compileOpts := compiler.Options{
		DebugPrintCode: opts.DebugPrintCode,
		Disassembler: func(name, dump string) {
			fmt.Fprint(stdout, dump)
		},
	}
	ok, diags := compiler.Compile(source, c, compileOpts)
	if !ok {
		fmt.Fprint(stderr, diags.String())
		return ResultCompileError
	}

	m := NewWithCapacity(opts.StackCapacity)
	m.Stdout = stdout
	m.TraceExecution = opts.TraceExecution
	m.Trace = stdout
	if opts.TraceWriter != nil {
		m.Trace = opts.TraceWriter
	}
	m.Load(c)

	result, err := m.Run()
	if result == ResultRuntimeError && err != nil {
		fmt.Fprintln(stderr, err.Error())
	}
	return result
}
