// Package chunk implements the compiled bytecode unit: an ordered byte
// sequence, a parallel line table, and a constant pool.
package chunk

import (
	"fmt"
	"strings"

	"github.com/lookbusy1344/loxvm/value"
)

// OpCode identifies a single instruction. OP_CONSTANT carries a 1-byte
// inline operand (the constant pool index); every other opcode here is
// a single byte with no operand.
type OpCode byte

const (
	OpConstant OpCode = iota
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNegate
	OpReturn
)

var opcodeNames = map[OpCode]string{
	OpConstant: "OP_CONSTANT",
	OpAdd:      "OP_ADD",
	OpSubtract: "OP_SUBTRACT",
	OpMultiply: "OP_MULTIPLY",
	OpDivide:   "OP_DIVIDE",
	OpNegate:   "OP_NEGATE",
	OpReturn:   "OP_RETURN",
}

func (op OpCode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("OP_UNKNOWN(%d)", byte(op))
}

// Chunk is the unit of compiled code: bytecode, a parallel line table,
// and a constant pool. |Code| == |Lines| is an invariant maintained by
// Write. AddConstant itself has no ceiling; the compiler's makeConstant
// reports an error for any index above 255 and emits 0 in its place,
// so every OP_CONSTANT operand byte it emits is a valid index into
// Constants.
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants value.Array
}

// New returns an empty chunk.
func New() *Chunk {
	return &Chunk{}
}

// Write appends a byte (an opcode or an inline operand) to Code, and
// the source line that produced it to Lines. Amortized O(1).
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// AddConstant appends value to the constant pool and returns its
// 0-based index. The index remains valid for the chunk's lifetime.
func (c *Chunk) AddConstant(v value.Value) int {
	return c.Constants.Write(v)
}

// Disassemble renders every instruction in the chunk under a banner
// naming it, in a human-oriented "== name ==" listing format.
func (c *Chunk) Disassemble(name string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		line, next := c.DisassembleInstruction(offset)
		sb.WriteString(line)
		sb.WriteString("\n")
		offset = next
	}
	return sb.String()
}

// DisassembleInstruction renders the instruction at offset and returns
// the offset of the next instruction.
func (c *Chunk) DisassembleInstruction(offset int) (string, int) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%04d ", offset)

	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		sb.WriteString("   | ")
	} else {
		fmt.Fprintf(&sb, "%4d ", c.Lines[offset])
	}

	op := OpCode(c.Code[offset])
	switch op {
	case OpConstant:
		idx := int(c.Code[offset+1])
		fmt.Fprintf(&sb, "%-16s %4d '%s'", op, idx, c.Constants.Get(idx))
		return sb.String(), offset + 2
	case OpAdd, OpSubtract, OpMultiply, OpDivide, OpNegate, OpReturn:
		sb.WriteString(op.String())
		return sb.String(), offset + 1
	default:
		fmt.Fprintf(&sb, "Unknown opcode %d", byte(op))
		return sb.String(), offset + 1
	}
}
