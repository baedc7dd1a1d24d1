package chunk

import (
	"strings"
	"testing"

	"github.com/lookbusy1344/loxvm/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteKeepsCodeAndLinesInLockstep(t *testing.T) {
	c := New()
	c.Write(byte(OpReturn), 1)
	c.Write(byte(OpConstant), 2)
	c.Write(0, 2)

	require.Len(t, c.Code, 3)
	require.Len(t, c.Lines, 3)
	assert.Equal(t, []int{1, 2, 2}, c.Lines)
}

func TestAddConstantReturnsStableIndex(t *testing.T) {
	c := New()
	i0 := c.AddConstant(value.NewNumber(1))
	i1 := c.AddConstant(value.NewNumber(2))

	assert.Equal(t, 0, i0)
	assert.Equal(t, 1, i1)
	assert.Equal(t, value.NewNumber(1), c.Constants.Get(i0))
}

func TestDisassembleConstant(t *testing.T) {
	c := New()
	idx := c.AddConstant(value.NewNumber(1.5))
	c.Write(byte(OpConstant), 1)
	c.Write(byte(idx), 1)
	c.Write(byte(OpReturn), 1)

	out := c.Disassemble("test")
	assert.True(t, strings.HasPrefix(out, "== test ==\n"))
	assert.Contains(t, out, "OP_CONSTANT")
	assert.Contains(t, out, "'1.5'")
	assert.Contains(t, out, "OP_RETURN")
}

func TestDisassembleSameLineShowsBar(t *testing.T) {
	c := New()
	c.Write(byte(OpNegate), 5)
	c.Write(byte(OpReturn), 5)

	out := c.Disassemble("test")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3) // banner + 2 instructions
	assert.Contains(t, lines[1], "   5 ")
	assert.Contains(t, lines[2], "   | ")
}
