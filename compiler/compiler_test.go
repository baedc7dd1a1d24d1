package compiler

import (
	"testing"

	"github.com/lookbusy1344/loxvm/chunk"
	"github.com/lookbusy1344/loxvm/errors"
	"github.com/lookbusy1344/loxvm/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, source string) (*chunk.Chunk, bool) {
	t.Helper()
	c := chunk.New()
	ok, _ := Compile(source, c, Options{})
	return c, ok
}

func TestSimpleAddition(t *testing.T) {
	c, ok := compile(t, "1 + 2")
	require.True(t, ok)

	assert.Equal(t, []byte{
		byte(chunk.OpConstant), 0,
		byte(chunk.OpConstant), 1,
		byte(chunk.OpAdd),
		byte(chunk.OpReturn),
	}, c.Code)
	assert.Equal(t, value.NewNumber(1), c.Constants.Get(0))
	assert.Equal(t, value.NewNumber(2), c.Constants.Get(1))
}

func TestCodeAndLinesStayInLockstep(t *testing.T) {
	c, ok := compile(t, "1 +\n2")
	require.True(t, ok)
	assert.Len(t, c.Lines, len(c.Code))
}

func TestLeftAssociativity(t *testing.T) {
	// a - b - c must parse as (a - b) - c: two OP_SUBTRACTs, each
	// consuming the running total as its left operand.
	c, ok := compile(t, "3 - 2 - 1")
	require.True(t, ok)

	assert.Equal(t, []byte{
		byte(chunk.OpConstant), 0,
		byte(chunk.OpConstant), 1,
		byte(chunk.OpSubtract),
		byte(chunk.OpConstant), 2,
		byte(chunk.OpSubtract),
		byte(chunk.OpReturn),
	}, c.Code)
}

func TestUnaryRightAssociativity(t *testing.T) {
	c, ok := compile(t, "---1")
	require.True(t, ok)

	assert.Equal(t, []byte{
		byte(chunk.OpConstant), 0,
		byte(chunk.OpNegate),
		byte(chunk.OpNegate),
		byte(chunk.OpNegate),
		byte(chunk.OpReturn),
	}, c.Code)
}

func TestPrecedenceClimbing(t *testing.T) {
	// 1 + 2 * 3 must bind '*' tighter: push 1, push 2, push 3,
	// multiply, then add.
	c, ok := compile(t, "1 + 2 * 3")
	require.True(t, ok)

	assert.Equal(t, []byte{
		byte(chunk.OpConstant), 0,
		byte(chunk.OpConstant), 1,
		byte(chunk.OpConstant), 2,
		byte(chunk.OpMultiply),
		byte(chunk.OpAdd),
		byte(chunk.OpReturn),
	}, c.Code)
}

func TestGrouping(t *testing.T) {
	c, ok := compile(t, "(1 + 2) * 3")
	require.True(t, ok)

	assert.Equal(t, []byte{
		byte(chunk.OpConstant), 0,
		byte(chunk.OpConstant), 1,
		byte(chunk.OpAdd),
		byte(chunk.OpConstant), 2,
		byte(chunk.OpMultiply),
		byte(chunk.OpReturn),
	}, c.Code)
}

func TestEmptySourceIsACompileError(t *testing.T) {
	c := chunk.New()
	ok, diags := Compile("", c, Options{})
	require.False(t, ok)
	require.True(t, diags.HasErrors())
	assert.Contains(t, diags.Errors[0].Message, "Expected expression.")
}

func TestMissingClosingParen(t *testing.T) {
	c := chunk.New()
	ok, diags := Compile("(1 + 2", c, Options{})
	require.False(t, ok)
	assert.Contains(t, diags.String(), "Expect ')' after expression.")
}

func TestTrailingGarbageIsACompileError(t *testing.T) {
	c := chunk.New()
	ok, diags := Compile("1 +", c, Options{})
	require.False(t, ok)
	assert.NotEmpty(t, diags.Errors)
}

func TestConstantPoolOverflow(t *testing.T) {
	// Build a source with 257 distinct numeric literals chained by '+'
	// so the 257th add_constant call exceeds the 256-entry ceiling.
	source := "0"
	for i := 1; i < 257; i++ {
		source += " + " + itoa(i)
	}

	c := chunk.New()
	ok, diags := Compile(source, c, Options{})
	require.False(t, ok)
	assert.Contains(t, diags.String(), "Too many constants in one chunk.")
	require.NotEmpty(t, diags.Errors)
	assert.Equal(t, errors.KindCapacity, diags.Errors[0].Kind)
}

func TestDeterministicRecompilation(t *testing.T) {
	const source = "(-1 + 2) * 3 - -4"

	c1 := chunk.New()
	ok1, _ := Compile(source, c1, Options{})
	c2 := chunk.New()
	ok2, _ := Compile(source, c2, Options{})

	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, c1.Code, c2.Code)
	assert.Equal(t, c1.Lines, c2.Lines)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := ""
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	return digits
}
