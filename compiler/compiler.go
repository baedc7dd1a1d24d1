// Package compiler is a single-pass Pratt-style precedence-climbing
// parser that emits bytecode directly into a target chunk, without
// constructing an AST.
package compiler

import (
	"strconv"

	"github.com/lookbusy1344/loxvm/chunk"
	"github.com/lookbusy1344/loxvm/diagnostics"
	"github.com/lookbusy1344/loxvm/errors"
	"github.com/lookbusy1344/loxvm/scanner"
	"github.com/lookbusy1344/loxvm/value"
)

// Precedence orders infix operators from loosest to tightest binding.
type Precedence int

const (
	PrecNone       Precedence = iota
	PrecAssignment            // =
	PrecOr                    // or
	PrecAnd                   // and
	PrecEquality              // == !=
	PrecComparison            // < > <= >=
	PrecTerm                  // + -
	PrecFactor                // * /
	PrecUnary                 // - (unary)
	PrecCall                  // . ()
	PrecPrimary
)

// action is a closed set of parse behaviors. Dispatch on it is a plain
// match, not an indirect call, keeping the rule table data-only.
type action int

const (
	actionNone action = iota
	actionGrouping
	actionUnary
	actionBinary
	actionNumber
)

// rule is one row of the Pratt table: how a token type behaves as a
// prefix position, as an infix position, and at what infix precedence.
type rule struct {
	prefix     action
	infix      action
	precedence Precedence
}

var rules = map[scanner.TokenType]rule{
	scanner.TokenLeftParen: {prefix: actionGrouping, infix: actionNone, precedence: PrecNone},
	scanner.TokenMinus:     {prefix: actionUnary, infix: actionBinary, precedence: PrecTerm},
	scanner.TokenPlus:      {prefix: actionNone, infix: actionBinary, precedence: PrecTerm},
	scanner.TokenSlash:     {prefix: actionNone, infix: actionBinary, precedence: PrecFactor},
	scanner.TokenStar:      {prefix: actionNone, infix: actionBinary, precedence: PrecFactor},
	scanner.TokenNumber:    {prefix: actionNumber, infix: actionNone, precedence: PrecNone},
}

// getRule returns the Pratt rule for a token type. Every token type not
// present in the table (and thus every token reserved for future
// grammar extension) carries (none, none, NONE).
func getRule(t scanner.TokenType) rule {
	if r, ok := rules[t]; ok {
		return r
	}
	return rule{prefix: actionNone, infix: actionNone, precedence: PrecNone}
}

// Options configures optional compiler behavior.
type Options struct {
	// DebugPrintCode hands the finished chunk's disassembly to
	// Disassembler when compilation succeeds.
	DebugPrintCode bool
	Disassembler   func(name, dump string)
}

// Compiler owns the scanner, the parser state, and a mutable borrow of
// the target chunk for the duration of one compilation. One instance
// per call to Compile — no process-wide state.
type Compiler struct {
	scanner *scanner.Scanner
	chunk   *chunk.Chunk
	opts    Options

	current  scanner.Token
	previous scanner.Token

	hadError  bool
	panicMode bool

	diags errors.Diagnostics
}

// New creates a Compiler targeting chunk c for source.
func New(source string, c *chunk.Chunk, opts Options) *Compiler {
	return &Compiler{
		scanner: scanner.New(source),
		chunk:   c,
		opts:    opts,
	}
}

// Compile runs the full compile flow and returns whether compilation
// succeeded. On failure, Diagnostics carries the first error reported:
// panic mode is set by that error and is never cleared (the grammar has
// no statement boundaries), so every later error is suppressed.
func (c *Compiler) Compile() (ok bool, diags errors.Diagnostics) {
	c.advance()
	c.expression()
	c.consume(scanner.TokenEOF, "Expected end of expressions.")
	c.endCompiler()
	return !c.hadError, c.diags
}

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scanner.NextToken()
		if c.current.Type != scanner.TokenError {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) consume(t scanner.TokenType, message string) {
	if c.current.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

func (c *Compiler) check(t scanner.TokenType) bool {
	return c.current.Type == t
}

func (c *Compiler) errorAtCurrent(message string) {
	c.errorAt(c.current, message)
}

func (c *Compiler) error(message string) {
	c.errorAt(c.previous, message)
}

func (c *Compiler) errorAt(tok scanner.Token, message string) {
	c.reportAt(tok, message, errors.KindSyntax)
}

// capacityError reports a constant-pool overflow against the token just
// consumed, tagged KindCapacity so a caller can tell it apart from a
// plain syntax mistake (errors.Diagnostics carries both in the same
// list, but KindCapacity lets a consumer filter or react differently,
// e.g. suggesting the source be split into multiple chunks).
func (c *Compiler) capacityError(message string) {
	c.reportAt(c.previous, message, errors.KindCapacity)
}

func (c *Compiler) reportAt(tok scanner.Token, message string, kind errors.Kind) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true

	where := ""
	switch tok.Type {
	case scanner.TokenEOF:
		where = " at end"
	case scanner.TokenError:
		// no location qualifier for error tokens
	default:
		where = " at '" + tok.Lexeme + "'"
	}

	var ce *errors.CompileError
	if kind == errors.KindCapacity {
		ce = errors.NewCapacityError(tok.Line, where, message)
	} else {
		ce = errors.NewSyntaxError(tok.Line, where, message)
	}
	c.diags.Add(ce)
}

// --- emission helpers ---

func (c *Compiler) emitByte(b byte) {
	c.chunk.Write(b, c.previous.Line)
}

func (c *Compiler) emitBytes(b1, b2 byte) {
	c.emitByte(b1)
	c.emitByte(b2)
}

func (c *Compiler) emitReturn() {
	c.emitByte(byte(chunk.OpReturn))
}

func (c *Compiler) makeConstant(v value.Value) byte {
	idx := c.chunk.AddConstant(v)
	if idx > 255 {
		c.capacityError("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

func (c *Compiler) emitConstant(v value.Value) {
	c.emitBytes(byte(chunk.OpConstant), c.makeConstant(v))
}

func (c *Compiler) endCompiler() {
	c.emitReturn()
	diagnostics.Log.Debugln(c.chunk.Disassemble("code"))
	if c.opts.DebugPrintCode && !c.hadError && c.opts.Disassembler != nil {
		c.opts.Disassembler("code", c.chunk.Disassemble("code"))
	}
}

// --- parse actions ---

func (c *Compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}

func (c *Compiler) parsePrecedence(p Precedence) {
	c.advance()
	prefixRule := getRule(c.previous.Type).prefix
	if prefixRule == actionNone {
		c.error("Expected expression.")
		return
	}
	c.runAction(prefixRule)

	for p <= getRule(c.current.Type).precedence {
		c.advance()
		infixRule := getRule(c.previous.Type).infix
		c.runAction(infixRule)
	}
}

func (c *Compiler) runAction(a action) {
	switch a {
	case actionGrouping:
		c.grouping()
	case actionUnary:
		c.unary()
	case actionBinary:
		c.binary()
	case actionNumber:
		c.number()
	case actionNone:
		// unreachable: callers only invoke runAction for a rule they
		// already checked is non-none.
	}
}

func (c *Compiler) grouping() {
	c.expression()
	c.consume(scanner.TokenRightParen, "Expect ')' after expression.")
}

func (c *Compiler) number() {
	v, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.error("Invalid number literal.")
		return
	}
	c.emitConstant(value.NewNumber(v))
}

func (c *Compiler) unary() {
	operatorType := c.previous.Type

	// Compile the operand, right-associatively: same precedence level.
	c.parsePrecedence(PrecUnary)

	switch operatorType {
	case scanner.TokenMinus:
		c.emitByte(byte(chunk.OpNegate))
	}
}

func (c *Compiler) binary() {
	operatorType := c.previous.Type
	r := getRule(operatorType)

	// Left-associative: require strictly higher precedence on the RHS.
	c.parsePrecedence(r.precedence + 1)

	switch operatorType {
	case scanner.TokenPlus:
		c.emitByte(byte(chunk.OpAdd))
	case scanner.TokenMinus:
		c.emitByte(byte(chunk.OpSubtract))
	case scanner.TokenStar:
		c.emitByte(byte(chunk.OpMultiply))
	case scanner.TokenSlash:
		c.emitByte(byte(chunk.OpDivide))
	}
}

// Compile is the package-level entry point: compile(source, &chunk)
// -> ok. It instantiates a fresh Compiler per call, so there is no
// process-wide parser/scanner state.
func Compile(source string, c *chunk.Chunk, opts Options) (bool, errors.Diagnostics) {
	return New(source, c, opts).Compile()
}
