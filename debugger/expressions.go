package debugger

import (
	"fmt"
	"strings"

	"github.com/lookbusy1344/loxvm/value"
	"github.com/lookbusy1344/loxvm/vm"
)

// ExpressionEvaluator evaluates watch expressions typed at the
// debugger prompt and remembers their results. When no VM is attached,
// later expressions can refer back to those results with $N (1-based);
// with a VM attached, $N names operand stack slot N (0-based) instead.
type ExpressionEvaluator struct {
	history []float64
}

// NewExpressionEvaluator creates an evaluator with empty history.
func NewExpressionEvaluator() *ExpressionEvaluator {
	return &ExpressionEvaluator{}
}

// EvaluateExpression parses and evaluates expr against machine's
// current stack, recording the result in history.
func (e *ExpressionEvaluator) EvaluateExpression(expr string, machine *vm.VM) (float64, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, fmt.Errorf("empty expression")
	}

	tokens := NewExprLexer(expr).TokenizeAll()
	parser := NewExprParser(tokens, machine, e)
	result, err := parser.Parse()
	if err != nil {
		return 0, err
	}

	e.history = append(e.history, result)
	return result, nil
}

// GetValue returns the result of the number'th previously evaluated
// expression (1-based, as typed: $1 refers to the first evaluation).
func (e *ExpressionEvaluator) GetValue(number int) (float64, error) {
	if number < 1 || number > len(e.history) {
		return 0, fmt.Errorf("value $%d not in history", number)
	}
	return e.history[number-1], nil
}

// FormatNumber renders n the way a Lox value prints, so debugger
// output shares one formatting convention with program output.
func FormatNumber(n float64) string {
	return value.NewNumber(n).String()
}
