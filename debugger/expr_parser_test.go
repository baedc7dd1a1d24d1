package debugger

import "testing"

func parse(t *testing.T, expr string, eval *ExpressionEvaluator) float64 {
	t.Helper()
	tokens := NewExprLexer(expr).TokenizeAll()
	result, err := NewExprParser(tokens, nil, eval).Parse()
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", expr, err)
	}
	return result
}

func TestExprParserArithmetic(t *testing.T) {
	cases := []struct {
		expr string
		want float64
	}{
		{"1 + 2", 3},
		{"2 * 3 + 1", 7},
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"10 / 2 - 1", 4},
		{"-5 + 2", -3},
	}

	for _, c := range cases {
		eval := NewExpressionEvaluator()
		got := parse(t, c.expr, eval)
		if got != c.want {
			t.Errorf("parse(%q) = %v, want %v", c.expr, got, c.want)
		}
	}
}

func TestExprParserValueRefResolvesAgainstHistory(t *testing.T) {
	eval := NewExpressionEvaluator()
	eval.history = append(eval.history, 42)

	got := parse(t, "$1 + 1", eval)
	if got != 43 {
		t.Errorf("got %v, want 43", got)
	}
}

func TestExprParserUnexpectedTrailingTokens(t *testing.T) {
	tokens := NewExprLexer("1 2").TokenizeAll()
	_, err := NewExprParser(tokens, nil, NewExpressionEvaluator()).Parse()
	if err == nil {
		t.Fatal("expected an error for trailing tokens")
	}
}

func TestExprParserMissingCloseParen(t *testing.T) {
	tokens := NewExprLexer("(1 + 2").TokenizeAll()
	_, err := NewExprParser(tokens, nil, NewExpressionEvaluator()).Parse()
	if err == nil {
		t.Fatal("expected an error for a missing ')'")
	}
}
