package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allTokens(source string) []Token {
	s := New(source)
	var toks []Token
	for {
		tok := s.NextToken()
		toks = append(toks, tok)
		if tok.Type == TokenEOF {
			break
		}
	}
	return toks
}

func TestSingleCharacterTokens(t *testing.T) {
	toks := allTokens("(){};,.-+/*")
	types := make([]TokenType, 0, len(toks))
	for _, tok := range toks {
		types = append(types, tok.Type)
	}
	assert.Equal(t, []TokenType{
		TokenLeftParen, TokenRightParen, TokenLeftBrace, TokenRightBrace,
		TokenSemicolon, TokenComma, TokenDot, TokenMinus, TokenPlus,
		TokenSlash, TokenStar, TokenEOF,
	}, types)
}

func TestTwoCharacterOperators(t *testing.T) {
	toks := allTokens("! != = == < <= > >=")
	require.Len(t, toks, 9)
	expected := []TokenType{
		TokenBang, TokenBangEqual, TokenEqual, TokenEqualEqual,
		TokenLess, TokenLessEqual, TokenGreater, TokenGreaterEqual, TokenEOF,
	}
	for i, tok := range toks {
		assert.Equal(t, expected[i], tok.Type)
	}
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	toks := allTokens("and class or foo")
	require.Len(t, toks, 5)
	assert.Equal(t, TokenAnd, toks[0].Type)
	assert.Equal(t, TokenClass, toks[1].Type)
	assert.Equal(t, TokenOr, toks[2].Type)
	assert.Equal(t, TokenIdentifier, toks[3].Type)
	assert.Equal(t, "foo", toks[3].Lexeme)
}

func TestNumbers(t *testing.T) {
	toks := allTokens("123 1.5 1.")
	require.Len(t, toks, 5) // "1." does not consume the trailing dot
	assert.Equal(t, "123", toks[0].Lexeme)
	assert.Equal(t, "1.5", toks[1].Lexeme)
	assert.Equal(t, "1", toks[2].Lexeme)
	assert.Equal(t, TokenDot, toks[3].Type)
	assert.Equal(t, TokenEOF, toks[4].Type)
}

func TestStrings(t *testing.T) {
	toks := allTokens(`"hello"`)
	require.Len(t, toks, 2)
	assert.Equal(t, TokenString, toks[0].Type)
	assert.Equal(t, `"hello"`, toks[0].Lexeme)
}

func TestUnterminatedString(t *testing.T) {
	toks := allTokens(`"hello`)
	require.Len(t, toks, 2)
	assert.Equal(t, TokenError, toks[0].Type)
	assert.Equal(t, "Unterminated string.", toks[0].Lexeme)
}

func TestUnexpectedCharacter(t *testing.T) {
	toks := allTokens("@")
	require.Len(t, toks, 2)
	assert.Equal(t, TokenError, toks[0].Type)
	assert.Equal(t, "Unexpected character.", toks[0].Lexeme)
}

func TestLineCounting(t *testing.T) {
	toks := allTokens("1\n2\n\n3")
	require.Len(t, toks, 4)
	assert.Equal(t, 1, toks[0].Line)
	assert.Equal(t, 2, toks[1].Line)
	assert.Equal(t, 4, toks[2].Line)
}

func TestLineCommentsAreSkipped(t *testing.T) {
	toks := allTokens("1 // a comment\n2")
	require.Len(t, toks, 3)
	assert.Equal(t, "1", toks[0].Lexeme)
	assert.Equal(t, "2", toks[1].Lexeme)
}

func TestEOFIsSticky(t *testing.T) {
	s := New("")
	first := s.NextToken()
	second := s.NextToken()
	assert.Equal(t, TokenEOF, first.Type)
	assert.Equal(t, TokenEOF, second.Type)
}
