package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBasicTokens(t *testing.T) {
	input := `var x: i32 = 5;
x = x + 1;`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{VAR, "var"},
		{IDENTIFIER, "x"},
		{COLON, ":"},
		{TYPE, "i32"},
		{ASSIGN, "="},
		{INT_LITERAL, "5"},
		{SEMICOLON, ";"},
		{IDENTIFIER, "x"},
		{ASSIGN, "="},
		{IDENTIFIER, "x"},
		{OPERATOR, "+"},
		{INT_LITERAL, "1"},
		{SEMICOLON, ";"},
		{EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%s, got=%s (literal=%q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNegativeNumberFolding(t *testing.T) {
	l := New("a-1")
	require.Equal(t, IDENTIFIER, l.NextToken().Type)
	tok := l.NextToken()
	require.Equal(t, INT_LITERAL, tok.Type)
	require.Equal(t, "-1", tok.Literal)
	require.Equal(t, EOF, l.NextToken().Type)
}

func TestNegativeNumberNotFoldedWithSpace(t *testing.T) {
	l := New("a - 1")
	require.Equal(t, IDENTIFIER, l.NextToken().Type)
	require.Equal(t, OPERATOR, l.NextToken().Type)
	tok := l.NextToken()
	require.Equal(t, INT_LITERAL, tok.Type)
	require.Equal(t, "1", tok.Literal)
}

func TestIntVsDoubleLiteral(t *testing.T) {
	l := New("5 5.0")
	require.Equal(t, INT_LITERAL, l.NextToken().Type)
	require.Equal(t, DOUBLE_LITERAL, l.NextToken().Type)
}

func TestRangeToken(t *testing.T) {
	l := New("0..10")
	require.Equal(t, INT_LITERAL, l.NextToken().Type)
	require.Equal(t, RANGE, l.NextToken().Type)
	require.Equal(t, INT_LITERAL, l.NextToken().Type)
}

func TestCompoundAssignmentOperators(t *testing.T) {
	tests := []string{"+=", "-=", "*=", "/="}
	for _, op := range tests {
		l := New("x " + op + " 1")
		l.NextToken() // x
		tok := l.NextToken()
		require.Equal(t, OPERATOR, tok.Type, "operator %q", op)
		require.Equal(t, op, tok.Literal)
	}
}

func TestComparisonOperators(t *testing.T) {
	tests := []struct {
		src     string
		literal string
	}{
		{"==", "=="}, {"!=", "!="}, {"<=", "<="}, {">=", ">="},
	}
	for _, tt := range tests {
		l := New(tt.src)
		tok := l.NextToken()
		require.Equal(t, COMPARISON, tok.Type)
		require.Equal(t, tt.literal, tok.Literal)
	}
}

func TestUnterminatedStringProducesLexError(t *testing.T) {
	l := New(`"unterminated`)
	l.NextToken()
	require.NotEmpty(t, l.Errors())
}

func TestLineComment(t *testing.T) {
	l := New("x # this is a comment\ny")
	require.Equal(t, "x", l.NextToken().Literal)
	require.Equal(t, "y", l.NextToken().Literal)
}

func TestKeywordsAndBooleans(t *testing.T) {
	l := New("if elif else for fun return break continue struct typeof input true false")
	expected := []TokenType{IF, ELIF, ELSE, FOR, FUN, RETURN, BREAK, CONTINUE, STRUCT, TYPEOF, INPUT, BOOLEAN_LITERAL, BOOLEAN_LITERAL}
	for i, want := range expected {
		got := l.NextToken().Type
		require.Equal(t, want, got, "token %d", i)
	}
}

func TestInvalidCharacterRecordsLexError(t *testing.T) {
	l := New("$")
	tok := l.NextToken()
	require.Equal(t, INVALID, tok.Type)
	require.NotEmpty(t, l.Errors())
}
