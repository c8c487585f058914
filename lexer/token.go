package lexer

type TokenType int

const (
	// Special tokens
	INVALID TokenType = iota
	EOF

	// Literals
	IDENTIFIER
	INT_LITERAL
	DOUBLE_LITERAL
	STRING_LITERAL
	BOOLEAN_LITERAL

	// Operators
	OPERATOR   // + - * / % !
	ASSIGN     // =
	COMPARISON // == != < > <= >=

	// Delimiters
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	LBRACKET  // [
	RBRACKET  // ]
	COMMA     // ,
	COLON     // :
	SEMICOLON // ;
	DOT       // .
	RANGE     // ..

	// Keywords
	keyword_beg
	TYPE // i32, i64, f32, f64, bool, str
	VAR
	PRINT
	IF
	ELIF
	ELSE
	FOR
	FUN
	RETURN
	TYPEOF
	INPUT
	BREAK
	CONTINUE
	STRUCT
	keyword_end
)

var tokenNames = map[TokenType]string{
	INVALID: "INVALID",
	EOF:     "EOF",

	IDENTIFIER:      "IDENTIFIER",
	INT_LITERAL:     "INT_LITERAL",
	DOUBLE_LITERAL:  "DOUBLE_LITERAL",
	STRING_LITERAL:  "STRING_LITERAL",
	BOOLEAN_LITERAL: "BOOLEAN_LITERAL",

	OPERATOR:   "OPERATOR",
	ASSIGN:     "ASSIGN",
	COMPARISON: "COMPARISON",

	LPAREN:    "(",
	RPAREN:    ")",
	LBRACE:    "{",
	RBRACE:    "}",
	LBRACKET:  "[",
	RBRACKET:  "]",
	COMMA:     ",",
	COLON:     ":",
	SEMICOLON: ";",
	DOT:       ".",
	RANGE:     "..",

	TYPE:     "TYPE",
	VAR:      "var",
	PRINT:    "print",
	IF:       "if",
	ELIF:     "elif",
	ELSE:     "else",
	FOR:      "for",
	FUN:      "fun",
	RETURN:   "return",
	TYPEOF:   "typeof",
	INPUT:    "input",
	BREAK:    "break",
	CONTINUE: "continue",
	STRUCT:   "struct",
}

// keywords holds the non-type keyword table. Primitive type names are
// looked up separately so their token carries kind Type, not one kind
// per primitive.
var keywords = map[string]TokenType{
	"var":      VAR,
	"print":    PRINT,
	"if":       IF,
	"elif":     ELIF,
	"else":     ELSE,
	"for":      FOR,
	"fun":      FUN,
	"return":   RETURN,
	"typeof":   TYPEOF,
	"input":    INPUT,
	"break":    BREAK,
	"continue": CONTINUE,
	"struct":   STRUCT,
}

var typeNames = map[string]bool{
	"i32":  true,
	"i64":  true,
	"f32":  true,
	"f64":  true,
	"bool": true,
	"str":  true,
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// LookupIdent classifies an identifier-shaped lexeme as a keyword, a
// primitive type name, or a plain identifier.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	if typeNames[ident] {
		return TYPE
	}
	return IDENTIFIER
}

type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}
