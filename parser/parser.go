package parser

import (
	"fmt"
	"strconv"

	"github.com/aikolang/aikoc/ast"
	"github.com/aikolang/aikoc/internal/ierrors"
	"github.com/aikolang/aikoc/lexer"
)

// Operator precedence levels, matching the equality -> comparison ->
// additive -> multiplicative -> unary -> primary cascade.
const (
	_ int = iota
	LOWEST
	EQUALITY
	COMPARE
	ADDITIVE
	MULTIPLICATIVE
	PREFIX
	INDEX
)

// tokenSource is satisfied by *lexer.Lexer and by the synthetic
// token-slice lexer parseExpressionUntil builds for bounded
// sub-expressions (if/elif conditions, for's upper bound).
type tokenSource interface {
	NextToken() lexer.Token
}

type Parser struct {
	l      tokenSource
	errors []*ierrors.CompilerError

	curToken  lexer.Token
	peekToken lexer.Token

	structNames map[string]bool
}

func New(l *lexer.Lexer) *Parser {
	p := newFromSource(l)
	return p
}

func newFromSource(l tokenSource) *Parser {
	p := &Parser{
		l:           l,
		structNames: make(map[string]bool),
	}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) Errors() []*ierrors.CompilerError {
	return p.errors
}

func (p *Parser) addError(kind ierrors.Kind, msg string) {
	p.errors = append(p.errors, ierrors.New(kind, ierrors.Position{Line: p.curToken.Line, Column: p.curToken.Column}, msg))
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t lexer.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) expectPeek(t lexer.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.addError(ierrors.ParseError, fmt.Sprintf("expected %s, got %s (%q)", t, p.peekToken.Type, p.peekToken.Literal))
	return false
}

// ParseProgram parses the whole token stream into a Program.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{}
	for !p.curTokenIs(lexer.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		p.nextToken()
	}
	return program
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case lexer.VAR:
		return p.parseVarDecl()
	case lexer.PRINT:
		return p.parsePrintStmt()
	case lexer.IF:
		return p.parseIfStmt()
	case lexer.FOR:
		return p.parseForStmt()
	case lexer.RETURN:
		return p.parseReturnStmt()
	case lexer.FUN:
		return p.parseFunctionDecl()
	case lexer.BREAK:
		stmt := &ast.Break{Token: p.curToken}
		if !p.expectPeek(lexer.SEMICOLON) {
			return nil
		}
		return stmt
	case lexer.CONTINUE:
		stmt := &ast.Continue{Token: p.curToken}
		if !p.expectPeek(lexer.SEMICOLON) {
			return nil
		}
		return stmt
	case lexer.STRUCT:
		return p.parseStructDecl()
	case lexer.IDENTIFIER:
		return p.parseIdentifierStmt()
	default:
		p.addError(ierrors.ParseError, fmt.Sprintf("unexpected token %s (%q)", p.curToken.Type, p.curToken.Literal))
		return nil
	}
}

// parseBlock parses `{ stmt* }` assuming curToken is LBRACE on entry;
// leaves curToken on the closing RBRACE.
func (p *Parser) parseBlock() []ast.Statement {
	var block []ast.Statement
	p.nextToken()
	for !p.curTokenIs(lexer.RBRACE) && !p.curTokenIs(lexer.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			block = append(block, stmt)
		}
		p.nextToken()
	}
	return block
}

func (p *Parser) parseType() (ast.PrimitiveType, string) {
	name := p.curToken.Literal
	t := ast.ParseType(name)
	if t == ast.Unknown {
		return ast.StructType, name
	}
	return t, ""
}

func (p *Parser) parseVarDecl() ast.Statement {
	decl := &ast.VarDecl{Token: p.curToken}
	if !p.expectPeek(lexer.IDENTIFIER) {
		return nil
	}
	decl.Name = p.curToken.Literal

	if p.peekTokenIs(lexer.COLON) {
		p.nextToken()
		p.nextToken()
		decl.HasType = true
		decl.StaticType = true
		decl.Type, decl.StructName = p.parseType()
	}

	if p.peekTokenIs(lexer.ASSIGN) {
		p.nextToken()
		p.nextToken()
		decl.Initializer = p.parseExpression()
	}

	if !p.expectPeek(lexer.SEMICOLON) {
		return nil
	}
	return decl
}

func (p *Parser) parsePrintStmt() ast.Statement {
	stmt := &ast.Print{Token: p.curToken}
	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Value = p.parseExpression()
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	if !p.expectPeek(lexer.SEMICOLON) {
		return nil
	}
	return stmt
}

// parseExpressionUntil buffers tokens from the current position up to
// (but not including) a token of kind end, appends a synthetic EOF,
// and parses the captured slice with a fresh sub-parser. Used for
// if/elif conditions and the upper bound of for, both of which are
// followed directly by `{` with no other delimiter.
func (p *Parser) parseExpressionUntil(end lexer.TokenType) ast.Expression {
	var tokens []lexer.Token
	for !p.curTokenIs(end) && !p.curTokenIs(lexer.EOF) {
		tokens = append(tokens, p.curToken)
		p.nextToken()
	}
	tokens = append(tokens, lexer.Token{Type: lexer.EOF})

	sub := newFromSource(&tokenSliceLexer{tokens: tokens})
	expr := sub.parseExpression()
	p.errors = append(p.errors, sub.errors...)
	return expr
}

type tokenSliceLexer struct {
	tokens []lexer.Token
	pos    int
}

func (t *tokenSliceLexer) NextToken() lexer.Token {
	if t.pos >= len(t.tokens) {
		return lexer.Token{Type: lexer.EOF}
	}
	tok := t.tokens[t.pos]
	t.pos++
	return tok
}

func (p *Parser) parseIfStmt() ast.Statement {
	stmt := &ast.If{Token: p.curToken}
	p.nextToken()
	stmt.Condition = p.parseExpressionUntil(lexer.LBRACE)
	if !p.curTokenIs(lexer.LBRACE) {
		p.addError(ierrors.ParseError, "expected '{' after if condition")
		return nil
	}
	stmt.Then = p.parseBlock()

	for p.peekTokenIs(lexer.ELIF) {
		p.nextToken()
		clause := ast.ElifClause{}
		p.nextToken()
		clause.Condition = p.parseExpressionUntil(lexer.LBRACE)
		if !p.curTokenIs(lexer.LBRACE) {
			p.addError(ierrors.ParseError, "expected '{' after elif condition")
			return nil
		}
		clause.Block = p.parseBlock()
		stmt.Elifs = append(stmt.Elifs, clause)
	}

	if p.peekTokenIs(lexer.ELSE) {
		p.nextToken()
		if !p.expectPeek(lexer.LBRACE) {
			return nil
		}
		stmt.Else = p.parseBlock()
	}

	return stmt
}

func (p *Parser) parseForStmt() ast.Statement {
	stmt := &ast.For{Token: p.curToken}
	if !p.expectPeek(lexer.IDENTIFIER) {
		return nil
	}
	stmt.VarName = p.curToken.Literal
	if !p.expectPeek(lexer.ASSIGN) {
		return nil
	}
	p.nextToken()
	stmt.Start = p.parseExpression()
	if !p.expectPeek(lexer.RANGE) {
		return nil
	}
	p.nextToken()
	stmt.End = p.parseExpressionUntil(lexer.LBRACE)
	if !p.curTokenIs(lexer.LBRACE) {
		p.addError(ierrors.ParseError, "expected '{' after for range")
		return nil
	}

	// Step is inferred at parse time only when both bounds are integer
	// literal AST nodes; otherwise it defaults to +1 even if that will
	// make a descending range run zero iterations at codegen time.
	stmt.Step = 1
	startLit, startIsLit := stmt.Start.(*ast.Literal)
	endLit, endIsLit := stmt.End.(*ast.Literal)
	if startIsLit && endIsLit && startLit.Type != ast.F64 && endLit.Type != ast.F64 {
		startVal := literalIntValue(startLit)
		endVal := literalIntValue(endLit)
		if startVal > endVal {
			stmt.Step = -1
		}
	}

	stmt.Body = p.parseBlock()
	return stmt
}

func literalIntValue(l *ast.Literal) int64 {
	if l.Type == ast.I64 {
		return l.I64Value
	}
	return int64(l.I32Value)
}

func (p *Parser) parseReturnStmt() ast.Statement {
	stmt := &ast.Return{Token: p.curToken}
	if p.peekTokenIs(lexer.SEMICOLON) {
		p.nextToken()
		return stmt
	}
	p.nextToken()
	stmt.Value = p.parseExpression()
	if !p.expectPeek(lexer.SEMICOLON) {
		return nil
	}
	return stmt
}

func (p *Parser) parseFunctionDecl() ast.Statement {
	decl := &ast.FunctionDecl{Token: p.curToken}
	if !p.expectPeek(lexer.IDENTIFIER) {
		return nil
	}
	decl.Name = p.curToken.Literal
	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}

	for !p.peekTokenIs(lexer.RPAREN) {
		if !p.expectPeek(lexer.IDENTIFIER) {
			return nil
		}
		param := ast.Param{Name: p.curToken.Literal}
		if p.peekTokenIs(lexer.COLON) {
			p.nextToken()
			p.nextToken()
			param.HasType = true
			param.Type, _ = p.parseType()
		}
		decl.Params = append(decl.Params, param)
		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
		}
	}
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	decl.Body = p.parseBlock()
	return decl
}

func (p *Parser) parseStructDecl() ast.Statement {
	decl := &ast.StructDecl{Token: p.curToken}
	if !p.expectPeek(lexer.IDENTIFIER) {
		return nil
	}
	decl.Name = p.curToken.Literal
	if p.structNames[decl.Name] {
		p.addError(ierrors.Redefinition, fmt.Sprintf("struct %q already defined", decl.Name))
	}
	p.structNames[decl.Name] = true

	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	p.nextToken()
	for !p.curTokenIs(lexer.RBRACE) {
		if !p.curTokenIs(lexer.IDENTIFIER) {
			p.addError(ierrors.ParseError, "expected field name in struct declaration")
			return nil
		}
		field := ast.StructField{Name: p.curToken.Literal}
		if !p.expectPeek(lexer.COLON) {
			return nil
		}
		p.nextToken()
		if !p.curTokenIs(lexer.TYPE) {
			p.addError(ierrors.ParseError, fmt.Sprintf("expected primitive type for struct field %q, got %s (%q)", field.Name, p.curToken.Type, p.curToken.Literal))
			return nil
		}
		field.Type, _ = p.parseType()
		decl.Fields = append(decl.Fields, field)
		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
		}
		p.nextToken()
	}
	if !p.expectPeek(lexer.SEMICOLON) {
		return nil
	}
	return decl
}

// parseIdentifierStmt handles every identifier-led statement form:
// plain assignment, indexed assignment, compound assignment (desugared
// here to `name = name op expr`), and bare function-call statements.
func (p *Parser) parseIdentifierStmt() ast.Statement {
	name := p.curToken.Literal
	nameTok := p.curToken

	if p.peekTokenIs(lexer.LPAREN) {
		p.nextToken()
		call := p.parseCallArgs(nameTok, name)
		if !p.expectPeek(lexer.SEMICOLON) {
			return nil
		}
		return &ast.ExprStatement{Token: nameTok, Expr: call}
	}

	var index ast.Expression
	if p.peekTokenIs(lexer.LBRACKET) {
		p.nextToken()
		p.nextToken()
		index = p.parseExpression()
		if !p.expectPeek(lexer.RBRACKET) {
			return nil
		}
	}

	if p.peekTokenIs(lexer.ASSIGN) {
		p.nextToken()
		assignTok := p.curToken
		p.nextToken()
		value := p.parseExpression()
		if !p.expectPeek(lexer.SEMICOLON) {
			return nil
		}
		return &ast.Assignment{Token: assignTok, Name: name, Index: index, Value: value}
	}

	if p.peekTokenIs(lexer.OPERATOR) && len(p.peekToken.Literal) == 2 && p.peekToken.Literal[1] == '=' {
		p.nextToken()
		assignTok := p.curToken
		op := string(p.curToken.Literal[0])
		p.nextToken()
		rhs := p.parseExpression()
		if !p.expectPeek(lexer.SEMICOLON) {
			return nil
		}
		var target ast.Expression = &ast.Identifier{Token: nameTok, Name: name}
		if index != nil {
			target = &ast.ArrayAccess{Token: nameTok, Name: name, Index: index}
		}
		value := &ast.BinaryOp{Token: assignTok, Left: target, Operator: op, Right: rhs}
		return &ast.Assignment{Token: assignTok, Name: name, Index: index, Value: value}
	}

	p.addError(ierrors.ParseError, fmt.Sprintf("unexpected token %s after identifier %q", p.peekToken.Type, name))
	return nil
}

func (p *Parser) parseCallArgs(tok lexer.Token, callee string) ast.Expression {
	call := &ast.FunctionCall{Token: tok, Callee: callee}
	if p.peekTokenIs(lexer.RPAREN) {
		p.nextToken()
		return call
	}
	p.nextToken()
	call.Args = append(call.Args, p.parseExpression())
	for p.peekTokenIs(lexer.COMMA) {
		p.nextToken()
		p.nextToken()
		call.Args = append(call.Args, p.parseExpression())
	}
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	return call
}

// --- expression parsing: equality -> comparison -> additive -> multiplicative -> unary -> primary ---

func (p *Parser) parseExpression() ast.Expression {
	return p.parseEquality()
}

func (p *Parser) parseEquality() ast.Expression {
	left := p.parseComparison()
	for p.peekTokenIs(lexer.COMPARISON) && (p.peekToken.Literal == "==" || p.peekToken.Literal == "!=") {
		p.nextToken()
		tok := p.curToken
		op := p.curToken.Literal
		p.nextToken()
		right := p.parseComparison()
		left = &ast.BinaryOp{Token: tok, Left: left, Operator: op, Right: right}
	}
	return left
}

func (p *Parser) parseComparison() ast.Expression {
	left := p.parseAdditive()
	for p.peekTokenIs(lexer.COMPARISON) && p.peekToken.Literal != "==" && p.peekToken.Literal != "!=" {
		p.nextToken()
		tok := p.curToken
		op := p.curToken.Literal
		p.nextToken()
		right := p.parseAdditive()
		left = &ast.BinaryOp{Token: tok, Left: left, Operator: op, Right: right}
	}
	return left
}

func (p *Parser) parseAdditive() ast.Expression {
	left := p.parseMultiplicative()
	for p.peekTokenIs(lexer.OPERATOR) && (p.peekToken.Literal == "+" || p.peekToken.Literal == "-") {
		p.nextToken()
		tok := p.curToken
		op := p.curToken.Literal
		p.nextToken()
		right := p.parseMultiplicative()
		left = &ast.BinaryOp{Token: tok, Left: left, Operator: op, Right: right}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expression {
	left := p.parseUnary()
	for p.peekTokenIs(lexer.OPERATOR) && (p.peekToken.Literal == "*" || p.peekToken.Literal == "/" || p.peekToken.Literal == "%") {
		p.nextToken()
		tok := p.curToken
		op := p.curToken.Literal
		p.nextToken()
		right := p.parseUnary()
		left = &ast.BinaryOp{Token: tok, Left: left, Operator: op, Right: right}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expression {
	if p.curTokenIs(lexer.OPERATOR) && (p.curToken.Literal == "-" || p.curToken.Literal == "!") {
		tok := p.curToken
		op := p.curToken.Literal
		p.nextToken()
		operand := p.parseUnary()
		return &ast.UnaryOp{Token: tok, Operator: op, Operand: operand}
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() ast.Expression {
	switch p.curToken.Type {
	case lexer.INT_LITERAL:
		return p.parseIntLiteral()
	case lexer.DOUBLE_LITERAL:
		v, _ := strconv.ParseFloat(p.curToken.Literal, 64)
		return &ast.Literal{Token: p.curToken, Type: ast.F64, F64Value: v}
	case lexer.STRING_LITERAL:
		return &ast.Literal{Token: p.curToken, Type: ast.Str, StrValue: p.curToken.Literal}
	case lexer.BOOLEAN_LITERAL:
		return &ast.Literal{Token: p.curToken, Type: ast.Bool, BoolValue: p.curToken.Literal == "true"}
	case lexer.INPUT:
		return p.parseInput()
	case lexer.TYPEOF:
		tok := p.curToken
		p.nextToken()
		val := p.parseExpression()
		return &ast.Typeof{Token: tok, Value: val}
	case lexer.LPAREN:
		p.nextToken()
		expr := p.parseExpression()
		if !p.expectPeek(lexer.RPAREN) {
			return nil
		}
		return expr
	case lexer.LBRACKET:
		return p.parseArrayLiteral()
	case lexer.IDENTIFIER:
		return p.parseIdentifierExpr()
	default:
		p.addError(ierrors.ParseError, fmt.Sprintf("unexpected token %s (%q) in expression", p.curToken.Type, p.curToken.Literal))
		return nil
	}
}

func (p *Parser) parseIntLiteral() ast.Expression {
	tok := p.curToken
	v, err := strconv.ParseInt(tok.Literal, 10, 64)
	if err != nil {
		p.addError(ierrors.ParseError, fmt.Sprintf("invalid integer literal %q", tok.Literal))
		return nil
	}
	if v >= -(1<<31) && v < (1<<31) {
		return &ast.Literal{Token: tok, Type: ast.I32, I32Value: int32(v)}
	}
	return &ast.Literal{Token: tok, Type: ast.I64, I64Value: v}
}

func (p *Parser) parseInput() ast.Expression {
	tok := p.curToken
	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	p.nextToken()
	input := &ast.Input{Token: tok}
	input.Prompt = p.parseExpression()
	if !p.expectPeek(lexer.COMMA) {
		return nil
	}
	if !p.expectPeek(lexer.TYPE) {
		return nil
	}
	input.TargetType, _ = p.parseType()
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	return input
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	tok := p.curToken
	lit := &ast.ArrayLiteral{Token: tok}
	if p.peekTokenIs(lexer.RBRACKET) {
		p.nextToken()
		return lit
	}
	p.nextToken()
	lit.Elements = append(lit.Elements, p.parseExpression())
	for p.peekTokenIs(lexer.COMMA) {
		p.nextToken()
		p.nextToken()
		lit.Elements = append(lit.Elements, p.parseExpression())
	}
	if !p.expectPeek(lexer.RBRACKET) {
		return nil
	}
	return lit
}

// parseIdentifierExpr handles identifier, struct-init (one-token
// lookahead for `{`), an optional `(args)` call or `[expr]` index
// directly after the name, and then any number of `.field` accesses.
// A call or index after a `.field` access is not parsed.
func (p *Parser) parseIdentifierExpr() ast.Expression {
	tok := p.curToken
	name := p.curToken.Literal

	if p.peekTokenIs(lexer.LBRACE) {
		return p.parseStructInit(tok, name)
	}

	var expr ast.Expression = &ast.Identifier{Token: tok, Name: name}

	if p.peekTokenIs(lexer.LPAREN) {
		p.nextToken()
		expr = p.parseCallArgs(tok, name)
	} else if p.peekTokenIs(lexer.LBRACKET) {
		p.nextToken()
		p.nextToken()
		index := p.parseExpression()
		if !p.expectPeek(lexer.RBRACKET) {
			return nil
		}
		expr = &ast.ArrayAccess{Token: tok, Name: name, Index: index}
	}

	for p.peekTokenIs(lexer.DOT) {
		p.nextToken()
		if !p.expectPeek(lexer.IDENTIFIER) {
			return nil
		}
		expr = &ast.MemberAccess{Token: p.curToken, Object: expr, Field: p.curToken.Literal}
	}

	return expr
}

func (p *Parser) parseStructInit(tok lexer.Token, name string) ast.Expression {
	init := &ast.StructInit{Token: tok, StructName: name}
	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	p.nextToken()
	for !p.curTokenIs(lexer.RBRACE) {
		if !p.curTokenIs(lexer.IDENTIFIER) {
			p.addError(ierrors.ParseError, "expected field name in struct initializer")
			return nil
		}
		fieldName := p.curToken.Literal
		if !p.expectPeek(lexer.COLON) {
			return nil
		}
		p.nextToken()
		value := p.parseExpression()
		init.Fields = append(init.Fields, ast.StructFieldInit{Name: fieldName, Value: value})
		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
		}
		p.nextToken()
	}
	return init
}
