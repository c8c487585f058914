package parser

import (
	"testing"

	"github.com/aikolang/aikoc/ast"
	"github.com/aikolang/aikoc/lexer"
	"github.com/stretchr/testify/require"
)

func parseProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	l := lexer.New(src)
	p := New(l)
	prog := p.ParseProgram()
	require.Empty(t, p.Errors(), "unexpected parse errors: %v", p.Errors())
	return prog
}

func TestParseVarDeclWithInferredType(t *testing.T) {
	prog := parseProgram(t, "var x = 5;")
	require.Len(t, prog.Statements, 1)
	decl, ok := prog.Statements[0].(*ast.VarDecl)
	require.True(t, ok)
	require.Equal(t, "x", decl.Name)
	require.False(t, decl.HasType)
	lit, ok := decl.Initializer.(*ast.Literal)
	require.True(t, ok)
	require.Equal(t, ast.I32, lit.Type)
}

func TestParseVarDeclWithExplicitType(t *testing.T) {
	prog := parseProgram(t, "var x: i64 = 5;")
	decl := prog.Statements[0].(*ast.VarDecl)
	require.True(t, decl.HasType)
	require.True(t, decl.StaticType)
	require.Equal(t, ast.I64, decl.Type)
}

func TestParseBigIntLiteralClassifiesI64(t *testing.T) {
	prog := parseProgram(t, "var x = 5000000000;")
	decl := prog.Statements[0].(*ast.VarDecl)
	lit := decl.Initializer.(*ast.Literal)
	require.Equal(t, ast.I64, lit.Type)
}

func TestParseAssignmentAndIndexedAssignment(t *testing.T) {
	prog := parseProgram(t, "x = 1;\nx[0] = 2;")
	require.Len(t, prog.Statements, 2)

	a1 := prog.Statements[0].(*ast.Assignment)
	require.Equal(t, "x", a1.Name)
	require.Nil(t, a1.Index)

	a2 := prog.Statements[1].(*ast.Assignment)
	require.NotNil(t, a2.Index)
}

func TestParseCompoundAssignmentDesugars(t *testing.T) {
	prog := parseProgram(t, "x += 1;")
	a := prog.Statements[0].(*ast.Assignment)
	bin, ok := a.Value.(*ast.BinaryOp)
	require.True(t, ok)
	require.Equal(t, "+", bin.Operator)
	ident, ok := bin.Left.(*ast.Identifier)
	require.True(t, ok)
	require.Equal(t, "x", ident.Name)
}

func TestParseIfElifElse(t *testing.T) {
	src := `if x == 1 {
  print(1);
} elif x == 2 {
  print(2);
} else {
  print(3);
}`
	prog := parseProgram(t, src)
	ifStmt := prog.Statements[0].(*ast.If)
	require.Len(t, ifStmt.Then, 1)
	require.Len(t, ifStmt.Elifs, 1)
	require.Len(t, ifStmt.Else, 1)
}

func TestParseForStepInferredDescending(t *testing.T) {
	prog := parseProgram(t, "for i = 10..0 {\n  print(i);\n}")
	forStmt := prog.Statements[0].(*ast.For)
	require.Equal(t, -1, forStmt.Step)
}

func TestParseForStepDefaultsToOneForNonLiteralBounds(t *testing.T) {
	prog := parseProgram(t, "var n = 0;\nfor i = n..10 {\n  print(i);\n}")
	forStmt := prog.Statements[1].(*ast.For)
	require.Equal(t, 1, forStmt.Step)
}

func TestParseFunctionDeclAndCall(t *testing.T) {
	prog := parseProgram(t, "fun add(a: i32, b: i32) {\n  return a + b;\n}\nadd(1, 2);")
	fn := prog.Statements[0].(*ast.FunctionDecl)
	require.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)

	exprStmt := prog.Statements[1].(*ast.ExprStatement)
	call, ok := exprStmt.Expr.(*ast.FunctionCall)
	require.True(t, ok)
	require.Equal(t, "add", call.Callee)
	require.Len(t, call.Args, 2)
}

func TestParseStructDeclAndRedefinitionError(t *testing.T) {
	l := lexer.New("struct Point { x: i32, y: i32 };\nstruct Point { z: i32 };")
	p := New(l)
	p.ParseProgram()
	require.NotEmpty(t, p.Errors())
}

func TestParseStructInit(t *testing.T) {
	prog := parseProgram(t, "var p = Point { x: 1, y: 2 };")
	decl := prog.Statements[0].(*ast.VarDecl)
	init, ok := decl.Initializer.(*ast.StructInit)
	require.True(t, ok)
	require.Equal(t, "Point", init.StructName)
	require.Len(t, init.Fields, 2)
}

func TestParseMemberAccessChain(t *testing.T) {
	prog := parseProgram(t, "print(p.x);")
	printStmt := prog.Statements[0].(*ast.Print)
	member, ok := printStmt.Value.(*ast.MemberAccess)
	require.True(t, ok)
	require.Equal(t, "x", member.Field)
}

func TestParseArrayLiteralAndAccess(t *testing.T) {
	prog := parseProgram(t, "var a = [1, 2, 3];\nprint(a[0]);")
	decl := prog.Statements[0].(*ast.VarDecl)
	arr, ok := decl.Initializer.(*ast.ArrayLiteral)
	require.True(t, ok)
	require.Len(t, arr.Elements, 3)

	printStmt := prog.Statements[1].(*ast.Print)
	access, ok := printStmt.Value.(*ast.ArrayAccess)
	require.True(t, ok)
	require.Equal(t, "a", access.Name)
}

func TestParseTypeofAndInput(t *testing.T) {
	prog := parseProgram(t, "print(typeof(x));\nvar y = input(\"n: \", i32);")
	printStmt := prog.Statements[0].(*ast.Print)
	_, ok := printStmt.Value.(*ast.Typeof)
	require.True(t, ok)

	decl := prog.Statements[1].(*ast.VarDecl)
	in, ok := decl.Initializer.(*ast.Input)
	require.True(t, ok)
	require.Equal(t, ast.I32, in.TargetType)
}

func TestParseBreakContinue(t *testing.T) {
	prog := parseProgram(t, "for i = 0..10 {\n  break;\n  continue;\n}")
	forStmt := prog.Statements[0].(*ast.For)
	require.Len(t, forStmt.Body, 2)
	_, ok := forStmt.Body[0].(*ast.Break)
	require.True(t, ok)
	_, ok2 := forStmt.Body[1].(*ast.Continue)
	require.True(t, ok2)
}

func TestParseOperatorPrecedence(t *testing.T) {
	prog := parseProgram(t, "var x = 1 + 2 * 3;")
	decl := prog.Statements[0].(*ast.VarDecl)
	top, ok := decl.Initializer.(*ast.BinaryOp)
	require.True(t, ok)
	require.Equal(t, "+", top.Operator)
	right, ok := top.Right.(*ast.BinaryOp)
	require.True(t, ok)
	require.Equal(t, "*", right.Operator)
}
