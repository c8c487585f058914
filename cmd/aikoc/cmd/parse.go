package cmd

import (
	"fmt"
	"os"

	"github.com/aikolang/aikoc/ast"
	"github.com/aikolang/aikoc/internal/ierrors"
	"github.com/aikolang/aikoc/lexer"
	"github.com/aikolang/aikoc/parser"
	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse an Aiko file and pretty-print its AST",
	Long: `Parse is a debugging aid: the AST itself is not part of aikoc's
external contract (only the IR that compile emits is), but printing the
tree is useful while developing the grammar or tracking down a parse
error.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func runParse(_ *cobra.Command, args []string) error {
	filename := args[0]
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	source := string(content)

	l := lexer.New(source)
	p := parser.New(l)
	program := p.ParseProgram()

	if errs := p.Errors(); len(errs) > 0 {
		attached := ierrors.AttachSource(errs, source, filename)
		fmt.Fprint(os.Stderr, ierrors.FormatErrors(attached, true))
		return fmt.Errorf("parsing failed with %d error(s)", len(errs))
	}

	fmt.Printf("Program (%d statements)\n", len(program.Statements))
	for _, stmt := range program.Statements {
		dumpStatement(stmt, 1)
	}
	return nil
}

func indent(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		s += "  "
	}
	return s
}

func dumpStatement(stmt ast.Statement, depth int) {
	pre := indent(depth)
	switch s := stmt.(type) {
	case *ast.VarDecl:
		fmt.Printf("%sVarDecl %s (hasType=%v type=%s)\n", pre, s.Name, s.HasType, s.Type)
		if s.Initializer != nil {
			dumpExpression(s.Initializer, depth+1)
		}
	case *ast.Assignment:
		fmt.Printf("%sAssignment %s\n", pre, s.Name)
		if s.Index != nil {
			fmt.Printf("%s  Index:\n", pre)
			dumpExpression(s.Index, depth+2)
		}
		dumpExpression(s.Value, depth+1)
	case *ast.Print:
		fmt.Printf("%sPrint\n", pre)
		dumpExpression(s.Value, depth+1)
	case *ast.If:
		fmt.Printf("%sIf\n", pre)
		dumpExpression(s.Condition, depth+1)
		for _, st := range s.Then {
			dumpStatement(st, depth+1)
		}
		for _, elif := range s.Elifs {
			fmt.Printf("%sElif\n", pre)
			dumpExpression(elif.Condition, depth+1)
			for _, st := range elif.Block {
				dumpStatement(st, depth+1)
			}
		}
		if s.Else != nil {
			fmt.Printf("%sElse\n", pre)
			for _, st := range s.Else {
				dumpStatement(st, depth+1)
			}
		}
	case *ast.For:
		fmt.Printf("%sFor %s step=%d\n", pre, s.VarName, s.Step)
		dumpExpression(s.Start, depth+1)
		dumpExpression(s.End, depth+1)
		for _, st := range s.Body {
			dumpStatement(st, depth+1)
		}
	case *ast.Break:
		fmt.Printf("%sBreak\n", pre)
	case *ast.Continue:
		fmt.Printf("%sContinue\n", pre)
	case *ast.FunctionDecl:
		fmt.Printf("%sFunctionDecl %s\n", pre, s.Name)
		for _, st := range s.Body {
			dumpStatement(st, depth+1)
		}
	case *ast.Return:
		fmt.Printf("%sReturn\n", pre)
		if s.Value != nil {
			dumpExpression(s.Value, depth+1)
		}
	case *ast.StructDecl:
		fmt.Printf("%sStructDecl %s (%d fields)\n", pre, s.Name, len(s.Fields))
	case *ast.ExprStatement:
		fmt.Printf("%sExprStatement\n", pre)
		dumpExpression(s.Expr, depth+1)
	default:
		fmt.Printf("%s%T\n", pre, stmt)
	}
}

func dumpExpression(expr ast.Expression, depth int) {
	pre := indent(depth)
	switch e := expr.(type) {
	case *ast.Literal:
		fmt.Printf("%sLiteral(%s)\n", pre, e.Type)
	case *ast.Identifier:
		fmt.Printf("%sIdentifier %s\n", pre, e.Name)
	case *ast.BinaryOp:
		fmt.Printf("%sBinaryOp %s\n", pre, e.Operator)
		dumpExpression(e.Left, depth+1)
		dumpExpression(e.Right, depth+1)
	case *ast.UnaryOp:
		fmt.Printf("%sUnaryOp %s\n", pre, e.Operator)
		dumpExpression(e.Operand, depth+1)
	case *ast.FunctionCall:
		fmt.Printf("%sFunctionCall %s\n", pre, e.Callee)
		for _, a := range e.Args {
			dumpExpression(a, depth+1)
		}
	case *ast.ArrayLiteral:
		fmt.Printf("%sArrayLiteral (%d elems)\n", pre, len(e.Elements))
	case *ast.ArrayAccess:
		fmt.Printf("%sArrayAccess %s\n", pre, e.Name)
		dumpExpression(e.Index, depth+1)
	case *ast.StructInit:
		fmt.Printf("%sStructInit %s\n", pre, e.StructName)
	case *ast.MemberAccess:
		fmt.Printf("%sMemberAccess .%s\n", pre, e.Field)
		dumpExpression(e.Object, depth+1)
	case *ast.Typeof:
		fmt.Printf("%sTypeof\n", pre)
		dumpExpression(e.Value, depth+1)
	case *ast.Input:
		fmt.Printf("%sInput (target=%s)\n", pre, e.TargetType)
	default:
		fmt.Printf("%s%T\n", pre, expr)
	}
}
