package codegen

import (
	"strings"
	"testing"

	"github.com/aikolang/aikoc/lexer"
	"github.com/aikolang/aikoc/parser"
	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, src string) string {
	t.Helper()
	l := lexer.New(src)
	p := parser.New(l)
	prog := p.ParseProgram()
	require.Empty(t, p.Errors(), "unexpected parse errors: %v", p.Errors())

	gen := New()
	out := gen.Generate(prog)
	require.Empty(t, gen.Errors(), "unexpected codegen errors: %v", gen.Errors())
	return out
}

func TestVarDeclAllocaInEntryBlock(t *testing.T) {
	out := compile(t, "var x = 5;")
	require.Contains(t, out, "define i32 @main()")
	require.Contains(t, out, "%x = alloca i32")
}

func TestEntryBlockAllocaSurvivesNestedControlFlow(t *testing.T) {
	// Spec invariant: every local's alloca lives in the entry block
	// regardless of where it's declared lexically, even inside a loop.
	out := compile(t, `for i = 0..3 {
  var x = i;
  print(x);
}`)
	lines := strings.Split(out, "\n")
	entryIdx := -1
	allocaIdx := -1
	for i, l := range lines {
		if strings.HasPrefix(l, "entry:") {
			entryIdx = i
		}
		if strings.Contains(l, "%x = alloca") {
			allocaIdx = i
		}
	}
	require.Greater(t, entryIdx, -1)
	require.Greater(t, allocaIdx, entryIdx)
	// it must appear before the first non-entry block label
	nextLabelIdx := -1
	for i := entryIdx + 1; i < len(lines); i++ {
		if strings.HasSuffix(lines[i], ":") && !strings.Contains(lines[i], "=") {
			nextLabelIdx = i
			break
		}
	}
	require.Greater(t, nextLabelIdx, -1)
	require.Less(t, allocaIdx, nextLabelIdx)
}

func TestBinaryOpFloatPromotion(t *testing.T) {
	out := compile(t, "var x = 1 + 2.5;")
	require.Contains(t, out, "sitofp i32")
	require.Contains(t, out, "fadd double")
}

func TestStringEqualityUsesStrcmp(t *testing.T) {
	out := compile(t, `var a = "x";
var b = "y";
print(a == b);`)
	require.Contains(t, out, "call i32 @strcmp(")
	require.Contains(t, out, "declare i32 @strcmp(i8*, i8*)")
}

func TestIfElseGeneratesMergeBlock(t *testing.T) {
	out := compile(t, `if 1 == 1 {
  print(1);
} else {
  print(2);
}`)
	require.Contains(t, out, "if_then")
	require.Contains(t, out, "if_else")
	require.Contains(t, out, "if_end")
}

func TestForLoopFourBlockShape(t *testing.T) {
	out := compile(t, "for i = 0..10 {\n  print(i);\n}")
	require.Contains(t, out, "for_cond")
	require.Contains(t, out, "for_body")
	require.Contains(t, out, "for_inc")
	require.Contains(t, out, "for_end")
}

func TestBreakBranchesToLoopEnd(t *testing.T) {
	out := compile(t, "for i = 0..10 {\n  break;\n}")
	require.Contains(t, out, "br label %for_end")
}

func TestForLoopConditionIgnoresStepSign(t *testing.T) {
	// spec §4.3: the loop condition is unconditionally counter < end,
	// regardless of step direction — a descending range with a
	// start already above its end must run zero iterations.
	out := compile(t, "for i = 3..0 {\n  print(i);\n}")
	require.Contains(t, out, "icmp slt i32")
	require.NotContains(t, out, "icmp sge i32")
}

func TestArrayAccessEmitsBoundsCheck(t *testing.T) {
	out := compile(t, `var a = [1, 2, 3];
print(a[0]);`)
	require.Contains(t, out, "icmp uge i32")
	require.Contains(t, out, "oob_error")
	require.Contains(t, out, "call void @exit(i32 1)")
	require.Contains(t, out, "unreachable")
}

func TestStructInitRequiresExhaustiveFields(t *testing.T) {
	l := lexer.New(`struct Point { x: i32, y: i32 };
var p = Point { x: 1 };`)
	p := parser.New(l)
	prog := p.ParseProgram()
	require.Empty(t, p.Errors())

	gen := New()
	gen.Generate(prog)
	require.NotEmpty(t, gen.Errors())
}

func TestStructRedefinitionIsFatal(t *testing.T) {
	l := lexer.New(`struct Point { x: i32 };
struct Point { y: i32 };`)
	p := parser.New(l)
	prog := p.ParseProgram()

	gen := New()
	gen.Generate(prog)
	require.NotEmpty(t, gen.Errors())
}

func TestReassigningStaticallyTypedVarWithWrongTypeIsTypeMismatch(t *testing.T) {
	l := lexer.New(`var x: i32 = 41;
x = "s";`)
	p := parser.New(l)
	prog := p.ParseProgram()
	require.Empty(t, p.Errors())

	gen := New()
	gen.Generate(prog)
	require.NotEmpty(t, gen.Errors())
}

func TestIndexedAssignmentWithWrongElementTypeIsTypeMismatch(t *testing.T) {
	l := lexer.New(`var a = [1, 2, 3];
a[0] = "x";`)
	p := parser.New(l)
	prog := p.ParseProgram()
	require.Empty(t, p.Errors())

	gen := New()
	gen.Generate(prog)
	require.NotEmpty(t, gen.Errors())
}

func TestFunctionDeclEmittedAsSiblingFunction(t *testing.T) {
	out := compile(t, "fun add(a: i32, b: i32) {\n  return a + b;\n}")
	require.Contains(t, out, "define i32 @add(i32 %arg_a, i32 %arg_b)")
}

func TestImplicitReturnZero(t *testing.T) {
	out := compile(t, "var x = 1;")
	require.Contains(t, out, "ret i32 0")
}

func TestPrintFormatSelectionByType(t *testing.T) {
	out := compile(t, `print(1);
print(1.5);
print("hi");
print(true);
print(5000000000);`)
	require.Contains(t, out, `c"%d\0A\00"`)
	require.Contains(t, out, `c"%f\0A\00"`)
	require.Contains(t, out, `c"%s\0A\00"`)
	require.Contains(t, out, `c"%ld\0A\00"`)
}

func TestSimpleProgramIRSnapshot(t *testing.T) {
	out := compile(t, `fun add(a: i32, b: i32) {
  return a + b;
}
var x = add(1, 2);
print(x);`)
	snaps.MatchSnapshot(t, out)
}
