// Package codegen lowers an Aiko AST into a textual, SSA-style
// intermediate representation meant for a retargetable back-end. The
// generator never executes a program; it only emits IR text.
package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aikolang/aikoc/ast"
	"github.com/aikolang/aikoc/internal/ierrors"
)

// irType is the fixed primitive-to-IR type mapping from spec §4.3.
type irType string

const (
	irI32    irType = "i32"
	irI64    irType = "i64"
	irDouble irType = "double"
	irBool   irType = "i1"
	irString irType = "i8*"
	irVoid   irType = "void"
)

func irTypeOf(t ast.PrimitiveType) irType {
	switch t {
	case ast.I32:
		return irI32
	case ast.I64:
		return irI64
	case ast.F64:
		return irDouble
	case ast.Bool:
		return irBool
	case ast.Str:
		return irString
	default:
		return irI32
	}
}

// VarBinding is one symbol-table entry: a name bound to a stack slot
// plus enough type information to drive codegen decisions later.
type VarBinding struct {
	Slot       string // the IR register holding the slot's address
	Type       ast.PrimitiveType
	StructName string
	IsArray    bool
	Size       int
	StaticType bool
}

// StructInfo is a registered struct layout: an ordered field list plus
// a name-to-index map, shared by struct-init and member-access codegen.
type StructInfo struct {
	Name       string
	FieldOrder []string
	FieldTypes map[string]ast.PrimitiveType
	FieldIndex map[string]int
}

type irBlock struct {
	label   string
	allocas []string // only meaningful on the entry block (index 0)
	lines   []string
}

// funcGen accumulates one IR function's blocks. Every local (including
// parameters, loop counters, input buffers, struct instances, and
// array literals) is materialized via a stack slot in the entry
// block — allocas always target block 0, regardless of which block is
// currently being emitted into, so slot addresses dominate all uses.
type funcGen struct {
	name    string
	params  []string // IR parameter declarations, "i32 %x" etc.
	retType irType
	blocks  []*irBlock
	cur     int
	tmp     int
}

func (f *funcGen) newBlock(prefix string, labelSeq *int) *irBlock {
	*labelSeq++
	b := &irBlock{label: fmt.Sprintf("%s%d", prefix, *labelSeq)}
	f.blocks = append(f.blocks, b)
	return b
}

func (f *funcGen) setInsert(b *irBlock) {
	for i, existing := range f.blocks {
		if existing == b {
			f.cur = i
			return
		}
	}
}

func (f *funcGen) curBlock() *irBlock {
	return f.blocks[f.cur]
}

func (f *funcGen) emit(format string, args ...interface{}) {
	f.blocks[f.cur].lines = append(f.blocks[f.cur].lines, fmt.Sprintf(format, args...))
}

func (f *funcGen) emitAlloca(format string, args ...interface{}) {
	f.blocks[0].allocas = append(f.blocks[0].allocas, fmt.Sprintf(format, args...))
}

func (f *funcGen) newTemp() string {
	f.tmp++
	return fmt.Sprintf("%%t%d", f.tmp)
}

func (f *funcGen) render() string {
	var sb strings.Builder
	params := strings.Join(f.params, ", ")
	sb.WriteString(fmt.Sprintf("define %s @%s(%s) {\n", f.retType, f.name, params))
	for i, b := range f.blocks {
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%s:\n", b.label))
		} else {
			sb.WriteString(fmt.Sprintf("\n%s:\n", b.label))
		}
		for _, l := range b.allocas {
			sb.WriteString("  " + l + "\n")
		}
		for _, l := range b.lines {
			sb.WriteString("  " + l + "\n")
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

// Generator holds all state shared across the whole module: the
// function currently being built, the scoped symbol table, the struct
// registry, and the break/continue target stacks.
type Generator struct {
	out strings.Builder

	cur          *funcGen
	savedFuncs   []*funcGen // stack of enclosing funcGens, for nested-function restore
	functionText []string   // rendered user function definitions, in declaration order
	labelSeq     int
	globalSeq    int
	globals      []string // emitted global string constants
	globalCache  map[string]string

	VariablesStack []map[string]*VarBinding
	StructTypes    map[string]*StructInfo

	BreakTargets    []string
	ContinueTargets []string

	funcSigs map[string][]ast.PrimitiveType

	needPrintf       bool
	needPuts         bool
	needExit         bool
	needAtoi         bool
	needAtof         bool
	needStrcmp       bool
	needFmod         bool
	needRuntimeInput bool

	errors []*ierrors.CompilerError
}

func New() *Generator {
	return &Generator{}
}

func (g *Generator) Errors() []*ierrors.CompilerError {
	return g.errors
}

func (g *Generator) addError(kind ierrors.Kind, msg string) {
	g.errors = append(g.errors, ierrors.New(kind, ierrors.Position{}, msg))
}

func (g *Generator) enterScope() {
	g.VariablesStack = append(g.VariablesStack, make(map[string]*VarBinding))
}

func (g *Generator) exitScope() {
	g.VariablesStack = g.VariablesStack[:len(g.VariablesStack)-1]
}

func (g *Generator) bind(name string, binding *VarBinding) {
	g.VariablesStack[len(g.VariablesStack)-1][name] = binding
}

// lookupVariable scans frames from innermost to outermost, returning
// the first match — shadowing by an inner scope is permitted.
func (g *Generator) lookupVariable(name string) *VarBinding {
	for i := len(g.VariablesStack) - 1; i >= 0; i-- {
		if b, ok := g.VariablesStack[i][name]; ok {
			return b
		}
	}
	return nil
}

// globalString interns a string constant, returning its IR name. The
// constant is rendered LLVM-style: a quoted byte string with a
// trailing NUL, non-printable/quote/backslash bytes hex-escaped.
func (g *Generator) globalString(value string) string {
	if name, ok := g.globalCache[value]; ok {
		return name
	}
	if g.globalCache == nil {
		g.globalCache = make(map[string]string)
	}
	g.globalSeq++
	name := fmt.Sprintf("@.str%d", g.globalSeq)
	g.globals = append(g.globals, fmt.Sprintf("%s = constant [%d x i8] c\"%s\\00\"", name, len(value)+1, escapeIRString(value)))
	g.globalCache[value] = name
	return name
}

func escapeIRString(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\\' || c < 0x20 || c >= 0x7f {
			fmt.Fprintf(&sb, "\\%02X", c)
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// Generate lowers program into the full textual IR module, including
// an implicit `main` that wraps every top-level statement. User
// functions are emitted as sibling IR functions.
func (g *Generator) Generate(program *ast.Program) string {
	g.out.Reset()
	g.cur = nil
	g.savedFuncs = nil
	g.functionText = nil
	g.labelSeq = 0
	g.globalSeq = 0
	g.globals = nil
	g.globalCache = nil
	g.VariablesStack = nil
	g.StructTypes = make(map[string]*StructInfo)
	g.BreakTargets = nil
	g.ContinueTargets = nil
	g.funcSigs = make(map[string][]ast.PrimitiveType)
	g.errors = nil

	// Pre-pass: register function signatures and struct layouts so
	// forward references (a function calling one declared later, a
	// struct used before its declaration appears lexically) resolve.
	for _, stmt := range program.Statements {
		switch s := stmt.(type) {
		case *ast.FunctionDecl:
			types := make([]ast.PrimitiveType, len(s.Params))
			for i, p := range s.Params {
				if p.HasType {
					types[i] = p.Type
				} else {
					types[i] = ast.I32
				}
			}
			g.funcSigs[s.Name] = types
		case *ast.StructDecl:
			g.registerStruct(s)
		}
	}

	main := &funcGen{name: "main", retType: irI32}
	main.blocks = append(main.blocks, &irBlock{label: "entry"})
	g.cur = main

	g.enterScope()
	for _, stmt := range program.Statements {
		if _, ok := stmt.(*ast.StructDecl); ok {
			continue // already registered in the pre-pass
		}
		if fn, ok := stmt.(*ast.FunctionDecl); ok {
			g.generateFunction(fn)
			continue
		}
		g.generateStatement(stmt)
	}
	g.exitScope()

	if !blockTerminated(main.curBlock()) {
		main.emit("ret i32 0")
	}
	mainText := main.render()

	for _, name := range structDeclOrder(g.StructTypes) {
		g.out.WriteString(renderStructType(g.StructTypes[name]) + "\n")
	}
	for _, decl := range g.runtimeDecls() {
		g.out.WriteString(decl + "\n")
	}
	for _, gl := range g.globals {
		g.out.WriteString(gl + "\n")
	}
	g.out.WriteString("\n")
	for _, fnText := range g.functionText {
		g.out.WriteString(fnText)
		g.out.WriteString("\n")
	}
	g.out.WriteString(mainText)

	return g.out.String()
}

// structDeclOrder returns struct names sorted alphabetically;
// StructTypes is keyed by name with no inherent order, so declarations
// are emitted alphabetically for determinism.
func structDeclOrder(types map[string]*StructInfo) []string {
	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func renderStructType(info *StructInfo) string {
	fieldTypes := make([]string, len(info.FieldOrder))
	for i, name := range info.FieldOrder {
		fieldTypes[i] = string(irTypeOf(info.FieldTypes[name]))
	}
	return fmt.Sprintf("%%struct.%s = type { %s }", info.Name, strings.Join(fieldTypes, ", "))
}

func blockTerminated(b *irBlock) bool {
	if len(b.lines) == 0 {
		return false
	}
	last := b.lines[len(b.lines)-1]
	return strings.HasPrefix(last, "br ") || strings.HasPrefix(last, "ret ") || last == "unreachable"
}

func (g *Generator) runtimeDecls() []string {
	var decls []string
	if g.needPrintf {
		decls = append(decls, "declare i32 @printf(i8*, ...)")
	}
	if g.needPuts {
		decls = append(decls, "declare i32 @puts(i8*)")
	}
	if g.needExit {
		decls = append(decls, "declare void @exit(i32)")
	}
	if g.needAtoi {
		decls = append(decls, "declare i32 @atoi(i8*)")
	}
	if g.needAtof {
		decls = append(decls, "declare double @atof(i8*)")
	}
	if g.needStrcmp {
		decls = append(decls, "declare i32 @strcmp(i8*, i8*)")
	}
	if g.needFmod {
		decls = append(decls, "declare double @fmod(double, double)")
	}
	if g.needRuntimeInput {
		decls = append(decls, "declare void @runtime_input(i8*)")
	}
	return decls
}

func (g *Generator) registerStruct(decl *ast.StructDecl) {
	if _, exists := g.StructTypes[decl.Name]; exists {
		g.addError(ierrors.Redefinition, fmt.Sprintf("struct %q already defined", decl.Name))
		return
	}
	info := &StructInfo{
		Name:       decl.Name,
		FieldTypes: make(map[string]ast.PrimitiveType),
		FieldIndex: make(map[string]int),
	}
	for i, f := range decl.Fields {
		info.FieldOrder = append(info.FieldOrder, f.Name)
		info.FieldTypes[f.Name] = f.Type
		info.FieldIndex[f.Name] = i
	}
	g.StructTypes[decl.Name] = info
}

// generateFunction emits a user FunctionDecl as a sibling IR function,
// saving and restoring the enclosing function context around it —
// the "state machine" transition of spec §4.3: entering a function
// pushes a symbol frame and a fresh funcGen; exiting pops both and
// restores the caller's insertion point.
func (g *Generator) generateFunction(decl *ast.FunctionDecl) {
	fn := &funcGen{name: decl.Name, retType: irI32}
	fn.blocks = append(fn.blocks, &irBlock{label: "entry"})

	g.savedFuncs = append(g.savedFuncs, g.cur)
	g.cur = fn

	g.enterScope()
	for _, param := range decl.Params {
		pType := ast.I32
		if param.HasType {
			pType = param.Type
		}
		ty := irTypeOf(pType)
		argReg := "%arg_" + param.Name
		fn.params = append(fn.params, fmt.Sprintf("%s %s", ty, argReg))

		slot := fmt.Sprintf("%%%s", param.Name)
		fn.emitAlloca("%s = alloca %s", slot, ty)
		fn.emit("store %s %s, %s* %s", ty, argReg, ty, slot)
		g.bind(param.Name, &VarBinding{Slot: slot, Type: pType})
	}

	for _, stmt := range decl.Body {
		g.generateStatement(stmt)
	}
	g.exitScope()

	if !blockTerminated(fn.curBlock()) {
		fn.emit("ret i32 0")
	}

	g.functionText = append(g.functionText, fn.render())

	g.cur = g.savedFuncs[len(g.savedFuncs)-1]
	g.savedFuncs = g.savedFuncs[:len(g.savedFuncs)-1]
}
