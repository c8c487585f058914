package codegen

import (
	"fmt"
	"strconv"

	"github.com/aikolang/aikoc/ast"
	"github.com/aikolang/aikoc/internal/ierrors"
)

// value is an evaluated expression result: a textual IR operand (a
// register name or an immediate constant) tagged with its primitive
// type, plus a struct-type name when Type == ast.StructType.
type value struct {
	text       string
	typ        ast.PrimitiveType
	structName string
	isArray    bool
	arraySize  int
}

func (g *Generator) generateExpression(expr ast.Expression) value {
	switch e := expr.(type) {
	case *ast.Literal:
		return g.generateLiteral(e)
	case *ast.Identifier:
		return g.generateIdentifier(e)
	case *ast.UnaryOp:
		return g.generateUnary(e)
	case *ast.BinaryOp:
		return g.generateBinary(e)
	case *ast.Typeof:
		return g.generateTypeof(e)
	case *ast.Input:
		return g.generateInput(e)
	case *ast.ArrayLiteral:
		return g.generateArrayLiteral(e)
	case *ast.ArrayAccess:
		ptr, elemType := g.generateArrayElementPtr(e)
		ty := irTypeOf(elemType)
		tmp := g.cur.newTemp()
		g.cur.emit("%s = load %s, %s* %s", tmp, ty, ty, ptr)
		return value{text: tmp, typ: elemType}
	case *ast.FunctionCall:
		return g.generateFunctionCall(e)
	case *ast.StructInit:
		return g.generateStructInit(e)
	case *ast.MemberAccess:
		return g.generateMemberAccess(e)
	default:
		g.addError(ierrors.InvalidOperation, "unsupported expression")
		return value{text: "0", typ: ast.I32}
	}
}

func (g *Generator) generateLiteral(lit *ast.Literal) value {
	switch lit.Type {
	case ast.I32:
		return value{text: strconv.FormatInt(int64(lit.I32Value), 10), typ: ast.I32}
	case ast.I64:
		return value{text: strconv.FormatInt(lit.I64Value, 10), typ: ast.I64}
	case ast.F64:
		return value{text: strconv.FormatFloat(lit.F64Value, 'e', 6, 64), typ: ast.F64}
	case ast.Bool:
		if lit.BoolValue {
			return value{text: "1", typ: ast.Bool}
		}
		return value{text: "0", typ: ast.Bool}
	case ast.Str:
		name := g.globalString(lit.StrValue)
		return value{text: name, typ: ast.Str}
	default:
		g.addError(ierrors.InvalidOperation, "literal has unknown type")
		return value{text: "0", typ: ast.I32}
	}
}

// generateIdentifier loads the named variable's current value. A
// struct-typed variable's slot pointer is returned directly, without a
// load, since structs are always accessed by address.
func (g *Generator) generateIdentifier(id *ast.Identifier) value {
	b := g.lookupVariable(id.Name)
	if b == nil {
		g.addError(ierrors.UnknownName, fmt.Sprintf("undefined variable %q", id.Name))
		return value{text: "0", typ: ast.I32}
	}
	if b.Type == ast.StructType {
		return value{text: b.Slot, typ: ast.StructType, structName: b.StructName}
	}
	if b.IsArray {
		return value{text: b.Slot, typ: b.Type, isArray: true, arraySize: b.Size}
	}
	ty := irTypeOf(b.Type)
	tmp := g.cur.newTemp()
	g.cur.emit("%s = load %s, %s* %s", tmp, ty, ty, b.Slot)
	return value{text: tmp, typ: b.Type}
}

func (g *Generator) generateUnary(u *ast.UnaryOp) value {
	operand := g.generateExpression(u.Operand)
	ty := irTypeOf(operand.typ)
	tmp := g.cur.newTemp()

	switch u.Operator {
	case "-":
		if operand.typ == ast.F64 {
			g.cur.emit("%s = fneg %s %s", tmp, ty, operand.text)
		} else if operand.typ == ast.I32 || operand.typ == ast.I64 {
			g.cur.emit("%s = sub %s 0, %s", tmp, ty, operand.text)
		} else {
			g.addError(ierrors.InvalidOperation, "unary '-' applied to non-numeric type")
		}
		return value{text: tmp, typ: operand.typ}
	case "!":
		if operand.typ != ast.Bool {
			g.addError(ierrors.InvalidOperation, "unary '!' applied to non-bool type")
		}
		g.cur.emit("%s = xor i1 %s, 1", tmp, operand.text)
		return value{text: tmp, typ: ast.Bool}
	default:
		g.addError(ierrors.InvalidOperation, fmt.Sprintf("unknown unary operator %q", u.Operator))
		return operand
	}
}

// generateBinary implements spec §4.3's promotion rule: if either
// operand is f64, the other is promoted (sitofp) and the floating form
// of the operator is emitted; string equality routes through strcmp.
func (g *Generator) generateBinary(b *ast.BinaryOp) value {
	left := g.generateExpression(b.Left)
	right := g.generateExpression(b.Right)

	if left.typ == ast.Str || right.typ == ast.Str {
		return g.generateStringEq(b.Operator, left, right)
	}

	isFloat := left.typ == ast.F64 || right.typ == ast.F64
	if isFloat {
		left = g.promoteToFloat(left)
		right = g.promoteToFloat(right)
	}

	ty := irTypeOf(left.typ)
	if isFloat {
		ty = irDouble
	}
	tmp := g.cur.newTemp()

	switch b.Operator {
	case "+":
		if isFloat {
			g.cur.emit("%s = fadd %s %s, %s", tmp, ty, left.text, right.text)
		} else {
			g.cur.emit("%s = add %s %s, %s", tmp, ty, left.text, right.text)
		}
	case "-":
		if isFloat {
			g.cur.emit("%s = fsub %s %s, %s", tmp, ty, left.text, right.text)
		} else {
			g.cur.emit("%s = sub %s %s, %s", tmp, ty, left.text, right.text)
		}
	case "*":
		if isFloat {
			g.cur.emit("%s = fmul %s %s, %s", tmp, ty, left.text, right.text)
		} else {
			g.cur.emit("%s = mul %s %s, %s", tmp, ty, left.text, right.text)
		}
	case "/":
		if isFloat {
			g.cur.emit("%s = fdiv %s %s, %s", tmp, ty, left.text, right.text)
		} else {
			g.cur.emit("%s = sdiv %s %s, %s", tmp, ty, left.text, right.text)
		}
	case "%":
		if isFloat {
			g.needFmod = true
			g.cur.emit("%s = call double @fmod(double %s, double %s)", tmp, left.text, right.text)
		} else {
			g.cur.emit("%s = srem %s %s, %s", tmp, ty, left.text, right.text)
		}
		resultType := left.typ
		return value{text: tmp, typ: resultTypeFor(isFloat, resultType)}
	case "==", "!=", "<", ">", "<=", ">=":
		cmp := cmpOp(b.Operator, isFloat)
		if isFloat {
			g.cur.emit("%s = fcmp %s %s %s, %s", tmp, cmp, ty, left.text, right.text)
		} else {
			g.cur.emit("%s = icmp %s %s %s, %s", tmp, cmp, ty, left.text, right.text)
		}
		return value{text: tmp, typ: ast.Bool}
	default:
		g.addError(ierrors.InvalidOperation, fmt.Sprintf("unknown binary operator %q", b.Operator))
		return value{text: "0", typ: ast.I32}
	}

	return value{text: tmp, typ: resultTypeFor(isFloat, left.typ)}
}

func resultTypeFor(isFloat bool, fallback ast.PrimitiveType) ast.PrimitiveType {
	if isFloat {
		return ast.F64
	}
	if fallback == ast.I64 {
		return ast.I64
	}
	return ast.I32
}

func cmpOp(op string, isFloat bool) string {
	if isFloat {
		switch op {
		case "==":
			return "oeq"
		case "!=":
			return "one"
		case "<":
			return "olt"
		case ">":
			return "ogt"
		case "<=":
			return "ole"
		case ">=":
			return "oge"
		}
	}
	switch op {
	case "==":
		return "eq"
	case "!=":
		return "ne"
	case "<":
		return "slt"
	case ">":
		return "sgt"
	case "<=":
		return "sle"
	case ">=":
		return "sge"
	}
	return "eq"
}

func (g *Generator) promoteToFloat(v value) value {
	if v.typ == ast.F64 {
		return v
	}
	tmp := g.cur.newTemp()
	g.cur.emit("%s = sitofp %s %s to double", tmp, irTypeOf(v.typ), v.text)
	return value{text: tmp, typ: ast.F64}
}

func (g *Generator) generateStringEq(op string, left, right value) value {
	g.needStrcmp = true
	tmp := g.cur.newTemp()
	g.cur.emit("%s = call i32 @strcmp(i8* %s, i8* %s)", tmp, left.text, right.text)
	cmp := g.cur.newTemp()
	if op == "==" {
		g.cur.emit("%s = icmp eq i32 %s, 0", cmp, tmp)
	} else if op == "!=" {
		g.cur.emit("%s = icmp ne i32 %s, 0", cmp, tmp)
	} else {
		g.addError(ierrors.InvalidOperation, fmt.Sprintf("operator %q not valid on strings", op))
	}
	return value{text: cmp, typ: ast.Bool}
}

// generateTypeof produces a string literal naming the value's type.
// Identifiers/literals consult their declared type directly; other
// expressions are evaluated and their resulting type is used.
func (g *Generator) generateTypeof(t *ast.Typeof) value {
	var typ ast.PrimitiveType
	switch inner := t.Value.(type) {
	case *ast.Identifier:
		b := g.lookupVariable(inner.Name)
		if b == nil {
			g.addError(ierrors.UnknownName, fmt.Sprintf("undefined variable %q", inner.Name))
			return value{text: g.globalString("unknown"), typ: ast.Str}
		}
		typ = b.Type
	case *ast.Literal:
		typ = inner.Type
	default:
		typ = g.generateExpression(t.Value).typ
	}

	name, ok := typeofName(typ)
	if !ok {
		g.addError(ierrors.InvalidOperation, "typeof could not infer a type")
	}
	return value{text: g.globalString(name), typ: ast.Str}
}

func typeofName(t ast.PrimitiveType) (string, bool) {
	switch t {
	case ast.I32:
		return "i32", true
	case ast.I64:
		return "i64", true
	case ast.F64:
		return "double", true
	case ast.Bool:
		return "bool", true
	case ast.Str:
		return "str", true
	default:
		return "unknown", false
	}
}

// generateInput materializes a 256-byte buffer, fills it via the
// runtime_input helper (after printing the optional prompt with no
// trailing newline), then converts the raw text per the declared
// target type.
func (g *Generator) generateInput(in *ast.Input) value {
	if in.Prompt != nil {
		g.emitPrint(g.generateExpression(in.Prompt), false)
	}

	g.needRuntimeInput = true
	buf := g.cur.newTemp()
	g.cur.emitAlloca("%s = alloca [256 x i8]", buf)
	bufPtr := g.cur.newTemp()
	g.cur.emit("%s = getelementptr [256 x i8], [256 x i8]* %s, i32 0, i32 0", bufPtr, buf)
	g.cur.emit("call void @runtime_input(i8* %s)", bufPtr)

	switch in.TargetType {
	case ast.I32:
		g.needAtoi = true
		tmp := g.cur.newTemp()
		g.cur.emit("%s = call i32 @atoi(i8* %s)", tmp, bufPtr)
		return value{text: tmp, typ: ast.I32}
	case ast.I64:
		g.needAtoi = true
		tmp := g.cur.newTemp()
		g.cur.emit("%s = call i32 @atoi(i8* %s)", tmp, bufPtr)
		ext := g.cur.newTemp()
		g.cur.emit("%s = sext i32 %s to i64", ext, tmp)
		return value{text: ext, typ: ast.I64}
	case ast.F64:
		g.needAtof = true
		tmp := g.cur.newTemp()
		g.cur.emit("%s = call double @atof(i8* %s)", tmp, bufPtr)
		return value{text: tmp, typ: ast.F64}
	case ast.Bool:
		g.needStrcmp = true
		zero := g.globalString("0")
		tmp := g.cur.newTemp()
		g.cur.emit("%s = call i32 @strcmp(i8* %s, i8* %s)", tmp, bufPtr, zero)
		cmp := g.cur.newTemp()
		g.cur.emit("%s = icmp ne i32 %s, 0", cmp, tmp)
		return value{text: cmp, typ: ast.Bool}
	default:
		return value{text: bufPtr, typ: ast.Str}
	}
}

// generateArrayLiteral validates all elements share one primitive
// type, then materializes the aggregate in the entry block.
func (g *Generator) generateArrayLiteral(lit *ast.ArrayLiteral) value {
	if len(lit.Elements) == 0 {
		g.addError(ierrors.TypeMismatch, "array literal must have at least one element")
		return value{text: "0", typ: ast.I32, isArray: true}
	}
	elems := make([]value, len(lit.Elements))
	for i, e := range lit.Elements {
		elems[i] = g.generateExpression(e)
	}
	elemType := elems[0].typ
	for _, v := range elems[1:] {
		if v.typ != elemType {
			g.addError(ierrors.TypeMismatch, "array literal elements must all share one type")
		}
	}

	ty := irTypeOf(elemType)
	size := len(elems)
	slot := g.cur.newTemp()
	g.cur.emitAlloca("%s = alloca [%d x %s]", slot, size, ty)
	for i, v := range elems {
		ptr := g.cur.newTemp()
		g.cur.emit("%s = getelementptr [%d x %s], [%d x %s]* %s, i32 0, i32 %d", ptr, size, ty, size, ty, slot, i)
		g.cur.emit("store %s %s, %s* %s", ty, v.text, ty, ptr)
	}
	return value{text: slot, typ: elemType, isArray: true, arraySize: size}
}

// generateArrayElementPtr emits the runtime bounds check described in
// spec §4.3: an unsigned index compare against the array's size
// branches either to an error block (puts + exit(1) + unreachable) or
// a continue block that computes the element pointer via GEP.
func (g *Generator) generateArrayElementPtr(access *ast.ArrayAccess) (string, ast.PrimitiveType) {
	b := g.lookupVariable(access.Name)
	if b == nil {
		g.addError(ierrors.UnknownName, fmt.Sprintf("undefined variable %q", access.Name))
		return "null", ast.I32
	}
	if !b.IsArray {
		g.addError(ierrors.InvalidOperation, fmt.Sprintf("%q is not an array", access.Name))
		return "null", ast.I32
	}

	idx := g.generateExpression(access.Index)
	ty := irTypeOf(b.Type)

	cmp := g.cur.newTemp()
	g.cur.emit("%s = icmp uge i32 %s, %d", cmp, idx.text, b.Size)

	errBB := g.cur.newBlock("oob_error", &g.labelSeq)
	contBB := g.cur.newBlock("oob_continue", &g.labelSeq)
	g.cur.emit("br i1 %s, label %%%s, label %%%s", cmp, errBB.label, contBB.label)

	g.cur.setInsert(errBB)
	g.needPuts = true
	g.needExit = true
	msg := g.globalString("Runtime Error: Array index out of bounds")
	g.cur.emit("call i32 @puts(i8* %s)", msg)
	g.cur.emit("call void @exit(i32 1)")
	g.cur.emit("unreachable")

	g.cur.setInsert(contBB)
	ptr := g.cur.newTemp()
	g.cur.emit("%s = getelementptr [%d x %s], [%d x %s]* %s, i32 0, i32 %s", ptr, b.Size, ty, b.Size, ty, b.Slot, idx.text)
	return ptr, b.Type
}

func (g *Generator) generateFunctionCall(call *ast.FunctionCall) value {
	paramTypes, ok := g.funcSigs[call.Callee]
	if !ok {
		g.addError(ierrors.UnknownName, fmt.Sprintf("undefined function %q", call.Callee))
		return value{text: "0", typ: ast.I32}
	}

	args := make([]string, len(call.Args))
	for i, a := range call.Args {
		v := g.generateExpression(a)
		ty := irTypeOf(v.typ)
		if i < len(paramTypes) {
			ty = irTypeOf(paramTypes[i])
		}
		args[i] = fmt.Sprintf("%s %s", ty, v.text)
	}

	tmp := g.cur.newTemp()
	g.cur.emit("%s = call i32 @%s(%s)", tmp, call.Callee, joinArgs(args))
	return value{text: tmp, typ: ast.I32}
}

func joinArgs(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += ", "
		}
		out += a
	}
	return out
}

// generateStructInit allocates a struct instance in the entry block
// and stores each provided field. Missing fields are not zero-filled
// by the original reference behavior; here they are instead required
// (see DESIGN.md's resolution of this open question).
func (g *Generator) generateStructInit(init *ast.StructInit) value {
	info, ok := g.StructTypes[init.StructName]
	if !ok {
		g.addError(ierrors.UnknownName, fmt.Sprintf("undefined struct %q", init.StructName))
		return value{text: "null", typ: ast.StructType, structName: init.StructName}
	}

	provided := make(map[string]bool)
	slot := g.cur.newTemp()
	g.cur.emitAlloca("%s = alloca %%struct.%s", slot, init.StructName)

	for _, f := range init.Fields {
		idx, ok := info.FieldIndex[f.Name]
		if !ok {
			g.addError(ierrors.UnknownName, fmt.Sprintf("struct %q has no field %q", init.StructName, f.Name))
			continue
		}
		provided[f.Name] = true
		v := g.generateExpression(f.Value)
		fieldType := info.FieldTypes[f.Name]
		ty := irTypeOf(fieldType)
		ptr := g.cur.newTemp()
		g.cur.emit("%s = getelementptr %%struct.%s, %%struct.%s* %s, i32 0, i32 %d", ptr, init.StructName, init.StructName, slot, idx)
		g.cur.emit("store %s %s, %s* %s", ty, v.text, ty, ptr)
	}

	for _, name := range info.FieldOrder {
		if !provided[name] {
			g.addError(ierrors.TypeMismatch, fmt.Sprintf("struct initializer for %q is missing field %q", init.StructName, name))
		}
	}

	return value{text: slot, typ: ast.StructType, structName: init.StructName}
}

// generateMemberAccess computes a field pointer; if the field is
// itself a struct, the pointer is returned directly (no load).
func (g *Generator) generateMemberAccess(m *ast.MemberAccess) value {
	obj := g.generateExpression(m.Object)
	if obj.typ != ast.StructType {
		g.addError(ierrors.InvalidOperation, "member access on a non-struct value")
		return value{text: "0", typ: ast.I32}
	}
	info, ok := g.StructTypes[obj.structName]
	if !ok {
		g.addError(ierrors.UnknownName, fmt.Sprintf("undefined struct %q", obj.structName))
		return value{text: "0", typ: ast.I32}
	}
	idx, ok := info.FieldIndex[m.Field]
	if !ok {
		g.addError(ierrors.UnknownName, fmt.Sprintf("struct %q has no field %q", obj.structName, m.Field))
		return value{text: "0", typ: ast.I32}
	}

	fieldType := info.FieldTypes[m.Field]
	ty := irTypeOf(fieldType)
	ptr := g.cur.newTemp()
	g.cur.emit("%s = getelementptr %%struct.%s, %%struct.%s* %s, i32 0, i32 %d", ptr, obj.structName, obj.structName, obj.text, idx)

	if fieldType == ast.StructType {
		return value{text: ptr, typ: ast.StructType}
	}
	tmp := g.cur.newTemp()
	g.cur.emit("%s = load %s, %s* %s", tmp, ty, ty, ptr)
	return value{text: tmp, typ: fieldType}
}
