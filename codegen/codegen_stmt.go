package codegen

import (
	"fmt"

	"github.com/aikolang/aikoc/ast"
	"github.com/aikolang/aikoc/internal/ierrors"
)

func (g *Generator) generateStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		g.generateVarDecl(s)
	case *ast.Assignment:
		g.generateAssignment(s)
	case *ast.Print:
		g.generatePrint(s)
	case *ast.If:
		g.generateIf(s)
	case *ast.For:
		g.generateFor(s)
	case *ast.Break:
		g.generateBreak(s)
	case *ast.Continue:
		g.generateContinue(s)
	case *ast.Return:
		g.generateReturn(s)
	case *ast.StructDecl:
		// already registered in Generate's pre-pass.
	case *ast.ExprStatement:
		g.generateExpression(s.Expr)
	default:
		g.addError(ierrors.InvalidOperation, "unsupported statement")
	}
}

// generateVarDecl materializes an entry-block alloca for the new
// local and stores its initial value, inferring the declared type
// from the initializer when no explicit `: TYPE` annotation is given.
func (g *Generator) generateVarDecl(decl *ast.VarDecl) {
	if decl.Initializer == nil {
		ty := decl.Type
		if !decl.HasType {
			ty = ast.I32
		}
		slot := "%" + decl.Name
		g.cur.emitAlloca("%s = alloca %s", slot, irTypeOf(ty))
		g.cur.emit("store %s 0, %s* %s", irTypeOf(ty), irTypeOf(ty), slot)
		g.bind(decl.Name, &VarBinding{Slot: slot, Type: ty, StaticType: decl.HasType})
		return
	}

	if structInit, ok := decl.Initializer.(*ast.StructInit); ok {
		v := g.generateStructInit(structInit)
		g.bind(decl.Name, &VarBinding{Slot: v.text, Type: ast.StructType, StructName: v.structName, StaticType: true})
		return
	}

	if arrLit, ok := decl.Initializer.(*ast.ArrayLiteral); ok {
		v := g.generateArrayLiteral(arrLit)
		g.bind(decl.Name, &VarBinding{Slot: v.text, Type: v.typ, IsArray: true, Size: v.arraySize, StaticType: true})
		return
	}

	v := g.generateExpression(decl.Initializer)
	declType := v.typ
	if decl.HasType {
		declType = decl.Type
	}
	ty := irTypeOf(declType)
	slot := "%" + decl.Name
	g.cur.emitAlloca("%s = alloca %s", slot, ty)
	g.cur.emit("store %s %s, %s* %s", ty, v.text, ty, slot)
	g.bind(decl.Name, &VarBinding{Slot: slot, Type: declType, StaticType: decl.HasType})
}

// generateAssignment stores into an existing slot (indexed or plain).
// A variable declared without a static type is re-bound to a fresh
// slot if the assigned value's type differs, matching spec §4.3's
// "inferred type may change on reassignment" rule; a statically-typed
// variable keeps its slot and type forever.
func (g *Generator) generateAssignment(a *ast.Assignment) {
	if a.Index != nil {
		access := &ast.ArrayAccess{Token: a.Token, Name: a.Name, Index: a.Index}
		ptr, elemType := g.generateArrayElementPtr(access)
		v := g.generateExpression(a.Value)
		if v.typ != elemType {
			vName, _ := typeofName(v.typ)
			eName, _ := typeofName(elemType)
			g.addError(ierrors.TypeMismatch, fmt.Sprintf("cannot assign %s to array %q of element type %s", vName, a.Name, eName))
			return
		}
		g.cur.emit("store %s %s, %s* %s", irTypeOf(elemType), v.text, irTypeOf(elemType), ptr)
		return
	}

	b := g.lookupVariable(a.Name)
	if b == nil {
		g.addError(ierrors.UnknownName, fmt.Sprintf("undefined variable %q", a.Name))
		return
	}

	v := g.generateExpression(a.Value)

	if b.StaticType {
		if v.typ != b.Type {
			vName, _ := typeofName(v.typ)
			bName, _ := typeofName(b.Type)
			g.addError(ierrors.TypeMismatch, fmt.Sprintf("cannot assign %s to %q of type %s", vName, a.Name, bName))
			return
		}
		g.cur.emit("store %s %s, %s* %s", irTypeOf(b.Type), v.text, irTypeOf(b.Type), b.Slot)
		return
	}

	if v.typ == b.Type {
		g.cur.emit("store %s %s, %s* %s", irTypeOf(b.Type), v.text, irTypeOf(b.Type), b.Slot)
		return
	}

	ty := irTypeOf(v.typ)
	slot := g.cur.newTemp()
	g.cur.emitAlloca("%s = alloca %s", slot, ty)
	g.cur.emit("store %s %s, %s* %s", ty, v.text, ty, slot)
	g.bind(a.Name, &VarBinding{Slot: slot, Type: v.typ})
}

// generatePrint selects printf's format string by the value's
// primitive type, printing array literals bracket-and-comma style.
func (g *Generator) generatePrint(p *ast.Print) {
	v := g.generateExpression(p.Value)
	g.emitPrint(v, true)
}

func (g *Generator) emitPrint(v value, newline bool) {
	g.needPrintf = true

	if v.isArray {
		g.emitArrayPrint(v, newline)
		return
	}

	var fmtStr string
	switch v.typ {
	case ast.I32:
		fmtStr = "%d"
	case ast.I64:
		fmtStr = "%ld"
	case ast.F64:
		fmtStr = "%f"
	case ast.Bool:
		fmtStr = "%d"
	case ast.Str:
		fmtStr = "%s"
	default:
		fmtStr = "%d"
	}
	if newline {
		fmtStr += "\n"
	}
	fmtGlobal := g.globalString(fmtStr)
	g.cur.emit("call i32 (i8*, ...) @printf(i8* %s, %s %s)", fmtGlobal, irTypeOf(v.typ), v.text)
}

func (g *Generator) emitArrayPrint(v value, newline bool) {
	ty := irTypeOf(v.typ)
	openGlobal := g.globalString("[")
	g.cur.emit("call i32 (i8*, ...) @printf(i8* %s)", openGlobal)

	var fmtStr string
	switch v.typ {
	case ast.I64:
		fmtStr = "%ld"
	case ast.F64:
		fmtStr = "%f"
	default:
		fmtStr = "%d"
	}
	elemGlobal := g.globalString(fmtStr)
	commaGlobal := g.globalString(", ")
	for i := 0; i < v.arraySize; i++ {
		ptr := g.cur.newTemp()
		g.cur.emit("%s = getelementptr [%d x %s], [%d x %s]* %s, i32 0, i32 %d", ptr, v.arraySize, ty, v.arraySize, ty, v.text, i)
		elem := g.cur.newTemp()
		g.cur.emit("%s = load %s, %s* %s", elem, ty, ty, ptr)
		g.cur.emit("call i32 (i8*, ...) @printf(i8* %s, %s %s)", elemGlobal, ty, elem)
		if i < v.arraySize-1 {
			g.cur.emit("call i32 (i8*, ...) @printf(i8* %s)", commaGlobal)
		}
	}

	closeStr := "]"
	if newline {
		closeStr += "\n"
	}
	closeGlobal := g.globalString(closeStr)
	g.cur.emit("call i32 (i8*, ...) @printf(i8* %s)", closeGlobal)
}

// generateIf lowers an if/elif-chain/else into a cascade of
// conditional branches converging on one merge block.
func (g *Generator) generateIf(stmt *ast.If) {
	merge := g.cur.newBlock("if_end", &g.labelSeq)
	g.emitIfChain(stmt.Condition, stmt.Then, stmt.Elifs, stmt.Else, merge)
}

func (g *Generator) emitIfChain(cond ast.Expression, then []ast.Statement, elifs []ast.ElifClause, els []ast.Statement, merge *irBlock) {
	condVal := g.generateExpression(cond)
	if condVal.typ != ast.Bool {
		g.addError(ierrors.TypeMismatch, "if condition must be bool")
	}

	thenBB := g.cur.newBlock("if_then", &g.labelSeq)

	var elseBB *irBlock
	if len(elifs) > 0 || els != nil {
		elseBB = g.cur.newBlock("if_else", &g.labelSeq)
	} else {
		elseBB = merge
	}
	g.cur.emit("br i1 %s, label %%%s, label %%%s", condVal.text, thenBB.label, elseBB.label)

	g.cur.setInsert(thenBB)
	g.enterScope()
	for _, s := range then {
		g.generateStatement(s)
	}
	g.exitScope()
	if !blockTerminated(g.cur.curBlock()) {
		g.cur.emit("br label %%%s", merge.label)
	}

	if len(elifs) > 0 {
		g.cur.setInsert(elseBB)
		g.emitIfChain(elifs[0].Condition, elifs[0].Block, elifs[1:], els, merge)
		return
	}

	if els != nil {
		g.cur.setInsert(elseBB)
		g.enterScope()
		for _, s := range els {
			g.generateStatement(s)
		}
		g.exitScope()
		if !blockTerminated(g.cur.curBlock()) {
			g.cur.emit("br label %%%s", merge.label)
		}
	}

	g.cur.setInsert(merge)
}

// generateFor lowers the four-block loop shape: an init (in the
// current block), a condition block, a body block, an increment
// block, and an end block — break/continue targets are pushed before
// the body and popped after, so nested loops don't interfere.
func (g *Generator) generateFor(stmt *ast.For) {
	start := g.generateExpression(stmt.Start)
	slot := "%" + stmt.VarName
	g.cur.emitAlloca("%s = alloca i32", slot)
	g.cur.emit("store i32 %s, i32* %s", start.text, slot)

	condBB := g.cur.newBlock("for_cond", &g.labelSeq)
	bodyBB := g.cur.newBlock("for_body", &g.labelSeq)
	incBB := g.cur.newBlock("for_inc", &g.labelSeq)
	endBB := g.cur.newBlock("for_end", &g.labelSeq)

	g.cur.emit("br label %%%s", condBB.label)

	g.enterScope()
	g.bind(stmt.VarName, &VarBinding{Slot: slot, Type: ast.I32, StaticType: true})

	g.cur.setInsert(condBB)
	cur := g.cur.newTemp()
	g.cur.emit("%s = load i32, i32* %s", cur, slot)
	end := g.generateExpression(stmt.End)
	cmp := g.cur.newTemp()
	g.cur.emit("%s = icmp slt i32 %s, %s", cmp, cur, end.text)
	g.cur.emit("br i1 %s, label %%%s, label %%%s", cmp, bodyBB.label, endBB.label)

	g.BreakTargets = append(g.BreakTargets, endBB.label)
	g.ContinueTargets = append(g.ContinueTargets, incBB.label)

	g.cur.setInsert(bodyBB)
	for _, s := range stmt.Body {
		g.generateStatement(s)
	}
	if !blockTerminated(g.cur.curBlock()) {
		g.cur.emit("br label %%%s", incBB.label)
	}

	g.BreakTargets = g.BreakTargets[:len(g.BreakTargets)-1]
	g.ContinueTargets = g.ContinueTargets[:len(g.ContinueTargets)-1]

	g.cur.setInsert(incBB)
	loaded := g.cur.newTemp()
	g.cur.emit("%s = load i32, i32* %s", loaded, slot)
	next := g.cur.newTemp()
	g.cur.emit("%s = add i32 %s, %d", next, loaded, stmt.Step)
	g.cur.emit("store i32 %s, i32* %s", next, slot)
	g.cur.emit("br label %%%s", condBB.label)

	g.exitScope()
	g.cur.setInsert(endBB)
}

func (g *Generator) generateBreak(b *ast.Break) {
	if len(g.BreakTargets) == 0 {
		g.addError(ierrors.InvalidOperation, "break outside of a loop")
		return
	}
	target := g.BreakTargets[len(g.BreakTargets)-1]
	g.cur.emit("br label %%%s", target)
	g.cur.setInsert(g.cur.newBlock("after_break", &g.labelSeq))
}

func (g *Generator) generateContinue(c *ast.Continue) {
	if len(g.ContinueTargets) == 0 {
		g.addError(ierrors.InvalidOperation, "continue outside of a loop")
		return
	}
	target := g.ContinueTargets[len(g.ContinueTargets)-1]
	g.cur.emit("br label %%%s", target)
	g.cur.setInsert(g.cur.newBlock("after_continue", &g.labelSeq))
}

func (g *Generator) generateReturn(r *ast.Return) {
	if r.Value == nil {
		g.cur.emit("ret i32 0")
		return
	}
	v := g.generateExpression(r.Value)
	g.cur.emit("ret %s %s", irTypeOf(v.typ), v.text)
}
