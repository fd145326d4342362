package eval

import (
	"ownsim/ast"
	"ownsim/trace"
	"ownsim/types"
	"strings"
)

// evalStatements executes a statement list in the current scope.
// The value is that of a trailing expression statement, else Unit.
// Temporary borrows taken by a statement end with it, unless the
// statement's value carries them out of the block.
func (e *Evaluator) evalStatements(stmts []ast.Stmt, ctx *types.RunContext) types.Result {
	e.hoist(stmts)

	result := types.Ok(types.Unit)
	for i, stmt := range stmts {
		mark := e.tracker.Mark()
		res := e.EvalStmt(stmt, ctx)

		_, isExpr := stmt.(*ast.ExprStmt)
		trailing := i == len(stmts)-1 && isExpr
		var keep types.Value
		if trailing || res.IsReturn() || res.IsBreak() {
			keep = res.Val
		}
		if err := e.tracker.Settle(mark, keep); err != nil && !res.IsFault() {
			res = e.noteFault(types.FromError(err))
		}

		if !res.IsNormal() {
			return res
		}
		if trailing {
			result = res
		}
	}
	return result
}

// evalScopedBlock runs a block in a fresh scope. The scope is popped on
// every exit path, dropping its slots in reverse declaration order.
func (e *Evaluator) evalScopedBlock(stmts []ast.Stmt, ctx *types.RunContext) (res types.Result) {
	e.bindings.Push(false)
	defer func() { res = e.popScope(res) }()
	return e.evalStatements(stmts, ctx)
}

// popScope closes the innermost scope. A drop failure replaces a normal
// result; an earlier fault wins over it.
func (e *Evaluator) popScope(res types.Result) types.Result {
	err := e.bindings.Pop(e.tracker)
	if err != nil && !res.IsFault() {
		return e.noteFault(types.FromError(err))
	}
	return res
}

// EvalStmt executes a single statement
func (e *Evaluator) EvalStmt(stmt ast.Stmt, ctx *types.RunContext) types.Result {
	if !ctx.ConsumeTick() {
		return e.noteFault(types.Raise(types.F_TICK_LIMIT, "tick limit exceeded"))
	}
	ctx.Line = stmt.Position().Line
	e.setLine(ctx.Line)

	if e.stepper != nil {
		if err := e.stepper.Step(e, stmt); err != nil {
			return e.noteFault(types.Raise(types.F_ABORT, "%v", err))
		}
	}

	var res types.Result
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		res = e.Eval(s.Expr, ctx)
	case *ast.LetStmt:
		res = e.evalLetStmt(s, ctx)
	case *ast.AssignStmt:
		res = e.evalAssignStmt(s, ctx)
	case *ast.WhileStmt:
		res = e.evalWhileStmt(s, ctx)
	case *ast.ForStmt:
		res = e.evalForStmt(s, ctx)
	case *ast.BreakStmt:
		res = e.evalBreakStmt(s, ctx)
	case *ast.ContinueStmt:
		res = types.Continue(s.Label)
	case *ast.ReturnStmt:
		res = e.evalReturnStmt(s, ctx)
	case *ast.FnDecl, *ast.StructDecl, *ast.EnumDecl:
		// registered when the enclosing block was entered
		res = types.Ok(types.Unit)
	default:
		res = types.Raise(types.F_TYPE_MISMATCH, "cannot execute %T", stmt)
	}

	if res.IsFault() {
		res = e.noteFault(res)
	}
	return res
}

// noteFault records where a fault was first raised: its line, the call
// stack for the traceback, and a trace event
func (e *Evaluator) noteFault(res types.Result) types.Result {
	if e.faultedAt != nil {
		return res
	}
	e.faultedAt = append([]Frame{}, e.frames...)
	if res.Line == 0 && len(e.frames) > 0 {
		res.Line = e.frames[len(e.frames)-1].Line
	}
	trace.Fault(res.Fault, res.Message)
	return res
}

// ============================================================================
// DECLARATIONS
// ============================================================================

// hoist registers the declarations of a block so they can be used before
// the statement that declares them
func (e *Evaluator) hoist(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		if d, ok := stmt.(*ast.StructDecl); ok {
			typ := &types.StructType{Name: d.Name, Fields: d.Fields}
			e.structs[d.Name] = &structDef{typ: typ, fieldTypes: d.FieldTypes}
		}
	}
	for _, stmt := range stmts {
		if d, ok := stmt.(*ast.EnumDecl); ok {
			e.declareEnum(d)
		}
	}
	for _, stmt := range stmts {
		if d, ok := stmt.(*ast.FnDecl); ok {
			e.funcs[d.Name] = d
		}
	}
}

// declareEnum registers an enum, classifying it Move-only when any
// payload type is
func (e *Evaluator) declareEnum(d *ast.EnumDecl) {
	typ := &types.EnumType{Name: d.Name}
	for _, v := range d.Variants {
		typ.Variants = append(typ.Variants, types.VariantDef{
			Name:        v.Name,
			HasPayload:  v.Payload != "",
			PayloadType: v.Payload,
		})
		if v.Payload != "" && !types.IsCopyTypeName(v.Payload, e.isCopyType) {
			typ.MoveOnly = true
		}
	}
	e.enums[d.Name] = typ
}

// isCopyType classifies a declared type name: (isCopy, known)
func (e *Evaluator) isCopyType(name string) (bool, bool) {
	if typ, ok := e.enums[name]; ok && !typ.Generic {
		return !typ.MoveOnly, true
	}
	if def, ok := e.structs[name]; ok && def.fieldTypes != nil {
		for _, ft := range def.fieldTypes {
			if !types.IsCopyTypeName(ft, e.isCopyType) {
				return false, true
			}
		}
		return true, true
	}
	if open := strings.IndexByte(name, '<'); open > 0 && strings.HasSuffix(name, ">") {
		for _, arg := range strings.Split(name[open+1:len(name)-1], ",") {
			if !types.IsCopyTypeName(strings.TrimSpace(arg), e.isCopyType) {
				return false, true
			}
		}
		return true, true
	}
	return true, false
}

// ============================================================================
// BINDINGS AND ASSIGNMENT
// ============================================================================

// evalLetStmt evaluates the initializer by value and binds it to fresh slots
func (e *Evaluator) evalLetStmt(stmt *ast.LetStmt, ctx *types.RunContext) types.Result {
	res := e.Eval(stmt.Value, ctx)
	if !res.IsNormal() {
		return res
	}
	v := res.Val
	if stmt.Type != "" {
		var cres types.Result
		if v, cres = e.coerce(v, stmt.Type); !cres.IsNormal() {
			return cres
		}
	}
	return e.bindLet(stmt.Pattern, v, stmt.Mutable)
}

// bindLet declares the names of a let pattern
func (e *Evaluator) bindLet(pat ast.Pattern, v types.Value, mutable bool) types.Result {
	switch p := pat.(type) {
	case *ast.WildcardPattern:
		return types.Ok(types.Unit)
	case *ast.BindPattern:
		if p.ByRef {
			return types.Raise(types.F_TYPE_MISMATCH, "`ref` bindings are only supported in match arms")
		}
		id := e.tracker.Declare(p.Name, v)
		e.bindings.Declare(p.Name, id, mutable || p.Mutable)
		return types.Ok(types.Unit)
	case *ast.TuplePattern:
		tuple, ok := v.(types.TupleValue)
		if !ok || tuple.Len() != len(p.Elements) {
			return types.Raise(types.F_TYPE_MISMATCH,
				"mismatched types: expected a tuple with %d elements, found `%s`", len(p.Elements), types.TypeName(v))
		}
		for i, elem := range p.Elements {
			if res := e.bindLet(elem, tuple.Get(i), mutable); !res.IsNormal() {
				return res
			}
		}
		return types.Ok(types.Unit)
	}
	return types.Raise(types.F_TYPE_MISMATCH, "refutable pattern in let binding")
}

// coerce applies a let type annotation. Integer literals adopt the annotated
// kind when they fit; other annotations are checked by name.
func (e *Evaluator) coerce(v types.Value, typ string) (types.Value, types.Result) {
	ok := types.Ok(types.Unit)
	if kind, isInt := types.IntKindFromString(typ); isInt {
		i, same := v.(types.IntValue)
		if !same {
			return nil, typeMismatch(typ, v)
		}
		if i.Kind != kind && i.Kind != types.I32 {
			return nil, typeMismatch(typ, v)
		}
		if !kind.Fits(i.Val) {
			return nil, types.Raise(types.F_OVERFLOW, "literal out of range for `%s`", kind)
		}
		return types.NewIntKind(kind, i.Val), ok
	}

	switch typ {
	case "f32", "f64":
		f, same := v.(types.FloatValue)
		if !same {
			return nil, typeMismatch(typ, v)
		}
		kind := types.F64
		if typ == "f32" {
			kind = types.F32
		}
		return types.NewFloatKind(kind, f.Val), ok
	case "bool", "char", "String", "&str", "()":
		if types.TypeName(v) != typ {
			return nil, typeMismatch(typ, v)
		}
		return v, ok
	}

	name := typ
	if open := strings.IndexByte(typ, '<'); open > 0 {
		name = typ[:open]
	}
	_, isStruct := e.structs[name]
	_, isEnum := e.enums[name]
	if (isStruct || isEnum) && types.TypeName(v) != name {
		return nil, typeMismatch(typ, v)
	}
	return v, ok
}

func typeMismatch(want string, v types.Value) types.Result {
	return types.Raise(types.F_TYPE_MISMATCH, "mismatched types: expected `%s`, found `%s`", want, types.TypeName(v))
}

// evalAssignStmt evaluates the right-hand side, then replaces the value at
// the target place. Compound operators read the place first.
func (e *Evaluator) evalAssignStmt(stmt *ast.AssignStmt, ctx *types.RunContext) types.Result {
	if !isPlace(stmt.Target) {
		return types.Raise(types.F_TYPE_MISMATCH, "invalid left-hand side of assignment")
	}
	valRes := e.Eval(stmt.Value, ctx)
	if !valRes.IsNormal() {
		return valRes
	}
	p, res := e.resolvePlace(stmt.Target, ctx)
	if !res.IsNormal() {
		return res
	}

	v := valRes.Val
	if stmt.Operator != "=" {
		cur, err := e.inspectPlace(p)
		if err != nil {
			return types.FromError(err)
		}
		rhs, err := e.derefAll(v)
		if err != nil {
			return types.FromError(err)
		}
		opRes := evalArith(stmt.Operator[:1], cur, rhs)
		if !opRes.IsNormal() {
			return opRes
		}
		v = opRes.Val
	}
	return e.assignPlace(p, v)
}

// ============================================================================
// CONTROL FLOW
// ============================================================================

// evalTest evaluates a loop or branch condition. Borrows taken by the
// condition end before the body runs.
func (e *Evaluator) evalTest(cond ast.Expr, ctx *types.RunContext) (bool, types.Result) {
	mark := e.tracker.Mark()
	b, res := e.evalCondition(cond, ctx)
	if err := e.tracker.Settle(mark, nil); err != nil && res.IsNormal() {
		return false, types.FromError(err)
	}
	return b, res
}

// loopStep interprets one iteration's result for a loop with the given
// label. It reports whether the loop ends and with what result.
func loopStep(body types.Result, label string) (bool, types.Result) {
	switch body.Flow {
	case types.FlowReturn, types.FlowFault:
		return true, body
	case types.FlowBreak:
		// Check if break targets this loop (or any loop if no label)
		if body.Label == "" || body.Label == label {
			if body.Val != nil {
				return true, types.Ok(body.Val)
			}
			return true, types.Ok(types.Unit)
		}
		return true, body
	case types.FlowContinue:
		if body.Label == "" || body.Label == label {
			return false, types.Result{}
		}
		return true, body
	}
	return false, types.Result{}
}

// evalLoop repeats its body until a break; a break value is the loop's value
func (e *Evaluator) evalLoop(node *ast.LoopExpr, ctx *types.RunContext) types.Result {
	for {
		if !ctx.ConsumeTick() {
			return types.Raise(types.F_TICK_LIMIT, "tick limit exceeded")
		}
		mark := e.tracker.Mark()
		body := e.evalScopedBlock(node.Body, ctx)
		done, out := loopStep(body, node.Label)
		var leaving types.Value
		if done {
			leaving = out.Val
		}
		if res := e.endIteration(mark, leaving, out); done || !res.IsNormal() {
			return res
		}
	}
}

// endIteration ends the temporary borrows taken by one loop iteration.
// Loans carried by a value leaving the loop pass to the enclosing
// statement. A release failure replaces res unless res is already a fault.
func (e *Evaluator) endIteration(mark int, leaving types.Value, res types.Result) types.Result {
	if err := e.tracker.Settle(mark, leaving); err != nil && !res.IsFault() {
		return e.noteFault(types.FromError(err))
	}
	return res
}

// evalWhileStmt re-evaluates the condition before every iteration
func (e *Evaluator) evalWhileStmt(stmt *ast.WhileStmt, ctx *types.RunContext) types.Result {
	for {
		if !ctx.ConsumeTick() {
			return types.Raise(types.F_TICK_LIMIT, "tick limit exceeded")
		}
		cond, res := e.evalTest(stmt.Condition, ctx)
		if !res.IsNormal() {
			return res
		}
		if !cond {
			return types.Ok(types.Unit)
		}

		mark := e.tracker.Mark()
		body := e.evalScopedBlock(stmt.Body, ctx)
		done, out := loopStep(body, stmt.Label)
		if res := e.finishIteration(mark, done, out); done || !res.IsNormal() {
			return res
		}
	}
}

// finishIteration settles one iteration of a while or for loop, which
// evaluate to Unit; only a value escaping outward keeps its loans
func (e *Evaluator) finishIteration(mark int, done bool, out types.Result) types.Result {
	if done && out.IsNormal() {
		out = types.Ok(types.Unit)
	}
	var leaving types.Value
	if done && !out.IsNormal() {
		leaving = out.Val
	}
	return e.endIteration(mark, leaving, out)
}

// evalForStmt iterates an array, slice or range without consuming it.
// Copy elements are bound by value from a snapshot of the sequence; other
// elements are bound as shared references into the sequence, which stays
// borrowed for the whole loop.
func (e *Evaluator) evalForStmt(stmt *ast.ForStmt, ctx *types.RunContext) types.Result {
	items, res := e.iterate(stmt.Iter, ctx)
	if !res.IsNormal() {
		return res
	}

	for _, item := range items {
		if !ctx.ConsumeTick() {
			return types.Raise(types.F_TICK_LIMIT, "tick limit exceeded")
		}
		mark := e.tracker.Mark()
		body := e.evalIteration(stmt.Var, item, stmt.Body, ctx)
		done, out := loopStep(body, stmt.Label)
		if res := e.finishIteration(mark, done, out); done || !res.IsNormal() {
			return res
		}
	}
	return types.Ok(types.Unit)
}

// evalIteration runs one loop body with the loop variable in its own scope
func (e *Evaluator) evalIteration(name string, item types.Value, body []ast.Stmt, ctx *types.RunContext) (res types.Result) {
	e.bindings.Push(false)
	defer func() { res = e.popScope(res) }()

	id := e.tracker.Declare(name, item)
	e.bindings.Declare(name, id, false)
	return e.evalStatements(body, ctx)
}

// iterate produces the elements a for loop visits
func (e *Evaluator) iterate(node ast.Expr, ctx *types.RunContext) ([]types.Value, types.Result) {
	var seq types.Value
	var ref *types.RefValue

	if isPlace(node) {
		p, res := e.resolvePlace(node, ctx)
		if !res.IsNormal() {
			return nil, res
		}
		v, err := e.navigate(p)
		if err != nil {
			return nil, types.FromError(err)
		}
		if r, ok := v.(types.RefValue); ok {
			ref = &r
		} else if types.IsCopy(v) {
			seq, err = e.inspectPlace(p)
			if err != nil {
				return nil, types.FromError(err)
			}
		} else {
			res := e.borrowPlace(p, false, nil)
			if !res.IsNormal() {
				return nil, res
			}
			r := res.Val.(types.RefValue)
			ref = &r
		}
	} else {
		res := e.Eval(node, ctx)
		if !res.IsNormal() {
			return nil, res
		}
		if r, ok := res.Val.(types.RefValue); ok {
			ref = &r
		} else {
			seq = res.Val
		}
	}

	if ref != nil {
		v, err := e.tracker.Deref(*ref)
		if err != nil {
			return nil, types.FromError(err)
		}
		seq = v
	}
	arr, ok := seq.(types.ArrayValue)
	if !ok {
		return nil, types.Raise(types.F_TYPE_MISMATCH, "`%s` is not an iterator", types.TypeName(seq))
	}

	items := make([]types.Value, arr.Len())
	for i := range items {
		elem := arr.Get(i)
		if ref == nil || types.IsCopy(elem) {
			items[i] = elem
		} else {
			items[i] = descend(*ref, []int{i})
		}
	}
	return items, types.Ok(types.Unit)
}

// evalIf evaluates if/else-if/else; the value is the taken branch's value
func (e *Evaluator) evalIf(node *ast.IfExpr, ctx *types.RunContext) types.Result {
	cond, res := e.evalTest(node.Condition, ctx)
	if !res.IsNormal() {
		return res
	}
	if cond {
		return e.evalScopedBlock(node.Body, ctx)
	}

	for _, clause := range node.ElseIfs {
		cond, res := e.evalTest(clause.Condition, ctx)
		if !res.IsNormal() {
			return res
		}
		if cond {
			return e.evalScopedBlock(clause.Body, ctx)
		}
	}

	if node.Else != nil {
		return e.evalScopedBlock(node.Else, ctx)
	}
	return types.Ok(types.Unit)
}

// evalReturnStmt evaluates the optional return value
func (e *Evaluator) evalReturnStmt(stmt *ast.ReturnStmt, ctx *types.RunContext) types.Result {
	if stmt.Value == nil {
		return types.Return(types.Unit)
	}
	res := e.Eval(stmt.Value, ctx)
	if !res.IsNormal() {
		return res
	}
	return types.Return(res.Val)
}

// evalBreakStmt evaluates the optional break value
func (e *Evaluator) evalBreakStmt(stmt *ast.BreakStmt, ctx *types.RunContext) types.Result {
	var val types.Value
	if stmt.Value != nil {
		res := e.Eval(stmt.Value, ctx)
		if !res.IsNormal() {
			return res
		}
		val = res.Val
	}
	return types.Break(stmt.Label, val)
}
