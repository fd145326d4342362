package eval

import (
	"ownsim/ast"
	"ownsim/builtins"
	"ownsim/trace"
	"ownsim/types"
)

// evalCall dispatches to a declared function, then to a builtin
func (e *Evaluator) evalCall(node *ast.CallExpr, ctx *types.RunContext) types.Result {
	if fn, ok := e.funcs[node.Name]; ok {
		return e.callFunction(fn, node, ctx)
	}
	if b, ok := e.builtins.Get(node.Name); ok {
		return e.callBuiltin(b, node, ctx)
	}
	return types.Raise(types.F_UNKNOWN_NAME, "cannot find function `%s` in this scope", node.Name)
}

// callBuiltin evaluates arguments according to the builtin's mode:
// borrowing builtins inspect their place arguments, consuming ones move them
func (e *Evaluator) callBuiltin(b *builtins.Builtin, node *ast.CallExpr, ctx *types.RunContext) types.Result {
	args := make([]types.Value, len(node.Args))
	for i, arg := range node.Args {
		var res types.Result
		if b.Mode == builtins.Borrowed {
			res = e.evalInspect(arg, ctx)
		} else {
			res = e.Eval(arg, ctx)
		}
		if !res.IsNormal() {
			return res
		}
		args[i] = res.Val
	}
	return b.Fn(ctx, args)
}

// callFunction runs a declared function in a boundary scope holding its
// parameters. The scope is popped (dropping parameters and locals) after
// the return value has been produced.
func (e *Evaluator) callFunction(fn *ast.FnDecl, node *ast.CallExpr, ctx *types.RunContext) (res types.Result) {
	if len(node.Args) != len(fn.Params) {
		return types.Raise(types.F_ARITY_MISMATCH, "function `%s` takes %d arguments but %d were supplied",
			fn.Name, len(fn.Params), len(node.Args))
	}
	if len(e.frames) >= maxCallDepth {
		return types.Raise(types.F_TICK_LIMIT, "recursion limit reached while calling `%s`", fn.Name)
	}

	args := make([]types.Value, len(fn.Params))
	for i, param := range fn.Params {
		argRes := e.evalArg(fn, param, node.Args[i], ctx)
		if !argRes.IsNormal() {
			return argRes
		}
		args[i] = argRes.Val
	}

	trace.Call(fn.Name, args)
	e.frames = append(e.frames, Frame{Function: fn.Name, Line: fn.Pos.Line})
	defer func() { e.frames = e.frames[:len(e.frames)-1] }()

	e.bindings.Push(true)
	defer func() { res = e.popScope(res) }()

	for i, param := range fn.Params {
		id := e.tracker.Declare(param.Name, args[i])
		e.bindings.Declare(param.Name, id, param.Mutable)
	}

	body := e.evalStatements(fn.Body, ctx)
	switch body.Flow {
	case types.FlowReturn:
		body = types.Ok(body.Val)
	case types.FlowBreak, types.FlowContinue:
		body = e.noteFault(types.Raise(types.F_TYPE_MISMATCH, "`break` or `continue` outside of a loop in `%s`", fn.Name))
	}
	if body.IsNormal() {
		trace.Return(fn.Name, body.Val)
	}
	return body
}

// evalArg evaluates one argument for its parameter's passing mode.
// A reference held in a place is reborrowed rather than moved.
func (e *Evaluator) evalArg(fn *ast.FnDecl, param ast.Param, arg ast.Expr, ctx *types.RunContext) types.Result {
	if param.Mode == ast.ByValue {
		res := e.Eval(arg, ctx)
		if !res.IsNormal() {
			return res
		}
		if _, isRef := res.Val.(types.RefValue); isRef {
			return types.Raise(types.F_TYPE_MISMATCH,
				"mismatched types: `%s` takes `%s` by value, found a reference", fn.Name, param.Name)
		}
		return res
	}

	exclusive := param.Mode == ast.ByMut
	var v types.Value
	if isPlace(arg) {
		p, res := e.resolvePlace(arg, ctx)
		if !res.IsNormal() {
			return res
		}
		var err error
		if v, err = e.navigate(p); err != nil {
			return types.FromError(err)
		}
		if ref, ok := v.(types.RefValue); ok {
			if exclusive && !ref.Exclusive {
				return wrongMode(fn, param, v)
			}
			if err := e.tracker.Share(ref.Loan); err != nil {
				return types.FromError(err)
			}
			ref.Exclusive = exclusive
			return types.Ok(ref)
		}
		return wrongMode(fn, param, v)
	}

	res := e.Eval(arg, ctx)
	if !res.IsNormal() {
		return res
	}
	ref, ok := res.Val.(types.RefValue)
	if !ok || (exclusive && !ref.Exclusive) {
		return wrongMode(fn, param, res.Val)
	}
	ref.Exclusive = exclusive
	return types.Ok(ref)
}

func wrongMode(fn *ast.FnDecl, param ast.Param, v types.Value) types.Result {
	want := "&_"
	if param.Mode == ast.ByMut {
		want = "&mut _"
	}
	return types.Raise(types.F_TYPE_MISMATCH, "mismatched types: `%s` expects `%s: %s`, found `%s`",
		fn.Name, param.Name, want, types.TypeName(v))
}
