package eval

import (
	"fmt"
	"ownsim/ast"
	"ownsim/types"
)

// isPlace reports whether an expression denotes a storage location
func isPlace(node ast.Expr) bool {
	switch node.(type) {
	case *ast.IdentExpr, *ast.FieldExpr, *ast.IndexExpr, *ast.DerefExpr:
		return true
	}
	return false
}

// resolvePlace turns a place expression into the location it denotes.
// Nothing is read or moved; only the path is validated.
// Field and index bases that are not places are stored in a hidden slot first.
func (e *Evaluator) resolvePlace(node ast.Expr, ctx *types.RunContext) (place, types.Result) {
	switch n := node.(type) {
	case *ast.IdentExpr:
		b, err := e.bindings.Resolve(n.Name)
		if err != nil {
			return place{}, types.FromError(err)
		}
		return place{name: n.Name, slot: b.Slot, binding: b}, types.Ok(types.Unit)

	case *ast.DerefExpr:
		return e.resolveDeref(n, ctx)

	case *ast.FieldExpr:
		base, res := e.resolveBase(n.Expr, ctx)
		if !res.IsNormal() {
			return place{}, res
		}
		v, err := e.navigate(base)
		if err != nil {
			return place{}, types.FromError(err)
		}
		step, label, res := fieldStep(v, n)
		if !res.IsNormal() {
			return place{}, res
		}
		return base.child(step, base.name+"."+label, false), types.Ok(types.Unit)

	case *ast.IndexExpr:
		base, res := e.resolveBase(n.Expr, ctx)
		if !res.IsNormal() {
			return place{}, res
		}
		idx, res := e.evalInt(n.Index, ctx)
		if !res.IsNormal() {
			return place{}, res
		}
		v, err := e.navigate(base)
		if err != nil {
			return place{}, types.FromError(err)
		}
		arr, ok := v.(types.ArrayValue)
		if !ok {
			return place{}, types.Raise(types.F_TYPE_MISMATCH, "cannot index into a value of type `%s`", types.TypeName(v))
		}
		if idx < 0 || idx >= int64(arr.Len()) {
			return place{}, types.Raise(types.F_INDEX_OUT_OF_BOUNDS,
				"index out of bounds: the len is %d but the index is %d", arr.Len(), idx)
		}
		return base.child(int(idx), fmt.Sprintf("%s[%d]", base.name, idx), true), types.Ok(types.Unit)
	}

	res := e.Eval(node, ctx)
	if !res.IsNormal() {
		return place{}, res
	}
	return e.materialize(res.Val), types.Ok(types.Unit)
}

// resolveBase resolves the operand of a field or index access,
// following references so that r.x and r[i] reach the borrowed value
func (e *Evaluator) resolveBase(node ast.Expr, ctx *types.RunContext) (place, types.Result) {
	var base place
	if isPlace(node) {
		var res types.Result
		if base, res = e.resolvePlace(node, ctx); !res.IsNormal() {
			return place{}, res
		}
	} else {
		res := e.Eval(node, ctx)
		if !res.IsNormal() {
			return place{}, res
		}
		base = e.materialize(res.Val)
	}

	for {
		v, err := e.navigate(base)
		if err != nil {
			return place{}, types.FromError(err)
		}
		ref, ok := v.(types.RefValue)
		if !ok {
			return base, types.Ok(types.Unit)
		}
		base = place{name: base.name, ref: &ref}
	}
}

// resolveDeref resolves *expr to the place the reference borrows
func (e *Evaluator) resolveDeref(n *ast.DerefExpr, ctx *types.RunContext) (place, types.Result) {
	var v types.Value
	name := tempName
	if isPlace(n.Expr) {
		inner, res := e.resolvePlace(n.Expr, ctx)
		if !res.IsNormal() {
			return place{}, res
		}
		var err error
		if v, err = e.navigate(inner); err != nil {
			return place{}, types.FromError(err)
		}
		name = inner.name
	} else {
		res := e.Eval(n.Expr, ctx)
		if !res.IsNormal() {
			return place{}, res
		}
		v = res.Val
	}
	ref, ok := v.(types.RefValue)
	if !ok {
		return place{}, types.Raise(types.F_TYPE_MISMATCH, "type `%s` cannot be dereferenced", types.TypeName(v))
	}
	return place{name: "*" + name, ref: &ref}, types.Ok(types.Unit)
}

// fieldStep maps a field access to a path step: a struct field by name
// or a tuple position
func fieldStep(v types.Value, n *ast.FieldExpr) (int, string, types.Result) {
	switch t := v.(type) {
	case types.StructValue:
		if n.Index >= 0 {
			return 0, "", types.Raise(types.F_TYPE_MISMATCH, "struct `%s` has no field `%d`", t.StructType().Name, n.Index)
		}
		i := t.StructType().FieldIndex(n.Name)
		if i < 0 {
			return 0, "", types.Raise(types.F_TYPE_MISMATCH, "no field `%s` on type `%s`", n.Name, t.StructType().Name)
		}
		return i, n.Name, types.Ok(types.Unit)
	case types.TupleValue:
		if n.Index < 0 {
			return 0, "", types.Raise(types.F_TYPE_MISMATCH, "no field `%s` on a tuple", n.Name)
		}
		if n.Index >= t.Len() {
			return 0, "", types.Raise(types.F_TYPE_MISMATCH, "no field `%d` on type `%s`", n.Index, types.TypeName(v))
		}
		return n.Index, fmt.Sprint(n.Index), types.Ok(types.Unit)
	}
	label := n.Name
	if n.Index >= 0 {
		label = fmt.Sprint(n.Index)
	}
	return 0, "", types.Raise(types.F_TYPE_MISMATCH, "no field `%s` on type `%s`", label, types.TypeName(v))
}
