package eval

import (
	"ownsim/ast"
	"ownsim/types"
)

// patBinding is one name a matched pattern introduces, at a path relative
// to the scrutinee
type patBinding struct {
	name    string
	path    []int
	byRef   bool
	mutable bool
}

// evalMatch selects the first arm whose pattern matches.
// Enum and bool scrutinees are checked for exhaustiveness before any arm
// is tried.
func (e *Evaluator) evalMatch(node *ast.MatchExpr, ctx *types.RunContext) (res types.Result) {
	e.bindings.Push(false)
	defer func() { res = e.popScope(res) }()

	scrut, v, res := e.scrutinee(node.Scrutinee, ctx)
	if !res.IsNormal() {
		return res
	}

	arms := make([]ast.Pattern, len(node.Arms))
	for i, arm := range node.Arms {
		arms[i] = arm.Pattern
	}
	if res := checkExhaustive(arms, v); !res.IsNormal() {
		return res
	}

	for _, arm := range node.Arms {
		binds, matched, res := e.matchPattern(arm.Pattern, v, nil)
		if !res.IsNormal() {
			return res
		}
		if matched {
			return e.evalArm(scrut, v, binds, arm.Body, ctx)
		}
	}
	return types.Raise(types.F_NON_EXHAUSTIVE_MATCH, "no arm matched `%s`", v)
}

// evalIfLet runs the body when the value matches the pattern, else the
// else block. There is no exhaustiveness requirement.
func (e *Evaluator) evalIfLet(node *ast.IfLetExpr, ctx *types.RunContext) (res types.Result) {
	e.bindings.Push(false)
	defer func() { res = e.popScope(res) }()

	scrut, v, res := e.scrutinee(node.Value, ctx)
	if !res.IsNormal() {
		return res
	}
	binds, matched, res := e.matchPattern(node.Pattern, v, nil)
	if !res.IsNormal() {
		return res
	}
	if matched {
		return e.evalArm(scrut, v, binds, node.Body, ctx)
	}
	if node.Else != nil {
		return e.evalScopedBlock(node.Else, ctx)
	}
	return types.Ok(types.Unit)
}

// scrutinee resolves the matched place and reads its value without
// consuming it. A temporary is kept in a hidden slot for the match;
// a reference is matched through (the referenced value is inspected).
func (e *Evaluator) scrutinee(node ast.Expr, ctx *types.RunContext) (place, types.Value, types.Result) {
	var p place
	if isPlace(node) {
		var res types.Result
		if p, res = e.resolvePlace(node, ctx); !res.IsNormal() {
			return place{}, nil, res
		}
	} else {
		res := e.Eval(node, ctx)
		if !res.IsNormal() {
			return place{}, nil, res
		}
		p = e.materialize(res.Val)
	}

	for {
		v, err := e.inspectPlace(p)
		if err != nil {
			return place{}, nil, types.FromError(err)
		}
		ref, ok := v.(types.RefValue)
		if !ok {
			return p, v, types.Ok(types.Unit)
		}
		p = place{name: "*" + p.name, ref: &ref}
	}
}

// evalArm binds an arm's names and runs its body in a new scope.
// Binding a Move-only part by value consumes the scrutinee place; behind a
// reference such bindings become shared references instead. Copy parts are
// copied and ref bindings borrow.
func (e *Evaluator) evalArm(scrut place, v types.Value, binds []patBinding, body []ast.Stmt, ctx *types.RunContext) (res types.Result) {
	e.bindings.Push(false)
	defer func() { res = e.popScope(res) }()

	moves := false
	for i, b := range binds {
		if b.byRef {
			continue
		}
		sub, _ := types.At(v, b.path)
		if types.IsCopy(sub) {
			continue
		}
		if scrut.ref != nil {
			binds[i].byRef = true
			continue
		}
		moves = true
	}
	if moves {
		if res := e.consume(scrut); !res.IsNormal() {
			return res
		}
	}

	for _, b := range binds {
		var bound types.Value
		if b.byRef {
			target := scrut
			for _, step := range b.path {
				target = target.child(step, scrut.name, false)
			}
			ref := e.borrowPlace(target, false, nil)
			if !ref.IsNormal() {
				return ref
			}
			bound = ref.Val
		} else {
			bound, _ = types.At(v, b.path)
		}
		id := e.tracker.Declare(b.name, bound)
		e.bindings.Declare(b.name, id, b.mutable)
	}
	return e.evalStatements(body, ctx)
}

// consume moves the scrutinee out of its place
func (e *Evaluator) consume(p place) types.Result {
	if p.indexed {
		return types.Raise(types.F_MOVE_OUT_OF_BORROW, "cannot move out of `%s`, a non-copy array element", p.name)
	}
	if _, err := e.tracker.ReadMove(p.slot); err != nil {
		return types.FromError(err)
	}
	return types.Ok(types.Unit)
}

// matchPattern tests a pattern against a value and collects its bindings
func (e *Evaluator) matchPattern(pat ast.Pattern, v types.Value, path []int) ([]patBinding, bool, types.Result) {
	ok := types.Ok(types.Unit)
	switch p := pat.(type) {
	case *ast.WildcardPattern:
		return nil, true, ok

	case *ast.BindPattern:
		return []patBinding{{name: p.Name, path: path, byRef: p.ByRef, mutable: p.Mutable}}, true, ok

	case *ast.LiteralPattern:
		actual, err := e.derefAll(v)
		if err != nil {
			return nil, false, types.FromError(err)
		}
		eq, comparable := equalValues(p.Value, actual)
		if !comparable {
			return nil, false, types.Raise(types.F_TYPE_MISMATCH,
				"mismatched types: expected `%s`, found `%s`", types.TypeName(actual), types.TypeName(p.Value))
		}
		return nil, eq, ok

	case *ast.VariantPattern:
		ev, isEnum := v.(types.EnumValue)
		if !isEnum {
			return nil, false, types.Raise(types.F_TYPE_MISMATCH,
				"mismatched types: expected `%s`, found enum variant `%s`", types.TypeName(v), p.Variant)
		}
		typ := ev.EnumType()
		if p.Enum != "" && p.Enum != typ.Name {
			return nil, false, types.Raise(types.F_TYPE_MISMATCH,
				"mismatched types: expected `%s`, found `%s`", typ.Name, p.Enum)
		}
		def, known := typ.Variant(p.Variant)
		if !known {
			return nil, false, types.Raise(types.F_UNKNOWN_NAME,
				"no variant named `%s` found for enum `%s`", p.Variant, typ.Name)
		}
		if ev.Variant() != def.Name {
			return nil, false, ok
		}
		if p.Payload == nil {
			return nil, true, ok
		}
		if !def.HasPayload {
			return nil, false, types.Raise(types.F_ARITY_MISMATCH, "unit variant `%s` has no payload to match", def.Name)
		}
		return e.matchPattern(p.Payload, ev.Payload(), extend(path, 0))

	case *ast.TuplePattern:
		tuple, isTuple := v.(types.TupleValue)
		if !isTuple || tuple.Len() != len(p.Elements) {
			return nil, false, types.Raise(types.F_TYPE_MISMATCH,
				"mismatched types: expected a tuple with %d elements, found `%s`", len(p.Elements), types.TypeName(v))
		}
		var all []patBinding
		for i, elem := range p.Elements {
			binds, matched, res := e.matchPattern(elem, tuple.Get(i), extend(path, i))
			if !res.IsNormal() || !matched {
				return nil, false, res
			}
			all = append(all, binds...)
		}
		return all, true, ok
	}
	return nil, false, types.Raise(types.F_TYPE_MISMATCH, "unsupported pattern %T", pat)
}

func extend(path []int, step int) []int {
	out := make([]int, len(path), len(path)+1)
	copy(out, path)
	return append(out, step)
}

// checkExhaustive requires every variant of an enum scrutinee (or both
// bools) to be covered by some arm, independent of the actual value
func checkExhaustive(arms []ast.Pattern, v types.Value) types.Result {
	switch t := v.(type) {
	case types.EnumValue:
		typ := t.EnumType()
		for _, variant := range typ.Variants {
			if !covered(arms, variant.Name) {
				name := variant.Name
				if !typ.Generic {
					name = typ.Name + "::" + name
				}
				return types.Raise(types.F_NON_EXHAUSTIVE_MATCH, "non-exhaustive patterns: `%s` not covered", name)
			}
		}
	case types.BoolValue:
		for _, b := range []bool{true, false} {
			if !coversBool(arms, b) {
				return types.Raise(types.F_NON_EXHAUSTIVE_MATCH, "non-exhaustive patterns: `%t` not covered", b)
			}
		}
	}
	return types.Ok(types.Unit)
}

func covered(arms []ast.Pattern, variant string) bool {
	for _, pat := range arms {
		if irrefutable(pat) {
			return true
		}
		if vp, ok := pat.(*ast.VariantPattern); ok && vp.Variant == variant {
			if vp.Payload == nil || irrefutable(vp.Payload) {
				return true
			}
		}
	}
	return false
}

func coversBool(arms []ast.Pattern, b bool) bool {
	for _, pat := range arms {
		if irrefutable(pat) {
			return true
		}
		if lp, ok := pat.(*ast.LiteralPattern); ok && lp.Value.Equal(types.NewBool(b)) {
			return true
		}
	}
	return false
}

// irrefutable reports whether a pattern matches every value of its type
func irrefutable(pat ast.Pattern) bool {
	switch p := pat.(type) {
	case *ast.WildcardPattern, *ast.BindPattern:
		return true
	case *ast.TuplePattern:
		for _, elem := range p.Elements {
			if !irrefutable(elem) {
				return false
			}
		}
		return true
	}
	return false
}
