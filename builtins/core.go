package builtins

import (
	"ownsim/types"
)

// deref follows references until a non-reference value is reached.
// Nested references inside aggregates are left alone.
func deref(ctx *types.RunContext, v types.Value) (types.Value, error) {
	for {
		ref, ok := v.(types.RefValue)
		if !ok || ctx.Deref == nil {
			return v, nil
		}
		target, err := ctx.Deref(ref)
		if err != nil {
			return nil, err
		}
		v = target
	}
}

// enumArg dereferences the single argument and checks it is the given enum
func enumArg(ctx *types.RunContext, name string, args []types.Value, typ *types.EnumType) (types.EnumValue, types.Result, bool) {
	if len(args) != 1 {
		return types.EnumValue{}, types.Raise(types.F_ARITY_MISMATCH,
			"%s takes 1 argument but %d were supplied", name, len(args)), false
	}
	v, err := deref(ctx, args[0])
	if err != nil {
		return types.EnumValue{}, types.FromError(err), false
	}
	e, ok := v.(types.EnumValue)
	if !ok || (typ != nil && e.EnumType().Name != typ.Name) {
		want := "Option or Result"
		if typ != nil {
			want = typ.Name
		}
		return types.EnumValue{}, types.Raise(types.F_TYPE_MISMATCH,
			"%s expects %s, found %s", name, want, types.TypeName(v)), false
	}
	return e, types.Result{}, true
}

// ============================================================================
// INSPECTION
// ============================================================================

// builtinLen returns the length of text (in bytes), an array or a tuple
// len(x) -> usize
func builtinLen(ctx *types.RunContext, args []types.Value) types.Result {
	if len(args) != 1 {
		return types.Raise(types.F_ARITY_MISMATCH, "len takes 1 argument but %d were supplied", len(args))
	}
	v, err := deref(ctx, args[0])
	if err != nil {
		return types.FromError(err)
	}
	switch t := v.(type) {
	case types.TextValue:
		return types.Ok(types.NewIntKind(types.USize, int64(len(t.Value()))))
	case types.StrValue:
		return types.Ok(types.NewIntKind(types.USize, int64(len(t.Value()))))
	case types.ArrayValue:
		return types.Ok(types.NewIntKind(types.USize, int64(t.Len())))
	case types.TupleValue:
		return types.Ok(types.NewIntKind(types.USize, int64(t.Len())))
	default:
		return types.Raise(types.F_TYPE_MISMATCH, "no method `len` on %s", types.TypeName(v))
	}
}

func variantCheck(name string, typ *types.EnumType, variant string) BuiltinFunc {
	return func(ctx *types.RunContext, args []types.Value) types.Result {
		e, res, ok := enumArg(ctx, name, args, typ)
		if !ok {
			return res
		}
		return types.Ok(types.NewBool(e.Variant() == variant))
	}
}

var (
	builtinIsSome = variantCheck("is_some", types.OptionType, "Some")
	builtinIsNone = variantCheck("is_none", types.OptionType, "None")
	builtinIsOk   = variantCheck("is_ok", types.ResultType, "Ok")
	builtinIsErr  = variantCheck("is_err", types.ResultType, "Err")
)

// builtinTypeof returns the source-level type name of a value
// typeof(x) -> &str
func builtinTypeof(ctx *types.RunContext, args []types.Value) types.Result {
	if len(args) != 1 {
		return types.Raise(types.F_ARITY_MISMATCH, "typeof takes 1 argument but %d were supplied", len(args))
	}
	prefix := ""
	v := args[0]
	for {
		ref, ok := v.(types.RefValue)
		if !ok || ctx.Deref == nil {
			break
		}
		if ref.Exclusive {
			prefix += "&mut "
		} else {
			prefix += "&"
		}
		target, err := ctx.Deref(ref)
		if err != nil {
			return types.FromError(err)
		}
		if ref.Span != nil {
			if arr, ok := target.(types.ArrayValue); ok && arr.Len() > 0 {
				return types.Ok(types.NewStr(prefix + "[" + types.TypeName(arr.Get(0)) + "]"))
			}
		}
		v = target
	}
	return types.Ok(types.NewStr(prefix + types.TypeName(v)))
}

// builtinAssert aborts the run when the condition is false
// assert(cond) -> ()
// assert(cond, fmt, args...) -> ()
func builtinAssert(ctx *types.RunContext, args []types.Value) types.Result {
	if len(args) == 0 {
		return types.Raise(types.F_ARITY_MISMATCH, "assert requires a condition")
	}
	v, err := deref(ctx, args[0])
	if err != nil {
		return types.FromError(err)
	}
	cond, ok := v.(types.BoolValue)
	if !ok {
		return types.Raise(types.F_TYPE_MISMATCH, "assert expects bool, found %s", types.TypeName(v))
	}
	if cond.Val {
		return types.Ok(types.Unit)
	}
	if len(args) == 1 {
		return types.Raise(types.F_ABORT, "assertion failed")
	}
	msg, err := Format(ctx, args[1:])
	if err != nil {
		return types.FromError(err)
	}
	return types.Raise(types.F_ABORT, "%s", msg)
}

// ============================================================================
// DUPLICATION
// ============================================================================

// builtinClone returns an independent copy of the borrowed value
// clone(x) -> T
func builtinClone(ctx *types.RunContext, args []types.Value) types.Result {
	if len(args) != 1 {
		return types.Raise(types.F_ARITY_MISMATCH, "clone takes 1 argument but %d were supplied", len(args))
	}
	v, err := deref(ctx, args[0])
	if err != nil {
		return types.FromError(err)
	}
	// Values are immutable, so sharing the representation is a deep copy.
	return types.Ok(v)
}

// builtinToText converts a value to an owned String
// to_text(x) -> String
func builtinToText(ctx *types.RunContext, args []types.Value) types.Result {
	if len(args) != 1 {
		return types.Raise(types.F_ARITY_MISMATCH, "to_text takes 1 argument but %d were supplied", len(args))
	}
	v, err := ctx.Resolve(args[0])
	if err != nil {
		return types.FromError(err)
	}
	return types.Ok(types.NewText(types.Display(v)))
}

// ============================================================================
// CONSUMING EXTRACTION
// ============================================================================

// payloadOut extracts a payload, refusing to move a Move-only value out of a borrow
func payloadOut(ctx *types.RunContext, arg types.Value, name string) (types.EnumValue, types.Result, bool) {
	e, res, ok := enumArg(ctx, name, []types.Value{arg}, nil)
	if !ok {
		return e, res, false
	}
	if _, borrowed := arg.(types.RefValue); borrowed && e.Payload() != nil && !types.IsCopy(e.Payload()) {
		return e, types.Raise(types.F_MOVE_OUT_OF_BORROW,
			"cannot move out of a shared reference: %s payload is %s", name, types.TypeName(e.Payload())), false
	}
	return e, types.Result{}, true
}

// builtinUnwrap extracts Some(v) or Ok(v), faulting on None or Err
// unwrap(x) -> T
func builtinUnwrap(ctx *types.RunContext, args []types.Value) types.Result {
	if len(args) != 1 {
		return types.Raise(types.F_ARITY_MISMATCH, "unwrap takes 1 argument but %d were supplied", len(args))
	}
	e, res, ok := payloadOut(ctx, args[0], "unwrap")
	if !ok {
		return res
	}
	switch e.Variant() {
	case "Some", "Ok":
		return types.Ok(e.Payload())
	case "None":
		return types.Raise(types.F_UNWRAP_FAILED, "called `Option::unwrap()` on a `None` value")
	case "Err":
		return types.Raise(types.F_UNWRAP_FAILED, "called `Result::unwrap()` on an `Err` value: %s", e.Payload())
	}
	return types.Raise(types.F_TYPE_MISMATCH, "unwrap expects Option or Result, found %s", e.EnumType().Name)
}

// builtinExpect is unwrap with a caller-supplied message
// expect(x, msg) -> T
func builtinExpect(ctx *types.RunContext, args []types.Value) types.Result {
	if len(args) != 2 {
		return types.Raise(types.F_ARITY_MISMATCH, "expect takes 2 arguments but %d were supplied", len(args))
	}
	msgVal, err := ctx.Resolve(args[1])
	if err != nil {
		return types.FromError(err)
	}
	msg, ok := types.TextOf(msgVal)
	if !ok {
		return types.Raise(types.F_TYPE_MISMATCH, "expect message must be a string, found %s", types.TypeName(msgVal))
	}
	e, res, ok := payloadOut(ctx, args[0], "expect")
	if !ok {
		return res
	}
	switch e.Variant() {
	case "Some", "Ok":
		return types.Ok(e.Payload())
	case "None":
		return types.Raise(types.F_UNWRAP_FAILED, "%s", msg)
	case "Err":
		return types.Raise(types.F_UNWRAP_FAILED, "%s: %s", msg, e.Payload())
	}
	return types.Raise(types.F_TYPE_MISMATCH, "expect expects Option or Result, found %s", e.EnumType().Name)
}

// builtinUnwrapOr extracts the payload or returns the fallback
// unwrap_or(x, default) -> T
func builtinUnwrapOr(ctx *types.RunContext, args []types.Value) types.Result {
	if len(args) != 2 {
		return types.Raise(types.F_ARITY_MISMATCH, "unwrap_or takes 2 arguments but %d were supplied", len(args))
	}
	e, res, ok := payloadOut(ctx, args[0], "unwrap_or")
	if !ok {
		return res
	}
	switch e.Variant() {
	case "Some", "Ok":
		return types.Ok(e.Payload())
	case "None", "Err":
		return types.Ok(args[1])
	}
	return types.Raise(types.F_TYPE_MISMATCH, "unwrap_or expects Option or Result, found %s", e.EnumType().Name)
}

// builtinDrop consumes its argument; the moved value ends here
// drop(x) -> ()
func builtinDrop(ctx *types.RunContext, args []types.Value) types.Result {
	if len(args) != 1 {
		return types.Raise(types.F_ARITY_MISMATCH, "drop takes 1 argument but %d were supplied", len(args))
	}
	return types.Ok(types.Unit)
}
