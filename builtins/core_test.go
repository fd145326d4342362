package builtins

import (
	"ownsim/types"
	"testing"
)

// refContext resolves any reference to target
func refContext(target types.Value) *types.RunContext {
	ctx := types.NewRunContext()
	ctx.Deref = func(types.RefValue) (types.Value, error) {
		return target, nil
	}
	return ctx
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	for _, name := range []string{"print", "println", "format", "len", "clone", "typeof", "assert", "to_text"} {
		b, ok := r.Get(name)
		if !ok {
			t.Errorf("%s not registered", name)
			continue
		}
		if b.Mode != Borrowed {
			t.Errorf("%s should borrow its arguments", name)
		}
	}
	for _, name := range []string{"unwrap", "expect", "unwrap_or", "drop", "panic"} {
		b, ok := r.Get(name)
		if !ok || b.Mode != Consumed {
			t.Errorf("%s should be registered as consuming", name)
		}
	}

	if _, ok := r.Get("nope"); ok {
		t.Error("unknown builtin should not be registered")
	}
}

// call runs a registered builtin
func call(t *testing.T, r *Registry, ctx *types.RunContext, name string, args ...types.Value) types.Result {
	t.Helper()
	b, ok := r.Get(name)
	if !ok {
		t.Fatalf("builtin %s not registered", name)
	}
	return b.Fn(ctx, args)
}

func TestUnwrap(t *testing.T) {
	tests := []struct {
		name  string
		arg   types.Value
		want  types.Value
		fault types.FaultKind
	}{
		{"some", types.Some(types.NewInt(32)), types.NewInt(32), types.F_NONE},
		{"ok", types.Success(types.NewInt(5)), types.NewInt(5), types.F_NONE},
		{"none", types.None(), nil, types.F_UNWRAP_FAILED},
		{"err", types.Failure(types.NewText("bad")), nil, types.F_UNWRAP_FAILED},
		{"not an enum", types.NewInt(1), nil, types.F_TYPE_MISMATCH},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := builtinUnwrap(types.NewRunContext(), []types.Value{tt.arg})
			if tt.fault != types.F_NONE {
				if res.Fault != tt.fault {
					t.Fatalf("expected %s, got %+v", tt.fault, res)
				}
				return
			}
			if !res.IsNormal() || !res.Val.Equal(tt.want) {
				t.Errorf("unwrap = %+v", res)
			}
		})
	}
}

func TestUnwrapThroughBorrow(t *testing.T) {
	ref := types.RefValue{Loan: 1, Target: 1}

	ctx := refContext(types.Some(types.NewText("owned")))
	res := builtinUnwrap(ctx, []types.Value{ref})
	if res.Fault != types.F_MOVE_OUT_OF_BORROW {
		t.Errorf("moving text out of a borrow should fail, got %+v", res)
	}

	ctx = refContext(types.Some(types.NewInt(7)))
	res = builtinUnwrap(ctx, []types.Value{ref})
	if !res.IsNormal() || !res.Val.Equal(types.NewInt(7)) {
		t.Errorf("copy payload through a borrow = %+v", res)
	}
}

func TestExpectAndUnwrapOr(t *testing.T) {
	ctx := types.NewRunContext()
	res := builtinExpect(ctx, []types.Value{types.None(), types.NewStr("need a value")})
	if res.Fault != types.F_UNWRAP_FAILED || res.Message != "need a value" {
		t.Errorf("expect(None) = %+v", res)
	}

	res = builtinUnwrapOr(ctx, []types.Value{types.None(), types.NewInt(0)})
	if !res.Val.Equal(types.NewInt(0)) {
		t.Errorf("unwrap_or(None, 0) = %+v", res)
	}
	res = builtinUnwrapOr(ctx, []types.Value{types.Some(types.NewInt(3)), types.NewInt(0)})
	if !res.Val.Equal(types.NewInt(3)) {
		t.Errorf("unwrap_or(Some(3), 0) = %+v", res)
	}
}

func TestVariantChecks(t *testing.T) {
	ctx := types.NewRunContext()
	tests := []struct {
		fn   BuiltinFunc
		arg  types.Value
		want bool
	}{
		{builtinIsSome, types.Some(types.NewInt(1)), true},
		{builtinIsSome, types.None(), false},
		{builtinIsNone, types.None(), true},
		{builtinIsOk, types.Success(types.NewInt(1)), true},
		{builtinIsErr, types.Success(types.NewInt(1)), false},
	}
	for i, tt := range tests {
		res := tt.fn(ctx, []types.Value{tt.arg})
		if !res.Val.Equal(types.NewBool(tt.want)) {
			t.Errorf("case %d: got %+v, want %v", i, res, tt.want)
		}
	}

	res := builtinIsSome(ctx, []types.Value{types.Success(types.NewInt(1))})
	if res.Fault != types.F_TYPE_MISMATCH {
		t.Errorf("is_some on a Result should be a type mismatch, got %+v", res)
	}
}

func TestLenAndTypeof(t *testing.T) {
	arr := types.NewArray([]types.Value{types.NewInt(1), types.NewInt(2), types.NewInt(3), types.NewInt(4)})
	ctx := refContext(arr)

	res := builtinLen(ctx, []types.Value{types.RefValue{Loan: 1, Target: 1}})
	if !res.Val.Equal(types.NewIntKind(types.USize, 4)) {
		t.Errorf("len(&array) = %+v", res)
	}
	res = builtinLen(ctx, []types.Value{types.NewText("héllo")})
	if !res.Val.Equal(types.NewIntKind(types.USize, 6)) {
		t.Errorf("len counts bytes, got %+v", res)
	}

	res = builtinTypeof(ctx, []types.Value{arr})
	if !res.Val.Equal(types.NewStr("[i32; 4]")) {
		t.Errorf("typeof(array) = %+v", res)
	}
	res = builtinTypeof(ctx, []types.Value{types.RefValue{Loan: 1, Target: 1, Exclusive: true}})
	if !res.Val.Equal(types.NewStr("&mut [i32; 4]")) {
		t.Errorf("typeof(&mut array) = %+v", res)
	}
}

func TestCloneAndToText(t *testing.T) {
	ctx := refContext(types.NewText("I get cloned!"))
	res := builtinClone(ctx, []types.Value{types.RefValue{Loan: 1, Target: 1}})
	if _, ok := res.Val.(types.TextValue); !ok || !res.Val.Equal(types.NewText("I get cloned!")) {
		t.Errorf("clone(&s) = %+v", res)
	}

	res = builtinToText(ctx, []types.Value{types.NewStr("Hello!")})
	if _, ok := res.Val.(types.TextValue); !ok {
		t.Errorf("to_text should produce an owned String, got %T", res.Val)
	}
}

func TestAssert(t *testing.T) {
	ctx := types.NewRunContext()
	if res := builtinAssert(ctx, []types.Value{types.NewBool(true)}); !res.IsNormal() {
		t.Errorf("assert(true) = %+v", res)
	}
	res := builtinAssert(ctx, []types.Value{types.NewBool(false), types.NewStr("x was {}"), types.NewInt(3)})
	if res.Fault != types.F_ABORT || res.Message != "x was 3" {
		t.Errorf("assert(false, ...) = %+v", res)
	}
	if res := builtinAssert(ctx, []types.Value{types.NewInt(1)}); res.Fault != types.F_TYPE_MISMATCH {
		t.Errorf("assert(1) = %+v", res)
	}
}
