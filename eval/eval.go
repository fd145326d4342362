package eval

import (
	"ownsim/ast"
	"ownsim/bindings"
	"ownsim/builtins"
	"ownsim/ownership"
	"ownsim/store"
	"ownsim/types"
)

// maxCallDepth bounds recursion before the tick budget would
const maxCallDepth = 1000

// tempName names hidden slots holding borrowed temporaries and match scrutinees
const tempName = "<temp>"

// Evaluator walks the AST and evaluates expressions/statements.
// Every read, move, borrow, write and drop goes through the ownership tracker.
type Evaluator struct {
	store    *store.Store
	tracker  *ownership.Tracker
	bindings *bindings.Table
	builtins *builtins.Registry

	funcs   map[string]*ast.FnDecl
	structs map[string]*structDef
	enums   map[string]*types.EnumType

	frames    []Frame
	faultedAt []Frame // call stack captured when the first fault was raised
	stepper   Stepper
}

// structDef is a declared struct type plus its declared field types
type structDef struct {
	typ        *types.StructType
	fieldTypes []string
}

// NewEvaluator creates an evaluator with a fresh store and an empty outermost scope
func NewEvaluator() *Evaluator {
	s := store.NewStore()
	return &Evaluator{
		store:    s,
		tracker:  ownership.New(s),
		bindings: bindings.NewTable(),
		builtins: builtins.NewRegistry(),
		funcs:    make(map[string]*ast.FnDecl),
		structs:  make(map[string]*structDef),
		enums: map[string]*types.EnumType{
			types.OptionType.Name: types.OptionType,
			types.ResultType.Name: types.ResultType,
		},
	}
}

// Eval evaluates an expression for its value.
// All evaluation methods follow this pattern:
// - Accept *RunContext for tick counting and console output
// - Return Result (not raw Value) to unify faults and control flow
// - Check tick limit before processing
// Place expressions (names, fields, elements, *r) are read by value:
// Copy values are duplicated, Move-only values are moved out.
func (e *Evaluator) Eval(node ast.Expr, ctx *types.RunContext) types.Result {
	if !ctx.ConsumeTick() {
		return types.Raise(types.F_TICK_LIMIT, "tick limit exceeded")
	}

	switch n := node.(type) {
	case *ast.LiteralExpr:
		return types.Ok(n.Value)
	case *ast.IdentExpr, *ast.FieldExpr, *ast.IndexExpr, *ast.DerefExpr:
		return e.evalPlaceValue(node, ctx)
	case *ast.TupleExpr:
		return e.evalTuple(n, ctx)
	case *ast.ArrayExpr:
		return e.evalArray(n, ctx)
	case *ast.RepeatExpr:
		return e.evalRepeat(n, ctx)
	case *ast.RangeExpr:
		return e.evalRange(n, ctx)
	case *ast.StructExpr:
		return e.evalStruct(n, ctx)
	case *ast.VariantExpr:
		return e.evalVariant(n, ctx)
	case *ast.UnaryExpr:
		return e.evalUnary(n, ctx)
	case *ast.BinaryExpr:
		return e.evalBinary(n, ctx)
	case *ast.RefExpr:
		return e.evalRef(n, ctx)
	case *ast.CallExpr:
		return e.evalCall(n, ctx)
	case *ast.IfExpr:
		return e.evalIf(n, ctx)
	case *ast.IfLetExpr:
		return e.evalIfLet(n, ctx)
	case *ast.LoopExpr:
		return e.evalLoop(n, ctx)
	case *ast.MatchExpr:
		return e.evalMatch(n, ctx)
	case *ast.BlockExpr:
		return e.evalScopedBlock(n.Body, ctx)
	default:
		return types.Raise(types.F_TYPE_MISMATCH, "cannot evaluate %T", node)
	}
}

// evalInspect evaluates an expression without consuming it.
// Places are read in place; anything else is evaluated normally.
func (e *Evaluator) evalInspect(node ast.Expr, ctx *types.RunContext) types.Result {
	if !isPlace(node) {
		return e.Eval(node, ctx)
	}
	p, res := e.resolvePlace(node, ctx)
	if !res.IsNormal() {
		return res
	}
	v, err := e.inspectPlace(p)
	if err != nil {
		return types.FromError(err)
	}
	return types.Ok(v)
}

// evalPlaceValue reads a place by value
func (e *Evaluator) evalPlaceValue(node ast.Expr, ctx *types.RunContext) types.Result {
	p, res := e.resolvePlace(node, ctx)
	if !res.IsNormal() {
		return res
	}
	return e.usePlace(p)
}

// evalAll evaluates expressions left to right
func (e *Evaluator) evalAll(exprs []ast.Expr, ctx *types.RunContext) ([]types.Value, types.Result) {
	values := make([]types.Value, len(exprs))
	for i, x := range exprs {
		res := e.Eval(x, ctx)
		if !res.IsNormal() {
			return nil, res
		}
		values[i] = res.Val
	}
	return values, types.Ok(types.Unit)
}

// evalTuple evaluates a tuple constructor: (a, b, c)
func (e *Evaluator) evalTuple(node *ast.TupleExpr, ctx *types.RunContext) types.Result {
	if len(node.Elements) == 0 {
		return types.Ok(types.Unit)
	}
	values, res := e.evalAll(node.Elements, ctx)
	if !res.IsNormal() {
		return res
	}
	return types.Ok(types.NewTuple(values))
}

// evalArray evaluates an array literal; elements must share one type
func (e *Evaluator) evalArray(node *ast.ArrayExpr, ctx *types.RunContext) types.Result {
	values, res := e.evalAll(node.Elements, ctx)
	if !res.IsNormal() {
		return res
	}
	for i := 1; i < len(values); i++ {
		if types.TypeName(values[i]) != types.TypeName(values[0]) {
			return types.Raise(types.F_TYPE_MISMATCH,
				"mismatched types: expected `%s`, found `%s`", types.TypeName(values[0]), types.TypeName(values[i]))
		}
	}
	return types.Ok(types.NewArray(values))
}

// evalRepeat evaluates [value; count]; the value must be Copy
func (e *Evaluator) evalRepeat(node *ast.RepeatExpr, ctx *types.RunContext) types.Result {
	valRes := e.Eval(node.Value, ctx)
	if !valRes.IsNormal() {
		return valRes
	}
	n, res := e.evalCount(node.Count, ctx)
	if !res.IsNormal() {
		return res
	}
	if !types.IsCopy(valRes.Val) {
		return types.Raise(types.F_TYPE_MISMATCH,
			"the trait `Copy` is not implemented for `%s`", types.TypeName(valRes.Val))
	}
	return types.Ok(types.NewRepeatArray(valRes.Val, n))
}

// evalCount evaluates a non-negative length that the tick budget can afford
func (e *Evaluator) evalCount(node ast.Expr, ctx *types.RunContext) (int, types.Result) {
	n, res := e.evalInt(node, ctx)
	if !res.IsNormal() {
		return 0, res
	}
	if n < 0 {
		return 0, types.Raise(types.F_OVERFLOW, "negative length %d", n)
	}
	if n > ctx.TicksRemaining {
		return 0, types.Raise(types.F_TICK_LIMIT, "sequence of %d elements exceeds the tick budget", n)
	}
	return int(n), types.Ok(types.Unit)
}

// evalInt evaluates an expression that must produce an integer
func (e *Evaluator) evalInt(node ast.Expr, ctx *types.RunContext) (int64, types.Result) {
	res := e.Eval(node, ctx)
	if !res.IsNormal() {
		return 0, res
	}
	v, err := e.derefAll(res.Val)
	if err != nil {
		return 0, types.FromError(err)
	}
	i, ok := v.(types.IntValue)
	if !ok {
		return 0, types.Raise(types.F_TYPE_MISMATCH, "expected integer, found `%s`", types.TypeName(v))
	}
	return i.Val, types.Ok(v)
}

// evalRange evaluates start..end into the finite sequence of integers it covers
func (e *Evaluator) evalRange(node *ast.RangeExpr, ctx *types.RunContext) types.Result {
	startRes := e.Eval(node.Start, ctx)
	if !startRes.IsNormal() {
		return startRes
	}
	endRes := e.Eval(node.End, ctx)
	if !endRes.IsNormal() {
		return endRes
	}
	lo, ok1 := startRes.Val.(types.IntValue)
	hi, ok2 := endRes.Val.(types.IntValue)
	if !ok1 || !ok2 {
		return types.Raise(types.F_TYPE_MISMATCH, "range bounds must be integers, found `%s..%s`",
			types.TypeName(startRes.Val), types.TypeName(endRes.Val))
	}
	kind, ok := unifyKinds(lo, hi)
	if !ok {
		return types.Raise(types.F_TYPE_MISMATCH, "mismatched range bounds `%s..%s`", lo.Kind, hi.Kind)
	}
	if hi.Val <= lo.Val {
		return types.Ok(types.NewArray(nil))
	}
	// The width is computed unsigned; hi-lo can exceed MaxInt64
	width := uint64(hi.Val) - uint64(lo.Val)
	if ctx.TicksRemaining <= 0 || width > uint64(ctx.TicksRemaining) {
		return types.Raise(types.F_TICK_LIMIT, "range %d..%d exceeds the tick budget", lo.Val, hi.Val)
	}
	values := make([]types.Value, 0, width)
	for i := lo.Val; i < hi.Val; i++ {
		values = append(values, types.NewIntKind(kind, i))
	}
	return types.Ok(types.NewArray(values))
}

// evalStruct constructs a struct; every declared field must be given exactly once
func (e *Evaluator) evalStruct(node *ast.StructExpr, ctx *types.RunContext) types.Result {
	def, ok := e.structs[node.Name]
	if !ok {
		return types.Raise(types.F_UNKNOWN_NAME, "cannot find struct `%s` in this scope", node.Name)
	}
	fields := make([]types.Value, len(def.typ.Fields))
	for _, f := range node.Fields {
		i := def.typ.FieldIndex(f.Name)
		if i < 0 {
			return types.Raise(types.F_TYPE_MISMATCH, "struct `%s` has no field named `%s`", node.Name, f.Name)
		}
		if fields[i] != nil {
			return types.Raise(types.F_TYPE_MISMATCH, "field `%s` specified more than once", f.Name)
		}
		res := e.Eval(f.Value, ctx)
		if !res.IsNormal() {
			return res
		}
		fields[i] = res.Val
	}
	for i, v := range fields {
		if v == nil {
			return types.Raise(types.F_TYPE_MISMATCH, "missing field `%s` in initializer of `%s`",
				def.typ.Fields[i], node.Name)
		}
	}
	return types.Ok(types.NewStruct(def.typ, fields))
}

// evalVariant constructs an enum value
func (e *Evaluator) evalVariant(node *ast.VariantExpr, ctx *types.RunContext) types.Result {
	typ, res := e.lookupVariant(node.Enum, node.Variant)
	if !res.IsNormal() {
		return res
	}
	def, _ := typ.Variant(node.Variant)
	if def.HasPayload != (node.Payload != nil) {
		if def.HasPayload {
			return types.Raise(types.F_ARITY_MISMATCH, "variant `%s::%s` expects a payload", typ.Name, def.Name)
		}
		return types.Raise(types.F_ARITY_MISMATCH, "unit variant `%s::%s` takes no payload", typ.Name, def.Name)
	}
	if node.Payload == nil {
		return types.Ok(types.NewEnum(typ, def.Name, nil))
	}
	payload := e.Eval(node.Payload, ctx)
	if !payload.IsNormal() {
		return payload
	}
	return types.Ok(types.NewEnum(typ, def.Name, payload.Val))
}

// lookupVariant finds the enum declaring a variant. An unqualified name
// must be unambiguous across Option, Result and declared enums.
func (e *Evaluator) lookupVariant(enum, variant string) (*types.EnumType, types.Result) {
	if enum != "" {
		typ, ok := e.enums[enum]
		if !ok {
			return nil, types.Raise(types.F_UNKNOWN_NAME, "cannot find enum `%s` in this scope", enum)
		}
		if _, ok := typ.Variant(variant); !ok {
			return nil, types.Raise(types.F_UNKNOWN_NAME, "no variant named `%s` found for enum `%s`", variant, enum)
		}
		return typ, types.Ok(types.Unit)
	}

	for _, typ := range []*types.EnumType{types.OptionType, types.ResultType} {
		if _, ok := typ.Variant(variant); ok {
			return typ, types.Ok(types.Unit)
		}
	}
	var found *types.EnumType
	for _, typ := range e.enums {
		if _, ok := typ.Variant(variant); ok {
			if found != nil {
				return nil, types.Raise(types.F_UNKNOWN_NAME, "variant `%s` is ambiguous", variant)
			}
			found = typ
		}
	}
	if found == nil {
		return nil, types.Raise(types.F_UNKNOWN_NAME, "cannot find variant `%s` in this scope", variant)
	}
	return found, types.Ok(types.Unit)
}

// evalUnary evaluates a unary expression
// Implements: - (negation), ! (logical not)
func (e *Evaluator) evalUnary(node *ast.UnaryExpr, ctx *types.RunContext) types.Result {
	operandResult := e.Eval(node.Operand, ctx)
	if !operandResult.IsNormal() {
		return operandResult
	}
	operand, err := e.derefAll(operandResult.Val)
	if err != nil {
		return types.FromError(err)
	}

	switch node.Operator {
	case "-":
		return evalUnaryMinus(operand)
	case "!":
		return evalUnaryNot(operand)
	default:
		return types.Raise(types.F_TYPE_MISMATCH, "unknown unary operator %q", node.Operator)
	}
}

// evalBinary evaluates a binary expression.
// Comparisons borrow their operands; arithmetic consumes them (String + &str
// moves the left operand). && and || short-circuit.
func (e *Evaluator) evalBinary(node *ast.BinaryExpr, ctx *types.RunContext) types.Result {
	switch node.Operator {
	case "&&", "||":
		return e.evalLogical(node, ctx)
	}

	operand := e.Eval
	if isComparison(node.Operator) {
		operand = e.evalInspect
	}

	leftResult := operand(node.Left, ctx)
	if !leftResult.IsNormal() {
		return leftResult
	}
	rightResult := operand(node.Right, ctx)
	if !rightResult.IsNormal() {
		return rightResult
	}

	left, err := e.derefAll(leftResult.Val)
	if err != nil {
		return types.FromError(err)
	}
	right, err := e.derefAll(rightResult.Val)
	if err != nil {
		return types.FromError(err)
	}

	if isComparison(node.Operator) {
		return evalCompare(node.Operator, left, right)
	}
	return evalArith(node.Operator, left, right)
}

// evalLogical evaluates && and || with short-circuiting
func (e *Evaluator) evalLogical(node *ast.BinaryExpr, ctx *types.RunContext) types.Result {
	left, res := e.evalCondition(node.Left, ctx)
	if !res.IsNormal() {
		return res
	}
	if node.Operator == "&&" && !left {
		return types.Ok(types.NewBool(false))
	}
	if node.Operator == "||" && left {
		return types.Ok(types.NewBool(true))
	}
	right, res := e.evalCondition(node.Right, ctx)
	if !res.IsNormal() {
		return res
	}
	return types.Ok(types.NewBool(right))
}

// evalCondition evaluates an expression that must produce a bool
func (e *Evaluator) evalCondition(node ast.Expr, ctx *types.RunContext) (bool, types.Result) {
	res := e.Eval(node, ctx)
	if !res.IsNormal() {
		return false, res
	}
	v, err := e.derefAll(res.Val)
	if err != nil {
		return false, types.FromError(err)
	}
	b, ok := v.(types.BoolValue)
	if !ok {
		return false, types.Raise(types.F_TYPE_MISMATCH, "mismatched types: expected `bool`, found `%s`", types.TypeName(v))
	}
	return b.Val, res
}

// evalRef borrows a place. Borrowing a temporary first stores it in a
// hidden slot that lives until the enclosing scope ends.
func (e *Evaluator) evalRef(node *ast.RefExpr, ctx *types.RunContext) types.Result {
	var p place
	if node.Slice {
		var res types.Result
		if p, res = e.resolveBase(node.Place, ctx); !res.IsNormal() {
			return res
		}
	} else if isPlace(node.Place) {
		var res types.Result
		if p, res = e.resolvePlace(node.Place, ctx); !res.IsNormal() {
			return res
		}
	} else {
		res := e.Eval(node.Place, ctx)
		if !res.IsNormal() {
			return res
		}
		p = e.materialize(res.Val)
	}

	var span *types.Span
	if node.Slice {
		s, res := e.evalSpan(node, p, ctx)
		if !res.IsNormal() {
			return res
		}
		span = s
	}
	return e.borrowPlace(p, node.Exclusive, span)
}

// evalSpan evaluates slice bounds; a missing bound means the start or end
func (e *Evaluator) evalSpan(node *ast.RefExpr, p place, ctx *types.RunContext) (*types.Span, types.Result) {
	v, err := e.navigate(p)
	if err != nil {
		return nil, types.FromError(err)
	}
	arr, ok := v.(types.ArrayValue)
	if !ok {
		return nil, types.Raise(types.F_TYPE_MISMATCH, "cannot slice `%s`", types.TypeName(v))
	}

	lo, hi := int64(0), int64(arr.Len())
	var res types.Result
	if node.Lo != nil {
		if lo, res = e.evalInt(node.Lo, ctx); !res.IsNormal() {
			return nil, res
		}
	}
	if node.Hi != nil {
		if hi, res = e.evalInt(node.Hi, ctx); !res.IsNormal() {
			return nil, res
		}
	}
	if lo > hi {
		return nil, types.Raise(types.F_INDEX_OUT_OF_BOUNDS, "slice index starts at %d but ends at %d", lo, hi)
	}
	if lo < 0 || hi > int64(arr.Len()) {
		return nil, types.Raise(types.F_INDEX_OUT_OF_BOUNDS,
			"range end index %d out of range for slice of length %d", hi, arr.Len())
	}
	return &types.Span{Lo: int(lo), Hi: int(hi)}, types.Ok(types.Unit)
}

// materialize stores a temporary in a hidden slot of the current scope
func (e *Evaluator) materialize(v types.Value) place {
	id := e.tracker.Declare(tempName, v)
	b := e.bindings.Declare(tempName, id, true)
	return place{name: tempName, slot: id, binding: b}
}

// derefAll follows references until a non-reference value is reached
func (e *Evaluator) derefAll(v types.Value) (types.Value, error) {
	for {
		ref, ok := v.(types.RefValue)
		if !ok {
			return v, nil
		}
		target, err := e.tracker.Deref(ref)
		if err != nil {
			return nil, err
		}
		v = target
	}
}
