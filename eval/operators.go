package eval

import (
	"math"
	"ownsim/types"
	"strings"
)

// ============================================================================
// UNARY OPERATORS
// ============================================================================

// evalUnaryMinus implements unary negation: -x
// Supports signed integers and floats
func evalUnaryMinus(operand types.Value) types.Result {
	switch v := operand.(type) {
	case types.IntValue:
		if !v.Kind.Signed() {
			return types.Raise(types.F_TYPE_MISMATCH, "cannot apply unary operator `-` to type `%s`", v.Kind)
		}
		if !v.Kind.Fits(-v.Val) || v.Val == math.MinInt64 {
			return types.Raise(types.F_OVERFLOW, "attempt to negate with overflow")
		}
		return types.Ok(types.NewIntKind(v.Kind, -v.Val))
	case types.FloatValue:
		return types.Ok(types.NewFloatKind(v.Kind, -v.Val))
	default:
		return types.Raise(types.F_TYPE_MISMATCH, "cannot apply unary operator `-` to type `%s`", types.TypeName(operand))
	}
}

// evalUnaryNot implements logical NOT: !x
// Requires a bool operand
func evalUnaryNot(operand types.Value) types.Result {
	b, ok := operand.(types.BoolValue)
	if !ok {
		return types.Raise(types.F_TYPE_MISMATCH, "cannot apply unary operator `!` to type `%s`", types.TypeName(operand))
	}
	return types.Ok(types.NewBool(!b.Val))
}

// ============================================================================
// ARITHMETIC OPERATORS
// ============================================================================

var opVerbs = map[string]string{
	"+": "add",
	"-": "subtract",
	"*": "multiply",
	"/": "divide",
	"%": "calculate the remainder",
}

// evalArith implements + - * / %.
// Integers must share a kind (an i32 operand adapts to the other side when
// it fits) and fault on overflow or a zero divisor. String + &str concatenates.
func evalArith(op string, left, right types.Value) types.Result {
	switch l := left.(type) {
	case types.IntValue:
		r, ok := right.(types.IntValue)
		if !ok {
			return mismatch(op, left, right)
		}
		return evalIntArith(op, l, r)

	case types.FloatValue:
		r, ok := right.(types.FloatValue)
		if !ok {
			return mismatch(op, left, right)
		}
		return evalFloatArith(op, l, r)

	case types.TextValue:
		if op != "+" {
			return mismatch(op, left, right)
		}
		s, ok := types.TextOf(right)
		if !ok {
			return mismatch(op, left, right)
		}
		return types.Ok(types.NewText(l.Value() + s))
	}
	return mismatch(op, left, right)
}

func mismatch(op string, left, right types.Value) types.Result {
	return types.Raise(types.F_TYPE_MISMATCH, "cannot apply `%s` to `%s` and `%s`",
		op, types.TypeName(left), types.TypeName(right))
}

// unifyKinds picks the integer kind for a binary operation
func unifyKinds(l, r types.IntValue) (types.IntKind, bool) {
	switch {
	case l.Kind == r.Kind:
		return l.Kind, true
	case l.Kind == types.I32 && r.Kind.Fits(l.Val):
		return r.Kind, true
	case r.Kind == types.I32 && l.Kind.Fits(r.Val):
		return l.Kind, true
	}
	return l.Kind, false
}

func evalIntArith(op string, l, r types.IntValue) types.Result {
	kind, ok := unifyKinds(l, r)
	if !ok {
		return types.Raise(types.F_TYPE_MISMATCH, "mismatched types: cannot apply `%s` to `%s` and `%s`", op, l.Kind, r.Kind)
	}

	a, b := l.Val, r.Val
	var result int64
	overflow := false
	switch op {
	case "+":
		result = a + b
		overflow = (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b)
	case "-":
		result = a - b
		overflow = (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b)
	case "*":
		result = a * b
		overflow = a != 0 && (result/a != b || (a == -1 && b == math.MinInt64))
	case "/", "%":
		if b == 0 {
			return types.Raise(types.F_DIVIDE_BY_ZERO, "attempt to %s with a divisor of zero", opVerbs[op])
		}
		if a == math.MinInt64 && b == -1 {
			overflow = true
		} else if op == "/" {
			result = a / b
		} else {
			result = a % b
		}
	default:
		return types.Raise(types.F_TYPE_MISMATCH, "unknown operator %q", op)
	}

	if overflow || !kind.Fits(result) {
		return types.Raise(types.F_OVERFLOW, "attempt to %s with overflow", opVerbs[op])
	}
	return types.Ok(types.NewIntKind(kind, result))
}

func evalFloatArith(op string, l, r types.FloatValue) types.Result {
	kind := l.Kind
	if l.Kind != r.Kind {
		// an unsuffixed literal is f64 and adapts to an f32 operand
		kind = types.F32
	}
	var result float64
	switch op {
	case "+":
		result = l.Val + r.Val
	case "-":
		result = l.Val - r.Val
	case "*":
		result = l.Val * r.Val
	case "/":
		result = l.Val / r.Val
	case "%":
		result = math.Mod(l.Val, r.Val)
	default:
		return types.Raise(types.F_TYPE_MISMATCH, "unknown operator %q", op)
	}
	return types.Ok(types.NewFloatKind(kind, result))
}

// ============================================================================
// COMPARISON OPERATORS
// ============================================================================

func isComparison(op string) bool {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=":
		return true
	}
	return false
}

// evalCompare implements == != < <= > >= on values of the same type
func evalCompare(op string, left, right types.Value) types.Result {
	if op == "==" || op == "!=" {
		eq, ok := equalValues(left, right)
		if !ok {
			return mismatch(op, left, right)
		}
		return types.Ok(types.NewBool(eq == (op == "==")))
	}

	c, ok := compareValues(left, right)
	if !ok {
		return mismatch(op, left, right)
	}
	var result bool
	switch op {
	case "<":
		result = c < 0
	case "<=":
		result = c <= 0
	case ">":
		result = c > 0
	case ">=":
		result = c >= 0
	}
	return types.Ok(types.NewBool(result))
}

// equalValues compares two values, reporting false for ok when the types
// cannot be compared
func equalValues(left, right types.Value) (bool, bool) {
	if l, ok := left.(types.IntValue); ok {
		r, ok := right.(types.IntValue)
		if !ok {
			return false, false
		}
		if _, ok := unifyKinds(l, r); !ok {
			return false, false
		}
		return l.Val == r.Val, true
	}
	if l, ok := left.(types.FloatValue); ok {
		r, ok := right.(types.FloatValue)
		return ok && l.Val == r.Val, ok
	}
	if ls, ok := types.TextOf(left); ok {
		rs, ok := types.TextOf(right)
		return ok && ls == rs, ok
	}
	if left.Type() != right.Type() {
		return false, false
	}
	return left.Equal(right), true
}

// compareValues orders two values: numbers, chars, bools, strings, and
// tuples or arrays of those (lexicographically)
func compareValues(left, right types.Value) (int, bool) {
	switch l := left.(type) {
	case types.IntValue:
		r, ok := right.(types.IntValue)
		if !ok {
			return 0, false
		}
		if _, ok := unifyKinds(l, r); !ok {
			return 0, false
		}
		return cmp3(l.Val < r.Val, l.Val > r.Val), true
	case types.FloatValue:
		r, ok := right.(types.FloatValue)
		if !ok {
			return 0, false
		}
		return cmp3(l.Val < r.Val, l.Val > r.Val), true
	case types.CharValue:
		r, ok := right.(types.CharValue)
		if !ok {
			return 0, false
		}
		return cmp3(l.Val < r.Val, l.Val > r.Val), true
	case types.BoolValue:
		r, ok := right.(types.BoolValue)
		if !ok {
			return 0, false
		}
		return cmp3(!l.Val && r.Val, l.Val && !r.Val), true
	case types.TupleValue:
		r, ok := right.(types.TupleValue)
		if !ok || r.Len() != l.Len() {
			return 0, false
		}
		return compareElements(l.Elements(), r.Elements())
	case types.ArrayValue:
		r, ok := right.(types.ArrayValue)
		if !ok {
			return 0, false
		}
		return compareElements(l.Elements(), r.Elements())
	}
	if ls, ok := types.TextOf(left); ok {
		rs, ok := types.TextOf(right)
		if !ok {
			return 0, false
		}
		return strings.Compare(ls, rs), true
	}
	return 0, false
}

func compareElements(l, r []types.Value) (int, bool) {
	for i := 0; i < len(l) && i < len(r); i++ {
		c, ok := compareValues(l[i], r[i])
		if !ok {
			return 0, false
		}
		if c != 0 {
			return c, true
		}
	}
	return cmp3(len(l) < len(r), len(l) > len(r)), true
}

func cmp3(less, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	}
	return 0
}
