package types

// DefaultTicks is the default per-run tick budget
const DefaultTicks = 100000

// RunContext holds the execution context for one run.
// This is passed through all evaluator methods to track:
// - Tick limits (infinite loop protection)
// - Console output (append-only)
// - The source line currently executing
type RunContext struct {
	TicksRemaining int64
	Output         []string
	Line           int

	// Deref reads the value behind a reference without changing ownership state.
	// Set by the evaluator; builtins use it through Resolve.
	Deref func(RefValue) (Value, error)

	// Echo, when set, also receives every console write as it happens
	Echo func(string)
}

// NewRunContext creates a run context with default values
func NewRunContext() *RunContext {
	return &RunContext{TicksRemaining: DefaultTicks}
}

// ConsumeTick decrements the tick count and returns true if ticks remain
func (ctx *RunContext) ConsumeTick() bool {
	ctx.TicksRemaining--
	return ctx.TicksRemaining > 0
}

// Print appends one entry to the console output
func (ctx *RunContext) Print(s string) {
	ctx.Output = append(ctx.Output, s)
	if ctx.Echo != nil {
		ctx.Echo(s)
	}
}

// Resolve replaces every reference inside v with the value it borrows
func (ctx *RunContext) Resolve(v Value) (Value, error) {
	switch t := v.(type) {
	case RefValue:
		if ctx.Deref == nil {
			return v, nil
		}
		target, err := ctx.Deref(t)
		if err != nil {
			return nil, err
		}
		return ctx.Resolve(target)
	case TupleValue:
		elements, err := ctx.resolveAll(t.elements)
		if err != nil {
			return nil, err
		}
		return NewTuple(elements), nil
	case ArrayValue:
		elements, err := ctx.resolveAll(t.elements)
		if err != nil {
			return nil, err
		}
		return NewArray(elements), nil
	case StructValue:
		fields, err := ctx.resolveAll(t.fields)
		if err != nil {
			return nil, err
		}
		return NewStruct(t.typ, fields), nil
	case EnumValue:
		if t.payload == nil {
			return v, nil
		}
		payload, err := ctx.Resolve(t.payload)
		if err != nil {
			return nil, err
		}
		return NewEnum(t.typ, t.variant, payload), nil
	}
	return v, nil
}

func (ctx *RunContext) resolveAll(values []Value) ([]Value, error) {
	out := make([]Value, len(values))
	for i, e := range values {
		r, err := ctx.Resolve(e)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}
