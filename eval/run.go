package eval

import (
	"ownsim/ast"
	"ownsim/ownership"
	"ownsim/store"
	"ownsim/types"
	"strings"
)

// Stepper is consulted before every statement executes.
// Returning an error stops the run with an Abort fault.
type Stepper interface {
	Step(e *Evaluator, stmt ast.Stmt) error
}

// SlotView describes one visible binding and the state of its slot
type SlotView struct {
	Name    string
	Slot    store.SlotID
	Mutable bool
	State   string // Owned, MovedOut, BorrowedShared(2), ...
	Value   string // debug form; references show what they point at
	Allows  string // accesses the slot currently permits, e.g. "copy & &mut"
}

// Option configures a run
type Option func(*runConfig)

type runConfig struct {
	ticks   int64
	stepper Stepper
	echo    func(string)
}

// WithTicks sets the tick budget of a run
func WithTicks(n int64) Option {
	return func(c *runConfig) { c.ticks = n }
}

// WithStepper installs a hook called before each statement
func WithStepper(s Stepper) Option {
	return func(c *runConfig) { c.stepper = s }
}

// WithEcho streams console output to fn while the program runs
func WithEcho(fn func(string)) Option {
	return func(c *runConfig) { c.echo = fn }
}

// Run executes a program to completion or to its first fault.
// Every scope is unwound (and its slots dropped) on both paths.
func Run(prog *ast.Program, opts ...Option) types.RunResult {
	cfg := runConfig{ticks: types.DefaultTicks}
	for _, opt := range opts {
		opt(&cfg)
	}

	e := NewEvaluator()
	e.stepper = cfg.stepper
	ctx := types.NewRunContext()
	ctx.TicksRemaining = cfg.ticks
	ctx.Deref = e.tracker.Deref
	ctx.Echo = cfg.echo

	res := e.EvalProgram(prog, ctx)
	out := types.RunResult{Output: ctx.Output}
	if res.IsFault() {
		stack := e.faultedAt
		if stack == nil {
			stack = e.frames
		}
		out.Status = types.Faulted
		out.Fault = res.Fault
		out.Message = res.Message
		out.Traceback = FormatTraceback(stack, res.Fault, res.Message)
		return out
	}
	out.Status = types.Completed
	out.Value = res.Val
	return out
}

// EvalProgram runs a program body in its own scope as the function main.
// The result value has its references replaced by the values they borrow,
// since the borrowed slots are dropped when the program scope closes.
func (e *Evaluator) EvalProgram(prog *ast.Program, ctx *types.RunContext) (res types.Result) {
	e.frames = []Frame{{Function: "main"}}
	e.faultedAt = nil

	e.bindings.Push(false)
	defer func() { res = e.popScope(res) }()

	body := e.evalStatements(prog.Body, ctx)
	switch body.Flow {
	case types.FlowReturn:
		body = types.Ok(body.Val)
	case types.FlowBreak, types.FlowContinue:
		body = e.noteFault(types.Raise(types.F_TYPE_MISMATCH, "`break` or `continue` outside of a loop"))
	}
	if body.IsNormal() {
		v, err := ctx.Resolve(body.Val)
		if err != nil {
			body = e.noteFault(types.FromError(err))
		} else {
			body = types.Ok(v)
		}
	}
	if err := e.tracker.Settle(0, nil); err != nil && !body.IsFault() {
		body = e.noteFault(types.FromError(err))
	}
	return body
}

// Frames returns the active call stack, outermost first
func (e *Evaluator) Frames() []Frame {
	return append([]Frame{}, e.frames...)
}

// Visible returns the bindings the executing code can name, outermost first
func (e *Evaluator) Visible() []SlotView {
	var out []SlotView
	for _, b := range e.bindings.Visible() {
		if b.Name == tempName {
			continue
		}
		slot := e.store.Get(b.Slot)
		if slot == nil {
			continue
		}
		out = append(out, e.view(b.Name, slot, b.Mutable))
	}
	return out
}

// Live returns every slot not yet dropped, including shadowed bindings,
// moved-out slots and hidden temporaries, in allocation order
func (e *Evaluator) Live() []SlotView {
	mutable := make(map[store.SlotID]bool)
	for _, b := range e.bindings.Visible() {
		mutable[b.Slot] = b.Mutable
	}
	var out []SlotView
	for _, slot := range e.store.Live() {
		out = append(out, e.view(slot.Name, slot, mutable[slot.ID]))
	}
	return out
}

// view describes a slot and the accesses its current state permits
func (e *Evaluator) view(name string, slot *store.Slot, mutable bool) SlotView {
	v := SlotView{Name: name, Slot: slot.ID, Mutable: mutable, State: slot.Describe()}
	if slot.State == store.Dropped {
		return v
	}
	if slot.State != store.MovedOut {
		v.Value = slot.Value.String()
		if len(types.Loans(slot.Value)) > 0 {
			resolver := &types.RunContext{Deref: e.tracker.Deref}
			if resolved, err := resolver.Resolve(slot.Value); err == nil {
				v.Value += " -> " + resolved.String()
			}
		}
	}

	read, readName := ownership.ReadMove, "move"
	if types.IsCopy(slot.Value) {
		read, readName = ownership.ReadCopy, "copy"
	}
	var allowed []string
	for _, a := range []struct {
		access  ownership.Access
		name    string
		mutates bool
	}{
		{read, readName, false},
		{ownership.BorrowShared, "&", false},
		{ownership.BorrowExclusive, "&mut", true},
		{ownership.Reassign, "assign", true},
	} {
		if a.mutates && !mutable {
			continue
		}
		if e.tracker.Check(slot.ID, a.access) == nil {
			allowed = append(allowed, a.name)
		}
	}
	v.Allows = strings.Join(allowed, " ")
	return v
}
