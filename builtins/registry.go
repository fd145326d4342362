package builtins

import (
	"ownsim/types"
)

// BuiltinFunc is a function type for builtin functions
// Takes the run context and evaluated arguments, returns a Result
type BuiltinFunc func(ctx *types.RunContext, args []types.Value) types.Result

// ArgMode says how the evaluator hands arguments to a builtin
type ArgMode int

const (
	// Borrowed arguments are inspected in place and never consumed
	Borrowed ArgMode = iota
	// Consumed arguments are moved (or copied) into the call
	Consumed
)

// Builtin is one registered function
type Builtin struct {
	Name string
	Mode ArgMode
	Fn   BuiltinFunc
}

// Registry holds all registered builtin functions
type Registry struct {
	funcs map[string]*Builtin
}

// NewRegistry creates a new builtin function registry
func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[string]*Builtin)}

	// Console and formatting
	r.Register("print", Borrowed, builtinPrint)
	r.Register("println", Borrowed, builtinPrintln)
	r.Register("format", Borrowed, builtinFormat)

	// Inspection
	r.Register("len", Borrowed, builtinLen)
	r.Register("is_some", Borrowed, builtinIsSome)
	r.Register("is_none", Borrowed, builtinIsNone)
	r.Register("is_ok", Borrowed, builtinIsOk)
	r.Register("is_err", Borrowed, builtinIsErr)
	r.Register("typeof", Borrowed, builtinTypeof)
	r.Register("assert", Borrowed, builtinAssert)

	// Duplication
	r.Register("clone", Borrowed, builtinClone)
	r.Register("to_text", Borrowed, builtinToText)

	// Consuming extraction
	r.Register("unwrap", Consumed, builtinUnwrap)
	r.Register("expect", Consumed, builtinExpect)
	r.Register("unwrap_or", Consumed, builtinUnwrapOr)
	r.Register("drop", Consumed, builtinDrop)
	r.Register("panic", Consumed, builtinPanic)

	return r
}

// Register adds a builtin function to the registry
func (r *Registry) Register(name string, mode ArgMode, fn BuiltinFunc) {
	r.funcs[name] = &Builtin{Name: name, Mode: mode, Fn: fn}
}

// Get retrieves a builtin function by name
func (r *Registry) Get(name string) (*Builtin, bool) {
	b, ok := r.funcs[name]
	return b, ok
}
