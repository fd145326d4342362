package eval

import (
	"ownsim/ast"
	"ownsim/types"
	"reflect"
	"testing"
)

// Reading a Copy slot twice is legal and yields equal values
func TestCopyReadsRepeat(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want types.Value
	}{
		{"int", `
- {let: x, value: 5}
- {let: a, value: x}
- {let: b, value: x}
- {op: "+", left: a, right: b}
`, types.NewInt(10)},
		{"tuple of copies", `
- {let: p, value: {tuple: [1, true]}}
- {let: q, value: p}
- {op: "==", left: p, right: q}
`, types.NewBool(true)},
		{"str literal", `
- {let: s, value: "hi"}
- {let: t, value: s}
- s
`, types.NewStr("hi")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectValue(t, tt.src, tt.want)
		})
	}
}

// A second move of a Move-only value always faults UseAfterMove
func TestSecondMoveFaults(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"text", `
- {let: s, value: !text "hi"}
- {let: t, value: s}
- {let: u, value: s}
`},
		{"tuple with text", `
- {let: p, value: {tuple: [1, !text "x"]}}
- {let: q, value: p}
- {let: r, value: p}
`},
		{"moved field moves the whole value", `
- {let: p, value: {tuple: [!text "a", !text "b"]}}
- {let: a, value: {field: p, at: 0}}
- {field: p, at: 1}
`},
		{"borrow after move", `
- {let: s, value: !text "hi"}
- {let: t, value: s}
- {ref: s}
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectFault(t, tt.src, types.F_USE_AFTER_MOVE, "moved value `")
		})
	}
}

// Either one exclusive borrow or any number of shared borrows, never both
func TestExclusivityLaw(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		fragment string
	}{
		{"exclusive after shared", `
- {let: s, mut: true, value: !text "hi"}
- {let: r, value: {ref: s}}
- {let: m, value: {mut: s}}
`, "as mutable because it is also borrowed as immutable"},
		{"shared after exclusive", `
- {let: s, mut: true, value: !text "hi"}
- {let: m, value: {mut: s}}
- {let: r, value: {ref: s}}
`, "as immutable because it is also borrowed as mutable"},
		{"two exclusive", `
- {let: s, mut: true, value: !text "hi"}
- {let: m, value: {mut: s}}
- {let: n, value: {mut: s}}
`, "more than once"},
		{"move while borrowed", `
- {let: s, value: !text "hi"}
- {let: r, value: {ref: s}}
- s
`, "because it is borrowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectFault(t, tt.src, types.F_BORROW_CONFLICT, tt.fragment)
		})
	}

	// Many shared borrows coexist
	expectValue(t, `
- {let: s, value: !text "hi"}
- {let: a, value: {ref: s}}
- {let: b, value: {ref: s}}
- {op: "==", left: {deref: a}, right: {deref: b}}
`, types.NewBool(true))
}

// Mutating through an exclusive borrow, then moving the value out at the end
func TestMutateThroughExclusiveBorrow(t *testing.T) {
	expectValue(t, `
- {let: s, mut: true, value: !text "hi"}
- block:
    - {let: r, value: {mut: s}}
    - {set: {deref: r}, value: !text "bye"}
- s
`, types.NewText("bye"))

	// the borrow lasts until its binding's scope ends
	expectFault(t, `
- {let: s, mut: true, value: !text "hi"}
- {let: r, value: {mut: s}}
- {set: {deref: r}, value: !text "bye"}
- s
`, types.F_BORROW_CONFLICT, "cannot move out of `s`")
}

// Temporary borrows end with their statement
func TestTemporaryBorrowsEnd(t *testing.T) {
	expectValue(t, `
- {let: s, mut: true, value: !text "hi"}
- {call: len, args: [{ref: s}]}
- {let: m, value: {mut: s}}
- {set: {deref: m}, value: !text "ok"}
- {call: clone, args: [m]}
`, types.NewText("ok"))
}

func TestAssignment(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want types.Value
	}{
		{"plain", `
- {let: x, mut: true, value: 1}
- {set: x, value: 2}
- x
`, types.NewInt(2)},
		{"compound", `
- {let: x, mut: true, value: 1}
- {set: x, op: "+=", value: 5}
- {set: x, op: "*=", value: 2}
- x
`, types.NewInt(12)},
		{"reinitialize after move", `
- {let: s, mut: true, value: !text "a"}
- {let: t, value: s}
- {set: s, value: !text "b"}
- s
`, types.NewText("b")},
		{"array element", `
- {let: a, mut: true, value: [1, 2, 3]}
- {set: {index: a, at: 0}, value: 9}
- a
`, ints(9, 2, 3)},
		{"tuple field", `
- {let: t, mut: true, value: {tuple: [1, !text "x"]}}
- {set: {field: t, at: 1}, value: !text "y"}
- {field: t, at: 1}
`, types.NewText("y")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectValue(t, tt.src, tt.want)
		})
	}
}

func TestAssignmentFaults(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		kind     types.FaultKind
		fragment string
	}{
		{"immutable", `
- {let: x, value: 1}
- {set: x, value: 2}
`, types.F_IMMUTABLE_BINDING, "cannot assign twice to immutable variable `x`"},
		{"while borrowed", `
- {let: x, mut: true, value: 1}
- {let: r, value: {ref: x}}
- {set: x, value: 2}
`, types.F_WRITE_WHILE_BORROWED, "cannot assign to `x` because it is borrowed"},
		{"not a place", `
- {set: 1, value: 2}
`, types.F_TYPE_MISMATCH, "invalid left-hand side"},
		{"compound overflow", `
- {let: x, mut: true, type: u8, value: 250}
- {set: x, op: "+=", value: 10}
`, types.F_OVERFLOW, "attempt to add with overflow"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectFault(t, tt.src, tt.kind, tt.fragment)
		})
	}
}

func TestLetBindings(t *testing.T) {
	expectValue(t, `
- {let: x, type: u8, value: 200}
- x
`, types.NewIntKind(types.U8, 200))

	expectValue(t, `
- {let: [a, b], value: {tuple: [1, 2]}}
- {op: "-", left: a, right: b}
`, types.NewInt(-1))

	expectValue(t, `
- {let: [_, s], value: {tuple: [1, !text "kept"]}}
- s
`, types.NewText("kept"))

	expectFault(t, `- {let: x, type: u8, value: 300}`, types.F_OVERFLOW, "literal out of range for `u8`")
	expectFault(t, `- {let: x, type: bool, value: 1}`, types.F_TYPE_MISMATCH, "expected `bool`, found `i32`")
	expectFault(t, `- {let: [a, b], value: {tuple: [1, 2, 3]}}`, types.F_TYPE_MISMATCH, "tuple with 2 elements")
}

func TestIfExpression(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want types.Value
	}{
		{"then", `- {if: {op: ">", left: 5, right: 3}, then: ["big"], else: ["small"]}`, types.NewStr("big")},
		{"else", `- {if: {op: ">", left: 1, right: 3}, then: ["big"], else: ["small"]}`, types.NewStr("small")},
		{"else if", `
- let: n
  value: 0
- if: {op: "<", left: n, right: 0}
  then: ["negative"]
  else_if:
    - {if: {op: "==", left: n, right: 0}, then: ["zero"]}
  else: ["positive"]
`, types.NewStr("zero")},
		{"no else", `- {if: false, then: [1]}`, types.Unit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectValue(t, tt.src, tt.want)
		})
	}

	expectFault(t, `- {if: 1, then: [1]}`, types.F_TYPE_MISMATCH, "expected `bool`")
}

func TestLoopBreakValue(t *testing.T) {
	expectValue(t, `- {loop: [{break: 5}]}`, types.NewInt(5))
	expectValue(t, `- {loop: [break]}`, types.Unit)

	// a labeled break leaves the outer loop with its value
	expectValue(t, `
- loop:
    - loop:
        - {break: 7, label: outer}
    - {break: 1}
  label: outer
`, types.NewInt(7))

	// counter pattern: break with a value computed from loop state
	expectValue(t, `
- {let: counter, mut: true, value: 0}
- loop:
    - {set: counter, op: "+=", value: 1}
    - if: {op: "==", left: counter, right: 10}
      then: [{break: {op: "*", left: counter, right: 2}}]
`, types.NewInt(20))
}

func TestWhileAndFor(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want types.Value
	}{
		{"while", `
- {let: i, mut: true, value: 0}
- {while: {op: "<", left: i, right: 3}, do: [{set: i, op: "+=", value: 1}]}
- i
`, types.NewInt(3)},
		{"for range", `
- {let: sum, mut: true, value: 0}
- {for: n, in: {range: [1, 5]}, do: [{set: sum, op: "+=", value: n}]}
- sum
`, types.NewInt(10)},
		{"for over borrowed text does not consume", `
- {let: words, value: [!text "a", !text "b"]}
- {for: w, in: words, do: [{call: print, args: ["{}", w]}]}
- {call: len, args: [words]}
`, types.NewIntKind(types.USize, 2)},
		{"continue outer", `
- {let: count, mut: true, value: 0}
- for: i
  in: {range: [0, 3]}
  label: outer
  do:
    - for: j
      in: {range: [0, 3]}
      do:
        - {if: {op: "==", left: j, right: 1}, then: [{continue: outer}]}
        - {set: count, op: "+=", value: 1}
- count
`, types.NewInt(3)},
		{"while is unit", `- {while: false}`, types.Unit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectValue(t, tt.src, tt.want)
		})
	}

	r := runSource(t, `
- {let: words, value: [!text "a", !text "b"]}
- {for: w, in: words, do: [{call: print, args: ["{}", w]}]}
`)
	if r.Stdout() != "ab" {
		t.Errorf("Expected output %q, got %q", "ab", r.Stdout())
	}

	// the sequence stays borrowed for the whole loop
	expectFault(t, `
- {let: words, mut: true, value: [!text "a"]}
- {for: w, in: words, do: [{set: words, value: [!text "b"]}]}
`, types.F_WRITE_WHILE_BORROWED, "")
}

func TestTickLimit(t *testing.T) {
	r := runSource(t, `- {loop: [()]}`, WithTicks(50))
	if r.Status != types.Faulted || r.Fault != types.F_TICK_LIMIT {
		t.Errorf("Expected TickLimit, got %s", r)
	}
	r = runSource(t, `- {range: [0, 1000]}`, WithTicks(100))
	if r.Fault != types.F_TICK_LIMIT {
		t.Errorf("Expected TickLimit for a long range, got %s", r)
	}
}

func TestBreakOutsideLoop(t *testing.T) {
	expectFault(t, `- break`, types.F_TYPE_MISMATCH, "outside of a loop")
}

// dropNames runs a program and returns the names of dropped slots in drop order
func dropNames(t *testing.T, src string) ([]string, types.Result) {
	t.Helper()
	prog, err := ast.Decode([]byte(src))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	e := NewEvaluator()
	ctx := types.NewRunContext()
	ctx.Deref = e.tracker.Deref
	res := e.EvalProgram(prog, ctx)

	var names []string
	for _, id := range e.store.DropLog() {
		names = append(names, e.store.Get(id).Name)
	}
	return names, res
}

// Scope exit drops in reverse declaration order
func TestDropOrder(t *testing.T) {
	names, res := dropNames(t, `
- {let: a, value: !text "a"}
- {let: b, value: 1}
- {let: c, value: !text "c"}
`)
	if res.IsFault() {
		t.Fatalf("Unexpected fault: %s", res.Message)
	}
	if want := []string{"c", "b", "a"}; !reflect.DeepEqual(names, want) {
		t.Errorf("Drop order = %v, want %v", names, want)
	}

	names, _ = dropNames(t, `
- {let: a, value: 1}
- {block: [{let: b, value: 2}, {let: c, value: 3}]}
- {let: d, value: 4}
`)
	if want := []string{"c", "b", "d", "a"}; !reflect.DeepEqual(names, want) {
		t.Errorf("Nested drop order = %v, want %v", names, want)
	}

	// moved-out slots have nothing to drop
	names, _ = dropNames(t, `
- {let: a, value: !text "a"}
- {let: b, value: a}
`)
	if want := []string{"b"}; !reflect.DeepEqual(names, want) {
		t.Errorf("Drop order after move = %v, want %v", names, want)
	}
}

// A fault still unwinds every scope and drops its slots
func TestFaultRunsDrops(t *testing.T) {
	names, res := dropNames(t, `
- {let: a, value: !text "a"}
- block:
    - {let: b, value: !text "b"}
    - {call: panic, args: ["stop"]}
`)
	if res.Fault != types.F_ABORT || res.Message != "stop" {
		t.Fatalf("Expected Abort(stop), got %+v", res)
	}
	if want := []string{"b", "a"}; !reflect.DeepEqual(names, want) {
		t.Errorf("Drop order = %v, want %v", names, want)
	}
}

// A reference that outlives its target faults when the target is dropped
func TestDropWhileBorrowed(t *testing.T) {
	expectFault(t, `
- {let: r, value: {block: [{let: x, value: !text "hi"}, {ref: x}]}}
`, types.F_DROP_WHILE_BORROWED, "`x` dropped while still borrowed")
}

// Shadowing creates a fresh slot; a borrow of the shadowed slot stays valid
func TestShadowKeepsBorrow(t *testing.T) {
	expectValue(t, `
- {let: x, value: !text "first"}
- {let: r, value: {ref: x}}
- {let: x, value: !text "second"}
- {call: format, args: ["{} {}", {deref: r}, x]}
`, types.NewText("first second"))
}

func TestConsoleOutput(t *testing.T) {
	r := runSource(t, `
- {call: println, args: ["a"]}
- {let: n, value: 2}
- {call: println, args: ["n = {}", n]}
- {call: print, args: ["{:?}", !text "q"]}
`)
	want := []string{"a\n", "n = 2\n", `"q"`}
	if !reflect.DeepEqual(r.Output, want) {
		t.Errorf("Output = %q, want %q", r.Output, want)
	}
}

// A borrow made by the last expression of a loop body ends with the iteration
func TestLoopIterationReleasesBorrows(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"loop", `
- {let: s, mut: true, value: !text "hi"}
- {let: i, mut: true, value: 0}
- loop:
    - {set: i, op: "+=", value: 1}
    - {if: {op: ">", left: i, right: 2}, then: [break]}
    - {mut: s}
- s
`},
		{"while", `
- {let: s, mut: true, value: !text "hi"}
- {let: i, mut: true, value: 0}
- while: {op: "<", left: i, right: 3}
  do:
    - {set: i, op: "+=", value: 1}
    - {mut: s}
- s
`},
		{"for", `
- {let: s, mut: true, value: !text "hi"}
- {for: x, in: {range: [0, 3]}, do: [{mut: s}]}
- s
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectValue(t, tt.src, types.NewText("hi"))
		})
	}
}

// A reference carried out by a break value keeps its borrow
func TestLoopBreakKeepsBorrow(t *testing.T) {
	expectFault(t, `
- {let: s, mut: true, value: !text "hi"}
- {let: r, value: {loop: [{break: {ref: s}}]}}
- {mut: s}
- r
`, types.F_BORROW_CONFLICT, "also borrowed as immutable")
}

// Iterating a Copy array reads it by copy and leaves it writable
func TestForOverCopyArray(t *testing.T) {
	expectValue(t, `
- {let: a, mut: true, value: [1, 2, 3]}
- {for: x, in: a, do: [{set: {index: a, at: 0}, value: x}]}
- a
`, ints(3, 2, 3))

	expectFault(t, `
- {let: a, mut: true, value: [1, 2, 3]}
- {let: m, value: {mut: a}}
- {for: x, in: a, do: []}
- m
`, types.F_USE_WHILE_BORROWED, "mutably borrowed")
}
