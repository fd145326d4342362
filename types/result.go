package types

import "fmt"

// ControlFlow represents the control flow state of evaluation
type ControlFlow int

const (
	FlowNormal   ControlFlow = iota // Normal execution
	FlowReturn                      // Return statement
	FlowBreak                       // Break statement
	FlowContinue                    // Continue statement
	FlowFault                       // Fatal fault unwinding the run
)

// Result represents the outcome of evaluating an expression or statement.
// This unifies normal values, control flow (return/break/continue) and faults.
type Result struct {
	Val     Value       // The value (if Flow == FlowNormal, FlowReturn or FlowBreak)
	Flow    ControlFlow // Control flow state
	Fault   FaultKind   // Only set when Flow == FlowFault
	Message string      // Fault message
	Label   string      // Loop label for break/continue (empty = innermost loop)
	Line    int         // Source line where a fault was raised, 0 if unknown
}

// Ok creates a Result for normal execution with a value
func Ok(v Value) Result {
	return Result{Val: v, Flow: FlowNormal}
}

// Return creates a Result for a return statement
func Return(v Value) Result {
	return Result{Val: v, Flow: FlowReturn}
}

// Raise creates a Result for a fatal fault
func Raise(kind FaultKind, format string, args ...interface{}) Result {
	return Result{Flow: FlowFault, Fault: kind, Message: fmt.Sprintf(format, args...)}
}

// Break creates a Result for a break statement
// The value, if non-nil, becomes the value of the enclosing loop
func Break(label string, val Value) Result {
	return Result{Flow: FlowBreak, Label: label, Val: val}
}

// Continue creates a Result for a continue statement
func Continue(label string) Result {
	return Result{Flow: FlowContinue, Label: label}
}

// IsNormal returns true if this is normal execution
func (r Result) IsNormal() bool {
	return r.Flow == FlowNormal
}

// IsFault returns true if this is a fault
func (r Result) IsFault() bool {
	return r.Flow == FlowFault
}

// IsReturn returns true if this is a return statement
func (r Result) IsReturn() bool {
	return r.Flow == FlowReturn
}

// IsBreak returns true if this is a break statement
func (r Result) IsBreak() bool {
	return r.Flow == FlowBreak
}

// IsContinue returns true if this is a continue statement
func (r Result) IsContinue() bool {
	return r.Flow == FlowContinue
}

// AsError returns the fault carried by r, or nil
func (r Result) AsError() error {
	if !r.IsFault() {
		return nil
	}
	return &Fault{Kind: r.Fault, Msg: r.Message}
}

// RunStatus is the terminal status of a run
type RunStatus int

const (
	Completed RunStatus = iota
	Faulted
)

// RunResult is what a driving harness observes after a run
type RunResult struct {
	Status    RunStatus
	Value     Value     // Completed only
	Fault     FaultKind // Faulted only
	Message   string    // Faulted only
	Output    []string  // Console output, in print order
	Traceback []string  // Faulted only
}

// Stdout returns the concatenated console output
func (r RunResult) Stdout() string {
	n := 0
	for _, s := range r.Output {
		n += len(s)
	}
	b := make([]byte, 0, n)
	for _, s := range r.Output {
		b = append(b, s...)
	}
	return string(b)
}

// String summarizes the result as Completed(v) or Faulted(kind, msg)
func (r RunResult) String() string {
	if r.Status == Faulted {
		return fmt.Sprintf("Faulted(%s, %q)", r.Fault, r.Message)
	}
	if r.Value == nil {
		return "Completed(())"
	}
	return "Completed(" + r.Value.String() + ")"
}
