package types

import (
	"errors"
	"fmt"
)

// Fault is the error type returned by the store, binding table and
// ownership tracker. The evaluator turns it into a FlowFault Result.
type Fault struct {
	Kind FaultKind
	Msg  string
}

// NewFault creates a fault with a formatted message
func NewFault(kind FaultKind, format string, args ...interface{}) *Fault {
	return &Fault{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Error implements error
func (f *Fault) Error() string {
	if f.Msg == "" {
		return f.Kind.String() + ": " + f.Kind.Message()
	}
	return f.Kind.String() + ": " + f.Msg
}

// FaultOf extracts a Fault from an error chain
func FaultOf(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// FromError converts an error into a fault Result.
// Errors that are not faults become TypeMismatch faults carrying the error text.
func FromError(err error) Result {
	if f, ok := FaultOf(err); ok {
		return Raise(f.Kind, "%s", f.Msg)
	}
	return Raise(F_TYPE_MISMATCH, "%v", err)
}
