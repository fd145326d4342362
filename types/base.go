package types

// FaultKind identifies an unrecoverable run failure (UseAfterMove, BorrowConflict, etc.)
type FaultKind int

// Fault kinds. Every fault is fatal to the run.
const (
	F_NONE FaultKind = iota
	F_USE_AFTER_MOVE
	F_USE_AFTER_DROP
	F_USE_WHILE_BORROWED
	F_BORROW_CONFLICT
	F_WRITE_WHILE_BORROWED
	F_DOUBLE_DROP
	F_DROP_WHILE_BORROWED
	F_MOVE_OUT_OF_BORROW
	F_IMMUTABLE_BINDING
	F_UNKNOWN_NAME
	F_NON_EXHAUSTIVE_MATCH
	F_TYPE_MISMATCH
	F_ARITY_MISMATCH
	F_INDEX_OUT_OF_BOUNDS
	F_OVERFLOW
	F_DIVIDE_BY_ZERO
	F_UNWRAP_FAILED
	F_ABORT
	F_TICK_LIMIT
)

var faultNames = [...]string{
	F_NONE:                 "None",
	F_USE_AFTER_MOVE:       "UseAfterMove",
	F_USE_AFTER_DROP:       "UseAfterDrop",
	F_USE_WHILE_BORROWED:   "UseWhileBorrowed",
	F_BORROW_CONFLICT:      "BorrowConflict",
	F_WRITE_WHILE_BORROWED: "WriteWhileBorrowed",
	F_DOUBLE_DROP:          "DoubleDrop",
	F_DROP_WHILE_BORROWED:  "DropWhileBorrowed",
	F_MOVE_OUT_OF_BORROW:   "MoveOutOfBorrow",
	F_IMMUTABLE_BINDING:    "ImmutableBinding",
	F_UNKNOWN_NAME:         "UnknownName",
	F_NON_EXHAUSTIVE_MATCH: "NonExhaustiveMatch",
	F_TYPE_MISMATCH:        "TypeMismatch",
	F_ARITY_MISMATCH:       "ArityMismatch",
	F_INDEX_OUT_OF_BOUNDS:  "IndexOutOfBounds",
	F_OVERFLOW:             "Overflow",
	F_DIVIDE_BY_ZERO:       "DivideByZero",
	F_UNWRAP_FAILED:        "UnwrapFailed",
	F_ABORT:                "Abort",
	F_TICK_LIMIT:           "TickLimit",
}

var faultMessages = [...]string{
	F_NONE:                 "No fault",
	F_USE_AFTER_MOVE:       "Use of moved value",
	F_USE_AFTER_DROP:       "Use of dropped value",
	F_USE_WHILE_BORROWED:   "Use while mutably borrowed",
	F_BORROW_CONFLICT:      "Conflicting borrow",
	F_WRITE_WHILE_BORROWED: "Assignment to borrowed value",
	F_DOUBLE_DROP:          "Value dropped twice",
	F_DROP_WHILE_BORROWED:  "Value dropped while still borrowed",
	F_MOVE_OUT_OF_BORROW:   "Cannot move out of a borrow",
	F_IMMUTABLE_BINDING:    "Cannot mutate immutable binding",
	F_UNKNOWN_NAME:         "Unknown name",
	F_NON_EXHAUSTIVE_MATCH: "Non-exhaustive match",
	F_TYPE_MISMATCH:        "Type mismatch",
	F_ARITY_MISMATCH:       "Incorrect number of arguments",
	F_INDEX_OUT_OF_BOUNDS:  "Index out of bounds",
	F_OVERFLOW:             "Arithmetic overflow",
	F_DIVIDE_BY_ZERO:       "Division by zero",
	F_UNWRAP_FAILED:        "Unwrap of an absent or error value",
	F_ABORT:                "Explicit abort",
	F_TICK_LIMIT:           "Tick limit exceeded",
}

// String returns the name of a fault kind
func (k FaultKind) String() string {
	if k < 0 || int(k) >= len(faultNames) {
		return "Unknown"
	}
	return faultNames[k]
}

// Message returns a human-readable description of a fault kind
func (k FaultKind) Message() string {
	if k < 0 || int(k) >= len(faultMessages) {
		return "Unknown fault"
	}
	return faultMessages[k]
}

// FaultFromString converts a name like "UseAfterMove" to a FaultKind
func FaultFromString(s string) (FaultKind, bool) {
	for k, name := range faultNames {
		if name == s {
			return FaultKind(k), true
		}
	}
	return F_NONE, false
}

// Value is the interface all simulator values implement
type Value interface {
	Type() TypeCode
	String() string   // Debug representation ({:?})
	Equal(Value) bool // Deep equality
}
