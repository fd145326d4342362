package store

import (
	"fmt"
	"ownsim/types"
)

// SlotID addresses a storage cell. IDs are never reused within a store.
type SlotID int

// State is the ownership state of a slot
type State int

const (
	Owned State = iota
	MovedOut
	BorrowedShared
	BorrowedExclusive
	Dropped
)

// String returns the state name
func (s State) String() string {
	switch s {
	case Owned:
		return "Owned"
	case MovedOut:
		return "MovedOut"
	case BorrowedShared:
		return "BorrowedShared"
	case BorrowedExclusive:
		return "BorrowedExclusive"
	case Dropped:
		return "Dropped"
	default:
		return "Unknown"
	}
}

// Slot holds exactly one value and its ownership state.
// Shared counts outstanding shared borrows while State == BorrowedShared.
type Slot struct {
	ID     SlotID
	Name   string // name of the binding that declared it (for messages)
	Value  types.Value
	State  State
	Shared int
}

// Borrowed reports whether any borrow is outstanding
func (s *Slot) Borrowed() bool {
	return s.State == BorrowedShared || s.State == BorrowedExclusive
}

// Describe returns the state with the borrow count, e.g. BorrowedShared(2)
func (s *Slot) Describe() string {
	if s.State == BorrowedShared {
		return fmt.Sprintf("BorrowedShared(%d)", s.Shared)
	}
	return s.State.String()
}

// Label is how messages refer to the slot: `name` or #id
func (s *Slot) Label() string {
	if s.Name != "" {
		return "`" + s.Name + "`"
	}
	return fmt.Sprintf("#%d", s.ID)
}
