package ownership

import (
	"ownsim/store"
	"ownsim/types"
)

// Access is a kind of request made against a slot
type Access int

const (
	ReadCopy Access = iota
	ReadMove
	BorrowShared
	BorrowExclusive
	ReleaseBorrow
	Reassign
)

// String returns the access name
func (a Access) String() string {
	switch a {
	case ReadCopy:
		return "ReadCopy"
	case ReadMove:
		return "ReadMove"
	case BorrowShared:
		return "BorrowShared"
	case BorrowExclusive:
		return "BorrowExclusive"
	case ReleaseBorrow:
		return "ReleaseBorrow"
	case Reassign:
		return "Reassign"
	default:
		return "Unknown"
	}
}

// check validates one access against the slot's current state.
// It never mutates state. Exactly one borrow kind may be outstanding:
// either one exclusive borrow or any number of shared borrows.
func check(slot *store.Slot, access Access) error {
	if slot.State == store.Dropped {
		return types.NewFault(types.F_USE_AFTER_DROP, "use of dropped value %s", slot.Label())
	}

	switch access {
	case ReadCopy:
		switch slot.State {
		case store.MovedOut:
			return types.NewFault(types.F_USE_AFTER_MOVE, "use of moved value %s", slot.Label())
		case store.BorrowedExclusive:
			return types.NewFault(types.F_USE_WHILE_BORROWED,
				"cannot use %s because it is mutably borrowed", slot.Label())
		}

	case ReadMove:
		switch slot.State {
		case store.MovedOut:
			return types.NewFault(types.F_USE_AFTER_MOVE, "use of moved value %s", slot.Label())
		case store.BorrowedShared, store.BorrowedExclusive:
			return types.NewFault(types.F_BORROW_CONFLICT,
				"cannot move out of %s because it is borrowed", slot.Label())
		}

	case BorrowShared:
		switch slot.State {
		case store.MovedOut:
			return types.NewFault(types.F_USE_AFTER_MOVE, "borrow of moved value %s", slot.Label())
		case store.BorrowedExclusive:
			return types.NewFault(types.F_BORROW_CONFLICT,
				"cannot borrow %s as immutable because it is also borrowed as mutable", slot.Label())
		}

	case BorrowExclusive:
		switch slot.State {
		case store.MovedOut:
			return types.NewFault(types.F_USE_AFTER_MOVE, "borrow of moved value %s", slot.Label())
		case store.BorrowedShared:
			return types.NewFault(types.F_BORROW_CONFLICT,
				"cannot borrow %s as mutable because it is also borrowed as immutable", slot.Label())
		case store.BorrowedExclusive:
			return types.NewFault(types.F_BORROW_CONFLICT,
				"cannot borrow %s as mutable more than once at a time", slot.Label())
		}

	case ReleaseBorrow:
		if !slot.Borrowed() {
			return types.NewFault(types.F_BORROW_CONFLICT, "%s has no outstanding borrow", slot.Label())
		}

	case Reassign:
		if slot.Borrowed() {
			return types.NewFault(types.F_WRITE_WHILE_BORROWED,
				"cannot assign to %s because it is borrowed", slot.Label())
		}
	}
	return nil
}
