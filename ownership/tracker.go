package ownership

import (
	"ownsim/store"
	"ownsim/trace"
	"ownsim/types"
)

// Loan is one outstanding borrow of a slot.
// A loan is held by every slot whose value contains a reference using it,
// plus any statement-scoped holds; it is released when the last hold ends.
type Loan struct {
	ID        types.LoanID
	Target    store.SlotID
	Exclusive bool
	holds     int
}

// Tracker validates every access against slot state and applies the
// resulting transition. It is the single authority over borrow state.
type Tracker struct {
	store    *store.Store
	loans    map[types.LoanID]*Loan
	held     map[store.SlotID][]types.LoanID
	pending  []types.LoanID
	nextLoan types.LoanID
}

// New creates a tracker over a store
func New(s *store.Store) *Tracker {
	return &Tracker{
		store: s,
		loans: make(map[types.LoanID]*Loan),
		held:  make(map[store.SlotID][]types.LoanID),
	}
}

// Check validates an access without changing any state
func (t *Tracker) Check(id store.SlotID, access Access) error {
	slot, err := t.slot(id)
	if err != nil {
		return err
	}
	return check(slot, access)
}

// Declare allocates an Owned slot for v. Any loans referenced by v become
// held by the new slot.
func (t *Tracker) Declare(name string, v types.Value) store.SlotID {
	id := t.store.Allocate(name, v)
	t.hold(id, v)
	trace.Alloc(name, int(id), v)
	return id
}

// ReadCopy returns a duplicate of a Copy value; slot state is unchanged
func (t *Tracker) ReadCopy(id store.SlotID) (types.Value, error) {
	slot, err := t.slot(id)
	if err != nil {
		return nil, err
	}
	if err := check(slot, ReadCopy); err != nil {
		return nil, err
	}
	v, err := t.store.Read(id)
	if err != nil {
		return nil, err
	}
	if !types.IsCopy(v) {
		return nil, types.NewFault(types.F_TYPE_MISMATCH,
			"cannot copy %s of type %s", slot.Label(), types.TypeName(v))
	}
	return v, nil
}

// ReadMove transfers the value out of the slot, leaving it MovedOut.
// Loans held by the moved value travel with it until the caller
// stores it somewhere (or the current statement ends).
func (t *Tracker) ReadMove(id store.SlotID) (types.Value, error) {
	slot, err := t.slot(id)
	if err != nil {
		return nil, err
	}
	if err := check(slot, ReadMove); err != nil {
		return nil, err
	}
	v, err := t.store.ReadMut(id)
	if err != nil {
		return nil, err
	}
	slot.State = store.MovedOut
	t.pending = append(t.pending, t.held[id]...)
	delete(t.held, id)
	trace.Move(slot.Name, int(id))
	return v, nil
}

// Use reads a slot by value: ReadCopy for Copy values, ReadMove otherwise
func (t *Tracker) Use(id store.SlotID) (types.Value, error) {
	slot, err := t.slot(id)
	if err != nil {
		return nil, err
	}
	if types.IsCopy(slot.Value) {
		return t.ReadCopy(id)
	}
	return t.ReadMove(id)
}

// Inspect reads a slot without consuming it, as a shared borrow that ends
// immediately would. Used for printing and other by-reference builtins.
func (t *Tracker) Inspect(id store.SlotID) (types.Value, error) {
	slot, err := t.slot(id)
	if err != nil {
		return nil, err
	}
	if err := check(slot, ReadCopy); err != nil {
		return nil, err
	}
	return t.store.Read(id)
}

// Borrow takes a shared or exclusive loan on a slot. The loan starts with
// one statement-scoped hold.
func (t *Tracker) Borrow(id store.SlotID, exclusive bool) (types.LoanID, error) {
	slot, err := t.slot(id)
	if err != nil {
		return 0, err
	}
	access := BorrowShared
	if exclusive {
		access = BorrowExclusive
	}
	if err := check(slot, access); err != nil {
		return 0, err
	}

	if exclusive {
		slot.State = store.BorrowedExclusive
	} else {
		slot.State = store.BorrowedShared
		slot.Shared++
	}

	t.nextLoan++
	loan := &Loan{ID: t.nextLoan, Target: id, Exclusive: exclusive, holds: 1}
	t.loans[loan.ID] = loan
	t.pending = append(t.pending, loan.ID)
	trace.Borrow(slot.Name, int(id), loan.ID, exclusive, slot.Describe())
	return loan.ID, nil
}

// Share adds a statement-scoped hold to an existing loan, for references
// derived from another reference (reborrows, slices, field references)
func (t *Tracker) Share(id types.LoanID) error {
	loan, ok := t.loans[id]
	if !ok {
		return types.NewFault(types.F_USE_AFTER_DROP, "reference outlived its borrow")
	}
	loan.holds++
	t.pending = append(t.pending, id)
	return nil
}

// Release ends a loan regardless of its holds, returning the slot to Owned
// when no borrows remain
func (t *Tracker) Release(id types.LoanID) error {
	loan, ok := t.loans[id]
	if !ok {
		return types.NewFault(types.F_BORROW_CONFLICT, "loan %d is not outstanding", id)
	}
	slot, err := t.slot(loan.Target)
	if err != nil {
		return err
	}
	if err := check(slot, ReleaseBorrow); err != nil {
		return err
	}

	delete(t.loans, id)
	if loan.Exclusive {
		slot.State = store.Owned
	} else {
		slot.Shared--
		if slot.Shared <= 0 {
			slot.Shared = 0
			slot.State = store.Owned
		}
	}
	trace.Release(slot.Name, int(loan.Target), id, slot.Describe())
	return nil
}

// Reassign replaces the value stored in a slot. A direct write (via 0) is
// a store write, allowed while the slot is Owned or MovedOut. A write through
// via, the caller's own exclusive loan, replaces the value in place.
func (t *Tracker) Reassign(id store.SlotID, v types.Value, via types.LoanID) error {
	slot, err := t.slot(id)
	if err != nil {
		return err
	}

	throughLoan := false
	if via != 0 && slot.State == store.BorrowedExclusive {
		loan, ok := t.loans[via]
		throughLoan = ok && loan.Exclusive && loan.Target == id
	}
	if throughLoan {
		slot.Value = v
	} else if err := t.store.Write(id, v); err != nil {
		return err
	}

	old := t.held[id]
	delete(t.held, id)
	t.hold(id, v)
	trace.Reassign(slot.Name, int(id), v)
	return t.releaseHolds(old)
}

// Deref reads the value a reference points at without changing state
func (t *Tracker) Deref(ref types.RefValue) (types.Value, error) {
	if _, ok := t.loans[ref.Loan]; !ok {
		return nil, types.NewFault(types.F_USE_AFTER_DROP, "reference to #%d outlived its borrow", ref.Target)
	}
	slot, err := t.slot(store.SlotID(ref.Target))
	if err != nil {
		return nil, err
	}
	if slot.State == store.Dropped || slot.State == store.MovedOut {
		return nil, types.NewFault(types.F_USE_AFTER_DROP, "reference to %s outlived its value", slot.Label())
	}

	v, ok := types.At(slot.Value, ref.Path)
	if !ok {
		return nil, types.NewFault(types.F_INDEX_OUT_OF_BOUNDS, "reference path %v out of range", ref.Path)
	}
	if ref.Span == nil {
		return v, nil
	}
	arr, ok := v.(types.ArrayValue)
	if !ok {
		return nil, types.NewFault(types.F_TYPE_MISMATCH, "cannot slice %s", types.TypeName(v))
	}
	if ref.Span.Lo < 0 || ref.Span.Hi > arr.Len() || ref.Span.Lo > ref.Span.Hi {
		return nil, types.NewFault(types.F_INDEX_OUT_OF_BOUNDS,
			"range %d..%d out of range for length %d", ref.Span.Lo, ref.Span.Hi, arr.Len())
	}
	return arr.Slice(ref.Span.Lo, ref.Span.Hi), nil
}

// WriteThrough replaces the value at sub (relative to the referenced place)
// through an exclusive reference
func (t *Tracker) WriteThrough(ref types.RefValue, sub []int, v types.Value) error {
	if !ref.Exclusive {
		return types.NewFault(types.F_IMMUTABLE_BINDING, "cannot assign through a shared reference")
	}
	if _, ok := t.loans[ref.Loan]; !ok {
		return types.NewFault(types.F_USE_AFTER_DROP, "reference to #%d outlived its borrow", ref.Target)
	}
	id := store.SlotID(ref.Target)
	slot, err := t.slot(id)
	if err != nil {
		return err
	}

	path := append(append([]int{}, ref.Path...), sub...)
	if ref.Span != nil && len(sub) > 0 {
		path[len(ref.Path)] += ref.Span.Lo
	}
	root, ok := types.SetAt(slot.Value, path, v)
	if !ok {
		return types.NewFault(types.F_INDEX_OUT_OF_BOUNDS, "reference path %v out of range", path)
	}
	return t.Reassign(id, root, ref.Loan)
}

// Drop ends a slot's lifetime, first releasing every loan its value holds
func (t *Tracker) Drop(id store.SlotID) error {
	slot, err := t.slot(id)
	if err != nil {
		return err
	}
	old := t.held[id]
	delete(t.held, id)
	relErr := t.releaseHolds(old)

	name := slot.Name
	wasMoved := slot.State == store.MovedOut
	if err := t.store.Drop(id); err != nil {
		return err
	}
	if !wasMoved {
		trace.Drop(name, int(id))
	}
	return relErr
}

// Mark returns the current depth of statement-scoped holds
func (t *Tracker) Mark() int {
	return len(t.pending)
}

// Settle ends every statement-scoped hold taken since mark, except that
// loans referenced by keep (a value flowing out of the statement) are
// carried over as holds of the enclosing statement.
func (t *Tracker) Settle(mark int, keep types.Value) error {
	var kept []types.LoanID
	if keep != nil {
		for _, id := range types.Loans(keep) {
			if loan, ok := t.loans[id]; ok {
				loan.holds++
				kept = append(kept, id)
			}
		}
	}

	if mark > len(t.pending) {
		mark = len(t.pending)
	}
	expired := append([]types.LoanID{}, t.pending[mark:]...)
	t.pending = t.pending[:mark]
	err := t.releaseHolds(expired)
	t.pending = append(t.pending, kept...)
	return err
}

func (t *Tracker) slot(id store.SlotID) (*store.Slot, error) {
	slot := t.store.Get(id)
	if slot == nil {
		return nil, types.NewFault(types.F_UNKNOWN_NAME, "no slot #%d", id)
	}
	return slot, nil
}

// hold records that slot id's value keeps the loans inside v alive
func (t *Tracker) hold(id store.SlotID, v types.Value) {
	for _, loanID := range types.Loans(v) {
		if loan, ok := t.loans[loanID]; ok {
			loan.holds++
			t.held[id] = append(t.held[id], loanID)
		}
	}
}

// releaseHolds drops one hold per entry, releasing loans that reach zero
func (t *Tracker) releaseHolds(ids []types.LoanID) error {
	var first error
	for _, id := range ids {
		loan, ok := t.loans[id]
		if !ok {
			continue
		}
		loan.holds--
		if loan.holds <= 0 {
			if err := t.Release(id); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
