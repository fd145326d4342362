package ownership

import (
	"ownsim/store"
	"ownsim/types"
	"testing"
)

func newTracker() *Tracker {
	return New(store.NewStore())
}

func wantFault(t *testing.T, err error, kind types.FaultKind) {
	t.Helper()
	f, ok := types.FaultOf(err)
	if !ok {
		t.Fatalf("expected %s fault, got %v", kind, err)
	}
	if f.Kind != kind {
		t.Fatalf("expected %s fault, got %s (%s)", kind, f.Kind, f.Msg)
	}
}

func state(tr *Tracker, id store.SlotID) store.State {
	return tr.store.Get(id).State
}

func TestCheckTable(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(tr *Tracker, id store.SlotID)
		access Access
		want   types.FaultKind
	}{
		{"copy owned", nil, ReadCopy, types.F_NONE},
		{"move owned", nil, ReadMove, types.F_NONE},
		{"reassign owned", nil, Reassign, types.F_NONE},
		{"release unborrowed", nil, ReleaseBorrow, types.F_BORROW_CONFLICT},
		{"move moved", moveOut, ReadMove, types.F_USE_AFTER_MOVE},
		{"copy moved", moveOut, ReadCopy, types.F_USE_AFTER_MOVE},
		{"borrow moved", moveOut, BorrowShared, types.F_USE_AFTER_MOVE},
		{"reassign moved", moveOut, Reassign, types.F_NONE},
		{"copy shared", borrowShared, ReadCopy, types.F_NONE},
		{"shared shared", borrowShared, BorrowShared, types.F_NONE},
		{"exclusive shared", borrowShared, BorrowExclusive, types.F_BORROW_CONFLICT},
		{"move shared", borrowShared, ReadMove, types.F_BORROW_CONFLICT},
		{"reassign shared", borrowShared, Reassign, types.F_WRITE_WHILE_BORROWED},
		{"copy exclusive", borrowExclusive, ReadCopy, types.F_USE_WHILE_BORROWED},
		{"shared exclusive", borrowExclusive, BorrowShared, types.F_BORROW_CONFLICT},
		{"exclusive exclusive", borrowExclusive, BorrowExclusive, types.F_BORROW_CONFLICT},
		{"reassign exclusive", borrowExclusive, Reassign, types.F_WRITE_WHILE_BORROWED},
		{"copy dropped", drop, ReadCopy, types.F_USE_AFTER_DROP},
		{"borrow dropped", drop, BorrowShared, types.F_USE_AFTER_DROP},
		{"reassign dropped", drop, Reassign, types.F_USE_AFTER_DROP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTracker()
			id := tr.Declare("x", types.NewText("v"))
			if tt.setup != nil {
				tt.setup(tr, id)
			}
			err := tr.Check(id, tt.access)
			if tt.want == types.F_NONE {
				if err != nil {
					t.Fatalf("Check(%s) = %v, want ok", tt.access, err)
				}
				return
			}
			wantFault(t, err, tt.want)
		})
	}
}

func moveOut(tr *Tracker, id store.SlotID)         { tr.ReadMove(id) }
func borrowShared(tr *Tracker, id store.SlotID)    { tr.Borrow(id, false) }
func borrowExclusive(tr *Tracker, id store.SlotID) { tr.Borrow(id, true) }
func drop(tr *Tracker, id store.SlotID)            { tr.Drop(id) }

func TestCheckDoesNotMutate(t *testing.T) {
	tr := newTracker()
	id := tr.Declare("x", types.NewText("v"))
	tr.Check(id, ReadMove)
	tr.Check(id, BorrowExclusive)
	if state(tr, id) != store.Owned {
		t.Errorf("Check changed state to %s", state(tr, id))
	}
}

func TestMoveThenUse(t *testing.T) {
	tr := newTracker()
	s := tr.Declare("s", types.NewText("hello"))

	v, err := tr.ReadMove(s)
	if err != nil {
		t.Fatalf("first move failed: %v", err)
	}
	if v.String() != `"hello"` {
		t.Errorf("moved value = %s", v)
	}
	if state(tr, s) != store.MovedOut {
		t.Errorf("state = %s, want MovedOut", state(tr, s))
	}

	_, err = tr.ReadMove(s)
	wantFault(t, err, types.F_USE_AFTER_MOVE)
	_, err = tr.Inspect(s)
	wantFault(t, err, types.F_USE_AFTER_MOVE)
}

func TestCopyLeavesOwned(t *testing.T) {
	tr := newTracker()
	x := tr.Declare("x", types.NewInt(5))

	for i := 0; i < 3; i++ {
		v, err := tr.Use(x)
		if err != nil {
			t.Fatalf("copy %d failed: %v", i, err)
		}
		if !v.Equal(types.NewInt(5)) {
			t.Errorf("copy %d = %s", i, v)
		}
	}
	if state(tr, x) != store.Owned {
		t.Errorf("state = %s, want Owned", state(tr, x))
	}

	text := tr.Declare("t", types.NewText("a"))
	_, err := tr.ReadCopy(text)
	wantFault(t, err, types.F_TYPE_MISMATCH)
}

func TestSharedBorrowsCount(t *testing.T) {
	tr := newTracker()
	s := tr.Declare("s", types.NewText("hi"))
	mark := tr.Mark()

	l1, err := tr.Borrow(s, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Borrow(s, false); err != nil {
		t.Fatal(err)
	}
	if got := tr.store.Get(s).Describe(); got != "BorrowedShared(2)" {
		t.Errorf("Describe() = %s", got)
	}

	_, err = tr.Borrow(s, true)
	wantFault(t, err, types.F_BORROW_CONFLICT)

	if err := tr.Release(l1); err != nil {
		t.Fatal(err)
	}
	if got := tr.store.Get(s).Describe(); got != "BorrowedShared(1)" {
		t.Errorf("after one release Describe() = %s", got)
	}

	if err := tr.Settle(mark, nil); err != nil {
		t.Fatal(err)
	}
	if state(tr, s) != store.Owned {
		t.Errorf("state after settle = %s, want Owned", state(tr, s))
	}
	if len(tr.loans) != 0 {
		t.Errorf("outstanding loans = %d", len(tr.loans))
	}
}

func TestExclusiveWriteThrough(t *testing.T) {
	tr := newTracker()
	s := tr.Declare("s", types.NewText("hi"))

	mark := tr.Mark()
	loan, err := tr.Borrow(s, true)
	if err != nil {
		t.Fatal(err)
	}
	ref := types.RefValue{Loan: loan, Target: int(s), Exclusive: true}
	r := tr.Declare("r", ref)
	if err := tr.Settle(mark, nil); err != nil {
		t.Fatal(err)
	}
	if state(tr, s) != store.BorrowedExclusive {
		t.Fatalf("binding should keep the loan, state = %s", state(tr, s))
	}

	_, err = tr.Inspect(s)
	wantFault(t, err, types.F_USE_WHILE_BORROWED)
	err = tr.Reassign(s, types.NewText("nope"), 0)
	wantFault(t, err, types.F_WRITE_WHILE_BORROWED)

	if err := tr.WriteThrough(ref, nil, types.NewText("bye")); err != nil {
		t.Fatalf("WriteThrough failed: %v", err)
	}
	v, err := tr.Deref(ref)
	if err != nil || v.String() != `"bye"` {
		t.Errorf("Deref = %v, %v", v, err)
	}

	if err := tr.Drop(r); err != nil {
		t.Fatal(err)
	}
	if state(tr, s) != store.Owned {
		t.Errorf("dropping the borrower should release, state = %s", state(tr, s))
	}
	v, _ = tr.Inspect(s)
	if v.String() != `"bye"` {
		t.Errorf("owner sees %s, want \"bye\"", v)
	}
}

func TestSliceDeref(t *testing.T) {
	tr := newTracker()
	a := tr.Declare("a", types.NewArray([]types.Value{
		types.NewInt(1), types.NewInt(2), types.NewInt(3), types.NewInt(4), types.NewInt(5),
	}))
	loan, err := tr.Borrow(a, false)
	if err != nil {
		t.Fatal(err)
	}
	ref := types.RefValue{Loan: loan, Target: int(a)}.Slice(1, 3)

	v, err := tr.Deref(ref)
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "[2, 3]" {
		t.Errorf("slice = %s, want [2, 3]", v)
	}

	bad := types.RefValue{Loan: loan, Target: int(a)}.Slice(3, 9)
	_, err = tr.Deref(bad)
	wantFault(t, err, types.F_INDEX_OUT_OF_BOUNDS)
}

func TestWriteThroughSliceElement(t *testing.T) {
	tr := newTracker()
	a := tr.Declare("a", types.NewArray([]types.Value{types.NewInt(1), types.NewInt(2), types.NewInt(3)}))
	loan, _ := tr.Borrow(a, true)
	ref := types.RefValue{Loan: loan, Target: int(a), Exclusive: true}.Slice(1, 3)

	if err := tr.WriteThrough(ref, []int{1}, types.NewInt(30)); err != nil {
		t.Fatal(err)
	}
	root := tr.store.Get(a).Value
	if root.String() != "[1, 2, 30]" {
		t.Errorf("root = %s", root)
	}

	shared := ref
	shared.Exclusive = false
	err := tr.WriteThrough(shared, nil, types.NewInt(0))
	wantFault(t, err, types.F_IMMUTABLE_BINDING)
}

func TestDropWhileBorrowed(t *testing.T) {
	tr := newTracker()
	s := tr.Declare("s", types.NewText("hi"))
	if _, err := tr.Borrow(s, false); err != nil {
		t.Fatal(err)
	}
	err := tr.Drop(s)
	wantFault(t, err, types.F_DROP_WHILE_BORROWED)
}

func TestDoubleDrop(t *testing.T) {
	tr := newTracker()
	s := tr.Declare("s", types.NewText("hi"))
	if err := tr.Drop(s); err != nil {
		t.Fatal(err)
	}
	wantFault(t, tr.Drop(s), types.F_DOUBLE_DROP)
}

func TestDropMovedOutIsNoop(t *testing.T) {
	tr := newTracker()
	s := tr.Declare("s", types.NewText("hi"))
	tr.ReadMove(s)
	if err := tr.Drop(s); err != nil {
		t.Fatalf("dropping a moved-out slot should succeed: %v", err)
	}
	if len(tr.store.DropLog()) != 0 {
		t.Errorf("moved-out slot should not appear in the drop log")
	}
}

func TestReassignReinitializes(t *testing.T) {
	tr := newTracker()
	s := tr.Declare("s", types.NewText("a"))
	tr.ReadMove(s)
	if err := tr.Reassign(s, types.NewText("b"), 0); err != nil {
		t.Fatal(err)
	}
	v, err := tr.Inspect(s)
	if err != nil || v.String() != `"b"` {
		t.Errorf("after re-init Inspect = %v, %v", v, err)
	}
}

func TestMovedRefKeepsLoan(t *testing.T) {
	tr := newTracker()
	s := tr.Declare("s", types.NewText("hi"))

	mark := tr.Mark()
	loan, _ := tr.Borrow(s, true)
	r := tr.Declare("r", types.RefValue{Loan: loan, Target: int(s), Exclusive: true})
	tr.Settle(mark, nil)

	// move r into r2 within one statement
	mark = tr.Mark()
	v, err := tr.ReadMove(r)
	if err != nil {
		t.Fatal(err)
	}
	r2 := tr.Declare("r2", v)
	tr.Settle(mark, nil)

	if state(tr, s) != store.BorrowedExclusive {
		t.Fatalf("loan should survive the move, state = %s", state(tr, s))
	}
	if err := tr.Drop(r); err != nil {
		t.Fatal(err)
	}
	if state(tr, s) != store.BorrowedExclusive {
		t.Fatalf("dropping the moved-from slot released the loan")
	}
	if err := tr.Drop(r2); err != nil {
		t.Fatal(err)
	}
	if state(tr, s) != store.Owned {
		t.Errorf("state = %s, want Owned", state(tr, s))
	}
}

func TestSettleKeepsReturnedRef(t *testing.T) {
	tr := newTracker()
	s := tr.Declare("s", types.NewText("hi"))

	outer := tr.Mark()
	inner := tr.Mark()
	loan, _ := tr.Borrow(s, false)
	ref := types.RefValue{Loan: loan, Target: int(s)}
	tr.Settle(inner, ref)

	if state(tr, s) != store.BorrowedShared {
		t.Fatalf("kept ref lost its loan, state = %s", state(tr, s))
	}
	tr.Settle(outer, nil)
	if state(tr, s) != store.Owned {
		t.Errorf("state = %s, want Owned", state(tr, s))
	}
}

func TestDerefAfterRelease(t *testing.T) {
	tr := newTracker()
	s := tr.Declare("s", types.NewText("hi"))
	loan, _ := tr.Borrow(s, false)
	ref := types.RefValue{Loan: loan, Target: int(s)}
	tr.Release(loan)

	_, err := tr.Deref(ref)
	wantFault(t, err, types.F_USE_AFTER_DROP)
	wantFault(t, tr.Share(loan), types.F_USE_AFTER_DROP)
}

func TestAccessString(t *testing.T) {
	if ReadMove.String() != "ReadMove" || Reassign.String() != "Reassign" {
		t.Errorf("unexpected access names %s %s", ReadMove, Reassign)
	}
}

// Direct writes obey the store's write rule; the holder of the exclusive
// loan may still write through it
func TestReassignWriteRules(t *testing.T) {
	tr := newTracker()
	s := tr.Declare("s", types.NewText("a"))
	loan, err := tr.Borrow(s, true)
	if err != nil {
		t.Fatal(err)
	}

	err = tr.Reassign(s, types.NewText("b"), 0)
	wantFault(t, err, types.F_WRITE_WHILE_BORROWED)

	if err := tr.Reassign(s, types.NewText("c"), loan); err != nil {
		t.Fatalf("write through own loan failed: %v", err)
	}
	if state(tr, s) != store.BorrowedExclusive {
		t.Errorf("state = %s, want BorrowedExclusive", state(tr, s))
	}
	if got := tr.store.Get(s).Value; !got.Equal(types.NewText("c")) {
		t.Errorf("value = %s", got)
	}

	if err := tr.Release(loan); err != nil {
		t.Fatal(err)
	}
	if err := tr.Drop(s); err != nil {
		t.Fatal(err)
	}
	err = tr.Reassign(s, types.NewText("d"), 0)
	wantFault(t, err, types.F_USE_AFTER_DROP)
}
