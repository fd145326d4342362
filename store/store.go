package store

import (
	"ownsim/types"
	"sort"
)

// Store is the in-memory value store.
// Dropped slots are kept so that stale references report UseAfterDrop.
// Execution is single-threaded, so the store does no locking.
type Store struct {
	slots   map[SlotID]*Slot
	nextID  SlotID
	dropLog []SlotID
}

// NewStore creates a new empty value store
func NewStore() *Store {
	return &Store{
		slots:  make(map[SlotID]*Slot),
		nextID: 1,
	}
}

// Allocate creates an Owned slot holding v
func (s *Store) Allocate(name string, v types.Value) SlotID {
	id := s.nextID
	s.nextID++
	s.slots[id] = &Slot{ID: id, Name: name, Value: v, State: Owned}
	return id
}

// Get retrieves a slot by ID
// Returns nil if the slot was never allocated
func (s *Store) Get(id SlotID) *Slot {
	return s.slots[id]
}

// Read returns the slot's value for a non-mutating read.
// Fails UseAfterMove if the value was moved out, UseAfterDrop if dropped.
func (s *Store) Read(id SlotID) (types.Value, error) {
	slot, err := s.live(id)
	if err != nil {
		return nil, err
	}
	return slot.Value, nil
}

// ReadMut returns the slot's value for a mutating read.
// Additionally fails UseWhileBorrowed if an exclusive borrow is outstanding.
func (s *Store) ReadMut(id SlotID) (types.Value, error) {
	slot, err := s.live(id)
	if err != nil {
		return nil, err
	}
	if slot.State == BorrowedExclusive {
		return nil, types.NewFault(types.F_USE_WHILE_BORROWED,
			"cannot use %s because it is mutably borrowed", slot.Label())
	}
	return slot.Value, nil
}

// Write replaces the slot's value.
// Fails WriteWhileBorrowed if any borrow is outstanding. Writing a
// moved-out slot re-initializes it.
func (s *Store) Write(id SlotID, v types.Value) error {
	slot := s.slots[id]
	if slot == nil {
		return types.NewFault(types.F_UNKNOWN_NAME, "no slot #%d", id)
	}
	switch slot.State {
	case Dropped:
		return types.NewFault(types.F_USE_AFTER_DROP, "assignment to dropped value %s", slot.Label())
	case BorrowedShared, BorrowedExclusive:
		return types.NewFault(types.F_WRITE_WHILE_BORROWED,
			"cannot assign to %s because it is borrowed", slot.Label())
	}
	slot.Value = v
	slot.State = Owned
	return nil
}

// Drop ends the slot's lifetime.
// A moved-out slot has nothing left to drop and is left as is.
// Fails DoubleDrop if already dropped, DropWhileBorrowed if still borrowed.
func (s *Store) Drop(id SlotID) error {
	slot := s.slots[id]
	if slot == nil {
		return types.NewFault(types.F_UNKNOWN_NAME, "no slot #%d", id)
	}
	switch slot.State {
	case Dropped:
		return types.NewFault(types.F_DOUBLE_DROP, "%s dropped twice", slot.Label())
	case MovedOut:
		return nil
	case BorrowedShared, BorrowedExclusive:
		return types.NewFault(types.F_DROP_WHILE_BORROWED,
			"%s dropped while still borrowed", slot.Label())
	}
	slot.State = Dropped
	slot.Value = nil
	s.dropLog = append(s.dropLog, id)
	return nil
}

// DropLog returns the IDs of dropped slots in drop order
func (s *Store) DropLog() []SlotID {
	out := make([]SlotID, len(s.dropLog))
	copy(out, s.dropLog)
	return out
}

// Live returns every slot that has not been dropped, ordered by ID
func (s *Store) Live() []*Slot {
	var out []*Slot
	for _, slot := range s.slots {
		if slot.State != Dropped {
			out = append(out, slot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// live returns a slot that can still be read
func (s *Store) live(id SlotID) (*Slot, error) {
	slot := s.slots[id]
	if slot == nil {
		return nil, types.NewFault(types.F_UNKNOWN_NAME, "no slot #%d", id)
	}
	switch slot.State {
	case MovedOut:
		return nil, types.NewFault(types.F_USE_AFTER_MOVE, "use of moved value %s", slot.Label())
	case Dropped:
		return nil, types.NewFault(types.F_USE_AFTER_DROP, "use of dropped value %s", slot.Label())
	}
	return slot, nil
}
