package eval

import (
	"ownsim/bindings"
	"ownsim/store"
	"ownsim/types"
)

// place is a resolved storage location: a path inside a slot owned by a
// binding, or a path inside the value a reference borrows
type place struct {
	name    string // how messages refer to the place: s, p.x, a[1], *r
	slot    store.SlotID
	binding *bindings.Binding
	path    []int
	indexed bool            // path crosses an array element
	ref     *types.RefValue // set when the place is reached through a reference
}

// child extends the place by one path step
func (p place) child(step int, name string, indexed bool) place {
	path := make([]int, len(p.path), len(p.path)+1)
	copy(path, p.path)
	p.path = append(path, step)
	p.name = name
	p.indexed = p.indexed || indexed
	return p
}

// refKind describes the reference a place is reached through
func (p place) refKind() string {
	if p.ref != nil && p.ref.Exclusive {
		return "mutable"
	}
	return "shared"
}

// navigate reads the value at a place for path resolution only.
// It checks the value still exists but applies no borrow rules.
func (e *Evaluator) navigate(p place) (types.Value, error) {
	var root types.Value
	var err error
	if p.ref != nil {
		root, err = e.tracker.Deref(*p.ref)
	} else {
		root, err = e.store.Read(p.slot)
	}
	if err != nil {
		return nil, err
	}
	return at(root, p)
}

func at(root types.Value, p place) (types.Value, error) {
	v, ok := types.At(root, p.path)
	if !ok {
		return nil, types.NewFault(types.F_INDEX_OUT_OF_BOUNDS, "`%s` is out of range", p.name)
	}
	return v, nil
}

// usePlace reads a place by value. Copy values are duplicated. A Move-only
// value is moved out of its slot; moving a field moves the whole slot.
func (e *Evaluator) usePlace(p place) types.Result {
	if p.ref != nil {
		v, err := e.navigate(p)
		if err != nil {
			return types.FromError(err)
		}
		if !types.IsCopy(v) {
			return types.Raise(types.F_MOVE_OUT_OF_BORROW,
				"cannot move out of `%s` which is behind a %s reference", p.name, p.refKind())
		}
		return types.Ok(v)
	}

	if len(p.path) == 0 {
		v, err := e.tracker.Use(p.slot)
		if err != nil {
			return types.FromError(err)
		}
		return types.Ok(v)
	}

	root, err := e.tracker.Inspect(p.slot)
	if err != nil {
		return types.FromError(err)
	}
	v, err := at(root, p)
	if err != nil {
		return types.FromError(err)
	}
	if types.IsCopy(v) {
		return types.Ok(v)
	}
	if p.indexed {
		return types.Raise(types.F_MOVE_OUT_OF_BORROW,
			"cannot move out of `%s`, a non-copy array element", p.name)
	}
	if _, err := e.tracker.ReadMove(p.slot); err != nil {
		return types.FromError(err)
	}
	return types.Ok(v)
}

// inspectPlace reads a place without consuming it. Fails while the place
// is exclusively borrowed by someone else.
func (e *Evaluator) inspectPlace(p place) (types.Value, error) {
	if p.ref != nil {
		return e.navigate(p)
	}
	root, err := e.tracker.Inspect(p.slot)
	if err != nil {
		return nil, err
	}
	return at(root, p)
}

// borrowPlace takes a reference to a place. Places behind a reference are
// reborrowed: the new reference shares the existing loan.
func (e *Evaluator) borrowPlace(p place, exclusive bool, span *types.Span) types.Result {
	var ref types.RefValue
	if p.ref != nil {
		if exclusive && !p.ref.Exclusive {
			return types.Raise(types.F_IMMUTABLE_BINDING,
				"cannot borrow `%s` as mutable, as it is behind a `&` reference", p.name)
		}
		if err := e.tracker.Share(p.ref.Loan); err != nil {
			return types.FromError(err)
		}
		ref = descend(*p.ref, p.path)
		ref.Exclusive = exclusive
	} else {
		if exclusive && !p.binding.Mutable {
			return types.Raise(types.F_IMMUTABLE_BINDING,
				"cannot borrow `%s` as mutable, as it is not declared as mutable", p.name)
		}
		loan, err := e.tracker.Borrow(p.slot, exclusive)
		if err != nil {
			return types.FromError(err)
		}
		ref = types.RefValue{Loan: loan, Target: int(p.slot), Exclusive: exclusive, Path: append([]int{}, p.path...)}
	}

	if span != nil {
		ref = ref.Slice(span.Lo, span.Hi)
	}
	return types.Ok(ref)
}

// descend narrows a reference by a relative path. The first step into a
// slice is offset by the slice start.
func descend(ref types.RefValue, steps []int) types.RefValue {
	for _, step := range steps {
		if ref.Span != nil {
			step += ref.Span.Lo
			ref.Span = nil
		}
		ref = ref.Narrow(step)
	}
	return ref
}

// assignPlace replaces the value at a place
func (e *Evaluator) assignPlace(p place, v types.Value) types.Result {
	if p.ref != nil {
		if !p.ref.Exclusive {
			return types.Raise(types.F_IMMUTABLE_BINDING,
				"cannot assign to `%s`, which is behind a `&` reference", p.name)
		}
		if err := e.tracker.WriteThrough(*p.ref, p.path, v); err != nil {
			return types.FromError(err)
		}
		return types.Ok(types.Unit)
	}

	if !p.binding.Mutable {
		return types.Raise(types.F_IMMUTABLE_BINDING, "cannot assign twice to immutable variable `%s`", p.binding.Name)
	}
	if len(p.path) > 0 {
		root, err := e.store.Read(p.slot)
		if err != nil {
			return types.FromError(err)
		}
		updated, ok := types.SetAt(root, p.path, v)
		if !ok {
			return types.Raise(types.F_INDEX_OUT_OF_BOUNDS, "`%s` is out of range", p.name)
		}
		v = updated
	}
	if err := e.tracker.Reassign(p.slot, v, 0); err != nil {
		return types.FromError(err)
	}
	return types.Ok(types.Unit)
}
