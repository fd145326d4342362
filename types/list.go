package types

import "strings"

// TupleValue is an ordered, fixed-arity sequence of heterogeneous values
type TupleValue struct {
	elements []Value
}

// NewTuple creates a tuple; an empty tuple is still a tuple, not Unit
func NewTuple(elements []Value) TupleValue {
	return TupleValue{elements: elements}
}

// String returns the debug form: (4, '4', "Four")
func (t TupleValue) String() string {
	if len(t.elements) == 1 {
		return "(" + t.elements[0].String() + ",)"
	}
	return "(" + joinValues(t.elements) + ")"
}

// Type returns the type code
func (t TupleValue) Type() TypeCode {
	return TYPE_TUPLE
}

// Equal compares element-wise
func (t TupleValue) Equal(other Value) bool {
	o, ok := other.(TupleValue)
	return ok && equalValues(t.elements, o.elements)
}

// Len returns the arity
func (t TupleValue) Len() int {
	return len(t.elements)
}

// Get returns the element at a 0-based position
func (t TupleValue) Get(i int) Value {
	return t.elements[i]
}

// Elements returns the element slice; callers must not modify it
func (t TupleValue) Elements() []Value {
	return t.elements
}

// With returns a copy of the tuple with position i replaced
func (t TupleValue) With(i int, v Value) TupleValue {
	return TupleValue{elements: replaceAt(t.elements, i, v)}
}

// ArrayValue is a fixed-length sequence
type ArrayValue struct {
	elements []Value
}

// NewArray creates a new array value
func NewArray(elements []Value) ArrayValue {
	return ArrayValue{elements: elements}
}

// NewRepeatArray creates [v; n]
func NewRepeatArray(v Value, n int) ArrayValue {
	elements := make([]Value, n)
	for i := range elements {
		elements[i] = v
	}
	return ArrayValue{elements: elements}
}

// String returns the debug form: [1, 2, 3]
func (a ArrayValue) String() string {
	return "[" + joinValues(a.elements) + "]"
}

// Type returns the type code
func (a ArrayValue) Type() TypeCode {
	return TYPE_ARRAY
}

// Equal compares element-wise
func (a ArrayValue) Equal(other Value) bool {
	o, ok := other.(ArrayValue)
	return ok && equalValues(a.elements, o.elements)
}

// Len returns the number of elements
func (a ArrayValue) Len() int {
	return len(a.elements)
}

// Get returns the element at a 0-based index
func (a ArrayValue) Get(i int) Value {
	return a.elements[i]
}

// Elements returns the element slice; callers must not modify it
func (a ArrayValue) Elements() []Value {
	return a.elements
}

// With returns a copy of the array with index i replaced
func (a ArrayValue) With(i int, v Value) ArrayValue {
	return ArrayValue{elements: replaceAt(a.elements, i, v)}
}

// Slice returns the half-open range [lo, hi) as a new array
func (a ArrayValue) Slice(lo, hi int) ArrayValue {
	elements := make([]Value, hi-lo)
	copy(elements, a.elements[lo:hi])
	return ArrayValue{elements: elements}
}

func replaceAt(elements []Value, i int, v Value) []Value {
	out := make([]Value, len(elements))
	copy(out, elements)
	out[i] = v
	return out
}

func joinValues(elements []Value) string {
	parts := make([]string, len(elements))
	for i, e := range elements {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

func equalValues(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
