package types

import (
	"fmt"
	"strconv"
	"strings"
)

// LoanID identifies an outstanding borrow
type LoanID uint64

// Span is a half-open slice range [Lo, Hi) into an array
type Span struct {
	Lo, Hi int
}

// RefValue is a live borrow of a slot, optionally narrowed to a sub-value
// (Path of element/field/payload positions) and then to a slice (Span).
type RefValue struct {
	Loan      LoanID
	Target    int // store slot ID
	Exclusive bool
	Path      []int
	Span      *Span
}

// Type returns the type code
func (r RefValue) Type() TypeCode {
	return TYPE_REF
}

// String returns a placeholder; formatting resolves references before printing
func (r RefValue) String() string {
	var b strings.Builder
	b.WriteString("&")
	if r.Exclusive {
		b.WriteString("mut ")
	}
	b.WriteString("#" + strconv.Itoa(r.Target))
	for _, p := range r.Path {
		b.WriteString("." + strconv.Itoa(p))
	}
	if r.Span != nil {
		b.WriteString(fmt.Sprintf("[%d..%d]", r.Span.Lo, r.Span.Hi))
	}
	return b.String()
}

// Equal compares identity of the borrowed place, not the loan
func (r RefValue) Equal(other Value) bool {
	o, ok := other.(RefValue)
	if !ok || o.Target != r.Target || o.Exclusive != r.Exclusive || len(o.Path) != len(r.Path) {
		return false
	}
	for i := range r.Path {
		if r.Path[i] != o.Path[i] {
			return false
		}
	}
	if r.Span == nil || o.Span == nil {
		return r.Span == nil && o.Span == nil
	}
	return *r.Span == *o.Span
}

// Narrow returns a reference to a sub-value of the borrowed place, sharing the loan
func (r RefValue) Narrow(step int) RefValue {
	path := make([]int, len(r.Path), len(r.Path)+1)
	copy(path, r.Path)
	r.Path = append(path, step)
	return r
}

// Slice returns a reference to the range [lo, hi) of the borrowed array
func (r RefValue) Slice(lo, hi int) RefValue {
	if r.Span != nil {
		lo, hi = r.Span.Lo+lo, r.Span.Lo+hi
	}
	r.Span = &Span{Lo: lo, Hi: hi}
	return r
}

// Loans returns every loan referenced anywhere inside v
func Loans(v Value) []LoanID {
	var out []LoanID
	collectLoans(v, &out)
	return out
}

func collectLoans(v Value, out *[]LoanID) {
	switch t := v.(type) {
	case RefValue:
		*out = append(*out, t.Loan)
	case TupleValue:
		for _, e := range t.elements {
			collectLoans(e, out)
		}
	case ArrayValue:
		for _, e := range t.elements {
			collectLoans(e, out)
		}
	case StructValue:
		for _, e := range t.fields {
			collectLoans(e, out)
		}
	case EnumValue:
		if t.payload != nil {
			collectLoans(t.payload, out)
		}
	}
}

// Child returns the sub-value of v at one path step:
// a tuple/array element, a struct field, or (step 0) an enum payload.
func Child(v Value, step int) (Value, bool) {
	switch t := v.(type) {
	case TupleValue:
		if step >= 0 && step < len(t.elements) {
			return t.elements[step], true
		}
	case ArrayValue:
		if step >= 0 && step < len(t.elements) {
			return t.elements[step], true
		}
	case StructValue:
		if step >= 0 && step < len(t.fields) {
			return t.fields[step], true
		}
	case EnumValue:
		if step == 0 && t.payload != nil {
			return t.payload, true
		}
	}
	return nil, false
}

// WithChild returns a copy of v with the sub-value at one path step replaced
func WithChild(v Value, step int, child Value) (Value, bool) {
	if _, ok := Child(v, step); !ok {
		return nil, false
	}
	switch t := v.(type) {
	case TupleValue:
		return t.With(step, child), true
	case ArrayValue:
		return t.With(step, child), true
	case StructValue:
		return t.With(step, child), true
	case EnumValue:
		return NewEnum(t.typ, t.variant, child), true
	}
	return nil, false
}

// At follows a path from v
func At(v Value, path []int) (Value, bool) {
	for _, step := range path {
		var ok bool
		if v, ok = Child(v, step); !ok {
			return nil, false
		}
	}
	return v, true
}

// SetAt returns a copy of v with the value at path replaced
func SetAt(v Value, path []int, child Value) (Value, bool) {
	if len(path) == 0 {
		return child, true
	}
	inner, ok := Child(v, path[0])
	if !ok {
		return nil, false
	}
	updated, ok := SetAt(inner, path[1:], child)
	if !ok {
		return nil, false
	}
	return WithChild(v, path[0], updated)
}
