package types

import (
	"math"
	"strconv"
	"strings"
)

// FloatKind is f32 or f64
type FloatKind int

const (
	F64 FloatKind = iota
	F32
)

// String returns the kind's suffix name
func (k FloatKind) String() string {
	if k == F32 {
		return "f32"
	}
	return "f64"
}

// FloatValue represents a floating point number
type FloatValue struct {
	Kind FloatKind
	Val  float64
}

// NewFloat creates an f64 FloatValue
func NewFloat(val float64) FloatValue {
	return FloatValue{Kind: F64, Val: val}
}

// NewFloatKind creates a FloatValue of an explicit kind, rounding f32 values
func NewFloatKind(kind FloatKind, val float64) FloatValue {
	if kind == F32 {
		val = float64(float32(val))
	}
	return FloatValue{Kind: kind, Val: val}
}

// Type returns the type code for floats
func (f FloatValue) Type() TypeCode {
	return TYPE_FLOAT
}

// String returns the debug form, which always carries a fractional part
func (f FloatValue) String() string {
	s := f.display()
	if math.IsInf(f.Val, 0) || math.IsNaN(f.Val) {
		return s
	}
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// display returns the shortest decimal form (3.14, 1, -0.5)
func (f FloatValue) display() string {
	switch {
	case math.IsInf(f.Val, 1):
		return "inf"
	case math.IsInf(f.Val, -1):
		return "-inf"
	case math.IsNaN(f.Val):
		return "NaN"
	}
	bits := 64
	if f.Kind == F32 {
		bits = 32
	}
	return strconv.FormatFloat(f.Val, 'f', -1, bits)
}

// Equal checks kind and value
func (f FloatValue) Equal(other Value) bool {
	o, ok := other.(FloatValue)
	return ok && o.Kind == f.Kind && o.Val == f.Val
}
