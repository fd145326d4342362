package types

import (
	"math"
	"strconv"
)

// IntKind is the width and signedness of an integer
type IntKind int

const (
	I32 IntKind = iota // default for unannotated literals
	I8
	I16
	I64
	ISize
	U8
	U16
	U32
	U64
	USize
)

var intKindNames = [...]string{
	I32: "i32", I8: "i8", I16: "i16", I64: "i64", ISize: "isize",
	U8: "u8", U16: "u16", U32: "u32", U64: "u64", USize: "usize",
}

// String returns the kind's suffix name (i32, u8, ...)
func (k IntKind) String() string {
	return intKindNames[k]
}

// IntKindFromString converts "u8" etc. to an IntKind
func IntKindFromString(s string) (IntKind, bool) {
	for k, name := range intKindNames {
		if name == s {
			return IntKind(k), true
		}
	}
	return I32, false
}

// Signed reports whether the kind is a signed integer
func (k IntKind) Signed() bool {
	return k < U8
}

// Bounds returns the inclusive range of the kind.
// IntValue holds an int64, so u64/usize stop at math.MaxInt64.
func (k IntKind) Bounds() (int64, int64) {
	switch k {
	case I8:
		return math.MinInt8, math.MaxInt8
	case I16:
		return math.MinInt16, math.MaxInt16
	case I32:
		return math.MinInt32, math.MaxInt32
	case I64, ISize:
		return math.MinInt64, math.MaxInt64
	case U8:
		return 0, math.MaxUint8
	case U16:
		return 0, math.MaxUint16
	case U32:
		return 0, math.MaxUint32
	default:
		return 0, math.MaxInt64
	}
}

// Fits reports whether v is representable in the kind
func (k IntKind) Fits(v int64) bool {
	lo, hi := k.Bounds()
	return v >= lo && v <= hi
}

// IntValue represents a fixed-width integer
type IntValue struct {
	Kind IntKind
	Val  int64
}

// NewInt creates an i32 IntValue
func NewInt(val int64) IntValue {
	return IntValue{Kind: I32, Val: val}
}

// NewIntKind creates an IntValue of an explicit kind
func NewIntKind(kind IntKind, val int64) IntValue {
	return IntValue{Kind: kind, Val: val}
}

// Type returns the type code for integers
func (i IntValue) Type() TypeCode {
	return TYPE_INT
}

// String returns the decimal representation
func (i IntValue) String() string {
	return strconv.FormatInt(i.Val, 10)
}

// Equal checks kind and value
func (i IntValue) Equal(other Value) bool {
	o, ok := other.(IntValue)
	return ok && o.Kind == i.Kind && o.Val == i.Val
}
