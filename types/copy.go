package types

// IsCopy reports whether reading v duplicates it instead of moving it.
//
// Scalars, literals, unit and shared references are Copy. Owned text and
// exclusive references are Move-only. Aggregates are Copy only when every
// element is; declared enums use the classification fixed at declaration.
func IsCopy(v Value) bool {
	switch t := v.(type) {
	case IntValue, FloatValue, BoolValue, CharValue, StrValue, UnitValue:
		return true
	case TextValue:
		return false
	case RefValue:
		return !t.Exclusive
	case TupleValue:
		return allCopy(t.elements)
	case ArrayValue:
		return allCopy(t.elements)
	case StructValue:
		return allCopy(t.fields)
	case EnumValue:
		if !t.typ.Generic {
			return !t.typ.MoveOnly
		}
		return t.payload == nil || IsCopy(t.payload)
	}
	return false
}

func allCopy(values []Value) bool {
	for _, v := range values {
		if !IsCopy(v) {
			return false
		}
	}
	return true
}

// IsCopyTypeName classifies a declared payload type name.
// Unknown names are looked up with lookup, which reports (isCopy, known).
func IsCopyTypeName(name string, lookup func(string) (bool, bool)) bool {
	switch name {
	case "", "i8", "i16", "i32", "i64", "isize", "u8", "u16", "u32", "u64", "usize",
		"f32", "f64", "bool", "char", "str", "&str", "()":
		return true
	case "String", "Text":
		return false
	}
	if len(name) > 1 && name[0] == '&' {
		return len(name) < 5 || name[:5] != "&mut "
	}
	if lookup != nil {
		if isCopy, known := lookup(name); known {
			return isCopy
		}
	}
	return true
}
