package types

// Display returns the user-facing ({}) form of a value.
// Text and characters print without quotes; aggregates fall back to their debug form.
func Display(v Value) string {
	switch t := v.(type) {
	case nil:
		return "()"
	case TextValue:
		return t.val
	case StrValue:
		return t.val
	case CharValue:
		return string(t.Val)
	case FloatValue:
		return t.display()
	default:
		return v.String()
	}
}

// TypeName returns a source-level type name for a value (i32, String, [i32; 4], ...)
func TypeName(v Value) string {
	switch t := v.(type) {
	case IntValue:
		return t.Kind.String()
	case FloatValue:
		return t.Kind.String()
	case BoolValue:
		return "bool"
	case CharValue:
		return "char"
	case TextValue:
		return "String"
	case StrValue:
		return "&str"
	case UnitValue:
		return "()"
	case TupleValue:
		s := "("
		for i, e := range t.elements {
			if i > 0 {
				s += ", "
			}
			s += TypeName(e)
		}
		return s + ")"
	case ArrayValue:
		if len(t.elements) == 0 {
			return "[_; 0]"
		}
		return "[" + TypeName(t.elements[0]) + "; " + itoa(len(t.elements)) + "]"
	case StructValue:
		return t.typ.Name
	case EnumValue:
		return t.typ.Name
	case RefValue:
		if t.Exclusive {
			return "&mut _"
		}
		return "&_"
	}
	return "?"
}

func itoa(n int) string {
	return NewInt(int64(n)).String()
}
