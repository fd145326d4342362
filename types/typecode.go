package types

// TypeCode identifies the variant of a Value
type TypeCode int

const (
	TYPE_INT TypeCode = iota
	TYPE_FLOAT
	TYPE_BOOL
	TYPE_CHAR
	TYPE_TEXT
	TYPE_STR
	TYPE_TUPLE
	TYPE_ARRAY
	TYPE_UNIT
	TYPE_STRUCT
	TYPE_ENUM
	TYPE_REF
)

// String returns the name of the type code
func (t TypeCode) String() string {
	switch t {
	case TYPE_INT:
		return "INT"
	case TYPE_FLOAT:
		return "FLOAT"
	case TYPE_BOOL:
		return "BOOL"
	case TYPE_CHAR:
		return "CHAR"
	case TYPE_TEXT:
		return "TEXT"
	case TYPE_STR:
		return "STR"
	case TYPE_TUPLE:
		return "TUPLE"
	case TYPE_ARRAY:
		return "ARRAY"
	case TYPE_UNIT:
		return "UNIT"
	case TYPE_STRUCT:
		return "STRUCT"
	case TYPE_ENUM:
		return "ENUM"
	case TYPE_REF:
		return "REF"
	default:
		return "UNKNOWN"
	}
}

// TypeFromString converts a name like "TEXT" back to a TypeCode
func TypeFromString(s string) (TypeCode, bool) {
	for t := TYPE_INT; t <= TYPE_REF; t++ {
		if t.String() == s {
			return t, true
		}
	}
	return TYPE_UNIT, false
}
