package types

// BoolValue represents a boolean
type BoolValue struct {
	Val bool
}

// Type returns the type code for booleans
func (b BoolValue) Type() TypeCode {
	return TYPE_BOOL
}

// String returns the literal representation
func (b BoolValue) String() string {
	if b.Val {
		return "true"
	}
	return "false"
}

// Equal checks deep equality
func (b BoolValue) Equal(other Value) bool {
	o, ok := other.(BoolValue)
	return ok && b.Val == o.Val
}

// NewBool creates a new BoolValue
func NewBool(val bool) BoolValue {
	return BoolValue{Val: val}
}

// CharValue represents a single Unicode scalar value
type CharValue struct {
	Val rune
}

// NewChar creates a new CharValue
func NewChar(r rune) CharValue {
	return CharValue{Val: r}
}

// Type returns the type code for characters
func (c CharValue) Type() TypeCode {
	return TYPE_CHAR
}

// String returns the quoted debug form: 'A'
func (c CharValue) String() string {
	if c.Val == '\'' {
		return `'\''`
	}
	return "'" + escapeText(string(c.Val), '\'') + "'"
}

// Equal checks deep equality
func (c CharValue) Equal(other Value) bool {
	o, ok := other.(CharValue)
	return ok && c.Val == o.Val
}

// UnitValue is the empty tuple ()
type UnitValue struct{}

// Unit is the single unit value
var Unit = UnitValue{}

// Type returns the type code for unit
func (UnitValue) Type() TypeCode {
	return TYPE_UNIT
}

// String returns "()"
func (UnitValue) String() string {
	return "()"
}

// Equal checks deep equality
func (UnitValue) Equal(other Value) bool {
	_, ok := other.(UnitValue)
	return ok
}
