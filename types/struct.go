package types

import "strings"

// StructType is a declared record type
type StructType struct {
	Name   string
	Fields []string
}

// FieldIndex returns the position of a named field, or -1
func (t *StructType) FieldIndex(name string) int {
	for i, f := range t.Fields {
		if f == name {
			return i
		}
	}
	return -1
}

// StructValue is an instance of a StructType with fields in declaration order
type StructValue struct {
	typ    *StructType
	fields []Value
}

// NewStruct creates a struct value; fields must follow typ.Fields order
func NewStruct(typ *StructType, fields []Value) StructValue {
	return StructValue{typ: typ, fields: fields}
}

// String returns the debug form: Point { x: 5, y: true }
func (s StructValue) String() string {
	if len(s.fields) == 0 {
		return s.typ.Name
	}
	parts := make([]string, len(s.fields))
	for i, v := range s.fields {
		parts[i] = s.typ.Fields[i] + ": " + v.String()
	}
	return s.typ.Name + " { " + strings.Join(parts, ", ") + " }"
}

// Type returns the type code
func (s StructValue) Type() TypeCode {
	return TYPE_STRUCT
}

// Equal compares type name and fields
func (s StructValue) Equal(other Value) bool {
	o, ok := other.(StructValue)
	return ok && o.typ.Name == s.typ.Name && equalValues(s.fields, o.fields)
}

// StructType returns the declared type
func (s StructValue) StructType() *StructType {
	return s.typ
}

// Field returns a field by name
func (s StructValue) Field(name string) (Value, bool) {
	i := s.typ.FieldIndex(name)
	if i < 0 {
		return nil, false
	}
	return s.fields[i], true
}

// Fields returns the field values in declaration order; callers must not modify it
func (s StructValue) Fields() []Value {
	return s.fields
}

// With returns a copy with field i replaced
func (s StructValue) With(i int, v Value) StructValue {
	return StructValue{typ: s.typ, fields: replaceAt(s.fields, i, v)}
}
