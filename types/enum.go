package types

// VariantDef declares one variant of an enum
type VariantDef struct {
	Name        string
	HasPayload  bool
	PayloadType string // declared payload type name; empty for generic payloads
}

// EnumType is a closed set of variants
type EnumType struct {
	Name     string
	Variants []VariantDef

	// Generic enums (Option, Result) are classified by their actual payload.
	// Declared enums are classified once, from their payload types.
	Generic  bool
	MoveOnly bool
}

// Variant looks up a variant definition by name
func (t *EnumType) Variant(name string) (VariantDef, bool) {
	for _, v := range t.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return VariantDef{}, false
}

// Predeclared enum types
var (
	OptionType = &EnumType{
		Name:    "Option",
		Generic: true,
		Variants: []VariantDef{
			{Name: "Some", HasPayload: true},
			{Name: "None"},
		},
	}
	ResultType = &EnumType{
		Name:    "Result",
		Generic: true,
		Variants: []VariantDef{
			{Name: "Ok", HasPayload: true},
			{Name: "Err", HasPayload: true},
		},
	}
)

// EnumValue is a variant tag plus optional payload
type EnumValue struct {
	typ     *EnumType
	variant string
	payload Value // nil when the variant carries nothing
}

// NewEnum creates an enum value
func NewEnum(typ *EnumType, variant string, payload Value) EnumValue {
	return EnumValue{typ: typ, variant: variant, payload: payload}
}

// Some wraps a value in Option::Some
func Some(v Value) EnumValue {
	return NewEnum(OptionType, "Some", v)
}

// None returns Option::None
func None() EnumValue {
	return NewEnum(OptionType, "None", nil)
}

// Success wraps a value in Result::Ok
func Success(v Value) EnumValue {
	return NewEnum(ResultType, "Ok", v)
}

// Failure wraps a value in Result::Err
func Failure(v Value) EnumValue {
	return NewEnum(ResultType, "Err", v)
}

// String returns the debug form: Variant1, Some(32)
func (e EnumValue) String() string {
	if e.payload == nil {
		return e.variant
	}
	return e.variant + "(" + e.payload.String() + ")"
}

// Type returns the type code
func (e EnumValue) Type() TypeCode {
	return TYPE_ENUM
}

// Equal compares enum type, tag and payload
func (e EnumValue) Equal(other Value) bool {
	o, ok := other.(EnumValue)
	if !ok || o.typ.Name != e.typ.Name || o.variant != e.variant {
		return false
	}
	if e.payload == nil || o.payload == nil {
		return e.payload == nil && o.payload == nil
	}
	return e.payload.Equal(o.payload)
}

// EnumType returns the enum's type
func (e EnumValue) EnumType() *EnumType {
	return e.typ
}

// Variant returns the variant tag
func (e EnumValue) Variant() string {
	return e.variant
}

// Payload returns the payload, or nil
func (e EnumValue) Payload() Value {
	return e.payload
}

// Is reports whether e is the given variant of the given enum
func (e EnumValue) Is(typ *EnumType, variant string) bool {
	return e.typ.Name == typ.Name && e.variant == variant
}
