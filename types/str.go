package types

import (
	"fmt"
	"strings"
)

// TextValue represents owned, growable text. It is Move-only.
type TextValue struct {
	val string
}

// NewText creates a new owned text value
func NewText(s string) TextValue {
	return TextValue{val: s}
}

// String returns the quoted debug form
func (s TextValue) String() string {
	return `"` + escapeText(s.val, '"') + `"`
}

// Type returns the type code
func (s TextValue) Type() TypeCode {
	return TYPE_TEXT
}

// Equal compares contents; owned text equals a literal with the same contents
func (s TextValue) Equal(other Value) bool {
	if o, ok := TextOf(other); ok {
		return s.val == o
	}
	return false
}

// Value returns the internal string
func (s TextValue) Value() string {
	return s.val
}

// StrValue represents a static string literal. It is Copy.
type StrValue struct {
	val string
}

// NewStr creates a new string literal value
func NewStr(s string) StrValue {
	return StrValue{val: s}
}

// String returns the quoted debug form
func (s StrValue) String() string {
	return `"` + escapeText(s.val, '"') + `"`
}

// Type returns the type code
func (s StrValue) Type() TypeCode {
	return TYPE_STR
}

// Equal compares contents
func (s StrValue) Equal(other Value) bool {
	if o, ok := TextOf(other); ok {
		return s.val == o
	}
	return false
}

// Value returns the internal string
func (s StrValue) Value() string {
	return s.val
}

// TextOf extracts the contents of a Text or Str value
func TextOf(v Value) (string, bool) {
	switch t := v.(type) {
	case TextValue:
		return t.val, true
	case StrValue:
		return t.val, true
	}
	return "", false
}

// escapeText escapes control characters, backslashes and the given quote
func escapeText(s string, quote rune) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == quote || r == '\\':
			b.WriteRune('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\r':
			b.WriteString(`\r`)
		case r < 32 || r == 127:
			b.WriteString(fmt.Sprintf(`\u{%x}`, r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
