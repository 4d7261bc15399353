// Package value defines the closed set of marshaled value kinds and the
// tagged variant used for hook-chain arguments and return values.
package value

import (
	"fmt"
	"math"
)

// Kind identifies the semantic type of a marshaled value.
// Every argument slot and return cell carries exactly one kind: argument
// kinds are fixed when the hook descriptor is defined, the return kind by
// the descriptor's declared return type. Operations with a mismatched kind
// are rejected, never coerced.
type Kind uint8

const (
	// KindInvalid is the zero Kind and matches nothing.
	KindInvalid Kind = iota
	// KindInt is a signed integer value.
	KindInt
	// KindFloat is a floating point value. Integers and floats share one
	// raw 64-bit word; the bits are stored as-is, never converted.
	KindFloat
	// KindString is a text value owned by the invocation's scratch arena.
	KindString
	// KindClass is a non-owning reference to a class-like native object.
	KindClass
	// KindEntity is a non-owning reference to a raw entity object.
	KindEntity
	// KindData is a non-owning reference to attached entity data.
	KindData
)

// String returns the kind name used in diagnostics.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindClass:
		return "class"
	case KindEntity:
		return "entity"
	case KindData:
		return "data"
	default:
		return "invalid"
	}
}

// Valid reports whether k is a member of the closed kind set.
func (k Kind) Valid() bool {
	return k >= KindInt && k <= KindData
}

// Opaque reports whether k is one of the opaque native reference kinds.
func (k Kind) Opaque() bool {
	return k == KindClass || k == KindEntity || k == KindData
}

// Ref is a non-owning reference to a host-side object. The engine never
// inspects its contents; the catalog's resolver translates between refs and
// the small-integer indices scripts see.
type Ref any

// Value is a tagged variant holding one marshaled value.
// The zero Value has KindInvalid and matches no operation.
type Value struct {
	kind Kind
	word uint64
	str  string
	ref  Ref
}

// Int returns an integer value.
func Int(n int64) Value {
	return Value{kind: KindInt, word: uint64(n)}
}

// Float returns a float value.
func Float(f float64) Value {
	return Value{kind: KindFloat, word: math.Float64bits(f)}
}

// String returns a string value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// ClassRef returns a class object reference value.
func ClassRef(r Ref) Value {
	return Value{kind: KindClass, ref: r}
}

// EntityRef returns an entity reference value.
func EntityRef(r Ref) Value {
	return Value{kind: KindEntity, ref: r}
}

// DataRef returns an attached-data reference value.
func DataRef(r Ref) Value {
	return Value{kind: KindData, ref: r}
}

// NewRef returns an opaque reference value of the given kind.
// It panics if k is not an opaque kind; callers validate kinds first.
func NewRef(k Kind, r Ref) Value {
	if !k.Opaque() {
		panic(fmt.Sprintf("value: NewRef with non-opaque kind %s", k))
	}
	return Value{kind: k, ref: r}
}

// Zero returns the defined default value for a kind. It is the fallback a
// dispatch yields when no return value was ever produced.
func Zero(k Kind) Value {
	switch k {
	case KindInt, KindFloat:
		return Value{kind: k}
	case KindString:
		return Value{kind: k}
	case KindClass, KindEntity, KindData:
		return Value{kind: k}
	default:
		return Value{}
	}
}

// Kind returns the value's kind tag.
func (v Value) Kind() Kind {
	return v.kind
}

// AsInt returns the integer payload. ok is false on a kind mismatch.
func (v Value) AsInt() (n int64, ok bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return int64(v.word), true
}

// AsFloat returns the float payload. ok is false on a kind mismatch.
func (v Value) AsFloat() (f float64, ok bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return math.Float64frombits(v.word), true
}

// AsString returns the string payload. ok is false on a kind mismatch.
func (v Value) AsString() (s string, ok bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsRef returns the opaque reference payload. ok is false unless the value
// holds one of the opaque kinds.
func (v Value) AsRef() (r Ref, ok bool) {
	if !v.kind.Opaque() {
		return nil, false
	}
	return v.ref, true
}

// Word returns the raw 64-bit word shared by integer and float values.
// Only meaningful for KindInt and KindFloat.
func (v Value) Word() uint64 {
	return v.word
}

// String implements fmt.Stringer for diagnostics.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return fmt.Sprintf("int(%d)", int64(v.word))
	case KindFloat:
		return fmt.Sprintf("float(%g)", math.Float64frombits(v.word))
	case KindString:
		return fmt.Sprintf("string(%q)", v.str)
	case KindClass, KindEntity, KindData:
		return fmt.Sprintf("%s(ref)", v.kind)
	default:
		return "invalid"
	}
}
