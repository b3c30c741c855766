// Package schema defines the typed field dictionary used by Messages: scalar
// and nested value types, field schemas, and JSON-Schema-backed verification
// (spec §3, §4.7, §4.8).
package schema

import "github.com/jackrun/bdicore/ident"

// Kind enumerates the scalar, vector, and nested-message field types a
// Message field may hold (spec §3).
type Kind int

// Field kinds, stable for wire encoding.
const (
	KindBool Kind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindVec2
	KindString
	KindVector // vector of scalars; ElemKind on the Field describes the element type
	KindMessage
)

// Vec2 is a 2D vector value.
type Vec2 struct {
	X, Y float32
}

// Value is a tagged union holding exactly one typed field value. Messages
// are value-copied on write (spec §3), so Value and Message are always
// passed/stored by value or deep-copied, never shared by pointer across
// belief contexts.
type Value struct {
	Kind Kind

	Bool    bool
	Int     int64
	Uint    uint64
	Float32 float32
	Float64 float64
	Vec2    Vec2
	Str     string
	Vector  []Value
	Msg     *Message
}

// BoolValue constructs a bool-kinded Value.
func BoolValue(v bool) Value { return Value{Kind: KindBool, Bool: v} }

// IntValue constructs a signed 64-bit Value; narrower widths reuse Int.
func IntValue(kind Kind, v int64) Value { return Value{Kind: kind, Int: v} }

// UintValue constructs an unsigned Value; narrower widths reuse Uint.
func UintValue(kind Kind, v uint64) Value { return Value{Kind: kind, Uint: v} }

// Float32Value constructs a float32-kinded Value.
func Float32Value(v float32) Value { return Value{Kind: KindFloat32, Float32: v} }

// Float64Value constructs a float64-kinded Value.
func Float64Value(v float64) Value { return Value{Kind: KindFloat64, Float64: v} }

// Vec2Value constructs a 2D-vector Value.
func Vec2Value(v Vec2) Value { return Value{Kind: KindVec2, Vec2: v} }

// StringValue constructs a string-kinded Value.
func StringValue(v string) Value { return Value{Kind: KindString, Str: v} }

// VectorValue constructs a vector-of-scalars Value.
func VectorValue(vs []Value) Value { return Value{Kind: KindVector, Vector: append([]Value(nil), vs...)} }

// MessageValue constructs a nested-message Value. The message is deep-copied
// so subsequent mutation of msg does not alias the stored Value.
func MessageValue(msg *Message) Value { return Value{Kind: KindMessage, Msg: msg.Clone()} }

// Clone returns a deep copy of v so callers can mutate the result without
// aliasing v's nested structures.
func (v Value) Clone() Value {
	c := v
	if v.Vector != nil {
		c.Vector = make([]Value, len(v.Vector))
		for i, e := range v.Vector {
			c.Vector[i] = e.Clone()
		}
	}
	if v.Msg != nil {
		c.Msg = v.Msg.Clone()
	}
	return c
}

// Equal reports whether v and other hold the same kind and value,
// recursively for vectors and nested messages.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindBool:
		return v.Bool == other.Bool
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return v.Int == other.Int
	case KindUint8, KindUint16, KindUint32, KindUint64:
		return v.Uint == other.Uint
	case KindFloat32:
		return v.Float32 == other.Float32
	case KindFloat64:
		return v.Float64 == other.Float64
	case KindVec2:
		return v.Vec2 == other.Vec2
	case KindString:
		return v.Str == other.Str
	case KindVector:
		if len(v.Vector) != len(other.Vector) {
			return false
		}
		for i := range v.Vector {
			if !v.Vector[i].Equal(other.Vector[i]) {
				return false
			}
		}
		return true
	case KindMessage:
		if v.Msg == nil || other.Msg == nil {
			return v.Msg == other.Msg
		}
		return v.Msg.Equal(other.Msg)
	default:
		return false
	}
}

// Name re-exports the shared identifier type for field/schema names so
// callers importing schema do not also need ident for simple field work.
type Name = ident.Ident
