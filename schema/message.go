package schema

import (
	"github.com/jackrun/bdicore/action"
	"github.com/jackrun/bdicore/ident"
)

// Message is an ordered dictionary of named, typed field values carried over
// the bus and stored in belief contexts (spec §3). Field order is preserved
// so wire encoding and log rendering are stable.
type Message struct {
	SchemaName ident.Ident
	order      []string
	values     map[string]Value
}

// NewMessage constructs an empty Message bound to the given schema name.
func NewMessage(schemaName ident.Ident) *Message {
	return &Message{SchemaName: schemaName, values: make(map[string]Value)}
}

// Set assigns field to value, appending field to the order on first write.
func (m *Message) Set(field string, value Value) {
	if _, exists := m.values[field]; !exists {
		m.order = append(m.order, field)
	}
	m.values[field] = value
}

// Get returns the value stored under field and whether it was present.
func (m *Message) Get(field string) (Value, bool) {
	v, ok := m.values[field]
	return v, ok
}

// Fields returns field names in insertion order.
func (m *Message) Fields() []string {
	return append([]string(nil), m.order...)
}

// Len returns the number of fields set on the message.
func (m *Message) Len() int { return len(m.order) }

// Clone returns a deep copy of m, matching the value-copy semantics
// Messages carry across belief contexts and bus hops (spec §3).
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	c := &Message{
		SchemaName: m.SchemaName,
		order:      append([]string(nil), m.order...),
		values:     make(map[string]Value, len(m.values)),
	}
	for k, v := range m.values {
		c.values[k] = v.Clone()
	}
	return c
}

// Equal reports whether m and other carry the same schema name and the same
// field values, regardless of insertion order.
func (m *Message) Equal(other *Message) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.SchemaName != other.SchemaName || len(m.values) != len(other.values) {
		return false
	}
	for k, v := range m.values {
		ov, ok := other.values[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Bounds implements action.BoundedReply by reading the conventional
// boundedness fields a world-query action reply sets: "returned", "total",
// "truncated", and "refinement_hint". A reply that never set these reports
// itself unbounded, covering its full field count (spec §4.8).
func (m *Message) Bounds() action.Bounds {
	b := action.Bounds{Returned: m.Len()}
	if v, ok := m.Get("returned"); ok {
		b.Returned = int(v.Int)
	}
	if v, ok := m.Get("total"); ok {
		total := int(v.Int)
		b.Total = &total
	}
	if v, ok := m.Get("truncated"); ok {
		b.Truncated = v.Bool
	}
	if v, ok := m.Get("refinement_hint"); ok {
		b.RefinementHint = v.Str
	}
	return b
}

// ToMap renders the message as a generic map suitable for JSON Schema
// verification or JSON encoding, recursively expanding nested messages and
// vectors.
func (m *Message) ToMap() map[string]any {
	out := make(map[string]any, len(m.order))
	for _, f := range m.order {
		out[f] = valueToAny(m.values[f])
	}
	return out
}

func valueToAny(v Value) any {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return v.Int
	case KindUint8, KindUint16, KindUint32, KindUint64:
		return v.Uint
	case KindFloat32:
		return v.Float32
	case KindFloat64:
		return v.Float64
	case KindVec2:
		return map[string]any{"x": v.Vec2.X, "y": v.Vec2.Y}
	case KindString:
		return v.Str
	case KindVector:
		out := make([]any, len(v.Vector))
		for i, e := range v.Vector {
			out[i] = valueToAny(e)
		}
		return out
	case KindMessage:
		if v.Msg == nil {
			return nil
		}
		return v.Msg.ToMap()
	default:
		return nil
	}
}
