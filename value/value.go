// Package value defines the canonical in-memory configuration tree.
//
// Every format adapter produces a Value, and the image compiler consumes one.
// Values are immutable once built: constructors copy nothing they don't own,
// and no mutating methods exist.
package value

import "math"

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	// KindInvalid represents an invalid kind (the zero Value).
	KindInvalid Kind = iota
	// KindNull represents a null value.
	KindNull
	// KindBool represents a boolean value.
	KindBool
	// KindInt represents an int64 value.
	KindInt
	// KindFloat represents a float64 value.
	KindFloat
	// KindString represents a string value.
	KindString
	// KindArray represents an ordered sequence of values.
	KindArray
	// KindObject represents a key/value mapping with insertion order preserved.
	KindObject
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

// Member is a single object entry. Objects keep their members in insertion
// order, so iteration over a compiled image is deterministic.
type Member struct {
	Key   string
	Value Value
}

// Value is a tagged variant over the configuration scalar and container types.
//
// The representation favors predictable, reflection-free access: exactly one
// payload field is meaningful for a given Kind.
type Value struct {
	kind Kind
	b    bool
	i64  int64
	f64  float64
	s    string
	a    []Value
	o    []Member
}

// Null returns a null Value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean Value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Int returns an int64 Value.
func Int(v int64) Value { return Value{kind: KindInt, i64: v} }

// Float returns a float64 Value.
func Float(v float64) Value { return Value{kind: KindFloat, f64: v} }

// String returns a string Value.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Array returns an array Value over the given elements.
// The slice is owned by the returned Value and must not be modified afterwards.
func Array(elems []Value) Value { return Value{kind: KindArray, a: elems} }

// Object returns an object Value over the given members.
//
// Duplicate keys collapse to a single member holding the last value, while the
// member keeps the position of its first occurrence.
func Object(members []Member) Value {
	seen := make(map[string]int, len(members))
	out := members[:0:len(members)]
	for _, m := range members {
		if i, ok := seen[m.Key]; ok {
			out[i].Value = m.Value
			continue
		}
		seen[m.Key] = len(out)
		out = append(out, m)
	}
	return Value{kind: KindObject, o: out}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// AsBool returns the boolean payload if Kind is KindBool.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsInt returns the int64 payload if Kind is KindInt.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i64, true
}

// AsFloat returns the float64 payload if Kind is KindFloat.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.f64, true
}

// AsString returns the string payload if Kind is KindString.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// Elems returns the array elements if Kind is KindArray.
// The returned slice must not be modified.
func (v Value) Elems() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.a, true
}

// Members returns the object members in insertion order if Kind is KindObject.
// The returned slice must not be modified.
func (v Value) Members() ([]Member, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.o, true
}

// Get returns the member value for key on an object Value.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	for _, m := range v.o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Len returns the number of elements for arrays, members for objects,
// and 0 for everything else.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.a)
	case KindObject:
		return len(v.o)
	default:
		return 0
	}
}

// Equal reports structural equality.
//
// Floats compare by bit pattern, so NaN equals NaN and -0.0 differs from 0.0.
// This is the equality the compile/decode round trip preserves.
func (v Value) Equal(w Value) bool {
	if v.kind != w.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == w.b
	case KindInt:
		return v.i64 == w.i64
	case KindFloat:
		return math.Float64bits(v.f64) == math.Float64bits(w.f64)
	case KindString:
		return v.s == w.s
	case KindArray:
		if len(v.a) != len(w.a) {
			return false
		}
		for i := range v.a {
			if !v.a[i].Equal(w.a[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.o) != len(w.o) {
			return false
		}
		for i := range v.o {
			if v.o[i].Key != w.o[i].Key || !v.o[i].Value.Equal(w.o[i].Value) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// Walk visits v and every descendant depth-first in document order.
// Return false from fn to stop the traversal. Walk has no side effects and
// can be restarted at any time.
func (v Value) Walk(fn func(Value) bool) bool {
	if !fn(v) {
		return false
	}
	switch v.kind {
	case KindArray:
		for _, e := range v.a {
			if !e.Walk(fn) {
				return false
			}
		}
	case KindObject:
		for _, m := range v.o {
			if !m.Value.Walk(fn) {
				return false
			}
		}
	}
	return true
}
