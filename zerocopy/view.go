package zerocopy

import (
	"fmt"
	"iter"
	"strings"

	"github.com/hupe1980/snapconfig/image"
	"github.com/hupe1980/snapconfig/value"
)

// View is a borrowed handle to one node inside a mapped image.
//
// Views are cheap value types (a slice header and an offset); copy them
// freely, but never use one after its Session is closed. Accessors on a view
// whose bytes turn out to be malformed degrade to absent rather than fault.
type View struct {
	data []byte
	off  uint32
}

// TypeMismatchError is returned by typed extraction when the node's tag
// disagrees with the requested type.
type TypeMismatchError struct {
	Want value.Kind
	Got  value.Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("zerocopy: type mismatch: want %s, got %s", e.Want, e.Got)
}

// Valid reports whether the view points at a decodable node.
func (v View) Valid() bool {
	_, ok := image.TagAt(v.data, v.off)
	return ok
}

// Kind returns the node's type tag, or value.KindInvalid for a dead view.
func (v View) Kind() value.Kind {
	tag, ok := image.TagAt(v.data, v.off)
	if !ok {
		return value.KindInvalid
	}
	switch tag {
	case image.TagNull:
		return value.KindNull
	case image.TagBool:
		return value.KindBool
	case image.TagInt:
		return value.KindInt
	case image.TagFloat:
		return value.KindFloat
	case image.TagString:
		return value.KindString
	case image.TagArray:
		return value.KindArray
	case image.TagObject:
		return value.KindObject
	default:
		return value.KindInvalid
	}
}

// AsBool extracts a boolean scalar.
func (v View) AsBool() (bool, error) {
	if v.data == nil {
		return false, ErrClosed
	}
	b, ok := image.BoolAt(v.data, v.off)
	if !ok {
		return false, &TypeMismatchError{Want: value.KindBool, Got: v.Kind()}
	}
	return b, nil
}

// AsInt extracts an int64 scalar.
func (v View) AsInt() (int64, error) {
	if v.data == nil {
		return 0, ErrClosed
	}
	i, ok := image.IntAt(v.data, v.off)
	if !ok {
		return 0, &TypeMismatchError{Want: value.KindInt, Got: v.Kind()}
	}
	return i, nil
}

// AsFloat extracts a float64 scalar.
func (v View) AsFloat() (float64, error) {
	if v.data == nil {
		return 0, ErrClosed
	}
	f, ok := image.FloatAt(v.data, v.off)
	if !ok {
		return 0, &TypeMismatchError{Want: value.KindFloat, Got: v.Kind()}
	}
	return f, nil
}

// AsString extracts a string scalar.
// The result aliases the mapped bytes; do not retain it past the Session.
func (v View) AsString() (string, error) {
	if v.data == nil {
		return "", ErrClosed
	}
	s, ok := image.StringPayloadAt(v.data, v.off)
	if !ok {
		return "", &TypeMismatchError{Want: value.KindString, Got: v.Kind()}
	}
	return s, nil
}

// Len returns the element count for arrays, the member count for objects,
// and 0 for scalars.
func (v View) Len() int {
	n, ok := image.SeqLenAt(v.data, v.off)
	if !ok {
		return 0
	}
	return n
}

// Get resolves a member of an object view by key.
//
// Lookup is a linear scan over the pair table in stored insertion order;
// config objects are small and the scan touches only key records, never
// child nodes. A missing key (or a non-object view) yields ok == false.
func (v View) Get(key string) (View, bool) {
	n, ok := image.SeqLenAt(v.data, v.off)
	if !ok {
		return View{}, false
	}
	for i := 0; i < n; i++ {
		keyOff, valOff, ok := image.ObjectPairAt(v.data, v.off, i)
		if !ok {
			return View{}, false
		}
		k, ok := image.StringAt(v.data, keyOff)
		if !ok {
			return View{}, false
		}
		if k == key {
			return View{data: v.data, off: valOff}, true
		}
	}
	return View{}, false
}

// Contains reports whether an object view has the given key.
func (v View) Contains(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// Keys returns the object's keys in stored insertion order.
// The strings alias the mapped bytes.
func (v View) Keys() []string {
	if v.Kind() != value.KindObject {
		return nil
	}
	n := v.Len()
	keys := make([]string, 0, n)
	for i := 0; i < n; i++ {
		keyOff, _, ok := image.ObjectPairAt(v.data, v.off, i)
		if !ok {
			break
		}
		k, ok := image.StringAt(v.data, keyOff)
		if !ok {
			break
		}
		keys = append(keys, k)
	}
	return keys
}

// All returns a lazy iterator over (key, value) pairs of an object view in
// stored insertion order. The sequence is restartable: each range loop walks
// the pair table from the start. Non-object views yield nothing.
func (v View) All() iter.Seq2[string, View] {
	return func(yield func(string, View) bool) {
		if v.Kind() != value.KindObject {
			return
		}
		n := v.Len()
		for i := 0; i < n; i++ {
			keyOff, valOff, ok := image.ObjectPairAt(v.data, v.off, i)
			if !ok {
				return
			}
			k, ok := image.StringAt(v.data, keyOff)
			if !ok {
				return
			}
			if !yield(k, View{data: v.data, off: valOff}) {
				return
			}
		}
	}
}

// Index resolves element i of an array view. Out-of-range indices yield
// ok == false, never an error.
func (v View) Index(i int) (View, bool) {
	off, ok := image.ArrayElemAt(v.data, v.off, i)
	if !ok {
		return View{}, false
	}
	return View{data: v.data, off: off}, true
}

// Values returns a lazy, restartable iterator over the elements of an array
// view. Non-array views yield nothing.
func (v View) Values() iter.Seq[View] {
	return func(yield func(View) bool) {
		if v.Kind() != value.KindArray {
			return
		}
		n := v.Len()
		for i := 0; i < n; i++ {
			off, ok := image.ArrayElemAt(v.data, v.off, i)
			if !ok {
				return
			}
			if !yield(View{data: v.data, off: off}) {
				return
			}
		}
	}
}

// GetPath resolves a dot-separated key path ("database.host") by sequential
// Get calls, short-circuiting to absent on the first missing segment.
//
// Segments never index arrays: an array anywhere on the path makes the whole
// path absent. Reaching into arrays is only possible through explicit Index
// calls, which keeps the path syntax unambiguous.
func (v View) GetPath(path string) (View, bool) {
	cur := v
	for seg := range strings.SplitSeq(path, ".") {
		next, ok := cur.Get(seg)
		if !ok {
			return View{}, false
		}
		cur = next
	}
	return cur, true
}

// ToTree materializes an owned value tree for the subtree under v.
//
// This is the one accessor that pays full allocation cost; it exists as an
// escape hatch for callers that need data outliving the Session.
func (v View) ToTree() (value.Value, error) {
	if v.data == nil {
		return value.Value{}, ErrClosed
	}
	tag, ok := image.TagAt(v.data, v.off)
	if !ok {
		return value.Value{}, image.ErrCorrupt
	}
	switch tag {
	case image.TagNull:
		return value.Null(), nil
	case image.TagBool:
		b, err := v.AsBool()
		if err != nil {
			return value.Value{}, image.ErrCorrupt
		}
		return value.Bool(b), nil
	case image.TagInt:
		i, err := v.AsInt()
		if err != nil {
			return value.Value{}, image.ErrCorrupt
		}
		return value.Int(i), nil
	case image.TagFloat:
		f, err := v.AsFloat()
		if err != nil {
			return value.Value{}, image.ErrCorrupt
		}
		return value.Float(f), nil
	case image.TagString:
		s, err := v.AsString()
		if err != nil {
			return value.Value{}, image.ErrCorrupt
		}
		return value.String(strings.Clone(s)), nil
	case image.TagArray:
		n := v.Len()
		elems := make([]value.Value, 0, n)
		for i := 0; i < n; i++ {
			// Children precede their parent in a well-formed image; a
			// forward reference is a cycle or corruption, never valid.
			elemOff, ok := image.ArrayElemAt(v.data, v.off, i)
			if !ok || elemOff >= v.off {
				return value.Value{}, image.ErrCorrupt
			}
			e, err := (View{data: v.data, off: elemOff}).ToTree()
			if err != nil {
				return value.Value{}, err
			}
			elems = append(elems, e)
		}
		return value.Array(elems), nil
	case image.TagObject:
		n := v.Len()
		members := make([]value.Member, 0, n)
		for i := 0; i < n; i++ {
			keyOff, valOff, ok := image.ObjectPairAt(v.data, v.off, i)
			if !ok || keyOff >= v.off || valOff >= v.off {
				return value.Value{}, image.ErrCorrupt
			}
			k, ok := image.StringAt(v.data, keyOff)
			if !ok {
				return value.Value{}, image.ErrCorrupt
			}
			mv, err := (View{data: v.data, off: valOff}).ToTree()
			if err != nil {
				return value.Value{}, err
			}
			members = append(members, value.Member{Key: strings.Clone(k), Value: mv})
		}
		return value.Object(members), nil
	default:
		return value.Value{}, image.ErrCorrupt
	}
}
