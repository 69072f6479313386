package image

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// Low-level node access. Every function takes the full image byte slice plus
// an absolute offset and bounds-checks before touching memory, so a corrupt
// or truncated image degrades to "absent" instead of a fault. The zero-copy
// reader and the tree decoder are both built on these.

// TagAt returns the type tag of the node at off.
func TagAt(data []byte, off uint32) (byte, bool) {
	if uint64(off) >= uint64(len(data)) {
		return 0, false
	}
	return data[off], true
}

// BoolAt returns the payload of a Bool node at off.
func BoolAt(data []byte, off uint32) (bool, bool) {
	if uint64(off)+2 > uint64(len(data)) || data[off] != TagBool {
		return false, false
	}
	return data[off+1] != 0, true
}

// IntAt returns the payload of an Int node at off.
func IntAt(data []byte, off uint32) (int64, bool) {
	if uint64(off)+9 > uint64(len(data)) || data[off] != TagInt {
		return 0, false
	}
	return int64(binary.LittleEndian.Uint64(data[off+1:])), true
}

// FloatAt returns the payload of a Float node at off.
func FloatAt(data []byte, off uint32) (float64, bool) {
	if uint64(off)+9 > uint64(len(data)) || data[off] != TagFloat {
		return 0, false
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(data[off+1:])), true
}

// StringAt returns the length-prefixed string record at off.
//
// The returned string aliases the image bytes; it is valid only as long as
// the backing mapping and must not be retained past it.
func StringAt(data []byte, off uint32) (string, bool) {
	if uint64(off)+4 > uint64(len(data)) {
		return "", false
	}
	n := binary.LittleEndian.Uint32(data[off:])
	start := uint64(off) + 4
	if start+uint64(n) > uint64(len(data)) {
		return "", false
	}
	if n == 0 {
		return "", true
	}
	return unsafe.String(&data[start], int(n)), true
}

// StringPayloadAt resolves the record referenced by a String node at off.
// The returned string aliases the image bytes.
func StringPayloadAt(data []byte, off uint32) (string, bool) {
	if uint64(off)+5 > uint64(len(data)) || data[off] != TagString {
		return "", false
	}
	return StringAt(data, binary.LittleEndian.Uint32(data[off+1:]))
}

// SeqLenAt returns the element count of an Array or member count of an
// Object node at off.
func SeqLenAt(data []byte, off uint32) (int, bool) {
	if uint64(off)+5 > uint64(len(data)) {
		return 0, false
	}
	if t := data[off]; t != TagArray && t != TagObject {
		return 0, false
	}
	n := binary.LittleEndian.Uint32(data[off+1:])
	return int(n), true
}

// ArrayElemAt returns the offset of element i of an Array node at off.
func ArrayElemAt(data []byte, off uint32, i int) (uint32, bool) {
	if uint64(off)+5 > uint64(len(data)) || data[off] != TagArray {
		return 0, false
	}
	n := binary.LittleEndian.Uint32(data[off+1:])
	if i < 0 || uint32(i) >= n {
		return 0, false
	}
	pos := uint64(off) + 5 + uint64(i)*4
	if pos+4 > uint64(len(data)) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(data[pos:]), true
}

// ObjectPairAt returns the key record offset and value node offset of member
// i of an Object node at off. Members are stored in insertion order.
func ObjectPairAt(data []byte, off uint32, i int) (keyOff, valOff uint32, ok bool) {
	if uint64(off)+5 > uint64(len(data)) || data[off] != TagObject {
		return 0, 0, false
	}
	n := binary.LittleEndian.Uint32(data[off+1:])
	if i < 0 || uint32(i) >= n {
		return 0, 0, false
	}
	pos := uint64(off) + 5 + uint64(i)*8
	if pos+8 > uint64(len(data)) {
		return 0, 0, false
	}
	return binary.LittleEndian.Uint32(data[pos:]), binary.LittleEndian.Uint32(data[pos+4:]), true
}
