package image

import (
	"strings"

	"github.com/hupe1980/snapconfig/value"
)

// Decode materializes the full value tree stored in an image.
//
// It is the inverse of Compile and the one path that pays full allocation
// cost; mapped readers should prefer the zero-copy views and only fall back
// to Decode when an owned tree is required.
func Decode(data []byte) (value.Value, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return value.Value{}, err
	}
	if err := VerifyChecksum(h, data); err != nil {
		return value.Value{}, err
	}
	return decodeNode(data, uint32(h.RootOff))
}

// decodeNode rebuilds the node at off. Children are always encoded before
// their parent, so every referenced offset must be strictly smaller than off;
// violating that marks the image corrupt and also rules out reference cycles.
func decodeNode(data []byte, off uint32) (value.Value, error) {
	tag, ok := TagAt(data, off)
	if !ok {
		return value.Value{}, ErrCorrupt
	}
	switch tag {
	case TagNull:
		return value.Null(), nil

	case TagBool:
		b, ok := BoolAt(data, off)
		if !ok {
			return value.Value{}, ErrCorrupt
		}
		return value.Bool(b), nil

	case TagInt:
		i, ok := IntAt(data, off)
		if !ok {
			return value.Value{}, ErrCorrupt
		}
		return value.Int(i), nil

	case TagFloat:
		f, ok := FloatAt(data, off)
		if !ok {
			return value.Value{}, ErrCorrupt
		}
		return value.Float(f), nil

	case TagString:
		s, ok := StringPayloadAt(data, off)
		if !ok {
			return value.Value{}, ErrCorrupt
		}
		// Copy out of the image so the tree owns its strings.
		return value.String(strings.Clone(s)), nil

	case TagArray:
		n, ok := SeqLenAt(data, off)
		if !ok {
			return value.Value{}, ErrCorrupt
		}
		elems := make([]value.Value, n)
		for i := 0; i < n; i++ {
			elemOff, ok := ArrayElemAt(data, off, i)
			if !ok || elemOff >= off {
				return value.Value{}, ErrCorrupt
			}
			e, err := decodeNode(data, elemOff)
			if err != nil {
				return value.Value{}, err
			}
			elems[i] = e
		}
		return value.Array(elems), nil

	case TagObject:
		n, ok := SeqLenAt(data, off)
		if !ok {
			return value.Value{}, ErrCorrupt
		}
		members := make([]value.Member, n)
		for i := 0; i < n; i++ {
			keyOff, valOff, ok := ObjectPairAt(data, off, i)
			if !ok || keyOff >= off || valOff >= off {
				return value.Value{}, ErrCorrupt
			}
			key, ok := StringAt(data, keyOff)
			if !ok {
				return value.Value{}, ErrCorrupt
			}
			v, err := decodeNode(data, valOff)
			if err != nil {
				return value.Value{}, err
			}
			members[i] = value.Member{Key: strings.Clone(key), Value: v}
		}
		return value.Object(members), nil

	default:
		return value.Value{}, ErrCorrupt
	}
}
