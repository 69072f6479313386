package image

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/hupe1980/snapconfig/value"
)

// maxOffset is the largest byte offset addressable by the u32 references
// inside an image.
const maxOffset = math.MaxUint32

// Compile serializes root into a complete cache image.
//
// The encoder runs a single post-order pass: children (and string records) are
// appended before the node that references them, so parent offset tables only
// ever point backwards and no patch pass is needed. Equal strings share one
// record via a dedup map; readers must not rely on offset uniqueness either
// way.
//
// src describes the source file the tree was parsed from and is embedded in
// the header for the freshness check. Pass the zero Fingerprint when the tree
// did not come from a file.
func Compile(root value.Value, src Fingerprint) ([]byte, error) {
	c := &compiler{
		buf:     make([]byte, HeaderSize, HeaderSize+256),
		strings: make(map[string]uint32),
	}
	rootOff, err := c.encode(root)
	if err != nil {
		return nil, err
	}

	h := Header{
		TotalLen: uint64(len(c.buf)),
		RootOff:  uint64(rootOff),
		Source:   src,
		Checksum: xxhash.Sum64(c.buf[HeaderSize:]),
	}
	if src.Hash != 0 {
		h.Flags |= FlagSourceHash
	}
	hdr := h.appendTo(make([]byte, 0, HeaderSize))
	copy(c.buf[:HeaderSize], hdr)
	return c.buf, nil
}

type compiler struct {
	buf     []byte
	strings map[string]uint32 // string payload -> record offset
}

// offset returns the current write position, or ErrImageTooLarge once the
// buffer has outgrown the 32-bit addressing width.
func (c *compiler) offset() (uint32, error) {
	if len(c.buf) > maxOffset {
		return 0, ErrImageTooLarge
	}
	return uint32(len(c.buf)), nil
}

// internString appends a length-prefixed string record and returns its offset.
// Previously seen payloads reuse their existing record.
func (c *compiler) internString(s string) (uint32, error) {
	if off, ok := c.strings[s]; ok {
		return off, nil
	}
	off, err := c.offset()
	if err != nil {
		return 0, err
	}
	if uint64(len(s)) > maxOffset {
		return 0, ErrImageTooLarge
	}
	c.buf = binary.LittleEndian.AppendUint32(c.buf, uint32(len(s)))
	c.buf = append(c.buf, s...)
	c.strings[s] = off
	return off, nil
}

func (c *compiler) encode(v value.Value) (uint32, error) {
	switch v.Kind() {
	case value.KindNull:
		off, err := c.offset()
		if err != nil {
			return 0, err
		}
		c.buf = append(c.buf, TagNull)
		return off, nil

	case value.KindBool:
		b, _ := v.AsBool()
		off, err := c.offset()
		if err != nil {
			return 0, err
		}
		payload := byte(0)
		if b {
			payload = 1
		}
		c.buf = append(c.buf, TagBool, payload)
		return off, nil

	case value.KindInt:
		i, _ := v.AsInt()
		off, err := c.offset()
		if err != nil {
			return 0, err
		}
		c.buf = append(c.buf, TagInt)
		c.buf = binary.LittleEndian.AppendUint64(c.buf, uint64(i))
		return off, nil

	case value.KindFloat:
		f, _ := v.AsFloat()
		off, err := c.offset()
		if err != nil {
			return 0, err
		}
		c.buf = append(c.buf, TagFloat)
		c.buf = binary.LittleEndian.AppendUint64(c.buf, math.Float64bits(f))
		return off, nil

	case value.KindString:
		s, _ := v.AsString()
		strOff, err := c.internString(s)
		if err != nil {
			return 0, err
		}
		off, err := c.offset()
		if err != nil {
			return 0, err
		}
		c.buf = append(c.buf, TagString)
		c.buf = binary.LittleEndian.AppendUint32(c.buf, strOff)
		return off, nil

	case value.KindArray:
		elems, _ := v.Elems()
		offs := make([]uint32, len(elems))
		for i, e := range elems {
			o, err := c.encode(e)
			if err != nil {
				return 0, err
			}
			offs[i] = o
		}
		off, err := c.offset()
		if err != nil {
			return 0, err
		}
		c.buf = append(c.buf, TagArray)
		c.buf = binary.LittleEndian.AppendUint32(c.buf, uint32(len(elems)))
		for _, o := range offs {
			c.buf = binary.LittleEndian.AppendUint32(c.buf, o)
		}
		return off, nil

	case value.KindObject:
		members, _ := v.Members()
		type pair struct{ key, val uint32 }
		pairs := make([]pair, len(members))
		for i, m := range members {
			keyOff, err := c.internString(m.Key)
			if err != nil {
				return 0, err
			}
			valOff, err := c.encode(m.Value)
			if err != nil {
				return 0, err
			}
			pairs[i] = pair{key: keyOff, val: valOff}
		}
		off, err := c.offset()
		if err != nil {
			return 0, err
		}
		c.buf = append(c.buf, TagObject)
		c.buf = binary.LittleEndian.AppendUint32(c.buf, uint32(len(pairs)))
		for _, p := range pairs {
			c.buf = binary.LittleEndian.AppendUint32(c.buf, p.key)
			c.buf = binary.LittleEndian.AppendUint32(c.buf, p.val)
		}
		return off, nil

	default:
		// The zero Value compiles as null rather than failing; format
		// adapters never produce it.
		off, err := c.offset()
		if err != nil {
			return 0, err
		}
		c.buf = append(c.buf, TagNull)
		return off, nil
	}
}
