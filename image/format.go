// Package image defines the versioned binary layout of a compiled
// configuration cache and implements the compiler that produces it.
//
// An image is fully self-contained: every reference inside it is a byte
// offset relative to the start of the image, so the bytes can be written to
// disk, memory-mapped by any number of processes, and navigated without
// pointer fixup or a full-file scan.
package image

import (
	"encoding/binary"
	"errors"

	"github.com/cespare/xxhash/v2"
)

const (
	// Magic identifies snapconfig cache images (ASCII "SNPC").
	Magic = 0x534E5043
	// Version is the current image format version (v1.0.0).
	// Readers must fail closed on any other value.
	Version = 0x00010000

	// HeaderSize is the fixed byte length of the image header.
	HeaderSize = 64

	// FlagSourceHash marks a header whose SourceHash field carries an
	// xxhash64 of the source file content.
	FlagSourceHash = 1 << 0
)

// Node type tags. One byte at the start of every encoded node.
const (
	TagNull   = 0
	TagBool   = 1
	TagInt    = 2
	TagFloat  = 3
	TagString = 4
	TagArray  = 5
	TagObject = 6
)

var (
	// ErrInvalidHeader indicates bad magic bytes or a malformed header.
	ErrInvalidHeader = errors.New("image: invalid header")
	// ErrUnsupportedVersion indicates an unknown or newer format version.
	ErrUnsupportedVersion = errors.New("image: unsupported version")
	// ErrTruncated indicates the byte sequence is shorter than the header claims.
	ErrTruncated = errors.New("image: truncated")
	// ErrChecksum indicates the image payload does not match the header checksum.
	ErrChecksum = errors.New("image: checksum mismatch")
	// ErrImageTooLarge indicates the compiled image would exceed the 32-bit
	// offset addressing width.
	ErrImageTooLarge = errors.New("image: too large for 32-bit offsets")
	// ErrCorrupt indicates an out-of-bounds or malformed node encoding.
	ErrCorrupt = errors.New("image: corrupt node encoding")
)

// Fingerprint describes the source file an image was compiled from.
// It is embedded in the header and drives the cache freshness check.
type Fingerprint struct {
	// Size is the source file length in bytes.
	Size uint64
	// MtimeNS is the source modification time in unix nanoseconds.
	MtimeNS int64
	// Hash is an optional xxhash64 of the source content; zero when unset.
	Hash uint64
}

// Header is the fixed-size descriptor at the start of every image.
//
// All fields sit at fixed offsets so validation is O(1):
//
//	off  0  magic     uint32
//	off  4  version   uint32
//	off  8  flags     uint32
//	off 12  reserved  uint32
//	off 16  totalLen  uint64
//	off 24  rootOff   uint64
//	off 32  srcSize   uint64
//	off 40  srcMtime  int64
//	off 48  srcHash   uint64
//	off 56  checksum  uint64 (xxhash64 of image[HeaderSize:totalLen])
type Header struct {
	Flags    uint32
	TotalLen uint64
	RootOff  uint64
	Source   Fingerprint
	Checksum uint64
}

// HasSourceHash reports whether the source fingerprint includes a content hash.
func (h Header) HasSourceHash() bool { return h.Flags&FlagSourceHash != 0 }

func (h Header) appendTo(buf []byte) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, Magic)
	buf = binary.LittleEndian.AppendUint32(buf, Version)
	buf = binary.LittleEndian.AppendUint32(buf, h.Flags)
	buf = binary.LittleEndian.AppendUint32(buf, 0) // reserved
	buf = binary.LittleEndian.AppendUint64(buf, h.TotalLen)
	buf = binary.LittleEndian.AppendUint64(buf, h.RootOff)
	buf = binary.LittleEndian.AppendUint64(buf, h.Source.Size)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(h.Source.MtimeNS))
	buf = binary.LittleEndian.AppendUint64(buf, h.Source.Hash)
	buf = binary.LittleEndian.AppendUint64(buf, h.Checksum)
	return buf
}

// DecodeHeader validates the fixed 64-byte header prefix and returns it.
//
// It checks magic, version, and that the root offset lands inside the claimed
// total length. TotalLen is not compared against the length of the supplied
// slice, so the cache store can judge freshness from just the header bytes;
// full-image callers use ParseHeader.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, ErrTruncated
	}
	if binary.LittleEndian.Uint32(data[0:4]) != Magic {
		return Header{}, ErrInvalidHeader
	}
	if binary.LittleEndian.Uint32(data[4:8]) != Version {
		return Header{}, ErrUnsupportedVersion
	}
	h := Header{
		Flags:    binary.LittleEndian.Uint32(data[8:12]),
		TotalLen: binary.LittleEndian.Uint64(data[16:24]),
		RootOff:  binary.LittleEndian.Uint64(data[24:32]),
		Source: Fingerprint{
			Size:    binary.LittleEndian.Uint64(data[32:40]),
			MtimeNS: int64(binary.LittleEndian.Uint64(data[40:48])),
			Hash:    binary.LittleEndian.Uint64(data[48:56]),
		},
		Checksum: binary.LittleEndian.Uint64(data[56:64]),
	}
	if h.TotalLen < HeaderSize {
		return Header{}, ErrTruncated
	}
	if h.RootOff < HeaderSize || h.RootOff >= h.TotalLen {
		return Header{}, ErrInvalidHeader
	}
	return h, nil
}

// ParseHeader validates the header of a complete in-memory image,
// additionally requiring the claimed total length to fit within data.
// It does NOT hash the payload; call VerifyChecksum for that.
func ParseHeader(data []byte) (Header, error) {
	h, err := DecodeHeader(data)
	if err != nil {
		return Header{}, err
	}
	if h.TotalLen > uint64(len(data)) {
		return Header{}, ErrTruncated
	}
	return h, nil
}

// VerifyChecksum hashes the image payload and compares it to the header.
func VerifyChecksum(h Header, data []byte) error {
	if h.TotalLen > uint64(len(data)) {
		return ErrTruncated
	}
	if xxhash.Sum64(data[HeaderSize:h.TotalLen]) != h.Checksum {
		return ErrChecksum
	}
	return nil
}
