package image

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/snapconfig/value"
)

func sampleTree() value.Value {
	return value.Object([]value.Member{
		{Key: "database", Value: value.Object([]value.Member{
			{Key: "host", Value: value.String("localhost")},
			{Key: "port", Value: value.Int(5432)},
		})},
		{Key: "debug", Value: value.Bool(true)},
		{Key: "ratio", Value: value.Float(0.75)},
		{Key: "tags", Value: value.Array([]value.Value{
			value.String("a"), value.String("b"),
		})},
		{Key: "nothing", Value: value.Null()},
	})
}

func TestRoundTrip(t *testing.T) {
	orig := sampleTree()

	img, err := Compile(orig, Fingerprint{Size: 123, MtimeNS: 456})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(img), HeaderSize)

	decoded, err := Decode(img)
	require.NoError(t, err)
	assert.True(t, orig.Equal(decoded), "decoded tree differs from original")
}

func TestRoundTripScalarBitPatterns(t *testing.T) {
	// NaN payload bits and negative zero must survive exactly.
	nanBits := uint64(0x7ff8000000000abc)
	orig := value.Array([]value.Value{
		value.Float(math.Float64frombits(nanBits)),
		value.Float(math.Copysign(0, -1)),
		value.Int(math.MinInt64),
		value.Int(math.MaxInt64),
	})

	img, err := Compile(orig, Fingerprint{})
	require.NoError(t, err)

	decoded, err := Decode(img)
	require.NoError(t, err)

	elems, ok := decoded.Elems()
	require.True(t, ok)
	require.Len(t, elems, 4)

	f0, _ := elems[0].AsFloat()
	assert.Equal(t, nanBits, math.Float64bits(f0))
	f1, _ := elems[1].AsFloat()
	assert.Equal(t, math.Float64bits(math.Copysign(0, -1)), math.Float64bits(f1))
	i2, _ := elems[2].AsInt()
	assert.Equal(t, int64(math.MinInt64), i2)
	i3, _ := elems[3].AsInt()
	assert.Equal(t, int64(math.MaxInt64), i3)
}

func TestRoundTripEmptyContainers(t *testing.T) {
	for _, orig := range []value.Value{
		value.Object(nil),
		value.Array(nil),
		value.Null(),
		value.String(""),
	} {
		img, err := Compile(orig, Fingerprint{})
		require.NoError(t, err)
		decoded, err := Decode(img)
		require.NoError(t, err)
		assert.True(t, orig.Equal(decoded))
	}
}

func TestCompileDeterministic(t *testing.T) {
	a, err := Compile(sampleTree(), Fingerprint{Size: 1, MtimeNS: 2})
	require.NoError(t, err)
	b, err := Compile(sampleTree(), Fingerprint{Size: 1, MtimeNS: 2})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestStringDeduplication(t *testing.T) {
	// 100 copies of the same long string should share one record.
	long := "this string is long enough that duplication would be obvious"
	elems := make([]value.Value, 100)
	for i := range elems {
		elems[i] = value.String(long)
	}
	img, err := Compile(value.Array(elems), Fingerprint{})
	require.NoError(t, err)
	assert.Less(t, len(img), HeaderSize+2*len(long)+100*16)

	decoded, err := Decode(img)
	require.NoError(t, err)
	got, ok := decoded.Elems()
	require.True(t, ok)
	require.Len(t, got, 100)
	s, _ := got[99].AsString()
	assert.Equal(t, long, s)
}

func TestHeaderFingerprint(t *testing.T) {
	fp := Fingerprint{Size: 77, MtimeNS: 123456789, Hash: 0xdeadbeef}
	img, err := Compile(value.Null(), fp)
	require.NoError(t, err)

	h, err := ParseHeader(img)
	require.NoError(t, err)
	assert.Equal(t, fp, h.Source)
	assert.True(t, h.HasSourceHash())
	assert.Equal(t, uint64(len(img)), h.TotalLen)

	// Without a hash the flag stays clear.
	img2, err := Compile(value.Null(), Fingerprint{Size: 1})
	require.NoError(t, err)
	h2, err := ParseHeader(img2)
	require.NoError(t, err)
	assert.False(t, h2.HasSourceHash())
}

func TestParseHeaderRejectsBadImages(t *testing.T) {
	img, err := Compile(sampleTree(), Fingerprint{})
	require.NoError(t, err)

	t.Run("truncated below header", func(t *testing.T) {
		_, err := ParseHeader(img[:HeaderSize-1])
		assert.ErrorIs(t, err, ErrTruncated)
	})

	t.Run("truncated payload", func(t *testing.T) {
		_, err := ParseHeader(img[:len(img)-1])
		assert.ErrorIs(t, err, ErrTruncated)
	})

	t.Run("bad magic", func(t *testing.T) {
		bad := append([]byte(nil), img...)
		bad[0] ^= 0xff
		_, err := ParseHeader(bad)
		assert.ErrorIs(t, err, ErrInvalidHeader)
	})

	t.Run("newer version fails closed", func(t *testing.T) {
		bad := append([]byte(nil), img...)
		binary.LittleEndian.PutUint32(bad[4:8], Version+1)
		_, err := ParseHeader(bad)
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
	})

	t.Run("corrupted payload fails checksum", func(t *testing.T) {
		bad := append([]byte(nil), img...)
		bad[HeaderSize] ^= 0xff
		h, err := ParseHeader(bad)
		require.NoError(t, err)
		assert.ErrorIs(t, VerifyChecksum(h, bad), ErrChecksum)
	})

	t.Run("intact image passes checksum", func(t *testing.T) {
		h, err := ParseHeader(img)
		require.NoError(t, err)
		assert.NoError(t, VerifyChecksum(h, img))
	})
}

func TestDecodeHeaderPrefixOnly(t *testing.T) {
	img, err := Compile(sampleTree(), Fingerprint{Size: 9})
	require.NoError(t, err)

	// DecodeHeader must accept just the 64 header bytes.
	h, err := DecodeHeader(img[:HeaderSize])
	require.NoError(t, err)
	assert.Equal(t, uint64(9), h.Source.Size)
	assert.Equal(t, uint64(len(img)), h.TotalLen)
}

func TestNodeAccessorsRejectOutOfBounds(t *testing.T) {
	img, err := Compile(sampleTree(), Fingerprint{})
	require.NoError(t, err)

	_, ok := TagAt(img, uint32(len(img)))
	assert.False(t, ok)
	_, ok = IntAt(img, uint32(len(img)-2))
	assert.False(t, ok)
	_, ok = StringAt(img, uint32(len(img)-2))
	assert.False(t, ok)
	_, _, ok = ObjectPairAt(img, uint32(len(img)-3), 0)
	assert.False(t, ok)
}

func TestDecodeCorruptImage(t *testing.T) {
	// A header that points the root at a forward-referencing node table is
	// rejected instead of looping.
	img, err := Compile(value.Object([]value.Member{
		{Key: "k", Value: value.Int(1)},
	}), Fingerprint{})
	require.NoError(t, err)

	// Rewrite the value offset of the only pair to point at the object
	// itself, creating a cycle.
	h, err := ParseHeader(img)
	require.NoError(t, err)
	root := uint32(h.RootOff)
	pairPos := root + 5 + 4 // tag + count + keyOff
	binary.LittleEndian.PutUint32(img[pairPos:], root)

	_, err = decodeNode(img, root)
	assert.ErrorIs(t, err, ErrCorrupt)
}
