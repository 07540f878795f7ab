package leb128

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeUint32(t *testing.T) {
	for _, v := range []uint32{0, 1, 127, 128, 16384, math.MaxUint32} {
		enc := EncodeUint32(nil, v)
		got, err := DecodeUint32(bytes.NewReader(enc))
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestEncodeDecodeUint64(t *testing.T) {
	for _, v := range []uint64{0, 1, 1 << 40, math.MaxUint64} {
		enc := EncodeUint64(nil, v)
		got, err := DecodeUint64(bytes.NewReader(enc))
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestEncodeDecodeInt32(t *testing.T) {
	for _, v := range []int32{0, -1, -4, 1, 624485, -624485, math.MaxInt32, math.MinInt32} {
		enc := EncodeInt32(nil, v)
		got, err := DecodeInt32(bytes.NewReader(enc))
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestEncodeDecodeInt64(t *testing.T) {
	for _, v := range []int64{0, -1, 1 << 40, -(1 << 40), math.MaxInt64, math.MinInt64} {
		enc := EncodeInt64(nil, v)
		got, err := DecodeInt64(bytes.NewReader(enc))
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestEncodeInt32KnownVectors(t *testing.T) {
	for _, c := range []struct {
		input    int32
		expected []byte
	}{
		{input: -624485, expected: []byte{0x9b, 0xf1, 0x59}},
		{input: -1, expected: []byte{0x7f}},
		{input: 0, expected: []byte{0x00}},
		{input: 624485, expected: []byte{0xe5, 0x8e, 0x26}},
	} {
		require.Equal(t, c.expected, EncodeInt32(nil, c.input))
	}
}
