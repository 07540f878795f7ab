// Package leb128 encodes and decodes the LEB128 variable-length integers
// used throughout the WebAssembly binary format: unsigned for indices and
// counts, signed for constants and block types.
package leb128

import (
	"fmt"
	"io"
)

// DecodeUint32 reads an unsigned LEB128 value from r, validating that it
// fits in 32 bits and is not needlessly padded past 5 bytes.
func DecodeUint32(r io.ByteReader) (uint32, error) {
	v, err := decodeUint64(r, 32)
	return uint32(v), err
}

// DecodeUint64 reads an unsigned LEB128 value from r.
func DecodeUint64(r io.ByteReader) (uint64, error) {
	return decodeUint64(r, 64)
}

func decodeUint64(r io.ByteReader, bits int) (uint64, error) {
	var result uint64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("reading uleb128: %w", err)
		}
		if shift >= uint(bits) {
			return 0, fmt.Errorf("uleb128 overflows %d bits", bits)
		}
		if rem := uint(bits) - shift; rem < 7 && (b&0x7f)>>rem != 0 {
			return 0, fmt.Errorf("uleb128 overflows %d bits", bits)
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}

// DecodeInt32 reads a signed LEB128 value from r, validating that it fits
// in 32 bits.
func DecodeInt32(r io.ByteReader) (int32, error) {
	v, err := decodeInt64(r, 32)
	return int32(v), err
}

// DecodeInt64 reads a signed LEB128 value from r.
func DecodeInt64(r io.ByteReader) (int64, error) {
	return decodeInt64(r, 64)
}

// DecodeInt33AsInt64 reads a signed LEB128 value encoded with up to 33
// significant bits, the shape the binary format uses for a block type
// immediate. It is returned widened to int64.
func DecodeInt33AsInt64(r io.ByteReader) (int64, error) {
	return decodeInt64(r, 33)
}

func decodeInt64(r io.ByteReader, bits int) (int64, error) {
	var result int64
	var shift uint
	var b byte
	var err error
	for {
		b, err = r.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("reading sleb128: %w", err)
		}
		if shift >= uint(bits) {
			return 0, fmt.Errorf("sleb128 overflows %d bits", bits)
		}
		if rem := uint(bits) - shift; rem < 7 {
			// The last byte's bits above the value's width must all
			// repeat its sign bit.
			upper := (b & 0x7f) >> (rem - 1)
			if upper != 0 && upper != 0x7f>>(rem-1) {
				return 0, fmt.Errorf("sleb128 overflows %d bits", bits)
			}
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	if shift < uint(bits) && b&0x40 != 0 {
		result |= -1 << shift
	}
	return result, nil
}

// EncodeUint32 appends the ULEB128 encoding of v to buf.
func EncodeUint32(buf []byte, v uint32) []byte {
	return EncodeUint64(buf, uint64(v))
}

// EncodeUint64 appends the ULEB128 encoding of v to buf.
func EncodeUint64(buf []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			buf = append(buf, b|0x80)
		} else {
			buf = append(buf, b)
			return buf
		}
	}
}

// EncodeInt32 appends the SLEB128 encoding of v to buf.
func EncodeInt32(buf []byte, v int32) []byte {
	return EncodeInt64(buf, int64(v))
}

// EncodeInt64 appends the SLEB128 encoding of v to buf.
func EncodeInt64(buf []byte, v int64) []byte {
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			more = false
		} else {
			b |= 0x80
		}
		buf = append(buf, b)
	}
	return buf
}
