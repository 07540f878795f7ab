package binary

import "github.com/wasm-tools/wasi-preset-args/internal/leb128"

type byteReader interface {
	ReadByte() (byte, error)
}

func decodeUint32(r byteReader) (uint32, error)    { return leb128.DecodeUint32(r) }
func decodeInt32(r byteReader) (int32, error)      { return leb128.DecodeInt32(r) }
func decodeInt64(r byteReader) (int64, error)      { return leb128.DecodeInt64(r) }
func decodeBlockTypeRaw(r byteReader) (int64, error) {
	return leb128.DecodeInt33AsInt64(r)
}

func encodeUint32(buf []byte, v uint32) []byte { return leb128.EncodeUint32(buf, v) }
func encodeInt32(buf []byte, v int32) []byte   { return leb128.EncodeInt32(buf, v) }
func encodeInt64(buf []byte, v int64) []byte   { return leb128.EncodeInt64(buf, v) }
