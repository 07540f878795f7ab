// Package binary decodes and encodes wasm.Module values to and from the
// WebAssembly 1.0 binary format, with relaxed validation: malformed but
// structurally decodable sections are tolerated rather than rejected,
// since some producer toolchains emit modules that only fully link
// later.
package binary

import (
	"bufio"
	"fmt"
	"io"

	"github.com/wasm-tools/wasi-preset-args/internal/wasm"
)

var wasmMagic = [4]byte{0x00, 0x61, 0x73, 0x6d}

const wasmVersion = uint32(1)

func decodeValueType(r *bufio.Reader) (wasm.ValueType, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("reading value type: %w", err)
	}
	switch b {
	case wasm.ValueTypeI32, wasm.ValueTypeI64, wasm.ValueTypeF32, wasm.ValueTypeF64,
		wasm.ValueTypeExternref, wasm.ValueTypeFuncref:
		return b, nil
	}
	return 0, fmt.Errorf("invalid value type byte %#x", b)
}

func decodeFunctionType(r *bufio.Reader) (*wasm.FunctionType, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("reading functype tag: %w", err)
	}
	if tag != 0x60 {
		return nil, fmt.Errorf("invalid functype tag %#x", tag)
	}
	params, err := decodeValueTypes(r)
	if err != nil {
		return nil, fmt.Errorf("reading functype params: %w", err)
	}
	results, err := decodeValueTypes(r)
	if err != nil {
		return nil, fmt.Errorf("reading functype results: %w", err)
	}
	return &wasm.FunctionType{Params: params, Results: results}, nil
}

func decodeValueTypes(r *bufio.Reader) ([]wasm.ValueType, error) {
	n, err := decodeUint32(r)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]wasm.ValueType, n)
	for i := range out {
		v, err := decodeValueType(r)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func encodeFunctionType(buf []byte, ft *wasm.FunctionType) []byte {
	buf = append(buf, 0x60)
	buf = encodeUint32(buf, uint32(len(ft.Params)))
	buf = append(buf, ft.Params...)
	buf = encodeUint32(buf, uint32(len(ft.Results)))
	buf = append(buf, ft.Results...)
	return buf
}

// readFull reads exactly n bytes, the way module parsing reads fixed-size
// blobs such as data segment contents.
func readFull(r io.Reader, n uint32) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("reading %d bytes: %w", n, err)
	}
	return buf, nil
}
