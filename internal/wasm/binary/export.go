package binary

import (
	"bufio"
	"fmt"

	"github.com/wasm-tools/wasi-preset-args/internal/wasm"
)

func decodeExport(r *bufio.Reader) (*wasm.Export, error) {
	name, err := decodeName(r)
	if err != nil {
		return nil, fmt.Errorf("reading export name: %w", err)
	}
	kind, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("reading export kind: %w", err)
	}
	idx, err := decodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("reading export index: %w", err)
	}
	return &wasm.Export{Name: name, Type: kind, Index: idx}, nil
}

func encodeExport(buf []byte, e *wasm.Export) []byte {
	buf = encodeName(buf, e.Name)
	buf = append(buf, e.Type)
	return encodeUint32(buf, e.Index)
}
