package binary

import (
	"bufio"
	"fmt"

	"github.com/wasm-tools/wasi-preset-args/internal/wasm"
)

func decodeName(r *bufio.Reader) (string, error) {
	n, err := decodeUint32(r)
	if err != nil {
		return "", fmt.Errorf("reading name length: %w", err)
	}
	b, err := readFull(r, n)
	if err != nil {
		return "", fmt.Errorf("reading name: %w", err)
	}
	return string(b), nil
}

func encodeName(buf []byte, s string) []byte {
	buf = encodeUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

func decodeImport(r *bufio.Reader) (*wasm.Import, error) {
	mod, err := decodeName(r)
	if err != nil {
		return nil, fmt.Errorf("reading import module: %w", err)
	}
	name, err := decodeName(r)
	if err != nil {
		return nil, fmt.Errorf("reading import name: %w", err)
	}
	kind, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("reading import kind: %w", err)
	}
	imp := &wasm.Import{Module: mod, Name: name, Type: kind}
	switch kind {
	case wasm.ExternTypeFunc:
		idx, err := decodeUint32(r)
		if err != nil {
			return nil, fmt.Errorf("reading import functype index: %w", err)
		}
		imp.DescFunc = idx
	case wasm.ExternTypeTable:
		t, err := decodeTableType(r)
		if err != nil {
			return nil, fmt.Errorf("reading import table: %w", err)
		}
		imp.DescTable = t
	case wasm.ExternTypeMemory:
		lim, err := decodeLimits(r)
		if err != nil {
			return nil, fmt.Errorf("reading import memory: %w", err)
		}
		imp.DescMem = lim
	case wasm.ExternTypeGlobal:
		g, err := decodeGlobalType(r)
		if err != nil {
			return nil, fmt.Errorf("reading import global: %w", err)
		}
		imp.DescGlobal = g
	default:
		return nil, fmt.Errorf("invalid import kind %#x", kind)
	}
	return imp, nil
}

func encodeImport(buf []byte, imp *wasm.Import) []byte {
	buf = encodeName(buf, imp.Module)
	buf = encodeName(buf, imp.Name)
	buf = append(buf, imp.Type)
	switch imp.Type {
	case wasm.ExternTypeFunc:
		buf = encodeUint32(buf, imp.DescFunc)
	case wasm.ExternTypeTable:
		buf = encodeTableType(buf, imp.DescTable)
	case wasm.ExternTypeMemory:
		buf = encodeLimits(buf, imp.DescMem)
	case wasm.ExternTypeGlobal:
		buf = encodeGlobalType(buf, imp.DescGlobal)
	}
	return buf
}
