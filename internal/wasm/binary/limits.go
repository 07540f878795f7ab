package binary

import (
	"bufio"
	"fmt"

	"github.com/wasm-tools/wasi-preset-args/internal/wasm"
)

func decodeLimits(r *bufio.Reader) (*wasm.LimitsType, error) {
	flag, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("reading limits flag: %w", err)
	}
	min, err := decodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("reading limits min: %w", err)
	}
	lim := &wasm.LimitsType{Min: min}
	if flag == 1 {
		max, err := decodeUint32(r)
		if err != nil {
			return nil, fmt.Errorf("reading limits max: %w", err)
		}
		lim.Max = &max
	}
	return lim, nil
}

func encodeLimits(buf []byte, lim *wasm.LimitsType) []byte {
	if lim.Max != nil {
		buf = append(buf, 1)
		buf = encodeUint32(buf, lim.Min)
		buf = encodeUint32(buf, *lim.Max)
	} else {
		buf = append(buf, 0)
		buf = encodeUint32(buf, lim.Min)
	}
	return buf
}

func decodeTableType(r *bufio.Reader) (*wasm.TableType, error) {
	elem, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("reading table elemtype: %w", err)
	}
	if elem != wasm.ValueTypeFuncref && elem != wasm.ValueTypeExternref {
		return nil, fmt.Errorf("invalid table elemtype %#x", elem)
	}
	lim, err := decodeLimits(r)
	if err != nil {
		return nil, fmt.Errorf("reading table limits: %w", err)
	}
	return &wasm.TableType{ElemType: elem, Limit: lim}, nil
}

func encodeTableType(buf []byte, t *wasm.TableType) []byte {
	buf = append(buf, t.ElemType)
	buf = encodeLimits(buf, t.Limit)
	return buf
}

func decodeMemoryType(r *bufio.Reader) (*wasm.MemoryType, error) {
	lim, err := decodeLimits(r)
	if err != nil {
		return nil, fmt.Errorf("reading memory limits: %w", err)
	}
	return &wasm.MemoryType{Min: lim.Min, Max: lim.Max}, nil
}

func encodeMemoryType(buf []byte, m *wasm.MemoryType) []byte {
	return encodeLimits(buf, &wasm.LimitsType{Min: m.Min, Max: m.Max})
}

func decodeGlobalType(r *bufio.Reader) (*wasm.GlobalType, error) {
	vt, err := decodeValueType(r)
	if err != nil {
		return nil, fmt.Errorf("reading global valtype: %w", err)
	}
	mut, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("reading global mutability: %w", err)
	}
	return &wasm.GlobalType{ValType: vt, Mutable: mut == 1}, nil
}

func encodeGlobalType(buf []byte, g *wasm.GlobalType) []byte {
	buf = append(buf, g.ValType)
	if g.Mutable {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	return buf
}
