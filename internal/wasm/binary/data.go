package binary

import (
	"bufio"
	"fmt"

	"github.com/wasm-tools/wasi-preset-args/internal/wasm"
)

// decodeDataSegment supports active data segments (flags 0 and 2); the
// transform never reads or writes a passive segment (flag 1), and data
// segments must always come out byte-identical regardless.
func decodeDataSegment(r *bufio.Reader) (*wasm.DataSegment, error) {
	flag, err := decodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("reading data flag: %w", err)
	}

	seg := &wasm.DataSegment{}
	switch flag {
	case 0:
		seg.MemoryIndex = 0
		off, err := decodeConstExpr(r)
		if err != nil {
			return nil, fmt.Errorf("reading data offset: %w", err)
		}
		seg.Offset = off
	case 2:
		memIdx, err := decodeUint32(r)
		if err != nil {
			return nil, fmt.Errorf("reading data memory index: %w", err)
		}
		seg.MemoryIndex = memIdx
		off, err := decodeConstExpr(r)
		if err != nil {
			return nil, fmt.Errorf("reading data offset: %w", err)
		}
		seg.Offset = off
	default:
		return nil, fmt.Errorf("unsupported data segment flag %d", flag)
	}

	n, err := decodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("reading data length: %w", err)
	}
	init, err := readFull(r, n)
	if err != nil {
		return nil, fmt.Errorf("reading data bytes: %w", err)
	}
	seg.Init = init
	return seg, nil
}

func encodeDataSegment(buf []byte, seg *wasm.DataSegment) []byte {
	if seg.MemoryIndex == 0 {
		buf = encodeUint32(buf, 0)
		buf = encodeConstExpr(buf, seg.Offset)
	} else {
		buf = encodeUint32(buf, 2)
		buf = encodeUint32(buf, seg.MemoryIndex)
		buf = encodeConstExpr(buf, seg.Offset)
	}
	buf = encodeUint32(buf, uint32(len(seg.Init)))
	return append(buf, seg.Init...)
}
