package binary

import (
	"bufio"
	"fmt"

	"github.com/wasm-tools/wasi-preset-args/internal/wasm"
)

// decodeElementSegment supports the two active-segment encodings (flags 0
// and 2) that producer toolchains emit for a function table populated
// with direct function indices; the call-graph only ever needs to
// observe and patch such entries, so passive/declarative segments and
// expression-initialized (reftype) segments are out of scope.
func decodeElementSegment(r *bufio.Reader) (*wasm.ElementSegment, error) {
	flag, err := decodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("reading element flag: %w", err)
	}

	seg := &wasm.ElementSegment{}
	switch flag {
	case 0:
		seg.TableIndex = 0
		off, err := decodeConstExpr(r)
		if err != nil {
			return nil, fmt.Errorf("reading element offset: %w", err)
		}
		seg.Offset = off
	case 2:
		tableIdx, err := decodeUint32(r)
		if err != nil {
			return nil, fmt.Errorf("reading element table index: %w", err)
		}
		seg.TableIndex = tableIdx
		off, err := decodeConstExpr(r)
		if err != nil {
			return nil, fmt.Errorf("reading element offset: %w", err)
		}
		seg.Offset = off
		if _, err := r.ReadByte(); err != nil { // elemkind, always 0x00 (funcref)
			return nil, fmt.Errorf("reading element kind: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported element segment flag %d", flag)
	}

	n, err := decodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("reading element vector length: %w", err)
	}
	seg.Init = make([]*wasm.Index, n)
	for i := range seg.Init {
		idx, err := decodeUint32(r)
		if err != nil {
			return nil, fmt.Errorf("reading element func index: %w", err)
		}
		v := idx
		seg.Init[i] = &v
	}
	return seg, nil
}

func encodeElementSegment(buf []byte, seg *wasm.ElementSegment) []byte {
	if seg.TableIndex == 0 {
		buf = encodeUint32(buf, 0)
		buf = encodeConstExpr(buf, seg.Offset)
	} else {
		buf = encodeUint32(buf, 2)
		buf = encodeUint32(buf, seg.TableIndex)
		buf = encodeConstExpr(buf, seg.Offset)
		buf = append(buf, 0x00)
	}
	buf = encodeUint32(buf, uint32(len(seg.Init)))
	for _, idx := range seg.Init {
		if idx == nil {
			panic("encoding a nil element entry is not supported")
		}
		buf = encodeUint32(buf, *idx)
	}
	return buf
}
