package binary

import (
	"bufio"
	"fmt"

	"github.com/wasm-tools/wasi-preset-args/internal/wasm"
)

// decodeConstExpr reads the single instruction allowed in a global
// initializer or element/data segment offset, followed by its terminating
// end opcode.
func decodeConstExpr(r *bufio.Reader) (wasm.ConstExpr, error) {
	op, err := r.ReadByte()
	if err != nil {
		return wasm.ConstExpr{}, fmt.Errorf("reading const expr opcode: %w", err)
	}
	var instr wasm.Instr
	switch op {
	case wasm.OpI32Const:
		v, err := decodeInt32(r)
		if err != nil {
			return wasm.ConstExpr{}, err
		}
		instr = &wasm.I32Const{Value: v}
	case wasm.OpI64Const:
		v, err := decodeInt64(r)
		if err != nil {
			return wasm.ConstExpr{}, err
		}
		instr = &wasm.I64Const{Value: v}
	case wasm.OpF32Const:
		bits, err := readU32LE(r)
		if err != nil {
			return wasm.ConstExpr{}, err
		}
		instr = &wasm.F32Const{Bits: bits}
	case wasm.OpF64Const:
		bits, err := readU64LE(r)
		if err != nil {
			return wasm.ConstExpr{}, err
		}
		instr = &wasm.F64Const{Bits: bits}
	case wasm.OpGlobalGet:
		idx, err := decodeUint32(r)
		if err != nil {
			return wasm.ConstExpr{}, err
		}
		instr = &wasm.GlobalGet{Global: idx}
	default:
		return wasm.ConstExpr{}, fmt.Errorf("unsupported const expr opcode %#x", op)
	}
	end, err := r.ReadByte()
	if err != nil {
		return wasm.ConstExpr{}, fmt.Errorf("reading const expr end: %w", err)
	}
	if end != wasm.OpEnd {
		return wasm.ConstExpr{}, fmt.Errorf("const expr missing end opcode, got %#x", end)
	}
	return wasm.ConstExpr{Instr: instr}, nil
}

func encodeConstExpr(buf []byte, c wasm.ConstExpr) []byte {
	switch i := c.Instr.(type) {
	case *wasm.I32Const:
		buf = append(buf, wasm.OpI32Const)
		buf = encodeInt32(buf, i.Value)
	case *wasm.I64Const:
		buf = append(buf, wasm.OpI64Const)
		buf = encodeInt64(buf, i.Value)
	case *wasm.F32Const:
		buf = append(buf, wasm.OpF32Const)
		buf = appendU32LE(buf, i.Bits)
	case *wasm.F64Const:
		buf = append(buf, wasm.OpF64Const)
		buf = appendU64LE(buf, i.Bits)
	case *wasm.GlobalGet:
		buf = append(buf, wasm.OpGlobalGet)
		buf = encodeUint32(buf, i.Global)
	default:
		panic(fmt.Sprintf("unsupported const expr instr %T", c.Instr))
	}
	return append(buf, wasm.OpEnd)
}

func readU32LE(r *bufio.Reader) (uint32, error) {
	var b [4]byte
	for i := range b {
		c, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		b[i] = c
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

func readU64LE(r *bufio.Reader) (uint64, error) {
	lo, err := readU32LE(r)
	if err != nil {
		return 0, err
	}
	hi, err := readU32LE(r)
	if err != nil {
		return 0, err
	}
	return uint64(lo) | uint64(hi)<<32, nil
}

func appendU32LE(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func appendU64LE(buf []byte, v uint64) []byte {
	buf = appendU32LE(buf, uint32(v))
	return appendU32LE(buf, uint32(v>>32))
}
