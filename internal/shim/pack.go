package shim

import "github.com/wasm-tools/wasi-preset-args/internal/wasm"

// EmitImmediateStores renders data into the module's linear memory as a
// sequence of store instructions carrying the bytes as immediate
// constants, addressed at baseLocal + baseOffset + (running position).
// Chunk widths are tried greedily widest first (8, 4, 2, 1 bytes) as a
// code-size optimization, not a correctness requirement; storing one
// byte at a time would produce an equally correct, merely larger,
// module.
func EmitImmediateStores(baseLocal wasm.Index, baseOffset uint32, data []byte) []wasm.Instr {
	var out []wasm.Instr
	pos := 0
	for pos < len(data) {
		remaining := len(data) - pos
		switch {
		case remaining >= 8:
			v := le64(data[pos : pos+8])
			out = append(out,
				&wasm.LocalGet{Local: baseLocal},
				&wasm.I64Const{Value: int64(v)},
				&wasm.Store{Op: wasm.OpI64Store, Align: 1, Offset: baseOffset + uint32(pos)},
			)
			pos += 8
		case remaining >= 4:
			v := le32(data[pos : pos+4])
			out = append(out,
				&wasm.LocalGet{Local: baseLocal},
				&wasm.I32Const{Value: int32(v)},
				&wasm.Store{Op: wasm.OpI32Store, Align: 1, Offset: baseOffset + uint32(pos)},
			)
			pos += 4
		case remaining >= 2:
			v := uint16(data[pos]) | uint16(data[pos+1])<<8
			out = append(out,
				&wasm.LocalGet{Local: baseLocal},
				&wasm.I32Const{Value: int32(v)},
				&wasm.Store{Op: wasm.OpI32Store16, Align: 1, Offset: baseOffset + uint32(pos)},
			)
			pos += 2
		default:
			out = append(out,
				&wasm.LocalGet{Local: baseLocal},
				&wasm.I32Const{Value: int32(data[pos])},
				&wasm.Store{Op: wasm.OpI32Store8, Align: 1, Offset: baseOffset + uint32(pos)},
			)
			pos++
		}
	}
	return out
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func le64(b []byte) uint64 {
	return uint64(le32(b[:4])) | uint64(le32(b[4:]))<<32
}
