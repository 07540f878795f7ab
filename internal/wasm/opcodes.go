package wasm

// Opcode bytes from the WebAssembly 1.0 core binary format.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#binary-instr
const (
	OpUnreachable byte = 0x00
	OpNop         byte = 0x01
	OpBlock       byte = 0x02
	OpLoop        byte = 0x03
	OpIf          byte = 0x04
	OpElse        byte = 0x05
	OpEnd         byte = 0x0b
	OpBr          byte = 0x0c
	OpBrIf        byte = 0x0d
	OpBrTable     byte = 0x0e
	OpReturn      byte = 0x0f
	OpCall        byte = 0x10
	OpCallIndirect byte = 0x11

	OpDrop        byte = 0x1a
	OpSelect      byte = 0x1b
	OpSelectTyped byte = 0x1c

	OpLocalGet  byte = 0x20
	OpLocalSet  byte = 0x21
	OpLocalTee  byte = 0x22
	OpGlobalGet byte = 0x23
	OpGlobalSet byte = 0x24

	OpI32Load    byte = 0x28
	OpI64Load    byte = 0x29
	OpF32Load    byte = 0x2a
	OpF64Load    byte = 0x2b
	OpI32Load8S  byte = 0x2c
	OpI32Load8U  byte = 0x2d
	OpI32Load16S byte = 0x2e
	OpI32Load16U byte = 0x2f
	OpI64Load8S  byte = 0x30
	OpI64Load8U  byte = 0x31
	OpI64Load16S byte = 0x32
	OpI64Load16U byte = 0x33
	OpI64Load32S byte = 0x34
	OpI64Load32U byte = 0x35

	OpI32Store   byte = 0x36
	OpI64Store   byte = 0x37
	OpF32Store   byte = 0x38
	OpF64Store   byte = 0x39
	OpI32Store8  byte = 0x3a
	OpI32Store16 byte = 0x3b
	OpI64Store8  byte = 0x3c
	OpI64Store16 byte = 0x3d
	OpI64Store32 byte = 0x3e

	OpMemorySize byte = 0x3f
	OpMemoryGrow byte = 0x40

	OpI32Const byte = 0x41
	OpI64Const byte = 0x42
	OpF32Const byte = 0x43
	OpF64Const byte = 0x44

	// OpMiscPrefix (0xfc) precedes saturating-truncation and bulk-memory
	// instructions; the byte that follows is a ULEB128 secondary opcode.
	OpMiscPrefix byte = 0xfc
)

// IsLoadOpcode reports whether op is one of the *.load* family.
func IsLoadOpcode(op byte) bool {
	return op >= OpI32Load && op <= OpI64Load32U
}

// IsStoreOpcode reports whether op is one of the *.store* family.
func IsStoreOpcode(op byte) bool {
	return op >= OpI32Store && op <= OpI64Store32
}

// A handful of numeric opcodes the shim synthesizer names directly,
// rather than going through the generic NumericOp catch-all by raw byte.
const (
	OpI32Eqz byte = 0x45
	OpI32Eq  byte = 0x46
	OpI32Add byte = 0x6a
)

// numericOpRange covers every numeric instruction opcode with no
// immediate operand: i32.eqz (0x45) through f64.reinterpret_i64 (0xbf),
// plus the sign-extension opcodes added later in the same single-byte
// space (0xc0-0xc4).
const (
	numericOpLo byte = 0x45
	numericOpHi byte = 0xc4
)

// IsNumericOpcode reports whether op falls in the no-immediate numeric
// instruction range.
func IsNumericOpcode(op byte) bool {
	return op >= numericOpLo && op <= numericOpHi
}

// MiscOpImmediateCount returns how many ULEB128 immediates the 0xfc
// secondary opcode op is encoded with, and whether op is recognized.
func MiscOpImmediateCount(op uint32) (int, bool) {
	n, ok := miscOpImmediateCount[op]
	return n, ok
}

// miscOpImmediateCount maps an 0xfc secondary opcode to the number of
// ULEB128 immediates it is encoded with.
var miscOpImmediateCount = map[uint32]int{
	0:  0, // i32.trunc_sat_f32_s
	1:  0, // i32.trunc_sat_f32_u
	2:  0, // i32.trunc_sat_f64_s
	3:  0, // i32.trunc_sat_f64_u
	4:  0, // i64.trunc_sat_f32_s
	5:  0, // i64.trunc_sat_f32_u
	6:  0, // i64.trunc_sat_f64_s
	7:  0, // i64.trunc_sat_f64_u
	8:  2, // memory.init dataidx, 0x00
	9:  1, // data.drop dataidx
	10: 2, // memory.copy 0x00, 0x00
	11: 1, // memory.fill 0x00
	12: 2, // table.init elemidx, tableidx
	13: 1, // elem.drop elemidx
	14: 2, // table.copy dsttableidx, srctableidx
	15: 1, // table.grow tableidx
	16: 1, // table.size tableidx
	17: 1, // table.fill tableidx
}
