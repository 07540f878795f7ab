package binary

import (
	"bufio"
	"fmt"

	"github.com/wasm-tools/wasi-preset-args/internal/wasm"
)

// decodeInstrSeq reads instructions until it hits an end-of-sequence
// marker (OpEnd or OpElse) at the current nesting depth, consuming that
// marker and returning it so the caller — which knows whether it is
// decoding a plain block, an if's then-arm, or a function body — can
// decide what a given marker means.
func decodeInstrSeq(r *bufio.Reader) ([]wasm.Instr, byte, error) {
	var out []wasm.Instr
	for {
		op, err := r.ReadByte()
		if err != nil {
			return nil, 0, fmt.Errorf("reading opcode: %w", err)
		}
		if op == wasm.OpEnd || op == wasm.OpElse {
			return out, op, nil
		}
		instr, err := decodeInstr(op, r)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, instr)
	}
}

func decodeBlockType(r *bufio.Reader) (wasm.BlockType, error) {
	v, err := decodeBlockTypeRaw(r)
	if err != nil {
		return wasm.BlockType{}, fmt.Errorf("reading block type: %w", err)
	}
	switch {
	case v == -0x40:
		return wasm.BlockType{Kind: wasm.BlockTypeEmpty}, nil
	case v < 0:
		// Single-result block types are encoded as the negative of the
		// value type's own byte interpreted as a signed 7-bit quantity,
		// e.g. i32 (0x7f) round-trips through sleb128 as -1.
		return wasm.BlockType{Kind: wasm.BlockTypeValue, Value: wasm.ValueType(v & 0x7f)}, nil
	default:
		return wasm.BlockType{Kind: wasm.BlockTypeIndex, TypeIndex: wasm.Index(v)}, nil
	}
}

func encodeBlockType(buf []byte, bt wasm.BlockType) []byte {
	switch bt.Kind {
	case wasm.BlockTypeEmpty:
		return encodeInt64(buf, -0x40)
	case wasm.BlockTypeValue:
		return encodeInt64(buf, int64(bt.Value)-0x80)
	default:
		return encodeInt64(buf, int64(bt.TypeIndex))
	}
}

func decodeInstr(op byte, r *bufio.Reader) (wasm.Instr, error) {
	switch {
	case op == wasm.OpUnreachable:
		return &wasm.Unreachable{}, nil
	case op == wasm.OpNop:
		return &wasm.Nop{}, nil
	case op == wasm.OpBlock:
		bt, err := decodeBlockType(r)
		if err != nil {
			return nil, err
		}
		body, term, err := decodeInstrSeq(r)
		if err != nil {
			return nil, err
		}
		if term != wasm.OpEnd {
			return nil, fmt.Errorf("block terminated by else, not end")
		}
		return &wasm.Block{Type: bt, Body: body}, nil
	case op == wasm.OpLoop:
		bt, err := decodeBlockType(r)
		if err != nil {
			return nil, err
		}
		body, term, err := decodeInstrSeq(r)
		if err != nil {
			return nil, err
		}
		if term != wasm.OpEnd {
			return nil, fmt.Errorf("loop terminated by else, not end")
		}
		return &wasm.Loop{Type: bt, Body: body}, nil
	case op == wasm.OpIf:
		bt, err := decodeBlockType(r)
		if err != nil {
			return nil, err
		}
		then, term, err := decodeInstrSeq(r)
		if err != nil {
			return nil, err
		}
		var els []wasm.Instr
		if term == wasm.OpElse {
			els, term, err = decodeInstrSeq(r)
			if err != nil {
				return nil, err
			}
			if term != wasm.OpEnd {
				return nil, fmt.Errorf("if's else arm terminated by else, not end")
			}
		}
		return &wasm.If{Type: bt, Then: then, Else: els}, nil
	case op == wasm.OpBr:
		d, err := decodeUint32(r)
		return &wasm.Br{Depth: d}, err
	case op == wasm.OpBrIf:
		d, err := decodeUint32(r)
		return &wasm.BrIf{Depth: d}, err
	case op == wasm.OpBrTable:
		n, err := decodeUint32(r)
		if err != nil {
			return nil, err
		}
		targets := make([]wasm.Index, n)
		for i := range targets {
			targets[i], err = decodeUint32(r)
			if err != nil {
				return nil, err
			}
		}
		def, err := decodeUint32(r)
		if err != nil {
			return nil, err
		}
		return &wasm.BrTable{Targets: targets, Default: def}, nil
	case op == wasm.OpReturn:
		return &wasm.Return{}, nil
	case op == wasm.OpCall:
		idx, err := decodeUint32(r)
		return &wasm.Call{Func: idx}, err
	case op == wasm.OpCallIndirect:
		typeIdx, err := decodeUint32(r)
		if err != nil {
			return nil, err
		}
		tableIdx, err := decodeUint32(r)
		if err != nil {
			return nil, err
		}
		return &wasm.CallIndirect{Type: typeIdx, Table: tableIdx}, nil
	case op == wasm.OpDrop:
		return &wasm.Drop{}, nil
	case op == wasm.OpSelect:
		return &wasm.Select{}, nil
	case op == wasm.OpSelectTyped:
		types, err := decodeValueTypes(r)
		return &wasm.SelectTyped{Types: types}, err
	case op == wasm.OpLocalGet:
		idx, err := decodeUint32(r)
		return &wasm.LocalGet{Local: idx}, err
	case op == wasm.OpLocalSet:
		idx, err := decodeUint32(r)
		return &wasm.LocalSet{Local: idx}, err
	case op == wasm.OpLocalTee:
		idx, err := decodeUint32(r)
		return &wasm.LocalTee{Local: idx}, err
	case op == wasm.OpGlobalGet:
		idx, err := decodeUint32(r)
		return &wasm.GlobalGet{Global: idx}, err
	case op == wasm.OpGlobalSet:
		idx, err := decodeUint32(r)
		return &wasm.GlobalSet{Global: idx}, err
	case wasm.IsLoadOpcode(op):
		align, offset, err := decodeMemArg(r)
		return &wasm.Load{Op: op, Align: align, Offset: offset}, err
	case wasm.IsStoreOpcode(op):
		align, offset, err := decodeMemArg(r)
		return &wasm.Store{Op: op, Align: align, Offset: offset}, err
	case op == wasm.OpMemorySize:
		if _, err := r.ReadByte(); err != nil { // reserved
			return nil, err
		}
		return &wasm.MemorySize{}, nil
	case op == wasm.OpMemoryGrow:
		if _, err := r.ReadByte(); err != nil { // reserved
			return nil, err
		}
		return &wasm.MemoryGrow{}, nil
	case op == wasm.OpI32Const:
		v, err := decodeInt32(r)
		return &wasm.I32Const{Value: v}, err
	case op == wasm.OpI64Const:
		v, err := decodeInt64(r)
		return &wasm.I64Const{Value: v}, err
	case op == wasm.OpF32Const:
		bits, err := readU32LE(r)
		return &wasm.F32Const{Bits: bits}, err
	case op == wasm.OpF64Const:
		bits, err := readU64LE(r)
		return &wasm.F64Const{Bits: bits}, err
	case op == wasm.OpMiscPrefix:
		return decodeMiscOp(r)
	case wasm.IsNumericOpcode(op):
		return &wasm.NumericOp{Op: op}, nil
	default:
		return nil, fmt.Errorf("unsupported opcode %#x", op)
	}
}

func decodeMemArg(r *bufio.Reader) (align, offset uint32, err error) {
	align, err = decodeUint32(r)
	if err != nil {
		return 0, 0, fmt.Errorf("reading memarg align: %w", err)
	}
	offset, err = decodeUint32(r)
	if err != nil {
		return 0, 0, fmt.Errorf("reading memarg offset: %w", err)
	}
	return align, offset, nil
}

func decodeMiscOp(r *bufio.Reader) (wasm.Instr, error) {
	secondary, err := decodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("reading misc secondary opcode: %w", err)
	}
	count, ok := wasm.MiscOpImmediateCount(secondary)
	if !ok {
		return nil, fmt.Errorf("unsupported misc opcode 0xfc %#x", secondary)
	}
	imms := make([]uint32, count)
	for i := range imms {
		imms[i], err = decodeUint32(r)
		if err != nil {
			return nil, fmt.Errorf("reading misc immediate: %w", err)
		}
	}
	return &wasm.MiscOp{Op: secondary, Immediates: imms}, nil
}

// encodeInstrSeq appends body's encoding followed by opcode term (OpEnd or
// OpElse, as directed by the caller) to buf.
func encodeInstrSeq(buf []byte, body []wasm.Instr, term byte) []byte {
	for _, instr := range body {
		buf = encodeInstr(buf, instr)
	}
	return append(buf, term)
}

func encodeInstr(buf []byte, instr wasm.Instr) []byte {
	switch i := instr.(type) {
	case *wasm.Unreachable:
		return append(buf, wasm.OpUnreachable)
	case *wasm.Nop:
		return append(buf, wasm.OpNop)
	case *wasm.Block:
		buf = append(buf, wasm.OpBlock)
		buf = encodeBlockType(buf, i.Type)
		return encodeInstrSeq(buf, i.Body, wasm.OpEnd)
	case *wasm.Loop:
		buf = append(buf, wasm.OpLoop)
		buf = encodeBlockType(buf, i.Type)
		return encodeInstrSeq(buf, i.Body, wasm.OpEnd)
	case *wasm.If:
		buf = append(buf, wasm.OpIf)
		buf = encodeBlockType(buf, i.Type)
		if i.Else != nil {
			buf = encodeInstrSeq(buf, i.Then, wasm.OpElse)
			return encodeInstrSeq(buf, i.Else, wasm.OpEnd)
		}
		return encodeInstrSeq(buf, i.Then, wasm.OpEnd)
	case *wasm.Br:
		buf = append(buf, wasm.OpBr)
		return encodeUint32(buf, i.Depth)
	case *wasm.BrIf:
		buf = append(buf, wasm.OpBrIf)
		return encodeUint32(buf, i.Depth)
	case *wasm.BrTable:
		buf = append(buf, wasm.OpBrTable)
		buf = encodeUint32(buf, uint32(len(i.Targets)))
		for _, t := range i.Targets {
			buf = encodeUint32(buf, t)
		}
		return encodeUint32(buf, i.Default)
	case *wasm.Return:
		return append(buf, wasm.OpReturn)
	case *wasm.Call:
		buf = append(buf, wasm.OpCall)
		return encodeUint32(buf, i.Func)
	case *wasm.CallIndirect:
		buf = append(buf, wasm.OpCallIndirect)
		buf = encodeUint32(buf, i.Type)
		return encodeUint32(buf, i.Table)
	case *wasm.Drop:
		return append(buf, wasm.OpDrop)
	case *wasm.Select:
		return append(buf, wasm.OpSelect)
	case *wasm.SelectTyped:
		buf = append(buf, wasm.OpSelectTyped)
		buf = encodeUint32(buf, uint32(len(i.Types)))
		return append(buf, i.Types...)
	case *wasm.LocalGet:
		buf = append(buf, wasm.OpLocalGet)
		return encodeUint32(buf, i.Local)
	case *wasm.LocalSet:
		buf = append(buf, wasm.OpLocalSet)
		return encodeUint32(buf, i.Local)
	case *wasm.LocalTee:
		buf = append(buf, wasm.OpLocalTee)
		return encodeUint32(buf, i.Local)
	case *wasm.GlobalGet:
		buf = append(buf, wasm.OpGlobalGet)
		return encodeUint32(buf, i.Global)
	case *wasm.GlobalSet:
		buf = append(buf, wasm.OpGlobalSet)
		return encodeUint32(buf, i.Global)
	case *wasm.Load:
		buf = append(buf, i.Op)
		buf = encodeUint32(buf, i.Align)
		return encodeUint32(buf, i.Offset)
	case *wasm.Store:
		buf = append(buf, i.Op)
		buf = encodeUint32(buf, i.Align)
		return encodeUint32(buf, i.Offset)
	case *wasm.MemorySize:
		return append(buf, wasm.OpMemorySize, 0x00)
	case *wasm.MemoryGrow:
		return append(buf, wasm.OpMemoryGrow, 0x00)
	case *wasm.I32Const:
		buf = append(buf, wasm.OpI32Const)
		return encodeInt32(buf, i.Value)
	case *wasm.I64Const:
		buf = append(buf, wasm.OpI64Const)
		return encodeInt64(buf, i.Value)
	case *wasm.F32Const:
		buf = append(buf, wasm.OpF32Const)
		return appendU32LE(buf, i.Bits)
	case *wasm.F64Const:
		buf = append(buf, wasm.OpF64Const)
		return appendU64LE(buf, i.Bits)
	case *wasm.NumericOp:
		return append(buf, i.Op)
	case *wasm.MiscOp:
		buf = append(buf, wasm.OpMiscPrefix)
		buf = encodeUint32(buf, i.Op)
		for _, imm := range i.Immediates {
			buf = encodeUint32(buf, imm)
		}
		return buf
	default:
		panic(fmt.Sprintf("unsupported instruction %T", instr))
	}
}
