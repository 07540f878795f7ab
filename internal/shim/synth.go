package shim

import "github.com/wasm-tools/wasi-preset-args/internal/wasm"

// ArgsType is the canonical WASI preview-1 signature shared by
// args_sizes_get and args_get: two linear-memory pointers in, one errno
// out.
func ArgsType() *wasm.FunctionType {
	return &wasm.FunctionType{
		Params:  []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32},
		Results: []wasm.ValueType{wasm.ValueTypeI32},
	}
}

func i32Result() wasm.BlockType {
	return wasm.BlockType{Kind: wasm.BlockTypeValue, Value: wasm.ValueTypeI32}
}

func emptyResult() wasm.BlockType {
	return wasm.BlockType{Kind: wasm.BlockTypeEmpty}
}

// BuildArgsSizesGet synthesizes the args_sizes_get shim. original names
// the function identity of the real WASI import; savedArgc names the
// module global the two shims share.
func BuildArgsSizesGet(cfg Config, original, savedArgc wasm.Index) *wasm.Code {
	const (
		argcPtr       wasm.Index = 0
		argvBufSizePtr wasm.Index = 1
		errLocal      wasm.Index = 2
		argcLocal     wasm.Index = 3
	)
	n := int32(cfg.PresetCount())
	argvBufSize := int32(cfg.ArgvBufSize())
	presetBufSize := int32(cfg.PresetBufSize())

	hostNoArgs := []wasm.Instr{
		&wasm.LocalGet{Local: argcPtr},
		&wasm.I32Const{Value: 1 + n},
		&wasm.Store{Op: wasm.OpI32Store, Align: 1},
		&wasm.LocalGet{Local: argvBufSizePtr},
		&wasm.I32Const{Value: argvBufSize},
		&wasm.Store{Op: wasm.OpI32Store, Align: 1},
		&wasm.I32Const{Value: 0},
	}
	// Only the preset bytes are new buffer space here: the host already
	// owns argv[0] and the program name is never placed in this branch.
	hostHasArgs := []wasm.Instr{
		&wasm.LocalGet{Local: argcPtr},
		&wasm.LocalGet{Local: argcLocal},
		&wasm.I32Const{Value: n},
		&wasm.NumericOp{Op: wasm.OpI32Add},
		&wasm.Store{Op: wasm.OpI32Store, Align: 1},
		&wasm.LocalGet{Local: argvBufSizePtr},
		&wasm.LocalGet{Local: argvBufSizePtr},
		&wasm.Load{Op: wasm.OpI32Load, Align: 1},
		&wasm.I32Const{Value: presetBufSize},
		&wasm.NumericOp{Op: wasm.OpI32Add},
		&wasm.Store{Op: wasm.OpI32Store, Align: 1},
		&wasm.I32Const{Value: 0},
	}

	succeeded := []wasm.Instr{
		&wasm.LocalGet{Local: argcPtr},
		&wasm.Load{Op: wasm.OpI32Load, Align: 1},
		&wasm.LocalTee{Local: argcLocal},
		&wasm.GlobalSet{Global: savedArgc},
		&wasm.LocalGet{Local: argcLocal},
		&wasm.NumericOp{Op: wasm.OpI32Eqz},
		&wasm.If{Type: i32Result(), Then: hostNoArgs, Else: hostHasArgs},
	}

	body := []wasm.Instr{
		&wasm.LocalGet{Local: argcPtr},
		&wasm.LocalGet{Local: argvBufSizePtr},
		&wasm.Call{Func: original},
		&wasm.LocalSet{Local: errLocal},
		&wasm.LocalGet{Local: errLocal},
		&wasm.NumericOp{Op: wasm.OpI32Eqz},
		&wasm.If{
			Type: i32Result(),
			Then: succeeded,
			Else: []wasm.Instr{&wasm.LocalGet{Local: errLocal}},
		},
	}

	return &wasm.Code{
		LocalTypes: []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32},
		Body:       body,
	}
}

// BuildArgsGet synthesizes the args_get shim.
func BuildArgsGet(cfg Config, original, savedArgc wasm.Index) *wasm.Code {
	const (
		argv        wasm.Index = 0
		argvBuf     wasm.Index = 1
		errLocal    wasm.Index = 2
		extraArgv   wasm.Index = 3
	)
	n := cfg.PresetCount()
	presetBufSize := cfg.PresetBufSize()

	populateHostNoArgs := append(
		EmitImmediateStores(argvBuf, presetBufSize, cfg.ProgramNameBytes()),
		&wasm.LocalGet{Local: argv},
		&wasm.LocalGet{Local: argvBuf},
		&wasm.I32Const{Value: int32(presetBufSize)},
		&wasm.NumericOp{Op: wasm.OpI32Add},
		&wasm.Store{Op: wasm.OpI32Store, Align: 1},
	)

	populateHostHasArgs := []wasm.Instr{
		&wasm.LocalGet{Local: argv},
		&wasm.I32Const{Value: int32(n * PointerSize)},
		&wasm.NumericOp{Op: wasm.OpI32Add},
		&wasm.LocalSet{Local: extraArgv},
		&wasm.LocalGet{Local: extraArgv},
		&wasm.LocalGet{Local: argvBuf},
		&wasm.I32Const{Value: int32(presetBufSize)},
		&wasm.NumericOp{Op: wasm.OpI32Add},
		&wasm.Call{Func: original},
		&wasm.LocalSet{Local: errLocal},
		&wasm.LocalGet{Local: errLocal},
		&wasm.NumericOp{Op: wasm.OpI32Eqz},
		&wasm.If{
			Type: emptyResult(),
			Then: []wasm.Instr{
				&wasm.LocalGet{Local: argv},
				&wasm.LocalGet{Local: extraArgv},
				&wasm.Load{Op: wasm.OpI32Load, Align: 1},
				&wasm.Store{Op: wasm.OpI32Store, Align: 1},
			},
			Else: []wasm.Instr{
				&wasm.LocalGet{Local: errLocal},
				&wasm.Return{},
			},
		},
	}

	body := []wasm.Instr{
		&wasm.GlobalGet{Global: savedArgc},
		&wasm.NumericOp{Op: wasm.OpI32Eqz},
		&wasm.If{Type: emptyResult(), Then: populateHostNoArgs, Else: populateHostHasArgs},
	}

	off := uint32(0)
	for i, arg := range cfg.Args {
		body = append(body, EmitImmediateStores(argvBuf, off, arg)...)
		body = append(body,
			&wasm.LocalGet{Local: argv},
			&wasm.LocalGet{Local: argvBuf},
			&wasm.I32Const{Value: int32(off)},
			&wasm.NumericOp{Op: wasm.OpI32Add},
			&wasm.Store{Op: wasm.OpI32Store, Align: 1, Offset: uint32((i + 1) * PointerSize)},
		)
		off += uint32(len(arg)) + 1
	}

	body = append(body, &wasm.I32Const{Value: 0})

	return &wasm.Code{
		LocalTypes: []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32},
		Body:       body,
	}
}
