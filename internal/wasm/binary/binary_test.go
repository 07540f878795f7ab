package binary

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasm-tools/wasi-preset-args/internal/wasm"
)

// minimalWasiModule builds the smallest module this package's callers
// care about: one memory, the two WASI argument imports, one exported
// function that calls args_get, and an element segment placing args_get
// in a table slot too, so a round trip exercises every section kind the
// transform touches.
func minimalWasiModule() *wasm.Module {
	argsType := &wasm.FunctionType{
		Params:  []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32},
		Results: []wasm.ValueType{wasm.ValueTypeI32},
	}
	voidType := &wasm.FunctionType{}

	m := &wasm.Module{
		TypeSection: []*wasm.FunctionType{argsType, voidType},
		ImportSection: []*wasm.Import{
			{Module: "wasi_snapshot_preview1", Name: "args_sizes_get", Type: wasm.ExternTypeFunc, DescFunc: 0},
			{Module: "wasi_snapshot_preview1", Name: "args_get", Type: wasm.ExternTypeFunc, DescFunc: 0},
		},
		FunctionSection: []wasm.Index{1},
		Code: []*wasm.Code{
			{Body: []wasm.Instr{
				&wasm.I32Const{Value: 0},
				&wasm.I32Const{Value: 0},
				&wasm.Call{Func: 1},
				&wasm.Drop{},
			}},
		},
		MemorySection: []*wasm.MemoryType{{Min: 1}},
		ExportSection: []*wasm.Export{
			{Name: "memory", Type: wasm.ExternTypeMemory, Index: 0},
			{Name: "_start", Type: wasm.ExternTypeFunc, Index: 2},
		},
		TableSection: []*wasm.TableType{{ElemType: wasm.ValueTypeFuncref, Limit: &wasm.LimitsType{Min: 1}}},
		ElementSection: []*wasm.ElementSegment{
			{TableIndex: 0, Offset: wasm.ConstExpr{Instr: &wasm.I32Const{Value: 0}}, Init: []*wasm.Index{idxPtr(1)}},
		},
		DataSection: []*wasm.DataSegment{
			{MemoryIndex: 0, Offset: wasm.ConstExpr{Instr: &wasm.I32Const{Value: 0}}, Init: []byte("hello")},
		},
	}
	return m
}

func idxPtr(i wasm.Index) *wasm.Index { return &i }

func TestRoundTrip(t *testing.T) {
	m := minimalWasiModule()

	var buf bytes.Buffer
	require.NoError(t, EncodeModule(&buf, m))

	got, err := DecodeModule(bytes.NewReader(buf.Bytes()), DecodeOptions{})
	require.NoError(t, err)

	require.Equal(t, len(m.TypeSection), len(got.TypeSection))
	require.Equal(t, len(m.ImportSection), len(got.ImportSection))
	require.Equal(t, m.ImportSection[0].Name, got.ImportSection[0].Name)
	require.Equal(t, len(m.Code), len(got.Code))
	require.Equal(t, len(m.Code[0].Body), len(got.Code[0].Body))
	require.Equal(t, m.DataSection[0].Init, got.DataSection[0].Init)
	require.Equal(t, *m.ElementSection[0].Init[0], *got.ElementSection[0].Init[0])

	// Re-encoding the decoded module must reproduce the same bytes.
	var buf2 bytes.Buffer
	require.NoError(t, EncodeModule(&buf2, got))
	require.Equal(t, buf.Bytes(), buf2.Bytes())
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	_, err := DecodeModule(bytes.NewReader([]byte{0, 1, 2, 3}), DecodeOptions{})
	require.Error(t, err)
}
