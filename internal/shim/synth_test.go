package shim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasm-tools/wasi-preset-args/internal/wasm"
)

func countCalls(body []wasm.Instr, target wasm.Index) int {
	n := 0
	wasm.Walk(body, func(i wasm.Instr) {
		if c, ok := i.(*wasm.Call); ok && c.Func == target {
			n++
		}
	})
	return n
}

func TestBuildArgsSizesGetCallsOnlyTheOriginal(t *testing.T) {
	cfg := Config{ProgramName: []byte("p"), Args: [][]byte{[]byte("a")}}
	code := BuildArgsSizesGet(cfg, 7, 100)
	require.Equal(t, 1, countCalls(code.Body, 7))
}

func TestBuildArgsGetCallsOnlyTheOriginal(t *testing.T) {
	cfg := Config{ProgramName: []byte("p"), Args: [][]byte{[]byte("a")}}
	code := BuildArgsGet(cfg, 8, 100)
	require.Equal(t, 1, countCalls(code.Body, 8))
}

func TestBuildArgsGetEmptyArgsStillProducesValidBody(t *testing.T) {
	cfg := Config{ProgramName: []byte("p")}
	code := BuildArgsGet(cfg, 8, 100)
	require.NotEmpty(t, code.Body)
	last, ok := code.Body[len(code.Body)-1].(*wasm.I32Const)
	require.True(t, ok, "body must end by pushing the success errno")
	require.Equal(t, int32(0), last.Value)
}
