package shim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasm-tools/wasi-preset-args/internal/wasm"
)

// evalStores interprets a flat slice of LocalGet/I32Const/I64Const/Store
// instructions against a simulated linear memory, standing in for a
// conforming Wasm runtime since this package has no interpreter of its
// own to drive.
func evalStores(t *testing.T, instrs []wasm.Instr, baseAddr uint32, mem []byte) {
	t.Helper()
	var stack []uint64
	for _, instr := range instrs {
		switch i := instr.(type) {
		case *wasm.LocalGet:
			stack = append(stack, uint64(baseAddr))
		case *wasm.I32Const:
			stack = append(stack, uint64(uint32(i.Value)))
		case *wasm.I64Const:
			stack = append(stack, uint64(i.Value))
		case *wasm.Store:
			v := stack[len(stack)-1]
			addr := stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			ea := uint32(addr) + i.Offset
			switch i.Op {
			case wasm.OpI64Store:
				for b := 0; b < 8; b++ {
					mem[ea+uint32(b)] = byte(v >> (8 * b))
				}
			case wasm.OpI32Store:
				for b := 0; b < 4; b++ {
					mem[ea+uint32(b)] = byte(v >> (8 * b))
				}
			case wasm.OpI32Store16:
				mem[ea] = byte(v)
				mem[ea+1] = byte(v >> 8)
			case wasm.OpI32Store8:
				mem[ea] = byte(v)
			default:
				t.Fatalf("unexpected store op %#x", i.Op)
			}
		default:
			t.Fatalf("unexpected instruction %T in immediate-store sequence", instr)
		}
	}
}

func TestEmitImmediateStoresReconstructsBytes(t *testing.T) {
	for _, s := range [][]byte{
		[]byte(""),
		[]byte("a"),
		[]byte("ab"),
		[]byte("abc"),
		[]byte("abcd"),
		[]byte("abcde"),
		[]byte("abcdefgh"),
		[]byte("abcdefghijklmnopqrstuvwxyz"),
		[]byte("--foo"),
	} {
		mem := make([]byte, 64)
		instrs := EmitImmediateStores(0, 4, s)
		evalStores(t, instrs, 0, mem)
		require.Equal(t, s, mem[4:4+len(s)])
	}
}

func TestEmitImmediateStoresGreedyWidthChoice(t *testing.T) {
	// 9 bytes: greedy order is 8 then 1, i.e. two store instructions.
	instrs := EmitImmediateStores(0, 0, make([]byte, 9))
	var stores int
	for _, i := range instrs {
		if _, ok := i.(*wasm.Store); ok {
			stores++
		}
	}
	require.Equal(t, 2, stores)
}
