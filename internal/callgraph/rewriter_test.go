package callgraph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasm-tools/wasi-preset-args/internal/wasm"
)

func TestReplaceFuncUseRewritesCallElementAndExport(t *testing.T) {
	m := buildTestModule()
	g := Build(m)

	require.NoError(t, ReplaceFuncUse(map[wasm.Index]wasm.Index{1: 9}, m, g))

	// Every call to 1 inside the local function is now a call to 9.
	for _, instr := range m.Code[0].Body {
		if c, ok := instr.(*wasm.Call); ok {
			require.Equal(t, wasm.Index(9), c.Func)
		}
	}
	wasm.Walk(m.Code[0].Body, func(i wasm.Instr) {
		if c, ok := i.(*wasm.Call); ok {
			require.Equal(t, wasm.Index(9), c.Func)
		}
	})

	require.Equal(t, wasm.Index(9), *m.ElementSection[0].Init[0])
	require.Equal(t, wasm.Index(9), m.ExportSection[0].Index)
}

func TestReplaceFuncUseExtendsGraphWithoutDroppingStaleEntries(t *testing.T) {
	m := buildTestModule()
	g := Build(m)

	require.NoError(t, ReplaceFuncUse(map[wasm.Index]wasm.Index{1: 9}, m, g))

	// The new callee inherits every use that used to name the old one.
	require.Equal(t, g.Uses(1), g.Uses(9))

	// The old callee's entries are left in place — they are dead (no
	// instruction in the module names 1 anymore) but harmless, and the
	// next rewrite phase (see internal/presetargs) observes them as
	// the set of references it is about to retarget a second time.
	require.NotEmpty(t, g.Uses(1))
}

func TestReplaceFuncUseIdempotentOnEmptyMapping(t *testing.T) {
	m := buildTestModule()
	g := Build(m)
	before := g.Uses(1)
	require.NoError(t, ReplaceFuncUse(map[wasm.Index]wasm.Index{}, m, g))
	require.Equal(t, before, g.Uses(1))
}

func TestReplaceFuncUseChainsAcrossTwoPhases(t *testing.T) {
	m := buildTestModule()
	g := Build(m)

	require.NoError(t, ReplaceFuncUse(map[wasm.Index]wasm.Index{1: 9}, m, g))
	require.NoError(t, ReplaceFuncUse(map[wasm.Index]wasm.Index{9: 42}, m, g))

	require.Equal(t, wasm.Index(42), m.ExportSection[0].Index)
	require.Equal(t, wasm.Index(42), *m.ElementSection[0].Init[0])
}
