package callgraph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasm-tools/wasi-preset-args/internal/wasm"
)

// buildTestModule returns a module with two imported functions (index
// 0, 1), one local function (index 2) that calls function 1 twice, an
// element segment slot referencing function 1, and an export naming
// function 1.
func buildTestModule() *wasm.Module {
	return &wasm.Module{
		ImportSection: []*wasm.Import{
			{Module: "m", Name: "a", Type: wasm.ExternTypeFunc},
			{Module: "m", Name: "b", Type: wasm.ExternTypeFunc},
		},
		FunctionSection: []wasm.Index{0},
		Code: []*wasm.Code{
			{Body: []wasm.Instr{
				&wasm.Call{Func: 1},
				&wasm.Block{Body: []wasm.Instr{&wasm.Call{Func: 1}}},
			}},
		},
		ElementSection: []*wasm.ElementSegment{
			{Init: []*wasm.Index{idxPtr(1)}},
		},
		ExportSection: []*wasm.Export{
			{Name: "b", Type: wasm.ExternTypeFunc, Index: 1},
		},
	}
}

func idxPtr(i wasm.Index) *wasm.Index { return &i }

func TestBuildFindsAllUseKinds(t *testing.T) {
	m := buildTestModule()
	g := Build(m)

	uses := g.Uses(1)
	require.Len(t, uses, 3, "two Call instructions dedupe to one Call use by the same caller, plus one element use and one export use")

	var kinds []UseKind
	for u := range uses {
		kinds = append(kinds, u.Kind)
	}
	require.ElementsMatch(t, []UseKind{UseCall, UseElement, UseExport}, kinds)
}

func TestUsesOfUnreferencedFunctionIsEmpty(t *testing.T) {
	m := buildTestModule()
	g := Build(m)
	require.Empty(t, g.Uses(0))
}

func TestAddUseDeduplicates(t *testing.T) {
	g := &Graph{calleeToUses: map[wasm.Index]map[Use]struct{}{}}
	u := Use{Kind: UseCall, Caller: 5}
	g.AddUse(3, u)
	g.AddUse(3, u)
	require.Len(t, g.Uses(3), 1)
}
