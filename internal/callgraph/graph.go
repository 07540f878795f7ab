// Package callgraph builds and maintains a reverse index from callee
// function to every place that names it — direct calls, indirect-call
// table slots, and exports — so the rewriter can redirect a function's
// call sites without re-walking the whole module for each redirection.
package callgraph

import "github.com/wasm-tools/wasi-preset-args/internal/wasm"

// UseKind distinguishes the three ways a function identity can appear in
// a module.
type UseKind int

const (
	UseCall UseKind = iota
	UseElement
	UseExport
)

// Use names one occurrence of a function identity. Exactly the fields
// relevant to Kind are meaningful:
//
//	UseCall:    Caller
//	UseElement: Element, Index
//	UseExport:  Export
//
// Element and Export are identified by pointer into the module's own
// ElementSection/ExportSection slices — stable for the lifetime of a
// transform, since neither slice is reordered or have entries deleted.
type Use struct {
	Kind    UseKind
	Caller  wasm.Index
	Element *wasm.ElementSegment
	Index   int
	Export  *wasm.Export
}

// Graph is a reverse index: callee function identity to every Use that
// names it.
type Graph struct {
	calleeToUses map[wasm.Index]map[Use]struct{}
}

// Build scans every function body, element segment, and export of m and
// returns the resulting reverse index.
func Build(m *wasm.Module) *Graph {
	g := &Graph{calleeToUses: make(map[wasm.Index]map[Use]struct{})}

	importedFuncs := wasm.Index(m.ImportedFunctionCount())
	for i, code := range m.Code {
		caller := importedFuncs + wasm.Index(i)
		wasm.Walk(code.Body, func(instr wasm.Instr) {
			if call, ok := instr.(*wasm.Call); ok {
				g.AddUse(call.Func, Use{Kind: UseCall, Caller: caller})
			}
		})
	}

	for _, seg := range m.ElementSection {
		for idx, fi := range seg.Init {
			if fi == nil {
				continue
			}
			g.AddUse(*fi, Use{Kind: UseElement, Element: seg, Index: idx})
		}
	}

	for _, e := range m.ExportSection {
		if e.Type != wasm.ExternTypeFunc {
			continue
		}
		g.AddUse(e.Index, Use{Kind: UseExport, Export: e})
	}

	return g
}

// Uses returns every recorded occurrence of callee, or nil if it has
// none.
func (g *Graph) Uses(callee wasm.Index) map[Use]struct{} {
	return g.calleeToUses[callee]
}

// AddUse records that callee is named by u.
func (g *Graph) AddUse(callee wasm.Index, u Use) {
	uses, ok := g.calleeToUses[callee]
	if !ok {
		uses = make(map[Use]struct{})
		g.calleeToUses[callee] = uses
	}
	uses[u] = struct{}{}
}
