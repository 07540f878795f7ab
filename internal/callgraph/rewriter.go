package callgraph

import (
	"fmt"

	"github.com/wasm-tools/wasi-preset-args/internal/wasm"
)

// ReplaceFuncUse redirects every recorded use of each mapping key to its
// mapped value: call sites are patched in place, element-segment slots
// and export bindings are overwritten, and the graph itself is extended
// so that uses of `from` are now also recorded as uses of `to` — a use
// can be followed through any number of successive redirections, which
// is exactly what the two-phase dummy-import technique needs (original
// function, then dummy import, then shim, each redirection layered on
// the last without losing track of the original use sites).
//
// A caller worklist is built from every Call use first, then each
// worklisted function body is walked once and every Call naming any
// `from` in mapping is rewritten — not just the specific occurrence the
// graph recorded, since a caller may hold several call sites to the
// same callee.
func ReplaceFuncUse(mapping map[wasm.Index]wasm.Index, m *wasm.Module, g *Graph) error {
	worklist := make(map[wasm.Index]struct{})

	for from, to := range mapping {
		to := to
		for u := range g.Uses(from) {
			switch u.Kind {
			case UseCall:
				worklist[u.Caller] = struct{}{}
			case UseElement:
				u.Element.Init[u.Index] = &to
			case UseExport:
				u.Export.Index = to
			default:
				return fmt.Errorf("callgraph: unknown use kind %d", u.Kind)
			}
		}
	}

	for caller := range worklist {
		localIdx, ok := m.LocalCodeIndex(caller)
		if !ok {
			return fmt.Errorf("callgraph: caller %d is not a locally defined function", caller)
		}
		wasm.Walk(m.Code[localIdx].Body, func(instr wasm.Instr) {
			call, ok := instr.(*wasm.Call)
			if !ok {
				return
			}
			if to, ok := mapping[call.Func]; ok {
				call.Func = to
			}
		})
	}

	for from, to := range mapping {
		for u := range g.Uses(from) {
			g.AddUse(to, u)
		}
	}

	return nil
}
