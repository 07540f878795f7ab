package wasm

import (
	"fmt"
	"sort"
)

// RemoveFunctionImports deletes the function-kind import entries named by
// removed (function-index-space identities, which — being imports — are
// necessarily smaller than every locally defined function's identity) and
// renumbers every remaining function reference in the module to account
// for the shift. Callers must have already redirected every Call,
// ElementSegment entry, and Export that named one of the removed indices
// to some other function; RemoveFunctionImports treats a surviving
// reference to a removed index as a bug and returns an error rather than
// silently dangling it.
//
// This is the one place the transform's otherwise append-only function
// index space is disturbed, so it is also the one place a renumbering
// pass is needed: deleting the dummy imports the orchestration uses as
// rewrite targets (see internal/presetargs) shifts every function
// declared after them — in practice, every locally defined function,
// including the newly synthesized shims.
func (m *Module) RemoveFunctionImports(removed []Index) error {
	if len(removed) == 0 {
		return nil
	}
	rm := make(map[Index]bool, len(removed))
	sorted := append([]Index(nil), removed...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for _, idx := range sorted {
		rm[idx] = true
	}

	oldFuncCount := m.FunctionCount()
	remap := make([]Index, oldFuncCount)
	next := Index(0)
	for old := Index(0); int(old) < oldFuncCount; old++ {
		if rm[old] {
			continue
		}
		remap[old] = next
		next++
	}
	translate := func(old Index) (Index, error) {
		if rm[old] {
			return 0, errRemovedFunctionStillReferenced(old)
		}
		return remap[old], nil
	}

	// Drop the matching entries from ImportSection, counting func-kind
	// entries as we go to recover each one's function-index-space
	// identity.
	newImports := make([]*Import, 0, len(m.ImportSection))
	funcIdx := Index(0)
	for _, imp := range m.ImportSection {
		if imp.Type == ExternTypeFunc {
			if rm[funcIdx] {
				funcIdx++
				continue
			}
			funcIdx++
		}
		newImports = append(newImports, imp)
	}
	m.ImportSection = newImports

	if m.StartSection != nil {
		v, err := translate(*m.StartSection)
		if err != nil {
			return err
		}
		m.StartSection = &v
	}
	for _, e := range m.ExportSection {
		if e.Type != ExternTypeFunc {
			continue
		}
		v, err := translate(e.Index)
		if err != nil {
			return err
		}
		e.Index = v
	}
	for _, seg := range m.ElementSection {
		for i, fi := range seg.Init {
			if fi == nil {
				continue
			}
			v, err := translate(*fi)
			if err != nil {
				return err
			}
			seg.Init[i] = &v
		}
	}
	for _, c := range m.Code {
		var walkErr error
		Walk(c.Body, func(instr Instr) {
			if walkErr != nil {
				return
			}
			if call, ok := instr.(*Call); ok {
				v, err := translate(call.Func)
				if err != nil {
					walkErr = err
					return
				}
				call.Func = v
			}
		})
		if walkErr != nil {
			return walkErr
		}
	}
	return nil
}

func errRemovedFunctionStillReferenced(idx Index) error {
	return fmt.Errorf("internal error: function index %d still referenced after removal", idx)
}
