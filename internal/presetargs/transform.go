// Package presetargs binds the call-graph index, reference rewriter,
// and shim synthesizer into a single transform: redirect every call
// site, table slot, and export that names the WASI argument-retrieval
// imports to freshly synthesized shims that splice in a preset
// argument list.
package presetargs

import (
	"fmt"

	"github.com/wasm-tools/wasi-preset-args/internal/callgraph"
	"github.com/wasm-tools/wasi-preset-args/internal/shim"
	"github.com/wasm-tools/wasi-preset-args/internal/wasm"
)

const (
	wasiModuleName  = "wasi_snapshot_preview1"
	dummyModuleName = "wasi_preset_args"

	argsSizesGetName = "args_sizes_get"
	argsGetName      = "args_get"

	dummyArgsSizesGetName = "dummy_args_sizes_get"
	dummyArgsGetName      = "dummy_args_get"

	shimArgsSizesGetExport = "wasi_preset_args.args_sizes_get"
	shimArgsGetExport      = "wasi_preset_args.args_get"
)

// Config is the caller-supplied preset configuration.
type Config struct {
	// ProgramName is used as argv[0] when the host supplies no
	// arguments of its own. Callers should default this to the
	// basename of the input file; this package has no notion of
	// "the input file" and requires an explicit value.
	ProgramName []byte

	// Args is the ordered sequence of preset arguments, prepended to
	// whatever the host supplies. May be empty.
	Args [][]byte
}

// Transform rewrites m in place so that every existing reference to the
// WASI args_sizes_get/args_get imports is redirected to newly
// synthesized shims implementing cfg's preset arguments. On error, m
// may be left partially mutated; the fail-fast contract is upheld by
// the caller discarding m rather than by this function rolling back.
func Transform(m *wasm.Module, cfg Config) error {
	if len(m.MemorySection) == 0 && !m.HasImportedMemory() {
		return ErrNoMemory
	}

	originalASSImp, originalASSIdx, err := locateImport(m, argsSizesGetName)
	if err != nil {
		return err
	}
	originalAGImp, originalAGIdx, err := locateImport(m, argsGetName)
	if err != nil {
		return err
	}

	dummyASSImp := &wasm.Import{
		Module:   dummyModuleName,
		Name:     dummyArgsSizesGetName,
		Type:     wasm.ExternTypeFunc,
		DescFunc: originalASSImp.DescFunc,
	}
	dummyAGImp := &wasm.Import{
		Module:   dummyModuleName,
		Name:     dummyArgsGetName,
		Type:     wasm.ExternTypeFunc,
		DescFunc: originalAGImp.DescFunc,
	}
	m.ImportSection = append(m.ImportSection, dummyASSImp, dummyAGImp)
	dummyASSIdx, _ := m.FunctionIndexOfImport(dummyASSImp)
	dummyAGIdx, _ := m.FunctionIndexOfImport(dummyAGImp)

	graph := callgraph.Build(m)

	if err := callgraph.ReplaceFuncUse(map[wasm.Index]wasm.Index{
		originalASSIdx: dummyASSIdx,
		originalAGIdx:  dummyAGIdx,
	}, m, graph); err != nil {
		return fmt.Errorf("%w: phase 1 rewrite: %v", ErrInvariantViolation, err)
	}

	savedArgcIdx := addSavedArgcGlobal(m)

	shimCfg := shim.Config{ProgramName: cfg.ProgramName, Args: cfg.Args}

	shimASSIdx := wasm.Index(m.FunctionCount())
	m.FunctionSection = append(m.FunctionSection, originalASSImp.DescFunc)
	m.Code = append(m.Code, shim.BuildArgsSizesGet(shimCfg, originalASSIdx, savedArgcIdx))
	m.ExportSection = append(m.ExportSection, &wasm.Export{
		Name: shimArgsSizesGetExport, Type: wasm.ExternTypeFunc, Index: shimASSIdx,
	})

	shimAGIdx := wasm.Index(m.FunctionCount())
	m.FunctionSection = append(m.FunctionSection, originalAGImp.DescFunc)
	m.Code = append(m.Code, shim.BuildArgsGet(shimCfg, originalAGIdx, savedArgcIdx))
	m.ExportSection = append(m.ExportSection, &wasm.Export{
		Name: shimArgsGetExport, Type: wasm.ExternTypeFunc, Index: shimAGIdx,
	})

	if err := callgraph.ReplaceFuncUse(map[wasm.Index]wasm.Index{
		dummyASSIdx: shimASSIdx,
		dummyAGIdx:  shimAGIdx,
	}, m, graph); err != nil {
		return fmt.Errorf("%w: phase 2 rewrite: %v", ErrInvariantViolation, err)
	}

	if err := m.RemoveFunctionImports([]wasm.Index{dummyASSIdx, dummyAGIdx}); err != nil {
		return fmt.Errorf("%w: removing dummy imports: %v", ErrInvariantViolation, err)
	}

	return nil
}

// locateImport finds the required wasi_snapshot_preview1 import named
// name and returns it along with its function-index-space identity.
func locateImport(m *wasm.Module, name string) (*wasm.Import, wasm.Index, error) {
	imp := m.FindImport(wasiModuleName, name)
	if imp == nil {
		return nil, 0, fmt.Errorf("%w: %s.%s", ErrMissingImport, wasiModuleName, name)
	}
	if imp.Type != wasm.ExternTypeFunc {
		return nil, 0, fmt.Errorf("%w: %s.%s", ErrWrongImportKind, wasiModuleName, name)
	}
	idx, ok := m.FunctionIndexOfImport(imp)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s.%s", ErrInvariantViolation, wasiModuleName, name)
	}
	return imp, idx, nil
}

// addSavedArgcGlobal appends the one new mutable i32 global the two
// shims share, initialized to 0, and returns its identity in the global
// index space.
func addSavedArgcGlobal(m *wasm.Module) wasm.Index {
	importedGlobals := 0
	for _, imp := range m.ImportSection {
		if imp.Type == wasm.ExternTypeGlobal {
			importedGlobals++
		}
	}
	m.GlobalSection = append(m.GlobalSection, &wasm.Global{
		Type: &wasm.GlobalType{ValType: wasm.ValueTypeI32, Mutable: true},
		Init: wasm.ConstExpr{Instr: &wasm.I32Const{Value: 0}},
	})
	return wasm.Index(importedGlobals + len(m.GlobalSection) - 1)
}
