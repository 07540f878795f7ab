package binary

import (
	"io"

	"github.com/wasm-tools/wasi-preset-args/internal/wasm"
	"github.com/wasm-tools/wasi-preset-args/internal/wasmdebug"
)

// EncodeModule renders m to the WebAssembly binary format and writes it
// to w.
func EncodeModule(w io.Writer, m *wasm.Module) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = wasmdebug.FromRecovered("encoding wasm module", rec)
		}
	}()
	buf := make([]byte, 0, 4096)
	buf = append(buf, wasmMagic[:]...)
	buf = appendU32LE(buf, wasmVersion)

	if len(m.TypeSection) > 0 {
		buf = encodeSection(buf, wasm.SectionIDType, func(b []byte) []byte {
			b = encodeUint32(b, uint32(len(m.TypeSection)))
			for _, ft := range m.TypeSection {
				b = encodeFunctionType(b, ft)
			}
			return b
		})
	}
	if len(m.ImportSection) > 0 {
		buf = encodeSection(buf, wasm.SectionIDImport, func(b []byte) []byte {
			b = encodeUint32(b, uint32(len(m.ImportSection)))
			for _, imp := range m.ImportSection {
				b = encodeImport(b, imp)
			}
			return b
		})
	}
	if len(m.FunctionSection) > 0 {
		buf = encodeSection(buf, wasm.SectionIDFunction, func(b []byte) []byte {
			b = encodeUint32(b, uint32(len(m.FunctionSection)))
			for _, idx := range m.FunctionSection {
				b = encodeUint32(b, idx)
			}
			return b
		})
	}
	if len(m.TableSection) > 0 {
		buf = encodeSection(buf, wasm.SectionIDTable, func(b []byte) []byte {
			b = encodeUint32(b, uint32(len(m.TableSection)))
			for _, t := range m.TableSection {
				b = encodeTableType(b, t)
			}
			return b
		})
	}
	if len(m.MemorySection) > 0 {
		buf = encodeSection(buf, wasm.SectionIDMemory, func(b []byte) []byte {
			b = encodeUint32(b, uint32(len(m.MemorySection)))
			for _, mem := range m.MemorySection {
				b = encodeMemoryType(b, mem)
			}
			return b
		})
	}
	if len(m.GlobalSection) > 0 {
		buf = encodeSection(buf, wasm.SectionIDGlobal, func(b []byte) []byte {
			b = encodeUint32(b, uint32(len(m.GlobalSection)))
			for _, g := range m.GlobalSection {
				b = encodeGlobalType(b, g.Type)
				b = encodeConstExpr(b, g.Init)
			}
			return b
		})
	}
	if len(m.ExportSection) > 0 {
		buf = encodeSection(buf, wasm.SectionIDExport, func(b []byte) []byte {
			b = encodeUint32(b, uint32(len(m.ExportSection)))
			for _, e := range m.ExportSection {
				b = encodeExport(b, e)
			}
			return b
		})
	}
	if m.StartSection != nil {
		buf = encodeSection(buf, wasm.SectionIDStart, func(b []byte) []byte {
			return encodeUint32(b, *m.StartSection)
		})
	}
	if len(m.ElementSection) > 0 {
		buf = encodeSection(buf, wasm.SectionIDElement, func(b []byte) []byte {
			b = encodeUint32(b, uint32(len(m.ElementSection)))
			for _, seg := range m.ElementSection {
				b = encodeElementSegment(b, seg)
			}
			return b
		})
	}
	if len(m.Code) > 0 {
		buf = encodeSection(buf, wasm.SectionIDCode, func(b []byte) []byte {
			b = encodeUint32(b, uint32(len(m.Code)))
			for _, c := range m.Code {
				b = encodeCode(b, c)
			}
			return b
		})
	}
	if len(m.DataSection) > 0 {
		buf = encodeSection(buf, wasm.SectionIDData, func(b []byte) []byte {
			b = encodeUint32(b, uint32(len(m.DataSection)))
			for _, d := range m.DataSection {
				b = encodeDataSegment(b, d)
			}
			return b
		})
	}
	for _, cs := range m.CustomSections {
		cs := cs
		buf = encodeSection(buf, wasm.SectionIDCustom, func(b []byte) []byte {
			b = encodeName(b, cs.Name)
			return append(b, cs.Data...)
		})
	}

	_, err = w.Write(buf)
	return err
}

// encodeSection appends a section header (id + ULEB128 byte length)
// followed by the payload build produces, to buf.
func encodeSection(buf []byte, id wasm.SectionID, build func([]byte) []byte) []byte {
	payload := build(nil)
	buf = append(buf, id)
	buf = encodeUint32(buf, uint32(len(payload)))
	return append(buf, payload...)
}
