package binary

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/wasm-tools/wasi-preset-args/internal/wasm"
	"github.com/wasm-tools/wasi-preset-args/internal/wasmdebug"
)

// DecodeOptions controls how tolerant DecodeModule is of input that
// strays from the binary format's canonical shape.
type DecodeOptions struct {
	// StrictValidate, when true, would reject modules this package can
	// otherwise still structurally decode (duplicate exports, oversized
	// indices, and similar semantic defects). This implementation never
	// performs that extra validation pass, whatever the field's value, since some
	// producer toolchains emit modules that only fully link later — but
	// the field is kept so a caller's intent is visible and future
	// validation can hang off it.
	StrictValidate bool
}

// DecodeModule parses the WebAssembly binary format from r into a
// wasm.Module.
func DecodeModule(r io.Reader, opts DecodeOptions) (m *wasm.Module, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = wasmdebug.FromRecovered("decoding wasm module", rec)
		}
	}()
	return decodeModule(r, opts)
}

func decodeModule(r io.Reader, _ DecodeOptions) (*wasm.Module, error) {
	br := bufio.NewReader(r)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("reading wasm magic: %w", err)
	}
	if magic != wasmMagic {
		return nil, fmt.Errorf("not a wasm module: bad magic %x", magic)
	}
	version, err := readU32LE(br)
	if err != nil {
		return nil, fmt.Errorf("reading wasm version: %w", err)
	}
	if version != wasmVersion {
		return nil, fmt.Errorf("unsupported wasm version %d", version)
	}

	m := &wasm.Module{}
	for {
		id, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading section id: %w", err)
		}
		size, err := decodeUint32(br)
		if err != nil {
			return nil, fmt.Errorf("reading section %s size: %w", wasm.SectionIDName(id), err)
		}
		payload, err := readFull(br, size)
		if err != nil {
			return nil, fmt.Errorf("reading section %s payload: %w", wasm.SectionIDName(id), err)
		}
		if err := decodeSection(m, id, payload); err != nil {
			return nil, fmt.Errorf("decoding section %s: %w", wasm.SectionIDName(id), err)
		}
	}

	// A module with no linear memory decodes successfully; that's a
	// Transform-time error (presetargs.ErrNoMemory), not a parse error.
	return m, nil
}

func decodeSection(m *wasm.Module, id wasm.SectionID, payload []byte) error {
	r := bufio.NewReader(bytes.NewReader(payload))
	switch id {
	case wasm.SectionIDCustom:
		name, err := decodeName(r)
		if err != nil {
			return fmt.Errorf("reading custom section name: %w", err)
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("reading custom section data: %w", err)
		}
		m.CustomSections = append(m.CustomSections, wasm.CustomSection{Name: name, Data: data})
	case wasm.SectionIDType:
		n, err := decodeUint32(r)
		if err != nil {
			return err
		}
		m.TypeSection = make([]*wasm.FunctionType, n)
		for i := range m.TypeSection {
			m.TypeSection[i], err = decodeFunctionType(r)
			if err != nil {
				return err
			}
		}
	case wasm.SectionIDImport:
		n, err := decodeUint32(r)
		if err != nil {
			return err
		}
		m.ImportSection = make([]*wasm.Import, n)
		for i := range m.ImportSection {
			m.ImportSection[i], err = decodeImport(r)
			if err != nil {
				return err
			}
		}
	case wasm.SectionIDFunction:
		n, err := decodeUint32(r)
		if err != nil {
			return err
		}
		m.FunctionSection = make([]wasm.Index, n)
		for i := range m.FunctionSection {
			m.FunctionSection[i], err = decodeUint32(r)
			if err != nil {
				return err
			}
		}
	case wasm.SectionIDTable:
		n, err := decodeUint32(r)
		if err != nil {
			return err
		}
		m.TableSection = make([]*wasm.TableType, n)
		for i := range m.TableSection {
			m.TableSection[i], err = decodeTableType(r)
			if err != nil {
				return err
			}
		}
	case wasm.SectionIDMemory:
		n, err := decodeUint32(r)
		if err != nil {
			return err
		}
		m.MemorySection = make([]*wasm.MemoryType, n)
		for i := range m.MemorySection {
			m.MemorySection[i], err = decodeMemoryType(r)
			if err != nil {
				return err
			}
		}
	case wasm.SectionIDGlobal:
		n, err := decodeUint32(r)
		if err != nil {
			return err
		}
		m.GlobalSection = make([]*wasm.Global, n)
		for i := range m.GlobalSection {
			gt, err := decodeGlobalType(r)
			if err != nil {
				return err
			}
			init, err := decodeConstExpr(r)
			if err != nil {
				return err
			}
			m.GlobalSection[i] = &wasm.Global{Type: gt, Init: init}
		}
	case wasm.SectionIDExport:
		n, err := decodeUint32(r)
		if err != nil {
			return err
		}
		m.ExportSection = make([]*wasm.Export, n)
		for i := range m.ExportSection {
			m.ExportSection[i], err = decodeExport(r)
			if err != nil {
				return err
			}
		}
	case wasm.SectionIDStart:
		idx, err := decodeUint32(r)
		if err != nil {
			return err
		}
		m.StartSection = &idx
	case wasm.SectionIDElement:
		n, err := decodeUint32(r)
		if err != nil {
			return err
		}
		m.ElementSection = make([]*wasm.ElementSegment, n)
		for i := range m.ElementSection {
			m.ElementSection[i], err = decodeElementSegment(r)
			if err != nil {
				return err
			}
		}
	case wasm.SectionIDCode:
		n, err := decodeUint32(r)
		if err != nil {
			return err
		}
		m.Code = make([]*wasm.Code, n)
		for i := range m.Code {
			m.Code[i], err = decodeCode(r)
			if err != nil {
				return err
			}
		}
	case wasm.SectionIDData:
		n, err := decodeUint32(r)
		if err != nil {
			return err
		}
		m.DataSection = make([]*wasm.DataSegment, n)
		for i := range m.DataSection {
			m.DataSection[i], err = decodeDataSegment(r)
			if err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown section id %#x", id)
	}
	return nil
}
