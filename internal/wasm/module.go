package wasm

import "fmt"

// SectionID identifies one of the eleven (plus custom) top-level sections
// of the binary format.
type SectionID = byte

const (
	SectionIDCustom   SectionID = 0
	SectionIDType     SectionID = 1
	SectionIDImport   SectionID = 2
	SectionIDFunction SectionID = 3
	SectionIDTable    SectionID = 4
	SectionIDMemory   SectionID = 5
	SectionIDGlobal   SectionID = 6
	SectionIDExport   SectionID = 7
	SectionIDStart    SectionID = 8
	SectionIDElement  SectionID = 9
	SectionIDCode     SectionID = 10
	SectionIDData     SectionID = 11
)

// SectionIDName returns the conventional Wasm spec name for a section
// id, for use in error messages.
func SectionIDName(s SectionID) string {
	switch s {
	case SectionIDCustom:
		return "custom"
	case SectionIDType:
		return "type"
	case SectionIDImport:
		return "import"
	case SectionIDFunction:
		return "function"
	case SectionIDTable:
		return "table"
	case SectionIDMemory:
		return "memory"
	case SectionIDGlobal:
		return "global"
	case SectionIDExport:
		return "export"
	case SectionIDStart:
		return "start"
	case SectionIDElement:
		return "element"
	case SectionIDCode:
		return "code"
	case SectionIDData:
		return "data"
	}
	return "unknown"
}

// LimitsType is the (min, max?) pair used by both MemoryType and the
// table-size limit of TableType.
type LimitsType struct {
	Min uint32
	Max *uint32 // nil means unbounded
}

// MemoryType declares a linear memory, sized in 64KiB pages.
type MemoryType struct {
	Min uint32
	Max *uint32
}

// TableType declares a table of reference-typed elements, used by this
// transform only to hold element-segment-initialized function indices for
// call_indirect dispatch.
type TableType struct {
	ElemType ValueType // ValueTypeFuncref in WebAssembly 1.0
	Limit    *LimitsType
}

// GlobalType is a global variable's declared value kind and mutability.
type GlobalType struct {
	ValType ValueType
	Mutable bool
}

// Global is a module-defined (non-imported) global: its type plus a
// constant initializer expression.
type Global struct {
	Type *GlobalType
	Init ConstExpr
}

// ConstExpr is the handful of instructions legal in a global initializer
// or element/data segment offset: a single constant or global.get,
// terminated implicitly (the `end` opcode is not represented).
type ConstExpr struct {
	Instr Instr
}

// Import binds a (Module, Name) pair from another module to one of this
// module's four kinds of external declaration. Exactly one Desc* field is
// meaningful, selected by Type.
type Import struct {
	Module string
	Name   string
	Type   ExternType

	DescFunc   Index // type index, when Type == ExternTypeFunc
	DescTable  *TableType
	DescMem    *LimitsType
	DescGlobal *GlobalType
}

// Export binds a name to one of this module's own functions, tables,
// memories, or globals.
type Export struct {
	Name  string
	Type  ExternType
	Index Index
}

// ElementSegment initializes a range of a table with function indices,
// used for indirect calls. Members holding nil represent the WebAssembly
// 2.0 notion of an explicitly absent entry; this transform only ever
// reads non-nil entries.
type ElementSegment struct {
	TableIndex Index
	Offset     ConstExpr
	Init       []*Index // function index per slot, nil where absent
}

// DataSegment initializes a range of linear memory with literal bytes.
// This transform never adds, removes, or edits one; data segments must
// stay byte-identical across the rewrite.
type DataSegment struct {
	MemoryIndex Index
	Offset      ConstExpr
	Init        []byte
}

// Code is a locally defined function's body: its locals (one entry per
// local; the codec groups runs of the same type into the binary format's
// run-length encoding) and its instruction tree.
type Code struct {
	LocalTypes []ValueType // expanded, one entry per local (after params)
	Body       []Instr
}

// Module is the mutable in-memory value the whole transform operates
// over. Every index space (function, type, table, memory, global) is the
// concatenation of imported declarations (in import order) followed by
// the module's own declarations (in declaration order), per the
// WebAssembly specification's index space rule.
type Module struct {
	TypeSection []*FunctionType

	ImportSection []*Import

	// FunctionSection holds, per locally defined function, an index into
	// TypeSection. Code holds that function's body, at the same slice
	// position.
	FunctionSection []Index
	Code            []*Code

	TableSection  []*TableType
	MemorySection []*MemoryType
	GlobalSection []*Global
	ExportSection []*Export

	StartSection *Index

	ElementSection []*ElementSegment
	DataSection    []*DataSegment

	// CustomSections holds every custom section found in the input, in
	// encounter order, preserved byte-for-byte and opaque to this
	// package — debug info, the "name" section, "producers", and so on.
	// None of them are consulted or rewritten by the transform.
	CustomSections []CustomSection
}

// CustomSection is an opaque (name, payload) custom section, carried
// through a transform unmodified.
type CustomSection struct {
	Name string
	Data []byte
}

// ImportedFunctionCount returns how many entries of the function index
// space are satisfied by imports.
func (m *Module) ImportedFunctionCount() int {
	n := 0
	for _, i := range m.ImportSection {
		if i.Type == ExternTypeFunc {
			n++
		}
	}
	return n
}

// FunctionCount returns the size of the function index space: imported
// functions followed by locally defined ones.
func (m *Module) FunctionCount() int {
	return m.ImportedFunctionCount() + len(m.FunctionSection)
}

// TypeIndexOfFunction returns the type-section index of the function
// identified by idx, whether imported or local.
func (m *Module) TypeIndexOfFunction(idx Index) (Index, error) {
	importedFuncs := Index(0)
	for _, imp := range m.ImportSection {
		if imp.Type != ExternTypeFunc {
			continue
		}
		if importedFuncs == idx {
			return imp.DescFunc, nil
		}
		importedFuncs++
	}
	local := idx - importedFuncs
	if int(local) < len(m.FunctionSection) {
		return m.FunctionSection[local], nil
	}
	return 0, fmt.Errorf("function index %d out of range", idx)
}

// TypeOfFunction resolves a function identity to its signature.
func (m *Module) TypeOfFunction(idx Index) (*FunctionType, error) {
	ti, err := m.TypeIndexOfFunction(idx)
	if err != nil {
		return nil, err
	}
	if int(ti) >= len(m.TypeSection) {
		return nil, fmt.Errorf("type index %d out of range", ti)
	}
	return m.TypeSection[ti], nil
}

// IsImportedFunction reports whether idx names an imported function
// rather than a locally defined one.
func (m *Module) IsImportedFunction(idx Index) bool {
	return int(idx) < m.ImportedFunctionCount()
}

// LocalCodeIndex converts a function-index-space identity of a locally
// defined function into an index into Code/FunctionSection.
func (m *Module) LocalCodeIndex(idx Index) (Index, bool) {
	imported := Index(m.ImportedFunctionCount())
	if idx < imported {
		return 0, false
	}
	local := idx - imported
	if int(local) >= len(m.FunctionSection) {
		return 0, false
	}
	return local, true
}

// HasImportedMemory reports whether the module satisfies its linear
// memory requirement through an import rather than a local declaration.
func (m *Module) HasImportedMemory() bool {
	for _, imp := range m.ImportSection {
		if imp.Type == ExternTypeMemory {
			return true
		}
	}
	return false
}

// FindImport returns the import entry named moduleName.name, or nil.
func (m *Module) FindImport(moduleName, name string) *Import {
	for _, imp := range m.ImportSection {
		if imp.Module == moduleName && imp.Name == name {
			return imp
		}
	}
	return nil
}

// FunctionIndexOfImport returns the function-index-space identity of the
// given import entry, which must be a function import found in
// ImportSection (by pointer identity).
func (m *Module) FunctionIndexOfImport(target *Import) (Index, bool) {
	idx := Index(0)
	for _, imp := range m.ImportSection {
		if imp.Type != ExternTypeFunc {
			continue
		}
		if imp == target {
			return idx, true
		}
		idx++
	}
	return 0, false
}
