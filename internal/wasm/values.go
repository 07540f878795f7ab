// Package wasm defines a mutable, in-memory model of a WebAssembly module
// together with the subset of the binary format needed to decode one from
// bytes and re-encode it back, faithfully enough to round-trip sections the
// transform does not touch.
package wasm

import "fmt"

// Index identifies an entry in one of a Module's index spaces (functions,
// types, tables, memories, globals, locals, labels). Imported entries of a
// kind occupy the low indices of that kind's space, declared in import
// order, followed by the module's own declarations in declaration order.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#indices%E2%91%A0
type Index = uint32

// ValueType is a WebAssembly 1.0 numeric or reference type, encoded as the
// single byte the binary format uses for it.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#binary-valtype
type ValueType = byte

const (
	ValueTypeI32       ValueType = 0x7f
	ValueTypeI64       ValueType = 0x7e
	ValueTypeF32       ValueType = 0x7d
	ValueTypeF64       ValueType = 0x7c
	ValueTypeExternref ValueType = 0x6f
	ValueTypeFuncref   ValueType = 0x70
)

// ValueTypeName returns the WebAssembly text format name for t, or
// "unknown" if t is not a recognized ValueType.
func ValueTypeName(t ValueType) string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeExternref:
		return "externref"
	case ValueTypeFuncref:
		return "funcref"
	}
	return "unknown"
}

// FunctionType is an interned function signature: a list of parameter
// value kinds and a list of result value kinds.
type FunctionType struct {
	Params  []ValueType
	Results []ValueType
}

// Equal reports whether f and other describe the same signature.
func (f *FunctionType) Equal(other *FunctionType) bool {
	if f == other {
		return true
	}
	if f == nil || other == nil {
		return false
	}
	return string(f.Params) == string(other.Params) && string(f.Results) == string(other.Results)
}

// String renders a FunctionType compactly, e.g. "i32i32_i32".
func (f *FunctionType) String() string {
	ps, rs := valueTypesString(f.Params), valueTypesString(f.Results)
	if ps == "" {
		ps = "null"
	}
	if rs == "" {
		rs = "null"
	}
	return fmt.Sprintf("%s_%s", ps, rs)
}

func valueTypesString(vs []ValueType) string {
	s := ""
	for _, v := range vs {
		s += ValueTypeName(v)
	}
	return s
}

// ExternType classifies an Import or Export by the kind of entity it binds.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#external-types%E2%91%A0
type ExternType = byte

const (
	ExternTypeFunc   ExternType = 0x00
	ExternTypeTable  ExternType = 0x01
	ExternTypeMemory ExternType = 0x02
	ExternTypeGlobal ExternType = 0x03
)

// ExternTypeName returns the WebAssembly text format name for et.
func ExternTypeName(et ExternType) string {
	switch et {
	case ExternTypeFunc:
		return "func"
	case ExternTypeTable:
		return "table"
	case ExternTypeMemory:
		return "memory"
	case ExternTypeGlobal:
		return "global"
	}
	return fmt.Sprintf("%#x", et)
}
