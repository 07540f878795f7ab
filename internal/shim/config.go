// Package shim synthesizes the two locally defined functions that stand
// in for the WASI args_sizes_get/args_get imports, splicing preset
// arguments into what the host reports without allocating any new data
// segment: every byte the shims write is baked in as immediate constants
// in the instruction stream itself.
package shim

// Config is the caller-supplied preset configuration: the program name
// used for argv[0] when the host supplies none, and the ordered preset
// arguments spliced in ahead of whatever the host does supply.
type Config struct {
	ProgramName []byte
	Args        [][]byte
}

// PointerSize is the WASI preview-1 address width this package targets;
// WebAssembly 1.0 has no other linear memory index width.
const PointerSize = 4

// PresetCount is N, the number of preset arguments.
func (c Config) PresetCount() int { return len(c.Args) }

// PresetBytes is the concatenation, in order, of each preset argument
// followed by a NUL terminator.
func (c Config) PresetBytes() []byte {
	var out []byte
	for _, a := range c.Args {
		out = append(out, a...)
		out = append(out, 0)
	}
	return out
}

// ProgramNameBytes is the chosen program name followed by NUL.
func (c Config) ProgramNameBytes() []byte {
	return append(append([]byte(nil), c.ProgramName...), 0)
}

// PresetBufSize is |preset bytes|, the offset within argv_buf at which
// the program name (or the forwarded host buffer) begins.
func (c Config) PresetBufSize() uint32 {
	return uint32(len(c.PresetBytes()))
}

// ArgvBufSize is |program name bytes| + |preset bytes|. It is the value
// stored as argv_buf_size in the host-argc=0 branch, where the program
// name is actually placed; the host-argc>0 branch adds PresetBufSize
// alone to the host's reported size, since the program name is never
// written there.
func (c Config) ArgvBufSize() uint32 {
	return uint32(len(c.ProgramNameBytes()) + len(c.PresetBytes()))
}
