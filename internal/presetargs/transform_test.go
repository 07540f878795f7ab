package presetargs

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasm-tools/wasi-preset-args/internal/wasm"
)

const (
	originalASSIdx wasm.Index = 0
	originalAGIdx  wasm.Index = 1
)

func baseModule() *wasm.Module {
	argsType := &wasm.FunctionType{
		Params:  []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32},
		Results: []wasm.ValueType{wasm.ValueTypeI32},
	}
	return &wasm.Module{
		TypeSection: []*wasm.FunctionType{argsType},
		ImportSection: []*wasm.Import{
			{Module: "wasi_snapshot_preview1", Name: "args_sizes_get", Type: wasm.ExternTypeFunc, DescFunc: 0},
			{Module: "wasi_snapshot_preview1", Name: "args_get", Type: wasm.ExternTypeFunc, DescFunc: 0},
		},
		MemorySection: []*wasm.MemoryType{{Min: 1}},
	}
}

// findShims locates the two exported shim functions' Code by name.
func findShims(t *testing.T, m *wasm.Module) (ass, ag *wasm.Code) {
	t.Helper()
	for _, e := range m.ExportSection {
		localIdx, ok := m.LocalCodeIndex(e.Index)
		require.True(t, ok, "shim export %s must name a locally defined function", e.Name)
		switch e.Name {
		case "wasi_preset_args.args_sizes_get":
			ass = m.Code[localIdx]
		case "wasi_preset_args.args_get":
			ag = m.Code[localIdx]
		}
	}
	require.NotNil(t, ass)
	require.NotNil(t, ag)
	return ass, ag
}

func readU32(mem []byte, addr uint32) uint32 { return binary.LittleEndian.Uint32(mem[addr:]) }

func TestTransformRejectsMissingImport(t *testing.T) {
	m := baseModule()
	m.ImportSection = m.ImportSection[:1] // drop args_get
	err := Transform(m, Config{ProgramName: []byte("p")})
	require.ErrorIs(t, err, ErrMissingImport)
}

func TestTransformRejectsNoMemory(t *testing.T) {
	m := baseModule()
	m.MemorySection = nil
	err := Transform(m, Config{ProgramName: []byte("p")})
	require.ErrorIs(t, err, ErrNoMemory)
}

func TestTransformRewritesElementSegment(t *testing.T) {
	m := baseModule()
	m.TableSection = []*wasm.TableType{{ElemType: wasm.ValueTypeFuncref, Limit: &wasm.LimitsType{Min: 1}}}
	idx := originalAGIdx
	m.ElementSection = []*wasm.ElementSegment{
		{TableIndex: 0, Offset: wasm.ConstExpr{Instr: &wasm.I32Const{Value: 0}}, Init: []*wasm.Index{&idx}},
	}

	require.NoError(t, Transform(m, Config{ProgramName: []byte("p")}))

	_, agCode := findShims(t, m)
	require.NotNil(t, agCode)

	agIdx := wasm.Index(0)
	for _, e := range m.ExportSection {
		if e.Name == "wasi_preset_args.args_get" {
			agIdx = e.Index
		}
	}
	require.Equal(t, agIdx, *m.ElementSection[0].Init[0], "S6: the table slot must now reference the shim")
}

func TestTransformOnlyShimsReferenceOriginals(t *testing.T) {
	m := baseModule()
	m.FunctionSection = []wasm.Index{0}
	m.Code = []*wasm.Code{{Body: []wasm.Instr{
		&wasm.I32Const{Value: 0}, &wasm.I32Const{Value: 0}, &wasm.Call{Func: originalAGIdx}, &wasm.Drop{},
	}}}
	m.ExportSection = []*wasm.Export{{Name: "_start", Type: wasm.ExternTypeFunc, Index: 2}}

	require.NoError(t, Transform(m, Config{ProgramName: []byte("p")}))

	assCode, agCode := findShims(t, m)

	callers := 0
	for _, c := range m.Code {
		if c == assCode || c == agCode {
			continue
		}
		wasm.Walk(c.Body, func(i wasm.Instr) {
			if call, ok := i.(*wasm.Call); ok && (call.Func == originalASSIdx || call.Func == originalAGIdx) {
				t.Fatalf("non-shim function calls an original WASI import")
			}
		})
		callers++
	}
	require.Equal(t, 1, callers, "the user's original _start must survive untouched aside from its redirected call")

	require.Equal(t, 1, countCalls(assCode.Body, originalASSIdx))
	require.Equal(t, 1, countCalls(agCode.Body, originalAGIdx))
}

func countCalls(body []wasm.Instr, target wasm.Index) int {
	n := 0
	wasm.Walk(body, func(i wasm.Instr) {
		if c, ok := i.(*wasm.Call); ok && c.Func == target {
			n++
		}
	})
	return n
}

// runScenario executes both shims end to end against a simulated WASI
// host.
func runScenario(t *testing.T, cfg Config, hostArgc uint32, hostArgv []string) (argc uint32, argvBufSize uint32, argv []string) {
	t.Helper()
	m := baseModule()
	require.NoError(t, Transform(m, cfg))
	assCode, agCode := findShims(t, m)

	require.Len(t, m.GlobalSection, 1, "the transform adds exactly one shared global")

	hostArgvBuf := []byte{}
	for _, a := range hostArgv {
		hostArgvBuf = append(hostArgvBuf, a...)
		hostArgvBuf = append(hostArgvBuf, 0)
	}

	const (
		argcPtr        = 1000
		argvBufSizePtr = 1004
		argvPtr        = 2000
		argvBufPtr     = 3000
	)
	mem := make([]byte, 8192)

	host := func(original wasm.Index, ptrs [2]uint32, mem []byte) uint32 {
		switch original {
		case originalASSIdx:
			binary.LittleEndian.PutUint32(mem[ptrs[0]:], hostArgc)
			binary.LittleEndian.PutUint32(mem[ptrs[1]:], uint32(len(hostArgvBuf)))
			return 0
		case originalAGIdx:
			// ptrs[0] = extra_argv (pointer array), ptrs[1] = buffer base
			off := uint32(0)
			for i := range hostArgv {
				binary.LittleEndian.PutUint32(mem[ptrs[0]+uint32(i*4):], ptrs[1]+off)
				off += uint32(len(hostArgv[i])) + 1
			}
			copy(mem[ptrs[1]:], hostArgvBuf)
			return 0
		default:
			t.Fatalf("unexpected call to function %d", original)
			return 1
		}
	}

	globals := make([]uint32, len(m.GlobalSection))

	assMachine := &machine{mem: mem, globals: globals, locals: make([]uint32, 2+len(assCode.LocalTypes)), host: host}
	assMachine.locals[0] = argcPtr
	assMachine.locals[1] = argvBufSizePtr
	errno := assMachine.run(assCode.Body)
	require.Equal(t, uint32(0), errno)

	agMachine := &machine{mem: mem, globals: globals, locals: make([]uint32, 2+len(agCode.LocalTypes)), host: host}
	agMachine.locals[0] = argvPtr
	agMachine.locals[1] = argvBufPtr
	errno = agMachine.run(agCode.Body)
	require.Equal(t, uint32(0), errno)

	argc = readU32(mem, argcPtr)
	argvBufSize = readU32(mem, argvBufSizePtr)
	n := int(argc)
	argv = make([]string, n)
	for i := 0; i < n; i++ {
		p := readU32(mem, uint32(argvPtr+i*4))
		var b []byte
		for mem[p] != 0 {
			b = append(b, mem[p])
			p++
		}
		argv[i] = string(b)
	}
	return argc, argvBufSize, argv
}

func TestScenarioS1HostArgcZero(t *testing.T) {
	argc, argvBufSize, argv := runScenario(t,
		Config{ProgramName: []byte("prog"), Args: [][]byte{[]byte("--foo"), []byte("bar")}},
		0, nil)
	require.Equal(t, uint32(3), argc)
	require.Equal(t, uint32(15), argvBufSize)
	require.Equal(t, []string{"prog", "--foo", "bar"}, argv)
}

func TestScenarioS2HostHasArgs(t *testing.T) {
	// The host-has-args branch only ever adds preset bytes to the
	// buffer: the program name is never placed when the host already
	// supplies argv[0], so the size bump is preset_bytes alone, not the
	// combined program-name+preset constant used in the host-argc=0
	// branch.
	argc, argvBufSize, argv := runScenario(t,
		Config{ProgramName: []byte("prog"), Args: [][]byte{[]byte("--foo"), []byte("bar")}},
		2, []string{"x", "y"})
	require.Equal(t, uint32(4), argc)
	require.Equal(t, uint32(14), argvBufSize)
	require.Equal(t, []string{"x", "--foo", "bar", "y"}, argv)
}

func TestScenarioS3EmptyPresets(t *testing.T) {
	argc, argvBufSize, argv := runScenario(t, Config{ProgramName: []byte("p")}, 0, nil)
	require.Equal(t, uint32(1), argc)
	require.Equal(t, uint32(2), argvBufSize)
	require.Equal(t, []string{"p"}, argv)
}

func TestScenarioS4SingleHostArg(t *testing.T) {
	argc, argvBufSize, argv := runScenario(t,
		Config{ProgramName: []byte("p"), Args: [][]byte{[]byte("a")}},
		1, []string{"hello"})
	require.Equal(t, uint32(2), argc)
	require.Equal(t, uint32(8), argvBufSize)
	require.Equal(t, []string{"hello", "a"}, argv)
}
