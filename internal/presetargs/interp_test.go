package presetargs

import (
	"encoding/binary"

	"github.com/wasm-tools/wasi-preset-args/internal/wasm"
)

// hostStub simulates the real WASI host import a shim's "call the
// original" instruction would reach at runtime. This package has no
// Wasm interpreter of its own — the transform only ever rewrites
// bytecode — so tests drive the synthesized shim bodies through a
// small stack-machine evaluator covering exactly the instruction
// vocabulary shim.BuildArgsSizesGet/BuildArgsGet emit.
type hostStub func(original wasm.Index, ptrs [2]uint32, mem []byte) (errno uint32)

type machine struct {
	mem     []byte
	globals []uint32
	locals  []uint32
	host    hostStub
}

// run executes body and returns the function's single i32 result.
func (m *machine) run(body []wasm.Instr) uint32 {
	var stack []uint32
	ret, returned := m.exec(body, &stack)
	if returned {
		return ret
	}
	return stack[len(stack)-1]
}

// exec runs body against stack, reporting whether a Return instruction
// fired (in which case ret is the function's result and the caller must
// propagate it without looking at stack).
func (m *machine) exec(body []wasm.Instr, stack *[]uint32) (ret uint32, returned bool) {
	pop := func() uint32 {
		v := (*stack)[len(*stack)-1]
		*stack = (*stack)[:len(*stack)-1]
		return v
	}
	push := func(v uint32) { *stack = append(*stack, v) }

	for _, instr := range body {
		switch i := instr.(type) {
		case *wasm.LocalGet:
			push(m.locals[i.Local])
		case *wasm.LocalSet:
			m.locals[i.Local] = pop()
		case *wasm.LocalTee:
			v := (*stack)[len(*stack)-1]
			m.locals[i.Local] = v
		case *wasm.GlobalGet:
			push(m.globals[i.Global])
		case *wasm.GlobalSet:
			m.globals[i.Global] = pop()
		case *wasm.I32Const:
			push(uint32(i.Value))
		case *wasm.I64Const:
			// The operand stack holds 32-bit values, so only the low 32
			// bits of an i64 constant are kept, and the i64.store case
			// below writes just those 4 bytes. No scenario in this
			// package stores a chunk of 8 bytes.
			push(uint32(i.Value))
		case *wasm.Load:
			addr := pop() + i.Offset
			push(binary.LittleEndian.Uint32(m.mem[addr:]))
		case *wasm.Store:
			v := pop()
			addr := pop() + i.Offset
			switch i.Op {
			case wasm.OpI32Store:
				binary.LittleEndian.PutUint32(m.mem[addr:], v)
			case wasm.OpI32Store16:
				m.mem[addr] = byte(v)
				m.mem[addr+1] = byte(v >> 8)
			case wasm.OpI32Store8:
				m.mem[addr] = byte(v)
			case wasm.OpI64Store:
				binary.LittleEndian.PutUint32(m.mem[addr:], v)
			default:
				panic("unsupported store op in test evaluator")
			}
		case *wasm.NumericOp:
			switch i.Op {
			case wasm.OpI32Add:
				b, a := pop(), pop()
				push(a + b)
			case wasm.OpI32Eqz:
				v := pop()
				if v == 0 {
					push(1)
				} else {
					push(0)
				}
			default:
				panic("unsupported numeric op in test evaluator")
			}
		case *wasm.Call:
			b := pop()
			a := pop()
			push(m.host(i.Func, [2]uint32{a, b}, m.mem))
		case *wasm.Drop:
			pop()
		case *wasm.Return:
			return pop(), true
		case *wasm.If:
			cond := pop()
			arm := i.Else
			if cond != 0 {
				arm = i.Then
			}
			// exec shares the caller's operand stack (blocks do not get
			// their own stack in Wasm), so a non-returning arm's result
			// value, if any, is already sitting on *stack afterward.
			if r, didReturn := m.exec(arm, stack); didReturn {
				return r, true
			}
		default:
			panic("unsupported instruction in test evaluator")
		}
	}
	if len(*stack) == 0 {
		return 0, false
	}
	return 0, false
}
