package binary

import (
	"bufio"
	"bytes"
	"fmt"

	"github.com/wasm-tools/wasi-preset-args/internal/wasm"
)

func decodeCode(r *bufio.Reader) (*wasm.Code, error) {
	size, err := decodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("reading code entry size: %w", err)
	}
	body, err := readFull(r, size)
	if err != nil {
		return nil, fmt.Errorf("reading code entry: %w", err)
	}
	br := bufio.NewReader(bytes.NewReader(body))

	localGroupCount, err := decodeUint32(br)
	if err != nil {
		return nil, fmt.Errorf("reading local group count: %w", err)
	}
	var locals []wasm.ValueType
	for i := uint32(0); i < localGroupCount; i++ {
		n, err := decodeUint32(br)
		if err != nil {
			return nil, fmt.Errorf("reading local group count: %w", err)
		}
		vt, err := decodeValueType(br)
		if err != nil {
			return nil, fmt.Errorf("reading local group type: %w", err)
		}
		for j := uint32(0); j < n; j++ {
			locals = append(locals, vt)
		}
	}

	instrs, term, err := decodeInstrSeq(br)
	if err != nil {
		return nil, fmt.Errorf("reading function body: %w", err)
	}
	if term != wasm.OpEnd {
		return nil, fmt.Errorf("function body terminated by else, not end")
	}
	return &wasm.Code{LocalTypes: locals, Body: instrs}, nil
}

// encodeCode renders body into the size-prefixed entry format of the code
// section: a run-length-encoded locals vector followed by the
// instructions, with the whole thing prefixed by its own byte length.
func encodeCode(buf []byte, c *wasm.Code) []byte {
	var body []byte
	groups := groupLocals(c.LocalTypes)
	body = encodeUint32(body, uint32(len(groups)))
	for _, g := range groups {
		body = encodeUint32(body, g.count)
		body = append(body, g.typ)
	}
	body = encodeInstrSeq(body, c.Body, wasm.OpEnd)

	buf = encodeUint32(buf, uint32(len(body)))
	return append(buf, body...)
}

type localGroup struct {
	count uint32
	typ   wasm.ValueType
}

func groupLocals(locals []wasm.ValueType) []localGroup {
	var groups []localGroup
	for _, t := range locals {
		if n := len(groups); n > 0 && groups[n-1].typ == t {
			groups[n-1].count++
			continue
		}
		groups = append(groups, localGroup{count: 1, typ: t})
	}
	return groups
}
