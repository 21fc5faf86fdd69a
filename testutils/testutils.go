// Package testutils provides utilities for testing Cast code.
package testutils

import (
	"bytes"
	"strings"

	"github.com/castscript/cast"
)

// CompileSource compiles src through the full pipeline.
func CompileSource(src string) ([]*cast.Chunk, error) {
	return cast.CompileBytecode(strings.NewReader(src))
}

// RunSource compiles src, runs its main handler in a fresh VM, and returns
// everything the program put to its output along with main's return value.
func RunSource(src string) (output string, result cast.Value, err error) {
	chunks, err := CompileSource(src)
	if err != nil {
		return "", cast.Void, err
	}
	vm := cast.NewVM()
	vm.Register(chunks...)
	var out bytes.Buffer
	vm.Out = &out
	result, err = vm.Call("main")
	return out.String(), result, err
}

// DisassembleSource compiles src and returns the concatenated disassembly
// of every chunk.
func DisassembleSource(src string) (string, error) {
	chunks, err := CompileSource(src)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, c := range chunks {
		sb.WriteString(cast.Disassemble(c))
	}
	return sb.String(), nil
}
