/*
Package cast implements a compiler and execution engine for Cast, a small
dynamically-typed, event/handler-based scripting language.

Source text moves through three passes: a lexer turning bytes into tokens, a
recursive-descent parser producing a scope-resolved AST, and a bytecode
generator emitting one self-describing chunk per handler. A register-less
stack virtual machine then interprets the chunks against an operand stack
and a call stack of activation frames.

The composed pipeline is CompileBytecode; the individual stages are exported
for callers that want to inspect intermediate artefacts:

	chunks, err := cast.CompileBytecode(strings.NewReader(src))
	if err != nil {
		// cast: parse error at 3:7: undeclared identifier "x"
	}
	vm := cast.NewVM()
	vm.Register(chunks...)
	result, err := vm.Call("main")

Compiled chunks are position-independent binary blobs addressed by internal
offsets, so they can be serialized with MarshalProgram, stored, and later
reloaded into a fresh VM without recompiling.
*/
package cast

import (
	"io"

	"github.com/castscript/cast/internal"
)

// Pos is a 1-indexed (line, column) source position.
type Pos = internal.Pos

// Token is one lexical element of a source stream.
type Token = internal.Token

// Root is the parsed, scope-resolved AST of one script.
type Root = internal.Root

// HandlerDecl is one "on name ... end" declaration of a Root.
type HandlerDecl = internal.HandlerDecl

// Chunk is the compiled, immutable form of one handler.
type Chunk = internal.Chunk

// Value is the VM's uniform tagged-variant value.
type Value = internal.Value

// Kind discriminates a Value.
type Kind = internal.Kind

// VM interprets compiled chunks.
type VM = internal.VM

// Intrinsic computes one "the" builtin's value for a VM.
type Intrinsic = internal.Intrinsic

// BuiltinFn is a host function reachable by a dynamic call.
type BuiltinFn = internal.BuiltinFn

// TheBuiltin identifies one "the" builtin.
type TheBuiltin = internal.TheBuiltin

// Stop represents the reason the VM's dispatch loop left an instruction.
type Stop = internal.Stop

// Error kinds, one per pipeline stage.
type (
	LexError     = internal.LexError
	ParseError   = internal.ParseError
	GenError     = internal.GenError
	RuntimeError = internal.RuntimeError
)

// Value kinds.
const (
	KVoid       = internal.KVoid
	KInt        = internal.KInt
	KFloat      = internal.KFloat
	KString     = internal.KString
	KSymbol     = internal.KSymbol
	KLinearList = internal.KLinearList
	KPropList   = internal.KPropList
	KPoint      = internal.KPoint
	KQuad       = internal.KQuad
)

// "the" builtin ids.
const (
	TheMoviePath       = internal.TheMoviePath
	TheFrame           = internal.TheFrame
	TheDirSeparator    = internal.TheDirSeparator
	TheMilliseconds    = internal.TheMilliseconds
	TheRandomSeed      = internal.TheRandomSeed
	ThePlatform        = internal.ThePlatform
	TheDate            = internal.TheDate
	TheTime            = internal.TheTime
	TheLongTime        = internal.TheLongTime
	ThePlatformVersion = internal.ThePlatformVersion
)

// Void is the canonical empty value.
var Void = internal.Void

// IntVal constructs an Int value.
func IntVal(i int32) Value { return internal.IntVal(i) }

// FloatVal constructs a Float value.
func FloatVal(f float64) Value { return internal.FloatVal(f) }

// NewVM prepares an empty VM: no handlers registered, no globals bound, the
// default intrinsic table installed.
func NewVM() *VM { return internal.NewVM() }

// Tokenize converts a source byte stream into an ordered token sequence.
func Tokenize(r io.Reader) ([]Token, error) { return internal.Tokenize(r) }

// Parse converts a token sequence into a scope-resolved AST root.
func Parse(toks []Token) (*Root, error) { return internal.Parse(toks) }

// GenerateBytecode walks a scope-resolved AST and emits one Chunk per
// handler.
func GenerateBytecode(root *Root) ([]*Chunk, error) {
	return internal.GenerateBytecode(root)
}

// CompileBytecode is the composed pipeline: Tokenize, Parse, and
// GenerateBytecode in sequence, aborting at the first stage that errors.
func CompileBytecode(r io.Reader) ([]*Chunk, error) {
	toks, err := Tokenize(r)
	if err != nil {
		return nil, err
	}
	root, err := Parse(toks)
	if err != nil {
		return nil, err
	}
	return GenerateBytecode(root)
}

// Disassemble renders every instruction of a chunk, one per line, as
// "OPCODE operand [; hint]".
func Disassemble(c *Chunk) string { return internal.Disassemble(c) }

// MarshalProgram serializes an ordered chunk list into one binary blob.
func MarshalProgram(chunks []*Chunk) []byte {
	return internal.MarshalProgram(chunks)
}

// UnmarshalProgram deserializes a program produced by MarshalProgram.
func UnmarshalProgram(buf []byte) ([]*Chunk, error) {
	return internal.UnmarshalProgram(buf)
}
