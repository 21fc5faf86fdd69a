package internal

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// Operand and call stacks have fixed capacity; exceeding either is a
// RuntimeError rather than a reallocation.
const (
	maxOperandStack = 4096
	maxCallStack    = 256
)

// Frame is one activation record of the call stack: the chunk being
// executed, its instruction pointer, and the operand-stack index of its
// local slot 0.
type Frame struct {
	chunk *Chunk
	ip    int
	base  int
}

// Intrinsic computes the value of one "the" builtin when the VM executes a
// THE instruction. A VM carries a default table wired to the host process
// (see builtins.go); an embedding may overwrite individual entries.
type Intrinsic func(vm *VM) (Value, error)

// BuiltinFn is a host-provided handler reachable by a dynamic CALL when no
// script handler of that name is registered.
type BuiltinFn func(vm *VM, args []Value) (Value, error)

// VM interprets compiled chunks against an operand stack and a call stack
// of activation frames. It owns the heap, the globals
// map, and the symbol intern table for the duration of execution; it is
// single-threaded and cooperative within its host goroutine.
type VM struct {
	Heap *Heap
	Syms *Interner

	// Globals maps a binding's name to its value, shared by every handler
	// that declares the name with `global`.
	Globals map[string]Value

	// Out receives the output of PUT instructions. Defaults to os.Stdout.
	Out io.Writer

	// Trace, when set, writes each instruction in disassembled form to
	// os.Stderr before executing it.
	Trace bool

	// FrameNum, RandomSeed, and MoviePath back the corresponding "the"
	// builtins; an embedding may set them before running a handler.
	FrameNum   int32
	RandomSeed int32
	MoviePath  string

	handlers   map[string]*Chunk
	builtins   map[string]BuiltinFn
	intrinsics [numTheBuiltins]Intrinsic

	stack  []Value
	frames []Frame

	// script is the implicit receiver passed as local 0 to handlers
	// invoked from outside: a property list holding the script instance's
	// properties.
	script Value

	start  time.Time
	cancel uint32
}

// NewVM prepares an empty VM: no handlers registered, no globals bound, the
// default intrinsic table installed.
func NewVM() *VM {
	heap := NewHeap()
	vm := &VM{
		Heap:     heap,
		Syms:     NewInterner(heap),
		Globals:  make(map[string]Value),
		Out:      os.Stdout,
		handlers: make(map[string]*Chunk),
		builtins: make(map[string]BuiltinFn),
		start:    time.Now(),
	}
	vm.script = heap.NewPropList()
	vm.intrinsics = defaultIntrinsics()
	vm.builtins = defaultBuiltins()
	return vm
}

// Register adds chunks to the VM's registered-handlers table, keyed by
// handler name. Later registrations of the same name win.
func (vm *VM) Register(chunks ...*Chunk) {
	for _, c := range chunks {
		vm.handlers[c.Name] = c
	}
}

// Handler returns the registered chunk of the given name, if any.
func (vm *VM) Handler(name string) (*Chunk, bool) {
	c, ok := vm.handlers[name]
	return c, ok
}

// SetIntrinsic overwrites the intrinsic backing one "the" builtin.
func (vm *VM) SetIntrinsic(b TheBuiltin, fn Intrinsic) {
	vm.intrinsics[b] = fn
}

// SetGlobal binds name in the globals map.
func (vm *VM) SetGlobal(name string, v Value) {
	vm.Globals[name] = v
}

// Cancel sets the cooperative cancel flag. The flag is
// checked at every back-edge and at RET; once observed, the current
// instruction returns a cancellation error and all frames unwind. Safe to
// call from another goroutine; it is the only cross-goroutine entry point.
func (vm *VM) Cancel() {
	atomic.StoreUint32(&vm.cancel, 1)
}

func (vm *VM) cancelled() bool {
	return atomic.LoadUint32(&vm.cancel) != 0
}

// Call runs the registered handler of the given name with args, using the
// script instance as the implicit receiver, and returns the handler's
// return value. On error all frames are unwound and the stacks are reset.
func (vm *VM) Call(name string, args ...Value) (Value, error) {
	c, ok := vm.handlers[name]
	if !ok {
		return Void, newRuntimeErrorf(name, 0, "unknown handler %q", name)
	}
	entryStack, entryFrames := len(vm.stack), len(vm.frames)
	vm.stack = append(vm.stack, vm.script)
	vm.stack = append(vm.stack, args...)
	if err := vm.enter(c, entryStack); err != nil {
		vm.stack, vm.frames = vm.stack[:entryStack], vm.frames[:entryFrames]
		return Void, err
	}
	ret, err := vm.run(entryFrames)
	if err != nil {
		vm.stack, vm.frames = vm.stack[:entryStack], vm.frames[:entryFrames]
		return Void, err
	}
	return ret, nil
}

// enter pushes an activation for c whose receiver-plus-arguments begin at
// operand-stack index base. Surplus arguments are dropped; missing
// arguments and the chunk's locals are filled with Void.
func (vm *VM) enter(c *Chunk, base int) error {
	if len(vm.frames) >= maxCallStack {
		return newRuntimeErrorf(c.Name, 0, "call stack overflow")
	}
	want := base + c.NArgs
	if len(vm.stack) > want {
		vm.stack = vm.stack[:want]
	}
	want += c.NLocals
	if want > maxOperandStack {
		return newRuntimeErrorf(c.Name, 0, "operand stack overflow")
	}
	for len(vm.stack) < want {
		vm.stack = append(vm.stack, Void)
	}
	vm.frames = append(vm.frames, Frame{chunk: c, base: base})
	return nil
}

func (vm *VM) push(v Value) error {
	if len(vm.stack) >= maxOperandStack {
		fr := &vm.frames[len(vm.frames)-1]
		return newRuntimeErrorf(fr.chunk.Name, fr.ip-1, "operand stack overflow")
	}
	vm.stack = append(vm.stack, v)
	return nil
}

func (vm *VM) pop() Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

// errf raises a RuntimeError positioned at the instruction the current
// frame most recently fetched.
func (vm *VM) errf(format string, args ...interface{}) error {
	fr := &vm.frames[len(vm.frames)-1]
	return newRuntimeErrorf(fr.chunk.Name, fr.ip-1, format, args...)
}

// cancelErr raises the CancelStop flavour of RuntimeError.
func (vm *VM) cancelErr() error {
	fr := &vm.frames[len(vm.frames)-1]
	return &RuntimeError{Chunk: fr.chunk.Name, IP: fr.ip - 1, Stop: CancelStop, Msg: "cancelled"}
}

// run is the dispatch loop: it executes instructions
// until the call stack drains back to entryFrames, then returns the value
// the outermost RET produced.
func (vm *VM) run(entryFrames int) (Value, error) {
	for {
		fr := &vm.frames[len(vm.frames)-1]
		if fr.ip >= len(fr.chunk.Code) {
			return Void, vm.errf("execution fell off the end of handler %q", fr.chunk.Name)
		}
		in := fr.chunk.Code[fr.ip]
		if vm.Trace {
			fmt.Fprintf(os.Stderr, "%s %s\n", fr.chunk.Name, disasmLine(fr.chunk, fr.ip, in))
		}
		fr.ip++
		switch in.Op() {
		case OpRET:
			if vm.cancelled() {
				return Void, vm.cancelErr()
			}
			ret := vm.pop()
			vm.stack = vm.stack[:fr.base]
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == entryFrames {
				return ret, nil
			}
			if err := vm.push(ret); err != nil {
				return Void, err
			}

		case OpPOP:
			vm.pop()

		case OpDUP:
			if err := vm.push(vm.stack[len(vm.stack)-1]); err != nil {
				return Void, err
			}

		case OpLOADVOID:
			if err := vm.push(Void); err != nil {
				return Void, err
			}
		case OpLOADI0:
			if err := vm.push(IntVal(0)); err != nil {
				return Void, err
			}
		case OpLOADI1:
			if err := vm.push(IntVal(1)); err != nil {
				return Void, err
			}

		case OpLOADC:
			v, err := vm.materialize(fr.chunk, int(in.U16()))
			if err != nil {
				return Void, err
			}
			if err := vm.push(v); err != nil {
				return Void, err
			}

		case OpLOADL:
			if err := vm.push(vm.stack[fr.base+int(in.U16())]); err != nil {
				return Void, err
			}
		case OpLOADL0:
			if err := vm.push(vm.stack[fr.base]); err != nil {
				return Void, err
			}
		case OpSTOREL:
			vm.stack[fr.base+int(in.U16())] = vm.pop()

		case OpLOADG:
			name := fr.chunk.ConstString(int(in.U16()))
			v, ok := vm.Globals[name]
			if !ok {
				v = Void
			}
			if err := vm.push(v); err != nil {
				return Void, err
			}
		case OpSTOREG:
			name := fr.chunk.ConstString(int(in.U16()))
			vm.Globals[name] = vm.pop()

		case OpUNM:
			v := vm.pop()
			switch v.Kind {
			case KInt:
				v.I = -v.I
			case KFloat:
				v.F = -v.F
			default:
				return Void, vm.errf("cannot negate a %s value", v.Kind)
			}
			if err := vm.push(v); err != nil {
				return Void, err
			}

		case OpADD, OpSUB, OpMUL, OpDIV, OpMOD:
			b, a := vm.pop(), vm.pop()
			v, err := vm.arith(in.Op(), a, b)
			if err != nil {
				return Void, err
			}
			if err := vm.push(v); err != nil {
				return Void, err
			}

		case OpEQ:
			b, a := vm.pop(), vm.pop()
			if err := vm.push(boolInt(vm.eq(a, b))); err != nil {
				return Void, err
			}

		case OpLT, OpGT, OpLTE, OpGTE:
			b, a := vm.pop(), vm.pop()
			v, err := vm.compare(in.Op(), a, b)
			if err != nil {
				return Void, err
			}
			if err := vm.push(v); err != nil {
				return Void, err
			}

		case OpAND, OpOR:
			b, a := vm.pop(), vm.pop()
			ta, err := vm.truthy(a)
			if err != nil {
				return Void, err
			}
			tb, err := vm.truthy(b)
			if err != nil {
				return Void, err
			}
			var r bool
			if in.Op() == OpAND {
				r = ta && tb
			} else {
				r = ta || tb
			}
			if err := vm.push(boolInt(r)); err != nil {
				return Void, err
			}

		case OpNOT:
			t, err := vm.truthy(vm.pop())
			if err != nil {
				return Void, err
			}
			if err := vm.push(boolInt(!t)); err != nil {
				return Void, err
			}

		case OpCONCAT, OpCONCATSP:
			b, a := vm.pop(), vm.pop()
			s := vm.Heap.Stringify(a)
			if in.Op() == OpCONCATSP {
				s += " "
			}
			s += vm.Heap.Stringify(b)
			if err := vm.push(vm.Heap.NewString(s)); err != nil {
				return Void, err
			}

		case OpJMP:
			off := int(in.I16())
			if off < 0 && vm.cancelled() {
				return Void, vm.cancelErr()
			}
			fr.ip += off

		case OpBRT, OpBRF:
			t, err := vm.truthy(vm.pop())
			if err != nil {
				return Void, err
			}
			if t == (in.Op() == OpBRT) {
				fr.ip += int(in.I16())
			}

		case OpCALL:
			k, n := in.U16Pair()
			name := fr.chunk.ConstString(int(k))
			base := len(vm.stack) - int(n) - 1
			// The generator pushes a Void receiver placeholder before the
			// arguments; propagate the caller's own receiver through it so
			// that properties stay reachable across plain handler calls.
			vm.stack[base] = vm.stack[fr.base]
			if c, ok := vm.handlers[name]; ok {
				if err := vm.enter(c, base); err != nil {
					return Void, err
				}
				break
			}
			if fn, ok := vm.builtins[name]; ok {
				args := make([]Value, n)
				copy(args, vm.stack[base+1:])
				vm.stack = vm.stack[:base]
				ret, err := fn(vm, args)
				if err != nil {
					return Void, vm.errf("%s: %v", name, err)
				}
				if err := vm.push(ret); err != nil {
					return Void, err
				}
				break
			}
			return Void, vm.errf("unknown handler %q", name)

		case OpOCALL:
			k, n := in.U16Pair()
			name := fr.chunk.ConstString(int(k))
			base := len(vm.stack) - int(n) - 1
			recv := vm.stack[base]
			args := make([]Value, n)
			copy(args, vm.stack[base+1:])
			ret, handled, err := vm.callMethod(recv, name, args)
			if err != nil {
				return Void, err
			}
			if handled {
				vm.stack = vm.stack[:base]
				if err := vm.push(ret); err != nil {
					return Void, err
				}
				break
			}
			c, ok := vm.handlers[name]
			if !ok {
				return Void, vm.errf("unknown handler %q for a %s receiver", name, recv.Kind)
			}
			if err := vm.enter(c, base); err != nil {
				return Void, err
			}

		case OpOIDXG:
			i, o := vm.pop(), vm.pop()
			v, err := vm.indexGet(o, i)
			if err != nil {
				return Void, err
			}
			if err := vm.push(v); err != nil {
				return Void, err
			}

		case OpOIDXS:
			v, i, o := vm.pop(), vm.pop(), vm.pop()
			if err := vm.indexSet(o, i, v); err != nil {
				return Void, err
			}

		case OpOIDXK:
			i, k, o := vm.pop(), vm.pop(), vm.pop()
			v, err := vm.chunkGet(o, k, i, i)
			if err != nil {
				return Void, err
			}
			if err := vm.push(v); err != nil {
				return Void, err
			}

		case OpOIDXKR:
			to, from, k, o := vm.pop(), vm.pop(), vm.pop(), vm.pop()
			v, err := vm.chunkGet(o, k, from, to)
			if err != nil {
				return Void, err
			}
			if err := vm.push(v); err != nil {
				return Void, err
			}

		case OpTHE:
			id := TheBuiltin(in.U8())
			if int(id) >= numTheBuiltins || vm.intrinsics[id] == nil {
				return Void, vm.errf("no intrinsic registered for builtin %d", id)
			}
			v, err := vm.intrinsics[id](vm)
			if err != nil {
				return Void, vm.errf("the %s: %v", theBuiltinName(id), err)
			}
			if err := vm.push(v); err != nil {
				return Void, err
			}

		case OpNEWLLIST:
			if err := vm.push(vm.Heap.NewLinearList(int(in.U16()))); err != nil {
				return Void, err
			}
		case OpNEWPLIST:
			if err := vm.push(vm.Heap.NewPropList()); err != nil {
				return Void, err
			}

		case OpCASE:
			// The generator lowers case statements to EQ/BRT sequences and
			// never emits CASE; a chunk carrying one did not come from this
			// compiler.
			return Void, vm.errf("CASE jump tables are not produced by this compiler")

		case OpPUT:
			v := vm.pop()
			if _, err := fmt.Fprintln(vm.Out, vm.Heap.Stringify(v)); err != nil {
				return Void, vm.errf("put: %v", err)
			}

		default:
			return Void, vm.errf("invalid opcode %d", in.Op())
		}
	}
}

// materialize converts constant-pool entry k of c into a Value. String
// constants become fresh heap handles; symbol constants are interned so
// that symbol equality is handle equality.
func (vm *VM) materialize(c *Chunk, k int) (Value, error) {
	if k >= len(c.Consts) {
		return Void, vm.errf("constant index %d out of range", k)
	}
	kn := c.Consts[k]
	switch kn.Tag {
	case ConstVoid:
		return Void, nil
	case ConstInt:
		return IntVal(kn.I), nil
	case ConstFloat:
		return FloatVal(kn.F), nil
	case ConstString:
		return vm.Heap.NewString(c.StringAt(kn.StrOff)), nil
	case ConstSymbol:
		return vm.Syms.Intern(c.StringAt(kn.StrOff)), nil
	default:
		return Void, vm.errf("constant %d has invalid tag %d", k, kn.Tag)
	}
}

func boolInt(b bool) Value {
	if b {
		return IntVal(1)
	}
	return IntVal(0)
}

// truthy applies the Int/Void truthiness rule: Int != 0 is true, Int 0
// and Void are false, anything else is a runtime error.
func (vm *VM) truthy(v Value) (bool, error) {
	switch v.Kind {
	case KInt:
		return v.I != 0, nil
	case KVoid:
		return false, nil
	default:
		return false, vm.errf("a %s value has no truth value", v.Kind)
	}
}

// arith applies the promotion rules: Int op Int stays Int with
// two's-complement wrap, any Float operand promotes to Float, and any
// other combination is a runtime error. Integer division and modulo
// truncate toward zero and fault on a zero divisor; their float
// counterparts follow IEEE (division yields an infinity, math.Mod a NaN).
func (vm *VM) arith(op Op, a, b Value) (Value, error) {
	if a.Kind == KInt && b.Kind == KInt {
		switch op {
		case OpADD:
			return IntVal(a.I + b.I), nil
		case OpSUB:
			return IntVal(a.I - b.I), nil
		case OpMUL:
			return IntVal(a.I * b.I), nil
		case OpDIV:
			if b.I == 0 {
				return Void, vm.errf("integer division by zero")
			}
			return IntVal(a.I / b.I), nil
		case OpMOD:
			if b.I == 0 {
				return Void, vm.errf("integer modulo by zero")
			}
			return IntVal(a.I % b.I), nil
		}
	}
	af, aok := numAsFloat(a)
	bf, bok := numAsFloat(b)
	if !aok || !bok {
		return Void, vm.errf("cannot apply %s to %s and %s values", op, a.Kind, b.Kind)
	}
	switch op {
	case OpADD:
		return FloatVal(af + bf), nil
	case OpSUB:
		return FloatVal(af - bf), nil
	case OpMUL:
		return FloatVal(af * bf), nil
	case OpDIV:
		return FloatVal(af / bf), nil
	case OpMOD:
		return FloatVal(math.Mod(af, bf)), nil
	}
	return Void, vm.errf("invalid arithmetic opcode %s", op)
}

func numAsFloat(v Value) (float64, bool) {
	switch v.Kind {
	case KInt:
		return float64(v.I), true
	case KFloat:
		return v.F, true
	}
	return 0, false
}

func (vm *VM) compare(op Op, a, b Value) (Value, error) {
	if a.Kind == KString && b.Kind == KString {
		as, bs := vm.Heap.String(a), vm.Heap.String(b)
		switch op {
		case OpLT:
			return boolInt(as < bs), nil
		case OpGT:
			return boolInt(as > bs), nil
		case OpLTE:
			return boolInt(as <= bs), nil
		case OpGTE:
			return boolInt(as >= bs), nil
		}
	}
	af, aok := numAsFloat(a)
	bf, bok := numAsFloat(b)
	if !aok || !bok {
		return Void, vm.errf("cannot order %s and %s values", a.Kind, b.Kind)
	}
	switch op {
	case OpLT:
		return boolInt(af < bf), nil
	case OpGT:
		return boolInt(af > bf), nil
	case OpLTE:
		return boolInt(af <= bf), nil
	case OpGTE:
		return boolInt(af >= bf), nil
	}
	return Void, vm.errf("invalid comparison opcode %s", op)
}

// eq implements EQ's symmetric, total equality.
func (vm *VM) eq(a, b Value) bool {
	switch {
	case a.Kind == KVoid || b.Kind == KVoid:
		return a.Kind == b.Kind
	case a.Kind == KSymbol && b.Kind == KSymbol:
		return a.Ref == b.Ref
	case a.Kind == KString && b.Kind == KString:
		return vm.Heap.String(a) == vm.Heap.String(b)
	}
	af, aok := numAsFloat(a)
	bf, bok := numAsFloat(b)
	if aok && bok {
		return af == bf
	}
	// String against a number parses the string as numeric first.
	if a.Kind == KString && bok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(vm.Heap.String(a)), 64); err == nil {
			return f == bf
		}
		return false
	}
	if b.Kind == KString && aok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(vm.Heap.String(b)), 64); err == nil {
			return af == f
		}
		return false
	}
	if a.Kind == b.Kind {
		// Lists, property lists, points, and quads compare by identity.
		return a.Ref == b.Ref
	}
	return false
}

// indexGet implements OIDXG: o[i] reads, property reads on the receiver,
// and the symbol-keyed pseudo-members (count) of containers.
func (vm *VM) indexGet(o, i Value) (Value, error) {
	switch o.Kind {
	case KLinearList:
		elems := *vm.Heap.List(o)
		if i.Kind == KInt {
			n := int(i.I)
			if n < 1 || n > len(elems) {
				return Void, vm.errf("index %d out of range for a list of %d", n, len(elems))
			}
			return elems[n-1], nil
		}
		if i.Kind == KSymbol && vm.Heap.Symbol(i) == "count" {
			return IntVal(int32(len(elems))), nil
		}
		return Void, vm.errf("cannot index a list with a %s value", i.Kind)
	case KPropList:
		if v, ok := vm.Heap.PropListGet(o, i, vm.eq); ok {
			return v, nil
		}
		if i.Kind == KSymbol && vm.Heap.Symbol(i) == "count" {
			pl := vm.Heap.propLists[o.Ref]
			return IntVal(int32(len(pl.keys))), nil
		}
		// An absent property reads as Void; scripts probe their own state
		// this way before first assignment.
		return Void, nil
	case KString:
		s := vm.Heap.String(o)
		if i.Kind == KInt {
			rs := []rune(s)
			n := int(i.I)
			if n < 1 || n > len(rs) {
				return Void, vm.errf("index %d out of range for a string of %d", n, len(rs))
			}
			return vm.Heap.NewString(string(rs[n-1])), nil
		}
		if i.Kind == KSymbol {
			switch vm.Heap.Symbol(i) {
			case "count", "length":
				return IntVal(int32(len([]rune(s)))), nil
			}
		}
		return Void, vm.errf("cannot index a string with a %s value", i.Kind)
	case KPoint:
		if i.Kind == KSymbol {
			x, y := vm.Heap.Point(o)
			switch vm.Heap.Symbol(i) {
			// The parser lower-cases dot names, so locH arrives as loch.
			case "loch":
				return FloatVal(x), nil
			case "locv":
				return FloatVal(y), nil
			}
		}
		return Void, vm.errf("cannot index a point with %s", vm.Heap.Stringify(i))
	default:
		return Void, vm.errf("cannot index a %s value", o.Kind)
	}
}

// indexSet implements OIDXS: o[i] = v writes and property stores. A list
// write one past the end appends.
func (vm *VM) indexSet(o, i, v Value) error {
	switch o.Kind {
	case KLinearList:
		elems := vm.Heap.List(o)
		if i.Kind != KInt {
			return vm.errf("cannot index a list with a %s value", i.Kind)
		}
		n := int(i.I)
		switch {
		case n >= 1 && n <= len(*elems):
			(*elems)[n-1] = v
		case n == len(*elems)+1:
			*elems = append(*elems, v)
		default:
			return vm.errf("index %d out of range for a list of %d", n, len(*elems))
		}
		return nil
	case KPropList:
		vm.Heap.PropListSet(o, i, v, vm.eq)
		return nil
	default:
		return vm.errf("cannot store into a %s value", o.Kind)
	}
}

// chunkGet implements OIDXK and OIDXKR, the chunk-access forms o.k[i] and
// o.k[a..b]. String receivers support the char/word/item/line chunk kinds;
// any other receiver resolves o.k first and indexes the result. A range
// with an empty key is a plain slice of a list or string.
func (vm *VM) chunkGet(o, k, from, to Value) (Value, error) {
	if k.Kind == KSymbol && vm.Heap.Symbol(k) == "" {
		return vm.sliceGet(o, from, to)
	}
	if o.Kind == KString && k.Kind == KSymbol {
		if parts, sep, ok := stringChunks(vm.Heap.String(o), vm.Heap.Symbol(k)); ok {
			a, b, err := vm.chunkBounds(from, to, len(parts))
			if err != nil {
				return Void, err
			}
			return vm.Heap.NewString(strings.Join(parts[a-1:b], sep)), nil
		}
	}
	member, err := vm.indexGet(o, k)
	if err != nil {
		return Void, err
	}
	if from.Kind == KInt && to.Kind == KInt && from.I == to.I {
		return vm.indexGet(member, from)
	}
	return vm.sliceGet(member, from, to)
}

func (vm *VM) chunkBounds(from, to Value, n int) (int, int, error) {
	if from.Kind != KInt || to.Kind != KInt {
		return 0, 0, vm.errf("chunk indices must be integers")
	}
	a, b := int(from.I), int(to.I)
	if a < 1 {
		a = 1
	}
	if b > n {
		b = n
	}
	if a > b {
		return 1, 0, nil
	}
	return a, b, nil
}

func (vm *VM) sliceGet(o, from, to Value) (Value, error) {
	switch o.Kind {
	case KString:
		rs := []rune(vm.Heap.String(o))
		a, b, err := vm.chunkBounds(from, to, len(rs))
		if err != nil {
			return Void, err
		}
		return vm.Heap.NewString(string(rs[a-1 : b])), nil
	case KLinearList:
		elems := *vm.Heap.List(o)
		a, b, err := vm.chunkBounds(from, to, len(elems))
		if err != nil {
			return Void, err
		}
		out := vm.Heap.NewLinearList(b - a + 1)
		*vm.Heap.List(out) = append(*vm.Heap.List(out), elems[a-1:b]...)
		return out, nil
	default:
		return Void, vm.errf("cannot take a range of a %s value", o.Kind)
	}
}

// stringChunks splits s into its chunks of the named kind, returning the
// parts and the separator ranges are rejoined with.
func stringChunks(s, kind string) (parts []string, sep string, ok bool) {
	switch kind {
	case "char":
		rs := []rune(s)
		parts = make([]string, len(rs))
		for i, r := range rs {
			parts[i] = string(r)
		}
		return parts, "", true
	case "word":
		return strings.Fields(s), " ", true
	case "item":
		return strings.Split(s, ","), ",", true
	case "line":
		return strings.FieldsFunc(s, func(r rune) bool { return r == '\r' || r == '\n' }), "\r", true
	}
	return nil, "", false
}

// callMethod dispatches an OCALL whose receiver is a container with an
// intrinsic method of that name; handled is false when the call should fall
// through to the registered-handlers table instead.
func (vm *VM) callMethod(recv Value, name string, args []Value) (v Value, handled bool, err error) {
	switch recv.Kind {
	case KLinearList:
		elems := vm.Heap.List(recv)
		switch name {
		case "add", "append":
			if len(args) != 1 {
				return Void, true, vm.errf("%s takes one argument", name)
			}
			*elems = append(*elems, args[0])
			return Void, true, nil
		case "addat":
			if len(args) != 2 || args[0].Kind != KInt {
				return Void, true, vm.errf("addAt takes an integer position and a value")
			}
			n := int(args[0].I)
			if n < 1 || n > len(*elems)+1 {
				return Void, true, vm.errf("index %d out of range for a list of %d", n, len(*elems))
			}
			*elems = append(*elems, Void)
			copy((*elems)[n:], (*elems)[n-1:])
			(*elems)[n-1] = args[1]
			return Void, true, nil
		case "deleteat":
			if len(args) != 1 || args[0].Kind != KInt {
				return Void, true, vm.errf("deleteAt takes an integer position")
			}
			n := int(args[0].I)
			if n < 1 || n > len(*elems) {
				return Void, true, vm.errf("index %d out of range for a list of %d", n, len(*elems))
			}
			*elems = append((*elems)[:n-1], (*elems)[n:]...)
			return Void, true, nil
		case "getat":
			if len(args) != 1 {
				return Void, true, vm.errf("getAt takes one argument")
			}
			v, err := vm.indexGet(recv, args[0])
			return v, true, err
		case "setat":
			if len(args) != 2 {
				return Void, true, vm.errf("setAt takes two arguments")
			}
			return Void, true, vm.indexSet(recv, args[0], args[1])
		case "getlast":
			if len(*elems) == 0 {
				return Void, true, vm.errf("getLast on an empty list")
			}
			return (*elems)[len(*elems)-1], true, nil
		case "count":
			return IntVal(int32(len(*elems))), true, nil
		case "getpos":
			if len(args) != 1 {
				return Void, true, vm.errf("getPos takes one argument")
			}
			for i, e := range *elems {
				if vm.eq(e, args[0]) {
					return IntVal(int32(i + 1)), true, nil
				}
			}
			return IntVal(0), true, nil
		}
	case KPropList:
		switch name {
		case "addprop", "setprop", "setat":
			if len(args) != 2 {
				return Void, true, vm.errf("%s takes a key and a value", name)
			}
			vm.Heap.PropListSet(recv, args[0], args[1], vm.eq)
			return Void, true, nil
		case "getprop", "getat":
			if len(args) != 1 {
				return Void, true, vm.errf("%s takes one argument", name)
			}
			v, _ := vm.Heap.PropListGet(recv, args[0], vm.eq)
			return v, true, nil
		case "count":
			pl := vm.Heap.propLists[recv.Ref]
			return IntVal(int32(len(pl.keys))), true, nil
		}
	case KString:
		switch name {
		case "count", "length":
			return IntVal(int32(len([]rune(vm.Heap.String(recv))))), true, nil
		case "getat":
			if len(args) != 1 {
				return Void, true, vm.errf("getAt takes one argument")
			}
			v, err := vm.indexGet(recv, args[0])
			return v, true, err
		}
	}
	return Void, false, nil
}
