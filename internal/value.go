package internal

import (
	"fmt"

	"github.com/zephyrtronium/contains"
)

// Kind discriminates the tagged-variant VM value.
type Kind uint8

const (
	KVoid Kind = iota
	KInt
	KFloat
	KString
	KSymbol
	KLinearList
	KPropList
	KPoint
	KQuad
)

func (k Kind) String() string {
	switch k {
	case KVoid:
		return "void"
	case KInt:
		return "integer"
	case KFloat:
		return "float"
	case KString:
		return "string"
	case KSymbol:
		return "symbol"
	case KLinearList:
		return "list"
	case KPropList:
		return "proplist"
	case KPoint:
		return "point"
	case KQuad:
		return "quad"
	default:
		return "?"
	}
}

// Ref is a handle to a heap object owned by a VM's Heap for the duration of
// execution. The design leaks heap objects rather than collecting them; a
// mark-sweep GC rooted in the operand stack, call stack, globals, and
// symbol table is the intended resolution (marking symbol-table values
// weakly so unreferenced symbols may die).
type Ref uint32

// Value is the VM's uniform tagged-variant value. Int
// and Float are carried inline; every other kind carries a Ref into the
// owning VM's Heap.
type Value struct {
	Kind Kind
	I    int32
	F    float64
	Ref  Ref
}

// Void is the canonical empty value.
var Void = Value{Kind: KVoid}

// IntVal constructs an Int value.
func IntVal(i int32) Value { return Value{Kind: KInt, I: i} }

// FloatVal constructs a Float value.
func FloatVal(f float64) Value { return Value{Kind: KFloat, F: f} }

// stringObj is a heap-allocated character sequence.
type stringObj struct {
	s string
}

// symbolObj is a heap-allocated interned identifier. Two symbols with the
// same text always share one symbolObj; see intern.go.
type symbolObj struct {
	s string
}

// listObj is a heap-allocated linear list, "[e, e, ...]".
type listObj struct {
	elems []Value
}

// propListObj is a heap-allocated property list, "[k: v, ...]". Order of
// first insertion is preserved for iteration.
type propListObj struct {
	keys []Value
	vals []Value
}

// pointObj is a heap-allocated 2D point.
type pointObj struct {
	X, Y float64
}

// quadObj is a heap-allocated quadrilateral: four corner points, used by
// the host's sprite/region builtins. Stored as flat coordinates rather
// than four Points to avoid a second level of heap indirection.
type quadObj struct {
	X1, Y1, X2, Y2, X3, Y3, X4, Y4 float64
}

// Heap owns every heap object allocated during one VM run. It never frees
// an object once allocated; index 0
// is reserved so that a zero Ref is recognisably invalid.
type Heap struct {
	strings   []stringObj
	symbols   []symbolObj
	lists     []listObj
	propLists []propListObj
	points    []pointObj
	quads     []quadObj
}

// NewHeap creates an empty heap with its reserved zero slots populated.
func NewHeap() *Heap {
	h := &Heap{}
	h.strings = append(h.strings, stringObj{})
	h.symbols = append(h.symbols, symbolObj{})
	h.lists = append(h.lists, listObj{})
	h.propLists = append(h.propLists, propListObj{})
	h.points = append(h.points, pointObj{})
	h.quads = append(h.quads, quadObj{})
	return h
}

// NewString allocates a fresh String value.
func (h *Heap) NewString(s string) Value {
	h.strings = append(h.strings, stringObj{s: s})
	return Value{Kind: KString, Ref: Ref(len(h.strings) - 1)}
}

// String returns the characters behind a String value. v's Kind is not
// checked, so callers check Kind first.
func (h *Heap) String(v Value) string {
	return h.strings[v.Ref].s
}

// allocSymbol allocates a fresh, uninterned symbol heap slot. Used only by
// the intern table (intern.go), which guarantees one slot per distinct
// spelling.
func (h *Heap) allocSymbol(s string) Ref {
	h.symbols = append(h.symbols, symbolObj{s: s})
	return Ref(len(h.symbols) - 1)
}

// Symbol returns the characters behind a Symbol value.
func (h *Heap) Symbol(v Value) string {
	return h.symbols[v.Ref].s
}

// NewLinearList allocates a fresh linear list with preallocated capacity n.
func (h *Heap) NewLinearList(n int) Value {
	h.lists = append(h.lists, listObj{elems: make([]Value, 0, n)})
	return Value{Kind: KLinearList, Ref: Ref(len(h.lists) - 1)}
}

// List returns the mutable backing slice of a LinearList value.
func (h *Heap) List(v Value) *[]Value {
	return &h.lists[v.Ref].elems
}

// NewPropList allocates a fresh, empty property list.
func (h *Heap) NewPropList() Value {
	h.propLists = append(h.propLists, propListObj{})
	return Value{Kind: KPropList, Ref: Ref(len(h.propLists) - 1)}
}

// PropListGet looks up key by EQ-equality among the list's existing keys.
func (h *Heap) PropListGet(v Value, key Value, eq func(Value, Value) bool) (Value, bool) {
	pl := &h.propLists[v.Ref]
	for i, k := range pl.keys {
		if eq(k, key) {
			return pl.vals[i], true
		}
	}
	return Void, false
}

// PropListSet inserts or overwrites key's value, preserving first-insertion
// order.
func (h *Heap) PropListSet(v Value, key Value, val Value, eq func(Value, Value) bool) {
	pl := &h.propLists[v.Ref]
	for i, k := range pl.keys {
		if eq(k, key) {
			pl.vals[i] = val
			return
		}
	}
	pl.keys = append(pl.keys, key)
	pl.vals = append(pl.vals, val)
}

// NewPoint allocates a fresh 2D point.
func (h *Heap) NewPoint(x, y float64) Value {
	h.points = append(h.points, pointObj{X: x, Y: y})
	return Value{Kind: KPoint, Ref: Ref(len(h.points) - 1)}
}

// Point returns the coordinates of a Point value.
func (h *Heap) Point(v Value) (float64, float64) {
	p := h.points[v.Ref]
	return p.X, p.Y
}

// NewQuad allocates a fresh quadrilateral from four corner coordinates.
func (h *Heap) NewQuad(x1, y1, x2, y2, x3, y3, x4, y4 float64) Value {
	h.quads = append(h.quads, quadObj{x1, y1, x2, y2, x3, y3, x4, y4})
	return Value{Kind: KQuad, Ref: Ref(len(h.quads) - 1)}
}

// Stringify renders v in the form `put` writes to standard output. A
// container reached for a second time within one rendering is shown as
// "[...]", so a list that contains itself cannot recurse forever.
func (h *Heap) Stringify(v Value) string {
	seen := contains.Set{}
	return h.stringify(v, &seen)
}

func (h *Heap) stringify(v Value, seen *contains.Set) string {
	switch v.Kind {
	case KVoid:
		return ""
	case KInt:
		return fmt.Sprintf("%d", v.I)
	case KFloat:
		return fmt.Sprintf("%g", v.F)
	case KString:
		return h.String(v)
	case KSymbol:
		return "#" + h.Symbol(v)
	case KLinearList:
		if !seen.Add(uintptr(v.Ref) << 1) {
			return "[...]"
		}
		elems := *h.List(v)
		s := "["
		for i, e := range elems {
			if i > 0 {
				s += ", "
			}
			s += h.stringify(e, seen)
		}
		return s + "]"
	case KPropList:
		if !seen.Add(uintptr(v.Ref)<<1 | 1) {
			return "[...]"
		}
		pl := h.propLists[v.Ref]
		s := "["
		for i := range pl.keys {
			if i > 0 {
				s += ", "
			}
			s += h.stringify(pl.keys[i], seen) + ": " + h.stringify(pl.vals[i], seen)
		}
		return s + "]"
	case KPoint:
		x, y := h.Point(v)
		return fmt.Sprintf("point(%g, %g)", x, y)
	case KQuad:
		q := h.quads[v.Ref]
		return fmt.Sprintf("quad(%g, %g, %g, %g, %g, %g, %g, %g)", q.X1, q.Y1, q.X2, q.Y2, q.X3, q.Y3, q.X4, q.Y4)
	default:
		return ""
	}
}
