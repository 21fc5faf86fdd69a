package internal

// Interner is the VM-wide symbol table: a mapping from a symbol's
// characters to its canonical heap handle, so that symbol equality reduces
// to handle equality. The generator's constant pool
// also uses it indirectly: every SymbolLiteral constant is materialised by
// LOADC into an interned symbol value.
type Interner struct {
	heap  *Heap
	byTxt map[string]Ref
}

// NewInterner creates an empty symbol table backed by heap.
func NewInterner(heap *Heap) *Interner {
	return &Interner{heap: heap, byTxt: make(map[string]Ref)}
}

// Intern returns the canonical Symbol value for s, allocating a fresh heap
// slot only the first time s is seen.
func (in *Interner) Intern(s string) Value {
	if ref, ok := in.byTxt[s]; ok {
		return Value{Kind: KSymbol, Ref: ref}
	}
	ref := in.heap.allocSymbol(s)
	in.byTxt[s] = ref
	return Value{Kind: KSymbol, Ref: ref}
}
